package dashboard

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/quota-watch-tui/internal/app"
	"github.com/j-veylop/quota-watch-tui/internal/config"
	"github.com/j-veylop/quota-watch-tui/internal/models"
	"github.com/j-veylop/quota-watch-tui/internal/services"
	"github.com/j-veylop/quota-watch-tui/internal/services/fetch"
)

func testConfig() *config.Config {
	return &config.Config{
		URL:      "http://localhost:8040/account-limits",
		Interval: 5 * time.Second,
		Timeout:  10 * time.Second,
	}
}

// manyModelSnapshot builds a snapshot with one account and n models so
// scroll behavior can be exercised.
func manyModelSnapshot(n int) *models.Snapshot {
	snap := &models.Snapshot{
		FetchedAt: time.Now(),
		Accounts:  []models.Account{{ID: "a@test.com", Status: models.StatusAvailable}},
		Quotas:    make(map[models.QuotaKey]models.ModelQuota),
	}
	for i := 0; i < n; i++ {
		name := fmt.Sprintf("model-%02d", i)
		snap.Models = append(snap.Models, name)
		snap.Quotas[models.QuotaKey{Model: name, Account: "a@test.com"}] = models.ModelQuota{
			Account: "a@test.com",
			Model:   name,
			Percent: 50,
		}
	}
	return snap
}

func TestNew(t *testing.T) {
	m := New(app.NewState(), testConfig())
	if m == nil {
		t.Fatal("New returned nil")
	}
}

func TestModel_Init(t *testing.T) {
	m := New(app.NewState(), testConfig())
	if m.Init() == nil {
		t.Error("Init returned nil")
	}
}

func TestModel_ScrollClamping(t *testing.T) {
	state := app.NewState()
	state.SetSnapshot(manyModelSnapshot(40), nil)
	m := New(state, testConfig())
	m.visible = 10

	tests := []struct {
		name string
		key  tea.KeyMsg
		want int
	}{
		{"down", tea.KeyMsg{Type: tea.KeyDown}, 1},
		{"page down", tea.KeyMsg{Type: tea.KeyPgDown}, 11},
		{"end clamps to last page", tea.KeyMsg{Type: tea.KeyEnd}, 30},
		{"down at bottom stays", tea.KeyMsg{Type: tea.KeyDown}, 30},
		{"page up", tea.KeyMsg{Type: tea.KeyPgUp}, 20},
		{"home", tea.KeyMsg{Type: tea.KeyHome}, 0},
		{"up at top stays", tea.KeyMsg{Type: tea.KeyUp}, 0},
	}

	for _, tt := range tests {
		m.handleKeyMsg(tt.key)
		if m.offset != tt.want {
			t.Errorf("%s: offset = %d, want %d", tt.name, m.offset, tt.want)
		}
	}
}

func TestModel_ScrollClamping_AllRowsFit(t *testing.T) {
	state := app.NewState()
	state.SetSnapshot(manyModelSnapshot(3), nil)
	m := New(state, testConfig())
	m.visible = 10

	m.handleKeyMsg(tea.KeyMsg{Type: tea.KeyDown})
	if m.offset != 0 {
		t.Errorf("offset = %d, want 0 when all rows fit", m.offset)
	}
	m.handleKeyMsg(tea.KeyMsg{Type: tea.KeyEnd})
	if m.offset != 0 {
		t.Errorf("offset = %d, want 0 after end when all rows fit", m.offset)
	}
}

func TestModel_Update_SnapshotShrinksOffset(t *testing.T) {
	state := app.NewState()
	state.SetSnapshot(manyModelSnapshot(40), nil)
	m := New(state, testConfig())
	m.visible = 10
	m.offset = 30

	state.SetSnapshot(manyModelSnapshot(12), nil)
	m.Update(app.ServiceEventMsg{Event: services.SnapshotEvent{}})

	if m.offset != 2 {
		t.Errorf("offset = %d, want 2 after rows shrank", m.offset)
	}
}

func TestModel_View_InitialLoading(t *testing.T) {
	m := New(app.NewState(), testConfig())
	m.SetSize(80, 24)

	view := m.View()
	if !strings.Contains(view, "Fetching account limits") {
		t.Error("View should show the loading spinner label")
	}
}

func TestModel_View_ErrorBeforeFirstSnapshot(t *testing.T) {
	state := app.NewState()
	state.SetError(&fetch.Error{Kind: fetch.KindUnreachable, Source: "http://localhost:8040/account-limits"})
	m := New(state, testConfig())
	m.SetSize(100, 30)

	view := m.View()
	if !strings.Contains(view, "failed to connect") {
		t.Logf("View content: %q", view)
		t.Error("View should show the connection failure message")
	}
}

func TestModel_View_Snapshot(t *testing.T) {
	now := time.Now()
	snap := &models.Snapshot{
		FetchedAt: now,
		Accounts: []models.Account{
			{ID: "limited@test.com", Status: models.StatusRateLimited, LimitedCount: 1, LimitedTotal: 1},
		},
		Models: []string{"gpt"},
		Quotas: map[models.QuotaKey]models.ModelQuota{
			// The wait label truncates, so 46s from now renders as 45s
			// for a full second rather than only for an instant.
			{Model: "gpt", Account: "limited@test.com"}: {
				Account: "limited@test.com",
				Model:   "gpt",
				Percent: 5,
				ResetAt: now.Add(46 * time.Second),
			},
		},
	}

	state := app.NewState()
	state.SetSnapshot(snap, nil)
	m := New(state, testConfig())
	m.SetSize(120, 40)

	view := m.View()
	for _, want := range []string{
		"Account Limits",
		"1 total",
		"0 available",
		"1 rate-limited",
		"(1/1) limited",
		"gpt",
		"5% (wait 45s)",
	} {
		if !strings.Contains(view, want) {
			t.Errorf("View should contain %q", want)
		}
	}
}

func TestModel_View_StaleSnapshotKeepsTable(t *testing.T) {
	state := app.NewState()
	state.SetSnapshot(manyModelSnapshot(2), nil)
	state.SetError(errors.New("boom"))
	m := New(state, testConfig())
	m.SetSize(120, 40)

	view := m.View()
	if !strings.Contains(view, "model-00") {
		t.Error("View should keep the previous snapshot on error")
	}
	if !strings.Contains(view, "boom") {
		t.Error("View should surface the refresh failure")
	}
}

func TestModel_SetSize(t *testing.T) {
	m := New(app.NewState(), testConfig())
	m.SetSize(100, 50)
	if m.width != 100 || m.height != 50 {
		t.Errorf("size = %dx%d, want 100x50", m.width, m.height)
	}
}

func TestModel_Help(t *testing.T) {
	m := New(app.NewState(), testConfig())
	if len(m.ShortHelp()) == 0 {
		t.Error("ShortHelp empty")
	}
	if len(m.FullHelp()) == 0 {
		t.Error("FullHelp empty")
	}
}
