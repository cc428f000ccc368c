package app

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/quota-watch-tui/internal/models"
	"github.com/j-veylop/quota-watch-tui/internal/services"
	"github.com/j-veylop/quota-watch-tui/internal/services/refresh"
)

func TestNewModel(t *testing.T) {
	model := NewModel(nil)
	if model == nil {
		t.Fatal("NewModel returned nil")
	}
	if model.state == nil {
		t.Error("State should be initialized")
	}
	if model.activeTab != TabDashboard {
		t.Error("Default tab should be Dashboard")
	}
	if len(model.tabs) != 3 {
		t.Errorf("Should have 3 tabs placeholder, got %d", len(model.tabs))
	}
}

func TestModel_Init(t *testing.T) {
	model := NewModel(nil)
	cmd := model.Init()
	if cmd == nil {
		t.Error("Init returned nil command")
	}
}

func TestModel_Update_WindowSize(t *testing.T) {
	model := NewModel(nil)
	msg := tea.WindowSizeMsg{Width: 100, Height: 50}

	newModel, _ := model.Update(msg)

	m, ok := newModel.(*Model)
	if !ok {
		t.Fatal("Update returned wrong model type")
	}

	if m.width != 100 {
		t.Errorf("Width = %d, want 100", m.width)
	}
	if m.height != 50 {
		t.Errorf("Height = %d, want 50", m.height)
	}
	if !m.ready {
		t.Error("Model should be ready after WindowSizeMsg")
	}
}

func TestModel_Update_TabSwitch(t *testing.T) {
	model := NewModel(nil)
	model.ready = true
	model.width = 100
	model.height = 50

	// Test switching to Trend
	msg := TabSwitchMsg{Tab: TabTrend}
	newModel, _ := model.Update(msg)
	m := newModel.(*Model)

	if m.activeTab != TabTrend {
		t.Errorf("ActiveTab = %v, want Trend", m.activeTab)
	}

	// Test key binding '3'
	keyMsg := tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'3'}}
	model.handleKeyMsg(keyMsg)
	if model.activeTab != TabInfo {
		t.Errorf("ActiveTab = %v, want Info after '3'", model.activeTab)
	}
}

func TestModel_Update_Tick(t *testing.T) {
	model := NewModel(nil)
	msg := TickMsg{Time: time.Now()}

	_, cmd := model.Update(msg)
	if cmd == nil {
		t.Error("TickMsg should return a command (next tick)")
	}
}

func TestModel_View(t *testing.T) {
	model := NewModel(nil)

	// Not ready
	view := model.View()
	if !strings.Contains(view, "Loading...") {
		t.Error("View should show Loading when not ready")
	}

	// Ready
	model.ready = true
	model.width = 80
	model.height = 24

	view = model.View()
	// Should show tabs
	if !strings.Contains(view, "Dashboard") {
		t.Error("View should show Dashboard tab")
	}
	// Should show placeholder since tabs are nil
	if !strings.Contains(view, "not yet implemented") {
		t.Error("View should show placeholder text")
	}
}

func TestModel_Help(t *testing.T) {
	model := NewModel(nil)
	model.ready = true
	model.width = 80
	model.height = 24

	// Toggle help
	model.Update(ToggleHelpMsg{})
	if !model.showHelp {
		t.Error("showHelp should be true")
	}

	view := model.View()
	if !strings.Contains(view, "Keyboard Shortcuts") {
		t.Error("View should show help modal")
	}

	// Toggle off via key
	model.handleKeyMsg(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'?'}})
	if model.showHelp {
		t.Error("showHelp should be false after toggle")
	}
}

func TestModel_Notifications(t *testing.T) {
	model := NewModel(nil)

	msg := AddNotificationMsg{
		Message:  "Test Note",
		Type:     NotificationInfo,
		Duration: 0,
	}

	model.Update(msg)

	notifs := model.state.GetNotifications()
	if len(notifs) != 1 {
		t.Errorf("Expected 1 notification, got %d", len(notifs))
	}

	// Test rendering
	model.ready = true
	model.width = 80
	model.height = 24
	view := model.View()
	if !strings.Contains(view, "Test Note") {
		t.Error("View should show notification")
	}
}

func TestModel_HandleServiceEvent_Snapshot(t *testing.T) {
	model := NewModel(nil)

	snap := singleQuotaSnapshot(42)
	cmds := model.handleServiceEvent(services.SnapshotEvent{Snapshot: snap})

	if model.state.Snapshot() != snap {
		t.Error("snapshot event should update state")
	}
	if model.state.IsInitialLoading() {
		t.Error("snapshot event should settle initial loading")
	}
	if len(cmds) != 0 {
		t.Errorf("clean snapshot should produce no notifications, got %d cmds", len(cmds))
	}
}

func TestModel_HandleServiceEvent_Warnings(t *testing.T) {
	model := NewModel(nil)

	event := services.SnapshotEvent{
		Snapshot: singleQuotaSnapshot(42),
		Warnings: []models.ParseWarning{{Account: "a@test.com", Model: "gpt", Err: errors.New("bad")}},
	}
	cmds := model.handleServiceEvent(event)
	if len(cmds) != 1 {
		t.Fatalf("expected 1 notification cmd, got %d", len(cmds))
	}

	msg, ok := cmds[0]().(AddNotificationMsg)
	if !ok {
		t.Fatal("cmd should produce AddNotificationMsg")
	}
	if msg.Type != NotificationWarning {
		t.Errorf("notification type = %v, want warning", msg.Type)
	}
	if !strings.Contains(msg.Message, "1 malformed quota entry dropped") {
		t.Errorf("notification message = %q", msg.Message)
	}

	// Same warnings again: already surfaced, no new toast.
	cmds = model.handleServiceEvent(event)
	if len(cmds) != 0 {
		t.Errorf("repeated warnings should not re-notify, got %d cmds", len(cmds))
	}
}

func TestModel_HandleServiceEvent_Error(t *testing.T) {
	model := NewModel(nil)

	errEvent := services.ErrorEvent{Err: errors.New("connection refused")}
	cmds := model.handleServiceEvent(errEvent)
	if len(cmds) != 1 {
		t.Fatalf("first failure should notify, got %d cmds", len(cmds))
	}
	if model.state.LastError() == nil {
		t.Error("error event should record the failure")
	}

	// Repeated failures stay quiet until the next recovery.
	cmds = model.handleServiceEvent(errEvent)
	if len(cmds) != 0 {
		t.Errorf("repeated failure should not re-notify, got %d cmds", len(cmds))
	}

	// Recovery notifies once and clears the error.
	cmds = model.handleServiceEvent(services.SnapshotEvent{Snapshot: singleQuotaSnapshot(10)})
	if len(cmds) != 1 {
		t.Fatalf("recovery should notify, got %d cmds", len(cmds))
	}
	msg, ok := cmds[0]().(AddNotificationMsg)
	if !ok || msg.Type != NotificationSuccess {
		t.Error("recovery should produce a success notification")
	}
	if model.state.LastError() != nil {
		t.Error("recovery should clear the error")
	}
}

func TestModel_HandleServiceEvent_Phase(t *testing.T) {
	model := NewModel(nil)

	model.handleServiceEvent(services.PhaseEvent{Phase: refresh.PhaseFetching})
	if model.state.Phase() != refresh.PhaseFetching {
		t.Errorf("Phase = %v, want fetching", model.state.Phase())
	}
}

func TestModel_HandleSubscriptionEvent(t *testing.T) {
	model := NewModel(nil)

	ch := make(chan services.ServiceEvent, 1)
	cmds := model.handleSubscriptionEvent(SubscriptionEventMsg{Channel: ch})
	if model.eventChannel == nil {
		t.Fatal("event channel should be stored")
	}
	if len(cmds) != 1 {
		t.Fatalf("expected wait command, got %d cmds", len(cmds))
	}

	ch <- services.PhaseEvent{Phase: refresh.PhaseFetching}
	msg, ok := cmds[0]().(ServiceEventMsg)
	if !ok {
		t.Fatal("wait command should produce ServiceEventMsg")
	}
	if _, ok := msg.Event.(services.PhaseEvent); !ok {
		t.Errorf("Event = %T, want PhaseEvent", msg.Event)
	}
}

func TestModel_Update_Messages(t *testing.T) {
	model := NewModel(nil)

	// RefreshMsg with no services attached is a no-op.
	model.Update(RefreshMsg{})

	// AutoRefreshToggledMsg updates state.
	model.Update(AutoRefreshToggledMsg{Enabled: false})
	if model.state.AutoRefresh() {
		t.Error("AutoRefresh should be false after toggle message")
	}

	cmds := model.handleAutoRefreshToggled(AutoRefreshToggledMsg{Enabled: true})
	if len(cmds) != 1 {
		t.Fatalf("expected notification cmd, got %d", len(cmds))
	}
	if msg, ok := cmds[0]().(AddNotificationMsg); !ok || !strings.Contains(msg.Message, "enabled") {
		t.Error("toggle should produce an info notification")
	}

	// ErrorMsg produces a notification command.
	_, cmd := model.Update(ErrorMsg{Error: errors.New("boom")})
	if cmd == nil {
		t.Error("ErrorMsg should return a command")
	}

	// Notification messages.
	model.Update(AddNotificationMsg{Message: "test", Type: NotificationInfo})
	model.Update(RemoveNotificationMsg{ID: "nonexistent"})
	model.Update(ClearExpiredNotificationsMsg{})
}

func TestModel_HandleSpinnerTick(t *testing.T) {
	model := NewModel(nil)
	// Spinner tick returns a command
	_, cmd := model.Update(spinner.TickMsg{})
	if cmd == nil {
		t.Error("Spinner tick should return command")
	}
}

func TestTabID_String(t *testing.T) {
	if TabDashboard.String() != "Dashboard" {
		t.Error("TabDashboard.String() mismatch")
	}
	if TabTrend.String() != "Trend" {
		t.Error("TabTrend.String() mismatch")
	}
	if TabInfo.String() != "Info" {
		t.Error("TabInfo.String() mismatch")
	}
	if TabID(999).String() != "Unknown" {
		t.Error("Unknown tab string mismatch")
	}
}

func TestDefaultKeyMap(t *testing.T) {
	km := DefaultKeyMap()
	if len(km.ShortHelp()) == 0 {
		t.Error("ShortHelp empty")
	}
	if len(km.FullHelp()) == 0 {
		t.Error("FullHelp empty")
	}
}

func TestDefaultStyles(t *testing.T) {
	s := DefaultStyles()
	// Just check it doesn't panic and returns something
	_ = s
}
