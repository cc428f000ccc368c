package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"
)

var buildTime = time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)

func TestBuildSnapshot_CanonicalShape(t *testing.T) {
	body := []byte(`{
		"accounts": [
			{
				"id": "alice@example.com",
				"status": "ok",
				"last_used": "2026-02-10T11:55:00Z",
				"models": {
					"gpt":    {"percentage": 62, "reset_at": "2026-02-10T13:00:00Z"},
					"claude": {"percentage": 15}
				}
			},
			{
				"id": "bob@example.com",
				"status": "limited",
				"limited_count": 1,
				"reset_at": "2026-02-10T12:30:00Z",
				"models": {
					"gpt": {"percentage": 0, "reset_at": "2026-02-10T12:30:00Z"}
				}
			}
		]
	}`)

	snap, warnings, err := BuildSnapshot(body, buildTime)
	if err != nil {
		t.Fatalf("BuildSnapshot() error = %v", err)
	}
	if len(warnings) != 0 {
		t.Errorf("warnings = %v, want none", warnings)
	}

	if len(snap.Accounts) != 2 {
		t.Fatalf("len(Accounts) = %d, want 2", len(snap.Accounts))
	}
	if snap.Accounts[0].ID != "alice@example.com" || snap.Accounts[1].ID != "bob@example.com" {
		t.Errorf("account order = %q, %q; want received order", snap.Accounts[0].ID, snap.Accounts[1].ID)
	}
	if snap.Accounts[0].Status != StatusAvailable {
		t.Errorf("alice status = %v, want StatusAvailable", snap.Accounts[0].Status)
	}
	if snap.Accounts[1].Status != StatusRateLimited {
		t.Errorf("bob status = %v, want StatusRateLimited", snap.Accounts[1].Status)
	}
	if snap.Accounts[1].LimitedCount != 1 {
		t.Errorf("bob LimitedCount = %d, want 1", snap.Accounts[1].LimitedCount)
	}

	wantModels := []string{"claude", "gpt"}
	if len(snap.Models) != len(wantModels) {
		t.Fatalf("Models = %v, want %v", snap.Models, wantModels)
	}
	for i, m := range wantModels {
		if snap.Models[i] != m {
			t.Errorf("Models[%d] = %q, want %q", i, snap.Models[i], m)
		}
	}

	q, ok := snap.Quota("gpt", "alice@example.com")
	if !ok {
		t.Fatal("missing quota for (gpt, alice)")
	}
	if q.Percent != 62 {
		t.Errorf("gpt/alice Percent = %v, want 62", q.Percent)
	}
	if q.ResetAt.IsZero() {
		t.Error("gpt/alice ResetAt should be set")
	}

	if _, ok := snap.Quota("claude", "bob@example.com"); ok {
		t.Error("quota for (claude, bob) should be absent")
	}

	if !snap.Accounts[1].ResetAt.Equal(time.Date(2026, 2, 10, 12, 30, 0, 0, time.UTC)) {
		t.Errorf("bob ResetAt = %v, want explicit reset_at", snap.Accounts[1].ResetAt)
	}
}

func TestBuildSnapshot_UpstreamVariant(t *testing.T) {
	body := []byte(`{
		"timestamp": "2026-02-10T12:00:00Z",
		"accounts": [
			{
				"email": "carol@example.com",
				"enabled": true,
				"lastUsed": 1770724500000,
				"limits": {
					"gpt": {"remainingFraction": 0.62, "resetTime": "2026-02-10T13:00:00Z"}
				},
				"modelRateLimits": {
					"gpt": {"isRateLimited": false}
				}
			},
			{
				"email": "dave@example.com",
				"limits": {
					"gpt":    {"remainingFraction": 0.0, "resetTime": "2026-02-10T12:30:00Z"},
					"claude": {"remainingFraction": 0.8}
				},
				"modelRateLimits": {
					"gpt":    {"isRateLimited": true},
					"claude": {"isRateLimited": false}
				}
			}
		],
		"models": ["gpt", "claude", "gemini"]
	}`)

	snap, warnings, err := BuildSnapshot(body, buildTime)
	if err != nil {
		t.Fatalf("BuildSnapshot() error = %v", err)
	}
	if len(warnings) != 0 {
		t.Errorf("warnings = %v, want none", warnings)
	}

	if !snap.ServerTime.Equal(time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)) {
		t.Errorf("ServerTime = %v, want document timestamp", snap.ServerTime)
	}

	carol := snap.Accounts[0]
	if carol.ID != "carol@example.com" {
		t.Errorf("ID = %q, want email fallback", carol.ID)
	}
	if carol.Status != StatusAvailable {
		t.Errorf("carol status = %v, want StatusAvailable", carol.Status)
	}
	if carol.LastUsed.IsZero() {
		t.Error("carol LastUsed should parse from epoch millis")
	}

	q, ok := snap.Quota("gpt", "carol@example.com")
	if !ok {
		t.Fatal("missing quota for (gpt, carol)")
	}
	if q.Percent != 62 {
		t.Errorf("carol gpt Percent = %v, want 62 (fraction scaled)", q.Percent)
	}

	dave := snap.Accounts[1]
	if dave.Status != StatusRateLimited {
		t.Errorf("dave status = %v, want StatusRateLimited (derived)", dave.Status)
	}
	if dave.LimitedCount != 1 || dave.LimitedTotal != 2 {
		t.Errorf("dave limited = %d/%d, want 1/2", dave.LimitedCount, dave.LimitedTotal)
	}
	if got := dave.StatusLabel(); got != "(1/2) limited" {
		t.Errorf("dave StatusLabel() = %q, want \"(1/2) limited\"", got)
	}

	dq, _ := snap.Quota("gpt", "dave@example.com")
	if !dq.RateLimited {
		t.Error("dave gpt should carry the rate-limited marker")
	}

	// Union includes the document's explicit models list.
	wantModels := []string{"claude", "gemini", "gpt"}
	if fmt.Sprint(snap.Models) != fmt.Sprint(wantModels) {
		t.Errorf("Models = %v, want %v", snap.Models, wantModels)
	}
}

func TestBuildSnapshot_ResultEnvelope(t *testing.T) {
	inner := `{"accounts":[{"id":"a@x.com","status":"ok","models":{"gpt":{"percentage":50}}}]}`
	wrapped, err := json.Marshal(map[string]string{"result": inner})
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}

	snap, _, err := BuildSnapshot(wrapped, buildTime)
	if err != nil {
		t.Fatalf("BuildSnapshot() error = %v", err)
	}
	if len(snap.Accounts) != 1 || snap.Accounts[0].ID != "a@x.com" {
		t.Errorf("envelope decode produced %+v", snap.Accounts)
	}

	direct, _, err := BuildSnapshot([]byte(inner), buildTime)
	if err != nil {
		t.Fatalf("BuildSnapshot(direct) error = %v", err)
	}
	if len(direct.Accounts) != len(snap.Accounts) || direct.Models[0] != snap.Models[0] {
		t.Error("wrapped and direct bodies should decode identically")
	}
}

func TestBuildSnapshot_MissingAccounts(t *testing.T) {
	for _, body := range []string{`{}`, `{"accounts": null}`, `{"models": ["gpt"]}`} {
		_, _, err := BuildSnapshot([]byte(body), buildTime)
		if err == nil {
			t.Errorf("BuildSnapshot(%s) should fail without accounts", body)
			continue
		}
		var missing *MissingFieldError
		if !errors.As(err, &missing) {
			t.Errorf("BuildSnapshot(%s) error = %T, want *MissingFieldError", body, err)
		} else if missing.Field != "accounts" {
			t.Errorf("missing field = %q, want accounts", missing.Field)
		}
	}
}

func TestBuildSnapshot_NotJSON(t *testing.T) {
	_, _, err := BuildSnapshot([]byte(`<html>502 Bad Gateway</html>`), buildTime)
	if err == nil {
		t.Fatal("BuildSnapshot should fail on non-JSON input")
	}
}

func TestBuildSnapshot_MalformedQuotaDropped(t *testing.T) {
	body := []byte(`{
		"accounts": [
			{
				"id": "a@x.com",
				"status": "ok",
				"models": {
					"gpt":    {"percentage": 50},
					"claude": {"percentage": "not-a-number"},
					"gemini": {"percentage": 150}
				}
			}
		]
	}`)

	snap, warnings, err := BuildSnapshot(body, buildTime)
	if err != nil {
		t.Fatalf("BuildSnapshot() error = %v, want partial success", err)
	}

	if len(warnings) != 2 {
		t.Fatalf("len(warnings) = %d, want 2 (string value, out of range)", len(warnings))
	}
	for _, w := range warnings {
		var malformed *MalformedQuotaError
		if !errors.As(w.Err, &malformed) {
			t.Errorf("warning error type = %T, want *MalformedQuotaError", w.Err)
		}
	}

	count := 0
	for _, m := range snap.Models {
		if _, ok := snap.Quota(m, "a@x.com"); ok {
			count++
		}
	}
	if count != 1 {
		t.Errorf("surviving quota entries = %d, want 1", count)
	}
	if _, ok := snap.Quota("gpt", "a@x.com"); !ok {
		t.Error("valid entry should survive malformed siblings")
	}
}

func TestBuildSnapshot_InvalidStatusDropsAccount(t *testing.T) {
	body := []byte(`{
		"accounts": [
			{"id": "good@x.com", "status": "ok", "models": {"gpt": {"percentage": 90}}},
			{"id": "weird@x.com", "status": "quantum", "models": {"gpt": {"percentage": 90}}}
		]
	}`)

	snap, warnings, err := BuildSnapshot(body, buildTime)
	if err != nil {
		t.Fatalf("BuildSnapshot() error = %v", err)
	}
	if len(snap.Accounts) != 1 || snap.Accounts[0].ID != "good@x.com" {
		t.Errorf("Accounts = %+v, want only the valid one", snap.Accounts)
	}
	if len(warnings) != 1 {
		t.Fatalf("len(warnings) = %d, want 1", len(warnings))
	}
	var invalid *InvalidStatusError
	if !errors.As(warnings[0].Err, &invalid) {
		t.Errorf("warning type = %T, want *InvalidStatusError", warnings[0].Err)
	}
	if invalid != nil && invalid.Raw != "quantum" {
		t.Errorf("InvalidStatusError.Raw = %q, want quantum", invalid.Raw)
	}
}

func TestBuildSnapshot_MissingIdentifierDropsAccount(t *testing.T) {
	body := []byte(`{
		"accounts": [
			{"status": "ok", "models": {"gpt": {"percentage": 90}}},
			{"id": "kept@x.com", "status": "ok"}
		]
	}`)

	snap, warnings, err := BuildSnapshot(body, buildTime)
	if err != nil {
		t.Fatalf("BuildSnapshot() error = %v", err)
	}
	if len(snap.Accounts) != 1 || snap.Accounts[0].ID != "kept@x.com" {
		t.Errorf("Accounts = %+v, want only the identified one", snap.Accounts)
	}
	if len(warnings) != 1 {
		t.Errorf("len(warnings) = %d, want 1", len(warnings))
	}
}

func TestBuildSnapshot_AccountWithoutModels(t *testing.T) {
	body := []byte(`{"accounts": [{"id": "bare@x.com", "status": "ok"}]}`)

	snap, warnings, err := BuildSnapshot(body, buildTime)
	if err != nil {
		t.Fatalf("BuildSnapshot() error = %v", err)
	}
	if len(warnings) != 0 {
		t.Errorf("warnings = %v, want none", warnings)
	}
	if len(snap.Accounts) != 1 {
		t.Fatalf("len(Accounts) = %d, want 1", len(snap.Accounts))
	}
	if snap.Rows() != 0 {
		t.Errorf("Rows() = %d, want 0", snap.Rows())
	}
}

func TestBuildSnapshot_EmptyAccounts(t *testing.T) {
	snap, _, err := BuildSnapshot([]byte(`{"accounts": []}`), buildTime)
	if err != nil {
		t.Fatalf("BuildSnapshot() error = %v, empty array is valid", err)
	}
	if len(snap.Accounts) != 0 || snap.Rows() != 0 {
		t.Errorf("empty accounts should yield empty snapshot, got %+v", snap)
	}
}

func TestBuildSnapshot_UnknownFieldsIgnored(t *testing.T) {
	body := []byte(`{
		"schema_version": 7,
		"accounts": [
			{"id": "a@x.com", "status": "ok", "region": "eu",
			 "models": {"gpt": {"percentage": 70, "burst": true}}}
		]
	}`)

	snap, warnings, err := BuildSnapshot(body, buildTime)
	if err != nil {
		t.Fatalf("BuildSnapshot() error = %v", err)
	}
	if len(warnings) != 0 {
		t.Errorf("warnings = %v, want none", warnings)
	}
	if q, ok := snap.Quota("gpt", "a@x.com"); !ok || q.Percent != 70 {
		t.Errorf("quota = %+v ok=%v, want 70%%", q, ok)
	}
}

func TestBuildSnapshot_StatusPriority(t *testing.T) {
	body := []byte(`{
		"accounts": [
			{
				"email": "x@x.com",
				"enabled": false,
				"isInvalid": true,
				"modelRateLimits": {"gpt": {"isRateLimited": true}}
			},
			{
				"email": "y@x.com",
				"enabled": false,
				"modelRateLimits": {"gpt": {"isRateLimited": true}}
			},
			{
				"email": "z@x.com",
				"modelRateLimits": {"gpt": {"isRateLimited": true}}
			}
		]
	}`)

	snap, _, err := BuildSnapshot(body, buildTime)
	if err != nil {
		t.Fatalf("BuildSnapshot() error = %v", err)
	}

	want := []Status{StatusInvalid, StatusDisabled, StatusRateLimited}
	for i, st := range want {
		if snap.Accounts[i].Status != st {
			t.Errorf("Accounts[%d].Status = %v, want %v", i, snap.Accounts[i].Status, st)
		}
	}
}

func TestBuildSnapshot_UndecodableAccountEntry(t *testing.T) {
	body := []byte(`{"accounts": ["just-a-string", {"id": "ok@x.com", "status": "ok"}]}`)

	snap, warnings, err := BuildSnapshot(body, buildTime)
	if err != nil {
		t.Fatalf("BuildSnapshot() error = %v", err)
	}
	if len(snap.Accounts) != 1 {
		t.Errorf("len(Accounts) = %d, want 1", len(snap.Accounts))
	}
	if len(warnings) != 1 {
		t.Errorf("len(warnings) = %d, want 1", len(warnings))
	}
}

func TestParseTimeField(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want time.Time
	}{
		{"RFC3339", `"2026-02-10T12:00:00Z"`, time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)},
		{"Millis", `1770724800000`, time.UnixMilli(1770724800000)},
		{"Seconds", `1770724800`, time.Unix(1770724800, 0)},
		{"Null", `null`, time.Time{}},
		{"Garbage", `"yesterday"`, time.Time{}},
		{"Empty", ``, time.Time{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseTimeField(json.RawMessage(tt.raw))
			if !got.Equal(tt.want) {
				t.Errorf("parseTimeField(%s) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}
