package models

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"time"
)

// The upstream schema exists in two dialects: the negotiated snake_case
// form (id/status/percentage/reset_at) and the older camelCase form the
// proxy still emits (email/limits/remainingFraction/resetTime). Both are
// accepted, and either may arrive wrapped in a {"result":"<json>"}
// envelope. Unknown fields are ignored.

type wireEnvelope struct {
	Result string `json:"result"`
}

type wireDocument struct {
	Timestamp json.RawMessage   `json:"timestamp"`
	Accounts  []json.RawMessage `json:"accounts"`
	Models    []string          `json:"models"`
}

type wireAccount struct {
	ID              string                    `json:"id"`
	Email           string                    `json:"email"`
	Status          string                    `json:"status"`
	LimitedCount    *float64                  `json:"limited_count"`
	Enabled         *bool                     `json:"enabled"`
	IsInvalid       *bool                     `json:"isInvalid"`
	LastUsed        json.RawMessage           `json:"last_used"`
	LastUsedMs      json.RawMessage           `json:"lastUsed"`
	ResetAt         json.RawMessage           `json:"reset_at"`
	Models          map[string]wireModelQuota `json:"models"`
	Limits          map[string]wireModelQuota `json:"limits"`
	ModelRateLimits map[string]wireRateLimit  `json:"modelRateLimits"`
}

type wireModelQuota struct {
	Percentage        json.RawMessage `json:"percentage"`
	RemainingFraction json.RawMessage `json:"remainingFraction"`
	ResetAt           json.RawMessage `json:"reset_at"`
	ResetTime         json.RawMessage `json:"resetTime"`
}

type wireRateLimit struct {
	IsRateLimited bool `json:"isRateLimited"`
}

// BuildSnapshot decodes a fetched body into a Snapshot. Field-level
// problems drop the offending account or quota entry and are returned
// as warnings; only an undecodable document or a missing accounts
// array fails the build.
func BuildSnapshot(body []byte, fetchedAt time.Time) (*Snapshot, []ParseWarning, error) {
	var doc wireDocument
	if err := json.Unmarshal(unwrapEnvelope(body), &doc); err != nil {
		return nil, nil, fmt.Errorf("decoding snapshot document: %w", err)
	}
	if doc.Accounts == nil {
		return nil, nil, &MissingFieldError{Field: "accounts"}
	}

	snap := &Snapshot{
		FetchedAt:  fetchedAt,
		ServerTime: parseTimeField(doc.Timestamp),
		Quotas:     make(map[QuotaKey]ModelQuota),
	}

	var warnings []ParseWarning

	modelSet := make(map[string]struct{}, len(doc.Models))
	for _, name := range doc.Models {
		modelSet[name] = struct{}{}
	}

	for i, raw := range doc.Accounts {
		var wa wireAccount
		if err := json.Unmarshal(raw, &wa); err != nil {
			warnings = append(warnings, ParseWarning{Err: fmt.Errorf("account entry %d: %w", i, err)})
			continue
		}

		acc, quotas, warns, ok := buildAccount(&wa)
		warnings = append(warnings, warns...)
		if !ok {
			continue
		}

		snap.Accounts = append(snap.Accounts, acc)
		for _, q := range quotas {
			modelSet[q.Model] = struct{}{}
			snap.Quotas[QuotaKey{Model: q.Model, Account: acc.ID}] = q
		}
	}

	snap.Models = slices.Sorted(maps.Keys(modelSet))
	return snap, warnings, nil
}

// unwrapEnvelope peels the {"result":"<json>"} wrapper when present.
func unwrapEnvelope(body []byte) []byte {
	var env wireEnvelope
	if err := json.Unmarshal(body, &env); err == nil && env.Result != "" {
		return []byte(env.Result)
	}
	return body
}

func buildAccount(w *wireAccount) (Account, []ModelQuota, []ParseWarning, bool) {
	var warns []ParseWarning

	id := w.ID
	if id == "" {
		id = w.Email
	}
	if id == "" {
		warns = append(warns, ParseWarning{Err: &MissingFieldError{Field: "id"}})
		return Account{}, nil, warns, false
	}

	limits := w.Models
	if limits == nil {
		limits = w.Limits
	}

	quotas := make([]ModelQuota, 0, len(limits))
	for _, name := range slices.Sorted(maps.Keys(limits)) {
		wq := limits[name]
		pct, warn := resolvePercent(id, name, wq)
		if warn != nil {
			warns = append(warns, *warn)
			continue
		}
		q := ModelQuota{
			Account: id,
			Model:   name,
			Percent: pct,
			ResetAt: firstTime(wq.ResetAt, wq.ResetTime),
		}
		if rl, ok := w.ModelRateLimits[name]; ok {
			q.RateLimited = rl.IsRateLimited
		}
		quotas = append(quotas, q)
	}

	acc := Account{
		ID:       id,
		LastUsed: firstTime(w.LastUsed, w.LastUsedMs),
	}

	derivedLimited := 0
	for _, rl := range w.ModelRateLimits {
		if rl.IsRateLimited {
			derivedLimited++
		}
	}
	acc.LimitedCount = derivedLimited
	if w.LimitedCount != nil {
		acc.LimitedCount = int(*w.LimitedCount)
	}
	if len(w.ModelRateLimits) > 0 {
		acc.LimitedTotal = len(w.ModelRateLimits)
	} else {
		acc.LimitedTotal = len(quotas)
	}

	if w.Status != "" {
		st, err := ParseStatus(w.Status)
		if err != nil {
			warns = append(warns, ParseWarning{Account: id, Err: err})
			return Account{}, nil, warns, false
		}
		acc.Status = st
	} else {
		acc.Status = deriveStatus(w, derivedLimited)
	}

	if t := parseTimeField(w.ResetAt); !t.IsZero() {
		acc.ResetAt = t
	} else {
		acc.ResetAt = earliestReset(quotas)
	}

	return acc, quotas, warns, true
}

// resolvePercent extracts the remaining percentage from either dialect.
func resolvePercent(account, model string, wq wireModelQuota) (float64, *ParseWarning) {
	malformed := func(detail string) *ParseWarning {
		return &ParseWarning{
			Account: account,
			Model:   model,
			Err:     &MalformedQuotaError{Account: account, Model: model, Detail: detail},
		}
	}

	if !isNull(wq.Percentage) {
		f, ok := parseNumber(wq.Percentage)
		if !ok {
			return 0, malformed(fmt.Sprintf("percentage %s is not a number", wq.Percentage))
		}
		if f < 0 || f > 100 {
			return 0, malformed(fmt.Sprintf("percentage %v outside [0,100]", f))
		}
		return f, nil
	}

	if !isNull(wq.RemainingFraction) {
		f, ok := parseNumber(wq.RemainingFraction)
		if !ok {
			return 0, malformed(fmt.Sprintf("remainingFraction %s is not a number", wq.RemainingFraction))
		}
		if f < 0 || f > 1 {
			return 0, malformed(fmt.Sprintf("remainingFraction %v outside [0,1]", f))
		}
		return f * 100, nil
	}

	return 0, &ParseWarning{
		Account: account,
		Model:   model,
		Err:     &MissingFieldError{Field: "percentage"},
	}
}

// deriveStatus resolves the account status from the camelCase flags,
// by priority: invalid, then disabled, then rate-limited.
func deriveStatus(w *wireAccount, limited int) Status {
	switch {
	case w.IsInvalid != nil && *w.IsInvalid:
		return StatusInvalid
	case w.Enabled != nil && !*w.Enabled:
		return StatusDisabled
	case limited > 0:
		return StatusRateLimited
	default:
		return StatusAvailable
	}
}

func earliestReset(quotas []ModelQuota) time.Time {
	var earliest time.Time
	for _, q := range quotas {
		if q.ResetAt.IsZero() {
			continue
		}
		if earliest.IsZero() || q.ResetAt.Before(earliest) {
			earliest = q.ResetAt
		}
	}
	return earliest
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}

func parseNumber(raw json.RawMessage) (float64, bool) {
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return 0, false
	}
	return f, true
}

// firstTime parses the first raw value that yields a usable timestamp.
func firstTime(raws ...json.RawMessage) time.Time {
	for _, raw := range raws {
		if t := parseTimeField(raw); !t.IsZero() {
			return t
		}
	}
	return time.Time{}
}

// parseTimeField attempts to parse a JSON time value as either ISO string or Unix timestamp.
func parseTimeField(data json.RawMessage) time.Time {
	if isNull(data) {
		return time.Time{}
	}

	// Try as string first (ISO 8601)
	var strVal string
	if err := json.Unmarshal(data, &strVal); err == nil {
		if t, err := time.Parse(time.RFC3339, strVal); err == nil {
			return t
		}
		if t, err := time.Parse(time.RFC3339Nano, strVal); err == nil {
			return t
		}
		if t, err := time.Parse("2006-01-02T15:04:05.000Z", strVal); err == nil {
			return t
		}
		return time.Time{}
	}

	// Try as number (Unix timestamp in milliseconds or seconds)
	var numVal float64
	if err := json.Unmarshal(data, &numVal); err == nil {
		if numVal > 1e12 {
			// Milliseconds
			return time.UnixMilli(int64(numVal))
		}
		// Seconds
		return time.Unix(int64(numVal), 0)
	}

	return time.Time{}
}
