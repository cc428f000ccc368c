package models

import (
	"fmt"
	"strconv"
	"time"
)

// Account is one upstream account as reported in a snapshot.
// Accounts are recreated wholesale on every refresh, never mutated.
type Account struct {
	// ID is the account identifier, usually email-like.
	ID string
	// Status is the resolved availability state.
	Status Status
	// LimitedCount is the number of rate-limited models, meaningful
	// when Status is StatusRateLimited.
	LimitedCount int
	// LimitedTotal is the denominator for the "(n/m) limited" display:
	// the number of models the upstream reported rate-limit state for.
	// Zero when unknown.
	LimitedTotal int
	// LastUsed is when the account last served a request. Zero when
	// the upstream did not report it.
	LastUsed time.Time
	// ResetAt is the earliest known quota reset for the account. Zero
	// when no reset time is known.
	ResetAt time.Time
}

// StatusLabel returns the table cell text for the account status,
// including the "(n/m) limited" form when the counts are known.
func (a Account) StatusLabel() string {
	if a.Status == StatusRateLimited && a.LimitedCount > 0 && a.LimitedTotal >= a.LimitedCount {
		return fmt.Sprintf("(%d/%d) limited", a.LimitedCount, a.LimitedTotal)
	}
	return a.Status.String()
}

// ModelQuota is the remaining quota for one (account, model) pair.
type ModelQuota struct {
	Account string
	Model   string
	// Percent remaining, 0-100.
	Percent float64
	// ResetAt is when the quota resets. Zero when unknown.
	ResetAt time.Time
	// RateLimited is the explicit upstream marker for this pair, set
	// independently of the percentage.
	RateLimited bool
}

// Level buckets the cell severity. An explicit rate-limit marker
// forces critical regardless of the percentage.
func (q ModelQuota) Level() Level {
	if q.RateLimited {
		return LevelCritical
	}
	return Classify(q.Percent)
}

// Wait returns the remaining time until reset relative to now, or zero
// when no reset is known or it already passed. Always recomputed at
// render time.
func (q ModelQuota) Wait(now time.Time) time.Duration {
	if q.ResetAt.IsZero() {
		return 0
	}
	d := q.ResetAt.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

// Label renders the cell text: "62%", or "5% (wait 45s)" when the
// quota is critical and a future reset is known.
func (q ModelQuota) Label(now time.Time) string {
	pct := strconv.Itoa(int(q.Percent)) + "%"
	if q.Level() != LevelCritical {
		return pct
	}
	if wait := FormatWait(q.Wait(now)); wait != "" {
		return fmt.Sprintf("%s (wait %s)", pct, wait)
	}
	return pct
}

// QuotaKey addresses one cell in the models table.
type QuotaKey struct {
	Model   string
	Account string
}

// Snapshot is one complete fetched-and-parsed view of all accounts and
// model quotas. It is immutable after building; the scheduler swaps
// whole snapshots, renderers only read.
type Snapshot struct {
	// FetchedAt is when the fetch completed locally.
	FetchedAt time.Time
	// ServerTime is the upstream-reported timestamp. Zero when absent.
	ServerTime time.Time
	// Accounts in the order received.
	Accounts []Account
	// Models is the sorted union of model names across all accounts,
	// plus any names the upstream listed explicitly.
	Models []string
	// Quotas maps (model, account) to the quota entry. A missing key
	// means no data for that pairing and renders as a dash.
	Quotas map[QuotaKey]ModelQuota
}

// Quota looks up the entry for one cell.
func (s *Snapshot) Quota(model, account string) (ModelQuota, bool) {
	if s == nil {
		return ModelQuota{}, false
	}
	q, ok := s.Quotas[QuotaKey{Model: model, Account: account}]
	return q, ok
}

// Rows returns the number of model rows, the scrollable dimension of
// the models table. Safe on a nil snapshot.
func (s *Snapshot) Rows() int {
	if s == nil {
		return 0
	}
	return len(s.Models)
}

// Time returns the best timestamp for the snapshot header: the server
// time when reported, the local fetch time otherwise.
func (s *Snapshot) Time() time.Time {
	if s == nil {
		return time.Time{}
	}
	if !s.ServerTime.IsZero() {
		return s.ServerTime
	}
	return s.FetchedAt
}

// Summary holds per-status account counts, derived fresh on each
// render rather than stored.
type Summary struct {
	Total       int
	Available   int
	RateLimited int
	Invalid     int
	Disabled    int
}

// Summarize counts accounts by status. Safe on a nil snapshot.
func (s *Snapshot) Summarize() Summary {
	var sum Summary
	if s == nil {
		return sum
	}
	sum.Total = len(s.Accounts)
	for _, a := range s.Accounts {
		switch a.Status {
		case StatusAvailable:
			sum.Available++
		case StatusRateLimited:
			sum.RateLimited++
		case StatusInvalid:
			sum.Invalid++
		case StatusDisabled:
			sum.Disabled++
		}
	}
	return sum
}

// LowestByAccount returns each account's lowest remaining percentage.
// Accounts without quota entries are absent from the result.
func (s *Snapshot) LowestByAccount() map[string]float64 {
	if s == nil {
		return nil
	}
	out := make(map[string]float64)
	for key, q := range s.Quotas {
		if cur, ok := out[key.Account]; !ok || q.Percent < cur {
			out[key.Account] = q.Percent
		}
	}
	return out
}

// TrendSample is one per-refresh aggregate for the session trend
// chart. Samples live in a bounded in-memory ring, nothing persists.
type TrendSample struct {
	At          time.Time
	Average     float64
	Lowest      float64
	Available   int
	RateLimited int
}

// Sample aggregates the snapshot into a trend point. ok is false when
// the snapshot has no quota entries to aggregate.
func (s *Snapshot) Sample() (TrendSample, bool) {
	if s == nil || len(s.Quotas) == 0 {
		return TrendSample{}, false
	}

	sum := s.Summarize()
	sample := TrendSample{
		At:          s.Time(),
		Available:   sum.Available,
		RateLimited: sum.RateLimited,
	}

	var total float64
	first := true
	for _, q := range s.Quotas {
		total += q.Percent
		if first || q.Percent < sample.Lowest {
			sample.Lowest = q.Percent
			first = false
		}
	}
	sample.Average = total / float64(len(s.Quotas))

	return sample, true
}
