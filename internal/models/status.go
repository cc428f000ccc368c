// Package models defines the snapshot data structures and the shared
// presentation rules (status classification, wait formatting) used by
// both front ends.
package models

// Status describes the availability of one account.
type Status int

const (
	// StatusAvailable means the account can serve requests.
	StatusAvailable Status = iota
	// StatusRateLimited means at least one model quota is exhausted.
	StatusRateLimited
	// StatusInvalid means the upstream marked the account unusable.
	StatusInvalid
	// StatusDisabled means the account is switched off upstream.
	StatusDisabled
)

// String returns the wire name for the status.
func (s Status) String() string {
	switch s {
	case StatusAvailable:
		return "ok"
	case StatusRateLimited:
		return "limited"
	case StatusInvalid:
		return "invalid"
	case StatusDisabled:
		return "disabled"
	default:
		return "unknown"
	}
}

// ParseStatus maps an explicit wire status string to a Status.
// The known set is fixed; anything else is an InvalidStatusError.
func ParseStatus(raw string) (Status, error) {
	switch raw {
	case "ok":
		return StatusAvailable, nil
	case "limited":
		return StatusRateLimited, nil
	case "invalid":
		return StatusInvalid, nil
	case "disabled":
		return StatusDisabled, nil
	default:
		return StatusAvailable, &InvalidStatusError{Raw: raw}
	}
}

// Classification thresholds for remaining percentages. Applied uniformly
// by both renderers.
const (
	// LowThreshold is the highest percentage still considered low.
	LowThreshold = 30.0
	// CriticalThreshold is the percentage below which a quota is critical.
	CriticalThreshold = 10.0
)

// Level is the severity bucket for a remaining percentage.
type Level int

const (
	// LevelOK: more than 30% remaining.
	LevelOK Level = iota
	// LevelLow: between 10% and 30% inclusive.
	LevelLow
	// LevelCritical: below 10%.
	LevelCritical
)

// String returns the level name.
func (l Level) String() string {
	switch l {
	case LevelOK:
		return "ok"
	case LevelLow:
		return "low"
	case LevelCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// Classify buckets a remaining percentage. The boundaries are inclusive
// on the low side: 30 is low, 10 is low, 9.99 is critical.
func Classify(percent float64) Level {
	switch {
	case percent > LowThreshold:
		return LevelOK
	case percent >= CriticalThreshold:
		return LevelLow
	default:
		return LevelCritical
	}
}
