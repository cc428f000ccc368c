package models

import (
	"fmt"
	"time"
)

// FormatWait renders a wait duration in the compact h/m/s form with
// zero-valued leading units omitted: "23h3m45s", "3m45s", "45s".
// Durations under one second return the empty string; the quota is
// treated as already eligible for reset and gets no annotation.
func FormatWait(d time.Duration) string {
	secs := int64(d / time.Second)
	if secs <= 0 {
		return ""
	}

	h := secs / 3600
	m := (secs % 3600) / 60
	s := secs % 60

	switch {
	case h > 0:
		return fmt.Sprintf("%dh%dm%ds", h, m, s)
	case m > 0:
		return fmt.Sprintf("%dm%ds", m, s)
	default:
		return fmt.Sprintf("%ds", s)
	}
}
