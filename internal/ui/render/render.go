// Package render builds the table frames shared by the interactive
// dashboard and the console front end. All functions are pure: they
// take a snapshot and a reference time and return styled text, so the
// same tables appear in both modes.
package render

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/quota-watch-tui/internal/models"
	"github.com/j-veylop/quota-watch-tui/internal/services/fetch"
	"github.com/j-veylop/quota-watch-tui/internal/ui/styles"
)

// Fixed column widths keep the two tables aligned across refreshes
// regardless of cell content.
const (
	accountColWidth = 20
	statusColWidth  = 15
	timeColWidth    = 25
	modelColWidth   = 28
	quotaColWidth   = 20
)

// timeFormat renders timestamps like "8/25/2026, 3:04:05 PM".
const timeFormat = "1/2/2006, 3:04:05 PM"

// maxBodyDisplay caps the raw response body shown in debug mode.
const maxBodyDisplay = 2048

var (
	headerTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(styles.Info)
	headerTimeStyle  = lipgloss.NewStyle().Foreground(styles.TextMuted)
)

// Window selects the visible slice of model rows. The zero value shows
// all rows.
type Window struct {
	// Offset is the index of the first model row to render.
	Offset int
	// Height caps the number of rendered rows. Zero or negative
	// means no cap.
	Height int
}

func (w Window) clamp(total int) (start, end int) {
	start = min(max(w.Offset, 0), total)
	end = total
	if w.Height > 0 {
		end = min(start+w.Height, total)
	}
	return start, end
}

// Header renders the title line with the snapshot timestamp. A nil or
// timeless snapshot falls back to now.
func Header(snap *models.Snapshot, now time.Time) string {
	ts := snap.Time()
	if ts.IsZero() {
		ts = now
	}
	return fmt.Sprintf("%s %s",
		headerTitleStyle.Render("Account Limits"),
		headerTimeStyle.Render("("+formatTime(ts, "")+")"),
	)
}

// Summary renders the per-status account counts line. Disabled
// accounts only appear when there are any.
func Summary(sum models.Summary) string {
	line := fmt.Sprintf("Accounts: %d total, %s, %s, %s",
		sum.Total,
		styles.SuccessTextStyle.Render(fmt.Sprintf("%d available", sum.Available)),
		styles.WarningTextStyle.Render(fmt.Sprintf("%d rate-limited", sum.RateLimited)),
		styles.ErrorTextStyle.Render(fmt.Sprintf("%d invalid", sum.Invalid)),
	)
	if sum.Disabled > 0 {
		line += ", " + styles.HelpStyle.Render(fmt.Sprintf("%d disabled", sum.Disabled))
	}
	return line
}

// WarningsNote summarizes entries dropped while building the snapshot,
// or returns the empty string when there were none.
func WarningsNote(warnings []models.ParseWarning) string {
	if len(warnings) == 0 {
		return ""
	}
	noun := "entries"
	if len(warnings) == 1 {
		noun = "entry"
	}
	return styles.WarningTextStyle.Render(
		fmt.Sprintf("%d snapshot %s dropped, see log for details", len(warnings), noun))
}

// AccountsTable renders one row per account in received order.
func AccountsTable(snap *models.Snapshot) string {
	header := padRight("Account", accountColWidth) + " " +
		padRight("Status", statusColWidth) + " " +
		padRight("Last Used", timeColWidth) + " " +
		padRight("Quota Reset", timeColWidth)

	lines := []string{styles.TableHeaderStyle.Render(header)}

	if snap == nil || len(snap.Accounts) == 0 {
		lines = append(lines, styles.HelpStyle.Render("no accounts reported"))
		return strings.Join(lines, "\n")
	}

	for _, a := range snap.Accounts {
		row := padRight(ShortName(a.ID), accountColWidth) + " " +
			styles.GetStatusStyle(a.Status).Render(padRight(a.StatusLabel(), statusColWidth)) + " " +
			padRight(formatTime(a.LastUsed, "never"), timeColWidth) + " " +
			padRight(formatTime(a.ResetAt, "N/A"), timeColWidth)
		lines = append(lines, row)
	}

	return strings.Join(lines, "\n")
}

// ModelsTable renders the quota matrix: one row per model, one column
// per account in received order. win selects the visible rows; wait
// annotations are recomputed against now on every call.
func ModelsTable(snap *models.Snapshot, now time.Time, win Window) string {
	if snap == nil {
		return ""
	}

	header := padRight("Model", modelColWidth)
	for _, a := range snap.Accounts {
		header += padRight(ShortName(a.ID), quotaColWidth)
	}

	var b strings.Builder
	b.WriteString(styles.TableHeaderStyle.Render(header))

	start, end := win.clamp(len(snap.Models))
	for _, model := range snap.Models[start:end] {
		b.WriteString("\n")
		b.WriteString(padRight(model, modelColWidth))
		for _, a := range snap.Accounts {
			b.WriteString(quotaCell(snap, model, a.ID, now))
		}
	}

	return b.String()
}

// quotaCell renders one (model, account) cell. Pairs without data get
// a dimmed dash, never a zero.
func quotaCell(snap *models.Snapshot, model, account string, now time.Time) string {
	q, ok := snap.Quota(model, account)
	if !ok {
		return styles.QuotaMissingStyle.Render(padRight("-", quotaColWidth))
	}
	return styles.GetQuotaStyle(q.Level(), q.RateLimited).Render(padRight(q.Label(now), quotaColWidth))
}

// Legend renders the color key shown under the tables.
func Legend() string {
	return strings.Join([]string{
		styles.QuotaOKStyle.Render("■ >30%"),
		styles.QuotaLowStyle.Render("■ 10-30%"),
		styles.QuotaCriticalStyle.Render("■ <10% / rate-limited"),
		styles.QuotaMissingStyle.Render("- no data"),
	}, "  ")
}

// Waiting renders the shell shown before the first snapshot arrives.
func Waiting(location string) string {
	return styles.HelpStyle.Render(fmt.Sprintf("Waiting for first snapshot from %s...", location))
}

// ErrorView renders a fetch failure. Fetch errors carry a
// kind-specific message telling the user what to check; debug mode
// appends the raw response body when one was captured.
func ErrorView(err error, debug bool) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	var body []byte
	var fe *fetch.Error
	if errors.As(err, &fe) {
		msg = fe.UserMessage()
		body = fe.Body
	}

	out := styles.ErrorTextStyle.Render("Error:") + " " + msg
	if debug && len(body) > 0 {
		out += "\n\n" + styles.HelpStyle.Render("raw response:") + "\n" + truncateBody(body)
	}
	return out
}

func truncateBody(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > maxBodyDisplay {
		s = s[:maxBodyDisplay] + "\n... (truncated)"
	}
	return styles.HelpStyle.Render(s)
}

// Frame assembles the complete console frame for a snapshot.
func Frame(snap *models.Snapshot, warnings []models.ParseWarning, now time.Time) string {
	sections := []string{
		Header(snap, now),
		Summary(snap.Summarize()),
	}
	if note := WarningsNote(warnings); note != "" {
		sections = append(sections, note)
	}
	sections = append(sections,
		"",
		AccountsTable(snap),
		"",
		ModelsTable(snap, now, Window{}),
	)
	return strings.Join(sections, "\n")
}

// ShortName trims an email-style identifier to the part before the @.
func ShortName(id string) string {
	if i := strings.IndexByte(id, '@'); i >= 0 {
		return id[:i]
	}
	return id
}

func formatTime(t time.Time, fallback string) string {
	if t.IsZero() {
		return fallback
	}
	return t.In(time.Local).Format(timeFormat)
}

// padRight pads to the column width. Content longer than the column
// keeps a single trailing space so adjacent cells never fuse.
func padRight(s string, width int) string {
	if n := utf8.RuneCountInString(s); n < width {
		return s + strings.Repeat(" ", width-n)
	}
	return s + " "
}
