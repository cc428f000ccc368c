package info

import (
	"fmt"
	"runtime"

	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/quota-watch-tui/internal/ui/styles"
	"github.com/j-veylop/quota-watch-tui/internal/version"
)

// timeFormat renders the last-update timestamp.
const timeFormat = "1/2/2006, 3:04:05 PM"

// View renders the info tab.
func (m *Model) View() string {
	var sections []string

	sections = append(sections, m.renderTitle())

	sections = append(sections, m.renderConfigCard())

	sections = append(sections, m.renderStatusCard())

	sections = append(sections, m.renderAboutCard())

	content := lipgloss.JoinVertical(lipgloss.Left, sections...)

	m.viewport.SetContent(content)

	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(m.viewport.View())
}

// renderTitle renders the info tab title.
func (m *Model) renderTitle() string {
	title := styles.TitleStyle.Render("Info")
	subtitle := styles.HelpStyle.Render("Configuration and runtime information")

	return lipgloss.JoinVertical(lipgloss.Left, title, subtitle, "")
}

// cardWidth bounds the card width to a readable range.
func (m *Model) cardWidth() int {
	cardWidth := m.width - 6
	if cardWidth < 50 {
		cardWidth = 50
	}
	if cardWidth > 80 {
		cardWidth = 80
	}
	return cardWidth
}

// renderConfigCard renders the snapshot source configuration card.
func (m *Model) renderConfigCard() string {
	var rows []string
	rows = append(rows, styles.CardTitleStyle.Render("Configuration"))
	rows = append(rows, "")

	if m.config != nil {
		source := m.config.URL
		sourceLabel := "Endpoint"
		if m.config.File != "" {
			source = m.config.File
			sourceLabel = "Snapshot File"
		}
		rows = append(rows, m.renderConfigRow(sourceLabel, source))
		rows = append(rows, m.renderConfigRow("Refresh Interval", m.config.Interval.String()))
		rows = append(rows, m.renderConfigRow("Fetch Timeout", m.config.Timeout.String()))
		rows = append(rows, m.renderConfigRow("Desktop Alerts", onOff(m.config.Notify)))
		rows = append(rows, m.renderConfigRow("Debug", onOff(m.config.Debug)))
		if m.config.LogFile != "" {
			rows = append(rows, m.renderConfigRow("Log File", m.config.LogFile))
		}
	} else {
		rows = append(rows, styles.HelpStyle.Render("Configuration not loaded"))
	}

	return styles.CardStyle.Width(m.cardWidth()).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}

// renderStatusCard renders the live refresh state card.
func (m *Model) renderStatusCard() string {
	var rows []string
	rows = append(rows, styles.CardTitleStyle.Render("Refresh Status"))
	rows = append(rows, "")

	autoRefresh := styles.SuccessTextStyle.Render("enabled")
	if !m.state.AutoRefresh() {
		autoRefresh = styles.WarningTextStyle.Render("paused")
	}
	rows = append(rows, m.renderConfigRow("Auto-Refresh", autoRefresh))
	rows = append(rows, m.renderConfigRow("Phase", m.state.Phase().String()))

	lastUpdate := "never"
	if t := m.state.GetLastUpdated(); !t.IsZero() {
		lastUpdate = t.Format(timeFormat)
	}
	rows = append(rows, m.renderConfigRow("Last Update", lastUpdate))

	if snap := m.state.Snapshot(); snap != nil {
		rows = append(rows, m.renderConfigRow("Accounts", fmt.Sprintf("%d", len(snap.Accounts))))
		rows = append(rows, m.renderConfigRow("Models", fmt.Sprintf("%d", snap.Rows())))
	}
	if warnings := m.state.Warnings(); len(warnings) > 0 {
		rows = append(rows, m.renderConfigRow("Dropped Entries",
			styles.WarningTextStyle.Render(fmt.Sprintf("%d", len(warnings)))))
	}
	if err := m.state.LastError(); err != nil {
		rows = append(rows, m.renderConfigRow("Last Error", styles.ErrorTextStyle.Render(err.Error())))
	}

	return styles.CardStyle.Width(m.cardWidth()).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}

// renderConfigRow renders a key-value row.
func (m *Model) renderConfigRow(label, value string) string {
	labelStyle := lipgloss.NewStyle().
		Width(18).
		Foreground(styles.TextMuted)

	valueStyle := lipgloss.NewStyle().
		Foreground(styles.TextPrimary)

	return labelStyle.Render(label+":") + " " + valueStyle.Render(value)
}

// renderAboutCard renders the about/version information card.
func (m *Model) renderAboutCard() string {
	var rows []string
	rows = append(rows, styles.CardTitleStyle.Render("About Quota Watch"))
	rows = append(rows, "")

	rows = append(rows, m.renderConfigRow("Version", version.GetVersion()))
	rows = append(rows, m.renderConfigRow("Commit", version.GetCommit()))
	rows = append(rows, m.renderConfigRow("Build Date", version.GetDate()))
	rows = append(rows, m.renderConfigRow("Go Version", runtime.Version()))
	rows = append(rows, m.renderConfigRow("Platform", fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH)))

	return styles.CardStyle.Width(m.cardWidth()).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
