package trend

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/quota-watch-tui/internal/ui/components"
	"github.com/j-veylop/quota-watch-tui/internal/ui/styles"
)

// timeFormat renders sample timestamps in the header line.
const timeFormat = "3:04:05 PM"

// View renders the trend tab.
func (m *Model) View() string {
	samples := m.state.TrendSamples()
	if len(samples) == 0 {
		return m.renderEmpty()
	}

	sections := []string{
		m.renderHeader(),
		m.renderPercentChart(),
		m.renderLowestCard(),
	}

	content := lipgloss.JoinVertical(lipgloss.Left, sections...)
	m.viewport.SetContent(content)

	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(m.viewport.View())
}

func (m *Model) renderEmpty() string {
	content := lipgloss.JoinVertical(lipgloss.Left,
		styles.TitleStyle.Render("Session Trend"),
		"",
		styles.HelpStyle.Render("No trend data yet."),
		styles.HelpStyle.Render("A point is added with every applied refresh."),
	)
	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(content)
}

func (m *Model) renderHeader() string {
	samples := m.state.TrendSamples()

	title := styles.TitleStyle.Render("Session Trend")

	var subtitle string
	if len(samples) > 0 {
		first := samples[0].At
		last := samples[len(samples)-1].At
		subtitle = styles.HelpStyle.Render(fmt.Sprintf("Data: %s → %s (%d refreshes)",
			first.Format(timeFormat),
			last.Format(timeFormat),
			len(samples),
		))
	}

	return lipgloss.JoinVertical(lipgloss.Left, title, subtitle, "")
}

func (m *Model) renderPercentChart() string {
	cardWidth := max(m.width-6, 40)

	var rows []string

	titleIcon := lipgloss.NewStyle().Foreground(styles.Primary).Render("📈")
	rows = append(rows, fmt.Sprintf("%s %s", titleIcon, styles.CardTitleStyle.Render("Remaining Percentage")), "")

	average, lowest := series(m.state.TrendSamples())

	chartWidth := max(cardWidth-12, 30)
	chartHeight := 8

	chart := components.RenderDualLineChart(average, lowest, chartWidth, chartHeight,
		fmt.Sprintf("Last %d refreshes - average (blue) vs lowest (red)", len(average)))

	for line := range strings.SplitSeq(chart, "\n") {
		rows = append(rows, "  "+line)
	}

	rows = append(rows, "")
	legend := components.RenderLegend([]components.LegendItem{
		{Label: "Average", Color: components.ChartAverageColor},
		{Label: "Lowest", Color: components.ChartLowestColor},
	})
	rows = append(rows, "  "+legend, "")

	return styles.CardStyle.Width(cardWidth).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}

func (m *Model) renderLowestCard() string {
	cardWidth := max(m.width-6, 40)

	var rows []string

	titleIcon := lipgloss.NewStyle().Foreground(styles.Primary).Render("📉")
	rows = append(rows, fmt.Sprintf("%s %s", titleIcon, styles.CardTitleStyle.Render("Lowest Quota Per Refresh")), "")

	samples := m.state.TrendSamples()
	_, lowest := series(samples)

	sparkWidth := max(cardWidth-12, 30)
	rows = append(rows, "  "+components.RenderPercentSparkline(lowest, sparkWidth))

	latest := samples[len(samples)-1]
	rows = append(rows, "", fmt.Sprintf("  Now: %s · %s",
		styles.SuccessTextStyle.Render(fmt.Sprintf("%d available", latest.Available)),
		styles.WarningTextStyle.Render(fmt.Sprintf("%d rate-limited", latest.RateLimited)),
	))

	rows = append(rows, "")

	return styles.CardStyle.Width(cardWidth).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}
