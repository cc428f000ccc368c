package dashboard

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/quota-watch-tui/internal/models"
	"github.com/j-veylop/quota-watch-tui/internal/ui/components"
	"github.com/j-veylop/quota-watch-tui/internal/ui/render"
	"github.com/j-veylop/quota-watch-tui/internal/ui/styles"
)

// docVerticalSpace is the vertical room DocStyle's margins take.
const docVerticalSpace = 2

// footerLines is the fixed height of the legend block, kept constant so
// the viewport size never depends on the footer content.
const footerLines = 3

// View renders the dashboard component.
func (m *Model) View() string {
	if m.state.IsInitialLoading() {
		return m.renderLoading()
	}

	snap := m.state.Snapshot()
	if snap == nil {
		return m.renderEmpty()
	}

	now := time.Now()
	head := m.renderHead(snap, now)

	headerLines := lipgloss.Height(styles.TableHeaderStyle.Render("Model"))
	m.visible = max(m.height-docVerticalSpace-lipgloss.Height(head)-footerLines-headerLines, 1)
	m.offset = m.clampOffset(m.offset)

	table := render.ModelsTable(snap, now, render.Window{Offset: m.offset, Height: m.visible})
	footer := m.renderFooter(snap.Rows())

	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(lipgloss.JoinVertical(lipgloss.Left, head, table, footer))
}

// renderLoading renders the loading state.
func (m *Model) renderLoading() string {
	return components.RenderSpinnerCentered(m.spinner, m.width, m.height)
}

// renderEmpty renders the shell shown while no snapshot is available.
func (m *Model) renderEmpty() string {
	body := render.Waiting(m.location())
	if err := m.state.LastError(); err != nil {
		body = render.ErrorView(err, m.debug())
	}

	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(lipgloss.JoinVertical(lipgloss.Left, m.renderTitle(), body))
}

// renderTitle renders the dashboard title.
func (m *Model) renderTitle() string {
	title := styles.TitleStyle.Render("Quota Watch")
	subtitle := styles.HelpStyle.Render(m.location())

	return lipgloss.JoinVertical(lipgloss.Left, title, subtitle, "")
}

// renderHead renders everything above the models table: title, summary
// and the accounts table.
func (m *Model) renderHead(snap *models.Snapshot, now time.Time) string {
	sections := []string{
		m.renderTitle(),
		render.Header(snap, now),
		render.Summary(snap.Summarize()),
	}

	if note := render.WarningsNote(m.state.Warnings()); note != "" {
		sections = append(sections, note)
	}
	if err := m.state.LastError(); err != nil {
		// The previous snapshot stays on screen when a refresh fails.
		sections = append(sections, render.ErrorView(err, false))
	}

	sections = append(sections,
		"",
		styles.CardTitleStyle.Render("Accounts"),
		render.AccountsTable(snap),
		"",
		styles.CardTitleStyle.Render("Model Quotas (remaining %)"),
	)

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderFooter renders the legend and the scroll position line.
func (m *Model) renderFooter(total int) string {
	status := fmt.Sprintf("%d models", total)
	if m.visible > 0 && total > m.visible {
		first := m.offset + 1
		last := min(m.offset+m.visible, total)
		status = fmt.Sprintf("models %d-%d of %d", first, last, total)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		"",
		render.Legend(),
		styles.HelpStyle.Render(status),
	)
}
