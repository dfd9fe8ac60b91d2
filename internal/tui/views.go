package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"proma/config/models"
	"proma/internal/crypto"
	"proma/internal/utils"
)

// Styles for the TUI
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("229")).
			Background(lipgloss.Color("57")).
			Bold(true)

	normalStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	disabledStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	messageStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	separatorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("238"))

	spinnerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205"))

	paneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("238")).
			Padding(0, 1)
)

// Detail pane styles
var (
	detailLabelStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("241")).
				Width(10)

	detailValueStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("252"))

	detailSectionStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("205")).
				Bold(true)

	detailWarnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))
)

// View renders the current view
func (m Model) View() string {
	switch m.viewState {
	case ViewAdd:
		return RenderForm(m.formInputs, m.formFocus, "Add channel", m.formErr, false)
	case ViewEdit:
		return RenderForm(m.formInputs, m.formFocus, "Edit channel", m.formErr, true)
	case ViewDelete:
		return m.RenderDeleteView()
	case ViewHelp:
		return m.RenderHelpView()
	default:
		return m.RenderMainView()
	}
}

// RenderMainView renders the channel list and the detail pane
func (m Model) RenderMainView() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("proma channels"))
	b.WriteString("  ")
	b.WriteString(dimStyle.Render(m.store.Path()))
	b.WriteString("\n")
	b.WriteString(separatorStyle.Render(strings.Repeat("─", m.effectiveWidth())))
	b.WriteString("\n")

	list := m.renderList()
	if ch, ok := m.Selected(); ok {
		detail := paneStyle.Render(m.renderDetail(ch))
		if m.width >= 90 {
			b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, list, "  ", detail))
		} else {
			b.WriteString(lipgloss.JoinVertical(lipgloss.Left, list, detail))
		}
	} else {
		b.WriteString(list)
	}

	b.WriteString("\n")
	b.WriteString(separatorStyle.Render(strings.Repeat("─", m.effectiveWidth())))
	b.WriteString("\n")
	b.WriteString(m.RenderStatusBar())

	return b.String()
}

func (m Model) effectiveWidth() int {
	if m.width <= 0 {
		return 60
	}
	if m.width > 120 {
		return 120
	}
	return m.width
}

func (m Model) renderList() string {
	if len(m.channels) == 0 {
		return dimStyle.Render("No channels yet, press 'a' to add one")
	}

	var lines []string
	visible := m.visibleListHeight()
	start := m.scrollOffset
	end := start + visible
	if end > len(m.channels) {
		end = len(m.channels)
	}

	if start > 0 {
		lines = append(lines, dimStyle.Render(fmt.Sprintf("  ↑ %d more", start)))
	}
	for i := start; i < end; i++ {
		lines = append(lines, m.renderChannelLine(i, m.channels[i]))
	}
	if end < len(m.channels) {
		lines = append(lines, dimStyle.Render(fmt.Sprintf("  ↓ %d more", len(m.channels)-end)))
	}

	return strings.Join(lines, "\n")
}

// renderChannelLine renders a single channel line in the list
func (m Model) renderChannelLine(index int, ch models.Channel) string {
	cursor := "  "
	if index == m.cursor {
		cursor = "> "
	}

	state := "●"
	if !ch.Enabled {
		state = "○"
	}

	marker := " "
	if _, running := m.busy[ch.ID]; running {
		marker = m.spinner.View()
	} else if result, tested := m.results[ch.ID]; tested {
		marker = "✓"
		if !result.Success {
			marker = "✗"
		}
	}

	name := ch.Name
	if len([]rune(name)) > 24 {
		name = string([]rune(name)[:23]) + "…"
	}

	content := fmt.Sprintf("%s%s %-24s %-9s %s", cursor, state, name, ch.Provider, marker)

	switch {
	case index == m.cursor:
		return selectedStyle.Render(content)
	case !ch.Enabled:
		return disabledStyle.Render(content)
	default:
		return normalStyle.Render(content)
	}
}

func detailRow(label, value string) string {
	return detailLabelStyle.Render(label) + " " + detailValueStyle.Render(value) + "\n"
}

// renderDetail renders the detail pane of ch
func (m Model) renderDetail(ch models.Channel) string {
	var b strings.Builder

	b.WriteString(detailSectionStyle.Render(ch.Name))
	b.WriteString("\n\n")

	status := "enabled"
	if !ch.Enabled {
		status = "disabled"
	}

	b.WriteString(detailRow("ID", ch.ID))
	b.WriteString(detailRow("Provider", string(ch.Provider)))
	b.WriteString(detailRow("Base URL", ch.BaseURL))
	b.WriteString(detailRow("API key", m.keyDisplay(ch)))
	b.WriteString(detailRow("Status", status))
	b.WriteString(detailRow("Created", formatMillis(ch.CreatedAt)))
	b.WriteString(detailRow("Updated", formatMillis(ch.UpdatedAt)))

	if ch.APIKey != "" && !crypto.IsEncrypted(ch.APIKey) {
		b.WriteString(detailWarnStyle.Render("⚠ key stored unencrypted, run 'proma rekey'"))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(detailSectionStyle.Render(fmt.Sprintf("Models (%d)", len(ch.Models))))
	b.WriteString("\n")
	if len(ch.Models) == 0 {
		b.WriteString(dimStyle.Render("none, press 'f' to fetch"))
		b.WriteString("\n")
	}
	for _, model := range ch.Models {
		box := "[ ]"
		if model.Enabled {
			box = "[x]"
		}
		b.WriteString(fmt.Sprintf("%s %s\n", box, model.ID))
	}

	if label, running := m.busy[ch.ID]; running {
		b.WriteString("\n")
		b.WriteString(m.spinner.View() + " " + label + "...")
		b.WriteString("\n")
	} else if result, tested := m.results[ch.ID]; tested {
		b.WriteString("\n")
		b.WriteString(detailSectionStyle.Render("Last test"))
		b.WriteString("\n")
		b.WriteString(renderResult(result))
		b.WriteString("\n")
	}

	return strings.TrimRight(b.String(), "\n")
}

func (m Model) keyDisplay(ch models.Channel) string {
	if key, shown := m.revealed[ch.ID]; shown {
		return key
	}
	if ch.APIKey == "" {
		return "(none)"
	}
	return "••••••••  (r to reveal)"
}

func renderResult(result models.TestResult) string {
	if result.Success {
		line := "✅ " + result.Message
		if result.LatencyMs > 0 {
			line += fmt.Sprintf(" (%dms)", result.LatencyMs)
		}
		return messageStyle.Render(line)
	}

	line := "❌ " + utils.Excerpt(result.Message, 120)
	if result.Kind != "" {
		line += " [" + string(result.Kind) + "]"
	}
	return errorStyle.Render(line)
}

func formatMillis(ms int64) string {
	if ms <= 0 {
		return "-"
	}
	return time.UnixMilli(ms).Format("2006-01-02 15:04:05")
}

// RenderStatusBar renders the message line and short help
func (m Model) RenderStatusBar() string {
	var b strings.Builder

	switch {
	case m.errorMsg != "":
		b.WriteString(errorStyle.Render("✗ " + m.errorMsg))
		b.WriteString("\n")
	case m.message != "":
		b.WriteString(messageStyle.Render("✓ " + m.message))
		b.WriteString("\n")
	}

	b.WriteString(m.help.ShortHelpView(m.keys.ShortHelp()))
	return b.String()
}

// RenderDeleteView renders the delete confirmation dialog
func (m Model) RenderDeleteView() string {
	ch, ok := m.Selected()
	if !ok {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Delete channel"))
	b.WriteString("\n\n")
	b.WriteString(fmt.Sprintf("Delete %q (%s, %s)?\n", ch.Name, ch.Provider, ch.ID))
	b.WriteString(dimStyle.Render("The previous file is kept as a backup; 'proma restore' brings it back."))
	b.WriteString("\n\n")
	b.WriteString(helpStyle.Render("y: delete │ n/esc: cancel"))
	return b.String()
}

// RenderHelpView renders the help panel
func (m Model) RenderHelpView() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Keyboard shortcuts"))
	b.WriteString("\n")
	b.WriteString(separatorStyle.Render(strings.Repeat("─", 60)))
	b.WriteString("\n\n")

	full := m.help
	full.ShowAll = true
	b.WriteString(full.View(m.keys))
	b.WriteString("\n\n")

	b.WriteString(dimStyle.Render("The list reloads when channels.json changes on disk."))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Fetched models are added disabled; enable them in the edit form."))
	b.WriteString("\n\n")
	b.WriteString(helpStyle.Render("esc/?/q: back"))

	return b.String()
}
