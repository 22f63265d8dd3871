package cmd

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"ttlpanel/internal/config"
	"ttlpanel/internal/panel"
)

// Color palette for consistent theming
var (
	primaryBlue   = lipgloss.Color("39")  // Headers, focus marker
	primaryGreen  = lipgloss.Color("82")  // TTL 65, success toasts
	primaryYellow = lipgloss.Color("220") // Default TTL 64
	primaryRed    = lipgloss.Color("196") // Other TTL values, errors

	secondaryGray = lipgloss.Color("244") // Descriptions
	darkGray      = lipgloss.Color("240") // Borders, disabled controls
	footerGray    = lipgloss.Color("241") // Footer text

	accentCyan = lipgloss.Color("86") // Persistence value
)

const aboutTTL = "TTL (Time To Live) determines how many hops a packet can make before being discarded. Some networks require TTL=65 for proper connectivity."

// readoutColor maps a readout class to its color
func readoutColor(c panel.Class) lipgloss.Color {
	switch c {
	case panel.ClassPreset:
		return primaryGreen
	case panel.ClassDefault:
		return primaryYellow
	default:
		return primaryRed
	}
}

// View implements tea.Model
func (m *panelModel) View() string {
	if m.help {
		return m.renderHelp()
	}

	snap := m.ctrl.Snapshot()
	width := m.panelWidth()

	var content strings.Builder

	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(primaryBlue).
		Padding(0, 1)
	content.WriteString(headerStyle.Render("🌐 " + m.Title()))
	content.WriteString("\n\n")

	content.WriteString(m.renderStatus(snap))
	content.WriteString("\n\n")
	content.WriteString(m.renderControls(snap))
	content.WriteString("\n")

	aboutStyle := lipgloss.NewStyle().
		Foreground(secondaryGray).
		Width(width - 2).
		Padding(0, 1).
		MarginTop(1)
	content.WriteString(aboutStyle.Render("About TTL\n" + aboutTTL))

	if toasts := m.renderToasts(width); toasts != "" {
		content.WriteString("\n")
		content.WriteString(toasts)
	}

	content.WriteString("\n")
	content.WriteString(m.renderFooter())

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(darkGray).
		Width(width).
		Render(content.String())
}

func (m *panelModel) panelWidth() int {
	width := config.PanelWidth
	if m.width > 0 && m.width-2 < width {
		width = m.width - 2
	}
	if width < config.MinPanelWidth {
		width = config.MinPanelWidth
	}
	return width
}

func (m *panelModel) renderStatus(snap panel.Snapshot) string {
	labelStyle := lipgloss.NewStyle().Width(config.LabelColumnWidth).Padding(0, 1)
	descStyle := lipgloss.NewStyle().Foreground(secondaryGray).Padding(0, 1)

	readout := snap.Readout()
	valueStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(readoutColor(readout.Class))

	value := valueStyle.Render(readout.Text)
	if snap.IsLoading {
		value = m.spinner.View() + " " + value
	}

	valueCol := lipgloss.NewStyle().Width(config.ValueColumnWidth)
	persistStyle := lipgloss.NewStyle().Foreground(accentCyan)

	lines := []string{
		lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render("Current TTL"), valueCol.Render(value)),
		descStyle.Render("Current system Time To Live value"),
		lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render("Persistent"), valueCol.Render(persistStyle.Render(persistenceText(snap)))),
	}
	return strings.Join(lines, "\n")
}

func (m *panelModel) renderControls(snap panel.Snapshot) string {
	controls := snap.Controls()

	changingLabel := func(label string) string {
		if snap.IsChanging {
			return m.spinner.View() + " Changing..."
		}
		return label
	}

	check := func(on bool) string {
		if on {
			return "[x]"
		}
		return "[ ]"
	}

	rows := []struct {
		id      control
		label   string
		enabled bool
	}{
		{controlRefresh, "Refresh TTL", controls.Refresh},
		{controlSetPreset, changingLabel("Set TTL to 65"), controls.SetPreset},
		{controlReset, changingLabel(fmt.Sprintf("Reset TTL to Default (%d)", config.DefaultTTL)), controls.Reset},
		{controlPersistence, check(snap.IsPersistent) + " Make Changes Persistent", controls.Persistence},
		{controlAdvanced, check(snap.ShowAdvanced) + " Advanced", controls.Advanced},
	}

	var b strings.Builder
	for _, row := range rows {
		b.WriteString(m.renderControl(row.id, row.label, row.enabled))
		b.WriteString("\n")
	}

	if snap.ShowAdvanced {
		b.WriteString(m.renderCustom(snap, controls.CustomApply))
		b.WriteString("\n")
	}

	return strings.TrimRight(b.String(), "\n")
}

func (m *panelModel) renderControl(id control, label string, enabled bool) string {
	marker := "  "
	style := lipgloss.NewStyle()
	if m.focus == id {
		marker = lipgloss.NewStyle().Foreground(primaryBlue).Bold(true).Render("▶ ")
		style = style.Bold(true)
	}
	if !enabled {
		style = style.Foreground(darkGray)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, " "+marker, style.Render(label))
}

func (m *panelModel) renderCustom(snap panel.Snapshot, canApply bool) string {
	bracketStyle := lipgloss.NewStyle().Foreground(darkGray)
	if m.editing {
		bracketStyle = bracketStyle.Foreground(primaryBlue)
	}

	apply := "Apply"
	if snap.IsChanging {
		apply = "Changing..."
	}
	applyStyle := lipgloss.NewStyle().Foreground(primaryGreen)
	if !canApply {
		applyStyle = applyStyle.Foreground(darkGray)
	}

	// Kept on one line so the focus marker sits next to the label
	row := fmt.Sprintf("Custom TTL (%d-%d) %s%s%s %s",
		config.MinCustomTTL, config.MaxCustomTTL,
		bracketStyle.Render("["), m.input.View(), bracketStyle.Render("]"),
		applyStyle.Render(apply),
	)
	return m.renderControl(controlCustom, row, true)
}

func (m *panelModel) renderToasts(width int) string {
	if len(m.notes) == 0 {
		return ""
	}

	var parts []string
	for _, t := range m.notes {
		color := primaryGreen
		icon := "✅"
		if t.title == panel.TitleError {
			color = primaryRed
			icon = "❌"
		}
		style := lipgloss.NewStyle().
			Foreground(color).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(color).
			Padding(0, 1).
			Width(width - 4)
		parts = append(parts, style.Render(fmt.Sprintf("%s %s: %s", icon, t.title, t.body)))
	}
	return strings.Join(parts, "\n")
}

func (m *panelModel) renderFooter() string {
	footerStyle := lipgloss.NewStyle().
		Foreground(footerGray).
		Padding(0, 1).
		MarginTop(1)

	if m.editing {
		return footerStyle.Render("[Enter] apply • [Esc] done")
	}

	navKeys := lipgloss.NewStyle().Foreground(primaryBlue).Render("[jk/↑↓]")
	actionKeys := lipgloss.NewStyle().Foreground(primaryGreen).Render("[Enter]")
	helpKeys := lipgloss.NewStyle().Foreground(primaryYellow).Render("[?]")
	return footerStyle.Render(fmt.Sprintf("%s move • %s select • %s help • [q] quit", navKeys, actionKeys, helpKeys))
}

func (m *panelModel) renderHelp() string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(primaryBlue)
	keyStyle := lipgloss.NewStyle().Foreground(primaryGreen).Width(12)

	bindings := [][2]string{
		{"j/k ↑/↓", "Move between controls"},
		{"Enter/Space", "Activate the focused control"},
		{"r", "Refresh TTL"},
		{"s", "Set TTL to 65"},
		{"d", fmt.Sprintf("Reset TTL to default (%d)", config.DefaultTTL)},
		{"p", "Toggle persistence"},
		{"a", "Show or hide advanced controls"},
		{"i", "Edit the custom TTL"},
		{"yy", "Copy the sysctl line for the current TTL"},
		{"q", "Quit"},
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Keyboard shortcuts"))
	b.WriteString("\n\n")
	for _, kb := range bindings {
		b.WriteString(keyStyle.Render(kb[0]))
		b.WriteString(kb[1])
		b.WriteString("\n")
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(darkGray).
		Padding(1, 2).
		Render(b.String())
}
