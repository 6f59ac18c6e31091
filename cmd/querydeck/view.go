package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"querydeck/internal/conversation"
	"querydeck/internal/present"
)

type uiTheme struct {
	root        lipgloss.Style
	header      lipgloss.Style
	panel       lipgloss.Style
	panelTitle  lipgloss.Style
	footer      lipgloss.Style
	status      lipgloss.Style
	inputPanel  lipgloss.Style
	helpText    lipgloss.Style
	userLabel   lipgloss.Style
	deckLabel   lipgloss.Style
	failedText  lipgloss.Style
	tableHeader lipgloss.Style
	muted       lipgloss.Style
	modeActive  lipgloss.Style
	modeChoice  lipgloss.Style
	onlineBadge lipgloss.Style
	offBadge    lipgloss.Style
	pickerPick  lipgloss.Style
	pickerItem  lipgloss.Style
	pickerGroup lipgloss.Style
}

func newTheme() uiTheme {
	blue := lipgloss.Color("#01cdfe")
	mint := lipgloss.Color("#05ffa1")
	pink := lipgloss.Color("#ff71ce")
	bg := lipgloss.Color("#120924")
	panelBg := lipgloss.Color("#1b0f35")
	text := lipgloss.Color("#f3f3ff")
	muted := lipgloss.Color("#9ca3d8")

	return uiTheme{
		root: lipgloss.NewStyle().
			Background(bg).
			Foreground(text).
			Padding(0, 1),
		header: lipgloss.NewStyle().
			Background(panelBg).
			Foreground(text).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(blue).
			Padding(0, 1),
		panel: lipgloss.NewStyle().
			Background(panelBg).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(blue).
			Padding(0, 1),
		panelTitle: lipgloss.NewStyle().Foreground(mint).Bold(true),
		footer: lipgloss.NewStyle().
			Background(panelBg).
			Foreground(muted).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(pink).
			Padding(0, 1),
		status: lipgloss.NewStyle().Foreground(blue).Bold(true),
		inputPanel: lipgloss.NewStyle().
			Background(panelBg).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(mint).
			Padding(0, 1),
		helpText:    lipgloss.NewStyle().Foreground(muted),
		userLabel:   lipgloss.NewStyle().Foreground(mint).Bold(true),
		deckLabel:   lipgloss.NewStyle().Foreground(blue).Bold(true),
		failedText:  lipgloss.NewStyle().Foreground(pink),
		tableHeader: lipgloss.NewStyle().Foreground(mint).Bold(true),
		muted:       lipgloss.NewStyle().Foreground(muted),
		modeActive:  lipgloss.NewStyle().Foreground(lipgloss.Color("#22062f")).Background(pink).Bold(true).Padding(0, 1),
		modeChoice:  lipgloss.NewStyle().Foreground(muted).Padding(0, 1),
		onlineBadge: lipgloss.NewStyle().Foreground(mint).Bold(true),
		offBadge:    lipgloss.NewStyle().Foreground(pink).Bold(true),
		pickerPick:  lipgloss.NewStyle().Foreground(lipgloss.Color("#22062f")).Background(pink).Bold(true).Padding(0, 1),
		pickerItem:  lipgloss.NewStyle().Foreground(text),
		pickerGroup: lipgloss.NewStyle().Foreground(mint).Bold(true),
	}
}

func (m model) View() string {
	header := m.renderHeader()
	var content string
	if m.pickerActive {
		content = m.renderPicker()
	} else {
		content = m.theme.panel.Width(maxInt(20, m.width-4)).Render(m.chat.View())
	}
	input := m.renderInput()
	footer := m.renderFooter()
	out := lipgloss.JoinVertical(lipgloss.Left, header, content, input, footer)
	if m.quitConfirm {
		out = m.renderQuitModal()
	}
	return m.theme.root.Render(out)
}

func (m model) renderHeader() string {
	badge := m.theme.muted.Render("· probing")
	if m.probed {
		if m.online {
			badge = m.theme.onlineBadge.Render("● online")
		} else {
			badge = m.theme.offBadge.Render("● offline")
		}
	}
	title := m.theme.panelTitle.Render("querydeck") +
		m.theme.muted.Render("  "+m.cfg.BaseURL+"  ") + badge
	return m.theme.header.Width(maxInt(20, m.width-4)).Render(title)
}

func (m model) renderInput() string {
	line := m.input.View()
	if m.conv.Sending() {
		line = m.spin.View() + " waiting for the backend..."
	}
	return m.theme.inputPanel.Width(maxInt(20, m.width-4)).Render(line)
}

func (m model) renderFooter() string {
	status := m.theme.status.Render(m.statusLine)
	hints := m.theme.helpText.Render(
		"enter send · ctrl+e examples · f1-f4 view mode · ctrl+r raw · esc quit")
	return m.theme.footer.Width(maxInt(20, m.width-4)).Render(status + "  " + hints)
}

func (m model) renderQuitModal() string {
	body := m.theme.panelTitle.Render("Leave querydeck?") + "\n\n" +
		m.theme.helpText.Render("The conversation log is not persisted.") + "\n\n" +
		"y / enter quit    n / esc stay"
	return m.theme.panel.Width(maxInt(30, minInt(60, m.width-4))).Render(body)
}

func (m model) renderPicker() string {
	var b strings.Builder
	b.WriteString(m.theme.panelTitle.Render("Example queries") + "\n\n")
	idx := 0
	for _, category := range m.categories {
		b.WriteString(m.theme.pickerGroup.Render(category.Name) + "\n")
		for _, query := range category.Queries {
			if idx == m.pickerIndex {
				b.WriteString(m.theme.pickerPick.Render(">> "+query) + "\n")
			} else {
				b.WriteString(m.theme.pickerItem.Render("   "+query) + "\n")
			}
			idx++
		}
		b.WriteString("\n")
	}
	b.WriteString(m.theme.helpText.Render("enter prefill · esc close"))
	return m.theme.panel.Width(maxInt(20, m.width-4)).Render(b.String())
}

// renderChat rebuilds the transcript pane from the conversation log.
func (m *model) renderChat() {
	var b strings.Builder
	for i, record := range m.conv.Messages() {
		if i > 0 {
			b.WriteString("\n")
		}
		m.renderMessage(&b, record)
	}
	if m.conv.Sending() {
		b.WriteString("\n" + m.theme.muted.Render("thinking..."))
	}
	m.chat.SetContent(b.String())
}

func (m *model) renderMessage(b *strings.Builder, record conversation.Message) {
	stamp := m.theme.muted.Render(record.CreatedAt.Format("15:04:05"))
	switch record.Role {
	case conversation.RoleUser:
		b.WriteString(m.theme.userLabel.Render("you") + " " + stamp + "\n")
		b.WriteString("  " + strings.ReplaceAll(record.Text, "\n", "\n  ") + "\n")
	case conversation.RoleAssistant:
		b.WriteString(m.theme.deckLabel.Render("deck") + " " + stamp + "\n")
		if record.Failed {
			b.WriteString("  " + m.theme.failedText.Render(record.Text) + "\n")
			return
		}
		b.WriteString("  " + strings.ReplaceAll(record.Text, "\n", "\n  ") + "\n")
		if info := renderQueryInfo(record, m.theme); info != "" {
			b.WriteString("  " + info + "\n")
		}
		if record.Result != nil {
			state := m.presentation[record.ID]
			view := present.Render(record.Result, state)
			if rendered := m.renderResult(record, view); rendered != "" {
				b.WriteString(rendered)
			}
		}
	}
}

func renderQueryInfo(record conversation.Message, theme uiTheme) string {
	info := record.QueryInfo
	if info == nil {
		return ""
	}
	parts := make([]string, 0, 2)
	if strings.TrimSpace(info.Intent) != "" {
		parts = append(parts, "intent="+info.Intent)
	}
	if routed := info.RoutedSources(); len(routed) > 0 {
		parts = append(parts, "routed="+strings.Join(routed, ","))
	}
	if len(parts) == 0 {
		return ""
	}
	return theme.muted.Render(strings.Join(parts, " · "))
}

func (m *model) renderResult(record conversation.Message, view present.View) string {
	var b strings.Builder
	state := m.presentation[record.ID]
	b.WriteString("  " + m.renderModeBar(record, state) + "\n")
	switch view.Mode {
	case present.ModeSummary:
		b.WriteString(renderSummary(view.Summary, m.theme))
	case present.ModeTable:
		b.WriteString(renderTable(view.Table, m.theme))
	case present.ModeTimeline:
		b.WriteString(renderTimeline(view.Timeline, m.theme))
	case present.ModeRaw:
		b.WriteString(indentBlock(view.Raw, "  ") + "\n")
	default:
		return ""
	}
	return b.String()
}

func (m *model) renderModeBar(record conversation.Message, state *present.State) string {
	var b strings.Builder
	for _, mode := range present.EligibleModes(record.Result) {
		label := string(mode)
		if state != nil && !state.ShowRaw && mode == state.Mode {
			b.WriteString(m.theme.modeActive.Render(label))
		} else if state != nil && state.ShowRaw && mode == present.ModeRaw {
			b.WriteString(m.theme.modeActive.Render(label))
		} else {
			b.WriteString(m.theme.modeChoice.Render(label))
		}
	}
	return b.String()
}

func renderSummary(data *present.SummaryData, theme uiTheme) string {
	if data == nil {
		return ""
	}
	var b strings.Builder
	if data.Total != "" {
		b.WriteString("  " + theme.panelTitle.Render("Results: ") + data.Total + "\n")
	}
	if data.Sources != "" {
		b.WriteString("  " + theme.muted.Render("sources: "+data.Sources) + "\n")
	}
	if strings.TrimSpace(data.Text) != "" {
		b.WriteString("  " + strings.ReplaceAll(data.Text, "\n", "\n  ") + "\n")
	}
	for _, block := range data.Aggregations {
		b.WriteString("  " + theme.tableHeader.Render(block.Source) + "\n")
		for _, metric := range block.Metrics {
			if metric.Scalar != "" {
				b.WriteString(fmt.Sprintf("    %s: %s\n", metric.Name, metric.Scalar))
				continue
			}
			b.WriteString("    " + metric.Name + "\n")
			for _, bucket := range metric.Buckets {
				b.WriteString(fmt.Sprintf("      %s · %s\n", bucket.Key, bucket.Count))
			}
		}
	}
	return b.String()
}

func renderTable(data *present.TableData, theme uiTheme) string {
	if data == nil || len(data.Columns) == 0 {
		return ""
	}
	widths := make([]int, len(data.Columns))
	for i, col := range data.Columns {
		widths[i] = len(col.Label)
	}
	for _, row := range data.Rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = minInt(len(cell), 32)
			}
		}
	}

	var b strings.Builder
	header := make([]string, len(data.Columns))
	rule := make([]string, len(data.Columns))
	for i, col := range data.Columns {
		header[i] = padRight(col.Label, widths[i])
		rule[i] = strings.Repeat("-", widths[i])
	}
	b.WriteString("  " + theme.tableHeader.Render(strings.Join(header, "  ")) + "\n")
	b.WriteString("  " + theme.muted.Render(strings.Join(rule, "  ")) + "\n")
	for _, row := range data.Rows {
		cells := make([]string, len(row))
		for i, cell := range row {
			cells[i] = padRight(cell, widths[i])
		}
		b.WriteString("  " + strings.Join(cells, "  ") + "\n")
	}
	return b.String()
}

func renderTimeline(data *present.TimelineData, theme uiTheme) string {
	if data == nil {
		return ""
	}
	var b strings.Builder
	for _, bucket := range data.Buckets {
		b.WriteString(fmt.Sprintf("  %s %s\n",
			theme.tableHeader.Render(bucket.Date),
			theme.muted.Render(fmt.Sprintf("(%d)", bucket.Count)),
		))
		for _, item := range bucket.Items {
			b.WriteString("    " + item + "\n")
		}
	}
	return b.String()
}

func indentBlock(text, prefix string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = prefix + line
	}
	return strings.Join(lines, "\n")
}
