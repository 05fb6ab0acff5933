package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/max00189xp/homework/internal/desk"
	"github.com/max00189xp/homework/internal/logbook"
)

var errNoConfig = errors.New("tui: config is required")

var (
	colorAccent  = lipgloss.Color("#5B8DEF")
	colorTitle   = lipgloss.Color("#FF6B6B")
	colorMuted   = lipgloss.Color("#888888")
	colorBody    = lipgloss.Color("#AAAAAA")
	colorBorder  = lipgloss.Color("#444444")
	colorSuccess = lipgloss.Color("#6BCB77")
	colorError   = lipgloss.Color("#FF6B6B")
	colorWarn    = lipgloss.Color("#F4D35E")
)

var levelColors = map[logbook.Level]lipgloss.Color{
	logbook.LevelInfo:  colorMuted,
	logbook.LevelWarn:  colorWarn,
	logbook.LevelError: colorError,
}

var tabTitles = map[desk.Tab]string{
	desk.TabSubmit: "提交作品",
	desk.TabQuery:  "查詢評語",
}

var (
	buttonLabels = map[desk.Form]string{
		desk.FormSubmit: "提交作品",
		desk.FormQuery:  "查詢評語",
	}
	loadingLabels = map[desk.Form]string{
		desk.FormSubmit: "提交中...",
		desk.FormQuery:  "查詢中...",
	}
)

// View renders the current state.
func (a *App) View() string {
	leftWidth, rightWidth := a.columnWidths()

	header := lipgloss.NewStyle().
		Bold(true).
		Foreground(colorTitle).
		Render("⬡ 作業回饋")

	left := lipgloss.JoinVertical(lipgloss.Left,
		a.renderTabBar(),
		"",
		a.renderActivePage(),
	)
	leftBox := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorBorder).
		Padding(0, 1).
		Width(max(20, leftWidth-4)).
		Render(left)

	body := leftBox
	if rightWidth > 0 {
		body = lipgloss.JoinHorizontal(lipgloss.Top, leftBox, a.renderLogPanel(rightWidth-2))
	}

	footer := lipgloss.NewStyle().
		Foreground(colorMuted).
		Render(a.renderHelp() + "\nbackend: " + a.backendLabel)

	return lipgloss.JoinVertical(lipgloss.Left, header, body, footer)
}

func (a *App) renderTabBar() string {
	active := lipgloss.NewStyle().
		Bold(true).
		Foreground(colorAccent).
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(colorAccent).
		Padding(0, 1)
	inactive := lipgloss.NewStyle().
		Foreground(colorMuted).
		Border(lipgloss.HiddenBorder(), false, false, true, false).
		Padding(0, 1)

	tabs := a.tabs.Tabs()
	cells := make([]string, 0, len(tabs))
	for i, tab := range tabs {
		label := fmt.Sprintf("%d %s", i+1, tabTitles[tab])
		if a.tabs.IsActive(tab) {
			cells = append(cells, active.Render(label))
		} else {
			cells = append(cells, inactive.Render(label))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Bottom, cells...)
}

func (a *App) renderActivePage() string {
	if a.tabs.IsActive(desk.TabQuery) {
		return a.renderQueryPage()
	}
	return a.renderSubmitPage()
}

func (a *App) renderSubmitPage() string {
	lines := []string{
		fieldLabel("學生姓名", a.focus == focusSubmitName),
		a.submitName.View(),
		"",
		fieldLabel("作品內容", a.focus == focusSubmitContent),
		a.submitContent.View(),
		"",
		a.renderButton(desk.FormSubmit),
	}
	if msg := a.renderMessage(desk.FormSubmit); msg != "" {
		lines = append(lines, msg)
	}
	return strings.Join(lines, "\n")
}

func (a *App) renderQueryPage() string {
	lines := []string{
		fieldLabel("學生姓名", a.focus == focusQueryName),
		a.queryName.View(),
		"",
		a.renderButton(desk.FormQuery),
	}
	if msg := a.renderMessage(desk.FormQuery); msg != "" {
		lines = append(lines, msg)
	}
	if a.resultVisible {
		lines = append(lines, "", a.renderResultCard())
	}
	return strings.Join(lines, "\n")
}

func fieldLabel(label string, focused bool) string {
	style := lipgloss.NewStyle().Foreground(colorBody)
	if focused {
		style = style.Foreground(colorAccent).Bold(true)
	}
	return style.Render(label)
}

func (a *App) renderButton(form desk.Form) string {
	style := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorAccent).
		Padding(0, 2)
	if a.loading[form] {
		return style.BorderForeground(colorMuted).
			Foreground(colorMuted).
			Render(a.spinner.View() + " " + loadingLabels[form])
	}
	return style.Foreground(colorAccent).Render(buttonLabels[form])
}

func (a *App) renderMessage(section desk.Form) string {
	msg, ok := a.messages[section]
	if !ok || msg.Text == "" {
		return ""
	}
	color := colorSuccess
	if msg.Severity == desk.SeverityError {
		color = colorError
	}
	return lipgloss.NewStyle().Foreground(color).Render(msg.Text)
}

func (a *App) renderResultCard() string {
	r := a.result
	meta := lipgloss.NewStyle().Foreground(colorMuted).Render(r.Name + " · " + r.Time)
	fourChar := lipgloss.NewStyle().
		Bold(true).
		Foreground(colorTitle).
		Render(r.FourChar)
	feedback := lipgloss.NewStyle().
		Foreground(colorBody).
		Width(max(20, a.contentWidth()-4)).
		Render(r.Feedback)
	play := lipgloss.NewStyle().
		Foreground(colorAccent).
		Render(a.speechState.Label() + "  (ctrl+r)")

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorAccent).
		Padding(0, 1).
		Render(lipgloss.JoinVertical(lipgloss.Left, meta, fourChar, "", feedback, "", play))
}

func (a *App) renderLogPanel(width int) string {
	head := lipgloss.NewStyle().
		Bold(true).
		Foreground(colorAccent).
		Render(fmt.Sprintf("Journal (%d)", a.logTotal))
	text := "No activity yet."
	if len(a.logEntries) > 0 {
		lines := make([]string, 0, len(a.logEntries))
		for _, entry := range a.logEntries {
			lines = append(lines, renderLogEntry(entry))
		}
		text = strings.Join(lines, "\n")
	}
	body := lipgloss.NewStyle().
		Foreground(colorBody).
		Width(max(10, width-4)).
		Render(text)
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorBorder).
		Padding(0, 1).
		Render(lipgloss.JoinVertical(lipgloss.Left, head, body))
}

func renderLogEntry(entry logbook.Entry) string {
	level := lipgloss.NewStyle().
		Foreground(levelColors[entry.Level]).
		Render(fmt.Sprintf("%-5s", entry.Level))
	if entry.Time.IsZero() {
		return level + " " + entry.Message
	}
	return entry.Time.Local().Format("15:04:05") + " " + level + " " + entry.Message
}

func (a *App) renderHelp() string {
	k := a.keys
	parts := k.helpLine(k.nextFocus, k.nextTab, k.submit)
	if a.focus == focusSubmitContent {
		parts = k.helpLine(k.nextFocus, k.nextTab, k.submitArea)
	}
	if a.focus == focusNone {
		parts = append(parts, k.helpLine(k.submitTab, k.queryTab)...)
	} else {
		parts = append(parts, k.helpLine(k.blur)...)
	}
	if a.resultVisible && a.tabs.IsActive(desk.TabQuery) {
		parts = append(parts, k.helpLine(k.play)...)
	}
	parts = append(parts, k.helpLine(k.quit)...)
	return strings.Join(parts, " · ")
}

func (a *App) contentWidth() int {
	left, _ := a.columnWidths()
	return left - 6
}
