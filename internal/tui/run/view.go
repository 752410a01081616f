package run

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/steveyegge/autoprompter/internal/ui"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ui.ColorAccent).
			Padding(0, 1)

	labelStyle = lipgloss.NewStyle().
			Foreground(ui.ColorMuted)

	phaseStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ui.ColorAccent)

	dryRunStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ui.ColorWarn)

	logPanelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ui.ColorMuted).
			Padding(0, 1)

	timestampStyle = lipgloss.NewStyle().Foreground(ui.ColorMuted)
	spinnerStyle   = lipgloss.NewStyle().Foreground(ui.ColorAccent)

	levelStyles = map[string]lipgloss.Style{
		"info": lipgloss.NewStyle(),
		"ok":   lipgloss.NewStyle().Foreground(ui.ColorPass),
		"warn": lipgloss.NewStyle().Foreground(ui.ColorWarn),
		"fail": lipgloss.NewStyle().Foreground(ui.ColorFail).Bold(true),
	}

	levelIcons = map[string]string{
		"info": ui.IconInfo,
		"ok":   ui.IconPass,
		"warn": ui.IconWarn,
		"fail": ui.IconFail,
	}
)

// View renders the TUI.
func (m *Model) View() string {
	var b strings.Builder

	title := "ap run"
	if m.csvPath != "" {
		title += "  " + m.csvPath
	}
	b.WriteString(headerStyle.Render(title))
	if m.dryRun {
		b.WriteString(dryRunStyle.Render(" DRY RUN"))
	}
	b.WriteString("\n\n")

	b.WriteString(m.renderStatus())
	b.WriteString("\n")
	b.WriteString(logPanelStyle.Render(m.viewport.View()))
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))

	return b.String()
}

func (m *Model) renderStatus() string {
	var b strings.Builder

	activity := m.spinner.View()
	if m.finished {
		activity = ui.RenderPass(ui.IconPass)
		if m.err != nil {
			activity = ui.RenderFail(ui.IconFail)
		}
	}
	phase := m.phase
	if phase == "" {
		phase = "starting"
	}
	fmt.Fprintf(&b, "%s %s %s", activity, labelStyle.Render("phase"), phaseStyle.Render(phase))
	switch {
	case m.countdown > 0:
		fmt.Fprintf(&b, "  %s", ui.RenderWarn(fmt.Sprintf("%ds", m.countdown)))
	case m.waitLeft > 0:
		label := "next in"
		if m.finalWait {
			label = "final wait"
		}
		fmt.Fprintf(&b, "  %s %02d:%02d", labelStyle.Render(label), m.waitLeft/60, m.waitLeft%60)
	}
	if m.stopping && !m.finished {
		fmt.Fprintf(&b, "  %s", ui.RenderWarn("stopping..."))
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "%s %s\n", m.progress.ViewAs(m.fraction()),
		labelStyle.Render(fmt.Sprintf("%d/%d", m.sent+m.failed, m.total)))

	fmt.Fprintf(&b, "%s %s  %s %s",
		labelStyle.Render("sent"), ui.RenderPass(fmt.Sprint(m.sent)),
		labelStyle.Render("failed"), ui.RenderFail(fmt.Sprint(m.failed)))
	if m.target != "" {
		fmt.Fprintf(&b, "  %s %s", labelStyle.Render("target"), m.target)
	}
	b.WriteString("\n")

	if m.prompt != "" && !m.finished {
		fmt.Fprintf(&b, "%s %s\n", labelStyle.Render("prompt"), m.prompt)
	} else if m.finished {
		b.WriteString(labelStyle.Render("run finished; press q to quit") + "\n")
	}

	return b.String()
}

func (m *Model) renderLog() string {
	if len(m.log) == 0 {
		return labelStyle.Render("waiting for events...")
	}

	var b strings.Builder
	for i, line := range m.log {
		if i > 0 {
			b.WriteString("\n")
		}
		style := levelStyles[line.level]
		fmt.Fprintf(&b, "%s %s %s",
			timestampStyle.Render(line.at.Format("15:04:05")),
			style.Render(levelIcons[line.level]),
			style.Render(line.text))
	}
	return b.String()
}
