// Package style provides the status-line vocabulary of ap's terminal output,
// built on the palette in internal/ui.
package style

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/steveyegge/autoprompter/internal/ui"
)

var (
	Success = lipgloss.NewStyle().Foreground(ui.ColorPass).Bold(true)
	Warning = lipgloss.NewStyle().Foreground(ui.ColorWarn).Bold(true)
	Error   = lipgloss.NewStyle().Foreground(ui.ColorFail).Bold(true)
	Info    = lipgloss.NewStyle().Foreground(ui.ColorAccent)
	Dim     = lipgloss.NewStyle().Foreground(ui.ColorMuted)
	Bold    = lipgloss.NewStyle().Bold(true)

	SuccessPrefix = Success.Render(ui.IconPass)
	WarningPrefix = Warning.Render(ui.IconWarn)
	ErrorPrefix   = Error.Render(ui.IconFail)
	// ArrowPrefix marks an instruction or an action in progress.
	ArrowPrefix = Info.Render(ui.IconArrow)
)

// Status lines. Each writes "<icon> <message>\n" to w.

func FprintSuccess(w io.Writer, format string, args ...interface{}) {
	fprintStatus(w, SuccessPrefix, format, args...)
}

func FprintError(w io.Writer, format string, args ...interface{}) {
	fprintStatus(w, ErrorPrefix, format, args...)
}

func FprintStep(w io.Writer, format string, args ...interface{}) {
	fprintStatus(w, ArrowPrefix, format, args...)
}

// FprintWarning labels the message so it stands out in a scrolling run log.
func FprintWarning(w io.Writer, format string, args ...interface{}) {
	fmt.Fprintf(w, "%s %s\n", Warning.Render(ui.IconWarn+" Warning:"), fmt.Sprintf(format, args...))
}

func fprintStatus(w io.Writer, prefix, format string, args ...interface{}) {
	fmt.Fprintf(w, "%s %s\n", prefix, fmt.Sprintf(format, args...))
}
