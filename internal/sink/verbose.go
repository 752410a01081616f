package sink

import (
	"fmt"
	"io"

	"github.com/steveyegge/autoprompter/internal/dispatch"
	"github.com/steveyegge/autoprompter/internal/style"
	"github.com/steveyegge/autoprompter/internal/ui"
)

// PhaseTitles are the human names of the dispatch phases.
var PhaseTitles = map[string]string{
	string(dispatch.PhaseInitialization): "Initialization",
	string(dispatch.PhaseWindowSearch):   "Chat window search",
	string(dispatch.PhaseCoordinate):     "Coordinate setup",
	string(dispatch.PhaseProcessingPrep): "Processing preparation",
	string(dispatch.PhaseProcessing):     "Sending prompts",
	string(dispatch.PhaseGenerationWait): "Waiting for generation",
	string(dispatch.PhaseFinalWait):      "Waiting for final generation",
}

// PhaseTitle returns the display name of a phase, or the raw name.
func PhaseTitle(name string) string {
	if title, ok := PhaseTitles[name]; ok {
		return title
	}
	return name
}

// Verbose renders every event as styled, human-readable text.
type Verbose struct {
	out         io.Writer
	errOut      io.Writer
	interactive bool
}

func (s *Verbose) Emit(e dispatch.Event) {
	switch e.Type {
	case dispatch.TypePhase:
		fmt.Fprintf(s.out, "\n%s\n%s %s\n%s\n",
			ui.RenderSeparator(), ui.RenderMuted("Phase:"), ui.RenderCategory(PhaseTitle(e.Str("name"))), ui.RenderSeparator())

	case dispatch.TypeLoaded:
		fmt.Fprintf(s.out, "%s Loaded %s prompts from %s\n",
			style.SuccessPrefix, style.Bold.Render(fmt.Sprint(e.Int("total"))), e.Str("csv_path"))
		if e.Bool("overrides_downgraded") {
			style.FprintWarning(s.out, "no prefix or suffix column in the work list; using the default prefix and suffix")
		}
		if e.Bool("dry_run") {
			fmt.Fprintf(s.out, "%s\n", style.Warning.Render("DRY RUN: no input will be sent"))
		}

	case dispatch.TypeWindowFound:
		fmt.Fprintf(s.out, "%s Chat window: %s\n", style.SuccessPrefix, e.Str("title"))

	case dispatch.TypeCountdown:
		s.countdown(e)

	case dispatch.TypeCoordinate:
		fmt.Fprintf(s.out, "%s Input position recorded: (%d, %d)\n", style.SuccessPrefix, e.Int("x"), e.Int("y"))
		if title := e.Str("window_title"); title != "" {
			fmt.Fprintf(s.out, "  %s\n", style.Dim.Render("target window: "+title))
		}

	case dispatch.TypeProgress:
		s.progress(e)

	case dispatch.TypeRetry:
		fmt.Fprintf(s.out, "%s Retry %d/%d for prompt %d/%d\n",
			style.WarningPrefix, e.Int("attempt"), e.Int("max_retry"), e.Int("index"), e.Int("total"))

	case dispatch.TypeCSVUpdated:
		fmt.Fprintf(s.out, "%s Work list updated: marked %q done\n", style.SuccessPrefix, e.Str("marked_done"))

	case dispatch.TypeWait:
		clock := fmt.Sprintf("%02d:%02d", e.Int("minutes"), e.Int("seconds"))
		if e.Bool("final") {
			fmt.Fprintf(s.out, "%s Waiting for the final generation: %s\n", ui.RenderMuted(ui.IconInfo), clock)
		} else {
			fmt.Fprintf(s.out, "%s Time left: %s | next: %d/%d\n",
				ui.RenderMuted(ui.IconInfo), clock, e.Int("next_index"), e.Int("total"))
		}

	case dispatch.TypeError:
		fmt.Fprintf(s.out, "%s Error (step: %s, %d/%d): %s\n",
			style.ErrorPrefix, e.Str("step"), e.Int("index"), e.Int("total"), e.Str("error"))

	case dispatch.TypeResult:
		s.result(e)
	}
}

func (s *Verbose) countdown(e dispatch.Event) {
	left := e.Int("seconds_left")
	if !s.interactive {
		if left == 5 {
			fmt.Fprintf(s.out, "Preparing... (%s)\n", e.Str("message"))
		}
		return
	}

	if left == 5 {
		switch e.Str("phase") {
		case string(dispatch.PhaseCoordinate):
			fmt.Fprintf(s.out, "%s Place the mouse cursor over the chat input field\n", style.ArrowPrefix)
			fmt.Fprintf(s.out, "  %s\n", style.Dim.Render("the position is recorded automatically in 5 seconds"))
		case string(dispatch.PhaseProcessingPrep):
			fmt.Fprintf(s.out, "%s Ready. Automatic processing starts in 5 seconds\n", style.ArrowPrefix)
			fmt.Fprintf(s.out, "  %s\n", style.Dim.Render("press Ctrl+C to stop"))
		}
	}
	fmt.Fprintf(s.out, "  %ds...\n", left)
}

func (s *Verbose) progress(e dispatch.Event) {
	index, total := e.Int("index"), e.Int("total")
	switch e.Str("step") {
	case dispatch.StepStart:
		pct := 0
		if total > 0 {
			pct = (index - 1) * 100 / total
		}
		fmt.Fprintf(s.out, "\n%s %s\n",
			style.Bold.Render(fmt.Sprintf("--- Processing prompt %d/%d ---", index, total)),
			style.Dim.Render(style.ProgressBar(pct, 20)))
		fmt.Fprintf(s.out, "  Prompt: %s\n", e.Str("prompt"))
	case dispatch.StepSimulate:
		fmt.Fprintf(s.out, "  %s\n", style.Dim.Render("[dry-run] simulated send"))
	case dispatch.StepActivate:
		fmt.Fprintf(s.out, "  %s Activated chat window\n", style.ArrowPrefix)
	case dispatch.StepClick:
		fmt.Fprintf(s.out, "  %s Clicked input field at (%d, %d)\n", style.ArrowPrefix, e.Int("x"), e.Int("y"))
	case dispatch.StepSelectAll:
		fmt.Fprintf(s.out, "  %s Selected existing input\n", style.ArrowPrefix)
	case dispatch.StepCopy:
		fmt.Fprintf(s.out, "  %s Copied prompt to clipboard\n", style.ArrowPrefix)
	case dispatch.StepPaste:
		fmt.Fprintf(s.out, "  %s Pasted prompt\n", style.ArrowPrefix)
	case dispatch.StepSend:
		fmt.Fprintf(s.out, "  %s Sent prompt\n", style.SuccessPrefix)
	}
}

func (s *Verbose) result(e dispatch.Event) {
	total, sent, failed := e.Int("total"), e.Int("sent"), e.Int("failed")

	fmt.Fprintf(s.out, "\n%s\n%s\n%s\n", ui.RenderSeparator(), style.Success.Render("Processing complete"), ui.RenderSeparator())
	fmt.Fprintf(s.out, "  Prompts:  %d\n", total)
	fmt.Fprintf(s.out, "  %s Sent:   %d\n", style.SuccessPrefix, sent)
	if failed > 0 {
		fmt.Fprintf(s.out, "  %s Failed: %d\n", style.ErrorPrefix, failed)
	} else {
		fmt.Fprintf(s.out, "  %s Failed: %d\n", ui.RenderMuted(ui.IconSkip), failed)
	}
	if total > 0 {
		rate := float64(sent) / float64(total) * 100
		fmt.Fprintf(s.out, "  Success rate: %.1f%% %s\n", rate, style.ProgressBar(sent*100/total, 20))
	}
	fmt.Fprintln(s.out, ui.RenderSeparator())
}

func (s *Verbose) Error(err error) {
	style.FprintError(s.errOut, "%v", err)
}

func (s *Verbose) Close() error { return nil }
