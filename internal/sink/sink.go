// Package sink renders dispatch events for the terminal or for other programs.
package sink

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/steveyegge/autoprompter/internal/dispatch"
)

// Mode selects how a run is reported.
type Mode string

const (
	ModeVerbose Mode = "verbose"
	ModeQuiet   Mode = "quiet"
	ModeJSON    Mode = "json"
	ModeNDJSON  Mode = "ndjson"
	ModeTUI     Mode = "tui"
)

// ParseMode validates a mode name.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case ModeVerbose, ModeQuiet, ModeJSON, ModeNDJSON, ModeTUI:
		return m, nil
	case "":
		return ModeVerbose, nil
	}
	return "", fmt.Errorf("unknown output mode %q (want verbose, quiet, json, ndjson or tui)", s)
}

// Sink is a dispatch.Sink that can also report a run-level error and flush
// whatever it buffered.
type Sink interface {
	dispatch.Sink
	// Error reports a failure that ended the run.
	Error(err error)
	// Close writes any final output.
	Close() error
}

// Options configures a text or JSON sink.
type Options struct {
	Out io.Writer
	Err io.Writer
	// Interactive adds operator guidance to countdowns.
	Interactive bool
}

// New returns the sink for mode. ModeTUI is rendered by internal/tui and is
// not handled here.
func New(mode Mode, opts Options) (Sink, error) {
	switch mode {
	case ModeVerbose, "":
		return &Verbose{out: opts.Out, errOut: opts.Err, interactive: opts.Interactive}, nil
	case ModeQuiet:
		return &Quiet{out: opts.Out, errOut: opts.Err}, nil
	case ModeJSON:
		return &JSON{enc: newEncoder(opts.Out)}, nil
	case ModeNDJSON:
		return &NDJSON{enc: newEncoder(opts.Out)}, nil
	}
	return nil, fmt.Errorf("output mode %q has no stream sink", mode)
}

func newEncoder(w io.Writer) *json.Encoder {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return enc
}

// ErrorType classifies err for machine-readable output.
func ErrorType(err error) string {
	var inputErr *dispatch.InputError
	var runErr *dispatch.RunError
	switch {
	case errors.Is(err, dispatch.ErrInterrupted):
		return "Interrupted"
	case errors.As(err, &inputErr):
		return "InputError"
	case errors.As(err, &runErr):
		return "RunError"
	}
	return "UnexpectedError"
}

// NDJSON writes every event as one JSON object per line.
type NDJSON struct {
	enc *json.Encoder
}

func (s *NDJSON) Emit(e dispatch.Event) {
	_ = s.enc.Encode(e)
}

func (s *NDJSON) Error(err error) {
	_ = s.enc.Encode(map[string]interface{}{
		"type":       "error",
		"error_type": ErrorType(err),
		"message":    err.Error(),
	})
}

func (s *NDJSON) Close() error { return nil }

// JSON writes a single summary object when the run ends.
type JSON struct {
	enc    *json.Encoder
	result *dispatch.Result
	failed bool
}

func (s *JSON) Emit(e dispatch.Event) {
	if e.Type != dispatch.TypeResult {
		return
	}
	s.result = &dispatch.Result{
		Total:  e.Int("total"),
		Sent:   e.Int("sent"),
		Failed: e.Int("failed"),
	}
}

func (s *JSON) Error(err error) {
	s.failed = true
	_ = s.enc.Encode(map[string]interface{}{
		"status": "error",
		"total":  0,
		"sent":   0,
		"failed": 0,
		"error":  err.Error(),
	})
}

// Close writes {"status":"ok",...} for a completed run. Nothing is written
// after Error.
func (s *JSON) Close() error {
	if s.failed || s.result == nil {
		return nil
	}
	return s.enc.Encode(map[string]interface{}{
		"status": "ok",
		"total":  s.result.Total,
		"sent":   s.result.Sent,
		"failed": s.result.Failed,
	})
}

// Quiet prints only the loaded count and the final summary.
type Quiet struct {
	out    io.Writer
	errOut io.Writer
}

func (s *Quiet) Emit(e dispatch.Event) {
	switch e.Type {
	case dispatch.TypeLoaded:
		fmt.Fprintf(s.out, "Loaded %d prompts\n", e.Int("total"))
	case dispatch.TypeResult:
		fmt.Fprintf(s.out, "Completed: %d/%d successful, %d failed\n",
			e.Int("sent"), e.Int("total"), e.Int("failed"))
	}
}

func (s *Quiet) Error(err error) {
	fmt.Fprintf(s.errOut, "Error: %v\n", err)
}

func (s *Quiet) Close() error { return nil }
