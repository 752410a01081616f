// Package dispatch runs a work list through simulated input, one item at a
// time, reporting every step as an Event.
//
// A run moves through fixed phases:
//
//	initialization -> window_search -> coordinate_setup -> processing_prep ->
//	processing -> generation_wait (after each sent item but the last) -> final_wait
//
// The engine runs on the caller's goroutine and blocks on every input call
// and sleep. Cancellation of ctx is only observed before each item and at
// each countdown or wait tick, so a stop request takes effect within one
// tick: at most 1s during countdowns and 10s during waits. An item that is
// mid-send is always finished first.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/steveyegge/autoprompter/internal/worklist"
)

// Defaults for Options fields left at zero.
const (
	DefaultWait       = 60 * time.Second
	DefaultShortSleep = 300 * time.Millisecond
	DefaultLongSleep  = time.Second

	countdownTicks = 5
	dryRunDelay    = 500 * time.Millisecond
)

// dryRunTarget is the placeholder coordinate used when no input is injected.
var dryRunTarget = InjectionTarget{X: 100, Y: 200}

// Key chords used to replace the input field's contents and submit it.
var (
	ChordSelectAll = []string{"ctrl", "a"}
	ChordPaste     = []string{"ctrl", "v"}
	ChordSubmit    = []string{"Return"}
)

// Options configures a run.
type Options struct {
	CSVPath string

	// Wait is how long to let the chat application generate after a send.
	Wait time.Duration
	// Retry is the number of extra attempts per item after the first.
	Retry int
	// MaxItems limits the run to the first N pending items (0 = all).
	MaxItems int
	// DryRun skips window search, coordinate capture and all input.
	DryRun bool

	UseRowOverrides bool
	Prefix          string
	Suffix          string

	// ShortSleep settles light interactions (click, select-all, copy, submit).
	ShortSleep time.Duration
	// LongSleep settles heavy ones (window activation, paste).
	LongSleep time.Duration
}

func (o Options) withDefaults() Options {
	if o.Wait <= 0 {
		o.Wait = DefaultWait
	}
	if o.ShortSleep <= 0 {
		o.ShortSleep = DefaultShortSleep
	}
	if o.LongSleep <= 0 {
		o.LongSleep = DefaultLongSleep
	}
	if o.Retry < 0 {
		o.Retry = 0
	}
	return o
}

// Deps are the collaborators of an Engine. Nil fields get defaults, except
// Injector which is required unless Options.DryRun is set.
type Deps struct {
	Injector Injector
	Store    Store
	Clock    Clock
	Logger   Logger
}

// Engine executes one dispatch run. An Engine is not reusable concurrently;
// a run can only be restarted by calling Run again from the beginning.
type Engine struct {
	opts  Options
	inj   Injector
	store Store
	clock Clock
	log   Logger

	sink     Sink
	target   InjectionTarget
	previous WindowHandle
}

// New creates an Engine.
func New(opts Options, deps Deps) *Engine {
	e := &Engine{
		opts:  opts.withDefaults(),
		inj:   deps.Injector,
		store: deps.Store,
		clock: deps.Clock,
		log:   deps.Logger,
	}
	if e.store == nil {
		e.store = FileStore{}
	}
	if e.clock == nil {
		e.clock = realClock{}
	}
	if e.log == nil {
		e.log = nopLogger{}
	}
	return e
}

// Target returns the injection target captured by the last run.
func (e *Engine) Target() InjectionTarget {
	return e.target
}

// Run executes the whole lifecycle, emitting events to sink, and returns the
// counts. On an error the Result holds the counts reached so far.
//
// Errors: *InputError before any input is injected, *RunError when no target
// window can be found or captured, and an error wrapping ErrInterrupted when
// ctx is cancelled. Per-item failures are not errors; they are counted in
// Result.Failed and reported with an "error" event.
func (e *Engine) Run(ctx context.Context, sink Sink) (Result, error) {
	if sink == nil {
		sink = SinkFunc(func(Event) {})
	}
	e.sink = sink
	e.target = InjectionTarget{}
	e.previous = ""

	var res Result

	if !e.opts.DryRun && e.inj == nil {
		return res, runErr(string(PhaseWindowSearch), errors.New("no input injector configured"))
	}

	// Phase 1: load the work list.
	e.emit(PhaseEvent(PhaseInitialization))
	items, err := e.load()
	if err != nil {
		return res, err
	}
	res.Total = len(items)

	// Phase 2: make sure there is a window to talk to.
	e.emit(PhaseEvent(PhaseWindowSearch))
	if err := e.findWindow(); err != nil {
		return res, err
	}

	// Phase 3: capture the pointer position and the window under it.
	e.emit(PhaseEvent(PhaseCoordinate))
	if err := e.captureTarget(ctx); err != nil {
		return res, err
	}

	// Phase 4: give the operator a moment before input starts.
	e.emit(PhaseEvent(PhaseProcessingPrep))
	if !e.opts.DryRun {
		if err := e.countdown(ctx, PhaseProcessingPrep, "starting automatic processing"); err != nil {
			return res, err
		}
	} else {
		e.log.Infof("dry-run: skipping processing countdown")
	}

	// Phase 5: send every item.
	e.emit(PhaseEvent(PhaseProcessing))
	for i, item := range items {
		index := i + 1
		if err := checkCancel(ctx); err != nil {
			return res, err
		}

		e.emit(withPrompt(ProgressEvent(StepStart, index, res.Total), item.Text, e.opts.DryRun))

		if !e.sendWithRetry(item, index, res.Total) {
			res.Failed++
			continue
		}
		res.Sent++

		if e.opts.DryRun {
			continue
		}
		e.markDone(item)

		if index < res.Total {
			e.emit(PhaseEvent(PhaseGenerationWait))
			e.restorePrevious()
			if err := e.wait(ctx, index+1, res.Total, false); err != nil {
				return res, err
			}
		}
	}

	// Let the last generation finish before the process goes away.
	if res.Sent > 0 && !e.opts.DryRun {
		e.emit(PhaseEvent(PhaseFinalWait))
		e.restorePrevious()
		if err := e.wait(ctx, 0, res.Total, true); err != nil {
			return res, err
		}
	}

	e.log.Infof("processing completed: %d/%d sent, %d failed", res.Sent, res.Total, res.Failed)
	e.emit(ResultEvent(res))
	return res, nil
}

func (e *Engine) emit(ev Event) {
	e.sink.Emit(ev)
}

func (e *Engine) load() ([]worklist.Item, error) {
	mode := "defaults"
	if e.opts.UseRowOverrides {
		mode = "row overrides"
	}
	e.log.Infof("loading prompts from %s (prefix/suffix: %s)", e.opts.CSVPath, mode)

	items, report, err := e.store.Load(e.opts.CSVPath, worklist.LoadOptions{
		UseRowOverrides: e.opts.UseRowOverrides,
		DefaultPrefix:   e.opts.Prefix,
		DefaultSuffix:   e.opts.Suffix,
	})
	if err != nil {
		e.log.Errorf("loading work list: %v", err)
		return nil, &InputError{Err: err}
	}
	if report.Downgraded {
		e.log.Warnf("row overrides requested but %s has no prefix or suffix column (columns: %v); using defaults",
			e.opts.CSVPath, report.Columns)
	}
	e.log.Infof("loaded %d prompts (encoding %s, %d rows skipped)", len(items), report.Encoding, report.Skipped)

	if e.opts.MaxItems > 0 && len(items) > e.opts.MaxItems {
		e.log.Infof("limiting prompts from %d to %d", len(items), e.opts.MaxItems)
		items = items[:e.opts.MaxItems]
	}

	e.emit(LoadedEvent(len(items), e.opts.CSVPath, e.opts.DryRun, e.opts.MaxItems, report.Downgraded))
	return items, nil
}

func (e *Engine) findWindow() error {
	if e.opts.DryRun {
		e.log.Infof("dry-run: skipping window search")
		e.emit(WindowFoundEvent("[DRY-RUN] simulated chat window", true))
		return nil
	}

	h, err := e.inj.ForegroundWindow()
	if err != nil {
		e.log.Errorf("window search failed: %v", err)
		return runErr(string(PhaseWindowSearch), err)
	}
	if h == "" {
		return runErr(string(PhaseWindowSearch), errors.New("no foreground window; open the chat application in a browser"))
	}
	e.emit(WindowFoundEvent(e.inj.WindowTitle(h), false))
	return nil
}

func (e *Engine) captureTarget(ctx context.Context) error {
	if e.opts.DryRun {
		e.log.Infof("dry-run: skipping coordinate setup")
		e.target = dryRunTarget
		e.emit(CoordinateEvent(e.target, "", true))
		return nil
	}

	if err := e.countdown(ctx, PhaseCoordinate, "place the mouse cursor over the chat input field"); err != nil {
		return err
	}

	// The window under the pointer is the one later activations target, so
	// both are sampled together.
	x, y, err := e.inj.PointerPosition()
	if err != nil {
		return runErr(string(PhaseCoordinate), fmt.Errorf("reading pointer position: %w", err))
	}
	h, err := e.inj.ForegroundWindow()
	if err != nil {
		return runErr(string(PhaseCoordinate), fmt.Errorf("reading foreground window: %w", err))
	}
	e.target = InjectionTarget{X: x, Y: y, Window: h}

	title := e.inj.WindowTitle(h)
	e.log.Infof("target window captured: %q (handle %s) at (%d, %d)", title, h, x, y)
	e.emit(CoordinateEvent(e.target, title, false))
	return nil
}

func (e *Engine) countdown(ctx context.Context, phase Phase, message string) error {
	for left := countdownTicks; left > 0; left-- {
		if err := checkCancel(ctx); err != nil {
			return err
		}
		e.emit(CountdownEvent(left, phase, message))
		e.clock.Sleep(time.Second)
	}
	return nil
}

// sendWithRetry makes up to Retry+1 attempts and reports whether one succeeded.
func (e *Engine) sendWithRetry(item worklist.Item, index, total int) bool {
	maxAttempts := e.opts.Retry + 1
	var lastErr *RunError

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			e.log.Infof("retry attempt %d/%d for prompt %d", attempt-1, e.opts.Retry, index)
			e.emit(RetryEvent(attempt-1, e.opts.Retry, index, total))
		}

		var err *RunError
		if e.opts.DryRun {
			err = e.simulate(index, total)
		} else {
			err = e.send(item, index, total)
		}
		if err == nil {
			return true
		}
		lastErr = err
		e.log.Warnf("prompt %d attempt %d failed: %v", index, attempt, err)
	}

	e.log.Errorf("prompt %d failed after %d attempts: %v", index, maxAttempts, lastErr)
	e.emit(ErrorEvent(lastErr.Step, index, total, lastErr.Err, maxAttempts, e.opts.Retry))
	return false
}

func (e *Engine) simulate(index, total int) *RunError {
	e.log.Debugf("dry-run: simulating prompt %d", index)
	e.emit(ProgressEvent(StepSimulate, index, total))
	e.clock.Sleep(dryRunDelay)
	return nil
}

// send performs one attempt: activate, click, select all, copy, paste, submit.
func (e *Engine) send(item worklist.Item, index, total int) *RunError {
	if prev, err := e.inj.ForegroundWindow(); err == nil && prev != e.target.Window {
		e.previous = prev
	}

	ok, err := e.inj.ActivateWindow(e.target.Window)
	if err != nil {
		return runErr(StepActivate, err)
	}
	if !ok {
		return runErr(StepActivate, fmt.Errorf("failed to activate window %s", e.target.Window))
	}
	e.emit(ProgressEvent(StepActivate, index, total))
	e.clock.Sleep(e.opts.LongSleep)

	if err := e.inj.Click(e.target.X, e.target.Y); err != nil {
		return runErr(StepClick, err)
	}
	e.clock.Sleep(e.opts.ShortSleep)
	e.emit(ClickEvent(index, total, e.target.X, e.target.Y))

	if err := e.inj.PressKeyChord(ChordSelectAll...); err != nil {
		return runErr(StepSelectAll, err)
	}
	e.clock.Sleep(e.opts.ShortSleep)
	e.emit(ProgressEvent(StepSelectAll, index, total))

	if err := e.inj.CopyToClipboard(item.Payload()); err != nil {
		return runErr(StepCopy, err)
	}
	e.clock.Sleep(e.opts.ShortSleep)
	e.emit(ProgressEvent(StepCopy, index, total))

	if err := e.inj.PressKeyChord(ChordPaste...); err != nil {
		return runErr(StepPaste, err)
	}
	e.clock.Sleep(e.opts.LongSleep)
	e.emit(ProgressEvent(StepPaste, index, total))

	if err := e.inj.PressKeyChord(ChordSubmit...); err != nil {
		return runErr(StepSend, err)
	}
	e.clock.Sleep(e.opts.ShortSleep)
	e.emit(ProgressEvent(StepSend, index, total))
	return nil
}

func (e *Engine) markDone(item worklist.Item) {
	ok, err := e.store.MarkDone(e.opts.CSVPath, item.Text)
	switch {
	case err != nil:
		e.log.Errorf("failed to mark prompt done in %s: %v", e.opts.CSVPath, err)
	case !ok:
		e.log.Warnf("prompt not found in work list for update: %q", truncate(item.Text, 50))
	default:
		e.log.Infof("marked prompt row %d as done", item.Row)
		e.emit(CSVUpdatedEvent(truncate(item.Text, 30)))
	}
}

// restorePrevious gives focus back to whatever the operator was using.
func (e *Engine) restorePrevious() {
	if e.previous == "" || e.previous == e.target.Window {
		return
	}
	if _, err := e.inj.ActivateWindow(e.previous); err != nil {
		e.log.Debugf("restoring window %s: %v", e.previous, err)
	}
}

// wait counts e.opts.Wait down in ticks of at most waitSlice. The last tick
// sleeps only the remainder, so fractional waits are honored exactly.
func (e *Engine) wait(ctx context.Context, nextIndex, total int, final bool) error {
	for remaining := e.opts.Wait; remaining > 0; {
		if err := checkCancel(ctx); err != nil {
			return err
		}
		e.emit(WaitEvent(secondsLeft(remaining), nextIndex, total, final))

		step := min(remaining, waitSlice)
		e.clock.Sleep(step)
		remaining -= step
	}
	return nil
}

// secondsLeft rounds up, so a wait with time left never reports 0.
func secondsLeft(d time.Duration) int {
	return int((d + time.Second - 1) / time.Second)
}

func checkCancel(ctx context.Context) error {
	if ctx.Err() == nil {
		return nil
	}
	return fmt.Errorf("%w: %v", ErrInterrupted, context.Cause(ctx))
}

func withPrompt(ev Event, text string, dryRun bool) Event {
	ev.Fields["prompt"] = truncate(text, 50)
	if dryRun {
		ev.Fields["dry_run"] = true
	}
	return ev
}

// truncate shortens s to max runes with an ellipsis.
func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	r := []rune(s)
	return string(r[:max]) + "..."
}
