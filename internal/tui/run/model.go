// Package run provides a TUI that follows a dispatch run and can stop it.
package run

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/steveyegge/autoprompter/internal/dispatch"
)

// maxLogLines bounds the event log kept in memory.
const maxLogLines = 500

// Done is the outcome of the engine, delivered once Run returns.
type Done struct {
	Result dispatch.Result
	Err    error
}

// Outcome hands the engine's Done to every reader. Set is called once; Wait
// blocks until then.
type Outcome struct {
	ready chan struct{}
	done  Done
}

// NewOutcome creates an Outcome that has not been set.
func NewOutcome() *Outcome {
	return &Outcome{ready: make(chan struct{})}
}

// Set records the outcome and releases all waiters.
func (o *Outcome) Set(d Done) {
	o.done = d
	close(o.ready)
}

// Wait blocks until Set has been called and returns the outcome.
func (o *Outcome) Wait() Done {
	<-o.ready
	return o.done
}

// ChannelSink forwards engine events to the TUI. Emit blocks while the
// buffer is full, which only slows the engine down.
type ChannelSink struct {
	ch        chan dispatch.Event
	closeOnce sync.Once
}

// NewChannelSink creates a sink with a buffer of size events.
func NewChannelSink(size int) *ChannelSink {
	return &ChannelSink{ch: make(chan dispatch.Event, size)}
}

// Emit implements dispatch.Sink.
func (s *ChannelSink) Emit(e dispatch.Event) {
	s.ch <- e
}

// Close signals that no more events will be emitted.
func (s *ChannelSink) Close() {
	s.closeOnce.Do(func() { close(s.ch) })
}

// Events returns the receive side of the sink.
func (s *ChannelSink) Events() <-chan dispatch.Event {
	return s.ch
}

// logLine is one rendered entry of the event log.
type logLine struct {
	at    time.Time
	level string // info, ok, warn, fail
	text  string
}

// Model is the bubbletea model for a dispatch run.
type Model struct {
	width  int
	height int

	// Run state
	csvPath   string
	dryRun    bool
	phase     string
	total     int
	index     int
	step      string
	prompt    string
	sent      int
	failed    int
	countdown int
	waitLeft  int
	finalWait bool
	target    string

	log      []logLine
	viewport viewport.Model
	progress progress.Model
	spinner  spinner.Model

	keys     KeyMap
	help     help.Model
	showHelp bool

	// Lifecycle
	events   <-chan dispatch.Event
	outcome  *Outcome
	stop     func()
	stopping bool
	finished bool
	result   dispatch.Result
	err      error
}

// NewModel creates a model that reads events until the channel closes, then
// waits for the run outcome. stop cancels the run.
func NewModel(events <-chan dispatch.Event, outcome *Outcome, stop func()) *Model {
	h := help.New()
	h.ShowAll = false

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = spinnerStyle

	return &Model{
		events:   events,
		outcome:  outcome,
		stop:     stop,
		viewport: viewport.New(0, 0),
		progress: progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
		spinner:  sp,
		keys:     DefaultKeyMap(),
		help:     h,
	}
}

// Result returns the final counts once the run has finished.
func (m *Model) Result() dispatch.Result {
	return m.result
}

// Finished reports whether the run outcome has arrived.
func (m *Model) Finished() bool {
	return m.finished
}

// Err returns the error the run ended with, if any.
func (m *Model) Err() error {
	return m.err
}

// Init initializes the model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		m.listen(),
		m.spinner.Tick,
		tea.SetWindowTitle("ap run"),
	)
}

type eventMsg dispatch.Event

type doneMsg Done

// listen waits for the next engine event, or for the outcome once the event
// channel has been closed.
func (m *Model) listen() tea.Cmd {
	events, outcome := m.events, m.outcome
	return func() tea.Msg {
		if events != nil {
			if e, ok := <-events; ok {
				return eventMsg(e)
			}
		}
		if outcome == nil {
			return nil
		}
		return doneMsg(outcome.Wait())
	}
}

// Update handles messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateSizes()

	case eventMsg:
		m.apply(dispatch.Event(msg))
		cmds = append(cmds, m.listen())

	case doneMsg:
		m.finish(Done(msg))
		if m.stopping {
			return m, tea.Quit
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Stop):
		if m.finished {
			return m, tea.Quit
		}
		if !m.stopping {
			m.stopping = true
			m.addLog("warn", "stop requested; finishing the current step")
			if m.stop != nil {
				m.stop()
			}
		}
		return m, nil

	case key.Matches(msg, m.keys.Quit):
		if m.finished {
			return m, tea.Quit
		}
		return m, nil

	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		m.help.ShowAll = m.showHelp
		m.updateSizes()
		return m, nil
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// apply folds one engine event into the model.
func (m *Model) apply(e dispatch.Event) {
	switch e.Type {
	case dispatch.TypePhase:
		m.phase = e.Str("name")
		m.countdown = 0
		if m.phase != string(dispatch.PhaseGenerationWait) && m.phase != string(dispatch.PhaseFinalWait) {
			m.waitLeft = 0
		}
		m.addLog("info", "phase: "+m.phase)

	case dispatch.TypeLoaded:
		m.total = e.Int("total")
		m.csvPath = e.Str("csv_path")
		m.dryRun = e.Bool("dry_run")
		m.addLog("ok", fmt.Sprintf("loaded %d prompts from %s", m.total, m.csvPath))
		if e.Bool("overrides_downgraded") {
			m.addLog("warn", "no prefix/suffix columns; using defaults")
		}

	case dispatch.TypeWindowFound:
		m.addLog("ok", "chat window: "+e.Str("title"))

	case dispatch.TypeCountdown:
		m.countdown = e.Int("seconds_left")

	case dispatch.TypeCoordinate:
		m.countdown = 0
		m.target = fmt.Sprintf("(%d, %d)", e.Int("x"), e.Int("y"))
		m.addLog("ok", "input position "+m.target)

	case dispatch.TypeProgress:
		m.index = e.Int("index")
		m.step = e.Str("step")
		m.waitLeft = 0
		if m.step == dispatch.StepStart {
			m.prompt = e.Str("prompt")
			m.addLog("info", fmt.Sprintf("prompt %d/%d: %s", m.index, e.Int("total"), m.prompt))
		}
		if m.step == dispatch.StepSend || m.step == dispatch.StepSimulate {
			m.sent++
		}

	case dispatch.TypeRetry:
		m.addLog("warn", fmt.Sprintf("retry %d/%d for prompt %d", e.Int("attempt"), e.Int("max_retry"), e.Int("index")))

	case dispatch.TypeCSVUpdated:
		m.addLog("ok", fmt.Sprintf("marked done: %s", e.Str("marked_done")))

	case dispatch.TypeWait:
		m.waitLeft = e.Int("seconds_left")
		m.finalWait = e.Bool("final")

	case dispatch.TypeError:
		m.failed++
		m.addLog("fail", fmt.Sprintf("prompt %d failed at %s: %s", e.Int("index"), e.Str("step"), e.Str("error")))

	case dispatch.TypeResult:
		m.sent = e.Int("sent")
		m.failed = e.Int("failed")
		m.total = e.Int("total")
	}
}

func (m *Model) finish(d Done) {
	m.finished = true
	m.result = d.Result
	m.err = d.Err
	m.waitLeft = 0
	m.countdown = 0

	switch {
	case d.Err == nil:
		m.addLog("ok", fmt.Sprintf("completed: %d/%d sent, %d failed", d.Result.Sent, d.Result.Total, d.Result.Failed))
	case errors.Is(d.Err, dispatch.ErrInterrupted):
		m.addLog("warn", "stopped by user")
	default:
		m.addLog("fail", d.Err.Error())
	}
}

func (m *Model) addLog(level, text string) {
	m.log = append(m.log, logLine{at: time.Now(), level: level, text: text})
	if len(m.log) > maxLogLines {
		m.log = m.log[len(m.log)-maxLogLines:]
	}
	m.viewport.SetContent(m.renderLog())
	m.viewport.GotoBottom()
}

// fraction returns the share of items that have been handled.
func (m *Model) fraction() float64 {
	if m.total == 0 {
		return 0
	}
	f := float64(m.sent+m.failed) / float64(m.total)
	if f > 1 {
		f = 1
	}
	return f
}

func (m *Model) updateSizes() {
	// header (3) + status block (4) + borders (2) + help
	helpHeight := 1
	if m.showHelp {
		helpHeight = 4
	}
	h := m.height - 9 - helpHeight
	if h < 3 {
		h = 3
	}
	w := m.width - 4
	if w < 20 {
		w = 20
	}
	m.viewport.Width = w
	m.viewport.Height = h
	m.progress.Width = w
	m.viewport.SetContent(m.renderLog())
}
