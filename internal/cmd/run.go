package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/steveyegge/autoprompter/internal/browser"
	"github.com/steveyegge/autoprompter/internal/config"
	"github.com/steveyegge/autoprompter/internal/dispatch"
	"github.com/steveyegge/autoprompter/internal/history"
	"github.com/steveyegge/autoprompter/internal/inject"
	"github.com/steveyegge/autoprompter/internal/runlog"
	"github.com/steveyegge/autoprompter/internal/sink"
	"github.com/steveyegge/autoprompter/internal/style"
	"github.com/steveyegge/autoprompter/internal/tui/run"
	"github.com/steveyegge/autoprompter/internal/ui"
)

var (
	runCSV           string
	runWait          int
	runRetry         int
	runMaxItems      int
	runPrefix        string
	runSuffix        string
	runCSVMode       bool
	runShortSleep    time.Duration
	runLongSleep     time.Duration
	runDryRun        bool
	runJSON          bool
	runNDJSON        bool
	runQuiet         bool
	runVerbose       bool
	runTUI           bool
	runInteractive   bool
	runLogFile       string
	runLogLevel      string
	runOpen          bool
	runURL           string
	runProfileDir    string
	runPauseForLogin bool
	runNoHistory     bool
)

var runCmd = &cobra.Command{
	Use:     "run",
	GroupID: GroupDispatch,
	Short:   "Send every pending prompt of a CSV work list",
	Long: `Send every pending prompt of a CSV work list to the chat window.

Before input starts, ap counts down so you can hover the mouse over the chat
input box; the pointer position and the window under it become the target.
Each prompt is pasted and submitted, then ap waits --wait seconds for the
reply before the next one. Sent prompts are marked done=1 in the CSV.

Settings are resolved as flag > AP_* environment > config file > default.

Exit codes:
  0  every prompt was sent, or some were
  2  input error (missing or unreadable CSV, bad flags or config)
  3  run error, interruption, or every prompt failed

Examples:
  ap run --csv prompts.csv
  ap run --csv prompts.csv --wait 90 --retry 2
  ap run --csv prompts.csv --dry-run --ndjson
  ap run --csv prompts.csv --tui`,
	RunE: runRun,
}

func init() {
	f := runCmd.Flags()
	f.StringVar(&runCSV, "csv", "", "CSV work list with a prompt column (required)")
	f.IntVar(&runWait, "wait", 60, "Seconds to wait for each reply")
	f.IntVar(&runRetry, "retry", 0, "Extra attempts per prompt after a failure")
	f.IntVar(&runMaxItems, "max-items", 0, "Send at most this many prompts (0 = all)")
	f.StringVar(&runPrefix, "prefix", "", "Text added before every prompt")
	f.StringVar(&runSuffix, "suffix", "", "Text added after every prompt")
	f.BoolVar(&runCSVMode, "csv-mode", false, "Use per-row prefix/suffix columns")
	f.DurationVar(&runShortSleep, "short-sleep", 300*time.Millisecond, "Pause after quick input steps")
	f.DurationVar(&runLongSleep, "long-sleep", time.Second, "Pause after focus and paste")
	f.BoolVar(&runDryRun, "dry-run", false, "Simulate the run without touching input or the CSV")

	f.BoolVar(&runJSON, "json", false, "Print one JSON summary at the end")
	f.BoolVar(&runNDJSON, "ndjson", false, "Print every event as a JSON line")
	f.BoolVar(&runQuiet, "quiet", false, "Print only the load count and the summary")
	f.BoolVar(&runVerbose, "verbose", false, "Print every event as styled text (default)")
	f.BoolVar(&runTUI, "tui", false, "Follow the run in a terminal UI with a stop key")
	f.BoolVar(&runInteractive, "interactive", false, "Add operator guidance to countdowns")

	f.StringVar(&runLogFile, "log-file", "", "Append a log of the run to this file")
	f.StringVar(&runLogLevel, "log-level", "INFO", "Log level: DEBUG, INFO, WARNING, ERROR, CRITICAL")

	f.BoolVar(&runOpen, "open", false, "Open the chat app in a browser first")
	f.StringVar(&runURL, "url", config.DefaultURL, "Chat app URL for --open")
	f.StringVar(&runProfileDir, "profile-dir", "", "Browser profile dir for --open")
	f.BoolVar(&runPauseForLogin, "pause-for-login", false, "Wait for Enter after --open so you can log in")
	f.BoolVar(&runNoHistory, "no-history", false, "Do not record the run in the history database")

	rootCmd.AddCommand(runCmd)
}

// outputModeFromFlags returns the mode selected by the output flags, or ""
// if none was given.
func outputModeFromFlags() (sink.Mode, error) {
	var modes []sink.Mode
	for _, opt := range []struct {
		set  bool
		mode sink.Mode
	}{
		{runJSON, sink.ModeJSON},
		{runNDJSON, sink.ModeNDJSON},
		{runQuiet, sink.ModeQuiet},
		{runVerbose, sink.ModeVerbose},
		{runTUI, sink.ModeTUI},
	} {
		if opt.set {
			modes = append(modes, opt.mode)
		}
	}
	switch len(modes) {
	case 0:
		return "", nil
	case 1:
		return modes[0], nil
	}
	return "", fmt.Errorf("only one of --json, --ndjson, --quiet, --verbose, --tui may be given")
}

// resolveRunConfig layers explicitly set flags over the loaded config.
func resolveRunConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	f := cmd.Flags()
	if f.Changed("csv") {
		cfg.CSV = runCSV
	}
	if f.Changed("wait") {
		cfg.Wait = time.Duration(runWait) * time.Second
	}
	if f.Changed("retry") {
		cfg.Retry = runRetry
	}
	if f.Changed("max-items") {
		cfg.MaxItems = runMaxItems
	}
	if f.Changed("prefix") {
		cfg.Prefix = runPrefix
	}
	if f.Changed("suffix") {
		cfg.Suffix = runSuffix
	}
	if f.Changed("csv-mode") {
		cfg.UseRowOverrides = runCSVMode
	}
	if f.Changed("short-sleep") {
		cfg.ShortSleep = runShortSleep
	}
	if f.Changed("long-sleep") {
		cfg.LongSleep = runLongSleep
	}
	if f.Changed("dry-run") {
		cfg.DryRun = runDryRun
	}
	if f.Changed("interactive") {
		cfg.Interactive = runInteractive
	}
	if f.Changed("log-file") {
		cfg.LogFile = runLogFile
	}
	if f.Changed("log-level") {
		cfg.LogLevel = runLogLevel
	}
	if f.Changed("url") {
		cfg.URL = runURL
	}
	if f.Changed("profile-dir") {
		cfg.ProfileDir = runProfileDir
	}
	if f.Changed("pause-for-login") {
		cfg.PauseForLogin = runPauseForLogin
	}
	if f.Changed("open") {
		cfg.OpenBrowser = runOpen
	}
	if f.Changed("no-history") {
		cfg.History = !runNoHistory
	}

	mode, err := outputModeFromFlags()
	if err != nil {
		return nil, err
	}
	if mode != "" {
		cfg.OutputMode = string(mode)
	}
	if _, err := sink.ParseMode(cfg.OutputMode); err != nil {
		return nil, err
	}

	if cfg.CSV == "" {
		return nil, errors.New("--csv is required (or set AP_CSV / chatgpt.csv in the config file)")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := resolveRunConfig(cmd)
	if err != nil {
		reportSetupError(err)
		return NewSilentExit(ExitInputError)
	}
	mode, _ := sink.ParseMode(cfg.OutputMode)

	ui.InitTheme(cfg.Theme)

	level, err := runlog.ParseLevel(cfg.LogLevel)
	if err != nil {
		reportSetupError(err)
		return NewSilentExit(ExitInputError)
	}
	logger := runlog.New(cfg.LogFile, level)
	logger.Infof("ap run: csv=%s wait=%s retry=%d max_items=%d dry_run=%v mode=%s",
		cfg.CSV, cfg.Wait, cfg.Retry, cfg.MaxItems, cfg.DryRun, mode)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.OpenBrowser {
		if err := openChat(ctx, cfg, os.Stderr); err != nil {
			logger.Errorf("opening chat app: %v", err)
			style.FprintError(os.Stderr, "%v", err)
			return NewSilentExit(ExitRunError)
		}
	}

	rec, closeHistory := openRecorder(cfg, logger)
	defer closeHistory()

	var injector dispatch.Injector
	if !cfg.DryRun {
		injector = inject.NewXdotool()
	}
	engine := dispatch.New(dispatch.Options{
		CSVPath:         cfg.CSV,
		Wait:            cfg.Wait,
		Retry:           cfg.Retry,
		MaxItems:        cfg.MaxItems,
		DryRun:          cfg.DryRun,
		UseRowOverrides: cfg.UseRowOverrides,
		Prefix:          cfg.Prefix,
		Suffix:          cfg.Suffix,
		ShortSleep:      cfg.ShortSleep,
		LongSleep:       cfg.LongSleep,
	}, dispatch.Deps{
		Injector: injector,
		Store:    dispatch.FileStore{},
		Logger:   logger,
	})

	var res dispatch.Result
	if mode == sink.ModeTUI {
		res, err = runWithTUI(ctx, engine, rec)
	} else {
		res, err = runWithSink(ctx, engine, rec, mode, cfg.Interactive)
	}

	if err != nil {
		logger.Errorf("run ended: %v", err)
		if rec != nil {
			rec.Fail(res, err)
		}
	}
	if rec != nil && rec.Err() != nil {
		logger.Warnf("history: %v", rec.Err())
	}
	return exitError(res, err)
}

// reportSetupError prints a pre-run error in the format the output flags ask
// for, so machine consumers still get a parseable error.
func reportSetupError(err error) {
	inputErr := &dispatch.InputError{Err: err}
	mode, modeErr := outputModeFromFlags()
	if modeErr != nil || mode == sink.ModeTUI {
		mode = sink.ModeVerbose
	}
	s, sinkErr := sink.New(mode, sink.Options{Out: os.Stdout, Err: os.Stderr})
	if sinkErr != nil {
		style.FprintError(os.Stderr, "%v", inputErr)
		return
	}
	s.Error(inputErr)
	_ = s.Close()
}

func runWithSink(ctx context.Context, engine *dispatch.Engine, rec *history.Recorder, mode sink.Mode, interactive bool) (dispatch.Result, error) {
	out, err := sink.New(mode, sink.Options{Out: os.Stdout, Err: os.Stderr, Interactive: interactive})
	if err != nil {
		return dispatch.Result{}, &dispatch.InputError{Err: err}
	}

	sinks := []dispatch.Sink{out}
	if rec != nil {
		sinks = append(sinks, rec)
	}
	res, runErr := engine.Run(ctx, dispatch.MultiSink(sinks...))
	if runErr != nil {
		out.Error(runErr)
	}
	if err := out.Close(); err != nil && runErr == nil {
		style.FprintError(os.Stderr, "writing output: %v", err)
	}
	return res, runErr
}

// runWithTUI runs the engine in its own goroutine and follows it with the
// bubbletea view. The Stop key cancels the run's context.
func runWithTUI(parent context.Context, engine *dispatch.Engine, rec *history.Recorder) (dispatch.Result, error) {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	events := run.NewChannelSink(64)
	outcome := run.NewOutcome()

	sinks := []dispatch.Sink{events}
	if rec != nil {
		sinks = append(sinks, rec)
	}
	go func() {
		res, err := engine.Run(ctx, dispatch.MultiSink(sinks...))
		events.Close()
		outcome.Set(run.Done{Result: res, Err: err})
	}()

	m := run.NewModel(events.Events(), outcome, cancel)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(parent))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		style.FprintError(os.Stderr, "terminal UI: %v", err)
	}

	res, err := m.Result(), m.Err()
	if !m.Finished() {
		// The UI went away before the engine did; stop it and collect its outcome.
		cancel()
		go func() {
			for range events.Events() {
			}
		}()
		d := outcome.Wait()
		res, err = d.Result, d.Err
	}

	printSummary(os.Stdout, res, err)
	return res, err
}

func printSummary(w io.Writer, res dispatch.Result, err error) {
	switch {
	case errors.Is(err, dispatch.ErrInterrupted):
		fmt.Fprintf(w, "%s Stopped: %d/%d sent, %d failed\n", style.WarningPrefix, res.Sent, res.Total, res.Failed)
	case err != nil:
		style.FprintError(w, "%v", err)
	default:
		style.FprintSuccess(w, "Completed: %d/%d successful, %d failed", res.Sent, res.Total, res.Failed)
	}
}

// openRecorder opens the history database. History is best effort: if it
// cannot be opened the run goes ahead without it.
func openRecorder(cfg *config.Config, logger *runlog.Logger) (*history.Recorder, func()) {
	if !cfg.History {
		return nil, func() {}
	}
	db, err := history.Open(cfg.HistoryPath)
	if err != nil {
		logger.Warnf("history disabled: %v", err)
		style.FprintWarning(os.Stderr, "run history disabled: %v", err)
		return nil, func() {}
	}
	return history.NewRecorder(db, logger.RunID()), func() { db.Close() }
}

// openChat launches the browser and optionally waits for the user to log in.
func openChat(ctx context.Context, cfg *config.Config, w io.Writer) error {
	title, err := browser.Open(ctx, browser.Options{URL: cfg.URL, ProfileDir: cfg.ProfileDir})
	if err != nil {
		return err
	}
	style.FprintSuccess(w, "Opened %s (%s)", cfg.URL, title)

	if !cfg.PauseForLogin {
		return nil
	}
	if !ui.IsInputTerminal() {
		style.FprintWarning(w, "stdin is not a terminal; not pausing for login")
		return nil
	}
	fmt.Fprintf(w, "%s Log in if needed, then press Enter to continue...", style.ArrowPrefix)
	if _, err := bufio.NewReader(os.Stdin).ReadString('\n'); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("waiting for login: %w", err)
	}
	return nil
}
