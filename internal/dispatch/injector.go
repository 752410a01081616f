package dispatch

import (
	"time"

	"github.com/steveyegge/autoprompter/internal/worklist"
)

// WindowHandle identifies a top-level window. Its format belongs to the
// Injector that produced it.
type WindowHandle string

// InjectionTarget is the screen point and window captured for a run.
type InjectionTarget struct {
	X      int
	Y      int
	Window WindowHandle
}

// Injector simulates user input. Implementations bind to the OS.
type Injector interface {
	// ForegroundWindow returns the window that currently has focus.
	ForegroundWindow() (WindowHandle, error)
	// WindowTitle returns a display title for h, or a placeholder.
	WindowTitle(h WindowHandle) string
	// ActivateWindow raises and focuses h, reporting whether h ended up focused.
	ActivateWindow(h WindowHandle) (bool, error)
	// PointerPosition returns the current mouse position.
	PointerPosition() (x, y int, err error)
	// Click moves to (x, y) and clicks the left button.
	Click(x, y int) error
	// CopyToClipboard replaces the shared clipboard contents.
	CopyToClipboard(text string) error
	// PressKeyChord presses the keys together and releases them, e.g. ("ctrl", "v").
	PressKeyChord(keys ...string) error
}

// Clock sleeps. Tests substitute a clock that records instead of blocking.
type Clock interface {
	Sleep(d time.Duration)
}

type realClock struct{}

func (realClock) Sleep(d time.Duration) { time.Sleep(d) }

// Store is the persistence the engine needs from a work list.
type Store interface {
	Load(path string, opts worklist.LoadOptions) ([]worklist.Item, worklist.LoadReport, error)
	MarkDone(path, text string) (bool, error)
}

// FileStore is the Store backed by CSV files on disk.
type FileStore struct{}

// Load implements Store.
func (FileStore) Load(path string, opts worklist.LoadOptions) ([]worklist.Item, worklist.LoadReport, error) {
	return worklist.Load(path, opts)
}

// MarkDone implements Store.
func (FileStore) MarkDone(path, text string) (bool, error) {
	return worklist.MarkDone(path, text)
}

// Logger receives leveled diagnostic text. It is separate from the event
// stream: events drive the presentation, log lines go to the log file.
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

type nopLogger struct{}

func (nopLogger) Debugf(string, ...interface{}) {}
func (nopLogger) Infof(string, ...interface{})  {}
func (nopLogger) Warnf(string, ...interface{})  {}
func (nopLogger) Errorf(string, ...interface{}) {}
