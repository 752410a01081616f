// Package runlog writes leveled diagnostic lines for a dispatch run to a file.
//
// Standard output belongs to the event sinks, so the log never goes there.
// Without a log file the logger discards everything.
package runlog

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Level is a log severity.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarning
	LevelError
	LevelCritical
)

var levelNames = map[Level]string{
	LevelDebug:    "DEBUG",
	LevelInfo:     "INFO",
	LevelWarning:  "WARNING",
	LevelError:    "ERROR",
	LevelCritical: "CRITICAL",
}

func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return fmt.Sprintf("LEVEL(%d)", int(l))
}

// ParseLevel parses a level name case-insensitively. "WARN" is accepted.
func ParseLevel(s string) (Level, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return LevelDebug, nil
	case "", "INFO":
		return LevelInfo, nil
	case "WARN", "WARNING":
		return LevelWarning, nil
	case "ERROR":
		return LevelError, nil
	case "CRITICAL":
		return LevelCritical, nil
	}
	return LevelInfo, fmt.Errorf("unknown log level %q (want DEBUG, INFO, WARNING, ERROR or CRITICAL)", s)
}

// Logger appends lines to a run log file. It is safe for concurrent use.
type Logger struct {
	path  string
	level Level
	runID string
	now   func() time.Time
	mu    sync.Mutex
}

// New creates a Logger that writes lines at or above level to path with a
// fresh run id. An empty path yields a logger that discards everything.
func New(path string, level Level) *Logger {
	return &Logger{
		path:  path,
		level: level,
		runID: uuid.NewString(),
		now:   time.Now,
	}
}

// RunID returns the id stamped on every line of this run.
func (l *Logger) RunID() string {
	return l.runID
}

// Enabled reports whether lines at level would be written.
func (l *Logger) Enabled(level Level) bool {
	return l.path != "" && level >= l.level
}

// Log writes one line. Write failures are reported on stderr once per call
// and otherwise ignored; logging must never abort a run.
func (l *Logger) Log(level Level, format string, args ...interface{}) {
	if !l.Enabled(level) {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.write(formatLine(l.now(), level, l.runID, fmt.Sprintf(format, args...))); err != nil {
		fmt.Fprintf(os.Stderr, "runlog: %v\n", err)
	}
}

func (l *Logger) write(line string) error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return fmt.Errorf("creating log directory: %w", err)
	}

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(line + "\n"); err != nil {
		return fmt.Errorf("writing log line: %w", err)
	}
	return nil
}

func (l *Logger) Debugf(format string, args ...interface{}) { l.Log(LevelDebug, format, args...) }
func (l *Logger) Infof(format string, args ...interface{})  { l.Log(LevelInfo, format, args...) }
func (l *Logger) Warnf(format string, args ...interface{})  { l.Log(LevelWarning, format, args...) }
func (l *Logger) Errorf(format string, args ...interface{}) { l.Log(LevelError, format, args...) }

func (l *Logger) Criticalf(format string, args ...interface{}) {
	l.Log(LevelCritical, format, args...)
}

// formatLine renders a log line.
// Format: 2026-10-16 15:30:45 [INFO] [run 1b4e28ba] loaded 3 prompts
func formatLine(ts time.Time, level Level, runID, msg string) string {
	short := runID
	if len(short) > 8 {
		short = short[:8]
	}
	// Keep one entry per line even when a prompt contains newlines.
	msg = strings.ReplaceAll(msg, "\n", `\n`)
	return fmt.Sprintf("%s [%s] [run %s] %s", ts.Format("2006-01-02 15:04:05"), level, short, msg)
}
