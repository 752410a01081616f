package runlog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{"INFO", LevelInfo, false},
		{"", LevelInfo, false},
		{"warn", LevelWarning, false},
		{"Warning", LevelWarning, false},
		{"error", LevelError, false},
		{"CRITICAL", LevelCritical, false},
		{"verbose", LevelInfo, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLevel(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestFormatLine(t *testing.T) {
	ts := time.Date(2026, 10, 16, 15, 30, 45, 0, time.UTC)
	got := formatLine(ts, LevelWarning, "1b4e28ba-2fa1-11d2-883f-0016d3cca427", "first\nsecond")
	want := `2026-10-16 15:30:45 [WARNING] [run 1b4e28ba] first\nsecond`
	if got != want {
		t.Errorf("formatLine = %q, want %q", got, want)
	}
}

func TestLoggerFiltersByLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "run.log")
	l := New(path, LevelInfo)

	l.Debugf("hidden %d", 1)
	l.Infof("loaded %d prompts", 3)
	l.Errorf("failed: %s", "boom")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading log: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2:\n%s", len(lines), data)
	}
	if !strings.Contains(lines[0], "[INFO]") || !strings.HasSuffix(lines[0], "loaded 3 prompts") {
		t.Errorf("line 0 = %q", lines[0])
	}
	if !strings.Contains(lines[1], "[ERROR]") {
		t.Errorf("line 1 = %q", lines[1])
	}
	if !strings.Contains(lines[0], "[run "+l.RunID()[:8]+"]") {
		t.Errorf("line 0 missing run id: %q", lines[0])
	}
}

func TestLoggerWithoutPathDiscards(t *testing.T) {
	l := New("", LevelDebug)
	if l.Enabled(LevelCritical) {
		t.Error("logger without a path should be disabled")
	}
	l.Criticalf("nothing happens")
}

func TestRunIDsDiffer(t *testing.T) {
	if New("", LevelInfo).RunID() == New("", LevelInfo).RunID() {
		t.Error("two loggers share a run id")
	}
}
