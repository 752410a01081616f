package cmd

import (
	"bytes"
	"strings"
	"testing"
)

func TestRootRegistersCommands(t *testing.T) {
	want := map[string]string{
		"run":     GroupDispatch,
		"open":    GroupDispatch,
		"pack":    GroupTools,
		"history": GroupDiag,
		"version": GroupDiag,
	}
	for _, c := range rootCmd.Commands() {
		group, ok := want[c.Name()]
		if !ok {
			continue
		}
		if c.GroupID != group {
			t.Errorf("%s is in group %q, want %q", c.Name(), c.GroupID, group)
		}
		delete(want, c.Name())
	}
	for name := range want {
		t.Errorf("command %q is not registered", name)
	}
}

func TestColorizeHelpKeepsText(t *testing.T) {
	help := "Dispatch:\n  run         Send every pending prompt\n\nFlags:\n      --wait int   Seconds to wait (default 60)\n"
	got := stripANSI(colorizeHelpOutput(help))
	if got != help {
		t.Errorf("colorizing changed the text:\n%q\nwant\n%q", got, help)
	}
}

func TestHelpOutput(t *testing.T) {
	var buf bytes.Buffer
	runCmd.SetOut(&buf)
	defer runCmd.SetOut(nil)

	colorizedHelpFunc(runCmd, nil)
	out := stripANSI(buf.String())
	for _, want := range []string{"--csv", "--dry-run", "Exit codes:", "ap run --csv prompts.csv"} {
		if !strings.Contains(out, want) {
			t.Errorf("help output missing %q", want)
		}
	}
}

func stripANSI(s string) string {
	var b strings.Builder
	inEscape := false
	for i := 0; i < len(s); i++ {
		switch {
		case s[i] == '\x1b':
			inEscape = true
		case inEscape:
			if s[i] == 'm' {
				inEscape = false
			}
		default:
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

func TestVersionString(t *testing.T) {
	tests := []struct {
		commit string
		want   string
	}{
		{"", "ap version " + Version + " (" + Build + ")"},
		{"abc123", "ap version " + Version + " (" + Build + ": abc123)"},
		{"0123456789abcdef0123", "ap version " + Version + " (" + Build + ": 0123456789ab)"},
	}
	for _, tt := range tests {
		if got := versionString(tt.commit); got != tt.want {
			t.Errorf("versionString(%q) = %q, want %q", tt.commit, got, tt.want)
		}
	}
}
