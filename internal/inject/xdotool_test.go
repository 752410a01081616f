package inject

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"testing"
	"time"
)

type call struct {
	name string
	args []string
}

func (c call) String() string {
	return c.name + " " + strings.Join(c.args, " ")
}

// scriptedRunner answers commands by their first argument.
type scriptedRunner struct {
	calls   []call
	answers map[string][]string
	errs    map[string]error
}

func (r *scriptedRunner) run(_ context.Context, name string, args ...string) (string, error) {
	r.calls = append(r.calls, call{name: name, args: args})
	verb := ""
	if len(args) > 0 {
		verb = args[0]
	}
	if err := r.errs[verb]; err != nil {
		return "", err
	}
	queue := r.answers[verb]
	if len(queue) == 0 {
		return "", nil
	}
	out := queue[0]
	if len(queue) > 1 {
		r.answers[verb] = queue[1:]
	}
	return out, nil
}

func newTestInjector(r *scriptedRunner) *Xdotool {
	if r.answers == nil {
		r.answers = map[string][]string{}
	}
	return &Xdotool{
		run:       r.run,
		writeClip: func(string) error { return nil },
		sleep:     func(time.Duration) {},
		timeout:   time.Second,
	}
}

func TestArgumentVectors(t *testing.T) {
	tests := []struct {
		name string
		do   func(x *Xdotool) error
		want string
	}{
		{"click", func(x *Xdotool) error { return x.Click(640, 900) }, "xdotool mousemove --sync 640 900 click 1"},
		{"select all", func(x *Xdotool) error { return x.PressKeyChord("ctrl", "a") }, "xdotool key --clearmodifiers ctrl+a"},
		{"submit", func(x *Xdotool) error { return x.PressKeyChord("Return") }, "xdotool key --clearmodifiers Return"},
		{"foreground", func(x *Xdotool) error { _, err := x.ForegroundWindow(); return err }, "xdotool getactivewindow"},
		{"pointer", func(x *Xdotool) error { _, _, err := x.PointerPosition(); return err }, "xdotool getmouselocation --shell"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &scriptedRunner{answers: map[string][]string{
				"getmouselocation": {"X=1\nY=2\nSCREEN=0\nWINDOW=77"},
			}}
			if err := tt.do(newTestInjector(r)); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(r.calls) != 1 || r.calls[0].String() != tt.want {
				t.Errorf("calls = %v, want [%s]", r.calls, tt.want)
			}
		})
	}
}

func TestActivateWindowVerifiesFocus(t *testing.T) {
	tests := []struct {
		name         string
		active       []string
		wantOK       bool
		wantActivate int
	}{
		{"first try", []string{"42"}, true, 1},
		{"after refusal", []string{"7", "7", "42"}, true, 3},
		{"never", []string{"7"}, false, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &scriptedRunner{answers: map[string][]string{"getactivewindow": tt.active}}
			ok, err := newTestInjector(r).ActivateWindow("42")
			if err != nil {
				t.Fatalf("ActivateWindow: %v", err)
			}
			if ok != tt.wantOK {
				t.Errorf("ok = %v, want %v", ok, tt.wantOK)
			}
			n := 0
			for _, c := range r.calls {
				if c.args[0] == "windowactivate" {
					n++
					if c.String() != "xdotool windowactivate --sync 42" {
						t.Errorf("activate call = %s", c)
					}
				}
			}
			if n != tt.wantActivate {
				t.Errorf("windowactivate calls = %d, want %d", n, tt.wantActivate)
			}
		})
	}
}

func TestActivateWindowReportsCommandFailure(t *testing.T) {
	r := &scriptedRunner{errs: map[string]error{"windowactivate": errors.New("BadWindow")}}
	ok, err := newTestInjector(r).ActivateWindow("42")
	if ok || err == nil {
		t.Fatalf("ActivateWindow = %v, %v; want false and an error", ok, err)
	}
	if !strings.Contains(err.Error(), "BadWindow") {
		t.Errorf("err = %v", err)
	}
}

func TestMissingBinary(t *testing.T) {
	r := &scriptedRunner{errs: map[string]error{
		"getactivewindow": fmt.Errorf("xdotool getactivewindow: %w", exec.ErrNotFound),
	}}
	_, err := newTestInjector(r).ForegroundWindow()
	if !errors.Is(err, ErrNotInstalled) {
		t.Errorf("err = %v, want ErrNotInstalled", err)
	}
}

func TestParseMouseLocation(t *testing.T) {
	tests := []struct {
		out     string
		x, y    int
		wantErr bool
	}{
		{"X=640\nY=900\nSCREEN=0\nWINDOW=1234", 640, 900, false},
		{" X=0 \n Y=15 ", 0, 15, false},
		{"X=12", 0, 0, true},
		{"X=abc\nY=1", 0, 0, true},
		{"", 0, 0, true},
	}
	for _, tt := range tests {
		x, y, err := parseMouseLocation(tt.out)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseMouseLocation(%q) err = %v, wantErr %v", tt.out, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && (x != tt.x || y != tt.y) {
			t.Errorf("parseMouseLocation(%q) = (%d, %d), want (%d, %d)", tt.out, x, y, tt.x, tt.y)
		}
	}
}

func TestWindowTitle(t *testing.T) {
	r := &scriptedRunner{answers: map[string][]string{"getwindowname": {"ChatGPT - Chromium"}}}
	x := newTestInjector(r)
	if got := x.WindowTitle("42"); got != "ChatGPT - Chromium" {
		t.Errorf("WindowTitle = %q", got)
	}

	r2 := &scriptedRunner{}
	if got := newTestInjector(r2).WindowTitle("42"); got != "<no title> (window 42)" {
		t.Errorf("WindowTitle of untitled window = %q", got)
	}
	if got := x.WindowTitle(""); got != "<invalid window>" {
		t.Errorf("WindowTitle(\"\") = %q", got)
	}
}

func TestCopyToClipboard(t *testing.T) {
	var got string
	x := newTestInjector(&scriptedRunner{})
	x.writeClip = func(s string) error { got = s; return nil }
	if err := x.CopyToClipboard("hello\nworld"); err != nil {
		t.Fatal(err)
	}
	if got != "hello\nworld" {
		t.Errorf("clipboard = %q", got)
	}

	x.writeClip = func(string) error { return errors.New("no xclip") }
	if err := x.CopyToClipboard("x"); err == nil {
		t.Error("expected clipboard error")
	}
}
