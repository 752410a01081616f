// Package inject simulates user input on an X11 desktop by driving xdotool.
package inject

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/atotto/clipboard"

	"github.com/steveyegge/autoprompter/internal/dispatch"
	"github.com/steveyegge/autoprompter/internal/util"
)

// ErrNotInstalled is returned when the xdotool binary is not on PATH.
var ErrNotInstalled = errors.New("xdotool not found on PATH (install xdotool)")

// activateAttempts bounds how many times ActivateWindow tries to take focus.
const activateAttempts = 3

// Runner executes a command and returns its trimmed stdout.
type Runner func(ctx context.Context, name string, args ...string) (string, error)

// Xdotool implements dispatch.Injector with the xdotool command-line tool.
type Xdotool struct {
	run       Runner
	writeClip func(string) error
	sleep     func(time.Duration)
	timeout   time.Duration
}

var _ dispatch.Injector = (*Xdotool)(nil)

// NewXdotool returns an injector that shells out to xdotool and writes the
// system clipboard.
func NewXdotool() *Xdotool {
	return &Xdotool{
		run:       util.ExecWithOutput,
		writeClip: clipboard.WriteAll,
		sleep:     time.Sleep,
		timeout:   5 * time.Second,
	}
}

func (x *Xdotool) xdotool(args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), x.timeout)
	defer cancel()
	out, err := x.run(ctx, "xdotool", args...)
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return "", ErrNotInstalled
		}
		return "", err
	}
	return out, nil
}

// ForegroundWindow implements dispatch.Injector.
func (x *Xdotool) ForegroundWindow() (dispatch.WindowHandle, error) {
	out, err := x.xdotool("getactivewindow")
	if err != nil {
		return "", fmt.Errorf("getting active window: %w", err)
	}
	return dispatch.WindowHandle(out), nil
}

// WindowTitle implements dispatch.Injector.
func (x *Xdotool) WindowTitle(h dispatch.WindowHandle) string {
	if h == "" {
		return "<invalid window>"
	}
	title, err := x.xdotool("getwindowname", string(h))
	if err != nil {
		return fmt.Sprintf("<error getting title: %v>", err)
	}
	if title == "" {
		return fmt.Sprintf("<no title> (window %s)", h)
	}
	return title
}

// ActivateWindow raises h and checks that it really took focus, trying a few
// times because window managers may refuse focus stealing.
func (x *Xdotool) ActivateWindow(h dispatch.WindowHandle) (bool, error) {
	if h == "" {
		return false, errors.New("no target window captured")
	}

	var lastErr error
	for attempt := 1; attempt <= activateAttempts; attempt++ {
		if _, err := x.xdotool("windowactivate", "--sync", string(h)); err != nil {
			lastErr = err
			x.sleep(100 * time.Millisecond)
			continue
		}
		active, err := x.ForegroundWindow()
		if err != nil {
			lastErr = err
			continue
		}
		if active == h {
			return true, nil
		}
		x.sleep(100 * time.Millisecond)
	}
	if lastErr != nil {
		return false, fmt.Errorf("activating window %s: %w", h, lastErr)
	}
	return false, nil
}

// PointerPosition implements dispatch.Injector.
func (x *Xdotool) PointerPosition() (int, int, error) {
	out, err := x.xdotool("getmouselocation", "--shell")
	if err != nil {
		return 0, 0, fmt.Errorf("getting mouse location: %w", err)
	}
	return parseMouseLocation(out)
}

// parseMouseLocation reads the X= and Y= lines of `getmouselocation --shell`.
func parseMouseLocation(out string) (int, int, error) {
	var px, py int
	var haveX, haveY bool
	for _, line := range strings.Split(out, "\n") {
		key, val, ok := strings.Cut(strings.TrimSpace(line), "=")
		if !ok {
			continue
		}
		n, err := strconv.Atoi(val)
		switch key {
		case "X":
			if err != nil {
				return 0, 0, fmt.Errorf("parsing X %q: %w", val, err)
			}
			px, haveX = n, true
		case "Y":
			if err != nil {
				return 0, 0, fmt.Errorf("parsing Y %q: %w", val, err)
			}
			py, haveY = n, true
		}
	}
	if !haveX || !haveY {
		return 0, 0, fmt.Errorf("unexpected getmouselocation output: %q", out)
	}
	return px, py, nil
}

// Click implements dispatch.Injector.
func (x *Xdotool) Click(px, py int) error {
	_, err := x.xdotool("mousemove", "--sync", strconv.Itoa(px), strconv.Itoa(py), "click", "1")
	if err != nil {
		return fmt.Errorf("clicking at (%d, %d): %w", px, py, err)
	}
	return nil
}

// CopyToClipboard implements dispatch.Injector.
func (x *Xdotool) CopyToClipboard(text string) error {
	if err := x.writeClip(text); err != nil {
		return fmt.Errorf("writing clipboard: %w", err)
	}
	return nil
}

// PressKeyChord implements dispatch.Injector.
func (x *Xdotool) PressKeyChord(keys ...string) error {
	if len(keys) == 0 {
		return errors.New("empty key chord")
	}
	chord := strings.Join(keys, "+")
	if _, err := x.xdotool("key", "--clearmodifiers", chord); err != nil {
		return fmt.Errorf("pressing %s: %w", chord, err)
	}
	return nil
}
