package util

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// CommandError describes an external command that could not run or exited
// non-zero. It unwraps to the underlying exec error, so
// errors.Is(err, exec.ErrNotFound) still works.
type CommandError struct {
	Name     string
	Args     []string
	Stderr   string
	TimedOut bool
	Err      error
}

func (e *CommandError) Error() string {
	cmdline := strings.TrimSpace(e.Name + " " + strings.Join(e.Args, " "))
	switch {
	case e.TimedOut:
		return fmt.Sprintf("%s: timed out", cmdline)
	case e.Stderr != "":
		return fmt.Sprintf("%s: %s", cmdline, e.Stderr)
	}
	return fmt.Sprintf("%s: %v", cmdline, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// ExitCode returns the command's exit status, or -1 if it never ran to
// completion.
func (e *CommandError) ExitCode() int {
	var exitErr *exec.ExitError
	if errors.As(e.Err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}

// ExecWithOutput runs a command and returns its trimmed stdout. Failures are
// returned as *CommandError carrying the trimmed stderr.
func ExecWithOutput(ctx context.Context, name string, args ...string) (string, error) {
	c := exec.CommandContext(ctx, name, args...) //nolint:gosec // G204: callers pass fixed tool names

	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr

	if err := c.Run(); err != nil {
		return "", &CommandError{
			Name:     name,
			Args:     args,
			Stderr:   strings.TrimSpace(stderr.String()),
			TimedOut: errors.Is(ctx.Err(), context.DeadlineExceeded),
			Err:      err,
		}
	}

	return strings.TrimSpace(stdout.String()), nil
}
