package cmd

import (
	"errors"
	"fmt"

	"github.com/steveyegge/autoprompter/internal/dispatch"
)

// Exit codes of `ap run`.
const (
	ExitOK         = 0
	ExitInputError = 2
	ExitRunError   = 3
)

// SilentExitError signals that the command should exit with a specific code
// without printing an error message. Run failures are already reported by
// the output sink, so only the code is left to convey.
type SilentExitError struct {
	Code int
}

func (e *SilentExitError) Error() string {
	return fmt.Sprintf("exit %d", e.Code)
}

// NewSilentExit creates a SilentExitError with the given exit code.
func NewSilentExit(code int) *SilentExitError {
	return &SilentExitError{Code: code}
}

// IsSilentExit checks if an error is a SilentExitError and returns its code.
// Returns 0 and false if err is nil or not a SilentExitError.
func IsSilentExit(err error) (int, bool) {
	if err == nil {
		return 0, false
	}
	var se *SilentExitError
	if errors.As(err, &se) {
		return se.Code, true
	}
	return 0, false
}

// exitCode maps the outcome of a run to the process exit code.
func exitCode(res dispatch.Result, err error) int {
	var inputErr *dispatch.InputError
	switch {
	case err == nil && res.AllFailed():
		return ExitRunError
	case err == nil:
		return ExitOK
	case errors.As(err, &inputErr):
		return ExitInputError
	default:
		return ExitRunError
	}
}

// exitError turns a run outcome into the error RunE returns.
func exitError(res dispatch.Result, err error) error {
	if code := exitCode(res, err); code != ExitOK {
		return NewSilentExit(code)
	}
	return nil
}
