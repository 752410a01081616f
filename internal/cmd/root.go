// Package cmd implements the ap command line.
package cmd

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/steveyegge/autoprompter/internal/style"
)

// Command groups shown in help.
const (
	GroupDispatch = "dispatch"
	GroupTools    = "tools"
	GroupDiag     = "diag"
)

// configPath is the --config flag shared by every command.
var configPath string

var rootCmd = &cobra.Command{
	Use:   "ap",
	Short: "Paste a CSV work list into a chat app, one prompt at a time",
	Long: `ap drives a chat web application through the OS input layer.

It reads prompts from a CSV file, pastes each one into the chat input,
submits it, waits for the reply to generate, and marks the row done.

Start with 'ap open' to launch the chat app, then 'ap run --csv FILE'.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// usageError marks errors in how ap was invoked.
type usageError struct {
	err error
}

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

func init() {
	rootCmd.AddGroup(
		&cobra.Group{ID: GroupDispatch, Title: "Dispatch:"},
		&cobra.Group{ID: GroupTools, Title: "Tools:"},
		&cobra.Group{ID: GroupDiag, Title: "Diagnostics:"},
	)
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"Config file (TOML, or YAML by extension; default $AP_HOME/config.toml)")
	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &usageError{err: err}
	})
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	err := rootCmd.Execute()
	if err == nil {
		return ExitOK
	}
	if code, ok := IsSilentExit(err); ok {
		return code
	}

	style.FprintError(os.Stderr, "%v", err)
	var ue *usageError
	if errors.As(err, &ue) {
		return ExitInputError
	}
	return 1
}
