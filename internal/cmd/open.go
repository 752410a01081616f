package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/steveyegge/autoprompter/internal/config"
	"github.com/steveyegge/autoprompter/internal/style"
)

var (
	openURL           string
	openProfileDir    string
	openPauseForLogin bool
)

var openCmd = &cobra.Command{
	Use:     "open",
	GroupID: GroupDispatch,
	Short:   "Open the chat app in a browser",
	Long: `Open the chat web application in a Chromium window.

The browser keeps running after ap exits. With --profile-dir the login
survives between sessions.

Examples:
  ap open
  ap open --profile-dir ~/.autoprompter/profile --pause-for-login
  ap open --url http://localhost:3000`,
	Args: cobra.NoArgs,
	RunE: runOpenCmd,
}

func init() {
	openCmd.Flags().StringVar(&openURL, "url", config.DefaultURL, "Chat app URL")
	openCmd.Flags().StringVar(&openProfileDir, "profile-dir", "", "Browser profile dir")
	openCmd.Flags().BoolVar(&openPauseForLogin, "pause-for-login", false, "Wait for Enter so you can log in")
	rootCmd.AddCommand(openCmd)
}

func runOpenCmd(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return &usageError{err: err}
	}
	f := cmd.Flags()
	if f.Changed("url") {
		cfg.URL = openURL
	}
	if f.Changed("profile-dir") {
		cfg.ProfileDir = openProfileDir
	}
	if f.Changed("pause-for-login") {
		cfg.PauseForLogin = openPauseForLogin
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := openChat(ctx, cfg, os.Stdout); err != nil {
		return fmt.Errorf("opening chat app: %w", err)
	}
	style.FprintStep(os.Stdout, "Hover the chat input box when 'ap run' counts down")
	return nil
}
