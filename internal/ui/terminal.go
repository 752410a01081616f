package ui

import (
	"os"
	"strings"

	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// ThemeMode is the CLI color scheme: auto, dark or light.
type ThemeMode string

const (
	ThemeModeAuto  ThemeMode = "auto"
	ThemeModeDark  ThemeMode = "dark"
	ThemeModeLight ThemeMode = "light"
)

var (
	themeMode         = ThemeModeAuto
	hasDarkBackground = true
)

// InitTheme picks the color scheme and applies it to lipgloss. AP_THEME
// wins over configTheme (the output.theme setting); an unknown value in
// either is ignored, and with neither set the terminal background decides.
func InitTheme(configTheme string) {
	themeMode = resolveThemeMode(os.Getenv("AP_THEME"), configTheme)
	switch themeMode {
	case ThemeModeDark:
		hasDarkBackground = true
	case ThemeModeLight:
		hasDarkBackground = false
	default:
		hasDarkBackground = termenv.HasDarkBackground()
	}
	applyThemeMode()
}

// HasDarkBackground reports whether output is drawn on a dark background.
func HasDarkBackground() bool {
	return hasDarkBackground
}

func resolveThemeMode(env, configTheme string) ThemeMode {
	for _, candidate := range []string{env, configTheme} {
		switch mode := ThemeMode(strings.ToLower(strings.TrimSpace(candidate))); mode {
		case ThemeModeAuto, ThemeModeDark, ThemeModeLight:
			return mode
		}
	}
	return ThemeModeAuto
}

// IsTerminal reports whether stdout is a TTY.
func IsTerminal() bool {
	return isTTY(os.Stdout)
}

// IsInputTerminal reports whether stdin is a TTY, which the login pause needs.
func IsInputTerminal() bool {
	return isTTY(os.Stdin)
}

func isTTY(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// ShouldUseColor reports whether ANSI colors should be written, following
// the NO_COLOR, CLICOLOR and CLICOLOR_FORCE conventions.
func ShouldUseColor() bool {
	return colorEnabled(os.LookupEnv, IsTerminal())
}

func colorEnabled(lookup func(string) (string, bool), tty bool) bool {
	if _, ok := lookup("NO_COLOR"); ok {
		return false
	}
	if v, _ := lookup("CLICOLOR"); v == "0" {
		return false
	}
	if _, ok := lookup("CLICOLOR_FORCE"); ok {
		return true
	}
	return tty
}
