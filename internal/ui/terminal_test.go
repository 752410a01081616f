package ui

import (
	"strings"
	"testing"
)

func TestIsTerminal(t *testing.T) {
	// Only checks that detection does not panic; the answer depends on the runner.
	_ = IsTerminal()
	_ = IsInputTerminal()
}

func TestColorEnabled(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		tty  bool
		want bool
	}{
		{"tty default", nil, true, true},
		{"pipe default", nil, false, false},
		{"NO_COLOR beats force", map[string]string{"NO_COLOR": "", "CLICOLOR_FORCE": "1"}, true, false},
		{"CLICOLOR=0", map[string]string{"CLICOLOR": "0"}, true, false},
		{"CLICOLOR_FORCE in a pipe", map[string]string{"CLICOLOR_FORCE": "1"}, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lookup := func(key string) (string, bool) {
				v, ok := tt.env[key]
				return v, ok
			}
			if got := colorEnabled(lookup, tt.tty); got != tt.want {
				t.Errorf("colorEnabled() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestResolveThemeMode(t *testing.T) {
	tests := []struct {
		name   string
		env    string
		config string
		want   ThemeMode
	}{
		{"env overrides config", "dark", "light", ThemeModeDark},
		{"env case insensitive", "LIGHT", "dark", ThemeModeLight},
		{"invalid env falls back to config", "purple", "light", ThemeModeLight},
		{"config used without env", "", "dark", ThemeModeDark},
		{"default auto", "", "", ThemeModeAuto},
		{"invalid config", "", "neon", ThemeModeAuto},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := resolveThemeMode(tt.env, tt.config); got != tt.want {
				t.Errorf("resolveThemeMode(%q, %q) = %s, want %s", tt.env, tt.config, got, tt.want)
			}
		})
	}
}

func TestInitTheme_ForcedModes(t *testing.T) {
	t.Setenv("AP_THEME", "dark")
	InitTheme("")
	if themeMode != ThemeModeDark || !HasDarkBackground() {
		t.Errorf("dark mode: mode=%s dark=%v", themeMode, HasDarkBackground())
	}

	t.Setenv("AP_THEME", "")
	InitTheme("light")
	if themeMode != ThemeModeLight || HasDarkBackground() {
		t.Errorf("light mode: mode=%s dark=%v", themeMode, HasDarkBackground())
	}
}

func TestRenderHelpers(t *testing.T) {
	renders := map[string]func(string) string{
		"pass":   RenderPass,
		"warn":   RenderWarn,
		"fail":   RenderFail,
		"muted":  RenderMuted,
		"accent": RenderAccent,
		"bold":   RenderBold,
	}
	for name, render := range renders {
		if out := render("text"); !strings.Contains(out, "text") {
			t.Errorf("Render %s lost its text: %q", name, out)
		}
	}
	if got := RenderCategory("phase"); !strings.Contains(got, "PHASE") {
		t.Errorf("RenderCategory = %q, want uppercase", got)
	}
	if got := RenderSeparator(); !strings.Contains(got, strings.Repeat("─", separatorWidth)) {
		t.Errorf("RenderSeparator = %q", got)
	}
}
