package cmd

import (
	"testing"
	"time"

	"github.com/spf13/pflag"
)

// resetRunFlags restores every run flag to its default and clears Changed.
func resetRunFlags(t *testing.T) {
	t.Helper()
	reset := func() {
		runCmd.Flags().VisitAll(func(f *pflag.Flag) {
			_ = f.Value.Set(f.DefValue)
			f.Changed = false
		})
		configPath = ""
	}
	reset()
	t.Cleanup(reset)
}

func setFlags(t *testing.T, kv ...string) {
	t.Helper()
	for i := 0; i < len(kv); i += 2 {
		if err := runCmd.Flags().Set(kv[i], kv[i+1]); err != nil {
			t.Fatalf("set --%s: %v", kv[i], err)
		}
	}
}

func TestResolveRunConfigPrecedence(t *testing.T) {
	resetRunFlags(t)
	t.Setenv("AP_HOME", t.TempDir())
	t.Setenv("AP_CSV", "env.csv")
	t.Setenv("AP_RETRY", "1")
	t.Setenv("AP_WAIT", "30")

	setFlags(t, "retry", "3", "short-sleep", "100ms", "quiet", "true")

	cfg, err := resolveRunConfig(runCmd)
	if err != nil {
		t.Fatalf("resolveRunConfig: %v", err)
	}
	if cfg.CSV != "env.csv" {
		t.Errorf("csv = %q, want the env value", cfg.CSV)
	}
	if cfg.Retry != 3 {
		t.Errorf("retry = %d, want the flag value", cfg.Retry)
	}
	if cfg.Wait != 30*time.Second {
		t.Errorf("wait = %v, want the env value", cfg.Wait)
	}
	if cfg.ShortSleep != 100*time.Millisecond || cfg.LongSleep != time.Second {
		t.Errorf("sleeps = %v/%v", cfg.ShortSleep, cfg.LongSleep)
	}
	if cfg.OutputMode != "quiet" {
		t.Errorf("mode = %q", cfg.OutputMode)
	}
}

func TestResolveRunConfigErrors(t *testing.T) {
	tests := []struct {
		name  string
		flags []string
	}{
		{"missing csv", nil},
		{"two output modes", []string{"csv", "p.csv", "json", "true", "ndjson", "true"}},
		{"zero wait", []string{"csv", "p.csv", "wait", "0"}},
		{"negative retry", []string{"csv", "p.csv", "retry", "-1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetRunFlags(t)
			t.Setenv("AP_HOME", t.TempDir())
			t.Setenv("AP_CSV", "")
			setFlags(t, tt.flags...)
			if _, err := resolveRunConfig(runCmd); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestResolveRunConfigNoHistory(t *testing.T) {
	resetRunFlags(t)
	t.Setenv("AP_HOME", t.TempDir())
	setFlags(t, "csv", "p.csv", "no-history", "true", "csv-mode", "true")

	cfg, err := resolveRunConfig(runCmd)
	if err != nil {
		t.Fatalf("resolveRunConfig: %v", err)
	}
	if cfg.History {
		t.Error("--no-history should disable history")
	}
	if !cfg.UseRowOverrides {
		t.Error("--csv-mode should enable row overrides")
	}
}

func TestResolveRunConfigOpen(t *testing.T) {
	tests := []struct {
		name  string
		env   string
		flags []string
		want  bool
	}{
		{"default", "", nil, false},
		{"env", "1", nil, true},
		{"flag", "", []string{"open", "true"}, true},
		{"flag beats env", "1", []string{"open", "false"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetRunFlags(t)
			t.Setenv("AP_HOME", t.TempDir())
			t.Setenv("AP_OPEN", tt.env)
			setFlags(t, append([]string{"csv", "p.csv"}, tt.flags...)...)

			cfg, err := resolveRunConfig(runCmd)
			if err != nil {
				t.Fatalf("resolveRunConfig: %v", err)
			}
			if cfg.OpenBrowser != tt.want {
				t.Errorf("OpenBrowser = %v, want %v", cfg.OpenBrowser, tt.want)
			}
		})
	}
}
