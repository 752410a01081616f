package browser

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/go-rod/rod/lib/launcher/flags"
)

func TestWithDefaults(t *testing.T) {
	t.Setenv("HOME", "/home/tester")

	tests := []struct {
		name        string
		in          Options
		wantURL     string
		wantProfile string
	}{
		{"empty", Options{}, DefaultURL, ""},
		{"custom url", Options{URL: "http://localhost:3000"}, "http://localhost:3000", ""},
		{"tilde profile", Options{ProfileDir: "~/.ap-profile"}, DefaultURL, filepath.Join("/home/tester", ".ap-profile")},
		{"absolute profile", Options{ProfileDir: "/tmp/profile"}, DefaultURL, "/tmp/profile"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.in.withDefaults()
			if err != nil {
				t.Fatalf("withDefaults: %v", err)
			}
			if got.URL != tt.wantURL || got.ProfileDir != tt.wantProfile {
				t.Errorf("got url=%q profile=%q, want %q %q", got.URL, got.ProfileDir, tt.wantURL, tt.wantProfile)
			}
		})
	}
}

func TestNewLauncherFlags(t *testing.T) {
	dir := t.TempDir()
	l := newLauncher(context.Background(), Options{ProfileDir: dir})

	if l.Has(flags.Headless) {
		t.Error("a visible browser was requested")
	}
	if got := l.Get(flags.UserDataDir); got != dir {
		t.Errorf("user-data-dir = %q, want %q", got, dir)
	}
	if l.Has(flags.Leakless) {
		t.Error("browser must outlive ap")
	}

	if !newLauncher(context.Background(), Options{Headless: true}).Has(flags.Headless) {
		t.Error("headless flag missing")
	}
}
