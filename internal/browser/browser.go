// Package browser opens the chat web application in a Chromium instance.
//
// The browser is launched through go-rod's launcher and left running when
// ap exits, so the user keeps the window that input will be injected into.
package browser

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// DefaultURL is the chat application opened when none is configured.
const DefaultURL = "https://chatgpt.com"

// loadTimeout bounds navigation; a slow page is still usable once it paints.
const loadTimeout = 30 * time.Second

// Options configures Open.
type Options struct {
	URL        string
	ProfileDir string // persistent user data dir; empty uses a throwaway profile
	Headless   bool
	Bin        string // browser binary; empty lets rod find or download one
}

func (o Options) withDefaults() (Options, error) {
	if o.URL == "" {
		o.URL = DefaultURL
	}
	if o.ProfileDir != "" {
		dir, err := expandHome(o.ProfileDir)
		if err != nil {
			return o, err
		}
		o.ProfileDir = dir
	}
	return o, nil
}

// newLauncher builds the launcher for opts without starting anything.
func newLauncher(ctx context.Context, opts Options) *launcher.Launcher {
	l := launcher.New().
		Context(ctx).
		Headless(opts.Headless).
		Leakless(false)
	if opts.ProfileDir != "" {
		l = l.UserDataDir(opts.ProfileDir)
	}
	if opts.Bin != "" {
		l = l.Bin(opts.Bin)
	}
	return l
}

// Open launches the browser, navigates to the chat URL and returns the page
// title. The browser process outlives the call.
func Open(ctx context.Context, opts Options) (string, error) {
	opts, err := opts.withDefaults()
	if err != nil {
		return "", err
	}
	if opts.ProfileDir != "" {
		if err := os.MkdirAll(opts.ProfileDir, 0700); err != nil {
			return "", fmt.Errorf("creating profile dir: %w", err)
		}
	}

	controlURL, err := newLauncher(ctx, opts).Launch()
	if err != nil {
		return "", fmt.Errorf("launching browser: %w", err)
	}

	b := rod.New().ControlURL(controlURL).Context(ctx)
	if err := b.Connect(); err != nil {
		return "", fmt.Errorf("connecting to browser: %w", err)
	}

	page, err := b.Page(proto.TargetCreateTarget{URL: opts.URL})
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", opts.URL, err)
	}
	if err := page.Timeout(loadTimeout).WaitLoad(); err != nil {
		return "", fmt.Errorf("loading %s: %w", opts.URL, err)
	}

	info, err := page.Info()
	if err != nil {
		return "", fmt.Errorf("reading page info: %w", err)
	}
	return info.Title, nil
}

func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home dir: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
