// Package config resolves ap settings from defaults, a config file, the
// environment and command-line flags.
//
// Resolution order (later overrides earlier):
//  1. Built-in defaults
//  2. Config file (TOML, or YAML for .yaml/.yml files)
//  3. AP_* environment variables
//  4. Flags set explicitly on the command line
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// DefaultURL is the chat application opened by `ap open`.
const DefaultURL = "https://chatgpt.com"

// ErrNotFound is returned when an explicitly named config file does not exist.
var ErrNotFound = errors.New("config file not found")

// Config is the resolved configuration of one ap invocation.
type Config struct {
	CSV             string
	Wait            time.Duration
	Retry           int
	MaxItems        int
	Prefix          string
	Suffix          string
	UseRowOverrides bool
	ShortSleep      time.Duration
	LongSleep       time.Duration
	DryRun          bool

	OutputMode  string
	Interactive bool
	Theme       string

	LogFile  string
	LogLevel string

	URL           string
	ProfileDir    string
	PauseForLogin bool
	// OpenBrowser launches the chat app before ap run starts.
	OpenBrowser bool

	History     bool
	HistoryPath string
}

// Defaults returns the built-in configuration.
func Defaults() *Config {
	return &Config{
		Wait:        60 * time.Second,
		ShortSleep:  300 * time.Millisecond,
		LongSleep:   time.Second,
		OutputMode:  "verbose",
		LogLevel:    "INFO",
		URL:         DefaultURL,
		History:     true,
		HistoryPath: filepath.Join(Home(), "history.db"),
	}
}

// Home returns the ap state directory: $AP_HOME, or ~/.autoprompter.
func Home() string {
	if dir := os.Getenv("AP_HOME"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".autoprompter"
	}
	return filepath.Join(home, ".autoprompter")
}

// DefaultPath is the config file read when none is named.
func DefaultPath() string {
	return filepath.Join(Home(), "config.toml")
}

// Validate checks values that no layer may leave invalid.
func (c *Config) Validate() error {
	if c.Wait <= 0 {
		return fmt.Errorf("wait must be positive, got %s", c.Wait)
	}
	if c.Retry < 0 {
		return fmt.Errorf("retry must not be negative, got %d", c.Retry)
	}
	if c.MaxItems < 0 {
		return fmt.Errorf("max-items must not be negative, got %d", c.MaxItems)
	}
	if c.ShortSleep < 0 || c.LongSleep < 0 {
		return errors.New("sleep durations must not be negative")
	}
	return nil
}

// Duration is a wrapper for time.Duration that supports TOML and YAML
// decoding. Bare numbers are seconds, so `wait = 90` and `short_sleep = 0.3`
// work as well as `wait = "1m30s"`.
type Duration struct {
	time.Duration
}

// ParseDuration parses a Go duration string or a number of seconds.
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if secs, err := strconv.ParseFloat(s, 64); err == nil {
		return time.Duration(secs * float64(time.Second)), nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", s, err)
	}
	return d, nil
}

// UnmarshalText implements encoding.TextUnmarshaler for Duration.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	return d.UnmarshalText([]byte(node.Value))
}

// MarshalText implements encoding.TextMarshaler for Duration.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// fileConfig mirrors the config file layout. Pointer fields distinguish
// "not set" from zero values.
type fileConfig struct {
	Dispatch struct {
		CSV           *string   `toml:"csv" yaml:"csv"`
		Wait          *Duration `toml:"wait" yaml:"wait"`
		Prefix        *string   `toml:"prefix" yaml:"prefix"`
		Suffix        *string   `toml:"suffix" yaml:"suffix"`
		CSVMode       *bool     `toml:"csv_mode" yaml:"csv_mode"`
		ShortSleep    *Duration `toml:"short_sleep" yaml:"short_sleep"`
		LongSleep     *Duration `toml:"long_sleep" yaml:"long_sleep"`
		URL           *string   `toml:"url" yaml:"url"`
		ProfileDir    *string   `toml:"profile_dir" yaml:"profile_dir"`
		PauseForLogin *bool     `toml:"pause_for_login" yaml:"pause_for_login"`
		Open          *bool     `toml:"open" yaml:"open"`
	} `toml:"chatgpt" yaml:"chatgpt"`

	Output struct {
		Mode        *string `toml:"mode" yaml:"mode"`
		Interactive *bool   `toml:"interactive" yaml:"interactive"`
		Quiet       *bool   `toml:"quiet" yaml:"quiet"`
		Theme       *string `toml:"theme" yaml:"theme"`
	} `toml:"output" yaml:"output"`

	Logging struct {
		LogFile  *string `toml:"log_file" yaml:"log_file"`
		LogLevel *string `toml:"log_level" yaml:"log_level"`
	} `toml:"logging" yaml:"logging"`

	Safety struct {
		DryRun   *bool `toml:"dry_run" yaml:"dry_run"`
		MaxItems *int  `toml:"max_items" yaml:"max_items"`
		Retry    *int  `toml:"retry" yaml:"retry"`
	} `toml:"safety" yaml:"safety"`

	History struct {
		Enabled *bool   `toml:"enabled" yaml:"enabled"`
		Path    *string `toml:"path" yaml:"path"`
	} `toml:"history" yaml:"history"`
}

// Load returns the defaults overlaid with the config file and environment.
//
// An explicitly named file must exist. With an empty path the default file
// is read if present.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	if err := cfg.applyFile(path, explicit); err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyFile(path string, required bool) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is chosen by the user
	if err != nil {
		if os.IsNotExist(err) {
			if required {
				return fmt.Errorf("%w: %s", ErrNotFound, path)
			}
			return nil
		}
		return fmt.Errorf("reading config: %w", err)
	}

	var fc fileConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &fc)
	default:
		_, err = toml.Decode(string(data), &fc)
	}
	if err != nil {
		return fmt.Errorf("parsing config %s: %w", path, err)
	}

	c.merge(&fc)
	return nil
}

// merge applies every field set in fc.
func (c *Config) merge(fc *fileConfig) {
	d := fc.Dispatch
	setString(&c.CSV, d.CSV)
	setDuration(&c.Wait, d.Wait)
	setString(&c.Prefix, d.Prefix)
	setString(&c.Suffix, d.Suffix)
	setBool(&c.UseRowOverrides, d.CSVMode)
	setDuration(&c.ShortSleep, d.ShortSleep)
	setDuration(&c.LongSleep, d.LongSleep)
	setString(&c.URL, d.URL)
	setString(&c.ProfileDir, d.ProfileDir)
	setBool(&c.PauseForLogin, d.PauseForLogin)
	setBool(&c.OpenBrowser, d.Open)

	o := fc.Output
	setString(&c.OutputMode, o.Mode)
	setBool(&c.Interactive, o.Interactive)
	if o.Quiet != nil && *o.Quiet {
		c.OutputMode = "quiet"
	}
	setString(&c.Theme, o.Theme)

	setString(&c.LogFile, fc.Logging.LogFile)
	setString(&c.LogLevel, fc.Logging.LogLevel)

	s := fc.Safety
	setBool(&c.DryRun, s.DryRun)
	setInt(&c.MaxItems, s.MaxItems)
	setInt(&c.Retry, s.Retry)

	setBool(&c.History, fc.History.Enabled)
	setString(&c.HistoryPath, fc.History.Path)
}

// ApplyEnv overlays AP_* environment variables read through lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"AP_CSV":         &c.CSV,
		"AP_PREFIX":      &c.Prefix,
		"AP_SUFFIX":      &c.Suffix,
		"AP_OUTPUT_MODE": &c.OutputMode,
		"AP_LOG_FILE":    &c.LogFile,
		"AP_LOG_LEVEL":   &c.LogLevel,
		"AP_PROFILE_DIR": &c.ProfileDir,
		"AP_URL":         &c.URL,
	}
	for key, dst := range strs {
		if v, ok := lookup(key); ok {
			*dst = v
		}
	}

	ints := map[string]*int{
		"AP_RETRY":     &c.Retry,
		"AP_MAX_ITEMS": &c.MaxItems,
	}
	for key, dst := range ints {
		v, ok := lookup(key)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s: invalid integer %q", key, v)
		}
		*dst = n
	}

	durs := map[string]*time.Duration{
		"AP_WAIT":        &c.Wait,
		"AP_SHORT_SLEEP": &c.ShortSleep,
		"AP_LONG_SLEEP":  &c.LongSleep,
	}
	for key, dst := range durs {
		v, ok := lookup(key)
		if !ok {
			continue
		}
		d, err := ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = d
	}

	bools := map[string]*bool{
		"AP_DRY_RUN":         &c.DryRun,
		"AP_INTERACTIVE":     &c.Interactive,
		"AP_PAUSE_FOR_LOGIN": &c.PauseForLogin,
		"AP_OPEN":            &c.OpenBrowser,
		"AP_CSV_MODE":        &c.UseRowOverrides,
	}
	for key, dst := range bools {
		if v, ok := lookup(key); ok {
			*dst = isTruthy(v)
		}
	}
	if v, ok := lookup("AP_QUIET"); ok && isTruthy(v) {
		c.OutputMode = "quiet"
	}
	if v, ok := lookup("AP_NO_HISTORY"); ok && isTruthy(v) {
		c.History = false
	}
	return nil
}

func isTruthy(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func setDuration(dst *time.Duration, v *Duration) {
	if v != nil {
		*dst = v.Duration
	}
}
