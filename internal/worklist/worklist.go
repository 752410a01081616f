// Package worklist reads and updates CSV work lists of prompts.
//
// A work list has a required "prompt" column and optional "done", "prefix"
// and "suffix" columns. Rows whose done cell is truthy are skipped on load
// and never matched again by MarkDone. Files are written back in the same
// encoding, column order and line-ending style they were read with.
package worklist

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// DoneTokens are the done-cell values (case-insensitive) that mark a row as sent.
var DoneTokens = []string{"1", "true", "yes", "on"}

// Item is one prompt to dispatch with its resolved prefix and suffix.
type Item struct {
	Text   string
	Prefix string
	Suffix string
	Row    int // 1-based data row in the file
}

// Payload returns the text that is actually pasted: prefix + text + suffix.
func (it Item) Payload() string {
	return it.Prefix + it.Text + it.Suffix
}

// LoadOptions controls how prefix and suffix are resolved.
type LoadOptions struct {
	// UseRowOverrides reads per-row prefix/suffix cells, carrying the last
	// non-empty value forward into empty cells.
	UseRowOverrides bool

	DefaultPrefix string
	DefaultSuffix string
}

// LoadReport describes how a work list was read.
type LoadReport struct {
	Encoding Encoding
	Rows     int // data rows in the file
	Skipped  int // rows skipped as done or blank

	// Downgraded is set when row overrides were requested but the file has
	// neither a prefix nor a suffix column, so defaults were used instead.
	Downgraded bool
	Columns    []string
}

// ErrNoPending is wrapped by the InputError returned when a work list has no
// rows left to send.
var ErrNoPending = errors.New("no pending prompts")

// InputError reports a work list that cannot be used at all.
type InputError struct {
	Path string
	Err  error
}

func (e *InputError) Error() string {
	return fmt.Sprintf("work list %s: %v", e.Path, e.Err)
}

func (e *InputError) Unwrap() error {
	return e.Err
}

// Load reads the pending items of the work list at path in file order.
func Load(path string, opts LoadOptions) ([]Item, LoadReport, error) {
	var report LoadReport

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, report, &InputError{Path: path, Err: fmt.Errorf("file not found")}
		}
		return nil, report, &InputError{Path: path, Err: err}
	}

	t, err := readTable(path)
	if err != nil {
		return nil, report, &InputError{Path: path, Err: fmt.Errorf("reading csv: %w", err)}
	}
	report.Encoding = t.encoding
	report.Rows = len(t.rows)
	report.Columns = append([]string(nil), t.header...)

	promptCol := t.column(ColumnPrompt)
	if promptCol < 0 {
		return nil, report, &InputError{
			Path: path,
			Err:  fmt.Errorf("%q column not found (columns: %s)", ColumnPrompt, strings.Join(t.header, ", ")),
		}
	}
	doneCol := t.column(ColumnDone)
	prefixCol := t.column(ColumnPrefix)
	suffixCol := t.column(ColumnSuffix)

	useOverrides := opts.UseRowOverrides
	if useOverrides && prefixCol < 0 && suffixCol < 0 {
		useOverrides = false
		report.Downgraded = true
	}

	lastPrefix, lastSuffix := opts.DefaultPrefix, opts.DefaultSuffix
	var items []Item
	for i, row := range t.rows {
		if isDone(cell(row, doneCol)) {
			report.Skipped++
			continue
		}
		text := strings.TrimSpace(cell(row, promptCol))
		if text == "" {
			report.Skipped++
			continue
		}

		item := Item{Text: text, Prefix: opts.DefaultPrefix, Suffix: opts.DefaultSuffix, Row: i + 1}
		if useOverrides {
			item.Prefix = carry(row, prefixCol, &lastPrefix, opts.DefaultPrefix)
			item.Suffix = carry(row, suffixCol, &lastSuffix, opts.DefaultSuffix)
		}
		items = append(items, item)
	}

	if len(items) == 0 {
		return nil, report, &InputError{Path: path, Err: fmt.Errorf("%w (all rows done or empty)", ErrNoPending)}
	}
	return items, report, nil
}

// carry resolves an override cell. Empty cells inherit the last non-empty
// value seen earlier in the file; cells are not trimmed so intentional
// whitespace and newlines survive.
func carry(row []string, col int, last *string, def string) string {
	if col < 0 {
		return def
	}
	v := cell(row, col)
	if v == "" {
		return *last
	}
	*last = v
	return v
}
