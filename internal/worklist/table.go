package worklist

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"github.com/steveyegge/autoprompter/internal/util"
)

// Column names recognised in a work list header.
const (
	ColumnPrompt = "prompt"
	ColumnDone   = "done"
	ColumnPrefix = "prefix"
	ColumnSuffix = "suffix"
)

// table is a decoded CSV file: header, data rows, and how to write it back.
type table struct {
	header   []string
	rows     [][]string
	encoding Encoding
	crlf     bool
}

// readTable reads and decodes the CSV at path.
func readTable(path string) (*table, error) {
	raw, err := os.ReadFile(path) //nolint:gosec // G304: path is the user-selected work list
	if err != nil {
		return nil, err
	}

	text, enc, err := decode(raw)
	if err != nil {
		return nil, err
	}

	r := csv.NewReader(strings.NewReader(text))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing csv (%s): %w", enc, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("file is empty")
	}

	return &table{
		header:   records[0],
		rows:     records[1:],
		encoding: enc,
		crlf:     strings.Contains(text, "\r\n"),
	}, nil
}

// column returns the index of the named header column, or -1.
func (t *table) column(name string) int {
	for i, h := range t.header {
		if strings.TrimSpace(h) == name {
			return i
		}
	}
	return -1
}

// cell returns row[col], or "" when the column is absent or the row is short.
func cell(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return row[col]
}

// setCell writes value into row[col], padding short rows.
func setCell(row []string, col int, value string) []string {
	for len(row) <= col {
		row = append(row, "")
	}
	row[col] = value
	return row
}

// ensureColumn appends a column with a default value for every row if it
// does not exist yet. It reports the column index and whether it was added.
func (t *table) ensureColumn(name, fill string) (int, bool) {
	if col := t.column(name); col >= 0 {
		return col, false
	}
	col := len(t.header)
	t.header = append(t.header, name)
	for i := range t.rows {
		t.rows[i] = setCell(t.rows[i], col, fill)
	}
	return col, true
}

// write encodes the table with its original encoding and line endings and
// atomically replaces path.
func (t *table) write(path string) error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.UseCRLF = t.crlf
	if err := w.Write(t.header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	if err := w.WriteAll(t.rows); err != nil {
		return fmt.Errorf("writing rows: %w", err)
	}

	data, err := encode(buf.String(), t.encoding)
	if err != nil {
		return err
	}
	return util.AtomicWriteFile(path, data, 0644)
}

// isDone reports whether a done cell holds one of the truthy tokens.
func isDone(value string) bool {
	v := strings.ToLower(strings.TrimSpace(value))
	for _, tok := range DoneTokens {
		if v == tok {
			return true
		}
	}
	return false
}
