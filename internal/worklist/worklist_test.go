package worklist

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "prompts.csv")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing csv: %v", err)
	}
	return path
}

func texts(items []Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Text
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestLoadSkipsDoneAndBlankRows(t *testing.T) {
	path := writeCSV(t, "prompt,done\n first ,\nsecond,1\nthird,TRUE\n   ,\nfourth,0\nfifth, yes \nsixth,no\n")

	items, report, err := Load(path, LoadOptions{DefaultPrefix: "P:", DefaultSuffix: ":S"})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	want := []string{"first", "fourth", "sixth"}
	if got := texts(items); !equalStrings(got, want) {
		t.Fatalf("texts = %v, want %v", got, want)
	}
	if items[0].Row != 1 || items[1].Row != 5 || items[2].Row != 7 {
		t.Errorf("rows = %d,%d,%d, want 1,5,7", items[0].Row, items[1].Row, items[2].Row)
	}
	for _, it := range items {
		if it.Prefix != "P:" || it.Suffix != ":S" {
			t.Errorf("item %q got prefix/suffix %q/%q, want defaults", it.Text, it.Prefix, it.Suffix)
		}
	}
	if report.Encoding != EncodingUTF8 {
		t.Errorf("encoding = %s, want %s", report.Encoding, EncodingUTF8)
	}
	if report.Rows != 7 || report.Skipped != 4 {
		t.Errorf("report rows/skipped = %d/%d, want 7/4", report.Rows, report.Skipped)
	}
}

func TestLoadCarryForward(t *testing.T) {
	path := writeCSV(t, "prompt,prefix,suffix\none,A,x\ntwo,,\nthree,B,\nfour,,y\nfive,,\n")

	items, report, err := Load(path, LoadOptions{UseRowOverrides: true, DefaultPrefix: "D", DefaultSuffix: "E"})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if report.Downgraded {
		t.Error("did not expect a downgrade when override columns exist")
	}

	var prefixes, suffixes []string
	for _, it := range items {
		prefixes = append(prefixes, it.Prefix)
		suffixes = append(suffixes, it.Suffix)
	}
	if want := []string{"A", "A", "B", "B", "B"}; !equalStrings(prefixes, want) {
		t.Errorf("prefixes = %v, want %v", prefixes, want)
	}
	if want := []string{"x", "x", "x", "y", "y"}; !equalStrings(suffixes, want) {
		t.Errorf("suffixes = %v, want %v", suffixes, want)
	}
}

func TestLoadCarryForwardSeedsWithDefaults(t *testing.T) {
	path := writeCSV(t, "prompt,prefix\none,\ntwo,Z\n")

	items, _, err := Load(path, LoadOptions{UseRowOverrides: true, DefaultPrefix: "D", DefaultSuffix: "E"})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if items[0].Prefix != "D" || items[1].Prefix != "Z" {
		t.Errorf("prefixes = %q,%q, want D,Z", items[0].Prefix, items[1].Prefix)
	}
	// No suffix column: every row uses the default.
	if items[0].Suffix != "E" || items[1].Suffix != "E" {
		t.Errorf("suffixes = %q,%q, want E,E", items[0].Suffix, items[1].Suffix)
	}
}

func TestLoadOverridesKeepWhitespace(t *testing.T) {
	path := writeCSV(t, "prompt,prefix\nhello,\"Intro:\n\"\n")

	items, _, err := Load(path, LoadOptions{UseRowOverrides: true})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := items[0].Payload(); got != "Intro:\nhello" {
		t.Errorf("Payload() = %q, want %q", got, "Intro:\nhello")
	}
}

func TestLoadDowngradesWithoutOverrideColumns(t *testing.T) {
	path := writeCSV(t, "prompt\none\ntwo\n")

	items, report, err := Load(path, LoadOptions{UseRowOverrides: true, DefaultPrefix: "D"})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !report.Downgraded {
		t.Error("expected Downgraded to be reported")
	}
	for _, it := range items {
		if it.Prefix != "D" {
			t.Errorf("item %q prefix = %q, want default", it.Text, it.Prefix)
		}
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		noFile  bool
		pending bool
	}{
		{name: "missing file", noFile: true},
		{name: "missing prompt column", content: "text,done\nhello,\n"},
		{name: "all done", content: "prompt,done\na,1\nb,on\n", pending: true},
		{name: "only blank prompts", content: "prompt\n  \n\"\"\n", pending: true},
		{name: "empty file", content: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "missing.csv")
			if !tt.noFile {
				path = writeCSV(t, tt.content)
			}

			_, _, err := Load(path, LoadOptions{})
			if err == nil {
				t.Fatal("expected error")
			}
			var ie *InputError
			if !errors.As(err, &ie) {
				t.Fatalf("expected *InputError, got %T: %v", err, err)
			}
			if got := errors.Is(err, ErrNoPending); got != tt.pending {
				t.Errorf("errors.Is(ErrNoPending) = %v, want %v", got, tt.pending)
			}
		})
	}
}

func TestLoadUTF8BOM(t *testing.T) {
	path := writeCSV(t, "\ufeffprompt\nhello\n")

	items, report, err := Load(path, LoadOptions{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if report.Encoding != EncodingUTF8BOM {
		t.Errorf("encoding = %s, want %s", report.Encoding, EncodingUTF8BOM)
	}
	if len(items) != 1 || items[0].Text != "hello" {
		t.Errorf("items = %v", texts(items))
	}
}

func TestLoadShiftJIS(t *testing.T) {
	raw, err := encode("prompt,done\nこんにちは,\nさようなら,1\n", EncodingShiftJIS)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	path := filepath.Join(t.TempDir(), "sjis.csv")
	if err := os.WriteFile(path, raw, 0644); err != nil {
		t.Fatal(err)
	}

	items, report, err := Load(path, LoadOptions{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if report.Encoding != EncodingShiftJIS {
		t.Errorf("encoding = %s, want %s", report.Encoding, EncodingShiftJIS)
	}
	if got := texts(items); !equalStrings(got, []string{"こんにちは"}) {
		t.Errorf("texts = %v", got)
	}
}

func TestLoadWindows1252Fallback(t *testing.T) {
	path := writeCSV(t, "prompt\ncaf\xe9,x\n")

	items, report, err := Load(path, LoadOptions{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if report.Encoding != EncodingWindows1252 {
		t.Errorf("encoding = %s, want %s", report.Encoding, EncodingWindows1252)
	}
	if items[0].Text != "café" {
		t.Errorf("text = %q, want café", items[0].Text)
	}
}
