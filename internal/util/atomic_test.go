package util

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestAtomicWriteFile(t *testing.T) {
	tests := []struct {
		name     string
		existing string
		data     string
	}{
		{"new file", "", "prompt\nhello\n"},
		{"replaces content", "prompt,done\nold,\n", "prompt,done\nold,2026/10/16 09:00:00\n"},
		{"empty data", "prompt\n", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			path := filepath.Join(dir, "prompts.csv")
			if tt.existing != "" {
				if err := os.WriteFile(path, []byte(tt.existing), 0644); err != nil {
					t.Fatal(err)
				}
			}

			if err := AtomicWriteFile(path, []byte(tt.data), 0644); err != nil {
				t.Fatalf("AtomicWriteFile: %v", err)
			}

			got, err := os.ReadFile(path)
			if err != nil {
				t.Fatal(err)
			}
			if string(got) != tt.data {
				t.Errorf("content = %q, want %q", got, tt.data)
			}
			entries, err := os.ReadDir(dir)
			if err != nil {
				t.Fatal(err)
			}
			if len(entries) != 1 {
				t.Errorf("temp file left behind: %d entries in dir", len(entries))
			}
		})
	}
}

func TestAtomicWriteFileKeepsMode(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix permission bits")
	}
	path := filepath.Join(t.TempDir(), "prompts.csv")
	if err := os.WriteFile(path, []byte("x"), 0600); err != nil {
		t.Fatal(err)
	}
	if err := AtomicWriteFile(path, []byte("y"), 0644); err != nil {
		t.Fatalf("AtomicWriteFile: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("mode = %o, want 0600 kept", perm)
	}
}

func TestAtomicWriteFileMissingDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "prompts.csv")
	if err := AtomicWriteFile(path, []byte("x"), 0644); err == nil {
		t.Fatal("expected an error for a missing directory")
	}
}
