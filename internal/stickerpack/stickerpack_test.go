package stickerpack

import (
	"archive/zip"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeImages(t *testing.T, names ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("png:"+name), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func zipEntries(t *testing.T, path string) ([]string, []uint16) {
	t.Helper()
	zr, err := zip.OpenReader(path)
	if err != nil {
		t.Fatalf("open zip: %v", err)
	}
	defer zr.Close()

	var names []string
	var methods []uint16
	for _, f := range zr.File {
		names = append(names, f.Name)
		methods = append(methods, f.Method)
	}
	return names, methods
}

func TestCreateOrdersEntries(t *testing.T) {
	dir := writeImages(t, "03.png", "tab.png", "01.png", "main.png", "notes.txt", "41.png")
	out := filepath.Join(t.TempDir(), "out", "pack.zip")

	pack, err := Create(dir, out)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(pack.Stickers) != 2 {
		t.Errorf("stickers = %v", pack.Stickers)
	}

	names, methods := zipEntries(t, out)
	want := []string{"main.png", "tab.png", "01.png", "03.png"}
	if len(names) != len(want) {
		t.Fatalf("entries = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("entry %d = %s, want %s", i, names[i], want[i])
		}
		if methods[i] != zip.Deflate {
			t.Errorf("entry %s stored with method %d", names[i], methods[i])
		}
	}
}

func TestCreateValidation(t *testing.T) {
	tests := []struct {
		name  string
		files []string
		want  error
	}{
		{"missing main", []string{"tab.png", "01.png"}, ErrMissingFile},
		{"missing tab", []string{"main.png", "01.png"}, ErrMissingFile},
		{"no stickers", []string{"main.png", "tab.png", "41.png"}, ErrNoStickers},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := writeImages(t, tt.files...)
			out := filepath.Join(t.TempDir(), "pack.zip")
			if _, err := Create(dir, out); !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
			if _, err := os.Stat(out); !os.IsNotExist(err) {
				t.Error("no archive should be written for an invalid folder")
			}
		})
	}

	if _, err := Create(filepath.Join(t.TempDir(), "missing"), "x.zip"); !errors.Is(err, ErrNoInputDir) {
		t.Errorf("missing dir: err = %v", err)
	}
}

func TestCreateAutoNamed(t *testing.T) {
	dir := writeImages(t, "main.png", "tab.png", "40.png")
	outDir := t.TempDir()
	now := time.Date(2026, 7, 4, 8, 5, 9, 0, time.Local)

	pack, err := CreateAutoNamed(dir, outDir, now)
	if err != nil {
		t.Fatalf("CreateAutoNamed: %v", err)
	}
	if want := filepath.Join(outDir, "line_stamp_20260704_080509.zip"); pack.Path != want {
		t.Errorf("path = %s, want %s", pack.Path, want)
	}
	if _, err := os.Stat(pack.Path); err != nil {
		t.Errorf("archive not written: %v", err)
	}
}

func TestStickerName(t *testing.T) {
	if got := StickerName(7); got != "07.png" {
		t.Errorf("StickerName(7) = %s", got)
	}
	if got := StickerName(40); got != "40.png" {
		t.Errorf("StickerName(40) = %s", got)
	}
}
