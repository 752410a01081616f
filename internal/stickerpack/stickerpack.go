// Package stickerpack bundles resized sticker images into the zip layout the
// sticker store accepts: main.png, tab.png, then 01.png..40.png.
package stickerpack

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/steveyegge/autoprompter/internal/util"
)

// MaxStickers is the highest sticker number looked up in the input folder.
const MaxStickers = 40

// Required images.
const (
	MainImage = "main.png"
	TabImage  = "tab.png"
)

// Validation errors. Create wraps them with the offending path.
var (
	ErrNoInputDir  = errors.New("input folder not found")
	ErrMissingFile = errors.New("required image missing")
	ErrNoStickers  = errors.New("no sticker images (01.png..40.png) found")
)

// Pack describes a written archive.
type Pack struct {
	Path     string
	Stickers []string // sticker file names in archive order
}

// StickerName returns the file name of sticker n, e.g. 7 -> "07.png".
func StickerName(n int) string {
	return fmt.Sprintf("%02d.png", n)
}

// Files returns the archive entries found in inputDir in archive order, or
// an error if the folder does not hold a valid pack.
func Files(inputDir string) ([]string, error) {
	info, err := os.Stat(inputDir)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNoInputDir, inputDir)
	}

	files := []string{MainImage, TabImage}
	for _, name := range files {
		if !isFile(filepath.Join(inputDir, name)) {
			return nil, fmt.Errorf("%w: %s", ErrMissingFile, name)
		}
	}

	stickers := 0
	for n := 1; n <= MaxStickers; n++ {
		name := StickerName(n)
		if isFile(filepath.Join(inputDir, name)) {
			files = append(files, name)
			stickers++
		}
	}
	if stickers == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoStickers, inputDir)
	}
	return files, nil
}

// Create validates inputDir and writes a deflate zip to outputPath.
func Create(inputDir, outputPath string) (*Pack, error) {
	files, err := Files(inputDir)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range files {
		if err := addFile(zw, filepath.Join(inputDir, name), name); err != nil {
			return nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("finishing zip: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return nil, fmt.Errorf("creating output dir: %w", err)
	}
	if err := util.AtomicWriteFile(outputPath, buf.Bytes(), 0644); err != nil {
		return nil, fmt.Errorf("writing %s: %w", outputPath, err)
	}

	return &Pack{Path: outputPath, Stickers: files[2:]}, nil
}

// CreateAutoNamed writes line_stamp_YYYYMMDD_HHMMSS.zip into outputDir.
func CreateAutoNamed(inputDir, outputDir string, now time.Time) (*Pack, error) {
	name := fmt.Sprintf("line_stamp_%s.zip", now.Format("20060102_150405"))
	return Create(inputDir, filepath.Join(outputDir, name))
}

func addFile(zw *zip.Writer, path, name string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", name, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", name, err)
	}
	hdr, err := zip.FileInfoHeader(info)
	if err != nil {
		return fmt.Errorf("zip header for %s: %w", name, err)
	}
	hdr.Name = name
	hdr.Method = zip.Deflate

	w, err := zw.CreateHeader(hdr)
	if err != nil {
		return fmt.Errorf("adding %s: %w", name, err)
	}
	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("compressing %s: %w", name, err)
	}
	return nil
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
