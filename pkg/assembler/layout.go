package assembler

import (
	"errors"
	"fmt"
	"image"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
)

const ContentTypePNG = "image/png"

// GeneratedLayout is the encoded result of a successful run.
type GeneratedLayout struct {
	Data        []byte
	Filename    string
	ContentType string
	Request     Request

	// Top-left of the currency glyph; zero in percentage mode.
	SealAnchor image.Point
}

// Filename returns the file name a layout of the product is saved under.
func Filename(prodCode int) string {
	return strconv.Itoa(prodCode) + ".png"
}

// Save writes the layout into dir and returns its path. An existing file is kept
// and fs.ErrExist returned unless overwrite is set.
func (l *GeneratedLayout) Save(dir string, overwrite bool) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	path := filepath.Join(dir, l.Filename)
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return path, fmt.Errorf("failed to save %s: %w", path, fs.ErrExist)
		} else if !errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("failed to stat %s: %w", path, err)
		}
	}

	if err := os.WriteFile(path, l.Data, 0o644); err != nil {
		return "", fmt.Errorf("failed to save %s: %w", path, err)
	}
	return path, nil
}
