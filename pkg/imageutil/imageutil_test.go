package imageutil

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func TestResizeAR(t *testing.T) {
	tests := []struct {
		name                   string
		srcW, srcH             int
		target, limitX, limitY int
		wantW, wantH           int
	}{
		{"width drives", 1000, 1000, 370, 550, 600, 370, 370},
		{"tall photo clamps height", 500, 1000, 370, 550, 600, 300, 600},
		{"target above width limit", 100, 50, 800, 400, 600, 400, 200},
		{"price bar", 600, 200, 400, 800, 1000, 400, 133},
		{"degenerate source", 0, 10, 370, 550, 600, 550, 600},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := ResizeAR(tt.srcW, tt.srcH, tt.target, tt.limitX, tt.limitY)
			if w != tt.wantW || h != tt.wantH {
				t.Fatalf("ResizeAR() = %dx%d, want %dx%d", w, h, tt.wantW, tt.wantH)
			}
		})
	}
}

func TestResize(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 200, 100))
	got := Resize(src, 100, 550, 600)
	if got.Bounds().Dx() != 100 || got.Bounds().Dy() != 50 {
		t.Fatalf("Resize() bounds = %v, want 100x50", got.Bounds())
	}
}

func TestTrimTransparent(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 20, 20))
	for y := 5; y < 9; y++ {
		for x := 3; x < 15; x++ {
			src.SetNRGBA(x, y, color.NRGBA{R: 255, A: 255})
		}
	}
	got := TrimTransparent(src)
	if got.Bounds().Dx() != 12 || got.Bounds().Dy() != 4 {
		t.Fatalf("TrimTransparent() bounds = %v, want 12x4", got.Bounds())
	}
	if c := got.NRGBAAt(0, 0); c.A != 255 || c.R != 255 {
		t.Fatalf("top-left pixel = %v, want opaque red", c)
	}
}

func TestTrimTransparentEmpty(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 8, 6))
	got := TrimTransparent(src)
	if got.Bounds().Dx() != 8 || got.Bounds().Dy() != 6 {
		t.Fatalf("TrimTransparent() bounds = %v, want unchanged 8x6", got.Bounds())
	}
}

func TestOpenAndEncode(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 3, 2))
	src.SetNRGBA(1, 1, color.NRGBA{G: 200, A: 128})

	data, err := EncodePNG(src)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "p.png")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	img, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	if img.Bounds().Dx() != 3 || img.Bounds().Dy() != 2 {
		t.Fatalf("Open() bounds = %v", img.Bounds())
	}
	if _, err := png.Decode(bytes.NewReader(data)); err != nil {
		t.Fatalf("EncodePNG() produced invalid png: %v", err)
	}

	if _, err := Open(filepath.Join(t.TempDir(), "missing.png")); !os.IsNotExist(err) {
		t.Fatalf("Open(missing) error = %v, want not-exist", err)
	}
}
