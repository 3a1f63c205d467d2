// Package imageutil decodes, resizes, trims and encodes the raster assets used by layouts.
package imageutil

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"

	// Registered decoders for product photos.
	_ "image/jpeg"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
)

// ResizeAR computes the size of an image of srcWidth x srcHeight scaled to targetWidth while
// keeping its aspect ratio. The width is first clamped to limitX, then the height to limitY,
// recomputing the other side each time. A degenerate source yields (limitX, limitY).
func ResizeAR(srcWidth, srcHeight, targetWidth, limitX, limitY int) (int, int) {
	if srcWidth <= 0 || srcHeight <= 0 {
		return limitX, limitY
	}

	width := targetWidth
	height := float64(width*srcHeight) / float64(srcWidth)
	if width > limitX {
		width = limitX
		height = float64(width*srcHeight) / float64(srcWidth)
	}
	if height > float64(limitY) {
		width = (limitY * srcWidth) / srcHeight
		height = float64(limitY)
	}
	return width, int(height)
}

// Resize scales img to the size ResizeAR computes, using Lanczos resampling.
func Resize(img image.Image, targetWidth, limitX, limitY int) *image.NRGBA {
	b := img.Bounds()
	width, height := ResizeAR(b.Dx(), b.Dy(), targetWidth, limitX, limitY)
	return imaging.Resize(img, max(width, 1), max(height, 1), imaging.Lanczos)
}

// TrimTransparent crops away fully transparent rows and columns around the image content.
// A fully transparent image is returned unchanged, as a copy.
func TrimTransparent(img image.Image) *image.NRGBA {
	src := imaging.Clone(img)
	b := src.Bounds()

	minX, minY, maxX, maxY := b.Max.X, b.Max.Y, b.Min.X, b.Min.Y
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if src.NRGBAAt(x, y).A == 0 {
				continue
			}
			minX, minY = min(minX, x), min(minY, y)
			maxX, maxY = max(maxX, x+1), max(maxY, y+1)
		}
	}
	if minX >= maxX || minY >= maxY {
		return src
	}
	return imaging.Crop(src, image.Rect(minX, minY, maxX, maxY))
}

// Decode decodes PNG, JPEG or WebP data.
func Decode(r io.Reader) (image.Image, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}

// DecodeBytes decodes an in-memory image.
func DecodeBytes(data []byte) (image.Image, error) {
	return Decode(bytes.NewReader(data))
}

// Open reads and decodes the image file at path.
func Open(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	return img, nil
}

// EncodePNG encodes img as PNG into memory.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode png: %w", err)
	}
	return buf.Bytes(), nil
}
