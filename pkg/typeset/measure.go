// Package typeset measures, wraps and sizes text for layout rendering.
package typeset

import (
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/math/fixed"
)

// The per-rune width estimate, as a fraction of the font size, used when a face cannot be measured.
const FallbackCharWidth = 0.6

// Face pairs a font face with the point size it was built at. The size is needed
// for the estimate used when measuring fails.
type Face struct {
	font.Face
	Size float64
}

// NewFace builds a face for the font at the given size (72 DPI, so points equal pixels).
func NewFace(f *truetype.Font, size float64) Face {
	if f == nil {
		return Face{Size: size}
	}
	return Face{
		Face: truetype.NewFace(f, &truetype.Options{Size: size}),
		Size: size,
	}
}

// Close releases the glyph cache of the underlying face.
func (f Face) Close() error {
	if f.Face == nil {
		return nil
	}
	return f.Face.Close()
}

var defaultFont = sync.OnceValues(func() (*truetype.Font, error) {
	return truetype.Parse(goregular.TTF)
})

// DefaultFont returns the embedded Go Regular font. It is used wherever a configured
// font family cannot be found.
func DefaultFont() *truetype.Font {
	f, err := defaultFont()
	if err != nil {
		// The embedded font is known to parse.
		panic(err)
	}
	return f
}

// MeasureWidth returns the width in pixels of the bounding box of the rendered text
// (right minus left bound, not the advance width).
func MeasureWidth(text string, face Face) int {
	width, _ := MeasureBox(text, face)
	return width
}

// MeasureBox returns the width and height in pixels of the bounding box of the rendered text.
// When the face is missing or broken the estimate len(text)*size*0.6 is returned for
// the width and the font size for the height.
func MeasureBox(text string, face Face) (width int, height int) {
	if text == "" {
		return 0, 0
	}
	bounds, ok := boundString(face, text)
	if !ok {
		return estimateWidth(text, face.Size), int(face.Size)
	}
	return bounds.Max.X.Ceil() - bounds.Min.X.Floor(), bounds.Max.Y.Ceil() - bounds.Min.Y.Floor()
}

func boundString(face Face, text string) (bounds fixed.Rectangle26_6, ok bool) {
	if face.Face == nil {
		return bounds, false
	}
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	bounds, _ = font.BoundString(face.Face, text)
	return bounds, true
}

func estimateWidth(text string, size float64) int {
	return int(float64(utf8.RuneCountInString(text)) * size * FallbackCharWidth)
}

// Advance returns the advance width of the text in pixels.
func Advance(text string, face Face) float64 {
	if face.Face == nil {
		return float64(estimateWidth(text, face.Size))
	}
	return float64(font.MeasureString(face.Face, text)) / 64
}

// joinTokens joins wrapped tokens back into display text.
func joinTokens(tokens []string) string {
	return strings.Join(tokens, " ")
}
