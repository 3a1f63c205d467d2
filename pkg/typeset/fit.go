package typeset

import (
	"github.com/golang/freetype/truetype"
)

// Upper bound of the fitting probe. Text whose bounding box never grows
// (e.g. only blanks) stops here.
const MaxFitSize = 1000

// FitSize returns the largest integer point size at which the bounding box of text fits
// within boxWidth x boxHeight. Sizes are probed linearly from 1; the first size that
// overflows either dimension ends the probe and the previous size is returned.
func FitSize(text string, boxWidth int, boxHeight int, f *truetype.Font) int {
	if f == nil {
		f = DefaultFont()
	}
	for size := 1; size <= MaxFitSize; size++ {
		face := NewFace(f, float64(size))
		width, height := MeasureBox(text, face)
		face.Close()
		if width > boxWidth || height > boxHeight {
			return size - 1
		}
	}
	return MaxFitSize
}
