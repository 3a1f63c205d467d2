package typeset

import (
	"github.com/fogleman/gg"
)

// Anchor places a text run relative to the drawing point. The first letter is the
// horizontal anchor (l=left, m=middle, r=right), the second the vertical one
// (t=ascender top, m=middle, s=baseline, b=descender bottom).
type Anchor string

const (
	AnchorLeftTop      Anchor = "lt"
	AnchorLeftBaseline Anchor = "ls"
	AnchorLeftBottom   Anchor = "lb"
	AnchorMiddleTop    Anchor = "mt"
	AnchorMiddleMiddle Anchor = "mm"
	AnchorMiddleBottom Anchor = "mb"
)

// DrawText draws the text with the face so that the anchor lands on (x, y).
// The current color of the drawing context is used.
func DrawText(dc *gg.Context, face Face, text string, x, y float64, anchor Anchor) {
	if text == "" || face.Face == nil {
		return
	}
	bx, by := origin(face, text, x, y, anchor)
	dc.SetFontFace(face.Face)
	dc.DrawString(text, bx, by)
}

// origin converts an anchored point into the left baseline point gg draws from.
func origin(face Face, text string, x, y float64, anchor Anchor) (float64, float64) {
	metrics := face.Metrics()
	ascent := float64(metrics.Ascent) / 64
	descent := float64(metrics.Descent) / 64

	if len(anchor) != 2 {
		anchor = AnchorLeftBaseline
	}

	switch anchor[0] {
	case 'm':
		x -= Advance(text, face) / 2
	case 'r':
		x -= Advance(text, face)
	}

	switch anchor[1] {
	case 't':
		y += ascent
	case 'm':
		y += (ascent - descent) / 2
	case 'b':
		y -= descent
	}
	return x, y
}
