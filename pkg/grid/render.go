package grid

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"

	"github.com/fastlay-project/fastlay/pkg/typeset"
)

// Size returns the canvas size of the grid.
func (s *Spec) Size() (width, height int) {
	width = s.Cols*s.CellSize + (s.Cols+1)*s.BorderWidth
	height = s.Rows*s.CellSize + (s.Rows+1)*s.BorderWidth
	return width, height
}

// Rect returns the pixel rectangle of a cell, borders excluded.
func (s *Spec) Rect(cell *Cell) image.Rectangle {
	x := cell.Col*(s.CellSize+s.BorderWidth) + s.BorderWidth
	y := cell.Row*(s.CellSize+s.BorderWidth) + s.BorderWidth
	w := cell.ColSpan*s.CellSize + (cell.ColSpan-1)*s.BorderWidth
	h := cell.RowSpan*s.CellSize + (cell.RowSpan-1)*s.BorderWidth
	return image.Rect(x, y, x+w, y+h)
}

// Render validates the spec and paints it. Text is drawn with f, or with the default font
// when f is nil. Rendering is deterministic: the same spec and images give the same pixels.
func Render(spec *Spec, f *truetype.Font) (image.Image, error) {
	if err := Validate(spec); err != nil {
		return nil, err
	}
	if f == nil {
		f = typeset.DefaultFont()
	}

	width, height := spec.Size()
	dc := gg.NewContext(width, height)
	dc.SetColor(spec.CanvasColor)
	dc.Clear()

	faces := map[int]typeset.Face{}
	defer func() {
		for _, face := range faces {
			face.Close()
		}
	}()
	face := func(size int) typeset.Face {
		if cached, ok := faces[size]; ok {
			return cached
		}
		faces[size] = typeset.NewFace(f, float64(size))
		return faces[size]
	}

	for i := range spec.Cells {
		cell := &spec.Cells[i]
		r := spec.Rect(cell)
		drawChrome(dc, spec, cell, r)

		inner := r.Inset(cell.Padding)
		if cell.Image != nil && !cell.Image.Bounds().Empty() && !inner.Empty() {
			drawImage(dc, cell, inner)
		}
		if text := cell.Content(); text != "" {
			drawText(dc, cell, inner, text, face(cell.FontSize))
		}
	}
	return dc.Image(), nil
}

func drawChrome(dc *gg.Context, spec *Spec, cell *Cell, r image.Rectangle) {
	fill := spec.BackgroundColor
	if cell.Color != nil {
		fill = *cell.Color
	}
	outline := spec.BorderColor
	if cell.OutlineColor != nil {
		outline = *cell.OutlineColor
	}

	x, y, w, h := float64(r.Min.X), float64(r.Min.Y), float64(r.Dx()), float64(r.Dy())
	if fill.A > 0 {
		dc.DrawRectangle(x, y, w, h)
		dc.SetColor(fill)
		dc.Fill()
	}
	if outline.A > 0 && spec.BorderWidth > 0 {
		// The stroke stays inside the cell.
		b := float64(spec.BorderWidth)
		dc.DrawRectangle(x+b/2, y+b/2, w-b, h-b)
		dc.SetLineWidth(b)
		dc.SetColor(outline)
		dc.Stroke()
	}
}

func drawImage(dc *gg.Context, cell *Cell, inner image.Rectangle) {
	resized := fitImage(cell.Image, cell.Fit(), inner.Dx(), inner.Dy())
	b := resized.Bounds()
	dx, dy := align(cell, inner.Dx()-b.Dx(), inner.Dy()-b.Dy())
	dc.DrawImage(resized, inner.Min.X+dx, inner.Min.Y+dy)
}

// fitImage scales img into a width x height box according to mode.
func fitImage(img image.Image, mode FitMode, width, height int) *image.NRGBA {
	switch mode {
	case FitCover:
		return imaging.Fill(img, width, height, imaging.Center, imaging.Lanczos)
	case FitStretch:
		return imaging.Resize(img, width, height, imaging.Lanczos)
	}

	// imaging.Fit never enlarges, contain does.
	b := img.Bounds()
	aspect := float64(b.Dx()) / float64(b.Dy())
	w, h := width, height
	if float64(width)/float64(height) > aspect {
		w = int(float64(height) * aspect)
	} else {
		h = int(float64(width) / aspect)
	}
	return imaging.Resize(img, max(w, 1), max(h, 1), imaging.Lanczos)
}

// align returns the offset of content inside the inner rect given the free space on each axis.
func align(cell *Cell, freeX, freeY int) (int, int) {
	var dx, dy int
	switch cell.AlignHorizontal {
	case AlignCenter:
		dx = freeX / 2
	case AlignRight:
		dx = freeX
	}
	switch cell.AlignVertical {
	case AlignCenter:
		dy = freeY / 2
	case AlignBottom:
		dy = freeY
	}
	return dx, dy
}

func drawText(dc *gg.Context, cell *Cell, inner image.Rectangle, text string, face typeset.Face) {
	textW, textH := typeset.MeasureBox(text, face)
	freeX, freeY := inner.Dx()-textW, inner.Dy()-textH

	// Text alignment falls through to right and bottom for unknown values.
	var dx, dy int
	switch cell.AlignHorizontal {
	case AlignCenter:
		dx = floorDiv(freeX, 2)
	case AlignLeft:
	default:
		dx = freeX
	}
	switch cell.AlignVertical {
	case AlignCenter:
		dy = floorDiv(freeY, 2)
	case AlignTop:
	default:
		dy = freeY
	}

	dc.SetColor(color.NRGBA(cell.TextColor))
	typeset.DrawText(dc, face, text, float64(inner.Min.X+dx), float64(inner.Min.Y+dy), typeset.AnchorLeftTop)
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
