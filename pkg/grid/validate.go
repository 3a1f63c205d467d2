package grid

import (
	"errors"
	"fmt"
)

// Limits keeping the canvas and the glyph cache within memory.
const (
	MaxTracks     = 256
	MaxCanvasSize = 16384
	MaxFontSize   = 1024
)

var (
	ErrEmptyGrid   = errors.New("grid has no rows or columns")
	ErrInvalidSize = errors.New("invalid grid or font size")
	ErrInvalidSpan = errors.New("rowspan and colspan must be at least 1")
	ErrOutOfBounds = errors.New("cell exceeds grid bounds")
	ErrOverlap     = errors.New("cells overlap")
)

// Validate checks the grid dimensions and that every cell lies inside the grid
// without sharing a slot with another cell. The canvas may not exceed MaxCanvasSize
// on either side.
func Validate(spec *Spec) error {
	if spec.Rows < 1 || spec.Cols < 1 {
		return fmt.Errorf("%w: %dx%d", ErrEmptyGrid, spec.Rows, spec.Cols)
	}
	if spec.Rows > MaxTracks || spec.Cols > MaxTracks {
		return fmt.Errorf("%w: %dx%d grid, at most %d rows and columns", ErrInvalidSize, spec.Rows, spec.Cols, MaxTracks)
	}
	if spec.CellSize < 1 || spec.CellSize > MaxCanvasSize || spec.BorderWidth < 0 || spec.BorderWidth > MaxCanvasSize {
		return fmt.Errorf("%w: cell_size=%d border_width=%d", ErrInvalidSize, spec.CellSize, spec.BorderWidth)
	}
	if w, h := spec.Size(); w > MaxCanvasSize || h > MaxCanvasSize {
		return fmt.Errorf("%w: %dx%d canvas, at most %d pixels per side", ErrInvalidSize, w, h, MaxCanvasSize)
	}

	owner := make([]int, spec.Rows*spec.Cols)
	for i, cell := range spec.Cells {
		if cell.RowSpan < 1 || cell.ColSpan < 1 {
			return fmt.Errorf("%w: cell %q has span %dx%d", ErrInvalidSpan, cell.ID, cell.RowSpan, cell.ColSpan)
		}
		if cell.FontSize < 1 || cell.FontSize > MaxFontSize {
			return fmt.Errorf("%w: cell %q has font_size %d", ErrInvalidSize, cell.ID, cell.FontSize)
		}
		if cell.Row < 0 || cell.Col < 0 || cell.RowSpan > spec.Rows-cell.Row || cell.ColSpan > spec.Cols-cell.Col {
			return fmt.Errorf("%w: cell %q at (%d, %d) spanning %dx%d in a %dx%d grid",
				ErrOutOfBounds, cell.ID, cell.Row, cell.Col, cell.RowSpan, cell.ColSpan, spec.Rows, spec.Cols)
		}
		for r := cell.Row; r < cell.Row+cell.RowSpan; r++ {
			for c := cell.Col; c < cell.Col+cell.ColSpan; c++ {
				slot := r*spec.Cols + c
				if owner[slot] != 0 {
					other := spec.Cells[owner[slot]-1]
					return fmt.Errorf("%w: cell %q and cell %q share (%d, %d)", ErrOverlap, other.ID, cell.ID, r, c)
				}
				owner[slot] = i + 1
			}
		}
	}
	return nil
}
