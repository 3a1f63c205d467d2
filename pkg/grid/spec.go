// Package grid composes image and text content into the cells of a row/column grid.
package grid

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

type FitMode string

const (
	FitContain FitMode = "contain"
	FitCover   FitMode = "cover"
	FitStretch FitMode = "stretch"
)

const (
	AlignLeft   = "left"
	AlignCenter = "center"
	AlignRight  = "right"
	AlignTop    = "top"
	AlignBottom = "bottom"
)

// Container defaults.
const (
	DefaultCellSize    = 200
	DefaultBorderWidth = 8
	DefaultFontSize    = 60
)

var (
	DefaultBackgroundColor = RGBA(0xDC, 0xDC, 0xDC, 0x00)
	DefaultBorderColor     = RGBA(0x40, 0x40, 0x40, 0x00)
	DefaultCanvasColor     = RGBA(0x50, 0x50, 0x50, 0x00)
	DefaultTextColor       = RGBA(0, 0, 0, 255)
)

// Spec describes a grid and its cells.
type Spec struct {
	Rows        int `json:"rows"`
	Cols        int `json:"cols"`
	CellSize    int `json:"cell_size"`
	BorderWidth int `json:"border_width"`

	// Fill and outline of cells that do not set their own.
	BackgroundColor Color `json:"bg_color"`
	BorderColor     Color `json:"border_color"`
	CanvasColor     Color `json:"canvas_color"`

	// Painted in order; later cells cover earlier ones.
	Cells []Cell `json:"cells"`
}

type Cell struct {
	ID      string `json:"id"`
	Row     int    `json:"row"`
	Col     int    `json:"col"`
	RowSpan int    `json:"rowspan"`
	ColSpan int    `json:"colspan"`

	Color        *Color `json:"color,omitempty"`
	OutlineColor *Color `json:"outline_color,omitempty"`

	// Falls back to ID when nil.
	Text      *string `json:"text,omitempty"`
	TextColor Color   `json:"text_color"`
	FontSize  int     `json:"font_size"`

	ImagePath string `json:"image_path,omitempty"`
	// Decoded image for ImagePath, set by LoadImages or by the caller.
	Image image.Image `json:"-"`

	// false means stretch regardless of FitMode.
	PreserveAspectRatio bool    `json:"preserve_aspect_ratio"`
	FitMode             FitMode `json:"fit_mode"`

	Padding         int    `json:"padding"`
	AlignHorizontal string `json:"align_horizontal"`
	AlignVertical   string `json:"align_vertical"`
}

// NewSpec returns an empty grid with the container defaults.
func NewSpec(rows, cols int) Spec {
	return Spec{
		Rows:            rows,
		Cols:            cols,
		CellSize:        DefaultCellSize,
		BorderWidth:     DefaultBorderWidth,
		BackgroundColor: DefaultBackgroundColor,
		BorderColor:     DefaultBorderColor,
		CanvasColor:     DefaultCanvasColor,
	}
}

// NewCell returns a 1x1 cell at (row, col) with the cell defaults.
func NewCell(id string, row, col int) Cell {
	return Cell{
		ID:                  id,
		Row:                 row,
		Col:                 col,
		RowSpan:             1,
		ColSpan:             1,
		TextColor:           DefaultTextColor,
		FontSize:            DefaultFontSize,
		PreserveAspectRatio: true,
		FitMode:             FitContain,
		AlignHorizontal:     AlignCenter,
		AlignVertical:       AlignCenter,
	}
}

func (s *Spec) UnmarshalJSON(data []byte) error {
	type plain Spec
	decoded := plain(NewSpec(0, 0))
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	*s = Spec(decoded)
	return nil
}

func (c *Cell) UnmarshalJSON(data []byte) error {
	type plain Cell
	decoded := plain(NewCell("", 0, 0))
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	*c = Cell(decoded)
	return nil
}

// Content is the text drawn in the cell.
func (c *Cell) Content() string {
	if c.Text != nil {
		return *c.Text
	}
	return c.ID
}

// Fit is the effective fit mode.
func (c *Cell) Fit() FitMode {
	if !c.PreserveAspectRatio {
		return FitStretch
	}
	return c.FitMode
}

//go:embed schema.json
var schema []byte

var schemaLoader = gojsonschema.NewBytesLoader(schema)

var ErrInvalidSpec = errors.New("invalid grid spec")

// ParseSpec validates data against the grid JSON schema, decodes it with defaults applied
// and checks the cell geometry.
func ParseSpec(data []byte) (*Spec, error) {
	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSpec, err)
	}
	if !result.Valid() {
		messages := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			messages = append(messages, e.String())
		}
		return nil, fmt.Errorf("%w: %s", ErrInvalidSpec, strings.Join(messages, "; "))
	}

	var spec Spec
	if err := json.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSpec, err)
	}
	if err := Validate(&spec); err != nil {
		return nil, err
	}
	return &spec, nil
}

// LoadImages decodes the image of every cell that references one and has none yet.
// Cells whose image cannot be opened are left without one; their errors are joined.
func LoadImages(spec *Spec, open func(ref string) (image.Image, error)) error {
	var errs []error
	for i := range spec.Cells {
		cell := &spec.Cells[i]
		if cell.ImagePath == "" || cell.Image != nil {
			continue
		}
		img, err := open(cell.ImagePath)
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to load image of cell %q: %w", cell.ID, err))
			continue
		}
		cell.Image = img
	}
	return errors.Join(errs...)
}
