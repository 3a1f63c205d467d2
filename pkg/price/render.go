package price

import (
	"image"
	"image/color"
	"strings"

	"github.com/fogleman/gg"

	"github.com/fastlay-project/fastlay/pkg/typeset"
)

const (
	CurrencyGlyph = "R$"
	DiscountLabel = "DE DESCONTO"
)

// Layout offsets in pixels.
const (
	glyphGap = 3

	percentOffsetX = -5
	percentOffsetY = 18
	percentGap     = 2
	percentUnitGap = 5
)

type Mode int

const (
	ModeCurrency Mode = iota
	ModePercentage
)

func (m Mode) String() string {
	if m == ModePercentage {
		return "percentage"
	}
	return "currency"
}

// Fonts holds the faces used by both rendering modes.
type Fonts struct {
	Integer typeset.Face
	Cents   typeset.Face
	// Used for the currency glyph and the unit label.
	Unit typeset.Face

	Percent     typeset.Face
	Caption     typeset.Face
	PercentUnit typeset.Face
}

type Colors struct {
	Currency   color.Color
	Percentage color.Color
}

// Run is one positioned piece of text.
type Run struct {
	Text   string
	X, Y   float64
	Anchor typeset.Anchor
	Face   typeset.Face
}

// Plan is the fully positioned price text, ready to draw.
type Plan struct {
	Mode  Mode
	Runs  []Run
	Color color.Color
	// Where a seal may be attached: the top-left of the currency glyph,
	// or the zero point in percentage mode.
	Anchor image.Point
}

// Render draws the price inside the price bar and returns the seal anchor point.
func Render(dc *gg.Context, value float64, unit string, bar image.Rectangle, fonts Fonts, colors Colors) image.Point {
	plan := Compose(value, unit, bar, fonts, colors)
	plan.Draw(dc)
	return plan.Anchor
}

// Compose positions the price text without drawing it.
func Compose(value float64, unit string, bar image.Rectangle, fonts Fonts, colors Colors) Plan {
	unit = strings.ToUpper(strings.TrimSpace(unit))
	if IsPercentage(value) {
		return composePercentage(value, unit, bar, fonts, colors.Percentage)
	}
	return composeCurrency(value, unit, bar, fonts, colors.Currency)
}

// Draw paints every run of the plan.
func (p Plan) Draw(dc *gg.Context) {
	if p.Color != nil {
		dc.SetColor(p.Color)
	}
	for _, run := range p.Runs {
		typeset.DrawText(dc, run.Face, run.Text, run.X, run.Y, run.Anchor)
	}
}

func composeCurrency(value float64, unit string, bar image.Rectangle, fonts Fonts, c color.Color) Plan {
	integer, cents := Split(value)

	integerWidth, integerHeight := typeset.MeasureBox(integer, fonts.Integer)
	centsWidth, centsHeight := typeset.MeasureBox(cents, fonts.Cents)
	glyphWidth := typeset.MeasureWidth(CurrencyGlyph, fonts.Unit)

	total := float64(glyphWidth + glyphGap + integerWidth + centsWidth)
	left := float64(bar.Min.X) + (float64(bar.Dx())-total)/2
	centerY := float64(bar.Min.Y) + float64(bar.Dy())/2
	half := float64(integerHeight) / 2

	glyphX, glyphY := left, centerY-half
	integerX := glyphX + float64(glyphWidth+glyphGap)
	centsX := integerX + float64(integerWidth)
	// The cents are raised so their top lines up with the top of the integer part.
	centsY := centerY + half - float64(integerHeight-centsHeight)

	runs := []Run{
		{Text: CurrencyGlyph, X: glyphX, Y: glyphY, Anchor: typeset.AnchorLeftTop, Face: fonts.Unit},
		{Text: integer, X: integerX, Y: centerY + half, Anchor: typeset.AnchorLeftBaseline, Face: fonts.Integer},
		{Text: cents, X: centsX, Y: centsY, Anchor: typeset.AnchorLeftBottom, Face: fonts.Cents},
	}
	if unit != "" {
		runs = append(runs, Run{
			Text:   unit,
			X:      centsX + float64(centsWidth)/4,
			Y:      centerY + half,
			Anchor: typeset.AnchorLeftBottom,
			Face:   fonts.Unit,
		})
	}

	return Plan{
		Mode:   ModeCurrency,
		Runs:   runs,
		Color:  c,
		Anchor: image.Pt(int(glyphX), int(glyphY)),
	}
}

func composePercentage(value float64, unit string, bar image.Rectangle, fonts Fonts, c color.Color) Plan {
	centerX := float64(bar.Min.X) + float64(bar.Dx())/2 + percentOffsetX
	centerY := float64(bar.Min.Y) + float64(bar.Dy())/2 + percentOffsetY

	runs := []Run{
		{Text: Percent(value), X: centerX, Y: centerY - percentGap, Anchor: typeset.AnchorMiddleBottom, Face: fonts.Percent},
		{Text: DiscountLabel, X: centerX, Y: centerY + percentGap, Anchor: typeset.AnchorMiddleTop, Face: fonts.Caption},
	}
	if unit != "" {
		captionWidth := typeset.MeasureWidth(DiscountLabel, fonts.Caption)
		runs = append(runs, Run{
			Text:   unit,
			X:      centerX + float64(captionWidth)/2 + percentUnitGap,
			Y:      centerY + percentGap,
			Anchor: typeset.AnchorLeftTop,
			Face:   fonts.PercentUnit,
		})
	}

	return Plan{Mode: ModePercentage, Runs: runs, Color: c}
}
