package assembler

import (
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"runtime/debug"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"

	"github.com/fastlay-project/fastlay/pkg/imageutil"
	"github.com/fastlay-project/fastlay/pkg/preset"
	"github.com/fastlay-project/fastlay/pkg/price"
	"github.com/fastlay-project/fastlay/pkg/typeset"
)

// Layout geometry in template pixels.
const (
	// The product photo is scaled to ProductWidth, capped at ProductMaxWidth x ProductMaxHeight,
	// and pasted at the template center moved by the product offset.
	ProductWidth     = 370
	ProductMaxWidth  = 550
	ProductMaxHeight = 600
	ProductOffsetX   = 0
	ProductOffsetY   = -80

	PriceBarX = 20
	PriceBarY = 350
	// Fraction of the template width the price bar is scaled to.
	PriceBarRatio = 0.5

	// The description block starts below DescriptionY plus the price bar height.
	DescriptionX = 0
	DescriptionY = 400
	// Fraction of the template width available to description lines.
	DescriptionRatio = 0.7
)

// Observation bar layout.
const (
	SealExclusive = "exclusivo no site"

	observationSpacing        = 3
	observationLineGap        = 2
	observationBottomMargin   = 60
	observationFeaturedY      = 110
	observationFeaturedOffset = 10
	observationOffsetX        = -5
)

// compose paints the layout. Panics are recovered and reported as ErrComposition,
// so a partial canvas never leaves this function.
func (a *Assembler) compose(r *run, p *preset.Preset, loaded assets, product image.Image) (canvas image.Image, anchor image.Point, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("panic while composing layout", slog.Any("panic", rec), slog.String("stack", string(debug.Stack())))
			canvas, anchor, err = nil, image.Point{}, fmt.Errorf("%w: %v", ErrComposition, rec)
		}
	}()

	faces := &faceSet{}
	defer faces.close()

	bounds := loaded.template.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	priceBar := imageutil.Resize(loaded.priceBar, int(float64(width)*PriceBarRatio), width, height)
	r.handles.hold("price_bar_resized", priceBar)
	barSize := priceBar.Bounds().Size()

	photo := imageutil.Resize(product, ProductWidth, ProductMaxWidth, ProductMaxHeight)
	r.handles.hold("product_resized", photo)

	dc := gg.NewContext(width, height)
	r.handles.hold("canvas", dc)
	dc.DrawImage(loaded.template, -bounds.Min.X, -bounds.Min.Y)

	photoSize := photo.Bounds().Size()
	dc.DrawImage(photo,
		(width-photoSize.X)/2+ProductOffsetX,
		(height-photoSize.Y)/2+ProductOffsetY)

	dc.DrawImage(priceBar, PriceBarX, PriceBarY)

	cfg := p.Fonts
	description := faces.open(a.font(cfg.Description.Family), cfg.Description.Size)
	a.drawDescription(dc, r.req.Description, width, barSize.Y, description, cfg.Description)

	bar := image.Rect(PriceBarX, PriceBarY, PriceBarX+barSize.X, PriceBarY+barSize.Y)
	anchor = price.Render(dc, r.req.Price, r.req.Unit, bar, a.priceFonts(r, faces, cfg, barSize), price.Colors{
		Currency:   cfg.Price.Color,
		Percentage: cfg.Percentage.Color,
	})

	if loaded.observationBar != nil {
		observation := faces.open(a.font(cfg.Observation.Family), cfg.Observation.Size)
		a.drawObservations(dc, r.req, loaded.observationBar, barSize.X, observation, cfg.Observation.Color)
	}

	r.handles.drop("product_resized")
	r.handles.drop("price_bar_resized")
	return dc.Image(), anchor, nil
}

// priceFonts sizes the currency fonts from the fitted reference price unless the preset pins them.
func (a *Assembler) priceFonts(r *run, faces *faceSet, cfg preset.FontConfig, barSize image.Point) price.Fonts {
	priceFont := a.font(cfg.Price.Family)
	fit := typeset.FitSize(price.ReferenceText(r.req.Price), barSize.X, barSize.Y, priceFont)
	sizes := price.ScaledSizes(fit)
	if cfg.Price.Integer > 0 {
		sizes.Integer = cfg.Price.Integer
	}
	if cfg.Price.Cents > 0 {
		sizes.Cents = cfg.Price.Cents
	}
	if cfg.Price.Unit > 0 {
		sizes.Unit = cfg.Price.Unit
	}
	sizes = sizes.Adjusted(r.req.Price)
	r.logger.Debug("price fonts sized", slog.Int("fit", fit), slog.Int("integer", sizes.Integer),
		slog.Int("cents", sizes.Cents), slog.Int("unit", sizes.Unit))

	percentFont := a.font(cfg.Percentage.Family)
	return price.Fonts{
		Integer:     faces.open(priceFont, sizes.Integer),
		Cents:       faces.open(priceFont, sizes.Cents),
		Unit:        faces.open(priceFont, sizes.Unit),
		Percent:     faces.open(percentFont, cfg.Percentage.Percent),
		Caption:     faces.open(percentFont, cfg.Percentage.Caption),
		PercentUnit: faces.open(percentFont, cfg.Percentage.Unit),
	}
}

// drawDescription draws the wrapped description centered on the template, bottom line first,
// so the block grows upwards from below the price bar.
func (a *Assembler) drawDescription(dc *gg.Context, text string, width, barHeight int, face typeset.Face, cfg preset.DescriptionFont) {
	lines := a.wrapper.Wrap(text, int(float64(width)*DescriptionRatio), face, 0)
	gap := cfg.Size

	dc.SetColor(cfg.Color)
	x := float64(DescriptionX) + float64(width)/2
	y := DescriptionY + barHeight + len(lines)*gap
	for i := len(lines) - 1; i >= 0; i-- {
		typeset.DrawText(dc, face, lines[i], x, float64(y), typeset.AnchorMiddleMiddle)
		y -= gap
	}
}

// drawObservations pastes one observation bar per item, the group centered at three quarters
// of the width near the bottom, or next to the price bar on featured layouts.
func (a *Assembler) drawObservations(dc *gg.Context, req Request, bar image.Image, maxWidth int, face typeset.Face, c color.Color) {
	items := observations(req)
	if len(items) == 0 {
		return
	}
	barW, barH := bar.Bounds().Dx(), bar.Bounds().Dy()
	total := len(items)*barW + (len(items)-1)*observationSpacing

	var centerX, y int
	if req.Featured {
		centerX = PriceBarX + maxWidth - total/2 + observationFeaturedOffset
		y = observationFeaturedY
	} else {
		centerX = dc.Width()/2 + dc.Width()/4 + observationOffsetX
		y = dc.Height() - barH - observationBottomMargin
	}
	startX := centerX - total/2

	dc.SetColor(c)
	for i, item := range items {
		x := startX + i*(barW+observationSpacing)
		dc.DrawImage(bar, x, y)

		lines := a.wrapper.Wrap(item, maxWidth, face, 0)
		if len(lines) == 0 {
			continue
		}
		_, lineHeight := typeset.MeasureBox(lines[0], face)
		blockHeight := lineHeight*len(lines) + observationLineGap*(len(lines)-1)

		textX := float64(x + barW/2)
		offset := floorHalf(-blockHeight)
		for _, line := range lines {
			typeset.DrawText(dc, face, line, textX, float64(y+barH/2+offset), typeset.AnchorMiddleMiddle)
			offset += lineHeight + observationLineGap
		}
	}
}

func floorHalf(v int) int {
	if v < 0 {
		return -((-v + 1) / 2)
	}
	return v / 2
}

func (a *Assembler) font(family string) *truetype.Font {
	if a.fonts != nil {
		if f := a.fonts.GetFont(family); f != nil {
			return f
		}
	}
	return typeset.DefaultFont()
}

// faceSet closes every face opened during a run.
type faceSet struct {
	faces []typeset.Face
}

func (s *faceSet) open(f *truetype.Font, size int) typeset.Face {
	face := typeset.NewFace(f, float64(max(size, 1)))
	s.faces = append(s.faces, face)
	return face
}

func (s *faceSet) close() {
	for _, face := range s.faces {
		face.Close()
	}
	s.faces = nil
}
