// Package assembler composes product layouts: the product photo, the price bar with its
// price text and the wrapped description, painted over a preset template.
package assembler

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/golang/freetype/truetype"

	"github.com/fastlay-project/fastlay/pkg/imageutil"
	"github.com/fastlay-project/fastlay/pkg/preset"
	"github.com/fastlay-project/fastlay/pkg/typeset"
)

const DefaultClient = "dellys"

// Request holds the already parsed input of one layout.
type Request struct {
	ID          string
	ProdCode    int
	Price       float64
	Description string
	Preset      string
	Client      string
	// Unit label such as "KG" or "UN".
	Unit        string
	Seal        string
	Observation string
	Featured    bool
}

// Resolved is a product photo found by an ImageSource.
type Resolved struct {
	Image image.Image
	// A temporary file backing the image, removed once the run ends.
	TempPath string
	// Where the image came from, for logs.
	Source string
}

// ImageSource finds the photo of a product.
type ImageSource interface {
	Resolve(ctx context.Context, prodCode int) (Resolved, error)
}

// PresetSource opens presets by name.
type PresetSource interface {
	Open(name string) (*preset.Preset, error)
}

// FontSource returns the parsed font of a family, or nil when it is unknown.
type FontSource interface {
	GetFont(family string) *truetype.Font
}

type Config struct {
	Presets PresetSource
	Images  ImageSource
	Fonts   FontSource
	Wrapper *typeset.Wrapper
	Logger  *slog.Logger

	// Optional.
	Tracker  HandleTracker
	Observer Observer
}

// Assembler is safe for concurrent use; every call to Generate owns its images and faces.
type Assembler struct {
	presets  PresetSource
	images   ImageSource
	fonts    FontSource
	wrapper  *typeset.Wrapper
	logger   *slog.Logger
	tracker  HandleTracker
	observer Observer
}

func New(cfg Config) *Assembler {
	wrapper := cfg.Wrapper
	if wrapper == nil {
		wrapper = typeset.NewWrapper(typeset.DefaultBrands)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Assembler{
		presets:  cfg.Presets,
		images:   cfg.Images,
		fonts:    cfg.Fonts,
		wrapper:  wrapper,
		logger:   logger,
		tracker:  cfg.Tracker,
		observer: cfg.Observer,
	}
}

// Generate runs one layout from photo resolution to PNG encoding. Every image taken
// during the run is released before it returns, on success and on failure.
func (a *Assembler) Generate(ctx context.Context, req Request) (layout *GeneratedLayout, err error) {
	if req.Client == "" {
		req.Client = DefaultClient
	}
	r := &run{
		req:      req,
		state:    StateInit,
		handles:  newHandles(a.tracker),
		observer: a.observer,
		logger:   a.logger.With(slog.Int("prod_code", req.ProdCode), slog.String("preset", req.Preset)),
	}
	defer r.handles.release()
	defer func() {
		if err != nil {
			r.logger.Warn("layout generation failed", slog.String("state", r.state.String()), slog.Any("err", err))
			r.transition(StateFailed)
		}
	}()

	resolved, err := a.images.Resolve(ctx, req.ProdCode)
	if resolved.TempPath != "" {
		defer removeTemp(resolved.TempPath, r.logger)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: product %d: %w", ErrSourceImageUnavailable, req.ProdCode, err)
	}
	if resolved.Image == nil {
		return nil, fmt.Errorf("%w: product %d", ErrSourceImageUnavailable, req.ProdCode)
	}
	r.handles.hold("product", resolved.Image)
	r.logger.Debug("product image resolved", slog.String("source", resolved.Source))
	r.transition(StateImageResolved)

	p, err := a.presets.Open(req.Preset)
	if err != nil {
		return nil, err
	}
	assets, err := a.loadAssets(r, p)
	if err != nil {
		return nil, err
	}
	r.transition(StateTemplateLoaded)

	canvas, anchor, err := a.compose(r, p, assets, resolved.Image)
	if err != nil {
		return nil, err
	}
	r.transition(StateComposited)

	data, err := imageutil.EncodePNG(canvas)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrComposition, err)
	}
	r.handles.drop("canvas")
	r.transition(StateSerialized)

	return &GeneratedLayout{
		Data:        data,
		Filename:    Filename(req.ProdCode),
		ContentType: ContentTypePNG,
		Request:     req,
		SealAnchor:  anchor,
	}, nil
}

// ProcessToDir generates the layout into dir. An existing layout of the product is reused
// unless force is set. It returns the file path and whether a new layout was written.
func (a *Assembler) ProcessToDir(ctx context.Context, req Request, dir string, force bool) (string, bool, error) {
	path := filepath.Join(dir, Filename(req.ProdCode))
	if !force {
		if _, err := os.Stat(path); err == nil {
			a.logger.Info("layout already exists, skipping", slog.String("path", path))
			return path, false, nil
		}
	}

	layout, err := a.Generate(ctx, req)
	if err != nil {
		return "", false, err
	}
	path, err = layout.Save(dir, true)
	if err != nil {
		return "", false, err
	}
	return path, true, nil
}

type assets struct {
	template       image.Image
	priceBar       image.Image
	observationBar image.Image
}

func (a *Assembler) loadAssets(r *run, p *preset.Preset) (assets, error) {
	var loaded assets
	var err error

	loaded.template, err = openAsset(p.TemplatePath())
	if err != nil {
		return assets{}, err
	}
	r.handles.hold("template", loaded.template)

	loaded.priceBar, err = openAsset(p.PriceBarPath())
	if err != nil {
		return assets{}, err
	}
	r.handles.hold("price_bar", loaded.priceBar)

	if len(observations(r.req)) == 0 {
		return loaded, nil
	}
	loaded.observationBar, err = openAsset(p.ObservationBarPath())
	if err != nil {
		// Observations are optional decoration; the layout is still usable without them.
		r.logger.Warn("observation bar unavailable, skipping observations", slog.Any("err", err))
		return loaded, nil
	}
	r.handles.hold("observation_bar", loaded.observationBar)
	return loaded, nil
}

func openAsset(path string) (image.Image, error) {
	img, err := imageutil.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrAssetMissing, path)
		}
		return nil, fmt.Errorf("%w: %s: %w", ErrAssetMissing, path, err)
	}
	return img, nil
}

// observations returns the texts drawn in observation bars, in order.
func observations(req Request) []string {
	var items []string
	if obs := strings.TrimSpace(req.Observation); obs != "" {
		items = append(items, obs)
	}
	if strings.Contains(strings.ToLower(req.Seal), SealExclusive) {
		items = append(items, SealExclusive)
	}
	return items
}

func removeTemp(path string, logger *slog.Logger) {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.Warn("failed to remove temporary image", slog.String("path", path), slog.Any("err", err))
	}
}
