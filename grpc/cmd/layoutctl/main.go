// Command layoutctl generates layouts and grids from the command line.
//
//	layoutctl product -code 4711 -price 102,99 -desc "batata mccain 2,5kg" -preset padrao
//	layoutctl grid spec.json out.png
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/golang/freetype/truetype"
	"github.com/ridge/must/v2"

	"github.com/fastlay-project/fastlay/grpc/cmd/internal/wiring"
	"github.com/fastlay-project/fastlay/grpc/impl"
	"github.com/fastlay-project/fastlay/grpc/impl/font"
	"github.com/fastlay-project/fastlay/pkg/assembler"
	"github.com/fastlay-project/fastlay/pkg/config"
	"github.com/fastlay-project/fastlay/pkg/env"
	"github.com/fastlay-project/fastlay/pkg/grid"
	"github.com/fastlay-project/fastlay/pkg/imageutil"
	"github.com/fastlay-project/fastlay/pkg/log"
	"github.com/fastlay-project/fastlay/pkg/price"
)

const usage = `usage:
  layoutctl [-config file] product -code N -price P -desc TEXT -preset NAME [flags]
  layoutctl [-config file] grid [-assets dir] spec.json out.png`

func main() {
	configPath := flag.String("config", "", "YAML config file (defaults to $FASTLAY_CONFIG)")
	flag.Usage = func() { fmt.Fprintln(os.Stderr, usage) }
	flag.Parse()
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	env.Load()
	cfg, err := loadConfig(*configPath, flag.Arg(0))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger := log.Init(cfg.Logging.Options())

	ctx := context.Background()
	switch flag.Arg(0) {
	case "product":
		err = runProduct(ctx, cfg, logger, flag.Args()[1:])
	case "grid":
		err = runGrid(cfg, logger, flag.Args()[1:])
	default:
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		logger.Error("layoutctl failed", slog.String("command", flag.Arg(0)), slog.Any("err", err))
		os.Exit(1)
	}
}

// loadConfig skips image source validation for grids, which never resolve photos.
func loadConfig(path, command string) (config.Config, error) {
	if command != "grid" {
		return config.Load(path)
	}
	cfg, err := config.Load(path)
	if errors.Is(err, config.ErrInvalidConfig) {
		cfg = config.Defaults()
		config.ApplyEnv(&cfg)
		return cfg, nil
	}
	return cfg, err
}

func runProduct(ctx context.Context, cfg config.Config, logger *slog.Logger, args []string) error {
	fs := flag.NewFlagSet("product", flag.ExitOnError)
	code := fs.Int("code", 0, "product code")
	rawPrice := fs.String("price", "", "price, e.g. 102,99 or 0,25 for 25%")
	description := fs.String("desc", "", "product description")
	presetName := fs.String("preset", "", "preset name")
	client := fs.String("client", assembler.DefaultClient, "client")
	unit := fs.String("tipo", "", "unit label, e.g. KG")
	seal := fs.String("selo", "", "seal")
	observation := fs.String("obs", "", "observation text")
	featured := fs.Bool("destaque", false, "featured layout")
	out := fs.String("out", cfg.OutputDir, "output directory")
	force := fs.Bool("force", false, "overwrite an existing layout")
	must.OK(fs.Parse(args))

	if *code == 0 || *rawPrice == "" || *description == "" || *presetName == "" {
		return errors.New("-code, -price, -desc and -preset are required")
	}

	app, err := wiring.Build(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer app.Close()

	path, written, err := app.Assembler.ProcessToDir(ctx, assembler.Request{
		ProdCode:    *code,
		Price:       price.Value(*rawPrice, logger),
		Description: *description,
		Preset:      *presetName,
		Client:      *client,
		Unit:        *unit,
		Seal:        *seal,
		Observation: *observation,
		Featured:    *featured,
	}, *out, *force)
	if err != nil {
		return err
	}
	logger.Info("layout ready", slog.String("path", path), slog.Bool("written", written))
	return nil
}

func runGrid(cfg config.Config, logger *slog.Logger, args []string) error {
	fs := flag.NewFlagSet("grid", flag.ExitOnError)
	assets := fs.String("assets", "", "directory image_path values are relative to (defaults to the spec's directory)")
	must.OK(fs.Parse(args))
	if fs.NArg() != 2 {
		return errors.New(usage)
	}
	specPath, outPath := fs.Arg(0), fs.Arg(1)

	data, err := os.ReadFile(specPath)
	if err != nil {
		return fmt.Errorf("failed to read grid spec: %w", err)
	}
	spec, err := grid.ParseSpec(data)
	if err != nil {
		return err
	}

	root := *assets
	if root == "" {
		root = filepath.Dir(specPath)
	}
	err = grid.LoadImages(spec, func(ref string) (image.Image, error) {
		f, err := os.OpenInRoot(root, ref)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return imageutil.Decode(f)
	})
	if err != nil {
		logger.Warn("some grid images could not be loaded", slog.Any("err", err))
	}

	img, err := grid.Render(spec, gridFont(cfg, logger))
	if err != nil {
		return err
	}
	encoded, err := imageutil.EncodePNG(img)
	if err != nil {
		return err
	}
	if err := os.WriteFile(outPath, encoded, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", outPath, err)
	}
	w, h := spec.Size()
	logger.Info("grid rendered", slog.String("path", outPath), slog.Int("width", w), slog.Int("height", h))
	return nil
}

// gridFont returns the grid font family of the font directory, or nil for the built-in face.
func gridFont(cfg config.Config, logger *slog.Logger) *truetype.Font {
	fonts, err := font.New(cfg.FontsDir, logger)
	if err != nil {
		logger.Warn("fonts unavailable, using the built-in face", slog.Any("err", err))
		return nil
	}
	return fonts.GetFont(impl.GridFontFamily)
}
