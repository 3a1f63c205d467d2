// Package wiring builds the layout engine and its collaborators from a config.Config.
// The gRPC server and layoutctl share it.
package wiring

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	gcs "cloud.google.com/go/storage"

	"github.com/fastlay-project/fastlay/grpc/impl/catalog"
	"github.com/fastlay-project/fastlay/grpc/impl/font"
	"github.com/fastlay-project/fastlay/grpc/impl/imagesource"
	"github.com/fastlay-project/fastlay/grpc/impl/requestlog"
	"github.com/fastlay-project/fastlay/grpc/impl/storage"
	"github.com/fastlay-project/fastlay/pkg/assembler"
	"github.com/fastlay-project/fastlay/pkg/config"
	"github.com/fastlay-project/fastlay/pkg/preset"
	"github.com/fastlay-project/fastlay/pkg/typeset"
)

type App struct {
	Config    config.Config
	Presets   *preset.Store
	Fonts     font.FontProvider
	Assembler *assembler.Assembler

	// Nil when no database is configured.
	Requests *requestlog.Store
	Finder   *catalog.Finder

	// Nil when no bucket is configured.
	Storage storage.Client

	closers []func() error
}

// Build resolves secrets and opens every configured collaborator. Close releases them.
func Build(ctx context.Context, cfg config.Config, logger *slog.Logger) (_ *App, err error) {
	app := &App{Config: cfg}
	defer func() {
		if err != nil {
			app.Close()
		}
	}()

	if cfg.NeedsSecrets() {
		if err := app.resolveSecrets(ctx); err != nil {
			return nil, err
		}
	}

	app.Fonts, err = font.New(app.Config.FontsDir, logger.With(slog.String("component", "font")))
	if err != nil {
		return nil, err
	}
	logger.Info("fonts loaded", slog.String("dir", app.Config.FontsDir), slog.Any("families", app.Fonts.Families()))
	app.Presets = preset.NewStore(app.Config.PresetsDir, app.Config.FontsDir, logger.With(slog.String("component", "preset")))

	if app.needsBucket() {
		client, err := gcs.NewClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to create storage client: %w", err)
		}
		app.closers = append(app.closers, client.Close)
		app.Storage = storage.New(client)
	}

	images, err := app.imageSources(ctx, logger)
	if err != nil {
		return nil, err
	}

	if app.Config.DB.Driver != "" {
		if err := app.openDatabase(ctx); err != nil {
			return nil, err
		}
	}

	app.Assembler = assembler.New(assembler.Config{
		Presets: app.Presets,
		Images:  images,
		Fonts:   app.Fonts,
		Wrapper: typeset.NewWrapper(typeset.LoadBrands(app.Config.BrandsFile, logger)),
		Logger:  logger.With(slog.String("component", "assembler")),
	})
	return app, nil
}

func (a *App) resolveSecrets(ctx context.Context) error {
	client, err := secretmanager.NewClient(ctx)
	if err != nil {
		return fmt.Errorf("failed to create secret manager client: %w", err)
	}
	defer client.Close()
	return a.Config.ResolveSecrets(ctx, config.NewGCPSecrets(client, a.Config.GCPProjectID))
}

func (a *App) needsBucket() bool {
	if a.Config.GCS.LayoutBucket != "" {
		return true
	}
	for _, name := range a.Config.Images.Sources {
		if name == "gcs" {
			return true
		}
	}
	return false
}

// imageSources chains the configured photo sources in their configured order.
func (a *App) imageSources(ctx context.Context, logger *slog.Logger) (*imagesource.Chain, error) {
	cfg := a.Config
	retry := imagesource.Retry{Interval: cfg.BackoffInterval, MaxRetries: uint64(cfg.MaxRetries)}
	chain := imagesource.NewChain(logger.With(slog.String("component", "imagesource")))

	for _, name := range cfg.Images.Sources {
		switch name {
		case "ftp":
			chain.Add(name, imagesource.NewFTP(imagesource.FTPConfig{
				Host:        cfg.FTP.Host,
				User:        cfg.FTP.User,
				Password:    cfg.FTP.Password,
				Timeout:     cfg.FTP.Timeout,
				ProductsDir: cfg.FTP.ProductsDir,
				ManualDir:   cfg.FTP.ManualDir,
				Retry:       retry,
			}, logger.With(slog.String("component", "ftp"))))
		case "gcs":
			chain.Add(name, imagesource.GCS{
				Client: a.Storage,
				Bucket: cfg.GCS.ImageBucket,
				Prefix: cfg.GCS.ImagePrefix,
				Retry:  retry,
			})
		case "drive":
			source, err := imagesource.NewDrive(ctx, cfg.Drive.CredentialsFile, cfg.Drive.FolderID)
			if err != nil {
				return nil, err
			}
			chain.Add(name, source)
		case "local":
			chain.Add(name, imagesource.Local{Dir: cfg.Images.LocalDir})
		default:
			return nil, fmt.Errorf("%w: unknown image source %q", config.ErrInvalidConfig, name)
		}
	}
	if chain.Len() == 0 {
		return nil, fmt.Errorf("%w: no image source configured", config.ErrInvalidConfig)
	}
	return chain, nil
}

func (a *App) openDatabase(ctx context.Context) error {
	db := a.Config.DB
	requests, err := requestlog.Open(ctx, db.SQLDriver(), db.DSN())
	if err != nil {
		return err
	}
	a.closers = append(a.closers, requests.Close)
	a.Requests = requests

	a.Finder = catalog.NewFinder(requests.DB(), requests.Driver())
	return a.Finder.EnsureSchema(ctx)
}

func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}
