package impl

import (
	"context"
	"log/slog"
	"time"

	"github.com/fastlay-project/fastlay/grpc/impl/catalog"
	"github.com/fastlay-project/fastlay/grpc/impl/font"
	"github.com/fastlay-project/fastlay/grpc/impl/requestlog"
	"github.com/fastlay-project/fastlay/grpc/impl/storage"
	pb "github.com/fastlay-project/fastlay/grpc/layoutpb"
	"github.com/fastlay-project/fastlay/pkg/assembler"
)

type server struct {
	pb.UnimplementedLayoutServiceServer

	assembler *assembler.Assembler

	// Lists the presets offered to clients.
	presets PresetLister

	// Optional. Every layout request is logged here before generation.
	requests RequestLog

	// Optional. Backs SearchProducts.
	finder ProductFinder

	// Used for drawing grid texts.
	fontProvider font.FontProvider

	// Storage is a collection of Google Cloud Storage related configurations.
	storage Storage

	// Grid specs may reference images relative to this directory. Empty disables grid images.
	gridAssetsDir string

	// Used to delay the next request when the external API fails.
	backoffDuration time.Duration

	logger *slog.Logger
}

type Storage struct {
	// A client for Google Cloud Storage.
	Client storage.Client

	// The bucket successful layouts are archived to. Empty disables the archive.
	LayoutBucket string
}

type PresetLister interface {
	List() ([]string, error)
}

type RequestLog interface {
	Save(ctx context.Context, r requestlog.Record) error
}

type ProductFinder interface {
	Find(ctx context.Context, term string, limit int, minSimilarity float64) ([]catalog.Match, error)
}

// Options carries the optional collaborators of the server.
type Options struct {
	Requests        RequestLog
	Finder          ProductFinder
	FontProvider    font.FontProvider
	Storage         Storage
	GridAssetsDir   string
	BackoffDuration time.Duration
	Logger          *slog.Logger
}

func New(assembler *assembler.Assembler, presets PresetLister, opts Options) *server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &server{
		assembler:       assembler,
		presets:         presets,
		requests:        opts.Requests,
		finder:          opts.Finder,
		fontProvider:    opts.FontProvider,
		storage:         opts.Storage,
		gridAssetsDir:   opts.GridAssetsDir,
		backoffDuration: opts.BackoffDuration,
		logger:          logger,
	}
}

func (s *server) ListPresets(ctx context.Context, req *pb.ListPresetsRequest) (*pb.ListPresetsResponse, error) {
	names, err := s.presets.List()
	if err != nil {
		s.logger.Error("failed to list presets", slog.Any("err", err))
		return nil, toStatus(err)
	}
	return &pb.ListPresetsResponse{Presets: names}, nil
}
