package impl

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"os"

	"github.com/golang/freetype/truetype"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	pb "github.com/fastlay-project/fastlay/grpc/layoutpb"
	"github.com/fastlay-project/fastlay/pkg/assembler"
	"github.com/fastlay-project/fastlay/pkg/grid"
	"github.com/fastlay-project/fastlay/pkg/imageutil"
)

// GridFontFamily is looked up in the font provider for grid texts.
const GridFontFamily = "Arial"

var errGridImagesDisabled = errors.New("grid images are disabled")

func (s *server) RenderGrid(ctx context.Context, request *pb.RenderGridRequest) (*pb.RenderGridResponse, error) {
	if request == nil || len(request.Spec) == 0 {
		return nil, status.Error(codes.InvalidArgument, "spec is required")
	}
	spec, err := grid.ParseSpec(request.Spec)
	if err != nil {
		return nil, toStatus(err)
	}
	if err := grid.LoadImages(spec, s.openGridImage); err != nil {
		// Cells without their image are still painted.
		s.logger.Warn("some grid images could not be loaded", slog.Any("err", err))
	}

	img, err := grid.Render(spec, s.gridFont())
	if err != nil {
		return nil, toStatus(err)
	}
	data, err := imageutil.EncodePNG(img)
	if err != nil {
		s.logger.Error("failed to encode grid", slog.Any("err", err))
		return nil, status.Error(codes.Internal, codes.Internal.String())
	}

	width, height := spec.Size()
	return &pb.RenderGridResponse{
		ContentType: assembler.ContentTypePNG,
		Image:       data,
		Width:       width,
		Height:      height,
	}, nil
}

// openGridImage opens ref inside the grid assets directory; references escaping it fail.
func (s *server) openGridImage(ref string) (image.Image, error) {
	if s.gridAssetsDir == "" {
		return nil, errGridImagesDisabled
	}
	f, err := os.OpenInRoot(s.gridAssetsDir, ref)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", ref, err)
	}
	defer f.Close()
	return imageutil.Decode(f)
}

func (s *server) gridFont() *truetype.Font {
	if s.fontProvider == nil {
		return nil
	}
	return s.fontProvider.GetFont(GridFontFamily)
}
