package impl

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/fastlay-project/fastlay/grpc/impl/catalog"
	"github.com/fastlay-project/fastlay/pkg/assembler"
	"github.com/fastlay-project/fastlay/pkg/grid"
)

// toStatus maps engine errors to gRPC status codes. Errors that already carry a status pass through.
func toStatus(err error) error {
	if _, ok := status.FromError(err); ok {
		return err
	}
	switch {
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	case errors.Is(err, assembler.ErrSourceImageUnavailable):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, assembler.ErrAssetMissing):
		return status.Error(codes.FailedPrecondition, err.Error())
	case isGridError(err), errors.Is(err, catalog.ErrEmptyQuery):
		return status.Error(codes.InvalidArgument, err.Error())
	}
	return status.Error(codes.Internal, err.Error())
}

func isGridError(err error) bool {
	for _, target := range []error{
		grid.ErrInvalidSpec,
		grid.ErrEmptyGrid,
		grid.ErrInvalidSize,
		grid.ErrInvalidSpan,
		grid.ErrOutOfBounds,
		grid.ErrOverlap,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
