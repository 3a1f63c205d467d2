package imagesource

import (
	"context"
	"errors"
	"fmt"
	"path"

	"github.com/cenkalti/backoff/v4"

	"github.com/fastlay-project/fastlay/grpc/impl/storage"
	"github.com/fastlay-project/fastlay/pkg/assembler"
	"github.com/fastlay-project/fastlay/pkg/imageutil"
)

// GCS reads <prefix>/<code>.png from a bucket.
type GCS struct {
	Client storage.Client
	Bucket string
	Prefix string
	Retry  Retry
}

func (g GCS) Resolve(ctx context.Context, prodCode int) (assembler.Resolved, error) {
	object := path.Join(g.Prefix, ProductFile(prodCode))
	data, err := backoff.RetryWithData(func() ([]byte, error) {
		data, err := g.Client.ReadBytes(ctx, g.Bucket, object)
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, backoff.Permanent(fmt.Errorf("%w: %w", ErrNotFound, err))
		}
		return data, err
	}, g.Retry.backoff(ctx))
	if err != nil {
		return assembler.Resolved{}, err
	}

	img, err := imageutil.DecodeBytes(data)
	if err != nil {
		return assembler.Resolved{}, fmt.Errorf("failed to decode gs://%s/%s: %w", g.Bucket, object, err)
	}
	return assembler.Resolved{Image: img, Source: fmt.Sprintf("gcs:gs://%s/%s", g.Bucket, object)}, nil
}
