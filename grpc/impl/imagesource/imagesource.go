// Package imagesource finds product photos on the FTP server, in a GCS bucket,
// in a Google Drive folder or in a local directory.
package imagesource

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/fastlay-project/fastlay/pkg/assembler"
)

// ErrNotFound means the source has no photo for the product.
var ErrNotFound = errors.New("product image not found")

// Extensions accepted for manually uploaded photos, in lookup order.
var Extensions = []string{".png", ".jpg", ".jpeg", ".webp"}

// Retry configures the retries of a source's remote calls.
type Retry struct {
	Interval   time.Duration
	MaxRetries uint64
}

func (r Retry) backoff(ctx context.Context) backoff.BackOff {
	return backoff.WithContext(backoff.WithMaxRetries(backoff.NewConstantBackOff(r.Interval), r.MaxRetries), ctx)
}

// ProductFile is the canonical file name of a product photo.
func ProductFile(prodCode int) string {
	return strconv.Itoa(prodCode) + ".png"
}

// MatchFile returns the first name that is "<code>.<ext>" or "<code>-<anything>.<ext>" with
// an accepted extension. Names may carry a directory, which is ignored.
func MatchFile(names []string, prodCode int) (string, bool) {
	code := strconv.Itoa(prodCode)
	for _, name := range names {
		base := path.Base(strings.ReplaceAll(name, "\\", "/"))
		ext := path.Ext(base)
		if !isAccepted(ext) {
			continue
		}
		stem := strings.TrimSuffix(base, ext)
		if stem == code || strings.HasPrefix(stem, code+"-") {
			return base, true
		}
	}
	return "", false
}

func isAccepted(ext string) bool {
	ext = strings.ToLower(ext)
	for _, e := range Extensions {
		if e == ext {
			return true
		}
	}
	return false
}

// Chain tries its sources in order and returns the first photo found.
type Chain struct {
	sources []named
	logger  *slog.Logger
}

type named struct {
	name   string
	source assembler.ImageSource
}

func NewChain(logger *slog.Logger) *Chain {
	return &Chain{logger: logger}
}

// Add appends a source to the chain and returns the chain.
func (c *Chain) Add(name string, source assembler.ImageSource) *Chain {
	c.sources = append(c.sources, named{name: name, source: source})
	return c
}

func (c *Chain) Len() int { return len(c.sources) }

// Resolve returns ErrNotFound when no source has the photo. A failing source does not stop
// the chain; its error is returned only if no later source has the photo either.
func (c *Chain) Resolve(ctx context.Context, prodCode int) (assembler.Resolved, error) {
	var errs []error
	for _, s := range c.sources {
		resolved, err := s.source.Resolve(ctx, prodCode)
		if err == nil {
			return resolved, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return assembler.Resolved{}, ctxErr
		}
		if errors.Is(err, ErrNotFound) {
			c.logger.Debug("product image not in source", slog.String("source", s.name), slog.Int("prod_code", prodCode))
			continue
		}
		c.logger.Warn("image source failed", slog.String("source", s.name), slog.Int("prod_code", prodCode), slog.Any("err", err))
		errs = append(errs, fmt.Errorf("%s: %w", s.name, err))
	}
	if len(errs) > 0 {
		return assembler.Resolved{}, errors.Join(errs...)
	}
	return assembler.Resolved{}, fmt.Errorf("%w: product %d", ErrNotFound, prodCode)
}
