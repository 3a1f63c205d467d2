package imagesource

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/fastlay-project/fastlay/pkg/assembler"
	"github.com/fastlay-project/fastlay/pkg/imageutil"
)

// Local reads photos from a directory, with the same naming rules as the FTP manual directory.
type Local struct {
	Dir string
}

func (l Local) Resolve(ctx context.Context, prodCode int) (assembler.Resolved, error) {
	entries, err := os.ReadDir(l.Dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return assembler.Resolved{}, fmt.Errorf("%w: directory %s does not exist", ErrNotFound, l.Dir)
		}
		return assembler.Resolved{}, fmt.Errorf("failed to list %s: %w", l.Dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	name, ok := MatchFile(names, prodCode)
	if !ok {
		return assembler.Resolved{}, fmt.Errorf("%w: product %d in %s", ErrNotFound, prodCode, l.Dir)
	}

	path := filepath.Join(l.Dir, name)
	img, err := imageutil.Open(path)
	if err != nil {
		return assembler.Resolved{}, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return assembler.Resolved{Image: img, Source: "local:" + path}, nil
}
