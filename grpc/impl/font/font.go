package font

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/golang/freetype/truetype"
)

type FontProvider interface {
	// Returns the parsed font of a family, or nil when the family is unknown.
	GetFont(family string) *truetype.Font
	// Families lists the loaded families, sorted.
	Families() []string
}

type fontProvider struct {
	basePath string
	logger   *slog.Logger

	mu    sync.RWMutex
	fonts map[string]*truetype.Font
}

// New parses every .ttf file under basePath. A family is the file name without its
// extension, matched case-insensitively, so "Arial.ttf" serves the family "arial".
func New(basePath string, logger *slog.Logger) (FontProvider, error) {
	fp := &fontProvider{
		basePath: basePath,
		logger:   logger,
		fonts:    map[string]*truetype.Font{},
	}

	entries, err := os.ReadDir(basePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read font directory: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".ttf") {
			continue
		}
		path := filepath.Join(basePath, entry.Name())
		f, err := parseFontFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load font %s: %w", entry.Name(), err)
		}
		fp.fonts[familyKey(entry.Name())] = f
	}
	logger.Info("fonts loaded", slog.String("dir", basePath), slog.Int("count", len(fp.fonts)))
	return fp, nil
}

func (fp *fontProvider) GetFont(family string) *truetype.Font {
	key := familyKey(family)
	fp.mu.RLock()
	f, ok := fp.fonts[key]
	fp.mu.RUnlock()
	if ok {
		return f
	}

	// Font configs may name a file that was added after startup.
	path := filepath.Join(fp.basePath, strings.TrimSuffix(family, filepath.Ext(family))+".ttf")
	f, err := parseFontFile(path)
	if err != nil {
		fp.logger.Warn("font family not found, using the default font", slog.String("family", family))
		return nil
	}
	fp.mu.Lock()
	fp.fonts[key] = f
	fp.mu.Unlock()
	return f
}

func (fp *fontProvider) Families() []string {
	fp.mu.RLock()
	defer fp.mu.RUnlock()
	names := make([]string, 0, len(fp.fonts))
	for name := range fp.fonts {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func familyKey(name string) string {
	name = strings.TrimSpace(name)
	if strings.EqualFold(filepath.Ext(name), ".ttf") {
		name = strings.TrimSuffix(name, filepath.Ext(name))
	}
	return strings.ToLower(name)
}

func parseFontFile(path string) (*truetype.Font, error) {
	fontBytes, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return truetype.Parse(fontBytes)
}
