// Package preset locates the template assets and font setup of a named layout preset.
package preset

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
)

// Asset file names inside a preset directory.
const (
	TemplateFile       = "Layout.png"
	PriceBarFile       = "Preco_bar.png"
	ObservationBarFile = "obs_bar.png"
	FontConfigFile     = "fonts_config.json"
)

// ErrAssetMissing reports a preset directory, font directory or asset file that does not exist.
var ErrAssetMissing = errors.New("asset missing")

// Preset is an opened preset. It is immutable.
type Preset struct {
	Name     string
	Dir      string
	FontsDir string
	Fonts    FontConfig
}

func (p *Preset) TemplatePath() string       { return filepath.Join(p.Dir, TemplateFile) }
func (p *Preset) PriceBarPath() string       { return filepath.Join(p.Dir, PriceBarFile) }
func (p *Preset) ObservationBarPath() string { return filepath.Join(p.Dir, ObservationBarFile) }

// Store resolves presets under Root (one directory per preset) with fonts under FontsDir.
type Store struct {
	Root     string
	FontsDir string
	Logger   *slog.Logger
}

func NewStore(root, fontsDir string, logger *slog.Logger) *Store {
	return &Store{Root: root, FontsDir: fontsDir, Logger: logger}
}

// Open resolves the named preset and reads its font config.
func (s *Store) Open(name string) (*Preset, error) {
	if name == "" || name != filepath.Base(name) || name == "." || name == ".." {
		return nil, fmt.Errorf("%w: invalid preset name %q", ErrAssetMissing, name)
	}

	dir := filepath.Join(s.Root, name)
	if !isDir(dir) {
		return nil, fmt.Errorf("%w: preset directory %s not found", ErrAssetMissing, dir)
	}
	if !isDir(s.FontsDir) {
		return nil, fmt.Errorf("%w: font directory %s not found", ErrAssetMissing, s.FontsDir)
	}

	return &Preset{
		Name:     name,
		Dir:      dir,
		FontsDir: s.FontsDir,
		Fonts:    LoadFontConfig(filepath.Join(dir, FontConfigFile), s.Logger),
	}, nil
}

// List returns the names of the available presets, sorted.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.Root)
	if err != nil {
		return nil, fmt.Errorf("failed to list presets: %w", err)
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	slices.Sort(names)
	return names, nil
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
