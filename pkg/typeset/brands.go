package typeset

import (
	"encoding/json"
	"errors"
	"io/fs"
	"log/slog"
	"os"
)

// DefaultBrands is used when no brand file can be read.
var DefaultBrands = []string{
	"faz & forno", "chef's own", "chef&co", "chef e co", "chef & co",
	"d´accord", "fritz & frida", "mr. fries", "mr.fries",
	"raízes de minas", "porto alegre", "grand minas", "pastry pride", "mar e mar",
}

type brandFile struct {
	Marcas []string `json:"marcas"`
}

// LoadBrands reads the brand phrases from a JSON file of the form {"marcas": [...]}.
// A missing or corrupt file, or one without the "marcas" key, yields DefaultBrands.
func LoadBrands(path string, logger *slog.Logger) []string {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logger.Info("brand file not found, using default brands", slog.String("path", path))
		} else {
			logger.Warn("failed to read brand file, using default brands", slog.String("path", path), slog.Any("err", err))
		}
		return DefaultBrands
	}

	var file brandFile
	if err := json.Unmarshal(data, &file); err != nil {
		logger.Warn("failed to decode brand file, using default brands", slog.String("path", path), slog.Any("err", err))
		return DefaultBrands
	}
	if file.Marcas == nil {
		return DefaultBrands
	}
	logger.Debug("brands loaded", slog.String("path", path), slog.Int("count", len(file.Marcas)))
	return file.Marcas
}
