package preset

import (
	"encoding/json"
	"errors"
	"fmt"
	"image/color"
	"io/fs"
	"log/slog"
	"os"

	"github.com/lucasb-eyer/go-colorful"
)

const DefaultFamily = "Arial"

// Role is the font family and color shared by every font role.
type Role struct {
	Family string
	Color  color.NRGBA
}

type DescriptionFont struct {
	Role
	Size int
}

// PriceFont sizes are pinned when non-zero; zero sizes are derived from the fitted price size.
type PriceFont struct {
	Role
	Integer int
	Cents   int
	Unit    int
}

type ObservationFont struct {
	Role
	Size int
}

type PercentageFont struct {
	Role
	Percent int
	Caption int
	Unit    int
}

// FontConfig is the typed font setup of a preset.
type FontConfig struct {
	Description DescriptionFont
	Price       PriceFont
	Observation ObservationFont
	Percentage  PercentageFont
}

// DefaultFontConfig is used for every role or field the preset does not set.
func DefaultFontConfig() FontConfig {
	role := Role{Family: DefaultFamily, Color: color.NRGBA{A: 255}}
	return FontConfig{
		Description: DescriptionFont{Role: role, Size: 14},
		Price:       PriceFont{Role: role},
		Observation: ObservationFont{Role: role, Size: 10},
		Percentage:  PercentageFont{Role: role, Percent: 20, Caption: 12, Unit: 10},
	}
}

// RawFontConfig mirrors fonts_config.json. Absent fields stay nil.
type RawFontConfig struct {
	Fonts map[string]RawRole `json:"fonts"`
}

type RawRole struct {
	FontName  *string   `json:"font-name"`
	FontColor *RawColor `json:"font-color"`

	FontSize        *int `json:"font-size"`
	RealSize        *int `json:"real-size"`
	CentSize        *int `json:"cent-size"`
	UnitSize        *int `json:"unit-size"`
	Size            *int `json:"size"`
	PorcentageSize  *int `json:"porcentage-size"`
	DescriptionSize *int `json:"description-size"`
}

// RawColor decodes [r, g, b], [r, g, b, a] or a "#RRGGBB" string.
type RawColor color.NRGBA

func (c *RawColor) UnmarshalJSON(data []byte) error {
	var hex string
	if err := json.Unmarshal(data, &hex); err == nil {
		parsed, err := colorful.Hex(hex)
		if err != nil {
			return fmt.Errorf("invalid font-color %q: %w", hex, err)
		}
		r, g, b := parsed.RGB255()
		*c = RawColor{R: r, G: g, B: b, A: 255}
		return nil
	}

	var components []int
	if err := json.Unmarshal(data, &components); err != nil {
		return fmt.Errorf("invalid font-color %s: %w", data, err)
	}
	if len(components) == 3 {
		components = append(components, 255)
	}
	if len(components) != 4 {
		return fmt.Errorf("font-color must have 3 or 4 components, got %d", len(components))
	}
	for _, v := range components {
		if v < 0 || v > 255 {
			return fmt.Errorf("font-color component %d out of range", v)
		}
	}
	*c = RawColor{R: uint8(components[0]), G: uint8(components[1]), B: uint8(components[2]), A: uint8(components[3])}
	return nil
}

// Keys of fonts_config.json. The misspelled keys are the ones presets ship with;
// the correct spellings are accepted as well.
var roleKeys = map[string][]string{
	"description": {"description"},
	"price":       {"price"},
	"observation": {"obsevation", "observation"},
	"percentage":  {"porcentage", "percentage"},
}

func (r RawFontConfig) role(name string) RawRole {
	for _, key := range roleKeys[name] {
		if role, ok := r.Fonts[key]; ok {
			return role
		}
	}
	return RawRole{}
}

// MergeFontConfig overlays the fields present in raw onto defaults.
func MergeFontConfig(raw RawFontConfig, defaults FontConfig) FontConfig {
	merged := defaults

	description := raw.role("description")
	merged.Description.Role = mergeRole(description, defaults.Description.Role)
	mergeInt(&merged.Description.Size, description.FontSize)

	price := raw.role("price")
	merged.Price.Role = mergeRole(price, defaults.Price.Role)
	mergeInt(&merged.Price.Integer, price.RealSize)
	mergeInt(&merged.Price.Cents, price.CentSize)
	mergeInt(&merged.Price.Unit, price.UnitSize)

	observation := raw.role("observation")
	merged.Observation.Role = mergeRole(observation, defaults.Observation.Role)
	mergeInt(&merged.Observation.Size, observation.Size)

	percentage := raw.role("percentage")
	merged.Percentage.Role = mergeRole(percentage, defaults.Percentage.Role)
	mergeInt(&merged.Percentage.Percent, percentage.PorcentageSize)
	mergeInt(&merged.Percentage.Caption, percentage.DescriptionSize)
	mergeInt(&merged.Percentage.Unit, percentage.UnitSize)

	return merged
}

func mergeRole(raw RawRole, defaults Role) Role {
	role := defaults
	if raw.FontName != nil && *raw.FontName != "" {
		role.Family = *raw.FontName
	}
	if raw.FontColor != nil {
		role.Color = color.NRGBA(*raw.FontColor)
	}
	return role
}

func mergeInt(dst *int, v *int) {
	if v != nil && *v > 0 {
		*dst = *v
	}
}

// LoadFontConfig reads fonts_config.json. A missing or malformed file yields the defaults.
func LoadFontConfig(path string, logger *slog.Logger) FontConfig {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logger.Info("font config not found, using defaults", slog.String("path", path))
		} else {
			logger.Warn("failed to read font config, using defaults", slog.String("path", path), slog.Any("err", err))
		}
		return DefaultFontConfig()
	}

	var raw RawFontConfig
	if err := json.Unmarshal(data, &raw); err != nil {
		logger.Warn("failed to decode font config, using defaults", slog.String("path", path), slog.Any("err", err))
		return DefaultFontConfig()
	}
	return MergeFontConfig(raw, DefaultFontConfig())
}
