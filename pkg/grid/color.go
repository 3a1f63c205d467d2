package grid

import (
	"encoding/json"
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// Color is an RGBA color that decodes from "#RRGGBB", "#RRGGBBAA", [r, g, b] or [r, g, b, a].
// Three-component forms are opaque.
type Color color.NRGBA

func RGBA(r, g, b, a uint8) Color {
	return Color{R: r, G: g, B: b, A: a}
}

// RGBA implements color.Color.
func (c Color) RGBA() (r, g, b, a uint32) {
	return color.NRGBA(c).RGBA()
}

func (c Color) MarshalJSON() ([]byte, error) {
	return json.Marshal([]uint8{c.R, c.G, c.B, c.A})
}

func (c *Color) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	var hex string
	if err := json.Unmarshal(data, &hex); err == nil {
		parsed, err := ParseHex(hex)
		if err != nil {
			return err
		}
		*c = parsed
		return nil
	}

	var components []int
	if err := json.Unmarshal(data, &components); err != nil {
		return fmt.Errorf("color must be a hex string or an array of 3 or 4 integers: %s", data)
	}
	if len(components) != 3 && len(components) != 4 {
		return fmt.Errorf("color must have 3 or 4 components, got %d", len(components))
	}
	if len(components) == 3 {
		components = append(components, 255)
	}
	for _, v := range components {
		if v < 0 || v > 255 {
			return fmt.Errorf("color component %d out of range", v)
		}
	}
	*c = RGBA(uint8(components[0]), uint8(components[1]), uint8(components[2]), uint8(components[3]))
	return nil
}

// ParseHex parses "#RRGGBB" (opaque) or "#RRGGBBAA".
func ParseHex(s string) (Color, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "#") || (len(s) != 7 && len(s) != 9) {
		return Color{}, fmt.Errorf("invalid hex color %q", s)
	}

	rgb, err := colorful.Hex(s[:7])
	if err != nil {
		return Color{}, fmt.Errorf("invalid hex color %q: %w", s, err)
	}
	r, g, b := rgb.RGB255()

	alpha := uint64(255)
	if len(s) == 9 {
		alpha, err = strconv.ParseUint(s[7:], 16, 8)
		if err != nil {
			return Color{}, fmt.Errorf("invalid alpha in hex color %q: %w", s, err)
		}
	}
	return RGBA(r, g, b, uint8(alpha)), nil
}
