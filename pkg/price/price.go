// Package price parses price input and draws the price badge text.
package price

import (
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
)

// Values strictly between zero and this threshold are discounts, rendered as a percentage.
const PercentageThreshold = 0.40

// Role multipliers applied to the fitted reference size.
const (
	IntegerScale = 0.7
	CentsScale   = 0.4
	UnitScale    = 0.15
)

// IsPercentage reports whether the value is rendered in percentage-discount mode.
func IsPercentage(value float64) bool {
	return value > 0 && value < PercentageThreshold
}

// Adjustment is the flat size correction added to currency fonts after fitting.
// High prices get a smaller bump. The numbers are tuned by eye and have no derivation.
func Adjustment(value float64) int {
	if value > 99 {
		return 10
	}
	return 12
}

// Parse converts a raw price such as "R$102,99", "102.99", "1.234,50" or "0.25" to a number.
// A dot after the comma, as in "1,234.50", is ambiguous and rejected.
func Parse(raw string) (float64, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimSpace(strings.TrimPrefix(strings.ToUpper(s), "R$"))
	if comma := strings.Index(s, ","); comma >= 0 {
		if strings.LastIndex(s, ".") > comma {
			return 0, fmt.Errorf("failed to parse price %q: mixed decimal separators", raw)
		}
		// Brazilian notation: dots group thousands, the comma separates cents.
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	}
	value, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse price %q: %w", raw, err)
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, fmt.Errorf("failed to parse price %q: not a finite number", raw)
	}
	return value, nil
}

// Value parses the raw price leniently: unparseable input is logged and becomes zero.
func Value(raw string, logger *slog.Logger) float64 {
	value, err := Parse(raw)
	if err != nil {
		logger.Warn("price is not numeric, using 0.00", slog.String("preco", raw), slog.Any("err", err))
		return 0
	}
	return value
}

// ReferenceText is the string the fitter sizes the price fonts against, e.g. "102,99".
func ReferenceText(value float64) string {
	return strings.Replace(strconv.FormatFloat(value, 'f', 2, 64), ".", ",", 1)
}

// Split formats the value with two decimals and returns the integer part and the
// comma-prefixed cents, e.g. ("102", ",99").
func Split(value float64) (integer string, cents string) {
	integer, fraction, _ := strings.Cut(strconv.FormatFloat(value, 'f', 2, 64), ".")
	return integer, "," + fraction
}

// Percent returns the discount label, e.g. "25%" for 0.25. Halves round to even.
func Percent(value float64) string {
	return strconv.Itoa(int(math.RoundToEven(value*100))) + "%"
}

// Sizes are the point sizes of the currency-mode fonts.
type Sizes struct {
	Integer int
	Cents   int
	Unit    int
}

// ScaledSizes derives the role sizes from the fitted reference size.
func ScaledSizes(fit int) Sizes {
	return Sizes{
		Integer: int(float64(fit) * IntegerScale),
		Cents:   int(float64(fit) * CentsScale),
		Unit:    int(float64(fit) * UnitScale),
	}
}

// Adjusted applies the flat price-dependent correction. The unit font gets one and a half times the bump.
func (s Sizes) Adjusted(value float64) Sizes {
	adj := Adjustment(value)
	return Sizes{
		Integer: s.Integer + adj,
		Cents:   s.Cents + adj,
		Unit:    s.Unit + int(float64(adj)*1.5),
	}
}
