package typeset

import (
	"slices"
	"strings"

	"github.com/fastlay-project/fastlay/pkg/utils"
)

// Wrapper breaks descriptions into lines that fit a pixel budget. Configured brand
// phrases are never split across lines. A Wrapper is immutable and safe for concurrent use.
type Wrapper struct {
	// Each brand phrase split into its lower-cased words, in configured order.
	brands [][]string
}

// NewWrapper returns a wrapper protecting the given brand phrases.
func NewWrapper(brands []string) *Wrapper {
	phrases := utils.Map(brands, func(brand string) []string {
		return strings.Fields(strings.ToLower(brand))
	})
	return &Wrapper{
		brands: utils.Filter(phrases, func(words []string) bool {
			return len(words) > 0
		}),
	}
}

// Wrap lower-cases and tokenizes the description, packs tokens greedily into lines no wider
// than maxWidth+tolerance, repairs a single-token last line and returns the lines upper-cased.
// Widths are measured on the upper-cased text, as drawn. A token wider than the budget is
// placed alone on its own line.
func (w *Wrapper) Wrap(description string, maxWidth int, face Face, tolerance int) []string {
	tokens := w.tokenize(strings.Fields(strings.ToLower(description)))
	if len(tokens) == 0 {
		return []string{}
	}

	budget := maxWidth + tolerance
	var lines [][]string
	var current []string
	for _, token := range tokens {
		candidate := append(slices.Clone(current), token)
		if len(current) > 0 && lineWidth(candidate, face) > budget {
			lines = append(lines, current)
			current = []string{token}
			continue
		}
		current = candidate
	}
	if len(current) > 0 {
		lines = append(lines, current)
	}

	lines = repairOrphan(lines, maxWidth, face, tolerance)

	return utils.Map(lines, func(line []string) string {
		return strings.ToUpper(joinTokens(line))
	})
}

// tokenize groups words into atomic tokens. At every position the brand phrases are tried
// in configured order and the first match is consumed as a single token.
func (w *Wrapper) tokenize(words []string) []string {
	tokens := make([]string, 0, len(words))
	for i := 0; i < len(words); {
		brand, found := utils.Find(w.brands, func(phrase []string) bool {
			return hasWords(words[i:], phrase)
		})
		if found {
			tokens = append(tokens, joinTokens(brand))
			i += len(brand)
			continue
		}
		tokens = append(tokens, words[i])
		i++
	}
	return tokens
}

// lineWidth measures a line the way it is drawn.
func lineWidth(tokens []string, face Face) int {
	return MeasureWidth(strings.ToUpper(joinTokens(tokens)), face)
}

func hasWords(words []string, phrase []string) bool {
	return len(words) >= len(phrase) && slices.Equal(words[:len(phrase)], phrase)
}

// repairOrphan avoids a last line holding a single token. The token is merged into the
// previous line when the result fits the budget; otherwise the two lines are re-flowed so
// the first absorbs tokens while they fit maxWidth. A re-flow that would leave an empty
// first line or an over-budget second line is discarded.
func repairOrphan(lines [][]string, maxWidth int, face Face, tolerance int) [][]string {
	n := len(lines)
	if n < 2 || len(lines[n-1]) != 1 {
		return lines
	}

	budget := maxWidth + tolerance
	previous, last := lines[n-2], lines[n-1]

	merged := append(slices.Clone(previous), last...)
	if lineWidth(merged, face) <= budget {
		return append(lines[:n-2], merged)
	}

	var first, second []string
	for i, token := range merged {
		if lineWidth(append(slices.Clone(first), token), face) <= maxWidth {
			first = append(first, token)
			continue
		}
		second = merged[i:]
		break
	}
	if len(first) == 0 {
		return lines
	}
	if len(second) > 1 && lineWidth(second, face) > budget {
		return lines
	}

	repaired := append(lines[:n-2:n-2], first)
	if len(second) > 0 {
		repaired = append(repaired, second)
	}
	return repaired
}
