package typeset

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"golang.org/x/image/font/basicfont"
)

// basicfont advances 7px per glyph and each glyph box is 6px wide, so n glyphs measure 7n-1.
func fixedFace() Face {
	return Face{Face: basicfont.Face7x13, Size: 13}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestMeasureWidth(t *testing.T) {
	if got := MeasureWidth("ab cd", fixedFace()); got != 34 {
		t.Fatalf("MeasureWidth() = %d, want 34", got)
	}
	if got := MeasureWidth("", fixedFace()); got != 0 {
		t.Fatalf("MeasureWidth(empty) = %d, want 0", got)
	}
}

func TestMeasureWidthFallback(t *testing.T) {
	face := Face{Size: 10}
	if got := MeasureWidth("abcd", face); got != 24 {
		t.Fatalf("MeasureWidth() = %d, want 24", got)
	}
	if got := MeasureWidth("ação", face); got != 24 {
		t.Fatalf("MeasureWidth() counts bytes instead of runes: %d", got)
	}
}

func TestMeasureWithTrueTypeFace(t *testing.T) {
	face := NewFace(DefaultFont(), 40)
	defer face.Close()

	short := MeasureWidth("R$", face)
	long := MeasureWidth("R$ 102,99", face)
	if short <= 0 || long <= short {
		t.Fatalf("unexpected widths: short=%d long=%d", short, long)
	}
	_, height := MeasureBox("102", face)
	if height <= 0 || height > 40 {
		t.Fatalf("unexpected height %d for 40pt digits", height)
	}
}

func TestWrapEmpty(t *testing.T) {
	w := NewWrapper(DefaultBrands)
	if lines := w.Wrap("   ", 100, fixedFace(), 0); len(lines) != 0 {
		t.Fatalf("Wrap(blank) = %q, want no lines", lines)
	}
}

func TestWrapFitsBudget(t *testing.T) {
	w := NewWrapper(nil)
	face := NewFace(DefaultFont(), 24)
	defer face.Close()

	description := "batata pré frita corte fino congelado mccain 2,5kg"
	lines := w.Wrap(description, 300, face, 0)
	if len(lines) == 0 {
		t.Fatal("expected at least one line")
	}
	for _, line := range lines {
		if line != strings.ToUpper(line) {
			t.Errorf("line %q is not upper-cased", line)
		}
		if MeasureWidth(line, face) > 300 && strings.Contains(line, " ") {
			t.Errorf("line %q is %dpx wide, budget is 300px", line, MeasureWidth(line, face))
		}
	}
	if got := strings.Join(lines, " "); got != strings.ToUpper(description) {
		t.Fatalf("wrapped text %q lost or reordered words", got)
	}
}

func TestWrapMeasuresUpperCase(t *testing.T) {
	w := NewWrapper(DefaultBrands)
	face := NewFace(DefaultFont(), 24)
	defer face.Close()

	description := "batata pré frita corte fino congelado mccain 2,5kg leite condensado integral"
	for width := 120; width <= 700; width += 10 {
		for _, line := range w.Wrap(description, width, face, 0) {
			if strings.Contains(line, " ") && MeasureWidth(line, face) > width {
				t.Fatalf("width %d: line %q measures %dpx", width, line, MeasureWidth(line, face))
			}
		}
	}
}

func TestWrapGreedy(t *testing.T) {
	w := NewWrapper(nil)
	// 63px holds 9 glyphs.
	got := w.Wrap("aaaa bbbb cccc d", 63, fixedFace(), 0)
	want := []string{"AAAA BBBB", "CCCC D"}
	if !slices.Equal(got, want) {
		t.Fatalf("Wrap() = %q, want %q", got, want)
	}
}

func TestWrapLongTokenStaysAlone(t *testing.T) {
	w := NewWrapper(nil)
	got := w.Wrap("supercalifragilistic ab", 35, fixedFace(), 0)
	want := []string{"SUPERCALIFRAGILISTIC", "AB"}
	if !slices.Equal(got, want) {
		t.Fatalf("Wrap() = %q, want %q", got, want)
	}
}

func TestWrapReflowsOrphan(t *testing.T) {
	w := NewWrapper(nil)
	// Greedy packing uses 63+14px (11 glyphs) and leaves "ccccc" alone; the re-flow packs
	// the first line against 63px (9 glyphs).
	got := w.Wrap("aaaaa bbbbb ccccc", 63, fixedFace(), 14)
	want := []string{"AAAAA", "BBBBB CCCCC"}
	if !slices.Equal(got, want) {
		t.Fatalf("Wrap() = %q, want %q", got, want)
	}
}

func TestWrapNoMergeableOrphan(t *testing.T) {
	w := NewWrapper(nil)
	face := fixedFace()
	for width := 14; width <= 200; width += 7 {
		lines := w.Wrap("leite condensado integral lata 395g x", width, face, 0)
		n := len(lines)
		if n < 2 || strings.Contains(lines[n-1], " ") {
			continue
		}
		combined := lines[n-2] + " " + lines[n-1]
		if MeasureWidth(combined, face) <= width {
			t.Fatalf("width %d: orphan %q could have been merged into %q", width, lines[n-1], lines[n-2])
		}
	}
}

func TestWrapKeepsBrandsAtomic(t *testing.T) {
	w := NewWrapper([]string{"chef & co", "mar e mar"})
	face := fixedFace()
	for width := 7; width <= 300; width += 7 {
		lines := w.Wrap("molho especial Chef & Co tradicional peixe mar e mar 1kg", width, face, 0)
		for _, line := range lines {
			if strings.Contains(line, "CHEF") && !strings.Contains(line, "CHEF & CO") {
				t.Fatalf("width %d: brand split in %q", width, lines)
			}
			if strings.HasPrefix(line, "E MAR") || strings.HasSuffix(line, "MAR E") {
				t.Fatalf("width %d: brand split in %q", width, lines)
			}
		}
	}
}

func TestWrapFirstBrandMatchWins(t *testing.T) {
	w := NewWrapper([]string{"chef & co", "chef"})
	tokens := w.tokenize(strings.Fields("chef & co chef"))
	want := []string{"chef & co", "chef"}
	if !slices.Equal(tokens, want) {
		t.Fatalf("tokenize() = %q, want %q", tokens, want)
	}
}

func TestFitSizeMonotonic(t *testing.T) {
	f := DefaultFont()
	previous := 0
	for _, box := range [][2]int{{40, 20}, {80, 40}, {120, 60}, {200, 60}, {200, 120}, {400, 200}} {
		size := FitSize("102,99", box[0], box[1], f)
		if size < previous {
			t.Fatalf("FitSize(%v) = %d, smaller than %d for a smaller box", box, size, previous)
		}
		previous = size
	}
}

func TestFitSizeIsLargestFitting(t *testing.T) {
	f := DefaultFont()
	size := FitSize("102,99", 200, 80, f)
	if size <= 0 {
		t.Fatalf("FitSize() = %d, want a positive size", size)
	}

	fits := NewFace(f, float64(size))
	w, h := MeasureBox("102,99", fits)
	if w > 200 || h > 80 {
		t.Fatalf("size %d overflows: %dx%d", size, w, h)
	}

	overflows := NewFace(f, float64(size+1))
	w, h = MeasureBox("102,99", overflows)
	if w <= 200 && h <= 80 {
		t.Fatalf("size %d still fits, fitter stopped early", size+1)
	}
}

func TestFitSizeTinyBox(t *testing.T) {
	if size := FitSize("102,99", 1, 1, DefaultFont()); size != 0 {
		t.Fatalf("FitSize() = %d, want 0", size)
	}
}

func TestLoadBrands(t *testing.T) {
	dir := t.TempDir()
	logger := discardLogger()

	if got := LoadBrands(filepath.Join(dir, "missing.json"), logger); !slices.Equal(got, DefaultBrands) {
		t.Fatalf("missing file: got %q", got)
	}

	corrupt := filepath.Join(dir, "corrupt.json")
	if err := os.WriteFile(corrupt, []byte("{marcas"), 0o644); err != nil {
		t.Fatal(err)
	}
	if got := LoadBrands(corrupt, logger); !slices.Equal(got, DefaultBrands) {
		t.Fatalf("corrupt file: got %q", got)
	}

	valid := filepath.Join(dir, "marcas.json")
	if err := os.WriteFile(valid, []byte(`{"marcas": ["seara gourmet"]}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if got := LoadBrands(valid, logger); !slices.Equal(got, []string{"seara gourmet"}) {
		t.Fatalf("valid file: got %q", got)
	}
}
