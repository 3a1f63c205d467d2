package assembler

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"

	"github.com/golang/freetype/truetype"

	"github.com/fastlay-project/fastlay/pkg/preset"
)

// trackingHandles counts every handle taken and dropped by a run.
type trackingHandles struct {
	mu       sync.Mutex
	opened   map[string]int
	released map[string]int
}

func newTrackingHandles() *trackingHandles {
	return &trackingHandles{opened: map[string]int{}, released: map[string]int{}}
}

func (h *trackingHandles) Opened(name string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.opened[name]++
}

func (h *trackingHandles) Released(name string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.released[name]++
}

func (h *trackingHandles) assertBalanced(t *testing.T) {
	t.Helper()
	h.mu.Lock()
	defer h.mu.Unlock()
	for name, n := range h.opened {
		if h.released[name] != n {
			t.Errorf("handle %q opened %d times, released %d times", name, n, h.released[name])
		}
	}
	for name, n := range h.released {
		if h.opened[name] == 0 {
			t.Errorf("handle %q released %d times but never opened", name, n)
		}
	}
}

type fakeSource struct {
	resolved Resolved
	err      error
	calls    int
}

func (s *fakeSource) Resolve(ctx context.Context, prodCode int) (Resolved, error) {
	s.calls++
	return s.resolved, s.err
}

type panickingFonts struct{}

func (panickingFonts) GetFont(family string) *truetype.Font {
	panic("corrupt font table")
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func solid(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return img
}

func writePNG(t *testing.T, path string, img image.Image) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

type fixture struct {
	store   *preset.Store
	dir     string
	source  *fakeSource
	tracker *trackingHandles
	states  []State
}

// newFixture lays out a "padrao" preset with a 600x800 template and a 300x100 price bar.
func newFixture(t *testing.T, withObservationBar bool) *fixture {
	t.Helper()
	root := t.TempDir()
	fonts := filepath.Join(root, "fonts")
	dir := filepath.Join(root, "presets", "padrao")
	for _, d := range []string{fonts, dir} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			t.Fatal(err)
		}
	}
	writePNG(t, filepath.Join(dir, preset.TemplateFile), solid(600, 800, color.NRGBA{R: 250, G: 250, B: 250, A: 255}))
	writePNG(t, filepath.Join(dir, preset.PriceBarFile), solid(300, 100, color.NRGBA{R: 255, G: 200, A: 255}))
	if withObservationBar {
		writePNG(t, filepath.Join(dir, preset.ObservationBarFile), solid(120, 40, color.NRGBA{R: 200, A: 255}))
	}

	return &fixture{
		store:   preset.NewStore(filepath.Join(root, "presets"), fonts, discardLogger()),
		dir:     dir,
		source:  &fakeSource{resolved: Resolved{Image: solid(400, 400, color.NRGBA{B: 255, A: 255}), Source: "fake"}},
		tracker: newTrackingHandles(),
	}
}

func (f *fixture) assembler(fonts FontSource) *Assembler {
	return New(Config{
		Presets: f.store,
		Images:  f.source,
		Fonts:   fonts,
		Logger:  discardLogger(),
		Tracker: f.tracker,
		Observer: func(req Request, from State, to State) {
			f.states = append(f.states, to)
		},
	})
}

func request(price float64) Request {
	return Request{
		ProdCode:    4711,
		Price:       price,
		Description: "batata pré frita corte fino congelado mccain 2,5kg",
		Preset:      "padrao",
		Unit:        "kg",
	}
}

func TestGenerate(t *testing.T) {
	f := newFixture(t, false)
	layout, err := f.assembler(nil).Generate(context.Background(), request(102.99))
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}

	if layout.Filename != "4711.png" || layout.ContentType != "image/png" {
		t.Fatalf("unexpected layout metadata: %q %q", layout.Filename, layout.ContentType)
	}
	if layout.Request.Client != DefaultClient {
		t.Fatalf("client = %q, want default %q", layout.Request.Client, DefaultClient)
	}
	img, err := png.Decode(bytes.NewReader(layout.Data))
	if err != nil {
		t.Fatalf("layout is not a png: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 600 || b.Dy() != 800 {
		t.Fatalf("layout size = %v, want the template size 600x800", b)
	}

	if layout.SealAnchor == (image.Point{}) {
		t.Fatal("seal anchor not set in currency mode")
	}
	if layout.SealAnchor.Y < PriceBarY || layout.SealAnchor.Y > PriceBarY+100 {
		t.Fatalf("seal anchor %v not level with the price bar", layout.SealAnchor)
	}

	want := []State{StateImageResolved, StateTemplateLoaded, StateComposited, StateSerialized}
	if !slices.Equal(f.states, want) {
		t.Fatalf("states = %v, want %v", f.states, want)
	}
	f.tracker.assertBalanced(t)
	for _, name := range []string{"product", "template", "price_bar", "product_resized", "price_bar_resized", "canvas"} {
		if f.tracker.opened[name] != 1 {
			t.Errorf("handle %q opened %d times, want 1", name, f.tracker.opened[name])
		}
	}
}

func TestGeneratePercentage(t *testing.T) {
	f := newFixture(t, false)
	layout, err := f.assembler(nil).Generate(context.Background(), request(0.25))
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	if layout.SealAnchor != (image.Point{}) {
		t.Fatalf("seal anchor = %v, want zero in percentage mode", layout.SealAnchor)
	}
}

func TestGenerateMissingPreset(t *testing.T) {
	f := newFixture(t, false)
	req := request(102.99)
	req.Preset = "inexistente"

	layout, err := f.assembler(nil).Generate(context.Background(), req)
	if !errors.Is(err, ErrAssetMissing) {
		t.Fatalf("Generate() error = %v, want ErrAssetMissing", err)
	}
	if layout != nil {
		t.Fatal("a layout was returned on failure")
	}
	if f.states[len(f.states)-1] != StateFailed {
		t.Fatalf("final state = %v, want FAILED", f.states[len(f.states)-1])
	}
	if f.tracker.opened["product"] != 1 {
		t.Fatalf("product handle not taken before the preset lookup")
	}
	f.tracker.assertBalanced(t)
}

func TestGenerateMissingTemplate(t *testing.T) {
	f := newFixture(t, false)
	if err := os.Remove(filepath.Join(f.dir, preset.PriceBarFile)); err != nil {
		t.Fatal(err)
	}

	_, err := f.assembler(nil).Generate(context.Background(), request(9.99))
	if !errors.Is(err, ErrAssetMissing) {
		t.Fatalf("Generate() error = %v, want ErrAssetMissing", err)
	}
	if f.tracker.opened["template"] != 1 {
		t.Fatal("template was not opened before the price bar")
	}
	f.tracker.assertBalanced(t)
}

func TestGenerateSourceImageUnavailable(t *testing.T) {
	f := newFixture(t, false)
	f.source.err = errors.New("ftp: 550 file not found")

	layout, err := f.assembler(nil).Generate(context.Background(), request(102.99))
	if !errors.Is(err, ErrSourceImageUnavailable) {
		t.Fatalf("Generate() error = %v, want ErrSourceImageUnavailable", err)
	}
	if errors.Is(err, ErrAssetMissing) {
		t.Fatal("source failure reported as a missing asset")
	}
	if layout != nil {
		t.Fatal("a layout was returned on failure")
	}
	if len(f.tracker.opened) != 0 {
		t.Fatalf("handles opened without a source image: %v", f.tracker.opened)
	}
	if !slices.Equal(f.states, []State{StateFailed}) {
		t.Fatalf("states = %v, want [FAILED]", f.states)
	}
}

func TestGenerateNilImage(t *testing.T) {
	f := newFixture(t, false)
	f.source.resolved = Resolved{}

	if _, err := f.assembler(nil).Generate(context.Background(), request(1)); !errors.Is(err, ErrSourceImageUnavailable) {
		t.Fatalf("Generate() error = %v, want ErrSourceImageUnavailable", err)
	}
}

func TestGenerateRecoversCompositionPanic(t *testing.T) {
	f := newFixture(t, false)

	layout, err := f.assembler(panickingFonts{}).Generate(context.Background(), request(102.99))
	if !errors.Is(err, ErrComposition) {
		t.Fatalf("Generate() error = %v, want ErrComposition", err)
	}
	if layout != nil {
		t.Fatal("a partial layout was returned")
	}
	f.tracker.assertBalanced(t)
}

func TestGenerateRemovesTempFile(t *testing.T) {
	f := newFixture(t, false)
	temp := filepath.Join(t.TempDir(), "4711.png")
	if err := os.WriteFile(temp, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	f.source.resolved.TempPath = temp

	if _, err := f.assembler(nil).Generate(context.Background(), request(102.99)); err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	if _, err := os.Stat(temp); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("temporary file still exists: %v", err)
	}
}

func TestGenerateObservations(t *testing.T) {
	f := newFixture(t, true)
	req := request(102.99)
	req.Observation = "leve 3 pague 2"
	req.Seal = "ME, Exclusivo no site"
	req.Featured = true

	if _, err := f.assembler(nil).Generate(context.Background(), req); err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	if f.tracker.opened["observation_bar"] != 1 {
		t.Fatal("observation bar not loaded")
	}
	f.tracker.assertBalanced(t)
}

func TestGenerateWithoutObservationBar(t *testing.T) {
	f := newFixture(t, false)
	req := request(102.99)
	req.Observation = "leve 3 pague 2"

	if _, err := f.assembler(nil).Generate(context.Background(), req); err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	if f.tracker.opened["observation_bar"] != 0 {
		t.Fatal("observation bar opened although it does not exist")
	}
}

func TestObservations(t *testing.T) {
	tests := []struct {
		obs, seal string
		want      []string
	}{
		{"", "", nil},
		{"  ", "ME", nil},
		{"leve 3", "", []string{"leve 3"}},
		{"", "ST, EXCLUSIVO NO SITE", []string{SealExclusive}},
		{"leve 3", "exclusivo no site", []string{"leve 3", SealExclusive}},
	}
	for _, tt := range tests {
		got := observations(Request{Observation: tt.obs, Seal: tt.seal})
		if !slices.Equal(got, tt.want) {
			t.Errorf("observations(%q, %q) = %q, want %q", tt.obs, tt.seal, got, tt.want)
		}
	}
}

func TestProcessToDir(t *testing.T) {
	f := newFixture(t, false)
	a := f.assembler(nil)
	out := t.TempDir()

	path, created, err := a.ProcessToDir(context.Background(), request(102.99), out, false)
	if err != nil || !created {
		t.Fatalf("ProcessToDir() = %q, %v, %v", path, created, err)
	}
	if path != filepath.Join(out, "4711.png") {
		t.Fatalf("path = %q", path)
	}

	if _, created, err := a.ProcessToDir(context.Background(), request(102.99), out, false); err != nil || created {
		t.Fatalf("existing layout regenerated: created=%v err=%v", created, err)
	}
	if f.source.calls != 1 {
		t.Fatalf("source resolved %d times, want 1", f.source.calls)
	}

	if _, created, err := a.ProcessToDir(context.Background(), request(102.99), out, true); err != nil || !created {
		t.Fatalf("forced regeneration: created=%v err=%v", created, err)
	}
}

func TestSaveKeepsExistingFile(t *testing.T) {
	dir := t.TempDir()
	layout := &GeneratedLayout{Data: []byte("new"), Filename: "1.png"}
	if err := os.WriteFile(filepath.Join(dir, "1.png"), []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := layout.Save(dir, false); !errors.Is(err, fs.ErrExist) {
		t.Fatalf("Save() error = %v, want fs.ErrExist", err)
	}
	if _, err := layout.Save(dir, true); err != nil {
		t.Fatalf("Save(overwrite) error: %v", err)
	}
	if data, _ := os.ReadFile(filepath.Join(dir, "1.png")); string(data) != "new" {
		t.Fatalf("file content = %q, want overwritten", data)
	}
}
