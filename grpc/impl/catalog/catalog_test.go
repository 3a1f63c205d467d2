package catalog

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"
)

func TestSimilarity(t *testing.T) {
	tests := []struct {
		a, b string
		want float64
	}{
		{"word", "word", 1},
		{"word", "WORD", 1},
		// pg_trgm: "word" and "two words" share 4 of 11 distinct trigrams.
		{"word", "two words", 4.0 / 11.0},
		{"abc", "xyz", 0},
		{"", "abc", 0},
	}
	for _, tt := range tests {
		if got := Similarity(tt.a, tt.b); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("Similarity(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func newTestFinder(t *testing.T) *Finder {
	t.Helper()
	db, err := sql.Open("sqlite", "file:"+filepath.Join(t.TempDir(), "catalog.sqlite"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })

	f := NewFinder(db, "sqlite")
	if err := f.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("EnsureSchema() error: %v", err)
	}
	products := []Product{
		{1001, "BATATA PRE FRITA MCCAIN 2,5KG", "PC"},
		{1002, "BATATA PALHA YOKI 100G", "UN"},
		{1003, "REFRIGERANTE COCA COLA 2L", "UN"},
		{1004, "BATATA DOCE", "KG"},
	}
	for _, p := range products {
		if _, err := db.Exec(`INSERT INTO products (product_code, product_name, unit) VALUES (?, ?, ?)`, p.Code, p.Name, p.Unit); err != nil {
			t.Fatal(err)
		}
	}
	return f
}

func TestFindLocal(t *testing.T) {
	f := newTestFinder(t)

	matches, err := f.Find(context.Background(), "batata", 0, 0)
	if err != nil {
		t.Fatalf("Find() error: %v", err)
	}
	if len(matches) == 0 {
		t.Fatal("Find() returned nothing")
	}
	for i, m := range matches {
		if m.Code == 1003 {
			t.Fatalf("unrelated product matched: %+v", m)
		}
		if i > 0 && matches[i-1].Score < m.Score {
			t.Fatalf("matches not sorted by score: %+v", matches)
		}
	}
	if matches[0].Code != 1004 {
		t.Fatalf("best match = %+v, want the shortest name containing the term", matches[0])
	}

	limited, err := f.Find(context.Background(), "batata", 1, 0.01)
	if err != nil || len(limited) != 1 {
		t.Fatalf("Find(limit 1) = %v, %v", limited, err)
	}
}

func TestFindEmptyQuery(t *testing.T) {
	f := newTestFinder(t)
	if _, err := f.Find(context.Background(), "  ", 5, 0.2); !errors.Is(err, ErrEmptyQuery) {
		t.Fatalf("Find() error = %v, want ErrEmptyQuery", err)
	}
}
