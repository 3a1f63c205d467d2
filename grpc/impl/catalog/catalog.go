// Package catalog looks products up by approximate name.
package catalog

import (
	"cmp"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strings"
	"unicode"
)

const (
	DefaultLimit         = 5
	DefaultMinSimilarity = 0.2
)

var ErrEmptyQuery = errors.New("search term is required")

type Product struct {
	Code int    `json:"code"`
	Name string `json:"name"`
	Unit string `json:"unit"`
}

type Match struct {
	Product
	Score float64 `json:"score"`
}

// Finder searches the products(product_code, product_name, unit) table. On Postgres the
// pg_trgm extension does the scoring; on SQLite the same trigram similarity is computed here.
type Finder struct {
	db     *sql.DB
	driver string
}

// NewFinder takes a database/sql driver name ("pgx" or "sqlite").
func NewFinder(db *sql.DB, driver string) *Finder {
	return &Finder{db: db, driver: driver}
}

// EnsureSchema creates the products table on SQLite. Postgres catalogs are managed elsewhere.
func (f *Finder) EnsureSchema(ctx context.Context) error {
	if f.driver != "sqlite" {
		return nil
	}
	_, err := f.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS products (
			product_code INTEGER PRIMARY KEY,
			product_name TEXT NOT NULL,
			unit TEXT
		)`)
	if err != nil {
		return fmt.Errorf("failed to create products table: %w", err)
	}
	return nil
}

// Find returns up to limit products whose name scores at least minSimilarity against term,
// best first. Non-positive arguments take the defaults.
func (f *Finder) Find(ctx context.Context, term string, limit int, minSimilarity float64) ([]Match, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, ErrEmptyQuery
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if minSimilarity <= 0 {
		minSimilarity = DefaultMinSimilarity
	}

	if f.driver == "sqlite" {
		return f.findLocal(ctx, term, limit, minSimilarity)
	}

	rows, err := f.db.QueryContext(ctx, `
		SELECT product_code, product_name, COALESCE(unit, ''), similarity(product_name, $1) AS score
		FROM products
		WHERE product_name % $1 AND similarity(product_name, $1) >= $2
		ORDER BY score DESC
		LIMIT $3`, term, minSimilarity, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search products: %w", err)
	}
	defer rows.Close()

	var matches []Match
	for rows.Next() {
		var m Match
		if err := rows.Scan(&m.Code, &m.Name, &m.Unit, &m.Score); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

func (f *Finder) findLocal(ctx context.Context, term string, limit int, minSimilarity float64) ([]Match, error) {
	rows, err := f.db.QueryContext(ctx, `SELECT product_code, product_name, COALESCE(unit, '') FROM products`)
	if err != nil {
		return nil, fmt.Errorf("failed to search products: %w", err)
	}
	defer rows.Close()

	query := trigrams(term)
	var matches []Match
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.Code, &p.Name, &p.Unit); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		if score := similarity(query, trigrams(p.Name)); score >= minSimilarity {
			matches = append(matches, Match{Product: p, Score: score})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	slices.SortStableFunc(matches, func(a, b Match) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.Code, b.Code)
	})
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

// Similarity scores two strings the way pg_trgm's similarity() does.
func Similarity(a, b string) float64 {
	return similarity(trigrams(a), trigrams(b))
}

func similarity(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	shared := 0
	for t := range a {
		if _, ok := b[t]; ok {
			shared++
		}
	}
	return float64(shared) / float64(len(a)+len(b)-shared)
}

// trigrams lower-cases s, splits it into alphanumeric words and pads every word with two
// leading blanks and one trailing blank before taking its three-rune windows.
func trigrams(s string) map[string]struct{} {
	set := map[string]struct{}{}
	words := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, w := range words {
		padded := []rune("  " + w + " ")
		for i := 0; i+3 <= len(padded); i++ {
			set[string(padded[i:i+3])] = struct{}{}
		}
	}
	return set
}
