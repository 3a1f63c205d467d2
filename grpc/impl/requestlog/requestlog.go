// Package requestlog keeps the layout requests received by the service, keyed by request id,
// in Postgres or in a local SQLite file.
package requestlog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

var ErrNotFound = errors.New("request not found")

// Record is one logged request. Preco is kept as received.
type Record struct {
	ID        uuid.UUID
	ProdCode  int
	Preco     string
	Descricao string
	Preset    string
	Client    string
	Tipo      string
	Selo      string
}

type Store struct {
	db      *sql.DB
	dialect dialect
}

type dialect struct {
	name     string
	idType   string
	timeType string
}

func (d dialect) placeholder(n int) string {
	if d.name == "sqlite" {
		return "?"
	}
	return fmt.Sprintf("$%d", n)
}

func (d dialect) placeholders(count int) string {
	ph := make([]string, count)
	for i := range ph {
		ph[i] = d.placeholder(i + 1)
	}
	return strings.Join(ph, ", ")
}

var dialects = map[string]dialect{
	"pgx":    {name: "pgx", idType: "UUID", timeType: "TIMESTAMPTZ"},
	"sqlite": {name: "sqlite", idType: "TEXT", timeType: "TIMESTAMP"},
}

// Open connects with a database/sql driver name ("pgx" or "sqlite") and creates the table.
func Open(ctx context.Context, driver string, dsn string) (*Store, error) {
	d, ok := dialects[driver]
	if !ok {
		return nil, fmt.Errorf("unsupported driver %q", driver)
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}
	if driver == "sqlite" {
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &Store{db: db, dialect: d}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// DB exposes the connection so other stores can share it.
func (s *Store) DB() *sql.DB { return s.db }

// Driver returns the database/sql driver name the store was opened with.
func (s *Store) Driver() string { return s.dialect.name }

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS requests (
			request_id %s PRIMARY KEY,
			prod_code INTEGER NOT NULL,
			preco TEXT NOT NULL,
			descricao TEXT NOT NULL,
			preset TEXT NOT NULL,
			client TEXT,
			tipo TEXT,
			selo TEXT,
			last_modified %s DEFAULT CURRENT_TIMESTAMP
		)`, s.dialect.idType, s.dialect.timeType)
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create requests table: %w", err)
	}
	return nil
}

// Save inserts the record or replaces the one with the same id.
func (s *Store) Save(ctx context.Context, r Record) error {
	if r.ID == uuid.Nil {
		return errors.New("request id is required")
	}
	query := fmt.Sprintf(`
		INSERT INTO requests (request_id, prod_code, preco, descricao, preset, client, tipo, selo)
		VALUES (%s)
		ON CONFLICT (request_id) DO UPDATE SET
			prod_code = EXCLUDED.prod_code,
			preco = EXCLUDED.preco,
			descricao = EXCLUDED.descricao,
			preset = EXCLUDED.preset,
			client = EXCLUDED.client,
			tipo = EXCLUDED.tipo,
			selo = EXCLUDED.selo,
			last_modified = CURRENT_TIMESTAMP`, s.dialect.placeholders(8))

	_, err := s.db.ExecContext(ctx, query,
		r.ID.String(), r.ProdCode, r.Preco, r.Descricao, r.Preset,
		nullable(r.Client), nullable(r.Tipo), nullable(r.Selo))
	if err != nil {
		return fmt.Errorf("failed to save request %s: %w", r.ID, err)
	}
	return nil
}

func (s *Store) Load(ctx context.Context, id uuid.UUID) (Record, error) {
	query := fmt.Sprintf(`
		SELECT request_id, prod_code, preco, descricao, preset, client, tipo, selo
		FROM requests WHERE request_id = %s`, s.dialect.placeholder(1))

	var (
		r                  Record
		rawID              string
		client, tipo, selo sql.NullString
	)
	err := s.db.QueryRowContext(ctx, query, id.String()).
		Scan(&rawID, &r.ProdCode, &r.Preco, &r.Descricao, &r.Preset, &client, &tipo, &selo)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return Record{}, fmt.Errorf("failed to load request %s: %w", id, err)
	}
	if r.ID, err = uuid.Parse(rawID); err != nil {
		return Record{}, fmt.Errorf("failed to parse request id %q: %w", rawID, err)
	}
	r.Client, r.Tipo, r.Selo = client.String, tipo.String, selo.String
	return r, nil
}

// List returns the ids of the logged requests, most recently modified first.
func (s *Store) List(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT request_id FROM requests ORDER BY last_modified DESC, request_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("failed to scan request id: %w", err)
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("failed to parse request id %q: %w", raw, err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
