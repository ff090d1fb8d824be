package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	_ "github.com/lib/pq"
)

// PostgresStore keeps documents as JSONB rows keyed by path.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens a connection and ensures the documents table exists.
func NewPostgresStore(databaseURL string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	s := &PostgresStore{db: db}
	if err := s.ensureTable(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewPostgresStoreWithDB wraps an existing connection (shared with the task
// transport in the worker).
func NewPostgresStoreWithDB(db *sql.DB) (*PostgresStore, error) {
	s := &PostgresStore{db: db}
	if err := s.ensureTable(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) ensureTable() error {
	query := `
		CREATE TABLE IF NOT EXISTS documents (
			path TEXT PRIMARY KEY,
			collection TEXT NOT NULL,
			doc JSONB NOT NULL,
			updated_at TIMESTAMPTZ DEFAULT NOW()
		)
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("failed to create documents table: %w", err)
	}
	if _, err := s.db.Exec(`CREATE INDEX IF NOT EXISTS documents_collection_idx ON documents (collection)`); err != nil {
		return fmt.Errorf("failed to create collection index: %w", err)
	}
	log.Printf("✓ documents table ready")
	return nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func collectionOf(path string) string {
	idx := strings.LastIndex(path, "/")
	if idx < 0 {
		return ""
	}
	return path[:idx]
}

func (s *PostgresStore) Get(ctx context.Context, path string) (map[string]any, error) {
	var raw []byte
	err := s.db.QueryRowContext(ctx, `SELECT doc FROM documents WHERE path = $1`, path).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode document: %w", err)
	}
	return doc, nil
}

func (s *PostgresStore) Set(ctx context.Context, path string, doc map[string]any) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}
	query := `
		INSERT INTO documents (path, collection, doc, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (path) DO UPDATE
		SET doc = EXCLUDED.doc,
		    updated_at = NOW()
	`
	if _, err := s.db.ExecContext(ctx, query, path, collectionOf(path), raw); err != nil {
		return fmt.Errorf("failed to set document: %w", err)
	}
	return nil
}

func (s *PostgresStore) Update(ctx context.Context, path string, fields map[string]any) error {
	raw, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("failed to encode fields: %w", err)
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE documents SET doc = doc || $2::jsonb, updated_at = NOW() WHERE path = $1`,
		path, raw)
	if err != nil {
		return fmt.Errorf("failed to update document: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update document: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, path string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE path = $1`, path); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListCollection(ctx context.Context, collectionPath string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT path FROM documents WHERE collection = $1 ORDER BY path`, collectionPath)
	if err != nil {
		return nil, fmt.Errorf("failed to list collection: %w", err)
	}
	defer rows.Close()

	prefix := collectionPath + "/"
	var ids []string
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			return nil, fmt.Errorf("failed to scan path: %w", err)
		}
		ids = append(ids, strings.TrimPrefix(path, prefix))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list collection: %w", err)
	}
	return ids, nil
}

// DeleteCollection removes the whole collection in a single statement, so the
// operation is atomic.
func (s *PostgresStore) DeleteCollection(ctx context.Context, collectionPath string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE collection = $1`, collectionPath); err != nil {
		return fmt.Errorf("failed to delete collection: %w", err)
	}
	return nil
}
