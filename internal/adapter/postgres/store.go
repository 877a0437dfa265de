package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/overseer-hq/overseer/internal/domain/state"
	"github.com/overseer-hq/overseer/internal/port/statestore"
)

// documentKey is the primary key of the single persisted document row.
const documentKey = "overseer"

// Store implements statestore.Store on a single JSONB row. The whole
// document is written in one UPSERT so a save is atomic at the row level.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a document store backed by the given connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Load reads the persisted document. A missing row returns
// statestore.ErrNotFound so callers can start from an empty document.
func (s *Store) Load(ctx context.Context) (*state.Document, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx,
		`SELECT doc FROM app_document WHERE id = $1`, documentKey).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, statestore.ErrNotFound
		}
		return nil, fmt.Errorf("load document: %w", err)
	}

	var doc state.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return &doc, nil
}

// Save replaces the persisted document in a single UPSERT.
func (s *Store) Save(ctx context.Context, doc *state.Document) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO app_document (id, doc, updated_at) VALUES ($1, $2, now())
		 ON CONFLICT (id) DO UPDATE SET doc = EXCLUDED.doc, updated_at = now()`,
		documentKey, raw)
	if err != nil {
		return fmt.Errorf("save document: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}
