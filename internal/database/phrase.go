package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const phraseSchema = `
CREATE TABLE IF NOT EXISTS phrases (
	id      SERIAL PRIMARY KEY,
	text    TEXT NOT NULL UNIQUE,
	enabled BOOLEAN NOT NULL DEFAULT TRUE
)
`

// PhraseStore reads and seeds the phrase pool kept in PostgreSQL.
type PhraseStore struct {
	pool *pgxpool.Pool
}

func NewPhraseStore(pool *pgxpool.Pool) *PhraseStore {
	return &PhraseStore{pool: pool}
}

// EnsureSchema creates the phrases table if it does not exist.
func (s *PhraseStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, phraseSchema); err != nil {
		return fmt.Errorf("failed to create phrases table: %w", err)
	}
	return nil
}

// Phrases returns every enabled phrase in random order.
func (s *PhraseStore) Phrases(ctx context.Context) ([]string, error) {
	return s.query(ctx, `SELECT text FROM phrases WHERE enabled ORDER BY random()`)
}

// RandomPhrases returns up to limit enabled phrases in random order.
func (s *PhraseStore) RandomPhrases(ctx context.Context, limit int) ([]string, error) {
	return s.query(ctx, `SELECT text FROM phrases WHERE enabled ORDER BY random() LIMIT $1`, limit)
}

func (s *PhraseStore) query(ctx context.Context, q string, args ...any) ([]string, error) {
	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query phrases: %w", err)
	}
	out, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to scan phrases: %w", err)
	}
	return out, nil
}

// InsertPhrases adds enabled phrases in one transaction, skipping blanks and
// texts already present. It returns the number of rows inserted.
func (s *PhraseStore) InsertPhrases(ctx context.Context, texts []string) (int, error) {
	q := `INSERT INTO phrases (text, enabled) VALUES ($1, TRUE) ON CONFLICT (text) DO NOTHING`

	inserted := 0
	err := pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		for _, text := range texts {
			text = strings.TrimSpace(text)
			if text == "" {
				continue
			}
			tag, err := tx.Exec(ctx, q, text)
			if err != nil {
				return err
			}
			inserted += int(tag.RowsAffected())
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to insert phrases: %w", err)
	}
	return inserted, nil
}

// SetEnabled toggles whether a phrase is eligible for new boards.
func (s *PhraseStore) SetEnabled(ctx context.Context, text string, enabled bool) error {
	q := `UPDATE phrases SET enabled=$2 WHERE text=$1`
	tag, err := s.pool.Exec(ctx, q, text, enabled)
	if err != nil {
		return fmt.Errorf("failed to update phrase: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("phrase %q not found", text)
	}
	return nil
}
