package authpg

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ssdl-lang/ssdlc/internal/pkg/auth"
	"github.com/ssdl-lang/ssdlc/internal/port"
)

// Store keeps API key hashes in Postgres.
type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

// EnsureSchema creates the api_keys table when it does not exist yet.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if s.db == nil {
		return fmt.Errorf("db not configured")
	}
	_, err := s.db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS api_keys (
			id         TEXT PRIMARY KEY,
			key_hash   BYTEA NOT NULL,
			created_at TIMESTAMPTZ NOT NULL
		)`)
	return err
}

func (s *Store) Add(ctx context.Context, id string, hash []byte) error {
	if s.db == nil {
		return fmt.Errorf("db not configured")
	}
	_, err := s.db.Exec(ctx, `
		INSERT INTO api_keys (id, key_hash, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET key_hash = EXCLUDED.key_hash
	`, id, hash, time.Now().UTC())
	return err
}

func (s *Store) Verify(ctx context.Context, key string) (bool, error) {
	if s.db == nil {
		return false, fmt.Errorf("db not configured")
	}
	id, secret, err := auth.SplitKey(key)
	if err != nil {
		return false, nil
	}
	var hash []byte
	row := s.db.QueryRow(ctx, `SELECT key_hash FROM api_keys WHERE id = $1`, id)
	if err := row.Scan(&hash); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return auth.VerifySecret(hash, secret), nil
}

var _ port.KeyStore = (*Store)(nil)
