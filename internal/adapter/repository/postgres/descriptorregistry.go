package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ssdl-lang/ssdlc/internal/domain"
	"github.com/ssdl-lang/ssdlc/internal/port"
)

// DescriptorRegistry implements port.DescriptorRegistry via Postgres.
type DescriptorRegistry struct {
	DB *pgxpool.Pool
}

func NewDescriptorRegistry(pool *pgxpool.Pool) *DescriptorRegistry {
	return &DescriptorRegistry{DB: pool}
}

// EnsureSchema creates the descriptors table when it does not exist yet.
func (r *DescriptorRegistry) EnsureSchema(ctx context.Context) error {
	_, err := r.DB.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS descriptors (
			name         TEXT PRIMARY KEY,
			source       BYTEA NOT NULL,
			hash         TEXT NOT NULL,
			state        TEXT NOT NULL,
			failed_stage TEXT NOT NULL DEFAULT '',
			ir           BYTEA,
			diagnostics  BYTEA,
			updated_at   TIMESTAMPTZ NOT NULL
		)`)
	return err
}

func (r *DescriptorRegistry) Save(ctx context.Context, rec *domain.DescriptorRecord) error {
	_, err := r.DB.Exec(ctx, `
		INSERT INTO descriptors (name, source, hash, state, failed_stage, ir, diagnostics, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (name) DO UPDATE SET
			source = EXCLUDED.source,
			hash = EXCLUDED.hash,
			state = EXCLUDED.state,
			failed_stage = EXCLUDED.failed_stage,
			ir = EXCLUDED.ir,
			diagnostics = EXCLUDED.diagnostics,
			updated_at = EXCLUDED.updated_at`,
		rec.Name, rec.Source, rec.Hash, rec.State, rec.FailedStage, rec.IR, rec.Diagnostics, rec.UpdatedAt)
	return err
}

func (r *DescriptorRegistry) Find(ctx context.Context, name string) (*domain.DescriptorRecord, error) {
	row := r.DB.QueryRow(ctx, `
		SELECT name, source, hash, state, failed_stage, ir, diagnostics, updated_at
		FROM descriptors WHERE name = $1`, name)
	var rec domain.DescriptorRecord
	err := row.Scan(&rec.Name, &rec.Source, &rec.Hash, &rec.State, &rec.FailedStage,
		&rec.IR, &rec.Diagnostics, &rec.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, port.ErrDescriptorNotFound
		}
		return nil, err
	}
	return &rec, nil
}

func (r *DescriptorRegistry) List(ctx context.Context, offset int, limit int) ([]domain.DescriptorRecord, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT name, source, hash, state, failed_stage, ir, diagnostics, updated_at
		FROM descriptors ORDER BY name OFFSET $1 LIMIT $2`, offset, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []domain.DescriptorRecord
	for rows.Next() {
		var rec domain.DescriptorRecord
		if err := rows.Scan(&rec.Name, &rec.Source, &rec.Hash, &rec.State, &rec.FailedStage,
			&rec.IR, &rec.Diagnostics, &rec.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, rec)
	}
	return items, rows.Err()
}

func (r *DescriptorRegistry) Delete(ctx context.Context, name string) error {
	tag, err := r.DB.Exec(ctx, `DELETE FROM descriptors WHERE name = $1`, name)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return port.ErrDescriptorNotFound
	}
	return nil
}

// Compile-time interface check.
var _ port.DescriptorRegistry = (*DescriptorRegistry)(nil)
