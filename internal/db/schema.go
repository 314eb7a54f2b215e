package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// EnsureSchema creates the accounts table when missing. The partial
// unique index is the storage backstop for the service-level uniqueness
// check: only active rows participate, so a soft-deleted account frees
// its email.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS accounts (
			id            BIGSERIAL PRIMARY KEY,
			name          TEXT NOT NULL DEFAULT '',
			email         TEXT NOT NULL,
			password_hash TEXT NOT NULL,
			roles         TEXT[] NOT NULL DEFAULT '{user}',
			created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			deleted_at    TIMESTAMPTZ
		);

		CREATE UNIQUE INDEX IF NOT EXISTS accounts_email_active_uq
			ON accounts (email)
			WHERE deleted_at IS NULL;
	`)

	return err
}
