package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mzavadsky/accounthub/internal/config"
	"github.com/mzavadsky/accounthub/internal/domain/account"
	"github.com/mzavadsky/accounthub/internal/security"
)

// EnsureAdminAccount seeds the configured administrator on startup.
// No-op when the seed is not configured or the account already exists.
func EnsureAdminAccount(ctx context.Context, pool *pgxpool.Pool, cfg config.Config) error {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		return nil
	}

	var dummy int64

	err := pool.QueryRow(ctx,
		`SELECT id FROM accounts WHERE email = $1 AND deleted_at IS NULL`,
		cfg.AdminEmail,
	).Scan(&dummy)

	if err == nil {
		return nil
	}

	if !errors.Is(err, pgx.ErrNoRows) {
		return err
	}

	hash, err := security.HashPassword(cfg.AdminPassword)

	if err != nil {
		return err
	}

	_, err = pool.Exec(ctx,
		`INSERT INTO accounts (name, email, password_hash, roles, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		`,
		cfg.AdminName, cfg.AdminEmail, hash, []string{account.RoleAdmin, account.RoleUser},
	)

	return err
}
