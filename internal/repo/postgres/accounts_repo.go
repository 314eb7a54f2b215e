package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mzavadsky/accounthub/internal/domain/account"
	"github.com/mzavadsky/accounthub/internal/observability"
)

// accountColumns is the canonical select list; every read goes through it
// so the soft-delete filter below cannot drift per query.
const accountColumns = `id, name, email, password_hash, roles, created_at, updated_at, deleted_at`

// activeOnly is the centralized soft-delete predicate.
const activeOnly = `deleted_at IS NULL`

type AccountsRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewAccountsRepo(pool *pgxpool.Pool, prom *observability.Prom) *AccountsRepo {
	return &AccountsRepo{
		pool: pool,
		prom: prom,
	}
}

func (repo *AccountsRepo) observe(op string, fn func() error) error {
	if repo.prom != nil {
		return repo.prom.ObserveDB(op, fn)
	}
	return fn()
}

func scanAccount(row pgx.Row) (account.Account, error) {
	var a account.Account

	err := row.Scan(
		&a.ID,
		&a.Name,
		&a.Email,
		&a.PasswordHash,
		&a.Roles,
		&a.CreatedAt,
		&a.UpdatedAt,
		&a.DeletedAt,
	)

	return a, err
}

func (repo *AccountsRepo) GetByEmail(ctx context.Context, email string) (account.Account, error) {
	var a account.Account

	err := repo.observe("accounts.get_by_email", func() error {
		var scanErr error
		a, scanErr = scanAccount(repo.pool.QueryRow(
			ctx,
			`SELECT `+accountColumns+` FROM accounts WHERE email = $1 AND `+activeOnly,
			email,
		))
		return scanErr
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return account.Account{}, account.ErrNotFound
		}

		return account.Account{}, err
	}

	return a, nil
}

func (repo *AccountsRepo) GetByID(ctx context.Context, id int64) (account.Account, error) {
	var a account.Account

	err := repo.observe("accounts.get_by_id", func() error {
		var scanErr error
		a, scanErr = scanAccount(repo.pool.QueryRow(
			ctx,
			`SELECT `+accountColumns+` FROM accounts WHERE id = $1 AND `+activeOnly,
			id,
		))
		return scanErr
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return account.Account{}, account.ErrNotFound
		}

		return account.Account{}, err
	}

	return a, nil
}

func (repo *AccountsRepo) Insert(ctx context.Context, name, email, passwordHash string, roles []string) (account.Account, error) {
	var a account.Account

	err := repo.observe("accounts.insert", func() error {
		var scanErr error
		a, scanErr = scanAccount(repo.pool.QueryRow(
			ctx,
			`INSERT INTO accounts (name, email, password_hash, roles, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, NOW(), NOW())
			 RETURNING `+accountColumns,
			name, email, passwordHash, roles,
		))
		return scanErr
	})

	if err != nil {
		// storage-level backstop for the check-then-act uniqueness window
		if isUniqueViolation(err) {
			return account.Account{}, account.ErrDuplicateEmail
		}

		return account.Account{}, err
	}

	return a, nil
}

// UpdateFields applies only the non-nil fields. It does not re-read the
// record; the service layer owns that.
func (repo *AccountsRepo) UpdateFields(ctx context.Context, id int64, patch account.FieldPatch) error {
	sets := []string{"updated_at = NOW()"}
	args := []interface{}{id}

	argsPosition := 2

	if patch.Name != nil {
		sets = append(sets, fmt.Sprintf("name = $%d", argsPosition))
		args = append(args, *patch.Name)
		argsPosition++
	}

	if patch.Email != nil {
		sets = append(sets, fmt.Sprintf("email = $%d", argsPosition))
		args = append(args, *patch.Email)
		argsPosition++
	}

	if patch.PasswordHash != nil {
		sets = append(sets, fmt.Sprintf("password_hash = $%d", argsPosition))
		args = append(args, *patch.PasswordHash)
		argsPosition++
	}

	query := `UPDATE accounts SET ` + strings.Join(sets, ", ") + ` WHERE id = $1 AND ` + activeOnly

	var tag pgconn.CommandTag

	err := repo.observe("accounts.update_fields", func() error {
		var execErr error
		tag, execErr = repo.pool.Exec(ctx, query, args...)
		return execErr
	})

	if err != nil {
		if isUniqueViolation(err) {
			return account.ErrDuplicateEmail
		}

		return err
	}

	if tag.RowsAffected() == 0 {
		return account.ErrNotFound
	}

	return nil
}

// SoftDelete marks the record deleted and reports how many rows changed.
// Already-deleted rows are not matched, so a second delete affects zero.
func (repo *AccountsRepo) SoftDelete(ctx context.Context, id int64) (int64, error) {
	var tag pgconn.CommandTag

	err := repo.observe("accounts.soft_delete", func() error {
		var execErr error
		tag, execErr = repo.pool.Exec(
			ctx,
			`UPDATE accounts SET deleted_at = $2, updated_at = $2 WHERE id = $1 AND `+activeOnly,
			id, time.Now().UTC(),
		)
		return execErr
	})

	if err != nil {
		return 0, err
	}

	return tag.RowsAffected(), nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError

	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
