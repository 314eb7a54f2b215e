package service

import (
	"context"
	"errors"

	"github.com/mzavadsky/accounthub/internal/domain/account"
	"github.com/mzavadsky/accounthub/internal/security"
)

// AccountStore is the narrow persistence contract the service needs.
// Lookups return active (non-deleted) records only.
type AccountStore interface {
	GetByEmail(ctx context.Context, email string) (account.Account, error)
	GetByID(ctx context.Context, id int64) (account.Account, error)
	Insert(ctx context.Context, name, email, passwordHash string, roles []string) (account.Account, error)
	UpdateFields(ctx context.Context, id int64, patch account.FieldPatch) error
	SoftDelete(ctx context.Context, id int64) (int64, error)
}

type DeleteConfirmation struct {
	Message string `json:"message"`
}

// dummyHash is compared against when login hits an unknown email, so the
// two credential failures cost roughly the same wall time.
// bcrypt hash of an unusable placeholder password.
const dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// AccountService enforces the account invariants: email uniqueness,
// active-vs-deleted state and the public projection. It is the only
// component that talks to the store adapter.
type AccountService struct {
	store AccountStore
}

func NewAccountService(store AccountStore) *AccountService {
	return &AccountService{store: store}
}

// Create registers a new account with the default role. The uniqueness
// check here is read-then-write; the postgres adapter's partial unique
// index backstops the race window with the same error kind.
func (s *AccountService) Create(ctx context.Context, email, rawPassword, name string) (account.Account, error) {
	_, err := s.store.GetByEmail(ctx, email)

	if err == nil {
		return account.Account{}, account.ErrDuplicateEmail
	}

	if !errors.Is(err, account.ErrNotFound) {
		return account.Account{}, err
	}

	hash, err := security.HashPassword(rawPassword)

	if err != nil {
		return account.Account{}, err
	}

	return s.store.Insert(ctx, name, email, hash, []string{account.RoleUser})
}

// ValidateCredentials returns the account when email and password match.
// Unknown email and wrong password collapse to the same error kind.
func (s *AccountService) ValidateCredentials(ctx context.Context, email, rawPassword string) (account.Account, error) {
	a, err := s.store.GetByEmail(ctx, email)

	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			// burn a comparison anyway to keep timing uniform
			_ = security.CheckPassword(dummyHash, rawPassword)
			return account.Account{}, account.ErrInvalidCredentials
		}

		return account.Account{}, err
	}

	if security.CheckPassword(a.PasswordHash, rawPassword) != nil {
		return account.Account{}, account.ErrInvalidCredentials
	}

	return a, nil
}

// FindByID rejects non-positive ids outright; no stored account can ever
// have one, and callers must never see a null-shaped success.
func (s *AccountService) FindByID(ctx context.Context, id int64) (account.Account, error) {
	if id <= 0 {
		return account.Account{}, account.ErrNotFound
	}

	return s.store.GetByID(ctx, id)
}

func (s *AccountService) FindByEmail(ctx context.Context, email string) (account.Account, error) {
	return s.store.GetByEmail(ctx, email)
}

// Update applies a partial update. The id lookup always happens first;
// only when the patch changes the email is a collision check done, and a
// match against the account's own email is not a collision.
func (s *AccountService) Update(ctx context.Context, id int64, req account.UpdateRequest) (account.Response, error) {
	if _, err := s.FindByID(ctx, id); err != nil {
		return account.Response{}, err
	}

	if req.Email != nil {
		owner, err := s.store.GetByEmail(ctx, *req.Email)

		switch {
		case err == nil && owner.ID != id:
			return account.Response{}, account.ErrDuplicateEmail
		case err != nil && !errors.Is(err, account.ErrNotFound):
			return account.Response{}, err
		}
	}

	patch := account.FieldPatch{
		Name:  req.Name,
		Email: req.Email,
	}

	if req.Password != nil {
		hash, err := security.HashPassword(*req.Password)

		if err != nil {
			return account.Response{}, err
		}

		patch.PasswordHash = &hash
	}

	if err := s.store.UpdateFields(ctx, id, patch); err != nil {
		return account.Response{}, err
	}

	updated, err := s.store.GetByID(ctx, id)

	if err != nil {
		return account.Response{}, err
	}

	return updated.ToResponse(), nil
}

// Remove soft-deletes the account. A second remove of the same id fails
// NotFound rather than succeeding silently.
func (s *AccountService) Remove(ctx context.Context, id int64) (DeleteConfirmation, error) {
	if _, err := s.FindByID(ctx, id); err != nil {
		return DeleteConfirmation{}, err
	}

	affected, err := s.store.SoftDelete(ctx, id)

	if err != nil {
		return DeleteConfirmation{}, err
	}

	if affected == 0 {
		return DeleteConfirmation{}, account.ErrNotFound
	}

	return DeleteConfirmation{Message: "Account successfully deleted"}, nil
}
