package memory

import (
	"context"
	"sync"
	"time"

	"github.com/mzavadsky/accounthub/internal/domain/account"
)

// AccountsRepo is an in-memory store adapter used by unit tests and local
// development. Same contract as the postgres adapter, including the
// active-only lookup filter.
type AccountsRepo struct {
	mu     sync.RWMutex
	nextID int64
	items  map[int64]account.Account
}

func NewAccountsRepo() *AccountsRepo {
	return &AccountsRepo{
		nextID: 1,
		items:  make(map[int64]account.Account),
	}
}

func (r *AccountsRepo) GetByEmail(ctx context.Context, email string) (account.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, a := range r.items {
		if a.Email == email && a.DeletedAt == nil {
			return cloned(a), nil
		}
	}

	return account.Account{}, account.ErrNotFound
}

func (r *AccountsRepo) GetByID(ctx context.Context, id int64) (account.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.items[id]

	if !ok || a.DeletedAt != nil {
		return account.Account{}, account.ErrNotFound
	}

	return cloned(a), nil
}

func (r *AccountsRepo) Insert(ctx context.Context, name, email, passwordHash string, roles []string) (account.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.items {
		if existing.Email == email && existing.DeletedAt == nil {
			return account.Account{}, account.ErrDuplicateEmail
		}
	}

	now := time.Now().UTC()

	a := account.Account{
		ID:           r.nextID,
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		Roles:        append([]string(nil), roles...),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	r.nextID++
	r.items[a.ID] = a

	return cloned(a), nil
}

func (r *AccountsRepo) UpdateFields(ctx context.Context, id int64, patch account.FieldPatch) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.items[id]

	if !ok || a.DeletedAt != nil {
		return account.ErrNotFound
	}

	if patch.Email != nil {
		for _, existing := range r.items {
			if existing.ID != id && existing.Email == *patch.Email && existing.DeletedAt == nil {
				return account.ErrDuplicateEmail
			}
		}
		a.Email = *patch.Email
	}

	if patch.Name != nil {
		a.Name = *patch.Name
	}

	if patch.PasswordHash != nil {
		a.PasswordHash = *patch.PasswordHash
	}

	a.UpdatedAt = time.Now().UTC()
	r.items[id] = a

	return nil
}

func (r *AccountsRepo) SoftDelete(ctx context.Context, id int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.items[id]

	if !ok || a.DeletedAt != nil {
		return 0, nil
	}

	now := time.Now().UTC()
	a.DeletedAt = &now
	a.UpdatedAt = now
	r.items[id] = a

	return 1, nil
}

func cloned(a account.Account) account.Account {
	a.Roles = append([]string(nil), a.Roles...)

	if a.DeletedAt != nil {
		t := *a.DeletedAt
		a.DeletedAt = &t
	}

	return a
}
