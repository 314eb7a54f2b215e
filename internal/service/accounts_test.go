package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/mzavadsky/accounthub/internal/domain/account"
	"github.com/mzavadsky/accounthub/internal/repo/memory"
	"github.com/mzavadsky/accounthub/internal/security"
	"github.com/mzavadsky/accounthub/internal/service"
)

func newAccountService() (*service.AccountService, *memory.AccountsRepo) {
	store := memory.NewAccountsRepo()
	return service.NewAccountService(store), store
}

func strPtr(s string) *string {
	return &s
}

func TestAccountServiceCreate(t *testing.T) {
	svc, _ := newAccountService()
	ctx := context.Background()

	created, err := svc.Create(ctx, "a@x.com", "pw12345678", "Alice")

	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if created.ID <= 0 {
		t.Fatalf("expected assigned id, got %d", created.ID)
	}

	if len(created.Roles) != 1 || created.Roles[0] != account.RoleUser {
		t.Fatalf("expected default role set, got %v", created.Roles)
	}

	if created.PasswordHash == "pw12345678" {
		t.Fatalf("password must not be stored in plaintext")
	}

	if err := security.CheckPassword(created.PasswordHash, "pw12345678"); err != nil {
		t.Fatalf("stored hash should match the raw password: %v", err)
	}
}

func TestAccountServiceCreateDuplicateEmail(t *testing.T) {
	svc, _ := newAccountService()
	ctx := context.Background()

	first, err := svc.Create(ctx, "a@x.com", "pw12345678", "Alice")

	if err != nil {
		t.Fatalf("first Create failed: %v", err)
	}

	_, err = svc.Create(ctx, "a@x.com", "other-password", "Impostor")

	if !errors.Is(err, account.ErrDuplicateEmail) {
		t.Fatalf("second Create: got %v, want ErrDuplicateEmail", err)
	}

	// first account must be untouched
	kept, err := svc.FindByID(ctx, first.ID)

	if err != nil {
		t.Fatalf("original account lookup failed: %v", err)
	}

	if kept.Name != "Alice" || kept.Email != "a@x.com" {
		t.Fatalf("original account was altered: %+v", kept)
	}
}

func TestAccountServiceValidateCredentials(t *testing.T) {
	svc, _ := newAccountService()
	ctx := context.Background()

	if _, err := svc.Create(ctx, "a@x.com", "pw12345678", ""); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	tests := []struct {
		name     string
		email    string
		password string
		wantErr  error
	}{
		{"valid", "a@x.com", "pw12345678", nil},
		{"wrong password", "a@x.com", "nope", account.ErrInvalidCredentials},
		{"unknown email", "ghost@x.com", "pw12345678", account.ErrInvalidCredentials},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			a, err := svc.ValidateCredentials(ctx, tc.email, tc.password)

			if tc.wantErr == nil {
				if err != nil {
					t.Fatalf("got %v, want success", err)
				}
				if a.Email != tc.email {
					t.Fatalf("validated wrong account: %+v", a)
				}
				return
			}

			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("got %v, want %v", err, tc.wantErr)
			}
		})
	}
}

// recordingStore fails the test if any call reaches the adapter.
type recordingStore struct {
	t *testing.T
}

func (s *recordingStore) GetByEmail(ctx context.Context, email string) (account.Account, error) {
	s.t.Fatalf("unexpected GetByEmail(%q)", email)
	return account.Account{}, nil
}

func (s *recordingStore) GetByID(ctx context.Context, id int64) (account.Account, error) {
	s.t.Fatalf("unexpected GetByID(%d)", id)
	return account.Account{}, nil
}

func (s *recordingStore) Insert(ctx context.Context, name, email, passwordHash string, roles []string) (account.Account, error) {
	s.t.Fatalf("unexpected Insert(%q)", email)
	return account.Account{}, nil
}

func (s *recordingStore) UpdateFields(ctx context.Context, id int64, patch account.FieldPatch) error {
	s.t.Fatalf("unexpected UpdateFields(%d)", id)
	return nil
}

func (s *recordingStore) SoftDelete(ctx context.Context, id int64) (int64, error) {
	s.t.Fatalf("unexpected SoftDelete(%d)", id)
	return 0, nil
}

func TestAccountServiceFindByID(t *testing.T) {
	t.Run("non-positive ids never reach the store", func(t *testing.T) {
		svc := service.NewAccountService(&recordingStore{t: t})

		for _, id := range []int64{0, -1, -42} {
			if _, err := svc.FindByID(context.Background(), id); !errors.Is(err, account.ErrNotFound) {
				t.Fatalf("FindByID(%d): got %v, want ErrNotFound", id, err)
			}
		}
	})

	t.Run("unknown id fails NotFound", func(t *testing.T) {
		svc, _ := newAccountService()

		if _, err := svc.FindByID(context.Background(), 999999); !errors.Is(err, account.ErrNotFound) {
			t.Fatalf("got %v, want ErrNotFound", err)
		}
	})
}

func TestAccountServiceUpdate(t *testing.T) {
	ctx := context.Background()

	t.Run("own email is not a collision", func(t *testing.T) {
		svc, _ := newAccountService()

		created, _ := svc.Create(ctx, "a@x.com", "pw12345678", "Alice")

		resp, err := svc.Update(ctx, created.ID, account.UpdateRequest{
			Email: strPtr("a@x.com"),
			Name:  strPtr("Alice Updated"),
		})

		if err != nil {
			t.Fatalf("update with own email failed: %v", err)
		}

		if resp.Name != "Alice Updated" || resp.Email != "a@x.com" {
			t.Fatalf("unexpected response: %+v", resp)
		}
	})

	t.Run("another account's email collides and applies nothing", func(t *testing.T) {
		svc, _ := newAccountService()

		_, _ = svc.Create(ctx, "a@x.com", "pw12345678", "Alice")
		bob, _ := svc.Create(ctx, "b@x.com", "pw12345678", "Bob")

		_, err := svc.Update(ctx, bob.ID, account.UpdateRequest{
			Email: strPtr("a@x.com"),
			Name:  strPtr("Bobby"),
		})

		if !errors.Is(err, account.ErrDuplicateEmail) {
			t.Fatalf("got %v, want ErrDuplicateEmail", err)
		}

		kept, _ := svc.FindByID(ctx, bob.ID)

		if kept.Email != "b@x.com" || kept.Name != "Bob" {
			t.Fatalf("failed update must not apply partial state: %+v", kept)
		}
	})

	t.Run("partial update leaves other fields untouched", func(t *testing.T) {
		svc, _ := newAccountService()

		created, _ := svc.Create(ctx, "a@x.com", "pw12345678", "Alice")

		resp, err := svc.Update(ctx, created.ID, account.UpdateRequest{Name: strPtr("Renamed")})

		if err != nil {
			t.Fatalf("Update failed: %v", err)
		}

		if resp.Email != "a@x.com" || resp.Name != "Renamed" {
			t.Fatalf("unexpected response: %+v", resp)
		}
	})

	t.Run("password update re-hashes", func(t *testing.T) {
		svc, _ := newAccountService()

		created, _ := svc.Create(ctx, "a@x.com", "pw12345678", "Alice")

		if _, err := svc.Update(ctx, created.ID, account.UpdateRequest{Password: strPtr("new-password")}); err != nil {
			t.Fatalf("Update failed: %v", err)
		}

		if _, err := svc.ValidateCredentials(ctx, "a@x.com", "new-password"); err != nil {
			t.Fatalf("new password should validate: %v", err)
		}

		if _, err := svc.ValidateCredentials(ctx, "a@x.com", "pw12345678"); !errors.Is(err, account.ErrInvalidCredentials) {
			t.Fatalf("old password should no longer validate, got %v", err)
		}
	})

	t.Run("unknown id fails before any email check", func(t *testing.T) {
		svc, _ := newAccountService()

		_, err := svc.Update(ctx, 999, account.UpdateRequest{Email: strPtr("new@x.com")})

		if !errors.Is(err, account.ErrNotFound) {
			t.Fatalf("got %v, want ErrNotFound", err)
		}
	})
}

func TestAccountServiceRemove(t *testing.T) {
	svc, _ := newAccountService()
	ctx := context.Background()

	created, _ := svc.Create(ctx, "a@x.com", "pw12345678", "Alice")

	confirmation, err := svc.Remove(ctx, created.ID)

	if err != nil {
		t.Fatalf("Remove failed: %v", err)
	}

	if confirmation.Message == "" {
		t.Fatalf("expected a confirmation message")
	}

	// all lookup paths treat the account as nonexistent now
	if _, err := svc.FindByID(ctx, created.ID); !errors.Is(err, account.ErrNotFound) {
		t.Fatalf("FindByID after remove: got %v, want ErrNotFound", err)
	}

	if _, err := svc.FindByEmail(ctx, "a@x.com"); !errors.Is(err, account.ErrNotFound) {
		t.Fatalf("FindByEmail after remove: got %v, want ErrNotFound", err)
	}

	// idempotent failure, not a crash
	if _, err := svc.Remove(ctx, created.ID); !errors.Is(err, account.ErrNotFound) {
		t.Fatalf("second Remove: got %v, want ErrNotFound", err)
	}
}

func TestRemovedEmailCanBeReRegistered(t *testing.T) {
	svc, _ := newAccountService()
	ctx := context.Background()

	created, _ := svc.Create(ctx, "a@x.com", "pw12345678", "Alice")

	if _, err := svc.Remove(ctx, created.ID); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}

	again, err := svc.Create(ctx, "a@x.com", "pw12345678", "Alice II")

	if err != nil {
		t.Fatalf("re-registering a soft-deleted email should work: %v", err)
	}

	if again.ID == created.ID {
		t.Fatalf("expected a fresh record, got the old id %d", again.ID)
	}
}
