package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mzavadsky/accounthub/internal/domain/account"
	"github.com/mzavadsky/accounthub/internal/repo/memory"
	"github.com/mzavadsky/accounthub/internal/service"
	"github.com/mzavadsky/accounthub/internal/token"
)

// Fake implementations of the service.AccountRegistry interface

type fakeRegistry struct {
	createFn      func(ctx context.Context, email, rawPassword, name string) (account.Account, error)
	validateFn    func(ctx context.Context, email, rawPassword string) (account.Account, error)
	findByEmailFn func(ctx context.Context, email string) (account.Account, error)
}

func (f *fakeRegistry) Create(ctx context.Context, email, rawPassword, name string) (account.Account, error) {
	if f.createFn != nil {
		return f.createFn(ctx, email, rawPassword, name)
	}
	return account.Account{}, nil
}

func (f *fakeRegistry) ValidateCredentials(ctx context.Context, email, rawPassword string) (account.Account, error) {
	if f.validateFn != nil {
		return f.validateFn(ctx, email, rawPassword)
	}
	return account.Account{}, nil
}

func (f *fakeRegistry) FindByEmail(ctx context.Context, email string) (account.Account, error) {
	if f.findByEmailFn != nil {
		return f.findByEmailFn(ctx, email)
	}
	return account.Account{}, nil
}

func newTestIssuer() *token.Issuer {
	return token.NewIssuer("access-secret", "refresh-secret", 15*time.Minute, 24*time.Hour)
}

func TestAuthServiceRegister(t *testing.T) {
	ctx := context.Background()

	t.Run("returns a pair for the created account", func(t *testing.T) {
		registry := &fakeRegistry{
			createFn: func(ctx context.Context, email, rawPassword, name string) (account.Account, error) {
				return account.Account{ID: 1, Email: email, Name: name, Roles: []string{account.RoleUser}}, nil
			},
		}

		auth := service.NewAuthService(registry, newTestIssuer())

		pair, err := auth.Register(ctx, "a@x.com", "pw12345678", "Alice")

		if err != nil {
			t.Fatalf("Register failed: %v", err)
		}

		if pair.Account.Email != "a@x.com" {
			t.Fatalf("pair should embed the registered account, got %+v", pair.Account)
		}

		if len(pair.Account.Roles) != 1 || pair.Account.Roles[0] != account.RoleUser {
			t.Fatalf("expected default role in the pair, got %v", pair.Account.Roles)
		}
	})

	t.Run("duplicate email propagates unchanged", func(t *testing.T) {
		registry := &fakeRegistry{
			createFn: func(ctx context.Context, email, rawPassword, name string) (account.Account, error) {
				return account.Account{}, account.ErrDuplicateEmail
			},
		}

		auth := service.NewAuthService(registry, newTestIssuer())

		if _, err := auth.Register(ctx, "a@x.com", "pw12345678", ""); !errors.Is(err, account.ErrDuplicateEmail) {
			t.Fatalf("got %v, want ErrDuplicateEmail", err)
		}
	})
}

func TestAuthServiceLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("valid credentials yield a pair", func(t *testing.T) {
		registry := &fakeRegistry{
			validateFn: func(ctx context.Context, email, rawPassword string) (account.Account, error) {
				return account.Account{ID: 7, Email: email, Roles: []string{account.RoleUser}}, nil
			},
		}

		auth := service.NewAuthService(registry, newTestIssuer())

		pair, err := auth.Login(ctx, "a@x.com", "pw12345678")

		if err != nil {
			t.Fatalf("Login failed: %v", err)
		}

		if pair.AccessToken == "" || pair.RefreshToken == "" {
			t.Fatalf("expected both tokens, got %+v", pair)
		}
	})

	t.Run("invalid credentials propagate unchanged", func(t *testing.T) {
		registry := &fakeRegistry{
			validateFn: func(ctx context.Context, email, rawPassword string) (account.Account, error) {
				return account.Account{}, account.ErrInvalidCredentials
			},
		}

		auth := service.NewAuthService(registry, newTestIssuer())

		if _, err := auth.Login(ctx, "a@x.com", "bad"); !errors.Is(err, account.ErrInvalidCredentials) {
			t.Fatalf("got %v, want ErrInvalidCredentials", err)
		}
	})
}

func TestAuthServiceRefresh(t *testing.T) {
	ctx := context.Background()
	issuer := newTestIssuer()

	t.Run("re-reads account state before issuing", func(t *testing.T) {
		original := account.Account{ID: 1, Email: "a@x.com", Roles: []string{account.RoleUser}}

		pair, err := issuer.Generate(original)

		if err != nil {
			t.Fatalf("Generate failed: %v", err)
		}

		// roles changed since the refresh token was issued
		registry := &fakeRegistry{
			findByEmailFn: func(ctx context.Context, email string) (account.Account, error) {
				return account.Account{ID: 1, Email: email, Roles: []string{account.RoleUser, account.RoleAdmin}}, nil
			},
		}

		auth := service.NewAuthService(registry, issuer)

		fresh, err := auth.Refresh(ctx, pair.RefreshToken)

		if err != nil {
			t.Fatalf("Refresh failed: %v", err)
		}

		claims, err := issuer.VerifyAccess(fresh.AccessToken)

		if err != nil {
			t.Fatalf("fresh access token should verify: %v", err)
		}

		if len(claims.Roles) != 2 {
			t.Fatalf("fresh access token should carry current roles, got %v", claims.Roles)
		}
	})

	t.Run("unresolvable subject is InvalidRefresh, not Unauthenticated", func(t *testing.T) {
		pair, err := issuer.Generate(account.Account{ID: 1, Email: "gone@x.com", Roles: []string{account.RoleUser}})

		if err != nil {
			t.Fatalf("Generate failed: %v", err)
		}

		registry := &fakeRegistry{
			findByEmailFn: func(ctx context.Context, email string) (account.Account, error) {
				return account.Account{}, account.ErrNotFound
			},
		}

		auth := service.NewAuthService(registry, issuer)

		_, err = auth.Refresh(ctx, pair.RefreshToken)

		if !errors.Is(err, service.ErrInvalidRefresh) {
			t.Fatalf("got %v, want ErrInvalidRefresh", err)
		}

		if errors.Is(err, token.ErrUnauthenticated) {
			t.Fatalf("InvalidRefresh must stay distinct from Unauthenticated")
		}
	})

	t.Run("bad token is Unauthenticated", func(t *testing.T) {
		auth := service.NewAuthService(&fakeRegistry{}, issuer)

		if _, err := auth.Refresh(ctx, "garbage"); !errors.Is(err, token.ErrUnauthenticated) {
			t.Fatalf("got %v, want ErrUnauthenticated", err)
		}
	})
}

// Full flow against the real account service and in-memory store.
func TestAuthFlowEndToEnd(t *testing.T) {
	ctx := context.Background()

	store := memory.NewAccountsRepo()
	accounts := service.NewAccountService(store)
	issuer := newTestIssuer()
	auth := service.NewAuthService(accounts, issuer)

	registered, err := auth.Register(ctx, "a@x.com", "pw12345678", "Alice")

	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	loggedIn, err := auth.Login(ctx, "a@x.com", "pw12345678")

	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	if loggedIn.Account.Email != "a@x.com" {
		t.Fatalf("login pair carries wrong account: %+v", loggedIn.Account)
	}

	refreshed, err := auth.Refresh(ctx, loggedIn.RefreshToken)

	if err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}

	if refreshed.Account.Email != "a@x.com" {
		t.Fatalf("refreshed pair carries wrong account: %+v", refreshed.Account)
	}

	if refreshed.AccessToken == loggedIn.AccessToken {
		t.Fatalf("refresh should mint a new access token string")
	}

	// a soft-deleted subject can no longer refresh
	if _, err := accounts.Remove(ctx, registered.Account.ID); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}

	if _, err := auth.Refresh(ctx, refreshed.RefreshToken); !errors.Is(err, service.ErrInvalidRefresh) {
		t.Fatalf("refresh for a deleted account: got %v, want ErrInvalidRefresh", err)
	}
}
