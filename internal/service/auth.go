package service

import (
	"context"
	"errors"

	"github.com/mzavadsky/accounthub/internal/domain/account"
	"github.com/mzavadsky/accounthub/internal/token"
)

// ErrInvalidRefresh means the refresh token verified fine but its subject
// no longer resolves to an active account. Request-validation class, kept
// deliberately distinct from token.ErrUnauthenticated.
var ErrInvalidRefresh = errors.New("refresh token no longer valid")

// Keep these small interfaces so tests can fake them easily.

type AccountRegistry interface {
	Create(ctx context.Context, email, rawPassword, name string) (account.Account, error)
	ValidateCredentials(ctx context.Context, email, rawPassword string) (account.Account, error)
	FindByEmail(ctx context.Context, email string) (account.Account, error)
}

type TokenIssuer interface {
	Generate(acc account.Account) (token.Pair, error)
	VerifyRefresh(tokenStr string) (*token.RefreshClaims, error)
}

// AuthService composes the account service and the token issuer. It is
// the only component that touches both.
type AuthService struct {
	accounts AccountRegistry
	tokens   TokenIssuer
}

func NewAuthService(accounts AccountRegistry, tokens TokenIssuer) *AuthService {
	return &AuthService{
		accounts: accounts,
		tokens:   tokens,
	}
}

func (s *AuthService) Register(ctx context.Context, email, password, name string) (token.Pair, error) {
	created, err := s.accounts.Create(ctx, email, password, name)

	if err != nil {
		return token.Pair{}, err
	}

	return s.tokens.Generate(created)
}

func (s *AuthService) Login(ctx context.Context, email, password string) (token.Pair, error) {
	a, err := s.accounts.ValidateCredentials(ctx, email, password)

	if err != nil {
		return token.Pair{}, err
	}

	return s.tokens.Generate(a)
}

// Refresh exchanges a refresh token for a fresh pair. Account state is
// re-read on every exchange, so role or email changes since issuance show
// up in the new access token.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (token.Pair, error) {
	claims, err := s.tokens.VerifyRefresh(refreshToken)

	if err != nil {
		return token.Pair{}, err
	}

	a, err := s.accounts.FindByEmail(ctx, claims.Email)

	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			return token.Pair{}, ErrInvalidRefresh
		}

		return token.Pair{}, err
	}

	return s.tokens.Generate(a)
}
