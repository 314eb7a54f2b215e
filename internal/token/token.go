package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/mzavadsky/accounthub/internal/domain/account"
)

// ErrUnauthenticated covers every verification failure: bad signature,
// malformed token, expired envelope, wrong token type. Callers must not
// be able to tell those apart.
var ErrUnauthenticated = errors.New("invalid or expired token")

type AccessClaims struct {
	Email     string   `json:"email"`
	Roles     []string `json:"roles"`
	TokenType string   `json:"typ"`
	JTI       string   `json:"jti"`
	jwt.RegisteredClaims
}

type RefreshClaims struct {
	Email     string `json:"email"`
	TokenType string `json:"typ"`
	JTI       string `json:"jti"`
	jwt.RegisteredClaims
}

// Pair is what a successful authentication event hands back: both bearer
// strings plus the account they were minted for.
type Pair struct {
	AccessToken  string           `json:"accessToken"`
	RefreshToken string           `json:"refreshToken"`
	Account      account.Response `json:"data"`
}

// Issuer signs and verifies the two token kinds. The secrets are
// independent on purpose: an access token can never be replayed as a
// refresh token and vice versa.
type Issuer struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

func NewIssuer(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *Issuer {
	return &Issuer{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}
}

// Generate mints an access token (email + roles) and a refresh token
// (email only) for the given account. Pure computation, no I/O.
func (i *Issuer) Generate(acc account.Account) (Pair, error) {
	now := time.Now().UTC()

	accessClaims := AccessClaims{
		Email:     acc.Email,
		Roles:     acc.Roles,
		TokenType: "access",
		JTI:       uuid.NewString(),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.accessTTL)),
			Subject:   acc.Email,
		},
	}

	access, err := jwt.NewWithClaims(jwt.SigningMethodHS256, accessClaims).SignedString(i.accessSecret)

	if err != nil {
		return Pair{}, err
	}

	refreshClaims := RefreshClaims{
		Email:     acc.Email,
		TokenType: "refresh",
		JTI:       uuid.NewString(),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.refreshTTL)),
			Subject:   acc.Email,
		},
	}

	refresh, err := jwt.NewWithClaims(jwt.SigningMethodHS256, refreshClaims).SignedString(i.refreshSecret)

	if err != nil {
		return Pair{}, err
	}

	return Pair{
		AccessToken:  access,
		RefreshToken: refresh,
		Account:      acc.ToResponse(),
	}, nil
}

func (i *Issuer) VerifyAccess(tokenStr string) (*AccessClaims, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &AccessClaims{}, func(t *jwt.Token) (interface{}, error) {
		// Enforce HS256

		_, ok := t.Method.(*jwt.SigningMethodHMAC)

		if !ok {
			return nil, errors.New("unexpected signing method")
		}
		return i.accessSecret, nil
	})

	if err != nil {
		return nil, ErrUnauthenticated
	}

	claims, ok := parsed.Claims.(*AccessClaims)

	if !ok || !parsed.Valid || claims.TokenType != "access" {
		return nil, ErrUnauthenticated
	}

	return claims, nil
}

func (i *Issuer) VerifyRefresh(tokenStr string) (*RefreshClaims, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &RefreshClaims{}, func(t *jwt.Token) (interface{}, error) {
		_, ok := t.Method.(*jwt.SigningMethodHMAC)

		if !ok {
			return nil, errors.New("unexpected signing method")
		}
		return i.refreshSecret, nil
	})

	if err != nil {
		return nil, ErrUnauthenticated
	}

	claims, ok := parsed.Claims.(*RefreshClaims)

	if !ok || !parsed.Valid || claims.TokenType != "refresh" {
		return nil, ErrUnauthenticated
	}

	return claims, nil
}
