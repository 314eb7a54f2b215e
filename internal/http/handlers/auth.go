package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mzavadsky/accounthub/internal/domain/account"
	"github.com/mzavadsky/accounthub/internal/http/middlewares"
	"github.com/mzavadsky/accounthub/internal/observability"
	"github.com/mzavadsky/accounthub/internal/service"
	"github.com/mzavadsky/accounthub/internal/token"
)

// Keep these small interfaces so tests can fake them easily.

type Authenticator interface {
	Register(ctx context.Context, email, password, name string) (token.Pair, error)
	Login(ctx context.Context, email, password string) (token.Pair, error)
	Refresh(ctx context.Context, refreshToken string) (token.Pair, error)
}

type ProfileFinder interface {
	FindByEmail(ctx context.Context, email string) (account.Account, error)
}

type AuthHandler struct {
	auth     Authenticator
	accounts ProfileFinder
	prom     *observability.Prom
}

func NewAuthHandler(auth Authenticator, accounts ProfileFinder, prom *observability.Prom) *AuthHandler {
	return &AuthHandler{
		auth:     auth,
		accounts: accounts,
		prom:     prom,
	}
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

func (h *AuthHandler) Register(ctx *gin.Context) {
	var req account.RegisterRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	pair, err := h.auth.Register(cctx, req.Email, req.Password, req.Name)

	if err != nil {
		h.observeAuth("register", err)
		respondAuthError(ctx, err)
		return
	}

	h.observeAuth("register", nil)
	ctx.JSON(http.StatusCreated, pair)
}

func (h *AuthHandler) Login(ctx *gin.Context) {
	var req account.LoginRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	pair, err := h.auth.Login(cctx, req.Email, req.Password)

	if err != nil {
		h.observeAuth("login", err)
		respondAuthError(ctx, err)
		return
	}

	h.observeAuth("login", nil)
	ctx.JSON(http.StatusOK, pair)
}

func (h *AuthHandler) Refresh(ctx *gin.Context) {
	var req RefreshRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	pair, err := h.auth.Refresh(cctx, req.RefreshToken)

	if err != nil {
		h.observeAuth("refresh", err)
		respondAuthError(ctx, err)
		return
	}

	h.observeAuth("refresh", nil)
	ctx.JSON(http.StatusOK, pair)
}

// Profile resolves the caller from the access-token claims.
func (h *AuthHandler) Profile(ctx *gin.Context) {
	email, ok := middlewares.EmailFromContext(ctx)

	if !ok || email == "" {
		RespondUnauthorized(ctx, "unauthorized", "Missing identity context")
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	a, err := h.accounts.FindByEmail(cctx, email)

	if err != nil {
		respondAuthError(ctx, err)
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, a.ToResponse())
}

func (h *AuthHandler) observeAuth(op string, err error) {
	if h.prom == nil {
		return
	}

	result := "ok"

	switch {
	case err == nil:
	case errors.Is(err, account.ErrDuplicateEmail),
		errors.Is(err, account.ErrInvalidCredentials),
		errors.Is(err, account.ErrNotFound),
		errors.Is(err, token.ErrUnauthenticated),
		errors.Is(err, service.ErrInvalidRefresh):
		result = "rejected"
	default:
		result = "error"
	}

	h.prom.AuthAttempts.WithLabelValues(op, result).Inc()
}

// respondAuthError maps domain error kinds onto the wire contract:
// uniqueness and unresolvable-referent failures are request-validation
// responses, credential and token failures are authentication responses.
func respondAuthError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, account.ErrDuplicateEmail):
		RespondBadRequestCode(ctx, "email_taken", "Email is already in use.")
	case errors.Is(err, account.ErrInvalidCredentials):
		RespondUnauthorized(ctx, "invalid_credentials", "Email or password is incorrect.")
	case errors.Is(err, token.ErrUnauthenticated):
		RespondUnauthorized(ctx, "unauthorized", "Invalid or expired token.")
	case errors.Is(err, service.ErrInvalidRefresh):
		RespondBadRequestCode(ctx, "invalid_refresh", "Refresh token no longer resolves to an account.")
	case errors.Is(err, account.ErrNotFound):
		RespondBadRequestCode(ctx, "not_found", "Account does not exist.")
	default:
		RespondInternal(ctx, "Something went wrong")
	}
}
