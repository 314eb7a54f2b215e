package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mzavadsky/accounthub/internal/domain/account"
	"github.com/mzavadsky/accounthub/internal/service"
)

type AccountManager interface {
	FindByID(ctx context.Context, id int64) (account.Account, error)
	Update(ctx context.Context, id int64, req account.UpdateRequest) (account.Response, error)
	Remove(ctx context.Context, id int64) (service.DeleteConfirmation, error)
}

type AccountsHandler struct {
	accounts AccountManager
}

func NewAccountsHandler(accounts AccountManager) *AccountsHandler {
	return &AccountsHandler{accounts: accounts}
}

// idParam parses the :id path segment. Non-numeric input never reaches
// the service; structurally invalid ids (<= 0) do, and fail there.
func idParam(ctx *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)

	if err != nil {
		RespondBadRequest(ctx, "Account id must be an integer", nil)
		return 0, false
	}

	return id, true
}

func (h *AccountsHandler) GetByID(ctx *gin.Context) {
	id, ok := idParam(ctx)

	if !ok {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	a, err := h.accounts.FindByID(cctx, id)

	if err != nil {
		respondAuthError(ctx, err)
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, a.ToResponse())
}

func (h *AccountsHandler) Update(ctx *gin.Context) {
	id, ok := idParam(ctx)

	if !ok {
		return
	}

	var req account.UpdateRequest

	if !BindJSON(ctx, &req) {
		return
	}

	if req.IsEmpty() {
		RespondBadRequest(ctx, "Update requires at least one field", nil)
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	resp, err := h.accounts.Update(cctx, id, req)

	if err != nil {
		respondAuthError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, resp)
}

func (h *AccountsHandler) Delete(ctx *gin.Context) {
	id, ok := idParam(ctx)

	if !ok {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	confirmation, err := h.accounts.Remove(cctx, id)

	if err != nil {
		respondAuthError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, confirmation)
}
