package handler

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/acodylabs/platform/internal/model"
	"github.com/acodylabs/platform/internal/store"
	"github.com/acodylabs/platform/pkg/logger"
)

// AccountHandler handles the account roster endpoint.
type AccountHandler struct {
	store  store.Store
	logger *logger.Logger
}

// NewAccountHandler creates a new account handler.
func NewAccountHandler(st store.Store, log *logger.Logger) *AccountHandler {
	return &AccountHandler{store: st, logger: log}
}

// List handles GET /api/v1/accounts?role=admin (staff only).
func (h *AccountHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	role := model.Role(r.URL.Query().Get("role"))
	if !role.Valid() {
		writeError(w, http.StatusBadRequest, "unknown role")
		return
	}

	accounts, err := h.store.ListAccountsByRole(ctx, role)
	if err != nil {
		h.logger.Error("failed to list accounts", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list accounts")
		return
	}

	writeJSON(w, http.StatusOK, &model.ListAccountsResponse{
		Accounts: accounts,
		Total:    len(accounts),
	})
}
