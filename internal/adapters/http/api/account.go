package api

import (
	"context"
	"net/http"
)

// AccountDependencies defines the interface for account deletion.
type AccountDependencies interface {
	DeleteAccount(ctx context.Context) error
}

// AccountHandler handles account deletion requests.
type AccountHandler struct {
	deps AccountDependencies
}

// NewAccountHandler creates a new account handler.
func NewAccountHandler(deps AccountDependencies) *AccountHandler {
	return &AccountHandler{deps: deps}
}

// HandleDeleteAccount handles DELETE /account requests for the current user.
// A remote failure aborts the whole operation; local state is never left
// ahead of the store on deletes.
func (h *AccountHandler) HandleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		http.NotFound(w, r)
		return
	}
	if err := h.deps.DeleteAccount(r.Context()); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
