package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/sweetshooter/study-progress-tracker/internal/app"
)

// SessionDependencies defines the interface for session operations.
type SessionDependencies interface {
	Login(ctx context.Context, nickname string) error
	Logout()
	Snapshot() app.Snapshot
}

// SessionHandler handles login and logout requests.
type SessionHandler struct {
	deps SessionDependencies
}

// NewSessionHandler creates a new session handler.
func NewSessionHandler(deps SessionDependencies) *SessionHandler {
	return &SessionHandler{deps: deps}
}

// loginRequest mirrors the login form: a bare nickname, nothing else.
type loginRequest struct {
	Nickname string `json:"nickname"`
}

// HandleSession handles POST /session (login) and DELETE /session (logout).
func (h *SessionHandler) HandleSession(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.handleLogin(w, r)
	case http.MethodDelete:
		h.deps.Logout()
		w.WriteHeader(http.StatusNoContent)
	default:
		http.NotFound(w, r)
	}
}

func (h *SessionHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	const op = "api.login"
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if strings.TrimSpace(req.Nickname) == "" {
		writeError(w, http.StatusBadRequest, "empty_nickname", NewKind(op, ErrBadRequest))
		return
	}
	if err := h.deps.Login(r.Context(), req.Nickname); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, h.deps.Snapshot())
}
