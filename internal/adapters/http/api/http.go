// Package api declares HTTP contracts and route registration helpers for the
// view layer. Handlers are thin: every mutation is forwarded to the session
// controller and its success/failure mapped onto a status code.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sweetshooter/study-progress-tracker/internal/app"
	"github.com/sweetshooter/study-progress-tracker/internal/domain/catalog"
)

// Dependencies bundles what the HTTP handlers need from the session
// controller. An interface keeps the handler layer loosely coupled to the
// implementation in internal/app.
type Dependencies interface {
	Login(ctx context.Context, nickname string) error
	Logout()
	DeleteAccount(ctx context.Context) error
	UpdateProgress(ctx context.Context, subjectID string, rawValue int) error
	Snapshot() app.Snapshot
	Charts() app.ChartData
	PercentFor(subjectID string) int
	WatchedFor(subjectID string) int
}

// Server wires HTTP routes for the tracker API.
type Server struct {
	healthHandler   *HealthHandler
	statsHandler    *StatsHandler
	sessionHandler  *SessionHandler
	accountHandler  *AccountHandler
	progressHandler *ProgressHandler
	snapshotHandler *SnapshotHandler
	chartsHandler   *ChartsHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:   NewHealthHandler(),
		statsHandler:    NewStatsHandler(statsProvider),
		sessionHandler:  NewSessionHandler(deps),
		accountHandler:  NewAccountHandler(deps),
		progressHandler: NewProgressHandler(deps),
		snapshotHandler: NewSnapshotHandler(deps),
		chartsHandler:   NewChartsHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", Middleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", Middleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/session", Middleware(s.sessionHandler.HandleSession, "session"))
	mux.HandleFunc("/account", Middleware(s.accountHandler.HandleDeleteAccount, "account"))
	mux.HandleFunc("/progress/", Middleware(s.progressHandler.HandlePutProgress, "progress"))
	mux.HandleFunc("/snapshot", Middleware(s.snapshotHandler.HandleGetSnapshot, "snapshot"))
	mux.HandleFunc("/charts", Middleware(s.chartsHandler.HandleGetCharts, "charts"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeServiceError maps session controller failures onto the API surface.
// Remote store failures become 502 with the store's reported error text.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, app.ErrEmptyNickname):
		writeError(w, http.StatusBadRequest, "empty_nickname", err)
	case errors.Is(err, catalog.ErrNotFound):
		writeError(w, http.StatusNotFound, "unknown_subject", err)
	case errors.Is(err, app.ErrNoSession):
		writeError(w, http.StatusConflict, "no_session", err)
	case errors.Is(err, app.ErrRemoteWrite), errors.Is(err, app.ErrRemoteRead):
		writeError(w, http.StatusBadGateway, "remote_store_error", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}
