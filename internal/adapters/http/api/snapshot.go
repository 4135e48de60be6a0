package api

import (
	"net/http"

	"github.com/sweetshooter/study-progress-tracker/internal/app"
)

// SnapshotDependencies defines the interface for roster reads.
type SnapshotDependencies interface {
	Snapshot() app.Snapshot
}

// SnapshotHandler serves the read-only roster/session view.
type SnapshotHandler struct {
	deps SnapshotDependencies
}

// NewSnapshotHandler creates a new snapshot handler.
func NewSnapshotHandler(deps SnapshotDependencies) *SnapshotHandler {
	return &SnapshotHandler{deps: deps}
}

// HandleGetSnapshot handles GET /snapshot requests.
func (h *SnapshotHandler) HandleGetSnapshot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, h.deps.Snapshot())
}
