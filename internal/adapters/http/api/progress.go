package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
)

// ProgressDependencies defines the interface for progress updates.
type ProgressDependencies interface {
	UpdateProgress(ctx context.Context, subjectID string, rawValue int) error
	PercentFor(subjectID string) int
	WatchedFor(subjectID string) int
}

// ProgressHandler handles progress update requests.
type ProgressHandler struct {
	deps ProgressDependencies
}

// NewProgressHandler creates a new progress handler.
func NewProgressHandler(deps ProgressDependencies) *ProgressHandler {
	return &ProgressHandler{deps: deps}
}

// progressRequest mirrors the per-subject editor: a raw watched count that
// the controller clamps into range.
type progressRequest struct {
	Watched int `json:"watched"`
}

type progressResponse struct {
	SubjectID string `json:"subject_id"`
	Watched   int    `json:"watched"`
	Percent   int    `json:"percent"`
}

// HandlePutProgress handles PUT /progress/{subjectID} requests.
// A 502 response still means the edit was applied locally: progress writes
// are optimistic and are never rolled back on remote failure.
func (h *ProgressHandler) HandlePutProgress(w http.ResponseWriter, r *http.Request) {
	const op = "api.put_progress"
	if r.Method != http.MethodPut {
		http.NotFound(w, r)
		return
	}
	subjectID := strings.TrimPrefix(r.URL.Path, "/progress/")
	if subjectID == "" || strings.Contains(subjectID, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	var req progressRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := h.deps.UpdateProgress(r.Context(), subjectID, req.Watched); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, progressResponse{
		SubjectID: subjectID,
		Watched:   h.deps.WatchedFor(subjectID),
		Percent:   h.deps.PercentFor(subjectID),
	})
}
