package api

import (
	"net/http"

	"github.com/sweetshooter/study-progress-tracker/internal/app"
)

// ChartsDependencies defines the interface for chart projections.
type ChartsDependencies interface {
	Charts() app.ChartData
}

// ChartsHandler serves precomputed chart series for the view to render.
type ChartsHandler struct {
	deps ChartsDependencies
}

// NewChartsHandler creates a new charts handler.
func NewChartsHandler(deps ChartsDependencies) *ChartsHandler {
	return &ChartsHandler{deps: deps}
}

// HandleGetCharts handles GET /charts requests. Series are recomputed from
// the roster on every call; the roster is the only mutable input so there is
// nothing to invalidate.
func (h *ChartsHandler) HandleGetCharts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, h.deps.Charts())
}
