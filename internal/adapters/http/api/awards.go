package api

import (
	"context"
	"net/http"
	"time"

	"github.com/okian/podium/internal/domain/model"
)

// AwardDependencies defines the interface for award computation.
type AwardDependencies interface {
	ComputeAwards(ctx context.Context, results []model.ParticipantResult, asOf time.Time) (model.AwardSet, error)
}

// AwardsHandler handles award computation requests.
type AwardsHandler struct {
	deps AwardDependencies
}

// NewAwardsHandler creates a new awards handler.
func NewAwardsHandler(deps AwardDependencies) *AwardsHandler {
	return &AwardsHandler{deps: deps}
}

// HandlePostAwards handles POST /awards requests.
func (h *AwardsHandler) HandlePostAwards(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req resultsRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	asOf, err := parseAsOf(req.AsOf)
	if err != nil {
		writeError(w, err)
		return
	}
	set, err := h.deps.ComputeAwards(r.Context(), req.Results, asOf)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, set)
}
