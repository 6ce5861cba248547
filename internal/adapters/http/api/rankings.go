package api

import (
	"context"
	"net/http"
	"time"

	"github.com/okian/podium/internal/domain/model"
	"github.com/okian/podium/internal/domain/policy"
)

// RankingDependencies defines the interface for ranking list generation.
type RankingDependencies interface {
	GenerateRankings(ctx context.Context, awards []model.PointAward, rules *policy.AggregationRules, asOf time.Time) ([]model.RankingListEntry, error)
}

// RankingsHandler handles ad hoc ranking list requests.
type RankingsHandler struct {
	deps RankingDependencies
}

// NewRankingsHandler creates a new rankings handler.
func NewRankingsHandler(deps RankingDependencies) *RankingsHandler {
	return &RankingsHandler{deps: deps}
}

// HandlePostRankings handles POST /rankings requests. Nothing is published.
func (h *RankingsHandler) HandlePostRankings(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req rankingsRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	asOf, err := parseAsOf(req.AsOf)
	if err != nil {
		writeError(w, err)
		return
	}
	entries, err := h.deps.GenerateRankings(r.Context(), req.Awards, req.Rules, asOf)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}
