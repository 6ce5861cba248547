package api

import (
	"context"
	"net/http"
	"time"

	"github.com/okian/podium/internal/domain/model"
)

// StandingsDependencies defines the interface for recompute-and-publish.
type StandingsDependencies interface {
	Recompute(ctx context.Context, results []model.ParticipantResult, asOf time.Time) (model.Publication, error)
}

// StandingsHandler handles standings publish requests.
type StandingsHandler struct {
	deps StandingsDependencies
}

// NewStandingsHandler creates a new standings handler.
func NewStandingsHandler(deps StandingsDependencies) *StandingsHandler {
	return &StandingsHandler{deps: deps}
}

// HandlePostStandings handles POST /standings requests.
func (h *StandingsHandler) HandlePostStandings(w http.ResponseWriter, r *http.Request) {
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
	pub, err := h.deps.Recompute(r.Context(), req.Results, asOf)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, pub)
}
