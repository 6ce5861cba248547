// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/okian/podium/internal/domain/model"
	"github.com/okian/podium/internal/domain/policy"
	"github.com/okian/podium/pkg/logger"
)

const (
	defaultMaxLimit = 100
	// maxBodyBytes bounds request documents.
	maxBodyBytes = 32 << 20
	dateLayout   = "2006-01-02"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	AwardDependencies
	RankingDependencies
	StandingsDependencies
	LeaderboardDependencies
	RankDependencies
	StatsProvider
}

// Option applies a configuration option to the Server.
type Option func(*Server)

// WithMaxLimit caps GET /leaderboard?limit.
func WithMaxLimit(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxLimit = n
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// Server wires HTTP routes for the business API.
type Server struct {
	maxLimit int
	logger   logger.Logger

	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	awardsHandler      *AwardsHandler
	rankingsHandler    *RankingsHandler
	standingsHandler   *StandingsHandler
	leaderboardHandler *LeaderboardHandler
	rankHandler        *RankHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, opts ...Option) *Server {
	s := &Server{
		maxLimit: defaultMaxLimit,
		logger:   logger.Get().Named("api"),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.healthHandler = NewHealthHandler()
	s.statsHandler = NewStatsHandler(deps)
	s.awardsHandler = NewAwardsHandler(deps)
	s.rankingsHandler = NewRankingsHandler(deps)
	s.standingsHandler = NewStandingsHandler(deps)
	s.leaderboardHandler = NewLeaderboardHandler(deps, s.maxLimit)
	s.rankHandler = NewRankHandler(deps)
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}
	mux.HandleFunc("/healthz", s.instrument("healthz", s.healthHandler.HandleHealth))
	mux.HandleFunc("/stats", s.instrument("stats", s.statsHandler.HandleStats))
	mux.HandleFunc("/awards", s.instrument("awards", s.awardsHandler.HandlePostAwards))
	mux.HandleFunc("/rankings", s.instrument("rankings", s.rankingsHandler.HandlePostRankings))
	mux.HandleFunc("/standings", s.instrument("standings", s.standingsHandler.HandlePostStandings))
	mux.HandleFunc("/leaderboard", s.instrument("leaderboard", s.leaderboardHandler.HandleGetLeaderboard))
	mux.HandleFunc("/rank/", s.instrument("rank", s.rankHandler.HandleGetRank))
}

// resultsRequest carries structure results for POST /awards and POST /standings.
type resultsRequest struct {
	Results []model.ParticipantResult `json:"results"`
	AsOf    string                    `json:"asOf,omitempty"`
}

// rankingsRequest carries awards for POST /rankings. Rules override the
// policy's aggregation rules when present.
type rankingsRequest struct {
	Awards []model.PointAward       `json:"awards"`
	Rules  *policy.AggregationRules `json:"rules,omitempty"`
	AsOf   string                   `json:"asOf,omitempty"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// decodeBody reads a JSON request body into v.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return errors.Mark(errors.Wrap(err, "decode request body"), ErrBadRequest)
	}
	return nil
}

// parseAsOf accepts an RFC3339 timestamp or a plain date. Empty means unset.
func parseAsOf(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, errors.Mark(errors.Newf("invalid asOf %q; want RFC3339 or YYYY-MM-DD", s), ErrBadRequest)
	}
	return t, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	status, code := classify(err)
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
