// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/okian/podium/internal/adapters/repository"
	"github.com/okian/podium/internal/domain/aggregation"
	"github.com/okian/podium/internal/domain/model"
	"github.com/okian/podium/internal/domain/policy"
	"github.com/okian/podium/internal/domain/qualitywin"
	"github.com/okian/podium/internal/domain/scoring"
	"github.com/okian/podium/internal/domain/types"
	"github.com/okian/podium/pkg/logger"
	"github.com/okian/podium/pkg/metrics"
)

const defaultListName = "standings"

// Service implements the API dependencies for the ranking-points engine.
type Service struct {
	mu sync.RWMutex

	// Core components
	policy     *policy.Policy
	ratings    qualitywin.RankLookup
	standings  repository.Store
	scorer     *scoring.Engine
	aggregator *aggregation.Engine

	// Configuration
	listName           string
	workers            int
	includeProfileName bool

	// State
	started bool

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithPolicy sets the ranking-points policy awards and standings follow.
func WithPolicy(p *policy.Policy) Option {
	return func(s *Service) {
		s.policy = p
	}
}

// WithRatings sets the ranking store quality wins are resolved against.
func WithRatings(lookup qualitywin.RankLookup) Option {
	return func(s *Service) {
		s.ratings = lookup
	}
}

// WithStandingsStore replaces the in-memory snapshot store.
func WithStandingsStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.standings = store
		}
	}
}

// WithListName names the published ranking list.
func WithListName(name string) Option {
	return func(s *Service) {
		if name != "" {
			s.listName = name
		}
	}
}

// WithAggregationWorkers bounds the per-participant aggregation fan-out.
func WithAggregationWorkers(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithIncludeProfileName stamps the selected profile name on every award.
func WithIncludeProfileName(include bool) Option {
	return func(s *Service) {
		s.includeProfileName = include
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		listName: defaultListName,
		workers:  runtime.GOMAXPROCS(0),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start builds the engines. A policy is required.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	if s.policy == nil {
		return types.MissingValue("policy")
	}
	if err := s.policy.Validate(); err != nil {
		return err
	}

	s.scorer = scoring.NewEngine(
		scoring.WithRankLookup(s.ratings),
		scoring.WithLogger(s.logger.Named("scoring")),
	)
	s.aggregator = aggregation.NewEngine(
		aggregation.WithWorkers(s.workers),
		aggregation.WithLogger(s.logger.Named("aggregation")),
	)
	if s.standings == nil {
		s.standings = repository.NewSnapshotStore()
	}

	s.started = true
	s.logger.Info(ctx, "ranking service started",
		logger.String("policy", s.policy.PolicyName),
		logger.Int("profiles", len(s.policy.AwardProfiles)),
		logger.Int("workers", s.workers),
		logger.Bool("ratings", s.ratings != nil),
	)
	return nil
}

// Stop marks the service stopped. Published standings stay readable.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	s.started = false
	s.logger.Info(context.Background(), "ranking service stopped")
}

// engines returns the running engines or an error before Start.
func (s *Service) engines() (*scoring.Engine, *aggregation.Engine, *policy.Policy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, nil, nil, ErrNotStarted
	}
	return s.scorer, s.aggregator, s.policy, nil
}

// ComputeAwards runs the policy's award profiles over results.
func (s *Service) ComputeAwards(ctx context.Context, results []model.ParticipantResult, asOf time.Time) (model.AwardSet, error) {
	scorer, _, p, err := s.engines()
	if err != nil {
		return model.AwardSet{}, err
	}
	return scorer.Compute(ctx, scoring.Request{
		Profiles: p.AwardProfiles,
		Results:  results,
		Options: scoring.Options{
			IncludeProfileName: s.includeProfileName,
			AsOfDate:           asOf,
		},
	})
}

// GenerateRankings aggregates awards into a ranked list. Nil rules fall back
// to the policy's aggregation rules.
func (s *Service) GenerateRankings(ctx context.Context, awards []model.PointAward, rules *policy.AggregationRules, asOf time.Time) ([]model.RankingListEntry, error) {
	_, aggregator, p, err := s.engines()
	if err != nil {
		return nil, err
	}
	if rules == nil {
		rules = p.AggregationRules
	}
	return aggregator.GenerateRankingList(ctx, awards, rules, asOf)
}

// ParticipantPoints aggregates one person's awards without ranking them.
func (s *Service) ParticipantPoints(ctx context.Context, awards []model.PointAward, personID string, rules *policy.AggregationRules, asOf time.Time) (model.RankingListEntry, error) {
	_, aggregator, p, err := s.engines()
	if err != nil {
		return model.RankingListEntry{}, err
	}
	if rules == nil {
		rules = p.AggregationRules
	}
	return aggregator.ParticipantPoints(ctx, awards, personID, rules, asOf)
}

// Recompute scores results, aggregates the awards under the policy's rules and
// publishes the list as the current standings.
func (s *Service) Recompute(ctx context.Context, results []model.ParticipantResult, asOf time.Time) (model.Publication, error) {
	set, err := s.ComputeAwards(ctx, results, asOf)
	if err != nil {
		return model.Publication{}, err
	}
	awards := set.PersonAwards()
	entries, err := s.GenerateRankings(ctx, awards, nil, asOf)
	if err != nil {
		return model.Publication{}, err
	}
	snap, err := s.standings.Publish(ctx, repository.Publication{
		ListName: s.listName,
		AsOf:     asOf,
		Entries:  entries,
	})
	if err != nil {
		return model.Publication{}, err
	}

	s.logger.Info(ctx, "standings published",
		logger.String("runId", snap.RunID),
		logger.Int("results", len(results)),
		logger.Int("awards", len(awards)),
		logger.Int("participants", len(entries)),
	)
	return model.Publication{
		RunID:        snap.RunID,
		ListName:     snap.ListName,
		AsOf:         snap.AsOf,
		Participants: len(snap.Entries),
		Awards:       len(awards),
	}, nil
}

// Leaderboard returns the first limit entries of the published standings.
func (s *Service) Leaderboard(ctx context.Context, limit int) (model.Standings, error) {
	if limit < 1 {
		return model.Standings{}, repository.ErrInvalidLimit
	}
	if _, _, _, err := s.engines(); err != nil {
		return model.Standings{}, err
	}
	snap := s.standings.Latest(ctx)
	if snap == nil {
		return model.Standings{ListName: s.listName, Entries: []model.RankingListEntry{}}, nil
	}
	return model.Standings{
		RunID:    snap.RunID,
		ListName: snap.ListName,
		AsOf:     snap.AsOf,
		Entries:  snap.Top(limit),
	}, nil
}

// TopN returns the top n published entries.
func (s *Service) TopN(ctx context.Context, n int) ([]model.RankingListEntry, error) {
	if _, _, _, err := s.engines(); err != nil {
		return nil, err
	}
	return s.standings.TopN(ctx, n)
}

// Rank returns the published entry for a person.
func (s *Service) Rank(ctx context.Context, personID string) (model.RankingListEntry, error) {
	if personID == "" {
		return model.RankingListEntry{}, types.MissingValue("personId")
	}
	if _, _, _, err := s.engines(); err != nil {
		return model.RankingListEntry{}, err
	}
	return s.standings.Rank(ctx, personID)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats(ctx context.Context) map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]any{
		"started":  s.started,
		"workers":  s.workers,
		"listName": s.listName,
	}
	if s.policy != nil {
		stats["policyName"] = s.policy.PolicyName
		stats["awardProfiles"] = len(s.policy.AwardProfiles)
	}
	if sized, ok := s.ratings.(interface{ Len() int }); ok {
		stats["ratings"] = sized.Len()
	}

	if s.started {
		ranked := s.standings.Count(ctx)
		stats["participantsRanked"] = ranked
		if snap := s.standings.Latest(ctx); snap != nil {
			stats["runId"] = snap.RunID
			stats["publishedAt"] = snap.PublishedAt
		}
		metrics.UpdateParticipantsRanked(ranked)
	}
	return stats
}
