// Package qualitywin awards bonus points for beating ranked opponents.
package qualitywin

import (
	"context"
	"math"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/okian/podium/internal/domain/model"
	"github.com/okian/podium/internal/domain/policy"
	"github.com/okian/podium/internal/domain/types"
	"github.com/okian/podium/pkg/logger"
	"github.com/okian/podium/pkg/metrics"
)

// ScaleTypeRanking is the scale type quality wins look up.
const ScaleTypeRanking = "RANKING"

// RankRequest identifies the scale value to resolve. A zero AsOf asks for the
// latest value on record.
type RankRequest struct {
	ParticipantID string
	ScaleName     string
	ScaleType     string
	EventType     string
	AsOf          time.Time
}

// RankLookup resolves an opponent's rank. ok is false when the opponent has no
// rank under the requested scale at that date.
type RankLookup interface {
	Rank(ctx context.Context, req RankRequest) (rank int, ok bool, err error)
}

// Budget tracks quality-win points already granted to one participant in one
// tournament, per quality-win profile.
type Budget struct {
	spent map[*policy.QualityWinProfile]float64
}

// NewBudget returns an empty budget.
func NewBudget() *Budget {
	return &Budget{spent: make(map[*policy.QualityWinProfile]float64)}
}

// Spent returns the points already granted under q.
func (b *Budget) Spent(q *policy.QualityWinProfile) float64 {
	return b.spent[q]
}

// grant adds up to value under q's cap and returns what was actually added.
func (b *Budget) grant(q *policy.QualityWinProfile, value float64) float64 {
	if q.MaxBonusPerTournament != nil {
		remaining := math.Max(0, *q.MaxBonusPerTournament-b.spent[q])
		value = math.Min(value, remaining)
	}
	b.spent[q] += value
	return value
}

// Request carries the per-result context of an evaluation.
type Request struct {
	EventType string
	// FallbackDate stands in for wins recorded without a match date.
	FallbackDate time.Time
}

// Outcome is the quality-win contribution of a set of wins. Points honours the
// tournament cap; each detail carries its uncapped value.
type Outcome struct {
	Points float64
	Wins   []model.QualityWin
}

// Option applies a configuration option to the Evaluator.
type Option func(*Evaluator)

// WithRankLookup sets the ranking store used to resolve opponent ranks.
func WithRankLookup(lookup RankLookup) Option {
	return func(e *Evaluator) {
		e.lookup = lookup
	}
}

// WithAsOfDate pins lookups for profiles using the asOfDate snapshot.
func WithAsOfDate(asOf time.Time) Option {
	return func(e *Evaluator) {
		e.asOf = asOf
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(e *Evaluator) {
		if l != nil {
			e.logger = l
		}
	}
}

// Evaluator scans wins for qualifying opponents.
type Evaluator struct {
	lookup RankLookup
	asOf   time.Time
	logger logger.Logger
}

// NewEvaluator creates an evaluator with configuration options.
func NewEvaluator(opts ...Option) *Evaluator {
	e := &Evaluator{
		logger: logger.Get().Named("qualitywin"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate applies q to wins, drawing on budget for the tournament cap.
func (e *Evaluator) Evaluate(ctx context.Context, q *policy.QualityWinProfile, wins []model.Win, req Request, budget *Budget) (Outcome, error) {
	var out Outcome
	if q == nil || len(wins) == 0 {
		return out, nil
	}
	if q.RankingScaleName == "" {
		return out, types.MissingValue("scaleAttributes.scaleName")
	}
	if e.lookup == nil {
		return out, errors.Wrap(types.ErrMissingTournamentRecord, "no ranking store configured for quality wins")
	}
	if q.Snapshot() == policy.SnapshotAsOfDate && e.asOf.IsZero() {
		return out, types.MissingValue("asOfDate")
	}
	if budget == nil {
		budget = NewBudget()
	}

	for _, w := range wins {
		if w.Walkover && !q.IncludeWalkovers {
			continue
		}
		rank, ok, err := e.lookup.Rank(ctx, RankRequest{
			ParticipantID: w.OpponentParticipantID,
			ScaleName:     q.RankingScaleName,
			ScaleType:     ScaleTypeRanking,
			EventType:     req.EventType,
			AsOf:          e.snapshotDate(q, w, req),
		})
		if err != nil {
			return Outcome{}, errors.Wrapf(err, "resolve rank of %s", w.OpponentParticipantID)
		}
		if !ok {
			// noBonus is the only unranked behaviour: no points, no detail
			continue
		}

		value, inRange := rangeValue(q.RankingRanges, rank)
		if !inRange {
			continue
		}
		out.Points += budget.grant(q, value)
		out.Wins = append(out.Wins, model.QualityWin{
			OpponentParticipantID: w.OpponentParticipantID,
			OpponentRank:          rank,
			Points:                value,
			MatchUpID:             w.MatchUpID,
		})
		metrics.RecordQualityWin()
	}

	if len(out.Wins) > 0 {
		e.logger.Debug(ctx, "quality wins evaluated",
			logger.String("scale", q.RankingScaleName),
			logger.Int("wins", len(out.Wins)),
			logger.Float64("points", out.Points),
		)
	}
	return out, nil
}

func (e *Evaluator) snapshotDate(q *policy.QualityWinProfile, w model.Win, req Request) time.Time {
	if q.Snapshot() == policy.SnapshotAsOfDate {
		return e.asOf
	}
	if !w.Date.IsZero() {
		return w.Date
	}
	return req.FallbackDate
}

// rangeValue returns the value of the first range containing rank.
func rangeValue(ranges []policy.RankingRange, rank int) (float64, bool) {
	for _, r := range ranges {
		if r.Contains(rank) {
			return r.Value, true
		}
	}
	return 0, false
}
