// Package scoring turns structure participations into point awards.
package scoring

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/okian/podium/internal/domain/dedupe"
	"github.com/okian/podium/internal/domain/model"
	"github.com/okian/podium/internal/domain/policy"
	"github.com/okian/podium/internal/domain/qualitywin"
	"github.com/okian/podium/internal/domain/selection"
	"github.com/okian/podium/internal/domain/types"
	"github.com/okian/podium/pkg/logger"
	"github.com/okian/podium/pkg/metrics"
)

// Skip reasons reported to metrics.
const (
	skipNoProfile  = "no_profile"
	skipZeroPoints = "zero_points"
	skipDuplicate  = "duplicate"
)

// RangeLookup resolves a finishing-position accessor against a position to
// value table. Missing positions and unresolved levels contribute 0.
func RangeLookup(table map[int]types.LevelValue, accessor, level int) float64 {
	if accessor <= 0 {
		return 0
	}
	v, ok := table[accessor]
	if !ok {
		return 0
	}
	return v.ValueAt(level)
}

// Options tune a single computation.
type Options struct {
	// IncludeProfileName stamps the selected profile name on every award.
	IncludeProfileName bool
	// AsOfDate pins quality-win rank lookups for asOfDate snapshots.
	AsOfDate time.Time
}

// Request is one award computation.
type Request struct {
	Profiles []policy.AwardProfile
	Results  []model.ParticipantResult
	Options  Options
}

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithRankLookup sets the ranking store quality wins are resolved against.
func WithRankLookup(lookup qualitywin.RankLookup) Option {
	return func(e *Engine) {
		e.lookup = lookup
	}
}

// Engine computes point awards. It holds no per-request state and is safe
// for concurrent use.
type Engine struct {
	lookup qualitywin.RankLookup
	logger logger.Logger
}

// NewEngine creates a point computation engine with configuration options.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		logger: logger.Get().Named("scoring"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// candidate is a participation paired with the profile selected for it.
type candidate struct {
	participation *model.StructureParticipation
	profile       *policy.AwardProfile
	level         int
	accessor      int
}

// Compute applies the best matching profile to every participation of every
// result. Results that match no profile produce nothing. A structure repeated
// for the same participant, tournament and event is awarded once; the first
// occurrence wins.
func (e *Engine) Compute(ctx context.Context, req Request) (model.AwardSet, error) {
	start := time.Now()
	set := model.NewAwardSet()
	evaluator := qualitywin.NewEvaluator(
		qualitywin.WithRankLookup(e.lookup),
		qualitywin.WithAsOfDate(req.Options.AsOfDate),
		qualitywin.WithLogger(e.logger),
	)
	seen := dedupe.NewInMemoryDeduper()

	for i := range req.Results {
		if err := ctx.Err(); err != nil {
			return model.AwardSet{}, errors.Wrap(err, "compute awards")
		}
		if err := e.computeResult(ctx, evaluator, seen, &req.Results[i], req, &set); err != nil {
			metrics.RecordScoringError()
			metrics.RecordErrorByComponent("scoring", types.KindOf(err))
			return model.AwardSet{}, err
		}
	}

	metrics.RecordScoringLatency(float64(time.Since(start).Microseconds()) / 1000)
	e.logger.Debug(ctx, "awards computed",
		logger.Int("results", len(req.Results)),
		logger.Int("structures", seen.Size()),
		logger.Int("persons", len(set.PersonPoints)),
		logger.Int("pairs", len(set.PairPoints)),
	)
	return set, nil
}

func (e *Engine) computeResult(ctx context.Context, evaluator *qualitywin.Evaluator, seen dedupe.Deduper, r *model.ParticipantResult, req Request, set *model.AwardSet) error {
	if r.ParticipantID == "" {
		return types.MissingValue("participantId")
	}
	if !r.IsPair() && len(r.PersonIDs) == 0 {
		return errors.Wrapf(types.MissingValue("personIds"), "participant %s", r.ParticipantID)
	}

	candidates := e.selectProfiles(ctx, r, req.Profiles)
	candidates = dropSeen(ctx, seen, r, candidates)
	if len(candidates) == 0 {
		return nil
	}
	best := bestAccessor(candidates)
	budget := qualitywin.NewBudget()

	for i, c := range candidates {
		award := model.PointAward{
			ParticipantID: r.ParticipantID,
			TournamentID:  r.TournamentID,
			EventType:     r.EventType,
			DrawID:        c.participation.DrawID,
			DrawType:      c.participation.DrawType,
			Level:         c.level,
			Category:      model.Category{Gender: r.Gender, AgeCategoryCode: r.AgeCategoryCode},
			StartDate:     r.StartDate,
			EndDate:       r.EndDate,
			RangeAccessor: c.accessor,
			LinePoints:    c.participation.LinePoints,
		}
		if i == best {
			award.PositionPoints = RangeLookup(c.profile.FinishingPositionRanges, c.accessor, c.level)
		}
		award.PerWinPoints = perWinPoints(c.profile, c.participation.WinTotal(), c.level)
		award.BonusPoints = bonusPoints(c.profile.BonusPoints, c.accessor, c.level)

		for j := range c.profile.QualityWinProfiles {
			out, err := evaluator.Evaluate(ctx, &c.profile.QualityWinProfiles[j], c.participation.Wins, qualitywin.Request{
				EventType:    r.EventType,
				FallbackDate: r.EndDate,
			}, budget)
			if err != nil {
				return errors.Wrapf(err, "quality wins for %s in %s", r.ParticipantID, c.participation.DrawID)
			}
			award.QualityWinPoints += out.Points
			award.QualityWins = append(award.QualityWins, out.Wins...)
		}

		award.Points = award.ComponentSum()
		if award.Points == 0 && len(award.QualityWins) == 0 {
			metrics.RecordAwardSkipped(skipZeroPoints)
			continue
		}
		if req.Options.IncludeProfileName {
			award.ProfileName = c.profile.ProfileName
		}
		attribute(set, r, c.profile.DoublesAttribution, award)
	}
	return nil
}

func (e *Engine) selectProfiles(ctx context.Context, r *model.ParticipantResult, profiles []policy.AwardProfile) []candidate {
	candidates := make([]candidate, 0, len(r.Participations))
	for i := range r.Participations {
		p := &r.Participations[i]
		level := r.Level
		if p.Level > 0 {
			level = p.Level
		}
		sel := selection.Select(profiles, selection.Context{
			DrawType:        p.DrawType,
			EventType:       r.EventType,
			Level:           level,
			Gender:          r.Gender,
			AgeCategoryCode: r.AgeCategoryCode,
			Participation: selection.Participation{
				ParticipationOrder: p.ParticipationOrder,
				RankingStage:       p.RankingStage,
				FlightNumber:       p.FlightNumber,
			},
		})
		if !sel.Found() {
			metrics.RecordAwardSkipped(skipNoProfile)
			e.logger.Debug(ctx, "no award profile matched",
				logger.String("participant", r.ParticipantID),
				logger.String("draw", p.DrawID),
			)
			continue
		}
		metrics.RecordProfileSelection(sel.Profile.ProfileName)
		candidates = append(candidates, candidate{
			participation: p,
			profile:       sel.Profile,
			level:         level,
			accessor:      p.RangeAccessor(),
		})
	}
	return candidates
}

// dropSeen removes candidates whose structure was already awarded to the
// participant in this computation.
func dropSeen(ctx context.Context, seen dedupe.Deduper, r *model.ParticipantResult, candidates []candidate) []candidate {
	kept := candidates[:0]
	for _, c := range candidates {
		key := dedupe.StructureKey(r.ParticipantID, r.TournamentID, r.EventType, c.participation.DrawID)
		if seen.SeenAndRecord(ctx, key) {
			metrics.RecordAwardSkipped(skipDuplicate)
			continue
		}
		kept = append(kept, c)
	}
	return kept
}

// bestAccessor returns the index of the candidate with the lowest positive
// accessor, the first one on ties, or -1 when none placed.
func bestAccessor(candidates []candidate) int {
	best := -1
	for i, c := range candidates {
		if c.accessor <= 0 {
			continue
		}
		if best < 0 || c.accessor < candidates[best].accessor {
			best = i
		}
	}
	return best
}

func perWinPoints(profile *policy.AwardProfile, wins, level int) float64 {
	perWin, ok := profile.PerWinPoints.Resolve(level)
	if !ok || wins <= 0 {
		return 0
	}
	if limit, ok := profile.MaxCountableMatches.Resolve(level); ok && limit >= 0 && wins > int(limit) {
		wins = int(limit)
	}
	return perWin * float64(wins)
}

func bonusPoints(rules []policy.BonusRule, accessor, level int) float64 {
	if accessor <= 0 {
		return 0
	}
	total := 0.0
	for _, rule := range rules {
		for _, pos := range rule.FinishingPositions {
			if pos == accessor {
				total += rule.Value.ValueAt(level)
				break
			}
		}
	}
	return total
}

// attribute files award under the person or the pair, and hands pair points
// to the members according to mode.
func attribute(set *model.AwardSet, r *model.ParticipantResult, mode policy.DoublesAttribution, award model.PointAward) {
	if !r.IsPair() {
		award.PersonID = r.PersonIDs[0]
		set.PersonPoints[award.PersonID] = append(set.PersonPoints[award.PersonID], award)
		metrics.RecordAwardComputed()
		return
	}

	set.PairPoints[r.ParticipantID] = append(set.PairPoints[r.ParticipantID], award)
	metrics.RecordAwardComputed()

	var share func(model.PointAward) model.PointAward
	switch mode {
	case policy.AttributionFullToEach:
		share = func(a model.PointAward) model.PointAward { return a }
	case policy.AttributionSplitEven:
		share = halve
	default:
		return
	}
	for _, personID := range r.PersonIDs {
		member := share(award)
		member.PersonID = personID
		member.DoublesParticipantID = r.ParticipantID
		member.QualityWins = append([]model.QualityWin(nil), award.QualityWins...)
		set.PersonPoints[personID] = append(set.PersonPoints[personID], member)
		metrics.RecordAwardComputed()
	}
}

func halve(a model.PointAward) model.PointAward {
	a.PositionPoints /= 2
	a.PerWinPoints /= 2
	a.BonusPoints /= 2
	a.QualityWinPoints /= 2
	a.LinePoints /= 2
	a.Points = a.ComponentSum()
	return a
}
