// Package aggregation turns point awards into ranked standings.
package aggregation

import (
	"context"
	"runtime"
	"sort"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/hashicorp/go-set/v2"
	"github.com/okian/podium/internal/domain/model"
	"github.com/okian/podium/internal/domain/policy"
	"github.com/okian/podium/internal/domain/types"
	"github.com/okian/podium/pkg/logger"
	"github.com/okian/podium/pkg/metrics"
	"golang.org/x/sync/errgroup"
)

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

// WithWorkers bounds how many participants are aggregated concurrently.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.workers = n
		}
	}
}

// Engine aggregates awards into standings. It is safe for concurrent use.
type Engine struct {
	logger  logger.Logger
	workers int
}

// NewEngine creates an aggregation engine with configuration options.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		logger:  logger.Get().Named("aggregation"),
		workers: runtime.GOMAXPROCS(0),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// GenerateRankingList aggregates every person found in awards and ranks them.
// Awards without a person id (pair awards) are skipped. A zero asOf anchors the rolling window at the latest award end date.
func (e *Engine) GenerateRankingList(ctx context.Context, awards []model.PointAward, rules *policy.AggregationRules, asOf time.Time) ([]model.RankingListEntry, error) {
	start := time.Now()
	if err := rules.Validate(); err != nil {
		metrics.RecordAggregationError()
		return nil, err
	}
	asOf = anchor(awards, asOf)

	ids, grouped, skipped := groupByPerson(awards)
	if skipped > 0 {
		metrics.RecordAwardsWithoutPerson(skipped)
		e.logger.Warn(ctx, "awards without person skipped", logger.Int("awards", skipped))
	}
	entries := make([]model.RankingListEntry, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i, id := range ids {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			entries[i] = e.aggregate(gctx, id, grouped[id], rules, asOf)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		metrics.RecordAggregationError()
		return nil, errors.Wrap(err, "generate ranking list")
	}

	criteria := tiebreaks(rules)
	rank(entries, criteria)

	notMet, dropped := 0, 0
	for i := range entries {
		if !entries[i].MeetsMinimum {
			notMet++
		}
		dropped += len(entries[i].DroppedResults)
	}
	metrics.RecordRankingListBuilt()
	metrics.UpdateParticipantsRanked(len(entries))
	metrics.UpdateMinimumNotMet(notMet)
	metrics.RecordDroppedResults(dropped)
	metrics.RecordAggregationLatency(float64(time.Since(start).Microseconds()) / 1000)

	e.logger.Info(ctx, "ranking list generated",
		logger.Int("participants", len(entries)),
		logger.Int("awards", len(awards)),
		logger.Time("as_of", asOf),
		logger.Duration("took", time.Since(start)),
	)
	return entries, nil
}

// ParticipantPoints runs the per-participant aggregation for one person. The
// returned entry is unranked.
func (e *Engine) ParticipantPoints(ctx context.Context, awards []model.PointAward, personID string, rules *policy.AggregationRules, asOf time.Time) (model.RankingListEntry, error) {
	if personID == "" {
		return model.RankingListEntry{}, types.MissingValue("personId")
	}
	if err := rules.Validate(); err != nil {
		return model.RankingListEntry{}, err
	}
	asOf = anchor(awards, asOf)

	var own []model.PointAward
	for i := range awards {
		if awards[i].PersonID == personID {
			own = append(own, awards[i])
		}
	}
	return e.aggregate(ctx, personID, own, rules, asOf), nil
}

// anchor returns asOf, or the latest award end date when asOf is zero.
func anchor(awards []model.PointAward, asOf time.Time) time.Time {
	if !asOf.IsZero() {
		return asOf
	}
	for i := range awards {
		if awards[i].EndDate.After(asOf) {
			asOf = awards[i].EndDate
		}
	}
	return asOf
}

// groupByPerson groups awards by person id and returns the ids in first-seen
// order together with the number of awards that carry no person.
func groupByPerson(awards []model.PointAward) ([]string, map[string][]model.PointAward, int) {
	grouped := make(map[string][]model.PointAward)
	var ids []string
	skipped := 0
	for i := range awards {
		id := awards[i].PersonID
		if id == "" {
			skipped++
			continue
		}
		if _, ok := grouped[id]; !ok {
			ids = append(ids, id)
		}
		grouped[id] = append(grouped[id], awards[i])
	}
	return ids, grouped, skipped
}

func (e *Engine) aggregate(ctx context.Context, personID string, awards []model.PointAward, rules *policy.AggregationRules, asOf time.Time) model.RankingListEntry {
	entry := model.RankingListEntry{
		PersonID:        personID,
		CountingResults: []model.CountedAward{},
		DroppedResults:  []model.CountedAward{},
	}

	awards = rollingFilter(awards, rules, asOf)
	var levelCap map[int]int
	if rules != nil {
		levelCap = rules.MaxResultsPerLevel
	}
	kept, capped := capPerLevel(asCounted(awards, ""), levelCap)
	entry.DroppedResults = append(entry.DroppedResults, capped...)

	buckets := rules.Buckets()
	assigned := make([][]model.CountedAward, len(buckets))
	for _, c := range kept {
		idx := bucketFor(buckets, c.Award.EventType)
		if idx < 0 {
			metrics.RecordUnbucketedAward()
			e.logger.Warn(ctx, "award matches no counting bucket",
				logger.String("person", personID),
				logger.String("draw", c.Award.DrawID),
				logger.String("event_type", c.Award.EventType),
			)
			entry.DroppedResults = append(entry.DroppedResults, c)
			continue
		}
		assigned[idx] = append(assigned[idx], c)
	}

	for i := range buckets {
		bd := countBucket(&buckets[i], assigned[i])
		entry.BucketBreakdown = append(entry.BucketBreakdown, bd)
		entry.CountingResults = append(entry.CountingResults, bd.CountingResults...)
		entry.DroppedResults = append(entry.DroppedResults, bd.DroppedResults...)
		entry.TotalPoints += bd.BucketTotal
	}

	minimum := 0
	if rules != nil {
		minimum = rules.MinCountableResults
	}
	entry.MeetsMinimum = len(entry.CountingResults) >= minimum
	return entry
}

// rollingFilter drops awards that ended before the trailing window.
func rollingFilter(awards []model.PointAward, rules *policy.AggregationRules, asOf time.Time) []model.PointAward {
	if rules == nil || rules.RollingPeriodDays <= 0 || asOf.IsZero() {
		return awards
	}
	cutoff := asOf.AddDate(0, 0, -rules.RollingPeriodDays)
	out := make([]model.PointAward, 0, len(awards))
	for i := range awards {
		if awards[i].EndDate.Before(cutoff) {
			continue
		}
		out = append(out, awards[i])
	}
	return out
}

func asCounted(awards []model.PointAward, bucket string) []model.CountedAward {
	out := make([]model.CountedAward, len(awards))
	for i := range awards {
		out[i] = model.CountedAward{Award: awards[i], Value: awards[i].Points, Bucket: bucket}
	}
	return out
}

// capPerLevel keeps the best limit[level] results per level by value.
func capPerLevel(in []model.CountedAward, limit map[int]int) (kept, dropped []model.CountedAward) {
	if len(limit) == 0 {
		return in, nil
	}
	sorted := byValueDesc(in)
	seen := make(map[int]int)
	for _, c := range sorted {
		n, capped := limit[c.Award.Level]
		if capped && seen[c.Award.Level] >= n {
			dropped = append(dropped, c)
			continue
		}
		seen[c.Award.Level]++
		kept = append(kept, c)
	}
	return kept, dropped
}

// bucketFor returns the first bucket accepting eventType, or -1.
func bucketFor(buckets []policy.CountingBucket, eventType string) int {
	for i := range buckets {
		if len(buckets[i].EventTypes) == 0 || set.From(buckets[i].EventTypes).Contains(eventType) {
			return i
		}
	}
	return -1
}

// countBucket applies the bucket's level cap, mandatory rules and best-of
// count to its awards.
func countBucket(b *policy.CountingBucket, in []model.CountedAward) model.BucketBreakdown {
	bd := model.BucketBreakdown{
		BucketName:      b.BucketName,
		CountingResults: []model.CountedAward{},
		DroppedResults:  []model.CountedAward{},
	}
	components := b.Components()
	valued := make([]model.CountedAward, len(in))
	for i, c := range in {
		c.Bucket = b.BucketName
		c.Value = 0
		for _, name := range components {
			v, _ := c.Award.Component(name)
			c.Value += v
		}
		valued[i] = c
	}

	pool, capped := capPerLevel(valued, b.MaxResultsPerLevel)
	bd.DroppedResults = append(bd.DroppedResults, capped...)
	pool = byValueDesc(pool)

	var mandatory []model.CountedAward
	for _, rule := range b.MandatoryRules {
		levels := set.From(rule.Levels)
		var picked, rest []model.CountedAward
		for _, c := range pool {
			if levels.Contains(c.Award.Level) && (rule.BestOfCount <= 0 || len(picked) < rule.BestOfCount) {
				c.Mandatory = true
				picked = append(picked, c)
				continue
			}
			rest = append(rest, c)
		}
		mandatory = append(mandatory, picked...)
		pool = rest
	}

	// A zero best-of count leaves the optional pool uncapped, mandatory rules
	// or not.
	slots := len(pool)
	if b.BestOfCount > 0 {
		slots = max(0, b.BestOfCount-len(mandatory))
	}
	slots = min(slots, len(pool))

	bd.CountingResults = append(bd.CountingResults, byValueDesc(append(mandatory, pool[:slots]...))...)
	bd.DroppedResults = append(bd.DroppedResults, pool[slots:]...)
	for _, c := range bd.CountingResults {
		bd.BucketTotal += c.Value
	}
	return bd
}

// byValueDesc returns a copy sorted by value, highest first, keeping input
// order among equal values.
func byValueDesc(in []model.CountedAward) []model.CountedAward {
	out := make([]model.CountedAward, len(in))
	copy(out, in)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Value > out[j].Value
	})
	return out
}
