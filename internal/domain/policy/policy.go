// Package policy defines ranking-points policy documents: award profiles that
// say how results earn points and aggregation rules that say how awards count
// toward standings.
package policy

import (
	"github.com/okian/podium/internal/domain/model"
	"github.com/okian/podium/internal/domain/types"
)

// TypeRankingPoints tags a ranking-points policy document.
const TypeRankingPoints = "rankingPoints"

// DoublesAttribution says how a pair's points reach its members.
type DoublesAttribution string

// Doubles attribution modes.
const (
	AttributionNone       DoublesAttribution = "none"
	AttributionFullToEach DoublesAttribution = "fullToEach"
	AttributionSplitEven  DoublesAttribution = "splitEven"
)

// Ranking snapshot modes for quality wins.
const (
	SnapshotLatestAvailable = "latestAvailable"
	SnapshotAsOfDate        = "asOfDate"
)

// UnrankedNoBonus awards nothing for beating an unranked opponent.
const UnrankedNoBonus = "noBonus"

// Tiebreak criteria.
const (
	TiebreakHighestSingleResult = "highestSingleResult"
	TiebreakMostCountingResults = "mostCountingResults"
)

// ImplicitBucketName names the single bucket used when none are configured.
const ImplicitBucketName = "All"

// Policy is a validated ranking-points policy document.
type Policy struct {
	PolicyType       string            `json:"policyType" yaml:"policyType" validate:"required,eq=rankingPoints"`
	PolicyName       string            `json:"policyName,omitempty" yaml:"policyName,omitempty"`
	AwardProfiles    []AwardProfile    `json:"awardProfiles" yaml:"awardProfiles" validate:"required,min=1,dive"`
	AggregationRules *AggregationRules `json:"aggregationRules,omitempty" yaml:"aggregationRules,omitempty"`
}

// Category constrains gender and age bracket.
type Category struct {
	Genders          []string `json:"genders,omitempty" yaml:"genders,omitempty" validate:"dive,required"`
	AgeCategoryCodes []string `json:"ageCategoryCodes,omitempty" yaml:"ageCategoryCodes,omitempty" validate:"dive,required"`
}

// BonusRule adds Value when the achieved position is one of FinishingPositions.
type BonusRule struct {
	FinishingPositions []int            `json:"finishingPositions" yaml:"finishingPositions" validate:"required,min=1,dive,gt=0"`
	Value              types.LevelValue `json:"value" yaml:"value"`
}

// AwardProfile is one scoring rule set matched against a result's context.
type AwardProfile struct {
	ProfileName string   `json:"profileName,omitempty" yaml:"profileName,omitempty"`
	DrawTypes   []string `json:"drawTypes,omitempty" yaml:"drawTypes,omitempty" validate:"dive,required"`
	EventTypes  []string `json:"eventTypes,omitempty" yaml:"eventTypes,omitempty" validate:"dive,required"`
	Levels      []int    `json:"levels,omitempty" yaml:"levels,omitempty" validate:"dive,gt=0"`
	Category    Category `json:"category,omitempty" yaml:"category,omitempty"`

	// Stage filters restrict matching without adding specificity.
	Stages              []string `json:"stages,omitempty" yaml:"stages,omitempty" validate:"dive,required"`
	ParticipationOrders []int    `json:"participationOrders,omitempty" yaml:"participationOrders,omitempty" validate:"dive,gt=0"`
	Flights             []int    `json:"flights,omitempty" yaml:"flights,omitempty" validate:"dive,gt=0"`

	Priority *int `json:"priority,omitempty" yaml:"priority,omitempty"`

	FinishingPositionRanges map[int]types.LevelValue `json:"finishingPositionRanges,omitempty" yaml:"finishingPositionRanges,omitempty" validate:"dive,keys,gt=0,endkeys"`
	PerWinPoints            types.LevelValue         `json:"perWinPoints" yaml:"perWinPoints"`
	BonusPoints             []BonusRule              `json:"bonusPoints,omitempty" yaml:"bonusPoints,omitempty" validate:"dive"`
	MaxCountableMatches     types.LevelValue         `json:"maxCountableMatches" yaml:"maxCountableMatches"`
	DoublesAttribution      DoublesAttribution       `json:"doublesAttribution,omitempty" yaml:"doublesAttribution,omitempty" validate:"omitempty,oneof=none fullToEach splitEven"`
	QualityWinProfiles      []QualityWinProfile      `json:"qualityWinProfiles,omitempty" yaml:"qualityWinProfiles,omitempty" validate:"dive"`
}

// RankingRange maps an inclusive opponent rank interval to a bonus.
type RankingRange struct {
	RankRange []int   `json:"rankRange" yaml:"rankRange" validate:"len=2,dive,gt=0"`
	Value     float64 `json:"value" yaml:"value" validate:"gte=0"`
}

// Contains reports whether rank falls inside the inclusive range.
func (r RankingRange) Contains(rank int) bool {
	return len(r.RankRange) == 2 && rank >= r.RankRange[0] && rank <= r.RankRange[1]
}

// QualityWinProfile awards bonus points for beating ranked opponents.
type QualityWinProfile struct {
	RankingScaleName         string         `json:"rankingScaleName" yaml:"rankingScaleName" validate:"required"`
	RankingSnapshot          string         `json:"rankingSnapshot,omitempty" yaml:"rankingSnapshot,omitempty" validate:"omitempty,oneof=latestAvailable asOfDate"`
	UnrankedOpponentBehavior string         `json:"unrankedOpponentBehavior,omitempty" yaml:"unrankedOpponentBehavior,omitempty" validate:"omitempty,oneof=noBonus"`
	IncludeWalkovers         bool           `json:"includeWalkovers,omitempty" yaml:"includeWalkovers,omitempty"`
	RankingRanges            []RankingRange `json:"rankingRanges" yaml:"rankingRanges" validate:"required,min=1,dive"`
	MaxBonusPerTournament    *float64       `json:"maxBonusPerTournament,omitempty" yaml:"maxBonusPerTournament,omitempty" validate:"omitempty,gte=0"`
}

// Snapshot returns the snapshot mode, defaulting to latestAvailable.
func (q *QualityWinProfile) Snapshot() string {
	if q.RankingSnapshot == "" {
		return SnapshotLatestAvailable
	}
	return q.RankingSnapshot
}

// MandatoryRule forces results at Levels to count.
type MandatoryRule struct {
	RuleName    string `json:"ruleName,omitempty" yaml:"ruleName,omitempty"`
	Levels      []int  `json:"levels" yaml:"levels" validate:"required,min=1,dive,gt=0"`
	BestOfCount int    `json:"bestOfCount,omitempty" yaml:"bestOfCount,omitempty" validate:"gte=0"`
}

// CountingBucket groups awards under its own best-of-N cap.
type CountingBucket struct {
	BucketName         string          `json:"bucketName" yaml:"bucketName" validate:"required"`
	EventTypes         []string        `json:"eventTypes,omitempty" yaml:"eventTypes,omitempty" validate:"dive,required"`
	PointComponents    []string        `json:"pointComponents,omitempty" yaml:"pointComponents,omitempty" validate:"dive,oneof=positionPoints perWinPoints bonusPoints qualityWinPoints linePoints points"`
	BestOfCount        int             `json:"bestOfCount,omitempty" yaml:"bestOfCount,omitempty" validate:"gte=0"`
	MaxResultsPerLevel map[int]int     `json:"maxResultsPerLevel,omitempty" yaml:"maxResultsPerLevel,omitempty" validate:"dive,keys,gt=0,endkeys,gt=0"`
	MandatoryRules     []MandatoryRule `json:"mandatoryRules,omitempty" yaml:"mandatoryRules,omitempty" validate:"dive"`
}

// Components returns the point components the bucket sums, defaulting to the
// award's total.
func (b *CountingBucket) Components() []string {
	if len(b.PointComponents) == 0 {
		return []string{model.ComponentPoints}
	}
	return b.PointComponents
}

// AggregationRules configure how awards become standings.
type AggregationRules struct {
	RollingPeriodDays   int              `json:"rollingPeriodDays,omitempty" yaml:"rollingPeriodDays,omitempty" validate:"gte=0"`
	MinCountableResults int              `json:"minCountableResults,omitempty" yaml:"minCountableResults,omitempty" validate:"gte=0"`
	MaxResultsPerLevel  map[int]int      `json:"maxResultsPerLevel,omitempty" yaml:"maxResultsPerLevel,omitempty" validate:"dive,keys,gt=0,endkeys,gt=0"`
	TiebreakCriteria    []string         `json:"tiebreakCriteria,omitempty" yaml:"tiebreakCriteria,omitempty" validate:"dive,oneof=highestSingleResult mostCountingResults"`
	CountingBuckets     []CountingBucket `json:"countingBuckets,omitempty" yaml:"countingBuckets,omitempty" validate:"dive"`
	MandatoryRules      []MandatoryRule  `json:"mandatoryRules,omitempty" yaml:"mandatoryRules,omitempty" validate:"dive"`
}

// Buckets returns the configured buckets, or the implicit "All" bucket. Buckets
// without their own mandatory rules inherit the top-level ones.
func (r *AggregationRules) Buckets() []CountingBucket {
	if r == nil {
		return []CountingBucket{{BucketName: ImplicitBucketName}}
	}
	if len(r.CountingBuckets) == 0 {
		return []CountingBucket{{BucketName: ImplicitBucketName, MandatoryRules: r.MandatoryRules}}
	}
	out := make([]CountingBucket, len(r.CountingBuckets))
	copy(out, r.CountingBuckets)
	for i := range out {
		if len(out[i].MandatoryRules) == 0 {
			out[i].MandatoryRules = r.MandatoryRules
		}
	}
	return out
}
