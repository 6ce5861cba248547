package model

import "time"

// Category describes the gender and age bracket an award was earned in.
type Category struct {
	Gender          string `json:"gender,omitempty" yaml:"gender,omitempty"`
	AgeCategoryCode string `json:"ageCategoryCode,omitempty" yaml:"ageCategoryCode,omitempty"`
}

// QualityWin details one win that earned a quality-win bonus. Points is the
// uncapped per-win value.
type QualityWin struct {
	OpponentParticipantID string  `json:"opponentParticipantId" yaml:"opponentParticipantId"`
	OpponentRank          int     `json:"opponentRank" yaml:"opponentRank"`
	Points                float64 `json:"points" yaml:"points"`
	MatchUpID             string  `json:"matchUpId" yaml:"matchUpId"`
}

// PointAward is the points credited to one participant for one structure.
// Awards are values: aggregation selects and drops them but never edits one.
type PointAward struct {
	PersonID             string       `json:"personId,omitempty" yaml:"personId,omitempty"`
	ParticipantID        string       `json:"participantId" yaml:"participantId"`
	TournamentID         string       `json:"tournamentId,omitempty" yaml:"tournamentId,omitempty"`
	EventType            string       `json:"eventType" yaml:"eventType"`
	DrawID               string       `json:"drawId" yaml:"drawId"`
	DrawType             string       `json:"drawType,omitempty" yaml:"drawType,omitempty"`
	Level                int          `json:"level" yaml:"level"`
	Category             Category     `json:"category" yaml:"category"`
	StartDate            time.Time    `json:"startDate" yaml:"startDate"`
	EndDate              time.Time    `json:"endDate" yaml:"endDate"`
	PositionPoints       float64      `json:"positionPoints" yaml:"positionPoints"`
	PerWinPoints         float64      `json:"perWinPoints" yaml:"perWinPoints"`
	BonusPoints          float64      `json:"bonusPoints" yaml:"bonusPoints"`
	QualityWinPoints     float64      `json:"qualityWinPoints" yaml:"qualityWinPoints"`
	LinePoints           float64      `json:"linePoints,omitempty" yaml:"linePoints,omitempty"`
	Points               float64      `json:"points" yaml:"points"`
	RangeAccessor        int          `json:"rangeAccessor" yaml:"rangeAccessor"`
	DoublesParticipantID string       `json:"doublesParticipantId,omitempty" yaml:"doublesParticipantId,omitempty"`
	QualityWins          []QualityWin `json:"qualityWins,omitempty" yaml:"qualityWins,omitempty"`
	ProfileName          string       `json:"profileName,omitempty" yaml:"profileName,omitempty"`
}

// ComponentSum is the decomposition that Points must always equal.
func (a *PointAward) ComponentSum() float64 {
	return a.PositionPoints + a.PerWinPoints + a.BonusPoints + a.QualityWinPoints + a.LinePoints
}

// Point component names usable in counting buckets.
const (
	ComponentPositionPoints   = "positionPoints"
	ComponentPerWinPoints     = "perWinPoints"
	ComponentBonusPoints      = "bonusPoints"
	ComponentQualityWinPoints = "qualityWinPoints"
	ComponentLinePoints       = "linePoints"
	ComponentPoints           = "points"
)

// Component returns the named point component and whether the name is known.
func (a *PointAward) Component(name string) (float64, bool) {
	switch name {
	case ComponentPositionPoints:
		return a.PositionPoints, true
	case ComponentPerWinPoints:
		return a.PerWinPoints, true
	case ComponentBonusPoints:
		return a.BonusPoints, true
	case ComponentQualityWinPoints:
		return a.QualityWinPoints, true
	case ComponentLinePoints:
		return a.LinePoints, true
	case ComponentPoints:
		return a.Points, true
	default:
		return 0, false
	}
}

// AwardSet groups produced awards by person and by pair.
type AwardSet struct {
	PersonPoints map[string][]PointAward `json:"personPoints"`
	PairPoints   map[string][]PointAward `json:"pairPoints"`
}

// NewAwardSet returns an empty set with both maps allocated.
func NewAwardSet() AwardSet {
	return AwardSet{
		PersonPoints: make(map[string][]PointAward),
		PairPoints:   make(map[string][]PointAward),
	}
}

// PersonAwards returns the person awards ordered by person id. Pair awards are
// not part of person standings.
func (s AwardSet) PersonAwards() []PointAward {
	out := make([]PointAward, 0, len(s.PersonPoints))
	for _, key := range sortedKeys(s.PersonPoints) {
		out = append(out, s.PersonPoints[key]...)
	}
	return out
}

// Flatten returns every person award followed by every pair award, each group
// ordered by key for determinism.
func (s AwardSet) Flatten() []PointAward {
	out := make([]PointAward, 0, len(s.PersonPoints)+len(s.PairPoints))
	for _, key := range sortedKeys(s.PersonPoints) {
		out = append(out, s.PersonPoints[key]...)
	}
	for _, key := range sortedKeys(s.PairPoints) {
		out = append(out, s.PairPoints[key]...)
	}
	return out
}
