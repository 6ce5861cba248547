// Package model contains domain models passed between layers.
package model

import "time"

// ParticipantType distinguishes individual entries from pairs.
type ParticipantType string

// Participant types.
const (
	ParticipantIndividual ParticipantType = "INDIVIDUAL"
	ParticipantPair       ParticipantType = "PAIR"
)

// Event types.
const (
	EventSingles = "SINGLES"
	EventDoubles = "DOUBLES"
	EventTeam    = "TEAM"
)

// ParticipantResult is everything the structure engine reports about one
// participant in one tournament event.
type ParticipantResult struct {
	ParticipantID   string          `json:"participantId" yaml:"participantId"`
	ParticipantType ParticipantType `json:"participantType" yaml:"participantType"`
	// PersonIDs holds the individual for INDIVIDUAL entries and the members for PAIR entries.
	PersonIDs       []string                 `json:"personIds" yaml:"personIds"`
	TournamentID    string                   `json:"tournamentId,omitempty" yaml:"tournamentId,omitempty"`
	EventType       string                   `json:"eventType" yaml:"eventType"`
	Level           int                      `json:"level" yaml:"level"`
	Gender          string                   `json:"gender,omitempty" yaml:"gender,omitempty"`
	AgeCategoryCode string                   `json:"ageCategoryCode,omitempty" yaml:"ageCategoryCode,omitempty"`
	StartDate       time.Time                `json:"startDate" yaml:"startDate"`
	EndDate         time.Time                `json:"endDate" yaml:"endDate"`
	Participations  []StructureParticipation `json:"participations" yaml:"participations"`
}

// IsPair reports whether the result belongs to a doubles pair.
func (r *ParticipantResult) IsPair() bool {
	return r.ParticipantType == ParticipantPair
}

// StructureParticipation is one structure (main draw, consolation, ...) the
// participant played in.
type StructureParticipation struct {
	DrawID                 string `json:"drawId" yaml:"drawId"`
	DrawType               string `json:"drawType,omitempty" yaml:"drawType,omitempty"`
	RankingStage           string `json:"rankingStage,omitempty" yaml:"rankingStage,omitempty"`
	ParticipationOrder     int    `json:"participationOrder,omitempty" yaml:"participationOrder,omitempty"`
	FlightNumber           int    `json:"flightNumber,omitempty" yaml:"flightNumber,omitempty"`
	FinishingPositionRange []int  `json:"finishingPositionRange" yaml:"finishingPositionRange"`
	WinsCount              int    `json:"winsCount,omitempty" yaml:"winsCount,omitempty"`
	// Level overrides the event level for this structure when non-zero.
	Level      int     `json:"level,omitempty" yaml:"level,omitempty"`
	LinePoints float64 `json:"linePoints,omitempty" yaml:"linePoints,omitempty"`
	Wins       []Win   `json:"wins,omitempty" yaml:"wins,omitempty"`
}

// RangeAccessor is the largest value of the finishing position range, or 0
// when no range was reported.
func (p *StructureParticipation) RangeAccessor() int {
	accessor := 0
	for _, pos := range p.FinishingPositionRange {
		if pos > accessor {
			accessor = pos
		}
	}
	return accessor
}

// WinTotal counts WinsCount when reported, otherwise the recorded wins.
func (p *StructureParticipation) WinTotal() int {
	if p.WinsCount > 0 {
		return p.WinsCount
	}
	return len(p.Wins)
}

// Win is one matchUp the participant won.
type Win struct {
	MatchUpID             string    `json:"matchUpId" yaml:"matchUpId"`
	OpponentParticipantID string    `json:"opponentParticipantId" yaml:"opponentParticipantId"`
	Date                  time.Time `json:"date,omitempty" yaml:"date,omitempty"`
	Walkover              bool      `json:"walkover,omitempty" yaml:"walkover,omitempty"`
}
