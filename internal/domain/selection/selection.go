// Package selection picks the award profile that applies to a result.
package selection

import (
	"github.com/hashicorp/go-set/v2"
	"github.com/okian/podium/internal/domain/policy"
)

// Participation describes where in the event structure a result was earned.
type Participation struct {
	ParticipationOrder int
	RankingStage       string
	FlightNumber       int
}

// Context is the result context profiles are matched against. Zero values
// mean "not known".
type Context struct {
	DrawType        string
	EventType       string
	Level           int
	Gender          string
	AgeCategoryCode string
	Participation   Participation
}

// Selection is the outcome of matching. Profile is nil when nothing matched.
type Selection struct {
	Profile *policy.AwardProfile
	// Index is the profile's position in the input, -1 when nothing matched.
	Index       int
	Specificity int
}

// Found reports whether a profile matched.
func (s Selection) Found() bool { return s.Profile != nil }

// Select returns the best matching profile. When any matching profile declares
// a priority, the highest priority wins outright and profiles without one count
// as priority 0. Otherwise the most specific match wins. Equal candidates
// resolve to the first declared.
func Select(profiles []policy.AwardProfile, c Context) Selection {
	matches := make([]Selection, 0, len(profiles))
	prioritized := false
	for i := range profiles {
		specificity, ok := match(&profiles[i], c)
		if !ok {
			continue
		}
		matches = append(matches, Selection{Profile: &profiles[i], Index: i, Specificity: specificity})
		if profiles[i].Priority != nil {
			prioritized = true
		}
	}

	best := Selection{Index: -1}
	for _, m := range matches {
		if !best.Found() {
			best = m
			continue
		}
		if prioritized {
			if priorityOf(m.Profile) > priorityOf(best.Profile) {
				best = m
			}
			continue
		}
		if m.Specificity > best.Specificity {
			best = m
		}
	}
	return best
}

func priorityOf(p *policy.AwardProfile) int {
	if p.Priority == nil {
		return 0
	}
	return *p.Priority
}

// match reports whether every declared constraint is satisfied, and how many
// of the five scored dimensions the profile declared.
func match(p *policy.AwardProfile, c Context) (int, bool) {
	specificity := 0

	if len(p.DrawTypes) > 0 {
		if !set.From(p.DrawTypes).Contains(c.DrawType) {
			return 0, false
		}
		specificity++
	}
	if len(p.EventTypes) > 0 {
		if !set.From(p.EventTypes).Contains(c.EventType) {
			return 0, false
		}
		specificity++
	}
	if len(p.Levels) > 0 {
		if !set.From(p.Levels).Contains(c.Level) {
			return 0, false
		}
		specificity++
	}
	if len(p.Category.Genders) > 0 {
		if c.Gender == "" || !set.From(p.Category.Genders).Contains(c.Gender) {
			return 0, false
		}
		specificity++
	}
	if len(p.Category.AgeCategoryCodes) > 0 {
		if c.AgeCategoryCode == "" || !set.From(p.Category.AgeCategoryCodes).Contains(c.AgeCategoryCode) {
			return 0, false
		}
		specificity++
	}

	// stage filters narrow the match without scoring
	if len(p.Stages) > 0 && !set.From(p.Stages).Contains(c.Participation.RankingStage) {
		return 0, false
	}
	if len(p.ParticipationOrders) > 0 && !set.From(p.ParticipationOrders).Contains(c.Participation.ParticipationOrder) {
		return 0, false
	}
	if len(p.Flights) > 0 && !set.From(p.Flights).Contains(c.Participation.FlightNumber) {
		return 0, false
	}

	return specificity, true
}
