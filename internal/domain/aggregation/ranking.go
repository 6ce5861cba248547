package aggregation

import (
	"sort"

	"github.com/okian/podium/internal/domain/model"
	"github.com/okian/podium/internal/domain/policy"
)

// compareFunc orders two entries: negative when a ranks above b, zero when
// the criterion cannot separate them.
type compareFunc func(a, b *model.RankingListEntry) int

func byTotal(a, b *model.RankingListEntry) int {
	return descending(a.TotalPoints, b.TotalPoints)
}

func byHighestSingleResult(a, b *model.RankingListEntry) int {
	return descending(a.HighestCountingValue(), b.HighestCountingValue())
}

func byMostCountingResults(a, b *model.RankingListEntry) int {
	return descending(float64(len(a.CountingResults)), float64(len(b.CountingResults)))
}

func descending(a, b float64) int {
	switch {
	case a > b:
		return -1
	case a < b:
		return 1
	default:
		return 0
	}
}

// tiebreaks returns the total comparison followed by the configured criteria.
// Unknown names are rejected when the rules are validated.
func tiebreaks(rules *policy.AggregationRules) []compareFunc {
	out := []compareFunc{byTotal}
	if rules == nil {
		return out
	}
	for _, name := range rules.TiebreakCriteria {
		switch name {
		case policy.TiebreakHighestSingleResult:
			out = append(out, byHighestSingleResult)
		case policy.TiebreakMostCountingResults:
			out = append(out, byMostCountingResults)
		}
	}
	return out
}

func compare(a, b *model.RankingListEntry, criteria []compareFunc) int {
	for _, c := range criteria {
		if r := c(a, b); r != 0 {
			return r
		}
	}
	return 0
}

// rank sorts entries and assigns competition ranks: entries the criteria
// cannot separate share a rank, and the next rank is one more than the number
// of entries placed strictly above. Fully tied entries are listed by id.
func rank(entries []model.RankingListEntry, criteria []compareFunc) {
	sort.SliceStable(entries, func(i, j int) bool {
		if r := compare(&entries[i], &entries[j], criteria); r != 0 {
			return r < 0
		}
		return entries[i].PersonID < entries[j].PersonID
	})
	for i := range entries {
		if i > 0 && compare(&entries[i-1], &entries[i], criteria) == 0 {
			entries[i].Rank = entries[i-1].Rank
			continue
		}
		entries[i].Rank = i + 1
	}
}
