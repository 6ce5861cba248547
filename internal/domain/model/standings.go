package model

import (
	"sort"
	"time"
)

// CountedAward is an award as seen by a counting bucket: Value is the sum of the
// bucket's point components.
type CountedAward struct {
	Award PointAward `json:"award"`
	Value float64    `json:"value"`
	// Mandatory is set when a mandatory rule forced the award to count.
	Mandatory bool   `json:"mandatory,omitempty"`
	Bucket    string `json:"bucket,omitempty"`
}

// BucketBreakdown is one counting bucket's share of a participant's total.
type BucketBreakdown struct {
	BucketName      string         `json:"bucketName"`
	CountingResults []CountedAward `json:"countingResults"`
	DroppedResults  []CountedAward `json:"droppedResults"`
	BucketTotal     float64        `json:"bucketTotal"`
}

// RankingListEntry is one participant's standing.
type RankingListEntry struct {
	PersonID        string            `json:"personId"`
	Rank            int               `json:"rank"`
	TotalPoints     float64           `json:"totalPoints"`
	CountingResults []CountedAward    `json:"countingResults"`
	DroppedResults  []CountedAward    `json:"droppedResults"`
	MeetsMinimum    bool              `json:"meetsMinimum"`
	BucketBreakdown []BucketBreakdown `json:"bucketBreakdown"`
}

// Standings is a page of the published list with its run metadata.
type Standings struct {
	RunID    string             `json:"runId"`
	ListName string             `json:"listName"`
	AsOf     time.Time          `json:"asOf,omitzero"`
	Entries  []RankingListEntry `json:"entries"`
}

// Publication summarizes one recompute and publish.
type Publication struct {
	RunID        string    `json:"runId"`
	ListName     string    `json:"listName"`
	AsOf         time.Time `json:"asOf,omitzero"`
	Participants int       `json:"participants"`
	Awards       int       `json:"awards"`
}

// HighestCountingValue returns the largest counted contribution, 0 when none.
func (e *RankingListEntry) HighestCountingValue() float64 {
	best := 0.0
	for i, c := range e.CountingResults {
		if i == 0 || c.Value > best {
			best = c.Value
		}
	}
	return best
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
