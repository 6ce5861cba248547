// Package repository holds published standings snapshots for readers.
package repository

import (
	"context"
	"time"

	"github.com/okian/podium/internal/domain/model"
)

// Publication is a freshly generated ranking list to publish.
type Publication struct {
	ListName string
	AsOf     time.Time
	Entries  []model.RankingListEntry
}

// Store provides read/write access to published standings.
type Store interface {
	// Publish replaces the current standings and returns the stored snapshot.
	Publish(ctx context.Context, p Publication) (*Snapshot, error)

	// Rank returns the published entry for a person.
	// Returns ErrNotFound if the person is not on the list.
	Rank(ctx context.Context, personID string) (model.RankingListEntry, error)

	// TopN returns the first n entries in rank order.
	TopN(ctx context.Context, n int) ([]model.RankingListEntry, error)

	// Count returns the number of entries on the current list.
	Count(ctx context.Context) int

	// Latest returns the current snapshot, nil before the first publish.
	Latest(ctx context.Context) *Snapshot
}
