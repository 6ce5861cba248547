package repository

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/okian/podium/internal/domain/model"
	"github.com/okian/podium/pkg/metrics"
)

// Snapshot is an immutable published ranking list.
type Snapshot struct {
	RunID       string
	ListName    string
	AsOf        time.Time
	PublishedAt time.Time
	// Entries are in rank order.
	Entries []model.RankingListEntry

	byPerson map[string]int
}

// Entry returns the entry for personID.
func (s *Snapshot) Entry(personID string) (model.RankingListEntry, bool) {
	i, ok := s.byPerson[personID]
	if !ok {
		return model.RankingListEntry{}, false
	}
	return s.Entries[i], true
}

// Top returns a copy of the first n entries.
func (s *Snapshot) Top(n int) []model.RankingListEntry {
	n = min(max(n, 0), len(s.Entries))
	out := make([]model.RankingListEntry, n)
	copy(out, s.Entries[:n])
	return out
}

// SnapshotStore keeps the current standings behind an atomic pointer so reads
// never block publishes, plus a short history addressable by run id.
type SnapshotStore struct {
	current atomic.Pointer[Snapshot]

	mu      sync.Mutex
	runs    []*Snapshot
	history int
	now     func() time.Time
}

var _ Store = (*SnapshotStore)(nil)

// NewSnapshotStore constructs an empty store with configuration options.
func NewSnapshotStore(opts ...Option) *SnapshotStore {
	s := &SnapshotStore{
		history: defaultHistory,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Publish validates rank order, stamps a run id and swaps the snapshot in.
func (s *SnapshotStore) Publish(ctx context.Context, p Publication) (*Snapshot, error) {
	start := time.Now()
	if err := checkRanks(p.Entries); err != nil {
		metrics.RecordErrorByComponent("repository", "invalid_snapshot")
		return nil, err
	}

	entries := make([]model.RankingListEntry, len(p.Entries))
	copy(entries, p.Entries)
	byPerson := make(map[string]int, len(entries))
	for i := range entries {
		if _, dup := byPerson[entries[i].PersonID]; dup {
			metrics.RecordErrorByComponent("repository", "invalid_snapshot")
			return nil, errors.Wrapf(ErrInvalidSnapshot, "person %s listed twice", entries[i].PersonID)
		}
		byPerson[entries[i].PersonID] = i
	}

	snap := &Snapshot{
		RunID:       uuid.NewString(),
		ListName:    p.ListName,
		AsOf:        p.AsOf,
		PublishedAt: s.now(),
		Entries:     entries,
		byPerson:    byPerson,
	}

	s.mu.Lock()
	s.runs = append(s.runs, snap)
	if len(s.runs) > s.history {
		s.runs = s.runs[len(s.runs)-s.history:]
	}
	s.current.Store(snap)
	s.mu.Unlock()

	metrics.RecordSnapshotPublish(time.Since(start))
	return snap, nil
}

// checkRanks requires ranks starting at 1 that never decrease.
func checkRanks(entries []model.RankingListEntry) error {
	prev := 1
	for i := range entries {
		r := entries[i].Rank
		if r < prev || (i == 0 && r != 1) {
			return errors.Wrapf(ErrInvalidSnapshot, "entry %d has rank %d after %d", i, r, prev)
		}
		prev = r
	}
	return nil
}

// Rank returns the published entry for personID.
func (s *SnapshotStore) Rank(ctx context.Context, personID string) (model.RankingListEntry, error) {
	defer observeQuery(time.Now())

	snap := s.current.Load()
	if snap == nil {
		return model.RankingListEntry{}, ErrNoSnapshot
	}
	e, ok := snap.Entry(personID)
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return model.RankingListEntry{}, errors.Wrapf(ErrNotFound, "person %s", personID)
	}
	return e, nil
}

// TopN returns the first n entries of the current list.
func (s *SnapshotStore) TopN(ctx context.Context, n int) ([]model.RankingListEntry, error) {
	defer observeQuery(time.Now())

	if n < 1 {
		metrics.RecordErrorByComponent("repository", "invalid_limit")
		return nil, ErrInvalidLimit
	}
	snap := s.current.Load()
	if snap == nil {
		return []model.RankingListEntry{}, nil
	}
	return snap.Top(n), nil
}

// Count returns the number of entries on the current list.
func (s *SnapshotStore) Count(ctx context.Context) int {
	snap := s.current.Load()
	if snap == nil {
		return 0
	}
	return len(snap.Entries)
}

// Latest returns the current snapshot, nil before the first publish.
func (s *SnapshotStore) Latest(ctx context.Context) *Snapshot {
	return s.current.Load()
}

// Run returns a retained snapshot by run id.
func (s *SnapshotStore) Run(ctx context.Context, runID string) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.runs) - 1; i >= 0; i-- {
		if s.runs[i].RunID == runID {
			return s.runs[i], nil
		}
	}
	return nil, errors.Wrapf(ErrNotFound, "run %s", runID)
}

func observeQuery(start time.Time) {
	metrics.RecordSnapshotQueryLatency(float64(time.Since(start).Microseconds()) / 1000)
}
