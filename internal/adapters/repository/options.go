package repository

import "time"

const defaultHistory = 8

// Option applies a configuration option to the SnapshotStore.
type Option func(*SnapshotStore)

// WithHistory sets how many past snapshots stay addressable by run id.
func WithHistory(n int) Option {
	return func(s *SnapshotStore) {
		if n > 0 {
			s.history = n
		}
	}
}

// WithClock overrides the publish timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *SnapshotStore) {
		if now != nil {
			s.now = now
		}
	}
}
