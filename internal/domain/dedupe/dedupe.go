// Package dedupe tracks award keys so a structure is awarded at most once.
package dedupe

import (
	"context"
	"strings"
	"sync"
)

// keySeparator cannot appear in identifiers accepted by the result loaders.
const keySeparator = "\x1f"

// Deduper records award keys. Keys are never forgotten, so a key reported as
// seen stays seen for the deduper's lifetime.
type Deduper interface {
	// SeenAndRecord reports whether key was already recorded and records it
	// when it was not. The check and the record are atomic.
	SeenAndRecord(ctx context.Context, key string) bool

	Size() int
}

// StructureKey identifies one structure participation of one participant.
func StructureKey(participantID, tournamentID, eventType, drawID string) string {
	return strings.Join([]string{participantID, tournamentID, eventType, drawID}, keySeparator)
}

type inMemoryDeduper struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

// NewInMemoryDeduper creates an in-memory deduper. Callers scope it to one
// computation.
func NewInMemoryDeduper() Deduper {
	return &inMemoryDeduper{seen: make(map[string]struct{})}
}

func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[key]; ok {
		return true
	}
	d.seen[key] = struct{}{}
	return false
}

// Size returns the number of keys recorded.
func (d *inMemoryDeduper) Size() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.seen)
}
