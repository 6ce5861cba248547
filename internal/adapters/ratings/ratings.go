// Package ratings is an in-memory participant scale store that resolves
// opponent ranks for quality-win bonuses.
package ratings

import (
	"context"
	"io"
	"math"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/okian/podium/internal/domain/qualitywin"
	"github.com/okian/podium/internal/domain/types"
	"gopkg.in/yaml.v3"
)

// ScaleItem is one dated scale value of a participant.
type ScaleItem struct {
	ParticipantID string    `json:"participantId" yaml:"participantId"`
	ScaleName     string    `json:"scaleName" yaml:"scaleName"`
	ScaleType     string    `json:"scaleType,omitempty" yaml:"scaleType,omitempty"`
	EventType     string    `json:"eventType,omitempty" yaml:"eventType,omitempty"`
	ScaleDate     time.Time `json:"scaleDate" yaml:"scaleDate"`
	ScaleValue    float64   `json:"scaleValue" yaml:"scaleValue"`
}

type document struct {
	Scales []ScaleItem `yaml:"scales"`
}

type key struct {
	participant string
	scale       string
	scaleType   string
}

// Store holds scale items ordered by date per participant and scale.
type Store struct {
	mu    sync.RWMutex
	items map[key][]ScaleItem
}

var _ qualitywin.RankLookup = (*Store)(nil)

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{items: make(map[key][]ScaleItem)}
}

// Load decodes a YAML (or JSON) document with a top-level scales list.
func Load(r io.Reader) (*Store, error) {
	var doc document
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, types.InvalidValues("decode ratings: %v", err)
	}
	s := NewStore()
	if err := s.Add(doc.Scales...); err != nil {
		return nil, err
	}
	return s, nil
}

// LoadFile loads a ratings document from path.
func LoadFile(path string) (*Store, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from operator configuration
	if err != nil {
		return nil, errors.Wrapf(err, "open ratings %s", path)
	}
	defer func() { _ = f.Close() }()
	s, err := Load(f)
	if err != nil {
		return nil, errors.Wrapf(err, "load ratings %s", path)
	}
	return s, nil
}

// Add inserts items, keeping each series sorted by date.
func (s *Store) Add(items ...ScaleItem) error {
	for i, it := range items {
		switch {
		case it.ParticipantID == "":
			return errors.Wrapf(types.MissingValue("participantId"), "scales[%d]", i)
		case it.ScaleName == "":
			return errors.Wrapf(types.MissingValue("scaleName"), "scales[%d]", i)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	touched := make(map[key]struct{})
	for _, it := range items {
		if it.ScaleType == "" {
			it.ScaleType = qualitywin.ScaleTypeRanking
		}
		k := keyOf(it.ParticipantID, it.ScaleName, it.ScaleType)
		s.items[k] = append(s.items[k], it)
		touched[k] = struct{}{}
	}
	for k := range touched {
		series := s.items[k]
		sort.SliceStable(series, func(i, j int) bool {
			return series[i].ScaleDate.Before(series[j].ScaleDate)
		})
	}
	return nil
}

// Len returns the number of stored items.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, series := range s.items {
		n += len(series)
	}
	return n
}

// Value returns the latest scale value dated on or before req.AsOf, or the
// latest overall when AsOf is zero. Items with an event type only answer
// requests for that event type.
func (s *Store) Value(ctx context.Context, req qualitywin.RankRequest) (ScaleItem, bool, error) {
	if req.ParticipantID == "" {
		return ScaleItem{}, false, types.MissingValue("participantId")
	}
	if req.ScaleName == "" {
		return ScaleItem{}, false, types.MissingValue("scaleName")
	}
	scaleType := req.ScaleType
	if scaleType == "" {
		scaleType = qualitywin.ScaleTypeRanking
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	series := s.items[keyOf(req.ParticipantID, req.ScaleName, scaleType)]
	for i := len(series) - 1; i >= 0; i-- {
		it := series[i]
		if !req.AsOf.IsZero() && it.ScaleDate.After(req.AsOf) {
			continue
		}
		if it.EventType != "" && req.EventType != "" && !strings.EqualFold(it.EventType, req.EventType) {
			continue
		}
		return it, true, nil
	}
	return ScaleItem{}, false, nil
}

// Rank implements qualitywin.RankLookup. Non-positive values count as unranked.
func (s *Store) Rank(ctx context.Context, req qualitywin.RankRequest) (int, bool, error) {
	it, ok, err := s.Value(ctx, req)
	if err != nil || !ok {
		return 0, false, err
	}
	rank := int(math.Round(it.ScaleValue))
	if rank < 1 {
		return 0, false, nil
	}
	return rank, true, nil
}

func keyOf(participant, scale, scaleType string) key {
	return key{participant: participant, scale: scale, scaleType: strings.ToUpper(scaleType)}
}
