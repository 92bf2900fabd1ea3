package store

import (
	"context"
	"sync"

	"github.com/juju/clock"

	"github.com/ppiankov/candidstance/internal/model"
)

// MemoryStore keeps records in process memory
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]*model.CandidateRecord
	clock   clock.Clock
}

// NewMemoryStore creates an empty memory store
func NewMemoryStore(clk clock.Clock) *MemoryStore {
	if clk == nil {
		clk = clock.WallClock
	}
	return &MemoryStore{
		records: make(map[string]*model.CandidateRecord),
		clock:   clk,
	}
}

// Find returns a copy of the record for name
func (s *MemoryStore) Find(ctx context.Context, name string) (*model.CandidateRecord, error) {
	key, err := normalizedKey(name)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[key]
	if !ok {
		return nil, ErrNotFound
	}
	return copyRecord(rec), nil
}

// Upsert creates or replaces the record for name
func (s *MemoryStore) Upsert(ctx context.Context, name string, stances []model.PoliticalStance) (*model.CandidateRecord, error) {
	key, err := normalizedKey(name)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[key]
	if !ok {
		rec = &model.CandidateRecord{NormalizedName: key}
		s.records[key] = rec
	}
	rec.Name = name
	rec.Stances = cloneStances(stances)
	rec.SearchCount++
	rec.LastUpdated = now
	rec.LastSearched = now

	return copyRecord(rec), nil
}

// Close is a no-op
func (s *MemoryStore) Close() error {
	return nil
}

func copyRecord(rec *model.CandidateRecord) *model.CandidateRecord {
	out := *rec
	out.Stances = cloneStances(rec.Stances)
	return &out
}
