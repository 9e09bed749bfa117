package storage

import (
	"context"
	"sync"

	"neatrun/internal/model"
)

type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	snapshots   map[string]model.PopulationSnapshot
	history     map[string][]model.GenerationStatsRecord
	champions   map[string]model.ChampionRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.initialized = true
	s.snapshots = make(map[string]model.PopulationSnapshot)
	s.history = make(map[string][]model.GenerationStatsRecord)
	s.champions = make(map[string]model.ChampionRecord)
	return nil
}

func (s *MemoryStore) SaveSnapshot(_ context.Context, runID string, snapshot model.PopulationSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot.Genomes = append([]model.Genome(nil), snapshot.Genomes...)
	s.snapshots[runID] = snapshot
	return nil
}

func (s *MemoryStore) GetSnapshot(_ context.Context, runID string) (model.PopulationSnapshot, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot, ok := s.snapshots[runID]
	if !ok {
		return model.PopulationSnapshot{}, false, nil
	}
	snapshot.Genomes = append([]model.Genome(nil), snapshot.Genomes...)
	return snapshot, true, nil
}

func (s *MemoryStore) SaveStatsHistory(_ context.Context, runID string, history []model.GenerationStatsRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := make([]model.GenerationStatsRecord, len(history))
	copy(copied, history)
	s.history[runID] = copied
	return nil
}

func (s *MemoryStore) GetStatsHistory(_ context.Context, runID string) ([]model.GenerationStatsRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.history[runID]
	if !ok {
		return nil, false, nil
	}
	copied := make([]model.GenerationStatsRecord, len(history))
	copy(copied, history)
	return copied, true, nil
}

func (s *MemoryStore) SaveChampion(_ context.Context, champion model.ChampionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.champions[champion.RunID] = champion
	return nil
}

func (s *MemoryStore) GetChampion(_ context.Context, runID string) (model.ChampionRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	champion, ok := s.champions[runID]
	return champion, ok, nil
}
