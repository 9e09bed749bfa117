//go:build sqlite

package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"neatrun/internal/model"
)

func newInitializedSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s := NewSQLiteStore(filepath.Join(t.TempDir(), "neatrun.db"))
	require.NoError(t, s.Init(context.Background()))
	t.Cleanup(func() {
		_ = s.Close()
	})
	return s
}

func TestSQLiteInitRequiresPath(t *testing.T) {
	s := NewSQLiteStore("")
	require.Error(t, s.Init(context.Background()))
}

func TestSQLiteSnapshotRoundTrip(t *testing.T) {
	s := newInitializedSQLiteStore(t)
	ctx := context.Background()

	snapshot := model.PopulationSnapshot{
		ID:         "run-1",
		Generation: 4,
		Genomes:    []model.Genome{*model.NewGenome([]float64{1, 2}, 1)},
	}
	Stamp(&snapshot.VersionedRecord)
	require.NoError(t, s.SaveSnapshot(ctx, "run-1", snapshot))

	got, ok, err := s.GetSnapshot(ctx, "run-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, snapshot.Genomes[0].ID, got.Genomes[0].ID)

	_, ok, err = s.GetSnapshot(ctx, "absent")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSQLiteSnapshotUpsert(t *testing.T) {
	s := newInitializedSQLiteStore(t)
	ctx := context.Background()

	first := model.PopulationSnapshot{ID: "run-1", Generation: 1}
	Stamp(&first.VersionedRecord)
	require.NoError(t, s.SaveSnapshot(ctx, "run-1", first))

	second := model.PopulationSnapshot{ID: "run-1", Generation: 2}
	Stamp(&second.VersionedRecord)
	require.NoError(t, s.SaveSnapshot(ctx, "run-1", second))

	got, ok, err := s.GetSnapshot(ctx, "run-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint32(2), got.Generation)
}

func TestSQLiteStatsHistoryAndChampion(t *testing.T) {
	s := newInitializedSQLiteStore(t)
	ctx := context.Background()

	history := []model.GenerationStatsRecord{{Generation: 1, MaxFitness: 0.4}}
	Stamp(&history[0].VersionedRecord)
	require.NoError(t, s.SaveStatsHistory(ctx, "run-1", history))

	gotHistory, ok, err := s.GetStatsHistory(ctx, "run-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 0.4, gotHistory[0].MaxFitness)

	champion := model.ChampionRecord{
		RunID:      "run-1",
		Generation: 1,
		Genome:     *model.NewGenome([]float64{0.1}, 1),
	}
	Stamp(&champion.VersionedRecord)
	require.NoError(t, s.SaveChampion(ctx, champion))

	gotChampion, ok, err := s.GetChampion(ctx, "run-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, champion.Genome.ID, gotChampion.Genome.ID)
}

func TestSQLiteOperationsBeforeInit(t *testing.T) {
	s := NewSQLiteStore(filepath.Join(t.TempDir(), "neatrun.db"))
	_, _, err := s.GetSnapshot(context.Background(), "run-1")
	require.Error(t, err)
}
