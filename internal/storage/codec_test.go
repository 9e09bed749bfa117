package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"neatrun/internal/model"
)

func TestSnapshotCodecRoundTrip(t *testing.T) {
	snapshot := model.PopulationSnapshot{
		ID:         "run-1",
		Generation: 5,
		Genomes:    []model.Genome{*model.NewGenome([]float64{1, 2, 3}, 2)},
	}
	Stamp(&snapshot.VersionedRecord)

	data, err := EncodeSnapshot(snapshot)
	require.NoError(t, err)

	got, err := DecodeSnapshot(data)
	require.NoError(t, err)
	assert.Equal(t, snapshot.ID, got.ID)
	assert.Equal(t, snapshot.Genomes[0].Weights, got.Genomes[0].Weights)
}

func TestDecodeRejectsVersionMismatch(t *testing.T) {
	snapshot := model.PopulationSnapshot{ID: "run-1"}
	snapshot.SchemaVersion = CurrentSchemaVersion + 1
	snapshot.CodecVersion = CurrentCodecVersion

	data, err := EncodeSnapshot(snapshot)
	require.NoError(t, err)

	_, err = DecodeSnapshot(data)
	assert.ErrorIs(t, err, ErrVersionMismatch)
}

func TestChampionCodecRoundTrip(t *testing.T) {
	champion := model.ChampionRecord{
		RunID:      "run-1",
		Generation: 9,
		Genome:     *model.NewGenome([]float64{0.25}, 9),
	}
	Stamp(&champion.VersionedRecord)

	data, err := EncodeChampion(champion)
	require.NoError(t, err)

	got, err := DecodeChampion(data)
	require.NoError(t, err)
	assert.Equal(t, champion.Genome.ID, got.Genome.ID)
}

func TestStatsHistoryCodecChecksEveryRecord(t *testing.T) {
	history := []model.GenerationStatsRecord{{Generation: 1}, {Generation: 2}}
	Stamp(&history[0].VersionedRecord)
	// Second record is left unstamped.

	data, err := EncodeStatsHistory(history)
	require.NoError(t, err)

	_, err = DecodeStatsHistory(data)
	assert.ErrorIs(t, err, ErrVersionMismatch)
}
