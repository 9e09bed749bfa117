package speciate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"neatrun/internal/model"
)

func genomes(weights ...[]float64) []*model.Genome {
	out := make([]*model.Genome, len(weights))
	for i, w := range weights {
		out[i] = model.NewGenome(w, 0)
	}
	return out
}

func TestInitializeSpeciationRejectsBadInput(t *testing.T) {
	_, err := Centroid{}.InitializeSpeciation(nil, 3)
	require.Error(t, err)

	_, err = Centroid{}.InitializeSpeciation(genomes([]float64{1}), 0)
	require.Error(t, err)
}

func TestInitializeSpeciationPartitionsPopulation(t *testing.T) {
	pop := genomes(
		[]float64{0, 0}, []float64{10, 10}, []float64{0.1, 0.1},
		[]float64{10.1, 9.9}, []float64{-0.1, 0}, []float64{9.8, 10.2},
	)
	species, err := Centroid{}.InitializeSpeciation(pop, 2)
	require.NoError(t, err)
	require.Len(t, species, 2)

	total := 0
	for _, sp := range species {
		assert.NotEmpty(t, sp.Genomes)
		total += len(sp.Genomes)
	}
	assert.Equal(t, len(pop), total)

	// Genomes near the origin cluster with the first seed, the rest with the
	// second.
	assert.Len(t, species[0].Genomes, 3)
	assert.Len(t, species[1].Genomes, 3)
}

func TestTargetCountCappedByPopulation(t *testing.T) {
	pop := genomes([]float64{1}, []float64{2})
	species, err := Centroid{}.InitializeSpeciation(pop, 10)
	require.NoError(t, err)
	assert.Len(t, species, 2)
}

func TestDistancePenalizesUnsharedDimensions(t *testing.T) {
	a := model.NewGenome([]float64{1, 1}, 0)
	b := model.NewGenome([]float64{1, 1}, 0)
	c := model.NewGenome([]float64{1, 1, 1}, 0)

	assert.Equal(t, 0.0, Distance(a, b))
	assert.Equal(t, 1.0, Distance(a, c))
	assert.Equal(t, Distance(a, c), Distance(c, a))
}
