package genotype

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewVectorFactoryRejectsBadLength(t *testing.T) {
	_, err := NewVectorFactory(0, 1.0, 1)
	require.Error(t, err)
}

func TestCreateGenomeListMintsDistinctGenomes(t *testing.T) {
	f, err := NewVectorFactory(4, 1.0, 42)
	require.NoError(t, err)

	genomes := f.CreateGenomeList(10, 3)
	require.Len(t, genomes, 10)

	seen := make(map[string]struct{}, len(genomes))
	for _, g := range genomes {
		assert.Len(t, g.Weights, 4)
		assert.Equal(t, uint32(3), g.BirthGeneration)
		_, dup := seen[g.ID]
		assert.False(t, dup, "duplicate genome id %s", g.ID)
		seen[g.ID] = struct{}{}
	}
}

func TestCreateGenomeListIsSeedDeterministic(t *testing.T) {
	a, err := NewVectorFactory(3, 1.0, 7)
	require.NoError(t, err)
	b, err := NewVectorFactory(3, 1.0, 7)
	require.NoError(t, err)

	ga := a.CreateGenomeList(5, 0)
	gb := b.CreateGenomeList(5, 0)
	for i := range ga {
		assert.Equal(t, ga[i].Weights, gb[i].Weights)
	}
}
