// Package genotype constructs seed populations of weight-vector genomes.
package genotype

import (
	"fmt"
	"math/rand"

	"neatrun/internal/model"
)

// VectorFactory builds genomes as gaussian-initialized weight vectors. It
// implements the run controller's genome factory contract.
type VectorFactory struct {
	Length int
	StdDev float64
	RNG    *rand.Rand
}

// NewVectorFactory validates the genome dimension and seeds the factory's
// RNG.
func NewVectorFactory(length int, stddev float64, seed int64) (*VectorFactory, error) {
	if length <= 0 {
		return nil, fmt.Errorf("genome length must be > 0, got %d", length)
	}
	if stddev <= 0 {
		stddev = 1.0
	}
	return &VectorFactory{
		Length: length,
		StdDev: stddev,
		RNG:    rand.New(rand.NewSource(seed)),
	}, nil
}

// CreateGenomeList mints count fresh genomes at the given birth generation.
func (f *VectorFactory) CreateGenomeList(count int, birthGeneration uint32) []*model.Genome {
	genomes := make([]*model.Genome, count)
	for i := range genomes {
		weights := make([]float64, f.Length)
		for j := range weights {
			weights[j] = f.RNG.NormFloat64() * f.StdDev
		}
		genomes[i] = model.NewGenome(weights, birthGeneration)
	}
	return genomes
}
