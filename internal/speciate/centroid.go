// Package speciate clusters weight-vector genomes into species by distance
// to a specie representative.
package speciate

import (
	"fmt"
	"math"

	"neatrun/internal/model"
	"neatrun/internal/neat"
)

// Centroid implements neat.SpeciationStrategy with a deterministic
// nearest-representative assignment: the first genomes of the population
// seed the species, every other genome joins the closest representative,
// and empty species are backfilled from the largest ones.
type Centroid struct{}

// InitializeSpeciation partitions the population into at most
// targetSpecieCount non-empty species.
func (Centroid) InitializeSpeciation(genomes []*model.Genome, targetSpecieCount int) ([]*neat.Specie, error) {
	if len(genomes) == 0 {
		return nil, fmt.Errorf("population is empty")
	}
	if targetSpecieCount <= 0 {
		return nil, fmt.Errorf("target specie count must be > 0, got %d", targetSpecieCount)
	}
	if targetSpecieCount > len(genomes) {
		targetSpecieCount = len(genomes)
	}

	species := make([]*neat.Specie, targetSpecieCount)
	representatives := make([]*model.Genome, targetSpecieCount)
	for i := 0; i < targetSpecieCount; i++ {
		species[i] = &neat.Specie{ID: i + 1}
		representatives[i] = genomes[i]
		species[i].Genomes = append(species[i].Genomes, genomes[i])
	}

	for _, g := range genomes[targetSpecieCount:] {
		bestIdx := 0
		bestDist := math.MaxFloat64
		for i, rep := range representatives {
			if d := Distance(g, rep); d < bestDist {
				bestDist = d
				bestIdx = i
			}
		}
		species[bestIdx].Genomes = append(species[bestIdx].Genomes, g)
	}

	rebalanceEmpty(species)
	return species, nil
}

// rebalanceEmpty moves members from the largest species into empty ones so
// the partition never contains an empty specie. The seeding above already
// guarantees one member per specie; this protects against future reuse with
// pre-filled species.
func rebalanceEmpty(species []*neat.Specie) {
	for _, sp := range species {
		if len(sp.Genomes) > 0 {
			continue
		}
		largest := species[0]
		for _, cand := range species[1:] {
			if len(cand.Genomes) > len(largest.Genomes) {
				largest = cand
			}
		}
		if len(largest.Genomes) < 2 {
			continue
		}
		last := len(largest.Genomes) - 1
		sp.Genomes = append(sp.Genomes, largest.Genomes[last])
		largest.Genomes = largest.Genomes[:last]
	}
}

// Distance is a coarse compatibility score between two genomes: mean squared
// difference over shared dimensions plus a penalty per unshared dimension.
func Distance(a, b *model.Genome) float64 {
	shared := len(a.Weights)
	if len(b.Weights) < shared {
		shared = len(b.Weights)
	}
	sum := 0.0
	for i := 0; i < shared; i++ {
		d := a.Weights[i] - b.Weights[i]
		sum += d * d
	}
	if shared > 0 {
		sum /= float64(shared)
	}
	excess := len(a.Weights) + len(b.Weights) - 2*shared
	return sum + float64(excess)
}
