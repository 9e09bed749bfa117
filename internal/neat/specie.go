package neat

import (
	"sort"

	"neatrun/internal/model"
)

// Specie is one cluster of the population, as produced by the speciation
// strategy. Genomes are held by reference; the union of all species' genomes
// equals the population exactly once after any rebuild.
type Specie struct {
	ID      int
	Genomes []*model.Genome
}

// Leader is the specie's best genome. Valid only after Sort.
func (s *Specie) Leader() *model.Genome {
	if len(s.Genomes) == 0 {
		return nil
	}
	return s.Genomes[0]
}

// MeanFitness averages fitness over the specie's members.
func (s *Specie) MeanFitness() float64 {
	if len(s.Genomes) == 0 {
		return 0
	}
	total := 0.0
	for _, g := range s.Genomes {
		total += g.Fitness
	}
	return total / float64(len(s.Genomes))
}

// Sort orders members fittest-first; equal fitness is broken by younger
// genome first (higher birth generation).
func (s *Specie) Sort() {
	sort.SliceStable(s.Genomes, func(i, j int) bool {
		a, b := s.Genomes[i], s.Genomes[j]
		if a.Fitness != b.Fitness {
			return a.Fitness > b.Fitness
		}
		return a.BirthGeneration > b.BirthGeneration
	})
}

// SortSpecieGenomes sorts every specie and reports the smallest and largest
// specie sizes.
func SortSpecieGenomes(species []*Specie) (minSize, maxSize int) {
	for i, sp := range species {
		sp.Sort()
		n := len(sp.Genomes)
		if i == 0 || n < minSize {
			minSize = n
		}
		if n > maxSize {
			maxSize = n
		}
	}
	return minSize, maxSize
}
