// Package reproduce implements the default generation strategy: truncation
// selection inside each specie followed by asexual and sexual reproduction
// against a fitness-proportional offspring plan.
package reproduce

import (
	"context"
	"fmt"
	"math"
	"sort"

	"neatrun/internal/model"
	"neatrun/internal/neat"
)

// Selective is a neat.GenerationStrategy. Each generation it keeps every
// specie's elites, selects parents from the top slice of each specie,
// distributes the remaining population budget across species proportionally
// to specie mean fitness, and fills it with mutated clones and crossover
// offspring. Offspring join their primary parent's specie, so the partition
// survives without re-speciation.
type Selective struct {
	weightMutationProb   float64
	weightMutationStdDev float64
	structuralProb       float64
}

// Option customizes a Selective strategy.
type Option func(*Selective)

// WithWeightMutation sets the per-weight perturbation probability and the
// standard deviation of the gaussian noise applied.
func WithWeightMutation(prob, stddev float64) Option {
	return func(s *Selective) {
		s.weightMutationProb = prob
		s.weightMutationStdDev = stddev
	}
}

// WithStructuralMutationProbability sets the per-offspring probability of a
// structural change. The direction of the change follows the regulation
// mode: grow while complexifying, shrink while simplifying.
func WithStructuralMutationProbability(prob float64) Option {
	return func(s *Selective) { s.structuralProb = prob }
}

// NewSelective builds the strategy with its default operator rates.
func NewSelective(opts ...Option) *Selective {
	s := &Selective{
		weightMutationProb:   0.8,
		weightMutationStdDev: 0.5,
		structuralProb:       0.1,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateNextGeneration replaces each specie's members with its survivors and
// freshly evaluated offspring.
func (s *Selective) CreateNextGeneration(ctx context.Context, gc *neat.GenerationContext) error {
	if len(gc.Species) == 0 {
		return fmt.Errorf("no species to reproduce from")
	}

	prevLeaderFitness := make([]float64, len(gc.Species))
	for i, sp := range gc.Species {
		if leader := sp.Leader(); leader != nil {
			prevLeaderFitness[i] = leader.Fitness
		}
	}

	survivors := s.selectSurvivors(gc)
	plan := buildOffspringPlan(gc.Species, survivors, gc.PopulationSize)

	var offspring []*model.Genome
	offspringSpecie := make([]int, 0, gc.PopulationSize)
	for i, sp := range gc.Species {
		for n := 0; n < plan[i]; n++ {
			child := s.spawn(gc, sp, i)
			offspring = append(offspring, child)
			offspringSpecie = append(offspringSpecie, i)
		}
	}

	if len(offspring) > 0 {
		if err := gc.Evaluator.Evaluate(ctx, offspring); err != nil {
			return fmt.Errorf("evaluate offspring: %w", err)
		}
	}

	if gc.Archive != nil {
		for k, child := range offspring {
			if child.Fitness > prevLeaderFitness[offspringSpecie[k]] {
				gc.Archive.Add(child)
			}
		}
	}

	for i, sp := range gc.Species {
		sp.Genomes = survivors[i]
	}
	for k, child := range offspring {
		sp := gc.Species[offspringSpecie[k]]
		sp.Genomes = append(sp.Genomes, child)
	}
	return nil
}

// selectSurvivors keeps each specie's elites plus genomes still under the
// minimum time alive. When protection pushes the survivor total past the
// population budget, the youngest protection is withdrawn fitness-last so
// elites are never displaced.
func (s *Selective) selectSurvivors(gc *neat.GenerationContext) [][]*model.Genome {
	p := gc.Params
	survivors := make([][]*model.Genome, len(gc.Species))
	total := 0
	for i, sp := range gc.Species {
		eliteCount := int(math.Round(float64(len(sp.Genomes)) * p.ElitismProportion))
		if eliteCount < 1 {
			eliteCount = 1
		}
		if eliteCount > len(sp.Genomes) {
			eliteCount = len(sp.Genomes)
		}
		kept := append([]*model.Genome(nil), sp.Genomes[:eliteCount]...)
		for _, g := range sp.Genomes[eliteCount:] {
			if g.Age(gc.Generation) < p.MinimumTimeAlive {
				kept = append(kept, g)
			}
		}
		survivors[i] = kept
		total += len(kept)
	}

	for total > gc.PopulationSize {
		// Species are sorted fittest-first, so the last protected genome in
		// the largest survivor set is the weakest candidate to drop.
		victim := -1
		for i, kept := range survivors {
			eliteFloor := eliteCount(gc.Species[i], p.ElitismProportion)
			if len(kept) <= eliteFloor {
				continue
			}
			if victim < 0 || len(kept) > len(survivors[victim]) {
				victim = i
			}
		}
		if victim < 0 {
			break
		}
		survivors[victim] = survivors[victim][:len(survivors[victim])-1]
		total--
	}
	return survivors
}

func eliteCount(sp *neat.Specie, proportion float64) int {
	n := int(math.Round(float64(len(sp.Genomes)) * proportion))
	if n < 1 {
		n = 1
	}
	if n > len(sp.Genomes) {
		n = len(sp.Genomes)
	}
	return n
}

// buildOffspringPlan distributes the remaining population budget across
// species proportionally to specie mean fitness, using largest remainders so
// the counts sum exactly to the budget.
func buildOffspringPlan(species []*neat.Specie, survivors [][]*model.Genome, populationSize int) []int {
	plan := make([]int, len(species))
	budget := populationSize
	for _, kept := range survivors {
		budget -= len(kept)
	}
	if budget <= 0 {
		return plan
	}

	totalMean := 0.0
	means := make([]float64, len(species))
	for i, sp := range species {
		means[i] = sp.MeanFitness()
		totalMean += means[i]
	}

	type remainder struct {
		idx  int
		frac float64
	}
	remainders := make([]remainder, len(species))
	assigned := 0
	for i := range species {
		share := float64(budget) / float64(len(species))
		if totalMean > 0 {
			share = float64(budget) * means[i] / totalMean
		}
		whole := int(math.Floor(share))
		plan[i] = whole
		assigned += whole
		remainders[i] = remainder{idx: i, frac: share - float64(whole)}
	}
	sort.SliceStable(remainders, func(a, b int) bool {
		return remainders[a].frac > remainders[b].frac
	})
	for k := 0; assigned < budget; k = (k + 1) % len(remainders) {
		plan[remainders[k].idx]++
		assigned++
	}
	return plan
}

// spawn produces one offspring for the given specie according to the active
// reproduction proportions.
func (s *Selective) spawn(gc *neat.GenerationContext, sp *neat.Specie, specieIdx int) *model.Genome {
	parent := pickParent(gc, sp)
	var child *model.Genome
	if gc.RNG.Float64() < gc.Params.OffspringAsexualProportion {
		child = parent.Clone(gc.Generation)
	} else {
		mate := pickMate(gc, sp, specieIdx)
		child = crossover(gc, parent, mate)
	}
	s.mutate(gc, child)
	return child
}

// pickParent draws uniformly from the specie's selection slice, its top
// SelectionProportion members.
func pickParent(gc *neat.GenerationContext, sp *neat.Specie) *model.Genome {
	n := int(math.Ceil(float64(len(sp.Genomes)) * gc.Params.SelectionProportion))
	if n < 1 {
		n = 1
	}
	if n > len(sp.Genomes) {
		n = len(sp.Genomes)
	}
	return sp.Genomes[gc.RNG.Intn(n)]
}

// pickMate draws the second crossover parent from the same specie, or with
// the interspecies proportion from a randomly chosen other specie.
func pickMate(gc *neat.GenerationContext, sp *neat.Specie, specieIdx int) *model.Genome {
	if len(gc.Species) > 1 && gc.RNG.Float64() < gc.Params.InterspeciesMatingProportion {
		other := gc.RNG.Intn(len(gc.Species) - 1)
		if other >= specieIdx {
			other++
		}
		return pickParent(gc, gc.Species[other])
	}
	return pickParent(gc, sp)
}

// crossover is uniform over the shared weight range; excess weights come
// from the fitter parent.
func crossover(gc *neat.GenerationContext, a, b *model.Genome) *model.Genome {
	fitter, weaker := a, b
	if b.Fitness > a.Fitness {
		fitter, weaker = b, a
	}
	weights := make([]float64, len(fitter.Weights))
	for i := range weights {
		if i < len(weaker.Weights) && gc.RNG.Float64() < 0.5 {
			weights[i] = weaker.Weights[i]
		} else {
			weights[i] = fitter.Weights[i]
		}
	}
	return model.NewGenome(weights, gc.Generation)
}

// mutate perturbs weights and, gated on the regulation mode, applies at most
// one structural change: grow a weight while complexifying, drop one while
// simplifying.
func (s *Selective) mutate(gc *neat.GenerationContext, g *model.Genome) {
	for i := range g.Weights {
		if gc.RNG.Float64() < s.weightMutationProb {
			g.Weights[i] += gc.RNG.NormFloat64() * s.weightMutationStdDev
		}
	}
	if gc.RNG.Float64() >= s.structuralProb {
		return
	}
	switch gc.Mode {
	case neat.ModeComplexifying:
		g.Weights = append(g.Weights, gc.RNG.NormFloat64())
	case neat.ModeSimplifying:
		if len(g.Weights) > 1 {
			i := gc.RNG.Intn(len(g.Weights))
			g.Weights = append(g.Weights[:i], g.Weights[i+1:]...)
		}
	}
}
