package neat

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"time"

	"neatrun/internal/model"
)

var (
	// ErrEmptySpecie signals a collaborator defect: a speciation or
	// reproduction step produced a specie with no members. It is surfaced as
	// a hard failure rather than silently patched.
	ErrEmptySpecie = errors.New("empty specie in partition")
	// ErrBrokenPartition signals that the species no longer form an exact
	// partition of the population.
	ErrBrokenPartition = errors.New("species do not partition the population")
)

// EngineConfig wires the generation engine's collaborators.
type EngineConfig struct {
	Params     *Parameters
	Speciation SpeciationStrategy
	Strategy   GenerationStrategy
	Regulation ComplexityRegulationStrategy
	Sink       LoggingSink
	Archive    *Archive
	Logger     Logger
	Seed       int64
}

// GenerationEngine implements one NEAT generation step and the statistics
// and species bookkeeping around it. Genome-level operators live in the
// injected strategy collaborators.
type GenerationEngine struct {
	params           *Parameters
	simplifyingParam *Parameters
	speciation       SpeciationStrategy
	strategy         GenerationStrategy
	regulation       ComplexityRegulationStrategy
	sink             LoggingSink
	archive          *Archive
	logger           Logger
	rng              *rand.Rand

	evaluator      GenomeListEvaluator
	genomes        []*model.Genome
	species        []*Specie
	stats          *Stats
	mode           ComplexityRegulationMode
	bestGenome     *model.Genome
	bestSpecieIdx  int
	populationSize int
	generation     uint32
}

// NewGenerationEngine validates the configuration and builds an engine.
func NewGenerationEngine(cfg EngineConfig) (*GenerationEngine, error) {
	if cfg.Speciation == nil {
		return nil, fmt.Errorf("speciation strategy is required")
	}
	if cfg.Strategy == nil {
		return nil, fmt.Errorf("generation strategy is required")
	}
	params := cfg.Params
	if params == nil {
		params = DefaultParameters()
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	logger := cfg.Logger
	if logger == nil {
		logger = StdLogger()
	}
	return &GenerationEngine{
		params:           params,
		simplifyingParam: params.Simplifying(),
		speciation:       cfg.Speciation,
		strategy:         cfg.Strategy,
		regulation:       cfg.Regulation,
		sink:             cfg.Sink,
		archive:          cfg.Archive,
		logger:           logger,
		rng:              rand.New(rand.NewSource(cfg.Seed)),
	}, nil
}

// InitializeRun evaluates the initial population, builds the specie
// partition, records the initial champion and opens the logging sink.
func (e *GenerationEngine) InitializeRun(ctx context.Context, evaluator GenomeListEvaluator, genomes []*model.Genome) error {
	e.evaluator = evaluator
	e.genomes = genomes
	e.populationSize = len(genomes)
	e.generation = 0
	e.stats = NewStats(e.params)

	if err := evaluator.Evaluate(ctx, genomes); err != nil {
		return fmt.Errorf("evaluate initial population: %w", err)
	}

	species, err := e.speciation.InitializeSpeciation(genomes, e.params.SpecieCount)
	if err != nil {
		return fmt.Errorf("initial speciation: %w", err)
	}
	e.species = species
	if err := e.validatePartition(); err != nil {
		return err
	}

	minSize, maxSize := SortSpecieGenomes(e.species)
	e.stats.MinSpecieSize = minSize
	e.stats.MaxSpecieSize = maxSize
	e.stats.SpecieCount = len(e.species)
	e.updateBestGenome()
	e.updateStats(time.Now())

	if e.sink != nil {
		if err := e.sink.Open(); err != nil {
			return fmt.Errorf("open logging sink: %w", err)
		}
		if err := e.sink.LogHeader(controllerFieldNames, statsFieldNames, championFieldNames); err != nil {
			return fmt.Errorf("write sink header: %w", err)
		}
	}
	return nil
}

// PerformOneGeneration executes exactly one generation step.
func (e *GenerationEngine) PerformOneGeneration(ctx context.Context) error {
	e.generation++

	if e.regulation != nil {
		e.mode = e.regulation.UpdateMode(e.stats)
	}
	active := e.params
	if e.mode == ModeSimplifying {
		active = e.simplifyingParam
	}

	gc := &GenerationContext{
		Params:         active,
		Mode:           e.mode,
		Species:        e.species,
		PopulationSize: e.populationSize,
		Generation:     e.generation,
		RNG:            e.rng,
		Archive:        e.archive,
		Evaluator:      e.evaluator,
	}
	if err := e.strategy.CreateNextGeneration(ctx, gc); err != nil {
		return fmt.Errorf("generation %d: %w", e.generation, err)
	}
	e.species = gc.Species
	if err := e.validatePartition(); err != nil {
		return fmt.Errorf("generation %d: %w", e.generation, err)
	}

	minSize, maxSize := SortSpecieGenomes(e.species)
	e.stats.MinSpecieSize = minSize
	e.stats.MaxSpecieSize = maxSize
	e.stats.SpecieCount = len(e.species)

	e.updateBestGenome()
	e.updateStats(time.Now())
	e.rebuildGenomeList()
	return nil
}

// Generation is the number of completed generation steps.
func (e *GenerationEngine) Generation() uint32 { return e.generation }

// Stats exposes the run statistics aggregate. Read it only from the worker
// goroutine or while the run is paused.
func (e *GenerationEngine) Stats() *Stats { return e.stats }

// BestGenome is the current champion.
func (e *GenerationEngine) BestGenome() *model.Genome { return e.bestGenome }

// BestSpecieIndex is the index of the specie owning the champion.
func (e *GenerationEngine) BestSpecieIndex() int { return e.bestSpecieIdx }

// Species exposes the current specie partition.
func (e *GenerationEngine) Species() []*Specie { return e.species }

// Population exposes the flat genome list.
func (e *GenerationEngine) Population() []*model.Genome { return e.genomes }

// Mode is the regulation mode used for the latest generation.
func (e *GenerationEngine) Mode() ComplexityRegulationMode { return e.mode }

// OnPause writes one sink row when the controller acknowledges a pause.
func (e *GenerationEngine) OnPause() error {
	if e.sink == nil {
		return nil
	}
	return e.sink.LogValues(e.sinkRow())
}

// CloseRun releases the logging sink.
func (e *GenerationEngine) CloseRun() error {
	if e.sink == nil {
		return nil
	}
	return e.sink.Close()
}

// updateBestGenome scans only specie leaders: species are sorted, so each
// specie's first genome is its best. First-seen wins ties.
func (e *GenerationEngine) updateBestGenome() {
	var best *model.Genome
	bestIdx := -1
	for i, sp := range e.species {
		leader := sp.Leader()
		if leader == nil {
			continue
		}
		if best == nil || leader.Fitness > best.Fitness {
			best = leader
			bestIdx = i
		}
	}
	e.bestGenome = best
	e.bestSpecieIdx = bestIdx
}

func (e *GenerationEngine) updateStats(now time.Time) {
	s := e.stats
	s.Generation = e.generation
	s.TotalEvaluationCount = e.evaluator.EvaluationCount()
	s.sampleEvaluationsPerSecond(now)

	totalFitness := 0.0
	totalComplexity := 0.0
	maxFitness := 0.0
	maxComplexity := 0.0
	count := 0
	for _, sp := range e.species {
		for _, g := range sp.Genomes {
			totalFitness += g.Fitness
			totalComplexity += g.Complexity()
			if count == 0 || g.Fitness > maxFitness {
				maxFitness = g.Fitness
			}
			if count == 0 || g.Complexity() > maxComplexity {
				maxComplexity = g.Complexity()
			}
			count++
		}
	}
	if count > 0 {
		s.MaxFitness = maxFitness
		s.MeanFitness = totalFitness / float64(count)
		s.MaxComplexity = maxComplexity
		s.MeanComplexity = totalComplexity / float64(count)
	}

	champTotal := 0.0
	for _, sp := range e.species {
		if leader := sp.Leader(); leader != nil {
			champTotal += leader.Fitness
		}
	}
	if len(e.species) > 0 {
		s.MeanSpecieChampFitness = champTotal / float64(len(e.species))
	}

	if e.bestGenome != nil {
		s.BestFitnessMA.Enqueue(e.bestGenome.Fitness)
	}
	s.MeanSpecieChampFitnessMA.Enqueue(s.MeanSpecieChampFitness)
	s.ComplexityMA.Enqueue(s.MeanComplexity)
}

// rebuildGenomeList flattens the specie partition back into the population
// list, restoring the partition invariant for external observers.
func (e *GenerationEngine) rebuildGenomeList() {
	e.genomes = e.genomes[:0]
	for _, sp := range e.species {
		e.genomes = append(e.genomes, sp.Genomes...)
	}
}

// validatePartition asserts that every specie is non-empty and the species
// contain exactly populationSize distinct genomes.
func (e *GenerationEngine) validatePartition() error {
	if len(e.species) == 0 {
		return ErrEmptySpecie
	}
	seen := make(map[*model.Genome]struct{}, e.populationSize)
	for i, sp := range e.species {
		if len(sp.Genomes) == 0 {
			return fmt.Errorf("specie index %d: %w", i, ErrEmptySpecie)
		}
		for _, g := range sp.Genomes {
			if _, dup := seen[g]; dup {
				return fmt.Errorf("genome %s appears twice: %w", g.ID, ErrBrokenPartition)
			}
			seen[g] = struct{}{}
		}
	}
	if len(seen) != e.populationSize {
		return fmt.Errorf("partition holds %d genomes, want %d: %w", len(seen), e.populationSize, ErrBrokenPartition)
	}
	return nil
}

var (
	controllerFieldNames = []string{"run_state", "generation", "regulation_mode"}
	statsFieldNames = []string{
		"total_evaluation_count", "evaluations_per_second",
		"max_fitness", "mean_fitness", "max_complexity", "mean_complexity",
		"mean_specie_champ_fitness", "specie_count", "min_specie_size", "max_specie_size",
	}
	championFieldNames = []string{"champion_id", "champion_fitness", "champion_complexity"}
)

func (e *GenerationEngine) sinkRow() []string {
	s := e.stats
	row := []string{
		RunStatePaused.String(),
		strconv.FormatUint(uint64(e.generation), 10),
		e.mode.String(),
		strconv.FormatUint(s.TotalEvaluationCount, 10),
		formatFloat(s.EvaluationsPerSecond),
		formatFloat(s.MaxFitness),
		formatFloat(s.MeanFitness),
		formatFloat(s.MaxComplexity),
		formatFloat(s.MeanComplexity),
		formatFloat(s.MeanSpecieChampFitness),
		strconv.Itoa(s.SpecieCount),
		strconv.Itoa(s.MinSpecieSize),
		strconv.Itoa(s.MaxSpecieSize),
	}
	if e.bestGenome != nil {
		row = append(row, e.bestGenome.ID, formatFloat(e.bestGenome.Fitness), formatFloat(e.bestGenome.Complexity()))
	} else {
		row = append(row, "", "", "")
	}
	return row
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
