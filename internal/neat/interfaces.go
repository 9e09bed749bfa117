package neat

import (
	"context"
	"log"
	"math/rand"

	"neatrun/internal/model"
)

// GenomeListEvaluator assigns fitness to genomes. EvaluationCount must be
// monotonic; StopConditionSatisfied is polled once per generation boundary.
type GenomeListEvaluator interface {
	Evaluate(ctx context.Context, genomes []*model.Genome) error
	EvaluationCount() uint64
	StopConditionSatisfied() bool
}

// GenomeFactory builds genomes for size-based initialization.
type GenomeFactory interface {
	CreateGenomeList(length int, birthGeneration uint32) []*model.Genome
}

// SpeciationStrategy partitions an evaluated population into species. It is
// invoked exactly once, at engine initialization; re-partitioning during
// normal generations is the reproduction strategy's concern.
type SpeciationStrategy interface {
	InitializeSpeciation(genomes []*model.Genome, specieCount int) ([]*Specie, error)
}

// ComplexityRegulationMode selects between the two live parameter sets.
type ComplexityRegulationMode int

const (
	// ModeComplexifying allows structural growth.
	ModeComplexifying ComplexityRegulationMode = iota
	// ModeSimplifying suppresses structural growth by forcing asexual
	// reproduction.
	ModeSimplifying
)

func (m ComplexityRegulationMode) String() string {
	if m == ModeSimplifying {
		return "simplifying"
	}
	return "complexifying"
}

// ComplexityRegulationStrategy decides the active regulation mode once per
// generation from the current run statistics.
type ComplexityRegulationStrategy interface {
	UpdateMode(stats *Stats) ComplexityRegulationMode
}

// GenerationContext is the view of the run handed to a GenerationStrategy
// for one generation step.
type GenerationContext struct {
	Params         *Parameters
	Mode           ComplexityRegulationMode
	Species        []*Specie
	PopulationSize int
	Generation     uint32
	RNG            *rand.Rand
	Archive        *Archive
	Evaluator      GenomeListEvaluator
}

// GenerationStrategy produces the next population from the current species:
// selection, reproduction and offspring evaluation. Afterward the species
// must again form a valid partition of PopulationSize genomes.
type GenerationStrategy interface {
	CreateNextGeneration(ctx context.Context, gc *GenerationContext) error
}

// LoggingSink receives tabular run output. Open and LogHeader are called at
// engine initialization, LogValues at every pause, Close at reset. Sink
// failures are reported to the caller and never abort the run.
type LoggingSink interface {
	Open() error
	LogHeader(controllerFields, statsFields, championFields []string) error
	LogValues(values []string) error
	Close() error
}

// Logger is the injected logging capability used by the controller and
// engine. Constructors default to StdLogger when none is given; callers who
// want silence pass NopLogger.
type Logger interface {
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

type stdLogger struct{}

func (stdLogger) Infof(format string, args ...any)  { log.Printf("info: "+format, args...) }
func (stdLogger) Warnf(format string, args ...any)  { log.Printf("warn: "+format, args...) }
func (stdLogger) Errorf(format string, args ...any) { log.Printf("error: "+format, args...) }

// StdLogger logs through the standard library log package.
func StdLogger() Logger { return stdLogger{} }

type nopLogger struct{}

func (nopLogger) Infof(string, ...any)  {}
func (nopLogger) Warnf(string, ...any)  {}
func (nopLogger) Errorf(string, ...any) {}

// NopLogger discards all output.
func NopLogger() Logger { return nopLogger{} }
