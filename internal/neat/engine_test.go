package neat

import (
	"context"
	"errors"
	"math"
	"testing"

	"neatrun/internal/model"
)

type stubEvaluator struct {
	count uint64
	stop  bool
	score func(g *model.Genome) float64
}

func (s *stubEvaluator) Evaluate(_ context.Context, genomes []*model.Genome) error {
	for _, g := range genomes {
		if s.score != nil {
			g.Fitness = s.score(g)
		}
		s.count++
	}
	return nil
}

func (s *stubEvaluator) EvaluationCount() uint64      { return s.count }
func (s *stubEvaluator) StopConditionSatisfied() bool { return s.stop }

// chunkSpeciation deals genomes round-robin into the requested number of
// species.
type chunkSpeciation struct{}

func (chunkSpeciation) InitializeSpeciation(genomes []*model.Genome, specieCount int) ([]*Specie, error) {
	if specieCount > len(genomes) {
		specieCount = len(genomes)
	}
	species := make([]*Specie, specieCount)
	for i := range species {
		species[i] = &Specie{ID: i + 1}
	}
	for i, g := range genomes {
		sp := species[i%specieCount]
		sp.Genomes = append(sp.Genomes, g)
	}
	return species, nil
}

type noopStrategy struct{}

func (noopStrategy) CreateNextGeneration(context.Context, *GenerationContext) error { return nil }

type captureStrategy struct {
	asexual float64
	mode    ComplexityRegulationMode
}

func (s *captureStrategy) CreateNextGeneration(_ context.Context, gc *GenerationContext) error {
	s.asexual = gc.Params.OffspringAsexualProportion
	s.mode = gc.Mode
	return nil
}

type dropGenomeStrategy struct{}

func (dropGenomeStrategy) CreateNextGeneration(_ context.Context, gc *GenerationContext) error {
	sp := gc.Species[0]
	sp.Genomes = sp.Genomes[:len(sp.Genomes)-1]
	return nil
}

type emptySpecieStrategy struct{}

func (emptySpecieStrategy) CreateNextGeneration(_ context.Context, gc *GenerationContext) error {
	first := gc.Species[0]
	gc.Species[1].Genomes = append(gc.Species[1].Genomes, first.Genomes...)
	first.Genomes = nil
	return nil
}

type fixedRegulation struct{ mode ComplexityRegulationMode }

func (r fixedRegulation) UpdateMode(*Stats) ComplexityRegulationMode { return r.mode }

type fakeSink struct {
	opened bool
	closed bool
	header []string
	rows   [][]string
}

func (s *fakeSink) Open() error { s.opened = true; return nil }

func (s *fakeSink) LogHeader(controllerFields, statsFields, championFields []string) error {
	s.header = append(s.header, controllerFields...)
	s.header = append(s.header, statsFields...)
	s.header = append(s.header, championFields...)
	return nil
}

func (s *fakeSink) LogValues(values []string) error {
	s.rows = append(s.rows, values)
	return nil
}

func (s *fakeSink) Close() error { s.closed = true; return nil }

func testPopulation(fitness ...float64) []*model.Genome {
	genomes := make([]*model.Genome, len(fitness))
	for i, f := range fitness {
		genomes[i] = model.NewGenome([]float64{f}, 0)
	}
	return genomes
}

func firstWeightScore(g *model.Genome) float64 { return g.Weights[0] }

func newTestEngine(t *testing.T, specieCount int, strategy GenerationStrategy, regulation ComplexityRegulationStrategy, sink LoggingSink) *GenerationEngine {
	t.Helper()
	params := DefaultParameters()
	params.SpecieCount = specieCount
	engine, err := NewGenerationEngine(EngineConfig{
		Params:     params,
		Speciation: chunkSpeciation{},
		Strategy:   strategy,
		Regulation: regulation,
		Sink:       sink,
		Logger:     NopLogger(),
		Seed:       1,
	})
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return engine
}

func TestInitializeRunBuildsPartitionAndStats(t *testing.T) {
	engine := newTestEngine(t, 3, noopStrategy{}, nil, nil)
	evaluator := &stubEvaluator{score: firstWeightScore}
	genomes := testPopulation(0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0)

	if err := engine.InitializeRun(context.Background(), evaluator, genomes); err != nil {
		t.Fatalf("initialize run: %v", err)
	}

	if engine.Generation() != 0 {
		t.Fatalf("generation = %d, want 0", engine.Generation())
	}
	s := engine.Stats()
	if s.SpecieCount != 3 || s.MinSpecieSize != 3 || s.MaxSpecieSize != 4 {
		t.Fatalf("specie stats = %d/%d/%d, want 3/3/4", s.SpecieCount, s.MinSpecieSize, s.MaxSpecieSize)
	}
	if s.MaxFitness != 1.0 {
		t.Fatalf("max fitness = %f, want 1.0", s.MaxFitness)
	}
	if math.Abs(s.MeanFitness-0.55) > 1e-9 {
		t.Fatalf("mean fitness = %f, want 0.55", s.MeanFitness)
	}
	// Round-robin split puts leaders 1.0, 0.8 and 0.9 in the three species.
	if math.Abs(s.MeanSpecieChampFitness-0.9) > 1e-9 {
		t.Fatalf("mean specie champ fitness = %f, want 0.9", s.MeanSpecieChampFitness)
	}
	if best := engine.BestGenome(); best == nil || best.Fitness != 1.0 {
		t.Fatalf("champion fitness wrong: %+v", best)
	}
	if s.TotalEvaluationCount != 10 {
		t.Fatalf("evaluation count = %d, want 10", s.TotalEvaluationCount)
	}
}

func TestInitializeRunOpensSinkAndWritesHeader(t *testing.T) {
	sink := &fakeSink{}
	engine := newTestEngine(t, 2, noopStrategy{}, nil, sink)
	evaluator := &stubEvaluator{score: firstWeightScore}

	if err := engine.InitializeRun(context.Background(), evaluator, testPopulation(0.1, 0.2, 0.3, 0.4)); err != nil {
		t.Fatalf("initialize run: %v", err)
	}
	if !sink.opened {
		t.Fatal("sink was not opened")
	}
	if len(sink.header) == 0 {
		t.Fatal("header was not written")
	}
}

func TestChampionTieFirstSpecieWins(t *testing.T) {
	engine := newTestEngine(t, 2, noopStrategy{}, nil, nil)
	evaluator := &stubEvaluator{score: firstWeightScore}
	// Round-robin split: specie 0 gets indexes 0,2 and specie 1 gets 1,3.
	// Both leaders score 0.5.
	genomes := testPopulation(0.5, 0.5, 0.1, 0.2)

	if err := engine.InitializeRun(context.Background(), evaluator, genomes); err != nil {
		t.Fatalf("initialize run: %v", err)
	}
	if engine.BestSpecieIndex() != 0 {
		t.Fatalf("champion specie = %d, want first-seen 0", engine.BestSpecieIndex())
	}
	if engine.BestGenome() != genomes[0] {
		t.Fatal("champion is not the first specie's leader")
	}
}

func TestPerformOneGenerationAdvancesAndRebuilds(t *testing.T) {
	engine := newTestEngine(t, 3, noopStrategy{}, nil, nil)
	evaluator := &stubEvaluator{score: firstWeightScore}
	genomes := testPopulation(0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0)
	if err := engine.InitializeRun(context.Background(), evaluator, genomes); err != nil {
		t.Fatalf("initialize run: %v", err)
	}

	if err := engine.PerformOneGeneration(context.Background()); err != nil {
		t.Fatalf("perform generation: %v", err)
	}
	if engine.Generation() != 1 {
		t.Fatalf("generation = %d, want 1", engine.Generation())
	}
	if len(engine.Population()) != 10 {
		t.Fatalf("population rebuilt to %d genomes, want 10", len(engine.Population()))
	}
}

func TestSimplifyingModeSwapsParameters(t *testing.T) {
	strategy := &captureStrategy{}
	engine := newTestEngine(t, 2, strategy, fixedRegulation{mode: ModeSimplifying}, nil)
	evaluator := &stubEvaluator{score: firstWeightScore}
	if err := engine.InitializeRun(context.Background(), evaluator, testPopulation(0.1, 0.2, 0.3, 0.4)); err != nil {
		t.Fatalf("initialize run: %v", err)
	}

	if err := engine.PerformOneGeneration(context.Background()); err != nil {
		t.Fatalf("perform generation: %v", err)
	}
	if strategy.mode != ModeSimplifying {
		t.Fatalf("strategy saw mode %s, want simplifying", strategy.mode)
	}
	if strategy.asexual != 1.0 {
		t.Fatalf("strategy saw asexual proportion %f, want 1.0", strategy.asexual)
	}
}

func TestBrokenPartitionRejected(t *testing.T) {
	engine := newTestEngine(t, 2, dropGenomeStrategy{}, nil, nil)
	evaluator := &stubEvaluator{score: firstWeightScore}
	if err := engine.InitializeRun(context.Background(), evaluator, testPopulation(0.1, 0.2, 0.3, 0.4)); err != nil {
		t.Fatalf("initialize run: %v", err)
	}

	err := engine.PerformOneGeneration(context.Background())
	if !errors.Is(err, ErrBrokenPartition) {
		t.Fatalf("error = %v, want ErrBrokenPartition", err)
	}
}

func TestEmptySpecieRejected(t *testing.T) {
	engine := newTestEngine(t, 2, emptySpecieStrategy{}, nil, nil)
	evaluator := &stubEvaluator{score: firstWeightScore}
	if err := engine.InitializeRun(context.Background(), evaluator, testPopulation(0.1, 0.2, 0.3, 0.4)); err != nil {
		t.Fatalf("initialize run: %v", err)
	}

	err := engine.PerformOneGeneration(context.Background())
	if !errors.Is(err, ErrEmptySpecie) {
		t.Fatalf("error = %v, want ErrEmptySpecie", err)
	}
}

func TestOnPauseWritesOneRowMatchingHeader(t *testing.T) {
	sink := &fakeSink{}
	engine := newTestEngine(t, 2, noopStrategy{}, nil, sink)
	evaluator := &stubEvaluator{score: firstWeightScore}
	if err := engine.InitializeRun(context.Background(), evaluator, testPopulation(0.1, 0.2, 0.3, 0.4)); err != nil {
		t.Fatalf("initialize run: %v", err)
	}

	if err := engine.OnPause(); err != nil {
		t.Fatalf("on pause: %v", err)
	}
	if len(sink.rows) != 1 {
		t.Fatalf("rows written = %d, want 1", len(sink.rows))
	}
	if len(sink.rows[0]) != len(sink.header) {
		t.Fatalf("row width %d does not match header width %d", len(sink.rows[0]), len(sink.header))
	}

	if err := engine.CloseRun(); err != nil {
		t.Fatalf("close run: %v", err)
	}
	if !sink.closed {
		t.Fatal("sink was not closed")
	}
}
