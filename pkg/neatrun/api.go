// Package neatrun is the embedding API: it assembles an evolution run from
// the engine collaborators, drives it to completion and persists the run
// artifacts.
package neatrun

import (
	"context"
	"errors"
	"fmt"
	"time"

	"neatrun/internal/evaluate"
	"neatrun/internal/genotype"
	"neatrun/internal/model"
	"neatrun/internal/neat"
	"neatrun/internal/regulate"
	"neatrun/internal/reproduce"
	"neatrun/internal/runlog"
	"neatrun/internal/speciate"
	"neatrun/internal/storage"
)

const defaultDBPath = "neatrun.db"

type Options struct {
	StoreKind string
	DBPath    string
	Logger    neat.Logger
}

type Client struct {
	store  storage.Store
	logger neat.Logger

	initialized bool
}

// RunRequest configures one evolution run.
type RunRequest struct {
	RunID     string
	Objective string
	Target    []float64

	Population   int
	GenomeLength int
	Generations  int

	FitnessGoal      float64
	EvaluationsLimit uint64
	Seed             int64
	Workers          int

	Params     *neat.Parameters
	ParamsPath string

	Regulation        string
	ComplexityCeiling float64
	ComplexityMargin  float64

	LogPath     string
	UpdateEvery int
	OnUpdate    func(RunProgress)
}

// RunProgress is the periodic callback payload emitted while a run advances.
type RunProgress struct {
	Generation     uint32
	BestFitness    float64
	MeanFitness    float64
	MeanComplexity float64
	Evaluations    uint64
	EvalsPerSecond float64
	SpecieCount    int
	RegulationMode string
}

// RunSummary describes a finished run.
type RunSummary struct {
	RunID            string
	Objective        string
	Generations      uint32
	BestFitness      float64
	BestComplexity   float64
	BestGenomeID     string
	TotalEvaluations uint64
	ArchiveSize      int
	StopConditionMet bool
}

func New(opts Options) (*Client, error) {
	dbPath := opts.DBPath
	if dbPath == "" {
		dbPath = defaultDBPath
	}
	store, err := storage.NewStore(opts.StoreKind, dbPath)
	if err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = neat.StdLogger()
	}
	return &Client{store: store, logger: logger}, nil
}

func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

func (c *Client) Init(ctx context.Context) error {
	if c.initialized {
		return nil
	}
	if err := c.store.Init(ctx); err != nil {
		return err
	}
	c.initialized = true
	return nil
}

// Run executes one full evolution run and persists its snapshot, statistics
// history and champion under the run ID.
func (c *Client) Run(ctx context.Context, req RunRequest) (RunSummary, error) {
	if req.Objective == "" {
		req.Objective = "sphere"
	}
	if req.Population <= 0 {
		req.Population = 100
	}
	if req.GenomeLength <= 0 {
		req.GenomeLength = 8
	}
	if req.Generations <= 0 {
		req.Generations = 100
	}
	if req.Workers <= 0 {
		req.Workers = 4
	}
	if req.UpdateEvery <= 0 {
		req.UpdateEvery = 10
	}
	if err := c.Init(ctx); err != nil {
		return RunSummary{}, err
	}

	params := req.Params
	if params == nil && req.ParamsPath != "" {
		loaded, err := neat.LoadParameters(req.ParamsPath)
		if err != nil {
			return RunSummary{}, err
		}
		params = loaded
	}
	if params == nil {
		params = neat.DefaultParameters()
	}

	objective, err := objectiveFromName(req.Objective, req.Target)
	if err != nil {
		return RunSummary{}, err
	}
	regulation, err := regulationFromName(req.Regulation, req.ComplexityCeiling, req.ComplexityMargin)
	if err != nil {
		return RunSummary{}, err
	}

	evalOpts := []evaluate.Option{evaluate.WithWorkers(req.Workers)}
	if req.FitnessGoal > 0 {
		evalOpts = append(evalOpts, evaluate.WithFitnessGoal(req.FitnessGoal))
	}
	if req.EvaluationsLimit > 0 {
		evalOpts = append(evalOpts, evaluate.WithEvaluationsLimit(req.EvaluationsLimit))
	}
	evaluator, err := evaluate.New(objective, evalOpts...)
	if err != nil {
		return RunSummary{}, err
	}

	factory, err := genotype.NewVectorFactory(req.GenomeLength, 1.0, req.Seed)
	if err != nil {
		return RunSummary{}, err
	}

	var sink neat.LoggingSink
	if req.LogPath != "" {
		sink = runlog.NewCSVSink(req.LogPath)
	}
	archive := neat.NewArchive()

	engine, err := neat.NewGenerationEngine(neat.EngineConfig{
		Params:     params,
		Speciation: speciate.Centroid{},
		Strategy:   reproduce.NewSelective(),
		Regulation: regulation,
		Sink:       sink,
		Archive:    archive,
		Logger:     c.logger,
		Seed:       req.Seed,
	})
	if err != nil {
		return RunSummary{}, err
	}

	ctrl := neat.NewController(engine,
		neat.WithLogger(c.logger),
		neat.WithUpdateScheme(neat.NewGenerationalUpdateScheme(1)),
	)
	if err := ctrl.InitializeSized(ctx, evaluator, factory, req.Population); err != nil {
		return RunSummary{}, err
	}

	runID := req.RunID
	if runID == "" {
		runID = fmt.Sprintf("%s-%d-%d", req.Objective, req.Seed, time.Now().UTC().Unix())
	}

	generationBudget := uint32(req.Generations)
	var history []model.GenerationStatsRecord
	paused := make(chan struct{}, 1)

	// Both listeners run on the worker goroutine; history and the budget
	// check need no locking.
	ctrl.AddUpdateListener(func(*neat.EvolutionController) {
		gen := engine.Generation()
		history = append(history, engine.Stats().Record())
		if req.OnUpdate != nil && (gen%uint32(req.UpdateEvery) == 0 || gen >= generationBudget) {
			req.OnUpdate(progressFrom(engine))
		}
		if gen >= generationBudget {
			ctrl.RequestPause()
		}
	})
	ctrl.AddPausedListener(func(*neat.EvolutionController) {
		select {
		case paused <- struct{}{}:
		default:
		}
	})

	if err := ctrl.StartContinue(); err != nil {
		return RunSummary{}, err
	}

	select {
	case <-paused:
	case <-ctrl.Done():
		if err := ctrl.Err(); err != nil {
			return RunSummary{}, err
		}
		return RunSummary{}, errors.New("run terminated before completion")
	case <-ctx.Done():
		ctrl.Reset()
		return RunSummary{}, ctx.Err()
	}
	defer ctrl.Reset()

	if err := c.persistRun(ctx, runID, engine, history); err != nil {
		return RunSummary{}, err
	}

	summary := RunSummary{
		RunID:            runID,
		Objective:        req.Objective,
		Generations:      engine.Generation(),
		TotalEvaluations: evaluator.EvaluationCount(),
		ArchiveSize:      archive.Len(),
		StopConditionMet: evaluator.StopConditionSatisfied(),
	}
	if best := engine.BestGenome(); best != nil {
		summary.BestFitness = best.Fitness
		summary.BestComplexity = best.Complexity()
		summary.BestGenomeID = best.ID
	}
	return summary, nil
}

// StatsHistory returns the persisted per-generation statistics of a run.
func (c *Client) StatsHistory(ctx context.Context, runID string) ([]model.GenerationStatsRecord, error) {
	if runID == "" {
		return nil, errors.New("run id is required")
	}
	if err := c.Init(ctx); err != nil {
		return nil, err
	}
	history, ok, err := c.store.GetStatsHistory(ctx, runID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("stats history not found for run id: %s", runID)
	}
	return history, nil
}

// Population returns the persisted final population snapshot of a run.
func (c *Client) Population(ctx context.Context, runID string) (model.PopulationSnapshot, error) {
	if runID == "" {
		return model.PopulationSnapshot{}, errors.New("run id is required")
	}
	if err := c.Init(ctx); err != nil {
		return model.PopulationSnapshot{}, err
	}
	snapshot, ok, err := c.store.GetSnapshot(ctx, runID)
	if err != nil {
		return model.PopulationSnapshot{}, err
	}
	if !ok {
		return model.PopulationSnapshot{}, fmt.Errorf("population snapshot not found for run id: %s", runID)
	}
	return snapshot, nil
}

// Champion returns the persisted champion of a run.
func (c *Client) Champion(ctx context.Context, runID string) (model.ChampionRecord, error) {
	if runID == "" {
		return model.ChampionRecord{}, errors.New("run id is required")
	}
	if err := c.Init(ctx); err != nil {
		return model.ChampionRecord{}, err
	}
	champion, ok, err := c.store.GetChampion(ctx, runID)
	if err != nil {
		return model.ChampionRecord{}, err
	}
	if !ok {
		return model.ChampionRecord{}, fmt.Errorf("champion not found for run id: %s", runID)
	}
	return champion, nil
}

func (c *Client) persistRun(ctx context.Context, runID string, engine *neat.GenerationEngine, history []model.GenerationStatsRecord) error {
	population := engine.Population()
	snapshot := model.PopulationSnapshot{
		ID:         runID,
		Generation: engine.Generation(),
		Genomes:    make([]model.Genome, 0, len(population)),
	}
	for _, g := range population {
		snapshot.Genomes = append(snapshot.Genomes, *g)
	}
	storage.Stamp(&snapshot.VersionedRecord)
	if err := c.store.SaveSnapshot(ctx, runID, snapshot); err != nil {
		return fmt.Errorf("save population snapshot: %w", err)
	}

	for i := range history {
		storage.Stamp(&history[i].VersionedRecord)
	}
	if err := c.store.SaveStatsHistory(ctx, runID, history); err != nil {
		return fmt.Errorf("save stats history: %w", err)
	}

	if best := engine.BestGenome(); best != nil {
		champion := model.ChampionRecord{
			RunID:      runID,
			Generation: engine.Generation(),
			Genome:     *best,
		}
		storage.Stamp(&champion.VersionedRecord)
		if err := c.store.SaveChampion(ctx, champion); err != nil {
			return fmt.Errorf("save champion: %w", err)
		}
	}
	return nil
}

func progressFrom(engine *neat.GenerationEngine) RunProgress {
	s := engine.Stats()
	return RunProgress{
		Generation:     s.Generation,
		BestFitness:    s.MaxFitness,
		MeanFitness:    s.MeanFitness,
		MeanComplexity: s.MeanComplexity,
		Evaluations:    s.TotalEvaluationCount,
		EvalsPerSecond: s.EvaluationsPerSecond,
		SpecieCount:    s.SpecieCount,
		RegulationMode: engine.Mode().String(),
	}
}

func objectiveFromName(name string, target []float64) (evaluate.Func, error) {
	switch name {
	case "sphere":
		return evaluate.Sphere(), nil
	case "rastrigin":
		return evaluate.Rastrigin(), nil
	case "target":
		if len(target) == 0 {
			return nil, errors.New("target objective requires a target vector")
		}
		return evaluate.TargetVector(target), nil
	default:
		return nil, fmt.Errorf("unsupported objective: %s", name)
	}
}

func regulationFromName(name string, ceiling, margin float64) (neat.ComplexityRegulationStrategy, error) {
	switch name {
	case "", "none":
		return regulate.AlwaysComplexify{}, nil
	case "absolute":
		if ceiling <= 0 {
			return nil, errors.New("absolute regulation requires a complexity ceiling > 0")
		}
		return &regulate.AbsoluteCeiling{Ceiling: ceiling}, nil
	case "relative":
		if margin <= 0 {
			return nil, errors.New("relative regulation requires a complexity margin > 0")
		}
		return &regulate.RelativeCeiling{Margin: margin}, nil
	default:
		return nil, fmt.Errorf("unsupported regulation strategy: %s", name)
	}
}
