package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dustin/go-humanize"

	"neatrun/internal/storage"
	api "neatrun/pkg/neatrun"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("missing command")
	}

	switch args[0] {
	case "init":
		return runInit(ctx, args[1:])
	case "run":
		return runRun(ctx, args[1:])
	case "stats":
		return runStats(ctx, args[1:])
	case "population":
		return runPopulation(ctx, args[1:])
	case "champion":
		return runChampion(ctx, args[1:])
	case "profiles":
		return runProfiles(ctx, args[1:])
	default:
		return usageError(fmt.Sprintf("unknown command: %s", args[0]))
	}
}

func usageError(msg string) error {
	return fmt.Errorf("%s\nusage: neatrunctl <init|run|stats|population|champion|profiles> [flags]", msg)
}

func newClient(storeKind, dbPath string) (*api.Client, error) {
	return api.New(api.Options{StoreKind: storeKind, DBPath: dbPath})
}

func runInit(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	storeKind, dbPath := storeFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := newClient(*storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	if err := client.Init(ctx); err != nil {
		return err
	}
	fmt.Printf("initialized store=%s\n", *storeKind)
	return nil
}

func runRun(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	configPath := fs.String("config", "", "optional run config JSON path")
	profileName := fs.String("profile", "", "optional run preset name")
	profilesPath := fs.String("profiles-file", defaultProfilesPath, "YAML file holding run presets")
	runID := fs.String("run-id", "", "explicit run id (optional)")
	objective := fs.String("objective", "sphere", "objective: sphere|rastrigin|target")
	population := fs.Int("pop", 100, "population size")
	genomeLength := fs.Int("genome-length", 8, "initial genome dimension")
	generations := fs.Int("gens", 100, "generation budget")
	fitnessGoal := fs.Float64("fitness-goal", 0.0, "early-stop best fitness goal (0 disables)")
	evaluationsLimit := fs.Uint64("evaluations-limit", 0, "early-stop total evaluation budget (0 disables)")
	seed := fs.Int64("seed", 1, "rng seed")
	workers := fs.Int("workers", 4, "evaluation worker count")
	paramsPath := fs.String("params", "", "optional INI parameters file")
	regulation := fs.String("regulation", "none", "complexity regulation: none|absolute|relative")
	complexityCeiling := fs.Float64("complexity-ceiling", 0.0, "mean-complexity ceiling for absolute regulation")
	complexityMargin := fs.Float64("complexity-margin", 0.0, "floating-ceiling margin for relative regulation")
	logPath := fs.String("log", "", "optional CSV run log path")
	updateEvery := fs.Int("update-every", 10, "progress print cadence in generations")
	quiet := fs.Bool("quiet", false, "suppress progress output")
	storeKind, dbPath := storeFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	var req api.RunRequest
	suppressProgress := *quiet
	if *configPath != "" {
		loaded, quietCfg, err := loadRunRequestFromConfig(*configPath)
		if err != nil {
			return err
		}
		req = loaded
		suppressProgress = suppressProgress || quietCfg
	} else {
		req = api.RunRequest{
			RunID:             *runID,
			Objective:         *objective,
			Population:        *population,
			GenomeLength:      *genomeLength,
			Generations:       *generations,
			FitnessGoal:       *fitnessGoal,
			EvaluationsLimit:  *evaluationsLimit,
			Seed:              *seed,
			Workers:           *workers,
			ParamsPath:        *paramsPath,
			Regulation:        *regulation,
			ComplexityCeiling: *complexityCeiling,
			ComplexityMargin:  *complexityMargin,
			LogPath:           *logPath,
			UpdateEvery:       *updateEvery,
		}
	}
	if *profileName != "" {
		preset, err := loadProfile(*profilesPath, *profileName)
		if err != nil {
			return err
		}
		req = applyProfile(req, preset)
	}
	if !suppressProgress {
		req.OnUpdate = printProgress
	}

	client, err := newClient(*storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	summary, err := client.Run(ctx, req)
	if err != nil {
		return err
	}

	fmt.Printf("run %s finished: objective=%s generations=%d\n", summary.RunID, summary.Objective, summary.Generations)
	fmt.Printf("  best fitness=%.6f complexity=%.0f genome=%s\n", summary.BestFitness, summary.BestComplexity, summary.BestGenomeID)
	fmt.Printf("  evaluations=%s archive=%d stop-condition=%v\n",
		humanize.Comma(int64(summary.TotalEvaluations)), summary.ArchiveSize, summary.StopConditionMet)
	return nil
}

func runStats(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("stats", flag.ContinueOnError)
	runID := fs.String("run-id", "", "run id")
	limit := fs.Int("limit", 0, "show at most N most recent generations (0 shows all)")
	storeKind, dbPath := storeFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := newClient(*storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	history, err := client.StatsHistory(ctx, *runID)
	if err != nil {
		return err
	}
	if *limit > 0 && len(history) > *limit {
		history = history[len(history)-*limit:]
	}

	fmt.Printf("%-6s %-12s %-12s %-12s %-12s %-8s\n",
		"gen", "best", "mean", "complexity", "evals", "species")
	for _, rec := range history {
		fmt.Printf("%-6d %-12.6f %-12.6f %-12.2f %-12s %-8d\n",
			rec.Generation, rec.MaxFitness, rec.MeanFitness, rec.MeanComplexity,
			humanize.Comma(int64(rec.TotalEvaluationCount)), rec.SpecieCount)
	}
	return nil
}

func runPopulation(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("population", flag.ContinueOnError)
	runID := fs.String("run-id", "", "run id")
	limit := fs.Int("limit", 10, "show at most N genomes (0 shows all)")
	storeKind, dbPath := storeFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := newClient(*storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	snapshot, err := client.Population(ctx, *runID)
	if err != nil {
		return err
	}

	fmt.Printf("population %s at generation %d: %d genomes\n",
		snapshot.ID, snapshot.Generation, len(snapshot.Genomes))
	genomes := snapshot.Genomes
	if *limit > 0 && len(genomes) > *limit {
		genomes = genomes[:*limit]
	}
	for _, g := range genomes {
		fmt.Printf("  %s fitness=%.6f complexity=%d born=%d\n",
			g.ID, g.Fitness, len(g.Weights), g.BirthGeneration)
	}
	return nil
}

func runChampion(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("champion", flag.ContinueOnError)
	runID := fs.String("run-id", "", "run id")
	showWeights := fs.Bool("weights", false, "print the champion weight vector")
	storeKind, dbPath := storeFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := newClient(*storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	champion, err := client.Champion(ctx, *runID)
	if err != nil {
		return err
	}

	fmt.Printf("champion of %s at generation %d\n", champion.RunID, champion.Generation)
	fmt.Printf("  genome=%s fitness=%.6f complexity=%d born=%d\n",
		champion.Genome.ID, champion.Genome.Fitness, len(champion.Genome.Weights), champion.Genome.BirthGeneration)
	if *showWeights {
		fmt.Printf("  weights=%v\n", champion.Genome.Weights)
	}
	return nil
}

func runProfiles(_ context.Context, args []string) error {
	fs := flag.NewFlagSet("profiles", flag.ContinueOnError)
	profilesPath := fs.String("profiles-file", defaultProfilesPath, "YAML file holding run presets")
	if err := fs.Parse(args); err != nil {
		return err
	}

	profiles, err := loadProfiles(*profilesPath)
	if err != nil {
		return err
	}
	if len(profiles) == 0 {
		fmt.Println("no profiles defined")
		return nil
	}
	for _, p := range profiles {
		fmt.Printf("%-16s objective=%-10s pop=%-5d gens=%-5d regulation=%s\n",
			p.Name, p.Objective, p.Population, p.Generations, orDefault(p.Regulation, "none"))
	}
	return nil
}

func storeFlags(fs *flag.FlagSet) (storeKind, dbPath *string) {
	storeKind = fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath = fs.String("db-path", "neatrun.db", "sqlite database path")
	return storeKind, dbPath
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func printProgress(p api.RunProgress) {
	fmt.Printf("gen %-6d best=%.6f mean=%.6f complexity=%.2f species=%d evals=%s (%s/s) mode=%s\n",
		p.Generation, p.BestFitness, p.MeanFitness, p.MeanComplexity, p.SpecieCount,
		humanize.Comma(int64(p.Evaluations)), humanize.CommafWithDigits(p.EvalsPerSecond, 1), p.RegulationMode)
}
