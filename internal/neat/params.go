package neat

import (
	"fmt"

	"gopkg.in/ini.v1"
)

// Parameters is the per-phase configuration of the generation engine. Two
// live instances exist per run: the base complexifying set and a derived
// simplifying set. Instances are immutable after construction except through
// Simplifying, which is an explicit copy-and-modify step.
type Parameters struct {
	SpecieCount                  int     `ini:"specie_count"`
	ElitismProportion            float64 `ini:"elitism_proportion"`
	SelectionProportion          float64 `ini:"selection_proportion"`
	OffspringAsexualProportion   float64 `ini:"offspring_asexual_proportion"`
	OffspringSexualProportion    float64 `ini:"offspring_sexual_proportion"`
	InterspeciesMatingProportion float64 `ini:"interspecies_mating_proportion"`

	BestFitnessMovingAverageHistoryLength            int `ini:"best_fitness_moving_average_history_length"`
	MeanSpecieChampFitnessMovingAverageHistoryLength int `ini:"mean_specie_champ_fitness_moving_average_history_length"`
	ComplexityMovingAverageHistoryLength             int `ini:"complexity_moving_average_history_length"`

	// MinimumTimeAlive is the number of generations a genome must survive
	// before selection may cull it.
	MinimumTimeAlive uint32 `ini:"minimum_time_alive"`
}

// DefaultParameters returns the base complexifying parameter set.
func DefaultParameters() *Parameters {
	p := &Parameters{
		SpecieCount:                  10,
		ElitismProportion:            0.2,
		SelectionProportion:          0.2,
		OffspringAsexualProportion:   0.5,
		OffspringSexualProportion:    0.5,
		InterspeciesMatingProportion: 0.01,

		BestFitnessMovingAverageHistoryLength:            100,
		MeanSpecieChampFitnessMovingAverageHistoryLength: 100,
		ComplexityMovingAverageHistoryLength:             100,

		MinimumTimeAlive: 1,
	}
	p.normalizeOffspringProportions()
	return p
}

// LoadParameters reads a parameter set from an INI file, applying defaults
// for keys the file omits.
func LoadParameters(path string) (*Parameters, error) {
	cfg, err := ini.LoadSources(ini.LoadOptions{
		IgnoreInlineComment:         true,
		UnescapeValueCommentSymbols: true,
	}, path)
	if err != nil {
		return nil, fmt.Errorf("load parameters file %q: %w", path, err)
	}

	p := DefaultParameters()
	if err := cfg.Section("neat").MapTo(p); err != nil {
		return nil, fmt.Errorf("map [neat] section: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	p.normalizeOffspringProportions()
	return p, nil
}

// Validate rejects values the engine cannot run with.
func (p *Parameters) Validate() error {
	if p.SpecieCount <= 0 {
		return fmt.Errorf("specie count must be > 0, got %d", p.SpecieCount)
	}
	if p.ElitismProportion < 0 || p.ElitismProportion > 1 {
		return fmt.Errorf("elitism proportion must be in [0,1], got %f", p.ElitismProportion)
	}
	if p.SelectionProportion <= 0 || p.SelectionProportion > 1 {
		return fmt.Errorf("selection proportion must be in (0,1], got %f", p.SelectionProportion)
	}
	if p.OffspringAsexualProportion < 0 || p.OffspringSexualProportion < 0 {
		return fmt.Errorf("offspring proportions must be >= 0, got asexual=%f sexual=%f",
			p.OffspringAsexualProportion, p.OffspringSexualProportion)
	}
	if p.OffspringAsexualProportion+p.OffspringSexualProportion == 0 {
		return fmt.Errorf("offspring proportions must not both be zero")
	}
	if p.InterspeciesMatingProportion < 0 || p.InterspeciesMatingProportion > 1 {
		return fmt.Errorf("interspecies mating proportion must be in [0,1], got %f", p.InterspeciesMatingProportion)
	}
	if p.BestFitnessMovingAverageHistoryLength <= 0 ||
		p.MeanSpecieChampFitnessMovingAverageHistoryLength <= 0 ||
		p.ComplexityMovingAverageHistoryLength <= 0 {
		return fmt.Errorf("moving average history lengths must be > 0")
	}
	return nil
}

// Simplifying returns a full copy with the asexual proportion forced to 1.0
// and the sexual proportion to 0.0, preventing structural growth through
// crossover while the run is in simplifying mode.
func (p *Parameters) Simplifying() *Parameters {
	cp := *p
	cp.OffspringAsexualProportion = 1.0
	cp.OffspringSexualProportion = 0.0
	cp.normalizeOffspringProportions()
	return &cp
}

func (p *Parameters) normalizeOffspringProportions() {
	total := p.OffspringAsexualProportion + p.OffspringSexualProportion
	if total == 0 {
		p.OffspringAsexualProportion = 1.0
		p.OffspringSexualProportion = 0.0
		return
	}
	p.OffspringAsexualProportion /= total
	p.OffspringSexualProportion /= total
}
