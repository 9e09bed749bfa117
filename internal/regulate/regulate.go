// Package regulate supplies complexity-regulation strategies deciding when a
// run switches between complexifying and simplifying phases.
package regulate

import "neatrun/internal/neat"

// AlwaysComplexify never enters the simplifying phase.
type AlwaysComplexify struct{}

// UpdateMode always reports the complexifying mode.
func (AlwaysComplexify) UpdateMode(*neat.Stats) neat.ComplexityRegulationMode {
	return neat.ModeComplexifying
}

// AbsoluteCeiling simplifies whenever mean population complexity exceeds a
// fixed ceiling and complexifies again once it drops back below.
type AbsoluteCeiling struct {
	Ceiling float64

	mode neat.ComplexityRegulationMode
}

// UpdateMode applies the ceiling rule to the latest statistics.
func (r *AbsoluteCeiling) UpdateMode(stats *neat.Stats) neat.ComplexityRegulationMode {
	switch r.mode {
	case neat.ModeComplexifying:
		if stats.MeanComplexity > r.Ceiling {
			r.mode = neat.ModeSimplifying
		}
	case neat.ModeSimplifying:
		if stats.MeanComplexity <= r.Ceiling {
			r.mode = neat.ModeComplexifying
		}
	}
	return r.mode
}

// RelativeCeiling floats the ceiling at a fixed margin above the mean
// complexity observed when the current complexifying phase began. A
// simplifying phase ends once the complexity moving average stops falling,
// at which point a new ceiling is anchored to the current mean.
type RelativeCeiling struct {
	Margin float64

	mode     neat.ComplexityRegulationMode
	ceiling  float64
	anchored bool
}

// UpdateMode applies the floating-ceiling rule to the latest statistics.
func (r *RelativeCeiling) UpdateMode(stats *neat.Stats) neat.ComplexityRegulationMode {
	if !r.anchored {
		r.ceiling = stats.MeanComplexity + r.Margin
		r.anchored = true
	}

	switch r.mode {
	case neat.ModeComplexifying:
		if stats.MeanComplexity > r.ceiling {
			r.mode = neat.ModeSimplifying
		}
	case neat.ModeSimplifying:
		falling := stats.ComplexityMA.Mean() < stats.ComplexityMA.Previous()
		if !falling {
			r.mode = neat.ModeComplexifying
			r.ceiling = stats.MeanComplexity + r.Margin
		}
	}
	return r.mode
}
