package evaluate

import "math"

// TargetVector scores a genome by proximity of its weights to a target
// vector, mapped into (0, 1] with 1.0 at an exact match. Dimensions missing
// from the genome count as maximal error, so complexifying toward the target
// length pays off.
func TargetVector(target []float64) Func {
	return func(weights []float64) float64 {
		if len(target) == 0 {
			return 0
		}
		sum := 0.0
		for i, want := range target {
			if i < len(weights) {
				d := weights[i] - want
				sum += d * d
			} else {
				sum += want*want + 1
			}
		}
		for i := len(target); i < len(weights); i++ {
			sum += weights[i]*weights[i] + 1
		}
		return 1.0 / (1.0 + sum/float64(len(target)))
	}
}

// Sphere is the classic minimization benchmark inverted into a fitness:
// 1/(1+sum(w^2)).
func Sphere() Func {
	return func(weights []float64) float64 {
		sum := 0.0
		for _, w := range weights {
			sum += w * w
		}
		return 1.0 / (1.0 + sum)
	}
}

// Rastrigin is a multimodal benchmark inverted into a fitness.
func Rastrigin() Func {
	return func(weights []float64) float64 {
		sum := 10.0 * float64(len(weights))
		for _, w := range weights {
			sum += w*w - 10.0*math.Cos(2.0*math.Pi*w)
		}
		if sum < 0 {
			sum = 0
		}
		return 1.0 / (1.0 + sum)
	}
}
