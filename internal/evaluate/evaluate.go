// Package evaluate provides genome-list evaluators for weight-vector
// genomes. The parallel evaluator fans evaluation out over a bounded
// goroutine pool and tracks the stop conditions polled by the run
// controller.
package evaluate

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/sourcegraph/conc/pool"

	"neatrun/internal/model"
)

// Func scores one weight vector. Implementations must be safe for
// concurrent use.
type Func func(weights []float64) float64

// Evaluator implements neat.GenomeListEvaluator over a fitness function.
type Evaluator struct {
	fn               Func
	workers          int
	fitnessGoal      float64
	evaluationsLimit uint64

	count atomic.Uint64
	stop  atomic.Bool
}

// Option customizes an Evaluator.
type Option func(*Evaluator)

// WithWorkers bounds evaluation concurrency. Defaults to 1.
func WithWorkers(n int) Option {
	return func(e *Evaluator) { e.workers = n }
}

// WithFitnessGoal satisfies the stop condition once any genome reaches the
// goal.
func WithFitnessGoal(goal float64) Option {
	return func(e *Evaluator) { e.fitnessGoal = goal }
}

// WithEvaluationsLimit satisfies the stop condition once the cumulative
// evaluation count reaches the budget.
func WithEvaluationsLimit(limit uint64) Option {
	return func(e *Evaluator) { e.evaluationsLimit = limit }
}

// New builds an evaluator around a fitness function.
func New(fn Func, opts ...Option) (*Evaluator, error) {
	if fn == nil {
		return nil, fmt.Errorf("fitness function is required")
	}
	e := &Evaluator{fn: fn, workers: 1}
	for _, opt := range opts {
		opt(e)
	}
	if e.workers <= 0 {
		e.workers = 1
	}
	return e, nil
}

// Evaluate scores every genome, in parallel when configured with more than
// one worker.
func (e *Evaluator) Evaluate(ctx context.Context, genomes []*model.Genome) error {
	p := pool.New().WithMaxGoroutines(e.workers)

	var mu sync.Mutex
	var firstErr error
	for _, genome := range genomes {
		genome := genome
		p.Go(func() {
			if err := ctx.Err(); err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
				return
			}
			genome.Fitness = e.fn(genome.Weights)
			e.count.Add(1)
			if e.fitnessGoal > 0 && genome.Fitness >= e.fitnessGoal {
				e.stop.Store(true)
			}
		})
	}
	p.Wait()

	if firstErr != nil {
		return firstErr
	}
	if e.evaluationsLimit > 0 && e.count.Load() >= e.evaluationsLimit {
		e.stop.Store(true)
	}
	return nil
}

// EvaluationCount is the monotonic number of genome evaluations performed.
func (e *Evaluator) EvaluationCount() uint64 { return e.count.Load() }

// StopConditionSatisfied reports whether a fitness goal or evaluation budget
// has been reached. Polled once per generation boundary.
func (e *Evaluator) StopConditionSatisfied() bool { return e.stop.Load() }
