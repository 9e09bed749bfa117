package neat

import (
	"time"

	"neatrun/internal/model"
)

// MovingAverage is a fixed-window running mean. Enqueue retains the previous
// mean so callers can observe the delta caused by the latest sample.
type MovingAverage struct {
	window []float64
	next   int
	count  int
	sum    float64
	prev   float64
}

// NewMovingAverage builds a tracker over the given history length.
func NewMovingAverage(historyLength int) *MovingAverage {
	if historyLength <= 0 {
		historyLength = 1
	}
	return &MovingAverage{window: make([]float64, historyLength)}
}

// Enqueue adds a sample, evicting the oldest once the window is full.
func (m *MovingAverage) Enqueue(v float64) {
	m.prev = m.Mean()
	if m.count == len(m.window) {
		m.sum -= m.window[m.next]
	} else {
		m.count++
	}
	m.window[m.next] = v
	m.sum += v
	m.next = (m.next + 1) % len(m.window)
}

// Mean is the current windowed mean, zero before any sample.
func (m *MovingAverage) Mean() float64 {
	if m.count == 0 {
		return 0
	}
	return m.sum / float64(m.count)
}

// Previous is the mean as it stood before the latest Enqueue.
func (m *MovingAverage) Previous() float64 { return m.prev }

// Count is the number of samples currently in the window.
func (m *MovingAverage) Count() int { return m.count }

// Stats is the mutable aggregate of fitness, complexity and throughput
// metrics for one run. It is mutated only by the generation engine, once per
// generation, on the worker goroutine.
type Stats struct {
	Generation           uint32
	TotalEvaluationCount uint64
	EvaluationsPerSecond float64

	MaxFitness             float64
	MeanFitness            float64
	MaxComplexity          float64
	MeanComplexity         float64
	MeanSpecieChampFitness float64

	SpecieCount   int
	MinSpecieSize int
	MaxSpecieSize int

	BestFitnessMA            *MovingAverage
	MeanSpecieChampFitnessMA *MovingAverage
	ComplexityMA             *MovingAverage

	// evals/sec sampling state; recomputed only on windows of at least
	// one second to avoid divide-by-near-zero jitter.
	evalCountAtLastSample uint64
	lastSampleTime        time.Time
}

// NewStats builds the statistics aggregate with moving-average windows sized
// from the parameter set.
func NewStats(p *Parameters) *Stats {
	return &Stats{
		BestFitnessMA:            NewMovingAverage(p.BestFitnessMovingAverageHistoryLength),
		MeanSpecieChampFitnessMA: NewMovingAverage(p.MeanSpecieChampFitnessMovingAverageHistoryLength),
		ComplexityMA:             NewMovingAverage(p.ComplexityMovingAverageHistoryLength),
		lastSampleTime:           time.Now(),
	}
}

// sampleEvaluationsPerSecond refreshes the throughput figure when at least
// one second has elapsed since the previous sample.
func (s *Stats) sampleEvaluationsPerSecond(now time.Time) {
	elapsed := now.Sub(s.lastSampleTime)
	if elapsed < time.Second {
		return
	}
	delta := s.TotalEvaluationCount - s.evalCountAtLastSample
	s.EvaluationsPerSecond = float64(delta) / elapsed.Seconds()
	s.evalCountAtLastSample = s.TotalEvaluationCount
	s.lastSampleTime = now
}

// Record converts the aggregate into its persisted form.
func (s *Stats) Record() model.GenerationStatsRecord {
	return model.GenerationStatsRecord{
		Generation:             s.Generation,
		TotalEvaluationCount:   s.TotalEvaluationCount,
		EvaluationsPerSecond:   s.EvaluationsPerSecond,
		MaxFitness:             s.MaxFitness,
		MeanFitness:            s.MeanFitness,
		MaxComplexity:          s.MaxComplexity,
		MeanComplexity:         s.MeanComplexity,
		MeanSpecieChampFitness: s.MeanSpecieChampFitness,
		SpecieCount:            s.SpecieCount,
		MinSpecieSize:          s.MinSpecieSize,
		MaxSpecieSize:          s.MaxSpecieSize,
	}
}
