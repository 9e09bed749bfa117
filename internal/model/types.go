package model

import "github.com/google/uuid"

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// Genome is a candidate solution: an evolvable weight vector with a fitness
// assigned by an evaluator. Genomes are shared by pointer between the
// population and its species; they are never copied during bookkeeping.
type Genome struct {
	VersionedRecord
	ID              string    `json:"id"`
	Weights         []float64 `json:"weights"`
	Fitness         float64   `json:"fitness"`
	BirthGeneration uint32    `json:"birth_generation"`
}

// NewGenome mints a genome with a fresh ID and its own copy of weights.
func NewGenome(weights []float64, birthGeneration uint32) *Genome {
	return &Genome{
		ID:              uuid.NewString(),
		Weights:         append([]float64(nil), weights...),
		BirthGeneration: birthGeneration,
	}
}

// Complexity is the structural size of the genome.
func (g *Genome) Complexity() float64 {
	return float64(len(g.Weights))
}

// Age reports how many generations the genome has been alive.
func (g *Genome) Age(currentGeneration uint32) uint32 {
	if currentGeneration < g.BirthGeneration {
		return 0
	}
	return currentGeneration - g.BirthGeneration
}

// Clone returns a deep copy carrying a fresh ID and the given birth
// generation. Fitness is not inherited; offspring are evaluated before use.
func (g *Genome) Clone(birthGeneration uint32) *Genome {
	return NewGenome(g.Weights, birthGeneration)
}

// PopulationSnapshot is the persisted form of a population at a generation
// boundary.
type PopulationSnapshot struct {
	VersionedRecord
	ID         string   `json:"id"`
	Generation uint32   `json:"generation"`
	Genomes    []Genome `json:"genomes"`
}

// GenerationStatsRecord is one persisted row of run statistics.
type GenerationStatsRecord struct {
	VersionedRecord
	Generation             uint32  `json:"generation"`
	TotalEvaluationCount   uint64  `json:"total_evaluation_count"`
	EvaluationsPerSecond   float64 `json:"evaluations_per_second"`
	MaxFitness             float64 `json:"max_fitness"`
	MeanFitness            float64 `json:"mean_fitness"`
	MaxComplexity          float64 `json:"max_complexity"`
	MeanComplexity         float64 `json:"mean_complexity"`
	MeanSpecieChampFitness float64 `json:"mean_specie_champ_fitness"`
	SpecieCount            int     `json:"specie_count"`
	MinSpecieSize          int     `json:"min_specie_size"`
	MaxSpecieSize          int     `json:"max_specie_size"`
}

// ChampionRecord is the persisted best genome of a run.
type ChampionRecord struct {
	VersionedRecord
	RunID      string `json:"run_id"`
	Generation uint32 `json:"generation"`
	Genome     Genome `json:"genome"`
}
