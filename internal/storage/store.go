package storage

import (
	"context"

	"neatrun/internal/model"
)

// Store defines persistence operations for evolution-run entities: the
// latest population snapshot, the per-generation statistics history and the
// run champion.
type Store interface {
	Init(ctx context.Context) error
	SaveSnapshot(ctx context.Context, runID string, snapshot model.PopulationSnapshot) error
	GetSnapshot(ctx context.Context, runID string) (model.PopulationSnapshot, bool, error)
	SaveStatsHistory(ctx context.Context, runID string, history []model.GenerationStatsRecord) error
	GetStatsHistory(ctx context.Context, runID string) ([]model.GenerationStatsRecord, bool, error)
	SaveChampion(ctx context.Context, champion model.ChampionRecord) error
	GetChampion(ctx context.Context, runID string) (model.ChampionRecord, bool, error)
}
