package storage

import (
	"context"

	"sentinel/internal/models"
)

// Store persists prediction history. Implementations are nil-db safe: a
// store that failed to open degrades to a no-op rather than failing callers,
// matching the containment policy everywhere else in the system.
type Store interface {
	Init(ctx context.Context) error
	SavePrediction(ctx context.Context, record models.PredictionRecord) error
	RecentPredictions(ctx context.Context, limit int) ([]models.PredictionRecord, error)
	Close() error
}
