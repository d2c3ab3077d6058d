package repository

import (
	"context"
	"time"

	"CPDetect/internal/domain/models"
)

// Storage persists run results. The engine itself persists nothing; these
// sinks are caller-side collaborators.
type Storage interface {
	Init(ctx context.Context) error // ensure tables exist
	StoreRun(ctx context.Context, res *models.RunResult) error
	LatestRun(ctx context.Context, dataset string) (*models.RunResult, error)
	Health(ctx context.Context) error
	Close() error
}

// Publisher emits completed run results to downstream consumers.
type Publisher interface {
	PublishRun(ctx context.Context, res *models.RunResult) error
	Close() error
}

// Metrics records engine and API observations.
type Metrics interface {
	RecordRun(dataset string, outcome string)
	RecordRunDuration(dataset string, d time.Duration)
	RecordDivergences(dataset string, n int)
	RecordRHat(variable string, rhat float64)
	RecordRecordsEmitted(dataset string, n int)
}
