package ports

import (
	"context"
	"time"

	"NewsPrioritizer/internal/domain"
	"NewsPrioritizer/internal/prioritization"
)

// ArticleSource provides the candidate pool published since a cutoff.
type ArticleSource interface {
	FetchRecent(ctx context.Context, since time.Time) ([]domain.Article, error)
}

// PrioritizationProvider hands out the current weights snapshot. Callers may
// keep the returned value for the duration of a pass.
type PrioritizationProvider interface {
	Current(ctx context.Context) (prioritization.Config, error)
}

// SnapshotRepository persists the output of ranking passes.
type SnapshotRepository interface {
	SaveSnapshot(ctx context.Context, snapshot domain.RankingSnapshot) error
}

// RankingObserver receives per-pass statistics (metrics, tracing, etc.).
type RankingObserver interface {
	ObservePass(stats domain.PassStats)
	ObserveFailure(stage string)
}

// Scheduler controls when pipelines execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
