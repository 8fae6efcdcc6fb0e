package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"NewsPrioritizer/internal/domain"
	"NewsPrioritizer/internal/ports"
	"NewsPrioritizer/internal/prioritization"
)

// Failure stages reported to the observer.
const (
	StageFetch  = "fetch"
	StageConfig = "config"
	StageSave   = "save"
)

// RankingDeps wires the driven adapters into the ranking pipeline.
type RankingDeps struct {
	Source    ports.ArticleSource
	Config    ports.PrioritizationProvider
	Snapshots ports.SnapshotRepository
	Observer  ports.RankingObserver
	Logger    *slog.Logger

	// PoolWindow bounds how far back candidates are fetched.
	PoolWindow       time.Duration
	HomepageLimit    int
	FocusLimit       int
	IncludeBreakdown bool

	// Clock measures pass duration; defaults to time.Now.
	Clock func() time.Time
}

// RankingPipeline runs one prioritization pass over the candidate pool.
type RankingPipeline struct {
	source    ports.ArticleSource
	config    ports.PrioritizationProvider
	snapshots ports.SnapshotRepository
	observer  ports.RankingObserver
	logger    *slog.Logger

	poolWindow       time.Duration
	homepageLimit    int
	focusLimit       int
	includeBreakdown bool
	clock            func() time.Time
}

// NewRankingPipeline constructs the orchestration component.
func NewRankingPipeline(deps RankingDeps) *RankingPipeline {
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	return &RankingPipeline{
		source:           deps.Source,
		config:           deps.Config,
		snapshots:        deps.Snapshots,
		observer:         deps.Observer,
		logger:           deps.Logger,
		poolWindow:       deps.PoolWindow,
		homepageLimit:    deps.HomepageLimit,
		focusLimit:       deps.FocusLimit,
		includeBreakdown: deps.IncludeBreakdown,
		clock:            clock,
	}
}

// Run ranks the pool as of trigger. Every score in the pass uses trigger as
// its reference time.
func (p *RankingPipeline) Run(ctx context.Context, trigger time.Time) (domain.RankingSnapshot, error) {
	if p.source == nil {
		return domain.RankingSnapshot{}, fmt.Errorf("article source is not configured")
	}
	started := p.clock()

	cfg := prioritization.DefaultConfig()
	if p.config != nil {
		current, err := p.config.Current(ctx)
		if err != nil {
			p.fail(StageConfig)
			return domain.RankingSnapshot{}, fmt.Errorf("load prioritization config: %w", err)
		}
		cfg = current
	}

	since := time.Time{}
	if p.poolWindow > 0 {
		since = trigger.Add(-p.poolWindow)
	}
	candidates, err := p.source.FetchRecent(ctx, since)
	if err != nil {
		p.fail(StageFetch)
		return domain.RankingSnapshot{}, fmt.Errorf("fetch candidates: %w", err)
	}

	eligible := len(prioritization.Filter(candidates, cfg, trigger))
	ranked := prioritization.Prioritize(candidates, cfg, prioritization.Options{
		Limit:            p.homepageLimit,
		IncludeBreakdown: p.includeBreakdown,
		Now:              trigger,
	})

	snapshot := domain.RankingSnapshot{
		ID:          uuid.NewString(),
		GeneratedAt: trigger,
		FocusMode:   string(focusModeOf(cfg)),
		FocusThemes: prioritization.SelectFocusThemes(candidates, cfg, p.focusLimit, trigger),
		Themes:      prioritization.ThemeScores(candidates, cfg, trigger),
		Articles:    ranked,
	}

	if p.snapshots != nil {
		if err := p.snapshots.SaveSnapshot(ctx, snapshot); err != nil {
			p.fail(StageSave)
			return domain.RankingSnapshot{}, fmt.Errorf("save snapshot: %w", err)
		}
	}

	stats := domain.PassStats{
		Candidates: len(candidates),
		Excluded:   len(candidates) - eligible,
		Ranked:     len(ranked),
		Duration:   p.clock().Sub(started),
	}
	if p.observer != nil {
		p.observer.ObservePass(stats)
	}
	p.info("ranking pass done",
		"trigger", trigger.Format(time.RFC3339),
		"candidates", stats.Candidates,
		"excluded", stats.Excluded,
		"ranked", stats.Ranked,
		"focus_themes", snapshot.FocusThemes,
		"duration", stats.Duration)

	return snapshot, nil
}

func focusModeOf(cfg prioritization.Config) prioritization.FocusMode {
	if cfg.ThemeFocusMode == "" {
		return prioritization.FocusVolume
	}
	return cfg.ThemeFocusMode
}

func (p *RankingPipeline) fail(stage string) {
	if p.observer != nil {
		p.observer.ObserveFailure(stage)
	}
}

func (p *RankingPipeline) info(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Info(msg, args...)
	}
}
