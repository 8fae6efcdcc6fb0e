// Package configprovider loads prioritization weights from YAML files and
// caches them between ranking passes.
package configprovider

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"NewsPrioritizer/internal/ports"
	"NewsPrioritizer/internal/prioritization"
)

// keyDelim avoids koanf splitting theme codes such as "01.02" into nested keys.
const keyDelim = "::"

// FileProvider serves a validated prioritization.Config read from path.
// The file is re-read at most once per interval, or on the first call after
// Invalidate. A failed reload keeps the last good snapshot.
type FileProvider struct {
	path     string
	interval time.Duration
	now      func() time.Time
	logger   *slog.Logger

	mu       sync.Mutex
	current  prioritization.Config
	loadedAt time.Time
	stale    bool
}

var _ ports.PrioritizationProvider = (*FileProvider)(nil)

// Option customizes a FileProvider.
type Option func(*FileProvider)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(p *FileProvider) { p.now = now }
}

// NewFileProvider builds a provider; an empty path serves defaults only.
func NewFileProvider(path string, interval time.Duration, log *slog.Logger, opts ...Option) *FileProvider {
	p := &FileProvider{
		path:     path,
		interval: interval,
		now:      time.Now,
		logger:   log,
		current:  prioritization.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Current returns a private copy of the active configuration.
func (p *FileProvider) Current(ctx context.Context) (prioritization.Config, error) {
	if err := ctx.Err(); err != nil {
		return prioritization.Config{}, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.path != "" && p.needsReload() {
		now := p.now()
		cfg, err := Load(p.path)
		if err != nil {
			p.warn("keeping previous prioritization config", "path", p.path, "error", err)
		} else {
			p.current = cfg
			p.debug("prioritization config loaded", "path", p.path, "mode", cfg.ThemeFocusMode)
		}
		// Failed reloads also wait a full interval before retrying.
		p.loadedAt = now
		p.stale = false
	}

	return p.current.Clone(), nil
}

// Invalidate forces the next Current call to re-read the file.
func (p *FileProvider) Invalidate() {
	p.mu.Lock()
	p.stale = true
	p.mu.Unlock()
}

func (p *FileProvider) needsReload() bool {
	if p.stale || p.loadedAt.IsZero() {
		return true
	}
	if p.interval <= 0 {
		return false
	}
	return p.now().Sub(p.loadedAt) >= p.interval
}

// Load reads path on top of prioritization.DefaultConfig and validates it.
func Load(path string) (prioritization.Config, error) {
	k := koanf.New(keyDelim)
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return prioritization.Config{}, fmt.Errorf("load %s: %w", path, err)
	}

	cfg := prioritization.DefaultConfig()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return prioritization.Config{}, fmt.Errorf("decode %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return prioritization.Config{}, fmt.Errorf("validate %s: %w", path, err)
	}
	return cfg, nil
}

func (p *FileProvider) debug(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Debug(msg, args...)
	}
}

func (p *FileProvider) warn(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Warn(msg, args...)
	}
}
