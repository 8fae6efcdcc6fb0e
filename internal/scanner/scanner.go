package scanner

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"NewsPrioritizer/internal/domain"
)

// Category is a listing page; its theme is stamped on every article found there.
type Category struct {
	Name       string
	URL        string
	ThemeCode  string
	ThemeLabel string
}

// Request asks a strategy for articles of one site published since Since.
type Request struct {
	Since      time.Time
	SiteName   string
	Agency     string
	Categories []Category
	Options    map[string]string
}

// Scanner captures a single strategy implementation (gov.br listings, etc.).
type Scanner interface {
	Name() string
	Scan(ctx context.Context, req Request) ([]domain.Article, error)
}

// Registry maps strategy names to implementations. Safe for concurrent use;
// the zero value is ready.
type Registry struct {
	mu       sync.RWMutex
	scanners map[string]Scanner
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{scanners: map[string]Scanner{}}
}

// Register adds or replaces the strategy under its Name.
func (r *Registry) Register(s Scanner) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.scanners == nil {
		r.scanners = map[string]Scanner{}
	}
	r.scanners[s.Name()] = s
}

// Resolve returns the strategy registered as name.
func (r *Registry) Resolve(name string) (Scanner, error) {
	r.mu.RLock()
	s, ok := r.scanners[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("scanner %q is not registered (known: %s)", name, strings.Join(r.Names(), ", "))
	}
	return s, nil
}

// Names lists registered strategies in lexical order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.scanners))
	for name := range r.scanners {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
