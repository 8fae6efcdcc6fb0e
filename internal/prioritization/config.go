// Package prioritization scores, filters and ranks articles for homepage and
// search placement and picks the focus themes shown in highlighted sections.
//
// All functions are pure: they take the article pool, a Config snapshot and
// the reference time explicitly and never retain or modify either.
package prioritization

import (
	"errors"
	"fmt"
	"math"
)

// FocusMode selects the strategy used by SelectFocusThemes.
type FocusMode string

const (
	FocusVolume   FocusMode = "volume"
	FocusWeighted FocusMode = "weighted"
	FocusManual   FocusMode = "manual"
)

const (
	DefaultRecencyDecayHours = 72.0
	DefaultRecencyWeight     = 0.5
	DefaultImageBoost        = 1.1
	DefaultSummaryBoost      = 1.05
	DefaultFocusLimit        = 3
)

// Config holds the weights and filters for a scoring pass. It is treated as
// read-only by every function in this package.
type Config struct {
	AgencyWeights     map[string]float64 `koanf:"agencyWeights" yaml:"agencyWeights" json:"agencyWeights"`
	ThemeWeights      map[string]float64 `koanf:"themeWeights" yaml:"themeWeights" json:"themeWeights"`
	RecencyDecayHours float64            `koanf:"recencyDecayHours" yaml:"recencyDecayHours" json:"recencyDecayHours"`
	RecencyWeight     float64            `koanf:"recencyWeight" yaml:"recencyWeight" json:"recencyWeight"`
	HasImageBoost     float64            `koanf:"hasImageBoost" yaml:"hasImageBoost" json:"hasImageBoost"`
	HasSummaryBoost   float64            `koanf:"hasSummaryBoost" yaml:"hasSummaryBoost" json:"hasSummaryBoost"`
	ExcludedAgencies  []string           `koanf:"excludedAgencies" yaml:"excludedAgencies" json:"excludedAgencies"`
	ExcludedThemes    []string           `koanf:"excludedThemes" yaml:"excludedThemes" json:"excludedThemes"`
	MaxArticleAgeDays *float64           `koanf:"maxArticleAgeDays" yaml:"maxArticleAgeDays" json:"maxArticleAgeDays"`
	ThemeFocusMode    FocusMode          `koanf:"themeFocusMode" yaml:"themeFocusMode" json:"themeFocusMode"`
	ManualThemes      []string           `koanf:"manualThemes" yaml:"manualThemes" json:"manualThemes"`
}

// DefaultConfig returns neutral weights with mild content boosts.
func DefaultConfig() Config {
	return Config{
		AgencyWeights:     map[string]float64{},
		ThemeWeights:      map[string]float64{},
		RecencyDecayHours: DefaultRecencyDecayHours,
		RecencyWeight:     DefaultRecencyWeight,
		HasImageBoost:     DefaultImageBoost,
		HasSummaryBoost:   DefaultSummaryBoost,
		ThemeFocusMode:    FocusVolume,
	}
}

// Clone returns a deep copy so cached configs can be handed out safely.
func (c Config) Clone() Config {
	out := c
	out.AgencyWeights = cloneWeights(c.AgencyWeights)
	out.ThemeWeights = cloneWeights(c.ThemeWeights)
	out.ExcludedAgencies = append([]string(nil), c.ExcludedAgencies...)
	out.ExcludedThemes = append([]string(nil), c.ExcludedThemes...)
	out.ManualThemes = append([]string(nil), c.ManualThemes...)
	if c.MaxArticleAgeDays != nil {
		days := *c.MaxArticleAgeDays
		out.MaxArticleAgeDays = &days
	}
	return out
}

// Validate rejects configurations the scorer would otherwise have to guess
// about. It is meant to run at load time, not per scoring call.
func (c Config) Validate() error {
	var errs []error

	for code, w := range c.AgencyWeights {
		if !positive(w) {
			errs = append(errs, fmt.Errorf("agencyWeights[%s] must be positive, got %v", code, w))
		}
	}
	for code, w := range c.ThemeWeights {
		if !positive(w) {
			errs = append(errs, fmt.Errorf("themeWeights[%s] must be positive, got %v", code, w))
		}
	}
	if !positive(c.RecencyDecayHours) {
		errs = append(errs, fmt.Errorf("recencyDecayHours must be positive, got %v", c.RecencyDecayHours))
	}
	if math.IsNaN(c.RecencyWeight) || c.RecencyWeight < 0 || c.RecencyWeight > 1 {
		errs = append(errs, fmt.Errorf("recencyWeight must be within [0,1], got %v", c.RecencyWeight))
	}
	if !positive(c.HasImageBoost) {
		errs = append(errs, fmt.Errorf("hasImageBoost must be positive, got %v", c.HasImageBoost))
	}
	if !positive(c.HasSummaryBoost) {
		errs = append(errs, fmt.Errorf("hasSummaryBoost must be positive, got %v", c.HasSummaryBoost))
	}
	if c.MaxArticleAgeDays != nil && (math.IsNaN(*c.MaxArticleAgeDays) || *c.MaxArticleAgeDays < 0) {
		errs = append(errs, fmt.Errorf("maxArticleAgeDays must not be negative, got %v", *c.MaxArticleAgeDays))
	}

	switch c.ThemeFocusMode {
	case FocusVolume, FocusWeighted:
	case FocusManual:
		if len(c.ManualThemes) == 0 {
			errs = append(errs, errors.New("manualThemes must not be empty when themeFocusMode is manual"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown themeFocusMode %q", c.ThemeFocusMode))
	}

	return errors.Join(errs...)
}

func cloneWeights(in map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 1)
}
