package prioritization

import (
	"math"
	"time"

	"NewsPrioritizer/internal/domain"
)

const (
	neutralWeight = 1.0
	// minDecayHours keeps the decay exponent finite for broken configs.
	minDecayHours = 1e-3
	// minDecay keeps very old articles strictly above zero.
	minDecay = 1e-12
)

// Score returns the relevance of article under cfg, relative to now.
func Score(article domain.Article, cfg Config, now time.Time) float64 {
	return Explain(article, cfg, now).FinalScore
}

// Explain returns every intermediate factor of the score. FinalScore equals
// Score for the same arguments.
func Explain(article domain.Article, cfg Config, now time.Time) domain.ScoreBreakdown {
	agency := agencyWeightOf(article, cfg)
	theme := bestThemeWeightOf(article, cfg)
	boost := contentBoostOf(article, cfg)
	recency := recencyFactorOf(article, cfg, now)

	base := agency * theme * boost
	return domain.ScoreBreakdown{
		AgencyWeight:  agency,
		ThemeWeight:   theme,
		RecencyFactor: recency,
		ContentBoost:  boost,
		BaseScore:     base,
		FinalScore:    base * recency,
	}
}

func agencyWeightOf(article domain.Article, cfg Config) float64 {
	code := article.AgencyCode()
	if code == "" {
		return neutralWeight
	}
	if w, ok := cfg.AgencyWeights[code]; ok {
		return positiveOr(w, neutralWeight)
	}
	return neutralWeight
}

// bestThemeWeightOf picks the highest configured weight across the three
// theme levels.
func bestThemeWeightOf(article domain.Article, cfg Config) float64 {
	best := 0.0
	for _, code := range article.ThemeCodes() {
		w, ok := cfg.ThemeWeights[code]
		if !ok || !positive(w) {
			continue
		}
		if w > best {
			best = w
		}
	}
	if best == 0 {
		return neutralWeight
	}
	return best
}

func contentBoostOf(article domain.Article, cfg Config) float64 {
	boost := neutralWeight
	if article.HasImage() {
		boost *= positiveOr(cfg.HasImageBoost, neutralWeight)
	}
	if article.HasSummary() {
		boost *= positiveOr(cfg.HasSummaryBoost, neutralWeight)
	}
	return boost
}

// recencyFactorOf blends a half-life decay with a flat baseline:
// (1-w) + w * 0.5^(hours/halfLife).
func recencyFactorOf(article domain.Article, cfg Config, now time.Time) float64 {
	weight := cfg.RecencyWeight
	switch {
	case math.IsNaN(weight) || weight < 0:
		weight = 0
	case weight > 1:
		weight = 1
	}

	decay := 1.0
	if published, ok := article.PublishedTime(); ok {
		hours := now.Sub(published).Hours()
		if hours < 0 {
			hours = 0
		}
		halfLife := cfg.RecencyDecayHours
		if math.IsNaN(halfLife) || halfLife < minDecayHours {
			halfLife = minDecayHours
		}
		decay = math.Max(math.Pow(0.5, hours/halfLife), minDecay)
	}

	return (1-weight)*1.0 + weight*decay
}

func positiveOr(v, fallback float64) float64 {
	if positive(v) {
		return v
	}
	return fallback
}
