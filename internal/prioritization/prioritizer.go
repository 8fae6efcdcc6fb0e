package prioritization

import (
	"sort"
	"time"

	"NewsPrioritizer/internal/domain"
)

// Options tunes a Prioritize call.
type Options struct {
	// Limit truncates the result when positive.
	Limit int
	// IncludeBreakdown attaches a ScoreBreakdown to every result.
	IncludeBreakdown bool
	// Now is the reference time for recency. Zero means time.Now, read once.
	Now time.Time
}

// Filter drops excluded agencies, excluded themes at any level and articles
// older than MaxArticleAgeDays. Articles without a timestamp pass the age
// cutoff. The input slice is not modified.
func Filter(articles []domain.Article, cfg Config, now time.Time) []domain.Article {
	agencies := toSet(cfg.ExcludedAgencies)
	themes := toSet(cfg.ExcludedThemes)

	var cutoff time.Time
	hasCutoff := cfg.MaxArticleAgeDays != nil
	if hasCutoff {
		cutoff = now.Add(-time.Duration(*cfg.MaxArticleAgeDays * float64(24*time.Hour)))
	}

	kept := make([]domain.Article, 0, len(articles))
	for _, article := range articles {
		if code := article.AgencyCode(); code != "" {
			if _, excluded := agencies[code]; excluded {
				continue
			}
		}
		if hasExcludedTheme(article, themes) {
			continue
		}
		if hasCutoff {
			if published, ok := article.PublishedTime(); ok && published.Before(cutoff) {
				continue
			}
		}
		kept = append(kept, article)
	}
	return kept
}

// Prioritize filters, scores and sorts articles. Ordering is score
// descending, then publication time descending (missing timestamps last),
// then unique id descending, so equal inputs always produce equal output.
func Prioritize(articles []domain.Article, cfg Config, opts Options) []domain.ScoredArticle {
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	eligible := Filter(articles, cfg, now)
	scored := make([]domain.ScoredArticle, 0, len(eligible))
	for _, article := range eligible {
		breakdown := Explain(article, cfg, now)
		item := domain.ScoredArticle{Article: article, Score: breakdown.FinalScore}
		if opts.IncludeBreakdown {
			b := breakdown
			item.Breakdown = &b
		}
		scored = append(scored, item)
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return rankedBefore(scored[i], scored[j])
	})

	if opts.Limit > 0 && len(scored) > opts.Limit {
		scored = scored[:opts.Limit]
	}
	return scored
}

func rankedBefore(a, b domain.ScoredArticle) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	pa, pb := a.PublishedAt, b.PublishedAt
	switch {
	case pa != nil && pb != nil && *pa != *pb:
		return *pa > *pb
	case pa != nil && pb == nil:
		return true
	case pa == nil && pb != nil:
		return false
	}
	return a.UniqueID > b.UniqueID
}

func hasExcludedTheme(article domain.Article, excluded map[string]struct{}) bool {
	if len(excluded) == 0 {
		return false
	}
	for _, code := range article.ThemeCodes() {
		if _, ok := excluded[code]; ok {
			return true
		}
	}
	return false
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}
