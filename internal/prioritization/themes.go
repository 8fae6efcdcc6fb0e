package prioritization

import (
	"sort"
	"time"

	"NewsPrioritizer/internal/domain"
)

// ThemeScores groups the eligible articles by level-1 theme label. Articles
// without a label are skipped. Results keep the order in which each theme
// first appears in the pool.
func ThemeScores(articles []domain.Article, cfg Config, now time.Time) []domain.ThemeScore {
	index := map[string]int{}
	var out []domain.ThemeScore

	for _, article := range Filter(articles, cfg, now) {
		label := article.ThemeLabel()
		if label == "" {
			continue
		}
		i, ok := index[label]
		if !ok {
			i = len(out)
			index[label] = i
			out = append(out, domain.ThemeScore{Name: label})
		}
		out[i].Count++
		out[i].TotalScore += Score(article, cfg, now)
	}

	for i := range out {
		out[i].AvgScore = out[i].TotalScore / float64(out[i].Count)
	}
	return out
}

// SelectFocusThemes returns up to limit theme names according to
// cfg.ThemeFocusMode. A non-positive limit means DefaultFocusLimit.
//
//	manual:   cfg.ManualThemes verbatim
//	volume:   count desc, avgScore desc
//	weighted: totalScore desc, count desc
//
// Any remaining tie is broken by name.
func SelectFocusThemes(articles []domain.Article, cfg Config, limit int, now time.Time) []string {
	if limit <= 0 {
		limit = DefaultFocusLimit
	}

	if cfg.ThemeFocusMode == FocusManual {
		n := min(limit, len(cfg.ManualThemes))
		return append([]string{}, cfg.ManualThemes[:n]...)
	}

	scores := ThemeScores(articles, cfg, now)
	less := byVolume
	if cfg.ThemeFocusMode == FocusWeighted {
		less = byWeight
	}
	sort.SliceStable(scores, func(i, j int) bool {
		return less(scores[i], scores[j])
	})

	n := min(limit, len(scores))
	names := make([]string, 0, n)
	for _, s := range scores[:n] {
		names = append(names, s.Name)
	}
	return names
}

func byVolume(a, b domain.ThemeScore) bool {
	if a.Count != b.Count {
		return a.Count > b.Count
	}
	if a.AvgScore != b.AvgScore {
		return a.AvgScore > b.AvgScore
	}
	return a.Name < b.Name
}

func byWeight(a, b domain.ThemeScore) bool {
	if a.TotalScore != b.TotalScore {
		return a.TotalScore > b.TotalScore
	}
	if a.Count != b.Count {
		return a.Count > b.Count
	}
	return a.Name < b.Name
}
