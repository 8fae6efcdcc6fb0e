package domain

import "time"

// Article is a news item as delivered by the search index or a scraper.
// Every field except UniqueID is optional.
type Article struct {
	UniqueID    string  `json:"unique_id"`
	Title       string  `json:"title,omitempty"`
	URL         string  `json:"url,omitempty"`
	Agency      *string `json:"agency,omitempty"`
	PublishedAt *int64  `json:"published_at,omitempty"`
	Image       *string `json:"image,omitempty"`
	Summary     *string `json:"summary,omitempty"`

	Theme1Level1Code  *string `json:"theme_1_level_1_code,omitempty"`
	Theme1Level1Label *string `json:"theme_1_level_1_label,omitempty"`
	Theme1Level2Code  *string `json:"theme_1_level_2_code,omitempty"`
	Theme1Level2Label *string `json:"theme_1_level_2_label,omitempty"`
	Theme1Level3Code  *string `json:"theme_1_level_3_code,omitempty"`
	Theme1Level3Label *string `json:"theme_1_level_3_label,omitempty"`

	Tags []string `json:"tags,omitempty"`
}

// AgencyCode returns the agency code or "" when absent.
func (a Article) AgencyCode() string {
	return deref(a.Agency)
}

// ThemeCodes lists the non-empty theme codes from level 1 to level 3.
func (a Article) ThemeCodes() []string {
	codes := make([]string, 0, 3)
	for _, c := range []*string{a.Theme1Level1Code, a.Theme1Level2Code, a.Theme1Level3Code} {
		if v := deref(c); v != "" {
			codes = append(codes, v)
		}
	}
	return codes
}

// ThemeLabel returns the level-1 theme label or "" when absent.
func (a Article) ThemeLabel() string {
	return deref(a.Theme1Level1Label)
}

// HasImage reports whether the article carries a non-empty image.
func (a Article) HasImage() bool {
	return deref(a.Image) != ""
}

// HasSummary reports whether the article carries a non-empty summary.
func (a Article) HasSummary() bool {
	return deref(a.Summary) != ""
}

// PublishedTime converts PublishedAt to time.Time; ok is false when unset.
func (a Article) PublishedTime() (t time.Time, ok bool) {
	if a.PublishedAt == nil {
		return time.Time{}, false
	}
	return time.Unix(*a.PublishedAt, 0).UTC(), true
}

// ScoreBreakdown exposes the factors behind a score for admin preview.
type ScoreBreakdown struct {
	AgencyWeight  float64 `json:"agencyWeight"`
	ThemeWeight   float64 `json:"themeWeight"`
	RecencyFactor float64 `json:"recencyFactor"`
	ContentBoost  float64 `json:"contentBoost"`
	BaseScore     float64 `json:"baseScore"`
	FinalScore    float64 `json:"finalScore"`
}

// ScoredArticle pairs an article with its computed score. The wrapped
// Article is a copy; the caller's record is never modified.
type ScoredArticle struct {
	Article
	Score     float64         `json:"_score"`
	Breakdown *ScoreBreakdown `json:"_scoreBreakdown,omitempty"`
}

// ThemeScore aggregates scores of articles sharing a level-1 theme label.
type ThemeScore struct {
	Name       string  `json:"name"`
	Count      int     `json:"count"`
	TotalScore float64 `json:"totalScore"`
	AvgScore   float64 `json:"avgScore"`
}

// RankingSnapshot is the result of a single ranking pass.
type RankingSnapshot struct {
	ID          string          `json:"id"`
	GeneratedAt time.Time       `json:"generatedAt"`
	FocusMode   string          `json:"focusMode"`
	FocusThemes []string        `json:"focusThemes"`
	Themes      []ThemeScore    `json:"themes"`
	Articles    []ScoredArticle `json:"articles"`
}

// PassStats summarizes a ranking pass for observers.
type PassStats struct {
	Candidates int
	Excluded   int
	Ranked     int
	Duration   time.Duration
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
