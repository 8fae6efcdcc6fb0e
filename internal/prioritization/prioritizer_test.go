package prioritization

import (
	"fmt"
	"reflect"
	"sync"
	"testing"

	"NewsPrioritizer/internal/domain"
)

func pool() []domain.Article {
	return []domain.Article{
		{UniqueID: "a1", Agency: str("mgi"), Theme1Level1Code: str("01"), PublishedAt: hoursAgo(3), Image: str("x")},
		{UniqueID: "a2", Agency: str("mec"), Theme1Level1Code: str("02"), PublishedAt: hoursAgo(10)},
		{UniqueID: "a3", Agency: str("blocked"), Theme1Level1Code: str("01"), PublishedAt: hoursAgo(1)},
		{UniqueID: "a4", Agency: str("mgi"), Theme1Level2Code: str("02.09"), PublishedAt: hoursAgo(2)},
		{UniqueID: "a5", PublishedAt: hoursAgo(24 * 40)},
		{UniqueID: "a6", Summary: str("resumo")},
	}
}

func ids(items []domain.ScoredArticle) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.UniqueID)
	}
	return out
}

func TestPrioritizeExclusions(t *testing.T) {
	t.Parallel()

	cfg := sampleConfig()
	cfg.ExcludedAgencies = []string{"blocked"}
	cfg.ExcludedThemes = []string{"02.09"}
	days := 30.0
	cfg.MaxArticleAgeDays = &days

	got := Prioritize(pool(), cfg, Options{Now: fixedNow})
	for _, it := range got {
		switch it.UniqueID {
		case "a3":
			t.Fatalf("excluded agency present in output")
		case "a4":
			t.Fatalf("excluded level-2 theme present in output")
		case "a5":
			t.Fatalf("article older than maxArticleAgeDays present in output")
		}
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 articles, got %v", ids(got))
	}
}

func TestPrioritizeKeepsUndatedArticlesUnderAgeCutoff(t *testing.T) {
	t.Parallel()

	cfg := sampleConfig()
	days := 1.0
	cfg.MaxArticleAgeDays = &days

	got := Prioritize([]domain.Article{{UniqueID: "undated"}}, cfg, Options{Now: fixedNow})
	if len(got) != 1 {
		t.Fatalf("expected undated article to survive age cutoff, got %v", ids(got))
	}
}

func TestPrioritizeOrdering(t *testing.T) {
	t.Parallel()

	cfg := sampleConfig()
	got := Prioritize(pool(), cfg, Options{Now: fixedNow})

	for i := 1; i < len(got); i++ {
		if got[i-1].Score < got[i].Score {
			t.Fatalf("results not sorted by score at %d: %v", i, ids(got))
		}
	}
	if got[0].UniqueID != "a1" {
		t.Fatalf("expected weighted fresh article first, got %v", ids(got))
	}
}

func TestPrioritizeTieBreaks(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.RecencyWeight = 0
	articles := []domain.Article{
		{UniqueID: "b", PublishedAt: hoursAgo(5)},
		{UniqueID: "undated"},
		{UniqueID: "a", PublishedAt: hoursAgo(5)},
		{UniqueID: "c", PublishedAt: hoursAgo(1)},
	}

	got := ids(Prioritize(articles, cfg, Options{Now: fixedNow}))
	want := []string{"c", "b", "a", "undated"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestPrioritizeLimit(t *testing.T) {
	t.Parallel()

	cfg := sampleConfig()
	total := len(Filter(pool(), cfg, fixedNow))

	for _, limit := range []int{1, 3, total, total + 5} {
		got := Prioritize(pool(), cfg, Options{Limit: limit, Now: fixedNow})
		if want := min(limit, total); len(got) != want {
			t.Fatalf("limit %d: expected %d results, got %d", limit, want, len(got))
		}
	}

	if got := Prioritize(pool(), cfg, Options{Now: fixedNow}); len(got) != total {
		t.Fatalf("no limit: expected %d results, got %d", total, len(got))
	}
}

func TestPrioritizeIdempotent(t *testing.T) {
	t.Parallel()

	cfg := sampleConfig()
	first := Prioritize(pool(), cfg, Options{Now: fixedNow})
	second := Prioritize(pool(), cfg, Options{Now: fixedNow})
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("prioritize is not idempotent:\n%v\n%v", first, second)
	}
}

func TestPrioritizeBreakdownNeutral(t *testing.T) {
	t.Parallel()

	cfg := sampleConfig()
	plain := Prioritize(pool(), cfg, Options{Now: fixedNow})
	explained := Prioritize(pool(), cfg, Options{Now: fixedNow, IncludeBreakdown: true})

	if len(plain) != len(explained) {
		t.Fatalf("breakdown changed result size")
	}
	for i := range plain {
		if plain[i].UniqueID != explained[i].UniqueID || plain[i].Score != explained[i].Score {
			t.Fatalf("breakdown changed ranking at %d", i)
		}
		if plain[i].Breakdown != nil {
			t.Fatalf("breakdown attached without being requested")
		}
		if explained[i].Breakdown == nil || explained[i].Breakdown.FinalScore != explained[i].Score {
			t.Fatalf("missing or inconsistent breakdown at %d", i)
		}
	}
}

func TestPrioritizeDoesNotMutateInput(t *testing.T) {
	t.Parallel()

	cfg := sampleConfig()
	cfg.ExcludedAgencies = []string{"blocked"}
	in := pool()
	before := pool()

	_ = Prioritize(in, cfg, Options{Now: fixedNow, IncludeBreakdown: true})
	if !reflect.DeepEqual(in, before) {
		t.Fatalf("input articles were modified")
	}
}

func TestPrioritizeConcurrent(t *testing.T) {
	t.Parallel()

	cfg := sampleConfig()
	var articles []domain.Article
	for i := 0; i < 200; i++ {
		articles = append(articles, domain.Article{
			UniqueID:    fmt.Sprintf("id-%03d", i),
			Agency:      str([]string{"mgi", "mec", "mds"}[i%3]),
			PublishedAt: hoursAgo(float64(i)),
		})
	}
	want := Prioritize(articles, cfg, Options{Now: fixedNow})

	var wg sync.WaitGroup
	results := make([][]domain.ScoredArticle, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = Prioritize(articles, cfg, Options{Now: fixedNow})
		}(i)
	}
	wg.Wait()

	for i, got := range results {
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("goroutine %d produced a different ranking", i)
		}
	}
}
