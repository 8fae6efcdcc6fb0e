package parser

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"

	"NewsPrioritizer/internal/config"
	"NewsPrioritizer/internal/scanner"
)

func tile(href, title, summary, img, byline string) string {
	var image string
	if img != "" {
		image = fmt.Sprintf(`<div class="tileImage"><img src="%s"/></div>`, img)
	}
	return fmt.Sprintf(`
	<div class="tileItem">
	  %s
	  <div class="tileContent">
	    <h2 class="tileHeadline"><a href="%s">%s</a></h2>
	    <span class="description">%s</span>
	  </div>
	  <span class="documentByLine">%s</span>
	</div>`, image, href, title, summary, byline)
}

func TestBuildPageURL(t *testing.T) {
	t.Parallel()

	u, err := buildPageURL("https://www.gov.br/mec/pt-br/assuntos/noticias", 60)
	if err != nil {
		t.Fatalf("buildPageURL returned error: %v", err)
	}

	parsed, err := url.Parse(u)
	if err != nil {
		t.Fatalf("parse result: %v", err)
	}
	if parsed.Host != "www.gov.br" {
		t.Fatalf("unexpected host: %s", parsed.Host)
	}
	if got := parsed.Query().Get(batchStartParam); got != "60" {
		t.Fatalf("expected %s=60, got %q", batchStartParam, got)
	}

	first, _ := buildPageURL("https://www.gov.br/mec/noticias?b_start:int=30", 0)
	if strings.Contains(first, "b_start") {
		t.Fatalf("first page should not carry a batch offset: %s", first)
	}
}

func TestParseByline(t *testing.T) {
	t.Parallel()

	got, ok := parseByline("publicado 14/10/2026 10h30, atualizado há 2 horas")
	if !ok {
		t.Fatalf("expected byline to parse")
	}
	want := time.Date(2026, time.October, 14, 13, 30, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("expected %v, got %v", want, got.UTC())
	}

	if _, ok := parseByline("sem data"); ok {
		t.Fatalf("expected missing date to be reported")
	}
}

func TestParseItem(t *testing.T) {
	t.Parallel()

	html := tile("/mgi/pt-br/noticias/concurso", "Concurso unificado", "Resumo da notícia.", "/img/capa.jpg",
		`<span class="summary-view-icon">14/10/2026</span><span class="summary-view-icon">09h15</span>`)
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("new document: %v", err)
	}

	base, _ := url.Parse("https://www.gov.br/mgi/pt-br/assuntos/noticias")
	req := scanner.Request{Agency: "mgi"}
	cat := scanner.Category{ThemeCode: "01", ThemeLabel: "Economia"}

	article, err := parseItem(doc.Find(".tileItem").First(), base, req, cat)
	if err != nil {
		t.Fatalf("parseItem error: %v", err)
	}

	if article.URL != "https://www.gov.br/mgi/pt-br/noticias/concurso" {
		t.Fatalf("unexpected url: %s", article.URL)
	}
	if article.UniqueID != uniqueID(article.URL) {
		t.Fatalf("unique id should derive from url")
	}
	if article.Title != "Concurso unificado" {
		t.Fatalf("unexpected title: %s", article.Title)
	}
	if article.AgencyCode() != "mgi" || article.ThemeLabel() != "Economia" || *article.Theme1Level1Code != "01" {
		t.Fatalf("agency/theme not stamped: %+v", article)
	}
	if !article.HasSummary() || !article.HasImage() {
		t.Fatalf("expected summary and image: %+v", article)
	}
	if *article.Image != "https://www.gov.br/img/capa.jpg" {
		t.Fatalf("unexpected image: %s", *article.Image)
	}

	published, ok := article.PublishedTime()
	if !ok || !published.Equal(time.Date(2026, time.October, 14, 12, 15, 0, 0, time.UTC)) {
		t.Fatalf("unexpected published time: %v", published)
	}
}

func TestParseItemWithoutLink(t *testing.T) {
	t.Parallel()

	doc, _ := goquery.NewDocumentFromReader(strings.NewReader(`<div class="tileItem"><span>nada</span></div>`))
	if _, err := parseItem(doc.Find(".tileItem").First(), nil, scanner.Request{}, scanner.Category{}); err == nil {
		t.Fatalf("expected error for item without link")
	}
}

func TestGovBRScannerScan(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<div id="content">` +
			tile("/n/fresh", "Fresh", "novo", "", "14/10/2026 08h00") +
			tile("/n/undated", "Undated", "", "", "") +
			tile("/n/old", "Old", "antigo", "", "01/09/2026 08h00") +
			tile("/n/never", "Never reached", "", "", "14/10/2026 07h00") +
			`</div>`))
	}))
	defer server.Close()

	sc := NewGovBRScanner(server.Client(), nil)
	sc.pageSize = 10

	req := scanner.Request{
		Since:      time.Date(2026, time.October, 7, 0, 0, 0, 0, time.UTC),
		SiteName:   "mds",
		Agency:     "mds",
		Categories: []scanner.Category{{Name: "noticias", URL: server.URL + "/mds/noticias"}},
	}

	articles, err := sc.Scan(context.Background(), req)
	if err != nil {
		t.Fatalf("Scan error: %v", err)
	}

	if len(articles) != 2 {
		t.Fatalf("expected 2 articles, got %d", len(articles))
	}
	if articles[0].Title != "Fresh" || articles[1].Title != "Undated" {
		t.Fatalf("unexpected articles: %q, %q", articles[0].Title, articles[1].Title)
	}
	if articles[1].PublishedAt != nil {
		t.Fatalf("undated article should have no timestamp")
	}
}

func TestGovBRScannerPaginates(t *testing.T) {
	t.Parallel()

	var (
		mu       sync.Mutex
		requests []string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		requests = append(requests, r.URL.Query().Get(batchStartParam))
		mu.Unlock()
		if r.URL.Query().Get(batchStartParam) == "" {
			_, _ = w.Write([]byte(tile("/n/1", "One", "", "", "14/10/2026") + tile("/n/2", "Two", "", "", "14/10/2026")))
			return
		}
		_, _ = w.Write([]byte(tile("/n/3", "Three", "", "", "13/10/2026")))
	}))
	defer server.Close()

	sc := NewGovBRScanner(server.Client(), nil)
	sc.limiter = rate.NewLimiter(rate.Inf, 1)
	sc.pageSize = 2

	req := scanner.Request{
		Since:      time.Date(2026, time.October, 1, 0, 0, 0, 0, time.UTC),
		SiteName:   "mec",
		Categories: []scanner.Category{{Name: "noticias", URL: server.URL}},
	}
	articles, err := sc.Scan(context.Background(), req)
	if err != nil {
		t.Fatalf("Scan error: %v", err)
	}
	if len(articles) != 3 {
		t.Fatalf("expected 3 articles across pages, got %d", len(articles))
	}
	mu.Lock()
	defer mu.Unlock()
	if len(requests) != 2 || requests[1] != "2" {
		t.Fatalf("unexpected page requests: %v", requests)
	}
}

func TestGovBRScannerServerError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	sc := NewGovBRScanner(server.Client(), nil)
	_, err := sc.Scan(context.Background(), scanner.Request{
		SiteName:   "mec",
		Categories: []scanner.Category{{Name: "noticias", URL: server.URL}},
	})
	if err == nil || !strings.Contains(err.Error(), "502") {
		t.Fatalf("expected status error, got %v", err)
	}
}

func TestStrategySourceFetchRecent(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(tile("/shared", "Shared", "", "", "14/10/2026")))
	}))
	defer server.Close()

	reg := scanner.NewRegistry()
	reg.Register(NewGovBRScanner(server.Client(), nil))

	sites := []config.SiteConfig{
		{Name: "mgi", Scanner: "govbr", Categories: []config.CategoryConfig{{Name: "a", URL: server.URL, ThemeLabel: "Gestão"}}},
		{Name: "mec", Scanner: "govbr", Agency: "mec", Categories: []config.CategoryConfig{{Name: "b", URL: server.URL}}},
	}

	src := NewStrategySource(reg, sites, nil)
	articles, err := src.FetchRecent(context.Background(), time.Date(2026, time.October, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("FetchRecent error: %v", err)
	}
	if len(articles) != 1 {
		t.Fatalf("expected duplicate article once, got %d", len(articles))
	}
	if articles[0].AgencyCode() != "mgi" || articles[0].ThemeLabel() != "Gestão" {
		t.Fatalf("site name should be the agency fallback: %+v", articles[0])
	}

	bad := NewStrategySource(reg, []config.SiteConfig{{Name: "x", Scanner: "unknown"}}, nil)
	if _, err := bad.FetchRecent(context.Background(), time.Now()); err == nil {
		t.Fatalf("expected error for unknown scanner")
	}
}

func TestGovBRScannerHonoursContext(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(tile("/n/1", "One", "", "", "14/10/2026")))
	}))
	defer server.Close()

	sc := NewGovBRScanner(server.Client(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := sc.Scan(ctx, scanner.Request{
		SiteName:   "mec",
		Categories: []scanner.Category{{Name: "noticias", URL: server.URL}},
	})
	if err == nil {
		t.Fatalf("expected cancelled context to abort the scan")
	}
}
