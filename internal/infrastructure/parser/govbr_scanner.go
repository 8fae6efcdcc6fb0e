package parser

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"

	"NewsPrioritizer/internal/domain"
	"NewsPrioritizer/internal/scanner"
)

const (
	defaultPageSize = 30
	defaultMaxPages = 20
	requestInterval = 500 * time.Millisecond
	batchStartParam = "b_start:int"
)

var (
	dateExpr = regexp.MustCompile(`\d{2}/\d{2}/\d{4}`)
	hourExpr = regexp.MustCompile(`(\d{1,2})h(\d{2})`)
	// Brasília time, no daylight saving since 2019.
	brasilia = time.FixedZone("BRT", -3*60*60)

	errNoLink = errors.New("listing item has no link")
)

// GovBRScanner crawls paginated gov.br news listings and extracts articles
// published since the requested cutoff.
type GovBRScanner struct {
	client   *http.Client
	logger   *slog.Logger
	limiter  *rate.Limiter
	pageSize int
	maxPages int
}

// NewGovBRScanner wires an HTTP client; pageSize defaults to the portal batch size.
func NewGovBRScanner(client *http.Client, log *slog.Logger) *GovBRScanner {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &GovBRScanner{
		client:   client,
		logger:   log,
		limiter:  rate.NewLimiter(rate.Every(requestInterval), 2),
		pageSize: defaultPageSize,
		maxPages: defaultMaxPages,
	}
}

// Name identifies the strategy inside the registry.
func (g *GovBRScanner) Name() string {
	return "govbr"
}

// Scan walks through each category listing and returns articles newer than req.Since.
func (g *GovBRScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.Article, error) {
	if len(req.Categories) == 0 {
		return nil, fmt.Errorf("no categories provided for site %s", req.SiteName)
	}

	maxPages := g.maxPages
	if v, err := strconv.Atoi(req.Options["maxPages"]); err == nil && v > 0 {
		maxPages = v
	}

	results := make([]domain.Article, 0)
	seen := map[string]struct{}{}

	for _, cat := range req.Categories {
		for page, start := 0, 0; page < maxPages; page, start = page+1, start+g.pageSize {
			pageURL, err := buildPageURL(cat.URL, start)
			if err != nil {
				return nil, fmt.Errorf("category %s: %w", cat.Name, err)
			}

			doc, err := g.fetchDocument(ctx, pageURL)
			if err != nil {
				return nil, fmt.Errorf("category %s: %w", cat.Name, err)
			}

			pageArticles, shouldContinue := g.extractArticles(doc, pageURL, req, cat)
			for _, article := range pageArticles {
				if _, ok := seen[article.UniqueID]; ok {
					continue
				}
				seen[article.UniqueID] = struct{}{}
				results = append(results, article)
			}
			g.debug("listing page parsed", "category", cat.Name, "page", page, "articles", len(pageArticles))

			if !shouldContinue {
				break
			}
		}
	}

	return results, nil
}

func (g *GovBRScanner) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "NewsPrioritizer/1.0")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gov.br returned %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	return doc, nil
}

func (g *GovBRScanner) extractArticles(doc *goquery.Document, pageURL string, req scanner.Request, cat scanner.Category) ([]domain.Article, bool) {
	var (
		collected    []domain.Article
		continueScan = true
		processed    int
	)

	base, _ := url.Parse(pageURL)

	doc.Find(".tileItem").EachWithBreak(func(i int, item *goquery.Selection) bool {
		processed++

		article, err := parseItem(item, base, req, cat)
		if err != nil {
			g.debug("skip listing item", "index", i, "error", err)
			return true
		}

		if published, ok := article.PublishedTime(); ok && published.Before(req.Since) {
			continueScan = false
			return false
		}

		collected = append(collected, article)
		return true
	})

	if processed < g.pageSize {
		continueScan = false
	}

	return collected, continueScan
}

func parseItem(item *goquery.Selection, base *url.URL, req scanner.Request, cat scanner.Category) (domain.Article, error) {
	link := item.Find(".tileHeadline a").First()
	href, ok := link.Attr("href")
	href = strings.TrimSpace(href)
	if !ok || href == "" {
		return domain.Article{}, errNoLink
	}
	href = resolve(base, href)

	article := domain.Article{
		UniqueID: uniqueID(href),
		Title:    strings.TrimSpace(link.Text()),
		URL:      href,
	}

	if req.Agency != "" {
		article.Agency = ptr(req.Agency)
	}
	if cat.ThemeCode != "" {
		article.Theme1Level1Code = ptr(cat.ThemeCode)
	}
	if cat.ThemeLabel != "" {
		article.Theme1Level1Label = ptr(cat.ThemeLabel)
	}

	if summary := strings.TrimSpace(item.Find(".description").First().Text()); summary != "" {
		article.Summary = ptr(summary)
	}
	if src, ok := item.Find(".tileImage img").First().Attr("src"); ok && strings.TrimSpace(src) != "" {
		article.Image = ptr(resolve(base, strings.TrimSpace(src)))
	}

	item.Find(".subject-noticia, .keywords a").Each(func(_ int, tag *goquery.Selection) {
		if text := strings.TrimSpace(tag.Text()); text != "" {
			article.Tags = append(article.Tags, text)
		}
	})

	if published, ok := parseByline(item.Find(".documentByLine").Text()); ok {
		ts := published.Unix()
		article.PublishedAt = &ts
	}

	return article, nil
}

// parseByline reads "14/10/2026 10h30" style bylines in Brasília time.
func parseByline(text string) (time.Time, bool) {
	day := dateExpr.FindString(text)
	if day == "" {
		return time.Time{}, false
	}
	published, err := time.ParseInLocation("02/01/2006", day, brasilia)
	if err != nil {
		return time.Time{}, false
	}

	if m := hourExpr.FindStringSubmatch(text); m != nil {
		hour, _ := strconv.Atoi(m[1])
		minute, _ := strconv.Atoi(m[2])
		if hour < 24 && minute < 60 {
			published = published.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
		}
	}

	return published, true
}

func buildPageURL(base string, start int) (string, error) {
	parsed, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid category url %s: %w", base, err)
	}

	query := parsed.Query()
	if start > 0 {
		query.Set(batchStartParam, strconv.Itoa(start))
	} else {
		query.Del(batchStartParam)
	}
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}

func resolve(base *url.URL, ref string) string {
	if base == nil {
		return ref
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return base.ResolveReference(u).String()
}

func uniqueID(link string) string {
	sum := sha1.Sum([]byte(link))
	return hex.EncodeToString(sum[:])
}

func ptr(s string) *string {
	return &s
}

func (g *GovBRScanner) debug(msg string, args ...any) {
	if g.logger != nil {
		g.logger.Debug(msg, args...)
	}
}
