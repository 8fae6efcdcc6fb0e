package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"NewsPrioritizer/internal/domain"
	"NewsPrioritizer/internal/ports"
)

const (
	articlesTable  = "articles"
	snapshotsTable = "ranking_snapshots"
)

var articleColumns = []string{
	"unique_id",
	"title",
	"url",
	"agency",
	"published_at",
	"image",
	"summary",
	"theme_1_level_1_code",
	"theme_1_level_1_label",
	"theme_1_level_2_code",
	"theme_1_level_2_label",
	"theme_1_level_3_code",
	"theme_1_level_3_label",
	"tags",
}

// PostgresRepository reads candidate articles from and writes ranking
// snapshots to Postgres.
type PostgresRepository struct {
	db       *sql.DB
	poolSize int
	builder  sq.StatementBuilderType
}

var (
	_ ports.ArticleSource      = (*PostgresRepository)(nil)
	_ ports.SnapshotRepository = (*PostgresRepository)(nil)
)

// NewPostgresRepository wires a sql.DB implementation. poolSize bounds the
// number of candidates returned by FetchRecent; zero means unbounded.
func NewPostgresRepository(db *sql.DB, poolSize int) *PostgresRepository {
	return &PostgresRepository{
		db:       db,
		poolSize: poolSize,
		builder:  sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// FetchRecent loads articles published at or after since, newest first.
func (r *PostgresRepository) FetchRecent(ctx context.Context, since time.Time) ([]domain.Article, error) {
	if r.db == nil {
		return nil, nil
	}

	query, args, err := r.recentQuery(since).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build recent query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query recent: %w", err)
	}

	var articles []domain.Article
	for rows.Next() {
		article, err := scanArticle(rows)
		if err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan article: %w", err)
		}
		articles = append(articles, article)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("rows iteration: %w", rowsErr)
	}

	if closeErr := rows.Close(); closeErr != nil {
		return nil, fmt.Errorf("close rows: %w", closeErr)
	}

	return articles, nil
}

// SaveSnapshot stores the ranked output of a pass.
func (r *PostgresRepository) SaveSnapshot(ctx context.Context, snapshot domain.RankingSnapshot) error {
	if r.db == nil {
		return nil
	}

	insert, err := r.snapshotInsert(snapshot)
	if err != nil {
		return err
	}

	query, args, err := insert.ToSql()
	if err != nil {
		return fmt.Errorf("build snapshot insert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}

	return nil
}

func (r *PostgresRepository) recentQuery(since time.Time) sq.SelectBuilder {
	q := r.builder.
		Select(articleColumns...).
		From(articlesTable).
		Where(sq.GtOrEq{"published_at": since.Unix()}).
		OrderBy("published_at DESC", "unique_id DESC")
	if r.poolSize > 0 {
		q = q.Limit(uint64(r.poolSize))
	}
	return q
}

func (r *PostgresRepository) snapshotInsert(snapshot domain.RankingSnapshot) (sq.InsertBuilder, error) {
	themes, err := json.Marshal(snapshot.Themes)
	if err != nil {
		return sq.InsertBuilder{}, fmt.Errorf("marshal theme scores: %w", err)
	}
	items, err := json.Marshal(snapshot.Articles)
	if err != nil {
		return sq.InsertBuilder{}, fmt.Errorf("marshal ranked articles: %w", err)
	}

	return r.builder.
		Insert(snapshotsTable).
		Columns("id", "generated_at", "focus_mode", "focus_themes", "theme_scores", "articles").
		Values(
			snapshot.ID,
			snapshot.GeneratedAt.UTC(),
			snapshot.FocusMode,
			pq.StringArray(snapshot.FocusThemes),
			string(themes),
			string(items),
		), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanArticle(row rowScanner) (domain.Article, error) {
	var (
		article     domain.Article
		title, link sql.NullString
		publishedAt sql.NullInt64
		optional    [9]sql.NullString
		tags        pq.StringArray
	)

	err := row.Scan(
		&article.UniqueID,
		&title,
		&link,
		&optional[0],
		&publishedAt,
		&optional[1],
		&optional[2],
		&optional[3],
		&optional[4],
		&optional[5],
		&optional[6],
		&optional[7],
		&optional[8],
		&tags,
	)
	if err != nil {
		return domain.Article{}, err
	}

	article.Title = title.String
	article.URL = link.String
	if publishedAt.Valid {
		ts := publishedAt.Int64
		article.PublishedAt = &ts
	}

	targets := []**string{
		&article.Agency,
		&article.Image,
		&article.Summary,
		&article.Theme1Level1Code,
		&article.Theme1Level1Label,
		&article.Theme1Level2Code,
		&article.Theme1Level2Label,
		&article.Theme1Level3Code,
		&article.Theme1Level3Label,
	}
	for i, target := range targets {
		*target = nullable(optional[i])
	}

	if len(tags) > 0 {
		article.Tags = []string(tags)
	}

	return article, nil
}

func nullable(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}
