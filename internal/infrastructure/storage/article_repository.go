package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"ArticleEnhancer/internal/domain"
	"ArticleEnhancer/internal/ports"
)

const (
	defaultPerPage = 10
	maxPerPage     = 100
)

var articleColumns = []string{
	"id", "title", "content", "original_url", "is_ai_updated", "ai_content",
	"citations", "scraped_at", "created_at", "updated_at",
}

type articleRow struct {
	ID          int64          `db:"id"`
	Title       string         `db:"title"`
	Content     string         `db:"content"`
	OriginalURL sql.NullString `db:"original_url"`
	IsAIUpdated bool           `db:"is_ai_updated"`
	AIContent   sql.NullString `db:"ai_content"`
	Citations   string         `db:"citations"`
	ScrapedAt   sql.NullTime   `db:"scraped_at"`
	CreatedAt   time.Time      `db:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at"`
}

func (r articleRow) toDomain() (domain.Article, error) {
	citations := []string{}
	if strings.TrimSpace(r.Citations) != "" {
		if err := json.Unmarshal([]byte(r.Citations), &citations); err != nil {
			return domain.Article{}, fmt.Errorf("decode citations for article %d: %w", r.ID, err)
		}
	}

	a := domain.Article{
		ID:          r.ID,
		Title:       r.Title,
		Content:     r.Content,
		OriginalURL: r.OriginalURL.String,
		IsAIUpdated: r.IsAIUpdated,
		AIContent:   r.AIContent.String,
		Citations:   citations,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
	if r.ScrapedAt.Valid {
		t := r.ScrapedAt.Time
		a.ScrapedAt = &t
	}
	return a, nil
}

// ArticleRepository persists articles through sqlx with squirrel-built queries.
// Rows are soft deleted; deleted rows are invisible to every read.
type ArticleRepository struct {
	db  *sqlx.DB
	sb  sq.StatementBuilderType
	now func() time.Time
}

var _ ports.ArticleRepository = (*ArticleRepository)(nil)

// NewArticleRepository picks the placeholder format from the driver name.
func NewArticleRepository(db *sqlx.DB) *ArticleRepository {
	format := sq.PlaceholderFormat(sq.Question)
	if db.DriverName() == "postgres" {
		format = sq.Dollar
	}
	return &ArticleRepository{
		db:  db,
		sb:  sq.StatementBuilder.PlaceholderFormat(format),
		now: func() time.Time { return time.Now().UTC() },
	}
}

func (r *ArticleRepository) selectArticles() sq.SelectBuilder {
	return r.sb.Select(articleColumns...).From("articles").Where(sq.Eq{"deleted_at": nil})
}

// List returns one page of live articles, newest first.
func (r *ArticleRepository) List(ctx context.Context, filter domain.ArticleFilter) (domain.ArticlePage, error) {
	page, perPage := filter.Page, filter.PerPage
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = defaultPerPage
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}

	where := sq.And{sq.Eq{"deleted_at": nil}}
	if filter.IsAIUpdated != nil {
		where = append(where, sq.Eq{"is_ai_updated": *filter.IsAIUpdated})
	}
	if q := strings.TrimSpace(filter.Query); q != "" {
		where = append(where, sq.Expr("LOWER(title) LIKE ?", "%"+strings.ToLower(q)+"%"))
	}

	countQuery, countArgs, err := r.sb.Select("COUNT(*)").From("articles").Where(where).ToSql()
	if err != nil {
		return domain.ArticlePage{}, fmt.Errorf("build count query: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, countArgs...); err != nil {
		return domain.ArticlePage{}, fmt.Errorf("count articles: %w", err)
	}

	query, args, err := r.sb.Select(articleColumns...).From("articles").Where(where).
		OrderBy("created_at DESC", "id DESC").
		Limit(uint64(perPage)).
		Offset(uint64((page - 1) * perPage)).
		ToSql()
	if err != nil {
		return domain.ArticlePage{}, fmt.Errorf("build list query: %w", err)
	}

	var rows []articleRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return domain.ArticlePage{}, fmt.Errorf("list articles: %w", err)
	}

	items := make([]domain.Article, 0, len(rows))
	for _, row := range rows {
		a, err := row.toDomain()
		if err != nil {
			return domain.ArticlePage{}, err
		}
		items = append(items, a)
	}

	return domain.ArticlePage{Items: items, Total: total, Page: page, PerPage: perPage}, nil
}

// Get loads a live article by id.
func (r *ArticleRepository) Get(ctx context.Context, id int64) (domain.Article, error) {
	a, err := r.getOne(ctx, r.selectArticles().Where(sq.Eq{"id": id}))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Article{}, domain.ErrArticleNotFound
	}
	if err != nil {
		return domain.Article{}, fmt.Errorf("get article %d: %w", id, err)
	}
	return a, nil
}

// LatestPending returns the newest article that has not been enhanced.
func (r *ArticleRepository) LatestPending(ctx context.Context) (domain.Article, error) {
	a, err := r.getOne(ctx, r.selectArticles().
		Where(sq.Eq{"is_ai_updated": false}).
		OrderBy("created_at DESC", "id DESC").
		Limit(1))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Article{}, domain.ErrNoPendingArticle
	}
	if err != nil {
		return domain.Article{}, fmt.Errorf("latest pending article: %w", err)
	}
	return a, nil
}

// Create inserts a new article. A live article with the same original URL
// yields domain.ErrDuplicateArticle.
func (r *ArticleRepository) Create(ctx context.Context, in domain.Article) (domain.Article, error) {
	if err := r.ensureUniqueURL(ctx, in.OriginalURL, 0); err != nil {
		return domain.Article{}, err
	}

	now := r.now()
	var scrapedAt any
	if in.ScrapedAt != nil {
		scrapedAt = in.ScrapedAt.UTC()
	}

	a, err := r.getOne(ctx, r.sb.Insert("articles").
		Columns("title", "content", "original_url", "is_ai_updated", "citations", "scraped_at", "created_at", "updated_at").
		Values(in.Title, in.Content, nullString(in.OriginalURL), false, "[]", scrapedAt, now, now).
		Suffix("RETURNING "+strings.Join(articleColumns, ", ")))
	if isUniqueViolation(err) {
		return domain.Article{}, domain.ErrDuplicateArticle
	}
	if err != nil {
		return domain.Article{}, fmt.Errorf("create article: %w", err)
	}
	return a, nil
}

// Update changes the editable fields that are set in update.
func (r *ArticleRepository) Update(ctx context.Context, id int64, update domain.ArticleUpdate) (domain.Article, error) {
	current, err := r.Get(ctx, id)
	if err != nil {
		return domain.Article{}, err
	}

	set := map[string]any{"updated_at": r.now()}
	if update.Title != nil {
		set["title"] = *update.Title
	}
	if update.Content != nil {
		set["content"] = *update.Content
	}
	if update.OriginalURL != nil && *update.OriginalURL != current.OriginalURL {
		if err := r.ensureUniqueURL(ctx, *update.OriginalURL, id); err != nil {
			return domain.Article{}, err
		}
		set["original_url"] = nullString(*update.OriginalURL)
	}

	a, err := r.getOne(ctx, r.sb.Update("articles").
		SetMap(set).
		Where(sq.Eq{"id": id, "deleted_at": nil}).
		Suffix("RETURNING "+strings.Join(articleColumns, ", ")))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Article{}, domain.ErrArticleNotFound
	}
	if isUniqueViolation(err) {
		return domain.Article{}, domain.ErrDuplicateArticle
	}
	if err != nil {
		return domain.Article{}, fmt.Errorf("update article %d: %w", id, err)
	}
	return a, nil
}

// Delete soft deletes an article.
func (r *ArticleRepository) Delete(ctx context.Context, id int64) error {
	query, args, err := r.sb.Update("articles").
		Set("deleted_at", r.now()).
		Where(sq.Eq{"id": id, "deleted_at": nil}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete article %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete article %d: %w", id, err)
	}
	if n == 0 {
		return domain.ErrArticleNotFound
	}
	return nil
}

// Publish stores the enhanced content and flips the enhancement flag. The
// update only matches articles that are still pending, so a concurrent second
// publish gets domain.ErrAlreadyEnhanced.
func (r *ArticleRepository) Publish(ctx context.Context, id int64, content string, citations []string) (domain.Article, error) {
	if citations == nil {
		citations = []string{}
	}
	encoded, err := json.Marshal(citations)
	if err != nil {
		return domain.Article{}, fmt.Errorf("encode citations: %w", err)
	}

	a, err := r.getOne(ctx, r.sb.Update("articles").
		Set("is_ai_updated", true).
		Set("ai_content", content).
		Set("citations", string(encoded)).
		Set("updated_at", r.now()).
		Where(sq.Eq{"id": id, "deleted_at": nil, "is_ai_updated": false}).
		Suffix("RETURNING "+strings.Join(articleColumns, ", ")))
	if err == nil {
		return a, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return domain.Article{}, fmt.Errorf("publish article %d: %w", id, err)
	}

	if _, getErr := r.Get(ctx, id); getErr != nil {
		return domain.Article{}, getErr
	}
	return domain.Article{}, domain.ErrAlreadyEnhanced
}

func (r *ArticleRepository) ensureUniqueURL(ctx context.Context, originalURL string, exceptID int64) error {
	originalURL = strings.TrimSpace(originalURL)
	if originalURL == "" {
		return nil
	}

	where := sq.And{sq.Eq{"original_url": originalURL, "deleted_at": nil}}
	if exceptID > 0 {
		where = append(where, sq.NotEq{"id": exceptID})
	}
	query, args, err := r.sb.Select("COUNT(*)").From("articles").Where(where).ToSql()
	if err != nil {
		return fmt.Errorf("build duplicate check: %w", err)
	}

	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return fmt.Errorf("check duplicate url: %w", err)
	}
	if count > 0 {
		return domain.ErrDuplicateArticle
	}
	return nil
}

// isUniqueViolation reports whether err comes from the live original_url
// index. The pre-insert check does not cover two concurrent writers.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	// go-sqlite3 exposes its error codes only in cgo builds.
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func (r *ArticleRepository) getOne(ctx context.Context, b sq.Sqlizer) (domain.Article, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return domain.Article{}, fmt.Errorf("build query: %w", err)
	}

	var row articleRow
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		return domain.Article{}, err
	}
	return row.toDomain()
}

func nullString(s string) sql.NullString {
	s = strings.TrimSpace(s)
	return sql.NullString{String: s, Valid: s != ""}
}
