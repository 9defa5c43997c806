package storage

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"ArticleEnhancer/internal/domain"
	"ArticleEnhancer/internal/ports"
)

// MemoryRepository keeps articles in process memory. It backs the "memory"
// database driver used for local runs.
type MemoryRepository struct {
	mu      sync.Mutex
	nextID  int64
	rows    map[int64]domain.Article
	deleted map[int64]bool
	now     func() time.Time
}

var _ ports.ArticleRepository = (*MemoryRepository)(nil)

// NewMemoryRepository creates an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		rows:    map[int64]domain.Article{},
		deleted: map[int64]bool{},
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (m *MemoryRepository) live() []domain.Article {
	out := make([]domain.Article, 0, len(m.rows))
	for id, a := range m.rows {
		if !m.deleted[id] {
			out = append(out, clone(a))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

// List mirrors ArticleRepository.List.
func (m *MemoryRepository) List(_ context.Context, filter domain.ArticleFilter) (domain.ArticlePage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

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
	query := strings.ToLower(strings.TrimSpace(filter.Query))

	matched := make([]domain.Article, 0)
	for _, a := range m.live() {
		if filter.IsAIUpdated != nil && a.IsAIUpdated != *filter.IsAIUpdated {
			continue
		}
		if query != "" && !strings.Contains(strings.ToLower(a.Title), query) {
			continue
		}
		matched = append(matched, a)
	}

	start := (page - 1) * perPage
	if start > len(matched) {
		start = len(matched)
	}
	end := start + perPage
	if end > len(matched) {
		end = len(matched)
	}
	return domain.ArticlePage{Items: matched[start:end], Total: len(matched), Page: page, PerPage: perPage}, nil
}

// Get mirrors ArticleRepository.Get.
func (m *MemoryRepository) Get(_ context.Context, id int64) (domain.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.get(id)
}

func (m *MemoryRepository) get(id int64) (domain.Article, error) {
	a, ok := m.rows[id]
	if !ok || m.deleted[id] {
		return domain.Article{}, domain.ErrArticleNotFound
	}
	return clone(a), nil
}

// LatestPending mirrors ArticleRepository.LatestPending.
func (m *MemoryRepository) LatestPending(_ context.Context) (domain.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, a := range m.live() {
		if !a.IsAIUpdated {
			return a, nil
		}
	}
	return domain.Article{}, domain.ErrNoPendingArticle
}

// Create mirrors ArticleRepository.Create.
func (m *MemoryRepository) Create(_ context.Context, in domain.Article) (domain.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	in.OriginalURL = strings.TrimSpace(in.OriginalURL)
	if m.urlTaken(in.OriginalURL, 0) {
		return domain.Article{}, domain.ErrDuplicateArticle
	}

	m.nextID++
	now := m.now()
	a := domain.Article{
		ID:          m.nextID,
		Title:       in.Title,
		Content:     in.Content,
		OriginalURL: in.OriginalURL,
		Citations:   []string{},
		ScrapedAt:   in.ScrapedAt,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	m.rows[a.ID] = a
	return clone(a), nil
}

// Update mirrors ArticleRepository.Update.
func (m *MemoryRepository) Update(_ context.Context, id int64, update domain.ArticleUpdate) (domain.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, err := m.get(id)
	if err != nil {
		return domain.Article{}, err
	}
	if update.OriginalURL != nil {
		u := strings.TrimSpace(*update.OriginalURL)
		if u != a.OriginalURL && m.urlTaken(u, id) {
			return domain.Article{}, domain.ErrDuplicateArticle
		}
		a.OriginalURL = u
	}
	if update.Title != nil {
		a.Title = *update.Title
	}
	if update.Content != nil {
		a.Content = *update.Content
	}
	a.UpdatedAt = m.now()
	m.rows[id] = a
	return clone(a), nil
}

// Delete mirrors ArticleRepository.Delete.
func (m *MemoryRepository) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, err := m.get(id); err != nil {
		return err
	}
	m.deleted[id] = true
	return nil
}

// Publish mirrors ArticleRepository.Publish.
func (m *MemoryRepository) Publish(_ context.Context, id int64, content string, citations []string) (domain.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, err := m.get(id)
	if err != nil {
		return domain.Article{}, err
	}
	if a.IsAIUpdated {
		return domain.Article{}, domain.ErrAlreadyEnhanced
	}
	a.IsAIUpdated = true
	a.AIContent = content
	a.Citations = append([]string{}, citations...)
	a.UpdatedAt = m.now()
	m.rows[id] = a
	return clone(a), nil
}

func (m *MemoryRepository) urlTaken(u string, exceptID int64) bool {
	if u == "" {
		return false
	}
	for id, a := range m.rows {
		if id != exceptID && !m.deleted[id] && a.OriginalURL == u {
			return true
		}
	}
	return false
}

func clone(a domain.Article) domain.Article {
	a.Citations = append([]string{}, a.Citations...)
	return a
}
