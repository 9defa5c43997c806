package domain

import "time"

// Article is the stored entity the pipeline enhances exactly once.
type Article struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Content     string     `json:"content"`
	OriginalURL string     `json:"original_url,omitempty"`
	IsAIUpdated bool       `json:"is_ai_updated"`
	AIContent   string     `json:"ai_content,omitempty"`
	Citations   []string   `json:"citations"`
	ScrapedAt   *time.Time `json:"scraped_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// ArticleUpdate carries the editable fields of an article; nil means unchanged.
type ArticleUpdate struct {
	Title       *string
	Content     *string
	OriginalURL *string
}

// ArticleFilter narrows article listings.
type ArticleFilter struct {
	Page        int
	PerPage     int
	IsAIUpdated *bool
	Query       string
}

// ArticlePage is one page of a filtered listing.
type ArticlePage struct {
	Items   []Article `json:"items"`
	Total   int       `json:"total"`
	Page    int       `json:"page"`
	PerPage int       `json:"per_page"`
}

// ReferenceCandidate is a page proposed as a reference source.
type ReferenceCandidate struct {
	Title string
	URL   string
}

// ScrapedReference is a reference whose text was extracted successfully.
type ScrapedReference struct {
	URL     string
	Title   string
	Content string
}

// Page is the plain-text rendition of a fetched HTML document.
type Page struct {
	URL   string
	Title string
	Body  string
}
