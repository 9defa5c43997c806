package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"ArticleEnhancer/internal/domain"
)

type fakeStore struct {
	pending    *domain.Article
	fetchErr   error
	publishErr error
	published  []publishCall
	created    []domain.Article
	createErrs map[string]error
}

type publishCall struct {
	id        int64
	content   string
	citations []string
}

func (f *fakeStore) LatestPending(context.Context) (domain.Article, error) {
	if f.fetchErr != nil {
		return domain.Article{}, f.fetchErr
	}
	if f.pending == nil {
		return domain.Article{}, domain.ErrNoPendingArticle
	}
	return *f.pending, nil
}

func (f *fakeStore) PublishEnhanced(_ context.Context, id int64, content string, citations []string) (domain.Article, error) {
	f.published = append(f.published, publishCall{id: id, content: content, citations: citations})
	if f.publishErr != nil {
		return domain.Article{}, f.publishErr
	}
	a := *f.pending
	a.IsAIUpdated, a.AIContent, a.Citations = true, content, citations
	return a, nil
}

func (f *fakeStore) CreateArticle(_ context.Context, a domain.Article) (domain.Article, error) {
	if err := f.createErrs[a.OriginalURL]; err != nil {
		return domain.Article{}, err
	}
	a.ID = int64(len(f.created) + 1)
	f.created = append(f.created, a)
	return a, nil
}

type fakeLocator struct {
	query      string
	candidates []domain.ReferenceCandidate
}

func (f *fakeLocator) Locate(_ context.Context, query string) ([]domain.ReferenceCandidate, error) {
	f.query = query
	return f.candidates, nil
}

type fakeCollector struct {
	n    int
	refs []domain.ScrapedReference
}

func (f *fakeCollector) Collect(_ context.Context, _ []domain.ReferenceCandidate, n int) []domain.ScrapedReference {
	f.n = n
	return f.refs
}

type fakeRewriter struct {
	out string
	err error
}

func (f fakeRewriter) Rewrite(context.Context, domain.Article, []domain.ScrapedReference) (string, error) {
	return f.out, f.err
}

type fakeNotifier struct {
	messages []string
	err      error
}

func (f *fakeNotifier) Notify(_ context.Context, message string) error {
	f.messages = append(f.messages, message)
	return f.err
}

type fakeLock struct {
	held     bool
	released int
}

func (f *fakeLock) Acquire(context.Context) (func(context.Context) error, error) {
	if f.held {
		return nil, domain.ErrRunInProgress
	}
	f.held = true
	return func(context.Context) error {
		f.held = false
		f.released++
		return nil
	}, nil
}

func newFixture() (*fakeStore, *fakeLocator, *fakeCollector) {
	store := &fakeStore{pending: &domain.Article{ID: 5, Title: "Chatbots", Content: "Original"}}
	locator := &fakeLocator{candidates: []domain.ReferenceCandidate{{Title: "A", URL: "https://a.example"}}}
	collector := &fakeCollector{refs: []domain.ScrapedReference{
		{URL: "https://a.example", Content: "a"},
		{URL: " https://a.example ", Content: "dup"},
		{URL: "https://b.example", Content: "b"},
	}}
	return store, locator, collector
}

func TestRunPublishesFormattedContent(t *testing.T) {
	t.Parallel()

	store, locator, collector := newFixture()
	notifier := &fakeNotifier{err: errors.New("telegram down")}
	lock := &fakeLock{}

	p := NewPipeline(PipelineDeps{
		Store:          store,
		Locator:        locator,
		Collector:      collector,
		Rewriter:       fakeRewriter{out: "Rewritten"},
		Notifier:       notifier,
		Lock:           lock,
		ReferenceCount: 3,
	})

	article, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if !article.IsAIUpdated {
		t.Fatalf("expected enhanced article")
	}
	if locator.query != "Chatbots" || collector.n != 3 {
		t.Fatalf("unexpected stage inputs: query=%q n=%d", locator.query, collector.n)
	}

	if len(store.published) != 1 {
		t.Fatalf("expected one publish, got %d", len(store.published))
	}
	call := store.published[0]
	if call.id != 5 || len(call.citations) != 2 || call.citations[1] != "https://b.example" {
		t.Fatalf("unexpected publish call: %+v", call)
	}
	if !strings.HasPrefix(call.content, "Rewritten\n\n---\n\n## References & Sources") {
		t.Fatalf("unexpected content:\n%s", call.content)
	}
	if len(notifier.messages) != 1 {
		t.Fatalf("expected a notification attempt")
	}
	if lock.held || lock.released != 1 {
		t.Fatalf("lock must be released exactly once")
	}
}

func TestRunEscapesTitleInNotification(t *testing.T) {
	t.Parallel()

	store, locator, collector := newFixture()
	store.pending.Title = "Bots_vs *humans* [2025] `v2`"
	notifier := &fakeNotifier{}

	p := NewPipeline(PipelineDeps{
		Store:     store,
		Locator:   locator,
		Collector: collector,
		Rewriter:  fakeRewriter{out: "Rewritten"},
		Notifier:  notifier,
	})
	if _, err := p.Run(context.Background()); err != nil {
		t.Fatalf("Run error: %v", err)
	}

	if len(notifier.messages) != 1 {
		t.Fatalf("expected one notification, got %d", len(notifier.messages))
	}
	want := "*Bots\\_vs \\*humans\\* \\[2025] \\`v2\\`*"
	if !strings.Contains(notifier.messages[0], want) {
		t.Fatalf("title not escaped: %q", notifier.messages[0])
	}
}

func TestRunFailsFastWithoutPublishing(t *testing.T) {
	t.Parallel()

	store, locator, collector := newFixture()
	boom := errors.New("model exploded")

	p := NewPipeline(PipelineDeps{Store: store, Locator: locator, Collector: collector, Rewriter: fakeRewriter{err: boom}})
	_, err := p.Run(context.Background())

	var stageErr *StageError
	if !errors.As(err, &stageErr) || stageErr.Stage != StageRewrite || !errors.Is(err, boom) {
		t.Fatalf("expected rewrite stage error, got %v", err)
	}
	if len(store.published) != 0 {
		t.Fatalf("nothing must be published after a failure")
	}
}

func TestRunNothingPending(t *testing.T) {
	t.Parallel()

	store, locator, collector := newFixture()
	store.pending = nil

	p := NewPipeline(PipelineDeps{Store: store, Locator: locator, Collector: collector, Rewriter: fakeRewriter{out: "x"}})
	_, err := p.Run(context.Background())
	if !errors.Is(err, domain.ErrNoPendingArticle) {
		t.Fatalf("expected ErrNoPendingArticle, got %v", err)
	}
	if locator.query != "" {
		t.Fatalf("locate must not run without an article")
	}
}

func TestRunHonoursLock(t *testing.T) {
	t.Parallel()

	store, locator, collector := newFixture()
	lock := &fakeLock{held: true}

	p := NewPipeline(PipelineDeps{Store: store, Locator: locator, Collector: collector, Rewriter: fakeRewriter{out: "x"}, Lock: lock})
	_, err := p.Run(context.Background())
	if !errors.Is(err, domain.ErrRunInProgress) {
		t.Fatalf("expected ErrRunInProgress, got %v", err)
	}
	if d := Diagnose(err); d.Stage != StageLock || d.Hint == "" {
		t.Fatalf("unexpected diagnostic: %+v", d)
	}
}

func TestDiagnose(t *testing.T) {
	t.Parallel()

	cases := []struct {
		err     error
		message string
		hint    string
	}{
		{&StageError{Stage: StageFetch, Err: domain.ErrNoPendingArticle}, "Nothing pending", "seed"},
		{&StageError{Stage: StageFetch, Err: fmt.Errorf("%w: dial tcp: connection refused", domain.ErrStoreUnavailable)}, "connection refused", "articleenhancer serve"},
		{&StageError{Stage: StagePublish, Err: &domain.ValidationError{Fields: map[string][]string{"ai_content": {"ai_content is required"}}}}, "ai_content is required", "field errors"},
		{&StageError{Stage: StageRewrite, Err: fmt.Errorf("%w: 12 characters", domain.ErrInsufficientOutput)}, "insufficient", "OPENAI_MODEL"},
		{&StageError{Stage: StageRewrite, Err: errors.New("openai api error (status 401): Incorrect API key provided")}, "401", "OPENAI_API_KEY"},
		{&StageError{Stage: StageRewrite, Err: fmt.Errorf("model rewrite: %w (status 401): bad key", domain.ErrModelUnauthorized)}, "api key rejected", "OPENAI_API_KEY"},
		{&StageError{Stage: StagePublish, Err: errors.New("publish article 401: store returned status 400: bad request")}, "article 401", "--log-level debug"},
		{&StageError{Stage: StageFetch, Err: fmt.Errorf("fetch latest article: %w: GET http://store/articles/latest returned 404: Route not found", domain.ErrStoreEndpoint)}, "does not serve", "STORE_API_URL"},
		{&StageError{Stage: StageCollect, Err: context.DeadlineExceeded}, "deadline", "REQUEST_TIMEOUT"},
		{errors.New("something odd"), "something odd", "--log-level debug"},
	}

	for _, tc := range cases {
		d := Diagnose(tc.err)
		if !strings.Contains(d.Message, tc.message) || !strings.Contains(d.Hint, tc.hint) {
			t.Errorf("Diagnose(%v) = %+v", tc.err, d)
		}
	}
	if d := Diagnose(nil); d != (Diagnostic{}) {
		t.Fatalf("nil error must produce an empty diagnostic")
	}
}

type fakeSource struct {
	articles []domain.Article
	err      error
}

func (f fakeSource) FetchAll(context.Context) ([]domain.Article, error) {
	return f.articles, f.err
}

func TestSeedSkipsDuplicates(t *testing.T) {
	t.Parallel()

	store := &fakeStore{createErrs: map[string]error{
		"https://blog.example/dup": fmt.Errorf("create article: %w", domain.ErrDuplicateArticle),
		"https://blog.example/bad": &domain.ValidationError{Fields: map[string][]string{"title": {"title is required"}}},
	}}
	source := fakeSource{articles: []domain.Article{
		{Title: "New", Content: "c", OriginalURL: "https://blog.example/new"},
		{Title: "Dup", Content: "c", OriginalURL: "https://blog.example/dup"},
		{Content: "c", OriginalURL: "https://blog.example/bad"},
	}}

	report, err := NewSeeder(SeederDeps{Source: source, Store: store}).Seed(context.Background())
	if err != nil {
		t.Fatalf("Seed error: %v", err)
	}
	if report != (SeedReport{Fetched: 3, Created: 1, Skipped: 2}) {
		t.Fatalf("unexpected report: %+v", report)
	}
}

func TestSeedAbortsOnStoreOutage(t *testing.T) {
	t.Parallel()

	store := &fakeStore{createErrs: map[string]error{
		"https://blog.example/a": domain.ErrStoreUnavailable,
	}}
	source := fakeSource{articles: []domain.Article{{Title: "A", Content: "c", OriginalURL: "https://blog.example/a"}}}

	_, err := NewSeeder(SeederDeps{Source: source, Store: store}).Seed(context.Background())
	if !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Fatalf("expected store outage to abort, got %v", err)
	}
}

type countingRunner struct {
	runs chan struct{}
	err  error
}

func (c *countingRunner) Run(context.Context) (domain.Article, error) {
	c.runs <- struct{}{}
	return domain.Article{}, c.err
}

type immediateDriver struct{ stopped bool }

func (d *immediateDriver) Start(_ context.Context, job func(time.Time)) error {
	job(time.Now())
	job(time.Now())
	return nil
}

func (d *immediateDriver) Stop(context.Context) error {
	d.stopped = true
	return nil
}

func TestSchedulerKeepsRunningWhenNothingPending(t *testing.T) {
	t.Parallel()

	runner := &countingRunner{runs: make(chan struct{}, 2), err: domain.ErrNoPendingArticle}
	driver := &immediateDriver{}
	s := NewScheduler(driver, runner, nil)

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start error: %v", err)
	}
	if len(runner.runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runner.runs))
	}
	if err := s.Stop(context.Background()); err != nil || !driver.stopped {
		t.Fatalf("Stop must stop the driver")
	}
}
