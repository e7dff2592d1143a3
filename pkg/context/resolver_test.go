package context_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	foodctx "github.com/easyops/foodrag-go/pkg/context"
	"github.com/easyops/foodrag-go/pkg/retrieval"
)

// mockFetcher implements foodctx.Fetcher for testing
type mockFetcher struct {
	mu      sync.Mutex
	calls   int
	fetchFn func(ctx context.Context, term string, maxItems int) ([]retrieval.Passage, error)
}

func (m *mockFetcher) Fetch(ctx context.Context, term string, maxItems int) ([]retrieval.Passage, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.fetchFn != nil {
		return m.fetchFn(ctx, term, maxItems)
	}
	return nil, nil
}

func (m *mockFetcher) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// mockScorer implements foodctx.Scorer with per-text scores
type mockScorer struct {
	scores map[string]float64
}

func (m *mockScorer) Score(a, b string) float64 {
	if score, ok := m.scores[b]; ok {
		return score
	}
	return 1.0
}

// passthroughCounter implements foodctx.TokenCounter without truncation
type passthroughCounter struct{}

func (passthroughCounter) Count(text string) int               { return len(strings.Fields(text)) }
func (passthroughCounter) Truncate(text string, _ int) string  { return text }

// mapCache implements foodctx.Cache over a plain map
type mapCache struct {
	mu      sync.Mutex
	entries map[string]string
}

func newMapCache() *mapCache {
	return &mapCache{entries: make(map[string]string)}
}

func (c *mapCache) Get(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[key]
	return v, ok
}

func (c *mapCache) Put(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = value
}

func passagesOf(texts ...string) []retrieval.Passage {
	passages := make([]retrieval.Passage, len(texts))
	for i, text := range texts {
		passages[i] = retrieval.Passage{Title: "title", Text: text, Source: "test"}
	}
	return passages
}

func TestResolver_Resolve(t *testing.T) {
	fetcher := &mockFetcher{
		fetchFn: func(ctx context.Context, term string, maxItems int) ([]retrieval.Passage, error) {
			return passagesOf("aspirin lowers fever", "unrelated passage"), nil
		},
	}
	scorer := &mockScorer{scores: map[string]float64{
		"aspirin lowers fever": 0.5,
		"unrelated passage":    0.1,
	}}

	resolver := foodctx.NewResolver(fetcher, scorer, passthroughCounter{}, newMapCache(),
		foodctx.WithScoreThreshold(0.2))

	result := resolver.Resolve(context.Background(), "aspirin")

	if result != "aspirin lowers fever" {
		t.Errorf("Resolve = %q, want only the passage above the threshold", result)
	}
}

func TestResolver_Resolve_KeepsFetchOrder(t *testing.T) {
	fetcher := &mockFetcher{
		fetchFn: func(ctx context.Context, term string, maxItems int) ([]retrieval.Passage, error) {
			return passagesOf("first passage", "second passage"), nil
		},
	}
	scorer := &mockScorer{} // everything scores 1.0

	resolver := foodctx.NewResolver(fetcher, scorer, passthroughCounter{}, newMapCache())

	result := resolver.Resolve(context.Background(), "term")

	want := "first passage\n\nsecond passage"
	if result != want {
		t.Errorf("Resolve = %q, want %q", result, want)
	}
}

func TestResolver_Resolve_ThresholdIsInclusive(t *testing.T) {
	fetcher := &mockFetcher{
		fetchFn: func(ctx context.Context, term string, maxItems int) ([]retrieval.Passage, error) {
			return passagesOf("borderline passage"), nil
		},
	}
	scorer := &mockScorer{scores: map[string]float64{"borderline passage": 0.2}}

	resolver := foodctx.NewResolver(fetcher, scorer, passthroughCounter{}, newMapCache(),
		foodctx.WithScoreThreshold(0.2))

	result := resolver.Resolve(context.Background(), "term")
	if result != "borderline passage" {
		t.Errorf("passage scoring exactly at the threshold should be kept, got %q", result)
	}
}

func TestResolver_Resolve_CachesResult(t *testing.T) {
	fetcher := &mockFetcher{
		fetchFn: func(ctx context.Context, term string, maxItems int) ([]retrieval.Passage, error) {
			return passagesOf("cached content"), nil
		},
	}

	resolver := foodctx.NewResolver(fetcher, &mockScorer{}, passthroughCounter{}, newMapCache())

	first := resolver.Resolve(context.Background(), "apple")
	second := resolver.Resolve(context.Background(), "apple")

	if first != second {
		t.Errorf("repeated resolution should be idempotent, got %q then %q", first, second)
	}
	if fetcher.callCount() != 1 {
		t.Errorf("fetcher called %d times, want 1", fetcher.callCount())
	}
}

func TestResolver_Resolve_FetchFailureDegradesToEmpty(t *testing.T) {
	fetcher := &mockFetcher{
		fetchFn: func(ctx context.Context, term string, maxItems int) ([]retrieval.Passage, error) {
			return nil, errors.New("network down")
		},
	}

	resolver := foodctx.NewResolver(fetcher, &mockScorer{}, passthroughCounter{}, newMapCache())

	result := resolver.Resolve(context.Background(), "apple")
	if result != "" {
		t.Errorf("fetch failure should degrade to empty context, got %q", result)
	}
}

func TestResolver_Resolve_EmptyResultIsCached(t *testing.T) {
	fetcher := &mockFetcher{
		fetchFn: func(ctx context.Context, term string, maxItems int) ([]retrieval.Passage, error) {
			return nil, nil
		},
	}

	cache := newMapCache()
	resolver := foodctx.NewResolver(fetcher, &mockScorer{}, passthroughCounter{}, cache)

	resolver.Resolve(context.Background(), "obscurity")
	resolver.Resolve(context.Background(), "obscurity")

	if fetcher.callCount() != 1 {
		t.Errorf("empty results should be cached too, fetcher called %d times", fetcher.callCount())
	}
	if _, ok := cache.Get("obscurity"); !ok {
		t.Error("expected empty result to be stored in the cache")
	}
}

func TestResolver_Resolve_CapsPassageBeforeScoring(t *testing.T) {
	long := strings.Repeat("x", 50)
	var scored string

	fetcher := &mockFetcher{
		fetchFn: func(ctx context.Context, term string, maxItems int) ([]retrieval.Passage, error) {
			return passagesOf(long), nil
		},
	}
	scorer := &scorerFunc{fn: func(a, b string) float64 {
		scored = b
		return 1.0
	}}

	resolver := foodctx.NewResolver(fetcher, scorer, passthroughCounter{}, newMapCache(),
		foodctx.WithPassageCharCap(10))

	result := resolver.Resolve(context.Background(), "term")

	if len(scored) != 10 {
		t.Errorf("scorer saw %d chars, want passage capped to 10", len(scored))
	}
	if result != long[:10] {
		t.Errorf("Resolve = %q, want capped passage", result)
	}
}

// scorerFunc adapts a function to foodctx.Scorer
type scorerFunc struct {
	fn func(a, b string) float64
}

func (s *scorerFunc) Score(a, b string) float64 { return s.fn(a, b) }

func TestResolver_Resolve_TruncatesCombinedContext(t *testing.T) {
	fetcher := &mockFetcher{
		fetchFn: func(ctx context.Context, term string, maxItems int) ([]retrieval.Passage, error) {
			return passagesOf("one two three four five six seven eight"), nil
		},
	}

	truncating := &truncatingCounter{}
	resolver := foodctx.NewResolver(fetcher, &mockScorer{}, truncating, newMapCache(),
		foodctx.WithTokenLimit(3))

	result := resolver.Resolve(context.Background(), "term")

	want := "one two three"
	if result != want {
		t.Errorf("Resolve = %q, want %q", result, want)
	}
}

// truncatingCounter implements foodctx.TokenCounter with whitespace tokens
type truncatingCounter struct{}

func (truncatingCounter) Count(text string) int { return len(strings.Fields(text)) }

func (truncatingCounter) Truncate(text string, limit int) string {
	fields := strings.Fields(text)
	if len(fields) <= limit {
		return text
	}
	return strings.Join(fields[:limit], " ")
}
