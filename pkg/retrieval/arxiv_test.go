package retrieval_test

import (
	"context"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/easyops/foodrag-go/pkg/core/errors"
	"github.com/easyops/foodrag-go/pkg/otel"
	"github.com/easyops/foodrag-go/pkg/retrieval"
)

const atomFixture = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <entry>
    <id>http://arxiv.org/abs/2301.00001v1</id>
    <title>Aspirin and cardiovascular outcomes</title>
    <summary>
      A randomized trial of low-dose aspirin in adults.
    </summary>
  </entry>
  <entry>
    <id>http://arxiv.org/abs/2301.00002v1</id>
    <title>Dietary fiber intake</title>
    <summary>Fiber consumption and gut health over ten years.</summary>
  </entry>
</feed>`

func TestArxivClient_Fetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("search_query"); !strings.Contains(got, "aspirin") {
			t.Errorf("search_query = %q, want query containing %q", got, "aspirin")
		}
		w.Header().Set("Content-Type", "application/atom+xml")
		w.Write([]byte(atomFixture))
	}))
	defer server.Close()

	client := retrieval.NewArxivClient(retrieval.WithArxivBaseURL(server.URL))

	passages, err := client.Fetch(context.Background(), "aspirin", 2)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(passages) != 2 {
		t.Fatalf("expected 2 passages, got %d", len(passages))
	}

	first := passages[0]
	if first.Title != "Aspirin and cardiovascular outcomes" {
		t.Errorf("title = %q", first.Title)
	}
	if first.Text != "A randomized trial of low-dose aspirin in adults." {
		t.Errorf("summary should be trimmed, got %q", first.Text)
	}
	if first.Source != "http://arxiv.org/abs/2301.00001v1" {
		t.Errorf("source = %q", first.Source)
	}
}

func TestArxivClient_Fetch_MaxItems(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(atomFixture))
	}))
	defer server.Close()

	client := retrieval.NewArxivClient(retrieval.WithArxivBaseURL(server.URL))

	passages, err := client.Fetch(context.Background(), "aspirin", 1)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(passages) != 1 {
		t.Errorf("expected 1 passage, got %d", len(passages))
	}
}

func TestArxivClient_Fetch_ZeroItems(t *testing.T) {
	client := retrieval.NewArxivClient()

	passages, err := client.Fetch(context.Background(), "aspirin", 0)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(passages) != 0 {
		t.Errorf("expected no passages, got %d", len(passages))
	}
}

func TestArxivClient_Fetch_EmptyFeed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<?xml version="1.0"?><feed xmlns="http://www.w3.org/2005/Atom"></feed>`))
	}))
	defer server.Close()

	client := retrieval.NewArxivClient(retrieval.WithArxivBaseURL(server.URL))

	passages, err := client.Fetch(context.Background(), "nothing", 2)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(passages) != 0 {
		t.Errorf("expected no passages, got %d", len(passages))
	}
}

func TestArxivClient_Fetch_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := retrieval.NewArxivClient(retrieval.WithArxivBaseURL(server.URL))

	passages, err := client.Fetch(context.Background(), "aspirin", 2)
	if err == nil {
		t.Fatal("expected error for server failure")
	}
	if len(passages) != 0 {
		t.Errorf("failed fetch should return no passages, got %d", len(passages))
	}
}

func TestArxivClient_Fetch_MalformedFeed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<feed><entry></feed>`))
	}))
	defer server.Close()

	client := retrieval.NewArxivClient(retrieval.WithArxivBaseURL(server.URL))

	_, err := client.Fetch(context.Background(), "aspirin", 2)
	if !stderrors.Is(err, errors.ErrMalformedResponse) {
		t.Errorf("expected ErrMalformedResponse, got %v", err)
	}
}

func TestArxivClient_Fetch_RecordsDuration(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(atomFixture))
	}))
	defer server.Close()

	metrics := otel.NewInMemoryMetrics()
	client := retrieval.NewArxivClient(
		retrieval.WithArxivBaseURL(server.URL),
		retrieval.WithArxivMetrics(metrics))

	if _, err := client.Fetch(context.Background(), "aspirin", 1); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	hist := metrics.Histogram(otel.MetricFetchDuration).(*otel.InMemoryHistogram)
	if len(hist.Values()) != 1 {
		t.Errorf("expected 1 recorded fetch duration, got %d", len(hist.Values()))
	}
}

func TestArxivClient_Fetch_SerializesRequests(t *testing.T) {
	var mu sync.Mutex
	inFlight, maxInFlight := 0, 0

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		inFlight++
		if inFlight > maxInFlight {
			maxInFlight = inFlight
		}
		mu.Unlock()

		w.Write([]byte(atomFixture))

		mu.Lock()
		inFlight--
		mu.Unlock()
	}))
	defer server.Close()

	client := retrieval.NewArxivClient(retrieval.WithArxivBaseURL(server.URL))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			client.Fetch(context.Background(), "aspirin", 1)
		}()
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	if maxInFlight != 1 {
		t.Errorf("requests should be serialized by the fetch lock, saw %d in flight", maxInFlight)
	}
}
