package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/scriptindex/scriptindex/internal/errs"
)

// fakeEmbeddingServer mimics the OpenAI embeddings endpoint: deterministic
// 3-dimensional vectors, tracking the number of requests received.
func fakeEmbeddingServer(t *testing.T, counter *atomic.Int64) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		counter.Add(1)

		var body struct {
			Input interface{} `json:"input"`
			Model string      `json:"model"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}

		var texts []string
		switch v := body.Input.(type) {
		case string:
			texts = []string{v}
		case []interface{}:
			for _, item := range v {
				texts = append(texts, item.(string))
			}
		}

		data := make([]map[string]interface{}, len(texts))
		for i := range texts {
			data[i] = map[string]interface{}{
				"object":    "embedding",
				"index":     i,
				"embedding": []float64{0.1, 0.2, 0.3},
			}
		}

		resp := map[string]interface{}{
			"object": "list",
			"data":   data,
			"model":  body.Model,
			"usage": map[string]int{
				"prompt_tokens": len(texts) * 4,
				"total_tokens":  len(texts) * 4,
			},
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

// failThenSucceedServer returns status on the first failCount requests, then
// delegates to fakeEmbeddingServer's response shape.
func failThenSucceedServer(t *testing.T, counter *atomic.Int64, failCount int64, status int) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := counter.Add(1)

		if n <= failCount {
			http.Error(w, "upstream error", status)
			return
		}

		var body struct {
			Input interface{} `json:"input"`
			Model string      `json:"model"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}

		var texts []string
		switch v := body.Input.(type) {
		case string:
			texts = []string{v}
		case []interface{}:
			for _, item := range v {
				texts = append(texts, item.(string))
			}
		}

		data := make([]map[string]interface{}, len(texts))
		for i := range texts {
			data[i] = map[string]interface{}{
				"object":    "embedding",
				"index":     i,
				"embedding": []float64{0.1, 0.2, 0.3},
			}
		}

		resp := map[string]interface{}{
			"object": "list",
			"data":   data,
			"model":  body.Model,
			"usage":  map[string]int{"prompt_tokens": len(texts) * 4, "total_tokens": len(texts) * 4},
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()

	c, err := New("test-key", "test-model", 0, WithBaseURL(baseURL))
	require.NoError(t, err)
	return c
}

func TestClient_New_RejectsEmptyAPIKey(t *testing.T) {
	_, err := New("", "test-model", 0)
	require.Error(t, err)
	require.IsType(t, &errs.ConfigError{}, err)
}

func TestClient_Embed_RejectsEmptyText(t *testing.T) {
	c := newTestClient(t, "http://unused.invalid")

	_, err := c.Embed(context.Background(), "   ")
	require.Error(t, err)
	require.IsType(t, &errs.InvalidInput{}, err)
}

func TestClient_EmbedBatch_Empty(t *testing.T) {
	var counter atomic.Int64
	srv := fakeEmbeddingServer(t, &counter)
	defer srv.Close()

	c := newTestClient(t, srv.URL)

	results, err := c.EmbedBatch(context.Background(), []string{})
	require.NoError(t, err)
	require.Empty(t, results)
	require.Equal(t, int64(0), counter.Load(), "no HTTP request for empty input")
}

func TestClient_Embed_Single(t *testing.T) {
	var counter atomic.Int64
	srv := fakeEmbeddingServer(t, &counter)
	defer srv.Close()

	c := newTestClient(t, srv.URL)

	result, err := c.Embed(context.Background(), "hello")
	require.NoError(t, err)
	require.Len(t, result.Vector, 3)
	require.InDelta(t, 0.1, result.Vector[0], 1e-6)
	require.Equal(t, int64(1), counter.Load(), "single text should be one request")
}

func TestClient_EmbedBatch_WithinLimit(t *testing.T) {
	var counter atomic.Int64
	srv := fakeEmbeddingServer(t, &counter)
	defer srv.Close()

	c := newTestClient(t, srv.URL)

	texts := make([]string, batchMax)
	for i := range texts {
		texts[i] = "text"
	}

	results, err := c.EmbedBatch(context.Background(), texts)
	require.NoError(t, err)
	require.Len(t, results, batchMax)
	require.Equal(t, int64(1), counter.Load(), "a full single batch should be one request")
}

func TestClient_EmbedBatch_SplitsOverLimit(t *testing.T) {
	var counter atomic.Int64
	srv := fakeEmbeddingServer(t, &counter)
	defer srv.Close()

	c := newTestClient(t, srv.URL)

	texts := make([]string, batchMax*2+3)
	for i := range texts {
		texts[i] = "text"
	}

	results, err := c.EmbedBatch(context.Background(), texts)
	require.NoError(t, err)
	require.Len(t, results, len(texts))
	require.Equal(t, int64(3), counter.Load(), "3 chunks dispatched concurrently")
}

func TestClient_EmbedBatch_AggregatesUsage(t *testing.T) {
	var counter atomic.Int64
	srv := fakeEmbeddingServer(t, &counter)
	defer srv.Close()

	c := newTestClient(t, srv.URL)

	texts := []string{"a", "b", "c"}
	results, err := c.EmbedBatch(context.Background(), texts)
	require.NoError(t, err)
	require.Len(t, results, 3)

	total := 0
	for _, r := range results {
		total += r.Tokens
	}
	require.Equal(t, 12, total, "total_tokens for 3 texts * 4 tokens each")
}

func TestClient_Embed_CancelledContext(t *testing.T) {
	var counter atomic.Int64
	srv := fakeEmbeddingServer(t, &counter)
	defer srv.Close()

	c := newTestClient(t, srv.URL)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Embed(ctx, "hello")
	require.Error(t, err)
}

func TestClient_EmbedBatch_RetriesOnRateLimit(t *testing.T) {
	var counter atomic.Int64
	srv := failThenSucceedServer(t, &counter, 2, http.StatusTooManyRequests)
	defer srv.Close()

	c := newTestClient(t, srv.URL)

	results, err := c.EmbedBatch(context.Background(), []string{"hello", "world"})
	require.NoError(t, err)
	require.Len(t, results, 2)
	require.Equal(t, int64(3), counter.Load(), "should retry twice on 429 then succeed")
}

func TestClient_EmbedBatch_ExhaustsRetriesOnPersistentRateLimit(t *testing.T) {
	var counter atomic.Int64
	srv := failThenSucceedServer(t, &counter, 1000, http.StatusTooManyRequests)
	defer srv.Close()

	c := newTestClient(t, srv.URL)

	_, err := c.EmbedBatch(context.Background(), []string{"hello"})
	require.Error(t, err)
	require.IsType(t, &errs.EmbeddingError{}, err)
	require.Equal(t, int64(3), counter.Load(), "exactly 3 attempts on persistent 429s, not 4")
}

func TestClient_EmbedBatch_DoesNotRetryOnServerError(t *testing.T) {
	var counter atomic.Int64
	srv := failThenSucceedServer(t, &counter, 1, http.StatusInternalServerError)
	defer srv.Close()

	c := newTestClient(t, srv.URL)

	_, err := c.EmbedBatch(context.Background(), []string{"hello"})
	require.Error(t, err)
	require.IsType(t, &errs.EmbeddingError{}, err)
	require.Equal(t, int64(1), counter.Load(), "500 responses are not retried")
}
