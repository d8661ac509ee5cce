// Package embedding calls a remote embedding service for single and
// batched text-to-vector conversion.
package embedding

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/scriptindex/scriptindex/internal/errs"
)

const batchMax = 10

const (
	retryBase    = 1 * time.Second
	retryFactor  = 2.0
	retryAttempts = 3
)

// Result is the outcome of embedding a single text.
type Result struct {
	Vector []float64
	Tokens int
	Model  string
}

// Client embeds text through a remote, OpenAI-compatible embedding
// service. It is stateless across calls apart from its configured API key,
// model, and dimension.
type Client struct {
	client     *openai.Client
	model      string
	dimensions int
}

// Option configures a Client.
type Option func(*openai.ClientConfig)

// WithBaseURL overrides the embedding service's base URL, for use against
// OpenAI-compatible gateways or in tests.
func WithBaseURL(url string) Option {
	return func(cfg *openai.ClientConfig) { cfg.BaseURL = url }
}

// New constructs a Client. apiKey must be non-empty; dimensions of 0 means
// the service's default dimensionality for the model is used.
func New(apiKey, model string, dimensions int, opts ...Option) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errs.NewConfigError("embedding client requires a non-empty API key")
	}

	cfg := openai.DefaultConfig(apiKey)
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Client{
		client:     openai.NewClientWithConfig(cfg),
		model:      model,
		dimensions: dimensions,
	}, nil
}

// Embed embeds a single string. Empty or whitespace-only input is rejected
// with InvalidInput before any network call is made.
func (c *Client) Embed(ctx context.Context, text string) (Result, error) {
	if strings.TrimSpace(text) == "" {
		return Result{}, errs.NewInvalidInput("text", "must not be empty")
	}

	results, err := c.EmbedBatch(ctx, []string{text})
	if err != nil {
		return Result{}, err
	}
	return results[0], nil
}

// EmbedBatch embeds a sequence of texts, preserving input order. An empty
// input returns an empty sequence without a network call. Batches larger
// than the service's per-request maximum are split and dispatched
// concurrently, then reassembled in the original order.
func (c *Client) EmbedBatch(ctx context.Context, texts []string) ([]Result, error) {
	if len(texts) == 0 {
		return []Result{}, nil
	}

	if len(texts) <= batchMax {
		return c.embedChunk(ctx, texts)
	}

	chunks := partition(texts, batchMax)
	results := make([][]Result, len(chunks))
	errsPerChunk := make([]error, len(chunks))

	var wg sync.WaitGroup
	for i, chunk := range chunks {
		wg.Add(1)
		go func(idx int, chunk []string) {
			defer wg.Done()
			r, err := c.embedChunk(ctx, chunk)
			results[idx] = r
			errsPerChunk[idx] = err
		}(i, chunk)
	}
	wg.Wait()

	out := make([]Result, 0, len(texts))
	for i, err := range errsPerChunk {
		if err != nil {
			return nil, err
		}
		out = append(out, results[i]...)
	}
	return out, nil
}

// embedChunk sends a single embedding request covering at most batchMax
// texts, applying the retry policy.
func (c *Client) embedChunk(ctx context.Context, texts []string) ([]Result, error) {
	req := openai.EmbeddingRequestStrings{
		Input: texts,
		Model: openai.EmbeddingModel(c.model),
	}
	if c.dimensions > 0 {
		req.Dimensions = c.dimensions
	}

	var resp openai.EmbeddingResponse
	err := withRetry(ctx, func() error {
		var callErr error
		resp, callErr = c.client.CreateEmbeddings(ctx, req)
		return callErr
	})
	if err != nil {
		return nil, errs.NewEmbeddingError("embed_batch", err)
	}

	totalTokens := resp.Usage.TotalTokens
	perText := totalTokens / len(texts)
	remainder := totalTokens - perText*len(texts)

	out := make([]Result, len(resp.Data))
	for i, d := range resp.Data {
		vec := make([]float64, len(d.Embedding))
		for j, v := range d.Embedding {
			vec[j] = float64(v)
		}
		tokens := perText
		if i == len(resp.Data)-1 {
			tokens += remainder
		}
		out[i] = Result{Vector: vec, Tokens: tokens, Model: c.model}
	}
	return out, nil
}

// partition splits texts into sub-slices of at most size entries.
func partition(texts []string, size int) [][]string {
	var chunks [][]string
	for i := 0; i < len(texts); i += size {
		end := min(i+size, len(texts))
		chunks = append(chunks, texts[i:end])
	}
	return chunks
}

// withRetry retries fn with exponential backoff on rate-limit (429) or
// transport errors, per the fixed retry policy: base 1s, factor 2, 3
// attempts. Other 4xx/5xx errors are not retried.
func withRetry(ctx context.Context, fn func() error) error {
	delay := retryBase
	var lastErr error

	for attempt := 0; attempt < retryAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}

		if !isRetryable(lastErr) {
			return lastErr
		}

		if attempt < retryAttempts-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
				delay = time.Duration(float64(delay) * retryFactor)
			}
		}
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

// isRetryable reports whether err is a transport-level error or a 429
// rate-limit response. Other 4xx/5xx responses are not retried.
func isRetryable(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == http.StatusTooManyRequests
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode == http.StatusTooManyRequests
	}
	return false
}
