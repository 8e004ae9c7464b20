package retrieval

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"
)

const (
	fetchPath       = "/api/fetchMedia"
	retryBaseDelay  = 500 * time.Millisecond
	defaultRetries  = 2
	defaultTimeout  = 30 * time.Second
	bodyPreviewSize = 500
)

// Client fetches passages from both retrieval configurations.
type Client struct {
	originalURL string
	rerankedURL string
	httpClient  *http.Client
	topK        int
	retries     int
	retryBase   time.Duration
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

func WithTopK(k int) Option {
	return func(c *Client) {
		if k > 0 {
			c.topK = k
		}
	}
}

func WithRetries(n int) Option {
	return func(c *Client) {
		if n >= 0 {
			c.retries = n
		}
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

func NewClient(originalURL, rerankedURL string, opts ...Option) *Client {
	c := &Client{
		originalURL: strings.TrimRight(strings.TrimSpace(originalURL), "/"),
		rerankedURL: strings.TrimRight(strings.TrimSpace(rerankedURL), "/"),
		httpClient:  &http.Client{Timeout: defaultTimeout},
		topK:        10,
		retries:     defaultRetries,
		retryBase:   retryBaseDelay,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

type fetchRequest struct {
	Prompt       string   `json:"prompt"`
	TopK         int      `json:"topK"`
	FolderIDs    []string `json:"folderIds"`
	UniqueTitles []string `json:"uniqueTitles"`
}

// Fetch queries one variant endpoint for the given prompt. Transport
// failures are retried with exponential backoff; non-2xx responses are
// returned as errors without retry.
func (c *Client) Fetch(ctx context.Context, variant Variant, prompt string, scope Scope) (*SystemResult, error) {
	if c == nil {
		return nil, fmt.Errorf("retrieval: nil client")
	}
	if ctx == nil {
		return nil, fmt.Errorf("retrieval: nil context")
	}

	base, err := c.baseURL(variant)
	if err != nil {
		return nil, err
	}

	req := fetchRequest{
		Prompt:       prompt,
		TopK:         c.topK,
		FolderIDs:    scope.FolderIDs,
		UniqueTitles: scope.UniqueTitles,
	}
	if req.FolderIDs == nil {
		req.FolderIDs = []string{}
	}
	if req.UniqueTitles == nil {
		req.UniqueTitles = []string{}
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("retrieval: marshal request: %w", err)
	}

	start := time.Now()
	body, err := c.post(ctx, base+fetchPath, payload)
	if err != nil {
		return nil, fmt.Errorf("retrieval: %s: %w", variant, err)
	}

	passages, seenKeys, err := extractPassages(body)
	if err != nil {
		return nil, fmt.Errorf("retrieval: %s: decode response: %w", variant, err)
	}
	if len(passages) == 0 && len(seenKeys) > 0 {
		log.Printf("retrieval: %s: no passage list in response, keys seen: %v", variant, seenKeys)
	}

	return &SystemResult{
		Variant:   variant,
		Passages:  passages,
		ElapsedMs: time.Since(start).Milliseconds(),
	}, nil
}

// FetchBoth queries both variants concurrently. Per-variant failures
// land in the result's Err field so one side can succeed alone.
func (c *Client) FetchBoth(ctx context.Context, prompt string, scope Scope) (map[Variant]*SystemResult, error) {
	if c == nil {
		return nil, fmt.Errorf("retrieval: nil client")
	}

	variants := []Variant{VariantOriginal, VariantReranked}
	results := make(map[Variant]*SystemResult, len(variants))

	var mu sync.Mutex
	var wg sync.WaitGroup
	for _, v := range variants {
		wg.Add(1)
		go func(v Variant) {
			defer wg.Done()
			res, err := c.Fetch(ctx, v, prompt, scope)
			if err != nil {
				res = &SystemResult{Variant: v, Err: err}
			}
			mu.Lock()
			results[v] = res
			mu.Unlock()
		}(v)
	}
	wg.Wait()

	return results, nil
}

func (c *Client) baseURL(variant Variant) (string, error) {
	switch variant {
	case VariantOriginal:
		if c.originalURL == "" {
			return "", fmt.Errorf("retrieval: original URL not configured")
		}
		return c.originalURL, nil
	case VariantReranked:
		if c.rerankedURL == "" {
			return "", fmt.Errorf("retrieval: reranked URL not configured")
		}
		return c.rerankedURL, nil
	default:
		return "", fmt.Errorf("retrieval: unknown variant %q", variant)
	}
}

func (c *Client) post(ctx context.Context, url string, payload []byte) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			if err := sleepWithContext(ctx, c.retryBase*time.Duration(1<<(attempt-1))); err != nil {
				return nil, err
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			lastErr = readErr
			continue
		}

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return nil, fmt.Errorf("status %d: %s", resp.StatusCode, bodyPreview(body))
		}
		return body, nil
	}
	return nil, fmt.Errorf("after %d attempts: %w", c.retries+1, lastErr)
}

func bodyPreview(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > bodyPreviewSize {
		return s[:bodyPreviewSize]
	}
	return s
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
