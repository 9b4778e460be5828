package serp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"
)

const (
	serperEndpoint  = "https://google.serper.dev/search"
	serpAPIEndpoint = "https://serpapi.com/search"

	maxProviderRetries = 3
	maxResultsPerQuery = 100
)

// Provider returns ranked organic results for a keyword
type Provider interface {
	Search(ctx context.Context, keyword string) ([]Result, error)
	Name() string
}

// Query carries the locale pair and result count shared by all providers
type Query struct {
	GL   string
	HL   string
	TopN int
}

// SerperClient queries the serper.dev search API
type SerperClient struct {
	apiKey string
	query  Query
	client *http.Client
}

// NewSerperClient creates a serper.dev client using the shared HTTP client
func NewSerperClient(apiKey string, query Query, client *http.Client) *SerperClient {
	return &SerperClient{apiKey: apiKey, query: query, client: client}
}

func (c *SerperClient) Name() string { return "serper" }

// Search posts the keyword to serper.dev and maps the organic block to results
func (c *SerperClient) Search(ctx context.Context, keyword string) ([]Result, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("SERPER_API_KEY not set")
	}

	payload, err := json.Marshal(map[string]any{
		"q":   keyword,
		"num": capResults(c.query.TopN),
		"gl":  c.query.GL,
		"hl":  c.query.HL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode serper payload: %w", err)
	}

	body, err := doWithRetry(ctx, c.client, func() (*http.Request, error) {
		req, reqErr := http.NewRequestWithContext(ctx, http.MethodPost, serperEndpoint, bytes.NewReader(payload))
		if reqErr != nil {
			return nil, reqErr
		}
		req.Header.Set("X-API-KEY", c.apiKey)
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	})
	if err != nil {
		return nil, fmt.Errorf("serper request failed: %w", err)
	}

	var parsed struct {
		Organic []struct {
			Title   string `json:"title"`
			Link    string `json:"link"`
			Snippet string `json:"snippet"`
		} `json:"organic"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse serper response: %w", err)
	}

	items := make([]Result, 0, len(parsed.Organic))
	for _, r := range parsed.Organic {
		if r.Link == "" {
			continue
		}
		items = append(items, Result{
			Position: len(items) + 1,
			Title:    r.Title,
			URL:      r.Link,
			Domain:   Domain(r.Link),
			Snippet:  r.Snippet,
		})
		if len(items) >= c.query.TopN {
			break
		}
	}
	return items, nil
}

// SerpAPIClient queries the SerpAPI google engine
type SerpAPIClient struct {
	apiKey string
	query  Query
	client *http.Client
}

// NewSerpAPIClient creates a SerpAPI client using the shared HTTP client
func NewSerpAPIClient(apiKey string, query Query, client *http.Client) *SerpAPIClient {
	return &SerpAPIClient{apiKey: apiKey, query: query, client: client}
}

func (c *SerpAPIClient) Name() string { return "serpapi" }

// Search queries SerpAPI. An unset key yields an empty result set, not an
// error, so the fallback chain degrades quietly when only one key exists.
func (c *SerpAPIClient) Search(ctx context.Context, keyword string) ([]Result, error) {
	if c.apiKey == "" {
		return []Result{}, nil
	}

	params := url.Values{}
	params.Set("engine", "google")
	params.Set("api_key", c.apiKey)
	params.Set("q", keyword)
	params.Set("num", strconv.Itoa(capResults(c.query.TopN)))
	params.Set("gl", c.query.GL)
	params.Set("hl", c.query.HL)
	endpoint := serpAPIEndpoint + "?" + params.Encode()

	body, err := doWithRetry(ctx, c.client, func() (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	})
	if err != nil {
		return nil, fmt.Errorf("serpapi request failed: %w", err)
	}

	var parsed struct {
		OrganicResults []struct {
			Title   string `json:"title"`
			Link    string `json:"link"`
			Snippet string `json:"snippet"`
		} `json:"organic_results"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse serpapi response: %w", err)
	}

	items := make([]Result, 0, len(parsed.OrganicResults))
	for _, r := range parsed.OrganicResults {
		if r.Link == "" {
			continue
		}
		items = append(items, Result{
			Position: len(items) + 1,
			Title:    r.Title,
			URL:      r.Link,
			Domain:   Domain(r.Link),
			Snippet:  r.Snippet,
		})
		if len(items) >= c.query.TopN {
			break
		}
	}
	return items, nil
}

// Fallback tries the primary provider, then the secondary exactly once.
// Total failure is downgraded to an empty result list: a keyword that
// cannot be queried degrades coverage, never the run.
type Fallback struct {
	Primary   Provider
	Secondary Provider
}

func (f *Fallback) Name() string { return "fallback" }

// Search implements the primary/secondary retry policy
func (f *Fallback) Search(ctx context.Context, keyword string) ([]Result, error) {
	items, err := f.Primary.Search(ctx, keyword)
	if err == nil {
		return items, nil
	}
	logrus.Warnf("%s failed for %q: %v; trying %s", f.Primary.Name(), keyword, err, f.Secondary.Name())

	items, err = f.Secondary.Search(ctx, keyword)
	if err != nil {
		logrus.Warnf("%s failed for %q: %v; no results for this keyword", f.Secondary.Name(), keyword, err)
		return []Result{}, nil
	}
	return items, nil
}

// doWithRetry executes the request with bounded exponential backoff on
// network errors and transient 429/5xx statuses. Other non-200 statuses
// are permanent failures.
func doWithRetry(ctx context.Context, client *http.Client, build func() (*http.Request, error)) ([]byte, error) {
	var body []byte

	operation := func() error {
		req, err := build()
		if err != nil {
			return backoff.Permanent(err)
		}

		resp, err := client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
			return fmt.Errorf("transient status %d", resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			return backoff.Permanent(fmt.Errorf("unexpected status %d", resp.StatusCode))
		}

		body = data
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 300 * time.Millisecond

	policy := backoff.WithContext(backoff.WithMaxRetries(bo, maxProviderRetries), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return nil, err
	}
	return body, nil
}

func capResults(n int) int {
	if n > maxResultsPerQuery {
		return maxResultsPerQuery
	}
	return n
}
