// Package searchhttp is a small Go SDK for searchd's HTTP API, the
// search-core counterpart of the teacher's internal/client package: it
// hides HTTP request construction, JSON encoding, and status-code
// checking behind a couple of typed methods, used by cmd/searchctl.
package searchhttp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Client talks to one searchd instance.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a new Client. timeout protects every call from hanging
// forever — never call a network endpoint without one.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		// Bang redirects point at a third-party engine; this SDK reports
		// the target URL rather than silently fetching it.
		httpClient: &http.Client{
			Timeout:       timeout,
			CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse },
		},
	}
}

// SearchResponse is the decoded body of a /search call.
type SearchResponse struct {
	Query        string           `json:"query"`
	Page         int              `json:"page"`
	NumResults   int              `json:"num_results"`
	NumHits      uint64           `json:"num_hits"`
	HasMorePages bool             `json:"has_more_pages"`
	Webpages     []WebpageSummary `json:"webpages"`
}

// WebpageSummary mirrors index.RetrievedWebpage's JSON shape — kept
// separate so this package never imports internal/index.
type WebpageSummary struct {
	Title   string `json:"Title"`
	URL     string `json:"URL"`
	Snippet string `json:"Snippet"`
}

// SearchOptions are the optional query parameters a search call may set.
type SearchOptions struct {
	Page  int
	Num   int
	Optic string
}

// Search runs one query against searchd's /search endpoint.
func (c *Client) Search(ctx context.Context, query string, opts SearchOptions) (*SearchResponse, error) {
	q := url.Values{}
	q.Set("q", query)
	if opts.Page > 0 {
		q.Set("page", strconv.Itoa(opts.Page))
	}
	if opts.Num > 0 {
		q.Set("num", strconv.Itoa(opts.Num))
	}
	if opts.Optic != "" {
		q.Set("optic", opts.Optic)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/search?%s", c.baseURL, q.Encode()), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusFound {
		return &SearchResponse{Query: query, Webpages: []WebpageSummary{{URL: resp.Header.Get("Location")}}}, nil
	}
	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	var result SearchResponse
	return &result, json.NewDecoder(resp.Body).Decode(&result)
}

// SimilarHostsResult mirrors similarhosts.ScoredHost's JSON shape.
type SimilarHostsResult struct {
	Node struct {
		Host string `json:"Host"`
	} `json:"Node"`
	Score float64 `json:"Score"`
}

// SimilarHostsResponse is the decoded body of a /similar-hosts call.
type SimilarHostsResponse struct {
	SeedHosts []string             `json:"seed_hosts"`
	Results   []SimilarHostsResult `json:"results"`
}

// SimilarHosts finds hosts whose backlink profile resembles seedHosts.
func (c *Client) SimilarHosts(ctx context.Context, seedHosts []string, limit int) (*SimilarHostsResponse, error) {
	q := url.Values{}
	for _, h := range seedHosts {
		q.Add("host", h)
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/similar-hosts?%s", c.baseURL, q.Encode()), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("similar-hosts request failed: %w", err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return nil, err
	}
	var result SimilarHostsResponse
	return &result, json.NewDecoder(resp.Body).Decode(&result)
}

// Health reports whether searchd answers its health check.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return checkStatus(resp)
}

// APIError carries the HTTP status and the error message from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.Status, e.Message)
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	body, _ := io.ReadAll(resp.Body)
	var apiErr struct {
		Error string `json:"error"`
	}
	_ = json.Unmarshal(body, &apiErr)
	msg := apiErr.Error
	if msg == "" {
		msg = string(body)
	}
	return &APIError{Status: resp.StatusCode, Message: msg}
}
