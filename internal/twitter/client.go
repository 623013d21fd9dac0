package twitter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"sentiment-producer/internal/config"
	"sentiment-producer/internal/model"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const maxErrorBody = 1 << 10

// SearchRequest is the fixed query issued every poll cycle.
type SearchRequest struct {
	Query  string
	Fields []string
	token  string
}

// NewSearchRequest builds the request once at startup. An empty token is rejected
// with config.ErrMissingBearerToken so no request can ever be sent without one.
func NewSearchRequest(query string, fields []string, token string) (SearchRequest, error) {
	if strings.TrimSpace(token) == "" {
		return SearchRequest{}, config.ErrMissingBearerToken
	}
	return SearchRequest{
		Query:  query,
		Fields: append([]string(nil), fields...),
		token:  token,
	}, nil
}

// Validate reports config.ErrMissingBearerToken for a request built without NewSearchRequest.
func (r SearchRequest) Validate() error {
	if r.token == "" {
		return config.ErrMissingBearerToken
	}
	return nil
}

// Values returns the URL query parameters for the request.
func (r SearchRequest) Values() url.Values {
	q := url.Values{"query": {r.Query}}
	if len(r.Fields) > 0 {
		q.Set("tweet.fields", strings.Join(r.Fields, ","))
	}
	return q
}

// StatusError is returned when the search API answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("twitter: search status %d: %s", e.StatusCode, e.Body)
}

// Client is a minimal client for the v2 recent-search endpoint.
// Docs: https://developer.x.com/en/docs/x-api/tweets/search/api-reference/get-tweets-search-recent
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a search client. baseURL should be like "https://api.twitter.com/2".
// A zero timeout leaves the transport default in place.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = config.DefaultSearchBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// SearchRecent fetches one page of recent posts matching req.
// API: GET /tweets/search/recent?query={query}&tweet.fields={fields}
func (c *Client) SearchRecent(ctx context.Context, req SearchRequest) (model.SearchResult, error) {
	var zero model.SearchResult
	if err := req.Validate(); err != nil {
		return zero, err
	}
	endpoint := c.baseURL + "/tweets/search/recent?" + req.Values().Encode()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return zero, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+req.token)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return zero, fmt.Errorf("twitter: search request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return zero, &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}
	var res model.SearchResult
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return zero, fmt.Errorf("twitter: decode search response: %w", err)
	}
	return res, nil
}
