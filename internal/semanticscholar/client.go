// Package semanticscholar implements the Graph API paper-search client.
// The client owns the retry discipline for rate limits and transient
// failures; callers receive either a decoded response or a classified
// *RequestError.
package semanticscholar

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultEndpoint is the Graph API paper search URL.
	DefaultEndpoint = "https://api.semanticscholar.org/graph/v1/paper/search"
	// DefaultFields is every paper attribute the collector consumes.
	DefaultFields = "abstract,authors,citationCount,citationStyles,title,url,venue,year"
	// DefaultTimeout bounds a single request.
	DefaultTimeout = 60 * time.Second

	maxAttempts    = 6
	initialBackoff = 5 * time.Second
	maxBackoff     = 60 * time.Second
)

// RetryKind tells the notifier why the client is waiting.
type RetryKind int

const (
	// RetryRateLimit: the service answered 429.
	RetryRateLimit RetryKind = iota
	// RetryTransient: 5xx, timeout or connection failure.
	RetryTransient
)

// RetryNotifier is informed before each retry wait.
type RetryNotifier interface {
	OnRetry(kind RetryKind, wait time.Duration, attempt, maxAttempts int)
}

// SearchParams shapes one paper-search request. Fields defaults to
// DefaultFields when empty; Year is the "YYYY-" publication lower bound
// and is omitted when empty.
type SearchParams struct {
	Query  string
	Fields string
	Offset int
	Limit  int
	Year   string
}

func (p SearchParams) values() url.Values {
	fields := p.Fields
	if fields == "" {
		fields = DefaultFields
	}
	v := url.Values{}
	v.Set("query", p.Query)
	v.Set("fields", fields)
	v.Set("offset", strconv.Itoa(p.Offset))
	v.Set("limit", strconv.Itoa(p.Limit))
	if p.Year != "" {
		v.Set("year", p.Year)
	}
	return v
}

// PaperAuthor is one author entry on a paper.
type PaperAuthor struct {
	AuthorID string `json:"authorId"`
	Name     string `json:"name"`
}

// CitationStyles carries the pre-rendered citation formats.
type CitationStyles struct {
	BibTeX *string `json:"bibtex"`
}

// Paper is one search result. Pointer fields distinguish absent values
// from zero values; the crawler applies its own defaults.
type Paper struct {
	Title          string          `json:"title"`
	Abstract       *string         `json:"abstract"`
	Venue          *string         `json:"venue"`
	Year           *int            `json:"year"`
	CitationCount  *int            `json:"citationCount"`
	URL            *string         `json:"url"`
	Authors        []PaperAuthor   `json:"authors"`
	CitationStyles *CitationStyles `json:"citationStyles"`
}

// SearchResponse is the decoded search payload. Data stays raw so a
// missing or malformed array degrades to an empty page instead of a
// failed request.
type SearchResponse struct {
	Total *int            `json:"total"`
	Data  json.RawMessage `json:"data"`
}

// Papers decodes the data array. ok is false when the field is missing,
// null or not an array; callers treat that as an empty page.
func (r *SearchResponse) Papers() ([]Paper, bool) {
	if len(r.Data) == 0 || bytes.Equal(bytes.TrimSpace(r.Data), []byte("null")) {
		return nil, false
	}
	var papers []Paper
	if err := json.Unmarshal(r.Data, &papers); err != nil {
		return nil, false
	}
	return papers, true
}

// Config carries the client settings. The zero value is usable: default
// endpoint, no API key, sixty-second timeout.
type Config struct {
	Endpoint   string
	APIKey     string
	Timeout    time.Duration
	HTTPClient *http.Client
	Notifier   RetryNotifier
}

// Client is a paper-search client with bounded retries. Safe for
// concurrent use.
type Client struct {
	httpClient *http.Client
	endpoint   string
	apiKey     string
	notifier   RetryNotifier

	// sleep overrides the retry wait in tests; nil means a
	// context-aware wait.
	sleep func(time.Duration)
}

// New builds a client from cfg, applying defaults for anything unset.
func New(cfg Config) *Client {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{
		httpClient: httpClient,
		endpoint:   endpoint,
		apiKey:     cfg.APIKey,
		notifier:   cfg.Notifier,
	}
}

// Search performs one paper search. 429 and 5xx responses retry up to
// six attempts with doubling backoff (5s start, 60s cap), honoring an
// integer Retry-After header; timeouts and connection errors retry the
// same way. Any other non-success status fails immediately. The retry
// notifier fires before each actual wait, never on the exhausted final
// attempt.
func (c *Client) Search(ctx context.Context, params SearchParams) (*SearchResponse, error) {
	backoff := initialBackoff

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		response, retry, err := c.attempt(ctx, params)
		if err == nil {
			return response, nil
		}
		if !retry.retryable || attempt == maxAttempts {
			return nil, err
		}

		wait := retry.wait
		if wait <= 0 {
			wait = backoff
		}
		if c.notifier != nil {
			c.notifier.OnRetry(retry.kind, wait, attempt, maxAttempts)
		}
		if waitErr := c.waitFor(ctx, wait); waitErr != nil {
			return nil, err
		}
		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}

	return nil, &RequestError{Kind: KindNetwork, Err: errors.New("retry attempts exhausted")}
}

type retryInfo struct {
	retryable bool
	kind      RetryKind
	wait      time.Duration
}

func (c *Client) attempt(ctx context.Context, params SearchParams) (*SearchResponse, retryInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+params.values().Encode(), nil)
	if err != nil {
		return nil, retryInfo{}, &RequestError{Kind: KindNetwork, Err: err}
	}
	if c.apiKey != "" {
		req.Header.Set("x-api-key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		kind := KindNetwork
		if isTimeout(err) {
			kind = KindTimeout
		}
		return nil, retryInfo{retryable: true, kind: RetryTransient}, &RequestError{Kind: kind, Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		var payload SearchResponse
		if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
			return nil, retryInfo{}, &RequestError{Kind: KindMalformed, Err: err}
		}
		return &payload, retryInfo{}, nil

	case resp.StatusCode == http.StatusTooManyRequests:
		info := retryInfo{retryable: true, kind: RetryRateLimit, wait: retryAfter(resp)}
		return nil, info, &RequestError{Kind: KindRateLimited, Status: resp.StatusCode}

	case resp.StatusCode >= 500:
		info := retryInfo{retryable: true, kind: RetryTransient, wait: retryAfter(resp)}
		return nil, info, &RequestError{Kind: KindUnavailable, Status: resp.StatusCode}

	default:
		return nil, retryInfo{}, &RequestError{Kind: KindHTTP, Status: resp.StatusCode}
	}
}

func (c *Client) waitFor(ctx context.Context, d time.Duration) error {
	if c.sleep != nil {
		c.sleep(d)
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

// retryAfter parses the Retry-After header as seconds. Fractions
// truncate; a missing, unparsable or negative value returns 0 so the
// caller falls back to its backoff.
func retryAfter(resp *http.Response) time.Duration {
	header := strings.TrimSpace(resp.Header.Get("Retry-After"))
	if header == "" {
		return 0
	}
	f, err := strconv.ParseFloat(header, 64)
	if err != nil || f < 0 {
		return 0
	}
	return time.Duration(int(f)) * time.Second
}

func isTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
