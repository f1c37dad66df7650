// Package issuetracker fetches single issues from an external tracker
// over HTTP.
package issuetracker

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"taskmaster/internal/apperr"
)

// DefaultTimeout bounds a single fetch when Config.Timeout is zero.
const DefaultTimeout = 10 * time.Second

// maxBodySize caps how much of an issue payload is read.
const maxBodySize = 1 << 20

// maxNumberLen matches the issue_links.issue_number column.
const maxNumberLen = 64

type Config struct {
	// HTTPClient is used for all requests. Defaults to a client with no
	// timeout of its own; Timeout below applies per request.
	HTTPClient *http.Client

	// Timeout bounds each fetch, including reading the body.
	Timeout time.Duration

	// Token is sent as a bearer token, but only to requests whose host
	// matches BaseURL. Without a BaseURL it is never sent.
	Token string

	// BaseURL is the tracker's API root, e.g. "https://api.github.com".
	BaseURL string

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Issue is the tracker's view of an issue.
type Issue struct {
	Number    string
	Title     string
	State     string
	CreatedAt time.Time
	UpdatedAt *time.Time
}

type Client struct {
	httpClient *http.Client
	timeout    time.Duration
	token      string
	tokenHost  string
	logger     *slog.Logger
}

func NewClient(config Config) *Client {
	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		httpClient: httpClient,
		timeout:    timeout,
		token:      config.Token,
		tokenHost:  baseHost(config.BaseURL),
		logger:     logger,
	}
}

// FetchIssue issues one GET against issueURL. Errors unwrap to
// apperr.ErrRateLimited or apperr.ErrUpstreamFetchFailed. Nothing is
// retried.
func (c *Client) FetchIssue(ctx context.Context, issueURL string) (*Issue, error) {
	parsed, err := url.Parse(issueURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return nil, fmt.Errorf("%w: invalid issue URL %q", apperr.ErrUpstreamFetchFailed, issueURL)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, parsed.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperr.ErrUpstreamFetchFailed, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "taskmaster")
	if c.token != "" && c.tokenHost != "" && strings.EqualFold(parsed.Host, c.tokenHost) {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("issue fetch failed", "url", issueURL, "error", err)
		return nil, fmt.Errorf("%w: GET %s: %w", apperr.ErrUpstreamFetchFailed, issueURL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("%w: reading response body: %w", apperr.ErrUpstreamFetchFailed, err)
	}

	if isRateLimited(resp) {
		rlErr := &RateLimitError{
			Remaining: resp.Header.Get("X-RateLimit-Remaining"),
			Reset:     parseReset(resp.Header.Get("X-RateLimit-Reset")),
		}
		c.logger.Warn("issue tracker rate limit exceeded", "url", issueURL, "reset", rlErr.Reset)
		return nil, rlErr
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: errorMessage(body)}
		c.logger.Error("issue tracker returned an error", "url", issueURL, "status", resp.StatusCode)
		return nil, apiErr
	}

	issue, err := decodeIssue(body)
	if err != nil {
		c.logger.Error("issue payload not understood", "url", issueURL, "error", err)
		return nil, fmt.Errorf("%w: %w", apperr.ErrUpstreamFetchFailed, err)
	}
	return issue, nil
}

// baseHost returns the host[:port] of baseURL, or "" when it is unusable.
func baseHost(baseURL string) string {
	parsed, err := url.Parse(baseURL)
	if err != nil || parsed.Host == "" {
		return ""
	}
	return parsed.Host
}

// wireIssue accepts both snake_case and camelCase timestamps and a
// number sent either as a string or as a JSON number.
type wireIssue struct {
	Number         flexString `json:"number"`
	Title          string     `json:"title"`
	State          string     `json:"state"`
	CreatedAt      *time.Time `json:"created_at"`
	CreatedAtCamel *time.Time `json:"createdAt"`
	UpdatedAt      *time.Time `json:"updated_at"`
	UpdatedAtCamel *time.Time `json:"updatedAt"`
}

func decodeIssue(body []byte) (*Issue, error) {
	var wire wireIssue
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, fmt.Errorf("decoding issue: %w", err)
	}
	if wire.Number == "" {
		return nil, fmt.Errorf("decoding issue: missing number")
	}
	if len(wire.Number) > maxNumberLen {
		return nil, fmt.Errorf("decoding issue: number longer than %d bytes", maxNumberLen)
	}

	issue := &Issue{
		Number:    string(wire.Number),
		Title:     wire.Title,
		State:     wire.State,
		UpdatedAt: firstTime(wire.UpdatedAt, wire.UpdatedAtCamel),
	}
	if created := firstTime(wire.CreatedAt, wire.CreatedAtCamel); created != nil {
		issue.CreatedAt = *created
	}
	return issue, nil
}

func firstTime(candidates ...*time.Time) *time.Time {
	for _, t := range candidates {
		if t != nil {
			return t
		}
	}
	return nil
}

type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		*f = ""
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	if _, err := strconv.ParseFloat(raw, 64); err != nil {
		return fmt.Errorf("number: unexpected value %s", raw)
	}
	*f = flexString(raw)
	return nil
}

func parseReset(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	unix, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.Unix(unix, 0)
}

func errorMessage(body []byte) string {
	var wire struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &wire) == nil && wire.Message != "" {
		return wire.Message
	}
	msg := strings.TrimSpace(string(body))
	if len(msg) > 200 {
		msg = msg[:200]
	}
	return msg
}
