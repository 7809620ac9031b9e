package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/pauljones0/graph-feed-export/internal/config"
	"github.com/pauljones0/graph-feed-export/internal/models"
	"github.com/pauljones0/graph-feed-export/internal/util"
)

// maxErrorBody bounds how much of a failed response is read for diagnostics.
const maxErrorBody = 64 << 10

// ErrUntrustedCursor is returned when a paging cursor points outside the
// configured API host.
var ErrUntrustedCursor = errors.New("untrusted paging cursor")

// StatusError reports a non-2xx response.
type StatusError struct {
	StatusCode int
	Graph      *models.GraphError
}

func (e *StatusError) Error() string {
	if e.Graph != nil && e.Graph.Error.Message != "" {
		return fmt.Sprintf("status code %d: %s (type=%s code=%d)", e.StatusCode, e.Graph.Error.Message, e.Graph.Error.Type, e.Graph.Error.Code)
	}
	return fmt.Sprintf("status code %d", e.StatusCode)
}

type Fetcher interface {
	Fetch(ctx context.Context) (models.FetchResult, error)
}

type Client struct {
	httpClient  *http.Client
	config      *config.Config
	fields      string
	logger      *slog.Logger
	rateLimiter *rate.Limiter
	sleep       func(ctx context.Context, d time.Duration) error
}

func New(cfg *config.Config, fields string, logger *slog.Logger) *Client {
	limit := rate.Inf
	if cfg.MaxRequestsPerSecond > 0 {
		limit = rate.Limit(cfg.MaxRequestsPerSecond)
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.HTTPTimeout,
		},
		config:      cfg,
		fields:      fields,
		logger:      logger,
		rateLimiter: rate.NewLimiter(limit, 1),
		sleep:       util.Sleep,
	}
}

// Fetch walks the group feed from the first page until the API stops
// returning a next cursor.
//
// Failed requests are retried against the same target with a doubling delay.
// Once more than MaxRetries consecutive attempts have failed, Fetch gives up
// and returns what it has collected so far with a nil error and
// Complete=false. Only context cancellation produces an error, and the
// posts gathered up to that point are still returned.
func (c *Client) Fetch(ctx context.Context) (models.FetchResult, error) {
	var result models.FetchResult

	target := c.config.FeedURL()
	params := url.Values{}
	params.Set("access_token", c.config.AccessToken)
	params.Set("fields", c.fields)
	params.Set("limit", strconv.Itoa(c.config.PageLimit))

	backoff := util.NewBackoff(c.config.InitialDelay, c.config.MaxDelay)
	retries := 0

	for {
		result.Requests++
		page, err := c.fetchPage(ctx, target, params)
		if err != nil {
			if ctx.Err() != nil {
				return result, ctx.Err()
			}
			result.Failures++
			retries++
			c.logger.Error("Request failed", "url", util.RedactURL(target), "attempt", retries, "error", err)
			if retries > c.config.MaxRetries {
				c.logger.Error("Max retries reached. Stopping with partial results.", "posts", len(result.Posts), "max_retries", c.config.MaxRetries)
				return result, nil
			}
			delay := backoff.Next()
			c.logger.Info("Retrying", "delay", delay)
			if err := c.sleep(ctx, delay); err != nil {
				return result, err
			}
			continue
		}

		result.Pages++
		result.Posts = append(result.Posts, page.Data...)
		c.logger.Info("Fetched posts", "page", result.Pages, "count", len(page.Data), "total", len(result.Posts))

		next := page.NextURL()
		if next == "" {
			result.Complete = true
			return result, nil
		}

		// The cursor URL already carries every query parameter.
		target = next
		params = nil
		backoff.Reset()
		retries = 0

		if err := c.sleep(ctx, backoff.Current()); err != nil {
			return result, err
		}
	}
}

func (c *Client) fetchPage(ctx context.Context, target string, params url.Values) (*models.FeedPage, error) {
	reqURL, err := c.buildURL(target, params)
	if err != nil {
		return nil, err
	}

	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		// The transport error embeds the full URL, token included.
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			return nil, fmt.Errorf("failed to fetch page: %w", urlErr.Err)
		}
		return nil, fmt.Errorf("failed to fetch page: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		statusErr := &StatusError{StatusCode: res.StatusCode}
		body, _ := io.ReadAll(io.LimitReader(res.Body, maxErrorBody))
		var graphErr models.GraphError
		if json.Unmarshal(body, &graphErr) == nil && graphErr.Error.Message != "" {
			statusErr.Graph = &graphErr
		}
		return nil, statusErr
	}

	var page models.FeedPage
	if err := json.NewDecoder(res.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("failed to decode feed page: %w", err)
	}
	return &page, nil
}

// buildURL merges params into target after checking that target is an
// http(s) URL on the configured API host. Cursors carry the access token, so
// they must not be followed anywhere else.
func (c *Client) buildURL(target string, params url.Values) (string, error) {
	parsedURL, err := url.Parse(target)
	if err != nil {
		return "", fmt.Errorf("%w: unparsable URL", ErrUntrustedCursor)
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return "", fmt.Errorf("%w: scheme %q", ErrUntrustedCursor, parsedURL.Scheme)
	}

	base, err := url.Parse(c.config.GraphBaseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base URL: %w", err)
	}
	if parsedURL.Host != base.Host {
		return "", fmt.Errorf("%w: host %s is not %s", ErrUntrustedCursor, parsedURL.Host, base.Host)
	}

	if len(params) == 0 {
		return target, nil
	}
	q := parsedURL.Query()
	for k, vs := range params {
		for _, v := range vs {
			q.Set(k, v)
		}
	}
	parsedURL.RawQuery = q.Encode()
	return parsedURL.String(), nil
}
