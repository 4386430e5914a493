package privatbank

import (
	"chat-exchange/contract"
	"chat-exchange/domain"
	"chat-exchange/errors"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

const DefaultBaseURL = "https://api.privatbank.ua/p24api/exchange_rates"

var _ contract.RateClient = (*Client)(nil)

type Config struct {
	BaseURL      string
	Timeout      time.Duration
	MaxRetries   int
	RetryBackoff time.Duration
}

// Client fetches the PrivatBank exchange rate archive, one date per request.
type Client struct {
	baseURL      string
	httpClient   *http.Client
	cache        contract.RateCache
	log          *slog.Logger
	timeout      time.Duration
	maxRetries   int
	retryBackoff time.Duration
	now          func() time.Time
}

// NewClient creates a client. cache may be nil to disable caching of past dates.
func NewClient(log *slog.Logger, httpClient *http.Client, config Config, cache contract.RateCache) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Second
	}
	return &Client{
		baseURL:      config.BaseURL,
		httpClient:   httpClient,
		cache:        cache,
		log:          log,
		timeout:      config.Timeout,
		maxRetries:   config.MaxRetries,
		retryBackoff: config.RetryBackoff,
		now:          time.Now,
	}
}

// Fetch retrieves the archive for a single date.
// It never returns an error out of band: any failure is carried by the result.
func (c *Client) Fetch(ctx context.Context, date time.Time) domain.FetchResult {
	body, cached := c.fromCache(date)
	if !cached {
		ctx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()

		var err error
		body, err = c.download(ctx, date)
		if err != nil {
			return domain.FetchResult{Date: date, Err: fmt.Errorf("fetch %s: %w", domain.FormatDate(date), err)}
		}
	}

	response, err := domain.ParseRateResponse(body)
	if err != nil {
		return domain.FetchResult{Date: date, Err: fmt.Errorf("decode %s: %w", domain.FormatDate(date), err)}
	}

	if !cached {
		c.toCache(date, body)
	}
	return domain.FetchResult{Date: date, Response: response}
}

func (c *Client) requestURL(date time.Time) (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base url: %w", err)
	}
	query := u.Query()
	query.Set("date", domain.FormatDate(date))
	u.RawQuery = query.Encode()
	return u.String(), nil
}

// download executes the request, retrying transport errors with a linear backoff.
func (c *Client) download(ctx context.Context, date time.Time) ([]byte, error) {
	reqURL, err := c.requestURL(date)
	if err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(attempt) * c.retryBackoff
			c.log.Debug("Retrying rate request", "date", domain.FormatDate(date), "attempt", attempt, "backoff", backoff)
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("%w (last error: %v)", ctx.Err(), lastErr)
			case <-time.After(backoff):
			}
		}

		body, retryable, err := c.do(ctx, reqURL)
		if err == nil {
			return body, nil
		}
		if !retryable {
			return nil, err
		}
		lastErr = err
	}
	return nil, fmt.Errorf("failed after %d attempts: %w", c.maxRetries+1, lastErr)
}

func (c *Client) do(ctx context.Context, reqURL string) ([]byte, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, ctx.Err() == nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.log.Debug("Error closing response body", "error", closeErr)
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, ctx.Err() == nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, resp.StatusCode >= http.StatusInternalServerError,
			fmt.Errorf("%w: %d", errors.ErrUpstreamStatus, resp.StatusCode)
	}
	return body, false, nil
}

// Only dates strictly before today are cached, today's archive may still change.
func (c *Client) cacheable(date time.Time) bool {
	if c.cache == nil {
		return false
	}
	now := c.now().In(date.Location())
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, date.Location())
	return date.Before(today)
}

func (c *Client) fromCache(date time.Time) ([]byte, bool) {
	if !c.cacheable(date) {
		return nil, false
	}
	body, ok, err := c.cache.Get(date)
	if err != nil {
		c.log.Warn("Rate cache read failed", "date", domain.FormatDate(date), "error", err)
		return nil, false
	}
	return body, ok
}

func (c *Client) toCache(date time.Time, body []byte) {
	if !c.cacheable(date) {
		return
	}
	if err := c.cache.Put(date, body); err != nil {
		c.log.Warn("Rate cache write failed", "date", domain.FormatDate(date), "error", err)
	}
}
