package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"osrs-trade-tracker/internal/config"
	"osrs-trade-tracker/internal/ingest"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const maxRetries = 3

// ErrNoURL is returned when no export URL is configured.
var ErrNoURL = errors.New("no export url configured")

// ExportFetcher fetches the rows of a remote ledger export.
type ExportFetcher interface {
	FetchExport(ctx context.Context) ([]ingest.Row, error)
}

// Client downloads a published spreadsheet as CSV.
type Client struct {
	client  *resty.Client
	url     string
	logger  *zap.Logger
	limiter *rate.Limiter
	backoff time.Duration
}

// ensure Client implements the interface
var _ ExportFetcher = (*Client)(nil)

// NewClient creates a Client for the configured export URL.
func NewClient(cfg *config.Source, logger *zap.Logger) *Client {
	client := resty.New().
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "text/csv")

	limit := rate.Limit(cfg.RateLimit)
	if cfg.RateLimit <= 0 {
		limit = rate.Inf
	}
	burst := cfg.RateLimitBurst
	if burst < 1 {
		burst = 1
	}

	return &Client{
		client:  client,
		url:     cfg.URL,
		logger:  logger.Named("source"),
		limiter: rate.NewLimiter(limit, burst),
		backoff: time.Second,
	}
}

// FetchExport downloads and parses the export. Any failure to obtain a
// readable body is reported as ingest.ErrMalformedInput.
func (c *Client) FetchExport(ctx context.Context) ([]ingest.Row, error) {
	if c.url == "" {
		return nil, fmt.Errorf("%w: %w", ingest.ErrMalformedInput, ErrNoURL)
	}

	resp, err := c.doRequest(ctx, c.url)
	if err != nil {
		c.logger.Error("Failed to fetch export", zap.String("url", c.url), zap.Error(err))
		return nil, fmt.Errorf("%w: failed to fetch export: %w", ingest.ErrMalformedInput, err)
	}

	rows, err := ingest.ReadRows(bytes.NewReader(resp.Body()))
	if err != nil {
		return nil, err
	}
	c.logger.Info("Fetched export", zap.Int("rows", len(rows)), zap.Int("bytes", len(resp.Body())))
	return rows, nil
}

// doRequest performs a rate limited GET, retrying throttling, server and
// network errors with exponential backoff.
func (c *Client) doRequest(ctx context.Context, url string) (*resty.Response, error) {
	var lastErr error

	for i := 0; i < maxRetries; i++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter wait failed: %w", err)
		}

		c.logger.Debug("Executing request", zap.String("url", url), zap.Int("attempt", i+1))
		resp, err := c.client.R().SetContext(ctx).Get(url)

		if err == nil && !resp.IsError() {
			return resp, nil
		}

		var retryAfter time.Duration
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
		} else {
			statusCode := resp.StatusCode()
			lastErr = fmt.Errorf("request failed with status %s", resp.Status())
			switch {
			case statusCode == http.StatusTooManyRequests:
				if seconds, err := strconv.Atoi(resp.Header().Get("Retry-After")); err == nil {
					retryAfter = time.Duration(seconds) * time.Second
				}
			case statusCode >= 500:
			default:
				return nil, lastErr
			}
		}

		if i == maxRetries-1 {
			break
		}
		if retryAfter == 0 {
			// Exponential backoff: 1x, 2x, 4x
			retryAfter = c.backoff << i
		}

		c.logger.Warn("Request failed, retrying...",
			zap.Int("attempt", i+1),
			zap.Duration("retry_after", retryAfter),
			zap.Error(lastErr),
		)

		select {
		case <-time.After(retryAfter):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return nil, fmt.Errorf("request failed after %d attempts: %w", maxRetries, lastErr)
}
