package moralis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/chainbooks/chainbooks/pkg/logger"
)

const (
	defaultBaseURL = "https://deep-index.moralis.io/api/v2.2"
	requestTimeout = 30 * time.Second
	maxRetries     = 3
	pageSize       = "100"
)

// Client is an HTTP client for the Moralis wallet history API.
type Client struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
	logger     *logger.Logger
}

// NewClient creates a new Moralis API client.
func NewClient(apiKey string, log *logger.Logger) *Client {
	return &Client{
		apiKey: apiKey,
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
		baseURL: defaultBaseURL,
		logger:  log.WithField("component", "moralis"),
	}
}

// SetBaseURL overrides the default base URL (useful for testing)
func (c *Client) SetBaseURL(url string) {
	c.baseURL = url
}

// WalletHistory fetches the wallet's full transaction history, following
// cursor pagination until the cursor runs out.
func (c *Client) WalletHistory(ctx context.Context, address string) ([]HistoryEntry, error) {
	fetchStart := time.Now()
	reqURL := fmt.Sprintf("%s/wallets/%s/history", c.baseURL, address)

	var all []HistoryEntry
	cursor := ""

	for {
		params := url.Values{}
		params.Set("chain", "eth")
		params.Set("order", "DESC")
		params.Set("limit", pageSize)
		if cursor != "" {
			params.Set("cursor", cursor)
		}

		body, err := c.doRequest(ctx, reqURL+"?"+params.Encode())
		if err != nil {
			return nil, fmt.Errorf("WalletHistory failed: %w", err)
		}

		var page historyResponse
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, fmt.Errorf("failed to decode Moralis response: %w", err)
		}

		all = append(all, page.Result...)

		if page.Cursor == "" {
			break
		}
		cursor = page.Cursor
	}

	c.logger.Info("history fetched", "address", address, "count", len(all), "duration_ms", time.Since(fetchStart).Milliseconds())
	return all, nil
}

// doRequest performs an authenticated GET with retry on 429 responses.
func (c *Client) doRequest(ctx context.Context, reqURL string) ([]byte, error) {
	backoff := time.Second
	for attempt := 0; attempt <= maxRetries; attempt++ {
		c.logger.Debug("API request", "url", c.baseURL, "attempt", attempt)

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("X-API-Key", c.apiKey)
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("failed to execute request: %w", err)
		}

		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			return nil, fmt.Errorf("failed to read response body: %w", readErr)
		}

		if resp.StatusCode == http.StatusOK {
			return body, nil
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			if attempt == maxRetries {
				c.logger.Error("rate limit exhausted", "attempts", maxRetries+1)
				return nil, &RateLimitError{
					RetryAfter: backoff,
					Message:    "Moralis API rate limit exceeded after retries",
				}
			}
			c.logger.Warn("rate limited, retrying", "attempt", attempt, "backoff_ms", backoff.Milliseconds())
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
				backoff *= 2
				continue
			}
		}

		c.logger.Error("API error", "status_code", resp.StatusCode)
		return nil, fmt.Errorf("Moralis API error: status %d, body: %s", resp.StatusCode, string(body))
	}

	return nil, fmt.Errorf("Moralis API: exhausted retries")
}

// RateLimitError represents a rate limit error from the Moralis API
type RateLimitError struct {
	RetryAfter time.Duration
	Message    string
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s (retry after %s)", e.Message, e.RetryAfter)
}

// IsRateLimitError checks if an error is (or wraps) a rate limit error
func IsRateLimitError(err error) bool {
	var rle *RateLimitError
	return errors.As(err, &rle)
}
