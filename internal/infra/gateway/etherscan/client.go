package etherscan

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/chainbooks/chainbooks/pkg/logger"
)

const (
	defaultBaseURL = "https://api.etherscan.io/v2/api"
	ethereumChain  = "1"
	requestTimeout = 30 * time.Second
	maxRetries     = 3

	// Free-tier Etherscan keys allow 5 requests per second.
	requestsPerSecond = 5
)

const noTransactionsMessage = "No transactions found"

// Client is an HTTP client for the Etherscan V2 account API.
type Client struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
	chainID    string
	limiter    *rate.Limiter
	logger     *logger.Logger
}

// NewClient creates a new Etherscan API client for Ethereum mainnet.
func NewClient(apiKey string, log *logger.Logger) *Client {
	return &Client{
		apiKey: apiKey,
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
		baseURL: defaultBaseURL,
		chainID: ethereumChain,
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond),
		logger:  log.WithField("component", "etherscan"),
	}
}

// SetBaseURL overrides the default base URL (useful for testing)
func (c *Client) SetBaseURL(url string) {
	c.baseURL = url
}

// NormalTransactions fetches the address' external transactions.
func (c *Client) NormalTransactions(ctx context.Context, address string) ([]TxRecord, error) {
	return c.list(ctx, "txlist", address)
}

// InternalTransactions fetches the address' internal (contract) transactions.
func (c *Client) InternalTransactions(ctx context.Context, address string) ([]TxRecord, error) {
	return c.list(ctx, "txlistinternal", address)
}

// TokenTransfers fetches the address' ERC-20 transfer events.
func (c *Client) TokenTransfers(ctx context.Context, address string) ([]TxRecord, error) {
	return c.list(ctx, "tokentx", address)
}

// list runs one account-module action over the full block range.
func (c *Client) list(ctx context.Context, action, address string) ([]TxRecord, error) {
	params := url.Values{}
	params.Set("chainid", c.chainID)
	params.Set("module", "account")
	params.Set("action", action)
	params.Set("address", address)
	params.Set("startblock", "0")
	params.Set("endblock", "99999999")
	params.Set("sort", "asc")
	params.Set("apikey", c.apiKey)

	body, err := c.doRequest(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("%s failed: %w", action, err)
	}

	var resp apiResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode Etherscan response: %w", err)
	}

	if resp.Status != "1" {
		if resp.Message == noTransactionsMessage {
			return nil, nil
		}
		return nil, fmt.Errorf("Etherscan API error: %s: %s", resp.Message, string(resp.Result))
	}

	var records []TxRecord
	if err := json.Unmarshal(resp.Result, &records); err != nil {
		return nil, fmt.Errorf("failed to decode Etherscan result: %w", err)
	}

	c.logger.Debug("records fetched", "action", action, "address", address, "count", len(records))
	return records, nil
}

// doRequest performs a rate-limited GET with retry on 429 responses.
// Retries back off exponentially (1s, 2s, 4s).
func (c *Client) doRequest(ctx context.Context, params url.Values) ([]byte, error) {
	reqURL := c.baseURL + "?" + params.Encode()

	backoff := time.Second
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		c.logger.Debug("API request", "url", c.baseURL, "attempt", attempt)
		attemptStart := time.Now()

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
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
			c.logger.Debug("API response", "status_code", resp.StatusCode, "duration_ms", time.Since(attemptStart).Milliseconds())
			return body, nil
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			if attempt == maxRetries {
				c.logger.Error("rate limit exhausted", "attempts", maxRetries+1)
				return nil, &RateLimitError{
					RetryAfter: backoff,
					Message:    "Etherscan API rate limit exceeded after retries",
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
		return nil, fmt.Errorf("Etherscan API error: status %d, body: %s", resp.StatusCode, string(body))
	}

	return nil, fmt.Errorf("Etherscan API: exhausted retries")
}

// RateLimitError represents a rate limit error from the Etherscan API
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
