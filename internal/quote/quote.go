// Package quote fetches live share quotes from the external price service.
package quote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strings"
)

// Sentinel errors returned by Lookup. Callers treat ErrUnavailable
// uniformly as "quotes are down" and must not retry; retry policy
// belongs to the operator, not this client.
var (
	// ErrSymbolNotFound means the upstream does not know the ticker.
	ErrSymbolNotFound = errors.New("quote: symbol not found")
	// ErrUnavailable covers transport failures, timeouts, non-2xx
	// responses, and malformed upstream payloads.
	ErrUnavailable = errors.New("quote: service unavailable")
)

// Quote is a point-in-time price for a ticker symbol.
type Quote struct {
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
	Price  int64  `json:"price"` // cents
}

// Client resolves a ticker symbol to a current quote.
type Client interface {
	Lookup(ctx context.Context, symbol string) (*Quote, error)
}

// quoteResponse mirrors the upstream quote payload.
type quoteResponse struct {
	Symbol      string   `json:"symbol"`
	CompanyName string   `json:"companyName"`
	LatestPrice *float64 `json:"latestPrice"`
}

// HTTPClient is the HTTP implementation of Client.
type HTTPClient struct {
	httpClient *http.Client
	baseURL    string // overridable for tests
	apiKey     string
}

// NewHTTPClient creates a quote client for the given upstream. The
// http.Client's timeout bounds every lookup.
func NewHTTPClient(httpClient *http.Client, baseURL, apiKey string) *HTTPClient {
	return &HTTPClient{httpClient: httpClient, baseURL: baseURL, apiKey: apiKey}
}

// Lookup fetches the current quote for symbol. The symbol is upcased
// before the request so "aapl" and "AAPL" resolve identically.
func (c *HTTPClient) Lookup(ctx context.Context, symbol string) (*Quote, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, ErrSymbolNotFound
	}

	reqURL := fmt.Sprintf("%s/stock/%s/quote?token=%s", c.baseURL, url.PathEscape(symbol), url.QueryEscape(c.apiKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: building request: %v", ErrUnavailable, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrSymbolNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: unexpected status %d", ErrUnavailable, resp.StatusCode)
	}

	var body quoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %v", ErrUnavailable, err)
	}
	if body.Symbol == "" || body.LatestPrice == nil {
		return nil, fmt.Errorf("%w: incomplete quote for %s", ErrUnavailable, symbol)
	}

	return &Quote{
		Symbol: body.Symbol,
		Name:   body.CompanyName,
		Price:  int64(math.Round(*body.LatestPrice * 100)),
	}, nil
}
