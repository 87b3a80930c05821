package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// Fetcher resolves tickers to prices or fails per ticker. FetchMany returns a
// mapping with a nil entry (or no entry at all) for every ticker it could not
// resolve; callers treat those as "use fallback", never as a fatal condition.
type Fetcher interface {
	FetchPrice(ctx context.Context, ticker string) (decimal.Decimal, error)
	FetchMany(ctx context.Context, tickers []string) map[string]*decimal.Decimal
}

// MinRequestInterval is derived from the provider quota of 5 calls/minute.
const MinRequestInterval = 12 * time.Second

// AlphaVantage fetches conventional-security quotes one symbol per call,
// enforcing the minimum inter-call interval. A cache hit bypasses both the
// network call and the rate-limit wait.
type AlphaVantage struct {
	apiKey  string
	baseURL string
	client  *http.Client
	cache   PriceCache

	interval time.Duration

	mu          sync.Mutex
	lastRequest time.Time
}

var _ Fetcher = (*AlphaVantage)(nil)

func NewAlphaVantage(apiKey, baseURL string, cache PriceCache) *AlphaVantage {
	return &AlphaVantage{
		apiKey:   apiKey,
		baseURL:  baseURL,
		client:   &http.Client{Timeout: 30 * time.Second},
		cache:    cache,
		interval: MinRequestInterval,
	}
}

// FetchPrice returns the last-traded price for a single symbol. Transport
// errors, quota notices and unrecognized symbols all come back as errors; the
// caller maps them to an unresolved ticker.
func (a *AlphaVantage) FetchPrice(ctx context.Context, ticker string) (decimal.Decimal, error) {
	if price, ok := a.cache.Get(ctx, ticker); ok {
		return price, nil
	}

	if err := a.rateLimitWait(ctx); err != nil {
		return decimal.Zero, err
	}

	params := url.Values{
		"function": {"GLOBAL_QUOTE"},
		"symbol":   {ticker},
		"apikey":   {a.apiKey},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return decimal.Zero, err
	}

	resp, err := a.client.Do(req)
	a.markRequest()
	if err != nil {
		return decimal.Zero, fmt.Errorf("quote request for %s failed: %w", ticker, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("quote request for %s: HTTP %d", ticker, resp.StatusCode)
	}

	var payload struct {
		ErrorMessage string `json:"Error Message"`
		Note         string `json:"Note"`
		GlobalQuote  struct {
			Price string `json:"05. price"`
		} `json:"Global Quote"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return decimal.Zero, fmt.Errorf("malformed quote response for %s: %w", ticker, err)
	}

	if payload.ErrorMessage != "" {
		return decimal.Zero, fmt.Errorf("invalid ticker %s", ticker)
	}
	if payload.Note != "" {
		return decimal.Zero, fmt.Errorf("rate limit reached fetching %s", ticker)
	}
	if payload.GlobalQuote.Price == "" {
		return decimal.Zero, fmt.Errorf("no quote data for %s", ticker)
	}

	price, err := decimal.NewFromString(payload.GlobalQuote.Price)
	if err != nil || !price.IsPositive() {
		return decimal.Zero, fmt.Errorf("invalid price for %s", ticker)
	}

	a.cache.Set(ctx, ticker, price)
	return price, nil
}

// FetchMany resolves tickers sequentially, strictly in input order. A failure
// maps to a nil entry and the loop continues with the next ticker; one
// ticker's failure never aborts the rest of the batch.
func (a *AlphaVantage) FetchMany(ctx context.Context, tickers []string) map[string]*decimal.Decimal {
	results := make(map[string]*decimal.Decimal, len(tickers))
	for _, ticker := range tickers {
		price, err := a.FetchPrice(ctx, ticker)
		if err != nil {
			log.Printf("fetch: alphavantage %s: %v", ticker, err)
			results[ticker] = nil
			continue
		}
		p := price
		results[ticker] = &p
	}
	return results
}

// rateLimitWait blocks until the minimum interval since the previous network
// call has elapsed, or the context is cancelled.
func (a *AlphaVantage) rateLimitWait(ctx context.Context) error {
	a.mu.Lock()
	last := a.lastRequest
	a.mu.Unlock()

	if last.IsZero() {
		return nil
	}
	wait := a.interval - time.Since(last)
	if wait <= 0 {
		return nil
	}

	select {
	case <-time.After(wait):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (a *AlphaVantage) markRequest() {
	a.mu.Lock()
	a.lastRequest = time.Now()
	a.mu.Unlock()
}
