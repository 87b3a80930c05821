package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// CoinGecko fetches crypto prices through a single batched simple-price call.
// Tickers absent from the id table are excluded from the batch and simply
// omitted from the result, not reported as failures.
type CoinGecko struct {
	baseURL string
	client  *http.Client
	cache   PriceCache
	coinIDs map[string]string
}

var _ Fetcher = (*CoinGecko)(nil)

func NewCoinGecko(baseURL string, cache PriceCache) *CoinGecko {
	return &CoinGecko{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
		cache:   cache,
		coinIDs: defaultCoinIDs(),
	}
}

// Supports reports whether the ticker maps to a known CoinGecko id. This is
// what routes a ticker to the crypto fetcher instead of the security one.
func (c *CoinGecko) Supports(ticker string) bool {
	_, ok := c.coinIDs[strings.ToUpper(ticker)]
	return ok
}

// CoinID returns the canonical id for a ticker.
func (c *CoinGecko) CoinID(ticker string) (string, bool) {
	id, ok := c.coinIDs[strings.ToUpper(ticker)]
	return id, ok
}

// FetchPrice resolves a single crypto ticker.
func (c *CoinGecko) FetchPrice(ctx context.Context, ticker string) (decimal.Decimal, error) {
	results := c.FetchMany(ctx, []string{ticker})
	if price, ok := results[strings.ToUpper(ticker)]; ok && price != nil {
		return *price, nil
	}
	return decimal.Zero, fmt.Errorf("no price data for %s", ticker)
}

// FetchMany issues one batched call for all requested ids and demultiplexes
// the result back onto tickers. Entries missing the usd key are unresolved
// and omitted. A transport failure resolves only the cached portion.
func (c *CoinGecko) FetchMany(ctx context.Context, tickers []string) map[string]*decimal.Decimal {
	results := make(map[string]*decimal.Decimal)

	// Partition into cache hits and ids still needing the batch call.
	var pending []string
	pendingIDs := make(map[string]bool)
	for _, t := range tickers {
		ticker := strings.ToUpper(t)
		id, ok := c.coinIDs[ticker]
		if !ok {
			continue
		}
		if price, ok := c.cache.Get(ctx, id); ok {
			p := price
			results[ticker] = &p
			continue
		}
		pending = append(pending, ticker)
		pendingIDs[id] = true
	}

	if len(pending) == 0 {
		return results
	}

	ids := make([]string, 0, len(pendingIDs))
	for id := range pendingIDs {
		ids = append(ids, id)
	}

	prices, err := c.simplePrice(ctx, ids)
	if err != nil {
		log.Printf("fetch: coingecko batch failed: %v", err)
		return results
	}

	for _, ticker := range pending {
		id := c.coinIDs[ticker]
		usd, ok := prices[id]["usd"]
		if !ok {
			continue
		}
		p := usd
		results[ticker] = &p
		c.cache.Set(ctx, id, usd)
	}
	return results
}

func (c *CoinGecko) simplePrice(ctx context.Context, ids []string) (map[string]map[string]decimal.Decimal, error) {
	params := url.Values{
		"ids":           {strings.Join(ids, ",")},
		"vs_currencies": {"usd"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/simple/price?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("simple price request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("simple price request: HTTP %d", resp.StatusCode)
	}

	var prices map[string]map[string]decimal.Decimal
	if err := json.NewDecoder(resp.Body).Decode(&prices); err != nil {
		return nil, fmt.Errorf("malformed simple price response: %w", err)
	}
	return prices, nil
}

// defaultCoinIDs maps ticker symbols (with and without the -USD suffix) to
// canonical CoinGecko ids.
func defaultCoinIDs() map[string]string {
	pairs := map[string]string{
		"BTC":   "bitcoin",
		"ETH":   "ethereum",
		"SOL":   "solana",
		"BNB":   "binancecoin",
		"ADA":   "cardano",
		"DOGE":  "dogecoin",
		"XRP":   "ripple",
		"DOT":   "polkadot",
		"MATIC": "matic-network",
		"AVAX":  "avalanche-2",
		"LINK":  "chainlink",
		"UNI":   "uniswap",
	}
	ids := make(map[string]string, len(pairs)*2)
	for sym, id := range pairs {
		ids[sym] = id
		ids[sym+"-USD"] = id
	}
	return ids
}
