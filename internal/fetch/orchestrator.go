package fetch

import (
	"context"

	"github.com/shopspring/decimal"
)

// Result is the merged outcome of a multi-source fetch. Unresolved tickers
// are absent from Prices; the caller falls back to simulated resolution.
type Result struct {
	Prices map[string]decimal.Decimal
	Crypto int
	Stocks int
	Failed int
}

// Router decides which fetcher serves a ticker.
type Router interface {
	Supports(ticker string) bool
}

// Orchestrator partitions a ticker set between the crypto fetcher and the
// conventional-security fetcher, invokes each FetchMany and merges the
// results. Failures are per ticker, never global.
type Orchestrator struct {
	securities Fetcher
	crypto     Fetcher
	router     Router
}

func NewOrchestrator(securities Fetcher, crypto Fetcher, router Router) *Orchestrator {
	return &Orchestrator{securities: securities, crypto: crypto, router: router}
}

// FetchAll resolves as many of the requested tickers as possible.
func (o *Orchestrator) FetchAll(ctx context.Context, tickers []string) Result {
	var cryptoTickers, stockTickers []string
	for _, t := range tickers {
		if o.router.Supports(t) {
			cryptoTickers = append(cryptoTickers, t)
		} else {
			stockTickers = append(stockTickers, t)
		}
	}

	res := Result{Prices: make(map[string]decimal.Decimal, len(tickers))}

	for ticker, price := range o.crypto.FetchMany(ctx, cryptoTickers) {
		if price != nil {
			res.Prices[ticker] = *price
			res.Crypto++
		}
	}

	for ticker, price := range o.securities.FetchMany(ctx, stockTickers) {
		if price != nil {
			res.Prices[ticker] = *price
			res.Stocks++
		}
	}

	res.Failed = len(tickers) - len(res.Prices)
	return res
}
