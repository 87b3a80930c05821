package portfolio

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/jfuentes/portfolio-tracker/internal/fetch"
	"github.com/jfuentes/portfolio-tracker/internal/models"
	"github.com/jfuentes/portfolio-tracker/internal/store"
)

// ErrRefreshInProgress is returned when a refresh is requested while another
// one is still running. Manual and timer-triggered refreshes are serialized;
// overlapping fetch batches for the same tickers would waste quota and could
// reorder real/last price pairs.
var ErrRefreshInProgress = errors.New("price refresh already in progress")

// ErrInvalidImport is returned for unparseable or unsupported import input.
var ErrInvalidImport = errors.New("invalid import")

// Import modes.
const (
	ImportReplace = "replace"
	ImportMerge   = "merge"
)

// EventPublisher publishes portfolio mutation events. Implementations must
// tolerate broker trouble; a publish failure never fails the user action.
type EventPublisher interface {
	Publish(ctx context.Context, event models.PortfolioEvent) error
}

// RefreshResult reports a refresh cycle in aggregate: per-source success
// counts and failures, never a hard error for individual tickers.
type RefreshResult struct {
	Updated int `json:"updated"`
	Crypto  int `json:"crypto"`
	Stocks  int `json:"stocks"`
	Failed  int `json:"failed"`
}

// Service owns the position store, the price resolver, the fetch orchestrator
// and the event publisher. All dependencies are injected; there are no
// package-level instances.
type Service struct {
	store    *store.PositionStore
	resolver PriceResolver
	fetcher  *fetch.Orchestrator
	caches   []fetch.PriceCache
	events   EventPublisher

	refreshing atomic.Bool
}

func NewService(store *store.PositionStore, resolver PriceResolver, fetcher *fetch.Orchestrator, caches []fetch.PriceCache, events EventPublisher) *Service {
	return &Service{
		store:    store,
		resolver: resolver,
		fetcher:  fetcher,
		caches:   caches,
		events:   events,
	}
}

// AddPosition validates and stores a new position.
func (s *Service) AddPosition(ctx context.Context, ticker, shares, purchasePrice string, assetClass models.AssetClass) (models.Position, error) {
	pos, err := s.store.Add(ctx, ticker, shares, purchasePrice, assetClass)
	if err != nil {
		return models.Position{}, err
	}

	s.publish(ctx, models.PortfolioEvent{
		EventType: models.EventPositionAdded,
		Position:  &pos,
		Ticker:    pos.Ticker,
	})
	return pos, nil
}

// RemovePosition removes a position by id; absent ids are a no-op.
func (s *Service) RemovePosition(ctx context.Context, id string) {
	s.store.Remove(ctx, id)
	s.publish(ctx, models.PortfolioEvent{EventType: models.EventPositionRemoved, Ticker: id})
}

// ClearPortfolio removes every position.
func (s *Service) ClearPortfolio(ctx context.Context) {
	s.store.Clear(ctx)
	s.publish(ctx, models.PortfolioEvent{EventType: models.EventPortfolioCleared})
}

// ListPositions returns the stored positions in insertion order.
func (s *Service) ListPositions() []models.Position {
	return s.store.List()
}

// Metrics computes a fresh snapshot from the current position set.
func (s *Service) Metrics() *MetricsSnapshot {
	return ComputeMetrics(s.store.List(), s.resolver)
}

// RefreshPrices fetches external prices for every non-loan ticker and applies
// them in one persistence write. Unresolved tickers keep their previous state
// and fall back to simulated resolution.
func (s *Service) RefreshPrices(ctx context.Context) (RefreshResult, error) {
	if !s.refreshing.CompareAndSwap(false, true) {
		return RefreshResult{}, ErrRefreshInProgress
	}
	defer s.refreshing.Store(false)

	tickers := s.refreshableTickers()
	if len(tickers) == 0 {
		return RefreshResult{}, nil
	}

	res := s.fetcher.FetchAll(ctx, tickers)
	updated := s.store.UpdatePrices(ctx, res.Prices)

	result := RefreshResult{
		Updated: updated,
		Crypto:  res.Crypto,
		Stocks:  res.Stocks,
		Failed:  res.Failed,
	}
	log.Printf("portfolio: refreshed %d positions (%d crypto, %d stocks, %d failed)",
		result.Updated, result.Crypto, result.Stocks, result.Failed)

	s.publish(ctx, models.PortfolioEvent{
		EventType: models.EventPricesRefreshed,
		Updated:   result.Updated,
		Failed:    result.Failed,
	})
	return result, nil
}

// refreshableTickers returns the unique non-loan tickers, in insertion order.
// Loans resolve to their declared value, so fetching them would be wasted
// quota.
func (s *Service) refreshableTickers() []string {
	seen := make(map[string]bool)
	var tickers []string
	for _, pos := range s.store.List() {
		if pos.IsLoan() || seen[pos.Ticker] {
			continue
		}
		seen[pos.Ticker] = true
		tickers = append(tickers, pos.Ticker)
	}
	return tickers
}

// ClearPriceData drops the fetch caches and every position's fetched prices,
// reverting the whole portfolio to simulated resolution.
func (s *Service) ClearPriceData(ctx context.Context) {
	for _, cache := range s.caches {
		cache.Clear(ctx)
	}
	s.store.ClearRealPrices(ctx)
}

// StartAutoRefresh runs refresh cycles on a fixed interval until the returned
// cancel function is called or the context ends. Overlap with a manual
// refresh is absorbed by the busy flag.
func (s *Service) StartAutoRefresh(ctx context.Context, interval time.Duration) (cancel func()) {
	ctx, cancel = context.WithCancel(ctx)

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if _, err := s.RefreshPrices(ctx); err != nil && !errors.Is(err, ErrRefreshInProgress) {
					log.Printf("portfolio: auto-refresh failed: %v", err)
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	return cancel
}

// Export serializes the full position collection with a date-stamped
// suggested filename.
func (s *Service) Export() (models.PortfolioDocument, string) {
	doc := models.PortfolioDocument{
		Version:    models.DocumentVersion,
		ExportedAt: time.Now().UTC(),
		Positions:  s.store.List(),
	}
	filename := fmt.Sprintf("portfolio-backup-%s.json", time.Now().UTC().Format("2006-01-02"))
	return doc, filename
}

// Import adopts a previously exported document. Mode "replace" discards the
// existing collection; "merge" appends, regenerating colliding ids. The
// legacy bare-array format (positions without an envelope) is also accepted.
func (s *Service) Import(ctx context.Context, data []byte, mode string) (int, error) {
	if mode != ImportReplace && mode != ImportMerge {
		return 0, fmt.Errorf("%w: unknown mode %q", ErrInvalidImport, mode)
	}

	positions, err := parseImport(data)
	if err != nil {
		return 0, err
	}

	switch mode {
	case ImportReplace:
		s.store.Replace(ctx, positions)
	case ImportMerge:
		s.store.Merge(ctx, positions)
	}

	s.publish(ctx, models.PortfolioEvent{
		EventType: models.EventPortfolioImported,
		Updated:   len(positions),
	})
	return len(positions), nil
}

func parseImport(data []byte) ([]models.Position, error) {
	var doc models.PortfolioDocument
	if err := json.Unmarshal(data, &doc); err == nil && doc.Positions != nil {
		return doc.Positions, nil
	}

	var positions []models.Position
	if err := json.Unmarshal(data, &positions); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImport, err)
	}
	return positions, nil
}

// publish sends an event when a producer is configured. Publish failures are
// logged and swallowed.
func (s *Service) publish(ctx context.Context, event models.PortfolioEvent) {
	if s.events == nil {
		return
	}
	event.Timestamp = time.Now().UTC()
	if err := s.events.Publish(ctx, event); err != nil {
		log.Printf("portfolio: failed to publish %s event: %v", event.EventType, err)
	}
}
