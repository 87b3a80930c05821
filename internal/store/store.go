package store

import (
	"context"
	"log"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jfuentes/portfolio-tracker/internal/models"
)

// Storage persists the full position collection as a single record.
// A Save either fully replaces the stored collection or is not observed.
type Storage interface {
	Load(ctx context.Context) ([]models.Position, error)
	Save(ctx context.Context, positions []models.Position) error
}

// PositionStore owns the mutable position collection. Every mutation is
// immediately followed by a full persistence write; a failed write is logged
// and the in-memory state stays authoritative until the next successful one.
type PositionStore struct {
	mu        sync.RWMutex
	storage   Storage
	positions []models.Position
}

// NewPositionStore creates a store backed by the given storage and loads the
// persisted collection. A load or deserialization failure resets to an empty
// collection and is logged, never surfaced to the caller.
func NewPositionStore(ctx context.Context, storage Storage) *PositionStore {
	s := &PositionStore{storage: storage}

	positions, err := storage.Load(ctx)
	if err != nil {
		log.Printf("store: failed to load positions, starting empty: %v", err)
		positions = nil
	}
	s.positions = positions
	return s
}

// Add validates the raw input, appends the new position and persists.
func (s *PositionStore) Add(ctx context.Context, ticker, shares, purchasePrice string, assetClass models.AssetClass) (models.Position, error) {
	pos, err := models.NewPosition(ticker, shares, purchasePrice, assetClass)
	if err != nil {
		return models.Position{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.positions = append(s.positions, pos)
	s.persist(ctx)
	return pos, nil
}

// Remove deletes at most one position with the given id. Removing an absent
// id is a no-op.
func (s *PositionStore) Remove(ctx context.Context, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, p := range s.positions {
		if p.ID == id {
			s.positions = append(s.positions[:i], s.positions[i+1:]...)
			break
		}
	}
	s.persist(ctx)
}

// Clear empties the collection.
func (s *PositionStore) Clear(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.positions = nil
	s.persist(ctx)
}

// List returns a snapshot copy in insertion order.
func (s *PositionStore) List() []models.Position {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Position, len(s.positions))
	copy(out, s.positions)
	return out
}

// Count returns the number of positions.
func (s *PositionStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.positions)
}

// UpdatePrices applies fetched prices by ticker, shifting each position's
// previous real price into LastPrice. Returns the number of positions
// updated. Persists once for the whole batch.
func (s *PositionStore) UpdatePrices(ctx context.Context, prices map[string]decimal.Decimal) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	updated := 0
	for i := range s.positions {
		price, ok := prices[s.positions[i].Ticker]
		if !ok {
			continue
		}
		s.positions[i].SetRealPrice(price)
		updated++
	}
	s.persist(ctx)
	return updated
}

// ClearRealPrices drops fetched price data on every position, reverting
// resolution to the simulated fallback chain.
func (s *PositionStore) ClearRealPrices(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.positions {
		s.positions[i].ClearRealPrice()
	}
	s.persist(ctx)
}

// Replace discards the current collection and adopts the given one wholesale.
func (s *PositionStore) Replace(ctx context.Context, positions []models.Position) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.positions = make([]models.Position, len(positions))
	copy(s.positions, positions)
	s.persist(ctx)
}

// Merge appends the given positions to the existing collection. An imported
// position whose id is empty or collides with an existing one gets a fresh
// id, so a merge can never silently overwrite or duplicate.
func (s *PositionStore) Merge(ctx context.Context, positions []models.Position) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]bool, len(s.positions))
	for _, p := range s.positions {
		seen[p.ID] = true
	}

	for _, p := range positions {
		if p.ID == "" || seen[p.ID] {
			p.ID = uuid.NewString()
		}
		seen[p.ID] = true
		s.positions = append(s.positions, p)
	}
	s.persist(ctx)
}

// persist writes the full collection. Callers hold the write lock.
func (s *PositionStore) persist(ctx context.Context) {
	if err := s.storage.Save(ctx, s.positions); err != nil {
		log.Printf("store: failed to persist positions: %v", err)
	}
}
