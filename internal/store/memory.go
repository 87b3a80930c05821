package store

import (
	"context"
	"sync"

	"github.com/jfuentes/portfolio-tracker/internal/models"
)

// MemoryStorage keeps the position collection in memory. Useful for tests or
// ephemeral runs where persistence is not required.
type MemoryStorage struct {
	mu        sync.RWMutex
	positions []models.Position
	saves     int
}

var _ Storage = (*MemoryStorage)(nil)

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

func (m *MemoryStorage) Load(ctx context.Context) ([]models.Position, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.Position, len(m.positions))
	copy(out, m.positions)
	return out, nil
}

func (m *MemoryStorage) Save(ctx context.Context, positions []models.Position) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.positions = make([]models.Position, len(positions))
	copy(m.positions, positions)
	m.saves++
	return nil
}

// Saves reports how many times Save has been called.
func (m *MemoryStorage) Saves() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.saves
}
