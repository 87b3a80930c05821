package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"

	"github.com/jfuentes/portfolio-tracker/internal/models"
)

// PositionsKey is the well-known key holding the serialized position list.
const PositionsKey = "portfolio:positions"

// RedisStorage persists the position collection as a single JSON document
// under one key. A single SET replaces the whole document, so a reader never
// observes a partially written collection.
type RedisStorage struct {
	client *redis.Client
}

// NewRedisStorage creates a Redis-backed storage.
func NewRedisStorage(client *redis.Client) *RedisStorage {
	return &RedisStorage{client: client}
}

var _ Storage = (*RedisStorage)(nil)

// Load reads and deserializes the position collection. A missing key yields
// an empty collection. A corrupt payload also yields an empty collection
// (logged) rather than an error: a broken cache must never take down the
// valuation view.
func (r *RedisStorage) Load(ctx context.Context) ([]models.Position, error) {
	data, err := r.client.Get(ctx, PositionsKey).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", PositionsKey, err)
	}

	var doc models.PortfolioDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		log.Printf("store: corrupt position record, resetting to empty: %v", err)
		return nil, nil
	}
	return doc.Positions, nil
}

// Save serializes and writes the full position collection.
func (r *RedisStorage) Save(ctx context.Context, positions []models.Position) error {
	doc := models.PortfolioDocument{
		Version:   models.DocumentVersion,
		Positions: positions,
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal positions: %w", err)
	}

	if err := r.client.Set(ctx, PositionsKey, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to write %s: %w", PositionsKey, err)
	}
	return nil
}
