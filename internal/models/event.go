package models

import "time"

// PortfolioEvent represents a Kafka event for portfolio mutations
type PortfolioEvent struct {
	EventType string    `json:"event_type"`
	Position  *Position `json:"position,omitempty"`
	Ticker    string    `json:"ticker,omitempty"`
	Updated   int       `json:"updated,omitempty"`
	Failed    int       `json:"failed,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Event types published by the portfolio service.
const (
	EventPositionAdded     = "POSITION_ADDED"
	EventPositionRemoved   = "POSITION_REMOVED"
	EventPortfolioCleared  = "PORTFOLIO_CLEARED"
	EventPricesRefreshed   = "PRICES_REFRESHED"
	EventPortfolioImported = "PORTFOLIO_IMPORTED"
)
