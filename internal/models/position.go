package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AssetClass categorizes a position. Free-form values are tolerated for
// forward compatibility; only the listed constants get special treatment.
type AssetClass string

const (
	AssetStocks      AssetClass = "stocks"
	AssetCrypto      AssetClass = "crypto"
	AssetCommodities AssetClass = "commodities"
	AssetETF         AssetClass = "etf"
	AssetBonds       AssetClass = "bonds"
	AssetLoan        AssetClass = "loan"
	AssetOther       AssetClass = "other"
)

// Position represents a user-declared holding or liability.
// For the loan asset class, PurchasePrice is the per-unit value of the
// liability and is conventionally negative.
type Position struct {
	ID            string           `json:"id"`
	Ticker        string           `json:"ticker"`
	Shares        decimal.Decimal  `json:"shares"`
	PurchasePrice decimal.Decimal  `json:"purchase_price"`
	AssetClass    AssetClass       `json:"asset_class"`
	DateAdded     time.Time        `json:"date_added"`
	RealPrice     *decimal.Decimal `json:"real_price,omitempty"`
	LastPrice     *decimal.Decimal `json:"last_price,omitempty"`
}

// ErrInvalidPosition is returned when position input fails boundary validation.
var ErrInvalidPosition = errors.New("invalid position")

// NewPosition validates raw user input and constructs a Position with a fresh
// id and timestamp. Non-numeric shares or price are rejected here rather than
// allowed to poison downstream metrics.
func NewPosition(ticker, shares, purchasePrice string, assetClass AssetClass) (Position, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if ticker == "" {
		return Position{}, fmt.Errorf("%w: ticker is required", ErrInvalidPosition)
	}

	qty, err := decimal.NewFromString(strings.TrimSpace(shares))
	if err != nil {
		return Position{}, fmt.Errorf("%w: shares %q is not numeric", ErrInvalidPosition, shares)
	}

	price, err := decimal.NewFromString(strings.TrimSpace(purchasePrice))
	if err != nil {
		return Position{}, fmt.Errorf("%w: purchase price %q is not numeric", ErrInvalidPosition, purchasePrice)
	}

	if assetClass == "" {
		assetClass = AssetOther
	}

	return Position{
		ID:            uuid.NewString(),
		Ticker:        ticker,
		Shares:        qty,
		PurchasePrice: price,
		AssetClass:    assetClass,
		DateAdded:     time.Now().UTC(),
	}, nil
}

// IsLoan reports whether the position is a liability. Loans never receive
// simulated fluctuation and never participate in external price fetches.
func (p *Position) IsLoan() bool {
	return p.AssetClass == AssetLoan
}

// CostBasis is shares times purchase price (negative for loans).
func (p *Position) CostBasis() decimal.Decimal {
	return p.Shares.Mul(p.PurchasePrice)
}

// SetRealPrice records a freshly fetched price, shifting the previous real
// price into LastPrice so consumers can compute a period-over-period delta.
func (p *Position) SetRealPrice(price decimal.Decimal) {
	if p.RealPrice != nil {
		prev := *p.RealPrice
		p.LastPrice = &prev
	}
	p.RealPrice = &price
}

// ClearRealPrice drops fetched price data, reverting resolution to the
// simulated fallback chain.
func (p *Position) ClearRealPrice() {
	p.RealPrice = nil
	p.LastPrice = nil
}
