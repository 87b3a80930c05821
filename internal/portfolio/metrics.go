package portfolio

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jfuentes/portfolio-tracker/internal/models"
)

// PriceResolver maps a position to its current price.
type PriceResolver interface {
	Resolve(pos *models.Position) decimal.Decimal
}

var hundred = decimal.NewFromInt(100)

// PositionMetrics is a position enriched with derived valuation fields.
// PriceChange and PriceChangePct are nil when no prior fetched price exists;
// consumers must render that as "no change data", not as a 0% move.
type PositionMetrics struct {
	models.Position
	CurrentPrice   decimal.Decimal  `json:"current_price"`
	CostBasis      decimal.Decimal  `json:"cost_basis"`
	CurrentValue   decimal.Decimal  `json:"current_value"`
	GainLoss       decimal.Decimal  `json:"gain_loss"`
	ReturnPct      decimal.Decimal  `json:"return_pct"`
	PriceChange    *decimal.Decimal `json:"price_change,omitempty"`
	PriceChangePct *decimal.Decimal `json:"price_change_pct,omitempty"`
	AllocationPct  decimal.Decimal  `json:"allocation_pct"`
}

// MetricsSnapshot is an immutable computed view of the portfolio. It is
// recomputed from scratch on every request and discarded after use; nothing
// caches or mutates it.
type MetricsSnapshot struct {
	Positions         []PositionMetrics `json:"positions"`
	TotalInvested     decimal.Decimal   `json:"total_invested"`
	TotalCurrentValue decimal.Decimal   `json:"total_current_value"`
	TotalGainLoss     decimal.Decimal   `json:"total_gain_loss"`
	TotalReturnPct    decimal.Decimal   `json:"total_return_pct"`
	TotalDebt         decimal.Decimal   `json:"total_debt"`
	NetWorth          decimal.Decimal   `json:"net_worth"`
	LeveragePct       decimal.Decimal   `json:"leverage_pct"`
	HoldingsCount     int               `json:"holdings_count"`
	ComputedAt        time.Time         `json:"computed_at"`
}

// ComputeMetrics derives per-position and aggregate metrics from the current
// position set. Loans are carried at their declared value: they contribute
// their absolute cost basis to TotalDebt and stay out of the invested/current
// totals, which cover holdings only.
func ComputeMetrics(positions []models.Position, resolver PriceResolver) *MetricsSnapshot {
	snap := &MetricsSnapshot{
		Positions:     make([]PositionMetrics, 0, len(positions)),
		HoldingsCount: len(positions),
		ComputedAt:    time.Now().UTC(),
	}

	for i := range positions {
		pos := positions[i]
		pm := PositionMetrics{Position: pos}

		if pos.IsLoan() {
			pm.CurrentPrice = pos.PurchasePrice
			pm.CostBasis = pos.CostBasis()
			pm.CurrentValue = pm.CostBasis
			snap.TotalDebt = snap.TotalDebt.Add(pm.CostBasis.Abs())
			snap.Positions = append(snap.Positions, pm)
			continue
		}

		pm.CurrentPrice = resolver.Resolve(&pos)
		pm.CostBasis = pos.CostBasis()
		pm.CurrentValue = pos.Shares.Mul(pm.CurrentPrice)
		pm.GainLoss = pm.CurrentValue.Sub(pm.CostBasis)
		if pm.CostBasis.IsPositive() {
			pm.ReturnPct = pm.GainLoss.Div(pm.CostBasis).Mul(hundred)
		}

		if pos.LastPrice != nil && !pos.LastPrice.IsZero() {
			change := pm.CurrentPrice.Sub(*pos.LastPrice)
			changePct := change.Div(*pos.LastPrice).Mul(hundred)
			pm.PriceChange = &change
			pm.PriceChangePct = &changePct
		}

		snap.TotalInvested = snap.TotalInvested.Add(pm.CostBasis)
		snap.TotalCurrentValue = snap.TotalCurrentValue.Add(pm.CurrentValue)
		snap.Positions = append(snap.Positions, pm)
	}

	snap.TotalGainLoss = snap.TotalCurrentValue.Sub(snap.TotalInvested)
	if snap.TotalInvested.IsPositive() {
		snap.TotalReturnPct = snap.TotalGainLoss.Div(snap.TotalInvested).Mul(hundred)
	}
	snap.NetWorth = snap.TotalCurrentValue
	if snap.NetWorth.IsPositive() {
		snap.LeveragePct = snap.TotalDebt.Div(snap.NetWorth).Mul(hundred)
	}

	// Allocation needs the aggregate total, so it is a second pass.
	if snap.TotalCurrentValue.IsPositive() {
		for i := range snap.Positions {
			if snap.Positions[i].IsLoan() {
				continue
			}
			snap.Positions[i].AllocationPct = snap.Positions[i].CurrentValue.
				Div(snap.TotalCurrentValue).Mul(hundred)
		}
	}

	return snap
}

// BestWorst returns the best and worst performing holdings by fetched price
// change. Loans and positions without a defined, non-zero change are not
// eligible; an empty eligible set reports no data instead of zero values.
func (s *MetricsSnapshot) BestWorst() (best, worst PositionMetrics, ok bool) {
	var eligible []PositionMetrics
	for _, pm := range s.Positions {
		if pm.IsLoan() || pm.PriceChangePct == nil || pm.PriceChangePct.IsZero() {
			continue
		}
		eligible = append(eligible, pm)
	}
	if len(eligible) == 0 {
		return PositionMetrics{}, PositionMetrics{}, false
	}

	sort.SliceStable(eligible, func(i, j int) bool {
		return eligible[i].PriceChangePct.GreaterThan(*eligible[j].PriceChangePct)
	})
	return eligible[0], eligible[len(eligible)-1], true
}

// AssetAllocation sums current value per asset class.
func (s *MetricsSnapshot) AssetAllocation() map[models.AssetClass]decimal.Decimal {
	allocation := make(map[models.AssetClass]decimal.Decimal)
	for _, pm := range s.Positions {
		allocation[pm.AssetClass] = allocation[pm.AssetClass].Add(pm.CurrentValue)
	}
	return allocation
}

// TopHoldings returns up to limit holdings ordered by current value.
func (s *MetricsSnapshot) TopHoldings(limit int) []PositionMetrics {
	holdings := make([]PositionMetrics, len(s.Positions))
	copy(holdings, s.Positions)

	sort.SliceStable(holdings, func(i, j int) bool {
		return holdings[i].CurrentValue.GreaterThan(holdings[j].CurrentValue)
	})
	if limit > 0 && len(holdings) > limit {
		holdings = holdings[:limit]
	}
	return holdings
}
