package portfolio

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jfuentes/portfolio-tracker/internal/models"
	"github.com/jfuentes/portfolio-tracker/internal/prices"
)

func position(t *testing.T, ticker, shares, price string, class models.AssetClass) models.Position {
	t.Helper()
	pos, err := models.NewPosition(ticker, shares, price, class)
	require.NoError(t, err)
	return pos
}

func eq(t *testing.T, expected string, actual decimal.Decimal, msgAndArgs ...interface{}) {
	t.Helper()
	want, err := decimal.NewFromString(expected)
	require.NoError(t, err)
	assert.True(t, want.Equal(actual), "expected %s, got %s", expected, actual)
}

func TestComputeMetrics(t *testing.T) {
	zero := prices.NewResolver(nil, prices.NewZeroNoise())

	t.Run("empty portfolio yields zero totals", func(t *testing.T) {
		snap := ComputeMetrics(nil, zero)

		eq(t, "0", snap.TotalInvested)
		eq(t, "0", snap.TotalCurrentValue)
		eq(t, "0", snap.TotalGainLoss)
		eq(t, "0", snap.TotalReturnPct)
		eq(t, "0", snap.TotalDebt)
		eq(t, "0", snap.NetWorth)
		eq(t, "0", snap.LeveragePct)
		assert.Equal(t, 0, snap.HoldingsCount)
		assert.Empty(t, snap.Positions)
	})

	t.Run("unknown ticker stays within the fallback band", func(t *testing.T) {
		noisy := prices.NewResolver(nil, prices.NewRandomNoise(7))
		pos := position(t, "XYZ", "10", "100", models.AssetStocks)

		snap := ComputeMetrics([]models.Position{pos}, noisy)
		require.Len(t, snap.Positions, 1)
		pm := snap.Positions[0]

		eq(t, "1000", pm.CostBasis)
		assert.True(t, pm.CurrentValue.GreaterThanOrEqual(decimal.NewFromInt(900)))
		assert.True(t, pm.CurrentValue.LessThanOrEqual(decimal.NewFromInt(1100)))
		assert.True(t, pm.ReturnPct.GreaterThanOrEqual(decimal.NewFromInt(-10)))
		assert.True(t, pm.ReturnPct.LessThanOrEqual(decimal.NewFromInt(10)))
	})

	t.Run("loan plus holding with real price", func(t *testing.T) {
		loan := position(t, "LOAN1", "1", "-5000", models.AssetLoan)
		aaa := position(t, "AAA", "100", "50", models.AssetStocks)
		aaa.SetRealPrice(decimal.NewFromInt(60))

		snap := ComputeMetrics([]models.Position{loan, aaa}, zero)

		eq(t, "5000", snap.TotalDebt)
		eq(t, "6000", snap.NetWorth)
		eq(t, "6000", snap.TotalCurrentValue)
		assert.Equal(t, "83.33", snap.LeveragePct.StringFixed(2))

		require.Len(t, snap.Positions, 2)
		loanMetrics, holding := snap.Positions[0], snap.Positions[1]

		eq(t, "-5000", loanMetrics.CostBasis)
		eq(t, "-5000", loanMetrics.CurrentValue)
		eq(t, "0", loanMetrics.GainLoss)
		eq(t, "0", loanMetrics.ReturnPct)
		eq(t, "0", loanMetrics.AllocationPct)

		eq(t, "6000", holding.CurrentValue)
		eq(t, "1000", holding.GainLoss)
		eq(t, "20", holding.ReturnPct)
		eq(t, "100", holding.AllocationPct)
	})

	t.Run("return pct guarded for non-positive cost basis", func(t *testing.T) {
		free := position(t, "GIFT", "10", "0", models.AssetStocks)
		free.SetRealPrice(decimal.NewFromInt(5))

		snap := ComputeMetrics([]models.Position{free}, zero)
		eq(t, "0", snap.Positions[0].ReturnPct)
		eq(t, "0", snap.TotalReturnPct)
	})

	t.Run("price change is absent without a last price", func(t *testing.T) {
		pos := position(t, "AAA", "1", "50", models.AssetStocks)
		pos.SetRealPrice(decimal.NewFromInt(60))

		snap := ComputeMetrics([]models.Position{pos}, zero)
		pm := snap.Positions[0]

		assert.Nil(t, pm.PriceChange, "no last price means no change data, not 0%")
		assert.Nil(t, pm.PriceChangePct)
	})

	t.Run("price change computed from last price", func(t *testing.T) {
		pos := position(t, "AAA", "1", "50", models.AssetStocks)
		pos.SetRealPrice(decimal.NewFromInt(50))
		pos.SetRealPrice(decimal.NewFromInt(60))

		snap := ComputeMetrics([]models.Position{pos}, zero)
		pm := snap.Positions[0]

		require.NotNil(t, pm.PriceChange)
		require.NotNil(t, pm.PriceChangePct)
		eq(t, "10", *pm.PriceChange)
		eq(t, "20", *pm.PriceChangePct)
	})

	t.Run("allocation splits across holdings", func(t *testing.T) {
		a := position(t, "AAA", "1", "100", models.AssetStocks)
		a.SetRealPrice(decimal.NewFromInt(300))
		b := position(t, "BBB", "1", "100", models.AssetETF)
		b.SetRealPrice(decimal.NewFromInt(100))

		snap := ComputeMetrics([]models.Position{a, b}, zero)
		eq(t, "75", snap.Positions[0].AllocationPct)
		eq(t, "25", snap.Positions[1].AllocationPct)
	})
}

func TestBestWorst(t *testing.T) {
	zero := prices.NewResolver(nil, prices.NewZeroNoise())

	t.Run("only loans reports no data", func(t *testing.T) {
		loan := position(t, "LOAN1", "1", "-5000", models.AssetLoan)
		snap := ComputeMetrics([]models.Position{loan}, zero)

		_, _, ok := snap.BestWorst()
		assert.False(t, ok)
	})

	t.Run("positions without change data are not eligible", func(t *testing.T) {
		pos := position(t, "AAA", "1", "50", models.AssetStocks)
		pos.SetRealPrice(decimal.NewFromInt(60))
		snap := ComputeMetrics([]models.Position{pos}, zero)

		_, _, ok := snap.BestWorst()
		assert.False(t, ok)
	})

	t.Run("orders by price change pct", func(t *testing.T) {
		up := position(t, "UP", "1", "100", models.AssetStocks)
		up.SetRealPrice(decimal.NewFromInt(100))
		up.SetRealPrice(decimal.NewFromInt(120))

		down := position(t, "DOWN", "1", "100", models.AssetStocks)
		down.SetRealPrice(decimal.NewFromInt(100))
		down.SetRealPrice(decimal.NewFromInt(90))

		flat := position(t, "FLAT", "1", "100", models.AssetStocks)
		flat.SetRealPrice(decimal.NewFromInt(100))
		flat.SetRealPrice(decimal.NewFromInt(100))

		snap := ComputeMetrics([]models.Position{down, flat, up}, zero)
		best, worst, ok := snap.BestWorst()
		require.True(t, ok)
		assert.Equal(t, "UP", best.Ticker)
		assert.Equal(t, "DOWN", worst.Ticker)
	})
}

func TestDerivedViews(t *testing.T) {
	zero := prices.NewResolver(nil, prices.NewZeroNoise())

	a := position(t, "AAA", "1", "100", models.AssetStocks)
	a.SetRealPrice(decimal.NewFromInt(300))
	b := position(t, "BBB", "1", "100", models.AssetCrypto)
	b.SetRealPrice(decimal.NewFromInt(100))
	loan := position(t, "LOAN1", "1", "-500", models.AssetLoan)

	snap := ComputeMetrics([]models.Position{a, b, loan}, zero)

	t.Run("asset allocation sums per class", func(t *testing.T) {
		allocation := snap.AssetAllocation()
		eq(t, "300", allocation[models.AssetStocks])
		eq(t, "100", allocation[models.AssetCrypto])
		eq(t, "-500", allocation[models.AssetLoan])
	})

	t.Run("top holdings ordered by value", func(t *testing.T) {
		top := snap.TopHoldings(2)
		require.Len(t, top, 2)
		assert.Equal(t, "AAA", top[0].Ticker)
		assert.Equal(t, "BBB", top[1].Ticker)
	})
}
