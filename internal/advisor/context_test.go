package advisor

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jfuentes/portfolio-tracker/internal/models"
	"github.com/jfuentes/portfolio-tracker/internal/portfolio"
	"github.com/jfuentes/portfolio-tracker/internal/prices"
)

func snapshot(t *testing.T, positions ...models.Position) *portfolio.MetricsSnapshot {
	t.Helper()
	return portfolio.ComputeMetrics(positions, prices.NewResolver(nil, prices.NewZeroNoise()))
}

func TestBuildUserPrompt(t *testing.T) {
	t.Run("empty portfolio", func(t *testing.T) {
		prompt := BuildUserPrompt(snapshot(t), "where do I start?")

		assert.Contains(t, prompt, "SUMMARY:")
		assert.Contains(t, prompt, "- Total Value: $0.00")
		assert.Contains(t, prompt, "No holdings available")
		assert.Contains(t, prompt, "No allocation data")
		assert.Contains(t, prompt, "USER QUESTION: where do I start?")
	})

	t.Run("holdings and allocation are rendered", func(t *testing.T) {
		aapl, err := models.NewPosition("AAPL", "100", "50", models.AssetStocks)
		require.NoError(t, err)
		aapl.SetRealPrice(decimal.NewFromInt(60))
		loan, err := models.NewPosition("MORTGAGE", "1", "-5000", models.AssetLoan)
		require.NoError(t, err)

		prompt := BuildUserPrompt(snapshot(t, aapl, loan), "should I rebalance?")

		assert.Contains(t, prompt, "- Total Value: $6000.00")
		assert.Contains(t, prompt, "- Total Return: $1000.00 (+20.00%)")
		assert.Contains(t, prompt, "- Number of Holdings: 2")
		assert.Contains(t, prompt, "- Leverage: 83.3%")
		assert.Contains(t, prompt, "- AAPL (stocks): $60.00 | +20.00% | Allocation: 100.0%")
		assert.Contains(t, prompt, "- stocks: $6000.00")
		assert.Contains(t, prompt, "- loan: -$5000.00")
		assert.Contains(t, prompt, "USER QUESTION: should I rebalance?")
	})

	t.Run("asset classes render in a stable order", func(t *testing.T) {
		crypto, err := models.NewPosition("BTC", "1", "40000", models.AssetCrypto)
		require.NoError(t, err)
		stocks, err := models.NewPosition("AAPL", "1", "150", models.AssetStocks)
		require.NoError(t, err)

		prompt := BuildUserPrompt(snapshot(t, crypto, stocks), "ok?")
		assert.Less(t, strings.Index(prompt, "- stocks:"), strings.Index(prompt, "- crypto:"))
	})
}

func TestCannedResponse(t *testing.T) {
	assert.NotEmpty(t, CannedResponse())
}
