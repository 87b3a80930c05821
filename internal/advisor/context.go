package advisor

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jfuentes/portfolio-tracker/internal/models"
	"github.com/jfuentes/portfolio-tracker/internal/portfolio"
)

// BuildUserPrompt renders a metrics snapshot plus the user's question into
// the prompt text forwarded to the model.
func BuildUserPrompt(snap *portfolio.MetricsSnapshot, userMessage string) string {
	var b strings.Builder

	b.WriteString("Here is my current portfolio:\n\n")
	b.WriteString("SUMMARY:\n")
	fmt.Fprintf(&b, "- Total Value: %s\n", currency(snap.TotalCurrentValue))
	fmt.Fprintf(&b, "- Total Invested: %s\n", currency(snap.TotalInvested))
	fmt.Fprintf(&b, "- Total Return: %s (%s%%)\n", currency(snap.TotalGainLoss), signedPct(snap.TotalReturnPct))
	fmt.Fprintf(&b, "- Number of Holdings: %d\n", snap.HoldingsCount)
	fmt.Fprintf(&b, "- Leverage: %s%%\n", snap.LeveragePct.StringFixed(1))

	b.WriteString("\nHOLDINGS:\n")
	if len(snap.Positions) == 0 {
		b.WriteString("No holdings available\n")
	}
	for _, pm := range snap.Positions {
		fmt.Fprintf(&b, "- %s (%s): %s | %s%% | Allocation: %s%%\n",
			pm.Ticker, pm.AssetClass, currency(pm.CurrentPrice),
			signedPct(pm.ReturnPct), pm.AllocationPct.StringFixed(1))
	}

	b.WriteString("\nASSET ALLOCATION:\n")
	allocation := snap.AssetAllocation()
	if len(allocation) == 0 {
		b.WriteString("No allocation data\n")
	}
	for _, class := range []models.AssetClass{
		models.AssetStocks, models.AssetCrypto, models.AssetCommodities,
		models.AssetETF, models.AssetBonds, models.AssetLoan, models.AssetOther,
	} {
		if value, ok := allocation[class]; ok {
			fmt.Fprintf(&b, "- %s: %s\n", class, currency(value))
		}
	}

	fmt.Fprintf(&b, "\nUSER QUESTION: %s\n\n", userMessage)
	b.WriteString("Please analyze and provide insights based on your investment philosophy.")
	return b.String()
}

// CannedResponse is the local fallback used when no API key is configured or
// the upstream is unreachable; the chat feature degrades instead of blocking.
func CannedResponse() string {
	return "I can't reach the advisory model right now, so here is a general note: " +
		"review your allocation for concentration risk, keep leverage well below " +
		"your comfort level, and compare each holding's return against its cost " +
		"basis before making changes. Configure an API key for tailored analysis."
}

func currency(v decimal.Decimal) string {
	if v.IsNegative() {
		return "-$" + v.Abs().StringFixed(2)
	}
	return "$" + v.StringFixed(2)
}

func signedPct(v decimal.Decimal) string {
	s := v.StringFixed(2)
	if !v.IsNegative() {
		return "+" + s
	}
	return s
}
