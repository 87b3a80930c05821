package prices

import (
	"math/rand"

	"github.com/shopspring/decimal"

	"github.com/jfuentes/portfolio-tracker/internal/models"
)

// NoiseSource produces the random factor applied to simulated prices.
// Sample returns a value uniform on [-band, +band]. Tests inject a fixed
// source to pin resolution to exact values.
type NoiseSource interface {
	Sample(band float64) float64
}

// Fluctuation bands for simulated prices. Reference-table instruments move
// within a narrow intraday band; unknown tickers get a wider one reflecting
// higher uncertainty.
const (
	ReferenceBand = 0.03
	FallbackBand  = 0.10
)

type randNoise struct {
	rng *rand.Rand
}

func (n randNoise) Sample(band float64) float64 {
	return (n.rng.Float64()*2 - 1) * band
}

// NewRandomNoise returns the default pseudo-random noise source.
func NewRandomNoise(seed int64) NoiseSource {
	return randNoise{rng: rand.New(rand.NewSource(seed))}
}

// zeroNoise pins every sample to zero, making resolution deterministic.
type zeroNoise struct{}

func (zeroNoise) Sample(float64) float64 { return 0 }

// NewZeroNoise returns a noise source that never fluctuates.
func NewZeroNoise() NoiseSource { return zeroNoise{} }

// Resolver maps a position to a current price using a strict priority chain:
// loan rule, fetched real price, reference-table simulation, purchase-price
// simulation. Resolution is a pure read; repeated calls on the same position
// yield different simulated prices unless a real price is set.
type Resolver struct {
	reference map[string]decimal.Decimal
	noise     NoiseSource
}

// NewResolver creates a resolver over the given reference price table.
// A nil table uses DefaultReferencePrices.
func NewResolver(reference map[string]decimal.Decimal, noise NoiseSource) *Resolver {
	if reference == nil {
		reference = DefaultReferencePrices()
	}
	return &Resolver{reference: reference, noise: noise}
}

// Resolve returns the current price for a position.
func (r *Resolver) Resolve(pos *models.Position) decimal.Decimal {
	// Loans are carried at their declared value, always. No fluctuation,
	// no external lookup, even when a real price was somehow set.
	if pos.IsLoan() {
		return pos.PurchasePrice
	}

	if pos.RealPrice != nil {
		return *pos.RealPrice
	}

	if ref, ok := r.reference[pos.Ticker]; ok {
		return jitter(ref, r.noise.Sample(ReferenceBand))
	}

	return jitter(pos.PurchasePrice, r.noise.Sample(FallbackBand))
}

func jitter(base decimal.Decimal, u float64) decimal.Decimal {
	return base.Mul(decimal.NewFromFloat(1 + u))
}

// DefaultReferencePrices is the built-in table of known instruments used to
// simulate prices when no live feed is available.
func DefaultReferencePrices() map[string]decimal.Decimal {
	return map[string]decimal.Decimal{
		"AAPL":    decimal.NewFromFloat(178.50),
		"GOOGL":   decimal.NewFromFloat(142.30),
		"MSFT":    decimal.NewFromFloat(378.90),
		"AMZN":    decimal.NewFromFloat(155.20),
		"META":    decimal.NewFromFloat(485.60),
		"TSLA":    decimal.NewFromFloat(248.70),
		"NVDA":    decimal.NewFromFloat(495.30),
		"BTC-USD": decimal.NewFromFloat(43250.00),
		"ETH-USD": decimal.NewFromFloat(2280.50),
		"SPY":     decimal.NewFromFloat(478.90),
		"QQQ":     decimal.NewFromFloat(408.20),
		"GLD":     decimal.NewFromFloat(198.40),
		"TLT":     decimal.NewFromFloat(92.30),
	}
}
