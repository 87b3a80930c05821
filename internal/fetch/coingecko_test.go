package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoinGeckoSupports(t *testing.T) {
	c := NewCoinGecko("http://unused", NewMemoryCache())

	assert.True(t, c.Supports("BTC"))
	assert.True(t, c.Supports("btc"))
	assert.True(t, c.Supports("BTC-USD"))
	assert.True(t, c.Supports("ETH"))
	assert.False(t, c.Supports("AAPL"))
	assert.False(t, c.Supports("XYZ"))

	id, ok := c.CoinID("BTC-USD")
	require.True(t, ok)
	assert.Equal(t, "bitcoin", id)
}

func TestCoinGeckoFetchMany(t *testing.T) {
	ctx := context.Background()

	t.Run("batches all ids into one call and demultiplexes", func(t *testing.T) {
		var calls int
		var gotIDs []string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			gotIDs = strings.Split(r.URL.Query().Get("ids"), ",")
			assert.Equal(t, "usd", r.URL.Query().Get("vs_currencies"))
			w.Write([]byte(`{"bitcoin": {"usd": 43250.50}, "ethereum": {"usd": 2280}}`))
		}))
		defer server.Close()

		c := NewCoinGecko(server.URL, NewMemoryCache())
		results := c.FetchMany(ctx, []string{"BTC", "ETH"})

		assert.Equal(t, 1, calls)
		assert.ElementsMatch(t, []string{"bitcoin", "ethereum"}, gotIDs)
		require.NotNil(t, results["BTC"])
		require.NotNil(t, results["ETH"])
		assert.True(t, decimal.NewFromFloat(43250.50).Equal(*results["BTC"]))
		assert.True(t, decimal.NewFromInt(2280).Equal(*results["ETH"]))
	})

	t.Run("suffixed and bare tickers share one id", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "bitcoin", r.URL.Query().Get("ids"))
			w.Write([]byte(`{"bitcoin": {"usd": 43000}}`))
		}))
		defer server.Close()

		c := NewCoinGecko(server.URL, NewMemoryCache())
		results := c.FetchMany(ctx, []string{"BTC", "BTC-USD"})

		require.NotNil(t, results["BTC"])
		require.NotNil(t, results["BTC-USD"])
		assert.True(t, results["BTC"].Equal(*results["BTC-USD"]))
	})

	t.Run("unknown tickers are omitted, not failed", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"bitcoin": {"usd": 43000}}`))
		}))
		defer server.Close()

		c := NewCoinGecko(server.URL, NewMemoryCache())
		results := c.FetchMany(ctx, []string{"BTC", "NOTACOIN"})

		require.NotNil(t, results["BTC"])
		_, present := results["NOTACOIN"]
		assert.False(t, present)
	})

	t.Run("missing usd key leaves the ticker unresolved", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"bitcoin": {"usd": 43000}, "ethereum": {}}`))
		}))
		defer server.Close()

		c := NewCoinGecko(server.URL, NewMemoryCache())
		results := c.FetchMany(ctx, []string{"BTC", "ETH"})

		require.NotNil(t, results["BTC"])
		_, present := results["ETH"]
		assert.False(t, present)
	})

	t.Run("cache hit skips the batch call entirely", func(t *testing.T) {
		calls := 0
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			w.Write([]byte(`{"bitcoin": {"usd": 43000}}`))
		}))
		defer server.Close()

		c := NewCoinGecko(server.URL, NewMemoryCache())
		first := c.FetchMany(ctx, []string{"BTC"})
		second := c.FetchMany(ctx, []string{"BTC"})

		assert.Equal(t, 1, calls)
		require.NotNil(t, second["BTC"])
		assert.True(t, first["BTC"].Equal(*second["BTC"]))
	})

	t.Run("batch failure resolves only the cached portion", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		}))
		defer server.Close()

		cache := NewMemoryCache()
		cache.Set(ctx, "bitcoin", decimal.NewFromInt(42000))

		c := NewCoinGecko(server.URL, cache)
		results := c.FetchMany(ctx, []string{"BTC", "ETH"})

		require.NotNil(t, results["BTC"])
		assert.True(t, decimal.NewFromInt(42000).Equal(*results["BTC"]))
		_, present := results["ETH"]
		assert.False(t, present)
	})
}

func TestCoinGeckoFetchPrice(t *testing.T) {
	ctx := context.Background()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"bitcoin": {"usd": 43000}}`))
	}))
	defer server.Close()

	c := NewCoinGecko(server.URL, NewMemoryCache())

	price, err := c.FetchPrice(ctx, "btc")
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(43000).Equal(price))

	_, err = c.FetchPrice(ctx, "AAPL")
	assert.Error(t, err)
}
