package rebalance

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// PriceProvider is the external market data feed contract: given a provider
// ticker it returns the most recent known trade price in the quote currency
// (USD for Polygon-style providers), or fails. It gives no freshness
// guarantee beyond "most recent known trade".
type PriceProvider interface {
	LastTrade(ctx context.Context, ticker string) (float64, error)
	// ForexRate returns how much one unit of 'from' is worth in 'to'.
	ForexRate(ctx context.Context, from, to string) (float64, error)
}

// PriceSource tells where a resolved price came from.
type PriceSource string

const (
	SourceProvider PriceSource = "provider"       // live provider quote
	SourceCached   PriceSource = "cache"          // live cache entry, within TTL
	SourceStale    PriceSource = "stale cache"    // expired entry, provider unavailable
	SourceFallback PriceSource = "fallback price" // manually maintained fallback
	SourcePurchase PriceSource = "purchase price" // last resort: load-time cost
)

// Quote is a resolved price with its provenance.
type Quote struct {
	AssetID   string      `json:"assetId"`
	Price     Money       `json:"price"`
	Source    PriceSource `json:"source"`
	FetchedAt time.Time   `json:"fetchedAt"`
}

const (
	// DefaultTTL is how long a fetched price stays live.
	DefaultTTL = 15 * time.Minute
	// forexTTL is how long a fetched exchange rate stays live.
	forexTTL = time.Hour
)

// fallbackUSDRate approximates the USD to base-currency rate when the
// provider never produced one.
var fallbackUSDRate = decimal.NewFromFloat(0.92)

type cacheEntry struct {
	price     decimal.Decimal
	source    PriceSource
	fetchedAt time.Time
}

// PriceCache fronts the rate-limited price provider with TTL expiry and a
// degradation chain. A lookup never fails for an asset that has any price
// at all: live quote, then stale cache entry of any age, then the asset's
// fallback price, then its purchase price. Only an asset with none of
// those yields a NoPriceError.
type PriceCache struct {
	mu        sync.Mutex
	provider  PriceProvider
	portfolio *Portfolio
	ttl       time.Duration
	now       func() time.Time

	prices map[string]cacheEntry // by asset id
	rates  map[string]cacheEntry // by currency pair, e.g. "USDEUR"
}

// NewPriceCache creates a price cache over the given provider for the
// assets of the given portfolio.
func NewPriceCache(provider PriceProvider, portfolio *Portfolio) *PriceCache {
	return &PriceCache{
		provider:  provider,
		portfolio: portfolio,
		ttl:       DefaultTTL,
		now:       time.Now,
		prices:    make(map[string]cacheEntry),
		rates:     make(map[string]cacheEntry),
	}
}

// Clear drops every cached entry, forcing the next lookup for every asset
// to go back to the provider.
func (c *PriceCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prices = make(map[string]cacheEntry)
	c.rates = make(map[string]cacheEntry)
}

// Price returns the current price for an asset in the portfolio base
// currency, serving a live cache entry when one exists.
func (c *PriceCache) Price(ctx context.Context, assetID string) (Money, error) {
	q, err := c.QuoteAsset(ctx, assetID)
	if err != nil {
		return Money{}, err
	}
	return q.Price, nil
}

// QuoteAsset returns the current price with its provenance, serving a live
// cache entry when one exists.
func (c *PriceCache) QuoteAsset(ctx context.Context, assetID string) (Quote, error) {
	return c.quote(ctx, assetID, false)
}

// Refresh bypasses any live cache entry and asks the provider for the
// execution-time price. The degradation chain still applies on provider
// failure.
func (c *PriceCache) Refresh(ctx context.Context, assetID string) (Quote, error) {
	return c.quote(ctx, assetID, true)
}

func (c *PriceCache) quote(ctx context.Context, assetID string, bypass bool) (Quote, error) {
	asset := c.portfolio.Asset(assetID)
	if asset == nil {
		return Quote{}, &UnknownAssetError{AssetID: assetID}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if !bypass {
		if e, ok := c.prices[assetID]; ok && c.now().Sub(e.fetchedAt) < c.ttl {
			return c.entryQuote(assetID, e, SourceCached), nil
		}
	}

	if asset.Tradeable() {
		ticker := providerTicker(*asset)
		raw, err := c.provider.LastTrade(ctx, ticker)
		if err == nil {
			price := decimal.NewFromFloat(raw)
			if needsConversion(*asset, ticker, c.portfolio.BaseCurrency) {
				price = price.Mul(c.usdRate(ctx, c.portfolio.BaseCurrency))
			}
			e := cacheEntry{price: price, source: SourceProvider, fetchedAt: c.now()}
			c.prices[assetID] = e
			return c.entryQuote(assetID, e, SourceProvider), nil
		}
		log.Printf("price provider failed for %s (%s): %v", assetID, ticker, err)

		// Last known entry, regardless of age.
		if e, ok := c.prices[assetID]; ok {
			log.Printf("using stale price for %s (fetched %s)", assetID, e.fetchedAt.Format(time.RFC3339))
			return c.entryQuote(assetID, e, SourceStale), nil
		}
	}

	// Static per-asset fallback, then the load-time purchase price.
	if !asset.FallbackPrice.IsZero() {
		e := cacheEntry{price: asset.FallbackPrice, source: SourceFallback, fetchedAt: c.now()}
		c.prices[assetID] = e
		return c.entryQuote(assetID, e, SourceFallback), nil
	}
	if !asset.UnitPurchasePrice.IsZero() {
		e := cacheEntry{price: asset.UnitPurchasePrice, source: SourcePurchase, fetchedAt: c.now()}
		c.prices[assetID] = e
		return c.entryQuote(assetID, e, SourcePurchase), nil
	}

	return Quote{}, &NoPriceError{AssetID: assetID, Ticker: asset.Ticker}
}

// entryQuote builds a Quote from a cache entry. Cached prices are already
// converted, so every quote is denominated in the portfolio base currency.
func (c *PriceCache) entryQuote(assetID string, e cacheEntry, source PriceSource) Quote {
	return Quote{
		AssetID:   assetID,
		Price:     M(e.price, c.portfolio.BaseCurrency),
		Source:    source,
		FetchedAt: e.fetchedAt,
	}
}

// usdRate returns the USD to 'to' exchange rate, under the same TTL and
// degradation discipline as asset prices. It never fails: the last known
// rate, however stale, or the static fallback rate is used when the
// provider is unavailable. Callers hold c.mu.
func (c *PriceCache) usdRate(ctx context.Context, to string) decimal.Decimal {
	pair := "USD" + to
	if e, ok := c.rates[pair]; ok && c.now().Sub(e.fetchedAt) < forexTTL {
		return e.price
	}
	raw, err := c.provider.ForexRate(ctx, "USD", to)
	if err == nil {
		rate := decimal.NewFromFloat(raw)
		c.rates[pair] = cacheEntry{price: rate, source: SourceProvider, fetchedAt: c.now()}
		return rate
	}
	log.Printf("forex provider failed for %s: %v", pair, err)
	if e, ok := c.rates[pair]; ok {
		return e.price
	}
	log.Printf("using fallback %s rate %s", pair, fallbackUSDRate)
	c.rates[pair] = cacheEntry{price: fallbackUSDRate, source: SourceFallback, fetchedAt: c.now()}
	return fallbackUSDRate
}

// providerTicker maps an asset's declared ticker to the provider symbol.
// Crypto tickers use the Polygon crypto convention: BTC becomes X:BTCUSD.
// The transform is a pure function of the declared ticker so that every
// lookup resolves the same symbol.
func providerTicker(a Asset) string {
	t := strings.ToUpper(a.Ticker)
	if a.Class != Crypto {
		return t
	}
	if strings.HasPrefix(t, "X:") {
		return t
	}
	return "X:" + t + "USD"
}

// needsConversion reports whether a provider quote must be converted into
// the portfolio base currency. Assets quoted in the base currency need
// none, and neither do tickers already denominated in it (e.g. X:BTCEUR
// for a EUR portfolio). Everything else is assumed quoted in USD.
func needsConversion(a Asset, ticker, base string) bool {
	if a.Currency == base {
		return false
	}
	return !strings.Contains(ticker, base)
}
