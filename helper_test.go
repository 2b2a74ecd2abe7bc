package rebalance

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// EUR is a helper for test to create euro money from const
func EUR(v float64) Money { return M(v, "EUR") }

// USD is a helper for test to create usd money from const
func USD(v float64) Money { return M(v, "USD") }

// fakeProvider is a scriptable market feed. It records how many lookups
// each ticker received, so tests can assert on cache hits.
type fakeProvider struct {
	prices map[string]float64 // by provider ticker
	rates  map[string]float64 // by currency pair, e.g. "USDEUR"
	err    error              // when set, every lookup fails
	calls  map[string]int
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		prices: make(map[string]float64),
		rates:  make(map[string]float64),
		calls:  make(map[string]int),
	}
}

func (f *fakeProvider) LastTrade(_ context.Context, ticker string) (float64, error) {
	f.calls[ticker]++
	if f.err != nil {
		return 0, f.err
	}
	p, ok := f.prices[ticker]
	if !ok {
		return 0, fmt.Errorf("unknown ticker %q", ticker)
	}
	return p, nil
}

func (f *fakeProvider) ForexRate(_ context.Context, from, to string) (float64, error) {
	f.calls[from+to]++
	if f.err != nil {
		return 0, f.err
	}
	r, ok := f.rates[from+to]
	if !ok {
		return 0, fmt.Errorf("unknown pair %q", from+to)
	}
	return r, nil
}

// testPortfolio declares the fixture used across the package tests:
// a stock, a bond, a crypto position, a non-tradeable fund priced by
// fallback, and a 0.2% trading fee.
func testPortfolio() *Portfolio {
	return &Portfolio{
		Name:         "demo",
		BaseCurrency: "EUR",
		TradingFee:   decimal.NewFromFloat(0.002),
		Profile: InvestorProfile{
			RiskLevel:   "moderate",
			TimeHorizon: 10,
			Philosophy:  "low-cost index investing",
		},
		Assets: []Asset{
			{
				ID: "vti", Name: "Total Stock Market ETF", Class: Stock,
				Currency: "EUR", Ticker: "VTI",
				Quantity: Q(200), UnitPurchasePrice: decimal.NewFromInt(220),
			},
			{
				ID: "agg", Name: "Aggregate Bond ETF", Class: Bond,
				Currency: "EUR", Ticker: "AGG",
				Quantity: Q(100), UnitPurchasePrice: decimal.NewFromInt(100),
			},
			{
				ID: "btc", Name: "Bitcoin", Class: Crypto,
				Currency: "USD", Ticker: "BTC",
				Quantity: Q(0.5), UnitPurchasePrice: decimal.NewFromInt(60000),
			},
			{
				ID: "fund", Name: "Legacy Fund", Class: Stock,
				Currency: "EUR",
				Quantity: Q(10), UnitPurchasePrice: decimal.NewFromInt(50),
				FallbackPrice: decimal.NewFromInt(55),
			},
		},
		TargetAllocation: map[AssetClass]Percent{
			Stock:  60,
			Bond:   25,
			Crypto: 15,
		},
	}
}

// quoteTestPrices primes the fake provider with stable prices for the
// fixture's tickers.
func quoteTestPrices(f *fakeProvider) {
	f.prices["VTI"] = 225
	f.prices["AGG"] = 98
	f.prices["X:BTCUSD"] = 65000
	f.rates["USDEUR"] = 0.9
}
