package rebalance

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestPriceCacheServesCachedWithinTTL(t *testing.T) {
	f := newFakeProvider()
	quoteTestPrices(f)
	c := NewPriceCache(f, testPortfolio())

	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	q, err := c.QuoteAsset(context.Background(), "vti")
	if err != nil {
		t.Fatalf("QuoteAsset() error = %v", err)
	}
	if q.Source != SourceProvider {
		t.Errorf("first lookup source = %v, want %v", q.Source, SourceProvider)
	}
	if !q.Price.Equal(EUR(225)) {
		t.Errorf("first lookup price = %v, want %v", q.Price, EUR(225))
	}

	// Within the TTL the cache answers without calling the provider.
	now = now.Add(14 * time.Minute)
	q, err = c.QuoteAsset(context.Background(), "vti")
	if err != nil {
		t.Fatalf("QuoteAsset() error = %v", err)
	}
	if q.Source != SourceCached {
		t.Errorf("second lookup source = %v, want %v", q.Source, SourceCached)
	}
	if got := f.calls["VTI"]; got != 1 {
		t.Errorf("provider calls = %d, want 1", got)
	}

	// Past the TTL the provider is consulted again.
	now = now.Add(2 * time.Minute)
	if _, err := c.QuoteAsset(context.Background(), "vti"); err != nil {
		t.Fatalf("QuoteAsset() error = %v", err)
	}
	if got := f.calls["VTI"]; got != 2 {
		t.Errorf("provider calls after expiry = %d, want 2", got)
	}
}

func TestPriceCacheRefreshBypassesCache(t *testing.T) {
	f := newFakeProvider()
	quoteTestPrices(f)
	c := NewPriceCache(f, testPortfolio())

	if _, err := c.QuoteAsset(context.Background(), "vti"); err != nil {
		t.Fatalf("QuoteAsset() error = %v", err)
	}
	f.prices["VTI"] = 230

	q, err := c.Refresh(context.Background(), "vti")
	if err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if !q.Price.Equal(EUR(230)) {
		t.Errorf("Refresh() price = %v, want %v", q.Price, EUR(230))
	}
	if got := f.calls["VTI"]; got != 2 {
		t.Errorf("provider calls = %d, want 2", got)
	}
}

func TestPriceCacheStaleOnProviderFailure(t *testing.T) {
	f := newFakeProvider()
	quoteTestPrices(f)
	c := NewPriceCache(f, testPortfolio())

	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	if _, err := c.QuoteAsset(context.Background(), "vti"); err != nil {
		t.Fatalf("QuoteAsset() error = %v", err)
	}

	// Provider goes down, the entry expires: the stale price still serves.
	f.err = errors.New("rate limited")
	now = now.Add(2 * time.Hour)

	q, err := c.QuoteAsset(context.Background(), "vti")
	if err != nil {
		t.Fatalf("QuoteAsset() after failure error = %v", err)
	}
	if q.Source != SourceStale {
		t.Errorf("source = %v, want %v", q.Source, SourceStale)
	}
	if !q.Price.Equal(EUR(225)) {
		t.Errorf("stale price = %v, want %v", q.Price, EUR(225))
	}
}

func TestPriceCacheFallbackChain(t *testing.T) {
	f := newFakeProvider()
	f.err = errors.New("provider down")
	c := NewPriceCache(f, testPortfolio())

	// No ticker, never fetched: the declared fallback price serves.
	q, err := c.QuoteAsset(context.Background(), "fund")
	if err != nil {
		t.Fatalf("QuoteAsset(fund) error = %v", err)
	}
	if q.Source != SourceFallback {
		t.Errorf("fund source = %v, want %v", q.Source, SourceFallback)
	}
	if !q.Price.Equal(EUR(55)) {
		t.Errorf("fund price = %v, want %v", q.Price, EUR(55))
	}

	// Tradeable but never fetched and no fallback: the purchase price serves.
	q, err = c.QuoteAsset(context.Background(), "vti")
	if err != nil {
		t.Fatalf("QuoteAsset(vti) error = %v", err)
	}
	if q.Source != SourcePurchase {
		t.Errorf("vti source = %v, want %v", q.Source, SourcePurchase)
	}
	if !q.Price.Equal(EUR(220)) {
		t.Errorf("vti price = %v, want %v", q.Price, EUR(220))
	}
}

func TestPriceCacheNoPriceAtAll(t *testing.T) {
	p := testPortfolio()
	p.Assets = append(p.Assets, Asset{ID: "ghost", Name: "Ghost", Class: Stock, Currency: "EUR"})
	f := newFakeProvider()
	c := NewPriceCache(f, p)

	_, err := c.QuoteAsset(context.Background(), "ghost")
	var noPrice *NoPriceError
	if !errors.As(err, &noPrice) {
		t.Fatalf("QuoteAsset(ghost) error = %v, want NoPriceError", err)
	}

	_, err = c.QuoteAsset(context.Background(), "nope")
	var unknown *UnknownAssetError
	if !errors.As(err, &unknown) {
		t.Fatalf("QuoteAsset(nope) error = %v, want UnknownAssetError", err)
	}
}

func TestPriceCacheCurrencyConversion(t *testing.T) {
	f := newFakeProvider()
	quoteTestPrices(f)
	c := NewPriceCache(f, testPortfolio())

	// BTC is fetched as X:BTCUSD and converted at the USDEUR rate.
	q, err := c.QuoteAsset(context.Background(), "btc")
	if err != nil {
		t.Fatalf("QuoteAsset(btc) error = %v", err)
	}
	if !q.Price.Equal(EUR(58500)) {
		t.Errorf("btc price = %v, want %v", q.Price, EUR(58500))
	}
	if got := f.calls["X:BTCUSD"]; got != 1 {
		t.Errorf("crypto ticker calls = %d, want 1", got)
	}
}

func TestPriceCacheFallbackForexRate(t *testing.T) {
	f := newFakeProvider()
	f.prices["X:BTCUSD"] = 50000
	// No USDEUR rate declared: conversion uses the static fallback.
	c := NewPriceCache(f, testPortfolio())

	q, err := c.QuoteAsset(context.Background(), "btc")
	if err != nil {
		t.Fatalf("QuoteAsset(btc) error = %v", err)
	}
	if !q.Price.Equal(EUR(46000)) {
		t.Errorf("btc price = %v, want %v", q.Price, EUR(46000))
	}
}

func TestProviderTicker(t *testing.T) {
	tests := []struct {
		asset Asset
		want  string
	}{
		{Asset{Ticker: "vti", Class: Stock}, "VTI"},
		{Asset{Ticker: "BTC", Class: Crypto}, "X:BTCUSD"},
		{Asset{Ticker: "eth", Class: Crypto}, "X:ETHUSD"},
		{Asset{Ticker: "X:BTCEUR", Class: Crypto}, "X:BTCEUR"},
	}
	for _, tt := range tests {
		if got := providerTicker(tt.asset); got != tt.want {
			t.Errorf("providerTicker(%q) = %q, want %q", tt.asset.Ticker, got, tt.want)
		}
	}
}

func TestNeedsConversion(t *testing.T) {
	tests := []struct {
		currency string
		ticker   string
		want     bool
	}{
		{"EUR", "VTI", false},      // quoted in base already
		{"USD", "X:BTCUSD", true},  // USD quote, EUR base
		{"USD", "X:BTCEUR", false}, // ticker already denominated in base
	}
	for _, tt := range tests {
		a := Asset{Currency: tt.currency}
		if got := needsConversion(a, tt.ticker, "EUR"); got != tt.want {
			t.Errorf("needsConversion(%s, %s, EUR) = %v, want %v", tt.currency, tt.ticker, got, tt.want)
		}
	}
}
