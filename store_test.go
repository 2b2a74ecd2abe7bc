package rebalance

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestStoreInitialHoldings(t *testing.T) {
	p := testPortfolio()
	p.Assets = append(p.Assets, Asset{ID: "empty", Name: "Empty", Class: Cash, Currency: "EUR"})
	s := NewStore(p)

	holdings := s.Holdings()
	if len(holdings) != 4 {
		t.Fatalf("len(Holdings()) = %d, want 4 (zero quantities are not held)", len(holdings))
	}
	if _, held := s.Holding("empty"); held {
		t.Error("a zero-quantity asset must not appear in the holding set")
	}

	h, held := s.Holding("vti")
	if !held {
		t.Fatal("vti should be held")
	}
	if !h.Quantity.Equal(Q(200)) || !h.AvgPrice.Equal(EUR(220)) {
		t.Errorf("vti holding = %s @ %s, want 200 @ %s", h.Quantity, h.AvgPrice, EUR(220))
	}

	// 200*220 + 100*100 + 0.5*60000 + 10*50 = 84500
	if !s.InitialValue().Equal(EUR(84500)) {
		t.Errorf("InitialValue() = %v, want %v", s.InitialValue(), EUR(84500))
	}
}

func TestStoreValuationAndAllocation(t *testing.T) {
	f := newFakeProvider()
	quoteTestPrices(f)
	p := testPortfolio()
	s := NewStore(p)
	c := NewPriceCache(f, p)

	total, byClass, err := s.Valuation(context.Background(), c)
	if err != nil {
		t.Fatalf("Valuation() error = %v", err)
	}
	// 200*225 + 10*55 = 45550 stock, 100*98 = 9800 bond, 0.5*58500 = 29250 crypto
	if !total.Equal(EUR(84600)) {
		t.Errorf("total = %v, want %v", total, EUR(84600))
	}
	if !byClass[Stock].Equal(EUR(45550)) {
		t.Errorf("stock value = %v, want %v", byClass[Stock], EUR(45550))
	}

	allocation, _, err := s.Allocation(context.Background(), c)
	if err != nil {
		t.Fatalf("Allocation() error = %v", err)
	}
	if !allocation[Stock].Equal(Percent(45550.0 / 84600.0 * 100)) {
		t.Errorf("stock allocation = %v", allocation[Stock])
	}

	deviation := s.Deviation(allocation)
	// target 60 stock, so deviation is positive: the portfolio is under.
	if deviation[Stock] <= 0 {
		t.Errorf("stock deviation = %v, want positive (underweight)", deviation[Stock])
	}
	wantStock := Percent(60) - allocation[Stock]
	if !deviation[Stock].Equal(wantStock) {
		t.Errorf("stock deviation = %v, want %v", deviation[Stock], wantStock)
	}
}

func TestStoreDeviationUntargetedClass(t *testing.T) {
	p := testPortfolio()
	delete(p.TargetAllocation, Crypto)
	s := NewStore(p)

	allocation := map[AssetClass]Percent{Stock: 50, Bond: 20, Crypto: 30}
	deviation := s.Deviation(allocation)
	// A held class with no target is fully overweight.
	if !deviation[Crypto].Equal(-30) {
		t.Errorf("crypto deviation = %v, want -30", deviation[Crypto])
	}
}

func TestStoreAllocationEmptyPortfolio(t *testing.T) {
	p := &Portfolio{Name: "empty", BaseCurrency: "EUR"}
	s := NewStore(p)
	c := NewPriceCache(newFakeProvider(), p)

	_, _, err := s.Allocation(context.Background(), c)
	var empty *EmptyPortfolioError
	if !errors.As(err, &empty) {
		t.Fatalf("Allocation() error = %v, want EmptyPortfolioError", err)
	}
}

func TestHoldingBuyWeightedAverage(t *testing.T) {
	h := Holding{AssetID: "vti", Class: Stock, Quantity: Q(200), AvgPrice: EUR(220)}

	h = h.buy(Q(50), EUR(225))
	if !h.Quantity.Equal(Q(250)) {
		t.Errorf("quantity = %s, want 250", h.Quantity)
	}
	// (200*220 + 50*225) / 250 = 221
	if !h.AvgPrice.Equal(EUR(221)) {
		t.Errorf("average price = %v, want %v", h.AvgPrice, EUR(221))
	}

	// A sell leaves the average untouched.
	h = h.sell(Q(100))
	if !h.Quantity.Equal(Q(150)) {
		t.Errorf("quantity after sell = %s, want 150", h.Quantity)
	}
	if !h.AvgPrice.Equal(EUR(221)) {
		t.Errorf("average price after sell = %v, want %v", h.AvgPrice, EUR(221))
	}
}

func TestReplayReproducesStore(t *testing.T) {
	f := newFakeProvider()
	quoteTestPrices(f)
	p := testPortfolio()
	s := NewStore(p)
	c := NewPriceCache(f, p)
	sim := NewSimulator(s, c, nil)

	trades := []struct {
		action   Action
		assetID  string
		quantity Quantity
	}{
		{Buy, "vti", Q(50)},
		{Sell, "agg", Q(40)},
		{Buy, "btc", Q(0.25)},
		{Sell, "vti", Q(100)},
		{Sell, "btc", Q(0.75)}, // sells the position down to zero
	}
	for _, tr := range trades {
		if _, err := sim.SimulateTrade(context.Background(), tr.action, tr.assetID, tr.quantity, "test"); err != nil {
			t.Fatalf("SimulateTrade(%s %s) error = %v", tr.action, tr.assetID, err)
		}
	}

	replayed, err := Replay(p, s.Ledger())
	if err != nil {
		t.Fatalf("Replay() error = %v", err)
	}

	live := s.Holdings()
	if len(replayed) != len(live) {
		t.Fatalf("replayed %d holdings, live %d", len(replayed), len(live))
	}
	for _, h := range live {
		r, ok := replayed[h.AssetID]
		if !ok {
			t.Errorf("replay lost holding %q", h.AssetID)
			continue
		}
		if !r.Quantity.Equal(h.Quantity) || !r.AvgPrice.Equal(h.AvgPrice) {
			t.Errorf("replay %q = %s @ %s, live %s @ %s", h.AssetID, r.Quantity, r.AvgPrice, h.Quantity, h.AvgPrice)
		}
	}
	if _, ok := replayed["btc"]; ok {
		t.Error("btc was sold to zero, replay must not retain it")
	}
}

func TestStoreReset(t *testing.T) {
	f := newFakeProvider()
	quoteTestPrices(f)
	p := testPortfolio()
	s := NewStore(p)
	c := NewPriceCache(f, p)
	sim := NewSimulator(s, c, nil)

	if _, err := sim.SimulateTrade(context.Background(), Buy, "vti", Q(10), "test"); err != nil {
		t.Fatalf("SimulateTrade() error = %v", err)
	}
	if len(s.Ledger()) != 1 {
		t.Fatalf("ledger size = %d, want 1", len(s.Ledger()))
	}

	s.reset()
	if len(s.Ledger()) != 0 {
		t.Error("reset must clear the ledger")
	}
	h, _ := s.Holding("vti")
	if !h.Quantity.Equal(Q(200)) {
		t.Errorf("vti quantity after reset = %s, want 200", h.Quantity)
	}
}

func TestStoreTotalFees(t *testing.T) {
	s := NewStore(testPortfolio())
	now := time.Now()
	s.applyTrade(Trade{ID: "a", Action: Buy, AssetID: "vti", Quantity: Q(1), Price: EUR(100), Fee: EUR(2), Timestamp: now},
		Holding{AssetID: "vti", Class: Stock, Quantity: Q(201), AvgPrice: EUR(219)})
	s.applyTrade(Trade{ID: "b", Action: Sell, AssetID: "vti", Quantity: Q(1), Price: EUR(100), Fee: EUR(3), Timestamp: now},
		Holding{AssetID: "vti", Class: Stock, Quantity: Q(200), AvgPrice: EUR(219)})

	if !s.TotalFees().Equal(EUR(5)) {
		t.Errorf("TotalFees() = %v, want %v", s.TotalFees(), EUR(5))
	}
}
