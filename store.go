package rebalance

import (
	"context"
	"slices"
	"sync"
)

// Holding is a position in the active holding set: an asset reference, a
// non-negative quantity and the weighted average acquisition price.
// A holding whose quantity reaches zero is removed from the set, never
// retained as a zero row.
type Holding struct {
	AssetID  string     `json:"assetId"`
	Class    AssetClass `json:"class"`
	Quantity Quantity   `json:"quantity"`
	AvgPrice Money      `json:"averagePrice"`
}

// CostBasis returns the acquisition cost of the holding.
func (h Holding) CostBasis() Money { return h.AvgPrice.Mul(h.Quantity) }

// Store owns the canonical in-memory portfolio state for its process:
// the active holding set, the append-only trade ledger, and the immutable
// portfolio definition. Reads may proceed concurrently; mutation is
// serialized and only happens through the trade simulator.
type Store struct {
	mu        sync.RWMutex
	portfolio *Portfolio
	holdings  map[string]Holding
	ledger    []Trade

	initialValue Money // fixed at load time, never mutated
}

// NewStore builds a store from a portfolio definition, deriving the initial
// holding set from the declared quantities and purchase prices.
func NewStore(p *Portfolio) *Store {
	s := &Store{
		portfolio:    p,
		holdings:     initialHoldings(p),
		initialValue: p.InitialValue(),
	}
	return s
}

func initialHoldings(p *Portfolio) map[string]Holding {
	holdings := make(map[string]Holding, len(p.Assets))
	for _, a := range p.Assets {
		if a.Quantity.IsZero() {
			continue
		}
		holdings[a.ID] = Holding{
			AssetID:  a.ID,
			Class:    a.Class,
			Quantity: a.Quantity,
			AvgPrice: M(a.UnitPurchasePrice, p.BaseCurrency),
		}
	}
	return holdings
}

// Portfolio returns the immutable portfolio definition.
func (s *Store) Portfolio() *Portfolio { return s.portfolio }

// Profile returns the investor profile, a read-only input to analysis.
func (s *Store) Profile() InvestorProfile { return s.portfolio.Profile }

// InitialValue returns the reference value fixed at load time.
func (s *Store) InitialValue() Money { return s.initialValue }

// Holding returns the active holding for an asset, if any.
func (s *Store) Holding(assetID string) (Holding, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.holdings[assetID]
	return h, ok
}

// Holdings returns the active holding set, ordered by asset id.
func (s *Store) Holdings() []Holding {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Holding, 0, len(s.holdings))
	for _, h := range s.holdings {
		out = append(out, h)
	}
	slices.SortFunc(out, func(a, b Holding) int {
		if a.AssetID < b.AssetID {
			return -1
		}
		if a.AssetID > b.AssetID {
			return 1
		}
		return 0
	})
	return out
}

// Ledger returns the trade ledger in execution order.
func (s *Store) Ledger() []Trade {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.ledger)
}

// TotalFees sums the fees of every trade in the ledger.
func (s *Store) TotalFees() Money {
	s.mu.RLock()
	defer s.mu.RUnlock()
	total := M(0, s.portfolio.BaseCurrency)
	for _, t := range s.ledger {
		total = total.Add(t.Fee)
	}
	return total
}

// CostBasis sums the acquisition cost of the active holdings.
func (s *Store) CostBasis() Money {
	s.mu.RLock()
	defer s.mu.RUnlock()
	total := M(0, s.portfolio.BaseCurrency)
	for _, h := range s.holdings {
		total = total.Add(h.CostBasis())
	}
	return total
}

// Valuation computes the current total value and the value held per asset
// class, pricing every active holding through the cache.
func (s *Store) Valuation(ctx context.Context, cache *PriceCache) (Money, map[AssetClass]Money, error) {
	// Holdings() takes the read lock; price lookups happen outside it so a
	// slow provider does not block writers.
	holdings := s.Holdings()

	total := M(0, s.portfolio.BaseCurrency)
	byClass := make(map[AssetClass]Money)
	for _, h := range holdings {
		price, err := cache.Price(ctx, h.AssetID)
		if err != nil {
			return Money{}, nil, err
		}
		value := price.Mul(h.Quantity)
		total = total.Add(value)
		byClass[h.Class] = byClass[h.Class].Add(value)
	}
	return total, byClass, nil
}

// Allocation computes the current allocation percentage per asset class.
// A portfolio with zero total value has no defined allocation and yields
// an EmptyPortfolioError.
func (s *Store) Allocation(ctx context.Context, cache *PriceCache) (map[AssetClass]Percent, Money, error) {
	total, byClass, err := s.Valuation(ctx, cache)
	if err != nil {
		return nil, Money{}, err
	}
	if total.IsZero() {
		return nil, Money{}, &EmptyPortfolioError{Portfolio: s.portfolio.Name}
	}
	allocation := make(map[AssetClass]Percent, len(byClass))
	for class, value := range byClass {
		allocation[class] = Percent(value.AsFloat() / total.AsFloat() * 100)
	}
	return allocation, total, nil
}

// Deviation returns target minus current allocation per class, for every
// class present in either map.
func (s *Store) Deviation(allocation map[AssetClass]Percent) map[AssetClass]Percent {
	deviation := make(map[AssetClass]Percent)
	for class, target := range s.portfolio.TargetAllocation {
		deviation[class] = target - allocation[class]
	}
	for class, current := range allocation {
		if _, ok := s.portfolio.TargetAllocation[class]; !ok {
			deviation[class] = -current
		}
	}
	return deviation
}

// applyTrade installs a validated trade: it appends to the ledger and
// replaces (or removes) the affected holding, atomically with respect to
// readers. Callers must have validated the trade's preconditions.
func (s *Store) applyTrade(t Trade, h Holding) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ledger = append(s.ledger, t)
	if h.Quantity.IsZero() {
		delete(s.holdings, h.AssetID)
	} else {
		s.holdings[h.AssetID] = h
	}
}

// revertTrade undoes the most recent applyTrade after a failed persistence:
// it pops the ledger and restores the previous holding state.
func (s *Store) revertTrade(assetID string, prev Holding, held bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ledger = s.ledger[:len(s.ledger)-1]
	if held {
		s.holdings[assetID] = prev
	} else {
		delete(s.holdings, assetID)
	}
}

// restore replaces the holding set and ledger wholesale. Used by state
// synchronization when this process materializes a copy written elsewhere.
func (s *Store) restore(holdings map[string]Holding, ledger []Trade) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.holdings = holdings
	s.ledger = ledger
}

// reset returns the store to its load-time state: initial holdings, empty
// ledger.
func (s *Store) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.holdings = initialHoldings(s.portfolio)
	s.ledger = nil
}

// Replay rebuilds the holding set by applying a trade ledger to the
// portfolio's initial holdings. The ledger is authoritative: replaying it
// from the initial state must reproduce the live store exactly.
func Replay(p *Portfolio, ledger []Trade) (map[string]Holding, error) {
	holdings := initialHoldings(p)
	for _, t := range ledger {
		h, held := holdings[t.AssetID]
		if !held {
			asset := p.Asset(t.AssetID)
			if asset == nil {
				return nil, &UnknownAssetError{AssetID: t.AssetID}
			}
			h = Holding{AssetID: t.AssetID, Class: asset.Class, AvgPrice: M(0, p.BaseCurrency)}
		}
		switch t.Action {
		case Buy:
			h = h.buy(t.Quantity, t.Price)
		case Sell:
			if h.Quantity.LessThan(t.Quantity) {
				return nil, &InsufficientHoldingsError{AssetID: t.AssetID, Held: h.Quantity, Requested: t.Quantity}
			}
			h = h.sell(t.Quantity)
		default:
			return nil, &InvalidActionError{Action: string(t.Action)}
		}
		if h.Quantity.IsZero() {
			delete(holdings, t.AssetID)
		} else {
			holdings[t.AssetID] = h
		}
	}
	return holdings, nil
}

// buy increases the quantity and recomputes the quantity-weighted average
// acquisition price.
func (h Holding) buy(quantity Quantity, price Money) Holding {
	newQty := h.Quantity.Add(quantity)
	cost := h.AvgPrice.Mul(h.Quantity).Add(price.Mul(quantity))
	h.AvgPrice = cost.Div(newQty)
	h.Quantity = newQty
	return h
}

// sell decreases quantity. The average acquisition price tracks the cost
// basis of buys only and is untouched by sells.
func (h Holding) sell(quantity Quantity) Holding {
	h.Quantity = h.Quantity.Sub(quantity)
	return h
}
