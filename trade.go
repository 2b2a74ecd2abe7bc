package rebalance

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Action is the direction of a simulated trade.
type Action string

const (
	Buy  Action = "buy"
	Sell Action = "sell"
)

// ParseAction parses a string into an Action.
func ParseAction(s string) (Action, error) {
	switch Action(s) {
	case Buy:
		return Buy, nil
	case Sell:
		return Sell, nil
	default:
		return "", &InvalidActionError{Action: s}
	}
}

// Trade is one immutable record of the ledger: a simulated execution with
// its price, fee and rationale. Append order is execution order; records
// are never reordered or deleted.
type Trade struct {
	ID        string    `json:"id"`
	Action    Action    `json:"action"`
	AssetID   string    `json:"assetId"`
	Quantity  Quantity  `json:"quantity"`
	Price     Money     `json:"price"` // executed unit price, base currency
	Fee       Money     `json:"fee"`
	Rationale string    `json:"rationale"`
	Timestamp time.Time `json:"timestamp"`
}

// Gross returns quantity times executed price.
func (t Trade) Gross() Money { return t.Price.Mul(t.Quantity) }

// TotalCost returns the cash effect for a buy: gross plus fee.
func (t Trade) TotalCost() Money { return t.Gross().Add(t.Fee) }

// NetProceeds returns the cash effect for a sell: gross minus fee.
func (t Trade) NetProceeds() Money { return t.Gross().Sub(t.Fee) }

// MarshalJSON implements the json.Marshaler interface for Trade.
func (t Trade) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("id", t.ID)
	w.Append("action", t.Action)
	w.Append("assetId", t.AssetID)
	w.Append("quantity", t.Quantity)
	w.Append("price", t.Price)
	w.Append("fee", t.Fee)
	w.Optional("rationale", t.Rationale)
	w.Append("timestamp", t.Timestamp.Format(time.RFC3339))
	return w.MarshalJSON()
}

// Simulator is the only mutator of the store. It validates a requested
// trade, executes it at the fresh market price, applies the holding update
// and ledger append atomically, and persists the result so other processes
// observe the trade.
type Simulator struct {
	mu    sync.Mutex // one trade applies at a time
	store *Store
	cache *PriceCache
	sync  *StateSync

	now   func() time.Time
	newID func() string
}

// NewSimulator creates a trade simulator over the given store and price
// cache. sync may be nil when no cross-process synchronization is needed.
func NewSimulator(store *Store, cache *PriceCache, sync *StateSync) *Simulator {
	return &Simulator{
		store: store,
		cache: cache,
		sync:  sync,
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// SimulateTrade validates and executes one buy or sell.
//
// Precondition violations return a typed error before any state changes.
// The price is a fresh lookup, bypassing the cache, to reflect the true
// execution-time price. If persistence fails the in-memory mutation is
// rolled back and a PersistError is returned: a trade either fully happens
// (holding update, ledger append and persisted state) or not at all.
func (s *Simulator) SimulateTrade(ctx context.Context, action Action, assetID string, quantity Quantity, rationale string) (Trade, error) {
	if action != Buy && action != Sell {
		return Trade{}, &InvalidActionError{Action: string(action)}
	}
	if !quantity.IsPositive() {
		return Trade{}, &InvalidQuantityError{AssetID: assetID, Quantity: quantity}
	}
	asset := s.store.Portfolio().Asset(assetID)
	if asset == nil {
		return Trade{}, &UnknownAssetError{AssetID: assetID}
	}
	if !asset.Tradeable() {
		return Trade{}, &NotTradeableError{AssetID: assetID}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	quote, err := s.cache.Refresh(ctx, assetID)
	if err != nil {
		return Trade{}, err
	}
	price := quote.Price
	gross := price.Mul(quantity)
	fee := gross.Rate(s.store.Portfolio().TradingFee)

	prev, held := s.store.Holding(assetID)
	next := prev
	if !held {
		next = Holding{AssetID: assetID, Class: asset.Class, AvgPrice: M(0, s.store.Portfolio().BaseCurrency)}
	}
	switch action {
	case Buy:
		next = next.buy(quantity, price)
	case Sell:
		if !held || next.Quantity.LessThan(quantity) {
			return Trade{}, &InsufficientHoldingsError{AssetID: assetID, Held: next.Quantity, Requested: quantity}
		}
		next = next.sell(quantity)
	}

	trade := Trade{
		ID:        s.newID(),
		Action:    action,
		AssetID:   assetID,
		Quantity:  quantity,
		Price:     price,
		Fee:       fee,
		Rationale: rationale,
		Timestamp: s.now(),
	}

	s.store.applyTrade(trade, next)
	if s.sync != nil {
		if err := s.sync.Persist(s.store); err != nil {
			s.store.revertTrade(assetID, prev, held)
			return Trade{}, err
		}
	}
	return trade, nil
}
