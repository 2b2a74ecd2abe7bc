package rebalance

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// Capability is the permission tier of a caller or the class of an
// operation. A mutate caller may invoke anything; a read caller only
// read-class operations. The split is static for the whole session: the
// orchestrating collaborator holds mutate, subordinate analysis
// collaborators hold read.
type Capability string

const (
	ReadCapability   Capability = "read"
	MutateCapability Capability = "mutate"
)

// permits reports whether a caller with this capability may invoke an
// operation of the given class.
func (c Capability) permits(class Capability) bool {
	return c == MutateCapability || class == ReadCapability
}

// Operation names of the fixed catalogue.
const (
	OpGetPortfolioState = "get_portfolio_state"
	OpGetAssetPrice     = "get_asset_price"
	OpListTradeable     = "list_tradeable_assets"
	OpSimulateTrade     = "simulate_trade"
	OpGetTradeHistory   = "get_trade_history"
	OpPerformance       = "calculate_performance"
	OpGenerateAnalysis  = "generate_portfolio_analysis"
	OpSaveCommentary    = "save_analysis_commentary"
	OpResetPortfolio    = "reset_portfolio_state"
)

// Operation is one entry of the catalogue: a named handler with its
// capability class.
type Operation struct {
	Name        string
	Class       Capability
	Description string
	handler     func(ctx context.Context, args map[string]any) (any, error)
}

// ToolGate maps the fixed set of named operations to handlers and enforces
// the capability split on every invocation.
type ToolGate struct {
	store   *Store
	cache   *PriceCache
	sim     *Simulator
	session *Session
	sync    *StateSync

	ops   map[string]Operation
	order []string
}

// NewToolGate builds the catalogue over the given components. sync may be
// nil when no cross-process synchronization is needed.
func NewToolGate(store *Store, cache *PriceCache, sim *Simulator, session *Session, sync *StateSync) *ToolGate {
	g := &ToolGate{store: store, cache: cache, sim: sim, session: session, sync: sync}
	g.ops = make(map[string]Operation)

	g.register(OpGetPortfolioState, ReadCapability,
		"Current holdings with live prices, allocation per asset class, deviation from target, and the investor profile.",
		g.getPortfolioState)
	g.register(OpGetAssetPrice, ReadCapability,
		"Current market price for one asset, with the source the price came from. Takes 'assetId'.",
		g.getAssetPrice)
	g.register(OpListTradeable, ReadCapability,
		"Assets that have a market ticker and can be bought or sold, with their current prices.",
		g.listTradeable)
	g.register(OpSimulateTrade, MutateCapability,
		"Execute a simulated trade. Takes 'action' (buy or sell), 'assetId', a positive 'quantity' and a 'rationale'.",
		g.simulateTrade)
	g.register(OpGetTradeHistory, ReadCapability,
		"The ordered ledger of every simulated trade of this session.",
		g.getTradeHistory)
	g.register(OpPerformance, ReadCapability,
		"Performance metrics: initial versus current value, fees paid, net change.",
		g.performance)
	g.register(OpGenerateAnalysis, ReadCapability,
		"The frozen analysis figures of this session: total value, allocation, deviation, performance. Use these exact values, do not recalculate.",
		g.generateAnalysis)
	g.register(OpSaveCommentary, MutateCapability,
		"Attach qualitative commentary to the session analysis. Takes 'kind' (portfolio_analysis or target_allocation) and 'text'.",
		g.saveCommentary)
	g.register(OpResetPortfolio, MutateCapability,
		"Reset the portfolio to its load-time state, clearing all trades and the session analysis.",
		g.resetPortfolio)

	return g
}

func (g *ToolGate) register(name string, class Capability, description string, handler func(context.Context, map[string]any) (any, error)) {
	g.ops[name] = Operation{Name: name, Class: class, Description: description, handler: handler}
	g.order = append(g.order, name)
}

// Operations returns the catalogue in registration order.
func (g *ToolGate) Operations() []Operation {
	out := make([]Operation, 0, len(g.order))
	for _, name := range g.order {
		out = append(out, g.ops[name])
	}
	return out
}

// ReadOperations returns the read-class subset of the catalogue.
func (g *ToolGate) ReadOperations() []Operation {
	var out []Operation
	for _, op := range g.Operations() {
		if op.Class == ReadCapability {
			out = append(out, op)
		}
	}
	return out
}

// Invoke dispatches a named operation if the caller's capability permits
// its class. Unknown names and capability violations return typed errors
// without touching any state.
func (g *ToolGate) Invoke(ctx context.Context, name string, args map[string]any, caller Capability) (any, error) {
	op, ok := g.ops[name]
	if !ok {
		return nil, &UnknownOpError{Op: name}
	}
	if !caller.permits(op.Class) {
		return nil, &ForbiddenError{Op: name, Capability: caller}
	}
	return op.handler(ctx, args)
}

// --- operation results ---

// HoldingState is a holding enriched with its live valuation.
type HoldingState struct {
	Holding
	Name         string `json:"name"`
	CurrentPrice Money  `json:"currentPrice"`
	CurrentValue Money  `json:"currentValue"`
	Tradeable    bool   `json:"tradeable"`
}

// PortfolioState is the full read-only view served to collaborators.
type PortfolioState struct {
	Name         string                 `json:"name"`
	InitialValue Money                  `json:"initialValue"`
	CurrentValue Money                  `json:"currentValue"`
	Holdings     []HoldingState         `json:"holdings"`
	Allocation   map[AssetClass]Percent `json:"allocation"`
	Deviation    map[AssetClass]Percent `json:"deviation"`
	Profile      InvestorProfile        `json:"investorProfile"`
}

// TradeableAsset describes one asset eligible for simulated trading.
type TradeableAsset struct {
	AssetID      string      `json:"assetId"`
	Name         string      `json:"name"`
	Class        AssetClass  `json:"class"`
	Ticker       string      `json:"ticker"`
	CurrentPrice Money       `json:"currentPrice"`
	Source       PriceSource `json:"source"`
}

// Ack acknowledges a commentary or reset operation.
type Ack struct {
	Status string `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// --- handlers ---

func (g *ToolGate) getPortfolioState(ctx context.Context, _ map[string]any) (any, error) {
	allocation, total, err := g.store.Allocation(ctx, g.cache)
	if err != nil {
		return nil, err
	}
	holdings := g.store.Holdings()
	states := make([]HoldingState, 0, len(holdings))
	for _, h := range holdings {
		price, err := g.cache.Price(ctx, h.AssetID)
		if err != nil {
			return nil, err
		}
		asset := g.store.Portfolio().Asset(h.AssetID)
		states = append(states, HoldingState{
			Holding:      h,
			Name:         asset.Name,
			CurrentPrice: price,
			CurrentValue: price.Mul(h.Quantity),
			Tradeable:    asset.Tradeable(),
		})
	}
	return PortfolioState{
		Name:         g.store.Portfolio().Name,
		InitialValue: g.store.InitialValue(),
		CurrentValue: total,
		Holdings:     states,
		Allocation:   allocation,
		Deviation:    g.store.Deviation(allocation),
		Profile:      g.store.Profile(),
	}, nil
}

func (g *ToolGate) getAssetPrice(ctx context.Context, args map[string]any) (any, error) {
	assetID, err := argString(args, "assetId")
	if err != nil {
		return nil, err
	}
	return g.cache.QuoteAsset(ctx, assetID)
}

func (g *ToolGate) listTradeable(ctx context.Context, _ map[string]any) (any, error) {
	assets := g.store.Portfolio().TradeableAssets()
	out := make([]TradeableAsset, 0, len(assets))
	for _, a := range assets {
		quote, err := g.cache.QuoteAsset(ctx, a.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, TradeableAsset{
			AssetID:      a.ID,
			Name:         a.Name,
			Class:        a.Class,
			Ticker:       a.Ticker,
			CurrentPrice: quote.Price,
			Source:       quote.Source,
		})
	}
	return out, nil
}

func (g *ToolGate) simulateTrade(ctx context.Context, args map[string]any) (any, error) {
	action, err := argString(args, "action")
	if err != nil {
		return nil, err
	}
	assetID, err := argString(args, "assetId")
	if err != nil {
		return nil, err
	}
	quantity, err := argQuantity(args, "quantity")
	if err != nil {
		return nil, err
	}
	rationale, _ := argString(args, "rationale")
	return g.sim.SimulateTrade(ctx, Action(action), assetID, quantity, rationale)
}

func (g *ToolGate) getTradeHistory(_ context.Context, _ map[string]any) (any, error) {
	return g.store.Ledger(), nil
}

func (g *ToolGate) performance(ctx context.Context, _ map[string]any) (any, error) {
	return g.session.Performance(ctx)
}

func (g *ToolGate) generateAnalysis(ctx context.Context, _ map[string]any) (any, error) {
	return g.session.Snapshot(ctx)
}

func (g *ToolGate) saveCommentary(ctx context.Context, args map[string]any) (any, error) {
	rawKind, err := argString(args, "kind")
	if err != nil {
		return nil, err
	}
	kind, err := ParseCommentaryKind(rawKind)
	if err != nil {
		return nil, fmt.Errorf("invalid commentary kind %q: use %q or %q", rawKind, PortfolioCommentary, TargetCommentary)
	}
	text, err := argString(args, "text")
	if err != nil {
		return nil, err
	}
	// Commentary needs an existing snapshot to attach to.
	if _, err := g.session.Snapshot(ctx); err != nil {
		return nil, err
	}
	if err := g.session.AttachCommentary(kind, text); err != nil {
		return nil, err
	}
	return Ack{Status: "saved", Detail: string(kind)}, nil
}

// resetPortfolio returns the store to its load-time state. Like a trade,
// the reset either fully happens, shared document included, or not at all:
// on persist failure the previous holdings and ledger are restored.
func (g *ToolGate) resetPortfolio(_ context.Context, _ map[string]any) (any, error) {
	prevLedger := g.store.Ledger()
	held := g.store.Holdings()
	prevHoldings := make(map[string]Holding, len(held))
	for _, h := range held {
		prevHoldings[h.AssetID] = h
	}

	g.store.reset()
	if g.sync != nil {
		if err := g.sync.Persist(g.store); err != nil {
			g.store.restore(prevHoldings, prevLedger)
			return nil, err
		}
	}
	g.session.Reset()
	return Ack{Status: "reset", Detail: g.store.Portfolio().Name}, nil
}

// --- argument extraction ---

func argString(args map[string]any, key string) (string, error) {
	v, ok := args[key]
	if !ok {
		return "", fmt.Errorf("missing argument %q", key)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("argument %q is not a string but %T", key, v)
	}
	return s, nil
}

// argQuantity accepts the numeric representations a JSON caller may send.
func argQuantity(args map[string]any, key string) (Quantity, error) {
	v, ok := args[key]
	if !ok {
		return Quantity{}, fmt.Errorf("missing argument %q", key)
	}
	switch n := v.(type) {
	case float64:
		return Q(n), nil
	case int:
		return Q(n), nil
	case string:
		d, err := decimal.NewFromString(n)
		if err != nil {
			return Quantity{}, fmt.Errorf("argument %q is not a number: %w", key, err)
		}
		return Q(d), nil
	default:
		return Quantity{}, fmt.Errorf("argument %q is not a number but %T", key, v)
	}
}
