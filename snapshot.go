package rebalance

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// CommentaryKind distinguishes the qualitative texts attached to a snapshot.
type CommentaryKind string

const (
	PortfolioCommentary CommentaryKind = "portfolio_analysis"
	TargetCommentary    CommentaryKind = "target_allocation"
)

// ParseCommentaryKind parses a string into a CommentaryKind.
func ParseCommentaryKind(s string) (CommentaryKind, error) {
	switch CommentaryKind(s) {
	case PortfolioCommentary:
		return PortfolioCommentary, nil
	case TargetCommentary:
		return TargetCommentary, nil
	default:
		return "", fmt.Errorf("unknown commentary kind %q", s)
	}
}

// Performance bundles the value change figures of the session.
type Performance struct {
	InitialValue   Money   `json:"initialValue"`
	CurrentValue   Money   `json:"currentValue"`
	AbsoluteChange Money   `json:"absoluteChange"`
	PercentChange  Percent `json:"percentChange"`
	TotalFees      Money   `json:"totalFees"`
	NetChange      Money   `json:"netChange"` // absolute change minus fees
	TradeCount     int     `json:"tradeCount"`
}

// AnalysisSnapshot is a frozen bundle of computed figures. Prices move
// between successive lookups, so two analysis calls computed independently
// could disagree about "the current state"; freezing one snapshot per
// session gives every reader the same numbers. Numeric fields never change
// after creation; qualitative commentary may be attached later.
type AnalysisSnapshot struct {
	TakenAt     time.Time                 `json:"takenAt"`
	TotalValue  Money                     `json:"totalValue"`
	CostBasis   Money                     `json:"costBasis"`
	Allocation  map[AssetClass]Percent    `json:"allocation"`
	Deviation   map[AssetClass]Percent    `json:"deviation"`
	Performance Performance               `json:"performance"`
	Commentary  map[CommentaryKind]string `json:"commentary,omitempty"`
}

// Session owns the per-rebalancing-run snapshot memo. The first analysis
// request computes the snapshot; every later one reuses it until Reset.
type Session struct {
	mu       sync.Mutex
	store    *Store
	cache    *PriceCache
	snapshot *AnalysisSnapshot

	now func() time.Time
}

// NewSession creates a session over the given store and price cache.
func NewSession(store *Store, cache *PriceCache) *Session {
	return &Session{store: store, cache: cache, now: time.Now}
}

// Snapshot returns the existing session snapshot, computing one on the
// first call. An empty portfolio has no defined analysis and yields an
// EmptyPortfolioError.
func (s *Session) Snapshot(ctx context.Context) (*AnalysisSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snapshot != nil {
		return s.snapshot, nil
	}
	snap, err := s.compute(ctx)
	if err != nil {
		return nil, err
	}
	s.snapshot = snap
	return snap, nil
}

// Reset discards the current snapshot. The next analysis request computes
// a fresh one; called when a new rebalancing run begins.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot = nil
}

// AttachCommentary stores qualitative text on the existing snapshot
// without altering its numeric fields.
func (s *Session) AttachCommentary(kind CommentaryKind, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snapshot == nil {
		return &NoSnapshotError{}
	}
	if s.snapshot.Commentary == nil {
		s.snapshot.Commentary = make(map[CommentaryKind]string)
	}
	s.snapshot.Commentary[kind] = text
	return nil
}

func (s *Session) compute(ctx context.Context) (*AnalysisSnapshot, error) {
	allocation, total, err := s.store.Allocation(ctx, s.cache)
	if err != nil {
		return nil, err
	}
	// Report every standard class, holding or not.
	for _, class := range AllClasses {
		if _, ok := allocation[class]; !ok {
			allocation[class] = 0
		}
	}
	return &AnalysisSnapshot{
		TakenAt:     s.now(),
		TotalValue:  total,
		CostBasis:   s.store.CostBasis(),
		Allocation:  allocation,
		Deviation:   s.store.Deviation(allocation),
		Performance: s.performance(total),
	}, nil
}

// Performance computes the live performance figures: initial versus
// current value, fees paid, and the fee-adjusted net change.
func (s *Session) Performance(ctx context.Context) (Performance, error) {
	total, _, err := s.store.Valuation(ctx, s.cache)
	if err != nil {
		return Performance{}, err
	}
	return s.performance(total), nil
}

func (s *Session) performance(total Money) Performance {
	initial := s.store.InitialValue()
	change := total.Sub(initial)
	var pct Percent
	if !initial.IsZero() {
		pct = Percent(change.AsFloat() / initial.AsFloat() * 100)
	}
	fees := s.store.TotalFees()
	return Performance{
		InitialValue:   initial,
		CurrentValue:   total,
		AbsoluteChange: change,
		PercentChange:  pct,
		TotalFees:      fees,
		NetChange:      change.Sub(fees),
		TradeCount:     len(s.store.Ledger()),
	}
}
