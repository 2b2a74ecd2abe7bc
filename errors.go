package rebalance

import "fmt"

// The errors below carry the offending identifiers so that a caller can
// decide to retry, pick a different trade, or abort the session. They are
// matched with errors.As.

// NoPriceError reports that no price, live, stale or fallback, could be
// established for an asset.
type NoPriceError struct {
	AssetID string
	Ticker  string
}

func (e *NoPriceError) Error() string {
	if e.Ticker != "" {
		return fmt.Sprintf("no price available for asset %q (ticker %q)", e.AssetID, e.Ticker)
	}
	return fmt.Sprintf("no price available for asset %q", e.AssetID)
}

// EmptyPortfolioError reports that a valuation was requested over a
// portfolio whose total value is zero, making allocation undefined.
type EmptyPortfolioError struct {
	Portfolio string
}

func (e *EmptyPortfolioError) Error() string {
	return fmt.Sprintf("portfolio %q has zero total value, allocation is undefined", e.Portfolio)
}

// UnknownAssetError reports an asset id absent from the portfolio definition.
type UnknownAssetError struct {
	AssetID string
}

func (e *UnknownAssetError) Error() string {
	return fmt.Sprintf("asset %q is not defined in the portfolio", e.AssetID)
}

// NotTradeableError reports a trade attempt on an asset without a market ticker.
type NotTradeableError struct {
	AssetID string
}

func (e *NotTradeableError) Error() string {
	return fmt.Sprintf("asset %q has no market ticker and cannot be traded", e.AssetID)
}

// InsufficientHoldingsError reports a sell exceeding the held quantity.
type InsufficientHoldingsError struct {
	AssetID   string
	Held      Quantity
	Requested Quantity
}

func (e *InsufficientHoldingsError) Error() string {
	return fmt.Sprintf("insufficient holdings of %q: have %s, want to sell %s", e.AssetID, e.Held, e.Requested)
}

// InvalidActionError reports a trade action other than buy or sell.
type InvalidActionError struct {
	Action string
}

func (e *InvalidActionError) Error() string {
	return fmt.Sprintf("invalid trade action %q: use %q or %q", e.Action, Buy, Sell)
}

// InvalidQuantityError reports a non-positive trade quantity.
type InvalidQuantityError struct {
	AssetID  string
	Quantity Quantity
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("invalid quantity %s for asset %q: must be positive", e.Quantity, e.AssetID)
}

// ForbiddenError reports a capability violation on a gated operation.
type ForbiddenError struct {
	Op         string
	Capability Capability
}

func (e *ForbiddenError) Error() string {
	return fmt.Sprintf("operation %q requires mutate capability, caller has %q", e.Op, e.Capability)
}

// UnknownOpError reports an operation name absent from the catalogue.
type UnknownOpError struct {
	Op string
}

func (e *UnknownOpError) Error() string {
	return fmt.Sprintf("unknown operation %q", e.Op)
}

// PersistError reports that the shared state document could not be written.
type PersistError struct {
	Path string
	Err  error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("could not persist state to %q: %v", e.Path, e.Err)
}

func (e *PersistError) Unwrap() error { return e.Err }

// NoSnapshotError reports commentary attached before any snapshot exists.
type NoSnapshotError struct{}

func (e *NoSnapshotError) Error() string {
	return "no active analysis snapshot: generate the portfolio analysis first"
}
