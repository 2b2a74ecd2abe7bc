package rebalance

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/shopspring/decimal"
)

// AssetClass classifies an asset for allocation purposes.
type AssetClass string

const (
	Stock  AssetClass = "stock"
	Bond   AssetClass = "bond"
	Crypto AssetClass = "crypto"
	Cash   AssetClass = "cash"
)

// AllClasses lists the asset classes in their reporting order.
var AllClasses = []AssetClass{Stock, Bond, Crypto, Cash}

// ParseAssetClass parses a string into an AssetClass.
func ParseAssetClass(s string) (AssetClass, error) {
	switch AssetClass(strings.ToLower(s)) {
	case Stock:
		return Stock, nil
	case Bond:
		return Bond, nil
	case Crypto:
		return Crypto, nil
	case Cash:
		return Cash, nil
	default:
		return "", fmt.Errorf("unknown asset class: %q", s)
	}
}

// Asset is the immutable reference data of one portfolio position.
//
// An asset with a non-empty Ticker has a market price feed and is eligible
// for simulated trading. An asset without a ticker is valuation-only.
type Asset struct {
	ID    string     `json:"id"`
	Name  string     `json:"name"`
	Class AssetClass `json:"type"`
	// Currency is the currency the market feed quotes this asset in.
	// Defaults to the portfolio base currency; a USD-quoted asset in a
	// non-USD portfolio gets its prices converted.
	Currency string `json:"currency"`
	Ticker   string `json:"ticker,omitempty"`

	// Quantity and UnitPurchasePrice describe the initial holding at load time.
	Quantity          Quantity        `json:"quantity"`
	UnitPurchasePrice decimal.Decimal `json:"unitPurchasePrice"`

	// FallbackPrice is the manually maintained price used when the market
	// feed never produced a value for this asset.
	FallbackPrice decimal.Decimal `json:"fallbackPrice,omitempty"`
}

// Tradeable reports whether the asset has a market ticker.
func (a Asset) Tradeable() bool { return a.Ticker != "" }

// InvestorProfile is the read-only description of the investor, used by
// the analysis collaborators. Immutable for the session.
type InvestorProfile struct {
	RiskLevel   string   `json:"riskLevel"`
	TimeHorizon int      `json:"timeHorizon"` // years
	Constraints []string `json:"constraints"`
	Philosophy  string   `json:"philosophy"`
}

// Portfolio is the load-time configuration document described in the
// external interface: identity, fee rate, investor profile, assets and an
// optional target allocation per asset class.
type Portfolio struct {
	Name             string                 `json:"name"`
	BaseCurrency     string                 `json:"baseCurrency"`
	TradingFee       decimal.Decimal        `json:"tradingFee"`
	Profile          InvestorProfile        `json:"investorProfile"`
	Assets           []Asset                `json:"assets"`
	TargetAllocation map[AssetClass]Percent `json:"targetAllocation,omitempty"`
}

// Asset returns the asset definition for the given id, or nil if unknown.
func (p *Portfolio) Asset(id string) *Asset {
	for i := range p.Assets {
		if p.Assets[i].ID == id {
			return &p.Assets[i]
		}
	}
	return nil
}

// TradeableAssets returns the assets eligible for simulated trading.
func (p *Portfolio) TradeableAssets() []Asset {
	var out []Asset
	for _, a := range p.Assets {
		if a.Tradeable() {
			out = append(out, a)
		}
	}
	return out
}

// InitialValue computes the cost of the portfolio at load time from the
// declared quantities and unit purchase prices. It is fixed for the session.
func (p *Portfolio) InitialValue() Money {
	total := M(0, p.BaseCurrency)
	for _, a := range p.Assets {
		cost := M(a.UnitPurchasePrice, p.BaseCurrency).Mul(a.Quantity)
		total = total.Add(cost)
	}
	return total
}

// DecodePortfolio decodes a portfolio configuration document.
func DecodePortfolio(r io.Reader) (*Portfolio, error) {
	var p Portfolio
	dec := json.NewDecoder(r)
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("could not decode portfolio document: %w", err)
	}
	if p.Name == "" {
		return nil, fmt.Errorf("portfolio document has no name")
	}
	if p.BaseCurrency == "" {
		p.BaseCurrency = "EUR"
	}
	if p.TradingFee.IsNegative() {
		return nil, fmt.Errorf("portfolio %q has a negative trading fee %s", p.Name, p.TradingFee)
	}
	seen := make(map[string]struct{}, len(p.Assets))
	for i := range p.Assets {
		a := &p.Assets[i]
		if a.Currency == "" {
			a.Currency = p.BaseCurrency
		}
		if a.ID == "" {
			return nil, fmt.Errorf("portfolio %q has an asset with no id", p.Name)
		}
		if _, dup := seen[a.ID]; dup {
			return nil, fmt.Errorf("portfolio %q declares asset %q twice", p.Name, a.ID)
		}
		seen[a.ID] = struct{}{}
		if _, err := ParseAssetClass(string(a.Class)); err != nil {
			return nil, fmt.Errorf("asset %q: %w", a.ID, err)
		}
		if a.Quantity.IsNegative() {
			return nil, fmt.Errorf("asset %q has a negative quantity %s", a.ID, a.Quantity)
		}
	}
	return &p, nil
}

// LoadPortfolio loads a portfolio configuration document from a file.
func LoadPortfolio(path string) (*Portfolio, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open portfolio file %q: %w", path, err)
	}
	defer f.Close()
	p, err := DecodePortfolio(f)
	if err != nil {
		return nil, fmt.Errorf("could not load portfolio file %q: %w", path, err)
	}
	return p, nil
}
