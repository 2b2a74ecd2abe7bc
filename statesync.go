package rebalance

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// StateSync serializes the store to a shared JSON document so that a store
// mutated in one process is visible to readers in another. Consistency is
// last-writer-wins at the granularity of a full persist; a reader reloads
// before trusting authoritative figures.
type StateSync struct {
	mu   sync.Mutex
	path string
}

// NewStateSync creates a synchronizer over the given state file path.
func NewStateSync(path string) *StateSync {
	return &StateSync{path: path}
}

// Path returns the state file path.
func (y *StateSync) Path() string { return y.path }

// stateDoc is the durable shared representation: enough to fully
// reconstruct the store's holdings and ledger.
type stateDoc struct {
	Portfolio    string       `json:"portfolio"`
	BaseCurrency string       `json:"baseCurrency"`
	SavedAt      string       `json:"savedAt"`
	Holdings     []holdingDoc `json:"holdings"`
	TradeLedger  []tradeDoc   `json:"tradeLedger"`
}

type holdingDoc struct {
	AssetID      string          `json:"assetId"`
	Class        AssetClass      `json:"class"`
	Quantity     decimal.Decimal `json:"quantity"`
	AveragePrice decimal.Decimal `json:"averagePrice"`
}

type tradeDoc struct {
	ID        string          `json:"id"`
	Action    Action          `json:"action"`
	AssetID   string          `json:"assetId"`
	Quantity  decimal.Decimal `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Fee       decimal.Decimal `json:"fee"`
	Rationale string          `json:"rationale,omitempty"`
	Timestamp string          `json:"timestamp"`
}

// Persist writes the store's holdings and ledger to the shared document.
// The write is atomic: a temporary file is renamed over the target, so a
// concurrent reader never observes a partial document.
func (y *StateSync) Persist(s *Store) error {
	y.mu.Lock()
	defer y.mu.Unlock()

	held := s.Holdings()
	trades := s.Ledger()
	doc := stateDoc{
		Portfolio:    s.Portfolio().Name,
		BaseCurrency: s.Portfolio().BaseCurrency,
		SavedAt:      time.Now().Format(time.RFC3339),
		Holdings:     make([]holdingDoc, 0, len(held)),
		TradeLedger:  make([]tradeDoc, 0, len(trades)),
	}
	for _, h := range held {
		doc.Holdings = append(doc.Holdings, holdingDoc{
			AssetID:      h.AssetID,
			Class:        h.Class,
			Quantity:     h.Quantity.value,
			AveragePrice: h.AvgPrice.value,
		})
	}
	for _, t := range trades {
		doc.TradeLedger = append(doc.TradeLedger, tradeDoc{
			ID:        t.ID,
			Action:    t.Action,
			AssetID:   t.AssetID,
			Quantity:  t.Quantity.value,
			Price:     t.Price.value,
			Fee:       t.Fee.value,
			Rationale: t.Rationale,
			Timestamp: t.Timestamp.Format(time.RFC3339),
		})
	}

	content, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return &PersistError{Path: y.path, Err: err}
	}
	tmp := y.path + ".tmp"
	if err := os.WriteFile(tmp, content, 0644); err != nil {
		return &PersistError{Path: y.path, Err: err}
	}
	if err := os.Rename(tmp, y.path); err != nil {
		os.Remove(tmp)
		return &PersistError{Path: y.path, Err: err}
	}
	log.Printf("state persisted to %s (%d holdings, %d trades)", filepath.Base(y.path), len(doc.Holdings), len(doc.TradeLedger))
	return nil
}

// Load reads the shared document and replaces the store's holdings and
// ledger with the materialized copy. A missing file leaves the store at its
// load-time state; a document written for another portfolio is rejected.
func (y *StateSync) Load(s *Store) error {
	y.mu.Lock()
	defer y.mu.Unlock()

	content, err := os.ReadFile(y.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("could not read state file %q: %w", y.path, err)
	}

	var doc stateDoc
	if err := json.Unmarshal(content, &doc); err != nil {
		return fmt.Errorf("could not decode state file %q: %w", y.path, err)
	}
	if doc.Portfolio != s.Portfolio().Name {
		return fmt.Errorf("state file %q belongs to portfolio %q, not %q", y.path, doc.Portfolio, s.Portfolio().Name)
	}

	holdings := make(map[string]Holding, len(doc.Holdings))
	for _, h := range doc.Holdings {
		if h.Quantity.IsNegative() {
			return fmt.Errorf("state file %q holds a negative quantity of %q", y.path, h.AssetID)
		}
		holdings[h.AssetID] = Holding{
			AssetID:  h.AssetID,
			Class:    h.Class,
			Quantity: Q(h.Quantity),
			AvgPrice: M(h.AveragePrice, doc.BaseCurrency),
		}
	}
	ledger := make([]Trade, 0, len(doc.TradeLedger))
	for _, t := range doc.TradeLedger {
		ts, err := time.Parse(time.RFC3339, t.Timestamp)
		if err != nil {
			return fmt.Errorf("state file %q trade %s has a bad timestamp: %w", y.path, t.ID, err)
		}
		ledger = append(ledger, Trade{
			ID:        t.ID,
			Action:    t.Action,
			AssetID:   t.AssetID,
			Quantity:  Q(t.Quantity),
			Price:     M(t.Price, doc.BaseCurrency),
			Fee:       M(t.Fee, doc.BaseCurrency),
			Rationale: t.Rationale,
			Timestamp: ts,
		})
	}

	s.restore(holdings, ledger)
	return nil
}

// Reset removes the shared document so the next session starts from the
// portfolio definition.
func (y *StateSync) Reset() error {
	y.mu.Lock()
	defer y.mu.Unlock()
	if err := os.Remove(y.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return &PersistError{Path: y.path, Err: err}
	}
	return nil
}
