// Package memory provides the in-memory append-only ledger store. The sqlite
// and postgres backends embed it and snapshot its state after each commit.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"lookupdesk/pkg/domain"
)

type (
	Plantation      = domain.Plantation
	InventoryItem   = domain.InventoryItem
	Incident        = domain.Incident
	Change          = domain.Change
	Result          = domain.Result
	RulesEngine     = domain.RulesEngine
	Transaction     = domain.Transaction
	TransactionView = domain.TransactionView
)

var _ domain.PersistentStore = (*Store)(nil)

// Snapshot is the serialisable state of every log, in insertion order.
type Snapshot struct {
	Plantations []Plantation    `json:"plantations"`
	Inventory   []InventoryItem `json:"inventory"`
	Incidents   []Incident      `json:"incidents"`
}

type memoryState struct {
	plantations []Plantation
	inventory   []InventoryItem
	incidents   []Incident
	ids         map[string]struct{}
}

func newMemoryState() memoryState {
	return memoryState{ids: make(map[string]struct{})}
}

// clone copies the slice headers and id index. Entries themselves hold only
// value fields, so copying the backing arrays is a full copy.
func (s memoryState) clone() memoryState {
	cp := memoryState{
		plantations: append([]Plantation(nil), s.plantations...),
		inventory:   append([]InventoryItem(nil), s.inventory...),
		incidents:   append([]Incident(nil), s.incidents...),
		ids:         make(map[string]struct{}, len(s.ids)),
	}
	for id := range s.ids {
		cp.ids[id] = struct{}{}
	}
	return cp
}

func snapshotFromMemoryState(state memoryState) Snapshot {
	return Snapshot{
		Plantations: append([]Plantation{}, state.plantations...),
		Inventory:   append([]InventoryItem{}, state.inventory...),
		Incidents:   append([]Incident{}, state.incidents...),
	}
}

func memoryStateFromSnapshot(s Snapshot) memoryState {
	state := newMemoryState()
	state.plantations = append(state.plantations, s.Plantations...)
	state.inventory = append(state.inventory, s.Inventory...)
	state.incidents = append(state.incidents, s.Incidents...)
	for _, p := range s.Plantations {
		state.ids[p.ID] = struct{}{}
	}
	for _, i := range s.Inventory {
		state.ids[i.ID] = struct{}{}
	}
	for _, i := range s.Incidents {
		state.ids[i.ID] = struct{}{}
	}
	return state
}

// Store provides an in-memory transactional store for the ledger logs.
type Store struct {
	mu     sync.RWMutex
	state  memoryState
	engine *RulesEngine
	nowFn  func() time.Time
}

// NewStore constructs an in-memory store backed by the provided rules engine.
func NewStore(engine *RulesEngine) *Store {
	if engine == nil {
		engine = domain.NewRulesEngine()
	}
	return &Store{
		state:  newMemoryState(),
		engine: engine,
		nowFn:  func() time.Time { return time.Now().UTC() },
	}
}

// SetNowFunc replaces the clock used to stamp new entries.
func (s *Store) SetNowFunc(fn func() time.Time) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	s.nowFn = fn
	s.mu.Unlock()
}

// ExportState clones the current store state for external persistence.
func (s *Store) ExportState() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshotFromMemoryState(s.state)
}

// ImportState replaces the store state with the provided snapshot.
func (s *Store) ImportState(snapshot Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = memoryStateFromSnapshot(snapshot)
}

// RulesEngine exposes the currently configured engine for integration points like plugins.
func (s *Store) RulesEngine() *RulesEngine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine
}

type transaction struct {
	state   memoryState
	changes []Change
	now     time.Time
}

type transactionView struct {
	state *memoryState
}

func newTransactionView(state *memoryState) TransactionView {
	return transactionView{state: state}
}

func (v transactionView) ListPlantations() []Plantation {
	return append([]Plantation{}, v.state.plantations...)
}

func (v transactionView) ListInventory() []InventoryItem {
	return append([]InventoryItem{}, v.state.inventory...)
}

func (v transactionView) ListIncidents() []Incident {
	return append([]Incident{}, v.state.incidents...)
}

// RunInTransaction applies fn to a copy of the state, evaluates the rules
// against the appended entries and commits only when nothing blocks.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx Transaction) error) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &transaction{
		state: s.state.clone(),
		now:   s.nowFn(),
	}

	if err := fn(tx); err != nil {
		return Result{}, err
	}

	var result Result
	if s.engine != nil {
		view := newTransactionView(&tx.state)
		res, err := s.engine.Evaluate(ctx, view, tx.changes)
		if err != nil {
			return Result{}, err
		}
		result = res
		if res.HasBlocking() {
			return res, domain.RuleViolationError{Result: res}
		}
	}

	s.state = tx.state
	return result, nil
}

// View executes fn against a read-only snapshot of the store state.
func (s *Store) View(_ context.Context, fn func(TransactionView) error) error {
	s.mu.RLock()
	snapshot := s.state.clone()
	s.mu.RUnlock()
	return fn(newTransactionView(&snapshot))
}

// ListPlantations returns plantation entries in insertion order.
func (s *Store) ListPlantations() []Plantation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Plantation{}, s.state.plantations...)
}

// ListInventory returns inventory entries in insertion order.
func (s *Store) ListInventory() []InventoryItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]InventoryItem{}, s.state.inventory...)
}

// ListIncidents returns incident entries in insertion order.
func (s *Store) ListIncidents() []Incident {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Incident{}, s.state.incidents...)
}

func (tx *transaction) Snapshot() TransactionView {
	return newTransactionView(&tx.state)
}

func (tx *transaction) recordChange(change Change) {
	tx.changes = append(tx.changes, change)
}

func (tx *transaction) stamp(base *domain.Base) error {
	if base.ID == "" {
		base.ID = uuid.NewString()
	}
	if _, exists := tx.state.ids[base.ID]; exists {
		return fmt.Errorf("entry %q already exists", base.ID)
	}
	if base.CreatedAt.IsZero() {
		base.CreatedAt = tx.now
	}
	tx.state.ids[base.ID] = struct{}{}
	return nil
}

func (tx *transaction) AppendPlantation(p Plantation) (Plantation, error) {
	if err := tx.stamp(&p.Base); err != nil {
		return Plantation{}, err
	}
	tx.state.plantations = append(tx.state.plantations, p)
	tx.recordChange(Change{Entity: domain.EntityPlantation, Action: domain.ActionCreate, After: p})
	return p, nil
}

func (tx *transaction) AppendInventoryItem(item InventoryItem) (InventoryItem, error) {
	if err := tx.stamp(&item.Base); err != nil {
		return InventoryItem{}, err
	}
	tx.state.inventory = append(tx.state.inventory, item)
	tx.recordChange(Change{Entity: domain.EntityInventoryItem, Action: domain.ActionCreate, After: item})
	return item, nil
}

func (tx *transaction) AppendIncident(incident Incident) (Incident, error) {
	if err := tx.stamp(&incident.Base); err != nil {
		return Incident{}, err
	}
	tx.state.incidents = append(tx.state.incidents, incident)
	tx.recordChange(Change{Entity: domain.EntityIncident, Action: domain.ActionCreate, After: incident})
	return incident, nil
}
