package domain

import "context"

// Transaction exposes the append operations a persistence implementation
// must support within an atomic scope. There is no update or delete.
type Transaction interface {
	Snapshot() TransactionView
	AppendPlantation(Plantation) (Plantation, error)
	AppendInventoryItem(InventoryItem) (InventoryItem, error)
	AppendIncident(Incident) (Incident, error)
}

// TransactionView provides read-only access to snapshot data. Lists are in
// insertion order.
type TransactionView interface {
	ListPlantations() []Plantation
	ListInventory() []InventoryItem
	ListIncidents() []Incident
}

// PersistentStore is a minimal abstraction over durable backends. Each log
// preserves insertion order with no dedup and no eviction.
type PersistentStore interface {
	RunInTransaction(ctx context.Context, fn func(Transaction) error) (Result, error)
	View(ctx context.Context, fn func(TransactionView) error) error
	ListPlantations() []Plantation
	ListInventory() []InventoryItem
	ListIncidents() []Incident
}
