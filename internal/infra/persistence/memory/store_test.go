package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"lookupdesk/pkg/domain"
)

func TestStoreRunInTransactionAndSnapshots(t *testing.T) {
	store := NewStore(nil)
	ctx := context.Background()
	_, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		created, err := tx.AppendPlantation(domain.Plantation{Name: "Pedro Estate", Region: "Nuwara Eliya", ProductionKG: 1200})
		if err != nil {
			return err
		}
		if created.ID == "" || created.CreatedAt.IsZero() {
			t.Fatalf("expected generated ID and timestamp, got %+v", created)
		}
		if len(tx.Snapshot().ListPlantations()) != 1 {
			t.Fatalf("snapshot mismatch")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("run transaction: %v", err)
	}
	if len(store.ListPlantations()) != 1 {
		t.Fatalf("expected persisted plantation")
	}
	snapshot := store.ExportState()
	store.ImportState(Snapshot{})
	if len(store.ListPlantations()) != 0 {
		t.Fatalf("expected cleared state")
	}
	store.ImportState(snapshot)
	if len(store.ListPlantations()) != 1 {
		t.Fatalf("expected restored state")
	}
	if store.RulesEngine() == nil {
		t.Fatalf("expected rules engine")
	}
}

func TestAppendPreservesInsertionOrderWithoutDedup(t *testing.T) {
	store := NewStore(nil)
	ctx := context.Background()
	items := []domain.InventoryItem{
		{Item: "Tea leaves", Quantity: 40, Unit: "kg"},
		{Item: "Fertiliser", Quantity: 5, Unit: "bag"},
		{Item: "Tea leaves", Quantity: 40, Unit: "kg"},
	}
	for _, item := range items {
		if _, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
			_, err := tx.AppendInventoryItem(item)
			return err
		}); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	got := store.ListInventory()
	if len(got) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(got))
	}
	for i, item := range items {
		if got[i].Item != item.Item || got[i].Quantity != item.Quantity {
			t.Fatalf("entry %d out of order: %+v", i, got[i])
		}
	}
	if got[0].ID == got[2].ID {
		t.Fatalf("identical content must still get distinct ids")
	}
}

func TestListReturnsCopies(t *testing.T) {
	store := NewStore(nil)
	_, _ = store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, err := tx.AppendIncident(domain.Incident{Title: "Flooding", Location: "Ratnapura", Severity: domain.IncidentHigh})
		return err
	})
	list := store.ListIncidents()
	list[0].Title = "mutated"
	if store.ListIncidents()[0].Title != "Flooding" {
		t.Fatalf("list mutation leaked into store")
	}
}

func TestDuplicateIDRejected(t *testing.T) {
	store := NewStore(nil)
	ctx := context.Background()
	appendWithID := func() error {
		_, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
			_, err := tx.AppendPlantation(domain.Plantation{Base: domain.Base{ID: "fixed"}, Name: "A", Region: "B"})
			return err
		})
		return err
	}
	if err := appendWithID(); err != nil {
		t.Fatalf("first append: %v", err)
	}
	if err := appendWithID(); err == nil {
		t.Fatalf("expected duplicate id error")
	}
	if len(store.ListPlantations()) != 1 {
		t.Fatalf("failed transaction must not commit")
	}
}

type blockingRule struct{}

func (blockingRule) Name() string { return "block" }

func (blockingRule) Evaluate(context.Context, domain.RuleView, []domain.Change) (domain.Result, error) {
	return domain.Result{Violations: []domain.Violation{{Rule: "block", Severity: domain.SeverityBlock, Message: "nope"}}}, nil
}

func TestStoreRuleViolation(t *testing.T) {
	store := NewStore(domain.NewRulesEngine())
	store.RulesEngine().Register(blockingRule{})
	res, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, e := tx.AppendPlantation(domain.Plantation{Name: "Fail"})
		return e
	})
	var violation domain.RuleViolationError
	if !errors.As(err, &violation) {
		t.Fatalf("expected rule violation error, got %v", err)
	}
	if !res.HasBlocking() {
		t.Fatalf("expected blocking result returned")
	}
	if len(store.ListPlantations()) != 0 {
		t.Fatalf("blocked transaction must not commit")
	}
}

func TestFnErrorAbortsTransaction(t *testing.T) {
	store := NewStore(nil)
	_, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		if _, err := tx.AppendPlantation(domain.Plantation{Name: "A"}); err != nil {
			return err
		}
		return errors.New("abort")
	})
	if err == nil {
		t.Fatalf("expected error")
	}
	if len(store.ListPlantations()) != 0 {
		t.Fatalf("aborted transaction must not commit")
	}
}

func TestViewAndClock(t *testing.T) {
	fixed := time.Date(2025, 5, 12, 0, 0, 0, 0, time.UTC)
	store := NewStore(nil)
	store.SetNowFunc(func() time.Time { return fixed })
	store.SetNowFunc(nil)
	_, _ = store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, err := tx.AppendPlantation(domain.Plantation{Name: "A", Region: "B"})
		return err
	})
	err := store.View(context.Background(), func(view domain.TransactionView) error {
		list := view.ListPlantations()
		if len(list) != 1 || !list[0].CreatedAt.Equal(fixed) {
			t.Fatalf("unexpected view contents %+v", list)
		}
		if len(view.ListInventory()) != 0 || len(view.ListIncidents()) != 0 {
			t.Fatalf("expected empty logs")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("view: %v", err)
	}
}
