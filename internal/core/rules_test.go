package core

import (
	"context"
	"testing"

	"lookupdesk/pkg/domain"
)

func TestDefaultRulesEngineRegistersBuiltins(t *testing.T) {
	names := NewDefaultRulesEngine().Rules()
	want := []string{"required_fields", "non_negative", "incident_severity"}
	if len(names) != len(want) {
		t.Fatalf("unexpected rules %v", names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("rule %d: want %s got %s", i, want[i], names[i])
		}
	}
}

func TestRequiredFieldsRule(t *testing.T) {
	changes := []domain.Change{
		{Entity: domain.EntityPlantation, Action: domain.ActionCreate, After: domain.Plantation{Base: domain.Base{ID: "p1"}, Name: " "}},
		{Entity: domain.EntityInventoryItem, Action: domain.ActionCreate, After: domain.InventoryItem{Item: "Tea"}},
		{Entity: domain.EntityIncident, Action: domain.ActionCreate, After: domain.Incident{Location: "Galle"}},
		{Entity: "other", Action: domain.ActionCreate, After: "ignored"},
	}
	res, err := NewRequiredFieldsRule().Evaluate(context.Background(), nil, changes)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	var msgs []string
	for _, v := range res.Violations {
		if v.Severity != domain.SeverityBlock {
			t.Fatalf("expected blocking violation, got %+v", v)
		}
		msgs = append(msgs, v.Message)
	}
	want := []string{"plantation name is required", "plantation region is required", "incident title is required"}
	if len(msgs) != len(want) {
		t.Fatalf("unexpected violations %v", msgs)
	}
	for i := range want {
		if msgs[i] != want[i] {
			t.Fatalf("violation %d: want %q got %q", i, want[i], msgs[i])
		}
	}
	if res.Violations[0].EntityID != "p1" {
		t.Fatalf("expected entity id on violation")
	}
}

func TestNonNegativeRuleAllowsZero(t *testing.T) {
	changes := []domain.Change{
		{Entity: domain.EntityPlantation, After: domain.Plantation{ProductionKG: 0}},
		{Entity: domain.EntityInventoryItem, After: domain.InventoryItem{Quantity: -1}},
		{Entity: domain.EntityIncident, After: domain.Incident{}},
	}
	res, err := NewNonNegativeRule().Evaluate(context.Background(), nil, changes)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(res.Violations) != 1 || res.Violations[0].Entity != domain.EntityInventoryItem {
		t.Fatalf("expected only the negative quantity to block, got %+v", res.Violations)
	}
}

func TestIncidentSeverityRuleWarns(t *testing.T) {
	changes := []domain.Change{
		{Entity: domain.EntityIncident, After: domain.Incident{Title: "a", Severity: "HIGH"}},
		{Entity: domain.EntityIncident, After: domain.Incident{Title: "b", Severity: ""}},
	}
	res, err := NewIncidentSeverityRule().Evaluate(context.Background(), nil, changes)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(res.Violations) != 1 || res.Violations[0].Severity != domain.SeverityWarn || res.HasBlocking() {
		t.Fatalf("expected a single warning, got %+v", res.Violations)
	}
}
