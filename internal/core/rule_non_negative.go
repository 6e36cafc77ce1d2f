package core

import (
	"context"
	"fmt"

	"lookupdesk/pkg/domain"
)

// NewNonNegativeRule returns the rule blocking negative production figures and
// stock counts.
func NewNonNegativeRule() domain.Rule {
	return nonNegativeRule{}
}

type nonNegativeRule struct{}

func (nonNegativeRule) Name() string { return "non_negative" }

func (r nonNegativeRule) Evaluate(_ context.Context, _ domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, change := range changes {
		var (
			id    string
			field string
			value int
		)
		switch entry := change.After.(type) {
		case domain.Plantation:
			id, field, value = entry.ID, "production_kg", entry.ProductionKG
		case domain.InventoryItem:
			id, field, value = entry.ID, "quantity", entry.Quantity
		default:
			continue
		}
		if value >= 0 {
			continue
		}
		res.Violations = append(res.Violations, domain.Violation{
			Rule:     r.Name(),
			Severity: domain.SeverityBlock,
			Message:  fmt.Sprintf("%s %s must not be negative (got %d)", change.Entity, field, value),
			Entity:   change.Entity,
			EntityID: id,
		})
	}
	return res, nil
}
