package core

import (
	"context"
	"strings"

	"lookupdesk/pkg/domain"
)

// NewRequiredFieldsRule returns the rule blocking ledger entries with blank
// mandatory fields.
func NewRequiredFieldsRule() domain.Rule {
	return requiredFieldsRule{}
}

type requiredFieldsRule struct{}

func (requiredFieldsRule) Name() string { return "required_fields" }

func (r requiredFieldsRule) Evaluate(_ context.Context, _ domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, change := range changes {
		if change.Action != domain.ActionCreate {
			continue
		}
		var id string
		var fields [][2]string
		switch entry := change.After.(type) {
		case domain.Plantation:
			id = entry.ID
			fields = [][2]string{{"name", entry.Name}, {"region", entry.Region}}
		case domain.InventoryItem:
			id = entry.ID
			fields = [][2]string{{"item", entry.Item}}
		case domain.Incident:
			id = entry.ID
			fields = [][2]string{{"title", entry.Title}, {"location", entry.Location}}
		default:
			continue
		}
		for _, field := range fields {
			if strings.TrimSpace(field[1]) != "" {
				continue
			}
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     r.Name(),
				Severity: domain.SeverityBlock,
				Message:  string(change.Entity) + " " + field[0] + " is required",
				Entity:   change.Entity,
				EntityID: id,
			})
		}
	}
	return res, nil
}
