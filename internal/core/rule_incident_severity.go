package core

import (
	"context"
	"fmt"

	"lookupdesk/pkg/domain"
)

// NewIncidentSeverityRule returns the rule warning about incidents filed with an
// unrecognised severity grade. The entry is still committed.
func NewIncidentSeverityRule() domain.Rule {
	return incidentSeverityRule{}
}

type incidentSeverityRule struct{}

func (incidentSeverityRule) Name() string { return "incident_severity" }

func (r incidentSeverityRule) Evaluate(_ context.Context, _ domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, change := range changes {
		incident, ok := change.After.(domain.Incident)
		if !ok || incident.Severity.Known() {
			continue
		}
		res.Violations = append(res.Violations, domain.Violation{
			Rule:     r.Name(),
			Severity: domain.SeverityWarn,
			Message:  fmt.Sprintf("incident %q has unrecognised severity %q", incident.Title, incident.Severity),
			Entity:   domain.EntityIncident,
			EntityID: incident.ID,
		})
	}
	return res, nil
}
