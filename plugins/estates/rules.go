package estates

import (
	"context"
	"fmt"
	"strings"

	"lookupdesk/internal/core"
)

const teaRegionRuleName = "estates.tea_region"

// teaRegions lists the seven recognised Ceylon tea growing regions.
var teaRegions = []string{"Nuwara Eliya", "Dimbula", "Uva", "Uda Pussellawa", "Kandy", "Ruhuna", "Sabaragamuwa"}

func knownRegion(region string) bool {
	for _, candidate := range teaRegions {
		if strings.EqualFold(candidate, strings.TrimSpace(region)) {
			return true
		}
	}
	return false
}

func teaRegionRule() core.Rule {
	return teaRegionRuleImpl{}
}

type teaRegionRuleImpl struct{}

func (teaRegionRuleImpl) Name() string { return teaRegionRuleName }

// Evaluate warns about plantations reported outside the known regions.
// Blank regions are left to the required field rule.
func (r teaRegionRuleImpl) Evaluate(_ context.Context, _ core.RuleView, changes []core.Change) (core.Result, error) {
	res := core.Result{}
	for _, change := range changes {
		plantation, ok := change.After.(core.Plantation)
		if !ok || strings.TrimSpace(plantation.Region) == "" || knownRegion(plantation.Region) {
			continue
		}
		res.Violations = append(res.Violations, core.Violation{
			Rule:     r.Name(),
			Severity: core.SeverityWarn,
			Message:  fmt.Sprintf("plantation %q reported from unrecognised tea region %q", plantation.Name, plantation.Region),
			Entity:   core.EntityPlantation,
			EntityID: plantation.ID,
		})
	}
	return res, nil
}
