package core

import "lookupdesk/pkg/domain"

// NewRulesEngine constructs an empty engine instance.
func NewRulesEngine() *RulesEngine {
	return domain.NewRulesEngine()
}

// NewDefaultRulesEngine builds a rules engine with the built-in ledger policies.
func NewDefaultRulesEngine() *RulesEngine {
	engine := NewRulesEngine()
	engine.Register(NewRequiredFieldsRule())
	engine.Register(NewNonNegativeRule())
	engine.Register(NewIncidentSeverityRule())
	return engine
}
