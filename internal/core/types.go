package core

import "lookupdesk/pkg/domain"

type (
	EntityType         = domain.EntityType
	Severity           = domain.Severity
	IncidentSeverity   = domain.IncidentSeverity
	Base               = domain.Base
	Plantation         = domain.Plantation
	InventoryItem      = domain.InventoryItem
	Incident           = domain.Incident
	Change             = domain.Change
	Action             = domain.Action
	Violation          = domain.Violation
	Result             = domain.Result
	RuleViolationError = domain.RuleViolationError
	Rule               = domain.Rule
	RuleView           = domain.RuleView
	RulesEngine        = domain.RulesEngine
	Transaction        = domain.Transaction
	TransactionView    = domain.TransactionView
	PersistentStore    = domain.PersistentStore
)

const (
	EntityPlantation    = domain.EntityPlantation
	EntityInventoryItem = domain.EntityInventoryItem
	EntityIncident      = domain.EntityIncident
)

const (
	SeverityBlock = domain.SeverityBlock
	SeverityWarn  = domain.SeverityWarn
	SeverityLog   = domain.SeverityLog
)

const ActionCreate = domain.ActionCreate
