// Package domain defines the ledger entities, change records, and rule
// evaluation primitives shared by lookupdesk stores, services and plugins.
package domain

import (
	"strings"
	"time"
)

// EntityType identifies the kind of ledger entry.
type EntityType string

// Ledger entity identifiers used in Change records and persistence buckets.
const (
	// EntityPlantation identifies a plantation production entry.
	EntityPlantation EntityType = "plantation"
	// EntityInventoryItem identifies a stock entry.
	EntityInventoryItem EntityType = "inventory_item"
	// EntityIncident identifies a reported incident.
	EntityIncident EntityType = "incident"
)

// Severity captures rule outcomes.
type Severity string

// Rule evaluation severities determine commit behavior and logging.
const (
	// SeverityBlock blocks transaction commit.
	SeverityBlock Severity = "block"
	// SeverityWarn logs a warning but allows commit.
	SeverityWarn Severity = "warn"
	SeverityLog  Severity = "log"
)

// IncidentSeverity grades a reported incident.
type IncidentSeverity string

// Recognised incident grades.
const (
	IncidentLow      IncidentSeverity = "low"
	IncidentMedium   IncidentSeverity = "medium"
	IncidentHigh     IncidentSeverity = "high"
	IncidentCritical IncidentSeverity = "critical"
)

// IncidentSeverities lists the recognised grades from least to most severe.
func IncidentSeverities() []IncidentSeverity {
	return []IncidentSeverity{IncidentLow, IncidentMedium, IncidentHigh, IncidentCritical}
}

// Known reports whether s is one of the recognised grades, ignoring case.
func (s IncidentSeverity) Known() bool {
	for _, candidate := range IncidentSeverities() {
		if strings.EqualFold(string(s), string(candidate)) {
			return true
		}
	}
	return false
}

// Base contains common fields for all ledger entries. Entries are never
// updated, so there is no UpdatedAt.
type Base struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
}

// Plantation records the production reported by a named estate.
type Plantation struct {
	Base
	Name         string `json:"name"`
	Region       string `json:"region"`
	ProductionKG int    `json:"production_kg"`
}

// InventoryItem records a stock count.
type InventoryItem struct {
	Base
	Item     string `json:"item"`
	Quantity int    `json:"quantity"`
	Unit     string `json:"unit,omitempty"`
	Location string `json:"location,omitempty"`
}

// Incident records a reported event at a location.
type Incident struct {
	Base
	Title       string           `json:"title"`
	Location    string           `json:"location"`
	Severity    IncidentSeverity `json:"severity"`
	Description string           `json:"description,omitempty"`
}

// Change describes an entry appended during a transaction.
type Change struct {
	Entity EntityType
	Action Action
	After  any
}

// Action indicates the type of modification performed.
type Action string

// The ledger is append-only, so create is the only action recorded.
const (
	// ActionCreate indicates an entry was appended.
	ActionCreate Action = "create"
)

// Violation reports a failed rule evaluation.
type Violation struct {
	Rule     string     `json:"rule"`
	Severity Severity   `json:"severity"`
	Message  string     `json:"message"`
	Entity   EntityType `json:"entity"`
	EntityID string     `json:"entity_id,omitempty"`
}

// Result aggregates violations from the rules engine.
type Result struct {
	Violations []Violation `json:"violations,omitempty"`
}

// Merge appends violations from another result.
func (r *Result) Merge(other Result) {
	if len(other.Violations) == 0 {
		return
	}
	r.Violations = append(r.Violations, other.Violations...)
}

// HasBlocking returns true if the result contains blocking violations.
func (r Result) HasBlocking() bool {
	for _, v := range r.Violations {
		if v.Severity == SeverityBlock {
			return true
		}
	}
	return false
}

// Blocking returns only the blocking violations.
func (r Result) Blocking() []Violation {
	var out []Violation
	for _, v := range r.Violations {
		if v.Severity == SeverityBlock {
			out = append(out, v)
		}
	}
	return out
}

// RuleViolationError is returned when blocking violations are present.
type RuleViolationError struct {
	Result Result
}

func (e RuleViolationError) Error() string {
	blocking := e.Result.Blocking()
	if len(blocking) == 0 {
		return "transaction blocked by rules"
	}
	msgs := make([]string, len(blocking))
	for i, v := range blocking {
		msgs[i] = v.Message
	}
	return "transaction blocked by rules: " + strings.Join(msgs, "; ")
}
