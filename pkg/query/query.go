// Package query filters small, fixed in-memory tables by a set of optional
// criteria and summarises what matched. Every lookup task contributed by the
// plugins is a configuration of this package: a table of records, the fields
// that identify a key, and the matchers built from user input.
package query

// Record is one entry of a dataset. Values are scalars (string, bool, any Go
// numeric kind or json.Number) or lists ([]string, []any and friends).
// Records are treated as immutable once a dataset is built.
type Record map[string]any

// Criteria maps field names to matchers. Every criterion must hold for a
// record to be kept. Nil matchers are skipped.
type Criteria map[string]Matcher

// Matcher decides whether a single record field satisfies a criterion.
// present is false when the record does not carry the field at all.
type Matcher interface {
	Match(value any, present bool) bool
}

// Filter returns the records of dataset that satisfy every criterion, in
// their original relative order. It never mutates its inputs and always
// returns a fresh, non-nil slice.
//
// A criterion naming a field that no record in dataset carries is ignored,
// so an unknown field widens the match instead of emptying it. Known fields
// are judged against dataset itself; filter a Table to apply criteria in
// stages against the same field set.
func Filter(dataset []Record, criteria Criteria) []Record {
	return NewTable(dataset).Filter(criteria).Records
}

// Table is a dataset together with the field names it carries. Filtering a
// Table keeps its field set, so a criterion on a field of the full table is
// never dropped because an intermediate subset lacks it.
type Table struct {
	Records []Record
	fields  map[string]struct{}
}

// NewTable builds a Table over records. The field set is every field carried
// by any record plus the declared names.
func NewTable(records []Record, declared ...string) Table {
	fields := make(map[string]struct{}, len(declared))
	for _, name := range declared {
		fields[name] = struct{}{}
	}
	for _, record := range records {
		for name := range record {
			fields[name] = struct{}{}
		}
	}
	return Table{Records: records, fields: fields}
}

// Has reports whether field belongs to the table.
func (t Table) Has(field string) bool {
	_, ok := t.fields[field]
	return ok
}

// Filter returns the records satisfying criteria as a Table with the same
// field set. Criteria on fields outside the set are ignored.
func (t Table) Filter(criteria Criteria) Table {
	out := make([]Record, 0, len(t.Records))
	active := t.activeCriteria(criteria)
	for _, record := range t.Records {
		if matchesAll(record, active) {
			out = append(out, record)
		}
	}
	return Table{Records: out, fields: t.fields}
}

type boundCriterion struct {
	field   string
	matcher Matcher
}

func (t Table) activeCriteria(criteria Criteria) []boundCriterion {
	if len(criteria) == 0 {
		return nil
	}
	active := make([]boundCriterion, 0, len(criteria))
	for field, matcher := range criteria {
		if matcher == nil || !t.Has(field) {
			continue
		}
		active = append(active, boundCriterion{field: field, matcher: matcher})
	}
	return active
}

func matchesAll(record Record, criteria []boundCriterion) bool {
	for _, c := range criteria {
		value, present := record[c.field]
		if !c.matcher.Match(value, present) {
			return false
		}
	}
	return true
}

// And merges criteria sets into a new set. Later sets win when two name the
// same field.
func And(sets ...Criteria) Criteria {
	out := make(Criteria)
	for _, set := range sets {
		for field, matcher := range set {
			out[field] = matcher
		}
	}
	return out
}
