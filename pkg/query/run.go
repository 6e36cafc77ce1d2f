package query

// Outcome classifies a query result for the caller.
type Outcome string

const (
	// OutcomeMatched means at least one record satisfied the query.
	OutcomeMatched Outcome = "matched"
	// OutcomeNoDataset means nothing in the table carries the requested key.
	OutcomeNoDataset Outcome = "no_dataset"
	// OutcomeTooNarrow means the key matched but the filters removed every record.
	OutcomeTooNarrow Outcome = "too_narrow"
)

// Message returns the user-facing text for an empty outcome. Matched results
// have no message.
func (o Outcome) Message() string {
	switch o {
	case OutcomeNoDataset:
		return "no dataset for this key"
	case OutcomeTooNarrow:
		return "criteria too narrow"
	default:
		return ""
	}
}

// Query splits criteria into the key that selects a slice of the table (a
// route, a name) and the filters applied within it. Measure optionally names
// a numeric field to summarise.
type Query struct {
	Key     Criteria
	Where   Criteria
	Measure string
}

// Summary aggregates the Measure field over the matched records. Total, Min
// and Max only consider records whose measure is numeric.
type Summary struct {
	Count   int     `json:"count"`
	Measure string  `json:"measure,omitempty"`
	Total   float64 `json:"total"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
}

// Result is the outcome of Run. An empty result is a value, never an error.
type Result struct {
	Records []Record `json:"records"`
	Outcome Outcome  `json:"outcome"`
	Summary Summary  `json:"summary"`
}

// Run applies q to dataset, telling apart a missing key from filters that
// were too narrow. Both stages judge criteria against the full dataset's
// field set.
func Run(dataset []Record, q Query) Result {
	return NewTable(dataset).Run(q)
}

// Run applies q to the table. See the package-level Run.
func (t Table) Run(q Query) Result {
	keyed := t.Filter(q.Key)
	if len(keyed.Records) == 0 {
		return Result{Records: keyed.Records, Outcome: OutcomeNoDataset, Summary: Summary{Measure: q.Measure}}
	}
	matched := keyed.Filter(q.Where).Records
	outcome := OutcomeMatched
	if len(matched) == 0 {
		outcome = OutcomeTooNarrow
	}
	return Result{Records: matched, Outcome: outcome, Summary: Summarize(matched, q.Measure)}
}

// Summarize counts records and aggregates the numeric measure field.
func Summarize(records []Record, measure string) Summary {
	summary := Summary{Count: len(records), Measure: measure}
	if measure == "" {
		return summary
	}
	seen := false
	for _, record := range records {
		v, ok := toFloat(record[measure])
		if !ok {
			continue
		}
		summary.Total += v
		if !seen || v < summary.Min {
			summary.Min = v
		}
		if !seen || v > summary.Max {
			summary.Max = v
		}
		seen = true
	}
	return summary
}
