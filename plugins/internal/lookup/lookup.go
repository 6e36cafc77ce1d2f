// Package lookup holds the runner plumbing shared by the table plugins:
// turning validated parameters into query criteria and a query.Result into
// dataset rows with outcome metadata.
package lookup

import (
	"strings"
	"time"

	"lookupdesk/pkg/datasetapi"
	"lookupdesk/pkg/query"
)

// Run metadata keys set by the plugins.
const (
	MetaOutcome = "outcome"
	MetaMessage = "message"
	MetaCount   = "count"
	MetaSummary = "summary"
)

// OutcomeInvalid marks input the task rejects with a message instead of a
// parameter error, such as a negative amount.
const OutcomeInvalid = "invalid_input"

// Messages overrides the default text for empty outcomes.
type Messages struct {
	NoDataset string
	TooNarrow string
}

func (m Messages) For(outcome query.Outcome) string {
	switch outcome {
	case query.OutcomeNoDataset:
		if m.NoDataset != "" {
			return m.NoDataset
		}
	case query.OutcomeTooNarrow:
		if m.TooNarrow != "" {
			return m.TooNarrow
		}
	}
	return outcome.Message()
}

// Project maps a matched record onto an output row. A nil Project copies the record.
type Project func(query.Record) datasetapi.Row

// Respond converts res into a RunResult stamped at now.
func Respond(now time.Time, res query.Result, msgs Messages, project Project) datasetapi.RunResult {
	rows := make([]datasetapi.Row, 0, len(res.Records))
	for _, record := range res.Records {
		if project != nil {
			rows = append(rows, project(record))
			continue
		}
		row := make(datasetapi.Row, len(record))
		for k, v := range record {
			row[k] = v
		}
		rows = append(rows, row)
	}
	metadata := map[string]any{
		MetaOutcome: string(res.Outcome),
		MetaCount:   res.Summary.Count,
		MetaSummary: res.Summary,
	}
	if msg := msgs.For(res.Outcome); msg != "" {
		metadata[MetaMessage] = msg
	}
	return datasetapi.RunResult{Rows: rows, Metadata: metadata, GeneratedAt: now}
}

// Reject returns an empty result carrying message, for input the task
// refuses to evaluate.
func Reject(now time.Time, message string) datasetapi.RunResult {
	return datasetapi.RunResult{
		Rows:        []datasetapi.Row{},
		Metadata:    map[string]any{MetaOutcome: OutcomeInvalid, MetaMessage: message, MetaCount: 0},
		GeneratedAt: now,
	}
}

// Clock returns env.Now, falling back to the wall clock.
func Clock(env datasetapi.Environment) func() time.Time {
	if env.Now != nil {
		return env.Now
	}
	return func() time.Time { return time.Now().UTC() }
}

// String returns the trimmed string parameter or "".
func String(params map[string]any, name string) string {
	s, _ := params[name].(string)
	return strings.TrimSpace(s)
}

// Strings returns the string_list parameter or nil.
func Strings(params map[string]any, name string) []string {
	items, _ := params[name].([]string)
	return items
}

// Number returns a bound for a number or integer parameter; nil when the
// parameter was absent or widened away.
func Number(params map[string]any, name string) *float64 {
	switch v := params[name].(type) {
	case float64:
		return &v
	case int:
		f := float64(v)
		return &f
	default:
		return nil
	}
}

// Int returns the integer parameter or def.
func Int(params map[string]any, name string, def int) int {
	if v, ok := params[name].(int); ok {
		return v
	}
	return def
}

// TextCriterion adds a case-insensitive exact match on field when value is set.
func TextCriterion(c query.Criteria, field, value string) {
	if value != "" {
		c[field] = query.Text(value)
	}
}

// Records converts a typed table into query records.
func Records[T any](items []T, fn func(T) query.Record) []query.Record {
	out := make([]query.Record, len(items))
	for i, item := range items {
		out[i] = fn(item)
	}
	return out
}
