// Package tourism contributes the Colombo visitor lookups: attractions,
// festival dates, LKR/USD conversion and acronym meanings.
package tourism

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"lookupdesk/internal/core"
	"lookupdesk/pkg/datasetapi"
	"lookupdesk/pkg/query"
	"lookupdesk/plugins/internal/lookup"
)

const version = "1.0.0"

// Plugin implements the tourism lookup module.
type Plugin struct{}

// New constructs a tourism plugin instance.
func New() Plugin { return Plugin{} }

// Name returns the plugin identifier.
func (Plugin) Name() string { return "tourism" }

// Version returns the plugin semantic version.
func (Plugin) Version() string { return "0.1.0" }

// Register contributes the tourism dataset templates.
func (Plugin) Register(registry *core.PluginRegistry) error {
	for _, tpl := range []datasetapi.Template{
		attractionsTemplate(),
		festivalTemplate(),
		currencyTemplate(),
		acronymsTemplate(),
	} {
		if err := registry.RegisterDatasetTemplate(tpl); err != nil {
			return err
		}
	}
	return nil
}

var allFormats = []datasetapi.Format{datasetapi.FormatJSON, datasetapi.FormatCSV, datasetapi.FormatHTML}

func attractionsTemplate() datasetapi.Template {
	table := lookup.Records(attractions, attraction.record)
	return datasetapi.Template{
		Key:         "attractions",
		Version:     version,
		Title:       "Colombo attractions",
		Description: "Looks up a Colombo attraction by name.",
		Dialect:     datasetapi.DialectDSL,
		Query:       "attractions where lower(name) = lower(:name)",
		Parameters: []datasetapi.Parameter{
			{Name: "name", Type: datasetapi.TypeString, Required: true, Description: "Attraction name", Example: json.RawMessage(`"Galle Face Green"`)},
		},
		Columns: []datasetapi.Column{
			{Name: "name", Type: "string"},
			{Name: "description", Type: "string"},
			{Name: "location", Type: "string"},
			{Name: "hours", Type: "string"},
		},
		Metadata:      datasetapi.Metadata{Source: "static", Tags: []string{"tourism", "colombo"}},
		OutputFormats: allFormats,
		Binder: func(env datasetapi.Environment) (datasetapi.Runner, error) {
			now := lookup.Clock(env)
			return func(_ context.Context, req datasetapi.RunRequest) (datasetapi.RunResult, error) {
				name := strings.ToLower(lookup.String(req.Parameters, "name"))
				if name == "" {
					return lookup.Reject(now(), "Please enter an attraction name."), nil
				}
				res := query.Run(table, query.Query{Key: query.Criteria{"name": query.Text(name)}})
				return lookup.Respond(now(), res, lookup.Messages{NoDataset: notFoundMessage(name)}, nil), nil
			}, nil
		},
	}
}

func notFoundMessage(input string) string {
	names := make([]string, len(attractions))
	for i, a := range attractions {
		names[i] = strconv.Quote(a.Name)
	}
	suggestions := strings.Join(names[:len(names)-1], ", ") + ", or " + names[len(names)-1]
	return fmt.Sprintf("Sorry, no details available for %q. Try %s.", input, suggestions)
}

func festivalTemplate() datasetapi.Template {
	table := lookup.Records(festivals, festival.record)
	names := make([]string, len(festivals))
	for i, f := range festivals {
		names[i] = f.Name
	}
	return datasetapi.Template{
		Key:         "festival_check",
		Version:     version,
		Title:       "Festival date check",
		Description: "Checks a guessed date against the festival calendar.",
		Dialect:     datasetapi.DialectDSL,
		Query:       "festivals where festival = :festival",
		Parameters: []datasetapi.Parameter{
			{Name: "festival", Type: datasetapi.TypeString, Required: true, Enum: names},
			{Name: "date", Type: datasetapi.TypeDate, Required: true, Description: "Guessed date", Example: json.RawMessage(`"2025-05-12"`)},
		},
		Columns: []datasetapi.Column{
			{Name: "festival", Type: "string"},
			{Name: "date", Type: "date"},
			{Name: "selected_date", Type: "date"},
			{Name: "correct", Type: "boolean"},
		},
		Metadata:      datasetapi.Metadata{Source: "static", Tags: []string{"tourism", "calendar"}},
		OutputFormats: allFormats,
		Binder: func(env datasetapi.Environment) (datasetapi.Runner, error) {
			now := lookup.Clock(env)
			return func(_ context.Context, req datasetapi.RunRequest) (datasetapi.RunResult, error) {
				name := lookup.String(req.Parameters, "festival")
				selected := lookup.String(req.Parameters, "date")
				res := query.Run(table, query.Query{Key: query.Criteria{"festival": query.Text(name)}})
				result := lookup.Respond(now(), res, lookup.Messages{}, func(r query.Record) datasetapi.Row {
					return datasetapi.Row{
						"festival":      r["festival"],
						"date":          r["date"],
						"selected_date": selected,
						"correct":       r["date"] == selected,
					}
				})
				if len(result.Rows) == 1 {
					row := result.Rows[0]
					if row["correct"] == true {
						result.Metadata[lookup.MetaMessage] = fmt.Sprintf("Correct! %s is on %s.", row["festival"], row["date"])
					} else {
						result.Metadata[lookup.MetaMessage] = fmt.Sprintf("Incorrect. %s is on %s, not %s.", row["festival"], row["date"], selected)
					}
				}
				return result, nil
			}, nil
		},
	}
}

func currencyTemplate() datasetapi.Template {
	table := lookup.Records(exchangeRates, exchangeRate.record)
	directions := make([]string, len(exchangeRates))
	for i, r := range exchangeRates {
		directions[i] = r.Direction
	}
	return datasetapi.Template{
		Key:         "currency_convert",
		Version:     version,
		Title:       "LKR/USD conversion",
		Description: "Converts an amount between Sri Lankan rupees and US dollars.",
		Dialect:     datasetapi.DialectDSL,
		Query:       "rates where direction = :direction | converted = round(:amount * rate, 2)",
		Parameters: []datasetapi.Parameter{
			{Name: "amount", Type: datasetapi.TypeNumber, Lenient: true, Example: json.RawMessage(`1000`)},
			{Name: "direction", Type: datasetapi.TypeString, Required: true, Enum: directions},
		},
		Columns: []datasetapi.Column{
			{Name: "amount", Type: "number"},
			{Name: "from", Type: "string"},
			{Name: "to", Type: "string"},
			{Name: "rate", Type: "number"},
			{Name: "converted", Type: "number"},
		},
		Metadata:      datasetapi.Metadata{Source: "static", Tags: []string{"tourism", "currency"}},
		OutputFormats: allFormats,
		Binder: func(env datasetapi.Environment) (datasetapi.Runner, error) {
			now := lookup.Clock(env)
			return func(_ context.Context, req datasetapi.RunRequest) (datasetapi.RunResult, error) {
				amount := lookup.Number(req.Parameters, "amount")
				if amount == nil || *amount < 0 || math.IsNaN(*amount) {
					return lookup.Reject(now(), "Please enter a valid amount."), nil
				}
				direction := lookup.String(req.Parameters, "direction")
				res := query.Run(table, query.Query{Key: query.Criteria{"direction": query.Text(direction)}})
				result := lookup.Respond(now(), res, lookup.Messages{}, func(r query.Record) datasetapi.Row {
					rate, _ := r["rate"].(float64)
					return datasetapi.Row{
						"amount":    *amount,
						"from":      r["from"],
						"to":        r["to"],
						"rate":      rate,
						"converted": math.Round(*amount*rate*100) / 100,
					}
				})
				if len(result.Rows) == 1 {
					row := result.Rows[0]
					result.Metadata[lookup.MetaMessage] = fmt.Sprintf("%s %s = %s %s",
						strconv.FormatFloat(*amount, 'f', -1, 64), row["from"],
						strconv.FormatFloat(row["converted"].(float64), 'f', 2, 64), row["to"])
				}
				return result, nil
			}, nil
		},
	}
}

func acronymsTemplate() datasetapi.Template {
	table := lookup.Records(acronyms, acronym.record)
	return datasetapi.Template{
		Key:         "acronyms",
		Version:     version,
		Title:       "Acronym meanings",
		Description: "Explains course discipline and job role acronyms.",
		Dialect:     datasetapi.DialectDSL,
		Query:       "acronyms where upper(code) = upper(:code) [and kind = :kind]",
		Parameters: []datasetapi.Parameter{
			{Name: "code", Type: datasetapi.TypeString, Required: true, Example: json.RawMessage(`"SSE"`)},
			{Name: "kind", Type: datasetapi.TypeString, Enum: []string{kindDiscipline, kindRole}},
		},
		Columns: []datasetapi.Column{
			{Name: "code", Type: "string"},
			{Name: "kind", Type: "string"},
			{Name: "meaning", Type: "string"},
		},
		Metadata:      datasetapi.Metadata{Source: "static", Tags: []string{"glossary"}},
		OutputFormats: allFormats,
		Binder: func(env datasetapi.Environment) (datasetapi.Runner, error) {
			now := lookup.Clock(env)
			return func(_ context.Context, req datasetapi.RunRequest) (datasetapi.RunResult, error) {
				kind := lookup.String(req.Parameters, "kind")
				where := query.Criteria{}
				lookup.TextCriterion(where, "kind", kind)
				res := query.Run(table, query.Query{
					Key:   query.Criteria{"code": query.Text(lookup.String(req.Parameters, "code"))},
					Where: where,
				})
				msgs := lookup.Messages{NoDataset: "Invalid Input", TooNarrow: "Invalid Input"}
				if kind == kindRole {
					msgs = lookup.Messages{NoDataset: "Unrecognized role.", TooNarrow: "Unrecognized role."}
				}
				return lookup.Respond(now(), res, msgs, nil), nil
			}, nil
		},
	}
}
