// Package travel contributes rail lookups: train schedules by route and
// class, and fare totals for a party of passengers.
package travel

import (
	"context"
	"encoding/json"
	"fmt"

	"lookupdesk/internal/core"
	"lookupdesk/pkg/datasetapi"
	"lookupdesk/pkg/query"
	"lookupdesk/plugins/internal/lookup"
)

const version = "1.0.0"

// Plugin implements the travel lookup module.
type Plugin struct{}

// New constructs a travel plugin instance.
func New() Plugin { return Plugin{} }

// Name returns the plugin identifier.
func (Plugin) Name() string { return "travel" }

// Version returns the plugin semantic version.
func (Plugin) Version() string { return "0.1.0" }

// Register contributes the schedule and fare templates.
func (Plugin) Register(registry *core.PluginRegistry) error {
	if err := registry.RegisterDatasetTemplate(schedulesTemplate()); err != nil {
		return err
	}
	return registry.RegisterDatasetTemplate(faresTemplate())
}

var routeParameters = []datasetapi.Parameter{
	{Name: "from", Type: datasetapi.TypeString, Required: true, Description: "Departure station", Example: json.RawMessage(`"Colombo"`)},
	{Name: "to", Type: datasetapi.TypeString, Required: true, Description: "Arrival station", Example: json.RawMessage(`"Kandy"`)},
}

func schedulesTemplate() datasetapi.Template {
	table := lookup.Records(schedules, schedule.record)
	return datasetapi.Template{
		Key:         "train_schedules",
		Version:     version,
		Title:       "Train schedules",
		Description: "Lists the trains running on a route, optionally limited to carriages of a class.",
		Dialect:     datasetapi.DialectDSL,
		Query:       "schedules where route = lower(:from || '-' || :to) [and classes && :classes]",
		Parameters: append(append([]datasetapi.Parameter(nil), routeParameters...),
			datasetapi.Parameter{Name: "classes", Type: datasetapi.TypeStringList, Description: "Any of these classes", Example: json.RawMessage(`["Third Class"]`)},
		),
		Columns: []datasetapi.Column{
			{Name: "train", Type: "string"},
			{Name: "departure", Type: "string", Format: "HH:MM"},
			{Name: "arrival", Type: "string", Format: "HH:MM"},
			{Name: "classes", Type: "string_list"},
		},
		Metadata:      datasetapi.Metadata{Source: "static", Tags: []string{"travel", "rail"}},
		OutputFormats: []datasetapi.Format{datasetapi.FormatJSON, datasetapi.FormatCSV, datasetapi.FormatHTML},
		Binder: func(env datasetapi.Environment) (datasetapi.Runner, error) {
			now := lookup.Clock(env)
			return func(_ context.Context, req datasetapi.RunRequest) (datasetapi.RunResult, error) {
				route := routeKey(lookup.String(req.Parameters, "from"), lookup.String(req.Parameters, "to"))
				res := query.Run(table, query.Query{
					Key:   query.Criteria{"route": query.Text(route)},
					Where: query.Criteria{"classes": query.AnyOf{Values: lookup.Strings(req.Parameters, "classes"), FoldCase: true}},
				})
				return lookup.Respond(now(), res, lookup.Messages{
					NoDataset: "No trains found for this route.",
					TooNarrow: "No trains on this route offer the selected classes.",
				}, nil), nil
			}, nil
		},
	}
}

func faresTemplate() datasetapi.Template {
	table := lookup.Records(fares, fare.record)
	return datasetapi.Template{
		Key:         "fares",
		Version:     version,
		Title:       "Train fares",
		Description: "Calculates the fare for a party travelling on a route.",
		Dialect:     datasetapi.DialectDSL,
		Query:       "fares where route = lower(:from || '-' || :to) [and class = :class] | total = fare * :passengers",
		Parameters: append(append([]datasetapi.Parameter(nil), routeParameters...),
			datasetapi.Parameter{Name: "class", Type: datasetapi.TypeString, Example: json.RawMessage(`"Second Class"`)},
			datasetapi.Parameter{Name: "passengers", Type: datasetapi.TypeInteger, Lenient: true, Default: json.RawMessage(`1`)},
		),
		Columns: []datasetapi.Column{
			{Name: "route", Type: "string"},
			{Name: "class", Type: "string"},
			{Name: "fare", Type: "number", Unit: "LKR"},
			{Name: "passengers", Type: "integer"},
			{Name: "total", Type: "number", Unit: "LKR"},
		},
		Metadata:      datasetapi.Metadata{Source: "static", Tags: []string{"travel", "rail", "pricing"}},
		OutputFormats: []datasetapi.Format{datasetapi.FormatJSON, datasetapi.FormatCSV, datasetapi.FormatHTML},
		Binder: func(env datasetapi.Environment) (datasetapi.Runner, error) {
			now := lookup.Clock(env)
			return func(_ context.Context, req datasetapi.RunRequest) (datasetapi.RunResult, error) {
				passengers := lookup.Int(req.Parameters, "passengers", 1)
				if passengers < 1 {
					return lookup.Reject(now(), "Please enter at least one passenger."), nil
				}
				where := query.Criteria{}
				lookup.TextCriterion(where, "class", lookup.String(req.Parameters, "class"))
				route := routeKey(lookup.String(req.Parameters, "from"), lookup.String(req.Parameters, "to"))
				res := query.Run(table, query.Query{Key: query.Criteria{"route": query.Text(route)}, Where: where})
				result := lookup.Respond(now(), res, lookup.Messages{
					NoDataset: "No fares found for this route.",
					TooNarrow: "No fare for the selected class on this route.",
				}, func(r query.Record) datasetapi.Row {
					amount, _ := r["fare"].(float64)
					return datasetapi.Row{
						"route":      r["route"],
						"class":      r["class"],
						"fare":       amount,
						"passengers": passengers,
						"total":      amount * float64(passengers),
					}
				})
				if len(result.Rows) == 1 {
					row := result.Rows[0]
					result.Metadata[lookup.MetaMessage] = fmt.Sprintf("Total fare for %d passenger(s) in %s: %.2f LKR", passengers, row["class"], row["total"])
				}
				return result, nil
			}, nil
		},
	}
}
