// Package lodging contributes the property listing filter and the room
// availability checker.
package lodging

import (
	"context"
	"encoding/json"

	"lookupdesk/internal/core"
	"lookupdesk/pkg/datasetapi"
	"lookupdesk/pkg/query"
	"lookupdesk/plugins/internal/lookup"
)

const version = "1.0.0"

// Plugin implements the lodging lookup module.
type Plugin struct{}

// New constructs a lodging plugin instance.
func New() Plugin { return Plugin{} }

// Name returns the plugin identifier.
func (Plugin) Name() string { return "lodging" }

// Version returns the plugin semantic version.
func (Plugin) Version() string { return "0.1.0" }

// Register contributes the property and room templates.
func (Plugin) Register(registry *core.PluginRegistry) error {
	if err := registry.RegisterDatasetTemplate(propertiesTemplate()); err != nil {
		return err
	}
	return registry.RegisterDatasetTemplate(roomsTemplate())
}

func propertiesTemplate() datasetapi.Template {
	table := lookup.Records(properties, property.record)
	return datasetapi.Template{
		Key:         "properties",
		Version:     version,
		Title:       "Property listings",
		Description: "Filters property listings by type, location and asking price.",
		Dialect:     datasetapi.DialectDSL,
		Query:       "properties [where type = :type] [and location = :location] [and price between :min_price and :max_price]",
		Parameters: []datasetapi.Parameter{
			{Name: "type", Type: datasetapi.TypeString, Example: json.RawMessage(`"Apartment"`)},
			{Name: "location", Type: datasetapi.TypeString, Example: json.RawMessage(`"Colombo"`)},
			{Name: "min_price", Type: datasetapi.TypeNumber, Lenient: true, Unit: "LKR"},
			{Name: "max_price", Type: datasetapi.TypeNumber, Lenient: true, Unit: "LKR"},
		},
		Columns: []datasetapi.Column{
			{Name: "name", Type: "string"},
			{Name: "type", Type: "string"},
			{Name: "location", Type: "string"},
			{Name: "price", Type: "number", Unit: "LKR"},
			{Name: "bedrooms", Type: "integer"},
		},
		Metadata:      datasetapi.Metadata{Source: "static", Tags: []string{"lodging", "real-estate"}},
		OutputFormats: []datasetapi.Format{datasetapi.FormatJSON, datasetapi.FormatCSV, datasetapi.FormatHTML},
		Binder: func(env datasetapi.Environment) (datasetapi.Runner, error) {
			now := lookup.Clock(env)
			return func(_ context.Context, req datasetapi.RunRequest) (datasetapi.RunResult, error) {
				where := query.Criteria{}
				lookup.TextCriterion(where, "type", lookup.String(req.Parameters, "type"))
				lookup.TextCriterion(where, "location", lookup.String(req.Parameters, "location"))
				price := query.Range{Min: lookup.Number(req.Parameters, "min_price"), Max: lookup.Number(req.Parameters, "max_price")}
				if !price.Open() {
					where["price"] = price
				}
				res := query.Run(table, query.Query{Where: where, Measure: "price"})
				return lookup.Respond(now(), res, lookup.Messages{
					TooNarrow: "No properties match your criteria.",
				}, nil), nil
			}, nil
		},
	}
}

func roomsTemplate() datasetapi.Template {
	table := lookup.Records(rooms, room.record)
	return datasetapi.Template{
		Key:         "rooms",
		Version:     version,
		Title:       "Room availability",
		Description: "Finds available rooms that fit the party and budget.",
		Dialect:     datasetapi.DialectDSL,
		Query:       "rooms where available [and room_type = :room_type] [and capacity >= :guests] [and rate <= :max_rate] [and amenities && :amenities]",
		Parameters: []datasetapi.Parameter{
			{Name: "room_type", Type: datasetapi.TypeString, Example: json.RawMessage(`"Deluxe"`)},
			{Name: "guests", Type: datasetapi.TypeInteger, Lenient: true},
			{Name: "max_rate", Type: datasetapi.TypeNumber, Lenient: true, Unit: "LKR"},
			{Name: "amenities", Type: datasetapi.TypeStringList, Example: json.RawMessage(`["Sea View"]`)},
		},
		Columns: []datasetapi.Column{
			{Name: "room", Type: "string"},
			{Name: "room_type", Type: "string"},
			{Name: "capacity", Type: "integer"},
			{Name: "rate", Type: "number", Unit: "LKR"},
			{Name: "amenities", Type: "string_list"},
		},
		Metadata:      datasetapi.Metadata{Source: "static", Tags: []string{"lodging", "availability"}},
		OutputFormats: []datasetapi.Format{datasetapi.FormatJSON, datasetapi.FormatCSV, datasetapi.FormatHTML},
		Binder: func(env datasetapi.Environment) (datasetapi.Runner, error) {
			now := lookup.Clock(env)
			return func(_ context.Context, req datasetapi.RunRequest) (datasetapi.RunResult, error) {
				where := query.Criteria{
					"available": query.Exact{Value: true},
					"amenities": query.AnyOf{Values: lookup.Strings(req.Parameters, "amenities"), FoldCase: true},
				}
				lookup.TextCriterion(where, "room_type", lookup.String(req.Parameters, "room_type"))
				if guests := lookup.Number(req.Parameters, "guests"); guests != nil {
					where["capacity"] = query.AtLeast(*guests)
				}
				if rate := lookup.Number(req.Parameters, "max_rate"); rate != nil {
					where["rate"] = query.AtMost(*rate)
				}
				res := query.Run(table, query.Query{Where: where, Measure: "rate"})
				result := lookup.Respond(now(), res, lookup.Messages{
					TooNarrow: "No rooms available for the selected criteria.",
				}, func(r query.Record) datasetapi.Row {
					return datasetapi.Row{
						"room":      r["room"],
						"room_type": r["room_type"],
						"capacity":  r["capacity"],
						"rate":      r["rate"],
						"amenities": r["amenities"],
					}
				})
				return result, nil
			}, nil
		},
	}
}
