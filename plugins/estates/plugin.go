// Package estates exposes the live plantation, inventory and incident
// ledgers as dataset templates and contributes the tea region rule.
package estates

import (
	"context"
	"encoding/json"
	"errors"

	"lookupdesk/internal/core"
	"lookupdesk/pkg/datasetapi"
	"lookupdesk/pkg/query"
	"lookupdesk/plugins/internal/lookup"
)

const version = "1.0.0"

var errStoreRequired = errors.New("estates: ledger store required")

// Plugin implements the estates module.
type Plugin struct{}

// New constructs an estates plugin instance.
func New() Plugin { return Plugin{} }

// Name returns the plugin identifier.
func (Plugin) Name() string { return "estates" }

// Version returns the plugin semantic version.
func (Plugin) Version() string { return "0.1.0" }

// Register contributes the ledger templates and the tea region rule.
func (Plugin) Register(registry *core.PluginRegistry) error {
	registry.RegisterRule(teaRegionRule())
	for _, tpl := range []datasetapi.Template{plantationsTemplate(), inventoryTemplate(), incidentsTemplate()} {
		if err := registry.RegisterDatasetTemplate(tpl); err != nil {
			return err
		}
	}
	return nil
}

var ledgerFormats = []datasetapi.Format{datasetapi.FormatJSON, datasetapi.FormatCSV, datasetapi.FormatHTML}

func plantationRecord(p core.Plantation) query.Record {
	return query.Record{
		"id":            p.ID,
		"name":          p.Name,
		"region":        p.Region,
		"production_kg": p.ProductionKG,
		"created_at":    p.CreatedAt,
	}
}

func inventoryRecord(item core.InventoryItem) query.Record {
	return query.Record{
		"id":         item.ID,
		"item":       item.Item,
		"quantity":   item.Quantity,
		"unit":       item.Unit,
		"location":   item.Location,
		"created_at": item.CreatedAt,
	}
}

func incidentRecord(incident core.Incident) query.Record {
	return query.Record{
		"id":          incident.ID,
		"title":       incident.Title,
		"location":    incident.Location,
		"severity":    string(incident.Severity),
		"description": incident.Description,
		"created_at":  incident.CreatedAt,
	}
}

func plantationsTemplate() datasetapi.Template {
	return datasetapi.Template{
		Key:         "plantations",
		Version:     version,
		Title:       "Plantation production",
		Description: "Production entries from the plantation ledger.",
		Dialect:     datasetapi.DialectDSL,
		Query:       "ledger.plantations [where region = :region] [and production_kg between :min_production and :max_production]",
		Parameters: []datasetapi.Parameter{
			{Name: "region", Type: datasetapi.TypeString, Example: json.RawMessage(`"Uva"`)},
			{Name: "min_production", Type: datasetapi.TypeNumber, Lenient: true, Unit: "kg"},
			{Name: "max_production", Type: datasetapi.TypeNumber, Lenient: true, Unit: "kg"},
		},
		Columns: []datasetapi.Column{
			{Name: "id", Type: "string"},
			{Name: "name", Type: "string"},
			{Name: "region", Type: "string"},
			{Name: "production_kg", Type: "integer", Unit: "kg"},
			{Name: "created_at", Type: "timestamp"},
		},
		Metadata:      datasetapi.Metadata{Source: "ledger", Tags: []string{"estates", "production"}},
		OutputFormats: ledgerFormats,
		Binder: func(env datasetapi.Environment) (datasetapi.Runner, error) {
			if env.Store == nil {
				return nil, errStoreRequired
			}
			now := lookup.Clock(env)
			return func(_ context.Context, req datasetapi.RunRequest) (datasetapi.RunResult, error) {
				where := query.Criteria{}
				lookup.TextCriterion(where, "region", lookup.String(req.Parameters, "region"))
				production := query.Range{Min: lookup.Number(req.Parameters, "min_production"), Max: lookup.Number(req.Parameters, "max_production")}
				if !production.Open() {
					where["production_kg"] = production
				}
				table := lookup.Records(env.Store.ListPlantations(), plantationRecord)
				res := query.Run(table, query.Query{Where: where, Measure: "production_kg"})
				return lookup.Respond(now(), res, lookup.Messages{
					NoDataset: "No plantations recorded yet.",
					TooNarrow: "No plantations match your criteria.",
				}, nil), nil
			}, nil
		},
	}
}

func inventoryTemplate() datasetapi.Template {
	return datasetapi.Template{
		Key:         "inventory",
		Version:     version,
		Title:       "Inventory counts",
		Description: "Stock counts from the inventory ledger.",
		Dialect:     datasetapi.DialectDSL,
		Query:       "ledger.inventory [where item = :item] [and quantity >= :min_quantity]",
		Parameters: []datasetapi.Parameter{
			{Name: "item", Type: datasetapi.TypeString, Example: json.RawMessage(`"Fertiliser"`)},
			{Name: "min_quantity", Type: datasetapi.TypeNumber, Lenient: true},
		},
		Columns: []datasetapi.Column{
			{Name: "id", Type: "string"},
			{Name: "item", Type: "string"},
			{Name: "quantity", Type: "integer"},
			{Name: "unit", Type: "string"},
			{Name: "location", Type: "string"},
			{Name: "created_at", Type: "timestamp"},
		},
		Metadata:      datasetapi.Metadata{Source: "ledger", Tags: []string{"estates", "inventory"}},
		OutputFormats: ledgerFormats,
		Binder: func(env datasetapi.Environment) (datasetapi.Runner, error) {
			if env.Store == nil {
				return nil, errStoreRequired
			}
			now := lookup.Clock(env)
			return func(_ context.Context, req datasetapi.RunRequest) (datasetapi.RunResult, error) {
				where := query.Criteria{}
				lookup.TextCriterion(where, "item", lookup.String(req.Parameters, "item"))
				if min := lookup.Number(req.Parameters, "min_quantity"); min != nil {
					where["quantity"] = query.AtLeast(*min)
				}
				table := lookup.Records(env.Store.ListInventory(), inventoryRecord)
				res := query.Run(table, query.Query{Where: where, Measure: "quantity"})
				return lookup.Respond(now(), res, lookup.Messages{
					NoDataset: "No inventory recorded yet.",
					TooNarrow: "No inventory matches your criteria.",
				}, nil), nil
			}, nil
		},
	}
}

func incidentsTemplate() datasetapi.Template {
	return datasetapi.Template{
		Key:         "incidents",
		Version:     version,
		Title:       "Incident reports",
		Description: "Reported incidents from the incident ledger.",
		Dialect:     datasetapi.DialectDSL,
		Query:       "ledger.incidents [where severity in :severity] [and location = :location]",
		Parameters: []datasetapi.Parameter{
			{Name: "severity", Type: datasetapi.TypeStringList, Example: json.RawMessage(`["high","critical"]`)},
			{Name: "location", Type: datasetapi.TypeString},
		},
		Columns: []datasetapi.Column{
			{Name: "id", Type: "string"},
			{Name: "title", Type: "string"},
			{Name: "location", Type: "string"},
			{Name: "severity", Type: "string"},
			{Name: "description", Type: "string"},
			{Name: "created_at", Type: "timestamp"},
		},
		Metadata:      datasetapi.Metadata{Source: "ledger", Tags: []string{"estates", "safety"}},
		OutputFormats: ledgerFormats,
		Binder: func(env datasetapi.Environment) (datasetapi.Runner, error) {
			if env.Store == nil {
				return nil, errStoreRequired
			}
			now := lookup.Clock(env)
			return func(_ context.Context, req datasetapi.RunRequest) (datasetapi.RunResult, error) {
				where := query.Criteria{
					"severity": query.AnyOf{Values: lookup.Strings(req.Parameters, "severity"), FoldCase: true},
				}
				lookup.TextCriterion(where, "location", lookup.String(req.Parameters, "location"))
				table := lookup.Records(env.Store.ListIncidents(), incidentRecord)
				res := query.Run(table, query.Query{Where: where})
				return lookup.Respond(now(), res, lookup.Messages{
					NoDataset: "No incidents reported yet.",
					TooNarrow: "No incidents match your criteria.",
				}, nil), nil
			}, nil
		},
	}
}
