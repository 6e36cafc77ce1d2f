// Package datasetapi is the plugin-facing contract for dataset templates: a
// typed parameter list, a result schema and a binder that turns the host
// environment into a runner.
package datasetapi

import (
	"context"
	"encoding/json"
	"time"

	"lookupdesk/pkg/domain"
)

type Dialect string

const (
	DialectSQL Dialect = "sql"
	DialectDSL Dialect = "dsl"
)

type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatHTML Format = "html"
)

// ParseFormat maps a case-insensitive name onto a known format.
func ParseFormat(name string) (Format, bool) {
	switch Format(normalizeName(name)) {
	case FormatJSON:
		return FormatJSON, true
	case FormatCSV:
		return FormatCSV, true
	case FormatHTML:
		return FormatHTML, true
	default:
		return "", false
	}
}

type Scope struct {
	Requestor string   `json:"requestor"`
	Roles     []string `json:"roles,omitempty"`
}

// Parameter types understood by the host validator.
const (
	TypeString     = "string"
	TypeInteger    = "integer"
	TypeNumber     = "number"
	TypeBoolean    = "boolean"
	TypeTimestamp  = "timestamp"
	TypeDate       = "date"
	TypeStringList = "string_list"
)

// Parameter declares one input of a template. Lenient numeric parameters
// drop values that fail to parse instead of reporting them, which widens
// the query; the dropped names are reported in run metadata under
// "widened".
type Parameter struct {
	Name        string          `json:"name"`
	Type        string          `json:"type"`
	Required    bool            `json:"required"`
	Lenient     bool            `json:"lenient,omitempty"`
	Description string          `json:"description,omitempty"`
	Unit        string          `json:"unit,omitempty"`
	Enum        []string        `json:"enum,omitempty"`
	Example     json.RawMessage `json:"example,omitempty"`
	Default     json.RawMessage `json:"default,omitempty"`
}

type Column struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Unit        string `json:"unit,omitempty"`
	Description string `json:"description,omitempty"`
	Format      string `json:"format,omitempty"`
}

type Metadata struct {
	Source        string            `json:"source,omitempty"`
	Documentation string            `json:"documentation,omitempty"`
	Tags          []string          `json:"tags,omitempty"`
	Annotations   map[string]string `json:"annotations,omitempty"`
}

// Environment is handed to binders. Store is nil for templates that only
// read static tables.
type Environment struct {
	Store domain.PersistentStore
	Now   func() time.Time
}

type Template struct {
	Key           string
	Version       string
	Title         string
	Description   string
	Dialect       Dialect
	Query         string
	Parameters    []Parameter
	Columns       []Column
	Metadata      Metadata
	OutputFormats []Format
	Binder        Binder
}

type TemplateDescriptor struct {
	Plugin        string      `json:"plugin"`
	Key           string      `json:"key"`
	Version       string      `json:"version"`
	Title         string      `json:"title"`
	Description   string      `json:"description"`
	Dialect       Dialect     `json:"dialect"`
	Query         string      `json:"query"`
	Parameters    []Parameter `json:"parameters"`
	Columns       []Column    `json:"columns"`
	Metadata      Metadata    `json:"metadata"`
	OutputFormats []Format    `json:"output_formats"`
	Slug          string      `json:"slug"`
}

// Row is a single result row keyed by column name.
type Row = map[string]any

type RunRequest struct {
	Template   TemplateDescriptor
	Parameters map[string]any
	Scope      Scope
}

type RunResult struct {
	Schema      []Column       `json:"schema"`
	Rows        []Row          `json:"rows"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	GeneratedAt time.Time      `json:"generated_at"`
	Format      Format         `json:"format"`
}

type Runner func(context.Context, RunRequest) (RunResult, error)

type Binder func(Environment) (Runner, error)

// ParameterError reports a single parameter that failed validation.
type ParameterError struct {
	Name    string `json:"name"`
	Message string `json:"message"`
}

func (e ParameterError) String() string { return e.Name + ": " + e.Message }

// TemplateRuntime is the host-side view of a bound template.
type TemplateRuntime interface {
	Descriptor() TemplateDescriptor
	Slug() string
	SupportsFormat(Format) bool
	ValidateParameters(map[string]any) (map[string]any, []ParameterError)
	Run(ctx context.Context, params map[string]any, scope Scope, format Format) (RunResult, []ParameterError, error)
}

// Run metadata keys set by the host.
const (
	MetadataWidened = "widened"
)
