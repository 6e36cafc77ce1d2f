package datasetapi

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// HostTemplate encapsulates a plugin-provided Template together with
// host-specific runtime state (bound runner, plugin name, validation helpers).
type HostTemplate struct {
	plugin  string
	tpl     Template
	runtime Runner
}

// NewHostTemplate constructs a HostTemplate for the given plugin/template pair
// after performing structural validation. The returned template has no bound
// runner; callers must invoke Bind with the runtime environment before running.
func NewHostTemplate(plugin string, tpl Template) (HostTemplate, error) {
	if err := ValidateTemplate(tpl); err != nil {
		return HostTemplate{}, err
	}
	return HostTemplate{plugin: strings.TrimSpace(plugin), tpl: cloneTemplate(tpl)}, nil
}

// Plugin returns the plugin identifier associated with the template.
func (h HostTemplate) Plugin() string { return h.plugin }

// Template returns a copy of the underlying template metadata.
func (h HostTemplate) Template() Template { return cloneTemplate(h.tpl) }

// Bound reports whether Bind has attached a runner.
func (h HostTemplate) Bound() bool { return h.runtime != nil }

// Descriptor produces a TemplateDescriptor snapshot including plugin metadata
// and computed slug.
func (h HostTemplate) Descriptor() TemplateDescriptor {
	return TemplateDescriptor{
		Plugin:        h.plugin,
		Key:           h.tpl.Key,
		Version:       h.tpl.Version,
		Title:         h.tpl.Title,
		Description:   h.tpl.Description,
		Dialect:       h.tpl.Dialect,
		Query:         h.tpl.Query,
		Parameters:    cloneParameters(h.tpl.Parameters),
		Columns:       cloneColumns(h.tpl.Columns),
		Metadata:      cloneMetadata(h.tpl.Metadata),
		OutputFormats: cloneFormats(h.tpl.OutputFormats),
		Slug:          h.Slug(),
	}
}

// Slug returns the canonical identifier for the template (plugin/key@version).
func (h HostTemplate) Slug() string {
	return SlugFor(h.plugin, h.tpl.Key, h.tpl.Version)
}

// SupportsFormat reports whether the template declares the requested format.
func (h HostTemplate) SupportsFormat(format Format) bool {
	for _, candidate := range h.tpl.OutputFormats {
		if candidate == format {
			return true
		}
	}
	return false
}

// ValidateParameters validates supplied parameters against the template
// definition, returning normalized values plus any validation errors.
func (h HostTemplate) ValidateParameters(params map[string]any) (map[string]any, []ParameterError) {
	v := validateParameters(h.tpl.Parameters, params)
	return v.cleaned, v.errs
}

// Bind attaches a runtime runner to the host template using the provided
// environment. Binder implementations originate from plugin authors.
func (h *HostTemplate) Bind(env Environment) error {
	if h == nil {
		return errors.New("datasetapi: host template nil")
	}
	if h.tpl.Binder == nil {
		return errors.New("datasetapi: template binder missing")
	}
	runner, err := h.tpl.Binder(env)
	if err != nil {
		return fmt.Errorf("datasetapi: bind %s: %w", h.Slug(), err)
	}
	if runner == nil {
		return errors.New("datasetapi: template binder returned nil runner")
	}
	h.runtime = runner
	return nil
}

// Run executes the bound template after validating parameters. The raw
// parameters should be passed so that lenient widening can be reported.
func (h HostTemplate) Run(ctx context.Context, params map[string]any, scope Scope, format Format) (RunResult, []ParameterError, error) {
	if h.runtime == nil {
		return RunResult{}, nil, errors.New("datasetapi: template not bound")
	}
	v := validateParameters(h.tpl.Parameters, params)
	if len(v.errs) > 0 {
		return RunResult{}, v.errs, nil
	}
	result, err := h.runtime(ctx, RunRequest{
		Template:   h.Descriptor(),
		Parameters: v.cleaned,
		Scope:      cloneScope(scope),
	})
	if err != nil {
		return RunResult{}, nil, err
	}
	if len(result.Schema) == 0 {
		result.Schema = cloneColumns(h.tpl.Columns)
	}
	if result.Rows == nil {
		result.Rows = []Row{}
	}
	if len(v.widened) > 0 {
		if result.Metadata == nil {
			result.Metadata = make(map[string]any)
		}
		result.Metadata[MetadataWidened] = v.widened
	}
	result.GeneratedAt = result.GeneratedAt.UTC()
	result.Format = format
	return result, nil, nil
}

var _ TemplateRuntime = (*HostTemplate)(nil)

// SortTemplateDescriptors sorts the slice in-place using plugin/key/version for
// deterministic ordering.
func SortTemplateDescriptors(descriptors []TemplateDescriptor) {
	if len(descriptors) < 2 {
		return
	}
	sort.Slice(descriptors, func(i, j int) bool {
		a := descriptors[i]
		b := descriptors[j]
		if a.Plugin == b.Plugin {
			if a.Key == b.Key {
				return a.Version < b.Version
			}
			return a.Key < b.Key
		}
		return a.Plugin < b.Plugin
	})
}

// ValidateTemplate checks the structural requirements of a template.
func ValidateTemplate(tpl Template) error {
	if strings.TrimSpace(tpl.Key) == "" {
		return errors.New("datasetapi: dataset template key required")
	}
	if strings.TrimSpace(tpl.Version) == "" {
		return errors.New("datasetapi: dataset template version required")
	}
	if strings.TrimSpace(tpl.Title) == "" {
		return errors.New("datasetapi: dataset template title required")
	}
	if strings.TrimSpace(tpl.Query) == "" {
		return errors.New("datasetapi: dataset template query required")
	}
	if len(tpl.Columns) == 0 {
		return errors.New("datasetapi: dataset template requires at least one column")
	}
	if len(tpl.OutputFormats) == 0 {
		return errors.New("datasetapi: dataset template must declare output formats")
	}
	if tpl.Binder == nil {
		return errors.New("datasetapi: dataset template binder required")
	}
	if tpl.Dialect != DialectSQL && tpl.Dialect != DialectDSL {
		return fmt.Errorf("datasetapi: unsupported dataset dialect %q", tpl.Dialect)
	}
	seen := make(map[string]struct{}, len(tpl.Parameters))
	for _, p := range tpl.Parameters {
		name := normalizeName(p.Name)
		if name == "" {
			return errors.New("datasetapi: parameter name required")
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("datasetapi: duplicate parameter %s", p.Name)
		}
		seen[name] = struct{}{}
		if !knownType(p.Type) {
			return fmt.Errorf("datasetapi: parameter %s has unsupported type %q", p.Name, p.Type)
		}
		if p.Lenient && p.Type != TypeNumber && p.Type != TypeInteger {
			return fmt.Errorf("datasetapi: parameter %s: only numeric parameters may be lenient", p.Name)
		}
	}
	return nil
}

// SlugFor composes the canonical plugin/key@version identifier.
func SlugFor(plugin, key, version string) string {
	keyPart := strings.TrimSpace(key)
	versionPart := strings.TrimSpace(version)
	if plugin = strings.TrimSpace(plugin); plugin == "" {
		return fmt.Sprintf("%s@%s", keyPart, versionPart)
	}
	return fmt.Sprintf("%s/%s@%s", plugin, keyPart, versionPart)
}

func cloneTemplate(t Template) Template {
	cloned := t
	cloned.Parameters = cloneParameters(t.Parameters)
	cloned.Columns = cloneColumns(t.Columns)
	cloned.Metadata = cloneMetadata(t.Metadata)
	cloned.OutputFormats = cloneFormats(t.OutputFormats)
	return cloned
}

func cloneParameters(params []Parameter) []Parameter {
	if len(params) == 0 {
		return nil
	}
	cloned := make([]Parameter, len(params))
	copy(cloned, params)
	for i := range cloned {
		if len(cloned[i].Example) > 0 {
			cloned[i].Example = append([]byte(nil), cloned[i].Example...)
		}
		if len(cloned[i].Default) > 0 {
			cloned[i].Default = append([]byte(nil), cloned[i].Default...)
		}
		if len(cloned[i].Enum) > 0 {
			cloned[i].Enum = append([]string(nil), cloned[i].Enum...)
		}
	}
	return cloned
}

func cloneColumns(columns []Column) []Column {
	if len(columns) == 0 {
		return nil
	}
	cloned := make([]Column, len(columns))
	copy(cloned, columns)
	return cloned
}

func cloneFormats(formats []Format) []Format {
	if len(formats) == 0 {
		return nil
	}
	cloned := make([]Format, len(formats))
	copy(cloned, formats)
	return cloned
}

func cloneMetadata(metadata Metadata) Metadata {
	cloned := metadata
	if len(metadata.Tags) > 0 {
		cloned.Tags = append([]string(nil), metadata.Tags...)
	}
	if len(metadata.Annotations) > 0 {
		cloned.Annotations = make(map[string]string, len(metadata.Annotations))
		for k, v := range metadata.Annotations {
			cloned.Annotations[k] = v
		}
	}
	return cloned
}

func cloneScope(scope Scope) Scope {
	cloned := Scope{Requestor: scope.Requestor}
	if len(scope.Roles) > 0 {
		cloned.Roles = append([]string(nil), scope.Roles...)
	}
	return cloned
}
