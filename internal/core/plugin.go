package core

import (
	"fmt"
	"sort"

	"lookupdesk/pkg/datasetapi"
)

// Plugin describes a lookup module that contributes dataset templates and,
// optionally, ledger rules.
type Plugin interface {
	Name() string
	Version() string
	Register(registry *PluginRegistry) error
}

// PluginRegistry accumulates plugin contributions during registration.
type PluginRegistry struct {
	rules    []Rule
	datasets map[string]datasetapi.Template
}

// NewPluginRegistry constructs a plugin registry.
func NewPluginRegistry() *PluginRegistry {
	return &PluginRegistry{datasets: make(map[string]datasetapi.Template)}
}

// RegisterRule adds an in-transaction rule contributed by the plugin.
func (r *PluginRegistry) RegisterRule(rule Rule) {
	if rule == nil {
		return
	}
	r.rules = append(r.rules, rule)
}

// RegisterDatasetTemplate stores a dataset template contributed by the plugin.
func (r *PluginRegistry) RegisterDatasetTemplate(template datasetapi.Template) error {
	if err := datasetapi.ValidateTemplate(template); err != nil {
		return err
	}
	key := fmt.Sprintf("%s@%s", template.Key, template.Version)
	if _, exists := r.datasets[key]; exists {
		return fmt.Errorf("dataset template %s already registered", key)
	}
	r.datasets[key] = template
	return nil
}

// Rules returns a copy of registered rules.
func (r *PluginRegistry) Rules() []Rule {
	out := make([]Rule, len(r.rules))
	copy(out, r.rules)
	return out
}

// DatasetTemplates returns registered dataset templates ordered by key and version.
func (r *PluginRegistry) DatasetTemplates() []datasetapi.Template {
	out := make([]datasetapi.Template, 0, len(r.datasets))
	for _, template := range r.datasets {
		out = append(out, template)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Key == out[j].Key {
			return out[i].Version < out[j].Version
		}
		return out[i].Key < out[j].Key
	})
	return out
}

// PluginMetadata stores metadata describing an installed plugin.
type PluginMetadata struct {
	Name     string                      `json:"name"`
	Version  string                      `json:"version"`
	Rules    []string                    `json:"rules,omitempty"`
	Datasets []DatasetTemplateDescriptor `json:"datasets"`
}
