// Package testutil hosts helper utilities for adapter tests. It keeps access
// to the runtime plugins in one place so the production adapter packages
// never depend on plugin implementations directly.
package testutil

import (
	"lookupdesk/internal/core"
	"lookupdesk/plugins/estates"
	"lookupdesk/plugins/lodging"
	"lookupdesk/plugins/tourism"
	"lookupdesk/plugins/travel"
)

// Plugins returns fresh instances of the bundled lookup modules.
func Plugins() []core.Plugin {
	return []core.Plugin{tourism.New(), travel.New(), lodging.New(), estates.New()}
}

// InstallPlugins installs every bundled plugin and returns their metadata in
// installation order.
func InstallPlugins(svc *core.Service) ([]core.PluginMetadata, error) {
	out := make([]core.PluginMetadata, 0, 4)
	for _, plugin := range Plugins() {
		meta, err := svc.InstallPlugin(plugin)
		if err != nil {
			return nil, err
		}
		out = append(out, meta)
	}
	return out, nil
}

// NewService returns an in-memory service with every bundled plugin installed.
func NewService(opts ...core.ServiceOption) (*core.Service, error) {
	svc := core.NewInMemoryService(core.NewDefaultRulesEngine(), opts...)
	if _, err := InstallPlugins(svc); err != nil {
		return nil, err
	}
	return svc, nil
}
