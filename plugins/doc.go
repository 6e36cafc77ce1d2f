// Package plugins hosts the lookup modules. Each subpackage contributes
// dataset templates (and occasionally ledger rules) through
// core.PluginRegistry and builds its runners on pkg/query and
// pkg/datasetapi. This package holds no runtime code; it anchors the import
// guard that keeps plugins off the domain model and the infrastructure
// adapters.
//
// Subpackages:
//
//	tourism   attractions, festival dates, currency conversion, acronyms
//	travel    train schedules and fares
//	lodging   property listings and room availability
//	estates   plantation, inventory and incident ledger views
//	internal/lookup  runner helpers shared by the modules above
package plugins
