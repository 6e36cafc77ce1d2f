package core

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"lookupdesk/pkg/datasetapi"
)

type (
	// DatasetDialect mirrors datasetapi.Dialect for core consumers.
	DatasetDialect = datasetapi.Dialect
	// DatasetFormat mirrors datasetapi.Format for core consumers.
	DatasetFormat = datasetapi.Format
	// DatasetScope mirrors datasetapi.Scope for core consumers.
	DatasetScope = datasetapi.Scope
	// DatasetParameter mirrors datasetapi.Parameter for core consumers.
	DatasetParameter = datasetapi.Parameter
	// DatasetColumn mirrors datasetapi.Column for core consumers.
	DatasetColumn = datasetapi.Column
	// DatasetRunResult mirrors datasetapi.RunResult for core consumers.
	DatasetRunResult = datasetapi.RunResult
	// DatasetParameterError mirrors datasetapi.ParameterError for core consumers.
	DatasetParameterError = datasetapi.ParameterError
	// DatasetTemplateDescriptor mirrors datasetapi.TemplateDescriptor for core consumers.
	DatasetTemplateDescriptor = datasetapi.TemplateDescriptor
)

const (
	FormatJSON DatasetFormat = datasetapi.FormatJSON
	FormatCSV  DatasetFormat = datasetapi.FormatCSV
	FormatHTML DatasetFormat = datasetapi.FormatHTML
)

// DatasetTemplate wraps a dataset template contributed by a plugin together
// with the bound host runtime and the service's logging and metrics hooks.
type DatasetTemplate struct {
	datasetapi.Template
	Plugin string

	host  *datasetapi.HostTemplate
	hooks runHooks
}

type runHooks struct {
	logger  *zap.Logger
	metrics MetricsRecorder
}

// Slug returns the canonical plugin/key@version identifier.
func (t DatasetTemplate) Slug() string {
	return datasetapi.SlugFor(t.Plugin, t.Key, t.Version)
}

// Descriptor produces a descriptor snapshot for the template.
func (t DatasetTemplate) Descriptor() DatasetTemplateDescriptor {
	if host, err := t.hostOrNew(); err == nil {
		return host.Descriptor()
	}
	return DatasetTemplateDescriptor{
		Plugin:        t.Plugin,
		Key:           t.Key,
		Version:       t.Version,
		Title:         t.Title,
		Description:   t.Description,
		Dialect:       t.Dialect,
		Query:         t.Query,
		OutputFormats: append([]DatasetFormat(nil), t.OutputFormats...),
		Slug:          t.Slug(),
	}
}

// SupportsFormat reports whether the template declares the requested format.
func (t DatasetTemplate) SupportsFormat(format DatasetFormat) bool {
	for _, candidate := range t.OutputFormats {
		if candidate == format {
			return true
		}
	}
	return false
}

// ValidateParameters validates supplied parameters against the template definition.
func (t DatasetTemplate) ValidateParameters(params map[string]any) (map[string]any, []DatasetParameterError) {
	host, err := t.hostOrNew()
	if err != nil {
		return nil, []DatasetParameterError{{Name: "", Message: err.Error()}}
	}
	return host.ValidateParameters(params)
}

// Run executes the dataset template using the bound runner after validating
// parameters. params should be the caller's raw values so that widened
// lenient parameters are reported in the result metadata.
func (t DatasetTemplate) Run(ctx context.Context, params map[string]any, scope DatasetScope, format DatasetFormat) (DatasetRunResult, []DatasetParameterError, error) {
	if t.host == nil {
		return DatasetRunResult{}, nil, errors.New("dataset template not bound")
	}
	start := time.Now()
	result, paramErrs, err := t.host.Run(ctx, params, scope, format)
	t.hooks.observe(ctx, t.Slug(), result, paramErrs, err, time.Since(start))
	return result, paramErrs, err
}

func (h runHooks) observe(ctx context.Context, slug string, result DatasetRunResult, paramErrs []DatasetParameterError, err error, elapsed time.Duration) {
	if h.metrics != nil {
		h.metrics.Observe(ctx, "dataset.run", err == nil && len(paramErrs) == 0, elapsed)
	}
	if h.logger == nil {
		return
	}
	switch {
	case err != nil:
		h.logger.Error("dataset run failed", zap.String("slug", slug), zap.Error(err))
	case len(paramErrs) > 0:
		h.logger.Info("dataset parameters rejected", zap.String("slug", slug), zap.Int("errors", len(paramErrs)))
	default:
		fields := []zap.Field{
			zap.String("slug", slug),
			zap.Int("rows", len(result.Rows)),
			zap.Any("outcome", result.Metadata["outcome"]),
			zap.Duration("elapsed", elapsed),
		}
		if widened, ok := result.Metadata[datasetapi.MetadataWidened].([]string); ok {
			fields = append(fields, zap.Strings("widened", widened))
		}
		h.logger.Info("dataset run", fields...)
	}
}

func (t *DatasetTemplate) bind(env datasetapi.Environment) error {
	host, err := datasetapi.NewHostTemplate(t.Plugin, t.Template)
	if err != nil {
		return err
	}
	if err := host.Bind(env); err != nil {
		return err
	}
	t.host = &host
	return nil
}

func (t DatasetTemplate) hostOrNew() (datasetapi.HostTemplate, error) {
	if t.host != nil {
		return *t.host, nil
	}
	return datasetapi.NewHostTemplate(t.Plugin, t.Template)
}

// DatasetTemplateCollection sorts descriptors by plugin, key and version.
type DatasetTemplateCollection []DatasetTemplateDescriptor

func (c DatasetTemplateCollection) Len() int      { return len(c) }
func (c DatasetTemplateCollection) Swap(i, j int) { c[i], c[j] = c[j], c[i] }
func (c DatasetTemplateCollection) Less(i, j int) bool {
	if c[i].Plugin != c[j].Plugin {
		return c[i].Plugin < c[j].Plugin
	}
	if c[i].Key != c[j].Key {
		return c[i].Key < c[j].Key
	}
	return c[i].Version < c[j].Version
}
