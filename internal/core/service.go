package core

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"lookupdesk/internal/infra/persistence/memory"
	"lookupdesk/pkg/datasetapi"
)

// ErrUnsupportedFormat is returned when a template does not declare the
// requested output format.
var ErrUnsupportedFormat = errors.New("dataset format not supported")

// ErrNotFound is returned when a lookup by identifier fails.
type ErrNotFound struct {
	Kind string
	ID   string
}

func (e ErrNotFound) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

// ServiceOption customises a Service.
type ServiceOption func(*serviceOptions)

type serviceOptions struct {
	engine  *RulesEngine
	logger  *zap.Logger
	metrics MetricsRecorder
	clock   Clock
}

func defaultServiceOptions() serviceOptions {
	return serviceOptions{
		logger:  zap.NewNop(),
		metrics: noopMetrics{},
		clock:   ClockFunc(func() time.Time { return time.Now().UTC() }),
	}
}

// WithRulesEngine sets the engine that receives plugin rules. It must be the
// engine the store evaluates; by default the store's own engine is used.
func WithRulesEngine(engine *RulesEngine) ServiceOption {
	return func(o *serviceOptions) { o.engine = engine }
}

// WithLogger sets the structured logger.
func WithLogger(logger *zap.Logger) ServiceOption {
	return func(o *serviceOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithMetrics sets the operation metrics recorder.
func WithMetrics(metrics MetricsRecorder) ServiceOption {
	return func(o *serviceOptions) {
		if metrics != nil {
			o.metrics = metrics
		}
	}
}

// WithClock overrides the clock handed to dataset binders.
func WithClock(clock Clock) ServiceOption {
	return func(o *serviceOptions) {
		if clock != nil {
			o.clock = clock
		}
	}
}

type engineProvider interface {
	RulesEngine() *RulesEngine
}

// Service exposes the dataset catalog and the append-only ledger operations.
type Service struct {
	store   PersistentStore
	engine  *RulesEngine
	logger  *zap.Logger
	metrics MetricsRecorder
	clock   Clock

	mu       sync.RWMutex
	plugins  map[string]PluginMetadata
	datasets map[string]DatasetTemplate
}

// NewService constructs a service backed by the supplied store.
func NewService(store PersistentStore, opts ...ServiceOption) *Service {
	o := defaultServiceOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.engine == nil {
		if p, ok := store.(engineProvider); ok {
			o.engine = p.RulesEngine()
		}
	}
	return &Service{
		store:    store,
		engine:   o.engine,
		logger:   o.logger,
		metrics:  o.metrics,
		clock:    o.clock,
		plugins:  make(map[string]PluginMetadata),
		datasets: make(map[string]DatasetTemplate),
	}
}

// NewInMemoryService creates a service and in-memory store with the given rules engine.
func NewInMemoryService(engine *RulesEngine, opts ...ServiceOption) *Service {
	if engine == nil {
		engine = NewDefaultRulesEngine()
	}
	return NewService(memory.NewStore(engine), opts...)
}

// Store returns the underlying storage implementation.
func (s *Service) Store() PersistentStore { return s.store }

// InstallPlugin registers a plugin, wiring its rules into the active engine and
// binding its dataset templates against the store.
func (s *Service) InstallPlugin(plugin Plugin) (PluginMetadata, error) {
	if plugin == nil {
		return PluginMetadata{}, errors.New("plugin cannot be nil")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.plugins[plugin.Name()]; ok {
		return PluginMetadata{}, fmt.Errorf("plugin %s already registered", plugin.Name())
	}

	registry := NewPluginRegistry()
	if err := plugin.Register(registry); err != nil {
		return PluginMetadata{}, fmt.Errorf("register plugin %s: %w", plugin.Name(), err)
	}

	env := datasetapi.Environment{Store: s.store, Now: s.clock.Now}
	bound := make([]DatasetTemplate, 0, len(registry.DatasetTemplates()))
	for _, tpl := range registry.DatasetTemplates() {
		template := DatasetTemplate{
			Template: tpl,
			Plugin:   plugin.Name(),
			hooks:    runHooks{logger: s.logger, metrics: s.metrics},
		}
		if _, exists := s.datasets[template.Slug()]; exists {
			return PluginMetadata{}, fmt.Errorf("dataset template %s already registered", template.Slug())
		}
		if err := template.bind(env); err != nil {
			return PluginMetadata{}, err
		}
		bound = append(bound, template)
	}

	rules := registry.Rules()
	if len(rules) > 0 && s.engine == nil {
		return PluginMetadata{}, fmt.Errorf("plugin %s contributes rules but no rules engine is configured", plugin.Name())
	}
	meta := PluginMetadata{Name: plugin.Name(), Version: plugin.Version()}
	for _, rule := range rules {
		s.engine.Register(rule)
		meta.Rules = append(meta.Rules, rule.Name())
	}
	for _, template := range bound {
		s.datasets[template.Slug()] = template
		meta.Datasets = append(meta.Datasets, template.Descriptor())
	}
	s.plugins[plugin.Name()] = meta
	s.logger.Info("plugin installed",
		zap.String("plugin", meta.Name),
		zap.String("version", meta.Version),
		zap.Int("datasets", len(meta.Datasets)),
		zap.Int("rules", len(meta.Rules)))
	return meta, nil
}

// RegisteredPlugins returns metadata describing installed plugins ordered by name.
func (s *Service) RegisteredPlugins() []PluginMetadata {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]PluginMetadata, 0, len(s.plugins))
	for _, meta := range s.plugins {
		out = append(out, meta)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// DatasetTemplates returns descriptors for every installed template.
func (s *Service) DatasetTemplates() []DatasetTemplateDescriptor {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]DatasetTemplateDescriptor, 0, len(s.datasets))
	for _, template := range s.datasets {
		out = append(out, template.Descriptor())
	}
	sort.Sort(DatasetTemplateCollection(out))
	return out
}

// ResolveDatasetTemplate looks up a bound template by slug.
func (s *Service) ResolveDatasetTemplate(slug string) (DatasetTemplate, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	template, ok := s.datasets[slug]
	return template, ok
}

// RunDataset resolves slug and runs the template with the raw parameters.
func (s *Service) RunDataset(ctx context.Context, slug string, params map[string]any, scope DatasetScope, format DatasetFormat) (DatasetRunResult, []DatasetParameterError, error) {
	template, ok := s.ResolveDatasetTemplate(slug)
	if !ok {
		return DatasetRunResult{}, nil, ErrNotFound{Kind: "dataset template", ID: slug}
	}
	if format == "" {
		format = FormatJSON
	}
	if !template.SupportsFormat(format) {
		return DatasetRunResult{}, nil, fmt.Errorf("%w: %s does not provide %s", ErrUnsupportedFormat, slug, format)
	}
	return template.Run(ctx, params, scope, format)
}

// AppendPlantation records a plantation production entry.
func (s *Service) AppendPlantation(ctx context.Context, plantation Plantation) (Plantation, Result, error) {
	var created Plantation
	res, err := s.run(ctx, "ledger.append_plantation", func(tx Transaction) error {
		var err error
		created, err = tx.AppendPlantation(plantation)
		return err
	})
	if err == nil {
		s.logger.Info("ledger entry appended", zap.String("entity", string(EntityPlantation)), zap.String("id", created.ID))
	}
	return created, res, err
}

// AppendInventoryItem records a stock entry.
func (s *Service) AppendInventoryItem(ctx context.Context, item InventoryItem) (InventoryItem, Result, error) {
	var created InventoryItem
	res, err := s.run(ctx, "ledger.append_inventory", func(tx Transaction) error {
		var err error
		created, err = tx.AppendInventoryItem(item)
		return err
	})
	if err == nil {
		s.logger.Info("ledger entry appended", zap.String("entity", string(EntityInventoryItem)), zap.String("id", created.ID))
	}
	return created, res, err
}

// AppendIncident records a reported incident.
func (s *Service) AppendIncident(ctx context.Context, incident Incident) (Incident, Result, error) {
	var created Incident
	res, err := s.run(ctx, "ledger.append_incident", func(tx Transaction) error {
		var err error
		created, err = tx.AppendIncident(incident)
		return err
	})
	if err == nil {
		s.logger.Info("ledger entry appended", zap.String("entity", string(EntityIncident)), zap.String("id", created.ID))
	}
	return created, res, err
}

// ListPlantations returns plantation entries in insertion order.
func (s *Service) ListPlantations() []Plantation { return s.store.ListPlantations() }

// ListInventory returns inventory entries in insertion order.
func (s *Service) ListInventory() []InventoryItem { return s.store.ListInventory() }

// ListIncidents returns incident entries in insertion order.
func (s *Service) ListIncidents() []Incident { return s.store.ListIncidents() }

func (s *Service) run(ctx context.Context, op string, fn func(Transaction) error) (Result, error) {
	start := time.Now()
	res, err := s.store.RunInTransaction(ctx, fn)
	s.metrics.Observe(ctx, op, err == nil, time.Since(start))
	var violation RuleViolationError
	switch {
	case errors.As(err, &violation):
		s.logger.Warn("ledger append blocked", zap.String("operation", op), zap.Any("violations", violation.Result.Blocking()))
	case err != nil:
		s.logger.Error("ledger append failed", zap.String("operation", op), zap.Error(err))
	default:
		for _, v := range res.Violations {
			s.logger.Warn("ledger rule warning", zap.String("operation", op), zap.String("rule", v.Rule), zap.String("message", v.Message))
		}
	}
	return res, err
}
