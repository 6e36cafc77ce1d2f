package datasets

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"lookupdesk/internal/core"
)

// ExportStatus describes the lifecycle stage of an export request.
type ExportStatus string

const (
	ExportStatusQueued    ExportStatus = "queued"
	ExportStatusRunning   ExportStatus = "running"
	ExportStatusSucceeded ExportStatus = "succeeded"
	ExportStatusFailed    ExportStatus = "failed"
)

// DefaultQueueSize bounds the number of pending exports.
const DefaultQueueSize = 32

var (
	// ErrQueueFull is returned when the worker cannot accept another export.
	ErrQueueFull = errors.New("export queue full")
	// ErrExportNotFound is returned for unknown export IDs.
	ErrExportNotFound = errors.New("export not found")
	// ErrArtifactNotFound is returned when an export has no artifact in the requested format.
	ErrArtifactNotFound = errors.New("export artifact not found")
)

// ExportArtifact captures a stored dataset artifact.
type ExportArtifact struct {
	ID          string             `json:"id"`
	Key         string             `json:"key"`
	Format      core.DatasetFormat `json:"format"`
	ContentType string             `json:"content_type"`
	SizeBytes   int64              `json:"size_bytes"`
	URL         string             `json:"url,omitempty"`
	Metadata    map[string]any     `json:"metadata,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
}

// ExportRecord tracks an export request and resulting artifacts.
type ExportRecord struct {
	ID          string                         `json:"id"`
	Template    core.DatasetTemplateDescriptor `json:"template"`
	Scope       core.DatasetScope              `json:"scope"`
	Parameters  map[string]any                 `json:"parameters"`
	Formats     []core.DatasetFormat           `json:"formats"`
	Status      ExportStatus                   `json:"status"`
	Error       string                         `json:"error,omitempty"`
	Artifacts   []ExportArtifact               `json:"artifacts,omitempty"`
	RequestedBy string                         `json:"requested_by"`
	Reason      string                         `json:"reason,omitempty"`
	CreatedAt   time.Time                      `json:"created_at"`
	UpdatedAt   time.Time                      `json:"updated_at"`
	CompletedAt *time.Time                     `json:"completed_at,omitempty"`
}

// ExportInput represents an enqueue request for the worker.
type ExportInput struct {
	TemplateSlug string
	Parameters   map[string]any
	Formats      []core.DatasetFormat
	Scope        core.DatasetScope
	RequestedBy  string
	Reason       string
}

// ExportScheduler queues dataset export requests and exposes status.
type ExportScheduler interface {
	EnqueueExport(ctx context.Context, input ExportInput) (ExportRecord, error)
	GetExport(id string) (ExportRecord, bool)
}

// ArtifactSource serves the payload of a finished export.
type ArtifactSource interface {
	OpenArtifact(ctx context.Context, exportID string, format core.DatasetFormat) (ExportArtifact, []byte, error)
}

// ObjectStore persists export artifacts.
type ObjectStore interface {
	// Put stores a new immutable object and fails if the key exists.
	Put(ctx context.Context, key string, payload []byte, contentType string, metadata map[string]any) (ExportArtifact, error)
	// Get returns the artifact metadata and full payload bytes.
	Get(ctx context.Context, key string) (ExportArtifact, []byte, error)
	// Delete removes the object; returns true if it existed.
	Delete(ctx context.Context, key string) (bool, error)
	// List returns artifacts whose keys start with prefix. Empty prefix lists all.
	List(ctx context.Context, prefix string) ([]ExportArtifact, error)
}

// AuditLogger records export audit entries.
type AuditLogger interface {
	Record(ctx context.Context, entry AuditEntry)
}

// AuditEntry captures audit trail metadata for exports.
type AuditEntry struct {
	ID         string            `json:"id"`
	ExportID   string            `json:"export_id"`
	Action     string            `json:"action"`
	Actor      string            `json:"actor"`
	Template   string            `json:"template"`
	Status     ExportStatus      `json:"status"`
	Scope      core.DatasetScope `json:"scope"`
	Reason     string            `json:"reason,omitempty"`
	Metadata   map[string]any    `json:"metadata,omitempty"`
	OccurredAt time.Time         `json:"occurred_at"`
}

// ZapAuditLogger writes audit entries to a structured logger.
type ZapAuditLogger struct{ Logger *zap.Logger }

// Record logs the entry at info level.
func (l ZapAuditLogger) Record(_ context.Context, entry AuditEntry) {
	if l.Logger == nil {
		return
	}
	l.Logger.Info("dataset export audit",
		zap.String("export_id", entry.ExportID),
		zap.String("template", entry.Template),
		zap.String("actor", entry.Actor),
		zap.String("status", string(entry.Status)),
		zap.Any("metadata", entry.Metadata))
}

// WorkerOption customises an export worker.
type WorkerOption func(*Worker)

// WithAuditLogger records lifecycle transitions to audit.
func WithAuditLogger(audit AuditLogger) WorkerOption {
	return func(w *Worker) { w.audit = audit }
}

// WithWorkerLogger sets the worker's logger.
func WithWorkerLogger(logger *zap.Logger) WorkerOption {
	return func(w *Worker) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithQueueSize bounds the number of pending exports.
func WithQueueSize(size int) WorkerOption {
	return func(w *Worker) {
		if size > 0 {
			w.queueSize = size
		}
	}
}

// WithWorkerClock overrides the worker's time source.
func WithWorkerClock(now func() time.Time) WorkerOption {
	return func(w *Worker) {
		if now != nil {
			w.now = now
		}
	}
}

// Worker executes dataset exports asynchronously on a single goroutine.
type Worker struct {
	catalog Catalog
	store   ObjectStore
	audit   AuditLogger
	logger  *zap.Logger
	now     func() time.Time

	queueSize int
	queue     chan exportTask
	mu        sync.RWMutex
	jobs      map[string]*ExportRecord

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type exportTask struct {
	id    string
	input ExportInput
}

type renderedArtifact struct {
	Artifact ExportArtifact
	Payload  []byte
}

// NewWorker constructs an export worker. A nil store keeps artifacts only as
// metadata on the record.
func NewWorker(c Catalog, store ObjectStore, opts ...WorkerOption) *Worker {
	w := &Worker{
		catalog:   c,
		store:     store,
		logger:    zap.NewNop(),
		now:       func() time.Time { return time.Now().UTC() },
		queueSize: DefaultQueueSize,
		jobs:      make(map[string]*ExportRecord),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.queue = make(chan exportTask, w.queueSize)
	w.ctx, w.cancel = context.WithCancel(context.Background())
	return w
}

// Start begins processing export requests.
func (w *Worker) Start() {
	w.wg.Add(1)
	go w.loop()
}

// Stop signals the worker to halt and waits for completion.
func (w *Worker) Stop(ctx context.Context) error {
	w.cancel()
	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *Worker) loop() {
	defer w.wg.Done()
	for {
		select {
		case <-w.ctx.Done():
			return
		case task := <-w.queue:
			w.process(task)
		}
	}
}

// EnqueueExport schedules an export job and returns the queued record.
// Formats default to JSON and CSV; duplicates are collapsed.
func (w *Worker) EnqueueExport(ctx context.Context, input ExportInput) (ExportRecord, error) {
	if w.catalog == nil {
		return ExportRecord{}, errors.New("export catalog not configured")
	}
	slug := strings.TrimSpace(input.TemplateSlug)
	if slug == "" {
		return ExportRecord{}, errors.New("template slug required")
	}
	template, ok := w.catalog.ResolveDatasetTemplate(slug)
	if !ok {
		return ExportRecord{}, fmt.Errorf("dataset template %s not found", slug)
	}

	formats := input.Formats
	if len(formats) == 0 {
		formats = []core.DatasetFormat{core.FormatJSON, core.FormatCSV}
	}
	uniq := make([]core.DatasetFormat, 0, len(formats))
	seen := make(map[core.DatasetFormat]struct{}, len(formats))
	for _, format := range formats {
		if _, dup := seen[format]; dup {
			continue
		}
		if !template.SupportsFormat(format) {
			return ExportRecord{}, fmt.Errorf("format %s not supported by template", format)
		}
		uniq = append(uniq, format)
		seen[format] = struct{}{}
	}

	id := uuid.NewString()
	now := w.now()
	record := ExportRecord{
		ID:          id,
		Template:    template.Descriptor(),
		Scope:       input.Scope,
		Parameters:  cloneMap(input.Parameters),
		Formats:     uniq,
		Status:      ExportStatusQueued,
		RequestedBy: input.RequestedBy,
		Reason:      input.Reason,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	input.TemplateSlug = slug

	// The lock is held across the send so the worker cannot move the job past
	// queued before it is registered and audited.
	w.mu.Lock()
	select {
	case w.queue <- exportTask{id: id, input: input}:
	default:
		w.mu.Unlock()
		w.logger.Warn("dataset export rejected", zap.String("template", slug), zap.Error(ErrQueueFull))
		return ExportRecord{}, ErrQueueFull
	}
	w.jobs[id] = &record
	queued := record.copy()
	w.audited(ctx, queued)
	w.mu.Unlock()

	w.logger.Info("dataset export queued", zap.String("export_id", id), zap.String("template", slug),
		zap.Any("formats", uniq))
	return queued, nil
}

// GetExport returns a snapshot of the export record.
func (w *Worker) GetExport(id string) (ExportRecord, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	record, ok := w.jobs[id]
	if !ok {
		return ExportRecord{}, false
	}
	return record.copy(), true
}

// OpenArtifact loads the stored payload for exportID in format.
func (w *Worker) OpenArtifact(ctx context.Context, exportID string, format core.DatasetFormat) (ExportArtifact, []byte, error) {
	record, ok := w.GetExport(exportID)
	if !ok {
		return ExportArtifact{}, nil, fmt.Errorf("%w: %s", ErrExportNotFound, exportID)
	}
	for _, artifact := range record.Artifacts {
		if artifact.Format != format {
			continue
		}
		if w.store == nil {
			return ExportArtifact{}, nil, fmt.Errorf("%w: no object store configured", ErrArtifactNotFound)
		}
		stored, payload, err := w.store.Get(ctx, artifact.Key)
		if err != nil {
			return ExportArtifact{}, nil, fmt.Errorf("load artifact %s: %w", artifact.Key, err)
		}
		stored.Format = artifact.Format
		stored.ContentType = artifact.ContentType
		return stored, payload, nil
	}
	return ExportArtifact{}, nil, fmt.Errorf("%w: %s has no %s artifact", ErrArtifactNotFound, exportID, format)
}

func (w *Worker) process(task exportTask) {
	template, ok := w.catalog.ResolveDatasetTemplate(task.input.TemplateSlug)
	if !ok {
		w.fail(task.id, fmt.Sprintf("template %s missing", task.input.TemplateSlug))
		return
	}
	running := w.update(task.id, func(r *ExportRecord) { r.Status = ExportStatusRunning })
	if running == nil {
		return
	}

	result, paramErrs, err := template.Run(w.ctx, task.input.Parameters, task.input.Scope, core.FormatJSON)
	if err != nil {
		w.fail(task.id, fmt.Sprintf("dataset run failed: %v", err))
		return
	}
	if len(paramErrs) > 0 {
		w.fail(task.id, fmt.Sprintf("parameter validation failed: %v", paramErrs))
		return
	}

	descriptor := template.Descriptor()
	artifacts := make([]ExportArtifact, 0, len(running.Formats))
	for _, format := range running.Formats {
		rendered, err := w.materialize(task.id, format, descriptor, result)
		if err != nil {
			w.fail(task.id, err.Error())
			return
		}
		if w.store == nil {
			artifacts = append(artifacts, rendered.Artifact)
			continue
		}
		stored, err := w.store.Put(w.ctx, rendered.Artifact.Key, rendered.Payload, rendered.Artifact.ContentType, rendered.Artifact.Metadata)
		if err != nil {
			w.fail(task.id, fmt.Sprintf("store artifact failed: %v", err))
			return
		}
		stored.ID = rendered.Artifact.ID
		stored.Format = rendered.Artifact.Format
		stored.ContentType = rendered.Artifact.ContentType
		if stored.SizeBytes == 0 {
			stored.SizeBytes = rendered.Artifact.SizeBytes
		}
		if stored.CreatedAt.IsZero() {
			stored.CreatedAt = rendered.Artifact.CreatedAt
		}
		stored.Metadata = mergeMetadata(stored.Metadata, rendered.Artifact.Metadata)
		artifacts = append(artifacts, stored)
	}
	w.complete(task.id, artifacts)
}

// update mutates the record under lock and returns a snapshot, or nil when
// the export is unknown.
func (w *Worker) update(id string, fn func(*ExportRecord)) *ExportRecord {
	now := w.now()
	w.mu.Lock()
	record, ok := w.jobs[id]
	if !ok {
		w.mu.Unlock()
		return nil
	}
	fn(record)
	record.UpdatedAt = now
	snapshot := record.copy()
	w.mu.Unlock()
	w.audited(w.ctx, snapshot)
	return &snapshot
}

func (w *Worker) complete(id string, artifacts []ExportArtifact) {
	snapshot := w.update(id, func(r *ExportRecord) {
		now := w.now()
		r.Status = ExportStatusSucceeded
		r.Error = ""
		r.Artifacts = artifacts
		r.CompletedAt = &now
	})
	if snapshot != nil {
		w.logger.Info("dataset export succeeded", zap.String("export_id", id), zap.Int("artifacts", len(artifacts)))
	}
}

func (w *Worker) fail(id, reason string) {
	snapshot := w.update(id, func(r *ExportRecord) {
		now := w.now()
		r.Status = ExportStatusFailed
		r.Error = reason
		r.CompletedAt = &now
	})
	if snapshot != nil {
		w.logger.Error("dataset export failed", zap.String("export_id", id), zap.String("reason", reason))
	}
}

func (w *Worker) audited(ctx context.Context, r ExportRecord) {
	if w.audit == nil {
		return
	}
	var metadata map[string]any
	if r.Error != "" {
		metadata = map[string]any{"error": r.Error}
	}
	w.audit.Record(ctx, AuditEntry{
		ID:         uuid.NewString(),
		ExportID:   r.ID,
		Action:     "dataset_export",
		Actor:      r.RequestedBy,
		Template:   r.Template.Slug,
		Status:     r.Status,
		Scope:      r.Scope,
		Reason:     r.Reason,
		Metadata:   metadata,
		OccurredAt: r.UpdatedAt,
	})
}

func (w *Worker) materialize(exportID string, format core.DatasetFormat, descriptor core.DatasetTemplateDescriptor, result core.DatasetRunResult) (renderedArtifact, error) {
	buf := &bytes.Buffer{}
	if err := Render(buf, format, descriptor, result); err != nil {
		return renderedArtifact{}, err
	}
	artifactID := uuid.NewString()
	metadata := map[string]any{"rows": len(result.Rows), "template": descriptor.Slug}
	if outcome, ok := result.Metadata["outcome"]; ok {
		metadata["outcome"] = outcome
	}
	return renderedArtifact{
		Artifact: ExportArtifact{
			ID:          artifactID,
			Key:         fmt.Sprintf("exports/%s/%s.%s", exportID, artifactID, format),
			Format:      format,
			ContentType: ContentType(format),
			SizeBytes:   int64(buf.Len()),
			Metadata:    metadata,
			CreatedAt:   w.now(),
		},
		Payload: buf.Bytes(),
	}, nil
}

func mergeMetadata(base map[string]any, extra map[string]any) map[string]any {
	if len(base) == 0 && len(extra) == 0 {
		return nil
	}
	out := make(map[string]any, len(base)+len(extra))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}

func (r ExportRecord) copy() ExportRecord {
	dup := r
	dup.Parameters = cloneMap(r.Parameters)
	dup.Formats = append([]core.DatasetFormat(nil), r.Formats...)
	if len(r.Artifacts) > 0 {
		dup.Artifacts = make([]ExportArtifact, len(r.Artifacts))
		for i, a := range r.Artifacts {
			a.Metadata = cloneMap(a.Metadata)
			dup.Artifacts[i] = a
		}
	}
	if r.CompletedAt != nil {
		completed := *r.CompletedAt
		dup.CompletedAt = &completed
	}
	return dup
}

func cloneMap(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
