// Package datasets exposes dataset templates over HTTP and runs asynchronous
// exports that render results into stored artifacts.
package datasets

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	"go.uber.org/zap"

	"lookupdesk/internal/core"
	"lookupdesk/pkg/datasetapi"
)

// Prefix is the route prefix served by Handler.
const Prefix = "/api/v1/datasets"

// Catalog exposes dataset templates for HTTP handlers.
type Catalog interface {
	DatasetTemplates() []core.DatasetTemplateDescriptor
	ResolveDatasetTemplate(slug string) (core.DatasetTemplate, bool)
}

// Handler provides HTTP access to dataset templates and exports.
type Handler struct {
	Catalog Catalog
	Exports ExportScheduler
	Logger  *zap.Logger
}

// NewHandler constructs a dataset HTTP handler.
func NewHandler(c Catalog) *Handler {
	return &Handler{Catalog: c}
}

func (h *Handler) logger() *zap.Logger {
	if h.Logger == nil {
		return zap.NewNop()
	}
	return h.Logger
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.Catalog == nil {
		writeError(w, http.StatusInternalServerError, "dataset catalog not configured")
		return
	}

	path := strings.TrimSuffix(r.URL.Path, "/")
	switch {
	case r.Method == http.MethodGet && path == Prefix+"/templates":
		h.handleListTemplates(w, r)
	case strings.HasPrefix(path, Prefix+"/exports"):
		if h.Exports == nil {
			http.NotFound(w, r)
			return
		}
		h.handleExports(w, r, path)
	case strings.HasPrefix(path, Prefix+"/templates/"):
		h.handleTemplate(w, r, strings.TrimPrefix(path, Prefix+"/templates/"))
	default:
		http.NotFound(w, r)
	}
}

func (h *Handler) handleListTemplates(w http.ResponseWriter, _ *http.Request) {
	templates := h.Catalog.DatasetTemplates()
	sort.Sort(core.DatasetTemplateCollection(templates))
	writeJSON(w, http.StatusOK, map[string]any{"templates": templates})
}

func (h *Handler) handleTemplate(w http.ResponseWriter, r *http.Request, remainder string) {
	segments := strings.Split(remainder, "/")
	if len(segments) < 3 {
		writeError(w, http.StatusNotFound, "dataset template not found")
		return
	}
	slug := datasetapi.SlugFor(segments[0], segments[1], segments[2])
	template, ok := h.Catalog.ResolveDatasetTemplate(slug)
	if !ok {
		writeError(w, http.StatusNotFound, "dataset template not found")
		return
	}

	if len(segments) == 3 {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"template": template.Descriptor()})
		return
	}
	if len(segments) != 4 {
		writeError(w, http.StatusNotFound, "dataset endpoint not found")
		return
	}

	switch segments[3] {
	case "validate":
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		h.handleValidate(w, r, template)
	case "run":
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		h.handleRun(w, r, template)
	default:
		writeError(w, http.StatusNotFound, "dataset endpoint not found")
	}
}

func (h *Handler) handleExports(w http.ResponseWriter, r *http.Request, path string) {
	if path == Prefix+"/exports" {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		h.handleExportCreate(w, r)
		return
	}
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	segments := strings.Split(strings.TrimPrefix(path, Prefix+"/exports/"), "/")
	switch {
	case len(segments) == 1 && segments[0] != "":
		record, ok := h.Exports.GetExport(segments[0])
		if !ok {
			writeError(w, http.StatusNotFound, "export not found")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"export": record})
	case len(segments) == 3 && segments[1] == "artifacts":
		h.handleArtifact(w, r, segments[0], segments[2])
	default:
		http.NotFound(w, r)
	}
}

func (h *Handler) handleArtifact(w http.ResponseWriter, r *http.Request, exportID, formatName string) {
	source, ok := h.Exports.(ArtifactSource)
	if !ok {
		http.NotFound(w, r)
		return
	}
	format, ok := datasetapi.ParseFormat(formatName)
	if !ok {
		writeError(w, http.StatusBadRequest, "unsupported export format")
		return
	}
	artifact, payload, err := source.OpenArtifact(r.Context(), exportID, format)
	switch {
	case errors.Is(err, ErrExportNotFound):
		writeError(w, http.StatusNotFound, "export not found")
		return
	case errors.Is(err, ErrArtifactNotFound):
		writeError(w, http.StatusNotFound, "artifact not found")
		return
	case err != nil:
		h.logger().Error("load export artifact", zap.String("export_id", exportID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "artifact unavailable")
		return
	}
	w.Header().Set("Content-Type", artifact.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", exportID+"."+string(format)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(payload)
}

type validationRequest struct {
	Parameters map[string]any `json:"parameters"`
}

type validationResponse struct {
	Template   core.DatasetTemplateDescriptor `json:"template"`
	Valid      bool                           `json:"valid"`
	Parameters map[string]any                 `json:"parameters"`
	Errors     []core.DatasetParameterError   `json:"errors,omitempty"`
}

func (h *Handler) handleValidate(w http.ResponseWriter, r *http.Request, template core.DatasetTemplate) {
	var req validationRequest
	if !decodeBody(w, r, &req, "invalid validation request payload") {
		return
	}
	cleaned, errs := template.ValidateParameters(req.Parameters)
	writeJSON(w, http.StatusOK, validationResponse{
		Template:   template.Descriptor(),
		Valid:      len(errs) == 0,
		Parameters: cleaned,
		Errors:     errs,
	})
}

type scopePayload struct {
	Requestor string   `json:"requestor"`
	Roles     []string `json:"roles"`
}

func (s scopePayload) scope() core.DatasetScope {
	return core.DatasetScope{Requestor: s.Requestor, Roles: s.Roles}
}

type runRequest struct {
	Parameters map[string]any `json:"parameters"`
	Scope      scopePayload   `json:"scope"`
}

type runResponse struct {
	Template   core.DatasetTemplateDescriptor `json:"template"`
	Scope      core.DatasetScope              `json:"scope"`
	Parameters map[string]any                 `json:"parameters"`
	Result     core.DatasetRunResult          `json:"result"`
}

type exportRequest struct {
	Template struct {
		Slug    string `json:"slug"`
		Plugin  string `json:"plugin"`
		Key     string `json:"key"`
		Version string `json:"version"`
	} `json:"template"`
	Parameters  map[string]any `json:"parameters"`
	Formats     []string       `json:"formats"`
	Scope       scopePayload   `json:"scope"`
	RequestedBy string         `json:"requested_by"`
	Reason      string         `json:"reason"`
}

func (h *Handler) handleRun(w http.ResponseWriter, r *http.Request, template core.DatasetTemplate) {
	var req runRequest
	if !decodeBody(w, r, &req, "invalid run request payload") {
		return
	}

	cleaned, errs := template.ValidateParameters(req.Parameters)
	if len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, validationResponse{
			Template:   template.Descriptor(),
			Parameters: cleaned,
			Errors:     errs,
		})
		return
	}

	format := negotiateFormat(r, template.OutputFormats)
	if format == "" {
		writeError(w, http.StatusNotAcceptable, "requested format not supported")
		return
	}

	scope := req.Scope.scope()
	// Raw parameters go to Run so widened lenient values are reported.
	result, paramErrs, err := template.Run(r.Context(), req.Parameters, scope, format)
	if err != nil {
		h.logger().Error("dataset run", zap.String("slug", template.Slug()), zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if len(paramErrs) > 0 {
		writeJSON(w, http.StatusBadRequest, validationResponse{
			Template:   template.Descriptor(),
			Parameters: cleaned,
			Errors:     paramErrs,
		})
		return
	}

	descriptor := template.Descriptor()
	switch format {
	case core.FormatCSV:
		filename := fmt.Sprintf("%s-%s.csv", descriptor.Key, result.GeneratedAt.UTC().Format("20060102T150405Z"))
		w.Header().Set("Content-Type", ContentType(core.FormatCSV))
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
		if err := writeCSV(w, columnsFor(descriptor, result), result.Rows); err != nil {
			h.logger().Warn("stream csv", zap.String("slug", descriptor.Slug), zap.Error(err))
		}
	case core.FormatHTML:
		w.Header().Set("Content-Type", ContentType(core.FormatHTML))
		if err := writeHTML(w, descriptor, result); err != nil {
			h.logger().Warn("render html", zap.String("slug", descriptor.Slug), zap.Error(err))
		}
	default:
		writeJSON(w, http.StatusOK, runResponse{
			Template:   descriptor,
			Scope:      scope,
			Parameters: cleaned,
			Result:     result,
		})
	}
}

func (h *Handler) handleExportCreate(w http.ResponseWriter, r *http.Request) {
	var req exportRequest
	if !decodeBody(w, r, &req, "invalid export request payload") {
		return
	}

	slug := strings.TrimSpace(req.Template.Slug)
	if slug == "" {
		if req.Template.Plugin == "" || req.Template.Key == "" || req.Template.Version == "" {
			writeError(w, http.StatusBadRequest, "template slug or plugin/key/version required")
			return
		}
		slug = datasetapi.SlugFor(req.Template.Plugin, req.Template.Key, req.Template.Version)
	}

	formats := make([]core.DatasetFormat, 0, len(req.Formats))
	for _, name := range req.Formats {
		format, ok := datasetapi.ParseFormat(name)
		if !ok {
			writeError(w, http.StatusBadRequest, "unsupported export format")
			return
		}
		formats = append(formats, format)
	}

	record, err := h.Exports.EnqueueExport(r.Context(), ExportInput{
		TemplateSlug: slug,
		Parameters:   req.Parameters,
		Formats:      formats,
		Scope:        req.Scope.scope(),
		RequestedBy:  firstNonEmpty(req.RequestedBy, req.Scope.Requestor),
		Reason:       req.Reason,
	})
	switch {
	case errors.Is(err, ErrQueueFull):
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	case err != nil:
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{"export": record})
}

// decodeBody decodes an optional JSON body. An empty body is accepted.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any, message string) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, message)
		return false
	}
	return true
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// negotiateFormat picks the format from ?format=, then the Accept header,
// defaulting to JSON. It returns "" when the template does not offer it.
func negotiateFormat(r *http.Request, supported []core.DatasetFormat) core.DatasetFormat {
	wanted := core.FormatJSON
	if name := r.URL.Query().Get("format"); name != "" {
		format, ok := datasetapi.ParseFormat(name)
		if !ok {
			return ""
		}
		wanted = format
	} else {
		accept := r.Header.Get("Accept")
		switch {
		case strings.Contains(accept, "text/csv"):
			wanted = core.FormatCSV
		case strings.Contains(accept, "text/html"):
			wanted = core.FormatHTML
		}
	}
	for _, candidate := range supported {
		if candidate == wanted {
			return wanted
		}
	}
	return ""
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": message})
}
