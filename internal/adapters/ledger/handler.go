// Package ledger serves the append-only plantation, inventory and incident
// logs over HTTP.
package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"lookupdesk/internal/core"
)

// Prefix is the route prefix served by Handler.
const Prefix = "/api/v1/ledger"

// MissingFieldsMessage is returned when an entry is blocked for blank
// mandatory fields.
const MissingFieldsMessage = "Please fill in all fields."

// Ledger is the subset of core.Service the handler needs.
type Ledger interface {
	AppendPlantation(ctx context.Context, plantation core.Plantation) (core.Plantation, core.Result, error)
	AppendInventoryItem(ctx context.Context, item core.InventoryItem) (core.InventoryItem, core.Result, error)
	AppendIncident(ctx context.Context, incident core.Incident) (core.Incident, core.Result, error)
	ListPlantations() []core.Plantation
	ListInventory() []core.InventoryItem
	ListIncidents() []core.Incident
}

var _ Ledger = (*core.Service)(nil)

// Handler routes /api/v1/ledger/{plantations,inventory,incidents}.
type Handler struct {
	Ledger Ledger
	Logger *zap.Logger
}

// NewHandler constructs a ledger HTTP handler.
func NewHandler(l Ledger) *Handler {
	return &Handler{Ledger: l}
}

func (h *Handler) logger() *zap.Logger {
	if h.Logger == nil {
		return zap.NewNop()
	}
	return h.Logger
}

type appendResponse struct {
	Entry      any              `json:"entry"`
	Violations []core.Violation `json:"violations,omitempty"`
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.Ledger == nil {
		writeError(w, http.StatusInternalServerError, "ledger not configured", nil)
		return
	}
	switch strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, Prefix+"/"), "/") {
	case "plantations":
		serveLog(h, w, r, h.Ledger.ListPlantations, func(ctx context.Context, p core.Plantation) (core.Plantation, core.Result, error) {
			p.Base = core.Base{}
			return h.Ledger.AppendPlantation(ctx, p)
		})
	case "inventory":
		serveLog(h, w, r, h.Ledger.ListInventory, func(ctx context.Context, item core.InventoryItem) (core.InventoryItem, core.Result, error) {
			item.Base = core.Base{}
			return h.Ledger.AppendInventoryItem(ctx, item)
		})
	case "incidents":
		serveLog(h, w, r, h.Ledger.ListIncidents, func(ctx context.Context, incident core.Incident) (core.Incident, core.Result, error) {
			incident.Base = core.Base{}
			return h.Ledger.AppendIncident(ctx, incident)
		})
	default:
		http.NotFound(w, r)
	}
}

func serveLog[T any](h *Handler, w http.ResponseWriter, r *http.Request, list func() []T, add func(context.Context, T) (T, core.Result, error)) {
	switch r.Method {
	case http.MethodGet:
		entries := list()
		if entries == nil {
			entries = []T{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
	case http.MethodPost:
		var entry T
		if err := json.NewDecoder(r.Body).Decode(&entry); err != nil {
			writeError(w, http.StatusBadRequest, "invalid ledger entry payload", nil)
			return
		}
		created, res, err := add(r.Context(), entry)
		var blocked core.RuleViolationError
		switch {
		case errors.As(err, &blocked):
			writeError(w, http.StatusBadRequest, BlockedMessage(blocked), blocked.Result.Violations)
			return
		case err != nil:
			h.logger().Error("ledger append", zap.String("path", r.URL.Path), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "ledger append failed", nil)
			return
		}
		writeJSON(w, http.StatusCreated, appendResponse{Entry: created, Violations: res.Violations})
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", nil)
	}
}

// BlockedMessage is the user-facing text for a blocked append.
func BlockedMessage(err core.RuleViolationError) string {
	for _, v := range err.Result.Blocking() {
		if v.Rule == "required_fields" {
			return MissingFieldsMessage
		}
	}
	return err.Error()
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string, violations []core.Violation) {
	body := map[string]any{"error": message}
	if len(violations) > 0 {
		body["violations"] = violations
	}
	writeJSON(w, status, body)
}
