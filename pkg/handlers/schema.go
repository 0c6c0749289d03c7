package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/klinika-ai/klinika-engine/pkg/planner"
)

// SchemaHandler exposes the schema knowledge model over HTTP.
type SchemaHandler struct {
	planner *planner.Planner
	reload  func() error
	logger  *zap.Logger
}

// NewSchemaHandler creates a new SchemaHandler. reload may be nil when the
// deployment has no schema source to re-read.
func NewSchemaHandler(p *planner.Planner, reload func() error, logger *zap.Logger) *SchemaHandler {
	return &SchemaHandler{planner: p, reload: reload, logger: logger}
}

// RegisterRoutes registers the schema handler's routes on the given mux.
func (h *SchemaHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/schema/tables", h.ListTables)
	mux.HandleFunc("GET /api/schema/tables/{table}/related", h.RelatedTables)
	mux.HandleFunc("GET /api/schema/context", h.Context)
	mux.HandleFunc("POST /api/schema/reload", h.Reload)
}

// TableSummary is one table in the list response.
type TableSummary struct {
	Name     string `json:"name"`
	Category string `json:"category,omitempty"`
	Role     string `json:"role,omitempty"`
	RowCount int64  `json:"row_count"`
	Columns  int    `json:"columns"`
	Degree   int    `json:"degree"`
}

// ListTables handles GET /api/schema/tables requests.
func (h *SchemaHandler) ListTables(w http.ResponseWriter, r *http.Request) {
	snap, err := h.planner.Snapshot()
	if err != nil {
		_ = ErrorResponse(w, http.StatusServiceUnavailable, "schema_not_loaded", err.Error())
		return
	}

	tables := snap.Model.Tables()
	summaries := make([]TableSummary, 0, len(tables))
	for _, t := range tables {
		summaries = append(summaries, TableSummary{
			Name:     t.Name,
			Category: t.Category,
			Role:     t.Role,
			RowCount: t.RowCount,
			Columns:  len(t.Columns),
			Degree:   snap.Graph.Degree(t.Name),
		})
	}

	if err := WriteJSON(w, http.StatusOK, map[string]any{
		"database": snap.Model.Database(),
		"tables":   summaries,
	}); err != nil {
		h.logger.Error("Failed to encode tables response", zap.Error(err))
	}
}

// RelatedTables handles GET /api/schema/tables/{table}/related requests.
// The hops query parameter bounds the search; it defaults to 1.
func (h *SchemaHandler) RelatedTables(w http.ResponseWriter, r *http.Request) {
	table := r.PathValue("table")

	hops := 0
	if v := r.URL.Query().Get("hops"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			_ = ErrorResponse(w, http.StatusBadRequest, "invalid_request", "hops must be an integer")
			return
		}
		hops = parsed
	}

	related, err := h.planner.RelatedTables(table, hops)
	if err != nil {
		_ = ErrorResponse(w, http.StatusServiceUnavailable, "schema_not_loaded", err.Error())
		return
	}

	if err := WriteJSON(w, http.StatusOK, map[string]any{
		"table":   table,
		"related": related,
	}); err != nil {
		h.logger.Error("Failed to encode related response", zap.Error(err))
	}
}

// Context handles GET /api/schema/context requests. The tables query
// parameter is a comma-separated table list.
func (h *SchemaHandler) Context(w http.ResponseWriter, r *http.Request) {
	param := r.URL.Query().Get("tables")
	if param == "" {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_request", "tables parameter is required")
		return
	}

	var tables []string
	for _, t := range strings.Split(param, ",") {
		if trimmed := strings.TrimSpace(t); trimmed != "" {
			tables = append(tables, trimmed)
		}
	}

	context, err := h.planner.SchemaContext(tables)
	if err != nil {
		_ = ErrorResponse(w, http.StatusUnprocessableEntity, "no_tables_resolved", err.Error())
		return
	}

	if err := WriteJSON(w, http.StatusOK, map[string]string{"context": context}); err != nil {
		h.logger.Error("Failed to encode context response", zap.Error(err))
	}
}

// Reload handles POST /api/schema/reload requests, re-reading the schema
// source and publishing a fresh snapshot.
func (h *SchemaHandler) Reload(w http.ResponseWriter, r *http.Request) {
	if h.reload == nil {
		_ = ErrorResponse(w, http.StatusNotImplemented, "reload_unavailable", "no schema source configured for reload")
		return
	}
	if err := h.reload(); err != nil {
		_ = ErrorResponse(w, http.StatusInternalServerError, "reload_failed", err.Error())
		return
	}
	if err := WriteJSON(w, http.StatusOK, map[string]string{"status": "reloaded"}); err != nil {
		h.logger.Error("Failed to encode reload response", zap.Error(err))
	}
}
