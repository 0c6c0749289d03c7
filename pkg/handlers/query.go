package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/klinika-ai/klinika-engine/pkg/apperrors"
	"github.com/klinika-ai/klinika-engine/pkg/services"
)

// QueryHandler handles query planning, validation, and answering.
type QueryHandler struct {
	answers *services.AnswerService
	logger  *zap.Logger
}

// NewQueryHandler creates a new QueryHandler.
func NewQueryHandler(answers *services.AnswerService, logger *zap.Logger) *QueryHandler {
	return &QueryHandler{answers: answers, logger: logger}
}

// RegisterRoutes registers the query handler's routes on the given mux.
func (h *QueryHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/query/plan", h.Plan)
	mux.HandleFunc("POST /api/query/validate", h.Validate)
	mux.HandleFunc("POST /api/query/answer", h.Answer)
	mux.HandleFunc("POST /api/query/answer/stream", h.AnswerStream)
}

// PlanRequest asks for a query plan without generation or execution.
type PlanRequest struct {
	Question string   `json:"question"`
	Tables   []string `json:"tables,omitempty"`
}

// Plan handles POST /api/query/plan requests.
func (h *QueryHandler) Plan(w http.ResponseWriter, r *http.Request) {
	var req PlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Question == "" {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_request", "question is required")
		return
	}

	plan, err := h.answers.Planner().PlanQuery(req.Question, req.Tables)
	if err != nil {
		h.writePlanError(w, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, plan); err != nil {
		h.logger.Error("Failed to encode plan response", zap.Error(err))
	}
}

// ValidateRequest asks for a verdict on a SQL candidate.
type ValidateRequest struct {
	SQL string `json:"sql"`
}

// Validate handles POST /api/query/validate requests.
func (h *QueryHandler) Validate(w http.ResponseWriter, r *http.Request) {
	var req ValidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.SQL == "" {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_request", "sql is required")
		return
	}

	snap, err := h.answers.Planner().Snapshot()
	if err != nil {
		_ = ErrorResponse(w, http.StatusServiceUnavailable, "schema_not_loaded", err.Error())
		return
	}

	verdict := h.answers.Validator().Validate(req.SQL, snap.Model)
	if err := WriteJSON(w, http.StatusOK, verdict); err != nil {
		h.logger.Error("Failed to encode verdict response", zap.Error(err))
	}
}

// AnswerRequest asks for a full pipeline run.
type AnswerRequest struct {
	Question string   `json:"question"`
	Tables   []string `json:"tables,omitempty"`
}

// Answer handles POST /api/query/answer requests.
func (h *QueryHandler) Answer(w http.ResponseWriter, r *http.Request) {
	var req AnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Question == "" {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_request", "question is required")
		return
	}

	answer, err := h.answers.Answer(r.Context(), req.Question, req.Tables, nil)
	if err != nil {
		h.writePlanError(w, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, answer); err != nil {
		h.logger.Error("Failed to encode answer response", zap.Error(err))
	}
}

// writePlanError maps pipeline errors to HTTP status codes.
func (h *QueryHandler) writePlanError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, apperrors.ErrSchemaNotLoaded):
		_ = ErrorResponse(w, http.StatusServiceUnavailable, "schema_not_loaded", err.Error())
	case errors.Is(err, apperrors.ErrNoTablesResolved):
		_ = ErrorResponse(w, http.StatusUnprocessableEntity, "no_tables_resolved", err.Error())
	default:
		h.logger.Error("query request failed", zap.Error(err))
		_ = ErrorResponse(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
