package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/klinika-ai/klinika-engine/pkg/services"
)

// AnswerStream handles POST /api/query/answer/stream requests. Pipeline
// progress is pushed as server-sent events; the final event carries the
// complete answer or the error.
func (h *QueryHandler) AnswerStream(w http.ResponseWriter, r *http.Request) {
	var req AnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Question == "" {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_request", "question is required")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		_ = ErrorResponse(w, http.StatusInternalServerError, "streaming_unsupported", "response writer does not support streaming")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	send := func(event string, payload any) {
		data, err := json.Marshal(payload)
		if err != nil {
			h.logger.Error("Failed to encode stream event", zap.Error(err))
			return
		}
		fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
		flusher.Flush()
	}

	answer, err := h.answers.Answer(r.Context(), req.Question, req.Tables, func(ev services.Event) {
		send("progress", ev)
	})
	if err != nil {
		send("error", map[string]string{"message": err.Error()})
		return
	}
	send("answer", answer)
}
