package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/acodylabs/platform/internal/llm"
	"github.com/acodylabs/platform/internal/service"
	"github.com/acodylabs/platform/pkg/logger"
	"github.com/acodylabs/platform/pkg/metrics"
)

// ConverseRequest is the body for the streaming assistant endpoint.
type ConverseRequest struct {
	History []llm.ChatMessage `json:"history"`
	Message string            `json:"message"`
	Mode    string            `json:"mode"`
}

// BriefRequest is the body for the non-streaming briefer endpoint.
type BriefRequest struct {
	Prompt string `json:"prompt"`
}

// fragmentEvent is one streamed text delta.
type fragmentEvent struct {
	Text  string `json:"text"`
	Index int    `json:"index"`
}

// AssistantHandler handles the AI proxy endpoints.
type AssistantHandler struct {
	assistant *service.Assistant
	logger    *logger.Logger
}

// NewAssistantHandler creates a new assistant handler.
func NewAssistantHandler(assistant *service.Assistant, log *logger.Logger) *AssistantHandler {
	return &AssistantHandler{
		assistant: assistant,
		logger:    log,
	}
}

// Converse handles POST /api/v1/assistant/converse. The reply streams
// over SSE as ordered fragment events; on upstream failure an error
// event follows whatever fragments were already sent, and the client
// replaces the partial text.
func (h *AssistantHandler) Converse(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req ConverseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}

	mode := service.Mode(req.Mode)
	if mode != service.ModeWriter {
		mode = service.ModeChat
	}

	flusher, ok := sseHeaders(w)
	if !ok {
		return
	}

	metrics.SSEConnectionsActive.Inc()
	defer metrics.SSEConnectionsActive.Dec()

	_, err := h.assistant.Converse(ctx, req.History, req.Message, mode, func(fragment string, index int) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		return sendSSEEvent(w, flusher, "fragment", &fragmentEvent{
			Text:  fragment,
			Index: index,
		})
	})
	if err != nil {
		sendSSEEvent(w, flusher, "error", map[string]string{
			"error": "generation failed",
		})
		return
	}

	sendSSEEvent(w, flusher, "done", map[string]bool{"success": true})
}

// Brief handles POST /api/v1/assistant/brief
func (h *AssistantHandler) Brief(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req BriefRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Prompt == "" {
		writeError(w, http.StatusBadRequest, "prompt is required")
		return
	}

	brief, err := h.assistant.GenerateBrief(ctx, req.Prompt)
	if err != nil {
		if errors.Is(err, service.ErrGenerationFailed) {
			writeError(w, http.StatusBadGateway, "generation failed")
			return
		}
		h.logger.Error("brief generation failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to generate brief")
		return
	}

	writeJSON(w, http.StatusOK, brief)
}

// Estimate handles POST /api/v1/assistant/estimate (staff only).
func (h *AssistantHandler) Estimate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req service.EstimateInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	estimate, err := h.assistant.Estimate(ctx, req)
	if err != nil {
		if errors.Is(err, service.ErrGenerationFailed) {
			writeError(w, http.StatusBadGateway, "generation failed")
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, estimate)
}
