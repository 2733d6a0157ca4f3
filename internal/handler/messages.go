package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/acodylabs/platform/internal/middleware"
	"github.com/acodylabs/platform/internal/model"
	"github.com/acodylabs/platform/internal/service"
	"github.com/acodylabs/platform/pkg/logger"
)

// MessageHandler handles message endpoints.
type MessageHandler struct {
	stream *service.Stream
	logger *logger.Logger
}

// NewMessageHandler creates a new message handler.
func NewMessageHandler(stream *service.Stream, log *logger.Logger) *MessageHandler {
	return &MessageHandler{
		stream: stream,
		logger: log,
	}
}

// List handles GET /api/v1/chat/threads/{id}/messages
func (h *MessageHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	threadID := chi.URLParam(r, "id")

	if err := middleware.ValidateThreadID(threadID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	thread, err := h.stream.Thread(ctx, threadID)
	if err != nil {
		writeError(w, http.StatusNotFound, "thread not found")
		return
	}
	if !thread.HasParticipant(userID) {
		writeError(w, http.StatusForbidden, "not a thread participant")
		return
	}

	messages, err := h.stream.Messages(ctx, threadID)
	if err != nil {
		h.logger.Error("failed to list messages",
			zap.String("thread_id", threadID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list messages")
		return
	}

	writeJSON(w, http.StatusOK, &model.ListMessagesResponse{
		Messages: messages,
		Total:    len(messages),
	})
}

// Send handles POST /api/v1/chat/threads/{id}/messages
func (h *MessageHandler) Send(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	threadID := chi.URLParam(r, "id")

	if err := middleware.ValidateThreadID(threadID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req model.SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := middleware.ValidateMessageText(req.Text); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	msg, err := h.stream.Append(ctx, threadID, userID, req.Text)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmptyMessage):
			writeError(w, http.StatusBadRequest, "message text is empty")
		case errors.Is(err, service.ErrThreadNotFound):
			writeError(w, http.StatusNotFound, "thread not found")
		case errors.Is(err, service.ErrNotParticipant):
			writeError(w, http.StatusForbidden, "not a thread participant")
		default:
			h.logger.Error("failed to send message",
				zap.String("thread_id", threadID), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to send message")
		}
		return
	}

	writeJSON(w, http.StatusCreated, msg)
}
