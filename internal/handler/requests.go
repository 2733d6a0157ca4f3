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
	"github.com/acodylabs/platform/internal/store"
	"github.com/acodylabs/platform/pkg/logger"
)

// RequestHandler handles project-request endpoints.
type RequestHandler struct {
	requests *service.Requests
	logger   *logger.Logger
}

// NewRequestHandler creates a new project-request handler.
func NewRequestHandler(requests *service.Requests, log *logger.Logger) *RequestHandler {
	return &RequestHandler{
		requests: requests,
		logger:   log,
	}
}

// Submit handles POST /api/v1/requests
func (h *RequestHandler) Submit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var in model.SubmitRequestInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	created, err := h.requests.Submit(ctx, userID, &in)
	if err != nil {
		if errors.Is(err, service.ErrInvalidRequest) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("failed to submit project request", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to submit request")
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

// List handles GET /api/v1/requests. Clients see their own
// submissions; staff see everything with ?all=1.
func (h *RequestHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	role := middleware.GetRole(ctx)

	if role == model.RoleAdmin && r.URL.Query().Get("all") == "1" {
		requests, err := h.requests.ListAll(ctx)
		if err != nil {
			h.logger.Error("failed to list project requests", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to list requests")
			return
		}
		writeJSON(w, http.StatusOK, &model.ListRequestsResponse{
			Requests: requests,
			Total:    len(requests),
		})
		return
	}

	requests, err := h.requests.ListOwn(ctx, userID)
	if err != nil {
		h.logger.Error("failed to list project requests", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list requests")
		return
	}

	out := make([]model.ProjectRequestWithUser, 0, len(requests))
	for _, req := range requests {
		out = append(out, model.ProjectRequestWithUser{ProjectRequest: req})
	}
	writeJSON(w, http.StatusOK, &model.ListRequestsResponse{
		Requests: out,
		Total:    len(out),
	})
}

// Get handles GET /api/v1/requests/{id}
func (h *RequestHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	if err := middleware.ValidateRequestID(id); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	req, err := h.requests.Get(ctx, id, middleware.GetUserID(ctx), middleware.GetRole(ctx))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "request not found")
			return
		}
		h.logger.Error("failed to get project request", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to get request")
		return
	}

	writeJSON(w, http.StatusOK, req)
}

// UpdateStatus handles PUT /api/v1/requests/{id}/status (staff only).
func (h *RequestHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	if err := middleware.ValidateRequestID(id); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var body struct {
		Status model.RequestStatus `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.requests.SetStatus(ctx, id, body.Status); err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidRequest):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "request not found")
		default:
			h.logger.Error("failed to update request status", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to update status")
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
