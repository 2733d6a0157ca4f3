package handler

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/acodylabs/platform/internal/middleware"
	"github.com/acodylabs/platform/internal/model"
	"github.com/acodylabs/platform/internal/service"
	"github.com/acodylabs/platform/pkg/logger"
)

// ThreadHandler handles thread listing and resolution endpoints.
type ThreadHandler struct {
	directory *service.Directory
	stream    *service.Stream
	logger    *logger.Logger
}

// NewThreadHandler creates a new thread handler.
func NewThreadHandler(dir *service.Directory, stream *service.Stream, log *logger.Logger) *ThreadHandler {
	return &ThreadHandler{
		directory: dir,
		stream:    stream,
		logger:    log,
	}
}

// List handles GET /api/v1/chat/threads
func (h *ThreadHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	threads, err := h.stream.Threads(ctx, userID)
	if err != nil {
		h.logger.Error("failed to list threads", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list threads")
		return
	}

	writeJSON(w, http.StatusOK, &model.ListThreadsResponse{
		Threads: threads,
		Total:   len(threads),
	})
}

// Resolve handles POST /api/v1/chat/threads/resolve. Clients get their
// one-to-one support thread; staff get the shared group thread. Either
// is created lazily on first resolution.
func (h *ThreadHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	role := middleware.GetRole(ctx)

	var thread *model.Thread
	var err error
	if role == model.RoleAdmin {
		thread, err = h.directory.ResolveAdminGroupThread(ctx)
	} else {
		thread, err = h.directory.ResolveClientThread(ctx, userID)
	}

	if err != nil {
		if errors.Is(err, service.ErrNoStaffAvailable) {
			writeError(w, http.StatusConflict, "no staff accounts available")
			return
		}
		h.logger.Error("failed to resolve thread",
			zap.String("user_id", userID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to resolve thread")
		return
	}

	writeJSON(w, http.StatusOK, thread)
}
