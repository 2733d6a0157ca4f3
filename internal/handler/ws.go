package handler

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/acodylabs/platform/internal/middleware"
	"github.com/acodylabs/platform/internal/model"
	"github.com/acodylabs/platform/internal/service"
	"github.com/acodylabs/platform/pkg/logger"
	"github.com/acodylabs/platform/pkg/metrics"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		// Origin enforcement happens in the CORS layer; tokens gate
		// the upgrade itself.
		return true
	},
}

// wsCommand is a client-to-server frame on the chat session socket.
type wsCommand struct {
	Type     string `json:"type"` // "select" or "send"
	ThreadID string `json:"thread_id,omitempty"`
	Text     string `json:"text,omitempty"`
}

// wsFrame is a server-to-client frame.
type wsFrame struct {
	Type     string          `json:"type"` // "threads", "messages", "error"
	Threads  []model.Thread  `json:"threads,omitempty"`
	Messages []model.Message `json:"messages,omitempty"`
	Error    string          `json:"error,omitempty"`
}

// WSHandler serves the live chat session socket. Each connection gets
// its own controller instance: a thread-list subscription plus at most
// one live message subscription, both torn down when the socket
// closes.
type WSHandler struct {
	directory *service.Directory
	stream    *service.Stream
	logger    *logger.Logger
}

// NewWSHandler creates a new websocket session handler.
func NewWSHandler(dir *service.Directory, stream *service.Stream, log *logger.Logger) *WSHandler {
	return &WSHandler{
		directory: dir,
		stream:    stream,
		logger:    log,
	}
}

// Session handles GET /api/v1/chat/ws
func (h *WSHandler) Session(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	role := middleware.GetRole(ctx)

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	metrics.WSSessionsActive.Inc()
	defer metrics.WSSessionsActive.Dec()

	// Subscription callbacks and the read loop both write to the
	// socket; gorilla allows only one concurrent writer.
	var writeMu sync.Mutex
	send := func(frame *wsFrame) {
		writeMu.Lock()
		defer writeMu.Unlock()
		if err := conn.WriteJSON(frame); err != nil {
			h.logger.Debug("websocket write failed", zap.Error(err))
		}
	}

	controller := service.NewController(h.directory, h.stream, h.logger)
	defer controller.Close()

	err = controller.Start(ctx, userID, role, service.SessionHandlers{
		OnThreads: func(threads []model.Thread) {
			send(&wsFrame{Type: "threads", Threads: threads})
		},
		OnMessages: func(messages []model.Message) {
			send(&wsFrame{Type: "messages", Messages: messages})
		},
	})
	if err != nil {
		h.logger.Error("failed to start chat session",
			zap.String("user_id", userID), zap.Error(err))
		send(&wsFrame{Type: "error", Error: "failed to start session"})
		return
	}

	for {
		var cmd wsCommand
		if err := conn.ReadJSON(&cmd); err != nil {
			// Normal close or network drop; either way the session
			// ends and the deferred Close cancels the subscriptions.
			return
		}

		switch cmd.Type {
		case "select":
			if err := middleware.ValidateThreadID(cmd.ThreadID); err != nil {
				send(&wsFrame{Type: "error", Error: err.Error()})
				continue
			}
			if err := controller.Select(cmd.ThreadID); err != nil {
				send(&wsFrame{Type: "error", Error: wsErrorMessage(err)})
			}
		case "send":
			if err := middleware.ValidateMessageText(cmd.Text); err != nil {
				send(&wsFrame{Type: "error", Error: err.Error()})
				continue
			}
			if _, err := controller.Send(cmd.Text); err != nil {
				send(&wsFrame{Type: "error", Error: wsErrorMessage(err)})
			}
		default:
			send(&wsFrame{Type: "error", Error: "unknown command"})
		}
	}
}

func wsErrorMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case err == service.ErrNoActiveThread ||
		err == service.ErrEmptyMessage ||
		err == service.ErrThreadNotFound ||
		err == service.ErrNotParticipant:
		return err.Error()
	default:
		return "internal error"
	}
}
