package service

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/acodylabs/platform/internal/model"
	"github.com/acodylabs/platform/pkg/logger"
)

// ErrNoActiveThread is returned when a session sends a message before
// selecting a thread.
var ErrNoActiveThread = errors.New("no active thread selected")

// SessionHandlers carries the presentation callbacks of one chat
// session.
type SessionHandlers struct {
	// OnThreads receives the caller's full thread list on attach and
	// after every change.
	OnThreads ThreadListHandler
	// OnMessages receives the active thread's full ordered message
	// list on selection and after every append.
	OnMessages MessageHandler
}

// Controller coordinates the directory and the message stream for one
// chat session. It is pure orchestration: it tracks the thread list,
// a single active-thread slot, and guarantees at most one live message
// subscription at a time. Clients with no threads get their support
// thread resolved exactly once.
type Controller struct {
	directory *Directory
	stream    *Stream
	logger    *logger.Logger

	mu        sync.Mutex
	ctx       context.Context
	userID    string
	role      model.Role
	handlers  SessionHandlers
	threads   []model.Thread
	active    *model.Thread
	activeSub *MessageSubscription
	inboxSub  *ThreadSubscription
	resolved  bool
	closed    bool
}

// NewController creates a controller for one session.
func NewController(dir *Directory, stream *Stream, log *logger.Logger) *Controller {
	return &Controller{
		directory: dir,
		stream:    stream,
		logger:    log,
	}
}

// Start attaches the session: it subscribes to the caller's thread
// list and, for a client with no threads yet, resolves the support
// thread and adopts it as the active selection.
func (c *Controller) Start(ctx context.Context, userID string, role model.Role, handlers SessionHandlers) error {
	c.mu.Lock()
	c.ctx = ctx
	c.userID = userID
	c.role = role
	c.handlers = handlers
	c.mu.Unlock()

	sub, err := c.stream.SubscribeThreads(ctx, userID, c.onThreadList)
	if err != nil {
		return err
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		sub.Cancel()
		return errors.New("controller already closed")
	}
	c.inboxSub = sub
	c.mu.Unlock()
	return nil
}

func (c *Controller) onThreadList(threads []model.Thread) {
	c.mu.Lock()
	c.threads = threads

	// Refresh the active thread's cached metadata (e.g. a new
	// last-message preview written by the other party) without
	// touching the live message subscription.
	if c.active != nil {
		for i := range threads {
			if threads[i].ID == c.active.ID {
				refreshed := threads[i]
				c.active = &refreshed
				break
			}
		}
	}

	needResolve := c.role == model.RoleClient && len(threads) == 0 && !c.resolved
	if needResolve {
		c.resolved = true
	}
	onThreads := c.handlers.OnThreads
	ctx := c.ctx
	userID := c.userID
	c.mu.Unlock()

	if onThreads != nil {
		onThreads(threads)
	}

	if needResolve {
		thread, err := c.directory.ResolveClientThread(ctx, userID)
		if err != nil {
			c.logger.Error("failed to resolve client thread",
				zap.String("user_id", userID), zap.Error(err))
			return
		}
		if err := c.Select(thread.ID); err != nil {
			c.logger.Error("failed to select resolved thread",
				zap.String("thread_id", thread.ID), zap.Error(err))
		}
	}
}

// Select makes threadID the active thread. The previous thread's
// message subscription is cancelled before the new one attaches, so
// the session never holds more than one live message subscription.
func (c *Controller) Select(threadID string) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return errors.New("controller is closed")
	}
	ctx := c.ctx
	userID := c.userID
	onMessages := c.handlers.OnMessages
	prev := c.activeSub
	c.activeSub = nil
	c.active = nil
	c.mu.Unlock()

	if prev != nil {
		prev.Cancel()
	}

	thread, err := c.stream.Thread(ctx, threadID)
	if err != nil {
		return err
	}
	if !thread.HasParticipant(userID) {
		return ErrNotParticipant
	}

	sub, err := c.stream.Subscribe(ctx, threadID, func(msgs []model.Message) {
		if onMessages != nil {
			onMessages(msgs)
		}
	})
	if err != nil {
		return err
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		sub.Cancel()
		return errors.New("controller is closed")
	}
	c.active = thread
	c.activeSub = sub
	c.mu.Unlock()
	return nil
}

// Send appends text to the active thread on the caller's behalf.
func (c *Controller) Send(text string) (*model.Message, error) {
	c.mu.Lock()
	active := c.active
	ctx := c.ctx
	userID := c.userID
	c.mu.Unlock()

	if active == nil {
		return nil, ErrNoActiveThread
	}
	return c.stream.Append(ctx, active.ID, userID, text)
}

// ActiveThread returns a copy of the active thread, or nil.
func (c *Controller) ActiveThread() *model.Thread {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.active == nil {
		return nil
	}
	cp := *c.active
	return &cp
}

// Threads returns the session's current thread list.
func (c *Controller) Threads() []model.Thread {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]model.Thread, len(c.threads))
	copy(out, c.threads)
	return out
}

// Close cancels all live subscriptions. The controller cannot be
// restarted.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	activeSub := c.activeSub
	inboxSub := c.inboxSub
	c.activeSub = nil
	c.inboxSub = nil
	c.mu.Unlock()

	if activeSub != nil {
		activeSub.Cancel()
	}
	if inboxSub != nil {
		inboxSub.Cancel()
	}
}
