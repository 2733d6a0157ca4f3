package service

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/acodylabs/platform/internal/model"
	"github.com/acodylabs/platform/internal/notify"
	"github.com/acodylabs/platform/internal/store"
	"github.com/acodylabs/platform/pkg/logger"
	"github.com/acodylabs/platform/pkg/metrics"
)

// MessageHandler receives the full ordered message list of a thread on
// attach and after every append.
type MessageHandler func(messages []model.Message)

// ThreadListHandler receives a user's full thread list, newest
// activity first, on attach and after every change.
type ThreadListHandler func(threads []model.Thread)

// SubscriptionState is the lifecycle state of a live subscription.
type SubscriptionState int32

const (
	StateUnattached SubscriptionState = iota
	StateAttached
	StateCancelled
)

// Stream is the append-only ordered message log with live
// subscriptions. Updates are pushed: subscribers never poll, they are
// re-read-and-notified whenever the thread's subject fires.
type Stream struct {
	store    store.Store
	notifier notify.Notifier
	logger   *logger.Logger
}

// NewStream creates a new message stream service.
func NewStream(st store.Store, n notify.Notifier, log *logger.Logger) *Stream {
	return &Stream{
		store:    st,
		notifier: n,
		logger:   log,
	}
}

// Append validates and writes a message, then updates the parent
// thread's denormalized last-message preview. The two writes are
// separate operations: a failure after the message write leaves the
// preview stale, which heals on the next successful append.
func (s *Stream) Append(ctx context.Context, threadID, senderID, text string) (*model.Message, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyMessage
	}

	thread, err := s.store.GetThread(ctx, threadID)
	if err != nil {
		if err == store.ErrNotFound {
			return nil, ErrThreadNotFound
		}
		return nil, fmt.Errorf("failed to load thread: %w", err)
	}
	if !thread.HasParticipant(senderID) {
		return nil, ErrNotParticipant
	}

	msg, err := s.store.InsertMessage(ctx, &model.Message{
		ThreadID: threadID,
		SenderID: senderID,
		Text:     text,
	})
	if err != nil {
		if err == store.ErrNotFound {
			return nil, ErrThreadNotFound
		}
		return nil, fmt.Errorf("failed to insert message: %w", err)
	}

	if err := s.store.SetLastMessage(ctx, threadID, text, msg.CreatedAt); err != nil {
		// The message is already durable; only the preview is stale.
		s.logger.Warn("failed to update last-message preview",
			zap.String("thread_id", threadID), zap.Error(err))
	}

	kind := "client"
	if thread.IsGroup {
		kind = "group"
	}
	metrics.MessagesAppended.WithLabelValues(kind).Inc()

	s.notifier.Publish(notify.ThreadSubject(threadID))
	for _, pid := range thread.ParticipantIDs {
		s.notifier.Publish(notify.InboxSubject(pid))
	}

	return msg, nil
}

// Messages returns a thread's messages in creation order without
// establishing a subscription.
func (s *Stream) Messages(ctx context.Context, threadID string) ([]model.Message, error) {
	if _, err := s.store.GetThread(ctx, threadID); err != nil {
		if err == store.ErrNotFound {
			return nil, ErrThreadNotFound
		}
		return nil, err
	}
	return s.store.MessagesByThread(ctx, threadID)
}

// Thread returns a single thread by id.
func (s *Stream) Thread(ctx context.Context, id string) (*model.Thread, error) {
	t, err := s.store.GetThread(ctx, id)
	if err != nil {
		if err == store.ErrNotFound {
			return nil, ErrThreadNotFound
		}
		return nil, err
	}
	return t, nil
}

// Threads returns a user's thread list, newest activity first.
func (s *Stream) Threads(ctx context.Context, userID string) ([]model.Thread, error) {
	return s.store.ThreadsByParticipant(ctx, userID)
}

// MessageSubscription is a live, cancellable view of one thread's
// ordered message list.
type MessageSubscription struct {
	state atomic.Int32
	inner notify.Subscription
}

// State returns the subscription's lifecycle state.
func (s *MessageSubscription) State() SubscriptionState {
	return SubscriptionState(s.state.Load())
}

// Cancel detaches the subscription. Only an explicit Cancel moves an
// attached subscription to cancelled; there is no timeout. No onUpdate
// call begins after Cancel returns.
func (s *MessageSubscription) Cancel() {
	if s.state.CompareAndSwap(int32(StateAttached), int32(StateCancelled)) {
		s.inner.Cancel()
		metrics.SubscriptionsActive.Dec()
	}
}

// Subscribe establishes a live ordered view of a thread's messages.
// onUpdate is invoked with the full ascending list immediately and
// again after every append, until the returned subscription is
// cancelled.
func (s *Stream) Subscribe(ctx context.Context, threadID string, onUpdate MessageHandler) (*MessageSubscription, error) {
	if _, err := s.store.GetThread(ctx, threadID); err != nil {
		if err == store.ErrNotFound {
			return nil, ErrThreadNotFound
		}
		return nil, err
	}

	sub := &MessageSubscription{}

	deliver := func() {
		if sub.State() != StateAttached {
			return
		}
		msgs, err := s.store.MessagesByThread(ctx, threadID)
		if err != nil {
			s.logger.Warn("failed to reload messages for subscriber",
				zap.String("thread_id", threadID), zap.Error(err))
			return
		}
		if sub.State() != StateAttached {
			return
		}
		onUpdate(msgs)
	}

	inner, err := s.notifier.Subscribe(notify.ThreadSubject(threadID), deliver)
	if err != nil {
		return nil, fmt.Errorf("failed to attach subscription: %w", err)
	}
	sub.inner = inner
	sub.state.Store(int32(StateAttached))
	metrics.SubscriptionsActive.Inc()

	deliver()
	return sub, nil
}

// ThreadSubscription is a live, cancellable view of a user's thread
// list.
type ThreadSubscription struct {
	state atomic.Int32
	inner notify.Subscription
}

// State returns the subscription's lifecycle state.
func (s *ThreadSubscription) State() SubscriptionState {
	return SubscriptionState(s.state.Load())
}

// Cancel detaches the subscription.
func (s *ThreadSubscription) Cancel() {
	if s.state.CompareAndSwap(int32(StateAttached), int32(StateCancelled)) {
		s.inner.Cancel()
	}
}

// SubscribeThreads establishes a live view of every thread the user
// participates in, ordered by last-message time descending.
func (s *Stream) SubscribeThreads(ctx context.Context, userID string, onUpdate ThreadListHandler) (*ThreadSubscription, error) {
	sub := &ThreadSubscription{}

	deliver := func() {
		if sub.State() != StateAttached {
			return
		}
		threads, err := s.store.ThreadsByParticipant(ctx, userID)
		if err != nil {
			s.logger.Warn("failed to reload thread list for subscriber",
				zap.String("user_id", userID), zap.Error(err))
			return
		}
		if sub.State() != StateAttached {
			return
		}
		onUpdate(threads)
	}

	inner, err := s.notifier.Subscribe(notify.InboxSubject(userID), deliver)
	if err != nil {
		return nil, fmt.Errorf("failed to attach thread subscription: %w", err)
	}
	sub.inner = inner
	sub.state.Store(int32(StateAttached))

	deliver()
	return sub, nil
}
