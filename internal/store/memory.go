package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/acodylabs/platform/internal/model"
)

// Memory is an in-process Store used in tests and when no database is
// configured. Timestamps are assigned from a strictly monotonic clock
// so message ordering matches what a real server-timestamp store
// provides even for back-to-back writes.
type Memory struct {
	mu       sync.RWMutex
	threads  map[string]*model.Thread
	messages map[string][]model.Message
	accounts map[string]*model.Account
	requests map[string]*model.ProjectRequest
	lastTS   time.Time
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		threads:  make(map[string]*model.Thread),
		messages: make(map[string][]model.Message),
		accounts: make(map[string]*model.Account),
		requests: make(map[string]*model.ProjectRequest),
	}
}

// now returns a strictly increasing server timestamp. Callers must
// hold mu.
func (m *Memory) now() time.Time {
	t := time.Now().UTC()
	if !t.After(m.lastTS) {
		t = m.lastTS.Add(time.Microsecond)
	}
	m.lastTS = t
	return t
}

func newID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// InsertThread writes a new thread.
func (m *Memory) InsertThread(ctx context.Context, t *model.Thread) (*model.Thread, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := *t
	stored.ID = newID()
	stored.CreatedAt = m.now()
	if stored.LastMessageAt.IsZero() {
		stored.LastMessageAt = stored.CreatedAt
	}
	m.threads[stored.ID] = &stored

	out := stored
	return &out, nil
}

// GetThread returns a thread by id.
func (m *Memory) GetThread(ctx context.Context, id string) (*model.Thread, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	t, ok := m.threads[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *t
	return &out, nil
}

// FindClientThread returns the one-to-one thread containing clientID.
func (m *Memory) FindClientThread(ctx context.Context, clientID string) (*model.Thread, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, t := range m.threads {
		if !t.IsGroup && t.HasParticipant(clientID) {
			out := *t
			return &out, nil
		}
	}
	return nil, nil
}

// FindGroupThread returns the shared group thread.
func (m *Memory) FindGroupThread(ctx context.Context) (*model.Thread, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, t := range m.threads {
		if t.IsGroup {
			out := *t
			return &out, nil
		}
	}
	return nil, nil
}

// ThreadsByParticipant returns userID's threads, newest activity first.
func (m *Memory) ThreadsByParticipant(ctx context.Context, userID string) ([]model.Thread, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []model.Thread
	for _, t := range m.threads {
		if t.HasParticipant(userID) {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].LastMessageAt.After(out[j].LastMessageAt)
	})
	return out, nil
}

// SetLastMessage updates a thread's denormalized preview fields.
func (m *Memory) SetLastMessage(ctx context.Context, threadID, text string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.threads[threadID]
	if !ok {
		return ErrNotFound
	}
	t.LastMessage = text
	t.LastMessageAt = at
	return nil
}

// InsertMessage appends a message with a server-assigned timestamp.
func (m *Memory) InsertMessage(ctx context.Context, msg *model.Message) (*model.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.threads[msg.ThreadID]; !ok {
		return nil, ErrNotFound
	}

	stored := *msg
	stored.ID = newID()
	stored.CreatedAt = m.now()
	m.messages[msg.ThreadID] = append(m.messages[msg.ThreadID], stored)

	out := stored
	return &out, nil
}

// MessagesByThread returns a thread's messages in creation order.
func (m *Memory) MessagesByThread(ctx context.Context, threadID string) ([]model.Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	msgs := m.messages[threadID]
	out := make([]model.Message, len(msgs))
	copy(out, msgs)
	return out, nil
}

// MessageCount returns the number of stored messages for a thread.
// Test helper; not part of the Store contract.
func (m *Memory) MessageCount(threadID string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.messages[threadID])
}

// PutAccount seeds an account. Accounts are owned by the registration
// flow outside this core, so the Store contract only reads them.
func (m *Memory) PutAccount(a *model.Account) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := *a
	if stored.ID == "" {
		stored.ID = newID()
	}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = m.now()
	}
	m.accounts[stored.ID] = &stored
}

// GetAccount returns an account by id.
func (m *Memory) GetAccount(ctx context.Context, id string) (*model.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	a, ok := m.accounts[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *a
	return &out, nil
}

// ListAccountsByRole returns accounts with the given role, by name.
func (m *Memory) ListAccountsByRole(ctx context.Context, role model.Role) ([]model.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []model.Account
	for _, a := range m.accounts {
		if a.Role == role {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// InsertRequest writes a new project request.
func (m *Memory) InsertRequest(ctx context.Context, r *model.ProjectRequest) (*model.ProjectRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := *r
	stored.ID = newID()
	stored.Status = model.StatusPending
	stored.SubmittedAt = m.now()
	m.requests[stored.ID] = &stored

	out := stored
	return &out, nil
}

// GetRequest returns a project request by id.
func (m *Memory) GetRequest(ctx context.Context, id string) (*model.ProjectRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.requests[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *r
	return &out, nil
}

// ListRequests returns project requests, newest first.
func (m *Memory) ListRequests(ctx context.Context, ownerID string) ([]model.ProjectRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []model.ProjectRequest
	for _, r := range m.requests {
		if ownerID == "" || r.UserID == ownerID {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].SubmittedAt.After(out[j].SubmittedAt)
	})
	return out, nil
}

// SetRequestStatus updates a request's review status.
func (m *Memory) SetRequestStatus(ctx context.Context, id string, status model.RequestStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.requests[id]
	if !ok {
		return ErrNotFound
	}
	r.Status = status
	return nil
}

// Ping always succeeds for the in-memory store.
func (m *Memory) Ping(ctx context.Context) error {
	return nil
}
