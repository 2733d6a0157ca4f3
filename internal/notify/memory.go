package notify

import (
	"sync"
)

// MemoryNotifier is an in-process Notifier used in tests and when no
// NATS server is configured. Delivery is synchronous: Publish invokes
// every handler registered at the time of the call before returning.
type MemoryNotifier struct {
	mu   sync.Mutex
	subs map[string][]*memorySub
}

// NewMemory creates an empty in-process notifier.
func NewMemory() *MemoryNotifier {
	return &MemoryNotifier{subs: make(map[string][]*memorySub)}
}

type memorySub struct {
	owner   *MemoryNotifier
	subject string
	fn      Handler

	mu        sync.Mutex
	cancelled bool
}

func (s *memorySub) Cancel() {
	s.mu.Lock()
	s.cancelled = true
	s.mu.Unlock()

	s.owner.remove(s)
}

func (s *memorySub) deliver() {
	s.mu.Lock()
	cancelled := s.cancelled
	s.mu.Unlock()
	if !cancelled {
		s.fn()
	}
}

// Publish invokes all current subscribers of subject.
func (n *MemoryNotifier) Publish(subject string) {
	n.mu.Lock()
	subs := make([]*memorySub, len(n.subs[subject]))
	copy(subs, n.subs[subject])
	n.mu.Unlock()

	for _, s := range subs {
		s.deliver()
	}
}

// Subscribe registers fn for notifications on subject.
func (n *MemoryNotifier) Subscribe(subject string, fn Handler) (Subscription, error) {
	s := &memorySub{owner: n, subject: subject, fn: fn}

	n.mu.Lock()
	n.subs[subject] = append(n.subs[subject], s)
	n.mu.Unlock()

	return s, nil
}

func (n *MemoryNotifier) remove(target *memorySub) {
	n.mu.Lock()
	defer n.mu.Unlock()

	subs := n.subs[target.subject]
	for i, s := range subs {
		if s == target {
			n.subs[target.subject] = append(subs[:i], subs[i+1:]...)
			return
		}
	}
}
