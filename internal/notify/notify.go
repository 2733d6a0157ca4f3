// Package notify provides the change-notification fan-out used to
// drive live subscriptions. A notification carries no payload; it only
// tells subscribers that documents under a subject changed, and they
// re-read from the store. That keeps the store the single source of
// truth and makes delivery idempotent.
package notify

// Handler is invoked for each notification on a subscribed subject.
type Handler func()

// Subscription is a cancellable registration on a subject.
type Subscription interface {
	// Cancel detaches the subscription. No Handler invocations are
	// started after Cancel returns. Safe to call more than once.
	Cancel()
}

// Notifier is the fan-out contract. Publish is best-effort: a lost
// notification delays visibility until the next one, it never loses
// data.
type Notifier interface {
	Publish(subject string)
	Subscribe(subject string, fn Handler) (Subscription, error)
}

// ThreadSubject is notified when a message is appended to a thread.
func ThreadSubject(threadID string) string {
	return "chat.thread." + threadID
}

// InboxSubject is notified when a user's thread list changes (a thread
// was created or its last-message preview moved).
func InboxSubject(userID string) string {
	return "chat.inbox." + userID
}
