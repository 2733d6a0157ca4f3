package notify

import (
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	natsclient "github.com/acodylabs/platform/internal/nats"
	"github.com/acodylabs/platform/pkg/logger"
)

// NATSNotifier fans notifications out over core NATS subjects, so
// subscribers on any instance of the API see appends made through any
// other. Notifications are empty-bodied; subscribers reload from the
// store.
type NATSNotifier struct {
	client *natsclient.Client
	logger *logger.Logger
}

// NewNATS creates a Notifier over an established NATS connection.
func NewNATS(client *natsclient.Client, log *logger.Logger) *NATSNotifier {
	return &NATSNotifier{client: client, logger: log}
}

// Publish sends a best-effort notification on subject.
func (n *NATSNotifier) Publish(subject string) {
	if err := n.client.Conn().Publish(subject, nil); err != nil {
		n.logger.Warn("failed to publish notification",
			zap.String("subject", subject), zap.Error(err))
	}
}

// Subscribe registers fn for notifications on subject. The handler
// runs on the NATS client's delivery goroutine.
func (n *NATSNotifier) Subscribe(subject string, fn Handler) (Subscription, error) {
	sub, err := n.client.Conn().Subscribe(subject, func(*nats.Msg) {
		fn()
	})
	if err != nil {
		return nil, err
	}
	return &natsSub{sub: sub}, nil
}

type natsSub struct {
	sub *nats.Subscription
}

func (s *natsSub) Cancel() {
	// Unsubscribe is idempotent enough for our purposes; a second
	// call returns ErrBadSubscription which we ignore.
	_ = s.sub.Unsubscribe()
}
