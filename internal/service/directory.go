package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/acodylabs/platform/internal/model"
	"github.com/acodylabs/platform/internal/notify"
	"github.com/acodylabs/platform/internal/store"
	"github.com/acodylabs/platform/pkg/logger"
	"github.com/acodylabs/platform/pkg/metrics"
)

const (
	groupThreadName  = "Admin Team"
	clientThreadSeed = "Chat created"
	groupThreadSeed  = "Admin group created"
)

// Directory resolves the thread(s) a user belongs to, creating them
// lazily. Participant info is snapshotted from account profiles at
// creation time and is not refreshed when profiles change afterwards;
// this staleness is a known limitation of the design, not corrected
// here.
type Directory struct {
	store    store.Store
	notifier notify.Notifier
	logger   *logger.Logger
}

// NewDirectory creates a new thread directory.
func NewDirectory(st store.Store, n notify.Notifier, log *logger.Logger) *Directory {
	return &Directory{
		store:    st,
		notifier: n,
		logger:   log,
	}
}

// ResolveClientThread returns the client's one-to-one support thread,
// creating it from the current staff roster if absent.
//
// Creation is not guarded by an atomic create-if-absent primitive: two
// near-simultaneous first contacts for the same client can each
// observe "no thread" and create one. The outcome is at most one extra
// thread, which is accepted rather than silently merged.
func (d *Directory) ResolveClientThread(ctx context.Context, clientID string) (*model.Thread, error) {
	existing, err := d.store.FindClientThread(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("failed to query client thread: %w", err)
	}
	if existing != nil {
		return existing, nil
	}

	client, err := d.store.GetAccount(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("client account %s not found: %w", clientID, err)
	}

	staff, err := d.store.ListAccountsByRole(ctx, model.RoleAdmin)
	if err != nil {
		return nil, fmt.Errorf("failed to list staff accounts: %w", err)
	}
	if len(staff) == 0 {
		return nil, ErrNoStaffAvailable
	}

	participantIDs := make([]string, 0, len(staff)+1)
	participantInfo := make(map[string]model.ParticipantInfo, len(staff)+1)

	participantIDs = append(participantIDs, clientID)
	participantInfo[clientID] = client.Info()
	for i := range staff {
		participantIDs = append(participantIDs, staff[i].ID)
		participantInfo[staff[i].ID] = staff[i].Info()
	}

	created, err := d.store.InsertThread(ctx, &model.Thread{
		ParticipantIDs:  participantIDs,
		ParticipantInfo: participantInfo,
		IsGroup:         false,
		LastMessage:     clientThreadSeed,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create client thread: %w", err)
	}

	d.logger.Info("client thread created",
		zap.String("thread_id", created.ID),
		zap.String("client_id", clientID),
		zap.Int("participants", len(participantIDs)),
	)
	metrics.ThreadsCreated.WithLabelValues("client").Inc()

	d.notifyParticipants(created)
	return created, nil
}

// ResolveAdminGroupThread returns the single shared staff thread,
// creating it from the current roster if absent.
func (d *Directory) ResolveAdminGroupThread(ctx context.Context) (*model.Thread, error) {
	existing, err := d.store.FindGroupThread(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query group thread: %w", err)
	}
	if existing != nil {
		return existing, nil
	}

	staff, err := d.store.ListAccountsByRole(ctx, model.RoleAdmin)
	if err != nil {
		return nil, fmt.Errorf("failed to list staff accounts: %w", err)
	}
	if len(staff) == 0 {
		return nil, ErrNoStaffAvailable
	}

	participantIDs := make([]string, 0, len(staff))
	participantInfo := make(map[string]model.ParticipantInfo, len(staff))
	for i := range staff {
		participantIDs = append(participantIDs, staff[i].ID)
		participantInfo[staff[i].ID] = staff[i].Info()
	}

	created, err := d.store.InsertThread(ctx, &model.Thread{
		ParticipantIDs:  participantIDs,
		ParticipantInfo: participantInfo,
		IsGroup:         true,
		GroupName:       groupThreadName,
		LastMessage:     groupThreadSeed,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create group thread: %w", err)
	}

	d.logger.Info("admin group thread created",
		zap.String("thread_id", created.ID),
		zap.Int("participants", len(participantIDs)),
	)
	metrics.ThreadsCreated.WithLabelValues("group").Inc()

	d.notifyParticipants(created)
	return created, nil
}

func (d *Directory) notifyParticipants(t *model.Thread) {
	for _, pid := range t.ParticipantIDs {
		d.notifier.Publish(notify.InboxSubject(pid))
	}
}
