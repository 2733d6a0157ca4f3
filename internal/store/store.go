// Package store defines the narrow port onto the backing document
// database and its implementations. The store is the sole owner of
// thread, message, account and project-request documents; everything
// above it holds transient read-only projections.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/acodylabs/platform/internal/model"
)

// ErrNotFound is returned when a referenced document does not resolve.
var ErrNotFound = errors.New("store: not found")

// Store is the document-store contract consumed by the services.
// Implementations assign document ids and creation timestamps on
// insert; callers never supply their own clock.
type Store interface {
	// InsertThread writes a new thread and returns it with id and
	// timestamps assigned.
	InsertThread(ctx context.Context, t *model.Thread) (*model.Thread, error)
	// GetThread returns a thread by id, or ErrNotFound.
	GetThread(ctx context.Context, id string) (*model.Thread, error)
	// FindClientThread returns the first one-to-one thread containing
	// clientID, or (nil, nil) when none exists.
	FindClientThread(ctx context.Context, clientID string) (*model.Thread, error)
	// FindGroupThread returns the shared group thread, or (nil, nil)
	// when none exists.
	FindGroupThread(ctx context.Context) (*model.Thread, error)
	// ThreadsByParticipant returns all threads containing userID,
	// ordered by last-message time descending.
	ThreadsByParticipant(ctx context.Context, userID string) ([]model.Thread, error)
	// SetLastMessage updates a thread's denormalized last-message
	// preview fields. Returns ErrNotFound when the thread is gone.
	SetLastMessage(ctx context.Context, threadID, text string, at time.Time) error

	// InsertMessage appends a message to its thread and returns it
	// with id and a server-assigned creation time.
	InsertMessage(ctx context.Context, m *model.Message) (*model.Message, error)
	// MessagesByThread returns a thread's messages ordered by creation
	// time ascending.
	MessagesByThread(ctx context.Context, threadID string) ([]model.Message, error)

	// GetAccount returns an account by id, or ErrNotFound.
	GetAccount(ctx context.Context, id string) (*model.Account, error)
	// ListAccountsByRole returns all accounts with the given role,
	// ordered by name.
	ListAccountsByRole(ctx context.Context, role model.Role) ([]model.Account, error)

	// InsertRequest writes a new project request and returns it with
	// id, pending status and submission time assigned.
	InsertRequest(ctx context.Context, r *model.ProjectRequest) (*model.ProjectRequest, error)
	// GetRequest returns a project request by id, or ErrNotFound.
	GetRequest(ctx context.Context, id string) (*model.ProjectRequest, error)
	// ListRequests returns project requests ordered by submission time
	// descending; ownerID filters to one submitter, "" returns all.
	ListRequests(ctx context.Context, ownerID string) ([]model.ProjectRequest, error)
	// SetRequestStatus updates a request's review status.
	SetRequestStatus(ctx context.Context, id string, status model.RequestStatus) error

	// Ping reports whether the backing database is reachable.
	Ping(ctx context.Context) error
}
