package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/acodylabs/platform/internal/model"
	"github.com/acodylabs/platform/internal/store"
	"github.com/acodylabs/platform/pkg/logger"
	"github.com/acodylabs/platform/pkg/metrics"
)

// Requests handles project-request intake and review.
type Requests struct {
	store  store.Store
	logger *logger.Logger
}

// NewRequests creates the project-request service.
func NewRequests(st store.Store, log *logger.Logger) *Requests {
	return &Requests{store: st, logger: log}
}

// Submit validates and stores a new project request for ownerID.
func (r *Requests) Submit(ctx context.Context, ownerID string, in *model.SubmitRequestInput) (*model.ProjectRequest, error) {
	if err := validateSubmission(in); err != nil {
		return nil, err
	}

	created, err := r.store.InsertRequest(ctx, &model.ProjectRequest{
		UserID:       ownerID,
		Title:        strings.TrimSpace(in.Title),
		Description:  strings.TrimSpace(in.Description),
		Features:     strings.TrimSpace(in.Features),
		Budget:       in.Budget,
		DocumentURL:  in.DocumentURL,
		DocumentName: in.DocumentName,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to store project request: %w", err)
	}

	r.logger.Info("project request submitted",
		zap.String("request_id", created.ID),
		zap.String("user_id", ownerID),
	)
	metrics.ProjectRequestsTotal.Inc()
	return created, nil
}

func validateSubmission(in *model.SubmitRequestInput) error {
	if len(strings.TrimSpace(in.Title)) < 5 {
		return fmt.Errorf("%w: title must be at least 5 characters", ErrInvalidRequest)
	}
	if len(strings.TrimSpace(in.Description)) < 30 {
		return fmt.Errorf("%w: description must be at least 30 characters", ErrInvalidRequest)
	}
	if len(strings.TrimSpace(in.Features)) < 20 {
		return fmt.Errorf("%w: features must be at least 20 characters", ErrInvalidRequest)
	}
	return nil
}

// ListOwn returns the caller's submissions, newest first.
func (r *Requests) ListOwn(ctx context.Context, ownerID string) ([]model.ProjectRequest, error) {
	return r.store.ListRequests(ctx, ownerID)
}

// ListAll returns every submission joined with its submitter's
// account, newest first. Staff only; the handler enforces the role.
func (r *Requests) ListAll(ctx context.Context) ([]model.ProjectRequestWithUser, error) {
	requests, err := r.store.ListRequests(ctx, "")
	if err != nil {
		return nil, err
	}

	out := make([]model.ProjectRequestWithUser, 0, len(requests))
	for _, req := range requests {
		joined := model.ProjectRequestWithUser{ProjectRequest: req}
		if req.UserID != "" {
			if user, err := r.store.GetAccount(ctx, req.UserID); err == nil {
				joined.User = user
			}
		}
		out = append(out, joined)
	}
	return out, nil
}

// Get returns one request. Non-staff callers only see their own.
func (r *Requests) Get(ctx context.Context, id, callerID string, role model.Role) (*model.ProjectRequestWithUser, error) {
	req, err := r.store.GetRequest(ctx, id)
	if err != nil {
		return nil, err
	}
	if role != model.RoleAdmin && req.UserID != callerID {
		return nil, store.ErrNotFound
	}

	joined := &model.ProjectRequestWithUser{ProjectRequest: *req}
	if role == model.RoleAdmin && req.UserID != "" {
		if user, err := r.store.GetAccount(ctx, req.UserID); err == nil {
			joined.User = user
		}
	}
	return joined, nil
}

// SetStatus updates a request's review status.
func (r *Requests) SetStatus(ctx context.Context, id string, status model.RequestStatus) error {
	if !status.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidRequest, status)
	}
	return r.store.SetRequestStatus(ctx, id, status)
}
