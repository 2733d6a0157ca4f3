package model

import (
	"time"
)

// RequestStatus is the review state of a project request.
type RequestStatus string

const (
	StatusPending    RequestStatus = "pending"
	StatusApproved   RequestStatus = "approved"
	StatusInProgress RequestStatus = "in-progress"
	StatusCompleted  RequestStatus = "completed"
	StatusRejected   RequestStatus = "rejected"
)

// Valid reports whether s is a known request status.
func (s RequestStatus) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusInProgress, StatusCompleted, StatusRejected:
		return true
	}
	return false
}

// ProjectRequest is a client's project intake submission.
type ProjectRequest struct {
	ID           string        `bson:"_id,omitempty" json:"id"`
	UserID       string        `bson:"user_id" json:"user_id"`
	Title        string        `bson:"title" json:"title"`
	Description  string        `bson:"description" json:"description"`
	Features     string        `bson:"features" json:"features"`
	Budget       string        `bson:"budget,omitempty" json:"budget,omitempty"`
	DocumentURL  string        `bson:"document_url,omitempty" json:"document_url,omitempty"`
	DocumentName string        `bson:"document_name,omitempty" json:"document_name,omitempty"`
	Status       RequestStatus `bson:"status" json:"status"`
	SubmittedAt  time.Time     `bson:"submitted_at" json:"submitted_at"`
}

// SubmitRequestInput is the request body for submitting a project request.
type SubmitRequestInput struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	Features     string `json:"features"`
	Budget       string `json:"budget,omitempty"`
	DocumentURL  string `json:"document_url,omitempty"`
	DocumentName string `json:"document_name,omitempty"`
}

// ProjectRequestWithUser joins a request with its submitter's account
// for the staff review screens.
type ProjectRequestWithUser struct {
	ProjectRequest
	User *Account `json:"user,omitempty"`
}

// ListRequestsResponse is the response for listing project requests.
type ListRequestsResponse struct {
	Requests []ProjectRequestWithUser `json:"requests"`
	Total    int                      `json:"total"`
}
