// Package service provides the business logic of the support platform:
// thread directory resolution, the live message stream, the chat
// session controller, the AI assistant proxy and project-request
// intake.
package service

import (
	"errors"
)

var (
	// ErrNoStaffAvailable is returned when thread creation is
	// requested but no staff accounts exist. Chat is impossible until
	// at least one staff account is registered.
	ErrNoStaffAvailable = errors.New("no staff accounts available")

	// ErrEmptyMessage is returned when a caller attempts to send text
	// that is blank after trimming. Nothing is written.
	ErrEmptyMessage = errors.New("message text is empty")

	// ErrThreadNotFound is returned when an operation references a
	// thread id that no longer resolves.
	ErrThreadNotFound = errors.New("thread not found")

	// ErrGenerationFailed is returned when the upstream model call
	// errors or its stream terminates abnormally. Fragments already
	// delivered are not retracted; the caller decides what to do with
	// partial output.
	ErrGenerationFailed = errors.New("generation failed")

	// ErrNotParticipant is returned when a caller addresses a thread
	// they are not a member of.
	ErrNotParticipant = errors.New("caller is not a thread participant")

	// ErrInvalidRequest is returned when a project request submission
	// fails validation.
	ErrInvalidRequest = errors.New("invalid project request")
)
