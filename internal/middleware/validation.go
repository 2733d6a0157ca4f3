package middleware

import (
	"errors"
	"unicode/utf8"

	"github.com/google/uuid"
)

// ValidateMessageText bounds message content. Blank-after-trim text is
// rejected deeper down (the stream service owns that rule); this layer
// only guards size and encoding.
func ValidateMessageText(text string) error {
	if len(text) > 100000 { // ~100KB limit
		return errors.New("text exceeds maximum length")
	}
	if !utf8.ValidString(text) {
		return errors.New("text must be valid UTF-8")
	}
	return nil
}

// ValidateThreadID validates a thread ID.
func ValidateThreadID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return errors.New("invalid thread ID format")
	}
	return nil
}

// ValidateRequestID validates a project request ID.
func ValidateRequestID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return errors.New("invalid request ID format")
	}
	return nil
}
