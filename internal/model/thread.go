// Package model defines data structures for the support platform.
package model

import (
	"errors"
	"time"
)

// ParticipantInfo is the display metadata cached on a thread for one
// participant, so rendering a thread list does not require a join
// against the accounts collection.
type ParticipantInfo struct {
	Name      string `bson:"name" json:"name"`
	AvatarURL string `bson:"avatar_url,omitempty" json:"avatar_url,omitempty"`
}

// Thread is a conversation container. A one-to-one thread pairs a
// client with the staff roster; the single group thread holds staff
// only and carries its own display name.
type Thread struct {
	ID              string                     `bson:"_id,omitempty" json:"id"`
	ParticipantIDs  []string                   `bson:"participant_ids" json:"participant_ids"`
	ParticipantInfo map[string]ParticipantInfo `bson:"participant_info" json:"participant_info"`
	IsGroup         bool                       `bson:"is_group" json:"is_group"`
	GroupName       string                     `bson:"group_name,omitempty" json:"group_name,omitempty"`
	GroupAvatar     string                     `bson:"group_avatar,omitempty" json:"group_avatar,omitempty"`
	LastMessage     string                     `bson:"last_message,omitempty" json:"last_message,omitempty"`
	LastMessageAt   time.Time                  `bson:"last_message_at" json:"last_message_at"`
	CreatedAt       time.Time                  `bson:"created_at" json:"created_at"`
}

// HasParticipant reports whether id is in the thread's participant set.
func (t *Thread) HasParticipant(id string) bool {
	for _, pid := range t.ParticipantIDs {
		if pid == id {
			return true
		}
	}
	return false
}

// Validate checks the invariants the store is trusted to uphold but
// documents from it are not: a non-empty participant set and an info
// entry for every participant id.
func (t *Thread) Validate() error {
	if len(t.ParticipantIDs) == 0 {
		return errors.New("thread has no participants")
	}
	for _, pid := range t.ParticipantIDs {
		if _, ok := t.ParticipantInfo[pid]; !ok {
			return errors.New("thread participant info missing entry for " + pid)
		}
	}
	return nil
}
