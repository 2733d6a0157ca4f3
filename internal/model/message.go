package model

import (
	"time"
)

// Message is an atomic line of conversation. Messages are immutable
// once written; CreatedAt is assigned by the store at write time, not
// by the sender's clock.
type Message struct {
	ID        string    `bson:"_id,omitempty" json:"id"`
	ThreadID  string    `bson:"thread_id" json:"thread_id"`
	SenderID  string    `bson:"sender_id" json:"sender_id"`
	Text      string    `bson:"text" json:"text"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// SendMessageRequest is the request body for posting a message.
type SendMessageRequest struct {
	Text string `json:"text"`
}

// ListMessagesResponse is the response for listing a thread's messages.
type ListMessagesResponse struct {
	Messages []Message `json:"messages"`
	Total    int       `json:"total"`
}

// ListThreadsResponse is the response for listing a caller's threads.
type ListThreadsResponse struct {
	Threads []Thread `json:"threads"`
	Total   int      `json:"total"`
}
