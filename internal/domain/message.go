package domain

import "time"

// Message roles in a chat session.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one chat-history entry. The dispatch core never reads history;
// messages are appended by the transport layer around each invocation.
type Message struct {
	SessionID string    `json:"session_id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// DispatchResult is the terminal output of one dispatch invocation.
// Created once, never mutated, discarded after being returned.
type DispatchResult struct {
	Response string
	Category Category
}
