// Package backend abstracts the chat completion provider behind a small
// interface so the session loop can be tested against a fake.
package backend

import "context"

// Conversation roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one entry in the conversation history.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Client produces completions for a conversation.
type Client interface {
	// Complete returns the full response for the conversation.
	Complete(ctx context.Context, messages []Message) (string, error)
	// Stream delivers the response incrementally through onDelta and
	// returns the full accumulated text. A non-nil error from onDelta
	// aborts the stream.
	Stream(ctx context.Context, messages []Message, onDelta func(delta string) error) (string, error)
}
