package interfaces

import "context"

// Message represents a single message in a chat conversation
type Message struct {
	// Role identifies the message sender: "user", "assistant", or "system"
	Role string

	// Content contains the text content of the message
	Content string
}

// LLMService defines the interface for language model completions used by
// the requirement analyzer. Implementations wrap cloud providers (Gemini,
// Claude); a nil service is valid and callers fall back to heuristics.
type LLMService interface {
	// Chat generates a completion response based on the conversation history.
	Chat(ctx context.Context, messages []Message) (string, error)

	// Close releases provider resources.
	Close() error
}
