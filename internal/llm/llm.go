package llm

import "context"

// Message roles as sent to the completion service.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one role-tagged entry of a conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Completer is the completion-service boundary the chat session depends on.
type Completer interface {
	Complete(ctx context.Context, messages []Message) (string, error)
}
