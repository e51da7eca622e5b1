// Package llm calls chat language models, one conversation or a batch of
// them at a time.
package llm

import (
	"context"
	"errors"
	"strings"
)

// ErrUnknownBackend is returned when no provider is registered under a name.
var ErrUnknownBackend = errors.New("unknown llm backend")

// Provider completes one conversation against a model backend.
type Provider interface {
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
	Name() string
}

// CacheReleaser is implemented by providers that can free model memory
// held between requests, such as a locally loaded model.
type CacheReleaser interface {
	ReleaseCache(ctx context.Context, model string) error
}

// Role is the author of a message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of a conversation.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// System returns a system message.
func System(content string) Message { return Message{Role: RoleSystem, Content: content} }

// User returns a user message.
func User(content string) Message { return Message{Role: RoleUser, Content: content} }

// CompletionRequest is a conversation plus sampling settings. An empty
// Model uses the provider's model.
type CompletionRequest struct {
	Model       string
	Messages    []Message
	MaxTokens   int
	Temperature float64
	JSONMode    bool
}

// CompletionResponse is the model reply and its token accounting.
type CompletionResponse struct {
	Content      string
	InputTokens  int
	OutputTokens int
	Model        string
	FinishReason string
}

// splitSystem separates system instructions from the user and assistant
// turns, for backends that take the system prompt out of band.
func splitSystem(messages []Message) (system []string, turns []Message) {
	for _, m := range messages {
		if m.Role == RoleSystem {
			system = append(system, m.Content)
			continue
		}
		turns = append(turns, m)
	}
	return system, turns
}

func joinSystem(system []string) string {
	return strings.Join(system, "\n\n")
}
