package oracleports

import (
	"context"
	"fmt"
)

// Role identifies the author of a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message represents a single chat message used to build prompts.
type Message struct {
	Role    Role
	Content string
}

// PromptInput aggregates everything the provider needs to produce a completion.
type PromptInput struct {
	System   string            // high-level system instructions
	Messages []Message         // ordered chat history
	Meta     map[string]string // lightweight metadata for tracing
}

// Format selects the response encoding requested from the backend.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// Options controls sampling and limits for one call.
type Options struct {
	MaxNewTokens int
	Temperature  float32
	TopP         float32
	Format       Format
	// TimeoutMs applies to the provider call only (not the conversation deadline)
	TimeoutMs int
}

// Usage captures token accounting for telemetry.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Completion is the provider's non-streaming response.
type Completion struct {
	Text  string
	Raw   any    // raw provider payload for debugging
	Usage *Usage // optional usage information
}

// Provider is the abstraction for all LLM backends.
type Provider interface {
	Name() string
	Complete(ctx context.Context, in PromptInput, opts Options) (Completion, error)
}

// StatusError reports a non-success response from a backend.
type StatusError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: request failed with status %d: %s", e.Provider, e.StatusCode, e.Body)
}
