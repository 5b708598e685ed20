// Package guide defines the provider contract for streamed answer
// generation. Implementations live under internal/service/guide.
package guide

import (
	"context"
)

// Message roles on a guide conversation.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Message is one prior exchange entry passed to a provider as context.
type Message struct {
	Role    string
	Content string
}

// GenerateRequest carries everything a provider needs to answer a prompt.
type GenerateRequest struct {
	Model     string
	System    string
	Messages  []Message
	MaxTokens int

	// AttachmentName is set when the user uploaded a file with the prompt.
	// Providers that cannot read attachments fold the name into the context.
	AttachmentName string
}

// Metadata is the terminal summary of a finished stream.
type Metadata struct {
	Model        string
	StopReason   string
	OutputTokens int
}

// StreamEvent is one item on a provider's answer stream. Exactly one of
// Delta, Metadata, or Err is set; Metadata or Err is always the final event.
type StreamEvent struct {
	Delta    string
	Metadata *Metadata
	Err      error
}

// Provider generates streamed answers for guide searches.
type Provider interface {
	// Name returns the provider name used for routing.
	Name() string

	// SupportsModel reports whether this provider can serve the model.
	SupportsModel(model string) bool

	// StreamAnswer streams an answer for the request. The returned channel
	// is closed after the terminal event. Cancelling ctx stops the stream.
	StreamAnswer(ctx context.Context, req *GenerateRequest) (<-chan StreamEvent, error)
}
