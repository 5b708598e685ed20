// Package openai implements the guide provider contract on the OpenAI
// chat completions API.
package openai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	goopenai "github.com/sashabaranov/go-openai"

	domainguide "guidewell/internal/domain/services/guide"
)

// Provider streams answers from the OpenAI API.
type Provider struct {
	client *goopenai.Client
}

// NewProvider creates a new OpenAI provider.
func NewProvider(apiKey string) *Provider {
	return &Provider{
		client: goopenai.NewClient(apiKey),
	}
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "openai"
}

// SupportsModel returns true for GPT and o-series model names.
func (p *Provider) SupportsModel(model string) bool {
	return strings.HasPrefix(model, "gpt-") || strings.HasPrefix(model, "o1-") || strings.HasPrefix(model, "o3-")
}

// StreamAnswer streams a chat completion, emitting one event per delta.
func (p *Provider) StreamAnswer(ctx context.Context, req *domainguide.GenerateRequest) (<-chan domainguide.StreamEvent, error) {
	if !p.SupportsModel(req.Model) {
		return nil, fmt.Errorf("model '%s' is not supported by openai provider", req.Model)
	}

	apiReq := goopenai.ChatCompletionRequest{
		Model:     req.Model,
		Messages:  buildMessages(req),
		MaxTokens: req.MaxTokens,
		Stream:    true,
	}

	stream, err := p.client.CreateChatCompletionStream(ctx, apiReq)
	if err != nil {
		return nil, fmt.Errorf("failed to open completion stream: %w", err)
	}

	eventChan := make(chan domainguide.StreamEvent, 10)

	go func() {
		defer close(eventChan)
		defer stream.Close()

		outputTokens := 0
		stopReason := "end_turn"

		for {
			response, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				eventChan <- domainguide.StreamEvent{Metadata: &domainguide.Metadata{
					Model:        req.Model,
					StopReason:   stopReason,
					OutputTokens: outputTokens,
				}}
				return
			}
			if err != nil {
				eventChan <- domainguide.StreamEvent{Err: err}
				return
			}

			if len(response.Choices) == 0 {
				continue
			}
			choice := response.Choices[0]
			if choice.FinishReason == goopenai.FinishReasonLength {
				stopReason = "max_tokens"
			}
			if choice.Delta.Content == "" {
				continue
			}

			outputTokens++
			select {
			case eventChan <- domainguide.StreamEvent{Delta: choice.Delta.Content}:
			case <-ctx.Done():
				eventChan <- domainguide.StreamEvent{Err: ctx.Err()}
				return
			}
		}
	}()

	return eventChan, nil
}

func buildMessages(req *domainguide.GenerateRequest) []goopenai.ChatCompletionMessage {
	messages := make([]goopenai.ChatCompletionMessage, 0, len(req.Messages)+2)

	if req.System != "" {
		messages = append(messages, goopenai.ChatCompletionMessage{
			Role:    goopenai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}

	for _, m := range req.Messages {
		role := goopenai.ChatMessageRoleUser
		if m.Role == domainguide.RoleAssistant {
			role = goopenai.ChatMessageRoleAssistant
		}
		messages = append(messages, goopenai.ChatCompletionMessage{
			Role:    role,
			Content: m.Content,
		})
	}

	// The API has no attachment channel here, so surface the filename as
	// context on the last user message.
	if req.AttachmentName != "" && len(messages) > 0 {
		last := &messages[len(messages)-1]
		last.Content = fmt.Sprintf("%s\n\n[attached file: %s]", last.Content, req.AttachmentName)
	}

	return messages
}
