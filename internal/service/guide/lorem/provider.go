// Package lorem implements a mock guide provider that streams lorem
// ipsum text. Used for development without API keys.
package lorem

import (
	"context"
	"fmt"
	"strings"
	"time"

	loremgen "github.com/bozaro/golorem"

	domainguide "guidewell/internal/domain/services/guide"
)

// Provider generates lorem ipsum answers.
type Provider struct {
	generator *loremgen.Lorem
}

// NewProvider creates a new lorem ipsum provider.
func NewProvider() *Provider {
	return &Provider{
		generator: loremgen.New(),
	}
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "lorem"
}

// SupportsModel returns true if the model name starts with "lorem-".
// Example models: "lorem-fast", "lorem-slow"
func (p *Provider) SupportsModel(model string) bool {
	return strings.HasPrefix(model, "lorem-")
}

// getStreamDelay returns the delay between words based on the model name.
//   - lorem-slow: 2 words/second (500ms per word)
//   - lorem-fast: 30 words/second (33ms per word)
//   - default: 10 words/second
func getStreamDelay(model string) time.Duration {
	if strings.Contains(model, "slow") {
		return 500 * time.Millisecond
	}
	if strings.Contains(model, "fast") {
		return 33 * time.Millisecond
	}
	return 100 * time.Millisecond
}

// StreamAnswer streams generated text word by word. Speed varies with the
// model name (lorem-slow, lorem-fast).
func (p *Provider) StreamAnswer(ctx context.Context, req *domainguide.GenerateRequest) (<-chan domainguide.StreamEvent, error) {
	if !p.SupportsModel(req.Model) {
		return nil, fmt.Errorf("model '%s' is not supported by lorem provider", req.Model)
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 256
	}

	// 1 token ~ 1 word for the mock
	targetWords := maxTokens
	delay := getStreamDelay(req.Model)

	eventChan := make(chan domainguide.StreamEvent, 10)

	go func() {
		defer close(eventChan)

		words := p.generateWords(targetWords)
		for i, word := range words {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				eventChan <- domainguide.StreamEvent{Err: ctx.Err()}
				return
			}

			delta := word
			if i < len(words)-1 {
				delta += " "
			}

			select {
			case eventChan <- domainguide.StreamEvent{Delta: delta}:
			case <-ctx.Done():
				eventChan <- domainguide.StreamEvent{Err: ctx.Err()}
				return
			}
		}

		eventChan <- domainguide.StreamEvent{Metadata: &domainguide.Metadata{
			Model:        req.Model,
			StopReason:   "end_turn",
			OutputTokens: len(words),
		}}
	}()

	return eventChan, nil
}

// generateWords produces roughly count words of lorem ipsum text.
func (p *Provider) generateWords(count int) []string {
	var sb strings.Builder
	for len(strings.Fields(sb.String())) < count {
		sb.WriteString(p.generator.Sentence(5, 12))
		sb.WriteString(" ")
	}

	words := strings.Fields(sb.String())
	if len(words) > count {
		words = words[:count]
	}
	return words
}
