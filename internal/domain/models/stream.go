package models

import (
	"encoding/json"
	"fmt"
)

// SearchEnvelope is the JSON payload of one SSE event on the streaming
// search endpoint. Every field is optional: the first event usually
// carries the ids, middle events carry reply deltas, and the last event
// carries the full accumulated answer.
//
// Wire format per event:
//
//	data: {"reply":"IBS ","searched_result_id":"...","chat_id":"..."}
type SearchEnvelope struct {
	Reply            *string `json:"reply,omitempty"`
	Answer           *string `json:"answer,omitempty"`
	SearchedResultID *string `json:"searched_result_id,omitempty"`
	ChatID           *string `json:"chat_id,omitempty"`
}

// FormatSSE renders an envelope as a single SSE data event.
func (e *SearchEnvelope) FormatSSE() (string, error) {
	payload, err := json.Marshal(e)
	if err != nil {
		return "", fmt.Errorf("marshal search envelope: %w", err)
	}
	return fmt.Sprintf("data: %s\n\n", payload), nil
}

// NewIDEnvelope builds the opening envelope carrying server-assigned ids.
func NewIDEnvelope(resultID, chatID string) *SearchEnvelope {
	return &SearchEnvelope{
		SearchedResultID: &resultID,
		ChatID:           &chatID,
	}
}

// NewReplyEnvelope builds an envelope carrying one text delta.
func NewReplyEnvelope(delta string) *SearchEnvelope {
	return &SearchEnvelope{Reply: &delta}
}

// NewAnswerEnvelope builds the closing envelope carrying the full
// accumulated answer. It supersedes all reply deltas, so a consumer that
// missed fragments still converges on the complete text.
func NewAnswerEnvelope(answer string) *SearchEnvelope {
	return &SearchEnvelope{Answer: &answer}
}
