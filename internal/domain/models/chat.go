package models

import (
	"time"
)

// Result status values. A result starts streaming, then either completes
// or errors; errored results keep whatever answer text had accumulated.
const (
	ResultStatusStreaming = "streaming"
	ResultStatusComplete  = "complete"
	ResultStatusError     = "error"
	ResultStatusCancelled = "cancelled"
)

// Chat is one conversation between a user and the guide.
type Chat struct {
	ID        string     `json:"chat_id" db:"id"`
	UserID    string     `json:"user_id" db:"user_id"`
	Title     string     `json:"chat_title" db:"title"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty" db:"deleted_at"`
}

// Result is one question/answer exchange within a chat. The answer is
// append-only while the result is streaming and frozen afterwards.
// Regeneration rewrites the answer of the same row; it never creates a
// new row, so transcript positions are stable.
type Result struct {
	ID             string     `json:"id" db:"id"`
	ChatID         string     `json:"chat_id" db:"chat_id"`
	Query          string     `json:"query" db:"query"`
	Answer         string     `json:"answer" db:"answer"`
	Status         string     `json:"status" db:"status"`
	Error          *string    `json:"error,omitempty" db:"error"`
	Model          *string    `json:"model,omitempty" db:"model"`
	AttachmentName *string    `json:"attachment_name,omitempty" db:"attachment_name"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty" db:"completed_at"`
}

// ChatSummary is the history-list projection of a chat.
type ChatSummary struct {
	ID        string    `json:"chat_id"`
	Title     string    `json:"chat_title"`
	CreatedAt time.Time `json:"created_at"`
}
