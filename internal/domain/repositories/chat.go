package repositories

import (
	"context"

	"guidewell/internal/domain/models"
)

// ChatRepository defines data access for chats.
type ChatRepository interface {
	// CreateChat creates a new chat session
	CreateChat(ctx context.Context, chat *models.Chat) error

	// GetChat retrieves a chat by ID, scoped to user.
	// Returns domain.ErrNotFound if not found or soft-deleted.
	GetChat(ctx context.Context, chatID, userID string) (*models.Chat, error)

	// ListChats retrieves all non-deleted chats for a user,
	// newest first. Returns an empty slice if none exist.
	ListChats(ctx context.Context, userID string) ([]models.ChatSummary, error)

	// UpdateTitle renames a chat.
	// Returns domain.ErrNotFound if not found.
	UpdateTitle(ctx context.Context, chatID, userID, title string) error

	// DeleteChat soft-deletes a chat and returns the deleted row.
	// Returns domain.ErrNotFound if not found or already deleted.
	DeleteChat(ctx context.Context, chatID, userID string) (*models.Chat, error)
}

// ResultRepository defines data access for question/answer results.
type ResultRepository interface {
	// CreateResult inserts a result row (query set, answer empty,
	// status streaming).
	CreateResult(ctx context.Context, result *models.Result) error

	// GetResult retrieves a result by ID.
	// Returns domain.ErrNotFound if not found.
	GetResult(ctx context.Context, resultID string) (*models.Result, error)

	// ListByChat returns all results of a chat in creation order.
	ListByChat(ctx context.Context, chatID string) ([]models.Result, error)

	// ResetForRegenerate clears the answer/error of an existing result
	// and flips it back to streaming, keeping its position and query.
	ResetForRegenerate(ctx context.Context, resultID string) error

	// FinishResult stores the final accumulated answer with terminal
	// status (complete, error, cancelled) and optional error text.
	FinishResult(ctx context.Context, resultID, answer, status string, errText *string, model string) error
}
