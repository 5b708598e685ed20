package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"guidewell/internal/domain"
	"guidewell/internal/domain/models"
	"guidewell/internal/domain/repositories"
)

// ChatRepository implements repositories.ChatRepository on Postgres.
type ChatRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
}

// NewChatRepository creates a new chat repository
func NewChatRepository(config *RepositoryConfig) repositories.ChatRepository {
	return &ChatRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

// CreateChat creates a new chat session
func (r *ChatRepository) CreateChat(ctx context.Context, chat *models.Chat) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, user_id, title, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`, r.tables.Chats)

	exec := GetExecutor(ctx, r.pool)
	_, err := exec.Exec(ctx, query,
		chat.ID,
		chat.UserID,
		chat.Title,
		chat.CreatedAt,
		chat.UpdatedAt,
	)
	if err != nil {
		if isPgDuplicateError(err) {
			return &domain.ConflictError{
				Message:      fmt.Sprintf("chat %s already exists", chat.ID),
				ResourceType: "chat",
				ResourceID:   chat.ID,
			}
		}
		return fmt.Errorf("create chat: %w", err)
	}

	return nil
}

// GetChat retrieves a chat by ID, scoped to user
func (r *ChatRepository) GetChat(ctx context.Context, chatID, userID string) (*models.Chat, error) {
	query := fmt.Sprintf(`
		SELECT id, user_id, title, created_at, updated_at, deleted_at
		FROM %s
		WHERE id = $1 AND user_id = $2 AND deleted_at IS NULL
	`, r.tables.Chats)

	var chat models.Chat
	exec := GetExecutor(ctx, r.pool)
	err := exec.QueryRow(ctx, query, chatID, userID).Scan(
		&chat.ID,
		&chat.UserID,
		&chat.Title,
		&chat.CreatedAt,
		&chat.UpdatedAt,
		&chat.DeletedAt,
	)
	if err != nil {
		if isPgNoRowsError(err) {
			return nil, fmt.Errorf("chat %s: %w", chatID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get chat: %w", err)
	}

	return &chat, nil
}

// ListChats retrieves all non-deleted chats for a user, newest first
func (r *ChatRepository) ListChats(ctx context.Context, userID string) ([]models.ChatSummary, error) {
	query := fmt.Sprintf(`
		SELECT id, title, created_at
		FROM %s
		WHERE user_id = $1 AND deleted_at IS NULL
		ORDER BY created_at DESC
	`, r.tables.Chats)

	exec := GetExecutor(ctx, r.pool)
	rows, err := exec.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list chats: %w", err)
	}
	defer rows.Close()

	summaries := make([]models.ChatSummary, 0)
	for rows.Next() {
		var s models.ChatSummary
		if err := rows.Scan(&s.ID, &s.Title, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan chat summary: %w", err)
		}
		summaries = append(summaries, s)
	}

	return summaries, rows.Err()
}

// UpdateTitle renames a chat
func (r *ChatRepository) UpdateTitle(ctx context.Context, chatID, userID, title string) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET title = $1, updated_at = $2
		WHERE id = $3 AND user_id = $4 AND deleted_at IS NULL
	`, r.tables.Chats)

	exec := GetExecutor(ctx, r.pool)
	result, err := exec.Exec(ctx, query, title, time.Now(), chatID, userID)
	if err != nil {
		return fmt.Errorf("update chat title: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("chat %s: %w", chatID, domain.ErrNotFound)
	}

	return nil
}

// DeleteChat soft-deletes a chat and returns the deleted row
func (r *ChatRepository) DeleteChat(ctx context.Context, chatID, userID string) (*models.Chat, error) {
	query := fmt.Sprintf(`
		UPDATE %s
		SET deleted_at = $1, updated_at = $1
		WHERE id = $2 AND user_id = $3 AND deleted_at IS NULL
		RETURNING id, user_id, title, created_at, updated_at, deleted_at
	`, r.tables.Chats)

	var chat models.Chat
	exec := GetExecutor(ctx, r.pool)
	err := exec.QueryRow(ctx, query, time.Now(), chatID, userID).Scan(
		&chat.ID,
		&chat.UserID,
		&chat.Title,
		&chat.CreatedAt,
		&chat.UpdatedAt,
		&chat.DeletedAt,
	)
	if err != nil {
		if isPgNoRowsError(err) {
			return nil, fmt.Errorf("chat %s: %w", chatID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("delete chat: %w", err)
	}

	return &chat, nil
}
