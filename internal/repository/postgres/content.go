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

// ContentRepository implements repositories.ContentRepository on Postgres.
type ContentRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
}

// NewContentRepository creates a new content repository
func NewContentRepository(config *RepositoryConfig) repositories.ContentRepository {
	return &ContentRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

const contentColumns = "id, folder_id, title, body, status, reviewer, price, file_count, created_at, updated_at"

func scanContent(row interface{ Scan(...interface{}) error }, c *models.Content) error {
	return row.Scan(
		&c.ID,
		&c.FolderID,
		&c.Title,
		&c.Body,
		&c.Status,
		&c.Reviewer,
		&c.Price,
		&c.FileCount,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
}

// Create creates a new content item
func (r *ContentRepository) Create(ctx context.Context, content *models.Content) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, folder_id, title, body, status, reviewer, price, file_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, r.tables.Content)

	exec := GetExecutor(ctx, r.pool)
	_, err := exec.Exec(ctx, query,
		content.ID,
		content.FolderID,
		content.Title,
		content.Body,
		content.Status,
		content.Reviewer,
		content.Price,
		content.FileCount,
		content.CreatedAt,
		content.UpdatedAt,
	)
	if err != nil {
		if isPgDuplicateError(err) {
			return &domain.ConflictError{
				Message:      fmt.Sprintf("content %q already exists in folder", content.Title),
				ResourceType: "content",
				ResourceID:   content.ID,
			}
		}
		if isPgForeignKeyError(err) {
			return fmt.Errorf("folder %s: %w", content.FolderID, domain.ErrNotFound)
		}
		return fmt.Errorf("create content: %w", err)
	}

	return nil
}

// GetByID retrieves a content item by ID
func (r *ContentRepository) GetByID(ctx context.Context, id string) (*models.Content, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, contentColumns, r.tables.Content)

	var content models.Content
	exec := GetExecutor(ctx, r.pool)
	if err := scanContent(exec.QueryRow(ctx, query, id), &content); err != nil {
		if isPgNoRowsError(err) {
			return nil, fmt.Errorf("content %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get content: %w", err)
	}

	return &content, nil
}

// Update writes a content item's mutable fields
func (r *ContentRepository) Update(ctx context.Context, content *models.Content) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET title = $1, body = $2, reviewer = $3, price = $4, file_count = $5, updated_at = $6
		WHERE id = $7
	`, r.tables.Content)

	exec := GetExecutor(ctx, r.pool)
	result, err := exec.Exec(ctx, query,
		content.Title,
		content.Body,
		content.Reviewer,
		content.Price,
		content.FileCount,
		time.Now(),
		content.ID,
	)
	if err != nil {
		if isPgDuplicateError(err) {
			return &domain.ConflictError{
				Message:      fmt.Sprintf("content %q already exists in folder", content.Title),
				ResourceType: "content",
				ResourceID:   content.ID,
			}
		}
		return fmt.Errorf("update content: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("content %s: %w", content.ID, domain.ErrNotFound)
	}

	return nil
}

// Delete removes a content item. Messages go with it via ON DELETE CASCADE.
func (r *ContentRepository) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.tables.Content)

	exec := GetExecutor(ctx, r.pool)
	result, err := exec.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete content: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("content %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

// Move reassigns a content item to another folder
func (r *ContentRepository) Move(ctx context.Context, id, folderID string) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET folder_id = $1, updated_at = $2
		WHERE id = $3
	`, r.tables.Content)

	exec := GetExecutor(ctx, r.pool)
	result, err := exec.Exec(ctx, query, folderID, time.Now(), id)
	if err != nil {
		if isPgForeignKeyError(err) {
			return fmt.Errorf("folder %s: %w", folderID, domain.ErrNotFound)
		}
		return fmt.Errorf("move content: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("content %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

// UpdateStatus sets the moderation state of a content item
func (r *ContentRepository) UpdateStatus(ctx context.Context, id, status string) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET status = $1, updated_at = $2
		WHERE id = $3
	`, r.tables.Content)

	exec := GetExecutor(ctx, r.pool)
	result, err := exec.Exec(ctx, query, status, time.Now(), id)
	if err != nil {
		return fmt.Errorf("update content status: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("content %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

// GetAllMetadata returns every content item without bodies, flat
func (r *ContentRepository) GetAllMetadata(ctx context.Context) ([]models.Content, error) {
	query := fmt.Sprintf(`
		SELECT id, folder_id, title, status, reviewer, price, file_count, created_at, updated_at
		FROM %s
		ORDER BY created_at ASC
	`, r.tables.Content)

	exec := GetExecutor(ctx, r.pool)
	rows, err := exec.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list content: %w", err)
	}
	defer rows.Close()

	items := make([]models.Content, 0)
	for rows.Next() {
		var c models.Content
		err := rows.Scan(
			&c.ID,
			&c.FolderID,
			&c.Title,
			&c.Status,
			&c.Reviewer,
			&c.Price,
			&c.FileCount,
			&c.CreatedAt,
			&c.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan content: %w", err)
		}
		items = append(items, c)
	}

	return items, rows.Err()
}

// GetMessages returns the thread of one content item in order
func (r *ContentRepository) GetMessages(ctx context.Context, contentID string) ([]models.ContentMessage, error) {
	query := fmt.Sprintf(`
		SELECT id, content_id, title, body, status, created_at
		FROM %s
		WHERE content_id = $1
		ORDER BY created_at ASC
	`, r.tables.ContentMessages)

	exec := GetExecutor(ctx, r.pool)
	rows, err := exec.Query(ctx, query, contentID)
	if err != nil {
		return nil, fmt.Errorf("list content messages: %w", err)
	}
	defer rows.Close()

	return scanMessages(rows)
}

// GetAllMessages returns all content messages, flat, for tree builds
func (r *ContentRepository) GetAllMessages(ctx context.Context) ([]models.ContentMessage, error) {
	query := fmt.Sprintf(`
		SELECT id, content_id, title, body, status, created_at
		FROM %s
		ORDER BY created_at ASC
	`, r.tables.ContentMessages)

	exec := GetExecutor(ctx, r.pool)
	rows, err := exec.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list all content messages: %w", err)
	}
	defer rows.Close()

	return scanMessages(rows)
}

// CreateMessages inserts thread entries for a content item
func (r *ContentRepository) CreateMessages(ctx context.Context, messages []models.ContentMessage) error {
	if len(messages) == 0 {
		return nil
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, content_id, title, body, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, r.tables.ContentMessages)

	exec := GetExecutor(ctx, r.pool)
	for _, m := range messages {
		_, err := exec.Exec(ctx, query, m.ID, m.ContentID, m.Title, m.Body, m.Status, m.CreatedAt)
		if err != nil {
			if isPgForeignKeyError(err) {
				return fmt.Errorf("content %s: %w", m.ContentID, domain.ErrNotFound)
			}
			return fmt.Errorf("create content message: %w", err)
		}
	}

	return nil
}

func scanMessages(rows interface {
	Next() bool
	Scan(...interface{}) error
	Err() error
}) ([]models.ContentMessage, error) {
	messages := make([]models.ContentMessage, 0)
	for rows.Next() {
		var m models.ContentMessage
		if err := rows.Scan(&m.ID, &m.ContentID, &m.Title, &m.Body, &m.Status, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan content message: %w", err)
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}
