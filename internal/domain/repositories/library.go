package repositories

import (
	"context"

	"guidewell/internal/domain/models"
)

// FolderRepository defines data access for library folders.
type FolderRepository interface {
	// Create creates a new folder.
	// Returns domain.ErrConflict on a duplicate name under the same parent.
	Create(ctx context.Context, folder *models.Folder) error

	// GetByID retrieves a folder by ID.
	// Returns domain.ErrNotFound if not found or soft-deleted.
	GetByID(ctx context.Context, id string) (*models.Folder, error)

	// Update writes a folder's mutable fields (name, parent, status).
	// Returns domain.ErrNotFound if not found.
	Update(ctx context.Context, folder *models.Folder) error

	// SoftDelete marks a folder deleted.
	// Returns domain.ErrNotFound if not found or already deleted.
	SoftDelete(ctx context.Context, id string) error

	// GetAll returns every non-deleted folder, flat. Tree nesting is
	// the tree service's job.
	GetAll(ctx context.Context) ([]models.Folder, error)
}

// ContentRepository defines data access for library content and the
// message threads content items can carry.
type ContentRepository interface {
	// Create creates a new content item.
	// Returns domain.ErrConflict on a duplicate title within the folder.
	Create(ctx context.Context, content *models.Content) error

	// GetByID retrieves a content item by ID.
	// Returns domain.ErrNotFound if not found.
	GetByID(ctx context.Context, id string) (*models.Content, error)

	// Update writes a content item's mutable fields.
	// Returns domain.ErrNotFound if not found.
	Update(ctx context.Context, content *models.Content) error

	// Delete removes a content item and its messages.
	// Returns domain.ErrNotFound if not found.
	Delete(ctx context.Context, id string) error

	// Move reassigns a content item to another folder.
	// Returns domain.ErrNotFound if content or folder is missing.
	Move(ctx context.Context, id, folderID string) error

	// UpdateStatus sets the moderation state of a content item.
	// Returns domain.ErrNotFound if not found.
	UpdateStatus(ctx context.Context, id, status string) error

	// GetAllMetadata returns every content item without bodies, flat.
	GetAllMetadata(ctx context.Context) ([]models.Content, error)

	// GetMessages returns the thread of one content item in order.
	GetMessages(ctx context.Context, contentID string) ([]models.ContentMessage, error)

	// GetAllMessages returns all content messages, flat, for tree builds.
	GetAllMessages(ctx context.Context) ([]models.ContentMessage, error)

	// CreateMessages inserts thread entries for a content item.
	CreateMessages(ctx context.Context, messages []models.ContentMessage) error
}
