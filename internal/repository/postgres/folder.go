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

// FolderRepository implements repositories.FolderRepository on Postgres.
type FolderRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
}

// NewFolderRepository creates a new folder repository
func NewFolderRepository(config *RepositoryConfig) repositories.FolderRepository {
	return &FolderRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

// Create creates a new folder
func (r *FolderRepository) Create(ctx context.Context, folder *models.Folder) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, parent_id, name, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, r.tables.Folders)

	exec := GetExecutor(ctx, r.pool)
	_, err := exec.Exec(ctx, query,
		folder.ID,
		folder.ParentID,
		folder.Name,
		folder.Status,
		folder.CreatedAt,
		folder.UpdatedAt,
	)
	if err != nil {
		if isPgDuplicateError(err) {
			return &domain.ConflictError{
				Message:      fmt.Sprintf("folder %q already exists", folder.Name),
				ResourceType: "folder",
				ResourceID:   folder.ID,
			}
		}
		if isPgForeignKeyError(err) {
			return fmt.Errorf("parent folder: %w", domain.ErrNotFound)
		}
		return fmt.Errorf("create folder: %w", err)
	}

	return nil
}

// GetByID retrieves a folder by ID
func (r *FolderRepository) GetByID(ctx context.Context, id string) (*models.Folder, error) {
	query := fmt.Sprintf(`
		SELECT id, parent_id, name, status, created_at, updated_at, deleted_at
		FROM %s
		WHERE id = $1 AND deleted_at IS NULL
	`, r.tables.Folders)

	var folder models.Folder
	exec := GetExecutor(ctx, r.pool)
	err := exec.QueryRow(ctx, query, id).Scan(
		&folder.ID,
		&folder.ParentID,
		&folder.Name,
		&folder.Status,
		&folder.CreatedAt,
		&folder.UpdatedAt,
		&folder.DeletedAt,
	)
	if err != nil {
		if isPgNoRowsError(err) {
			return nil, fmt.Errorf("folder %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get folder: %w", err)
	}

	return &folder, nil
}

// Update writes a folder's mutable fields
func (r *FolderRepository) Update(ctx context.Context, folder *models.Folder) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET parent_id = $1, name = $2, status = $3, updated_at = $4
		WHERE id = $5 AND deleted_at IS NULL
	`, r.tables.Folders)

	exec := GetExecutor(ctx, r.pool)
	result, err := exec.Exec(ctx, query,
		folder.ParentID,
		folder.Name,
		folder.Status,
		time.Now(),
		folder.ID,
	)
	if err != nil {
		if isPgDuplicateError(err) {
			return &domain.ConflictError{
				Message:      fmt.Sprintf("folder %q already exists", folder.Name),
				ResourceType: "folder",
				ResourceID:   folder.ID,
			}
		}
		return fmt.Errorf("update folder: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("folder %s: %w", folder.ID, domain.ErrNotFound)
	}

	return nil
}

// SoftDelete marks a folder deleted
func (r *FolderRepository) SoftDelete(ctx context.Context, id string) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET deleted_at = $1, updated_at = $1
		WHERE id = $2 AND deleted_at IS NULL
	`, r.tables.Folders)

	exec := GetExecutor(ctx, r.pool)
	result, err := exec.Exec(ctx, query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("delete folder: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("folder %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

// GetAll returns every non-deleted folder, flat
func (r *FolderRepository) GetAll(ctx context.Context) ([]models.Folder, error) {
	query := fmt.Sprintf(`
		SELECT id, parent_id, name, status, created_at, updated_at, deleted_at
		FROM %s
		WHERE deleted_at IS NULL
		ORDER BY created_at ASC
	`, r.tables.Folders)

	exec := GetExecutor(ctx, r.pool)
	rows, err := exec.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list folders: %w", err)
	}
	defer rows.Close()

	folders := make([]models.Folder, 0)
	for rows.Next() {
		var folder models.Folder
		err := rows.Scan(
			&folder.ID,
			&folder.ParentID,
			&folder.Name,
			&folder.Status,
			&folder.CreatedAt,
			&folder.UpdatedAt,
			&folder.DeletedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan folder: %w", err)
		}
		folders = append(folders, folder)
	}

	return folders, rows.Err()
}
