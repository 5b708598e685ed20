// Package library implements the curated content library: folders,
// content items, and the nested tree view.
package library

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"guidewell/internal/config"
	"guidewell/internal/domain"
	"guidewell/internal/domain/models"
	"guidewell/internal/domain/repositories"
	"guidewell/internal/httputil"
)

// ContentDetail is a content item with its message thread.
type ContentDetail struct {
	Content  *models.Content         `json:"content"`
	Messages []models.ContentMessage `json:"messages"`
}

// CreateFolderRequest carries a new folder submission.
type CreateFolderRequest struct {
	Name     string  `json:"name"`
	ParentID *string `json:"parent_id"`
}

// CreateContentRequest carries a new content submission.
type CreateContentRequest struct {
	FolderID string  `json:"folder_id"`
	Title    string  `json:"title"`
	Body     string  `json:"body"`
	Reviewer *string `json:"reviewer"`
	Price    *string `json:"price"`
}

// UpdateContentRequest carries a content edit. Nil title/body are
// unchanged. Reviewer and price follow RFC 7396 PATCH semantics: absent
// means unchanged, JSON null clears the field.
type UpdateContentRequest struct {
	Title    *string                 `json:"title"`
	Body     *string                 `json:"body"`
	Reviewer httputil.OptionalString `json:"reviewer"`
	Price    httputil.OptionalString `json:"price"`
}

// Service handles library folder and content operations.
type Service struct {
	folderRepo  repositories.FolderRepository
	contentRepo repositories.ContentRepository
	txManager   repositories.TransactionManager
	publisher   *StatusPublisher
	logger      *slog.Logger
}

// NewService creates a new library service
func NewService(
	folderRepo repositories.FolderRepository,
	contentRepo repositories.ContentRepository,
	txManager repositories.TransactionManager,
	publisher *StatusPublisher,
	logger *slog.Logger,
) *Service {
	return &Service{
		folderRepo:  folderRepo,
		contentRepo: contentRepo,
		txManager:   txManager,
		publisher:   publisher,
		logger:      logger,
	}
}

// CreateFolder creates a folder, optionally nested under a parent.
func (s *Service) CreateFolder(ctx context.Context, req *CreateFolderRequest) (*models.Folder, error) {
	name := strings.TrimSpace(req.Name)
	if err := validation.Validate(name,
		validation.Required,
		validation.Length(1, config.MaxFolderNameLength),
	); err != nil {
		return nil, fmt.Errorf("%w: name: %v", domain.ErrValidation, err)
	}

	if req.ParentID != nil {
		if _, err := s.folderRepo.GetByID(ctx, *req.ParentID); err != nil {
			return nil, err
		}
	}

	folder := &models.Folder{
		ID:        uuid.NewString(),
		ParentID:  req.ParentID,
		Name:      name,
		Status:    models.StatusRaw,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if err := s.folderRepo.Create(ctx, folder); err != nil {
		return nil, err
	}

	s.logger.Info("folder created", "folder_id", folder.ID, "name", folder.Name)

	return folder, nil
}

// RenameFolder updates a folder's name.
func (s *Service) RenameFolder(ctx context.Context, folderID, name string) (*models.Folder, error) {
	name = strings.TrimSpace(name)
	if err := validation.Validate(name,
		validation.Required,
		validation.Length(1, config.MaxFolderNameLength),
	); err != nil {
		return nil, fmt.Errorf("%w: name: %v", domain.ErrValidation, err)
	}

	folder, err := s.folderRepo.GetByID(ctx, folderID)
	if err != nil {
		return nil, err
	}

	folder.Name = name
	folder.UpdatedAt = time.Now()
	if err := s.folderRepo.Update(ctx, folder); err != nil {
		return nil, err
	}

	return folder, nil
}

// DeleteFolder soft-deletes a folder. Its contents stay addressable by ID
// but drop out of the tree.
func (s *Service) DeleteFolder(ctx context.Context, folderID string) error {
	if err := s.folderRepo.SoftDelete(ctx, folderID); err != nil {
		return err
	}

	s.logger.Info("folder deleted", "folder_id", folderID)
	return nil
}

// CreateContent creates a content item in a folder.
func (s *Service) CreateContent(ctx context.Context, req *CreateContentRequest) (*models.Content, error) {
	if err := s.validateCreateContentRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	if _, err := s.folderRepo.GetByID(ctx, req.FolderID); err != nil {
		return nil, err
	}

	content := &models.Content{
		ID:        uuid.NewString(),
		FolderID:  req.FolderID,
		Title:     strings.TrimSpace(req.Title),
		Body:      req.Body,
		Status:    models.StatusRaw,
		Reviewer:  req.Reviewer,
		Price:     req.Price,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if err := s.contentRepo.Create(ctx, content); err != nil {
		return nil, err
	}

	s.logger.Info("content created",
		"content_id", content.ID,
		"folder_id", content.FolderID,
		"title", content.Title,
	)

	return content, nil
}

// GetContent retrieves a content item with its message thread.
func (s *Service) GetContent(ctx context.Context, contentID string) (*ContentDetail, error) {
	content, err := s.contentRepo.GetByID(ctx, contentID)
	if err != nil {
		return nil, err
	}

	messages, err := s.contentRepo.GetMessages(ctx, contentID)
	if err != nil {
		return nil, err
	}

	return &ContentDetail{Content: content, Messages: messages}, nil
}

// UpdateContent applies a partial edit to a content item.
func (s *Service) UpdateContent(ctx context.Context, contentID string, req *UpdateContentRequest) (*models.Content, error) {
	content, err := s.contentRepo.GetByID(ctx, contentID)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if err := validation.Validate(title,
			validation.Required,
			validation.Length(1, config.MaxContentTitleLength),
		); err != nil {
			return nil, fmt.Errorf("%w: title: %v", domain.ErrValidation, err)
		}
		content.Title = title
	}
	if req.Body != nil {
		content.Body = *req.Body
	}
	if req.Reviewer.Present {
		content.Reviewer = req.Reviewer.Value
	}
	if req.Price.Present {
		content.Price = req.Price.Value
	}
	content.UpdatedAt = time.Now()

	if err := s.contentRepo.Update(ctx, content); err != nil {
		return nil, err
	}

	return content, nil
}

// DeleteContent removes a content item and its messages.
func (s *Service) DeleteContent(ctx context.Context, contentID string) error {
	if err := s.contentRepo.Delete(ctx, contentID); err != nil {
		return err
	}

	s.logger.Info("content deleted", "content_id", contentID)
	return nil
}

// MoveContent moves a content item to another folder.
func (s *Service) MoveContent(ctx context.Context, contentID, folderID string) error {
	if _, err := s.folderRepo.GetByID(ctx, folderID); err != nil {
		return err
	}

	if err := s.contentRepo.Move(ctx, contentID, folderID); err != nil {
		return err
	}

	s.logger.Info("content moved", "content_id", contentID, "folder_id", folderID)
	return nil
}

// DuplicateContent copies a content item and its messages into the same
// folder. The copy starts over in the raw status.
func (s *Service) DuplicateContent(ctx context.Context, contentID string) (*models.Content, error) {
	source, err := s.contentRepo.GetByID(ctx, contentID)
	if err != nil {
		return nil, err
	}

	messages, err := s.contentRepo.GetMessages(ctx, contentID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	copied := &models.Content{
		ID:        uuid.NewString(),
		FolderID:  source.FolderID,
		Title:     source.Title + " (copy)",
		Body:      source.Body,
		Status:    models.StatusRaw,
		Reviewer:  source.Reviewer,
		Price:     source.Price,
		FileCount: source.FileCount,
		CreatedAt: now,
		UpdatedAt: now,
	}

	copiedMessages := make([]models.ContentMessage, len(messages))
	for i, m := range messages {
		copiedMessages[i] = models.ContentMessage{
			ID:        uuid.NewString(),
			ContentID: copied.ID,
			Title:     m.Title,
			Body:      m.Body,
			Status:    m.Status,
			CreatedAt: m.CreatedAt,
		}
	}

	// Copy and thread land together or not at all
	err = s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		if err := s.contentRepo.Create(txCtx, copied); err != nil {
			return err
		}
		return s.contentRepo.CreateMessages(txCtx, copiedMessages)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("content duplicated",
		"source_id", contentID,
		"content_id", copied.ID,
		"message_count", len(copiedMessages),
	)

	return copied, nil
}

// UpdateContentStatus moves a content item through the moderation states
// and notifies downstream consumers.
func (s *Service) UpdateContentStatus(ctx context.Context, contentID, status string) (*models.Content, error) {
	if !models.IsValidStatus(status) {
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrValidation, status)
	}

	content, err := s.contentRepo.GetByID(ctx, contentID)
	if err != nil {
		return nil, err
	}
	previous := content.Status

	if err := s.contentRepo.UpdateStatus(ctx, contentID, status); err != nil {
		return nil, err
	}
	content.Status = status

	s.publisher.PublishStatusChange(ctx, content, previous)

	s.logger.Info("content status updated",
		"content_id", contentID,
		"from", previous,
		"to", status,
	)

	return content, nil
}

func (s *Service) validateCreateContentRequest(req *CreateContentRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.FolderID, validation.Required),
		validation.Field(&req.Title,
			validation.Required,
			validation.Length(1, config.MaxContentTitleLength),
		),
	)
}
