package library

import (
	"context"
	"log/slog"

	"guidewell/internal/domain/models"
	"guidewell/internal/domain/repositories"
)

// TreeService builds the nested folder/content tree for the library view.
type TreeService struct {
	folderRepo  repositories.FolderRepository
	contentRepo repositories.ContentRepository
	logger      *slog.Logger
}

// NewTreeService creates a new tree service
func NewTreeService(
	folderRepo repositories.FolderRepository,
	contentRepo repositories.ContentRepository,
	logger *slog.Logger,
) *TreeService {
	return &TreeService{
		folderRepo:  folderRepo,
		contentRepo: contentRepo,
		logger:      logger,
	}
}

// GetLibraryTree builds and returns the nested folder/content tree.
func (s *TreeService) GetLibraryTree(ctx context.Context) (*models.LibraryTree, error) {
	allFolders, err := s.folderRepo.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	allContent, err := s.contentRepo.GetAllMetadata(ctx)
	if err != nil {
		return nil, err
	}

	allMessages, err := s.contentRepo.GetAllMessages(ctx)
	if err != nil {
		return nil, err
	}

	tree := BuildTree(allFolders, allContent, allMessages)

	s.logger.Info("library tree built",
		"folder_count", len(allFolders),
		"content_count", len(allContent),
	)

	return tree, nil
}

// BuildTree assembles the nested tree from flat folder, content, and
// message lists. Input order is preserved within each level.
func BuildTree(folders []models.Folder, content []models.Content, messages []models.ContentMessage) *models.LibraryTree {
	// First pass: create all folder nodes
	folderMap := make(map[string]*models.FolderTreeNode)
	var rootFolderIDs []string
	for _, folder := range folders {
		folderMap[folder.ID] = &models.FolderTreeNode{
			ID:         folder.ID,
			Name:       folder.Name,
			Status:     folder.Status,
			CreatedAt:  folder.CreatedAt,
			Subfolders: []*models.FolderTreeNode{},
			Content:    []*models.ContentTreeNode{},
		}
	}

	// Second pass: nest folders by connecting children to parents.
	// Folders whose parent is missing (deleted) drop out of the tree.
	for _, folder := range folders {
		node := folderMap[folder.ID]
		if folder.ParentID == nil {
			rootFolderIDs = append(rootFolderIDs, folder.ID)
		} else if parent, exists := folderMap[*folder.ParentID]; exists {
			parent.Subfolders = append(parent.Subfolders, node)
		}
	}

	// Third pass: add content to folders
	contentMap := make(map[string]*models.ContentTreeNode)
	for _, item := range content {
		node := &models.ContentTreeNode{
			ID:        item.ID,
			Title:     item.Title,
			Status:    item.Status,
			Reviewer:  item.Reviewer,
			Price:     item.Price,
			FileCount: item.FileCount,
			CreatedAt: item.CreatedAt,
			Messages:  []models.MessageTreeNode{},
		}
		contentMap[item.ID] = node

		if parent, exists := folderMap[item.FolderID]; exists {
			parent.Content = append(parent.Content, node)
			parent.FileCount++
		}
	}

	// Fourth pass: add message threads to content
	for _, msg := range messages {
		if parent, exists := contentMap[msg.ContentID]; exists {
			parent.Messages = append(parent.Messages, models.MessageTreeNode{
				ID:        msg.ID,
				Title:     msg.Title,
				Status:    msg.Status,
				CreatedAt: msg.CreatedAt,
			})
		}
	}

	rootFolders := make([]*models.FolderTreeNode, 0, len(rootFolderIDs))
	for _, folderID := range rootFolderIDs {
		rootFolders = append(rootFolders, folderMap[folderID])
	}

	return &models.LibraryTree{Folders: rootFolders}
}
