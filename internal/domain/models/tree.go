package models

import "time"

// LibraryTree is the nested payload returned by the library tree
// endpoint and consumed by the client's Normalize.
type LibraryTree struct {
	Folders []*FolderTreeNode `json:"folders"`
}

// FolderTreeNode is a folder with its children nested in place.
type FolderTreeNode struct {
	ID         string             `json:"id"`
	Name       string             `json:"title"`
	Status     string             `json:"status"`
	FileCount  int                `json:"fileCount"`
	CreatedAt  time.Time          `json:"created_at"`
	Subfolders []*FolderTreeNode  `json:"subfolders"`
	Content    []*ContentTreeNode `json:"content"`
}

// ContentTreeNode is a content leaf in the tree (metadata only, no body).
type ContentTreeNode struct {
	ID        string            `json:"id"`
	Title     string            `json:"title"`
	Status    string            `json:"status"`
	Reviewer  *string           `json:"reviewer,omitempty"`
	Price     *string           `json:"price,omitempty"`
	FileCount int               `json:"fileCount"`
	CreatedAt time.Time         `json:"created_at"`
	Messages  []MessageTreeNode `json:"messages,omitempty"`
}

// MessageTreeNode is one thread entry under a content node.
type MessageTreeNode struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}
