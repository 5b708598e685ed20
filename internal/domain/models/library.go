package models

import (
	"time"
)

// Moderation states for library folders and content. Content moves
// through review before going live; folders only use a subset (raw,
// live, archived) but share the column type.
const (
	StatusRaw                   = "raw"
	StatusReadyForReview        = "ready_for_review"
	StatusSecondReviewRequested = "second_review_requested"
	StatusWaiting               = "waiting"
	StatusReadyToPublish        = "ready_to_publish"
	StatusLive                  = "live"
	StatusArchived              = "archived"
	StatusRejected              = "rejected"
)

// Statuses lists every valid moderation state, in review order.
var Statuses = []string{
	StatusRaw,
	StatusReadyForReview,
	StatusSecondReviewRequested,
	StatusWaiting,
	StatusReadyToPublish,
	StatusLive,
	StatusArchived,
	StatusRejected,
}

// IsValidStatus reports whether s is a known moderation state.
func IsValidStatus(s string) bool {
	for _, known := range Statuses {
		if s == known {
			return true
		}
	}
	return false
}

// Folder is one organizational node of the content library.
// ParentID nil means root level.
type Folder struct {
	ID        string     `json:"id" db:"id"`
	ParentID  *string    `json:"parent_id" db:"parent_id"`
	Name      string     `json:"name" db:"name"`
	Status    string     `json:"status" db:"status"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty" db:"deleted_at"`
}

// Content is a leaf document under a folder. A content item belongs to
// exactly one folder; move and duplicate change that ownership through
// the library service, never through tree consumers.
type Content struct {
	ID        string    `json:"id" db:"id"`
	FolderID  string    `json:"folder_id" db:"folder_id"`
	Title     string    `json:"title" db:"title"`
	Body      string    `json:"body" db:"body"`
	Status    string    `json:"status" db:"status"`
	Reviewer  *string   `json:"reviewer,omitempty" db:"reviewer"`
	Price     *string   `json:"price,omitempty" db:"price"`
	FileCount int       `json:"file_count" db:"file_count"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// ContentMessage is one entry of the thread a content item can carry.
type ContentMessage struct {
	ID        string    `json:"id" db:"id"`
	ContentID string    `json:"content_id" db:"content_id"`
	Title     string    `json:"title" db:"title"`
	Body      string    `json:"body" db:"body"`
	Status    string    `json:"status" db:"status"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
