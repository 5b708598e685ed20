package library

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"testing"

	"guidewell/internal/domain"
	"guidewell/internal/domain/models"
	"guidewell/internal/domain/repositories"
)

type stubFolderRepo struct {
	folders map[string]*models.Folder
}

func (r *stubFolderRepo) Create(ctx context.Context, folder *models.Folder) error {
	r.folders[folder.ID] = folder
	return nil
}

func (r *stubFolderRepo) GetByID(ctx context.Context, id string) (*models.Folder, error) {
	folder, ok := r.folders[id]
	if !ok {
		return nil, fmt.Errorf("folder %s: %w", id, domain.ErrNotFound)
	}
	return folder, nil
}

func (r *stubFolderRepo) Update(ctx context.Context, folder *models.Folder) error { return nil }
func (r *stubFolderRepo) SoftDelete(ctx context.Context, id string) error         { return nil }
func (r *stubFolderRepo) GetAll(ctx context.Context) ([]models.Folder, error)     { return nil, nil }

type stubContentRepo struct {
	content map[string]*models.Content
	updated *models.Content
}

func (r *stubContentRepo) Create(ctx context.Context, content *models.Content) error {
	r.content[content.ID] = content
	return nil
}

func (r *stubContentRepo) GetByID(ctx context.Context, id string) (*models.Content, error) {
	content, ok := r.content[id]
	if !ok {
		return nil, fmt.Errorf("content %s: %w", id, domain.ErrNotFound)
	}
	copied := *content
	return &copied, nil
}

func (r *stubContentRepo) Update(ctx context.Context, content *models.Content) error {
	r.updated = content
	r.content[content.ID] = content
	return nil
}

func (r *stubContentRepo) Delete(ctx context.Context, id string) error           { return nil }
func (r *stubContentRepo) Move(ctx context.Context, id, folderID string) error   { return nil }
func (r *stubContentRepo) UpdateStatus(ctx context.Context, id, s string) error  { return nil }
func (r *stubContentRepo) GetAllMetadata(ctx context.Context) ([]models.Content, error) {
	return nil, nil
}
func (r *stubContentRepo) GetMessages(ctx context.Context, contentID string) ([]models.ContentMessage, error) {
	return nil, nil
}
func (r *stubContentRepo) GetAllMessages(ctx context.Context) ([]models.ContentMessage, error) {
	return nil, nil
}
func (r *stubContentRepo) CreateMessages(ctx context.Context, messages []models.ContentMessage) error {
	return nil
}

type noopTxManager struct{}

func (noopTxManager) ExecTx(ctx context.Context, fn repositories.TxFn) error {
	return fn(ctx)
}

func newTestService(contentRepo *stubContentRepo) *Service {
	return NewService(
		&stubFolderRepo{folders: make(map[string]*models.Folder)},
		contentRepo,
		noopTxManager{},
		NewDisabledPublisher(slog.Default()),
		slog.Default(),
	)
}

func TestUpdateContentPatchSemantics(t *testing.T) {
	tests := []struct {
		name         string
		body         string
		wantReviewer *string
		wantPrice    *string
	}{
		{
			name:         "absent fields unchanged",
			body:         `{"title": "New Title"}`,
			wantReviewer: strptr("dr-a"),
			wantPrice:    strptr("free"),
		},
		{
			name:         "null clears reviewer",
			body:         `{"reviewer": null}`,
			wantReviewer: nil,
			wantPrice:    strptr("free"),
		},
		{
			name:         "value replaces price",
			body:         `{"price": "premium"}`,
			wantReviewer: strptr("dr-a"),
			wantPrice:    strptr("premium"),
		},
		{
			name:         "null clears both",
			body:         `{"reviewer": null, "price": null}`,
			wantReviewer: nil,
			wantPrice:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			contentRepo := &stubContentRepo{content: map[string]*models.Content{
				"c1": {
					ID:       "c1",
					FolderID: "f1",
					Title:    "Old Title",
					Reviewer: strptr("dr-a"),
					Price:    strptr("free"),
				},
			}}
			svc := newTestService(contentRepo)

			var req UpdateContentRequest
			if err := json.Unmarshal([]byte(tt.body), &req); err != nil {
				t.Fatalf("decode request: %v", err)
			}

			updated, err := svc.UpdateContent(context.Background(), "c1", &req)
			if err != nil {
				t.Fatalf("UpdateContent: %v", err)
			}

			assertOptional(t, "reviewer", updated.Reviewer, tt.wantReviewer)
			assertOptional(t, "price", updated.Price, tt.wantPrice)
			if contentRepo.updated == nil {
				t.Fatal("update not persisted")
			}
			assertOptional(t, "persisted reviewer", contentRepo.updated.Reviewer, tt.wantReviewer)
		})
	}
}

func assertOptional(t *testing.T, field string, got, want *string) {
	t.Helper()
	switch {
	case want == nil && got != nil:
		t.Errorf("%s = %q, want cleared", field, *got)
	case want != nil && got == nil:
		t.Errorf("%s cleared, want %q", field, *want)
	case want != nil && got != nil && *got != *want:
		t.Errorf("%s = %q, want %q", field, *got, *want)
	}
}

func TestUpdateContentRejectsBlankTitle(t *testing.T) {
	contentRepo := &stubContentRepo{content: map[string]*models.Content{
		"c1": {ID: "c1", Title: "Kept"},
	}}
	svc := newTestService(contentRepo)

	_, err := svc.UpdateContent(context.Background(), "c1", &UpdateContentRequest{Title: strptr("   ")})
	if err == nil {
		t.Fatal("UpdateContent accepted a blank title")
	}
	if contentRepo.updated != nil {
		t.Error("rejected update was persisted")
	}
}
