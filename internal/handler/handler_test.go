package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"guidewell/internal/domain"
	"guidewell/internal/domain/models"
	"guidewell/internal/httputil"
	chatSvc "guidewell/internal/service/chat"
)

type stubChatRepo struct {
	chats map[string]*models.Chat
}

func newStubChatRepo() *stubChatRepo {
	return &stubChatRepo{chats: make(map[string]*models.Chat)}
}

func (r *stubChatRepo) CreateChat(ctx context.Context, chat *models.Chat) error {
	r.chats[chat.ID] = chat
	return nil
}

func (r *stubChatRepo) GetChat(ctx context.Context, chatID, userID string) (*models.Chat, error) {
	chat, ok := r.chats[chatID]
	if !ok || chat.UserID != userID {
		return nil, fmt.Errorf("chat %s: %w", chatID, domain.ErrNotFound)
	}
	return chat, nil
}

func (r *stubChatRepo) ListChats(ctx context.Context, userID string) ([]models.ChatSummary, error) {
	var summaries []models.ChatSummary
	for _, c := range r.chats {
		if c.UserID == userID {
			summaries = append(summaries, models.ChatSummary{ID: c.ID, Title: c.Title})
		}
	}
	return summaries, nil
}

func (r *stubChatRepo) UpdateTitle(ctx context.Context, chatID, userID, title string) error {
	chat, err := r.GetChat(ctx, chatID, userID)
	if err != nil {
		return err
	}
	chat.Title = title
	return nil
}

func (r *stubChatRepo) DeleteChat(ctx context.Context, chatID, userID string) (*models.Chat, error) {
	chat, err := r.GetChat(ctx, chatID, userID)
	if err != nil {
		return nil, err
	}
	delete(r.chats, chatID)
	return chat, nil
}

type stubResultRepo struct{}

func (r *stubResultRepo) CreateResult(ctx context.Context, result *models.Result) error { return nil }
func (r *stubResultRepo) GetResult(ctx context.Context, resultID string) (*models.Result, error) {
	return nil, fmt.Errorf("result %s: %w", resultID, domain.ErrNotFound)
}
func (r *stubResultRepo) ListByChat(ctx context.Context, chatID string) ([]models.Result, error) {
	return nil, nil
}
func (r *stubResultRepo) ResetForRegenerate(ctx context.Context, resultID string) error { return nil }
func (r *stubResultRepo) FinishResult(ctx context.Context, resultID, answer, status string, errText *string, model string) error {
	return nil
}

func asUser(r *http.Request, userID, role string) *http.Request {
	return httputil.WithUser(r, userID, role)
}

func newChatHandler() (*ChatHandler, *stubChatRepo) {
	repo := newStubChatRepo()
	svc := chatSvc.NewService(repo, &stubResultRepo{}, slog.Default())
	return NewChatHandler(svc, slog.Default()), repo
}

func TestListChatsRequiresUser(t *testing.T) {
	h, _ := newChatHandler()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/chats", nil)
	h.ListChats(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401 without authenticated user", rec.Code)
	}
}

func TestListChatsReturnsUserChats(t *testing.T) {
	h, repo := newChatHandler()
	repo.chats["chat-1"] = &models.Chat{ID: "chat-1", UserID: "user-1", Title: "gut health"}
	repo.chats["chat-2"] = &models.Chat{ID: "chat-2", UserID: "someone-else", Title: "hidden"}

	rec := httptest.NewRecorder()
	req := asUser(httptest.NewRequest(http.MethodGet, "/api/chats", nil), "user-1", models.RoleMember)
	h.ListChats(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	var out struct {
		Chats []models.ChatSummary `json:"chats"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(out.Chats) != 1 || out.Chats[0].ID != "chat-1" {
		t.Errorf("chats = %+v, want only chat-1", out.Chats)
	}
}

func TestRenameChatRoundTrip(t *testing.T) {
	h, repo := newChatHandler()
	repo.chats["chat-1"] = &models.Chat{ID: "chat-1", UserID: "user-1", Title: "old"}

	mux := http.NewServeMux()
	mux.HandleFunc("PATCH /api/chats/{id}", h.RenameChat)

	body := strings.NewReader(`{"chat_title": "renamed"}`)
	req := asUser(httptest.NewRequest(http.MethodPatch, "/api/chats/chat-1", body), "user-1", models.RoleMember)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if repo.chats["chat-1"].Title != "renamed" {
		t.Errorf("stored title = %q, want renamed", repo.chats["chat-1"].Title)
	}
}

func TestRenameChatRejectsBadBody(t *testing.T) {
	h, _ := newChatHandler()

	mux := http.NewServeMux()
	mux.HandleFunc("PATCH /api/chats/{id}", h.RenameChat)

	req := asUser(httptest.NewRequest(http.MethodPatch, "/api/chats/chat-1", strings.NewReader("{broken")), "user-1", models.RoleMember)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 on malformed body", rec.Code)
	}
}

func TestRequireCurator(t *testing.T) {
	tests := []struct {
		role string
		want bool
	}{
		{models.RoleMember, false},
		{models.RolePractitioner, true},
		{models.RoleAdmin, true},
	}
	for _, tt := range tests {
		t.Run(tt.role, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := asUser(httptest.NewRequest(http.MethodPost, "/api/folders", nil), "user-1", tt.role)

			if got := requireCurator(rec, req); got != tt.want {
				t.Fatalf("requireCurator(%s) = %v, want %v", tt.role, got, tt.want)
			}
			if !tt.want && rec.Code != http.StatusForbidden {
				t.Errorf("status = %d, want 403", rec.Code)
			}
		})
	}
}
