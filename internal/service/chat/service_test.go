package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"
	"time"

	"guidewell/internal/domain"
	"guidewell/internal/domain/models"
	domainguide "guidewell/internal/domain/services/guide"
)

type memChatRepo struct {
	chats map[string]*models.Chat
}

func newMemChatRepo() *memChatRepo {
	return &memChatRepo{chats: make(map[string]*models.Chat)}
}

func (r *memChatRepo) CreateChat(ctx context.Context, chat *models.Chat) error {
	r.chats[chat.ID] = chat
	return nil
}

func (r *memChatRepo) GetChat(ctx context.Context, chatID, userID string) (*models.Chat, error) {
	chat, ok := r.chats[chatID]
	if !ok || chat.UserID != userID || chat.DeletedAt != nil {
		return nil, fmt.Errorf("chat %s: %w", chatID, domain.ErrNotFound)
	}
	return chat, nil
}

func (r *memChatRepo) ListChats(ctx context.Context, userID string) ([]models.ChatSummary, error) {
	var summaries []models.ChatSummary
	for _, c := range r.chats {
		if c.UserID == userID && c.DeletedAt == nil {
			summaries = append(summaries, models.ChatSummary{ID: c.ID, Title: c.Title, CreatedAt: c.CreatedAt})
		}
	}
	return summaries, nil
}

func (r *memChatRepo) UpdateTitle(ctx context.Context, chatID, userID, title string) error {
	chat, err := r.GetChat(ctx, chatID, userID)
	if err != nil {
		return err
	}
	chat.Title = title
	chat.UpdatedAt = time.Now()
	return nil
}

func (r *memChatRepo) DeleteChat(ctx context.Context, chatID, userID string) (*models.Chat, error) {
	chat, err := r.GetChat(ctx, chatID, userID)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	chat.DeletedAt = &now
	return chat, nil
}

type memResultRepo struct {
	results []*models.Result
	resets  []string
}

func (r *memResultRepo) CreateResult(ctx context.Context, result *models.Result) error {
	r.results = append(r.results, result)
	return nil
}

func (r *memResultRepo) GetResult(ctx context.Context, resultID string) (*models.Result, error) {
	for _, res := range r.results {
		if res.ID == resultID {
			return res, nil
		}
	}
	return nil, fmt.Errorf("result %s: %w", resultID, domain.ErrNotFound)
}

func (r *memResultRepo) ListByChat(ctx context.Context, chatID string) ([]models.Result, error) {
	var out []models.Result
	for _, res := range r.results {
		if res.ChatID == chatID {
			out = append(out, *res)
		}
	}
	return out, nil
}

func (r *memResultRepo) ResetForRegenerate(ctx context.Context, resultID string) error {
	r.resets = append(r.resets, resultID)
	return nil
}

func (r *memResultRepo) FinishResult(ctx context.Context, resultID, answer, status string, errText *string, model string) error {
	res, err := r.GetResult(ctx, resultID)
	if err != nil {
		return err
	}
	res.Answer = answer
	res.Status = status
	res.Error = errText
	return nil
}

func newService(chatRepo *memChatRepo, resultRepo *memResultRepo) *Service {
	return NewService(chatRepo, resultRepo, slog.Default())
}

func TestPrepareSearchNewChat(t *testing.T) {
	chatRepo := newMemChatRepo()
	resultRepo := &memResultRepo{}
	svc := newService(chatRepo, resultRepo)

	prep, err := svc.PrepareSearch(context.Background(), &SearchRequest{
		UserID:     "user-1",
		UserPrompt: "what is IBS?",
		IsNew:      true,
	})
	if err != nil {
		t.Fatalf("PrepareSearch: %v", err)
	}

	if prep.Chat == nil || prep.Chat.Title != "what is IBS?" {
		t.Errorf("chat title not derived from prompt: %+v", prep.Chat)
	}
	if prep.Result.ChatID != prep.Chat.ID {
		t.Error("result not attached to new chat")
	}
	if prep.Result.Status != models.ResultStatusStreaming {
		t.Errorf("result status = %q, want streaming", prep.Result.Status)
	}
	if len(prep.History) != 0 {
		t.Errorf("new chat has history: %v", prep.History)
	}
	if prep.IsRegenerate {
		t.Error("IsRegenerate set on fresh search")
	}
}

func TestPrepareSearchContinuesChatWithHistory(t *testing.T) {
	chatRepo := newMemChatRepo()
	resultRepo := &memResultRepo{}
	svc := newService(chatRepo, resultRepo)

	chatRepo.chats["chat-1"] = &models.Chat{ID: "chat-1", UserID: "user-1", Title: "gut health"}
	resultRepo.results = []*models.Result{
		{ID: "r1", ChatID: "chat-1", Query: "what is IBS?", Answer: "IBS is a condition.", Status: models.ResultStatusComplete},
		{ID: "r2", ChatID: "chat-1", Query: "failed one", Status: models.ResultStatusError},
	}

	prep, err := svc.PrepareSearch(context.Background(), &SearchRequest{
		UserID:     "user-1",
		UserPrompt: "how is it treated?",
		ChatID:     "chat-1",
	})
	if err != nil {
		t.Fatalf("PrepareSearch: %v", err)
	}

	want := []domainguide.Message{
		{Role: domainguide.RoleUser, Content: "what is IBS?"},
		{Role: domainguide.RoleAssistant, Content: "IBS is a condition."},
	}
	if len(prep.History) != len(want) {
		t.Fatalf("history length = %d, want %d (errored results excluded)", len(prep.History), len(want))
	}
	for i := range want {
		if prep.History[i] != want[i] {
			t.Errorf("history[%d] = %+v, want %+v", i, prep.History[i], want[i])
		}
	}
}

func TestPrepareSearchRegenerate(t *testing.T) {
	chatRepo := newMemChatRepo()
	resultRepo := &memResultRepo{}
	svc := newService(chatRepo, resultRepo)

	chatRepo.chats["chat-1"] = &models.Chat{ID: "chat-1", UserID: "user-1"}
	resultRepo.results = []*models.Result{
		{ID: "r1", ChatID: "chat-1", Query: "q1", Answer: "a1", Status: models.ResultStatusComplete},
		{ID: "r2", ChatID: "chat-1", Query: "q2", Answer: "a2", Status: models.ResultStatusComplete},
		{ID: "r3", ChatID: "chat-1", Query: "q3", Answer: "a3", Status: models.ResultStatusComplete},
	}

	prep, err := svc.PrepareSearch(context.Background(), &SearchRequest{
		UserID:       "user-1",
		UserPrompt:   "q2",
		RegenerateID: "r2",
	})
	if err != nil {
		t.Fatalf("PrepareSearch: %v", err)
	}

	if !prep.IsRegenerate {
		t.Error("IsRegenerate not set")
	}
	if prep.Result.ID != "r2" {
		t.Errorf("regenerate changed result ID: %s", prep.Result.ID)
	}
	if prep.Result.Answer != "" || prep.Result.Status != models.ResultStatusStreaming {
		t.Errorf("result not reset: %+v", prep.Result)
	}
	if len(resultRepo.resets) != 1 || resultRepo.resets[0] != "r2" {
		t.Errorf("ResetForRegenerate calls = %v", resultRepo.resets)
	}

	// Only the exchange before r2 may appear in the context
	if len(prep.History) != 2 {
		t.Fatalf("history length = %d, want 2", len(prep.History))
	}
	if prep.History[0].Content != "q1" || prep.History[1].Content != "a1" {
		t.Errorf("history includes results at or after the regenerated one: %+v", prep.History)
	}
}

func TestPrepareSearchValidation(t *testing.T) {
	svc := newService(newMemChatRepo(), &memResultRepo{})

	tests := []struct {
		name string
		req  *SearchRequest
	}{
		{"empty prompt", &SearchRequest{UserID: "u", IsNew: true}},
		{"missing user", &SearchRequest{UserPrompt: "q", IsNew: true}},
		{"no chat target", &SearchRequest{UserID: "u", UserPrompt: "q"}},
		{"is_new with regenerate", &SearchRequest{UserID: "u", UserPrompt: "q", IsNew: true, RegenerateID: "r"}},
		{"prompt too long", &SearchRequest{UserID: "u", UserPrompt: strings.Repeat("a", 8001), IsNew: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.PrepareSearch(context.Background(), tt.req)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), domain.ErrValidation.Error()) {
				t.Errorf("error = %v, want validation error", err)
			}
		})
	}
}

func TestRegenerateRejectsForeignChat(t *testing.T) {
	chatRepo := newMemChatRepo()
	resultRepo := &memResultRepo{}
	svc := newService(chatRepo, resultRepo)

	chatRepo.chats["chat-1"] = &models.Chat{ID: "chat-1", UserID: "owner"}
	resultRepo.results = []*models.Result{
		{ID: "r1", ChatID: "chat-1", Query: "q", Status: models.ResultStatusComplete},
	}

	_, err := svc.PrepareSearch(context.Background(), &SearchRequest{
		UserID:       "intruder",
		UserPrompt:   "q",
		RegenerateID: "r1",
	})
	if err == nil {
		t.Fatal("expected error for foreign chat")
	}
}

func TestRenameChat(t *testing.T) {
	chatRepo := newMemChatRepo()
	resultRepo := &memResultRepo{}
	svc := newService(chatRepo, resultRepo)

	chatRepo.chats["chat-1"] = &models.Chat{ID: "chat-1", UserID: "user-1", Title: "old title"}

	renamed, err := svc.RenameChat(context.Background(), "chat-1", "user-1", "  new title  ")
	if err != nil {
		t.Fatalf("RenameChat: %v", err)
	}
	if renamed.Title != "new title" {
		t.Errorf("returned title = %q, want trimmed rename", renamed.Title)
	}
	if chatRepo.chats["chat-1"].Title != "new title" {
		t.Errorf("stored title = %q, rename not persisted", chatRepo.chats["chat-1"].Title)
	}

	if _, err := svc.RenameChat(context.Background(), "chat-1", "user-2", "hijack"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("foreign rename error = %v, want ErrNotFound", err)
	}
	if _, err := svc.RenameChat(context.Background(), "chat-1", "user-1", "   "); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("blank title error = %v, want ErrValidation", err)
	}
}

func TestDeriveTitle(t *testing.T) {
	tests := []struct {
		name   string
		prompt string
		want   string
	}{
		{"short prompt kept", "what is IBS?", "what is IBS?"},
		{"whitespace collapsed", "  what   is\nIBS?  ", "what is IBS?"},
		{
			"long prompt truncated on word boundary",
			strings.Repeat("word ", 30),
			strings.TrimSpace(strings.Repeat("word ", 16)) + "…",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := deriveTitle(tt.prompt); got != tt.want {
				t.Errorf("deriveTitle(%q) = %q, want %q", tt.prompt, got, tt.want)
			}
		})
	}
}
