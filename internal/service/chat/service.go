// Package chat implements chat session management and search preparation.
package chat

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
	domainguide "guidewell/internal/domain/services/guide"
)

// SearchRequest is a validated guide search submission.
type SearchRequest struct {
	UserID     string
	UserPrompt string
	Model      string

	// IsNew starts a fresh chat. Mutually exclusive with RegenerateID.
	IsNew bool

	// ChatID targets an existing chat when IsNew is false.
	ChatID string

	// RegenerateID re-answers an existing result in place.
	RegenerateID string

	// AttachmentName is the filename of an uploaded attachment, if any.
	AttachmentName string
}

// SearchPreparation is everything the streaming layer needs to answer a
// prepared search: the persisted result row plus conversation context.
type SearchPreparation struct {
	Chat         *models.Chat
	Result       *models.Result
	History      []domainguide.Message
	IsRegenerate bool
}

// Transcript is a chat with its results in chronological order.
type Transcript struct {
	Chat    *models.Chat    `json:"chat"`
	Results []models.Result `json:"results"`
}

// Service handles chat sessions and search preparation.
type Service struct {
	chatRepo   repositories.ChatRepository
	resultRepo repositories.ResultRepository
	logger     *slog.Logger
}

// NewService creates a new chat service
func NewService(
	chatRepo repositories.ChatRepository,
	resultRepo repositories.ResultRepository,
	logger *slog.Logger,
) *Service {
	return &Service{
		chatRepo:   chatRepo,
		resultRepo: resultRepo,
		logger:     logger,
	}
}

// PrepareSearch validates a search submission and persists the result row
// the answer will stream into. For new chats it creates the chat first,
// titled from the prompt. For regenerate it resets the existing result in
// place. History carries the prior completed exchanges of the chat.
func (s *Service) PrepareSearch(ctx context.Context, req *SearchRequest) (*SearchPreparation, error) {
	if err := s.validateSearchRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	if req.RegenerateID != "" {
		return s.prepareRegenerate(ctx, req)
	}

	var chat *models.Chat
	var err error

	if req.IsNew {
		chat = &models.Chat{
			ID:        uuid.NewString(),
			UserID:    req.UserID,
			Title:     deriveTitle(req.UserPrompt),
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		}
		if err := s.chatRepo.CreateChat(ctx, chat); err != nil {
			return nil, err
		}

		s.logger.Info("chat created",
			"chat_id", chat.ID,
			"title", chat.Title,
			"user_id", req.UserID,
		)
	} else {
		chat, err = s.chatRepo.GetChat(ctx, req.ChatID, req.UserID)
		if err != nil {
			return nil, err
		}
	}

	history, err := s.buildHistory(ctx, chat.ID, "")
	if err != nil {
		return nil, err
	}

	var attachment *string
	if req.AttachmentName != "" {
		attachment = &req.AttachmentName
	}

	result := &models.Result{
		ID:             uuid.NewString(),
		ChatID:         chat.ID,
		Query:          req.UserPrompt,
		Status:         models.ResultStatusStreaming,
		AttachmentName: attachment,
		CreatedAt:      time.Now(),
	}
	if err := s.resultRepo.CreateResult(ctx, result); err != nil {
		return nil, err
	}

	return &SearchPreparation{
		Chat:    chat,
		Result:  result,
		History: history,
	}, nil
}

// prepareRegenerate resets the targeted result. The result keeps its ID;
// the answer, error, and completion timestamp are cleared.
func (s *Service) prepareRegenerate(ctx context.Context, req *SearchRequest) (*SearchPreparation, error) {
	result, err := s.resultRepo.GetResult(ctx, req.RegenerateID)
	if err != nil {
		return nil, err
	}

	// Ownership check goes through the chat
	chat, err := s.chatRepo.GetChat(ctx, result.ChatID, req.UserID)
	if err != nil {
		return nil, err
	}

	if err := s.resultRepo.ResetForRegenerate(ctx, result.ID); err != nil {
		return nil, err
	}
	result.Answer = ""
	result.Status = models.ResultStatusStreaming
	result.Error = nil
	result.CompletedAt = nil

	// History stops before the regenerated result: later exchanges must
	// not leak into the new answer's context.
	history, err := s.buildHistory(ctx, chat.ID, result.ID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("result regenerate prepared",
		"result_id", result.ID,
		"chat_id", chat.ID,
		"user_id", req.UserID,
	)

	return &SearchPreparation{
		Chat:         chat,
		Result:       result,
		History:      history,
		IsRegenerate: true,
	}, nil
}

// buildHistory converts the chat's completed results into provider
// messages. When stopBefore is set, results from that ID on are excluded.
func (s *Service) buildHistory(ctx context.Context, chatID, stopBefore string) ([]domainguide.Message, error) {
	results, err := s.resultRepo.ListByChat(ctx, chatID)
	if err != nil {
		return nil, err
	}

	messages := make([]domainguide.Message, 0, len(results)*2)
	for _, r := range results {
		if stopBefore != "" && r.ID == stopBefore {
			break
		}
		if r.Status != models.ResultStatusComplete {
			continue
		}
		messages = append(messages,
			domainguide.Message{Role: domainguide.RoleUser, Content: r.Query},
			domainguide.Message{Role: domainguide.RoleAssistant, Content: r.Answer},
		)
	}

	return messages, nil
}

// ListChats retrieves the user's chat summaries, newest first.
func (s *Service) ListChats(ctx context.Context, userID string) ([]models.ChatSummary, error) {
	return s.chatRepo.ListChats(ctx, userID)
}

// GetTranscript retrieves a chat and its results in order.
func (s *Service) GetTranscript(ctx context.Context, chatID, userID string) (*Transcript, error) {
	chat, err := s.chatRepo.GetChat(ctx, chatID, userID)
	if err != nil {
		return nil, err
	}

	results, err := s.resultRepo.ListByChat(ctx, chatID)
	if err != nil {
		return nil, err
	}

	return &Transcript{
		Chat:    chat,
		Results: results,
	}, nil
}

// RenameChat updates a chat's title.
func (s *Service) RenameChat(ctx context.Context, chatID, userID, title string) (*models.Chat, error) {
	title = strings.TrimSpace(title)
	if err := validation.Validate(title,
		validation.Required,
		validation.Length(1, config.MaxChatTitleLength),
	); err != nil {
		return nil, fmt.Errorf("%w: title: %v", domain.ErrValidation, err)
	}

	chat, err := s.chatRepo.GetChat(ctx, chatID, userID)
	if err != nil {
		return nil, err
	}

	if err := s.chatRepo.UpdateTitle(ctx, chatID, userID, title); err != nil {
		return nil, err
	}
	chat.Title = title
	chat.UpdatedAt = time.Now()

	s.logger.Info("chat renamed",
		"chat_id", chat.ID,
		"title", chat.Title,
		"user_id", userID,
	)

	return chat, nil
}

// DeleteChat soft-deletes a chat.
func (s *Service) DeleteChat(ctx context.Context, chatID, userID string) (*models.Chat, error) {
	deleted, err := s.chatRepo.DeleteChat(ctx, chatID, userID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("chat deleted",
		"chat_id", chatID,
		"user_id", userID,
	)

	return deleted, nil
}

func (s *Service) validateSearchRequest(req *SearchRequest) error {
	if err := validation.ValidateStruct(req,
		validation.Field(&req.UserID, validation.Required),
		validation.Field(&req.UserPrompt,
			validation.Required,
			validation.Length(1, config.MaxPromptLength),
		),
	); err != nil {
		return err
	}

	if req.IsNew && req.RegenerateID != "" {
		return fmt.Errorf("is_new and regenerate_id are mutually exclusive")
	}
	if !req.IsNew && req.ChatID == "" && req.RegenerateID == "" {
		return fmt.Errorf("chat_id is required when is_new is false")
	}

	return nil
}

// deriveTitle builds a chat title from the first prompt, truncated on a
// word boundary where possible.
func deriveTitle(prompt string) string {
	title := strings.Join(strings.Fields(prompt), " ")
	const maxLen = 80

	if len(title) <= maxLen {
		return title
	}

	cut := title[:maxLen]
	if idx := strings.LastIndex(cut, " "); idx > maxLen/2 {
		cut = cut[:idx]
	}
	return cut + "…"
}
