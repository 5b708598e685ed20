package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"guidewell/internal/capabilities"
	"guidewell/internal/config"
	"guidewell/internal/domain"
	"guidewell/internal/domain/models"
	"guidewell/internal/domain/repositories"
	"guidewell/internal/domain/services/guide"
	"guidewell/internal/httputil"
	chatSvc "guidewell/internal/service/chat"
	guideSvc "guidewell/internal/service/guide"
	"guidewell/internal/service/stream"
)

// systemPrompt frames every guide answer. Answers are informational, not
// medical advice.
const systemPrompt = "You are a wellness guide. Answer health and lifestyle questions " +
	"clearly and cautiously, and remind users to consult a professional for " +
	"medical decisions."

// searchPayload is the JSON carried in the "data" part of a search submission.
type searchPayload struct {
	UserPrompt   string `json:"user_prompt"`
	IsNew        bool   `json:"is_new"`
	ChatID       string `json:"chat_id"`
	RegenerateID string `json:"regenerate_id"`
	Model        string `json:"model"`
}

// GuideHandler handles search submissions and streams answers over SSE.
type GuideHandler struct {
	chatService  *chatSvc.Service
	resultRepo   repositories.ResultRepository
	providers    *guideSvc.ProviderRegistry
	streams      *stream.Registry
	capabilities *capabilities.Registry
	cfg          *config.Config
	logger       *slog.Logger
}

// NewGuideHandler creates a new guide handler
func NewGuideHandler(
	chatService *chatSvc.Service,
	resultRepo repositories.ResultRepository,
	providers *guideSvc.ProviderRegistry,
	streams *stream.Registry,
	capabilityRegistry *capabilities.Registry,
	cfg *config.Config,
	logger *slog.Logger,
) *GuideHandler {
	return &GuideHandler{
		chatService:  chatService,
		resultRepo:   resultRepo,
		providers:    providers,
		streams:      streams,
		capabilities: capabilityRegistry,
		cfg:          cfg,
		logger:       logger,
	}
}

// Search handles POST /api/guide/search.
//
// The request is multipart form data: a "data" part with the JSON search
// payload and an optional "file" attachment. The response is an SSE stream;
// the first envelope carries the result and chat IDs, each following
// envelope carries one reply fragment.
func (h *GuideHandler) Search(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(config.MaxAttachmentBytes); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	var payload searchPayload
	if err := json.Unmarshal([]byte(r.FormValue("data")), &payload); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid data part")
		return
	}

	attachmentName := ""
	if file, header, err := r.FormFile("file"); err == nil {
		file.Close()
		attachmentName = header.Filename
	}

	model := payload.Model
	if model == "" {
		model = h.cfg.DefaultModel
	}
	caps, err := h.capabilities.Get(model)
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, fmt.Sprintf("unknown model %q", model))
		return
	}
	if attachmentName != "" && !caps.SupportsAttachments {
		httputil.RespondError(w, http.StatusBadRequest, fmt.Sprintf("model %q does not accept attachments", model))
		return
	}

	provider, err := h.providers.GetProvider(caps.Provider)
	if err != nil {
		h.logger.Error("provider unavailable", "provider", caps.Provider, "error", err)
		httputil.RespondError(w, http.StatusServiceUnavailable, "answer provider unavailable")
		return
	}

	prep, err := h.chatService.PrepareSearch(r.Context(), &chatSvc.SearchRequest{
		UserID:         userID,
		UserPrompt:     payload.UserPrompt,
		Model:          model,
		IsNew:          payload.IsNew,
		ChatID:         payload.ChatID,
		RegenerateID:   payload.RegenerateID,
		AttachmentName: attachmentName,
	})
	if err != nil {
		handleError(w, err)
		return
	}

	// Flusher check comes before the executor is registered: bailing
	// out after Register would leave a never-started executor stuck in
	// streaming state, which the registry cleanup never ages out.
	flusher, ok := w.(http.Flusher)
	if !ok {
		httputil.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	executor := stream.NewAnswerExecutor(
		r.Context(),
		prep.Result.ID,
		model,
		h.resultRepo,
		provider,
		h.logger,
	)

	if prep.IsRegenerate {
		// Replace interrupts any still-running answer for this result
		h.streams.Replace(prep.Result.ID, executor)
	} else if !h.streams.Register(prep.Result.ID, executor) {
		handleError(w, &domain.ConflictError{
			Message:      "result is already streaming",
			ResourceType: "result",
			ResourceID:   prep.Result.ID,
		})
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	// First envelope identifies the result and chat before any reply text
	idEnvelope, err := models.NewIDEnvelope(prep.Result.ID, prep.Chat.ID).FormatSSE()
	if err != nil {
		h.logger.Error("failed to encode id envelope", "result_id", prep.Result.ID, "error", err)
		return
	}
	fmt.Fprint(w, idEnvelope)
	flusher.Flush()

	clientID := uuid.NewString()
	eventChan := executor.AddClient(clientID)
	defer executor.RemoveClient(clientID)

	executor.Start(&guide.GenerateRequest{
		Model:          model,
		System:         systemPrompt,
		Messages:       append(prep.History, guide.Message{Role: guide.RoleUser, Content: payload.UserPrompt}),
		MaxTokens:      caps.MaxAnswerTokens,
		AttachmentName: attachmentName,
	})

	h.logger.Info("answer stream started",
		"result_id", prep.Result.ID,
		"chat_id", prep.Chat.ID,
		"model", model,
		"regenerate", prep.IsRegenerate,
	)

	// Keepalive comments prevent proxy timeouts on slow answers
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case event, open := <-eventChan:
			if !open {
				h.streams.MarkCompleted(prep.Result.ID)
				return
			}
			fmt.Fprint(w, event)
			flusher.Flush()

		case <-ticker.C:
			fmt.Fprint(w, ": keepalive\n\n")
			flusher.Flush()

		case <-r.Context().Done():
			// Client went away; the executor keeps streaming to completion
			h.logger.Info("search client disconnected",
				"result_id", prep.Result.ID,
				"client_id", clientID,
			)
			return
		}
	}
}
