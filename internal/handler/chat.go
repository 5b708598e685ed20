package handler

import (
	"log/slog"
	"net/http"

	"guidewell/internal/httputil"
	chatSvc "guidewell/internal/service/chat"
)

// ChatHandler handles chat history HTTP requests
type ChatHandler struct {
	chatService *chatSvc.Service
	logger      *slog.Logger
}

// NewChatHandler creates a new chat handler
func NewChatHandler(chatService *chatSvc.Service, logger *slog.Logger) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
		logger:      logger,
	}
}

// ListChats handles GET /api/chats.
// Returns the user's chat summaries, newest first.
func (h *ChatHandler) ListChats(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	summaries, err := h.chatService.ListChats(r.Context(), userID)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]any{"chats": summaries})
}

// GetChat handles GET /api/chats/{id}.
// Returns the chat with its full transcript.
func (h *ChatHandler) GetChat(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	chatID := r.PathValue("id")
	if chatID == "" {
		httputil.RespondError(w, http.StatusBadRequest, "chat ID is required")
		return
	}

	transcript, err := h.chatService.GetTranscript(r.Context(), chatID, userID)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, transcript)
}

// RenameChat handles PATCH /api/chats/{id}.
func (h *ChatHandler) RenameChat(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	chatID := r.PathValue("id")
	if chatID == "" {
		httputil.RespondError(w, http.StatusBadRequest, "chat ID is required")
		return
	}

	var req struct {
		Title string `json:"chat_title"`
	}
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	chat, err := h.chatService.RenameChat(r.Context(), chatID, userID, req.Title)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, chat)
}

// DeleteChat handles DELETE /api/chats/{id}.
func (h *ChatHandler) DeleteChat(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	chatID := r.PathValue("id")
	if chatID == "" {
		httputil.RespondError(w, http.StatusBadRequest, "chat ID is required")
		return
	}

	deleted, err := h.chatService.DeleteChat(r.Context(), chatID, userID)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, deleted)
}
