package handler

import (
	"log/slog"
	"net/http"

	"guidewell/internal/domain"
	"guidewell/internal/domain/models"
	"guidewell/internal/httputil"
	librarySvc "guidewell/internal/service/library"
)

// LibraryHandler handles folder and content HTTP requests.
// Mutating operations require a curator role (practitioner or admin);
// the tree and content reads are open to any authenticated user.
type LibraryHandler struct {
	libraryService *librarySvc.Service
	treeService    *librarySvc.TreeService
	logger         *slog.Logger
}

// NewLibraryHandler creates a new library handler
func NewLibraryHandler(
	libraryService *librarySvc.Service,
	treeService *librarySvc.TreeService,
	logger *slog.Logger,
) *LibraryHandler {
	return &LibraryHandler{
		libraryService: libraryService,
		treeService:    treeService,
		logger:         logger,
	}
}

// requireCurator rejects the request unless the caller can curate content.
func requireCurator(w http.ResponseWriter, r *http.Request) bool {
	if !models.CanCurate(httputil.GetRole(r)) {
		handleError(w, &domain.ForbiddenError{Message: "curator role required"})
		return false
	}
	return true
}

// GetTree handles GET /api/library/tree.
func (h *LibraryHandler) GetTree(w http.ResponseWriter, r *http.Request) {
	tree, err := h.treeService.GetLibraryTree(r.Context())
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, tree)
}

// CreateFolder handles POST /api/folders.
func (h *LibraryHandler) CreateFolder(w http.ResponseWriter, r *http.Request) {
	if !requireCurator(w, r) {
		return
	}

	var req librarySvc.CreateFolderRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	folder, err := h.libraryService.CreateFolder(r.Context(), &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, folder)
}

// RenameFolder handles PATCH /api/folders/{id}.
func (h *LibraryHandler) RenameFolder(w http.ResponseWriter, r *http.Request) {
	if !requireCurator(w, r) {
		return
	}

	folderID := r.PathValue("id")
	if folderID == "" {
		httputil.RespondError(w, http.StatusBadRequest, "folder ID is required")
		return
	}

	var req struct {
		Name string `json:"name"`
	}
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	folder, err := h.libraryService.RenameFolder(r.Context(), folderID, req.Name)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, folder)
}

// DeleteFolder handles DELETE /api/folders/{id}.
func (h *LibraryHandler) DeleteFolder(w http.ResponseWriter, r *http.Request) {
	if !requireCurator(w, r) {
		return
	}

	folderID := r.PathValue("id")
	if folderID == "" {
		httputil.RespondError(w, http.StatusBadRequest, "folder ID is required")
		return
	}

	if err := h.libraryService.DeleteFolder(r.Context(), folderID); err != nil {
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// CreateContent handles POST /api/content.
func (h *LibraryHandler) CreateContent(w http.ResponseWriter, r *http.Request) {
	if !requireCurator(w, r) {
		return
	}

	var req librarySvc.CreateContentRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	content, err := h.libraryService.CreateContent(r.Context(), &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, content)
}

// GetContent handles GET /api/content/{id}.
func (h *LibraryHandler) GetContent(w http.ResponseWriter, r *http.Request) {
	contentID := r.PathValue("id")
	if contentID == "" {
		httputil.RespondError(w, http.StatusBadRequest, "content ID is required")
		return
	}

	detail, err := h.libraryService.GetContent(r.Context(), contentID)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, detail)
}

// UpdateContent handles PATCH /api/content/{id}.
func (h *LibraryHandler) UpdateContent(w http.ResponseWriter, r *http.Request) {
	if !requireCurator(w, r) {
		return
	}

	contentID := r.PathValue("id")
	if contentID == "" {
		httputil.RespondError(w, http.StatusBadRequest, "content ID is required")
		return
	}

	var req librarySvc.UpdateContentRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	content, err := h.libraryService.UpdateContent(r.Context(), contentID, &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, content)
}

// DeleteContent handles DELETE /api/content/{id}.
func (h *LibraryHandler) DeleteContent(w http.ResponseWriter, r *http.Request) {
	if !requireCurator(w, r) {
		return
	}

	contentID := r.PathValue("id")
	if contentID == "" {
		httputil.RespondError(w, http.StatusBadRequest, "content ID is required")
		return
	}

	if err := h.libraryService.DeleteContent(r.Context(), contentID); err != nil {
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// MoveContent handles POST /api/content/{id}/move.
func (h *LibraryHandler) MoveContent(w http.ResponseWriter, r *http.Request) {
	if !requireCurator(w, r) {
		return
	}

	contentID := r.PathValue("id")
	if contentID == "" {
		httputil.RespondError(w, http.StatusBadRequest, "content ID is required")
		return
	}

	var req struct {
		FolderID string `json:"folder_id"`
	}
	if err := httputil.ParseJSON(w, r, &req); err != nil || req.FolderID == "" {
		httputil.RespondError(w, http.StatusBadRequest, "folder_id is required")
		return
	}

	if err := h.libraryService.MoveContent(r.Context(), contentID, req.FolderID); err != nil {
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DuplicateContent handles POST /api/content/{id}/duplicate.
func (h *LibraryHandler) DuplicateContent(w http.ResponseWriter, r *http.Request) {
	if !requireCurator(w, r) {
		return
	}

	contentID := r.PathValue("id")
	if contentID == "" {
		httputil.RespondError(w, http.StatusBadRequest, "content ID is required")
		return
	}

	copied, err := h.libraryService.DuplicateContent(r.Context(), contentID)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, copied)
}

// UpdateContentStatus handles POST /api/content/{id}/status.
func (h *LibraryHandler) UpdateContentStatus(w http.ResponseWriter, r *http.Request) {
	if !requireCurator(w, r) {
		return
	}

	contentID := r.PathValue("id")
	if contentID == "" {
		httputil.RespondError(w, http.StatusBadRequest, "content ID is required")
		return
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	content, err := h.libraryService.UpdateContentStatus(r.Context(), contentID, req.Status)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, content)
}
