package handler

import (
	"log/slog"
	"net/http"

	"guidewell/internal/httputil"
	ratingSvc "guidewell/internal/service/rating"
)

// RatingHandler handles answer feedback HTTP requests
type RatingHandler struct {
	ratingService *ratingSvc.Service
	logger        *slog.Logger
}

// NewRatingHandler creates a new rating handler
func NewRatingHandler(ratingService *ratingSvc.Service, logger *slog.Logger) *RatingHandler {
	return &RatingHandler{
		ratingService: ratingService,
		logger:        logger,
	}
}

// RateResult handles POST /api/ratings.
func (h *RatingHandler) RateResult(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req struct {
		ResultID string `json:"result_id"`
		Vote     string `json:"vote"`
	}
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.ratingService.RateResult(r.Context(), userID, req.ResultID, req.Vote); err != nil {
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ReportResult handles POST /api/reports.
func (h *RatingHandler) ReportResult(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req struct {
		ResultID string `json:"result_id"`
		Report   string `json:"report"`
	}
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.ratingService.ReportResult(r.Context(), userID, req.ResultID, req.Report); err != nil {
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
