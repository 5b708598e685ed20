// Package rating handles feedback on guide answers: votes and reports.
package rating

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
)

// Service records answer ratings and reports.
type Service struct {
	ratingRepo repositories.RatingRepository
	resultRepo repositories.ResultRepository
	logger     *slog.Logger
}

// NewService creates a new rating service
func NewService(
	ratingRepo repositories.RatingRepository,
	resultRepo repositories.ResultRepository,
	logger *slog.Logger,
) *Service {
	return &Service{
		ratingRepo: ratingRepo,
		resultRepo: resultRepo,
		logger:     logger,
	}
}

// RateResult records an up or down vote on a result. A repeat vote by the
// same user replaces their previous one.
func (s *Service) RateResult(ctx context.Context, userID, resultID, vote string) error {
	if err := validation.Validate(vote,
		validation.Required,
		validation.In(models.VoteUp, models.VoteDown),
	); err != nil {
		return fmt.Errorf("%w: vote: %v", domain.ErrValidation, err)
	}
	if resultID == "" {
		return fmt.Errorf("%w: result_id is required", domain.ErrValidation)
	}

	if _, err := s.resultRepo.GetResult(ctx, resultID); err != nil {
		return err
	}

	rating := &models.Rating{
		ID:        uuid.NewString(),
		ResultID:  resultID,
		UserID:    userID,
		Vote:      vote,
		CreatedAt: time.Now(),
	}
	if err := s.ratingRepo.UpsertRating(ctx, rating); err != nil {
		return err
	}

	s.logger.Info("result rated",
		"result_id", resultID,
		"user_id", userID,
		"vote", vote,
	)

	return nil
}

// ReportResult records a free-text report against a result.
func (s *Service) ReportResult(ctx context.Context, userID, resultID, text string) error {
	text = strings.TrimSpace(text)
	if err := validation.Validate(text,
		validation.Required,
		validation.Length(1, config.MaxReportLength),
	); err != nil {
		return fmt.Errorf("%w: report: %v", domain.ErrValidation, err)
	}
	if resultID == "" {
		return fmt.Errorf("%w: result_id is required", domain.ErrValidation)
	}

	if _, err := s.resultRepo.GetResult(ctx, resultID); err != nil {
		return err
	}

	report := &models.Report{
		ID:        uuid.NewString(),
		ResultID:  resultID,
		UserID:    userID,
		Report:    text,
		CreatedAt: time.Now(),
	}
	if err := s.ratingRepo.CreateReport(ctx, report); err != nil {
		return err
	}

	s.logger.Info("result reported",
		"result_id", resultID,
		"user_id", userID,
	)

	return nil
}
