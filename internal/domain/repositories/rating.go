package repositories

import (
	"context"

	"guidewell/internal/domain/models"
)

// RatingRepository defines data access for answer ratings and reports.
type RatingRepository interface {
	// UpsertRating records a vote, replacing the user's previous vote
	// on the same result if one exists.
	UpsertRating(ctx context.Context, rating *models.Rating) error

	// CreateReport records a free-text report.
	CreateReport(ctx context.Context, report *models.Report) error
}
