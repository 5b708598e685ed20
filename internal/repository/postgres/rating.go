package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"guidewell/internal/domain"
	"guidewell/internal/domain/models"
	"guidewell/internal/domain/repositories"
)

// RatingRepository implements repositories.RatingRepository on Postgres.
type RatingRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
}

// NewRatingRepository creates a new rating repository
func NewRatingRepository(config *RepositoryConfig) repositories.RatingRepository {
	return &RatingRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

// UpsertRating records a vote, replacing the user's previous vote on the
// same result if one exists.
func (r *RatingRepository) UpsertRating(ctx context.Context, rating *models.Rating) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, result_id, user_id, vote, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (result_id, user_id)
		DO UPDATE SET vote = EXCLUDED.vote, created_at = EXCLUDED.created_at
	`, r.tables.Ratings)

	exec := GetExecutor(ctx, r.pool)
	_, err := exec.Exec(ctx, query,
		rating.ID,
		rating.ResultID,
		rating.UserID,
		rating.Vote,
		rating.CreatedAt,
	)
	if err != nil {
		if isPgForeignKeyError(err) {
			return fmt.Errorf("result %s: %w", rating.ResultID, domain.ErrNotFound)
		}
		return fmt.Errorf("upsert rating: %w", err)
	}

	return nil
}

// CreateReport stores a free-text report against a result
func (r *RatingRepository) CreateReport(ctx context.Context, report *models.Report) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, result_id, user_id, report, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, r.tables.Reports)

	exec := GetExecutor(ctx, r.pool)
	_, err := exec.Exec(ctx, query,
		report.ID,
		report.ResultID,
		report.UserID,
		report.Report,
		report.CreatedAt,
	)
	if err != nil {
		if isPgForeignKeyError(err) {
			return fmt.Errorf("result %s: %w", report.ResultID, domain.ErrNotFound)
		}
		return fmt.Errorf("create report: %w", err)
	}

	return nil
}
