package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"guidewell/internal/domain"
	"guidewell/internal/domain/models"
	"guidewell/internal/domain/repositories"
)

// ResultRepository implements repositories.ResultRepository on Postgres.
type ResultRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
}

// NewResultRepository creates a new result repository
func NewResultRepository(config *RepositoryConfig) repositories.ResultRepository {
	return &ResultRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

const resultColumns = "id, chat_id, query, answer, status, error, model, attachment_name, created_at, completed_at"

func scanResult(row interface{ Scan(...interface{}) error }, res *models.Result) error {
	return row.Scan(
		&res.ID,
		&res.ChatID,
		&res.Query,
		&res.Answer,
		&res.Status,
		&res.Error,
		&res.Model,
		&res.AttachmentName,
		&res.CreatedAt,
		&res.CompletedAt,
	)
}

// CreateResult inserts a result row
func (r *ResultRepository) CreateResult(ctx context.Context, result *models.Result) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, chat_id, query, answer, status, attachment_name, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, r.tables.Results)

	exec := GetExecutor(ctx, r.pool)
	_, err := exec.Exec(ctx, query,
		result.ID,
		result.ChatID,
		result.Query,
		result.Answer,
		result.Status,
		result.AttachmentName,
		result.CreatedAt,
	)
	if err != nil {
		if isPgForeignKeyError(err) {
			return fmt.Errorf("chat %s: %w", result.ChatID, domain.ErrNotFound)
		}
		return fmt.Errorf("create result: %w", err)
	}

	return nil
}

// GetResult retrieves a result by ID
func (r *ResultRepository) GetResult(ctx context.Context, resultID string) (*models.Result, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, resultColumns, r.tables.Results)

	var res models.Result
	exec := GetExecutor(ctx, r.pool)
	if err := scanResult(exec.QueryRow(ctx, query, resultID), &res); err != nil {
		if isPgNoRowsError(err) {
			return nil, fmt.Errorf("result %s: %w", resultID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get result: %w", err)
	}

	return &res, nil
}

// ListByChat returns all results of a chat in creation order
func (r *ResultRepository) ListByChat(ctx context.Context, chatID string) ([]models.Result, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE chat_id = $1
		ORDER BY created_at ASC, id ASC
	`, resultColumns, r.tables.Results)

	exec := GetExecutor(ctx, r.pool)
	rows, err := exec.Query(ctx, query, chatID)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	defer rows.Close()

	results := make([]models.Result, 0)
	for rows.Next() {
		var res models.Result
		if err := scanResult(rows, &res); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		results = append(results, res)
	}

	return results, rows.Err()
}

// ResetForRegenerate clears the answer of an existing result and flips
// it back to streaming. Position (created_at) and query are untouched.
func (r *ResultRepository) ResetForRegenerate(ctx context.Context, resultID string) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET answer = '', status = $1, error = NULL, completed_at = NULL
		WHERE id = $2
	`, r.tables.Results)

	exec := GetExecutor(ctx, r.pool)
	result, err := exec.Exec(ctx, query, models.ResultStatusStreaming, resultID)
	if err != nil {
		return fmt.Errorf("reset result: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("result %s: %w", resultID, domain.ErrNotFound)
	}

	return nil
}

// FinishResult stores the final accumulated answer with terminal status.
// Called on completion, error and cancellation alike; errored results
// keep their partial answer.
func (r *ResultRepository) FinishResult(ctx context.Context, resultID, answer, status string, errText *string, model string) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET answer = $1, status = $2, error = $3, model = $4, completed_at = $5
		WHERE id = $6
	`, r.tables.Results)

	exec := GetExecutor(ctx, r.pool)
	result, err := exec.Exec(ctx, query, answer, status, errText, model, time.Now(), resultID)
	if err != nil {
		return fmt.Errorf("finish result: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("result %s: %w", resultID, domain.ErrNotFound)
	}

	return nil
}
