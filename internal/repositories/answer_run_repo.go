// internal/repositories/answer_run_repo.go
package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/answerlens/answerlens-workflows/internal/models"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type answerRunRepo struct {
	db *sqlx.DB
}

func NewAnswerRunRepo(db *sqlx.DB) AnswerRunRepository {
	return &answerRunRepo{db: db}
}

func (r *answerRunRepo) GetByID(ctx context.Context, answerRunID uuid.UUID) (*models.AnswerRun, error) {
	query := `
		SELECT answer_run_id, brand_id, response, topic, competitor_names, created_at
		FROM answer_runs
		WHERE answer_run_id = $1`

	var run models.AnswerRun
	if err := r.db.GetContext(ctx, &run, query, answerRunID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("answer run %s: %w", answerRunID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get answer run %s: %w", answerRunID, err)
	}
	return &run, nil
}

func (r *answerRunRepo) GetUnprocessed(ctx context.Context, limit int) ([]*models.AnswerRun, error) {
	// Exclusion against answer_positions rather than a processed flag on the
	// source row, so wiping positions makes the runs selectable again.
	query := `
		SELECT ar.answer_run_id, ar.brand_id, ar.response, ar.topic, ar.competitor_names, ar.created_at
		FROM answer_runs ar
		WHERE NOT EXISTS (
			SELECT 1 FROM answer_positions ap
			WHERE ap.answer_run_id = ar.answer_run_id
		)
		ORDER BY ar.created_at
		LIMIT $1`

	runs := []*models.AnswerRun{}
	if err := r.db.SelectContext(ctx, &runs, query, limit); err != nil {
		return nil, fmt.Errorf("failed to select unprocessed answer runs: %w", err)
	}
	return runs, nil
}
