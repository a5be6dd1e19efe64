// internal/repositories/answer_position_repo.go
package repositories

import (
	"context"
	"fmt"

	"github.com/answerlens/answerlens-workflows/internal/models"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type answerPositionRepo struct {
	db *sqlx.DB
}

func NewAnswerPositionRepo(db *sqlx.DB) AnswerPositionRepository {
	return &answerPositionRepo{db: db}
}

func (r *answerPositionRepo) GetByAnswerRun(ctx context.Context, answerRunID uuid.UUID) ([]*models.AnswerPosition, error) {
	query := `
		SELECT answer_position_id, answer_run_id, entity_name, is_brand,
			first_position, mention_positions, product_positions,
			mentions, product_mentions, word_count,
			visibility_index, share_of_answer, has_presence, created_at
		FROM answer_positions
		WHERE answer_run_id = $1
		ORDER BY is_brand DESC, entity_name`

	rows := []*models.AnswerPosition{}
	if err := r.db.SelectContext(ctx, &rows, query, answerRunID); err != nil {
		return nil, fmt.Errorf("failed to get positions for answer run %s: %w", answerRunID, err)
	}
	return rows, nil
}

func (r *answerPositionRepo) DeleteByAnswerRun(ctx context.Context, answerRunID uuid.UUID) error {
	query := `DELETE FROM answer_positions WHERE answer_run_id = $1`
	if _, err := r.db.ExecContext(ctx, query, answerRunID); err != nil {
		return fmt.Errorf("failed to delete positions for answer run %s: %w", answerRunID, err)
	}
	return nil
}

func (r *answerPositionRepo) Replace(ctx context.Context, answerRunID uuid.UUID, positions []*models.AnswerPosition) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Delete must run before the insert so a retry never appends duplicates.
	if _, err := tx.ExecContext(ctx, `DELETE FROM answer_positions WHERE answer_run_id = $1`, answerRunID); err != nil {
		return fmt.Errorf("failed to delete prior positions for answer run %s: %w", answerRunID, err)
	}

	insert := `
		INSERT INTO answer_positions (
			answer_position_id, answer_run_id, entity_name, is_brand,
			first_position, mention_positions, product_positions,
			mentions, product_mentions, word_count,
			visibility_index, share_of_answer, has_presence, created_at
		) VALUES (
			:answer_position_id, :answer_run_id, :entity_name, :is_brand,
			:first_position, :mention_positions, :product_positions,
			:mentions, :product_mentions, :word_count,
			:visibility_index, :share_of_answer, :has_presence, :created_at
		)`

	for _, row := range positions {
		if row.AnswerRunID != answerRunID {
			return fmt.Errorf("position row for %s does not belong to answer run %s", row.AnswerRunID, answerRunID)
		}
		if _, err := tx.NamedExecContext(ctx, insert, row); err != nil {
			return fmt.Errorf("failed to insert position row for %q: %w", row.EntityName, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit positions for answer run %s: %w", answerRunID, err)
	}
	return nil
}
