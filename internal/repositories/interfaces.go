// internal/repositories/interfaces.go
package repositories

import (
	"context"

	"github.com/answerlens/answerlens-workflows/internal/models"
	"github.com/google/uuid"
)

// BrandRepository reads tracked brands and their competitor metadata.
type BrandRepository interface {
	GetByID(ctx context.Context, brandID uuid.UUID) (*models.Brand, error)
	GetCompetitors(ctx context.Context, brandID uuid.UUID) ([]*models.BrandCompetitor, error)
}

// AnswerRunRepository reads the answer corpus. Answer runs are written by the
// collection side of the product and are read-only here.
type AnswerRunRepository interface {
	GetByID(ctx context.Context, answerRunID uuid.UUID) (*models.AnswerRun, error)
	// GetUnprocessed selects runs with no persisted position rows, oldest
	// first, capped at limit. Selection is by exclusion so re-runs after a
	// wipe of answer_positions are safe.
	GetUnprocessed(ctx context.Context, limit int) ([]*models.AnswerRun, error)
}

// AnswerPositionRepository owns the extraction output rows and the
// delete-then-insert idempotency contract.
type AnswerPositionRepository interface {
	GetByAnswerRun(ctx context.Context, answerRunID uuid.UUID) ([]*models.AnswerPosition, error)
	DeleteByAnswerRun(ctx context.Context, answerRunID uuid.UUID) error
	// Replace atomically deletes any prior rows for the answer run and
	// inserts the fresh set. The delete always precedes the insert.
	Replace(ctx context.Context, answerRunID uuid.UUID, rows []*models.AnswerPosition) error
}
