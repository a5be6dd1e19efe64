// internal/repositories/brand_repo.go
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

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

type brandRepo struct {
	db *sqlx.DB
}

func NewBrandRepo(db *sqlx.DB) BrandRepository {
	return &brandRepo{db: db}
}

func (r *brandRepo) GetByID(ctx context.Context, brandID uuid.UUID) (*models.Brand, error) {
	query := `
		SELECT brand_id, name, metadata, created_at, updated_at
		FROM brands
		WHERE brand_id = $1`

	var brand models.Brand
	if err := r.db.GetContext(ctx, &brand, query, brandID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("brand %s: %w", brandID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get brand %s: %w", brandID, err)
	}
	return &brand, nil
}

func (r *brandRepo) GetCompetitors(ctx context.Context, brandID uuid.UUID) ([]*models.BrandCompetitor, error) {
	query := `
		SELECT competitor_id, brand_id, name, products, created_at
		FROM brand_competitors
		WHERE brand_id = $1
		ORDER BY created_at`

	competitors := []*models.BrandCompetitor{}
	if err := r.db.SelectContext(ctx, &competitors, query, brandID); err != nil {
		return nil, fmt.Errorf("failed to get competitors for brand %s: %w", brandID, err)
	}
	return competitors, nil
}
