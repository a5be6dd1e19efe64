// internal/models/models.go
package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Brand is a tracked organization whose visibility we measure.
type Brand struct {
	BrandID   uuid.UUID       `db:"brand_id" json:"brand_id"`
	Name      string          `db:"name" json:"name"`
	Metadata  json.RawMessage `db:"metadata" json:"metadata,omitempty"` // industry, description, websites
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt time.Time       `db:"updated_at" json:"updated_at"`
}

// BrandCompetitor is a competitor tracked for a brand, with optional
// pre-populated product names from static configuration. Competitors without
// product metadata match on name only.
type BrandCompetitor struct {
	CompetitorID uuid.UUID      `db:"competitor_id" json:"competitor_id"`
	BrandID      uuid.UUID      `db:"brand_id" json:"brand_id"`
	Name         string         `db:"name" json:"name"`
	Products     pq.StringArray `db:"products" json:"products"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
}

// AnswerRun is one AI-generated answer to one tracked query, collected
// upstream. Read-only input for extraction.
type AnswerRun struct {
	AnswerRunID     uuid.UUID      `db:"answer_run_id" json:"answer_run_id"`
	BrandID         uuid.UUID      `db:"brand_id" json:"brand_id"`
	Response        string         `db:"response" json:"response"`
	Topic           *string        `db:"topic" json:"topic,omitempty"`
	CompetitorNames pq.StringArray `db:"competitor_names" json:"competitor_names"`
	CreatedAt       time.Time      `db:"created_at" json:"created_at"`
}

// AnswerPosition is the extraction output: one row per (answer run, entity)
// recording where and how prominently the entity is mentioned. Rows are never
// updated; re-extraction deletes and rewrites them.
type AnswerPosition struct {
	AnswerPositionID uuid.UUID     `db:"answer_position_id" json:"answer_position_id"`
	AnswerRunID      uuid.UUID     `db:"answer_run_id" json:"answer_run_id"`
	EntityName       string        `db:"entity_name" json:"entity_name"`
	IsBrand          bool          `db:"is_brand" json:"is_brand"`
	FirstPosition    *int          `db:"first_position" json:"first_position,omitempty"`
	MentionPositions pq.Int64Array `db:"mention_positions" json:"mention_positions"`
	ProductPositions pq.Int64Array `db:"product_positions" json:"product_positions"`
	Mentions         int           `db:"mentions" json:"mentions"`
	ProductMentions  int           `db:"product_mentions" json:"product_mentions"`
	WordCount        int           `db:"word_count" json:"word_count"`
	VisibilityIndex  float64       `db:"visibility_index" json:"visibility_index"`
	ShareOfAnswer    *float64      `db:"share_of_answer" json:"share_of_answer,omitempty"`
	HasPresence      bool          `db:"has_presence" json:"has_presence"`
	CreatedAt        time.Time     `db:"created_at" json:"created_at"`
}

// CompetitorNames is the canonical {name, products} record every competitor
// input shape is normalized into before entering the extraction core.
type CompetitorNames struct {
	Name     string   `json:"name"`
	Products []string `json:"products"`
}

// ResolvedNames holds the complete resolved term set for one answer run:
// the brand, its discovered product names and each tracked competitor with
// its product names.
type ResolvedNames struct {
	BrandName     string            `json:"brand_name"`
	BrandProducts []string          `json:"brand_products"`
	Competitors   []CompetitorNames `json:"competitors"`
}
