// services/interfaces.go
package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/answerlens/answerlens-workflows/internal/models"
	"github.com/answerlens/answerlens-workflows/internal/repositories"
	"github.com/google/uuid"
	"github.com/invopop/jsonschema"
	"github.com/jmoiron/sqlx"
)

// RepositoryManager manages all database repositories
type RepositoryManager struct {
	db                 *sqlx.DB
	BrandRepo          repositories.BrandRepository
	AnswerRunRepo      repositories.AnswerRunRepository
	AnswerPositionRepo repositories.AnswerPositionRepository
}

// NewRepositoryManager creates a new repository manager with all repositories
func NewRepositoryManager(db *sqlx.DB) *RepositoryManager {
	return &RepositoryManager{
		db:                 db,
		BrandRepo:          repositories.NewBrandRepo(db),
		AnswerRunRepo:      repositories.NewAnswerRunRepo(db),
		AnswerPositionRepo: repositories.NewAnswerPositionRepo(db),
	}
}

// BeginTx starts a database transaction
func (rm *RepositoryManager) BeginTx(ctx context.Context) (*sqlx.Tx, error) {
	return rm.db.BeginTxx(ctx, nil)
}

// ProductNameRequest carries everything a provider needs to discover product
// names for a brand out of one answer.
type ProductNameRequest struct {
	BrandName  string
	Metadata   json.RawMessage
	AnswerText string
}

// ProductNameResponse is one provider's answer, with cost accounting.
type ProductNameResponse struct {
	Products     []string
	InputTokens  int
	OutputTokens int
	Cost         float64
}

// ProductNameProvider is one LLM backend able to extract brand product names.
// Providers are tried in priority order by the enrichment service.
type ProductNameProvider interface {
	GetProviderName() string
	ExtractProductNames(ctx context.Context, req *ProductNameRequest) (*ProductNameResponse, error)
}

// ProductDiscovery is the terminal result of the enrichment fallback chain.
// Provider is empty when every provider failed and the chain fell back to an
// empty product list; that state is explicit, not an error.
type ProductDiscovery struct {
	Products []string
	Provider string
	Cost     float64
}

// EnrichmentService discovers product names for a brand. It degrades rather
// than fails: provider errors and timeouts end in an empty ProductDiscovery.
type EnrichmentService interface {
	GetBrandProducts(ctx context.Context, brandID uuid.UUID, brandName string, metadata json.RawMessage, answerText string) *ProductDiscovery
}

// ExtractionResult is the outcome of extracting one answer run.
type ExtractionResult struct {
	AnswerRunID    uuid.UUID
	Rows           []*models.AnswerPosition
	WordCount      int
	EnrichmentCost float64
	Timestamp      time.Time
}

// ExtractionService runs the full per-answer pipeline: resolve names,
// tokenize, match, score, persist.
type ExtractionService interface {
	ProcessAnswerRun(ctx context.Context, run *models.AnswerRun) (*ExtractionResult, error)
}

// BatchFailure records one skipped answer run and why.
type BatchFailure struct {
	AnswerRunID uuid.UUID
	Reason      string
}

// BatchSummary reports what a batch run did. Callers always get the failure
// list; a partial success is never silent.
type BatchSummary struct {
	Selected  int
	Processed int
	Failed    int
	Failures  []BatchFailure
	TotalCost float64
	Duration  time.Duration
}

// BatchRunnerService selects unprocessed answer runs and pushes them through
// the extraction service with bounded concurrency.
type BatchRunnerService interface {
	RunExtractionBatch(ctx context.Context, batchSize int) (*BatchSummary, error)
}

type CostService interface {
	CalculateCost(provider, model string, inputTokens, outputTokens int) float64
}

// GenerateSchema generates a JSON schema for structured outputs from a Go type
func GenerateSchema[T any]() interface{} {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}

	var zero T
	schema := reflector.Reflect(zero)

	// Convert to the format expected by OpenAI
	result := map[string]interface{}{
		"type":       "object",
		"properties": schema.Properties,
		"required":   schema.Required,
	}

	return result
}
