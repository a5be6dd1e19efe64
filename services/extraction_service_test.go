package services_test

import (
	"context"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/answerlens/answerlens-workflows/internal/models"
	"github.com/answerlens/answerlens-workflows/services"
	"github.com/answerlens/answerlens-workflows/services/testutil"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

func newTestRepos(brandRepo *testutil.MockBrandRepo, positionRepo *testutil.MockAnswerPositionRepo) *services.RepositoryManager {
	return &services.RepositoryManager{
		BrandRepo:          brandRepo,
		AnswerRunRepo:      &testutil.MockAnswerRunRepo{},
		AnswerPositionRepo: positionRepo,
	}
}

func newAnswerRun(brandID uuid.UUID, response string, competitors ...string) *models.AnswerRun {
	return &models.AnswerRun{
		AnswerRunID:     uuid.New(),
		BrandID:         brandID,
		Response:        response,
		CompetitorNames: pq.StringArray(competitors),
		CreatedAt:       time.Now().UTC(),
	}
}

func rowByEntity(rows []*models.AnswerPosition, entity string) *models.AnswerPosition {
	for _, row := range rows {
		if row.EntityName == entity {
			return row
		}
	}
	return nil
}

func TestProcessAnswerRunMultiCompetitorShares(t *testing.T) {
	brandID := uuid.New()
	brandRepo := &testutil.MockBrandRepo{
		GetByIDFunc: func(ctx context.Context, id uuid.UUID) (*models.Brand, error) {
			return &models.Brand{BrandID: id, Name: "Nike"}, nil
		},
	}
	positionRepo := testutil.NewMockAnswerPositionRepo()
	enrichment := &testutil.MockEnrichment{Products: []string{}}
	cache := services.NewProductCache(time.Minute)

	svc := services.NewExtractionService(newTestRepos(brandRepo, positionRepo), enrichment, cache)

	// Brand mentioned twice, each competitor once.
	run := newAnswerRun(brandID, "Nike is great. Nike beats Adidas and also beats Puma.", "Adidas", "Puma")

	result, err := svc.ProcessAnswerRun(context.Background(), run)
	if err != nil {
		t.Fatalf("ProcessAnswerRun failed: %v", err)
	}

	if len(result.Rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(result.Rows))
	}

	brandRow := rowByEntity(result.Rows, "Nike")
	if brandRow == nil || !brandRow.IsBrand {
		t.Fatal("missing brand row")
	}
	if brandRow.Mentions != 2 {
		t.Errorf("brand mentions = %d, want 2", brandRow.Mentions)
	}
	if brandRow.ShareOfAnswer == nil || *brandRow.ShareOfAnswer != 50.0 {
		t.Errorf("brand share = %v, want 50.0", brandRow.ShareOfAnswer)
	}

	for _, name := range []string{"Adidas", "Puma"} {
		row := rowByEntity(result.Rows, name)
		if row == nil {
			t.Fatalf("missing competitor row for %s", name)
		}
		if row.IsBrand {
			t.Errorf("%s row marked as brand", name)
		}
		if row.Mentions != 1 {
			t.Errorf("%s mentions = %d, want 1", name, row.Mentions)
		}
		if row.ShareOfAnswer == nil || *row.ShareOfAnswer != 25.0 {
			t.Errorf("%s share = %v, want 25.0", name, row.ShareOfAnswer)
		}
	}
}

func TestProcessAnswerRunNoBrandMentions(t *testing.T) {
	brandID := uuid.New()
	brandRepo := &testutil.MockBrandRepo{
		GetByIDFunc: func(ctx context.Context, id uuid.UUID) (*models.Brand, error) {
			return &models.Brand{BrandID: id, Name: "Nike"}, nil
		},
	}
	positionRepo := testutil.NewMockAnswerPositionRepo()
	enrichment := &testutil.MockEnrichment{Products: []string{"Air Max"}}
	cache := services.NewProductCache(time.Minute)

	svc := services.NewExtractionService(newTestRepos(brandRepo, positionRepo), enrichment, cache)

	run := newAnswerRun(brandID, "Adidas UltraBoost is the most popular running shoe.", "Adidas")

	result, err := svc.ProcessAnswerRun(context.Background(), run)
	if err != nil {
		t.Fatalf("ProcessAnswerRun failed: %v", err)
	}

	brandRow := rowByEntity(result.Rows, "Nike")
	if brandRow.FirstPosition != nil {
		t.Errorf("first position = %v, want nil", *brandRow.FirstPosition)
	}
	if brandRow.Mentions != 0 {
		t.Errorf("mentions = %d, want 0", brandRow.Mentions)
	}
	if brandRow.VisibilityIndex != 0 {
		t.Errorf("visibility = %v, want 0", brandRow.VisibilityIndex)
	}
	if brandRow.HasPresence {
		t.Error("has_presence = true, want false")
	}
	// Competitor was mentioned, so brand share is defined and zero.
	if brandRow.ShareOfAnswer == nil || *brandRow.ShareOfAnswer != 0 {
		t.Errorf("brand share = %v, want 0", brandRow.ShareOfAnswer)
	}
}

func TestProcessAnswerRunZeroCompetitors(t *testing.T) {
	brandID := uuid.New()
	brandRepo := &testutil.MockBrandRepo{
		GetByIDFunc: func(ctx context.Context, id uuid.UUID) (*models.Brand, error) {
			return &models.Brand{BrandID: id, Name: "Nike"}, nil
		},
	}
	positionRepo := testutil.NewMockAnswerPositionRepo()
	enrichment := &testutil.MockEnrichment{}
	cache := services.NewProductCache(time.Minute)

	svc := services.NewExtractionService(newTestRepos(brandRepo, positionRepo), enrichment, cache)

	t.Run("brand absent too", func(t *testing.T) {
		run := newAnswerRun(brandID, "nothing about anyone here")
		result, err := svc.ProcessAnswerRun(context.Background(), run)
		if err != nil {
			t.Fatalf("ProcessAnswerRun failed: %v", err)
		}
		if len(result.Rows) != 1 {
			t.Fatalf("expected 1 row, got %d", len(result.Rows))
		}
		if result.Rows[0].ShareOfAnswer != nil {
			t.Errorf("share = %v, want nil when nobody is mentioned", *result.Rows[0].ShareOfAnswer)
		}
	})

	t.Run("brand present", func(t *testing.T) {
		run := newAnswerRun(brandID, "Nike makes running shoes")
		result, err := svc.ProcessAnswerRun(context.Background(), run)
		if err != nil {
			t.Fatalf("ProcessAnswerRun failed: %v", err)
		}
		row := result.Rows[0]
		if row.ShareOfAnswer == nil || *row.ShareOfAnswer != 100.0 {
			t.Errorf("share = %v, want 100.0 for sole entity", row.ShareOfAnswer)
		}
	})
}

func TestProcessAnswerRunBrandNotFound(t *testing.T) {
	brandRepo := &testutil.MockBrandRepo{
		GetByIDFunc: func(ctx context.Context, id uuid.UUID) (*models.Brand, error) {
			return nil, context.DeadlineExceeded
		},
	}
	positionRepo := testutil.NewMockAnswerPositionRepo()
	svc := services.NewExtractionService(newTestRepos(brandRepo, positionRepo), &testutil.MockEnrichment{}, services.NewProductCache(time.Minute))

	run := newAnswerRun(uuid.New(), "some answer")
	if _, err := svc.ProcessAnswerRun(context.Background(), run); err == nil {
		t.Fatal("expected error when brand lookup fails")
	}
	if positionRepo.ReplaceCount(run.AnswerRunID) != 0 {
		t.Error("positions written despite brand lookup failure")
	}
}

func TestProcessAnswerRunDuplicateCompetitorCasing(t *testing.T) {
	brandID := uuid.New()
	brandRepo := &testutil.MockBrandRepo{
		GetByIDFunc: func(ctx context.Context, id uuid.UUID) (*models.Brand, error) {
			return &models.Brand{BrandID: id, Name: "Nike"}, nil
		},
		GetCompetitorsFunc: func(ctx context.Context, id uuid.UUID) ([]*models.BrandCompetitor, error) {
			return []*models.BrandCompetitor{
				{CompetitorID: uuid.New(), BrandID: id, Name: "Adidas", Products: pq.StringArray{"UltraBoost"}},
			}, nil
		},
	}
	positionRepo := testutil.NewMockAnswerPositionRepo()
	svc := services.NewExtractionService(newTestRepos(brandRepo, positionRepo), &testutil.MockEnrichment{}, services.NewProductCache(time.Minute))

	// Same competitor arrives from metadata and from the answer run with
	// different casing; one canonical row must come out.
	run := newAnswerRun(brandID, "Adidas UltraBoost runs well", "ADIDAS", "adidas")

	result, err := svc.ProcessAnswerRun(context.Background(), run)
	if err != nil {
		t.Fatalf("ProcessAnswerRun failed: %v", err)
	}

	if len(result.Rows) != 2 {
		t.Fatalf("expected 2 rows (brand + one competitor), got %d", len(result.Rows))
	}
	adidasRow := rowByEntity(result.Rows, "Adidas")
	if adidasRow == nil {
		t.Fatal("expected first-seen casing 'Adidas' to win")
	}
	// Product metadata attached to the canonical record: "UltraBoost" at
	// position 2 counts as a product mention.
	if adidasRow.Mentions != 2 {
		t.Errorf("competitor mentions = %d, want 2 (name + product)", adidasRow.Mentions)
	}
	if adidasRow.ProductMentions != 1 {
		t.Errorf("competitor product mentions = %d, want 1", adidasRow.ProductMentions)
	}
}

func TestProcessAnswerRunIdempotentRerun(t *testing.T) {
	brandID := uuid.New()
	brandRepo := &testutil.MockBrandRepo{
		GetByIDFunc: func(ctx context.Context, id uuid.UUID) (*models.Brand, error) {
			return &models.Brand{BrandID: id, Name: "Nike"}, nil
		},
	}
	positionRepo := testutil.NewMockAnswerPositionRepo()
	enrichment := &testutil.MockEnrichment{Products: []string{"Air Max"}}
	svc := services.NewExtractionService(newTestRepos(brandRepo, positionRepo), enrichment, services.NewProductCache(time.Minute))

	run := newAnswerRun(brandID, "I love Nike shoes and Nike Air Max", "Adidas")

	first, err := svc.ProcessAnswerRun(context.Background(), run)
	if err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	second, err := svc.ProcessAnswerRun(context.Background(), run)
	if err != nil {
		t.Fatalf("second run failed: %v", err)
	}

	// Each run replaces, never appends.
	if got := positionRepo.ReplaceCount(run.AnswerRunID); got != 2 {
		t.Fatalf("Replace called %d times, want 2", got)
	}
	if got := len(positionRepo.LatestRows(run.AnswerRunID)); got != 2 {
		t.Fatalf("latest row set has %d rows, want 2", got)
	}

	// Identical metric content across reruns (row IDs and timestamps are
	// regenerated per write).
	for _, entity := range []string{"Nike", "Adidas"} {
		a := rowByEntity(first.Rows, entity)
		b := rowByEntity(second.Rows, entity)
		if a.Mentions != b.Mentions || a.VisibilityIndex != b.VisibilityIndex ||
			!reflect.DeepEqual(a.MentionPositions, b.MentionPositions) ||
			!reflect.DeepEqual(a.ProductPositions, b.ProductPositions) {
			t.Errorf("rerun changed extraction output for %s: %+v vs %+v", entity, a, b)
		}
	}

	// Matcher sanity from the rerun: Nike at 3 and 6, Air Max at 7.
	nikeRow := rowByEntity(second.Rows, "Nike")
	if want := (pq.Int64Array{3, 6, 7}); !reflect.DeepEqual(nikeRow.MentionPositions, want) {
		t.Errorf("mention positions = %v, want %v", nikeRow.MentionPositions, want)
	}
	if nikeRow.FirstPosition == nil || *nikeRow.FirstPosition != 3 {
		t.Errorf("first position = %v, want 3", nikeRow.FirstPosition)
	}
}

func TestProcessAnswerRunSharedBrandCacheSingleEnrichmentCall(t *testing.T) {
	brandID := uuid.New()
	brandRepo := &testutil.MockBrandRepo{
		GetByIDFunc: func(ctx context.Context, id uuid.UUID) (*models.Brand, error) {
			return &models.Brand{BrandID: id, Name: "Nike"}, nil
		},
	}
	positionRepo := testutil.NewMockAnswerPositionRepo()
	enrichment := &testutil.MockEnrichment{Products: []string{"Air Max"}, Cost: 0.01}
	svc := services.NewExtractionService(newTestRepos(brandRepo, positionRepo), enrichment, services.NewProductCache(time.Minute))

	totalCost := 0.0
	for i := 0; i < 5; i++ {
		run := newAnswerRun(brandID, "Nike Air Max again")
		result, err := svc.ProcessAnswerRun(context.Background(), run)
		if err != nil {
			t.Fatalf("run %d failed: %v", i, err)
		}
		totalCost += result.EnrichmentCost
	}

	if enrichment.CallCount() != 1 {
		t.Errorf("enrichment called %d times for one brand, want 1", enrichment.CallCount())
	}
	// Only the run that actually fetched carries the cost.
	if totalCost != 0.01 {
		t.Errorf("total enrichment cost = %v, want 0.01", totalCost)
	}
}

func TestProcessAnswerRunWordCount(t *testing.T) {
	brandID := uuid.New()
	brandRepo := &testutil.MockBrandRepo{
		GetByIDFunc: func(ctx context.Context, id uuid.UUID) (*models.Brand, error) {
			return &models.Brand{BrandID: id, Name: "Nike"}, nil
		},
	}
	positionRepo := testutil.NewMockAnswerPositionRepo()
	svc := services.NewExtractionService(newTestRepos(brandRepo, positionRepo), &testutil.MockEnrichment{}, services.NewProductCache(time.Minute))

	response := "I love Nike shoes and Nike Air Max"
	run := newAnswerRun(brandID, response)

	result, err := svc.ProcessAnswerRun(context.Background(), run)
	if err != nil {
		t.Fatalf("ProcessAnswerRun failed: %v", err)
	}
	if want := len(strings.Fields(response)); result.WordCount != want {
		t.Errorf("word count = %d, want %d", result.WordCount, want)
	}
	if result.Rows[0].WordCount != result.WordCount {
		t.Errorf("row word count %d differs from result %d", result.Rows[0].WordCount, result.WordCount)
	}
}
