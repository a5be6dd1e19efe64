// services/extraction_service.go
package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/answerlens/answerlens-workflows/internal/models"
	"github.com/answerlens/answerlens-workflows/internal/textmatch"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Competitor product lists come from static metadata and are capped lower
// than brand products.
const maxCompetitorProducts = 8

type extractionService struct {
	repos      *RepositoryManager
	enrichment EnrichmentService
	cache      *ProductCache
}

// NewExtractionService creates the per-answer extraction orchestrator. The
// cache is shared across calls so answers for the same brand reuse one
// product discovery per batch.
func NewExtractionService(repos *RepositoryManager, enrichment EnrichmentService, cache *ProductCache) ExtractionService {
	return &extractionService{
		repos:      repos,
		enrichment: enrichment,
		cache:      cache,
	}
}

// ProcessAnswerRun runs the full pipeline for one answer: resolve names,
// tokenize, match brand and competitors, compute metrics, then replace any
// previously persisted rows (delete before insert, so reruns never append).
func (s *extractionService) ProcessAnswerRun(ctx context.Context, run *models.AnswerRun) (*ExtractionResult, error) {
	brand, err := s.repos.BrandRepo.GetByID(ctx, run.BrandID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve brand for answer run %s: %w", run.AnswerRunID, err)
	}

	competitorMeta, err := s.repos.BrandRepo.GetCompetitors(ctx, run.BrandID)
	if err != nil {
		return nil, fmt.Errorf("failed to load competitor metadata for answer run %s: %w", run.AnswerRunID, err)
	}

	// fetched distinguishes a real enrichment call from a cache hit so the
	// batch cost totals count each discovery once.
	fetched := false
	discovery := s.cache.Get(run.BrandID.String(), func() *ProductDiscovery {
		fetched = true
		return s.enrichment.GetBrandProducts(ctx, run.BrandID, brand.Name, brand.Metadata, run.Response)
	})

	resolved := resolveNames(brand.Name, discovery.Products, competitorMeta, run.CompetitorNames)

	tokens := textmatch.Tokenize(run.Response)
	words := textmatch.NormalizedWords(tokens)
	wordCount := len(tokens)

	brandMatches := textmatch.MatchEntity(words, resolved.BrandName, resolved.BrandProducts)

	competitorMatches := make([]textmatch.EntityMatches, len(resolved.Competitors))
	totalCompetitorMentions := 0
	for i, competitor := range resolved.Competitors {
		competitorMatches[i] = textmatch.MatchEntity(words, competitor.Name, competitor.Products)
		totalCompetitorMentions += competitorMatches[i].Mentions()
	}

	now := time.Now().UTC()
	rows := make([]*models.AnswerPosition, 0, 1+len(resolved.Competitors))

	brandRow := buildPositionRow(run.AnswerRunID, resolved.BrandName, true, brandMatches, wordCount, now)
	brandRow.ShareOfAnswer = textmatch.ShareOfAnswer(brandMatches.Mentions(), totalCompetitorMentions)
	rows = append(rows, brandRow)

	for i, competitor := range resolved.Competitors {
		matches := competitorMatches[i]
		row := buildPositionRow(run.AnswerRunID, competitor.Name, false, matches, wordCount, now)
		// Share is always against everyone else mentioned in this answer:
		// the brand plus every other competitor.
		secondary := brandMatches.Mentions() + totalCompetitorMentions - matches.Mentions()
		row.ShareOfAnswer = textmatch.ShareOfAnswer(matches.Mentions(), secondary)
		rows = append(rows, row)
	}

	if err := s.repos.AnswerPositionRepo.Replace(ctx, run.AnswerRunID, rows); err != nil {
		return nil, fmt.Errorf("failed to persist positions for answer run %s: %w", run.AnswerRunID, err)
	}

	enrichmentCost := 0.0
	if fetched {
		enrichmentCost = discovery.Cost
	}

	return &ExtractionResult{
		AnswerRunID:    run.AnswerRunID,
		Rows:           rows,
		WordCount:      wordCount,
		EnrichmentCost: enrichmentCost,
		Timestamp:      now,
	}, nil
}

// resolveNames normalizes every competitor input shape into canonical
// {name, products} records. Tracked competitors are the union of the brand's
// configured competitors and the names carried on the answer run, deduplicated
// case-insensitively with the first-seen casing kept.
func resolveNames(brandName string, brandProducts []string, competitorMeta []*models.BrandCompetitor, answerCompetitors []string) *models.ResolvedNames {
	productsByName := make(map[string][]string, len(competitorMeta))
	for _, meta := range competitorMeta {
		key := strings.ToLower(strings.TrimSpace(meta.Name))
		if key == "" {
			continue
		}
		if _, ok := productsByName[key]; !ok {
			productsByName[key] = capProducts(cleanProductNames(meta.Products), maxCompetitorProducts)
		}
	}

	seen := make(map[string]struct{})
	competitors := []models.CompetitorNames{}

	add := func(name string) {
		name = strings.TrimSpace(name)
		if name == "" {
			return
		}
		key := strings.ToLower(name)
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		competitors = append(competitors, models.CompetitorNames{
			Name:     name,
			Products: productsByName[key],
		})
	}

	for _, meta := range competitorMeta {
		add(meta.Name)
	}
	for _, name := range answerCompetitors {
		add(name)
	}

	return &models.ResolvedNames{
		BrandName:     brandName,
		BrandProducts: brandProducts,
		Competitors:   competitors,
	}
}

func buildPositionRow(answerRunID uuid.UUID, entityName string, isBrand bool, matches textmatch.EntityMatches, wordCount int, now time.Time) *models.AnswerPosition {
	row := &models.AnswerPosition{
		AnswerPositionID: uuid.New(),
		AnswerRunID:      answerRunID,
		EntityName:       entityName,
		IsBrand:          isBrand,
		MentionPositions: toInt64Array(matches.Positions),
		ProductPositions: toInt64Array(matches.ProductPositions),
		Mentions:         matches.Mentions(),
		ProductMentions:  matches.ProductMentions(),
		WordCount:        wordCount,
		VisibilityIndex:  textmatch.VisibilityIndex(matches.Mentions(), matches.FirstPosition, wordCount),
		HasPresence:      matches.Mentions() > 0,
		CreatedAt:        now,
	}
	if matches.FirstPosition > 0 {
		first := matches.FirstPosition
		row.FirstPosition = &first
	}
	return row
}

func toInt64Array(positions []int) pq.Int64Array {
	arr := make(pq.Int64Array, len(positions))
	for i, pos := range positions {
		arr[i] = int64(pos)
	}
	return arr
}
