// services/enrichment_service.go
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/answerlens/answerlens-workflows/internal/config"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// Brand product lists are capped so one noisy LLM reply cannot flood the
// matcher with terms.
const maxBrandProducts = 12

type enrichmentService struct {
	providers []ProductNameProvider
	timeout   time.Duration
	limiter   *rate.Limiter
}

// NewEnrichmentService builds the product-name discovery chain: providers are
// tried in order, each call wrapped in a timeout, and the terminal fallback is
// an explicit empty product list.
func NewEnrichmentService(cfg *config.Config, costService CostService) EnrichmentService {
	providers := []ProductNameProvider{}
	if cfg.OpenAIAPIKey != "" {
		providers = append(providers, NewOpenAIProductsProvider(cfg, costService))
	}
	if cfg.AnthropicAPIKey != "" {
		providers = append(providers, NewAnthropicProductsProvider(cfg, costService))
	}

	return &enrichmentService{
		providers: providers,
		timeout:   time.Duration(cfg.Extraction.EnrichmentTimeout) * time.Second,
		limiter:   rate.NewLimiter(rate.Limit(cfg.Extraction.EnrichmentRPS), 1),
	}
}

// NewEnrichmentServiceWithProviders wires an explicit provider chain. Used by
// tests and by tools that need a single provider.
func NewEnrichmentServiceWithProviders(providers []ProductNameProvider, timeout time.Duration) EnrichmentService {
	return &enrichmentService{
		providers: providers,
		timeout:   timeout,
		limiter:   rate.NewLimiter(rate.Inf, 1),
	}
}

func (s *enrichmentService) GetBrandProducts(ctx context.Context, brandID uuid.UUID, brandName string, metadata json.RawMessage, answerText string) *ProductDiscovery {
	req := &ProductNameRequest{
		BrandName:  brandName,
		Metadata:   metadata,
		AnswerText: answerText,
	}

	totalCost := 0.0
	for _, provider := range s.providers {
		if err := s.limiter.Wait(ctx); err != nil {
			break
		}

		callCtx, cancel := context.WithTimeout(ctx, s.timeout)
		response, err := provider.ExtractProductNames(callCtx, req)
		cancel()

		if err != nil {
			fmt.Printf("[GetBrandProducts] brand=%s provider=%s failed, trying next: %v\n", brandID, provider.GetProviderName(), err)
			continue
		}

		totalCost += response.Cost
		return &ProductDiscovery{
			Products: capProducts(cleanProductNames(response.Products), maxBrandProducts),
			Provider: provider.GetProviderName(),
			Cost:     totalCost,
		}
	}

	// Terminal fallback: no products found. Name-only matching still has
	// value, so this is a loggable outcome rather than an error.
	fmt.Printf("[GetBrandProducts] brand=%s no provider produced products, continuing with name-only matching\n", brandID)
	return &ProductDiscovery{Products: []string{}, Cost: totalCost}
}

// cleanProductNames trims entries and drops empties so downstream term
// normalization never sees blank names.
func cleanProductNames(products []string) []string {
	cleaned := make([]string, 0, len(products))
	for _, product := range products {
		product = strings.TrimSpace(product)
		if product == "" {
			continue
		}
		cleaned = append(cleaned, product)
	}
	return cleaned
}

func capProducts(products []string, max int) []string {
	if len(products) > max {
		return products[:max]
	}
	return products
}
