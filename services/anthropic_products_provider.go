// services/anthropic_products_provider.go
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/answerlens/answerlens-workflows/internal/config"
	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

type anthropicProductsProvider struct {
	client      *anthropic.Client
	model       string
	costService CostService
}

// NewAnthropicProductsProvider creates the fallback product-name provider.
// Anthropic has no structured-output response format, so it uses JSON
// prompting and parses the reply.
func NewAnthropicProductsProvider(cfg *config.Config, costService CostService) ProductNameProvider {
	client := anthropic.NewClient(option.WithAPIKey(cfg.AnthropicAPIKey))

	return &anthropicProductsProvider{
		client:      &client,
		model:       "claude-sonnet-4-20250514",
		costService: costService,
	}
}

func (p *anthropicProductsProvider) GetProviderName() string {
	return "anthropic"
}

func (p *anthropicProductsProvider) ExtractProductNames(ctx context.Context, req *ProductNameRequest) (*ProductNameResponse, error) {
	structuredPrompt := fmt.Sprintf(`%s

Return ONLY a valid JSON object with this structure, no other text:

{
  "products": ["Product Name 1", "Product Name 2"]
}`, buildProductNamesPrompt(req))

	messages := []anthropic.MessageParam{{
		Content: []anthropic.ContentBlockParamUnion{{
			OfText: &anthropic.TextBlockParam{Text: structuredPrompt},
		}},
		Role: anthropic.MessageParamRoleUser,
	}}

	response, err := p.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(p.model),
		MaxTokens:   1000,
		Messages:    messages,
		Temperature: anthropic.Float(0),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to extract product names: %w", err)
	}

	fullResponse := p.extractResponseText(*response)

	var extracted ProductNamesExtraction
	if err := json.Unmarshal([]byte(strings.TrimSpace(fullResponse)), &extracted); err != nil {
		return nil, fmt.Errorf("failed to parse product names response: %w", err)
	}

	inputTokens := int(response.Usage.InputTokens)
	outputTokens := int(response.Usage.OutputTokens)

	return &ProductNameResponse{
		Products:     extracted.Products,
		InputTokens:  inputTokens,
		OutputTokens: outputTokens,
		Cost:         p.costService.CalculateCost("anthropic", p.model, inputTokens, outputTokens),
	}, nil
}

func (p *anthropicProductsProvider) extractResponseText(response anthropic.Message) string {
	var textParts []string

	for _, block := range response.Content {
		switch variant := block.AsAny().(type) {
		case anthropic.TextBlock:
			textParts = append(textParts, variant.Text)
		}
	}

	return strings.Join(textParts, "")
}
