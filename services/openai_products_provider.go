// services/openai_products_provider.go
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/answerlens/answerlens-workflows/internal/config"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

type openAIProductsProvider struct {
	client      *openai.Client
	model       string
	costService CostService
}

// NewOpenAIProductsProvider creates the primary product-name provider backed
// by OpenAI structured outputs.
func NewOpenAIProductsProvider(cfg *config.Config, costService CostService) ProductNameProvider {
	client := openai.NewClient(option.WithAPIKey(cfg.OpenAIAPIKey))

	return &openAIProductsProvider{
		client:      &client,
		model:       "gpt-4.1-mini",
		costService: costService,
	}
}

func (p *openAIProductsProvider) GetProviderName() string {
	return "openai"
}

// ProductNamesExtraction is the structured output for product name discovery
type ProductNamesExtraction struct {
	Products []string `json:"products" jsonschema_description:"Product, service or offering names belonging to the brand, as they would appear in text"`
}

var productNamesSchema = GenerateSchema[ProductNamesExtraction]()

func (p *openAIProductsProvider) ExtractProductNames(ctx context.Context, req *ProductNameRequest) (*ProductNameResponse, error) {
	prompt := buildProductNamesPrompt(req)

	model := openai.ChatModel(p.model)

	schemaParam := openai.ResponseFormatJSONSchemaJSONSchemaParam{
		Name:        "product_names_extraction",
		Description: openai.String("Extract product names belonging to a brand"),
		Schema:      productNamesSchema,
		Strict:      openai.Bool(true),
	}

	chatResponse, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage("You are a competitive intelligence analyst. List only product names that genuinely belong to the given brand."),
			openai.UserMessage(prompt),
		},
		Model: model,
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{JSONSchema: schemaParam},
		},
		Temperature: openai.Float(0), // Deterministic extraction
	})
	if err != nil {
		return nil, fmt.Errorf("failed to extract product names: %w", err)
	}

	if len(chatResponse.Choices) == 0 {
		return nil, fmt.Errorf("no response choices returned from OpenAI")
	}

	var extracted ProductNamesExtraction
	if err := json.Unmarshal([]byte(chatResponse.Choices[0].Message.Content), &extracted); err != nil {
		return nil, fmt.Errorf("failed to parse product names response: %w", err)
	}

	inputTokens := int(chatResponse.Usage.PromptTokens)
	outputTokens := int(chatResponse.Usage.CompletionTokens)

	return &ProductNameResponse{
		Products:     extracted.Products,
		InputTokens:  inputTokens,
		OutputTokens: outputTokens,
		Cost:         p.costService.CalculateCost("openai", p.model, inputTokens, outputTokens),
	}, nil
}

func buildProductNamesPrompt(req *ProductNameRequest) string {
	metadata := ""
	if len(req.Metadata) > 0 {
		metadata = fmt.Sprintf("## BRAND METADATA\n%s\n\n", string(req.Metadata))
	}

	return fmt.Sprintf(`You are identifying product names for brand visibility tracking.

## TASK
List the product, service or offering names that belong to the brand "%s" and could plausibly appear in AI assistant answers about its market.

## RULES
- Only names that belong to "%s" — never competitor products
- Use the name form that appears in text ("Air Max", not "the Air Max line")
- No generic categories ("running shoes", "cloud services")
- Prefer names that actually occur in the answer text below
- Return at most 12 names; return an empty list when nothing qualifies

%s## ANSWER TEXT (context for which products are relevant)
"""
%s
"""`, req.BrandName, req.BrandName, metadata, truncate(req.AnswerText, 6000))
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return strings.ToValidUTF8(s[:max], "")
}
