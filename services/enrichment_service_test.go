package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/answerlens/answerlens-workflows/services"
	"github.com/answerlens/answerlens-workflows/services/testutil"
	"github.com/google/uuid"
)

func TestEnrichmentFallbackChain(t *testing.T) {
	primary := &testutil.MockProductNameProvider{
		Name: "openai",
		ExtractProductNamesFunc: func(ctx context.Context, req *services.ProductNameRequest) (*services.ProductNameResponse, error) {
			return nil, errors.New("rate limited")
		},
	}
	fallback := &testutil.MockProductNameProvider{
		Name: "anthropic",
		ExtractProductNamesFunc: func(ctx context.Context, req *services.ProductNameRequest) (*services.ProductNameResponse, error) {
			return &services.ProductNameResponse{Products: []string{"Air Max"}, Cost: 0.02}, nil
		},
	}

	svc := services.NewEnrichmentServiceWithProviders([]services.ProductNameProvider{primary, fallback}, time.Second)

	discovery := svc.GetBrandProducts(context.Background(), uuid.New(), "Nike", nil, "some answer")

	if discovery.Provider != "anthropic" {
		t.Errorf("provider = %q, want fallback 'anthropic'", discovery.Provider)
	}
	if len(discovery.Products) != 1 || discovery.Products[0] != "Air Max" {
		t.Errorf("products = %v, want [Air Max]", discovery.Products)
	}
	if primary.CallCount() != 1 || fallback.CallCount() != 1 {
		t.Errorf("call counts = %d/%d, want 1/1", primary.CallCount(), fallback.CallCount())
	}
}

func TestEnrichmentTerminalFallbackIsEmptyNotError(t *testing.T) {
	failing := &testutil.MockProductNameProvider{
		ExtractProductNamesFunc: func(ctx context.Context, req *services.ProductNameRequest) (*services.ProductNameResponse, error) {
			return nil, errors.New("unreachable")
		},
	}

	svc := services.NewEnrichmentServiceWithProviders([]services.ProductNameProvider{failing, failing}, time.Second)

	discovery := svc.GetBrandProducts(context.Background(), uuid.New(), "Nike", nil, "answer")

	if discovery == nil {
		t.Fatal("expected explicit empty discovery, got nil")
	}
	if len(discovery.Products) != 0 {
		t.Errorf("products = %v, want empty", discovery.Products)
	}
	if discovery.Provider != "" {
		t.Errorf("provider = %q, want empty for terminal fallback", discovery.Provider)
	}
}

func TestEnrichmentTimeoutDegradesToNextProvider(t *testing.T) {
	slow := &testutil.MockProductNameProvider{
		Name: "openai",
		ExtractProductNamesFunc: func(ctx context.Context, req *services.ProductNameRequest) (*services.ProductNameResponse, error) {
			select {
			case <-time.After(5 * time.Second):
				return &services.ProductNameResponse{Products: []string{"too late"}}, nil
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		},
	}
	fast := &testutil.MockProductNameProvider{
		Name: "anthropic",
		ExtractProductNamesFunc: func(ctx context.Context, req *services.ProductNameRequest) (*services.ProductNameResponse, error) {
			return &services.ProductNameResponse{Products: []string{"Air Max"}}, nil
		},
	}

	svc := services.NewEnrichmentServiceWithProviders([]services.ProductNameProvider{slow, fast}, 20*time.Millisecond)

	discovery := svc.GetBrandProducts(context.Background(), uuid.New(), "Nike", nil, "answer")

	if discovery.Provider != "anthropic" {
		t.Errorf("provider = %q, want 'anthropic' after timeout", discovery.Provider)
	}
}

func TestEnrichmentCapsAndCleansProducts(t *testing.T) {
	noisy := &testutil.MockProductNameProvider{
		ExtractProductNamesFunc: func(ctx context.Context, req *services.ProductNameRequest) (*services.ProductNameResponse, error) {
			products := []string{" Air Max ", "", "  "}
			for i := 0; i < 20; i++ {
				products = append(products, "Product")
			}
			return &services.ProductNameResponse{Products: products}, nil
		},
	}

	svc := services.NewEnrichmentServiceWithProviders([]services.ProductNameProvider{noisy}, time.Second)

	discovery := svc.GetBrandProducts(context.Background(), uuid.New(), "Nike", nil, "answer")

	if len(discovery.Products) != 12 {
		t.Errorf("products capped at %d, want 12", len(discovery.Products))
	}
	if discovery.Products[0] != "Air Max" {
		t.Errorf("products[0] = %q, want trimmed 'Air Max'", discovery.Products[0])
	}
	for _, p := range discovery.Products {
		if p == "" {
			t.Error("blank product name survived cleaning")
		}
	}
}
