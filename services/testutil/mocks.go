// services/testutil/mocks.go
package testutil

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/answerlens/answerlens-workflows/internal/models"
	"github.com/answerlens/answerlens-workflows/services"
	"github.com/google/uuid"
)

// MockBrandRepo is a mock implementation of repositories.BrandRepository
type MockBrandRepo struct {
	GetByIDFunc        func(ctx context.Context, brandID uuid.UUID) (*models.Brand, error)
	GetCompetitorsFunc func(ctx context.Context, brandID uuid.UUID) ([]*models.BrandCompetitor, error)
}

func (m *MockBrandRepo) GetByID(ctx context.Context, brandID uuid.UUID) (*models.Brand, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, brandID)
	}
	return &models.Brand{BrandID: brandID, Name: "Acme"}, nil
}

func (m *MockBrandRepo) GetCompetitors(ctx context.Context, brandID uuid.UUID) ([]*models.BrandCompetitor, error) {
	if m.GetCompetitorsFunc != nil {
		return m.GetCompetitorsFunc(ctx, brandID)
	}
	return []*models.BrandCompetitor{}, nil
}

// MockAnswerRunRepo is a mock implementation of repositories.AnswerRunRepository
type MockAnswerRunRepo struct {
	GetByIDFunc        func(ctx context.Context, answerRunID uuid.UUID) (*models.AnswerRun, error)
	GetUnprocessedFunc func(ctx context.Context, limit int) ([]*models.AnswerRun, error)
}

func (m *MockAnswerRunRepo) GetByID(ctx context.Context, answerRunID uuid.UUID) (*models.AnswerRun, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, answerRunID)
	}
	return nil, nil
}

func (m *MockAnswerRunRepo) GetUnprocessed(ctx context.Context, limit int) ([]*models.AnswerRun, error) {
	if m.GetUnprocessedFunc != nil {
		return m.GetUnprocessedFunc(ctx, limit)
	}
	return []*models.AnswerRun{}, nil
}

// MockAnswerPositionRepo records every Replace call so tests can assert the
// delete-then-insert contract and idempotent reruns.
type MockAnswerPositionRepo struct {
	mu       sync.Mutex
	Replaced map[uuid.UUID][][]*models.AnswerPosition

	GetByAnswerRunFunc func(ctx context.Context, answerRunID uuid.UUID) ([]*models.AnswerPosition, error)
	ReplaceFunc        func(ctx context.Context, answerRunID uuid.UUID, rows []*models.AnswerPosition) error
}

func NewMockAnswerPositionRepo() *MockAnswerPositionRepo {
	return &MockAnswerPositionRepo{Replaced: make(map[uuid.UUID][][]*models.AnswerPosition)}
}

func (m *MockAnswerPositionRepo) GetByAnswerRun(ctx context.Context, answerRunID uuid.UUID) ([]*models.AnswerPosition, error) {
	if m.GetByAnswerRunFunc != nil {
		return m.GetByAnswerRunFunc(ctx, answerRunID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	sets := m.Replaced[answerRunID]
	if len(sets) == 0 {
		return []*models.AnswerPosition{}, nil
	}
	return sets[len(sets)-1], nil
}

func (m *MockAnswerPositionRepo) DeleteByAnswerRun(ctx context.Context, answerRunID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.Replaced, answerRunID)
	return nil
}

func (m *MockAnswerPositionRepo) Replace(ctx context.Context, answerRunID uuid.UUID, rows []*models.AnswerPosition) error {
	if m.ReplaceFunc != nil {
		return m.ReplaceFunc(ctx, answerRunID, rows)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Replaced[answerRunID] = append(m.Replaced[answerRunID], rows)
	return nil
}

// ReplaceCount returns how many times positions were rewritten for a run.
func (m *MockAnswerPositionRepo) ReplaceCount(answerRunID uuid.UUID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Replaced[answerRunID])
}

// LatestRows returns the most recently written row set for a run.
func (m *MockAnswerPositionRepo) LatestRows(answerRunID uuid.UUID) []*models.AnswerPosition {
	m.mu.Lock()
	defer m.mu.Unlock()
	sets := m.Replaced[answerRunID]
	if len(sets) == 0 {
		return nil
	}
	return sets[len(sets)-1]
}

// MockProductNameProvider is a scriptable services.ProductNameProvider.
type MockProductNameProvider struct {
	Name                    string
	ExtractProductNamesFunc func(ctx context.Context, req *services.ProductNameRequest) (*services.ProductNameResponse, error)

	mu    sync.Mutex
	calls int
}

func (m *MockProductNameProvider) GetProviderName() string {
	if m.Name != "" {
		return m.Name
	}
	return "mock"
}

func (m *MockProductNameProvider) ExtractProductNames(ctx context.Context, req *services.ProductNameRequest) (*services.ProductNameResponse, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.ExtractProductNamesFunc != nil {
		return m.ExtractProductNamesFunc(ctx, req)
	}
	return &services.ProductNameResponse{Products: []string{}}, nil
}

func (m *MockProductNameProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// MockEnrichment is a mock implementation of services.EnrichmentService.
type MockEnrichment struct {
	Products []string
	Cost     float64

	mu    sync.Mutex
	calls int
}

func (m *MockEnrichment) GetBrandProducts(ctx context.Context, brandID uuid.UUID, brandName string, metadata json.RawMessage, answerText string) *services.ProductDiscovery {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	return &services.ProductDiscovery{Products: m.Products, Provider: "mock", Cost: m.Cost}
}

func (m *MockEnrichment) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}
