package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/MiguelAngelGutierrezMaya/agent-project-sub002/internal/models"
	"github.com/MiguelAngelGutierrezMaya/agent-project-sub002/internal/provider"
)

// Shared fakes for generator and reconciler tests.

type fakeRegistry struct {
	mods     []models.CompanyModification
	reviewed map[uuid.UUID]int
}

func newFakeRegistry(mods ...models.CompanyModification) *fakeRegistry {
	return &fakeRegistry{mods: mods, reviewed: make(map[uuid.UUID]int)}
}

func (f *fakeRegistry) PendingModifications(ctx context.Context) ([]models.CompanyModification, error) {
	return f.mods, nil
}

func (f *fakeRegistry) MarkReviewed(ctx context.Context, requestID uuid.UUID) (bool, error) {
	f.reviewed[requestID]++
	return f.reviewed[requestID] == 1, nil
}

type storeCall struct {
	schema  string
	table   string
	model   string
	results []models.EmbeddingResult
}

type fakeGateway struct {
	configs    map[string]models.EmbeddingConfig
	products   map[string][]models.Product
	documents  map[string][]models.Document
	batches    map[string]map[string][]uuid.UUID
	unfinished bool

	stored    []storeCall
	updated   []storeCall
	failedIDs []uuid.UUID
	staleN    int64
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		configs:   make(map[string]models.EmbeddingConfig),
		products:  make(map[string][]models.Product),
		documents: make(map[string][]models.Document),
		batches:   make(map[string]map[string][]uuid.UUID),
	}
}

func (f *fakeGateway) EmbeddingConfig(ctx context.Context, schema string) (models.EmbeddingConfig, error) {
	cfg, ok := f.configs[schema]
	if !ok {
		return models.EmbeddingConfig{}, errors.New("no ai_config row")
	}
	return cfg, nil
}

func (f *fakeGateway) PendingProducts(ctx context.Context, schema string) ([]models.Product, error) {
	return f.products[schema], nil
}

func (f *fakeGateway) PendingDocuments(ctx context.Context, schema string) ([]models.Document, error) {
	return f.documents[schema], nil
}

func (f *fakeGateway) ProcessingBatches(ctx context.Context, schema, table string) (map[string][]uuid.UUID, error) {
	return f.batches[schema], nil
}

func (f *fakeGateway) StoreEmbeddings(ctx context.Context, schema, table, model string, results []models.EmbeddingResult) error {
	f.stored = append(f.stored, storeCall{schema: schema, table: table, model: model, results: results})
	return nil
}

func (f *fakeGateway) UpdateCompletedEmbeddings(ctx context.Context, schema, table, model string, results []models.EmbeddingResult) error {
	f.updated = append(f.updated, storeCall{schema: schema, table: table, model: model, results: results})
	return nil
}

func (f *fakeGateway) MarkEmbeddingsFailed(ctx context.Context, schema, table string, entityIDs []uuid.UUID) error {
	f.failedIDs = append(f.failedIDs, entityIDs...)
	return nil
}

func (f *fakeGateway) FailStaleProcessing(ctx context.Context, schema, table string, before time.Time) (int64, error) {
	return f.staleN, nil
}

func (f *fakeGateway) HasUnfinishedRows(ctx context.Context, schema, table string) (bool, error) {
	return f.unfinished, nil
}

type fakeProvider struct {
	name           string
	dims           int
	batchSupported bool
	failAll        bool

	batchCount   int
	batchResults map[string][]models.EmbeddingResult
	batchErr     error
}

func (f *fakeProvider) Name() string                  { return f.name }
func (f *fakeProvider) SupportsBatchProcessing() bool { return f.batchSupported }

func (f *fakeProvider) GenerateEmbeddings(ctx context.Context, items []models.ProcessingItem) ([]models.EmbeddingResult, error) {
	results := make([]models.EmbeddingResult, len(items))
	for i, it := range items {
		results[i] = models.EmbeddingResult{
			OriginalText: it.Markdown,
			EntityID:     it.EntityID,
			EntityType:   it.EntityType,
			SchemaName:   it.SchemaName,
		}
		if !f.failAll {
			results[i].Embedding = make([]float32, f.dims)
		}
	}
	return results, nil
}

func (f *fakeProvider) GenerateBatchEmbeddings(ctx context.Context, items []models.ProcessingItem) ([]models.EmbeddingResult, error) {
	if !f.batchSupported {
		return nil, provider.ErrBatchUnsupported
	}
	f.batchCount++
	batchID := fmt.Sprintf("batch_%d", f.batchCount)
	results := make([]models.EmbeddingResult, len(items))
	for i, it := range items {
		results[i] = models.EmbeddingResult{
			OriginalText: it.Markdown,
			EntityID:     it.EntityID,
			EntityType:   it.EntityType,
			SchemaName:   it.SchemaName,
			BatchID:      batchID,
		}
	}
	return results, nil
}

func (f *fakeProvider) GetBatchEmbeddings(ctx context.Context, batchID string, itemIDs []uuid.UUID, schemaName, entityType string) ([]models.EmbeddingResult, error) {
	if f.batchErr != nil {
		return nil, f.batchErr
	}
	return f.batchResults[batchID], nil
}

type fakeProviders struct {
	byModel map[string]provider.Provider
}

func (f *fakeProviders) Provider(model string) (provider.Provider, error) {
	p, ok := f.byModel[model]
	if !ok {
		return nil, fmt.Errorf("model %q: %w", model, provider.ErrUnknownModel)
	}
	return p, nil
}

func pendingModification(schema, table string) models.CompanyModification {
	reqID := uuid.New()
	return models.CompanyModification{
		ID:                    uuid.New(),
		ModificationRequestID: reqID,
		Request: models.ModificationRequest{
			ID:         reqID,
			SchemaName: schema,
			TableName:  table,
			Status:     models.ModificationStatusPending,
			CreatedAt:  time.Now(),
		},
	}
}
