package pipeline

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MiguelAngelGutierrezMaya/agent-project-sub002/internal/models"
	"github.com/MiguelAngelGutierrezMaya/agent-project-sub002/internal/provider"
)

func blueMug() models.Product {
	return models.Product{
		ID:          uuid.New(),
		Name:        "Blue Mug",
		Type:        "product",
		Description: "A blue ceramic mug.",
		Category:    models.Category{Name: "Kitchen", Description: "Kitchenware."},
	}
}

func pendingDocs(n int) []models.Document {
	docs := make([]models.Document, n)
	for i := range docs {
		docs[i] = models.Document{
			ID:        uuid.New(),
			Name:      fmt.Sprintf("Doc %d", i),
			Type:      "url",
			SourceURL: fmt.Sprintf("https://example.com/doc-%d", i),
		}
	}
	return docs
}

// One direct-mode tenant with one pending product produces a single
// completed row with a full-size vector and no batch id.
func TestGenerator_DirectMode(t *testing.T) {
	mod := pendingModification("acme", models.TableProducts)
	registry := newFakeRegistry(mod)

	gateway := newFakeGateway()
	gateway.configs["acme"] = models.EmbeddingConfig{
		SchemaName: "acme", EmbeddingModel: "text-embedding-3-small",
		BatchEmbedding: false, VectorDimensions: 1536,
	}
	gateway.products["acme"] = []models.Product{blueMug()}

	p := &fakeProvider{name: "openai", dims: 1536, batchSupported: true}
	providers := &fakeProviders{byModel: map[string]provider.Provider{"text-embedding-3-small": p}}

	gen := NewGenerator(registry, gateway, providers, ModeOptions{})
	require.NoError(t, gen.Run(context.Background()))

	require.Len(t, gateway.stored, 1)
	call := gateway.stored[0]
	assert.Equal(t, "acme", call.schema)
	assert.Equal(t, models.TableProducts, call.table)
	require.Len(t, call.results, 1)
	assert.Len(t, call.results[0].Embedding, 1536)
	assert.Empty(t, call.results[0].BatchID)
	assert.Equal(t, models.EmbeddingStatusCompleted, call.results[0].Status())

	// Direct results are terminal, so the request was reviewed in-pass.
	assert.Equal(t, 1, registry.reviewed[mod.Request.ID])
}

// 50 pending documents with a batch cap of 20 submit as three batches
// (20/20/10), each with its own batch id, all rows in processing.
func TestGenerator_BatchMode_Chunking(t *testing.T) {
	mod := pendingModification("acme", models.TableDocuments)
	registry := newFakeRegistry(mod)

	gateway := newFakeGateway()
	gateway.configs["acme"] = models.EmbeddingConfig{
		SchemaName: "acme", EmbeddingModel: "text-embedding-3-small",
		BatchEmbedding: true, VectorDimensions: 1536,
	}
	gateway.documents["acme"] = pendingDocs(50)

	p := &fakeProvider{name: "openai", dims: 1536, batchSupported: true}
	providers := &fakeProviders{byModel: map[string]provider.Provider{"text-embedding-3-small": p}}

	gen := NewGenerator(registry, gateway, providers, ModeOptions{BatchMaxBatchSize: 20})
	require.NoError(t, gen.Run(context.Background()))

	require.Len(t, gateway.stored, 1)
	results := gateway.stored[0].results
	require.Len(t, results, 50)

	perBatch := map[string]int{}
	for _, res := range results {
		assert.Nil(t, res.Embedding)
		assert.Equal(t, models.EmbeddingStatusProcessing, res.Status())
		perBatch[res.BatchID]++
	}
	assert.Len(t, perBatch, 3)
	assert.ElementsMatch(t, []int{20, 20, 10}, []int{perBatch["batch_1"], perBatch["batch_2"], perBatch["batch_3"]})

	// Batch rows are still in flight; review waits for reconciliation.
	assert.Zero(t, registry.reviewed[mod.Request.ID])
}

// A batch-configured tenant on a provider without batch support falls back
// to direct semantics: terminal rows only, never processing without a batch
// id.
func TestGenerator_BatchFallbackToDirect(t *testing.T) {
	mod := pendingModification("acme", models.TableDocuments)
	registry := newFakeRegistry(mod)

	gateway := newFakeGateway()
	gateway.configs["acme"] = models.EmbeddingConfig{
		SchemaName: "acme", EmbeddingModel: "nomic-embed-text",
		BatchEmbedding: true, VectorDimensions: 768,
	}
	gateway.documents["acme"] = pendingDocs(5)

	p := &fakeProvider{name: "ollama", dims: 768, batchSupported: false}
	providers := &fakeProviders{byModel: map[string]provider.Provider{"nomic-embed-text": p}}

	gen := NewGenerator(registry, gateway, providers, ModeOptions{})
	require.NoError(t, gen.Run(context.Background()))

	require.Len(t, gateway.stored, 1)
	for _, res := range gateway.stored[0].results {
		assert.NotEqual(t, models.EmbeddingStatusProcessing, res.Status())
	}
	assert.Equal(t, 1, registry.reviewed[mod.Request.ID])
}

// A tenant with an invalid config is skipped; the remaining tenants' work is
// unaffected.
func TestGenerator_PartialFailureIsolation(t *testing.T) {
	good1 := pendingModification("acme", models.TableProducts)
	bad := pendingModification("globex", models.TableProducts)
	good2 := pendingModification("initech", models.TableProducts)
	registry := newFakeRegistry(good1, bad, good2)

	gateway := newFakeGateway()
	gateway.configs["acme"] = models.EmbeddingConfig{
		SchemaName: "acme", EmbeddingModel: "text-embedding-3-small", VectorDimensions: 1536,
	}
	gateway.configs["globex"] = models.EmbeddingConfig{
		SchemaName: "globex", EmbeddingModel: "text-embedding-3-small", VectorDimensions: 0,
	}
	gateway.configs["initech"] = models.EmbeddingConfig{
		SchemaName: "initech", EmbeddingModel: "text-embedding-3-small", VectorDimensions: 1536,
	}
	gateway.products["acme"] = []models.Product{blueMug()}
	gateway.products["globex"] = []models.Product{blueMug()}
	gateway.products["initech"] = []models.Product{blueMug()}

	p := &fakeProvider{name: "openai", dims: 1536, batchSupported: true}
	providers := &fakeProviders{byModel: map[string]provider.Provider{"text-embedding-3-small": p}}

	gen := NewGenerator(registry, gateway, providers, ModeOptions{})
	require.NoError(t, gen.Run(context.Background()))

	schemas := make([]string, 0, len(gateway.stored))
	for _, call := range gateway.stored {
		schemas = append(schemas, call.schema)
	}
	assert.ElementsMatch(t, []string{"acme", "initech"}, schemas)
}

func TestGenerator_UnknownModelSkipsTenant(t *testing.T) {
	mod := pendingModification("acme", models.TableProducts)
	registry := newFakeRegistry(mod)

	gateway := newFakeGateway()
	gateway.configs["acme"] = models.EmbeddingConfig{
		SchemaName: "acme", EmbeddingModel: "mystery-model", VectorDimensions: 1536,
	}
	gateway.products["acme"] = []models.Product{blueMug()}

	providers := &fakeProviders{byModel: map[string]provider.Provider{}}

	gen := NewGenerator(registry, gateway, providers, ModeOptions{})
	require.NoError(t, gen.Run(context.Background()))

	assert.Empty(t, gateway.stored)
	assert.Zero(t, registry.reviewed[mod.Request.ID])
}

// No pending entities and no unfinished rows: the request is reviewed
// without provider calls.
func TestGenerator_NothingPendingReviewsRequest(t *testing.T) {
	mod := pendingModification("acme", models.TableProducts)
	registry := newFakeRegistry(mod)

	gateway := newFakeGateway()
	gateway.configs["acme"] = models.EmbeddingConfig{
		SchemaName: "acme", EmbeddingModel: "text-embedding-3-small", VectorDimensions: 1536,
	}
	gateway.unfinished = false

	p := &fakeProvider{name: "openai", dims: 1536, batchSupported: true}
	providers := &fakeProviders{byModel: map[string]provider.Provider{"text-embedding-3-small": p}}

	gen := NewGenerator(registry, gateway, providers, ModeOptions{})
	require.NoError(t, gen.Run(context.Background()))

	assert.Empty(t, gateway.stored)
	assert.Equal(t, 1, registry.reviewed[mod.Request.ID])
}
