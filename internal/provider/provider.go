// Package provider abstracts embedding backends. Each registered model name
// maps to a Provider; orchestration never talks to a vendor SDK directly.
package provider

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/MiguelAngelGutierrezMaya/agent-project-sub002/internal/config"
	"github.com/MiguelAngelGutierrezMaya/agent-project-sub002/internal/models"
)

var (
	// ErrUnknownModel means a tenant's configured embedding model has no
	// registered provider. This is a configuration error, never defaulted.
	ErrUnknownModel = errors.New("unknown embedding model")

	// ErrBatchUnsupported is returned by providers without an asynchronous
	// batch API.
	ErrBatchUnsupported = errors.New("provider does not support batch processing")
)

// Provider generates embeddings for one model, in direct (synchronous) or
// batch (submit + poll) form.
type Provider interface {
	// GenerateEmbeddings computes vectors synchronously. Every input item
	// yields a result; a nil embedding marks a per-item provider failure.
	GenerateEmbeddings(ctx context.Context, items []models.ProcessingItem) ([]models.EmbeddingResult, error)

	// GenerateBatchEmbeddings submits all items as one provider-side batch
	// job and returns one result per item with a shared batch id and no
	// vector.
	GenerateBatchEmbeddings(ctx context.Context, items []models.ProcessingItem) ([]models.EmbeddingResult, error)

	// GetBatchEmbeddings polls a previously submitted batch. Only items
	// whose vectors are ready are returned; absent items stay in flight.
	GetBatchEmbeddings(ctx context.Context, batchID string, itemIDs []uuid.UUID, schemaName, entityType string) ([]models.EmbeddingResult, error)

	SupportsBatchProcessing() bool
	Name() string
}

// Registry maps model names to providers.
type Registry struct {
	providers map[string]Provider
}

var openAIModels = []string{
	"text-embedding-3-small",
	"text-embedding-3-large",
	"text-embedding-ada-002",
}

var ollamaModels = []string{
	"nomic-embed-text",
	"mxbai-embed-large",
}

func NewRegistry(cfg config.ProviderConfig) *Registry {
	r := &Registry{providers: make(map[string]Provider)}

	if cfg.OpenAIKey != "" {
		for _, model := range openAIModels {
			r.providers[model] = NewOpenAIProvider(OpenAIConfig{
				APIKey:  cfg.OpenAIKey,
				BaseURL: cfg.OpenAIBaseURL,
				Model:   model,
				Timeout: cfg.RequestTimeout,
			})
		}
	}

	if cfg.OllamaURL != "" {
		for _, model := range ollamaModels {
			r.providers[model] = NewOllamaProvider(cfg.OllamaURL, model, cfg.RequestTimeout)
		}
	}

	return r
}

// Register binds a provider to a model name, replacing any existing binding.
func (r *Registry) Register(model string, p Provider) {
	r.providers[model] = p
}

func (r *Registry) Provider(model string) (Provider, error) {
	p, ok := r.providers[model]
	if !ok {
		return nil, fmt.Errorf("model %q: %w", model, ErrUnknownModel)
	}
	return p, nil
}
