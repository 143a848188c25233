// Package pipeline orchestrates the two embedding cycles: generation
// (discover pending work, render, embed, persist) and reconciliation (poll
// outstanding batch jobs, write back vectors, advance the modification state
// machine).
package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/MiguelAngelGutierrezMaya/agent-project-sub002/internal/models"
	"github.com/MiguelAngelGutierrezMaya/agent-project-sub002/internal/provider"
)

// ModificationRegistry is the public-schema registry surface the pipeline
// consumes, implemented by store.Registry.
type ModificationRegistry interface {
	PendingModifications(ctx context.Context) ([]models.CompanyModification, error)
	MarkReviewed(ctx context.Context, requestID uuid.UUID) (bool, error)
}

// TenantGateway is the tenant-schema persistence surface, implemented by
// store.Gateway.
type TenantGateway interface {
	EmbeddingConfig(ctx context.Context, schema string) (models.EmbeddingConfig, error)
	PendingProducts(ctx context.Context, schema string) ([]models.Product, error)
	PendingDocuments(ctx context.Context, schema string) ([]models.Document, error)
	ProcessingBatches(ctx context.Context, schema, table string) (map[string][]uuid.UUID, error)
	StoreEmbeddings(ctx context.Context, schema, table, model string, results []models.EmbeddingResult) error
	UpdateCompletedEmbeddings(ctx context.Context, schema, table, model string, results []models.EmbeddingResult) error
	MarkEmbeddingsFailed(ctx context.Context, schema, table string, entityIDs []uuid.UUID) error
	FailStaleProcessing(ctx context.Context, schema, table string, before time.Time) (int64, error)
	HasUnfinishedRows(ctx context.Context, schema, table string) (bool, error)
}

// ProviderRegistry resolves a tenant's configured model to a provider,
// implemented by provider.Registry.
type ProviderRegistry interface {
	Provider(model string) (provider.Provider, error)
}
