package pipeline

import (
	"context"
	"log/slog"

	"github.com/MiguelAngelGutierrezMaya/agent-project-sub002/internal/models"
	"github.com/MiguelAngelGutierrezMaya/agent-project-sub002/internal/provider"
)

const (
	defaultDirectMaxBatchSize = 100
	defaultBatchMaxBatchSize  = 500
)

// Mode is the processing-mode strategy: it normalizes direct and batch
// provider calls into one result shape and bounds how many items go into a
// single provider call.
type Mode interface {
	Process(ctx context.Context, items []models.ProcessingItem) ([]models.EmbeddingResult, error)
	MaxBatchSize() int
	Name() string
}

// ModeOptions override the per-call chunk sizes; zero values keep defaults.
type ModeOptions struct {
	DirectMaxBatchSize int
	BatchMaxBatchSize  int
}

// ModeFor picks the processing mode for a tenant. A batch-configured tenant
// whose provider has no batch API falls back to direct semantics instead of
// erroring, so its rows never end up processing without a batch id.
func ModeFor(cfg models.EmbeddingConfig, p provider.Provider, opts ModeOptions) Mode {
	directSize := opts.DirectMaxBatchSize
	if directSize <= 0 {
		directSize = defaultDirectMaxBatchSize
	}
	batchSize := opts.BatchMaxBatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchMaxBatchSize
	}

	if cfg.BatchEmbedding {
		if p.SupportsBatchProcessing() {
			return batchMode{provider: p, maxBatchSize: batchSize}
		}
		slog.Warn("provider lacks batch support, falling back to direct mode",
			"schema", cfg.SchemaName,
			"model", cfg.EmbeddingModel,
			"provider", p.Name(),
		)
	}
	return directMode{provider: p, maxBatchSize: directSize}
}

type directMode struct {
	provider     provider.Provider
	maxBatchSize int
}

func (m directMode) Name() string      { return "direct" }
func (m directMode) MaxBatchSize() int { return m.maxBatchSize }

func (m directMode) Process(ctx context.Context, items []models.ProcessingItem) ([]models.EmbeddingResult, error) {
	return m.provider.GenerateEmbeddings(ctx, items)
}

type batchMode struct {
	provider     provider.Provider
	maxBatchSize int
}

func (m batchMode) Name() string      { return "batch" }
func (m batchMode) MaxBatchSize() int { return m.maxBatchSize }

func (m batchMode) Process(ctx context.Context, items []models.ProcessingItem) ([]models.EmbeddingResult, error) {
	return m.provider.GenerateBatchEmbeddings(ctx, items)
}
