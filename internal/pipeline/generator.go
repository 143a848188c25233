package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/MiguelAngelGutierrezMaya/agent-project-sub002/internal/models"
	"github.com/MiguelAngelGutierrezMaya/agent-project-sub002/internal/render"
)

// Generator runs the generate-embeddings cycle: discover pending
// modifications across all tenant schemas, render changed entities to
// markdown, dispatch them to the tenant's provider in its configured mode
// and persist the results.
type Generator struct {
	registry  ModificationRegistry
	gateway   TenantGateway
	providers ProviderRegistry
	modeOpts  ModeOptions
}

func NewGenerator(registry ModificationRegistry, gateway TenantGateway, providers ProviderRegistry, opts ModeOptions) *Generator {
	return &Generator{
		registry:  registry,
		gateway:   gateway,
		providers: providers,
		modeOpts:  opts,
	}
}

// Run processes tenants sequentially. A tenant's failure is logged and never
// aborts the pass for the others.
func (g *Generator) Run(ctx context.Context) error {
	mods, err := g.registry.PendingModifications(ctx)
	if err != nil {
		return fmt.Errorf("discover pending modifications: %w", err)
	}

	slog.Info("generate cycle started", "pending_modifications", len(mods))

	for _, mod := range mods {
		if err := g.processModification(ctx, mod); err != nil {
			slog.Error("tenant embedding generation failed",
				"schema", mod.Request.SchemaName,
				"table", mod.Request.TableName,
				"error", err,
			)
		}
	}
	return nil
}

func (g *Generator) processModification(ctx context.Context, mod models.CompanyModification) error {
	req := mod.Request

	cfg, err := g.gateway.EmbeddingConfig(ctx, req.SchemaName)
	if err != nil {
		slog.Warn("skipping tenant: embedding config unavailable", "schema", req.SchemaName, "error", err)
		return nil
	}
	if err := cfg.Validate(); err != nil {
		slog.Warn("skipping tenant: invalid embedding config", "schema", req.SchemaName, "error", err)
		return nil
	}

	p, err := g.providers.Provider(cfg.EmbeddingModel)
	if err != nil {
		slog.Warn("skipping tenant: no provider for model",
			"schema", req.SchemaName, "model", cfg.EmbeddingModel, "error", err)
		return nil
	}

	items, err := g.pendingItems(ctx, req)
	if err != nil {
		return err
	}

	if len(items) == 0 {
		// A prior pass may already have embedded everything for this table;
		// the request can be reviewed once no row is pending or in flight.
		unfinished, err := g.gateway.HasUnfinishedRows(ctx, req.SchemaName, req.TableName)
		if err != nil {
			return err
		}
		if !unfinished {
			if _, err := g.registry.MarkReviewed(ctx, req.ID); err != nil {
				return err
			}
		}
		return nil
	}

	mode := ModeFor(cfg, p, g.modeOpts)

	// All provider calls complete before any row is written, so no pool
	// connection is held across network I/O.
	var results []models.EmbeddingResult
	var chunkErr error
	for start := 0; start < len(items); start += mode.MaxBatchSize() {
		end := min(start+mode.MaxBatchSize(), len(items))
		chunk, err := mode.Process(ctx, items[start:end])
		if err != nil {
			// A failed submission transitions nothing; the untouched items
			// stay pending and retry next cycle. Results from chunks already
			// submitted must still be persisted or their batch jobs would be
			// orphaned.
			chunkErr = fmt.Errorf("process chunk at offset %d: %w", start, err)
			break
		}
		results = append(results, chunk...)
	}

	if len(results) > 0 {
		if err := g.gateway.StoreEmbeddings(ctx, req.SchemaName, req.TableName, cfg.EmbeddingModel, results); err != nil {
			return fmt.Errorf("store embeddings: %w", err)
		}
	}
	if chunkErr != nil {
		return chunkErr
	}

	slog.Info("tenant embeddings generated",
		"schema", req.SchemaName,
		"table", req.TableName,
		"mode", mode.Name(),
		"items", len(results),
	)

	// Direct results are terminal, so the request is reviewed without a
	// reconciliation pass. Batch results wait for the check-status cycle.
	if allTerminal(results) {
		if _, err := g.registry.MarkReviewed(ctx, req.ID); err != nil {
			return err
		}
	}
	return nil
}

func (g *Generator) pendingItems(ctx context.Context, req models.ModificationRequest) ([]models.ProcessingItem, error) {
	renderer, err := render.ForTable(req.TableName)
	if err != nil {
		slog.Warn("skipping tenant: unrenderable table", "schema", req.SchemaName, "table", req.TableName)
		return nil, nil
	}

	var entities []any
	switch req.TableName {
	case models.TableProducts:
		products, err := g.gateway.PendingProducts(ctx, req.SchemaName)
		if err != nil {
			return nil, err
		}
		for _, p := range products {
			entities = append(entities, p)
		}
	case models.TableDocuments:
		documents, err := g.gateway.PendingDocuments(ctx, req.SchemaName)
		if err != nil {
			return nil, err
		}
		for _, d := range documents {
			entities = append(entities, d)
		}
	}

	items := make([]models.ProcessingItem, 0, len(entities))
	for _, entity := range entities {
		markdown, err := renderer.GenerateMarkdown(entity)
		if err != nil {
			slog.Warn("skipping entity: render failed", "schema", req.SchemaName, "table", req.TableName, "error", err)
			continue
		}
		items = append(items, models.ProcessingItem{
			Markdown:   markdown,
			EntityID:   entityID(entity),
			EntityType: req.TableName,
			SchemaName: req.SchemaName,
		})
	}
	return items, nil
}

func entityID(entity any) uuid.UUID {
	switch e := entity.(type) {
	case models.Product:
		return e.ID
	case models.Document:
		return e.ID
	}
	return uuid.Nil
}

func allTerminal(results []models.EmbeddingResult) bool {
	for _, res := range results {
		if res.Status() == models.EmbeddingStatusProcessing {
			return false
		}
	}
	return true
}
