package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/MiguelAngelGutierrezMaya/agent-project-sub002/internal/models"
)

// Reconciler runs the check-status cycle: poll providers for outstanding
// batch jobs, write completed vectors back and mark fully-embedded
// modification requests reviewed.
type Reconciler struct {
	registry  ModificationRegistry
	gateway   TenantGateway
	providers ProviderRegistry

	// maxAge bounds how long a row may sit in processing before it is given
	// up as failed; zero disables the cutoff.
	maxAge time.Duration
}

func NewReconciler(registry ModificationRegistry, gateway TenantGateway, providers ProviderRegistry, maxAge time.Duration) *Reconciler {
	return &Reconciler{
		registry:  registry,
		gateway:   gateway,
		providers: providers,
		maxAge:    maxAge,
	}
}

// Run reconciles tenants sequentially; a tenant's failure never aborts the
// pass for the others.
func (r *Reconciler) Run(ctx context.Context) error {
	mods, err := r.registry.PendingModifications(ctx)
	if err != nil {
		return fmt.Errorf("discover pending modifications: %w", err)
	}

	slog.Info("check-status cycle started", "pending_modifications", len(mods))

	for _, mod := range mods {
		if err := r.reconcileModification(ctx, mod); err != nil {
			slog.Error("tenant reconciliation failed",
				"schema", mod.Request.SchemaName,
				"table", mod.Request.TableName,
				"error", err,
			)
		}
	}
	return nil
}

func (r *Reconciler) reconcileModification(ctx context.Context, mod models.CompanyModification) error {
	req := mod.Request

	cfg, err := r.gateway.EmbeddingConfig(ctx, req.SchemaName)
	if err != nil {
		slog.Warn("skipping tenant: embedding config unavailable", "schema", req.SchemaName, "error", err)
		return nil
	}
	if err := cfg.Validate(); err != nil {
		slog.Warn("skipping tenant: invalid embedding config", "schema", req.SchemaName, "error", err)
		return nil
	}

	p, err := r.providers.Provider(cfg.EmbeddingModel)
	if err != nil {
		slog.Warn("skipping tenant: no provider for model",
			"schema", req.SchemaName, "model", cfg.EmbeddingModel, "error", err)
		return nil
	}

	batches, err := r.gateway.ProcessingBatches(ctx, req.SchemaName, req.TableName)
	if err != nil {
		return err
	}

	for batchID, entityIDs := range batches {
		results, err := p.GetBatchEmbeddings(ctx, batchID, entityIDs, req.SchemaName, req.TableName)
		if err != nil {
			// Leave the batch in flight; the next cycle retries it.
			slog.Warn("batch poll failed",
				"schema", req.SchemaName, "batch_id", batchID, "error", err)
			continue
		}

		completed, failed := splitResults(results)
		if len(completed) > 0 {
			if err := r.gateway.UpdateCompletedEmbeddings(ctx, req.SchemaName, req.TableName, cfg.EmbeddingModel, completed); err != nil {
				return err
			}
		}
		if len(failed) > 0 {
			if err := r.gateway.MarkEmbeddingsFailed(ctx, req.SchemaName, req.TableName, failed); err != nil {
				return err
			}
		}

		slog.Info("batch reconciled",
			"schema", req.SchemaName,
			"batch_id", batchID,
			"completed", len(completed),
			"failed", len(failed),
			"outstanding", len(entityIDs)-len(results),
		)
	}

	if r.maxAge > 0 {
		stale, err := r.gateway.FailStaleProcessing(ctx, req.SchemaName, req.TableName, time.Now().Add(-r.maxAge))
		if err != nil {
			return err
		}
		if stale > 0 {
			slog.Warn("gave up on stale processing rows",
				"schema", req.SchemaName, "table", req.TableName, "count", stale)
		}
	}

	// Entities that were never embedded have no row for HasUnfinishedRows to
	// see. A request whose entities are still awaiting generation must stay
	// pending or the generate cycle would never pick it up again.
	pending, err := r.pendingEntityCount(ctx, req)
	if err != nil {
		return err
	}
	if pending > 0 {
		return nil
	}

	unfinished, err := r.gateway.HasUnfinishedRows(ctx, req.SchemaName, req.TableName)
	if err != nil {
		return err
	}
	if unfinished {
		return nil
	}

	marked, err := r.registry.MarkReviewed(ctx, req.ID)
	if err != nil {
		return err
	}
	if marked {
		slog.Info("modification request reviewed",
			"schema", req.SchemaName, "table", req.TableName, "request_id", req.ID)
	}
	return nil
}

func (r *Reconciler) pendingEntityCount(ctx context.Context, req models.ModificationRequest) (int, error) {
	switch req.TableName {
	case models.TableProducts:
		products, err := r.gateway.PendingProducts(ctx, req.SchemaName)
		if err != nil {
			return 0, err
		}
		return len(products), nil
	case models.TableDocuments:
		documents, err := r.gateway.PendingDocuments(ctx, req.SchemaName)
		if err != nil {
			return 0, err
		}
		return len(documents), nil
	}
	return 0, nil
}

func splitResults(results []models.EmbeddingResult) (completed []models.EmbeddingResult, failed []uuid.UUID) {
	for _, res := range results {
		if res.Embedding != nil {
			completed = append(completed, res)
		} else {
			failed = append(failed, res.EntityID)
		}
	}
	return completed, failed
}
