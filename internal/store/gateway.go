package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"

	"github.com/MiguelAngelGutierrezMaya/agent-project-sub002/internal/models"
)

// Gateway owns all access to tenant-schema data. Every operation runs inside
// one transaction that first executes SET LOCAL search_path, so the schema
// switch and the statements that rely on it are pinned to the same
// connection and can never leak into another tenant's pass under pool reuse.
type Gateway struct {
	db DB
}

func NewGateway(db DB) *Gateway {
	return &Gateway{db: db}
}

func (g *Gateway) withTenantTx(ctx context.Context, schema string, fn func(pgx.Tx) error) error {
	tx, err := g.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tenant tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "SET LOCAL search_path TO "+pgx.Identifier{schema}.Sanitize()+", public"); err != nil {
		return fmt.Errorf("set search_path to %s: %w", schema, err)
	}

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func embeddingTable(table string) (name, fk string, err error) {
	switch table {
	case models.TableProducts:
		return "product_embeddings", "product_id", nil
	case models.TableDocuments:
		return "document_embeddings", "document_id", nil
	}
	return "", "", fmt.Errorf("no embedding table for %q", table)
}

// EmbeddingConfig loads the tenant's embedding settings from its ai_config
// joined with the model catalog.
func (g *Gateway) EmbeddingConfig(ctx context.Context, schema string) (models.EmbeddingConfig, error) {
	var cfg models.EmbeddingConfig
	err := g.withTenantTx(ctx, schema, func(tx pgx.Tx) error {
		return tx.QueryRow(ctx,
			`SELECT md.name, ac.batch_embedding, md.vector_dimensions
			 FROM ai_config ac
			 JOIN models_details md ON md.id = ac.embedding_model_id
			 LIMIT 1`,
		).Scan(&cfg.EmbeddingModel, &cfg.BatchEmbedding, &cfg.VectorDimensions)
	})
	if err != nil {
		return models.EmbeddingConfig{}, fmt.Errorf("embedding config for %s: %w", schema, err)
	}
	cfg.SchemaName = schema
	return cfg, nil
}

// PendingProducts returns products needing (re-)embedding: no embedding row
// yet, a row still pending, or the product edited after its last embed.
func (g *Gateway) PendingProducts(ctx context.Context, schema string) ([]models.Product, error) {
	var products []models.Product
	err := g.withTenantTx(ctx, schema, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx,
			`SELECT p.id, p.name, p.type, p.description, p.detailed_description,
			        p.price, p.currency, c.name, c.description, p.updated_at
			 FROM products p
			 JOIN categories c ON c.id = p.category_id
			 LEFT JOIN product_embeddings pe ON pe.product_id = p.id
			 WHERE p.deleted_at IS NULL
			   AND (pe.id IS NULL
			        OR pe.embedding_status = $1
			        OR p.updated_at > pe.updated_at)
			 ORDER BY p.created_at ASC`,
			models.EmbeddingStatusPending,
		)
		if err != nil {
			return fmt.Errorf("query pending products: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			var p models.Product
			if err := rows.Scan(
				&p.ID, &p.Name, &p.Type, &p.Description, &p.DetailedDescription,
				&p.Price, &p.Currency, &p.Category.Name, &p.Category.Description, &p.UpdatedAt,
			); err != nil {
				return fmt.Errorf("scan product: %w", err)
			}
			products = append(products, p)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("pending products for %s: %w", schema, err)
	}
	return products, nil
}

// PendingDocuments mirrors PendingProducts for the documents table.
func (g *Gateway) PendingDocuments(ctx context.Context, schema string) ([]models.Document, error) {
	var documents []models.Document
	err := g.withTenantTx(ctx, schema, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx,
			`SELECT d.id, d.name, d.type, d.source_url, d.updated_at
			 FROM documents d
			 LEFT JOIN document_embeddings de ON de.document_id = d.id
			 WHERE d.deleted_at IS NULL
			   AND (de.id IS NULL
			        OR de.embedding_status = $1
			        OR d.updated_at > de.updated_at)
			 ORDER BY d.created_at ASC`,
			models.EmbeddingStatusPending,
		)
		if err != nil {
			return fmt.Errorf("query pending documents: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			var d models.Document
			if err := rows.Scan(&d.ID, &d.Name, &d.Type, &d.SourceURL, &d.UpdatedAt); err != nil {
				return fmt.Errorf("scan document: %w", err)
			}
			documents = append(documents, d)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("pending documents for %s: %w", schema, err)
	}
	return documents, nil
}

// ProcessingBatches groups in-flight embedding rows by batch id.
func (g *Gateway) ProcessingBatches(ctx context.Context, schema, table string) (map[string][]uuid.UUID, error) {
	tbl, fk, err := embeddingTable(table)
	if err != nil {
		return nil, err
	}

	batches := make(map[string][]uuid.UUID)
	err = g.withTenantTx(ctx, schema, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx,
			fmt.Sprintf(
				`SELECT batch_id, %s FROM %s
				 WHERE embedding_status = $1 AND batch_id IS NOT NULL`,
				fk, tbl,
			),
			models.EmbeddingStatusProcessing,
		)
		if err != nil {
			return fmt.Errorf("query processing batches: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			var batchID string
			var entityID uuid.UUID
			if err := rows.Scan(&batchID, &entityID); err != nil {
				return fmt.Errorf("scan processing row: %w", err)
			}
			batches[batchID] = append(batches[batchID], entityID)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("processing batches for %s.%s: %w", schema, table, err)
	}
	return batches, nil
}

// StoreEmbeddings upserts one row per result in a single transaction: all of
// a tenant's rows for a pass commit together or not at all. The row state is
// derived from the result shape (vector -> completed, batch id ->
// processing, neither -> failed).
func (g *Gateway) StoreEmbeddings(ctx context.Context, schema, table, model string, results []models.EmbeddingResult) error {
	if len(results) == 0 {
		return nil
	}

	tbl, fk, err := embeddingTable(table)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(
		`INSERT INTO %s (id, %s, content_markdown, embedding, embedding_model, embedding_status, batch_id, metadata, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, '{}', now(), now())
		 ON CONFLICT (%s) DO UPDATE SET
		     content_markdown = EXCLUDED.content_markdown,
		     embedding = EXCLUDED.embedding,
		     embedding_model = EXCLUDED.embedding_model,
		     embedding_status = EXCLUDED.embedding_status,
		     batch_id = EXCLUDED.batch_id,
		     updated_at = now()`,
		tbl, fk, fk,
	)

	err = g.withTenantTx(ctx, schema, func(tx pgx.Tx) error {
		for _, res := range results {
			status := res.Status()

			var embedding any
			var modelName any
			if res.Embedding != nil {
				embedding = pgvector.NewVector(res.Embedding)
				modelName = model
			}
			var batchID any
			if status == models.EmbeddingStatusProcessing {
				batchID = res.BatchID
			}

			if _, err := tx.Exec(ctx, query,
				uuid.New(), res.EntityID, res.OriginalText, embedding, modelName, status, batchID,
			); err != nil {
				return fmt.Errorf("upsert embedding for %s %s: %w", table, res.EntityID, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("store embeddings for %s.%s: %w", schema, table, err)
	}
	return nil
}

// UpdateCompletedEmbeddings applies batch results as a vector-only partial
// update; content_markdown is never touched so what was embedded stays
// auditable. The processing-status guard makes the transition optimistic:
// a row already completed by an overlapping pass is simply skipped.
func (g *Gateway) UpdateCompletedEmbeddings(ctx context.Context, schema, table, model string, results []models.EmbeddingResult) error {
	if len(results) == 0 {
		return nil
	}

	tbl, fk, err := embeddingTable(table)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(
		`UPDATE %s
		 SET embedding = $1, embedding_model = $2, embedding_status = $3, batch_id = NULL, updated_at = now()
		 WHERE %s = $4 AND embedding_status = $5`,
		tbl, fk,
	)

	err = g.withTenantTx(ctx, schema, func(tx pgx.Tx) error {
		for _, res := range results {
			if res.Embedding == nil {
				continue
			}
			if _, err := tx.Exec(ctx, query,
				pgvector.NewVector(res.Embedding), model, models.EmbeddingStatusCompleted,
				res.EntityID, models.EmbeddingStatusProcessing,
			); err != nil {
				return fmt.Errorf("update embedding for %s %s: %w", table, res.EntityID, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("update completed embeddings for %s.%s: %w", schema, table, err)
	}
	return nil
}

// MarkEmbeddingsFailed terminates rows whose batch items came back without a
// usable vector.
func (g *Gateway) MarkEmbeddingsFailed(ctx context.Context, schema, table string, entityIDs []uuid.UUID) error {
	if len(entityIDs) == 0 {
		return nil
	}

	tbl, fk, err := embeddingTable(table)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(
		`UPDATE %s
		 SET embedding_status = $1, batch_id = NULL, updated_at = now()
		 WHERE %s = ANY($2) AND embedding_status = $3`,
		tbl, fk,
	)

	err = g.withTenantTx(ctx, schema, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, query,
			models.EmbeddingStatusFailed, entityIDs, models.EmbeddingStatusProcessing,
		)
		return err
	})
	if err != nil {
		return fmt.Errorf("mark embeddings failed for %s.%s: %w", schema, table, err)
	}
	return nil
}

// FailStaleProcessing gives up on rows stuck in processing since before the
// cutoff and returns how many were terminated.
func (g *Gateway) FailStaleProcessing(ctx context.Context, schema, table string, before time.Time) (int64, error) {
	tbl, _, err := embeddingTable(table)
	if err != nil {
		return 0, err
	}

	var affected int64
	err = g.withTenantTx(ctx, schema, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			fmt.Sprintf(
				`UPDATE %s
				 SET embedding_status = $1, batch_id = NULL, updated_at = now()
				 WHERE embedding_status = $2 AND updated_at < $3`,
				tbl,
			),
			models.EmbeddingStatusFailed, models.EmbeddingStatusProcessing, before,
		)
		if err != nil {
			return err
		}
		affected = tag.RowsAffected()
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("fail stale processing for %s.%s: %w", schema, table, err)
	}
	return affected, nil
}

// HasUnfinishedRows reports whether any embedding row for the table is still
// pending or processing. Used to decide when a modification request can be
// marked reviewed.
func (g *Gateway) HasUnfinishedRows(ctx context.Context, schema, table string) (bool, error) {
	tbl, _, err := embeddingTable(table)
	if err != nil {
		return false, err
	}

	var unfinished bool
	err = g.withTenantTx(ctx, schema, func(tx pgx.Tx) error {
		return tx.QueryRow(ctx,
			fmt.Sprintf(
				`SELECT EXISTS (SELECT 1 FROM %s WHERE embedding_status IN ($1, $2))`,
				tbl,
			),
			models.EmbeddingStatusPending, models.EmbeddingStatusProcessing,
		).Scan(&unfinished)
	})
	if err != nil {
		return false, fmt.Errorf("check unfinished rows for %s.%s: %w", schema, table, err)
	}
	return unfinished, nil
}
