package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/MiguelAngelGutierrezMaya/agent-project-sub002/internal/models"
)

// Registry reads and advances the public-schema modification registry.
type Registry struct {
	db DB
}

func NewRegistry(db DB) *Registry {
	return &Registry{db: db}
}

// PendingModifications returns every non-deleted PENDING modification with
// its company wrapper, oldest first so no tenant starves.
func (r *Registry) PendingModifications(ctx context.Context) ([]models.CompanyModification, error) {
	rows, err := r.db.Query(ctx,
		`SELECT cm.id, cm.modification_request_id, cm.created_at,
		        mr.id, mr.schema_name, mr.table_name, mr.status, mr.created_at, mr.updated_at
		 FROM public.company_modifications cm
		 JOIN public.modification_requests mr ON mr.id = cm.modification_request_id
		 WHERE mr.status = $1 AND mr.deleted_at IS NULL
		 ORDER BY mr.created_at ASC`,
		models.ModificationStatusPending,
	)
	if err != nil {
		return nil, fmt.Errorf("query pending modifications: %w", err)
	}
	defer rows.Close()

	var mods []models.CompanyModification
	for rows.Next() {
		var m models.CompanyModification
		if err := rows.Scan(
			&m.ID, &m.ModificationRequestID, &m.CreatedAt,
			&m.Request.ID, &m.Request.SchemaName, &m.Request.TableName,
			&m.Request.Status, &m.Request.CreatedAt, &m.Request.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan modification: %w", err)
		}
		mods = append(mods, m)
	}
	return mods, rows.Err()
}

// MarkReviewed flips a request PENDING -> REVIEWED. Returns false when the
// request was already reviewed (zero rows affected), which callers treat as
// a no-op rather than an error.
func (r *Registry) MarkReviewed(ctx context.Context, requestID uuid.UUID) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE public.modification_requests
		 SET status = $1, updated_at = now()
		 WHERE id = $2 AND status = $3 AND deleted_at IS NULL`,
		models.ModificationStatusReviewed, requestID, models.ModificationStatusPending,
	)
	if err != nil {
		return false, fmt.Errorf("mark request %s reviewed: %w", requestID, err)
	}
	return tag.RowsAffected() > 0, nil
}
