package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	ModificationStatusPending  = "PENDING"
	ModificationStatusReviewed = "REVIEWED"
)

// ModificationRequest marks that a tenant table changed and needs
// re-embedding. Status only ever moves PENDING -> REVIEWED; reviewed
// requests are terminal and excluded from discovery. Rows are soft-deleted,
// never removed.
type ModificationRequest struct {
	ID         uuid.UUID  `json:"id" db:"id"`
	SchemaName string     `json:"schema_name" db:"schema_name"`
	TableName  string     `json:"table_name" db:"table_name"`
	Status     string     `json:"status" db:"status"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at" db:"updated_at"`
	DeletedAt  *time.Time `json:"deleted_at,omitempty" db:"deleted_at"`
}

// CompanyModification links a ModificationRequest to a tenant processing
// track. 1:1 with its request and shares its lifecycle.
type CompanyModification struct {
	ID                    uuid.UUID           `json:"id" db:"id"`
	ModificationRequestID uuid.UUID           `json:"modification_request_id" db:"modification_request_id"`
	Request               ModificationRequest `json:"request"`
	CreatedAt             time.Time           `json:"created_at" db:"created_at"`
}
