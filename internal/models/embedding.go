package models

import (
	"fmt"

	"github.com/google/uuid"
)

// Per-entity embedding row states: pending -> processing -> {completed | failed}.
// batch_id is set iff processing; embedding is non-null iff completed.
const (
	EmbeddingStatusPending    = "pending"
	EmbeddingStatusProcessing = "processing"
	EmbeddingStatusCompleted  = "completed"
	EmbeddingStatusFailed     = "failed"
)

// Embeddable tenant tables.
const (
	TableProducts  = "products"
	TableDocuments = "documents"
)

// EmbeddingConfig is a tenant schema's embedding settings, read from
// ai_config joined with models_details.
type EmbeddingConfig struct {
	SchemaName       string `json:"schema_name" db:"schema_name"`
	EmbeddingModel   string `json:"embedding_model" db:"embedding_model"`
	BatchEmbedding   bool   `json:"batch_embedding" db:"batch_embedding"`
	VectorDimensions int    `json:"vector_dimensions" db:"vector_dimensions"`
}

func (c EmbeddingConfig) Validate() error {
	if c.EmbeddingModel == "" {
		return fmt.Errorf("embedding config for %s: empty embedding model", c.SchemaName)
	}
	if c.VectorDimensions <= 0 {
		return fmt.Errorf("embedding config for %s: vector dimensions must be > 0, got %d", c.SchemaName, c.VectorDimensions)
	}
	return nil
}

// ProcessingItem is one unit of embedding work, built fresh each discovery
// pass and never persisted.
type ProcessingItem struct {
	Markdown   string    `json:"markdown"`
	EntityID   uuid.UUID `json:"entity_id"`
	EntityType string    `json:"entity_type"`
	SchemaName string    `json:"schema_name"`
}

// EmbeddingResult is the output of a provider call. A nil embedding with a
// non-empty batch id means "submitted, not yet complete"; a non-nil
// embedding is ready to persist.
type EmbeddingResult struct {
	Embedding    []float32 `json:"embedding,omitempty"`
	OriginalText string    `json:"original_text"`
	EntityID     uuid.UUID `json:"entity_id"`
	EntityType   string    `json:"entity_type"`
	SchemaName   string    `json:"schema_name"`
	BatchID      string    `json:"batch_id,omitempty"`
}

// Status derives the embedding-row state this result persists as.
func (r EmbeddingResult) Status() string {
	switch {
	case r.Embedding != nil:
		return EmbeddingStatusCompleted
	case r.BatchID != "":
		return EmbeddingStatusProcessing
	default:
		return EmbeddingStatusFailed
	}
}
