package models

import (
	"time"

	"github.com/google/uuid"
)

type Category struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
}

// Product is a tenant catalog entry. Type is "product" or "service".
type Product struct {
	ID                  uuid.UUID `json:"id" db:"id"`
	Name                string    `json:"name" db:"name"`
	Type                string    `json:"type" db:"type"`
	Description         string    `json:"description" db:"description"`
	DetailedDescription *string   `json:"detailed_description,omitempty" db:"detailed_description"`
	Price               *float64  `json:"price,omitempty" db:"price"`
	Currency            *string   `json:"currency,omitempty" db:"currency"`
	Category            Category  `json:"category"`
	UpdatedAt           time.Time `json:"updated_at" db:"updated_at"`
}

// Document is a tenant knowledge source. Type is "pdf" or "url".
type Document struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Type      string    `json:"type" db:"type"`
	SourceURL string    `json:"source_url" db:"source_url"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
