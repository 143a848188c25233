package render

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MiguelAngelGutierrezMaya/agent-project-sub002/internal/models"
)

func sampleProduct() models.Product {
	price := 12.5
	currency := "USD"
	details := "Hand-glazed ceramic, dishwasher safe."
	return models.Product{
		ID:                  uuid.New(),
		Name:                "Blue Mug",
		Type:                "product",
		Description:         "A blue ceramic mug.",
		DetailedDescription: &details,
		Price:               &price,
		Currency:            &currency,
		Category: models.Category{
			Name:        "Kitchen",
			Description: "Kitchenware and utensils.",
		},
	}
}

func TestForTable(t *testing.T) {
	r, err := ForTable(models.TableProducts)
	require.NoError(t, err)
	assert.IsType(t, ProductRenderer{}, r)

	r, err = ForTable(models.TableDocuments)
	require.NoError(t, err)
	assert.IsType(t, DocumentRenderer{}, r)

	_, err = ForTable("invoices")
	assert.Error(t, err)
}

func TestProductRenderer_GenerateMarkdown(t *testing.T) {
	p := sampleProduct()

	md, err := ProductRenderer{}.GenerateMarkdown(p)
	require.NoError(t, err)

	assert.Contains(t, md, "# Blue Mug")
	assert.Contains(t, md, "**Type:** product")
	assert.Contains(t, md, "A blue ceramic mug.")
	assert.Contains(t, md, "## Category: Kitchen")
	assert.Contains(t, md, "Kitchenware and utensils.")
	assert.Contains(t, md, "**Price:** 12.50 USD")
	assert.Contains(t, md, "Hand-glazed ceramic, dishwasher safe.")
}

func TestProductRenderer_OptionalFieldsOmitted(t *testing.T) {
	p := sampleProduct()
	p.Price = nil
	p.Currency = nil
	p.DetailedDescription = nil

	md, err := ProductRenderer{}.GenerateMarkdown(p)
	require.NoError(t, err)

	assert.NotContains(t, md, "**Price:**")
	assert.NotContains(t, md, "## Details")
}

func TestProductRenderer_PriceWithoutCurrency(t *testing.T) {
	p := sampleProduct()
	p.Currency = nil

	md, err := ProductRenderer{}.GenerateMarkdown(p)
	require.NoError(t, err)

	assert.Contains(t, md, "**Price:** 12.50\n")
}

func TestProductRenderer_WrongEntityType(t *testing.T) {
	_, err := ProductRenderer{}.GenerateMarkdown(models.Document{})
	assert.Error(t, err)
}

func TestDocumentRenderer_GenerateMarkdown(t *testing.T) {
	d := models.Document{
		ID:        uuid.New(),
		Name:      "Onboarding Guide",
		Type:      "pdf",
		SourceURL: "https://files.example.com/onboarding.pdf",
	}

	md, err := DocumentRenderer{}.GenerateMarkdown(d)
	require.NoError(t, err)

	assert.Contains(t, md, "# Onboarding Guide")
	assert.Contains(t, md, "**Type:** pdf")
	assert.Contains(t, md, "**Source:** https://files.example.com/onboarding.pdf")
}

// Re-embedding after edits relies on identical input producing identical
// markdown.
func TestRendering_Deterministic(t *testing.T) {
	p := sampleProduct()
	first, err := ProductRenderer{}.GenerateMarkdown(p)
	require.NoError(t, err)
	second, err := ProductRenderer{}.GenerateMarkdown(p)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	d := models.Document{Name: "Pricing", Type: "url", SourceURL: "https://example.com/pricing"}
	firstDoc, err := DocumentRenderer{}.GenerateMarkdown(d)
	require.NoError(t, err)
	secondDoc, err := DocumentRenderer{}.GenerateMarkdown(d)
	require.NoError(t, err)
	assert.Equal(t, firstDoc, secondDoc)
}
