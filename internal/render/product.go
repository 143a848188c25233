package render

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/MiguelAngelGutierrezMaya/agent-project-sub002/internal/models"
)

type ProductRenderer struct{}

func (ProductRenderer) GenerateMarkdown(entity any) (string, error) {
	p, ok := entity.(models.Product)
	if !ok {
		return "", fmt.Errorf("product renderer: unexpected entity type %T", entity)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", p.Name)
	fmt.Fprintf(&b, "**Type:** %s\n\n", p.Type)
	fmt.Fprintf(&b, "%s\n\n", p.Description)
	fmt.Fprintf(&b, "## Category: %s\n\n", p.Category.Name)
	fmt.Fprintf(&b, "%s\n", p.Category.Description)

	if p.Price != nil {
		currency := ""
		if p.Currency != nil {
			currency = " " + *p.Currency
		}
		fmt.Fprintf(&b, "\n**Price:** %s%s\n", strconv.FormatFloat(*p.Price, 'f', 2, 64), currency)
	}

	if p.DetailedDescription != nil && *p.DetailedDescription != "" {
		fmt.Fprintf(&b, "\n## Details\n\n%s\n", *p.DetailedDescription)
	}

	return b.String(), nil
}
