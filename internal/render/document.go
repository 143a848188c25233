package render

import (
	"fmt"
	"strings"

	"github.com/MiguelAngelGutierrezMaya/agent-project-sub002/internal/models"
)

type DocumentRenderer struct{}

func (DocumentRenderer) GenerateMarkdown(entity any) (string, error) {
	d, ok := entity.(models.Document)
	if !ok {
		return "", fmt.Errorf("document renderer: unexpected entity type %T", entity)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", d.Name)
	fmt.Fprintf(&b, "**Type:** %s\n\n", d.Type)
	fmt.Fprintf(&b, "**Source:** %s\n", d.SourceURL)

	return b.String(), nil
}
