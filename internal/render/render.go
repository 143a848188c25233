// Package render converts tenant entities into the canonical markdown text
// used as embedding input. Rendering is pure: deterministic for the same
// entity, no network or database access.
package render

import (
	"fmt"

	"github.com/MiguelAngelGutierrezMaya/agent-project-sub002/internal/models"
)

type Renderer interface {
	GenerateMarkdown(entity any) (string, error)
}

var renderers = map[string]Renderer{
	models.TableProducts:  ProductRenderer{},
	models.TableDocuments: DocumentRenderer{},
}

// ForTable selects the renderer for a tenant table. Unknown tables are a
// configuration error surfaced to the caller, never defaulted.
func ForTable(table string) (Renderer, error) {
	r, ok := renderers[table]
	if !ok {
		return nil, fmt.Errorf("no renderer registered for table %q", table)
	}
	return r, nil
}
