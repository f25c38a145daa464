// Package store provides access to registered template metadata.
package store

import (
	"context"

	"doc-composer/internal/models"
)

// TemplateStore is the read model over registered templates. Implementations
// return TemplateNotFoundError for unknown ids.
type TemplateStore interface {
	// GetTemplate fetches one template definition by id.
	GetTemplate(ctx context.Context, id string) (*models.TemplateDefinition, error)
	// ListTemplates returns all templates carrying every given tag; no tags
	// means all templates.
	ListTemplates(ctx context.Context, tags []string) ([]*models.TemplateDefinition, error)
}
