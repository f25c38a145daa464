package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"doc-composer/internal/common/database"
	cerrors "doc-composer/internal/common/errors"
	"doc-composer/internal/common/logger"
	"doc-composer/internal/models"
)

const templateColumns = "id, schema, type, metadata, example_composition, tags"

// PostgresStore reads template definitions from the template table. Schema,
// metadata and example composition are JSONB columns; tags is a text array.
type PostgresStore struct {
	client *database.PostgresClient
	logger logger.Logger
}

func NewPostgresStore(client *database.PostgresClient, log logger.Logger) *PostgresStore {
	return &PostgresStore{client: client, logger: log}
}

func (s *PostgresStore) GetTemplate(ctx context.Context, id string) (*models.TemplateDefinition, error) {
	row := s.client.QueryRow(ctx,
		"SELECT "+templateColumns+" FROM template WHERE id = $1", id)

	tpl, err := scanTemplate(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &cerrors.TemplateNotFoundError{TemplateID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("fetching template %s: %w", id, err)
	}
	return tpl, nil
}

func (s *PostgresStore) ListTemplates(ctx context.Context, tags []string) ([]*models.TemplateDefinition, error) {
	query := "SELECT " + templateColumns + " FROM template ORDER BY id"
	args := []interface{}{}
	if len(tags) > 0 {
		query = "SELECT " + templateColumns + " FROM template WHERE tags @> $1 ORDER BY id"
		args = append(args, pq.Array(tags))
	}

	rows, err := s.client.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing templates: %w", err)
	}
	defer rows.Close()

	templates := []*models.TemplateDefinition{}
	for rows.Next() {
		tpl, err := scanTemplate(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning template row: %w", err)
		}
		templates = append(templates, tpl)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing templates: %w", err)
	}

	s.logger.Debug("listed templates", map[string]interface{}{
		"count": len(templates),
		"tags":  tags,
	})
	return templates, nil
}

// scanTemplate decodes one template row regardless of whether it came from
// Query or QueryRow.
func scanTemplate(scan func(dest ...interface{}) error) (*models.TemplateDefinition, error) {
	var (
		tpl         models.TemplateDefinition
		schemaRaw   []byte
		metadataRaw []byte
		exampleRaw  []byte
	)

	if err := scan(&tpl.ID, &schemaRaw, &tpl.Type, &metadataRaw, &exampleRaw, pq.Array(&tpl.Tags)); err != nil {
		return nil, err
	}

	for _, col := range []struct {
		raw  []byte
		dest *map[string]interface{}
		name string
	}{
		{schemaRaw, &tpl.Schema, "schema"},
		{metadataRaw, &tpl.Metadata, "metadata"},
		{exampleRaw, &tpl.ExampleComposition, "example_composition"},
	} {
		if len(col.raw) == 0 {
			continue
		}
		if err := json.Unmarshal(col.raw, col.dest); err != nil {
			return nil, fmt.Errorf("decoding %s: %w", col.name, err)
		}
	}

	return &tpl, nil
}
