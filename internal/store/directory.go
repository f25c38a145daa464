package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"doc-composer/internal/models"
)

// definitionFile sits next to a template body and carries its metadata for
// database-less deployments.
const definitionFile = "definition.json"

// LoadDirectoryStore builds a MemoryStore from a synced template directory.
// Each subdirectory is one template; a definition.json beside the body
// supplies schema, metadata and tags. A template without one gets a
// permissive empty schema.
func LoadDirectoryStore(dir string) (*MemoryStore, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading template directory %s: %w", dir, err)
	}

	s := NewMemoryStore()
	for _, entry := range entries {
		if !entry.IsDir() || entry.Name() == "static" {
			continue
		}

		tpl := &models.TemplateDefinition{
			ID:     entry.Name(),
			Schema: map[string]interface{}{},
			Type:   "text/html",
		}

		raw, err := os.ReadFile(filepath.Join(dir, entry.Name(), definitionFile))
		if err == nil {
			if err := json.Unmarshal(raw, tpl); err != nil {
				return nil, fmt.Errorf("decoding %s for template %s: %w", definitionFile, entry.Name(), err)
			}
			tpl.ID = entry.Name()
		} else if !os.IsNotExist(err) {
			return nil, err
		}

		s.Put(tpl)
	}

	return s, nil
}
