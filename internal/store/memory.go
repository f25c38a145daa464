package store

import (
	"context"
	"sort"
	"sync"

	cerrors "doc-composer/internal/common/errors"
	"doc-composer/internal/models"
)

// MemoryStore keeps template definitions in memory. Used in tests and for
// single-node deployments that load templates straight from storage.
type MemoryStore struct {
	mu        sync.RWMutex
	templates map[string]*models.TemplateDefinition
}

func NewMemoryStore(templates ...*models.TemplateDefinition) *MemoryStore {
	s := &MemoryStore{templates: make(map[string]*models.TemplateDefinition)}
	for _, tpl := range templates {
		s.templates[tpl.ID] = tpl
	}
	return s
}

// Put registers or replaces a template definition.
func (s *MemoryStore) Put(tpl *models.TemplateDefinition) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.templates[tpl.ID] = tpl
}

func (s *MemoryStore) GetTemplate(ctx context.Context, id string) (*models.TemplateDefinition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tpl, ok := s.templates[id]
	if !ok {
		return nil, &cerrors.TemplateNotFoundError{TemplateID: id}
	}
	return tpl, nil
}

func (s *MemoryStore) ListTemplates(ctx context.Context, tags []string) ([]*models.TemplateDefinition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []*models.TemplateDefinition{}
	for _, tpl := range s.templates {
		if hasAllTags(tpl.Tags, tags) {
			out = append(out, tpl)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func hasAllTags(have, want []string) bool {
	for _, w := range want {
		found := false
		for _, h := range have {
			if h == w {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
