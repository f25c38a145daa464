// Package storage syncs template bodies and static assets from a backing
// store to the local directory the compose pipeline reads from.
//
// The on-disk layout after a sync:
//
//	{target}/{template_id}/{template_id}   template body
//	{target}/static/...                    shared static assets
//	{target}/static/{template_id}/...      per-template static assets
package storage

import (
	"context"
	"errors"
)

// ErrNoTemplatesFound is returned when a sync source holds no template
// bodies at all, which almost always means a misconfigured bucket or path.
var ErrNoTemplatesFound = errors.New("storage: no template bodies found at source")

// FileStorage copies template files from a backing source into targetDir.
type FileStorage interface {
	LoadTemplates(ctx context.Context, targetDir string) error
}
