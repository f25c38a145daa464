package storage

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"doc-composer/internal/common/logger"
)

// LocalStorage copies template files from a directory on the same host,
// mirroring the source tree into the target. Suited to development and
// single-node deployments.
type LocalStorage struct {
	sourceDir string
	logger    logger.Logger
}

func NewLocalStorage(sourceDir string, log logger.Logger) *LocalStorage {
	return &LocalStorage{sourceDir: sourceDir, logger: log}
}

func (s *LocalStorage) LoadTemplates(ctx context.Context, targetDir string) error {
	copied := 0

	err := filepath.WalkDir(s.sourceDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(s.sourceDir, path)
		if err != nil {
			return err
		}
		if err := copyFile(path, filepath.Join(targetDir, rel)); err != nil {
			return err
		}
		copied++
		return nil
	})
	if err != nil {
		return fmt.Errorf("syncing templates from %s: %w", s.sourceDir, err)
	}
	if copied == 0 {
		return ErrNoTemplatesFound
	}

	s.logger.Info("template sync completed", map[string]interface{}{
		"source": s.sourceDir,
		"target": targetDir,
		"files":  copied,
	})
	return nil
}

func copyFile(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}
