package files

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/sevigo/stk-reviewer/internal/core"
)

// FindAll walks root and returns every reviewable file with its content,
// sorted by path. A positive limit caps the number of files returned.
func FindAll(ctx context.Context, root string, filter *Filter, limit int, logger *slog.Logger) ([]core.SourceFile, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var paths []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if filter.SkipDir(rel) {
				logger.Debug("skipping ignored directory", "path", rel)
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || !filter.Match(rel) {
			return nil
		}
		paths = append(paths, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search files in directory %s with extension %s: %w", root, filter.Extension, err)
	}

	sort.Strings(paths)
	if limit > 0 && len(paths) > limit {
		logger.Info("limiting number of files sent", "found", len(paths), "limit", limit)
		paths = paths[:limit]
	}

	out := make([]core.SourceFile, 0, len(paths))
	for _, rel := range paths {
		content, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
		if err != nil {
			return nil, fmt.Errorf("failed to open file %s: %w", rel, err)
		}
		out = append(out, core.SourceFile{Path: rel, Content: string(content)})
	}

	logger.Debug("files found for review", "directory", root, "count", len(out))
	return out, nil
}
