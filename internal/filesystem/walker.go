package filesystem

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/aiopenclawbot-jpg/skill-scanner/internal/config"
	"github.com/aiopenclawbot-jpg/skill-scanner/pkg/models"
	"github.com/bmatcuk/doublestar/v4"
	"go.uber.org/zap"
)

// Walker enumerates candidate files below a scan root
type Walker struct {
	logger  *zap.Logger
	exclude map[string]bool
	globs   []string
}

// NewWalker creates a new filesystem walker
func NewWalker(cfg *config.Config, logger *zap.Logger) *Walker {
	// Build exclude map for fast lookup
	exclude := make(map[string]bool)
	for _, dir := range cfg.Exclude {
		exclude[dir] = true
	}

	var globs []string
	for _, g := range cfg.ExcludeGlobs {
		if !doublestar.ValidatePattern(g) {
			logger.Warn("Ignoring invalid exclude glob", zap.String("glob", g))
			continue
		}
		globs = append(globs, g)
	}

	return &Walker{
		logger:  logger,
		exclude: exclude,
		globs:   globs,
	}
}

// Walk visits every candidate file below root in lexical order.
// A root that is itself a file is visited when its extension is a candidate.
// Any stat or readdir failure aborts the walk with ErrFatalIO.
func (w *Walker) Walk(ctx context.Context, root string, callback func(*models.FileInfo) error) error {
	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrFatalIO, err)
	}

	if !info.IsDir() {
		if !info.Mode().IsRegular() || !models.IsCandidate(GetExtension(root)) {
			return nil
		}
		return callback(&models.FileInfo{
			Path:         root,
			RelativePath: filepath.Base(root),
			Size:         info.Size(),
			ModTime:      info.ModTime(),
		})
	}

	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("%w: %w", ErrScanAborted, ctxErr)
		}
		if err != nil {
			return fmt.Errorf("%w: %w", ErrFatalIO, err)
		}
		if path == root {
			return nil
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			relPath = path
		}
		relPath = filepath.ToSlash(relPath)

		// links are never followed
		if d.Type()&fs.ModeSymlink != 0 {
			w.logger.Debug("Skipping symlink", zap.String("path", relPath))
			return nil
		}

		if d.IsDir() {
			if w.shouldExclude(d.Name()) {
				w.logger.Debug("Skipping excluded directory", zap.String("path", relPath))
				return filepath.SkipDir
			}
			return nil
		}

		if !d.Type().IsRegular() || !models.IsCandidate(GetExtension(path)) {
			return nil
		}
		if w.matchesGlob(relPath) {
			w.logger.Debug("Skipping file matched by exclude glob", zap.String("path", relPath))
			return nil
		}

		fi, err := d.Info()
		if err != nil {
			return fmt.Errorf("%w: %w", ErrFatalIO, err)
		}

		return callback(&models.FileInfo{
			Path:         path,
			RelativePath: relPath,
			Size:         fi.Size(),
			ModTime:      fi.ModTime(),
		})
	})
}

// Collect enumerates every candidate file before any is analysed
func (w *Walker) Collect(ctx context.Context, root string) ([]*models.FileInfo, error) {
	var files []*models.FileInfo
	err := w.Walk(ctx, root, func(fi *models.FileInfo) error {
		files = append(files, fi)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// shouldExclude checks if a directory should be pruned
func (w *Walker) shouldExclude(name string) bool {
	return w.exclude[name] || isHidden(name)
}

func (w *Walker) matchesGlob(relPath string) bool {
	for _, g := range w.globs {
		if ok, _ := doublestar.Match(g, relPath); ok {
			return true
		}
	}
	return false
}

// isHidden checks if a name is a dot entry
func isHidden(name string) bool {
	return len(name) > 0 && name[0] == '.'
}

// GetExtension returns the lower-case file extension without dot
func GetExtension(path string) string {
	ext := filepath.Ext(path)
	if len(ext) > 0 && ext[0] == '.' {
		ext = ext[1:]
	}
	return strings.ToLower(ext)
}
