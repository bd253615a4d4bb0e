// Package lens derives the editor annotations for controllers, schema, models and views.
package lens

import (
	"context"
	"os"

	"github.com/toyz/railslens/internal/errors"
	"github.com/toyz/railslens/internal/models"
	"github.com/toyz/railslens/internal/utils"
	"github.com/toyz/railslens/internal/workspace"
)

// Provider derives lenses for one kind of document
type Provider interface {
	// Name identifies the provider in logs and warnings
	Name() string

	// Applies reports whether the provider handles the document at all
	Applies(layout workspace.Layout, doc models.Document) bool

	// Scan derives the lenses of the document from scratch
	Scan(ctx context.Context, layout workspace.Layout, doc models.Document) ([]models.Lens, error)
}

// SourceCache memoizes the lines of project files read during scans (schema, controllers)
type SourceCache = utils.FileCache[[]string]

// NewSourceCache creates an empty source line cache
func NewSourceCache() *SourceCache {
	return utils.NewFileCache[[]string]()
}

// readLines loads path through the cache
func readLines(cache *SourceCache, path string) ([]string, error) {
	return cache.Load(path, func(p string) ([]string, error) {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, errors.WrapFileSystemError("read", p, err)
		}
		return models.SplitLines(string(data)), nil
	})
}

// openFile builds a command opening path
func openFile(path string) *models.Command {
	return &models.Command{Name: models.OpenFileCommand, Path: path}
}

// openFileAt builds a command opening path with the cursor on line (0-based)
func openFileAt(path string, line int) *models.Command {
	return &models.Command{Name: models.OpenFileAtLineCommand, Path: path, Line: line}
}

// openURL builds a command opening url in the browser
func openURL(url string) *models.Command {
	return &models.Command{Name: models.OpenURLCommand, URL: url}
}
