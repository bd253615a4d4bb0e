package cli

import (
	stderrors "errors"
	"io/fs"
	"os"

	"github.com/toyz/railslens/internal/errors"
	"github.com/toyz/railslens/internal/workspace"
)

// Cleaner removes the cached route listings of workspaces
type Cleaner struct{}

// NewCleaner creates a new cleaner
func NewCleaner() *Cleaner {
	return &Cleaner{}
}

// CleanRouteCaches deletes the route listing of every root and returns the files
// that were actually removed. Missing listings are not an error.
func (c *Cleaner) CleanRouteCaches(roots []string) ([]string, error) {
	var removed []string
	for _, root := range roots {
		path := workspace.New(root).CacheFile()
		err := os.Remove(path)
		switch {
		case err == nil:
			removed = append(removed, path)
		case stderrors.Is(err, fs.ErrNotExist):
		default:
			return removed, errors.WrapFileSystemError("remove", path, err)
		}
	}
	return removed, nil
}
