// Package workspace knows where a Rails project keeps its files and answers
// existence checks against them.
package workspace

import (
	"os"
	"path/filepath"
	"strings"
)

// Conventional locations relative to the workspace root
const (
	GemfileName     = "Gemfile"
	GemfileLockName = "Gemfile.lock"
	RoutesCacheFile = "tmp/routes_file.txt"
	RoutesFile      = "config/routes.rb"
	SchemaFile      = "db/schema.rb"
	ControllersDir  = "app/controllers"
	ViewsDir        = "app/views"
	ModelsDir       = "app/models"

	SourceExt        = ".rb"
	ControllerSuffix = "_controller"
)

// ViewExtensions are tried in priority order when resolving an action's view
var ViewExtensions = []string{".html.erb", ".json.jbuilder"}

// Layout resolves conventional paths inside one workspace root
type Layout struct {
	Root string
}

// New creates a layout for root, cleaning the path
func New(root string) Layout {
	return Layout{Root: filepath.Clean(root)}
}

// Join returns an absolute path for a slash-separated path relative to the root
func (l Layout) Join(rel string) string {
	return filepath.Join(l.Root, filepath.FromSlash(rel))
}

// Gemfile returns the path of the Gemfile
func (l Layout) Gemfile() string { return l.Join(GemfileName) }

// GemfileLock returns the path of Gemfile.lock
func (l Layout) GemfileLock() string { return l.Join(GemfileLockName) }

// CacheFile returns the path of the cached route listing
func (l Layout) CacheFile() string { return l.Join(RoutesCacheFile) }

// RoutesFile returns the path of the routing definition source
func (l Layout) RoutesFile() string { return l.Join(RoutesFile) }

// SchemaFile returns the path of the schema definition
func (l Layout) SchemaFile() string { return l.Join(SchemaFile) }

// ControllerFile returns the source path of a (possibly namespaced) controller
func (l Layout) ControllerFile(controller string) string {
	return l.Join(ControllersDir + "/" + controller + ControllerSuffix + SourceExt)
}

// ModelFile returns the source path of a model given its snake_case file base name
func (l Layout) ModelFile(base string) string {
	return l.Join(ModelsDir + "/" + base + SourceExt)
}

// ViewCandidates returns the view paths for an action in probing order
func (l Layout) ViewCandidates(controller, action string) []string {
	candidates := make([]string, 0, len(ViewExtensions))
	for _, ext := range ViewExtensions {
		candidates = append(candidates, l.Join(ViewsDir+"/"+controller+"/"+action+ext))
	}
	return candidates
}

// IsRailsProject reports whether the workspace has a Gemfile
func (l Layout) IsRailsProject() bool {
	return Exists(l.Gemfile())
}

// Rel returns path relative to the root using forward slashes.
// ok is false when path lies outside the root.
func (l Layout) Rel(path string) (string, bool) {
	rel, err := filepath.Rel(l.Root, filepath.Clean(path))
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

// Contains reports whether path lies inside the workspace root
func (l Layout) Contains(path string) bool {
	_, ok := l.Rel(path)
	return ok
}

// Exists reports whether path can be stat'ed. Any stat error, including
// permission failures, counts as "not found".
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// IsFile reports whether path exists and is a regular file
func IsFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// Resolve returns the root among roots that contains path, preferring the deepest one.
// It returns "" when no root matches.
func Resolve(roots []string, path string) string {
	best := ""
	for _, root := range roots {
		if !New(root).Contains(path) {
			continue
		}
		if len(filepath.Clean(root)) > len(best) {
			best = filepath.Clean(root)
		}
	}
	return best
}
