package cli

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/toyz/railslens/internal/errors"
	"github.com/toyz/railslens/internal/workspace"
)

// skippedDirs are never descended into by recursive patterns
var skippedDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	"vendor":       true,
	"tmp":          true,
	"log":          true,
	"public":       true,
	"storage":      true,
}

// DirectoryScanner expands command line paths into the files lenses can be derived for
type DirectoryScanner struct{}

// NewDirectoryScanner creates a new directory scanner
func NewDirectoryScanner() *DirectoryScanner {
	return &DirectoryScanner{}
}

// Expand resolves files, directories and Go-style "dir/..." patterns into a sorted list
// of absolute file paths. A plain directory contributes its own files only.
func (s *DirectoryScanner) Expand(args []string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string
	add := func(path string) {
		if !seen[path] {
			seen[path] = true
			files = append(files, path)
		}
	}

	for _, arg := range args {
		recursive := false
		if arg == "..." || strings.HasSuffix(arg, "/...") {
			recursive = true
			arg = strings.TrimSuffix(strings.TrimSuffix(arg, "..."), "/")
			if arg == "" {
				arg = "."
			}
		}

		path, err := filepath.Abs(arg)
		if err != nil {
			return nil, errors.WrapFileSystemError("resolve", arg, err)
		}

		info, err := os.Stat(path)
		if err != nil {
			return nil, errors.WrapFileSystemError("stat", arg, err)
		}
		if !info.IsDir() {
			add(path)
			continue
		}

		found, err := s.scanDirectory(path, recursive)
		if err != nil {
			return nil, err
		}
		for _, f := range found {
			add(f)
		}
	}
	return files, nil
}

func (s *DirectoryScanner) scanDirectory(root string, recursive bool) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path == root {
				return nil
			}
			if !recursive || s.shouldSkipDirectory(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if s.hasLensSource(d.Name()) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, errors.WrapFileSystemError("scan", root, err)
	}
	sort.Strings(files)
	return files, nil
}

func (s *DirectoryScanner) shouldSkipDirectory(name string) bool {
	return skippedDirs[name] || (strings.HasPrefix(name, ".") && name != ".")
}

// hasLensSource reports whether a file name can carry lenses
func (s *DirectoryScanner) hasLensSource(name string) bool {
	if strings.HasSuffix(name, workspace.SourceExt) {
		return true
	}
	for _, ext := range workspace.ViewExtensions {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}
