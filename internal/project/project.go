// Package project holds the per-run view of the project being checked.
package project

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/taigrr/project-checker/internal/pathfilter"
)

// ErrPathTraversal is returned when a path resolves outside the project root.
var ErrPathTraversal = errors.New("path traversal not allowed")

// Lister enumerates the version-controlled files below a directory.
type Lister interface {
	TrackedFiles(ctx context.Context, root string) ([]string, error)
}

// Project is the explicit configuration handed to every check.
type Project struct {
	// Root is the absolute project directory.
	Root string
	// Files are the tracked paths, relative to Root, that survived exclusion.
	Files []string
}

// Load lists the tracked files of root and drops those matching excludes.
// It also returns the exclude patterns that could not be compiled.
func Load(ctx context.Context, root string, lister Lister, excludes []string) (*Project, []string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to resolve project directory %s: %w", root, err)
	}

	tracked, err := lister.TrackedFiles(ctx, absRoot)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list tracked files: %w", err)
	}

	filter := pathfilter.New(excludes)
	return &Project{
		Root:  absRoot,
		Files: filter.FilterPaths(tracked),
	}, filter.Invalid(), nil
}

// Resolve joins a project-relative path onto Root.
func (p *Project) Resolve(relativePath string) (string, error) {
	normalizedPath := strings.TrimPrefix(filepath.FromSlash(relativePath), string(filepath.Separator))

	fullPath := filepath.Join(p.Root, normalizedPath)
	relPath, err := filepath.Rel(p.Root, fullPath)
	if err != nil {
		return "", err
	}
	if relPath == ".." || strings.HasPrefix(relPath, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrPathTraversal, relativePath)
	}

	return fullPath, nil
}

// Has reports whether relativePath is among the files to check.
func (p *Project) Has(relativePath string) bool {
	return slices.Contains(p.Files, relativePath)
}
