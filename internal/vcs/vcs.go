// Package vcs lists the files tracked by git in a project directory.
package vcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/filemode"
)

// ErrNotRepository is returned when no git repository contains the directory.
var ErrNotRepository = errors.New("not a git repository")

// Service reads tracked files from a git index.
type Service struct {
	logger *log.Logger
}

// New creates a new Service. A nil logger discards output.
func New(logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Service{logger: logger.WithPrefix("vcs")}
}

// TrackedFiles returns the paths staged in the index below root, relative to
// root and slash separated, in index order. It is the equivalent of running
// `git ls-files` in root.
func (s *Service) TrackedFiles(ctx context.Context, root string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	absRoot, err := canonical(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", root, err)
	}

	repo, err := git.PlainOpenWithOptions(absRoot, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return nil, fmt.Errorf("%w: %s", ErrNotRepository, root)
		}
		return nil, fmt.Errorf("failed to open repository at %s: %w", root, err)
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("failed to get worktree for %s: %w", root, err)
	}

	top, err := canonical(worktree.Filesystem.Root())
	if err != nil {
		return nil, fmt.Errorf("failed to resolve worktree root: %w", err)
	}

	prefix, err := filepath.Rel(top, absRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to locate %s in worktree %s: %w", root, top, err)
	}
	prefix = filepath.ToSlash(prefix)
	if prefix == "." {
		prefix = ""
	} else {
		prefix += "/"
	}

	idx, err := repo.Storer.Index()
	if err != nil {
		return nil, fmt.Errorf("failed to read index of %s: %w", top, err)
	}

	files := make([]string, 0, len(idx.Entries))
	var last string
	for _, entry := range idx.Entries {
		if entry.Mode == filemode.Submodule {
			s.logger.Debug("skipping submodule", "path", entry.Name)
			continue
		}
		// Unmerged paths appear once per stage.
		if entry.Name == last {
			continue
		}
		last = entry.Name

		name, ok := strings.CutPrefix(entry.Name, prefix)
		if !ok {
			continue
		}
		files = append(files, name)
	}

	s.logger.Debug("listed tracked files", "root", absRoot, "worktree", top, "count", len(files))
	return files, nil
}

func canonical(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", err
	}
	return resolved, nil
}
