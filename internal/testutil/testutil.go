// Package testutil builds on-disk project fixtures for tests.
package testutil

import (
	"maps"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/go-git/go-git/v5"
	"github.com/stretchr/testify/require"
)

// WriteFiles writes each slash-separated path in files below root, creating
// parent directories as needed.
func WriteFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		fullPath := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(fullPath), 0o755), "mkdir for %s", name)
		require.NoError(t, os.WriteFile(fullPath, []byte(content), 0o644), "write %s", name)
	}
}

// InitRepo creates a git repository in a temporary directory, writes files
// into it and stages them. When tracked is non-empty only those paths are
// staged; the rest stay untracked.
func InitRepo(t *testing.T, files map[string]string, tracked ...string) string {
	t.Helper()
	root := t.TempDir()
	WriteFiles(t, root, files)

	repo, err := git.PlainInit(root, false)
	require.NoError(t, err, "git init")

	worktree, err := repo.Worktree()
	require.NoError(t, err, "worktree")

	if len(tracked) == 0 {
		tracked = slices.Sorted(maps.Keys(files))
	}
	for _, name := range tracked {
		_, err := worktree.Add(name)
		require.NoError(t, err, "git add %s", name)
	}

	return root
}
