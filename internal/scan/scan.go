// Package scan reads project files in parallel and reports matching lines.
package scan

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"runtime"
	"strconv"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"
)

// Resolver maps a project-relative path to a path on disk.
type Resolver interface {
	Resolve(relativePath string) (string, error)
}

// Match is a single matching line, numbered from 1.
type Match struct {
	Path string `json:"path"`
	Line int    `json:"line"`
	Text string `json:"text"`
}

// String renders the match the way grep --with-filename --line-number does.
func (m Match) String() string {
	return m.Path + ":" + strconv.Itoa(m.Line) + ":" + m.Text
}

// Scanner reads files through a Resolver with a bounded worker pool.
type Scanner struct {
	resolver Resolver
	workers  int
	logger   *log.Logger
}

// New creates a Scanner using one worker per CPU.
func New(resolver Resolver, logger *log.Logger) *Scanner {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Scanner{
		resolver: resolver,
		workers:  max(runtime.NumCPU(), 1),
		logger:   logger.WithPrefix("scan"),
	}
}

// Lines returns every line of the text files in files for which match
// returns true, ordered by file then line. Binary and missing files are
// skipped.
func (s *Scanner) Lines(ctx context.Context, files []string, match func(line []byte) bool) ([]Match, error) {
	perFile, err := s.each(ctx, files, func(name string, content []byte) []Match {
		var found []Match
		for i, line := range splitLines(content) {
			if match(line) {
				found = append(found, Match{Path: name, Line: i + 1, Text: string(line)})
			}
		}
		return found
	})
	if err != nil {
		return nil, err
	}

	var matches []Match
	for _, m := range perFile {
		matches = append(matches, m...)
	}
	return matches, nil
}

// Files returns the text files in files whose content satisfies pred, in
// input order.
func (s *Scanner) Files(ctx context.Context, files []string, pred func(content []byte) bool) ([]string, error) {
	perFile, err := s.each(ctx, files, func(name string, content []byte) []Match {
		if pred(content) {
			return []Match{{Path: name}}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	var selected []string
	for _, m := range perFile {
		if len(m) > 0 {
			selected = append(selected, m[0].Path)
		}
	}
	return selected, nil
}

func (s *Scanner) each(ctx context.Context, files []string, fn func(name string, content []byte) []Match) ([][]Match, error) {
	results := make([][]Match, len(files))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, name := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			content, ok, err := s.read(name)
			if err != nil || !ok {
				return err
			}
			results[i] = fn(name, content)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// read loads a text file. ok is false for files that should be ignored.
func (s *Scanner) read(name string) (content []byte, ok bool, err error) {
	fullPath, err := s.resolver.Resolve(name)
	if err != nil {
		return nil, false, err
	}

	info, err := os.Stat(fullPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("tracked file missing from worktree", "path", name)
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to stat %s: %w", name, err)
	}
	if !info.Mode().IsRegular() {
		s.logger.Debug("skipping non-regular file", "path", name, "mode", info.Mode())
		return nil, false, nil
	}

	content, err = os.ReadFile(fullPath)
	if err != nil {
		return nil, false, fmt.Errorf("failed to read %s: %w", name, err)
	}
	if IsBinary(content) {
		s.logger.Debug("skipping binary file", "path", name)
		return nil, false, nil
	}
	return content, true, nil
}

// IsBinary reports whether content holds a NUL byte.
func IsBinary(content []byte) bool {
	return bytes.IndexByte(content, 0) >= 0
}

// EndsWithNewline reports whether content is empty or ends in '\n'.
func EndsWithNewline(content []byte) bool {
	return len(content) == 0 || content[len(content)-1] == '\n'
}

// splitLines splits on '\n'. A final line without a terminator still counts.
func splitLines(content []byte) [][]byte {
	if len(content) == 0 {
		return nil
	}
	lines := bytes.Split(content, []byte("\n"))
	if len(lines[len(lines)-1]) == 0 {
		lines = lines[:len(lines)-1]
	}
	return lines
}
