package checks

import (
	"bytes"
	"context"
	"path"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/taigrr/project-checker/internal/project"
	"github.com/taigrr/project-checker/internal/scan"
	"github.com/taigrr/project-checker/internal/types"
)

type contentFunc func(ctx context.Context, p *project.Project, s *scan.Scanner) (*types.Anomaly, error)

// contentCheck adapts a check that reads file contents to a RunFunc.
func contentCheck(logger *log.Logger, fn contentFunc) RunFunc {
	return func(ctx context.Context, p *project.Project) (*types.Anomaly, error) {
		return fn(ctx, p, scan.New(p, logger))
	}
}

func checkTrailingWhitespace(ctx context.Context, p *project.Project, s *scan.Scanner) (*types.Anomaly, error) {
	matches, err := s.Lines(ctx, p.Files, hasTrailingSpace)
	if err != nil || len(matches) == 0 {
		return nil, err
	}
	return &types.Anomaly{
		Title:  "No file may have trailing whitespaces.",
		Detail: formatMatches(matches),
	}, nil
}

func checkTabs(ctx context.Context, p *project.Project, s *scan.Scanner) (*types.Anomaly, error) {
	files := make([]string, 0, len(p.Files))
	for _, name := range p.Files {
		if !tabsAllowed(name) {
			files = append(files, name)
		}
	}

	matches, err := s.Lines(ctx, files, func(line []byte) bool {
		return bytes.IndexByte(line, '\t') >= 0
	})
	if err != nil || len(matches) == 0 {
		return nil, err
	}
	return &types.Anomaly{
		Title:  "No files may have tabs.",
		Detail: formatMatches(matches),
	}, nil
}

func checkEOF(ctx context.Context, p *project.Project, s *scan.Scanner) (*types.Anomaly, error) {
	missing, err := s.Files(ctx, p.Files, func(content []byte) bool {
		return !scan.EndsWithNewline(content)
	})
	if err != nil || len(missing) == 0 {
		return nil, err
	}

	var detail strings.Builder
	for _, name := range missing {
		detail.WriteString(name)
		detail.WriteString(" does not contain line-break at EOF\n")
	}
	return &types.Anomaly{
		Title:  "All files must end with newline.",
		Detail: detail.String(),
	}, nil
}

// hasTrailingSpace matches lines ending in whitespace other than '\n'.
func hasTrailingSpace(line []byte) bool {
	if len(line) == 0 {
		return false
	}
	switch line[len(line)-1] {
	case ' ', '\t', '\r', '\f', '\v':
		return true
	}
	return false
}

// tabsAllowed reports whether the file's syntax requires tabs.
func tabsAllowed(name string) bool {
	switch base := path.Base(name); base {
	case "Makefile", "makefile", "GNUmakefile":
		return true
	default:
		return strings.HasSuffix(base, ".mk")
	}
}

func formatMatches(matches []scan.Match) string {
	var b strings.Builder
	for _, m := range matches {
		b.WriteString(m.String())
		b.WriteByte('\n')
	}
	return b.String()
}
