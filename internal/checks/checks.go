// Package checks implements the battery of project checks.
package checks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/charmbracelet/log"

	"github.com/taigrr/project-checker/internal/command"
	"github.com/taigrr/project-checker/internal/osv"
	"github.com/taigrr/project-checker/internal/project"
	"github.com/taigrr/project-checker/internal/types"
)

// ErrUnknownCheck is returned when a skipped check name is not registered.
var ErrUnknownCheck = errors.New("unknown check")

// RunFunc inspects a project. It returns a nil Anomaly when the project
// passes, and an error only when the check itself could not run.
type RunFunc func(ctx context.Context, p *project.Project) (*types.Anomaly, error)

// Check is a named validation routine.
type Check struct {
	Name        string
	Description string
	Run         RunFunc
}

// VulnerabilityDB finds known vulnerabilities of pinned packages.
type VulnerabilityDB interface {
	QueryBatch(ctx context.Context, pkgs []osv.Package) ([]osv.Finding, error)
}

// Deps are the collaborators checks reach outside the process through.
type Deps struct {
	Runner command.Runner
	Vulns  VulnerabilityDB
	Logger *log.Logger
}

// Default returns the registered checks in execution order.
func Default(deps Deps) []Check {
	logger := deps.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	logger = logger.WithPrefix("checks")

	return []Check{
		{
			Name:        "readme",
			Description: "Every project must include a README.md",
			Run:         checkReadme,
		},
		{
			Name:        "trailing-whitespace",
			Description: "No file may have trailing whitespaces",
			Run:         contentCheck(logger, checkTrailingWhitespace),
		},
		{
			Name:        "tabs",
			Description: "No file may have tabs, Makefiles excepted",
			Run:         contentCheck(logger, checkTabs),
		},
		{
			Name:        "eof-newline",
			Description: "All text files must end with newline; binary files (containing NUL) are skipped",
			Run:         contentCheck(logger, checkEOF),
		},
		{
			Name:        "bash-syntax",
			Description: "All bash files must have correct syntax (bash -n)",
			Run:         bashSyntax(deps.Runner),
		},
		{
			Name:        "pip-safety",
			Description: "requirements.txt must not pin vulnerable packages",
			Run:         pipSafety(deps.Vulns, logger),
		},
	}
}

// Names returns the names of checks in order.
func Names(checks []Check) []string {
	names := make([]string, len(checks))
	for i, c := range checks {
		names[i] = c.Name
	}
	return names
}

// Skip returns checks without those named in skip. Every skipped name must
// be registered.
func Skip(checks []Check, skip []string) ([]Check, error) {
	names := Names(checks)
	for _, name := range skip {
		if !slices.Contains(names, name) {
			return nil, fmt.Errorf("%w: %q (available: %v)", ErrUnknownCheck, name, names)
		}
	}

	kept := make([]Check, 0, len(checks))
	for _, c := range checks {
		if !slices.Contains(skip, c.Name) {
			kept = append(kept, c)
		}
	}
	return kept, nil
}
