package main

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/taigrr/project-checker/internal/types"
)

type (
	// FilterPathsInput contains the paths and patterns to filter.
	FilterPathsInput struct {
		Paths    []string `json:"paths" jsonschema:"Relative file paths using forward slashes"`
		Patterns []string `json:"patterns,omitempty" jsonschema:"Shell glob exclude patterns; '*' and '?' also match '/'"`
	}

	// FilterPathsOutput contains the surviving paths.
	FilterPathsOutput struct {
		Paths   []string `json:"paths"`
		Invalid []string `json:"invalid,omitempty"`
	}

	// ListFilesInput contains extra exclude patterns.
	ListFilesInput struct {
		Exclude []string `json:"exclude,omitempty" jsonschema:"Exclude patterns applied on top of the configured ones"`
	}

	// ListFilesOutput contains the files the checks would inspect.
	ListFilesOutput struct {
		Root  string   `json:"root"`
		Files []string `json:"files"`
	}

	// RunChecksInput selects which checks to run.
	RunChecksInput struct {
		Exclude []string `json:"exclude,omitempty" jsonschema:"Exclude patterns applied on top of the configured ones"`
		Skip    []string `json:"skip,omitempty" jsonschema:"Names of checks to skip"`
	}

	// RunChecksOutput contains the per-check outcome.
	RunChecksOutput struct {
		OK      bool                `json:"ok"`
		Passed  int                 `json:"passed"`
		Failed  int                 `json:"failed"`
		Results []types.CheckResult `json:"results"`
	}
)

func registerTools(server *mcp.Server, h *handlers) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "filter_paths",
		Description: "Remove every path matched by any of the shell glob patterns. Order and duplicates are preserved; malformed patterns match nothing.",
	}, h.filterPaths)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_files",
		Description: "List the git-tracked files of the project that survive the exclude patterns.",
	}, h.listFiles)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "run_checks",
		Description: "Run the project checks (readme, trailing-whitespace, tabs, eof-newline, bash-syntax, pip-safety) and report each result.",
	}, h.runChecks)
}
