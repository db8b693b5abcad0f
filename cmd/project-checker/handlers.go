package main

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/taigrr/project-checker/internal/pathfilter"
)

type handlers struct {
	app *app
}

func (h *handlers) filterPaths(ctx context.Context, req *mcp.CallToolRequest, input FilterPathsInput) (*mcp.CallToolResult, FilterPathsOutput, error) {
	filter := pathfilter.New(input.Patterns)
	return nil, FilterPathsOutput{
		Paths:   filter.FilterPaths(input.Paths),
		Invalid: filter.Invalid(),
	}, nil
}

func (h *handlers) listFiles(ctx context.Context, req *mcp.CallToolRequest, input ListFilesInput) (*mcp.CallToolResult, ListFilesOutput, error) {
	p, err := h.app.load(ctx, input.Exclude)
	if err != nil {
		return &mcp.CallToolResult{IsError: true}, ListFilesOutput{}, err
	}
	return nil, ListFilesOutput{Root: p.Root, Files: p.Files}, nil
}

func (h *handlers) runChecks(ctx context.Context, req *mcp.CallToolRequest, input RunChecksInput) (*mcp.CallToolResult, RunChecksOutput, error) {
	ctx, cancel := context.WithTimeout(ctx, h.app.cfg.Timeout)
	defer cancel()

	p, err := h.app.load(ctx, input.Exclude)
	if err != nil {
		return &mcp.CallToolResult{IsError: true}, RunChecksOutput{}, err
	}

	summary, err := h.app.run(ctx, p, nil, input.Skip...)
	if err != nil {
		return &mcp.CallToolResult{IsError: true}, RunChecksOutput{}, fmt.Errorf("invalid skip list: %w", err)
	}

	return nil, RunChecksOutput{
		OK:      summary.OK(),
		Passed:  summary.Passed,
		Failed:  summary.Failed,
		Results: summary.Results,
	}, nil
}
