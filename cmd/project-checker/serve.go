package main

import (
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve [project-dir]",
		Short: "Serve the checks over the Model Context Protocol on stdio",
		Long: `serve starts an MCP server on stdin/stdout exposing the tools
filter_paths, list_files and run_checks for the given project.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runServer,
	}
}

func runServer(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd, args)
	if err != nil {
		return err
	}

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "project-checker",
		Version: version,
	}, nil)

	registerTools(server, &handlers{app: a})

	a.logger.Info("serving MCP on stdio", "dir", a.cfg.ProjectDir)
	if err := server.Run(cmd.Context(), &mcp.StdioTransport{}); err != nil {
		return fmt.Errorf("error running server: %w", err)
	}
	return nil
}
