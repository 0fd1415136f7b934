package main

import (
	"context"
	"log"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/atomicobject/codesearch/pkg/mcpserver"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run an MCP server exposing codesearch's tools",
	Long: `Run a Model Context Protocol (MCP) server that exposes this service's
tools (index_workspace, search_text, search_files, search_directory,
search_recency, search_similarity, stats, health, repair_index, doctor,
extract_types, workspaces) over stdio, for use with MCP clients like Claude
Desktop, Cursor, or VS Code.

Example MCP client configuration:
{
  "mcpServers": {
    "codesearch": {
      "command": "/path/to/codesearch",
      "args": ["mcp"],
      "env": {}
    }
  }
}`,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newService()
		if err != nil {
			return err
		}
		defer svc.Close(context.Background())

		s := server.NewMCPServer(
			"codesearch",
			"v0.1.0",
			server.WithToolCapabilities(false),
			server.WithInstructions(mcpInstructions),
		)
		mcpserver.RegisterAll(s, svc)

		log.Println("codesearch MCP server ready on stdio")
		return server.ServeStdio(s)
	},
}

const mcpInstructions = `This MCP server indexes one or more code workspaces and exposes search
over their contents.

Main tools:
- index_workspace: run before searching a new workspace; safe to re-run.
- search_text / search_files / search_directory / search_recency /
  search_similarity: the five query kinds, see each tool's own description.
- stats / health: check index state without modifying anything.
- repair_index: recover a corrupted index; re-index afterward.
- doctor: sweep stale writer locks left by crashed processes.
- extract_types: read the types/methods recorded for an indexed file.
- workspaces: list every workspace this server has ever indexed.`

func init() {
	rootCmd.AddCommand(mcpCmd)
}
