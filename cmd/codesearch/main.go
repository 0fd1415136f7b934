// Command codesearch is the CLI and MCP server entry point for the
// per-workspace code search and navigation service: index a workspace,
// run one of the five query kinds against it, check its health, or expose
// the whole thing as an MCP tool server over stdio.
package main

func main() {
	Execute()
}
