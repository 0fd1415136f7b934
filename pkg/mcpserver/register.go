package mcpserver

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// RegisterAll registers every tool this service exposes with s, mirroring
// the teacher's pkg/mcp.RegisterAll.
func RegisterAll(s *server.MCPServer, svc *Service) {
	indexWorkspaceTool := mcp.NewTool("index_workspace",
		mcp.WithDescription("Run a full indexing pass over a workspace and start watching it for further changes. Safe to call repeatedly; an already-watched workspace just re-scans. Response: {workspace,indexed_count,skipped_count,error_count,duration_ms,success}."),
		mcp.WithString("workspace", mcp.Required(), mcp.Description("Absolute path to the workspace root to index")),
	)
	s.AddTool(indexWorkspaceTool, IndexWorkspaceTool(svc))

	searchTextTool := mcp.NewTool("search_text",
		mcp.WithDescription("Full-text search over indexed file contents. Supports boolean AND/OR/NOT with parentheses and quoted phrases (e.g. 'parseConfig AND NOT test'). Terms are tokenized the same way content was indexed (camelCase/snake_case aware). Response: {query,count,results:[{path,relative_path,filename,extension,score}]}."),
		mcp.WithString("workspace", mcp.Required(), mcp.Description("Absolute path to an already-indexed workspace")),
		mcp.WithString("query", mcp.Required(), mcp.Description("Boolean search query")),
		mcp.WithNumber("limit", mcp.Description("Maximum results to return (default 20)"), mcp.Min(1)),
	)
	s.AddTool(searchTextTool, searchTool(svc, "text"))

	searchFilesTool := mcp.NewTool("search_files",
		mcp.WithDescription("Fuzzy filename search: word-boundary and shell-wildcard (*, ?) matching against indexed relative paths, with an optional one-level directory specifier (e.g. 'pkg/query'). Response: same shape as search_text."),
		mcp.WithString("workspace", mcp.Required(), mcp.Description("Absolute path to an already-indexed workspace")),
		mcp.WithString("query", mcp.Required(), mcp.Description("Filename glob/fuzzy pattern")),
		mcp.WithNumber("limit", mcp.Description("Maximum results to return (default 20)"), mcp.Min(1)),
	)
	s.AddTool(searchFilesTool, searchTool(svc, "files"))

	searchDirectoryTool := mcp.NewTool("search_directory",
		mcp.WithDescription("List every indexed file under a directory prefix, relative to the workspace root. Response: same shape as search_text."),
		mcp.WithString("workspace", mcp.Required(), mcp.Description("Absolute path to an already-indexed workspace")),
		mcp.WithString("query", mcp.Required(), mcp.Description("Directory path relative to the workspace root")),
		mcp.WithNumber("limit", mcp.Description("Maximum results to return (default 20)"), mcp.Min(1)),
	)
	s.AddTool(searchDirectoryTool, searchTool(svc, "directory"))

	searchRecencyTool := mcp.NewTool("search_recency",
		mcp.WithDescription("Full-text search re-ranked to favor recently modified files, with an exponential decay weighting layered on top of content relevance. Response: same shape as search_text."),
		mcp.WithString("workspace", mcp.Required(), mcp.Description("Absolute path to an already-indexed workspace")),
		mcp.WithString("query", mcp.Required(), mcp.Description("Boolean search query")),
		mcp.WithNumber("limit", mcp.Description("Maximum results to return (default 20)"), mcp.Min(1)),
	)
	s.AddTool(searchRecencyTool, searchTool(svc, "recency"))

	searchSimilarityTool := mcp.NewTool("search_similarity",
		mcp.WithDescription("Find files whose indexed content tokens most overlap with a reference file's. Lexical/structural similarity, not semantic embedding similarity. Response: same shape as search_text."),
		mcp.WithString("workspace", mcp.Required(), mcp.Description("Absolute path to an already-indexed workspace")),
		mcp.WithString("query", mcp.Required(), mcp.Description("Absolute path of the reference file already present in the index")),
		mcp.WithNumber("limit", mcp.Description("Maximum results to return (default 20)"), mcp.Min(1)),
	)
	s.AddTool(searchSimilarityTool, searchTool(svc, "similarity"))

	statsTool := mcp.NewTool("stats",
		mcp.WithDescription("Document count, size on disk, per-extension breakdown, and health state for a workspace's index. Response: {workspace,health,document_count,size_on_disk,by_extension}."),
		mcp.WithString("workspace", mcp.Required(), mcp.Description("Absolute path to the workspace")),
	)
	s.AddTool(statsTool, StatsTool(svc))

	healthTool := mcp.NewTool("health",
		mcp.WithDescription("Cheap liveness check: one of Missing/Healthy/Degraded/Unhealthy/Locked for a workspace's index, without reading full statistics."),
		mcp.WithString("workspace", mcp.Required(), mcp.Description("Absolute path to the workspace")),
	)
	s.AddTool(healthTool, HealthTool(svc))

	repairTool := mcp.NewTool("repair_index",
		mcp.WithDescription("Back up a workspace's index directory, validate it, and rebuild the segment file from scratch if validation fails. A rebuilt index starts empty; call index_workspace again afterward. Response: {workspace,backup_path,validated,rebuilt}."),
		mcp.WithString("workspace", mcp.Required(), mcp.Description("Absolute path to the workspace")),
	)
	s.AddTool(repairTool, RepairIndexTool(svc))

	doctorTool := mcp.NewTool("doctor",
		mcp.WithDescription("Run the tiered stale writer-lock sweep across every workspace this service has ever indexed: removes test-artifact locks immediately, removes workspace locks past their minimum age, and reports (without removing) locks old enough to suggest a stuck writer. Response: {test_artifacts_removed,workspace_locks_removed,stuck_locks_found}."),
	)
	s.AddTool(doctorTool, DoctorTool(svc))

	extractTypesTool := mcp.NewTool("extract_types",
		mcp.WithDescription("Return the types and methods the TypeExtractor recorded for an already-indexed file (Go/Python/JS/TS/Java/C#/Rust/C/C++/Ruby/shell directly; Vue/Razor/cshtml via embedded-language composite extraction). Response: {workspace,path,types:[{name,kind,signature,line,column,modifiers}],methods:[{name,kind,signature,line,column,modifiers,return_type,parameters}]}."),
		mcp.WithString("workspace", mcp.Required(), mcp.Description("Absolute path to an already-indexed workspace")),
		mcp.WithString("path", mcp.Required(), mcp.Description("Absolute path of the indexed file to read extracted types for")),
	)
	s.AddTool(extractTypesTool, ExtractTypesTool(svc))

	workspacesTool := mcp.NewTool("workspaces",
		mcp.WithDescription("List every workspace this service has ever indexed, most recently used first. Response: {workspaces:[{path,last_used}],count}."),
	)
	s.AddTool(workspacesTool, WorkspacesTool(svc))
}
