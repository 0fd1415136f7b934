package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/atomicobject/codesearch/pkg/index"
)

// IndexWorkspaceResponse is the JSON shape for the index_workspace tool.
type IndexWorkspaceResponse struct {
	Workspace    string `json:"workspace"`
	IndexedCount int    `json:"indexed_count"`
	SkippedCount int    `json:"skipped_count"`
	ErrorCount   int    `json:"error_count"`
	DurationMS   int64  `json:"duration_ms"`
	Success      bool   `json:"success"`
}

// SearchResponse is the common JSON shape for every search_* tool.
type SearchResponse struct {
	Query   string       `json:"query"`
	Count   int          `json:"count"`
	Results []ResultItem `json:"results"`
}

// ResultItem is one ranked hit in a SearchResponse.
type ResultItem struct {
	Path         string  `json:"path"`
	RelativePath string  `json:"relative_path"`
	Filename     string  `json:"filename"`
	Extension    string  `json:"extension"`
	Score        float64 `json:"score"`
}

// StatsResponse is the JSON shape for the stats tool.
type StatsResponse struct {
	Workspace       string         `json:"workspace"`
	Health          string         `json:"health"`
	DocumentCount   int            `json:"document_count"`
	SizeOnDisk      string         `json:"size_on_disk"`
	ByExtension     map[string]int `json:"by_extension"`
}

// RepairResponse is the JSON shape for the repair_index tool.
type RepairResponse struct {
	Workspace  string `json:"workspace"`
	BackupPath string `json:"backup_path"`
	Validated  bool   `json:"validated"`
	Rebuilt    bool   `json:"rebuilt"`
}

// DoctorResponse is the JSON shape for the doctor tool.
type DoctorResponse struct {
	TestArtifactsRemoved int      `json:"test_artifacts_removed"`
	WorkspaceLocksRemoved int     `json:"workspace_locks_removed"`
	StuckLocksFound      int      `json:"stuck_locks_found"`
}

// ExtractTypesResponse is the JSON shape for the extract_types tool.
type ExtractTypesResponse struct {
	Workspace string                  `json:"workspace"`
	Path      string                  `json:"path"`
	Types     []index.ExtractedType   `json:"types"`
	Methods   []index.ExtractedMethod `json:"methods"`
}

// WorkspaceEntry is one row in the workspaces tool's response.
type WorkspaceEntry struct {
	Path     string `json:"path"`
	LastUsed string `json:"last_used"`
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	encoded, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("error marshaling response: %s", err)), nil
	}
	return mcp.NewToolResultText(string(encoded)), nil
}

func requiredString(args map[string]any, name string) (string, *mcp.CallToolResult) {
	v, ok := args[name].(string)
	if !ok || v == "" {
		return "", mcp.NewToolResultError(fmt.Sprintf("%s is required and must be a non-empty string", name))
	}
	return v, nil
}

func optionalLimit(args map[string]any, def int) int {
	if v, ok := args["limit"].(float64); ok && v > 0 {
		return int(v)
	}
	return def
}

// IndexWorkspaceTool runs a full indexing pass and starts the workspace's
// ChangePipeline.
func IndexWorkspaceTool(svc *Service) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()
		workspacePath, errResult := requiredString(args, "workspace")
		if errResult != nil {
			return errResult, nil
		}

		result, err := svc.IndexWorkspace(ctx, workspacePath)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("indexing failed: %s", err)), nil
		}

		return jsonResult(IndexWorkspaceResponse{
			Workspace:    workspacePath,
			IndexedCount: result.IndexedCount,
			SkippedCount: result.SkippedCount,
			ErrorCount:   result.ErrorCount,
			DurationMS:   result.Duration.Milliseconds(),
			Success:      result.Success,
		})
	}
}

// searchTool builds one of the five search_* tool handlers, sharing the
// common arg parsing and response shaping across query kinds.
func searchTool(svc *Service, kind string) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()
		workspacePath, errResult := requiredString(args, "workspace")
		if errResult != nil {
			return errResult, nil
		}
		query, errResult := requiredString(args, "query")
		if errResult != nil {
			return errResult, nil
		}
		limit := optionalLimit(args, 20)

		results, err := svc.Search(ctx, kind, workspacePath, query, limit)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("search failed: %s", err)), nil
		}

		items := make([]ResultItem, 0, len(results))
		for _, r := range results {
			items = append(items, ResultItem{
				Path:         r.Path,
				RelativePath: r.RelativePath,
				Filename:     r.Filename,
				Extension:    r.Extension,
				Score:        r.Score,
			})
		}
		return jsonResult(SearchResponse{Query: query, Count: len(items), Results: items})
	}
}

// StatsTool returns document statistics and health for a workspace.
func StatsTool(svc *Service) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()
		workspacePath, errResult := requiredString(args, "workspace")
		if errResult != nil {
			return errResult, nil
		}

		stats, health, err := svc.Statistics(ctx, workspacePath)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("could not read statistics: %s", err)), nil
		}

		return jsonResult(StatsResponse{
			Workspace:     workspacePath,
			Health:        string(health),
			DocumentCount: stats.DocumentCount,
			SizeOnDisk:    stats.HumanSize,
			ByExtension:   stats.ByExtension,
		})
	}
}

// HealthTool reports just the workspace's HealthState, for a cheap liveness
// check that doesn't pay for a full statistics read.
func HealthTool(svc *Service) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()
		workspacePath, errResult := requiredString(args, "workspace")
		if errResult != nil {
			return errResult, nil
		}
		_, health, err := svc.Statistics(ctx, workspacePath)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("could not read health: %s", err)), nil
		}
		return jsonResult(map[string]string{"workspace": workspacePath, "health": string(health)})
	}
}

// RepairIndexTool runs IndexStore's explicit backup-validate-rebuild repair.
func RepairIndexTool(svc *Service) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()
		workspacePath, errResult := requiredString(args, "workspace")
		if errResult != nil {
			return errResult, nil
		}

		report, err := svc.Repair(workspacePath)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("repair failed: %s", err)), nil
		}

		return jsonResult(RepairResponse{
			Workspace:  workspacePath,
			BackupPath: report.BackupPath,
			Validated:  report.Validated,
			Rebuilt:    report.Rebuilt,
		})
	}
}

// DoctorTool runs the tiered stale writer-lock sweep across every workspace
// the service has ever indexed.
func DoctorTool(svc *Service) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		report, err := svc.Doctor()
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("lock sweep failed: %s", err)), nil
		}

		return jsonResult(DoctorResponse{
			TestArtifactsRemoved:  report.TestArtifactsRemoved,
			WorkspaceLocksRemoved: report.WorkspaceLocksRemoved,
			StuckLocksFound:       report.StuckLocksFound,
		})
	}
}

// ExtractTypesTool returns the types/methods the TypeExtractor recorded for
// an already-indexed file, without re-running extraction.
func ExtractTypesTool(svc *Service) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()
		workspacePath, errResult := requiredString(args, "workspace")
		if errResult != nil {
			return errResult, nil
		}
		path, errResult := requiredString(args, "path")
		if errResult != nil {
			return errResult, nil
		}

		types, methods, err := svc.ExtractTypes(ctx, workspacePath, path)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("could not read extracted types: %s", err)), nil
		}

		return jsonResult(ExtractTypesResponse{
			Workspace: workspacePath,
			Path:      path,
			Types:     types,
			Methods:   methods,
		})
	}
}

// WorkspacesTool lists every workspace the service has ever indexed, most
// recently used first.
func WorkspacesTool(svc *Service) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		entries, err := svc.Workspaces()
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("could not list workspaces: %s", err)), nil
		}

		items := make([]WorkspaceEntry, 0, len(entries))
		for _, e := range entries {
			items = append(items, WorkspaceEntry{Path: e.OriginalPath, LastUsed: e.LastUsed.Format("2006-01-02T15:04:05Z07:00")})
		}
		return jsonResult(map[string]any{"workspaces": items, "count": len(items)})
	}
}

