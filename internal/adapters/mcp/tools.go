package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"asanaid/internal/application/commands"
	"asanaid/internal/config"
	"asanaid/internal/domain"
	"asanaid/internal/ports"
)

// RegisterTools adds the asanaid tools to the MCP server. Scan and
// preview mutate nothing remotely; preview_update works on an isolated
// cache copy exactly like the CLI dry run.
func RegisterTools(s *server.MCPServer, svc ports.TaskService, store ports.CacheStore, cfg *config.Config) {
	s.AddTool(extractIDTool(), extractIDHandler())
	s.AddTool(nextIDTool(), nextIDHandler(store))
	s.AddTool(scanTool(), scanHandler(svc, store, cfg))
	s.AddTool(previewUpdateTool(), previewUpdateHandler(svc, store, cfg))
}

// --- extract_id ---

func extractIDTool() mcp.Tool {
	return mcp.NewTool("extract_id",
		mcp.WithDescription("Extract the task ID (e.g. PRJ-42-3) from the start of a task name."),
		mcp.WithString("name",
			mcp.Description("Task name to parse"),
			mcp.Required(),
		),
		mcp.WithString("code",
			mcp.Description("Project code the ID must match (2-5 uppercase letters)"),
			mcp.Required(),
		),
	)
}

func extractIDHandler() server.ToolHandlerFunc {
	return func(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		name := req.GetString("name", "")
		code := req.GetString("code", "")
		if err := domain.ValidateCode(code); err != nil {
			return toolError(err)
		}
		id, ok := domain.ExtractID(name, code)
		if !ok {
			return mcp.NewToolResultText("No ID found."), nil
		}
		return mcp.NewToolResultText(id), nil
	}
}

// --- next_id ---

func nextIDTool() mcp.Tool {
	return mcp.NewTool("next_id",
		mcp.WithDescription("Preview the next ID that would be assigned for a project code, without committing it. Pass parent_id to preview a child ID."),
		mcp.WithString("code",
			mcp.Description("Project code (2-5 uppercase letters)"),
			mcp.Required(),
		),
		mcp.WithString("parent_id",
			mcp.Description("Parent task ID (e.g. PRJ-5) to preview a child under; omit for a root ID"),
		),
	)
}

func nextIDHandler(store ports.CacheStore) server.ToolHandlerFunc {
	return func(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		code := req.GetString("code", "")
		if err := domain.ValidateCode(code); err != nil {
			return toolError(err)
		}
		cache, err := store.Load()
		if err != nil {
			return toolError(err)
		}

		parentID := req.GetString("parent_id", "")
		if parentID == "" {
			return mcp.NewToolResultText(domain.FormatID(code, []int{cache.NextRoot(code)})), nil
		}
		parent, ok := domain.ParseID(parentID, code)
		if !ok {
			return toolError(fmt.Errorf("invalid parent ID %q for code %s", parentID, code))
		}
		seq := append(append([]int{}, parent...), cache.NextChild(code, parent))
		return mcp.NewToolResultText(domain.FormatID(code, seq)), nil
	}
}

// --- scan ---

func scanTool() mcp.Tool {
	return mcp.NewTool("scan",
		mcp.WithDescription("Scan configured projects, reconcile the counter cache with the IDs observed remotely, and report conflicts."),
		mcp.WithString("project",
			mcp.Description("Project code to scan; omit to scan all configured projects"),
		),
		mcp.WithBoolean("ignore_conflicts",
			mcp.Description("Advance the cache past conflicting IDs instead of failing"),
		),
	)
}

func scanHandler(svc ports.TaskService, store ports.CacheStore, cfg *config.Config) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		cmd := &commands.ScanCommand{
			Service:         svc,
			Store:           store,
			Config:          cfg,
			Project:         req.GetString("project", ""),
			IgnoreConflicts: req.GetBool("ignore_conflicts", false),
		}
		results, err := cmd.Execute(ctx)
		if err != nil {
			return toolError(err)
		}

		var sb strings.Builder
		for _, r := range results {
			fmt.Fprintf(&sb, "%s: %d tasks, %d with IDs", r.Code, r.TotalTasks, r.TasksWithIDs)
			if len(r.Conflicts) > 0 {
				fmt.Fprintf(&sb, ", %d conflicts resolved", len(r.Conflicts))
			}
			sb.WriteByte('\n')
		}
		return mcp.NewToolResultText(sb.String()), nil
	}
}

// --- preview_update ---

func previewUpdateTool() mcp.Tool {
	return mcp.NewTool("preview_update",
		mcp.WithDescription("Preview the IDs an update run would assign. Nothing is renamed remotely and the cache is not persisted."),
		mcp.WithString("project",
			mcp.Description("Project code to preview; omit to preview all configured projects"),
		),
		mcp.WithBoolean("ignore_conflicts",
			mcp.Description("Advance the (isolated) cache past conflicting IDs instead of failing"),
		),
	)
}

func previewUpdateHandler(svc ports.TaskService, store ports.CacheStore, cfg *config.Config) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		cmd := &commands.UpdateCommand{
			Service:         svc,
			Store:           store,
			Config:          cfg,
			Project:         req.GetString("project", ""),
			DryRun:          true,
			IgnoreConflicts: req.GetBool("ignore_conflicts", false),
		}
		result, err := cmd.Execute(ctx)
		if err != nil {
			return toolError(err)
		}

		var sb strings.Builder
		for _, r := range result.Results {
			fmt.Fprintf(&sb, "%s: %d processed, %d would be assigned, %d skipped\n",
				r.Code, r.TotalProcessed(), len(r.Assignments), r.Skipped)
			for _, a := range r.Assignments {
				fmt.Fprintf(&sb, "  %s: %s\n", a.AssignedID, a.OldName)
			}
		}
		if sb.Len() == 0 {
			return mcp.NewToolResultText("Nothing to assign."), nil
		}
		return mcp.NewToolResultText(sb.String()), nil
	}
}

// --- helpers ---

func toolError(err error) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultError(err.Error()), nil
}
