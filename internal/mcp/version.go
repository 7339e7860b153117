package mcp

import (
	"context"
	"encoding/json"

	"github.com/bobmcallan/venice-mcp/internal/config"
	"github.com/bobmcallan/venice-mcp/internal/venice"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// versionInfo holds the version fields reported by venice_get_version.
type versionInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Build   string `json:"build"`
	Commit  string `json:"commit"`
	BaseURL string `json:"base_url"`
}

// VersionTool returns the mcp.Tool definition for venice_get_version.
func VersionTool() mcp.Tool {
	return mcp.NewTool("venice_get_version",
		mcp.WithDescription("Get the Venice MCP server version and the configured API base URL. Does not call the Venice API."),
	)
}

// VersionToolHandler reports local build information only.
func VersionToolHandler(name, baseURL string) server.ToolHandlerFunc {
	return func(ctx context.Context, r mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		out, err := json.Marshal(versionInfo{
			Name:    name,
			Version: config.GetVersion(),
			Build:   config.GetBuild(),
			Commit:  config.GetGitCommit(),
			BaseURL: baseURL,
		})
		if err != nil {
			return venice.ErrorResult("failed to marshal version info"), nil
		}
		return venice.TextResult(string(out)), nil
	}
}
