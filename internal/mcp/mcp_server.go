// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/yourorg/pmdminer/internal/contract"
)

// NewMCPServer initializes and configures the pmdminer MCP server without
// starting it. This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config, mgr contract.CacheManager) *server.MCPServer {
	s := server.NewMCPServer(
		"PMD Mining Server",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{
		baseCfg: baseCfg,
		mgr:     mgr,
	}

	// --- 1. Tool: get_run_summary ---
	s.AddTool(mcp.NewTool("get_run_summary",
		mcp.WithDescription("Summarize a completed or interrupted mining run from its output directory."),
		mcp.WithString("output_dir", mcp.Description("Path to the mining output directory (defaults to the configured one).")),
	), h.handleGetRunSummary)

	// --- 2. Tool: get_commit_result ---
	s.AddTool(mcp.NewTool("get_commit_result",
		mcp.WithDescription("Fetch the analysis result recorded for a single commit."),
		mcp.WithString("commit", mcp.Description("Full hash of the mined commit."), mcp.Required()),
		mcp.WithString("output_dir", mcp.Description("Path to the mining output directory.")),
	), h.handleGetCommitResult)

	// --- 3. Tool: get_top_rules ---
	s.AddTool(mcp.NewTool("get_top_rules",
		mcp.WithDescription("List the most frequently violated PMD rules across the mined history."),
		mcp.WithNumber("limit", mcp.Description("Limit the number of rules returned.")),
		mcp.WithString("output_dir", mcp.Description("Path to the mining output directory.")),
	), h.handleGetTopRules)

	// --- 4. Tool: get_cache_status ---
	s.AddTool(mcp.NewTool("get_cache_status",
		mcp.WithDescription("Report the state of the in-memory content cache."),
	), h.handleGetCacheStatus)

	return s
}

// StartMCPServer starts the pmdminer MCP server.
func StartMCPServer(_ context.Context, baseCfg *contract.Config, mgr contract.CacheManager) error {
	s := NewMCPServer(baseCfg, mgr)
	return server.ServeStdio(s)
}
