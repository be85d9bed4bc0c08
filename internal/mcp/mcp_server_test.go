package mcp_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/pmdminer/core"
	"github.com/yourorg/pmdminer/internal/contract"
	"github.com/yourorg/pmdminer/internal/iocache"
	mcp_internal "github.com/yourorg/pmdminer/internal/mcp"
	"github.com/yourorg/pmdminer/schema"
)

func newTestManager(t *testing.T) contract.CacheManager {
	t.Helper()
	store := iocache.NewJSONSnapshotStore(filepath.Join(t.TempDir(), "pmd_cache.json"))
	mc, err := iocache.NewMemCache(store, "test-ruleset")
	require.NoError(t, err)
	runStore, err := iocache.NewRunStore(schema.NoneBackend, "", "")
	require.NoError(t, err)
	return iocache.NewManager(mc, runStore)
}

func callTool(t *testing.T, s *server.MCPServer, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	tool := s.GetTool(name)
	require.NotNil(t, tool, "Tool %s should exist", name)

	req := mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
	res, err := tool.Handler(context.Background(), req)
	require.NoError(t, err, "The MCP handler should not return a raw error for tool logic failures")
	return res
}

func TestMCPServerHandlers(t *testing.T) {
	outputDir := t.TempDir()
	baseCfg := &contract.Config{
		RepoLocation: "https://example.com/repo.git",
		OutputDir:    outputDir,
		CacheBackend: schema.JSONBackend,
	}

	require.NoError(t, os.MkdirAll(baseCfg.ResultsDir(), 0o755))
	require.NoError(t, core.WriteCommitRecord(baseCfg.ResultsDir(), &schema.CommitRecord{
		CommitHash:     "cafe0123cafe0123",
		PMDSuccess:     true,
		NumJavaFiles:   3,
		NumWarnings:    2,
		WarningsByRule: map[string]int{"GodClass": 2},
	}))

	s := mcp_internal.NewMCPServer(baseCfg, newTestManager(t))

	t.Run("get_commit_result missing commit", func(t *testing.T) {
		res := callTool(t, s, "get_commit_result", map[string]any{})
		assert.True(t, res.IsError, "The response should indicate an error state")
		assert.Contains(t, res.Content[0].(mcp.TextContent).Text, "commit is required")
	})

	t.Run("get_commit_result unknown commit", func(t *testing.T) {
		res := callTool(t, s, "get_commit_result", map[string]any{
			"commit": "0000000000000000",
		})
		assert.True(t, res.IsError)
		assert.Contains(t, res.Content[0].(mcp.TextContent).Text, "no result recorded")
	})

	t.Run("get_commit_result existing record", func(t *testing.T) {
		res := callTool(t, s, "get_commit_result", map[string]any{
			"commit": "cafe0123cafe0123",
		})
		require.False(t, res.IsError)

		var record schema.CommitRecord
		require.NoError(t, json.Unmarshal([]byte(res.Content[0].(mcp.TextContent).Text), &record))
		assert.Equal(t, 2, record.NumWarnings)
	})

	t.Run("get_run_summary", func(t *testing.T) {
		res := callTool(t, s, "get_run_summary", map[string]any{})
		require.False(t, res.IsError)

		var summary schema.RunSummary
		require.NoError(t, json.Unmarshal([]byte(res.Content[0].(mcp.TextContent).Text), &summary))
		assert.Equal(t, 1, summary.Repository.AnalyzedOK)
		assert.Equal(t, 2, summary.Warnings["GodClass"])
	})

	t.Run("get_run_summary empty dir", func(t *testing.T) {
		res := callTool(t, s, "get_run_summary", map[string]any{
			"output_dir": t.TempDir(),
		})
		assert.True(t, res.IsError)
		assert.Contains(t, res.Content[0].(mcp.TextContent).Text, "summarize failed")
	})

	t.Run("get_top_rules with limit", func(t *testing.T) {
		res := callTool(t, s, "get_top_rules", map[string]any{
			"limit": 1.0,
		})
		require.False(t, res.IsError)

		var rules []struct {
			Rule  string `json:"rule"`
			Count int    `json:"count"`
		}
		require.NoError(t, json.Unmarshal([]byte(res.Content[0].(mcp.TextContent).Text), &rules))
		require.Len(t, rules, 1)
		assert.Equal(t, "GodClass", rules[0].Rule)
	})

	t.Run("get_cache_status", func(t *testing.T) {
		res := callTool(t, s, "get_cache_status", map[string]any{})
		require.False(t, res.IsError)

		var status map[string]any
		require.NoError(t, json.Unmarshal([]byte(res.Content[0].(mcp.TextContent).Text), &status))
		assert.Equal(t, string(schema.JSONBackend), status["backend"])
	})
}
