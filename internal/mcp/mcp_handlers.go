package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/yourorg/pmdminer/core"
	"github.com/yourorg/pmdminer/internal/contract"
	"github.com/yourorg/pmdminer/schema"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg *contract.Config
	mgr     contract.CacheManager
}

func (h *toolHandler) handleGetRunSummary(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.baseCfg.Clone()
	if dir := request.GetString("output_dir", ""); dir != "" {
		cfg.OutputDir = dir
	}

	summary, err := core.ExecuteSummarize(ctx, cfg)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("summarize failed: %v", err)), nil
	}

	jsonData, _ := json.MarshalIndent(summary, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}

func (h *toolHandler) handleGetCommitResult(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	commit := request.GetString("commit", "")
	if commit == "" {
		return mcp.NewToolResultError("commit is required"), nil
	}

	cfg := h.baseCfg.Clone()
	if dir := request.GetString("output_dir", ""); dir != "" {
		cfg.OutputDir = dir
	}

	// Successful records and error records sit side by side; check both.
	data, err := os.ReadFile(filepath.Join(cfg.ResultsDir(), commit+schema.RecordSuffix))
	if err != nil {
		data, err = os.ReadFile(filepath.Join(cfg.ResultsDir(), commit+schema.ErrorRecordSuffix))
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("no result recorded for commit %s", commit)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (h *toolHandler) handleGetTopRules(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.baseCfg.Clone()
	if dir := request.GetString("output_dir", ""); dir != "" {
		cfg.OutputDir = dir
	}
	limit := request.GetInt("limit", 0)

	summary, err := core.ExecuteSummarize(ctx, cfg)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("summarize failed: %v", err)), nil
	}

	type ruleEntry struct {
		Rule  string `json:"rule"`
		Count int    `json:"count"`
	}
	var ranked []ruleEntry
	for _, rule := range schema.SortedRules(summary.Warnings) {
		ranked = append(ranked, ruleEntry{Rule: rule, Count: summary.Warnings[rule]})
	}
	// Alphabetical first, then by count so equal counts stay stable.
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Count > ranked[j].Count
	})
	if limit > 0 && limit < len(ranked) {
		ranked = ranked[:limit]
	}

	jsonData, _ := json.MarshalIndent(ranked, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}

func (h *toolHandler) handleGetCacheStatus(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	status := map[string]any{
		"backend":       h.baseCfg.CacheBackend,
		"entries":       h.mgr.ContentCache().Len(),
		"snapshot_path": h.baseCfg.SnapshotPath(),
	}
	jsonData, _ := json.MarshalIndent(status, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}
