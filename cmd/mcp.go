package cmd

import (
	"github.com/spf13/cobra"

	"github.com/yourorg/pmdminer/internal/mcp"
)

// mcpCmd represents the mcp command.
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the pmdminer MCP server",
	Long:  `Launch an MCP server that allows AI agents to inspect mined results via standard tools.`,
	Args:  cobra.MaximumNArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		// Keep setup quiet: stdio carries the protocol, so nothing else
		// may be printed to stdout.
		return sharedSetup(rootCtx, cmd, args)
	},
	RunE: func(_ *cobra.Command, _ []string) error {
		return mcp.StartMCPServer(rootCtx, cfg, cacheManager)
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
