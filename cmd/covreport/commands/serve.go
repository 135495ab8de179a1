package commands

import (
	"covreport/internal/mcp"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Expose the comparison pipeline as MCP tools over stdio",
	RunE: func(cmd *cobra.Command, args []string) error {
		server := mcp.NewServer(cfg, Version)
		return server.Run(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
