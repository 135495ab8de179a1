package commands

import (
	"encoding/json"
	"fmt"

	"covreport/internal/coverage"

	"github.com/spf13/cobra"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON Schema for coverage dataset files",
	RunE: func(cmd *cobra.Command, args []string) error {
		schema, err := coverage.InputSchema()
		if err != nil {
			return err
		}
		out, err := json.MarshalIndent(schema, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(schemaCmd)
}
