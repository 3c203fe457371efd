package cmd

import (
	"github.com/spf13/cobra"
)

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Generate helpful metadata",
	Long: `Generate DDL for the following:

- Snowflake STAGE
- Warehouse schemas for the raw, clean and mart layers
`,
}

func init() {
	rootCmd.AddCommand(createCmd)
}
