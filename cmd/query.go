package cmd

import (
	"github.com/martpipe/martpipe/actions"
	"github.com/spf13/cobra"
)

const queryArgsDefinitionTxt string = "<connection> <SQL-optionally-quoted>"

var queryCfg = actions.QueryConfig{LogLevel: "error"}

var queryCmd = &cobra.Command{
	Use:   "query " + queryArgsDefinitionTxt,
	Short: "Run ad hoc SQL against a configured connection",
	Long: `Run ad hoc SQL by naming a connection followed by the statement as plain arguments.
Quoting the statement is only needed when it contains characters your shell would
otherwise interpret. Use --dry-run to preview the statement without executing it.
Results are written as CSV lines, with fields enclosed by '"' on request.`,
	Args: getQueryFromArgsFunc(&queryCfg.SourceString, &queryCfg.Query, ""),
	RunE: func(cmd *cobra.Command, args []string) error {
		queryCfg.Connections = getConnectionLoader()
		queryCfg.StackDumpOnPanic = stackDumpOnPanic
		return actions.RunQuery(&queryCfg)
	},
}

func init() {
	rootCmd.AddCommand(queryCmd)
	queryCmd.Flags().SortFlags = false
	queryCmd.SilenceUsage = true // a SQL syntax error should not dump command help.
	switches.addFlag(queryCmd, &queryCfg.LogLevel, "log-level", "error", false, "")
	switches.addFlag(queryCmd, &queryCfg.DryRun, "dry-run", "false", false, "")
	switches.addFlag(queryCmd, &queryCfg.PrintHeader, "print-header", "false", false, "")
}
