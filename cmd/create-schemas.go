package cmd

import (
	"github.com/martpipe/martpipe/actions"
	"github.com/spf13/cobra"
)

var createSchemasCfg = actions.SchemasSetupConfig{}

var schemasCmd = &cobra.Command{
	Use:   "schemas <target-connection>",
	Short: "Create the raw, clean and mart schemas on a target warehouse connection",
	Long: `Create the raw, clean and mart schemas on a target warehouse connection
so the load and build actions have somewhere to put their tables
`,
	Args: getConnectionArgsFunc(&createSchemasCfg.TargetString, "requires a target <connection>"),
	RunE: func(cmd *cobra.Command, args []string) error {
		createSchemasCfg.StackDumpOnPanic = stackDumpOnPanic
		createSchemasCfg.Connections = getConnectionHandler()
		return actions.RunSchemasSetup(&createSchemasCfg)
	},
}

func init() {
	createCmd.AddCommand(schemasCmd)
	schemasCmd.Flags().SortFlags = false
	schemasCmd.Flags().StringVarP(&createSchemasCfg.RawSchema, "raw-schema", "r", "raw",
		"Name of the raw layer schema")
	schemasCmd.Flags().StringVarP(&createSchemasCfg.CleanSchema, "clean-schema", "c", "clean",
		"Name of the clean layer schema")
	schemasCmd.Flags().StringVarP(&createSchemasCfg.MartSchema, "mart-schema", "m", "mart",
		"Name of the mart layer schema")
	switches.addFlag(schemasCmd, &createSchemasCfg.ExecuteDDL, "execute-ddl", "", false, "")
	switches.addFlag(schemasCmd, &createSchemasCfg.LogLevel, "log-level", "error", false, "")
}
