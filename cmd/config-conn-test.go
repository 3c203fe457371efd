package cmd

import (
	"github.com/martpipe/martpipe/actions"
	"github.com/spf13/cobra"
)

var connTestCfg = actions.ConnectionTestConfig{}

var configConnTestCmd = &cobra.Command{
	Use:   "test",
	Short: "Test a connection",
	Long: `Test that a connection can be reached:

- Database connections are opened and pinged
- S3 buckets are listed
- CSV directories are checked on disk`,
	RunE: func(cmd *cobra.Command, args []string) error {
		connTestCfg.Connections = getConnectionHandler()
		connTestCfg.StackDumpOnPanic = stackDumpOnPanic
		return actions.RunConnectionTest(&connTestCfg)
	},
}

func initConnTest() {
	configConnCmd.AddCommand(configConnTestCmd)
	configConnTestCmd.Flags().SortFlags = false
	configConnTestCmd.Flags().StringVarP(&connTestCfg.ConnectionName, "connection-name", "c", "",
		"The connection name to test")
	_ = configConnTestCmd.MarkFlagRequired("connection-name")
	switches.addFlag(configConnTestCmd, &connTestCfg.LogLevel, "log-level", "error", false, "")
	configConnTestCmd.SilenceUsage = true
}
