package cmd

import (
	"github.com/martpipe/martpipe/actions"
	"github.com/spf13/cobra"
)

var configConnAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a connection",
	Long:  `Add a logical connection (database or S3 bucket) for use with the pipe command or pre-canned actions.`,
}

func initConnAdd() {
	configConnCmd.AddCommand(configConnAddCmd)
}

// connAddRunFunc builds the RunE for a conn add subcommand, binding the
// connection type and its validator to the shared add action.
func connAddRunFunc(cfg *actions.ConnectionConfig, connType string, details actions.ConnectionValidator) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg.Type = connType
		cfg.ConfigFile = getConnectionGetterSetter()
		cfg.ConnDetails = details
		cmd.SilenceUsage = true
		return actions.RunConnectionAdd(cfg)
	}
}

// registerConnAddCommand attaches cmd under "config connections add" along
// with the flags that every subcommand carries.
func registerConnAddCommand(cmd *cobra.Command, cfg *actions.ConnectionConfig) {
	configConnAddCmd.AddCommand(cmd)
	cmd.Flags().SortFlags = false
	switches.addFlag(cmd, &cfg.LogicalName, "connection-name", "", true, "")
	switches.addFlag(cmd, &cfg.Force, "force-connection", "", false, "")
}
