package cmd

import (
	"fmt"

	"github.com/martpipe/martpipe/actions"
	"github.com/martpipe/martpipe/config"
	"github.com/martpipe/martpipe/constants"
	"github.com/martpipe/martpipe/rdbms/shared"
	"github.com/spf13/cobra"
)

var configConnAddDsnCfg = &actions.ConnectionConfig{}
var dsnConn = shared.DsnConnectionDetails{}

var configConnAddDsnCmd = &cobra.Command{
	Use:   "sqlserver",
	Short: "Add a SQL Server connection",
	Long: fmt.Sprintf(`Add a SQL Server database connection to the config store %q
using a DSN of the form:

sqlserver://<user>:<pass>@<host>/<dbname>[?<opt1>=<value1>&<opt2>=<value1>&...]
`,
		config.Connections.FullPath),
	RunE: connAddRunFunc(configConnAddDsnCfg, constants.ConnectionTypeSqlServer, &dsnConn),
}

func init() {
	registerConnAddCommand(configConnAddDsnCmd, configConnAddDsnCfg)
	switches.addFlag(configConnAddDsnCmd, &dsnConn.Dsn, "dsn", "", true, "")
}
