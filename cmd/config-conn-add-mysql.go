package cmd

import (
	"fmt"

	"github.com/martpipe/martpipe/actions"
	"github.com/martpipe/martpipe/config"
	"github.com/martpipe/martpipe/constants"
	"github.com/martpipe/martpipe/rdbms/shared"
	"github.com/spf13/cobra"
)

var configConnAddMysqlCfg = &actions.ConnectionConfig{}
var mysqlConn = shared.DsnConnectionDetails{}

var configConnAddMysqlCmd = &cobra.Command{
	Use:   "mysql",
	Short: "Add a MySQL connection",
	Long: fmt.Sprintf(`Add a MySQL database connection to the config store %q
using a DSN of the form:

mysql://<user>:<pass>@<host>:<port>/<dbname>[?<opt1>=<value1>&<opt2>=<value1>&...]
`,
		config.Connections.FullPath),
	RunE: connAddRunFunc(configConnAddMysqlCfg, constants.ConnectionTypeMysql, &mysqlConn),
}

func init() {
	registerConnAddCommand(configConnAddMysqlCmd, configConnAddMysqlCfg)
	switches.addFlag(configConnAddMysqlCmd, &mysqlConn.Dsn, "dsn", "", true, "")
}
