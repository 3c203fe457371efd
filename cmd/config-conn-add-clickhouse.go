package cmd

import (
	"fmt"

	"github.com/martpipe/martpipe/actions"
	"github.com/martpipe/martpipe/config"
	"github.com/martpipe/martpipe/constants"
	"github.com/martpipe/martpipe/rdbms/shared"
	"github.com/spf13/cobra"
)

var configConnAddClickhouseCfg = &actions.ConnectionConfig{}
var clickhouseConn = shared.DsnConnectionDetails{}

var configConnAddClickhouseCmd = &cobra.Command{
	Use:   "clickhouse",
	Short: "Add a ClickHouse connection",
	Long: fmt.Sprintf(`Add a ClickHouse database connection to the config store %q
using a DSN of the form:

clickhouse://<user>:<pass>@<host>:<port>/<dbname>[?<opt1>=<value1>&<opt2>=<value1>&...]

The port should be the native protocol port (9000 by default).
`,
		config.Connections.FullPath),
	RunE: connAddRunFunc(configConnAddClickhouseCfg, constants.ConnectionTypeClickhouse, &clickhouseConn),
}

func init() {
	registerConnAddCommand(configConnAddClickhouseCmd, configConnAddClickhouseCfg)
	switches.addFlag(configConnAddClickhouseCmd, &clickhouseConn.Dsn, "dsn", "", true, "")
}
