package cmd

import (
	"fmt"

	"github.com/martpipe/martpipe/actions"
	"github.com/martpipe/martpipe/config"
	"github.com/martpipe/martpipe/constants"
	"github.com/martpipe/martpipe/rdbms/shared"
	"github.com/spf13/cobra"
)

var configConnAddNetezzaCfg = &actions.ConnectionConfig{}
var netezzaConn = shared.NetezzaConnectionDetails{}

var configConnAddNetezzaCmd = &cobra.Command{
	Use:   "netezza",
	Short: "Add a Netezza connection",
	Long: fmt.Sprintf(`Add a Netezza database connection to the config store %q
using a DSN of the form:

netezza://<user>:'<pass>'@<host>/<dbname>[?<param1>=<value1>&<param2>=<value2>&...]

Supported parameter keys:

* sslmode - Whether or not to use SSL (default is require)
* sslcert - PEM cert file location
* sslkey - PEM key file location
* sslrootcert - The location of the root certificate in PEM format
* securityLevel - The connection security level

Values accepted for sslmode:

* disable - No SSL
* require - Always SSL (skip verification)
* verify-ca - Always SSL (verify that the certificate presented by the
  server was signed by a trusted CA)

Values accepted for securityLevel:

0: Preferred Unsecured session
1: Only Unsecured session
2: Preferred Secured session
3: Only Secured session

See the driver documentation for reference:

https://pkg.go.dev/github.com/IBM/nzgo

`,
		config.Connections.FullPath),
	RunE: connAddRunFunc(configConnAddNetezzaCfg, constants.ConnectionTypeNetezza, &netezzaConn),
}

func init() {
	registerConnAddCommand(configConnAddNetezzaCmd, configConnAddNetezzaCfg)
	switches.addFlag(configConnAddNetezzaCmd, &netezzaConn.Dsn, "dsn", "", true, "")
}
