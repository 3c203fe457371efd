package cmd

import (
	"fmt"

	"github.com/martpipe/martpipe/actions"
	"github.com/martpipe/martpipe/config"
	"github.com/martpipe/martpipe/constants"
	"github.com/martpipe/martpipe/rdbms/shared"
	"github.com/spf13/cobra"
)

var configConnAddCsvCfg = &actions.ConnectionConfig{}
var csvConn = shared.CsvConnectionDetails{}

var configConnAddCsvCmd = &cobra.Command{
	Use:   "csv",
	Short: "Add a directory of CSV files",
	Long: fmt.Sprintf(`Add a directory of CSV files to the config store %q.

The load actions address files inside the directory as <connection>.<file-name>,
and the first row of each file is expected to carry the field names.`,
		config.Connections.FullPath),
	RunE: connAddRunFunc(configConnAddCsvCfg, constants.ConnectionTypeCsv, &csvConn),
}

func init() {
	registerConnAddCommand(configConnAddCsvCmd, configConnAddCsvCfg)
	switches.addFlag(configConnAddCsvCmd, &csvConn.Dir, "dir", "", true, "")
}
