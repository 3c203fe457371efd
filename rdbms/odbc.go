package rdbms

import (
	"fmt"
	"reflect"

	pluginloader "github.com/martpipe/martpipe/plugin-loader"

	"github.com/martpipe/martpipe/constants"
	"github.com/martpipe/martpipe/logger"
	"github.com/martpipe/martpipe/rdbms/shared"
)

// NewOdbcConnection opens an ODBC database connection through the ODBC plugin,
// which keeps the unixODBC link-time dependency out of the main binary.
func NewOdbcConnection(log logger.Logger, d *shared.DsnConnectionDetails) (shared.Connector, error) {
	exports, err := pluginloader.LoadPluginExports(constants.MpPluginOdbc)
	if err != nil {
		return nil, err
	}
	i, ok := exports.(shared.OdbcConnector)
	if !ok {
		r := reflect.TypeOf(exports)
		return nil, fmt.Errorf("plugin %v does not implement the required interface: OdbcConnector: %v", constants.MpPluginOdbc, r.String())
	}
	return i.NewOdbcConnection(log, d)
}
