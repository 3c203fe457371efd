package rdbms

import (
	"database/sql"
	"fmt"

	_ "github.com/IBM/nzgo/v12"
	_ "github.com/denisenkom/go-mssqldb"
	_ "github.com/go-sql-driver/mysql"
	"github.com/martpipe/martpipe/constants"
	"github.com/martpipe/martpipe/logger"
	"github.com/martpipe/martpipe/rdbms/shared"
	"github.com/xo/dburl"
)

// supportedDsnConnectionTypes is a map where keys are the supported connections based on values in module constants.
// Postgres, ClickHouse, Snowflake and Netezza connections are handled explicitly so do not need to be here.
var supportedDsnConnectionTypes = map[string]struct{}{
	constants.ConnectionTypeSqlServer:     struct{}{},
	constants.ConnectionTypeMysql:         struct{}{},
	constants.ConnectionTypeOdbcSqlServer: struct{}{},
}

// isSupportedConnection returns true if it can look up the supplied connection type t in map of supported
// connections supportedDsnConnectionTypes.
func isSupportedConnection(connectionType string) bool {
	_, ok := supportedDsnConnectionTypes[connectionType]
	return ok
}

// bindStyleForDbType returns the bind placeholder style used by the driver for the given connection type.
func bindStyleForDbType(dbType string) string {
	switch dbType {
	case constants.ConnectionTypePostgres, constants.ConnectionTypeNetezza:
		return shared.BindStyleDollar
	case constants.ConnectionTypeSqlServer:
		return shared.BindStyleAtP
	default:
		return shared.BindStyleQuestion
	}
}

// OpenDbConnection opens a database connection using the supplied ConnectionDetails struct in c.
func OpenDbConnection(log logger.Logger, c shared.ConnectionDetails) (db shared.Connector, err error) {
	log.Debug("opening connection type ", c.Type, " with logicalName ", c.LogicalName) // don't log password details in c.Data!
	switch c.Type {
	case constants.ConnectionTypePostgres:
		db, err = newPostgresConnection(log, shared.GetDsnConnectionDetails(&c))
	case constants.ConnectionTypeClickhouse:
		db, err = newClickhouseConnection(log, shared.GetDsnConnectionDetails(&c))
	case constants.ConnectionTypeSnowflake:
		db, err = newSnowflakeConnection(log, shared.GetDsnConnectionDetails(&c))
	case constants.ConnectionTypeNetezza:
		db, err = newNetezzaConnection(log, shared.GetDsnConnectionDetails(&c))
	case constants.ConnectionTypeSqlServer, constants.ConnectionTypeMysql:
		db, err = newConnectionWithDsn(log, shared.GetDsnConnectionDetails(&c))
	case constants.ConnectionTypeMock:
		db, _ = shared.NewMockConnectionWithMockTx(log, constants.ConnectionTypeMock)
	default: // else if connection is ODBC or unsupported...
		if isSupportedConnection(c.Type) { // if the connection type is supported...
			db, err = NewOdbcConnection(log, shared.GetDsnConnectionDetails(&c))
		} else { // else we have an unsupported database...
			// Return an error.
			err = fmt.Errorf("unsupported database type, %q", c.Type)
		}
	}
	return
}

// DDLExec opens a database connection using the supplied ConnectionDetails struct in c
// and executes the supplied DDL statement.
func DDLExec(log logger.Logger, c shared.ConnectionDetails, ddl string) error {
	conn, err := OpenDbConnection(log, c)
	if err != nil {
		return err
	}
	defer conn.Close()
	if _, err := conn.Exec(ddl); err != nil {
		return fmt.Errorf("failed to execute DDL: '%v', error: %v", ddl, err)
	}
	return nil
}

func newConnectionWithDsn(log logger.Logger, d *shared.DsnConnectionDetails) (shared.Connector, error) {
	log.Info("Opening database connection: ", d)
	u, err := dburl.Parse(d.Dsn)
	if err != nil { // if the DSN could not be parsed...
		return nil, fmt.Errorf("error parsing DSN %q: %w", d.Dsn, err)
	}
	// Create the new Connector.
	conn := &shared.MpConnection{
		Dml:    &shared.DmlGeneratorTxtBatch{BindStyle: bindStyleForDbType(u.OriginalScheme)},
		DbType: u.OriginalScheme,
	}
	// Open the connection.
	conn.DbSql, err = sql.Open(u.Driver, u.DSN)
	if err != nil {
		return nil, err
	}
	// Test the connection.
	err = conn.DbSql.Ping()
	if err != nil {
		return nil, err
	}
	log.Info("Successful connection to: ", d)
	return conn, nil
}
