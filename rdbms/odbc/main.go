package main

import (
	"database/sql"
	"fmt"

	_ "github.com/alexbrainman/odbc"
	"github.com/martpipe/martpipe/logger"
	"github.com/martpipe/martpipe/rdbms/shared"
	"github.com/xo/dburl"
)

// The plugin exposes the public symbol Exports with its functions bound as
// methods. Every method must live in this file: the plugin loader fails its
// interface type check when methods are spread across files of the same main
// package.

type exports struct{}

var Exports exports

// NewOdbcConnection opens a database connection through unixODBC using the
// DSN held in d.
func (v exports) NewOdbcConnection(log logger.Logger, d *shared.DsnConnectionDetails) (shared.Connector, error) {
	log.Info("Opening database connection: ", d)
	u, err := dburl.Parse(d.Dsn)
	if err != nil {
		return nil, fmt.Errorf("error parsing DSN %q: %w", d.Dsn, err)
	}
	// The odbc driver takes '?' markers regardless of the database behind the DSN.
	conn := &shared.MpConnection{
		Dml:    &shared.DmlGeneratorTxtBatch{BindStyle: shared.BindStyleQuestion},
		DbType: u.OriginalScheme,
	}
	if conn.DbSql, err = sql.Open(u.Driver, u.DSN); err != nil {
		return nil, err
	}
	if err = conn.DbSql.Ping(); err != nil {
		return nil, err
	}
	log.Info("Successful connection to: ", d)
	return conn, nil
}
