package rdbms

import (
	"database/sql"

	"github.com/martpipe/martpipe/constants"
	"github.com/martpipe/martpipe/logger"
	"github.com/martpipe/martpipe/rdbms/shared"
)

// newNetezzaConnection opens the Netezza database connection specified in d.
// Netezza binds with '$n' markers like Postgres.
func newNetezzaConnection(log logger.Logger, d *shared.DsnConnectionDetails) (shared.Connector, error) {
	n := shared.NetezzaConnectionDetails{Dsn: d.Dsn}
	dsn, err := n.GetNzgoConnectionString()
	if err != nil {
		return nil, err
	}
	conn := &shared.MpConnection{
		Dml:    &shared.DmlGeneratorTxtBatch{BindStyle: shared.BindStyleDollar},
		DbType: constants.ConnectionTypeNetezza,
	}
	if conn.DbSql, err = sql.Open("nzgo", dsn); err != nil {
		return nil, err
	}
	if err = conn.DbSql.Ping(); err != nil {
		log.Panic(err)
	}
	log.Info("Successful database connection to Netezza.")
	return conn, nil
}
