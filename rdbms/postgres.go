package rdbms

import (
	"database/sql"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/martpipe/martpipe/constants"
	"github.com/martpipe/martpipe/logger"
	"github.com/martpipe/martpipe/rdbms/shared"
)

// newPostgresConnection opens the Postgres database connection specified in d.
// The pgx driver accepts our postgres:// DSN format as-is.
func newPostgresConnection(log logger.Logger, d *shared.DsnConnectionDetails) (shared.Connector, error) {
	conn := &shared.MpConnection{
		Dml:    &shared.DmlGeneratorTxtBatch{BindStyle: shared.BindStyleDollar},
		DbType: constants.ConnectionTypePostgres,
	}
	var err error
	if conn.DbSql, err = sql.Open("pgx", d.Dsn); err != nil {
		return nil, err
	}
	err = conn.DbSql.Ping()
	if err != nil {
		log.Panic(err)
	}
	log.Info("Successful database connection to Postgres.")
	return conn, nil
}
