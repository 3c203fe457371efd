package rdbms

import (
	"database/sql"

	_ "github.com/ClickHouse/clickhouse-go/v2"
	"github.com/martpipe/martpipe/constants"
	"github.com/martpipe/martpipe/logger"
	"github.com/martpipe/martpipe/rdbms/shared"
)

// newClickhouseConnection opens the ClickHouse database connection specified in d.
// The clickhouse-go driver accepts our clickhouse:// DSN format as-is.
func newClickhouseConnection(log logger.Logger, d *shared.DsnConnectionDetails) (shared.Connector, error) {
	conn := &shared.MpConnection{
		Dml:    &shared.DmlGeneratorTxtBatch{BindStyle: shared.BindStyleQuestion},
		DbType: constants.ConnectionTypeClickhouse,
	}
	var err error
	if conn.DbSql, err = sql.Open("clickhouse", d.Dsn); err != nil {
		return nil, err
	}
	err = conn.DbSql.Ping()
	if err != nil {
		log.Panic(err)
	}
	log.Info("Successful database connection to ClickHouse.")
	return conn, nil
}
