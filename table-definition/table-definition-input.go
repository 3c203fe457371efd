package tabledefinition

import (
	"errors"
	"strings"

	"github.com/martpipe/martpipe/components"
	"github.com/martpipe/martpipe/logger"
	"github.com/martpipe/martpipe/rdbms"
	"github.com/martpipe/martpipe/rdbms/shared"
	"github.com/martpipe/martpipe/stats"
	"github.com/martpipe/martpipe/stream"
)

// TabDefinitionToChan connects to the given database and fetches column names
// and data types for schemaTable (form [OWNER.]TABLE_NAME) onto the returned
// channel. Parameter 'name' labels this component in logs.
func TabDefinitionToChan(
	log logger.Logger,
	name string,
	conn *shared.ConnectionDetails,
	tabDefnConf mapTabDefinitionConfigT,
	schemaTable string,
	stepWatcher *stats.StepWatcher,
	waiter components.ComponentWaiter,
) (chan stream.Record, shared.Connector) {
	schema, table, err := extractSchemaAndTableFromStr(log, schemaTable)
	if err != nil {
		log.Fatal(name, " error - ", err)
	}
	// The dictionary SQL varies by connection type.
	t, err := tabDefnConf.getRecord(conn.Type)
	if err != nil {
		log.Fatal(err)
	}
	var sql string
	var args []interface{}
	if schema != "" {
		sql = t.withSchema
		args = []interface{}{schema, table}
	} else { // a table owned by the current user.
		sql = t.withoutSchema
		args = []interface{}{table}
	}
	db, err := rdbms.OpenDbConnection(log, *conn)
	if err != nil {
		log.Panic(err)
	}
	outputChan, _ := components.NewSqlQueryWithArgs(&components.SqlQueryWithArgsConfig{
		Log:         log,
		Name:        name,
		Db:          db,
		StepWatcher: stepWatcher,
		WaitCounter: waiter,
		Sqltext:     sql,
		Args:        args})
	return outputChan, db
}

// extractSchemaAndTableFromStr splits '[<schema>.]<table name>', returning an
// empty schema when only a table name was supplied.
// TODO: consolidate extractSchemaAndTableFromStr() with schemaTable struct and its methods.
func extractSchemaAndTableFromStr(log logger.Logger, schemaTableStr string) (schema string, table string, err error) {
	log.Debug("Splitting schemaTable by .")
	str := strings.Replace(schemaTableStr, `"`, ``, -1)
	tokens := strings.Split(str, ".") // an empty str yields a slice of len 1.
	log.Debug("schemaTable split into tokens: ", tokens, " len = ", len(tokens))
	switch len(tokens) {
	case 0: // neither a schema.table nor separator supplied (unlikely).
		err = errors.New("unable to get either schema or table name - unable to fetch table definition")
	case 1:
		table = tokens[0]
	case 2:
		schema = tokens[0]
		table = tokens[1]
	default: // more '.' chars than expected.
		err = errors.New("unexpected number of fields found for schema.table - unable to fetch table definition")
	}
	if table == "" && err == nil {
		err = errors.New("unexpected empty table name - unable to fetch table definition")
	}
	log.Debug("schema=", schema, " table=", table)
	return
}
