package models

import (
	"fmt"

	c "github.com/martpipe/martpipe/constants"
)

func dropTableSql(schemaTable string) string {
	return fmt.Sprintf("drop table if exists %v", schemaTable)
}

func dropViewSql(schemaTable string) string {
	return fmt.Sprintf("drop view if exists %v", schemaTable)
}

// createTableAsSql wraps a model's select statement in CREATE TABLE ... AS.
// ClickHouse requires an engine clause before the select.
func createTableAsSql(dbType, schemaTable, selectSql string) string {
	if dbType == c.ConnectionTypeClickhouse {
		return fmt.Sprintf("create table %v engine = MergeTree() order by tuple() as %v", schemaTable, selectSql)
	}
	return fmt.Sprintf("create table %v as %v", schemaTable, selectSql)
}

func createViewAsSql(schemaTable, selectSql string) string {
	return fmt.Sprintf("create view %v as %v", schemaTable, selectSql)
}

// dateSpineDdl returns the CREATE TABLE statement for a date_spine model.
// Column order matches the field order used by the spine TableInsert step.
func dateSpineDdl(dbType, schemaTable string) string {
	if dbType == c.ConnectionTypeClickhouse {
		return fmt.Sprintf("create table %v (date_key Int64, date Date, year Int64, quarter Int64, month Int64, "+
			"month_name String, day Int64, day_name String, day_of_week Int64) engine = MergeTree() order by date_key", schemaTable)
	}
	// postgres, mysql, snowflake and friends take standard types.
	return fmt.Sprintf("create table %v (date_key bigint, date date, year int, quarter int, month int, "+
		"month_name varchar(10), day int, day_name varchar(10), day_of_week int)", schemaTable)
}
