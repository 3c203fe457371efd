package tabledefinition

import (
	"testing"

	"github.com/martpipe/martpipe/logger"
	"github.com/martpipe/martpipe/rdbms"
)

func TestConvertTableDefinition(t *testing.T) {
	log := logger.NewLogger("test-martpipe", "info", false)
	mapper := NewMockDataTypeMapper()
	tabCols := TableColumns{
		Owner:     "tester",
		TableName: "tableName",
		Columns: []TableColumn{
			{ColName: "col1", DataType: "DATETIME", Nullable: true, ColID: 1},
			{ColName: "col2", DataType: "TEXT", DataLen: 20, Nullable: true, ColID: 2},
			{ColName: "col3", DataType: "NUMBER", DataPrecision: 31, DataScale: 7, Nullable: false, ColID: 3},
		},
	}
	tests := []struct {
		targetType string
		expected   string
	}{
		{
			targetType: "clickhouse",
			expected:   "create table if not exists test.table ( col1 Nullable(DateTime), col2 Nullable(String), col3 Decimal(31,7) ) engine = MergeTree() order by tuple()",
		},
		{
			targetType: "snowflake",
			expected:   "create table if not exists test.table ( col1 timestamp_ntz, col2 varchar(20), col3 number(31,7) not null )",
		},
		{
			targetType: "postgres",
			expected:   "create table if not exists test.table ( col1 timestamp, col2 varchar(20), col3 numeric(31,7) not null )",
		},
		{
			targetType: "mysql",
			expected:   "create table if not exists test.table ( col1 datetime, col2 varchar(20), col3 decimal(31,7) not null )",
		},
		{
			targetType: "sqlserver",
			expected:   "if object_id('test.table') is null create table test.table ( col1 datetime2, col2 varchar(20), col3 decimal(31,7) not null )",
		},
		{ // the ODBC transport must resolve to the native dialect.
			targetType: "odbc+sqlserver",
			expected:   "if object_id('test.table') is null create table test.table ( col1 datetime2, col2 varchar(20), col3 decimal(31,7) not null )",
		},
	}
	for _, tt := range tests {
		got, err := ConvertTableDefinition(log, tabCols, rdbms.SchemaTable{SchemaTable: "test.table"}, mapper, tt.targetType)
		if err != nil {
			t.Fatalf("target %v: unexpected error: %v", tt.targetType, err)
		}
		if got != tt.expected {
			t.Fatalf("target %v: expected DDL: %v; got: %v", tt.targetType, tt.expected, got)
		}
	}
}

func TestConvertTableDefinitionDecimalWithoutPrecision(t *testing.T) {
	log := logger.NewLogger("test-martpipe", "info", false)
	mapper := NewMockDataTypeMapper()
	tabCols := TableColumns{
		TableName: "t1",
		Columns: []TableColumn{
			{ColName: "amount", DataType: "NUMBER", Nullable: false, ColID: 1},
		},
	}
	// ClickHouse has no default Decimal precision so the column falls back to Float64.
	got, err := ConvertTableDefinition(log, tabCols, rdbms.SchemaTable{SchemaTable: "t1"}, mapper, "clickhouse")
	if err != nil {
		t.Fatal("unexpected error: ", err)
	}
	expected := "create table if not exists t1 ( amount Float64 ) engine = MergeTree() order by tuple()"
	if got != expected {
		t.Fatalf("expected DDL: %v; got: %v", expected, got)
	}
	// Snowflake keeps its dialect default precision.
	got, err = ConvertTableDefinition(log, tabCols, rdbms.SchemaTable{SchemaTable: "t1"}, mapper, "snowflake")
	if err != nil {
		t.Fatal("unexpected error: ", err)
	}
	expected = "create table if not exists t1 ( amount number not null )"
	if got != expected {
		t.Fatalf("expected DDL: %v; got: %v", expected, got)
	}
}

func TestConvertTableDefinitionVarcharWithoutLength(t *testing.T) {
	log := logger.NewLogger("test-martpipe", "info", false)
	mapper := NewMockDataTypeMapper()
	tabCols := TableColumns{
		TableName: "t1",
		Columns: []TableColumn{
			{ColName: "notes", DataType: "TEXT", Nullable: true, ColID: 1},
		},
	}
	got, err := ConvertTableDefinition(log, tabCols, rdbms.SchemaTable{SchemaTable: "t1"}, mapper, "mysql")
	if err != nil {
		t.Fatal("unexpected error: ", err)
	}
	expected := "create table if not exists t1 ( notes text )"
	if got != expected {
		t.Fatalf("expected DDL: %v; got: %v", expected, got)
	}
	got, err = ConvertTableDefinition(log, tabCols, rdbms.SchemaTable{SchemaTable: "t1"}, mapper, "sqlserver")
	if err != nil {
		t.Fatal("unexpected error: ", err)
	}
	expected = "if object_id('t1') is null create table t1 ( notes varchar(max) )"
	if got != expected {
		t.Fatalf("expected DDL: %v; got: %v", expected, got)
	}
}

func TestConvertTableDefinitionUsesSourceTableName(t *testing.T) {
	log := logger.NewLogger("test-martpipe", "info", false)
	mapper := NewMockDataTypeMapper()
	tabCols := TableColumns{
		TableName: "albums",
		Columns: []TableColumn{
			{ColName: "title", DataType: "TEXT", DataLen: 160, Nullable: true, ColID: 1},
		},
	}
	// An empty target schema.table falls back to the source table name.
	got, err := ConvertTableDefinition(log, tabCols, rdbms.SchemaTable{}, mapper, "postgres")
	if err != nil {
		t.Fatal("unexpected error: ", err)
	}
	expected := "create table if not exists albums ( title varchar(160) )"
	if got != expected {
		t.Fatalf("expected DDL: %v; got: %v", expected, got)
	}
}

func TestConvertTableDefinitionUnsupportedTarget(t *testing.T) {
	log := logger.NewLogger("test-martpipe", "info", false)
	mapper := NewMockDataTypeMapper()
	tabCols := TableColumns{
		TableName: "t1",
		Columns: []TableColumn{
			{ColName: "col1", DataType: "DATETIME", Nullable: true, ColID: 1},
		},
	}
	_, err := ConvertTableDefinition(log, tabCols, rdbms.SchemaTable{SchemaTable: "t1"}, mapper, "netezza")
	if err == nil {
		t.Fatal("expected an error for a target type with no DDL dialect")
	}
}
