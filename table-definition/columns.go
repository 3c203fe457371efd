package tabledefinition

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/martpipe/martpipe/constants"
	"github.com/martpipe/martpipe/logger"
	"github.com/martpipe/martpipe/rdbms"
	"github.com/martpipe/martpipe/rdbms/shared"
	"github.com/martpipe/martpipe/stream"
)

type mapTabDefinitionConfigT map[string]tabDefinitionConfigT

// tabDefinitionConfig contains SQL statements able to get table definition data for each connection type
// where the connection type string matches that stored in shared.ConnectionDetails -> Type.
// Lookups try the full type first so "odbc+" transports can carry their own bind placeholder style,
// then fall back to the type with the prefix trimmed.
// Ensure nullable is either YES or NO.
// TODO: add integration tests to assert that all SQL statements fetch OWNER fields since this is required by GetTableDefinition()!
var tabDefinitionConfig = mapTabDefinitionConfigT{
	constants.ConnectionTypeMock: {
		withSchema:    "",
		withoutSchema: "",
		fnGetMapper:   NewMockDataTypeMapper,
	},
	constants.ConnectionTypeCsv: {
		// CSV metadata comes from the file header via CsvTableDefinition so there is no SQL here.
		withSchema:    "",
		withoutSchema: "",
		fnGetMapper:   NewCsvDataTypeMapper,
	},
	constants.ConnectionTypeClickhouse: {
		withSchema: `select database as OWNER, "table" as TABLE_NAME, name as COLUMN_NAME,
								replaceRegexpAll(replaceRegexpAll(type, '^Nullable\\((.*)\\)$', '\\1'), '\\(.*\\)', '') as DATA_TYPE,
								coalesce(character_octet_length, 0) as DATA_LENGTH,
								coalesce(numeric_precision, 0) as DATA_PRECISION, coalesce(numeric_scale, 0) as DATA_SCALE,
								if(startsWith(type, 'Nullable'), 'YES', 'NO') as NULLABLE,
								position as COLUMN_ID
								from system.columns
								where database = ?
								and "table" = ?
								order by position`,
		withoutSchema: `select database as OWNER, "table" as TABLE_NAME, name as COLUMN_NAME,
								replaceRegexpAll(replaceRegexpAll(type, '^Nullable\\((.*)\\)$', '\\1'), '\\(.*\\)', '') as DATA_TYPE,
								coalesce(character_octet_length, 0) as DATA_LENGTH,
								coalesce(numeric_precision, 0) as DATA_PRECISION, coalesce(numeric_scale, 0) as DATA_SCALE,
								if(startsWith(type, 'Nullable'), 'YES', 'NO') as NULLABLE,
								position as COLUMN_ID
								from system.columns
								where database = currentDatabase()
								and "table" = ?
								order by position`,
		fnGetMapper: NewClickhouseDataTypeMapper,
	},
	constants.ConnectionTypeMysql: {
		withSchema: `select TABLE_SCHEMA AS OWNER, TABLE_NAME, COLUMN_NAME, DATA_TYPE, COALESCE(CHARACTER_MAXIMUM_LENGTH, DATETIME_PRECISION) AS DATA_LENGTH,
								NUMERIC_PRECISION AS DATA_PRECISION, NUMERIC_SCALE AS DATA_SCALE, IS_NULLABLE AS NULLABLE,
								ORDINAL_POSITION AS COLUMN_ID
								from information_schema.columns
								where table_schema = ?
								and table_name = ?
								order by table_schema, table_name, column_id`,
		withoutSchema: `select TABLE_SCHEMA AS OWNER, TABLE_NAME, COLUMN_NAME, DATA_TYPE, COALESCE(CHARACTER_MAXIMUM_LENGTH, DATETIME_PRECISION) AS DATA_LENGTH,
								NUMERIC_PRECISION AS DATA_PRECISION, NUMERIC_SCALE AS DATA_SCALE, IS_NULLABLE AS NULLABLE,
								ORDINAL_POSITION AS COLUMN_ID
								from information_schema.columns
								where table_schema = database()
								and table_name = ?
								order by table_name, column_id`,
		fnGetMapper: NewMysqlDataTypeMapper,
	},
	constants.ConnectionTypeNetezza: {
		withSchema: `select TABLE_SCHEMA AS OWNER, TABLE_NAME, COLUMN_NAME,
						substr(data_type, 1,
						  case when instr(data_type,'(') = 0 then length(data_type) else instr(data_type,'(')-1 end
					    ) as DATA_TYPE
						, coalesce(cast(CHARACTER_MAXIMUM_LENGTH as varchar(64000)), DATETIME_PRECISION) AS DATA_LENGTH,
						    NUMERIC_PRECISION AS DATA_PRECISION, NUMERIC_SCALE AS DATA_SCALE, IS_NULLABLE AS NULLABLE,
						    ORDINAL_POSITION AS COLUMN_ID
							from information_schema.columns
							where table_schema = upper($1)
							and table_name = upper($2)
							order by table_schema, table_name, column_id`,
		withoutSchema: `select TABLE_SCHEMA AS OWNER, TABLE_NAME, COLUMN_NAME,
						substr(data_type, 1,
						  case when instr(data_type,'(') = 0 then length(data_type) else instr(data_type,'(')-1 end
						) as DATA_TYPE
						, coalesce(cast(CHARACTER_MAXIMUM_LENGTH as varchar(64000)), DATETIME_PRECISION) AS DATA_LENGTH,
						    NUMERIC_PRECISION AS DATA_PRECISION, NUMERIC_SCALE AS DATA_SCALE, IS_NULLABLE AS NULLABLE,
						    ORDINAL_POSITION AS COLUMN_ID
							from information_schema.columns
							where table_schema = user
							and table_name = upper($1)
							order by table_schema, table_name, column_id`,
		fnGetMapper: NewNetezzaDataTypeMapper,
	},
	// ODBC connections to SQL Server use "?" placeholders where the native driver wants "@p1".
	constants.ConnectionTypeOdbcSqlServer: {
		withSchema: `select TABLE_SCHEMA AS OWNER, TABLE_NAME, COLUMN_NAME, DATA_TYPE, COALESCE(CHARACTER_MAXIMUM_LENGTH, DATETIME_PRECISION) AS DATA_LENGTH,
								NUMERIC_PRECISION AS DATA_PRECISION, NUMERIC_SCALE AS DATA_SCALE, IS_NULLABLE AS NULLABLE,
								ORDINAL_POSITION AS COLUMN_ID
								from information_schema.columns
								where table_schema = ?
								and table_name = ?
								order by table_schema, table_name, column_id`,
		withoutSchema: `select TABLE_SCHEMA AS OWNER, TABLE_NAME, COLUMN_NAME, DATA_TYPE, COALESCE(CHARACTER_MAXIMUM_LENGTH, DATETIME_PRECISION) AS DATA_LENGTH,
								NUMERIC_PRECISION AS DATA_PRECISION, NUMERIC_SCALE AS DATA_SCALE, IS_NULLABLE AS NULLABLE,
								ORDINAL_POSITION AS COLUMN_ID
								from information_schema.columns
								where table_schema = schema_name()
								and table_name = ?
								order by table_name, column_id`,
		fnGetMapper: NewSqlServerDataTypeMapper,
	},
	constants.ConnectionTypePostgres: {
		withSchema: `select table_schema as "OWNER", table_name as "TABLE_NAME", column_name as "COLUMN_NAME", data_type as "DATA_TYPE",
								coalesce(character_maximum_length, datetime_precision) as "DATA_LENGTH",
								numeric_precision as "DATA_PRECISION", numeric_scale as "DATA_SCALE", is_nullable as "NULLABLE",
								ordinal_position as "COLUMN_ID"
								from information_schema.columns
								where table_schema = lower($1)
								and table_name = lower($2)
								order by table_schema, table_name, ordinal_position`,
		withoutSchema: `select table_schema as "OWNER", table_name as "TABLE_NAME", column_name as "COLUMN_NAME", data_type as "DATA_TYPE",
								coalesce(character_maximum_length, datetime_precision) as "DATA_LENGTH",
								numeric_precision as "DATA_PRECISION", numeric_scale as "DATA_SCALE", is_nullable as "NULLABLE",
								ordinal_position as "COLUMN_ID"
								from information_schema.columns
								where table_schema = current_schema()
								and table_name = lower($1)
								order by table_name, ordinal_position`,
		fnGetMapper: NewPostgresDataTypeMapper,
	},
	constants.ConnectionTypeSqlServer: {
		withSchema: `select TABLE_SCHEMA AS OWNER, TABLE_NAME, COLUMN_NAME, DATA_TYPE, COALESCE(CHARACTER_MAXIMUM_LENGTH, DATETIME_PRECISION) AS DATA_LENGTH,
								NUMERIC_PRECISION AS DATA_PRECISION, NUMERIC_SCALE AS DATA_SCALE, IS_NULLABLE AS NULLABLE,
								ORDINAL_POSITION AS COLUMN_ID
								from information_schema.columns
								where table_schema = @p1
								and table_name = @p2
								order by table_schema, table_name, column_id`,
		withoutSchema: `select TABLE_SCHEMA AS OWNER, TABLE_NAME, COLUMN_NAME, DATA_TYPE, COALESCE(CHARACTER_MAXIMUM_LENGTH, DATETIME_PRECISION) AS DATA_LENGTH,
								NUMERIC_PRECISION AS DATA_PRECISION, NUMERIC_SCALE AS DATA_SCALE, IS_NULLABLE AS NULLABLE,
								ORDINAL_POSITION AS COLUMN_ID
								from information_schema.columns
								where table_schema = schema_name()
								and table_name = @p1
								order by table_name, column_id`,
		fnGetMapper: NewSqlServerDataTypeMapper,
	},
}

// Mapper reduces source-native column types to the portable type set used for DDL generation.
type Mapper interface {
	Map(inputDataType string) (output string)
	Sanitise(inputDataType string, dataLen, precision, scale int) (output string)
}

// tabDefinitionConfigT can hold SQL used to fetch a table definition from a database as well as the Mapper that
// converts column definitions from source database type format to the portable set.
type tabDefinitionConfigT struct {
	withSchema    string
	withoutSchema string
	fnGetMapper   func() Mapper
}

// getRecord looks up and returns a value from the map t using the supplied databaseType.
// The full type is tried first, then the prefix "odbc+" is trimmed from the left of databaseType.
func (t mapTabDefinitionConfigT) getRecord(databaseType string) (tabDefinitionConfigT, error) {
	if k, ok := t[databaseType]; ok { // if the full database type has its own entry...
		return k, nil
	}
	// Clean up the database type.
	dt := strings.TrimPrefix(databaseType, "odbc+")
	// Get the record using the clean database type.
	k, ok := t[dt]
	if !ok { // if we do not support the clean database type...
		return tabDefinitionConfigT{}, fmt.Errorf("error fetching source table definition config, unsupported database type: %q", dt)
	}
	return k, nil
}

// getMapper looks up the given databaseType in the map t and returns the result of fnGetMapper().
func (t mapTabDefinitionConfigT) getMapper(databaseType string) (Mapper, error) {
	k, err := t.getRecord(databaseType)
	if err != nil { // if we do not support the database type...
		return nil, fmt.Errorf("unable to find data type mapper for RDBMS type %q", databaseType)
	}
	// Return a new mapper.
	m := k.fnGetMapper()
	return m, nil
}

// TableColumn defines a single table column.
type TableColumn struct {
	ColName       string
	DataType      string
	DataLen       int
	DataPrecision int
	DataScale     int
	Nullable      bool
	ColID         int
}

// TableColumns is a struct representing columns that you would find
// in one row of information_schema.columns or the equivalent catalog view.
type TableColumns struct {
	Owner     string
	TableName string
	Columns   []TableColumn
}

// CsvTableDefinition builds a TableColumns from a CSV header where every field becomes a
// nullable varchar column. Typing is applied downstream by the warehouse model packs.
func CsvTableDefinition(tableName string, headerFields []string) TableColumns {
	t := TableColumns{TableName: tableName}
	for idx, f := range headerFields { // for each header field...
		t.Columns = append(t.Columns, TableColumn{
			ColName:  f,
			DataType: "varchar",
			Nullable: true,
			ColID:    idx + 1,
		})
	}
	return t
}

// intField converts a named dictionary field on row to an int. A nil field
// yields zero rather than an error.
func intField(log logger.Logger, row stream.Record, key string) (int, error) {
	if row.GetData(key) == nil {
		return 0, nil
	}
	i, err := strconv.Atoi(row.GetDataAsStringPreserveTimeZone(log, key))
	if err != nil {
		return 0, fmt.Errorf("unable to convert %v to an integer", key)
	}
	return i, nil
}

// GetTableDefinition connects to the supplied database and fetches the table
// definition for the supplied [<schema>.]<table> combination. Schema is optional; table is not.
func GetTableDefinition(log logger.Logger, fnGetColumns GetColumnsFuncT, srcSchemaTable *rdbms.SchemaTable) (tabCols TableColumns, err error) {
	chanDefinition, con := fnGetColumns(log, srcSchemaTable.SchemaTable)
	firstTime := true
	for row := range chanDefinition { // for each column definition found in the schema.table...
		if firstTime { // the owner and table name repeat per row so take them once.
			firstTime = false
			tabCols.Owner = row.GetDataAsStringPreserveTimeZone(log, "OWNER")
			tabCols.TableName = row.GetDataAsStringPreserveTimeZone(log, "TABLE_NAME")
		}
		colDef := TableColumn{
			ColName:  row.GetDataAsStringPreserveTimeZone(log, "COLUMN_NAME"),
			DataType: row.GetDataAsStringPreserveTimeZone(log, "DATA_TYPE"),
			// Prefer nullable when the dictionary cannot tell us either way.
			Nullable: row.GetData("NULLABLE") == nil ||
				row.GetDataAsStringPreserveTimeZone(log, "NULLABLE") != "NO",
		}
		if colDef.DataLen, err = intField(log, row, "DATA_LENGTH"); err != nil {
			return
		}
		if colDef.DataPrecision, err = intField(log, row, "DATA_PRECISION"); err != nil {
			return
		}
		if colDef.DataScale, err = intField(log, row, "DATA_SCALE"); err != nil {
			return
		}
		if colDef.ColID, err = intField(log, row, "COLUMN_ID"); err != nil {
			return
		}
		tabCols.Columns = append(tabCols.Columns, colDef)
	}
	con.Close() // TODO: refactor TabDefinitionToChan to remove use of chan so we can close connections more cleanly.
	if len(tabCols.Columns) == 0 {
		err = fmt.Errorf("no column metadata found for table %q", srcSchemaTable.SchemaTable)
		return
	}
	return
}

type GetColumnsFuncT func(log logger.Logger, schemaTable string) (chan stream.Record, shared.Connector)

func GetColumnsFunc(conn *shared.ConnectionDetails) GetColumnsFuncT {
	return func(log logger.Logger, schemaTable string) (chan stream.Record, shared.Connector) {
		// Get the table definition onto an output stream of Records.
		return TabDefinitionToChan(
			log,
			"Fetch table columns",
			conn,
			tabDefinitionConfig,
			schemaTable, nil, nil)
	}
}

// GetTableColumns fetches the set of columns that comprise a given [SCHEMA.]TABLE and returns
// them in a []string. Each column is quoted.
func GetTableColumns(log logger.Logger, fnGetColumns GetColumnsFuncT, schemaTable *rdbms.SchemaTable) ([]string, error) {
	r, c := fnGetColumns(log, schemaTable.SchemaTable)
	defer c.Close()
	cols := make([]string, 0)
	for rec := range r {
		cols = append(cols, fmt.Sprintf("%q", rec.GetDataAsStringPreserveTimeZone(log, "COLUMN_NAME")))
	}
	if len(cols) == 0 { // if no columns were found (bad table name)...
		return nil, fmt.Errorf("no columns found for object %q", schemaTable.SchemaTable)
	}
	return cols, nil
}
