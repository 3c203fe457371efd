package tabledefinition

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/martpipe/martpipe/rdbms/shared"
)

// abort panics so callers that launch transforms can recover and fail the
// transform instead of killing the process.
func abort(err error) {
	panic(fmt.Sprintf("Error: %v", err))
}

// MustGetMapper gets the Mapper from tabDefinitionConfig using the supplied conn.Type as the key.
// Unregistered connection types panic.
func MustGetMapper(conn *shared.ConnectionDetails) Mapper {
	m, err := tabDefinitionConfig.getMapper(conn.Type) // use sanitised connection type
	if err != nil {                                    // if the connection type was not supported...
		abort(err)
	}
	return m
}

// NewMockDataTypeMapper returns an instance of dataTypeMap{}
func NewMockDataTypeMapper() Mapper {
	return newDataTypeMapper(MockDataTypeMapping)
}

// NewSqlServerDataTypeMapper returns an instance of dataTypeMap{}
// which implements interface Mapper.
func NewSqlServerDataTypeMapper() Mapper {
	return newDataTypeMapper(SqlServerDataTypeMapping)
}

// NewNetezzaDataTypeMapper returns an instance of dataTypeMap{}
// which implements interface Mapper.
func NewNetezzaDataTypeMapper() Mapper {
	return newDataTypeMapper(NetezzaDataTypeMapping)
}

// NewPostgresDataTypeMapper returns an instance of dataTypeMap{}
// which implements interface Mapper.
func NewPostgresDataTypeMapper() Mapper {
	return newDataTypeMapper(PostgresDataTypeMapping)
}

// NewMysqlDataTypeMapper returns an instance of dataTypeMap{}
// which implements interface Mapper.
func NewMysqlDataTypeMapper() Mapper {
	return newDataTypeMapper(MysqlDataTypeMapping)
}

// NewClickhouseDataTypeMapper returns an instance of dataTypeMap{}
// which implements interface Mapper.
// ClickHouse type names are expected with Nullable() wrappers and type parameters
// already stripped; the introspection SQL in tabDefinitionConfig takes care of that.
func NewClickhouseDataTypeMapper() Mapper {
	return newDataTypeMapper(ClickhouseDataTypeMapping)
}

// NewCsvDataTypeMapper returns an instance of dataTypeMap{}
// which implements interface Mapper.
// CSV columns carry no type metadata so CsvTableDefinition labels every field varchar.
func NewCsvDataTypeMapper() Mapper {
	return newDataTypeMapper(CsvDataTypeMapping)
}

// sanitiserFuncT converts data length, precision and scale into a string ready for use in CREATE TABLE DDL.
type sanitiserFuncT func(dataLen, dataPrecision, dataScale int) string

// dataTypeMap implements the Map and Sanitise interfaces.
type dataTypeMap struct {
	mapTypes      map[string]string
	mapSanitisers map[string]sanitiserFuncT
}

// Map will convert inputDataType to lower case and use it to return the output from map mapTypes.
func (o dataTypeMap) Map(inputDataType string) (output string) {
	v, ok := o.mapTypes[strings.ToLower(inputDataType)]
	if !ok {
		abort(fmt.Errorf("unsupported data type %q during conversion", inputDataType))
	}
	return v
}

func (o dataTypeMap) Sanitise(inputDataType string, dataLen, dataPrecision, dataScale int) (output string) {
	fn, ok := o.mapSanitisers[strings.ToLower(inputDataType)]
	if !ok {
		abort(fmt.Errorf("unsupported data type %q during conversion of DDL detail", inputDataType))
	}
	return fn(dataLen, dataPrecision, dataScale)
}

// dataTypeLink maps one source-native data type to its portable equivalent.
// The portable set is deliberately small: integer, bigint, double, decimal, varchar,
// date, timestamp and boolean. Length, precision and scale survive via SanitiserFunc
// for the portable types that carry a detail (varchar and decimal).
type dataTypeLink struct {
	SourceDataType   string
	PortableDataType string
	SanitiserFunc    sanitiserFuncT
}

func newDataTypeMapper(types []dataTypeLink) dataTypeMap {
	dtm := dataTypeMap{}
	dtm.mapTypes = make(map[string]string)
	dtm.mapSanitisers = make(map[string]sanitiserFuncT)
	for _, row := range types { // for each data type link...
		// Save the src vs portable mapping.
		dtm.mapTypes[row.SourceDataType] = row.PortableDataType
		dtm.mapSanitisers[row.SourceDataType] = row.SanitiserFunc
	}
	return dtm
}

var MockDataTypeMapping = []dataTypeLink{
	{SourceDataType: "datetime", PortableDataType: "timestamp", SanitiserFunc: sanitiseBlank},
	{SourceDataType: "number", PortableDataType: "decimal", SanitiserFunc: sanitisePrecisionScale},
	{SourceDataType: "text", PortableDataType: "varchar", SanitiserFunc: sanitiseDataLen},
}

// SqlServerDataTypeMapping contains a mapping of SQL Server data types to portable types.
var SqlServerDataTypeMapping = []dataTypeLink{
	// Notes that timestamp is an old synonym for rowversion and will be deprecated.
	{SourceDataType: "bigint", PortableDataType: "bigint", SanitiserFunc: sanitiseBlank}, // precision,scale = 19,0 signed, or 20,0 for unsigned
	{SourceDataType: "bit", PortableDataType: "boolean", SanitiserFunc: sanitiseBlank},
	{SourceDataType: "char", PortableDataType: "varchar", SanitiserFunc: sanitiseDataLen},
	{SourceDataType: "date", PortableDataType: "date", SanitiserFunc: sanitiseBlank},
	{SourceDataType: "datetime", PortableDataType: "timestamp", SanitiserFunc: sanitiseBlank},
	{SourceDataType: "datetime2", PortableDataType: "timestamp", SanitiserFunc: sanitiseBlank},
	{SourceDataType: "datetimeoffset", PortableDataType: "timestamp", SanitiserFunc: sanitiseBlank},
	{SourceDataType: "decimal", PortableDataType: "decimal", SanitiserFunc: sanitisePrecisionScale},
	{SourceDataType: "double precision", PortableDataType: "double", SanitiserFunc: sanitiseBlank},
	{SourceDataType: "float", PortableDataType: "double", SanitiserFunc: sanitiseBlank},
	{SourceDataType: "int", PortableDataType: "integer", SanitiserFunc: sanitiseBlank},
	{SourceDataType: "integer", PortableDataType: "integer", SanitiserFunc: sanitiseBlank},
	{SourceDataType: "money", PortableDataType: "decimal", SanitiserFunc: sanitisePrecisionScale},
	{SourceDataType: "numeric", PortableDataType: "decimal", SanitiserFunc: sanitisePrecisionScale},
	{SourceDataType: "ntext", PortableDataType: "varchar", SanitiserFunc: sanitiseBlank},
	{SourceDataType: "nchar", PortableDataType: "varchar", SanitiserFunc: sanitiseDataLen},
	{SourceDataType: "nvarchar", PortableDataType: "varchar", SanitiserFunc: sanitiseDataLen},
	{SourceDataType: "real", PortableDataType: "double", SanitiserFunc: sanitiseBlank},
	{SourceDataType: "smallint", PortableDataType: "integer", SanitiserFunc: sanitiseBlank},
	{SourceDataType: "smalldatetime", PortableDataType: "timestamp", SanitiserFunc: sanitiseBlank},
	{SourceDataType: "smallmoney", PortableDataType: "decimal", SanitiserFunc: sanitisePrecisionScale},
	{SourceDataType: "time", PortableDataType: "varchar", SanitiserFunc: sanitiseBlank},
	{SourceDataType: "text", PortableDataType: "varchar", SanitiserFunc: sanitiseBlank},
	{SourceDataType: "tinyint", PortableDataType: "integer", SanitiserFunc: sanitiseBlank},
	{SourceDataType: "utcdatetime", PortableDataType: "timestamp", SanitiserFunc: sanitiseBlank}, // seems like an ODBC type only: https://docs.microsoft.com/en-us/sql/odbc/reference/appendixes/sql-data-types?view=sql-server-ver15
	{SourceDataType: "utctime", PortableDataType: "varchar", SanitiserFunc: sanitiseBlank},       // seems like an ODBC type only
	{SourceDataType: "uniqueidentifier", PortableDataType: "varchar", SanitiserFunc: sanitiseBlank},
	{SourceDataType: "varchar", PortableDataType: "varchar", SanitiserFunc: sanitiseDataLen},
	{SourceDataType: "varwchar", PortableDataType: "varchar", SanitiserFunc: sanitiseDataLen},
	{SourceDataType: "wchar", PortableDataType: "varchar", SanitiserFunc: sanitiseDataLen}, // seems like an ODBC type only
	{SourceDataType: "xml", PortableDataType: "varchar", SanitiserFunc: sanitiseBlank},
}

var NetezzaDataTypeMapping = []dataTypeLink{
	{SourceDataType: "bigint", PortableDataType: "bigint", SanitiserFunc: sanitiseBlank},
	{SourceDataType: "boolean", PortableDataType: "boolean", SanitiserFunc: sanitiseBlank},
	{SourceDataType: "bpchar", PortableDataType: "varchar", SanitiserFunc: sanitiseDataLen},
	{SourceDataType: "byteint", PortableDataType: "integer", SanitiserFunc: sanitiseBlank},
	{SourceDataType: "char", PortableDataType: "varchar", SanitiserFunc: sanitiseDataLen},
	{SourceDataType: "character", PortableDataType: "varchar", SanitiserFunc: sanitiseDataLen},
	{SourceDataType: "character varying", PortableDataType: "varchar", SanitiserFunc: sanitiseDataLen},
	{SourceDataType: "date", PortableDataType: "date", SanitiserFunc: sanitiseBlank},
	{SourceDataType: "decimal", PortableDataType: "decimal", SanitiserFunc: sanitisePrecisionScale},
	{SourceDataType: "double", PortableDataType: "double", SanitiserFunc: sanitiseBlank},
	{SourceDataType: "double precision", PortableDataType: "double", SanitiserFunc: sanitiseBlank},
	{SourceDataType: "float", PortableDataType: "double", SanitiserFunc: sanitiseBlank},
	{SourceDataType: "integer", PortableDataType: "integer", SanitiserFunc: sanitiseBlank},
	{SourceDataType: "interval", PortableDataType: "varchar", SanitiserFunc: sanitiseBlank},
	{SourceDataType: "interval day", PortableDataType: "varchar", SanitiserFunc: sanitiseBlank},
	{SourceDataType: "interval day to hour", PortableDataType: "varchar", SanitiserFunc: sanitiseBlank},
	{SourceDataType: "interval day to minute", PortableDataType: "varchar", SanitiserFunc: sanitiseBlank},
	{SourceDataType: "interval day to second", PortableDataType: "varchar", SanitiserFunc: sanitiseBlank},
	{SourceDataType: "interval hour", PortableDataType: "varchar", SanitiserFunc: sanitiseBlank},
	{SourceDataType: "interval hour to minute", PortableDataType: "varchar", SanitiserFunc: sanitiseBlank},
	{SourceDataType: "interval hour to second", PortableDataType: "varchar", SanitiserFunc: sanitiseBlank},
	{SourceDataType: "interval minute", PortableDataType: "varchar", SanitiserFunc: sanitiseBlank},
	{SourceDataType: "interval minute to second", PortableDataType: "varchar", SanitiserFunc: sanitiseBlank},
	{SourceDataType: "interval month", PortableDataType: "varchar", SanitiserFunc: sanitiseBlank},
	{SourceDataType: "interval second", PortableDataType: "varchar", SanitiserFunc: sanitiseBlank},
	{SourceDataType: "interval year", PortableDataType: "varchar", SanitiserFunc: sanitiseBlank},
	{SourceDataType: "interval year to month", PortableDataType: "varchar", SanitiserFunc: sanitiseBlank},
	{SourceDataType: "json", PortableDataType: "varchar", SanitiserFunc: sanitiseBlank},
	{SourceDataType: "jsonb", PortableDataType: "varchar", SanitiserFunc: sanitiseBlank},
	{SourceDataType: "jsonpath", PortableDataType: "varchar", SanitiserFunc: sanitiseBlank},
	{SourceDataType: "nchar", PortableDataType: "varchar", SanitiserFunc: sanitiseDataLen},
	{SourceDataType: "national character", PortableDataType: "varchar", SanitiserFunc: sanitiseDataLen},
	{SourceDataType: "national character varying", PortableDataType: "varchar", SanitiserFunc: sanitiseDataLen},
	{SourceDataType: "numeric", PortableDataType: "decimal", SanitiserFunc: sanitisePrecisionScale},
	{SourceDataType: "nvarchar", PortableDataType: "varchar", SanitiserFunc: sanitiseDataLen},
	{SourceDataType: "real", PortableDataType: "double", SanitiserFunc: sanitiseBlank},
	{SourceDataType: "smallint", PortableDataType: "integer", SanitiserFunc: sanitiseBlank},
	{SourceDataType: "st_geometry", PortableDataType: "varchar", SanitiserFunc: sanitiseBlank},
	{SourceDataType: "time", PortableDataType: "varchar", SanitiserFunc: sanitiseBlank},
	{SourceDataType: "timestamp", PortableDataType: "timestamp", SanitiserFunc: sanitiseBlank},
	{SourceDataType: "timetz", PortableDataType: "varchar", SanitiserFunc: sanitiseBlank},
	{SourceDataType: "time with time zone", PortableDataType: "varchar", SanitiserFunc: sanitiseBlank},
	{SourceDataType: "varchar", PortableDataType: "varchar", SanitiserFunc: sanitiseDataLen},
}

// PostgresDataTypeMapping contains a mapping of Postgres data types to portable types.
// Postgres spells out type names in information_schema e.g. "timestamp without time zone".
var PostgresDataTypeMapping = []dataTypeLink{
	{SourceDataType: "bigint", PortableDataType: "bigint", SanitiserFunc: sanitiseBlank},
	{SourceDataType: "boolean", PortableDataType: "boolean", SanitiserFunc: sanitiseBlank},
	{SourceDataType: "character", PortableDataType: "varchar", SanitiserFunc: sanitiseDataLen},
	{SourceDataType: "character varying", PortableDataType: "varchar", SanitiserFunc: sanitiseDataLen},
	{SourceDataType: "date", PortableDataType: "date", SanitiserFunc: sanitiseBlank},
	{SourceDataType: "double precision", PortableDataType: "double", SanitiserFunc: sanitiseBlank},
	{SourceDataType: "integer", PortableDataType: "integer", SanitiserFunc: sanitiseBlank},
	{SourceDataType: "json", PortableDataType: "varchar", SanitiserFunc: sanitiseBlank},
	{SourceDataType: "jsonb", PortableDataType: "varchar", SanitiserFunc: sanitiseBlank},
	{SourceDataType: "name", PortableDataType: "varchar", SanitiserFunc: sanitiseBlank},
	{SourceDataType: "numeric", PortableDataType: "decimal", SanitiserFunc: sanitisePrecisionScale},
	{SourceDataType: "oid", PortableDataType: "bigint", SanitiserFunc: sanitiseBlank},
	{SourceDataType: "real", PortableDataType: "double", SanitiserFunc: sanitiseBlank},
	{SourceDataType: "smallint", PortableDataType: "integer", SanitiserFunc: sanitiseBlank},
	{SourceDataType: "text", PortableDataType: "varchar", SanitiserFunc: sanitiseBlank},
	{SourceDataType: "time without time zone", PortableDataType: "varchar", SanitiserFunc: sanitiseBlank},
	{SourceDataType: "time with time zone", PortableDataType: "varchar", SanitiserFunc: sanitiseBlank},
	{SourceDataType: "timestamp without time zone", PortableDataType: "timestamp", SanitiserFunc: sanitiseBlank},
	{SourceDataType: "timestamp with time zone", PortableDataType: "timestamp", SanitiserFunc: sanitiseBlank},
	{SourceDataType: "uuid", PortableDataType: "varchar", SanitiserFunc: sanitiseBlank},
}

// MysqlDataTypeMapping contains a mapping of MySQL data types to portable types.
var MysqlDataTypeMapping = []dataTypeLink{
	{SourceDataType: "bigint", PortableDataType: "bigint", SanitiserFunc: sanitiseBlank},
	{SourceDataType: "bit", PortableDataType: "boolean", SanitiserFunc: sanitiseBlank},
	{SourceDataType: "char", PortableDataType: "varchar", SanitiserFunc: sanitiseDataLen},
	{SourceDataType: "date", PortableDataType: "date", SanitiserFunc: sanitiseBlank},
	{SourceDataType: "datetime", PortableDataType: "timestamp", SanitiserFunc: sanitiseBlank},
	{SourceDataType: "decimal", PortableDataType: "decimal", SanitiserFunc: sanitisePrecisionScale},
	{SourceDataType: "double", PortableDataType: "double", SanitiserFunc: sanitiseBlank},
	{SourceDataType: "enum", PortableDataType: "varchar", SanitiserFunc: sanitiseDataLen},
	{SourceDataType: "float", PortableDataType: "double", SanitiserFunc: sanitiseBlank},
	{SourceDataType: "int", PortableDataType: "integer", SanitiserFunc: sanitiseBlank},
	{SourceDataType: "integer", PortableDataType: "integer", SanitiserFunc: sanitiseBlank},
	{SourceDataType: "json", PortableDataType: "varchar", SanitiserFunc: sanitiseBlank},
	{SourceDataType: "longtext", PortableDataType: "varchar", SanitiserFunc: sanitiseBlank},
	{SourceDataType: "mediumint", PortableDataType: "integer", SanitiserFunc: sanitiseBlank},
	{SourceDataType: "mediumtext", PortableDataType: "varchar", SanitiserFunc: sanitiseBlank},
	{SourceDataType: "numeric", PortableDataType: "decimal", SanitiserFunc: sanitisePrecisionScale},
	{SourceDataType: "set", PortableDataType: "varchar", SanitiserFunc: sanitiseDataLen},
	{SourceDataType: "smallint", PortableDataType: "integer", SanitiserFunc: sanitiseBlank},
	{SourceDataType: "text", PortableDataType: "varchar", SanitiserFunc: sanitiseBlank},
	{SourceDataType: "time", PortableDataType: "varchar", SanitiserFunc: sanitiseBlank},
	{SourceDataType: "timestamp", PortableDataType: "timestamp", SanitiserFunc: sanitiseBlank},
	{SourceDataType: "tinyint", PortableDataType: "integer", SanitiserFunc: sanitiseBlank}, // tinyint(1) is conventionally boolean but information_schema cannot tell
	{SourceDataType: "tinytext", PortableDataType: "varchar", SanitiserFunc: sanitiseBlank},
	{SourceDataType: "varchar", PortableDataType: "varchar", SanitiserFunc: sanitiseDataLen},
	{SourceDataType: "year", PortableDataType: "integer", SanitiserFunc: sanitiseBlank},
}

// ClickhouseDataTypeMapping contains a mapping of ClickHouse base data types to portable types.
var ClickhouseDataTypeMapping = []dataTypeLink{
	{SourceDataType: "bool", PortableDataType: "boolean", SanitiserFunc: sanitiseBlank},
	{SourceDataType: "date", PortableDataType: "date", SanitiserFunc: sanitiseBlank},
	{SourceDataType: "date32", PortableDataType: "date", SanitiserFunc: sanitiseBlank},
	{SourceDataType: "datetime", PortableDataType: "timestamp", SanitiserFunc: sanitiseBlank},
	{SourceDataType: "datetime64", PortableDataType: "timestamp", SanitiserFunc: sanitiseBlank},
	{SourceDataType: "decimal", PortableDataType: "decimal", SanitiserFunc: sanitisePrecisionScale},
	{SourceDataType: "enum8", PortableDataType: "varchar", SanitiserFunc: sanitiseBlank},
	{SourceDataType: "enum16", PortableDataType: "varchar", SanitiserFunc: sanitiseBlank},
	{SourceDataType: "fixedstring", PortableDataType: "varchar", SanitiserFunc: sanitiseBlank},
	{SourceDataType: "float32", PortableDataType: "double", SanitiserFunc: sanitiseBlank},
	{SourceDataType: "float64", PortableDataType: "double", SanitiserFunc: sanitiseBlank},
	{SourceDataType: "int8", PortableDataType: "integer", SanitiserFunc: sanitiseBlank},
	{SourceDataType: "int16", PortableDataType: "integer", SanitiserFunc: sanitiseBlank},
	{SourceDataType: "int32", PortableDataType: "integer", SanitiserFunc: sanitiseBlank},
	{SourceDataType: "int64", PortableDataType: "bigint", SanitiserFunc: sanitiseBlank},
	{SourceDataType: "string", PortableDataType: "varchar", SanitiserFunc: sanitiseBlank},
	{SourceDataType: "uint8", PortableDataType: "integer", SanitiserFunc: sanitiseBlank},
	{SourceDataType: "uint16", PortableDataType: "integer", SanitiserFunc: sanitiseBlank},
	{SourceDataType: "uint32", PortableDataType: "bigint", SanitiserFunc: sanitiseBlank},
	{SourceDataType: "uint64", PortableDataType: "bigint", SanitiserFunc: sanitiseBlank},
	{SourceDataType: "uuid", PortableDataType: "varchar", SanitiserFunc: sanitiseBlank},
}

var CsvDataTypeMapping = []dataTypeLink{
	{SourceDataType: "varchar", PortableDataType: "varchar", SanitiserFunc: sanitiseDataLen},
}

// SANITISER FUNCTIONS.

func sanitiseBlank(dataLen, dataPrecision, dataScale int) string {
	return ""
}

func sanitiseDataLen(dataLen, dataPrecision, dataScale int) string {
	if dataLen > 0 { // if dataLen is valid and not negative (see SQLServer for examples of -ve values)
		return "(" + strconv.Itoa(dataLen) + ")"
	} else {
		return ""
	}
}

func sanitisePrecisionScale(dataLen, dataPrecision, dataScale int) string {
	return getDataPrecisionStr(dataPrecision) + getDataScaleStr(dataPrecision, dataScale)
}

// HELPER FUNCTIONS.

// getDataPrecisionStr returns "(<N>" if precision N exists or "" if it doesn't.
// You can't have a precision without a scale.
func getDataPrecisionStr(dataPrecision int) string {
	// The nil value for a golang string is 0 so we can't test for it missing.
	if dataPrecision != 0 { // if we have a useful Precision then we'll return it...
		return "(" + strconv.Itoa(dataPrecision)
	} else {
		return ""
	}
}

// getDataScaleStr return a suffix string for dataScale N: ",<N>)" if N exists or ")" if it doesn't.
// If there is a Precision then Scale defaults to 0.
func getDataScaleStr(dataPrecision int, dataScale int) string {
	if dataPrecision != 0 { // if we have a scale and useful precision...
		return "," + strconv.Itoa(dataScale) + ")"
	} else {
		return ""
	}
}
