package tabledefinition

import (
	"fmt"
	"strings"

	"github.com/martpipe/martpipe/constants"
	"github.com/martpipe/martpipe/logger"
	"github.com/martpipe/martpipe/rdbms"
)

type mapTargetDDLConfigT map[string]targetDialectT

// renderColumnFuncT renders one column field for CREATE TABLE DDL given its portable type,
// the detail produced by the source Mapper e.g. "(10,2)", and the source nullability.
type renderColumnFuncT func(d targetDialectT, colName, portableType, detail string, nullable bool) (string, error)

// renderTableFuncT wraps rendered column fields into a complete CREATE TABLE statement.
type renderTableFuncT func(schemaTable string, fields []string) string

// targetDialectT holds the portable to native type map and DDL shape for one warehouse dialect.
type targetDialectT struct {
	mapTypes     map[string]string // portable data type -> native data type
	varcharNoLen string            // native type used for varchar columns without a usable length
	renderColumn renderColumnFuncT
	renderTable  renderTableFuncT
}

// targetDDLConfig maps warehouse connection types to their DDL renderers.
// The generated statements create the table only when it is missing so they are safe
// to run ahead of every snapshot or append.
var targetDDLConfig = mapTargetDDLConfigT{
	constants.ConnectionTypeClickhouse: {
		mapTypes: map[string]string{
			"integer":   "Int32",
			"bigint":    "Int64",
			"double":    "Float64",
			"decimal":   "Decimal",
			"varchar":   "String",
			"date":      "Date",
			"timestamp": "DateTime",
			"boolean":   "Bool",
		},
		renderColumn: renderClickhouseColumn,
		renderTable:  renderClickhouseTable,
	},
	constants.ConnectionTypeSnowflake: {
		mapTypes: map[string]string{
			"integer":   "integer",
			"bigint":    "bigint",
			"double":    "double",
			"decimal":   "number",
			"varchar":   "varchar",
			"date":      "date",
			"timestamp": "timestamp_ntz",
			"boolean":   "boolean",
		},
		varcharNoLen: "varchar",
		renderColumn: renderAnsiColumn,
		renderTable:  renderAnsiTable,
	},
	constants.ConnectionTypePostgres: {
		mapTypes: map[string]string{
			"integer":   "integer",
			"bigint":    "bigint",
			"double":    "double precision",
			"decimal":   "numeric",
			"varchar":   "varchar",
			"date":      "date",
			"timestamp": "timestamp",
			"boolean":   "boolean",
		},
		varcharNoLen: "varchar",
		renderColumn: renderAnsiColumn,
		renderTable:  renderAnsiTable,
	},
	constants.ConnectionTypeMysql: {
		mapTypes: map[string]string{
			"integer":   "int",
			"bigint":    "bigint",
			"double":    "double",
			"decimal":   "decimal",
			"varchar":   "varchar",
			"date":      "date",
			"timestamp": "datetime",
			"boolean":   "boolean",
		},
		varcharNoLen: "text", // MySQL requires a length on varchar
		renderColumn: renderAnsiColumn,
		renderTable:  renderAnsiTable,
	},
	constants.ConnectionTypeSqlServer: {
		mapTypes: map[string]string{
			"integer":   "int",
			"bigint":    "bigint",
			"double":    "float",
			"decimal":   "decimal",
			"varchar":   "varchar",
			"date":      "date",
			"timestamp": "datetime2",
			"boolean":   "bit",
		},
		varcharNoLen: "varchar(max)",
		renderColumn: renderAnsiColumn,
		renderTable:  renderSqlServerTable,
	},
}

// getDialect looks up and returns a dialect from the map t using the supplied databaseType.
// The prefix "odbc+" is trimmed from the left of databaseType.
func (t mapTargetDDLConfigT) getDialect(databaseType string) (targetDialectT, error) {
	// Clean up the database type.
	dt := strings.TrimPrefix(databaseType, "odbc+")
	// Get the dialect using the clean database type.
	d, ok := t[dt]
	if !ok { // if we do not support the clean database type...
		return targetDialectT{}, fmt.Errorf("unsupported target database type %q for DDL generation", dt)
	}
	return d, nil
}

// renderAnsiColumn covers the dialects that take "<name> <type>[(detail)] [not null]" fields.
func renderAnsiColumn(d targetDialectT, colName, portableType, detail string, nullable bool) (string, error) {
	t, ok := d.mapTypes[portableType]
	if !ok {
		return "", fmt.Errorf("unsupported portable data type %q in target DDL", portableType)
	}
	switch portableType {
	case "varchar":
		if detail == "" { // if the source has no usable length...
			t = d.varcharNoLen
		} else {
			t += detail
		}
	case "decimal":
		t += detail // empty detail leaves the dialect default precision
	}
	if !nullable {
		t += " not null"
	}
	return colName + " " + t, nil
}

// renderClickhouseColumn wraps nullable columns since ClickHouse rejects NULL otherwise.
func renderClickhouseColumn(d targetDialectT, colName, portableType, detail string, nullable bool) (string, error) {
	t, ok := d.mapTypes[portableType]
	if !ok {
		return "", fmt.Errorf("unsupported portable data type %q in target DDL", portableType)
	}
	if portableType == "decimal" {
		if detail == "" { // if the source has no precision or scale...
			t = "Float64"
		} else {
			t += detail
		}
	}
	if nullable {
		t = "Nullable(" + t + ")"
	}
	return colName + " " + t, nil
}

func renderAnsiTable(schemaTable string, fields []string) string {
	return fmt.Sprintf("create table if not exists %v ( %v )", schemaTable, strings.Join(fields, ", "))
}

func renderClickhouseTable(schemaTable string, fields []string) string {
	return fmt.Sprintf("create table if not exists %v ( %v ) engine = MergeTree() order by tuple()", schemaTable, strings.Join(fields, ", "))
}

// renderSqlServerTable guards with object_id since SQL Server has no create-if-not-exists.
func renderSqlServerTable(schemaTable string, fields []string) string {
	return fmt.Sprintf("if object_id('%v') is null create table %v ( %v )", schemaTable, schemaTable, strings.Join(fields, ", "))
}

// ConvertTableDefinition converts each rec in TableColumns to its equivalent in the target
// database dialect and returns a string that is the CREATE TABLE statement for tgtSchemaTable.
// The mapper must belong to the source database that produced tabCols.
func ConvertTableDefinition(log logger.Logger, tabCols TableColumns, tgtSchemaTable rdbms.SchemaTable, mapper Mapper, targetType string) (tableDefinition string, err error) {
	d, err := targetDDLConfig.getDialect(targetType)
	if err != nil {
		return "", err
	}
	// Validate input.
	if tgtSchemaTable.SchemaTable == "" {
		tgtSchemaTable.SchemaTable = tabCols.TableName
		log.Info("Using table name \"", tabCols.TableName, "\" as the target")
	}
	// Remap column types.
	var fields []string
	var field string
	for _, col := range tabCols.Columns { // for each column...
		// Map the data type to its portable equivalent.
		portableType := mapper.Map(col.DataType)
		// Build up the field's DDL detail.
		detail := mapper.Sanitise(col.DataType, col.DataLen, col.DataPrecision, col.DataScale)
		field, err = d.renderColumn(d, col.ColName, portableType, detail, col.Nullable)
		if err != nil {
			return "", err
		}
		log.Debug("column = ", col.ColName,
			"; type = ", col.DataType,
			"; len = ", col.DataLen,
			"; precision = ", col.DataPrecision,
			"; scale = ", col.DataScale,
			"; nullable = ", col.Nullable,
			"; target field = ", field,
		)
		// Save this field definition.
		fields = append(fields, field)
	}
	var ct string
	if len(fields) > 0 { // if there are columns to output...
		// Generate DDL to return.
		ct = d.renderTable(tgtSchemaTable.SchemaTable, fields)
		log.Debug("Generated target SQL: ", ct)
	} else {
		err = fmt.Errorf("no column metadata found to build CREATE TABLE DDL")
	}
	return ct, err
}
