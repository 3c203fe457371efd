package actions

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/martpipe/martpipe/constants"
	"github.com/martpipe/martpipe/file"
	"github.com/martpipe/martpipe/helper"
	"github.com/martpipe/martpipe/logger"
	"github.com/martpipe/martpipe/rdbms"
	"github.com/martpipe/martpipe/rdbms/shared"
	td "github.com/martpipe/martpipe/table-definition"
)

type TableToTargetDDLConfig struct {
	SrcSchemaTable   rdbms.SchemaTable
	TgtSchemaTable   rdbms.SchemaTable
	SrcConnDetails   *shared.ConnectionDetails
	TgtConnDetails   *shared.ConnectionDetails
	ExecuteDDL       bool
	LogLevel         string
	StackDumpOnPanic bool
}

// SetupLoadMeta copies required properties from genericCfg to actionCfg of type TableToTargetDDLConfig
// ready to execute RunLoadMeta().
func SetupLoadMeta(genericCfg interface{}, actionCfg interface{}) error {
	src := genericCfg.(*LoadConfig)
	tgt := actionCfg.(*TableToTargetDDLConfig)
	var err error
	// Setup real connection details.
	if tgt.SrcConnDetails, err = src.Connections.GetConnectionDetails(src.SourceString.GetConnectionName()); err != nil {
		return err
	}
	if tgt.TgtConnDetails, err = src.Connections.GetConnectionDetails(src.TargetString.GetConnectionName()); err != nil {
		return err
	}
	tgt.LogLevel = src.LogLevel
	tgt.StackDumpOnPanic = src.StackDumpOnPanic
	tgt.SrcSchemaTable.SchemaTable = src.SourceString.GetObject()
	tgt.TgtSchemaTable.SchemaTable = src.TargetString.GetObject()
	tgt.ExecuteDDL = src.ExecuteDDL
	return nil
}

// RunLoadMeta generates the CREATE TABLE statement that a load action would run
// against its target and prints the DDL to STDOUT or executes it against the
// target connection.
func RunLoadMeta(cfg interface{}) error {
	ddlCfg := cfg.(*TableToTargetDDLConfig)
	// Setup logging.
	if ddlCfg.LogLevel == "" {
		ddlCfg.LogLevel = "info"
	}
	log := logger.NewLogger("martpipe", ddlCfg.LogLevel, ddlCfg.StackDumpOnPanic)
	log.Debug("schema.table='", ddlCfg.SrcSchemaTable, "'")
	// Validate the input switches / cfg.
	err := validateLoadMetaConfig(ddlCfg)
	if err != nil {
		return err
	}
	// Fetch the source table definition.
	var tabDefinition td.TableColumns
	if ddlCfg.SrcConnDetails.Type == constants.ConnectionTypeCsv { // if the source is a CSV file...
		connSrc := shared.GetCsvConnectionDetails(ddlCfg.SrcConnDetails)
		csvFileName := filepath.Join(connSrc.Dir, ddlCfg.SrcSchemaTable.SchemaTable)
		fi := file.NewCSVFileInput(log, csvFileName)
		headerFields, ok := fi.MustReadRecord()
		fi.Cleanup()
		if !ok { // if the file has no rows at all...
			return errors.Errorf("no CSV header row found in file %q", csvFileName)
		}
		srcTableName := strings.TrimSuffix(ddlCfg.SrcSchemaTable.SchemaTable, filepath.Ext(ddlCfg.SrcSchemaTable.SchemaTable))
		tabDefinition = td.CsvTableDefinition(srcTableName, headerFields)
	} else { // else the source is a database table...
		tabDefinition, err = td.GetTableDefinition(log, td.GetColumnsFunc(ddlCfg.SrcConnDetails), &ddlCfg.SrcSchemaTable)
		if err != nil {
			return err
		}
	}
	// Convert the table definition to the target dialect.
	mapper := td.MustGetMapper(ddlCfg.SrcConnDetails)
	ddl, err := td.ConvertTableDefinition(log, tabDefinition, ddlCfg.TgtSchemaTable, mapper, ddlCfg.TgtConnDetails.Type)
	if err != nil {
		return err
	}
	// Print and/or execute the DDL.
	printLogFn := getPrintLogFunc(log, !ddlCfg.ExecuteDDL)
	printLogFn(ddl)
	if ddlCfg.ExecuteDDL { // if we should execute the DDL...
		fn := func() error {
			if ddlCfg.TgtConnDetails.Type == constants.ConnectionTypeSnowflake { // if the target is Snowflake...
				return rdbms.SnowflakeDDLExec(log, shared.GetDsnConnectionDetails(ddlCfg.TgtConnDetails), ddl)
			}
			return rdbms.DDLExec(log, *ddlCfg.TgtConnDetails, ddl)
		}
		mustExecFn(log, printLogFn, fn)
	}
	return nil
}

// validateLoadMetaConfig builds an error string showing which fields of cfg must be populated based on struct tags.
// This ignores validation of source database config struct since this may vary by database type.
// We are assuming that connection details are validated on their way into the config store!
func validateLoadMetaConfig(cfg *TableToTargetDDLConfig) (err error) {
	errs := make([]string, 0)
	helper.GetStructErrorTxt4UnsetFields(cfg.SrcSchemaTable, &errs)
	if cfg.ExecuteDDL {
		tgtConn := shared.GetDsnConnectionDetails(cfg.TgtConnDetails)
		helper.GetStructErrorTxt4UnsetFields(tgtConn, &errs)
		helper.GetStructErrorTxt4UnsetFields(cfg.TgtSchemaTable, &errs)
	}
	if len(errs) > 0 {
		err = fmt.Errorf("please supply values for %v", strings.Join(errs, ", "))
	}
	return
}
