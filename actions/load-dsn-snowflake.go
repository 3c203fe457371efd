package actions

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/martpipe/martpipe/constants"
	"github.com/martpipe/martpipe/helper"
	"github.com/martpipe/martpipe/logger"
	"github.com/martpipe/martpipe/rdbms"
	"github.com/martpipe/martpipe/rdbms/shared"
	tabledefinition "github.com/martpipe/martpipe/table-definition"
	"github.com/martpipe/martpipe/transform"
)

type DsnSnowflakeLoadConfig struct {
	SourceConnection          string `errorTxt:"source <connection>" mandatory:"yes"`
	TargetConnection          string `errorTxt:"target <connection>" mandatory:"yes"`
	SrcSchemaTable            rdbms.SchemaTable
	SrcConnDetails            *shared.ConnectionDetails
	TgtConnDetails            *shared.ConnectionDetails
	SnowTableName             string `errorTxt:"Snowflake [schema.]table" mandatory:"yes"`
	SnowStageName             string `errorTxt:"Snowflake stage" mandatory:"yes"`
	BucketRegion              string `errorTxt:"s3 region" mandatory:"yes"`
	BucketName                string `errorTxt:"s3 bucket" mandatory:"yes"`
	BucketPrefix              string `errorTxt:"s3 prefix"`
	CsvFileNamePrefix         string `errorTxt:"csv file name prefix"`
	CsvHeaderFields           string `errorTxt:"csv header fields"`
	CsvMaxFileRows            string `errorTxt:"csv max file rows"`
	CsvMaxFileBytes           string `errorTxt:"csv max file bytes"`
	AppendTarget              bool
	RepeatInterval            int `errorTxt:"repeat interval"`
	ExportConfigType          string
	ExportIncludeConnections  bool
	LogLevel                  string `errorTxt:"log level" mandatory:"yes"`
	StackDumpOnPanic          bool
	StatsDumpFrequencySeconds int
}

// SetupLoadDsnSnowflake copies values from genericCfg to actionCfg ready for a DSN to Snowflake load action.
func SetupLoadDsnSnowflake(genericCfg interface{}, actionCfg interface{}) error {
	src := genericCfg.(*LoadConfig)
	tgt := actionCfg.(*DsnSnowflakeLoadConfig)
	var err error
	// Setup real connection details.
	if tgt.SrcConnDetails, err = src.Connections.GetConnectionDetails(src.SourceString.GetConnectionName()); err != nil {
		return err
	}
	if tgt.TgtConnDetails, err = src.Connections.GetConnectionDetails(src.TargetString.GetConnectionName()); err != nil {
		return err
	}
	// General
	tgt.StackDumpOnPanic = src.StackDumpOnPanic
	tgt.StatsDumpFrequencySeconds = src.StatsDumpFrequencySeconds
	tgt.LogLevel = src.LogLevel
	tgt.ExportConfigType = src.ExportConfigType
	tgt.ExportIncludeConnections = src.ExportIncludeConnections
	tgt.RepeatInterval = src.RepeatInterval
	// Source
	tgt.SourceConnection = src.SourceString.GetConnectionName()
	tgt.SrcSchemaTable.SchemaTable = src.SourceString.GetObject()
	// Target
	tgt.TargetConnection = src.TargetString.GetConnectionName()
	tgt.SnowTableName = src.TargetString.GetObject()
	tgt.SnowStageName = src.SnowStageName
	tgt.AppendTarget = src.AppendTarget
	// CSV
	tgt.CsvFileNamePrefix = src.CsvFileNamePrefix
	if tgt.CsvFileNamePrefix == "" { // if the CSV file name is not supplied...
		if tmp := src.TargetString.GetObject(); tmp != "" { // if there is a target object name...
			// Use that for the CSV file name prefix.
			tgt.CsvFileNamePrefix = tmp
		} else { // else default to the source object name...
			tgt.CsvFileNamePrefix = src.SourceString.GetObject() // use table name as the default.
		}
	}
	tgt.CsvHeaderFields = src.CsvHeaderFields
	tgt.CsvMaxFileBytes = src.CsvMaxFileBytes
	tgt.CsvMaxFileRows = src.CsvMaxFileRows
	// S3
	tgt.BucketName = src.BucketName
	tgt.BucketPrefix = src.BucketPrefix
	tgt.BucketRegion = src.BucketRegion
	return nil
}

// RunDsnSnowflakeLoad copies a table from a DSN connection to Snowflake by staging
// gzip CSV files in S3 and running COPY INTO via the supplied stage.
// The target table is created from the source metadata when it is missing.
func RunDsnSnowflakeLoad(cfg interface{}) error {
	cfgLoad := cfg.(*DsnSnowflakeLoadConfig)
	// Setup logging.
	if cfgLoad.ExportConfigType != "" { // if the user wants the transform on STDOUT...
		cfgLoad.LogLevel = "error"
	}
	log := logger.NewLogger("martpipe", cfgLoad.LogLevel, cfgLoad.StackDumpOnPanic)
	// Validate switches.
	if err := helper.ValidateStructIsPopulated(cfgLoad); err != nil {
		return err
	}
	// Get column list for input SQL and optionally the CSV header fields.
	tableCols, err := tabledefinition.GetTableColumns(log, tabledefinition.GetColumnsFunc(cfgLoad.SrcConnDetails), &cfgLoad.SrcSchemaTable)
	if err != nil {
		return err
	}
	if cfgLoad.SrcConnDetails.Type == constants.ConnectionTypeMysql { // if the source rejects ANSI double-quoted identifiers...
		for i := range tableCols {
			tableCols[i] = strings.ReplaceAll(tableCols[i], `"`, "")
		}
	}
	colList := helper.EscapeQuotesInString(helper.StringsToCsv(tableCols))
	// Generate DDL to create the target table if it is missing.
	tabDefinition, err := tabledefinition.GetTableDefinition(log, tabledefinition.GetColumnsFunc(cfgLoad.SrcConnDetails), &cfgLoad.SrcSchemaTable)
	if err != nil {
		return err
	}
	mapper := tabledefinition.MustGetMapper(cfgLoad.SrcConnDetails)
	ddl, err := tabledefinition.ConvertTableDefinition(log, tabDefinition, rdbms.SchemaTable{SchemaTable: cfgLoad.SnowTableName}, mapper, cfgLoad.TgtConnDetails.Type)
	if err != nil {
		return err
	}
	// Get specific connections.
	connSrc := shared.GetDsnConnectionDetails(cfgLoad.SrcConnDetails)
	connTgt := shared.GetDsnConnectionDetails(cfgLoad.TgtConnDetails)
	// Set up the transform.
	m := make(map[string]string)
	m["${srcLogicalName}"] = cfgLoad.SourceConnection
	m["${srcType}"] = cfgLoad.SrcConnDetails.Type
	m["${srcDsn}"] = connSrc.Dsn
	m["${sourceTable}"] = cfgLoad.SrcSchemaTable.SchemaTable
	m["${columnListCsv}"] = colList
	m["${tgtLogicalName}"] = cfgLoad.TargetConnection
	m["${tgtDsn}"] = connTgt.Dsn
	m["${snowflakeStage}"] = cfgLoad.SnowStageName
	m["${snowflakeTable}"] = cfgLoad.SnowTableName
	m["${createTargetDdl}"] = helper.EscapeQuotesInString(ddl)
	if cfgLoad.AppendTarget { // if the user wants to keep the target contents...
		m["${deleteTarget}"] = "false"
	} else {
		m["${deleteTarget}"] = "true"
	}
	m["${fileNamePrefix}"] = cfgLoad.CsvFileNamePrefix // multiple uses of fileNamePrefix exist in different steps not just CSV file writer.
	if cfgLoad.CsvHeaderFields == "" {                 // if there is no column list supplied...
		m["${csvHeaderFields}"] = colList // use the full list of input table columns.
	} else {
		m["${csvHeaderFields}"] = cfgLoad.CsvHeaderFields
	}
	m["${csvMaxFileRows}"] = cfgLoad.CsvMaxFileRows
	m["${csvMaxFileBytes}"] = cfgLoad.CsvMaxFileBytes
	m["${bucketName}"] = cfgLoad.BucketName
	m["${bucketPrefix}"] = cfgLoad.BucketPrefix
	m["${bucketRegion}"] = cfgLoad.BucketRegion
	m["${sleepSeconds}"] = strconv.Itoa(cfgLoad.RepeatInterval)
	if cfgLoad.RepeatInterval > 0 { // if there is a repeat interval...
		m["${repeatTransform}"] = transform.TransformRepeating // set the loop interval to repeat the transform.
	} else { // else we should execute this transform once...
		m["${repeatTransform}"] = transform.TransformOnce
	}
	mustReplaceInStringUsingMapKeyVals(&jsonDsnSnowflakeLoad, m)
	log.Debug("replaced reference JSON for load ", jsonDsnSnowflakeLoad)
	// Execute or export the transform.
	if cfgLoad.ExportConfigType == "" { // if we should execute the transform...
		ti := transform.NewSafeMapTransformInfo()
		_, err := transform.LaunchTransformJson(log, ti, jsonDsnSnowflakeLoad, true, cfgLoad.StatsDumpFrequencySeconds)
		if err != nil {
			return errors.Wrap(err, "unable to unmarshal reference JSON to build the Snowflake load pipe")
		}
	} else { // else we should write the transform to STDOUT...
		return outputPipeDefinition(log, jsonDsnSnowflakeLoad, cfgLoad.ExportConfigType, cfgLoad.ExportIncludeConnections)
	}
	return nil
}
