package actions

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/martpipe/martpipe/aws/s3"
	"github.com/martpipe/martpipe/constants"
	"github.com/martpipe/martpipe/helper"
	"github.com/martpipe/martpipe/logger"
	"github.com/martpipe/martpipe/rdbms"
	"github.com/martpipe/martpipe/rdbms/shared"
	tabledefinition "github.com/martpipe/martpipe/table-definition"
	"github.com/martpipe/martpipe/transform"
)

type DsnS3LoadConfig struct {
	SourceConnection          string `errorTxt:"source <connection>" mandatory:"yes"`
	TargetConnection          string `errorTxt:"target <connection>" mandatory:"yes"`
	SrcSchemaTable            rdbms.SchemaTable
	SrcConnDetails            *shared.ConnectionDetails
	TgtConnDetails            *shared.ConnectionDetails
	CsvFileNamePrefix         string `errorTxt:"csv file name prefix" mandatory:"yes"`
	CsvHeaderFields           string `errorTxt:"csv header fields"`
	CsvMaxFileRows            string `errorTxt:"csv max file rows"`
	CsvMaxFileBytes           string `errorTxt:"csv max file bytes"`
	RepeatInterval            int    `errorTxt:"repeat interval"`
	ExportConfigType          string
	ExportIncludeConnections  bool
	LogLevel                  string `errorTxt:"log level" mandatory:"yes"`
	StackDumpOnPanic          bool
	StatsDumpFrequencySeconds int
}

// SetupLoadDsnS3 copies values from genericCfg to actionCfg ready for a DSN to S3 load action.
func SetupLoadDsnS3(genericCfg interface{}, actionCfg interface{}) error {
	src := genericCfg.(*LoadConfig)
	tgt := actionCfg.(*DsnS3LoadConfig)
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
	// CSV
	tgt.CsvFileNamePrefix = src.CsvFileNamePrefix
	if tgt.CsvFileNamePrefix == "" { // if the CSV file name is not supplied...
		if tmp := src.TargetString.GetObject(); tmp != "" { // if there is an s3 object name...
			// Use that for the CSV file name prefix.
			tgt.CsvFileNamePrefix = tmp
		} else { // else default to the source object name...
			tgt.CsvFileNamePrefix = src.SourceString.GetObject() // use table name as the default.
		}
	}
	tgt.CsvHeaderFields = src.CsvHeaderFields
	tgt.CsvMaxFileBytes = src.CsvMaxFileBytes
	tgt.CsvMaxFileRows = src.CsvMaxFileRows
	return nil
}

// RunDsnS3Load extracts a table from a DSN connection to gzip CSV files in S3
// along with a manifest listing the files written.
func RunDsnS3Load(cfg interface{}) error {
	cfgLoad := cfg.(*DsnS3LoadConfig)
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
	// Get specific connections.
	connSrc := shared.GetDsnConnectionDetails(cfgLoad.SrcConnDetails)
	connTgt := s3.NewAwsBucket(cfgLoad.TgtConnDetails)
	// Set up the transform.
	m := make(map[string]string)
	m["${sleepSeconds}"] = strconv.Itoa(cfgLoad.RepeatInterval)
	if cfgLoad.RepeatInterval > 0 { // if there is a repeat interval...
		m["${repeatTransform}"] = transform.TransformRepeating // set the loop interval to repeat the transform.
	} else { // else we should execute this transform once...
		m["${repeatTransform}"] = transform.TransformOnce
	}
	// Source
	m["${srcType}"] = cfgLoad.SrcConnDetails.Type
	m["${srcLogicalName}"] = cfgLoad.SourceConnection
	m["${srcDsn}"] = connSrc.Dsn
	m["${sourceTable}"] = cfgLoad.SrcSchemaTable.SchemaTable
	m["${columnListCsv}"] = colList
	// Target
	m["${tgtLogicalName}"] = cfgLoad.TargetConnection
	m["${tgtS3BucketName}"] = connTgt.Name
	m["${tgtS3BucketPrefix}"] = connTgt.Prefix
	m["${tgtS3Region}"] = connTgt.Region
	// CSV
	m["${fileNamePrefix}"] = cfgLoad.CsvFileNamePrefix // multiple uses of fileNamePrefix exist in different steps not just CSV file writer.
	if cfgLoad.CsvHeaderFields == "" {                 // if there is no column list supplied...
		m["${csvHeaderFields}"] = colList // use the full list of input table columns.
	} else {
		m["${csvHeaderFields}"] = cfgLoad.CsvHeaderFields
	}
	m["${csvMaxFileRows}"] = cfgLoad.CsvMaxFileRows
	m["${csvMaxFileBytes}"] = cfgLoad.CsvMaxFileBytes
	mustReplaceInStringUsingMapKeyVals(&jsonDsnS3Load, m)
	log.Debug("replaced reference JSON for load ", jsonDsnS3Load)
	// Execute or export the transform.
	if cfgLoad.ExportConfigType == "" { // if we should execute the transform...
		ti := transform.NewSafeMapTransformInfo()
		_, err := transform.LaunchTransformJson(log, ti, jsonDsnS3Load, true, cfgLoad.StatsDumpFrequencySeconds)
		if err != nil {
			return errors.Wrap(err, "unable to unmarshal reference JSON to build the S3 load pipe")
		}
	} else { // else we should write the transform to STDOUT...
		return outputPipeDefinition(log, jsonDsnS3Load, cfgLoad.ExportConfigType, cfgLoad.ExportIncludeConnections)
	}
	return nil
}
