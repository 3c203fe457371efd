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

type DsnStdoutLoadConfig struct {
	SourceConnection          string `errorTxt:"source <connection>" mandatory:"yes"`
	SrcConnDetails            *shared.ConnectionDetails
	SrcSchemaTable            rdbms.SchemaTable
	AbortAfterNumRows         int
	RepeatInterval            int `errorTxt:"repeat interval"`
	ExportConfigType          string
	ExportIncludeConnections  bool
	LogLevel                  string `errorTxt:"log level" mandatory:"yes"`
	StackDumpOnPanic          bool
	StatsDumpFrequencySeconds int
}

// SetupLoadDsnStdout copies values from genericCfg to actionCfg ready for a DSN to STDOUT load action.
func SetupLoadDsnStdout(genericCfg interface{}, actionCfg interface{}) error {
	src := genericCfg.(*LoadConfig)
	tgt := actionCfg.(*DsnStdoutLoadConfig)
	var err error
	// Setup real connection details into tgt struct.
	if tgt.SrcConnDetails, err = src.Connections.GetConnectionDetails(src.SourceString.GetConnectionName()); err != nil {
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
	// Stdout
	tgt.AbortAfterNumRows = src.AbortAfterNumRows
	return nil
}

// RunDsnStdoutLoad streams a table from a DSN connection to STDOUT as JSON records.
func RunDsnStdoutLoad(cfg interface{}) error {
	cfgLoad := cfg.(*DsnStdoutLoadConfig)
	// Setup logging.
	if cfgLoad.ExportConfigType != "" { // if the user wants the transform on STDOUT...
		cfgLoad.LogLevel = "error"
	}
	log := logger.NewLogger("martpipe", cfgLoad.LogLevel, cfgLoad.StackDumpOnPanic)
	// Validate switches.
	if err := helper.ValidateStructIsPopulated(cfgLoad); err != nil {
		return err
	}
	// Get column list for input SQL.
	tableCols, err := tabledefinition.GetTableColumns(log, tabledefinition.GetColumnsFunc(cfgLoad.SrcConnDetails), &cfgLoad.SrcSchemaTable)
	if err != nil {
		return err
	}
	if cfgLoad.SrcConnDetails.Type == constants.ConnectionTypeMysql { // if the source rejects ANSI double-quoted identifiers...
		for i := range tableCols {
			tableCols[i] = strings.ReplaceAll(tableCols[i], `"`, "")
		}
	}
	colList := helper.StringsToCsv(tableCols)
	// Get specific connections.
	connSrc := shared.GetDsnConnectionDetails(cfgLoad.SrcConnDetails)
	// Set up the transform.
	m := make(map[string]string)
	m["${sleepSeconds}"] = strconv.Itoa(cfgLoad.RepeatInterval)
	if cfgLoad.RepeatInterval > 0 { // if there is a repeat interval...
		m["${repeatTransform}"] = transform.TransformRepeating // set the loop interval to repeat the transform.
	} else { // else we should execute this transform once...
		m["${repeatTransform}"] = transform.TransformOnce
	}
	// Source
	m["${srcLogicalName}"] = cfgLoad.SourceConnection
	m["${srcType}"] = cfgLoad.SrcConnDetails.Type
	m["${srcDsn}"] = connSrc.Dsn
	m["${sourceTable}"] = cfgLoad.SrcSchemaTable.SchemaTable
	m["${columnListCsv}"] = helper.EscapeQuotesInString(colList)
	// Stdout
	m["${abortAfterNumRows}"] = strconv.Itoa(cfgLoad.AbortAfterNumRows)
	mustReplaceInStringUsingMapKeyVals(&jsonDsnStdoutLoad, m)
	log.Debug("replaced reference JSON for load ", jsonDsnStdoutLoad)
	// Execute or export the transform.
	if cfgLoad.ExportConfigType == "" { // if we should execute the transform...
		ti := transform.NewSafeMapTransformInfo()
		_, err := transform.LaunchTransformJson(log, ti, jsonDsnStdoutLoad, true, cfgLoad.StatsDumpFrequencySeconds)
		if err != nil {
			return errors.Wrap(err, "unable to unmarshal reference JSON to build the stdout load pipe")
		}
	} else { // else we should write the transform to STDOUT...
		return outputPipeDefinition(log, jsonDsnStdoutLoad, cfgLoad.ExportConfigType, cfgLoad.ExportIncludeConnections)
	}
	return nil
}
