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

type DsnLoadConfig struct {
	SourceConnection          string `errorTxt:"source <connection>" mandatory:"yes"`
	TargetConnection          string `errorTxt:"target <connection>" mandatory:"yes"`
	SrcConnDetails            *shared.ConnectionDetails
	TgtConnDetails            *shared.ConnectionDetails
	SrcSchemaTable            rdbms.SchemaTable
	TgtSchemaTable            rdbms.SchemaTable
	AppendTarget              bool
	CommitBatchSize           string
	RepeatInterval            int `errorTxt:"repeat interval"`
	ExportConfigType          string
	ExportIncludeConnections  bool
	LogLevel                  string `errorTxt:"log level" mandatory:"yes"`
	StackDumpOnPanic          bool
	StatsDumpFrequencySeconds int
}

// SetupLoadDsnDsn copies values from genericCfg to actionCfg ready for a DSN to DSN load action.
func SetupLoadDsnDsn(genericCfg interface{}, actionCfg interface{}) error {
	src := genericCfg.(*LoadConfig)
	tgt := actionCfg.(*DsnLoadConfig)
	var err error
	// Setup real connection details into tgt struct.
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
	tgt.CommitBatchSize = src.CommitBatchSize
	// Source
	tgt.SourceConnection = src.SourceString.GetConnectionName()
	tgt.SrcSchemaTable.SchemaTable = src.SourceString.GetObject()
	// Target
	tgt.TargetConnection = src.TargetString.GetConnectionName()
	tgt.TgtSchemaTable.SchemaTable = src.TargetString.GetObject()
	tgt.AppendTarget = src.AppendTarget
	return nil
}

// RunDsnLoad copies a table from one DSN connection to another.
// The target table is created from the source metadata when it is missing and
// truncated unless this is an append.
func RunDsnLoad(cfg interface{}) error {
	cfgLoad := cfg.(*DsnLoadConfig)
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
	// Generate DDL to create the target table if it is missing.
	tabDefinition, err := tabledefinition.GetTableDefinition(log, tabledefinition.GetColumnsFunc(cfgLoad.SrcConnDetails), &cfgLoad.SrcSchemaTable)
	if err != nil {
		return err
	}
	mapper := tabledefinition.MustGetMapper(cfgLoad.SrcConnDetails)
	ddl, err := tabledefinition.ConvertTableDefinition(log, tabDefinition, cfgLoad.TgtSchemaTable, mapper, cfgLoad.TgtConnDetails.Type)
	if err != nil {
		return err
	}
	// Resolve batch sizes for the insert step.
	batchSize := constants.TableInsertBatchSizeDefault
	if cfgLoad.CommitBatchSize != "" {
		batchSize, err = strconv.Atoi(cfgLoad.CommitBatchSize)
		if err != nil {
			return errors.Wrap(err, "unable to convert commit batch size to an integer")
		}
	}
	txtBatchNumRows := constants.TableInsertTxtBatchNumRowsDefault
	if txtBatchNumRows > batchSize { // the SQL text batch must fit inside one commit.
		txtBatchNumRows = batchSize
	}
	// Get specific connections.
	connSrc := shared.GetDsnConnectionDetails(cfgLoad.SrcConnDetails)
	connTgt := shared.GetDsnConnectionDetails(cfgLoad.TgtConnDetails)
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
	// Target
	m["${tgtLogicalName}"] = cfgLoad.TargetConnection
	m["${tgtType}"] = cfgLoad.TgtConnDetails.Type
	m["${tgtDsn}"] = connTgt.Dsn
	m["${targetSchema}"] = cfgLoad.TgtSchemaTable.GetSchema()
	m["${targetTable}"] = cfgLoad.TgtSchemaTable.GetTable()
	m["${targetSchemaTable}"] = cfgLoad.TgtSchemaTable.SchemaTable
	m["${targetBatchSize}"] = strconv.Itoa(batchSize)
	m["${txtBatchNumRows}"] = strconv.Itoa(txtBatchNumRows)
	m["${createTargetDdl}"] = helper.EscapeQuotesInString(ddl)
	// Generate rows
	if cfgLoad.AppendTarget {
		m["${truncateTargetEnabled1orDisabled0}"] = "0"
	} else {
		m["${truncateTargetEnabled1orDisabled0}"] = "1"
	}

	// Columns for tableInsert
	pkTokens, err := helper.OrderedMapToTokens(helper.StringSliceToOrderedMap(tableCols), true)
	if err != nil {
		return err
	}
	m["${targetKeyColumns}"] = pkTokens
	mustReplaceInStringUsingMapKeyVals(&jsonDsnLoad, m)
	log.Debug("replaced reference JSON for load ", jsonDsnLoad)
	// Execute or export the transform.
	if cfgLoad.ExportConfigType == "" { // if we should execute the transform...
		ti := transform.NewSafeMapTransformInfo()
		_, err := transform.LaunchTransformJson(log, ti, jsonDsnLoad, true, cfgLoad.StatsDumpFrequencySeconds)
		if err != nil {
			return errors.Wrap(err, "unable to unmarshal reference JSON to build the DSN load pipe")
		}
	} else { // else we should write the transform to STDOUT...
		return outputPipeDefinition(log, jsonDsnLoad, cfgLoad.ExportConfigType, cfgLoad.ExportIncludeConnections)
	}
	return nil
}
