package actions

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/martpipe/martpipe/helper"
	"github.com/martpipe/martpipe/logger"
	"github.com/martpipe/martpipe/rdbms/shared"
	"github.com/martpipe/martpipe/transform"
)

type S3SnowflakeLoadConfig struct {
	SourceConnection          string `errorTxt:"source <connection>" mandatory:"yes"`
	TargetConnection          string `errorTxt:"target <connection>" mandatory:"yes"`
	SrcConnDetails            *shared.ConnectionDetails
	TgtConnDetails            *shared.ConnectionDetails
	SnowTableName             string `errorTxt:"Snowflake [schema.]table" mandatory:"yes"`
	SnowStageName             string `errorTxt:"Snowflake stage" mandatory:"yes"`
	BucketRegion              string `errorTxt:"s3 region" mandatory:"yes"`
	BucketName                string `errorTxt:"s3 bucket" mandatory:"yes"`
	BucketPrefix              string `errorTxt:"s3 prefix"`
	CsvFileNamePrefix         string `errorTxt:"table-files name prefix (differs from bucket prefix)" mandatory:"yes"`
	CsvRegexp                 string `errorTxt:"table-files regexp filter"`
	AppendTarget              bool
	RepeatInterval            int `errorTxt:"repeat interval"`
	ExportConfigType          string
	ExportIncludeConnections  bool
	LogLevel                  string `errorTxt:"log level" mandatory:"yes"`
	StackDumpOnPanic          bool
	StatsDumpFrequencySeconds int
}

// SetupLoadS3Snowflake copies values from genericCfg to actionCfg ready for a S3 to Snowflake load action.
func SetupLoadS3Snowflake(genericCfg interface{}, actionCfg interface{}) error {
	src := genericCfg.(*LoadConfig)
	tgt := actionCfg.(*S3SnowflakeLoadConfig)
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
	tgt.CsvFileNamePrefix = src.CsvFileNamePrefix
	if tgt.CsvFileNamePrefix == "" { // if the CSV file name is not supplied...
		tgt.CsvFileNamePrefix = src.SourceString.GetObject() // use the source object name
	}
	tgt.CsvRegexp = src.CsvRegexp
	// Target
	tgt.TargetConnection = src.TargetString.GetConnectionName()
	tgt.SnowTableName = src.TargetString.GetObject()
	tgt.SnowStageName = src.SnowStageName
	tgt.AppendTarget = src.AppendTarget
	// S3
	tgt.BucketName = src.BucketName
	tgt.BucketPrefix = src.BucketPrefix
	tgt.BucketRegion = src.BucketRegion
	return nil
}

// RunS3SnowflakeLoad loads CSV files already staged in S3 into a Snowflake table
// using COPY INTO via the supplied stage.
func RunS3SnowflakeLoad(cfg interface{}) error {
	cfgLoad := cfg.(*S3SnowflakeLoadConfig)
	// Setup logging.
	if cfgLoad.ExportConfigType != "" { // if the user wants the transform on STDOUT...
		cfgLoad.LogLevel = "error"
	}
	log := logger.NewLogger("martpipe", cfgLoad.LogLevel, cfgLoad.StackDumpOnPanic)
	// Validate switches.
	if err := helper.ValidateStructIsPopulated(cfgLoad); err != nil {
		return err
	}
	// Get specific connections.
	connTgt := shared.GetDsnConnectionDetails(cfgLoad.TgtConnDetails)
	// Set up the transform.
	m := make(map[string]string)
	m["${sleepSeconds}"] = strconv.Itoa(cfgLoad.RepeatInterval)
	if cfgLoad.RepeatInterval > 0 { // if there is a repeat interval...
		m["${repeatTransform}"] = transform.TransformRepeating // set the loop interval to repeat the transform.
	} else { // else we should execute this transform once...
		m["${repeatTransform}"] = transform.TransformOnce
	}
	// S3 source
	m["${bucketName}"] = cfgLoad.BucketName
	m["${bucketPrefix}"] = cfgLoad.BucketPrefix
	m["${bucketRegion}"] = cfgLoad.BucketRegion
	// File name prefix in S3
	m["${fileNamePrefix}"] = cfgLoad.CsvFileNamePrefix
	// Escape the regexp by marshalling to json.
	escaped, err := json.Marshal(cfgLoad.CsvRegexp)
	if err != nil {
		return fmt.Errorf("error marshalling regexp %q: %w", cfgLoad.CsvRegexp, err)
	}
	m["${fileNameRegexp}"] = strings.Trim(string(escaped), `"`) // snapshot files are written with: .+-[0-9]{8}T[0-9]{6}_[0-9]{6}\\.csv.*
	// Target
	m["${tgtLogicalName}"] = cfgLoad.TargetConnection
	m["${tgtDsn}"] = connTgt.Dsn
	m["${snowflakeStage}"] = cfgLoad.SnowStageName
	m["${snowflakeTable}"] = cfgLoad.SnowTableName
	if cfgLoad.AppendTarget { // if the user wants to keep the target contents...
		m["${deleteTarget}"] = "false"
	} else {
		m["${deleteTarget}"] = "true"
	}
	mustReplaceInStringUsingMapKeyVals(&jsonS3SnowflakeLoad, m)
	log.Debug("replaced reference JSON for load ", jsonS3SnowflakeLoad)
	// Execute or export the transform.
	if cfgLoad.ExportConfigType == "" { // if we should execute the transform...
		ti := transform.NewSafeMapTransformInfo()
		_, err := transform.LaunchTransformJson(log, ti, jsonS3SnowflakeLoad, true, cfgLoad.StatsDumpFrequencySeconds)
		if err != nil {
			return errors.Wrap(err, "unable to unmarshal reference JSON to build the Snowflake load pipe")
		}
	} else { // else we should write the transform to STDOUT...
		return outputPipeDefinition(log, jsonS3SnowflakeLoad, cfgLoad.ExportConfigType, cfgLoad.ExportIncludeConnections)
	}
	return nil
}
