package actions

import (
	"fmt"
	"reflect"

	"github.com/martpipe/martpipe/constants"
)

type SrcAndTgtConnections struct {
	Connections  ConnectionHandler
	SourceString ConnectionObject
	TargetString ConnectionObject
}

type Action struct {
	FnAction   func(actionCfg interface{}) error                         // the function to execute the action
	ActionCfg  interface{}                                               // the config struct to pass to the FnAction
	FnSetupCfg func(genericCfg interface{}, actionCfg interface{}) error // the function to convert generic cfg to action-specific config for the FnAction
}

// ActionLauncher will:
// 1) call the function fnActionGetter to find the Action{} based on the sourceType and targetType strings supplied.
// 2) Once it has the Action{}, it calls setup function Action.FnSetupCfg() to populate Action.ActionCfg{}.
// 3) Then it can start the action by calling Action.FnAction().
// TODO: consider moving use of fnActionGetter out to the caller such that the caller supplies a fn(void) to call all
//  preconfigured ready to go.
func ActionLauncher(
	cfg interface{},
	fnActionGetter func(sourceType string, targetType string) (Action, error),
	sourceType string,
	targetType string) error {
	v := reflect.ValueOf(cfg)
	if v.Kind() != reflect.Ptr {
		return fmt.Errorf("expected pointer to config in variable cfg to be supplied to ActionLauncher")
	}
	// Fetch the action.
	a, err := fnActionGetter(sourceType, targetType)
	if err != nil {
		return err
	}
	// Populate the action's config struct using the generic.
	if err = a.FnSetupCfg(cfg, a.ActionCfg); err != nil {
		return err
	}
	// Run the action.
	return a.FnAction(a.ActionCfg)
}

// ActionFuncs is a register of all supported actions.
// Note that keys in the final map[string]Action are used to validate DSN-type database connections before
// they are added. See RunConnectionAdd().
var ActionFuncs = map[string]map[string]map[string]Action{
	constants.ActionFuncsCommandLoad: { // command...
		constants.ActionFuncsSubCommandSnapshot: { // subcommand...
			// Relational sources feed warehouse targets over database/sql.
			// Missing target tables are created from source metadata before the truncate.
			"sqlserver-clickhouse":      Action{FnAction: RunDsnLoad, ActionCfg: &DsnLoadConfig{}, FnSetupCfg: SetupLoadDsnDsn},
			"sqlserver-postgres":        Action{FnAction: RunDsnLoad, ActionCfg: &DsnLoadConfig{}, FnSetupCfg: SetupLoadDsnDsn},
			"sqlserver-mysql":           Action{FnAction: RunDsnLoad, ActionCfg: &DsnLoadConfig{}, FnSetupCfg: SetupLoadDsnDsn},
			"sqlserver-sqlserver":       Action{FnAction: RunDsnLoad, ActionCfg: &DsnLoadConfig{}, FnSetupCfg: SetupLoadDsnDsn},
			"odbc+sqlserver-clickhouse": Action{FnAction: RunDsnLoad, ActionCfg: &DsnLoadConfig{}, FnSetupCfg: SetupLoadDsnDsn},
			"odbc+sqlserver-postgres":   Action{FnAction: RunDsnLoad, ActionCfg: &DsnLoadConfig{}, FnSetupCfg: SetupLoadDsnDsn},
			"netezza-clickhouse":        Action{FnAction: RunDsnLoad, ActionCfg: &DsnLoadConfig{}, FnSetupCfg: SetupLoadDsnDsn},
			"netezza-postgres":          Action{FnAction: RunDsnLoad, ActionCfg: &DsnLoadConfig{}, FnSetupCfg: SetupLoadDsnDsn},
			"postgres-clickhouse":       Action{FnAction: RunDsnLoad, ActionCfg: &DsnLoadConfig{}, FnSetupCfg: SetupLoadDsnDsn},
			"postgres-postgres":         Action{FnAction: RunDsnLoad, ActionCfg: &DsnLoadConfig{}, FnSetupCfg: SetupLoadDsnDsn},
			"mysql-clickhouse":          Action{FnAction: RunDsnLoad, ActionCfg: &DsnLoadConfig{}, FnSetupCfg: SetupLoadDsnDsn},
			"mysql-postgres":            Action{FnAction: RunDsnLoad, ActionCfg: &DsnLoadConfig{}, FnSetupCfg: SetupLoadDsnDsn},
			"clickhouse-clickhouse":     Action{FnAction: RunDsnLoad, ActionCfg: &DsnLoadConfig{}, FnSetupCfg: SetupLoadDsnDsn},
			// CSV files land as all-VARCHAR columns when the target table is missing.
			"csv-clickhouse": Action{FnAction: RunCsvLoad, ActionCfg: &CsvLoadConfig{}, FnSetupCfg: SetupLoadCsvDsn},
			"csv-postgres":   Action{FnAction: RunCsvLoad, ActionCfg: &CsvLoadConfig{}, FnSetupCfg: SetupLoadCsvDsn},
			"csv-mysql":      Action{FnAction: RunCsvLoad, ActionCfg: &CsvLoadConfig{}, FnSetupCfg: SetupLoadCsvDsn},
			"csv-sqlserver":  Action{FnAction: RunCsvLoad, ActionCfg: &CsvLoadConfig{}, FnSetupCfg: SetupLoadCsvDsn},
			// Snowflake targets are fed via gzip CSV files staged in S3.
			"sqlserver-snowflake":      Action{FnAction: RunDsnSnowflakeLoad, ActionCfg: &DsnSnowflakeLoadConfig{}, FnSetupCfg: SetupLoadDsnSnowflake},
			"odbc+sqlserver-snowflake": Action{FnAction: RunDsnSnowflakeLoad, ActionCfg: &DsnSnowflakeLoadConfig{}, FnSetupCfg: SetupLoadDsnSnowflake},
			"netezza-snowflake":        Action{FnAction: RunDsnSnowflakeLoad, ActionCfg: &DsnSnowflakeLoadConfig{}, FnSetupCfg: SetupLoadDsnSnowflake},
			"postgres-snowflake":       Action{FnAction: RunDsnSnowflakeLoad, ActionCfg: &DsnSnowflakeLoadConfig{}, FnSetupCfg: SetupLoadDsnSnowflake},
			"mysql-snowflake":          Action{FnAction: RunDsnSnowflakeLoad, ActionCfg: &DsnSnowflakeLoadConfig{}, FnSetupCfg: SetupLoadDsnSnowflake},
			"s3-snowflake":             Action{FnAction: RunS3SnowflakeLoad, ActionCfg: &S3SnowflakeLoadConfig{}, FnSetupCfg: SetupLoadS3Snowflake},
			// CSV extracts to S3 plus bucket and table inspection.
			"sqlserver-s3":      Action{FnAction: RunDsnS3Load, ActionCfg: &DsnS3LoadConfig{}, FnSetupCfg: SetupLoadDsnS3},
			"odbc+sqlserver-s3": Action{FnAction: RunDsnS3Load, ActionCfg: &DsnS3LoadConfig{}, FnSetupCfg: SetupLoadDsnS3},
			"netezza-s3":        Action{FnAction: RunDsnS3Load, ActionCfg: &DsnS3LoadConfig{}, FnSetupCfg: SetupLoadDsnS3},
			"postgres-s3":       Action{FnAction: RunDsnS3Load, ActionCfg: &DsnS3LoadConfig{}, FnSetupCfg: SetupLoadDsnS3},
			"mysql-s3":          Action{FnAction: RunDsnS3Load, ActionCfg: &DsnS3LoadConfig{}, FnSetupCfg: SetupLoadDsnS3},
			"clickhouse-s3":     Action{FnAction: RunDsnS3Load, ActionCfg: &DsnS3LoadConfig{}, FnSetupCfg: SetupLoadDsnS3},
			"s3-stdout":         Action{FnAction: RunS3StdoutLoad, ActionCfg: &S3StdoutLoadConfig{}, FnSetupCfg: SetupLoadS3Stdout},
			"sqlserver-stdout":  Action{FnAction: RunDsnStdoutLoad, ActionCfg: &DsnStdoutLoadConfig{}, FnSetupCfg: SetupLoadDsnStdout},
			"postgres-stdout":   Action{FnAction: RunDsnStdoutLoad, ActionCfg: &DsnStdoutLoadConfig{}, FnSetupCfg: SetupLoadDsnStdout},
			"mysql-stdout":      Action{FnAction: RunDsnStdoutLoad, ActionCfg: &DsnStdoutLoadConfig{}, FnSetupCfg: SetupLoadDsnStdout},
			"clickhouse-stdout": Action{FnAction: RunDsnStdoutLoad, ActionCfg: &DsnStdoutLoadConfig{}, FnSetupCfg: SetupLoadDsnStdout},
		},
		constants.ActionFuncsSubCommandAppend: {
			// Appends reuse the snapshot pipes without the truncate step.
			// STDOUT targets are snapshot-only as there is nothing to preserve.
			"sqlserver-clickhouse":      Action{FnAction: RunDsnLoad, ActionCfg: &DsnLoadConfig{}, FnSetupCfg: SetupLoadDsnDsn},
			"sqlserver-postgres":        Action{FnAction: RunDsnLoad, ActionCfg: &DsnLoadConfig{}, FnSetupCfg: SetupLoadDsnDsn},
			"sqlserver-mysql":           Action{FnAction: RunDsnLoad, ActionCfg: &DsnLoadConfig{}, FnSetupCfg: SetupLoadDsnDsn},
			"sqlserver-sqlserver":       Action{FnAction: RunDsnLoad, ActionCfg: &DsnLoadConfig{}, FnSetupCfg: SetupLoadDsnDsn},
			"odbc+sqlserver-clickhouse": Action{FnAction: RunDsnLoad, ActionCfg: &DsnLoadConfig{}, FnSetupCfg: SetupLoadDsnDsn},
			"odbc+sqlserver-postgres":   Action{FnAction: RunDsnLoad, ActionCfg: &DsnLoadConfig{}, FnSetupCfg: SetupLoadDsnDsn},
			"netezza-clickhouse":        Action{FnAction: RunDsnLoad, ActionCfg: &DsnLoadConfig{}, FnSetupCfg: SetupLoadDsnDsn},
			"netezza-postgres":          Action{FnAction: RunDsnLoad, ActionCfg: &DsnLoadConfig{}, FnSetupCfg: SetupLoadDsnDsn},
			"postgres-clickhouse":       Action{FnAction: RunDsnLoad, ActionCfg: &DsnLoadConfig{}, FnSetupCfg: SetupLoadDsnDsn},
			"postgres-postgres":         Action{FnAction: RunDsnLoad, ActionCfg: &DsnLoadConfig{}, FnSetupCfg: SetupLoadDsnDsn},
			"mysql-clickhouse":          Action{FnAction: RunDsnLoad, ActionCfg: &DsnLoadConfig{}, FnSetupCfg: SetupLoadDsnDsn},
			"mysql-postgres":            Action{FnAction: RunDsnLoad, ActionCfg: &DsnLoadConfig{}, FnSetupCfg: SetupLoadDsnDsn},
			"clickhouse-clickhouse":     Action{FnAction: RunDsnLoad, ActionCfg: &DsnLoadConfig{}, FnSetupCfg: SetupLoadDsnDsn},
			"csv-clickhouse":            Action{FnAction: RunCsvLoad, ActionCfg: &CsvLoadConfig{}, FnSetupCfg: SetupLoadCsvDsn},
			"csv-postgres":              Action{FnAction: RunCsvLoad, ActionCfg: &CsvLoadConfig{}, FnSetupCfg: SetupLoadCsvDsn},
			"csv-mysql":                 Action{FnAction: RunCsvLoad, ActionCfg: &CsvLoadConfig{}, FnSetupCfg: SetupLoadCsvDsn},
			"csv-sqlserver":             Action{FnAction: RunCsvLoad, ActionCfg: &CsvLoadConfig{}, FnSetupCfg: SetupLoadCsvDsn},
			"sqlserver-snowflake":       Action{FnAction: RunDsnSnowflakeLoad, ActionCfg: &DsnSnowflakeLoadConfig{}, FnSetupCfg: SetupLoadDsnSnowflake},
			"odbc+sqlserver-snowflake":  Action{FnAction: RunDsnSnowflakeLoad, ActionCfg: &DsnSnowflakeLoadConfig{}, FnSetupCfg: SetupLoadDsnSnowflake},
			"netezza-snowflake":         Action{FnAction: RunDsnSnowflakeLoad, ActionCfg: &DsnSnowflakeLoadConfig{}, FnSetupCfg: SetupLoadDsnSnowflake},
			"postgres-snowflake":        Action{FnAction: RunDsnSnowflakeLoad, ActionCfg: &DsnSnowflakeLoadConfig{}, FnSetupCfg: SetupLoadDsnSnowflake},
			"mysql-snowflake":           Action{FnAction: RunDsnSnowflakeLoad, ActionCfg: &DsnSnowflakeLoadConfig{}, FnSetupCfg: SetupLoadDsnSnowflake},
			"s3-snowflake":              Action{FnAction: RunS3SnowflakeLoad, ActionCfg: &S3SnowflakeLoadConfig{}, FnSetupCfg: SetupLoadS3Snowflake},
			"sqlserver-s3":              Action{FnAction: RunDsnS3Load, ActionCfg: &DsnS3LoadConfig{}, FnSetupCfg: SetupLoadDsnS3},
			"odbc+sqlserver-s3":         Action{FnAction: RunDsnS3Load, ActionCfg: &DsnS3LoadConfig{}, FnSetupCfg: SetupLoadDsnS3},
			"netezza-s3":                Action{FnAction: RunDsnS3Load, ActionCfg: &DsnS3LoadConfig{}, FnSetupCfg: SetupLoadDsnS3},
			"postgres-s3":               Action{FnAction: RunDsnS3Load, ActionCfg: &DsnS3LoadConfig{}, FnSetupCfg: SetupLoadDsnS3},
			"mysql-s3":                  Action{FnAction: RunDsnS3Load, ActionCfg: &DsnS3LoadConfig{}, FnSetupCfg: SetupLoadDsnS3},
			"clickhouse-s3":             Action{FnAction: RunDsnS3Load, ActionCfg: &DsnS3LoadConfig{}, FnSetupCfg: SetupLoadDsnS3},
		},
		constants.ActionFuncsSubCommandMeta: { // meta...
			// Requires support in module table-definition.
			// Connections of type ODBC are only supported if the correct 'transport' is used in specific entries below.
			"sqlserver-clickhouse":      Action{FnAction: RunLoadMeta, ActionCfg: &TableToTargetDDLConfig{}, FnSetupCfg: SetupLoadMeta},
			"odbc+sqlserver-clickhouse": Action{FnAction: RunLoadMeta, ActionCfg: &TableToTargetDDLConfig{}, FnSetupCfg: SetupLoadMeta},
			"netezza-clickhouse":        Action{FnAction: RunLoadMeta, ActionCfg: &TableToTargetDDLConfig{}, FnSetupCfg: SetupLoadMeta},
			"postgres-clickhouse":       Action{FnAction: RunLoadMeta, ActionCfg: &TableToTargetDDLConfig{}, FnSetupCfg: SetupLoadMeta},
			"mysql-clickhouse":          Action{FnAction: RunLoadMeta, ActionCfg: &TableToTargetDDLConfig{}, FnSetupCfg: SetupLoadMeta},
			"csv-clickhouse":            Action{FnAction: RunLoadMeta, ActionCfg: &TableToTargetDDLConfig{}, FnSetupCfg: SetupLoadMeta},
			"sqlserver-postgres":        Action{FnAction: RunLoadMeta, ActionCfg: &TableToTargetDDLConfig{}, FnSetupCfg: SetupLoadMeta},
			"mysql-postgres":            Action{FnAction: RunLoadMeta, ActionCfg: &TableToTargetDDLConfig{}, FnSetupCfg: SetupLoadMeta},
			"csv-postgres":              Action{FnAction: RunLoadMeta, ActionCfg: &TableToTargetDDLConfig{}, FnSetupCfg: SetupLoadMeta},
			"sqlserver-snowflake":       Action{FnAction: RunLoadMeta, ActionCfg: &TableToTargetDDLConfig{}, FnSetupCfg: SetupLoadMeta},
			"odbc+sqlserver-snowflake":  Action{FnAction: RunLoadMeta, ActionCfg: &TableToTargetDDLConfig{}, FnSetupCfg: SetupLoadMeta},
			"netezza-snowflake":         Action{FnAction: RunLoadMeta, ActionCfg: &TableToTargetDDLConfig{}, FnSetupCfg: SetupLoadMeta},
			"postgres-snowflake":        Action{FnAction: RunLoadMeta, ActionCfg: &TableToTargetDDLConfig{}, FnSetupCfg: SetupLoadMeta},
			"mysql-snowflake":           Action{FnAction: RunLoadMeta, ActionCfg: &TableToTargetDDLConfig{}, FnSetupCfg: SetupLoadMeta},
		},
	},
}

// GetLoadSnapAction returns the "load snap" Action based on the sourceType and targetType supplied.
func GetLoadSnapAction(sourceType string, targetType string) (Action, error) {
	retval, ok := ActionFuncs[constants.ActionFuncsCommandLoad][constants.ActionFuncsSubCommandSnapshot][sourceType+"-"+targetType]
	if !ok {
		return Action{}, fmt.Errorf("unsupported load snap action for source type %q and target type %q", sourceType, targetType)
	}
	return retval, nil
}

// GetLoadAppendAction returns the "load append" Action based on the sourceType and targetType supplied.
func GetLoadAppendAction(sourceType string, targetType string) (Action, error) {
	retval, ok := ActionFuncs[constants.ActionFuncsCommandLoad][constants.ActionFuncsSubCommandAppend][sourceType+"-"+targetType]
	if !ok {
		return Action{}, fmt.Errorf("unsupported load append action for source type %q and target type %q", sourceType, targetType)
	}
	return retval, nil
}

// GetLoadMetaAction returns the "load meta" Action based on the sourceType and targetType supplied.
func GetLoadMetaAction(sourceType string, targetType string) (Action, error) {
	retval, ok := ActionFuncs[constants.ActionFuncsCommandLoad][constants.ActionFuncsSubCommandMeta][sourceType+"-"+targetType]
	if !ok {
		return Action{}, fmt.Errorf("unsupported load meta action for source type %q and target type %q", sourceType, targetType)
	}
	return retval, nil
}
