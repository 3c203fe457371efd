package constants

// Component

const (
	ChanSize                                = 20000
	StatsCaptureFrequencySeconds            = 5
	TimeFormatYearSeconds                   = "20060102T150405" // used for human readable file names
	TimeFormatYearSecondsRegex              = "[0-9]{4}[0-9]{2}[0-9]{2}T[0-9]{6}"
	TimeFormatYearSecondsTZ                 = "20060102T150405-0700" // a format that includes the time zone and is compatible with Snowflake and ClickHouse databases.
	TimeFormatDate                          = "2006-01-02"           // calendar dates in model packs and the date spine.
	ManifestHeaderColumnName                = "FileName"
	TableInsertDefaultCommitSequenceKeyName = "#commitSequence"
	TableInsertBatchSizeDefault             = 1000
	TableInsertTxtBatchNumRowsDefault       = 10
	CheckResultFieldName4Check              = "#checkName"
	CheckResultFieldName4Table              = "#checkTable"
	CheckResultFieldName4Column             = "#checkColumn"
	CheckResultFieldName4Violations         = "#checkViolations"
	CheckResultFieldName4Status             = "#checkStatus"
	CheckSeverityError                      = "error"
	CheckSeverityWarn                       = "warn"
	CheckStatusPassed                       = "passed"
	CheckStatusWarned                       = "warned"
	EmojiBang                               = "\U0001F4A5"
	EnvVarPrefix                            = "MP" // prefix for environment variables in twelveFactorMode
	MpPluginOdbc                            = "mp-odbc-plugin.so"
	EnvVarPluginDir                         = EnvVarPrefix + "_PLUGIN_DIR"
	ActionFuncsCommandLoad                  = "load"
	ActionFuncsCommandBuild                 = "build"
	ActionFuncsSubCommandMeta               = "meta"
	ActionFuncsSubCommandSnapshot           = "snap"
	ActionFuncsSubCommandAppend             = "append"
	ActionFuncsSubCommandRun                = "run"
	ActionFuncsSubCommandCheck              = "check"
	ConnectionTypeStdout                    = "stdout"
	ConnectionTypeMock                      = "mock"
	ConnectionTypeSnowflake                 = "snowflake"
	ConnectionTypeNetezza                   = "netezza"
	ConnectionTypeOdbc                      = "odbc" // this is not a real connection type, since we need a suffix to provide the driver name like sqlserver.
	ConnectionTypeOdbcSqlServer             = "odbc+sqlserver"
	ConnectionTypeSqlServer                 = "sqlserver"
	ConnectionTypePostgres                  = "postgres"
	ConnectionTypeMysql                     = "mysql"
	ConnectionTypeClickhouse                = "clickhouse"
	ConnectionTypeCsv                       = "csv"
	ConnectionTypeS3                        = "s3"
)

// Warehouse layers.

const (
	LayerRaw   = "raw"
	LayerClean = "clean"
	LayerMart  = "mart"
)
