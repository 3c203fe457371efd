package actions

type LoadConfig struct {
	// Connections
	SrcAndTgtConnections
	// Generic
	LogLevel                  string `errorTxt:"log level" mandatory:"yes"`
	StackDumpOnPanic          bool
	StatsDumpFrequencySeconds int
	RepeatInterval            int `errorTxt:"repeat interval"`
	ExportConfigType          string
	ExportIncludeConnections  bool
	// Snowflake common
	SnowStageName     string `errorTxt:"Snowflake stage" mandatory:"yes"`
	BucketRegion      string `errorTxt:"s3 region" mandatory:"yes"`
	BucketName        string `errorTxt:"s3 bucket" mandatory:"yes"`
	BucketPrefix      string `errorTxt:"s3 prefix"`
	CsvFileNamePrefix string `errorTxt:"csv file name prefix" mandatory:"yes"`
	CsvRegexp         string `errorTxt:"csv file regexp filter"`
	CsvHeaderFields   string `errorTxt:"csv header fields"`
	CsvMaxFileRows    string `errorTxt:"csv max file rows"`
	CsvMaxFileBytes   string `errorTxt:"csv max file bytes"`
	// Metadata action specific
	ExecuteDDL bool
	// Insert specific
	CommitBatchSize string
	// Stdout action specific
	AbortAfterNumRows int
	// Target specific
	AppendTarget bool
}
