package transform

import (
	"github.com/martpipe/martpipe/components"
)

// componentFuncs registers every step type available to pipeline files,
// pairing a component constructor with its launcher.
// TODO: add error return value from components and handle in launcher functions.
// TODO: add generic launcher function that matches JSON keys to config struct field names sop we can have only one or two launchers.
var componentFuncs = MapComponentFuncs{
	// Registration type 2 components return a record channel plus a control channel.
	"SqlExec":                    ComponentRegistration{"2", ComponentRegistrationType2{components.NewSqlExec, startSqlExec}},
	"SqlCheck":                   ComponentRegistration{"2", ComponentRegistrationType2{components.NewSqlCheck, startSqlCheck}},
	"TableInput":                 ComponentRegistration{"2", ComponentRegistrationType2{components.NewSqlQueryWithArgs, startTableInput}},
	"TableInputWithArgs":         ComponentRegistration{"2", ComponentRegistrationType2{components.NewSqlQueryWithInputChan, startTableInputWithArgs}},
	"TableInputWithReplacements": ComponentRegistration{"2", ComponentRegistrationType2{components.NewSqlQueryWithReplace, startTableInputWithReplacements}},
	"TableInsert":                ComponentRegistration{"2", ComponentRegistrationType2{components.NewTableInsert, startTableInsert}},
	"SnowflakeLoader":            ComponentRegistration{"2", ComponentRegistrationType2{components.NewSnowflakeLoader, startSnowflakeLoader}},
	"S3BucketList":               ComponentRegistration{"2", ComponentRegistrationType2{components.NewS3BucketList, startS3BucketList}},
	"CSVFileInput":               ComponentRegistration{"2", ComponentRegistrationType2{components.NewCsvFileInput, startCSVFileInput}},
	"CSVFileWriter":              ComponentRegistration{"2", ComponentRegistrationType2{components.NewCsvFileWriter, startCSVFileWriter}},
	"CopyFilesToS3":              ComponentRegistration{"2", ComponentRegistrationType2{components.NewCopyFilesToS3, startCopyFilesToS3}},
	"ChannelCombiner":            ComponentRegistration{"2", ComponentRegistrationType2{components.NewChannelCombiner, startChannelCombiner}},
	"ManifestWriter":             ComponentRegistration{"2", ComponentRegistrationType2{components.NewManifestWriter, startManifestWriter}},
	"ManifestReader":             ComponentRegistration{"2", ComponentRegistrationType2{components.NewS3ManifestReader, startManifestReader}},
	"DateRangeGenerator":         ComponentRegistration{"2", ComponentRegistrationType2{components.NewDateRangeGenerator, startDateRangeGenerator}},
	"GenerateRows":               ComponentRegistration{"2", ComponentRegistrationType2{components.NewGenerateRows, startGenerateRows}},
	"StdOutPassThrough":          ComponentRegistration{"2", ComponentRegistrationType2{components.NewStdOutPassThrough, startStdOutPassThrough}},
	// FieldMapper and FilterRows contain their own dynamic features.
	"FieldMapper": ComponentRegistration{"2", ComponentRegistrationType2{components.NewFieldMapper, startFieldMapper}},
	"FilterRows":  ComponentRegistration{"2", ComponentRegistrationType2{components.NewFilterRows, startFilterRows}},
	// Registration type 3 components are fed a channel of record channels.
	"ChannelBridge": ComponentRegistration{"3", ComponentRegistrationType3{components.NewChannelBridge, startChannelBridge}},
}
