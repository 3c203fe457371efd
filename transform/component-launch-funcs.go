package transform

import (
	"os"
	"strconv"

	"github.com/martpipe/martpipe/components"
	"github.com/martpipe/martpipe/helper"
	"github.com/martpipe/martpipe/logger"
	"github.com/martpipe/martpipe/rdbms"
	"github.com/martpipe/martpipe/rdbms/shared"
	"github.com/martpipe/martpipe/stream"
)

// The launcher funcs below bind one registered component each: they pull the
// step's Data values into the component's config struct, start it via the
// registered componentFunc and record the resulting channels with the step
// group manager.

// TODO: simplify/consolidate the fact that getComponentWaiter() and setStepControlChan() must receive the same keys per step else shutdown() doesn't work!

// registerStep saves a launched step's channels with its manager.
func registerStep(sgm StepGroupManager, stepName string, out chan stream.Record, control chan components.ControlAction) {
	sgm.setStepControlChan(stepName, control)
	sgm.setStepOutputChan(stepName, out)
}

// optionalStepInput fetches the output channel of the named step, or nil when
// no step name was configured.
func optionalStepInput(sgm StepGroupManager, fromStepName string) chan stream.Record {
	if fromStepName == "" {
		return nil
	}
	return sgm.getStepOutputChan(fromStepName)
}

// atoiOrPanic converts val, aborting the transform with panicPrefix plus the
// conversion error when val is not an integer.
func atoiOrPanic(log logger.Logger, val string, panicPrefix ...interface{}) int {
	n, err := strconv.Atoi(val)
	if err != nil {
		log.Panic(append(panicPrefix, err)...)
	}
	return n
}

func fieldOrDefault(data map[string]string, key string, fallback string) string {
	if data[key] == "" {
		return fallback
	}
	return data[key]
}

func startMetaDataInjection(log logger.Logger, stepName, stepCanonicalName string, sg *StepGroup,
	sgm StepGroupManager, stats StatsManager, panicHandlerFn components.PanicHandlerFunc,
	componentFunc func(cfg interface{}) (chan stream.Record, chan components.ControlAction)) {
	data := sg.Steps[stepName].Data
	out, control := componentFunc(&MetadataInjectionConfig{
		Log:                                 log,
		Name:                                stepCanonicalName,
		InputChan:                           sgm.getStepOutputChan(data["readDataFromStep"]),
		GlobalTransformManager:              sgm.getGlobalTransformManager(),
		TransformGroupName:                  data["executeTransformName"],
		ReplacementVariableWithFieldNameCSV: data["replaceVariableWithFieldNameCSV"],
		ReplacementDateTimeFormat:           data["replaceDateTimeUsingFormat"],
		OutputChanFieldName4JSON:            "mdiOutput",
		StepWatcher:                         stats.AddStepWatcher(stepCanonicalName),
		WaitCounter:                         sgm.getComponentWaiter(stepName),
		PanicHandlerFn:                      panicHandlerFn})
	registerStep(sgm, stepName, out, control)
	sgm.consumeStep(data["readDataFromStep"])
}

func startSqlExec(log logger.Logger, stepName, stepCanonicalName string, sg *StepGroup,
	sgm StepGroupManager, stats StatsManager, panicHandlerFn components.PanicHandlerFunc,
	componentFunc func(cfg interface{}) (chan stream.Record, chan components.ControlAction)) {
	data := sg.Steps[stepName].Data
	// The input channel is optional when a fixed sqlText statement is supplied.
	readDataFromStep := data["readDataFromStep"]
	out, control := componentFunc(&components.SqlExecConfig{
		Log:                      log,
		Name:                     stepCanonicalName,
		InputChan:                optionalStepInput(sgm, readDataFromStep),
		SqlQueryFieldName:        data["sqlQueryFieldName"],
		Sqltext:                  data["sqlText"],
		SqlRowsAffectedFieldName: data["sqlRowsAffectedFieldName"],
		OutputDb:                 sgm.getGlobalTransformManager().getDBConnector(data["databaseConnectionName"]),
		StepWatcher:              stats.AddStepWatcher(stepCanonicalName),
		WaitCounter:              sgm.getComponentWaiter(stepName),
		PanicHandlerFn:           panicHandlerFn})
	registerStep(sgm, stepName, out, control)
	if readDataFromStep != "" {
		sgm.consumeStep(readDataFromStep) // TODO: remove need to call consumeStep(); move this to getStepOutputChan()
	}
}

func startSqlCheck(log logger.Logger, stepName, stepCanonicalName string, sg *StepGroup,
	sgm StepGroupManager, stats StatsManager, panicHandlerFn components.PanicHandlerFunc,
	componentFunc func(cfg interface{}) (chan stream.Record, chan components.ControlAction)) {
	data := sg.Steps[stepName].Data
	// The trigger channel is optional; without it the check runs once immediately.
	readDataFromStep := data["readDataFromStep"]
	out, control := componentFunc(&components.SqlCheckConfig{
		Log:            log,
		Name:           stepCanonicalName,
		InputChan:      optionalStepInput(sgm, readDataFromStep),
		Db:             sgm.getGlobalTransformManager().getDBConnector(data["databaseConnectionName"]),
		CheckName:      data["checkName"],
		TableName:      data["tableName"],
		ColumnName:     data["columnName"],
		Sqltext:        data["sqlText"],
		Severity:       data["severity"],
		StepWatcher:    stats.AddStepWatcher(stepCanonicalName),
		WaitCounter:    sgm.getComponentWaiter(stepName),
		PanicHandlerFn: panicHandlerFn})
	registerStep(sgm, stepName, out, control)
	if readDataFromStep != "" {
		sgm.consumeStep(readDataFromStep)
	}
}

func startTableInput(log logger.Logger, stepName, stepCanonicalName string, sg *StepGroup,
	sgm StepGroupManager, stats StatsManager, panicHandlerFn components.PanicHandlerFunc,
	componentFunc func(cfg interface{}) (chan stream.Record, chan components.ControlAction)) {
	data := sg.Steps[stepName].Data
	out, control := componentFunc(&components.SqlQueryWithArgsConfig{
		Log:            log,
		Name:           stepCanonicalName,
		Db:             sgm.getGlobalTransformManager().getDBConnector(data["databaseConnectionName"]),
		StepWatcher:    stats.AddStepWatcher(stepCanonicalName),
		WaitCounter:    sgm.getComponentWaiter(stepName),
		Sqltext:        data["sqlText"],
		Args:           nil,
		PanicHandlerFn: panicHandlerFn})
	registerStep(sgm, stepName, out, control) // TODO: supply args from previous step as input here.
}

func startTableInputWithArgs(log logger.Logger, stepName, stepCanonicalName string, sg *StepGroup,
	sgm StepGroupManager, stats StatsManager, panicHandlerFn components.PanicHandlerFunc,
	componentFunc func(i interface{}) (chan stream.Record, chan components.ControlAction)) {
	data := sg.Steps[stepName].Data
	readDataFromStep := data["readDataFromStep"]
	log.Debug("Creating TableInputWithArgs (", stepName, ") reading data from step ", readDataFromStep, "...")
	out, control := componentFunc(&components.SqlQueryWithChanConfig{
		Log:             log,
		Name:            stepCanonicalName,
		Db:              sgm.getGlobalTransformManager().getDBConnector(data["databaseConnectionName"]),
		InputChan:       sgm.getStepOutputChan(readDataFromStep),
		InputChanFields: helper.CsvToStringSliceTrimSpaces(data["readDataUsingFields"]),
		Sqltext:         data["sqlText"],
		StepWatcher:     stats.AddStepWatcher(stepCanonicalName),
		WaitCounter:     sgm.getComponentWaiter(stepName),
		PanicHandlerFn:  panicHandlerFn})
	registerStep(sgm, stepName, out, control)
	sgm.consumeStep(readDataFromStep)
}

func startTableInputWithReplacements(log logger.Logger, stepName, stepCanonicalName string, sg *StepGroup,
	sgm StepGroupManager, stats StatsManager, panicHandlerFn components.PanicHandlerFunc,
	componentFunc func(cfg interface{}) (chan stream.Record, chan components.ControlAction)) {
	data := sg.Steps[stepName].Data
	mapTokens, err := helper.CsvStringOfTokensToMap(log, data["replacements"])
	if err != nil {
		log.Panic(stepCanonicalName, " unable to parse SQL string replacements: ", err)
	}
	out, control := componentFunc(&components.SqlQueryWithReplace{
		Log:            log,
		Name:           stepCanonicalName,
		Db:             sgm.getGlobalTransformManager().getDBConnector(data["databaseConnectionName"]),
		StepWatcher:    stats.AddStepWatcher(stepCanonicalName),
		WaitCounter:    sgm.getComponentWaiter(stepName),
		Sqltext:        data["sqlText"],
		Replacements:   mapTokens,
		PanicHandlerFn: panicHandlerFn})
	registerStep(sgm, stepName, out, control)
	sgm.consumeStep(data["readDataFromStep"])
}

func startTableInsert(log logger.Logger, stepName, stepCanonicalName string, sg *StepGroup,
	sgm StepGroupManager, stats StatsManager, panicHandlerFn components.PanicHandlerFunc,
	componentFunc func(cfg interface{}) (chan stream.Record, chan components.ControlAction)) {
	data := sg.Steps[stepName].Data
	out, control := componentFunc(&components.TableInsertConfig{
		Log:             log,
		Name:            stepCanonicalName,
		CommitBatchSize: atoiOrPanic(log, data["commitBatchSize"], stepCanonicalName, " error extracting commitBatchSize from TableInsert: "),
		TxtBatchNumRows: atoiOrPanic(log, data["txtBatchNumRows"], stepCanonicalName, " error extracting txtBatchNumRows from TableInsert: "),
		InputChan:       sgm.getStepOutputChan(data["readDataFromStep"]),
		OutputDb:        sgm.getGlobalTransformManager().getDBConnector(data["databaseConnectionName"]),
		SqlStatementGeneratorConfig: shared.SqlStatementGeneratorConfig{
			Log:             log,
			OutputSchema:    data["outputSchemaName"],
			SchemaSeparator: ".", // TODO: do we externalise this separator?
			OutputTable:     data["outputTable"],
			TargetKeyCols:   helper.TokensToOrderedMap(data["keyCols"]),
			TargetOtherCols: helper.TokensToOrderedMap(data["otherCols"])},
		StepWatcher:    stats.AddStepWatcher(stepCanonicalName),
		WaitCounter:    sgm.getComponentWaiter(stepName),
		PanicHandlerFn: panicHandlerFn})
	registerStep(sgm, stepName, out, control)
	sgm.consumeStep(data["readDataFromStep"])
}

func startS3BucketList(log logger.Logger, stepName, stepCanonicalName string, sg *StepGroup,
	sgm StepGroupManager, stats StatsManager, panicHandlerFn components.PanicHandlerFunc,
	componentFunc func(cfg interface{}) (chan stream.Record, chan components.ControlAction)) {
	data := sg.Steps[stepName].Data
	out, control := componentFunc(&components.S3BucketListerConfig{
		Log:                               log,
		Name:                              stepCanonicalName,
		Region:                            data["bucketRegion"],
		BucketName:                        data["bucketName"],
		BucketPrefix:                      data["bucketPrefix"],
		ObjectNamePrefix:                  data["fileNamePrefix"],
		ObjectNameRegexp:                  data["fileNameRegexp"],
		OutputField4BucketName:            fieldOrDefault(data, "outputField4BucketName", components.Defaults.ChanField4BucketName),
		OutputField4BucketPrefix:          fieldOrDefault(data, "outputField4BucketPrefix", components.Defaults.ChanField4BucketPrefix),
		OutputField4BucketRegion:          fieldOrDefault(data, "outputField4BucketRegion", components.Defaults.ChanField4BucketRegion),
		OutputField4FileName:              data["outputField4FileName"],
		OutputField4FileNameWithoutPrefix: data["outputField4FileNameWithoutPrefix"],
		StepWatcher:                       stats.AddStepWatcher(stepCanonicalName),
		WaitCounter:                       sgm.getComponentWaiter(stepName),
		PanicHandlerFn:                    panicHandlerFn})
	registerStep(sgm, stepName, out, control)
}

func startSnowflakeLoader(log logger.Logger, stepName, stepCanonicalName string, sg *StepGroup,
	sgm StepGroupManager, stats StatsManager, panicHandlerFn components.PanicHandlerFunc,
	componentFunc func(cfg interface{}) (chan stream.Record, chan components.ControlAction)) {
	data := sg.Steps[stepName].Data
	out, control := componentFunc(&components.SnowflakeLoaderConfig{
		Log:                     log,
		Name:                    stepCanonicalName,
		InputChan:               sgm.getStepOutputChan(data["readDataFromStep"]),
		InputChanField4FileName: data["fieldName4FileName"],
		Db:                      sgm.getGlobalTransformManager().getDBConnector(data["logicalConnectionName"]),
		TargetSchemaTableName:   rdbms.SchemaTable{SchemaTable: data["schemaTableName"]},
		StageName:               data["stageName"],
		DeleteAll:               helper.GetTrueFalseStringAsBool(data["deleteAllRows"]),
		FnGetSnowflakeSqlSlice:  components.GetSqlSliceSnowflakeCopyInto,
		StepWatcher:             stats.AddStepWatcher(stepCanonicalName),
		WaitCounter:             sgm.getComponentWaiter(stepName),
		PanicHandlerFn:          panicHandlerFn})
	registerStep(sgm, stepName, out, control)
	sgm.consumeStep(data["readDataFromStep"])
}

func startCSVFileInput(log logger.Logger, stepName, stepCanonicalName string, sg *StepGroup,
	sgm StepGroupManager, stats StatsManager, panicHandlerFn components.PanicHandlerFunc,
	componentFunc func(cfg interface{}) (chan stream.Record, chan components.ControlAction)) {
	data := sg.Steps[stepName].Data
	// The input channel is optional; a fixed fileName may be configured instead.
	readDataFromStep := data["readDataFromStep"]
	out, control := componentFunc(&components.CsvFileInputConfig{
		Log:                      log,
		Name:                     stepCanonicalName,
		InputChan:                optionalStepInput(sgm, readDataFromStep),
		InputChanField4FilePath:  data["inputFieldName4FilePath"],
		FileName:                 data["fileName"],
		HeaderFields:             helper.CsvToStringSliceTrimSpacesRemoveQuotes(data["headerFieldsCSV"]),
		FileHasHeaderRow:         helper.GetTrueFalseStringAsBool(data["fileHasHeaderRow"]),
		OutputChanField4FileName: data["outputFieldName4FileName"],
		StepWatcher:              stats.AddStepWatcher(stepCanonicalName),
		WaitCounter:              sgm.getComponentWaiter(stepName),
		PanicHandlerFn:           panicHandlerFn})
	registerStep(sgm, stepName, out, control)
	if readDataFromStep != "" {
		sgm.consumeStep(readDataFromStep)
	}
}

func startCSVFileWriter(log logger.Logger, stepName, stepCanonicalName string, sg *StepGroup,
	sgm StepGroupManager, stats StatsManager, panicHandlerFn components.PanicHandlerFunc,
	componentFunc func(cfg interface{}) (chan stream.Record, chan components.ControlAction)) {
	data := sg.Steps[stepName].Data
	out, control := componentFunc(&components.CsvFileWriterConfig{
		Log:                               log,
		Name:                              stepCanonicalName,
		InputChan:                         sgm.getStepOutputChan(data["readDataFromStep"]),
		FileNamePrefix:                    data["fileNamePrefix"],
		FileNameSuffixAppendCreationStamp: helper.GetTrueFalseStringAsBool(data["fileNameSuffixAppendCreationStamp"]),
		FileNameSuffixDateFormat:          data["fileNameSuffixDateTimeFormat"],
		FileNameExtension:                 data["fileNameExtension"],
		UseGzip:                           helper.GetTrueFalseStringAsBool(data["useGzip"]),
		HeaderFields:                      helper.CsvToStringSliceTrimSpacesRemoveQuotes(data["headerFieldsCSV"]), // TODO: make this use a safe csv reader.
		OutputDir:                         data["outputDir"],
		MaxFileBytes:                      atoiOrPanic(log, data["maxFileBytes"], stepCanonicalName, " unable to convert maxFileBytes to integer - check it exists in the pipe config: "),
		MaxFileRows:                       atoiOrPanic(log, data["maxFileRows"], stepCanonicalName, " unable to convert maxFileRows to integer - check it exists in the pipe config: "),
		OutputChanField4FilePath:          fieldOrDefault(data, "outputFieldName4FilePath", components.Defaults.ChanField4CSVFileName),
		StepWatcher:                       stats.AddStepWatcher(stepCanonicalName),
		WaitCounter:                       sgm.getComponentWaiter(stepName),
		PanicHandlerFn:                    panicHandlerFn})
	registerStep(sgm, stepName, out, control)
	sgm.consumeStep(data["readDataFromStep"])
}

func startCopyFilesToS3(log logger.Logger, stepName, stepCanonicalName string, sg *StepGroup,
	sgm StepGroupManager, stats StatsManager, panicHandlerFn components.PanicHandlerFunc,
	componentFunc func(cfg interface{}) (chan stream.Record, chan components.ControlAction)) {
	data := sg.Steps[stepName].Data
	out, control := componentFunc(&components.CopyFilesToS3Config{
		Log:               log,
		Name:              stepCanonicalName,
		InputChan:         sgm.getStepOutputChan(data["readDataFromStep"]),
		FileNameChanField: data["inputFieldName4FilePath"],
		BucketName:        data["bucketName"],
		BucketPrefix:      data["bucketPrefix"],
		Region:            data["bucketRegion"],
		RemoveInputFiles:  helper.GetTrueFalseStringAsBool(data["removeInputFiles"]),
		StepWatcher:       stats.AddStepWatcher(stepCanonicalName),
		WaitCounter:       sgm.getComponentWaiter(stepName),
		PanicHandlerFn:    panicHandlerFn})
	registerStep(sgm, stepName, out, control)
	sgm.consumeStep(data["readDataFromStep"])
}

func startChannelBridge(log logger.Logger, stepName, stepCanonicalName string, sg *StepGroup,
	sgm StepGroupManager, stats StatsManager, panicHandlerFn components.PanicHandlerFunc,
	componentFunc func(cfg interface{}) (chan chan stream.Record, chan stream.Record)) {
	in, out := componentFunc(&components.ChannelBridgeConfig{
		Log:            log,
		Name:           stepCanonicalName,
		StepWatcher:    stats.AddStepWatcher(stepCanonicalName),
		WaitCounter:    sgm.getComponentWaiter(stepName),
		PanicHandlerFn: panicHandlerFn})
	// The bridge asks for its input later and never closes by itself.
	sgm.requestChanInput(stepName, sg.Steps[stepName].Data["readDataFromStep"], in)
	sgm.setStepOutputChan(stepName, out)
	sgm.addBlockingStep(stepName, in)
}

func startChannelCombiner(log logger.Logger, stepName, stepCanonicalName string, sg *StepGroup,
	sgm StepGroupManager, stats StatsManager, panicHandlerFn components.PanicHandlerFunc,
	componentFunc func(cfg interface{}) (chan stream.Record, chan components.ControlAction)) {
	data := sg.Steps[stepName].Data
	out, control := componentFunc(&components.ChannelCombinerConfig{
		Log:            log,
		Name:           stepCanonicalName,
		Chan1:          sgm.getStepOutputChan(data["readDataFromStep1"]),
		Chan2:          sgm.getStepOutputChan(data["readDataFromStep2"]),
		StepWatcher:    stats.AddStepWatcher(stepCanonicalName),
		WaitCounter:    sgm.getComponentWaiter(stepName),
		PanicHandlerFn: panicHandlerFn})
	registerStep(sgm, stepName, out, control)
	sgm.consumeStep(data["readDataFromStep1"])
	sgm.consumeStep(data["readDataFromStep2"])
}

func startManifestWriter(log logger.Logger, stepName, stepCanonicalName string, sg *StepGroup,
	sgm StepGroupManager, stats StatsManager, panicHandlerFn components.PanicHandlerFunc,
	componentFunc func(cfg interface{}) (chan stream.Record, chan components.ControlAction)) {
	data := sg.Steps[stepName].Data
	out, control := componentFunc(&components.ManifestWriterConfig{
		Log:                     log,
		Name:                    stepCanonicalName,
		InputChan:               sgm.getStepOutputChan(data["readDataFromStep"]),
		InputChanField4FilePath: fieldOrDefault(data, "inputFieldName4FilePath", components.Defaults.ChanField4CSVFileName),
		OutputDir:               data["outputDir"],
		ManifestFileNamePrefix:  data["fileNamePrefix"],
		ManifestFileNameSuffixAppendCreationStamp: helper.GetTrueFalseStringAsBool(data["fileNameSuffixAppendCreationStamp"]),
		ManifestFileNameSuffixDateFormat:          data["fileNameSuffixDateTimeFormat"],
		ManifestFileNameExtension:                 data["fileNameExtension"],
		OutputChanField4ManifestDir:               data["outputFieldName4ManifestDir"],
		OutputChanField4ManifestName:              data["outputFieldName4ManifestName"],
		OutputChanField4ManifestFullPath:          data["outputFieldName4ManifestFullPath"],
		StepWatcher:                               stats.AddStepWatcher(stepCanonicalName),
		WaitCounter:                               sgm.getComponentWaiter(stepName),
		PanicHandlerFn:                            panicHandlerFn})
	registerStep(sgm, stepName, out, control)
	sgm.consumeStep(data["readDataFromStep"])
}

func startManifestReader(log logger.Logger, stepName, stepCanonicalName string, sg *StepGroup,
	sgm StepGroupManager, stats StatsManager, panicHandlerFn components.PanicHandlerFunc,
	componentFunc func(cfg interface{}) (chan stream.Record, chan components.ControlAction)) {
	data := sg.Steps[stepName].Data
	out, control := componentFunc(&components.S3ManifestReaderConfig{
		Log:                          log,
		Name:                         stepCanonicalName,
		InputChan:                    sgm.getStepOutputChan(data["readDataFromStep"]),
		InputChanField4ManifestName:  data["inputFieldName4ManifestName"],
		BucketName:                   data["bucketName"],
		BucketPrefix:                 data["bucketPrefix"],
		Region:                       data["bucketRegion"],
		OutputChanField4DataFileName: data["outputFieldName4DataFileName"],
		StepWatcher:                  stats.AddStepWatcher(stepCanonicalName),
		WaitCounter:                  sgm.getComponentWaiter(stepName),
		PanicHandlerFn:               panicHandlerFn})
	registerStep(sgm, stepName, out, control)
	sgm.consumeStep(data["readDataFromStep"])
}

func startDateRangeGenerator(log logger.Logger, stepName, stepCanonicalName string, sg *StepGroup,
	sgm StepGroupManager, stats StatsManager, panicHandlerFn components.PanicHandlerFunc,
	componentFunc func(cfg interface{}) (chan stream.Record, chan components.ControlAction)) {
	data := sg.Steps[stepName].Data
	intervalSec := atoiOrPanic(log, data["intervalSeconds"], stepCanonicalName, " unable to fetch intervalSeconds required for DateRangeGenerator: ")
	passInputFields, err := strconv.ParseBool(data["passInputFieldsToOutput"])
	if err != nil {
		log.Debug(stepCanonicalName, " unable to parse boolean value found in config field passInputFieldsToOutput: ", err, " - using default false")
		passInputFields = false
	}
	out, control := componentFunc(&components.DateRangeGeneratorConfig{
		Log:                         log,
		Name:                        stepCanonicalName,
		InputChan:                   sgm.getStepOutputChan(data["readDataFromStep"]),
		InputChanFieldName4FromDate: data["inputFieldName4FromDate"],
		InputChanFieldName4ToDate:   data["inputFieldName4ToDate"],
		ToDateRFC3339orNow:          data["toDate"],
		UseUTC:                      helper.GetTrueFalseStringAsBool(data["useUTC"]),
		IntervalSizeSeconds:         intervalSec,
		OutputChanFieldName4LowDate: data["outputFieldName4LowDate"],
		OutputChanFieldName4HiDate:  data["outputFieldName4HiDate"],
		PassInputFieldsToOutput:     passInputFields,
		StepWatcher:                 stats.AddStepWatcher(stepCanonicalName),
		WaitCounter:                 sgm.getComponentWaiter(stepName),
		PanicHandlerFn:              panicHandlerFn})
	registerStep(sgm, stepName, out, control)
	sgm.consumeStep(data["readDataFromStep"])
}

func startGenerateRows(log logger.Logger, stepName, stepCanonicalName string, sg *StepGroup,
	sgm StepGroupManager, stats StatsManager, panicHandlerFn components.PanicHandlerFunc,
	componentFunc func(cfg interface{}) (chan stream.Record, chan components.ControlAction)) {
	data := sg.Steps[stepName].Data
	out, control := componentFunc(&components.GenerateRowsConfig{
		Log:                    log,
		Name:                   stepCanonicalName,
		MapFieldNamesValuesCSV: data["fieldNamesValuesCSV"],
		FieldName4Sequence:     data["sequenceFieldName"],
		NumRows:                atoiOrPanic(log, data["numRows"], stepCanonicalName, " error: "),
		SleepIntervalSeconds:   atoiOrPanic(log, data["sleepIntervalSeconds"], stepCanonicalName, " unable to read sleepIntervalSeconds required for GenerateRows: "),
		StepWatcher:            stats.AddStepWatcher(stepCanonicalName),
		WaitCounter:            sgm.getComponentWaiter(stepName),
		PanicHandlerFn:         panicHandlerFn})
	registerStep(sgm, stepName, out, control)
}

func startFilterRows(log logger.Logger, stepName, stepCanonicalName string, sg *StepGroup,
	sgm StepGroupManager, stats StatsManager, panicHandlerFn components.PanicHandlerFunc,
	componentFunc func(cfg interface{}) (chan stream.Record, chan components.ControlAction)) {
	data := sg.Steps[stepName].Data
	out, control := componentFunc(&components.FilterRowsConfig{
		Log:            log,
		Name:           stepCanonicalName,
		InputChan:      sgm.getStepOutputChan(data["readDataFromStep"]),
		FilterType:     components.FilterType(data["filterType"]),
		FilterMetadata: components.FilterMetadata(data["filterMetadata"]),
		StepWatcher:    stats.AddStepWatcher(stepCanonicalName),
		WaitCounter:    sgm.getComponentWaiter(stepName),
		PanicHandlerFn: panicHandlerFn})
	registerStep(sgm, stepName, out, control)
	sgm.consumeStep(data["readDataFromStep"])
}

func startFieldMapper(log logger.Logger, stepName, stepCanonicalName string, sg *StepGroup,
	sgm StepGroupManager, stats StatsManager, panicHandlerFn components.PanicHandlerFunc,
	componentFunc func(cfg interface{}) (chan stream.Record, chan components.ControlAction)) {
	data := sg.Steps[stepName].Data
	out, control := componentFunc(&components.FieldMapperConfig{
		Log:            log,
		Name:           stepCanonicalName,
		InputChan:      sgm.getStepOutputChan(data["readDataFromStep"]),
		Steps:          sg.Steps[stepName].ComponentSteps,
		StepWatcher:    stats.AddStepWatcher(stepCanonicalName),
		WaitCounter:    sgm.getComponentWaiter(stepName),
		PanicHandlerFn: panicHandlerFn})
	registerStep(sgm, stepName, out, control)
	sgm.consumeStep(data["readDataFromStep"])
}

func startStdOutPassThrough(log logger.Logger, stepName, stepCanonicalName string, sg *StepGroup,
	sgm StepGroupManager, stats StatsManager, panicHandlerFn components.PanicHandlerFunc,
	componentFunc func(cfg interface{}) (chan stream.Record, chan components.ControlAction)) {
	data := sg.Steps[stepName].Data
	abortAfter := 0
	if data["abortAfterNumRecords"] != "" {
		abortAfter = atoiOrPanic(log, data["abortAfterNumRecords"],
			stepCanonicalName, " error reading abortAfterNumRecords required for StdOutPassThrough: ")
	}
	out, control := componentFunc(&components.StdOutPassThroughConfig{
		Log:             log,
		Name:            stepCanonicalName,
		Writer:          os.Stdout,
		OutputFields:    helper.CsvToStringSliceTrimSpaces2(data["outputFieldsCsv"]),
		AbortAfterCount: int64(abortAfter),
		InputChan:       sgm.getStepOutputChan(data["readDataFromStep"]),
		StepWatcher:     stats.AddStepWatcher(stepCanonicalName),
		WaitCounter:     sgm.getComponentWaiter(stepName),
		PanicHandlerFn:  panicHandlerFn})
	registerStep(sgm, stepName, out, control)
	sgm.consumeStep(data["readDataFromStep"])
}
