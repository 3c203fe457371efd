package transform

import (
	"encoding/json"
	"strings"
	"sync/atomic"
	"time"

	"github.com/martpipe/martpipe/components"
	c "github.com/martpipe/martpipe/constants"
	"github.com/martpipe/martpipe/helper"
	"github.com/martpipe/martpipe/logger"
	"github.com/martpipe/martpipe/stats"
	"github.com/martpipe/martpipe/stream"
)

type MetadataInjectionConfig struct {
	Log                                 logger.Logger
	Name                                string
	InputChan                           chan stream.Record // records carrying the values to inject.
	GlobalTransformManager              TransformManager   // used to spawn a StepGroupManager per injected run.
	TransformGroupName                  string             // transform group to launch.
	ReplacementVariableWithFieldNameCSV string             // CSV of "<variable in the group's JSON>:<field name on InputChan>" tokens.
	ReplacementDateTimeFormat           string             // time.Format layout applied when the injected field is a time.Time.
	OutputChanFieldName4JSON            string
	StepWatcher                         *stats.StepWatcher
	WaitCounter                         components.ComponentWaiter
	PanicHandlerFn                      components.PanicHandlerFunc
}

// NewMetadataInjection runs the target transform group once per input record,
// substituting values from that record into the group definition first.
// The group is marshalled to JSON once up front; for each record the
// variables named in ReplacementVariableWithFieldNameCSV are string-replaced
// with the record's field values, the result is unmarshalled back to a
// StepGroup and executed to completion. Each replaced JSON string is also
// emitted on the output channel under OutputChanFieldName4JSON.
// Time values are formatted with ReplacementDateTimeFormat, zone preserved.
func NewMetadataInjection(i interface{}) (outputChan chan stream.Record, controlChan chan components.ControlAction) {
	cfg := i.(*MetadataInjectionConfig)
	if cfg.PanicHandlerFn != nil {
		defer cfg.PanicHandlerFn()
	}
	outputChan = make(chan stream.Record, c.ChanSize)
	controlChan = make(chan components.ControlAction, 1)
	cfg.Log.Info(cfg.Name, " is running...")
	if cfg.WaitCounter != nil {
		cfg.WaitCounter.Add()
		defer cfg.WaitCounter.Done()
	}
	rowCount := int64(0)
	if cfg.StepWatcher != nil { // if a StepWatcher will report our rowCount and output channel length...
		cfg.StepWatcher.StartWatching(&rowCount, &outputChan)
		defer cfg.StepWatcher.StopWatching()
	}
	replacements, err := helper.CsvStringOfTokensToMap(cfg.Log, cfg.ReplacementVariableWithFieldNameCSV)
	if err != nil {
		cfg.Log.Fatal(err)
	}
	if len(replacements) <= 0 {
		cfg.Log.Fatal(cfg.Name, " no replacements found for meta data injection")
	}
	jsonOrig, err := json.Marshal(cfg.GlobalTransformManager.getTransformStepGroup(cfg.TransformGroupName))
	if err != nil {
		cfg.Log.Fatal(cfg.Name, " error - unable to marshal JSON: ", err)
	}
	jsonOrigStr := string(jsonOrig) // cast/copy once.
	injectAndRun := func(rec stream.Record) {
		atomic.AddInt64(&rowCount, 1) // increment the row count bearing in mind someone else is reporting on its values.
		replacedJson := jsonOrigStr
		for v, f := range replacements { // for each variable:fieldName to replace...
			if t, ok := rec.GetData(f).(time.Time); ok { // if the record field is a Time...
				replacedJson = strings.Replace(replacedJson, v, t.Format(cfg.ReplacementDateTimeFormat), -1)
			} else {
				replacedJson = strings.Replace(replacedJson, v, rec.GetDataAsStringPreserveTimeZone(cfg.Log, f), -1)
			}
		}
		cfg.Log.Debug(cfg.Name, " generated dynamic transform: ", replacedJson)
		rec2 := stream.NewRecord()
		rec2.SetData(cfg.OutputChanFieldName4JSON, replacedJson)
		outputChan <- rec2
		newTG := StepGroup{}
		if err := json.Unmarshal([]byte(replacedJson), &newTG); err != nil {
			cfg.Log.Panic("error un-marshalling JSON after metadata injection")
		}
		cfg.Log.Info(cfg.Name, " launching transform group ", cfg.TransformGroupName)
		s := stats.NewTransformStats(cfg.Log)
		stepMgr := cfg.GlobalTransformManager.newStepGroupManager(cfg.TransformGroupName)
		StartStepGroup(cfg.Log, &newTG, stepMgr, s, getComponentFuncsWithMetadataInjection(), cfg.PanicHandlerFn)
		s.StartDumping()
		stepMgr.waitForCompletion() // block until the injected group's output steps drain.
		s.StopDumping()
	}
	go func() {
		for {
			select {
			case rec, ok := <-cfg.InputChan: // for each record of metadata to inject...
				if !ok { // if the input channel was closed...
					cfg.InputChan = nil // disable this case.
				} else {
					injectAndRun(rec)
				}
			case controlAction := <-controlChan: // if we were asked to shutdown...
				controlAction.ResponseChan <- nil // respond that we're done with a nil error.
				cfg.Log.Info(cfg.Name, " shutdown")
				return
			}
			if cfg.InputChan == nil { // if we processed all rows...
				break
			}
		}
		close(outputChan)
		cfg.Log.Info(cfg.Name, " complete.")
	}()
	return
}
