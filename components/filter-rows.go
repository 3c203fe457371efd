package components

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/diegoholiveira/jsonlogic"
	c "github.com/martpipe/martpipe/constants"
	"github.com/martpipe/martpipe/helper"
	log "github.com/martpipe/martpipe/logger"
	"github.com/martpipe/martpipe/stats"
	"github.com/martpipe/martpipe/stream"
)

type FilterType string
type FilterMetadata string

type filterFunc func(data stream.Record) (stream.Record, error)
type filterSetupFunc func(log log.Logger, metadata FilterMetadata) (filterFunc, error)

const (
	filterRowsGetMax          = "GetMax"
	filterRowsLastRowInStream = "LastRow"
	filterRowsJsonLogic       = "JsonLogic"
	filterRowsAbortAfter      = "AbortAfter"
)

// filterTypes maps a FilterType to its setup func. A filter sees every input
// record and is called one final time with a nil record so accumulating
// filters (GetMax, LastRow) can emit their result after the stream ends.
var filterTypes = map[FilterType]filterSetupFunc{
	filterRowsGetMax:          setupFilterGetMax,     // FilterMetadata names the field whose maximum is kept.
	filterRowsLastRowInStream: setupLastRowInStream,  // FilterMetadata is unused.
	filterRowsJsonLogic:       setupJsonLogicFilter,  // FilterMetadata is the JSON Logic rule.
	filterRowsAbortAfter:      setupAbortAfterFilter, // FilterMetadata is the max record count.
}

var errFilterAbortAfterExceededCount = errors.New("record count exceeded")

type FilterRowsConfig struct {
	Log            log.Logger
	Name           string
	InputChan      chan stream.Record
	FilterType     FilterType     // one of the keys in the filterTypes map.
	FilterMetadata FilterMetadata // meaning depends on the filter type, see filterTypes.
	StepWatcher    *stats.StepWatcher
	WaitCounter    ComponentWaiter
	PanicHandlerFn PanicHandlerFunc
}

// NewFilterRows accepts a FilterRowsConfig{} and forwards only the rows the
// configured filter lets through.
func NewFilterRows(i interface{}) (outputChan chan stream.Record, controlChan chan ControlAction) {
	cfg := i.(*FilterRowsConfig)
	setupFilter, ok := filterTypes[cfg.FilterType]
	if !ok {
		cfg.Log.Panic("unable to find filter function using name ", cfg.FilterType)
	}
	fnFilter, err := setupFilter(cfg.Log, cfg.FilterMetadata)
	if err != nil {
		cfg.Log.Panic("unable to setup filter %v: ", cfg.FilterType, err)
	}
	outputChan = make(chan stream.Record, c.ChanSize)
	controlChan = make(chan ControlAction, 1)
	go func() {
		if cfg.PanicHandlerFn != nil {
			defer cfg.PanicHandlerFn()
		}
		if cfg.WaitCounter != nil {
			cfg.WaitCounter.Add()
			defer cfg.WaitCounter.Done()
		}
		rowCount := int64(0)
		if cfg.StepWatcher != nil { // if we have been given a StepWatcher struct that can watch our rowCount and output channel length...
			cfg.StepWatcher.StartWatching(&rowCount, &outputChan)
			defer cfg.StepWatcher.StopWatching()
		}
		cfg.Log.Info(cfg.Name, " is running")
		// Run the filter and forward whatever it returns.
		filterAndSend := func(rec stream.Record) {
			out, err := fnFilter(rec)
			if err != nil { // if the filter failed (AbortAfter does this deliberately)...
				cfg.Log.Panic(cfg.Name, " aborting due to error: ", err)
			}
			if !out.RecordIsNil() { // if the filter produced a record...
				safeSend(out, outputChan, controlChan, sendNilControlResponse)
			}
		}
		var controlAction ControlAction
		for { // for each row of input...
			select {
			case rec, ok := <-cfg.InputChan:
				if !ok { // if the input channel was closed...
					cfg.InputChan = nil // disable this case.
				} else {
					filterAndSend(rec)
					atomic.AddInt64(&rowCount, 1) // increment the row count bearing in mind someone else is reporting on its values.
				}
			case controlAction = <-controlChan: // if we have been asked to shutdown...
			}
			if cfg.InputChan == nil || controlAction.Action == Shutdown {
				break
			}
		}
		if controlAction.Action == Shutdown { // if we were asked to shutdown...
			controlAction.ResponseChan <- nil // respond that we're done with a nil error.
			cfg.Log.Info(cfg.Name, " shutdown")
			return
		}
		if atomic.AddInt64(&rowCount, 0) > 0 { // if any records passed through...
			filterAndSend(stream.NewNilRecord()) // a nil record lets accumulating filters emit their result.
		}
		close(outputChan) // we're done so close the channel we created.
		cfg.Log.Info(cfg.Name, " complete")
	}()
	return
}

// setupFilterGetMax keeps the record holding the greatest value of the field
// named in metadata, comparing values as UTC strings, and emits that record
// when the nil end-of-stream record arrives.
func setupFilterGetMax(log log.Logger, metadata FilterMetadata) (filterFunc, error) {
	maxData := make(map[string]interface{})
	var maxValue string
	firstTime := true
	saveMax := func(data map[string]interface{}) {
		for key, value := range data {
			maxData[key] = value
		}
	}
	return func(data stream.Record) (stream.Record, error) {
		if data.RecordIsNil() { // if the stream has ended...
			rec := stream.NewRecord()
			for key, value := range maxData {
				rec.SetData(key, value)
			}
			log.Trace("setupFilterGetMax found max record: ", rec.GetDataMap()) // TODO: replace trace dump of map with ability to debug a step output at will.
			return rec, nil
		}
		dataMap := data.GetDataMap()
		newValue := helper.GetStringFromInterfaceUseUtcTime(log, dataMap[string(metadata)])
		if firstTime || newValue > maxValue { // if this row carries a new maximum...
			saveMax(dataMap)
			maxValue = newValue
			firstTime = false
		}
		return stream.NewNilRecord(), nil
	}, nil
}

// setupLastRowInStream remembers each record it sees and emits the final one
// when the nil end-of-stream record arrives. Metadata is unused.
func setupLastRowInStream(log log.Logger, metadata FilterMetadata) (filterFunc, error) {
	lastRec := make(map[string]interface{})
	return func(data stream.Record) (stream.Record, error) {
		if data.RecordIsNil() { // if the stream has ended...
			rec := stream.NewRecord()
			for key, value := range lastRec {
				rec.SetData(key, value)
			}
			return rec, nil
		}
		for key, value := range data.GetDataMap() {
			lastRec[key] = value
		}
		return stream.NewNilRecord(), nil // nothing to emit until the end.
	}, nil
}

// setupJsonLogicFilter passes records for which the JSON Logic rule supplied
// in metadata evaluates to true. Each record is marshalled to JSON so the rule
// can reference its fields by name.
func setupJsonLogicFilter(log log.Logger, metadata FilterMetadata) (filterFunc, error) {
	rule := string(metadata)
	if !jsonlogic.IsValid(strings.NewReader(rule)) {
		return nil, fmt.Errorf("invalid %v rule: %v", filterRowsJsonLogic, metadata)
	}
	var result bytes.Buffer
	return func(data stream.Record) (stream.Record, error) {
		if !data.RecordIsNil() {
			result.Reset()
			if err := applyJsonLogic(data, rule, &result); err != nil {
				log.Panic(err)
			}
			if strings.TrimSpace(result.String()) == "true" { // if the rule accepts the record...
				return data, nil
			}
		}
		return stream.NewNilRecord(), nil
	}, nil
}

// setupAbortAfterFilter passes records through untouched but errors once more
// than the number given in metadata have been seen. A max of 0 disables the
// count and passes everything.
func setupAbortAfterFilter(log log.Logger, metadata FilterMetadata) (filterFunc, error) {
	max, err := strconv.Atoi(string(metadata))
	if err != nil {
		return nil, fmt.Errorf("error converting filter metadata value '%v' to an integer: %w", metadata, err)
	}
	count := 0
	return func(data stream.Record) (stream.Record, error) {
		if !data.RecordIsNil() {
			count++
			if max != 0 && count > max { // if we have passed more rows than allowed...
				return stream.NewNilRecord(), errFilterAbortAfterExceededCount
			}
		}
		return data, nil
	}, nil
}
