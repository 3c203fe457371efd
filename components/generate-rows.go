package components

import (
	"strings"
	"sync/atomic"
	"time"

	c "github.com/martpipe/martpipe/constants"
	"github.com/martpipe/martpipe/helper"
	"github.com/martpipe/martpipe/logger"
	"github.com/martpipe/martpipe/stats"
	"github.com/martpipe/martpipe/stream"
)

type GenerateRowsConfig struct {
	Log                    logger.Logger
	Name                   string
	FieldName4Sequence     string // optional field name to hold a 1-based sequence number on the outputChan.
	MapFieldNamesValuesCSV string // optional CSV string of fieldName:fieldValue tokens to stamp onto every row.
	NumRows                int    // number of rows to generate on outputChan.
	SleepIntervalSeconds   int    // seconds to sleep before emitting each row.
	StepWatcher            *stats.StepWatcher
	WaitCounter            ComponentWaiter
	PanicHandlerFn         PanicHandlerFunc
}

// NewGenerateRows emits NumRows records built from the configured
// fieldName:value pairs, optionally adding a sequence number field.
// At least one of the two must be configured.
func NewGenerateRows(i interface{}) (outputChan chan stream.Record, controlChan chan ControlAction) {
	cfg := i.(*GenerateRowsConfig)
	outputChan = make(chan stream.Record, c.ChanSize)
	controlChan = make(chan ControlAction, 1)
	fieldName4Seq := strings.TrimSpace(cfg.FieldName4Sequence)
	mapFields, err := helper.CsvStringOfTokensToMap(cfg.Log, cfg.MapFieldNamesValuesCSV)
	if err != nil {
		cfg.Log.Panic(cfg.Name, " unable to parse field name:value pairs in GenerateRows step: ", err)
	}
	if len(mapFields) == 0 && fieldName4Seq == "" { // nothing to output.
		cfg.Log.Panic(cfg.Name, " received bad config - please supply either a field name for output row sequence number or a CSV of field-name:values")
	}
	fnShutdown := func(c ControlAction) {
		c.ResponseChan <- nil // a nil error signals a clean shutdown.
		cfg.Log.Info(cfg.Name, " shutdown")
	}
	go func() {
		if cfg.PanicHandlerFn != nil {
			defer cfg.PanicHandlerFn()
		}
		cfg.Log.Info(cfg.Name, " is running")
		if cfg.WaitCounter != nil {
			cfg.WaitCounter.Add()
			defer cfg.WaitCounter.Done()
		}
		rowCount := int64(0)
		if cfg.StepWatcher != nil {
			cfg.StepWatcher.StartWatching(&rowCount, &outputChan)
			defer cfg.StepWatcher.StopWatching()
		}
		for idx := 0; idx < cfg.NumRows; idx++ {
			if cfg.SleepIntervalSeconds > 0 { // sleep before emitting. This is tested for!
				cfg.Log.Debug(cfg.Name, " sleeping ", cfg.SleepIntervalSeconds, " seconds")
				select { // remain responsive to shutdown requests while asleep.
				case <-time.After(time.Duration(cfg.SleepIntervalSeconds) * time.Second):
				case controlAction := <-controlChan:
					fnShutdown(controlAction)
					return
				}
			}
			rec := stream.NewRecord()
			for k, v := range mapFields {
				rec.SetData(k, v)
			}
			// The row count is incremented atomically as the StepWatcher reads it concurrently.
			seq := atomic.AddInt64(&rowCount, 1)
			if fieldName4Seq != "" {
				rec.SetData(fieldName4Seq, seq)
			}
			select {
			case outputChan <- rec:
			case controlAction := <-controlChan:
				fnShutdown(controlAction)
				return
			}
		}
		// TODO: find a way to notify clients that components can't be shutdown if they complete gracefully
		close(outputChan)
		cfg.Log.Info(cfg.Name, " complete")
	}()
	return
}
