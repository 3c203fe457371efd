package components

import (
	"fmt"
	"reflect"
	"sync/atomic"
	"time"

	c "github.com/martpipe/martpipe/constants"
	log "github.com/martpipe/martpipe/logger"
	"github.com/martpipe/martpipe/stats"
	"github.com/martpipe/martpipe/stream"
)

type DateRangeGeneratorConfig struct {
	Log                         log.Logger
	Name                        string
	InputChan                   chan stream.Record // input channel containing the FromDate (and optionally the ToDate) per record
	InputChanFieldName4FromDate string             // name of the field on InputChan which contains the FromDate, a time.Time or date string
	InputChanFieldName4ToDate   string             // optional name of the field on InputChan which contains the ToDate; used when ToDateRFC3339orNow is empty
	ToDateRFC3339orNow          string             // literal "now" or a time formatted per RFC3339; takes precedence over InputChanFieldName4ToDate
	UseUTC                      bool               // convert the resolved ToDate to UTC
	IntervalSizeSeconds         int                // number of seconds to split the difference between FromDate and ToDate into
	OutputChanFieldName4LowDate string
	OutputChanFieldName4HiDate  string
	PassInputFieldsToOutput     bool
	StepWatcher                 *stats.StepWatcher
	WaitCounter                 ComponentWaiter
	PanicHandlerFn              PanicHandlerFunc
}

// NewDateRangeGenerator will:
// Read the input chan to get the FromDate, and the ToDate if one is not configured, per input row.
// Calculate the number of intervals between FromDate and ToDate using the interval size in seconds.
// Output N rows with low and high values of type time.Time.
// The ToDate is resolved per input row: literal "now" becomes the current time truncated to the
// second; an RFC3339 string is parsed; otherwise the field named by InputChanFieldName4ToDate is
// read from the input record.
func NewDateRangeGenerator(i interface{}) (outputChan chan stream.Record, controlChan chan ControlAction) {
	cfg := i.(*DateRangeGeneratorConfig)
	outputChan = make(chan stream.Record, c.ChanSize)
	controlChan = make(chan ControlAction, 1)
	if cfg.IntervalSizeSeconds <= 0 {
		cfg.Log.Panic(cfg.Name, " aborting due to interval size <= 0 seconds which causes infinite loop")
	}
	if cfg.ToDateRFC3339orNow == "" && cfg.InputChanFieldName4ToDate == "" {
		cfg.Log.Panic(cfg.Name, " aborting due to missing configuration: supply one of ToDateRFC3339orNow or InputChanFieldName4ToDate")
	}
	interval := time.Duration(cfg.IntervalSizeSeconds) * time.Second
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
		if cfg.StepWatcher != nil { // if we have been given a StepWatcher struct that can watch our rowCount and output channel length...
			cfg.StepWatcher.StartWatching(&rowCount, &outputChan)
			defer cfg.StepWatcher.StopWatching()
		}
		// Emit a low date and hi date record.
		sendRow := func(inputRec stream.Record, fromDate time.Time, toDate time.Time) (rowSentOK bool) {
			rec := stream.NewRecord()
			if cfg.PassInputFieldsToOutput {
				inputRec.CopyTo(rec) // ensure the output record contains the input fields.
			}
			rec.SetData(cfg.OutputChanFieldName4LowDate, fromDate)
			rec.SetData(cfg.OutputChanFieldName4HiDate, toDate)
			rowSentOK = safeSend(rec, outputChan, controlChan, sendNilControlResponse) // forward the record
			if rowSentOK {
				cfg.Log.Debug(cfg.Name, " generated: lowDate=", fromDate, "; highDate=", toDate)
			}
			return
		}
		// Resolve the upper bound for a given input record.
		getToDate := func(rec stream.Record) time.Time {
			var toDate time.Time
			var err error
			if cfg.ToDateRFC3339orNow == "now" { // if we should use the time now...
				toDate = time.Now().Truncate(time.Second)
			} else if cfg.ToDateRFC3339orNow != "" { // else we were given an explicit date-time...
				toDate, err = time.Parse(time.RFC3339, cfg.ToDateRFC3339orNow)
				if err != nil {
					cfg.Log.Panic(cfg.Name, " error parsing ToDate: ", err)
				}
			} else { // else fetch the ToDate from the input record...
				toDate, err = getTimeFromInterface(rec.GetData(cfg.InputChanFieldName4ToDate))
				if err != nil {
					cfg.Log.Panic(cfg.Name, " error fetching input field for ToDate: ", err)
				}
			}
			if cfg.UseUTC {
				toDate = toDate.UTC()
			}
			return toDate
		}
		// Iterate over the input records.
		var controlAction ControlAction
		for { // for each FromDate record...
			select {
			case rec, ok := <-cfg.InputChan:
				if !ok { // if the input chan was closed...
					cfg.InputChan = nil // disable this case.
				} else {
					fromDate, err := getTimeFromInterface(rec.GetData(cfg.InputChanFieldName4FromDate))
					if err != nil {
						cfg.Log.Panic(cfg.Name, " error fetching input field for FromDate: ", err)
					}
					toDate := getToDate(rec)
					cfg.Log.Info(cfg.Name, " splitting date range ", fromDate, " to ", toDate, " using interval of ", cfg.IntervalSizeSeconds, " seconds")
					// Add the increment and emit rows until it is greater than the ToDate.
					rangeRowCount := int64(0)
					for { // while we are outputting less than ToDate...
						to := fromDate.Add(interval)
						if to.After(toDate) { // if this increment overruns the high date...
							break // don't output a row!
						}
						if rowSentOK := sendRow(rec, fromDate, to); !rowSentOK {
							return
						}
						atomic.AddInt64(&rowCount, 1) // increment the row count bearing in mind someone else is reporting on its values.
						rangeRowCount++
						fromDate = to // save FromDate with increment added.
					}
					if fromDate.Before(toDate) || rangeRowCount == 0 {
						// if we have a final portion of the range to output a row for;
						// or we have not output a row (i.e. when FromDate = ToDate)...
						if rowSentOK := sendRow(rec, fromDate, toDate); !rowSentOK { // emit the final gap.
							return
						}
						atomic.AddInt64(&rowCount, 1) // add a row count.
					}
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
		close(outputChan) // we're done so close the channel we created.
		cfg.Log.Info(cfg.Name, " complete")
	}()
	return
}

func getTimeFromInterface(input interface{}) (t time.Time, err error) {
	switch v := input.(type) {
	case time.Time:
		t = v
	case string: // accept RFC3339 or plain dates so literal fields can supply the range.
		t, err = time.Parse(time.RFC3339, v)
		if err != nil {
			t, err = time.Parse(c.TimeFormatDate, v)
		}
	default:
		err = fmt.Errorf("unexpected data type during conversion - expected time.Time or a date string, got: %v; value=%v", reflect.TypeOf(input), input)
	}
	return
}
