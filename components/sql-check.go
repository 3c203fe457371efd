package components

import (
	"fmt"
	"reflect"
	"strconv"
	"sync/atomic"

	c "github.com/martpipe/martpipe/constants"
	"github.com/martpipe/martpipe/logger"
	"github.com/martpipe/martpipe/rdbms/shared"
	s "github.com/martpipe/martpipe/stats"
	"github.com/martpipe/martpipe/stream"
)

type SqlCheckConfig struct {
	Log            logger.Logger
	Name           string
	InputChan      chan stream.Record // optional trigger channel; the check runs once per input record, or once when nil.
	Db             shared.Connector
	CheckName      string
	TableName      string
	ColumnName     string // empty for table-level checks.
	Sqltext        string // query whose first row, first column is the violation count.
	Severity       string // error|warn; empty defaults to error.
	StepWatcher    *s.StepWatcher
	WaitCounter    ComponentWaiter
	PanicHandlerFn PanicHandlerFunc
}

// NewSqlCheck runs a data quality check by executing SQL that returns a violation count.
// A count of zero emits a passed result record; a non-zero count either panics (severity
// error) or logs a warning and emits a warned result record (severity warn).
// When InputChan is supplied the check runs once per input record, so it can be chained
// after the step that builds the table it validates.
func NewSqlCheck(i interface{}) (outputChan chan stream.Record, controlChan chan ControlAction) {
	cfg := i.(*SqlCheckConfig)
	if cfg.Severity == "" {
		cfg.Severity = c.CheckSeverityError
	}
	if cfg.Severity != c.CheckSeverityError && cfg.Severity != c.CheckSeverityWarn {
		cfg.Log.Panic(cfg.Name, " unsupported check severity '", cfg.Severity, "' - use one of: ", c.CheckSeverityError, ", ", c.CheckSeverityWarn)
	}
	if cfg.Sqltext == "" {
		cfg.Log.Panic(cfg.Name, " missing SQL for check ", cfg.CheckName)
	}
	if cfg.Db == nil {
		cfg.Log.Panic(cfg.Name, " unexpected nil database connection")
	}
	outputChan = make(chan stream.Record, c.ChanSize)
	controlChan = make(chan ControlAction, 1)
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
		// Run the check and emit one result record.
		runCheck := func() (rowSentOK bool) {
			violations := mustGetViolationCount(cfg)
			status := c.CheckStatusPassed
			if violations > 0 { // if the check found rows in violation...
				if cfg.Severity == c.CheckSeverityError {
					cfg.Log.Panic(cfg.Name, " check failed: ", describeCheck(cfg), " found ", violations, " violations")
				}
				status = c.CheckStatusWarned
				cfg.Log.Warn(cfg.Name, " check warned: ", describeCheck(cfg), " found ", violations, " violations")
			} else {
				cfg.Log.Info(cfg.Name, " check passed: ", describeCheck(cfg))
			}
			rec := stream.NewRecord()
			rec.SetData(c.CheckResultFieldName4Check, cfg.CheckName)
			rec.SetData(c.CheckResultFieldName4Table, cfg.TableName)
			rec.SetData(c.CheckResultFieldName4Column, cfg.ColumnName)
			rec.SetData(c.CheckResultFieldName4Violations, violations)
			rec.SetData(c.CheckResultFieldName4Status, status)
			if rowSentOK = safeSend(rec, outputChan, controlChan, sendNilControlResponse); rowSentOK {
				atomic.AddInt64(&rowCount, 1) // increment the row count bearing in mind someone else is reporting on its values.
			}
			return
		}
		if cfg.InputChan == nil { // if there is no channel to trigger off...
			if rowSentOK := runCheck(); !rowSentOK {
				cfg.Log.Info(cfg.Name, " shutdown")
				return
			}
		} else {
			var controlAction ControlAction
			for { // for each trigger record...
				select {
				case _, ok := <-cfg.InputChan:
					if !ok { // if the input chan was closed...
						cfg.InputChan = nil // disable this case.
					} else {
						if rowSentOK := runCheck(); !rowSentOK {
							cfg.Log.Info(cfg.Name, " shutdown")
							return
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
		}
		close(outputChan) // we're done so close the channel we created.
		cfg.Log.Info(cfg.Name, " complete")
	}()
	return
}

// mustGetViolationCount executes the check SQL and returns the count found in the
// first column of the first row.
func mustGetViolationCount(cfg *SqlCheckConfig) int64 {
	cfg.Log.Info(cfg.Name, " executing check SQL: ", cfg.Sqltext)
	rows, err := cfg.Db.Query(cfg.Sqltext)
	if err != nil {
		cfg.Log.Panic(fmt.Sprintf("%v received error during database query using SQL: '%v' %v", cfg.Name, cfg.Sqltext, err))
	}
	var raw interface{}
	found := false
	if rows != nil {
		if rows.Next() {
			if err := rows.Scan(&raw); err != nil {
				cfg.Log.Panic(cfg.Name, " unable to scan check result: ", err)
			}
			found = true
		}
		if err := rows.Close(); err != nil {
			cfg.Log.Panic(fmt.Sprintf(" error closing SQL result set in %v", cfg.Name))
		}
	}
	if !found {
		cfg.Log.Panic(cfg.Name, " check SQL returned no rows - expected a single violation count")
	}
	violations, err := getInt64FromInterface(raw)
	if err != nil {
		cfg.Log.Panic(cfg.Name, " unable to read violation count: ", err)
	}
	return violations
}

func describeCheck(cfg *SqlCheckConfig) string {
	if cfg.ColumnName == "" {
		return fmt.Sprintf("%v on table %v", cfg.CheckName, cfg.TableName)
	}
	return fmt.Sprintf("%v on %v.%v", cfg.CheckName, cfg.TableName, cfg.ColumnName)
}

func getInt64FromInterface(input interface{}) (i int64, err error) {
	switch v := input.(type) {
	case int64:
		i = v
	case uint64:
		i = int64(v)
	case int32:
		i = int64(v)
	case int:
		i = int64(v)
	case float64:
		i = int64(v)
	case []byte:
		i, err = strconv.ParseInt(string(v), 10, 64)
	case string:
		i, err = strconv.ParseInt(v, 10, 64)
	default:
		err = fmt.Errorf("unexpected data type during conversion - expected a numeric count, got: %v; value=%v", reflect.TypeOf(input), input)
	}
	return
}
