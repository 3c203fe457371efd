package components

import (
	"context"
	"fmt"
	"sync/atomic"

	c "github.com/martpipe/martpipe/constants"
	"github.com/martpipe/martpipe/logger"
	"github.com/martpipe/martpipe/rdbms/shared"
	s "github.com/martpipe/martpipe/stats"
	"github.com/martpipe/martpipe/stream"
)

type SqlExecConfig struct {
	Log                      logger.Logger
	Name                     string
	InputChan                chan stream.Record
	SqlQueryFieldName        string // input record field holding the SQL to execute per row.
	Sqltext                  string // fixed statement executed instead of per-row SQL; runs once per input record, or once when InputChan is nil.
	SqlRowsAffectedFieldName string
	OutputDb                 shared.Connector
	StepWatcher              *s.StepWatcher
	WaitCounter              ComponentWaiter
	PanicHandlerFn           PanicHandlerFunc
}

// NewSqlExec executes SQL against OutputDb. By default each input record supplies its
// statement in field SqlQueryFieldName and is forwarded downstream once executed.
// When Sqltext is set the fixed statement is executed instead: once per input record,
// or exactly once when there is no input channel, so DDL steps can be sequenced by
// chaining one after another.
func NewSqlExec(i interface{}) (outputChan chan stream.Record, controlChan chan ControlAction) {
	cfg := i.(*SqlExecConfig)
	if cfg.Sqltext == "" && cfg.InputChan == nil {
		cfg.Log.Panic(cfg.Name, " requires an input channel when there is no fixed SQL statement configured")
	}
	if cfg.OutputDb == nil {
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
		if cfg.StepWatcher != nil { // if we have been given a stepWatcher struct that can watch our rowCount and output channel length...
			cfg.StepWatcher.StartWatching(&rowCount, &outputChan)
			defer cfg.StepWatcher.StopWatching()
		}
		// Execute the statement and forward rec with the optional rows-affected count.
		execAndSend := func(sqltext string, rec stream.Record) (rowSentOK bool) {
			// TODO: cancel the exec context when a shutdown request arrives mid-statement.
			res, err := cfg.OutputDb.ExecContext(context.Background(), sqltext)
			if err != nil {
				cfg.Log.Panic(fmt.Sprintf("error executing SQL '%v': %v", sqltext, err))
			}
			if cfg.SqlRowsAffectedFieldName != "" { // if the user supplied a field name to output the number of rows affected...
				rowsAffected, err := res.RowsAffected()
				if err != nil { // if we couldn't get the num rows affected...
					cfg.Log.Panic(fmt.Sprintf("error checking number of rows affected after SQL '%v': %v", sqltext, err))
				}
				rec.SetData(cfg.SqlRowsAffectedFieldName, rowsAffected)
			}
			if rowSentOK = safeSend(rec, outputChan, controlChan, sendNilControlResponse); rowSentOK {
				atomic.AddInt64(&rowCount, 1) // increment the row count bearing in mind someone else is reporting on its values.
			}
			return
		}
		if cfg.InputChan == nil { // if there is no input to trigger off, run the fixed statement once...
			if rowSentOK := execAndSend(cfg.Sqltext, stream.NewRecord()); !rowSentOK {
				cfg.Log.Info(cfg.Name, " shutdown")
				return
			}
		} else {
			var controlAction ControlAction
			for {
				select {
				case rec, ok := <-cfg.InputChan: // per input row SQL exec...
					if !ok { // if we have run out of rows...
						cfg.InputChan = nil // disable this case
					} else { // process the row...
						sqltext := cfg.Sqltext
						if sqltext == "" { // if there is no fixed statement, the record supplies its own SQL...
							sqltext = rec.GetDataAsStringPreserveTimeZone(cfg.Log, cfg.SqlQueryFieldName)
						}
						if rowSentOK := execAndSend(sqltext, rec); !rowSentOK { // if we couldn't output the row due to shutdown...
							cfg.Log.Info(cfg.Name, " shutdown")
							return
						}
					}
				case controlAction = <-controlChan: // if we have been asked to shutdown...
					controlAction.ResponseChan <- nil // respond that we're done with a nil error.
					cfg.Log.Info(cfg.Name, " shutdown")
					return
				}
				if cfg.InputChan == nil { // if we should exit gracefully...
					break
				}
			}
		}
		close(outputChan)
		cfg.Log.Info(cfg.Name, " complete")
	}()
	return outputChan, controlChan
}
