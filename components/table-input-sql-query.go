package components

import (
	"fmt"
	"strings"
	"sync/atomic"

	c "github.com/martpipe/martpipe/constants"
	"github.com/martpipe/martpipe/logger"
	"github.com/martpipe/martpipe/rdbms/shared"
	s "github.com/martpipe/martpipe/stats"
	"github.com/martpipe/martpipe/stream"
)

type SqlQueryWithArgsConfig struct {
	Log            logger.Logger
	Name           string
	Db             shared.Connector
	StepWatcher    *s.StepWatcher // optional step stats gatherer.
	WaitCounter    ComponentWaiter
	Sqltext        string
	Args           []interface{}
	PanicHandlerFn PanicHandlerFunc
}

type SqlQueryWithChanConfig struct {
	Log             logger.Logger
	Name            string
	Db              shared.Connector
	StepWatcher     *s.StepWatcher // optional step stats gatherer.
	WaitCounter     ComponentWaiter
	Sqltext         string
	InputChan       chan stream.Record // optional source of bind variable values. If omitted, Sqltext must not use binds.
	InputChanFields []string           // field names in the input channel to use as bind variables.
	PanicHandlerFn  PanicHandlerFunc
}

type SqlQueryWithReplace struct {
	Log            logger.Logger
	Name           string
	Db             shared.Connector
	StepWatcher    *s.StepWatcher // optional step stats gatherer.
	WaitCounter    ComponentWaiter
	Sqltext        string
	Args           []interface{}
	Replacements   map[string]string
	PanicHandlerFn PanicHandlerFunc
}

// NewSqlQueryWithArgs executes SQL and fetches rows onto the output channel,
// passing cfg.Args directly as bind variable values. Args may be nil when the
// SQL uses no binds. See NewSqlQueryWithInputChan to read args from another
// channel populated by its own SQL query.
// TODO: swap input cfg to be of type pointer to SqlQueryWithArgsConfig.
func NewSqlQueryWithArgs(i interface{}) (chan stream.Record, chan ControlAction) {
	cfg := i.(*SqlQueryWithArgsConfig)
	outputChan := make(chan stream.Record, int(c.ChanSize))
	controlChan := make(chan ControlAction, 1)
	go func() {
		if cfg.PanicHandlerFn != nil {
			defer cfg.PanicHandlerFn()
		}
		if cfg.WaitCounter != nil {
			cfg.WaitCounter.Add()
			defer cfg.WaitCounter.Done()
		}
		execSql(cfg.Log, cfg.Name, cfg.Db, cfg.StepWatcher, &cfg.Sqltext, &cfg.Args, outputChan, controlChan)
	}()
	return outputChan, controlChan
}

// NewSqlQueryWithInputChan executes SQL and fetches rows onto the output
// channel. The SQL is expected to use bind variables whose values are built
// from the record found on the input channel.
// Only one record is expected on the input channel. A simple enhancement is
// required to handle multiple input records i.e. multiple SQL executions.
func NewSqlQueryWithInputChan(i interface{}) (chan stream.Record, chan ControlAction) {
	cfg := i.(*SqlQueryWithChanConfig)
	outputChan := make(chan stream.Record, int(c.ChanSize))
	controlChan := make(chan ControlAction, 1)
	go func() {
		if cfg.PanicHandlerFn != nil {
			defer cfg.PanicHandlerFn()
		}
		if cfg.WaitCounter != nil {
			cfg.WaitCounter.Add()
			defer cfg.WaitCounter.Done()
		}
		if len(cfg.InputChan) > 1 {
			// TODO: this is hardly a fail-safe as the chan length may end up being 1, or the producer onto the channel may be slow.
			cfg.Log.Panic(cfg.Name, " input to SQL query produced more than 1 row.")
		}
		var args []interface{}
		for mapArgs := range cfg.InputChan {
			// TODO: clean up as this will only capture args from the last row.
			cfg.Log.Info("Building arguments list...")
			args = make([]interface{}, len(cfg.InputChanFields))
			for idx, fieldName := range cfg.InputChanFields {
				cfg.Log.Debug(cfg.Name, " NewSqlQueryWithInputChan(): idx=", idx, "; (*inputChanFields)[idx]=", fieldName, "; mapArgs=", mapArgs)
				args[idx] = mapArgs.GetData(fieldName)
				if args[idx] == nil {
					cfg.Log.Panic(cfg.Name, " SQL arg[", idx, "] is missing. An argument value was expected on the input channel!")
				}
				cfg.Log.Debug(cfg.Name, " SQL arg[", idx, "] = ", args[idx])
			}
			// TODO: add controlChan handling
		}
		if args == nil || args[0] == nil {
			cfg.Log.Panic(cfg.Name, " - unable to build args[] using input query.")
		}
		execSql(cfg.Log, cfg.Name, cfg.Db, cfg.StepWatcher, &cfg.Sqltext, &args, outputChan, controlChan)
	}()
	return outputChan, controlChan
}

// NewSqlQueryWithReplace executes SQL with args, after applying the string
// replacements in cfg.Replacements to the SQL text.
func NewSqlQueryWithReplace(i interface{}) (chan stream.Record, chan ControlAction) {
	cfg := i.(*SqlQueryWithReplace)
	outputChan := make(chan stream.Record, int(c.ChanSize))
	controlChan := make(chan ControlAction, 1)
	go func() {
		if cfg.PanicHandlerFn != nil {
			defer cfg.PanicHandlerFn()
		}
		if cfg.WaitCounter != nil {
			cfg.WaitCounter.Add()
			defer cfg.WaitCounter.Done()
		}
		newSQL := cfg.Sqltext
		for k, v := range cfg.Replacements {
			newSQL = strings.Replace(newSQL, k, v, -1)
		}
		execSql(cfg.Log, cfg.Name, cfg.Db, cfg.StepWatcher, &newSQL, &cfg.Args, outputChan, controlChan)
	}()
	return outputChan, controlChan
}

// execSql runs the query with the supplied args, scans each result row into a
// stream.Record keyed by column name and produces it onto outputChan. It
// closes outputChan on completion and responds to shutdown requests between
// rows.
func execSql(log logger.Logger,
	name string,
	db shared.Connector,
	stepWatcher *s.StepWatcher,
	sqltext *string,
	args *[]interface{},
	outputChan chan stream.Record,
	controlChan chan ControlAction,
) {
	if sqltext == nil || *sqltext == "" {
		log.Info(name, " received unexpected empty SQL - skipping")
		return
	}
	rowCount := int64(0)
	if stepWatcher != nil {
		stepWatcher.StartWatching(&rowCount, &outputChan)
		defer stepWatcher.StopWatching()
	}
	var rows *shared.MpRows
	var err error
	if *args != nil && (*args)[0] != nil {
		log.Info(name, " executing SQL: ", *sqltext, "; args = ", *args)
		rows, err = db.Query(*sqltext, *args...)
	} else {
		log.Info(name, " executing SQL: ", *sqltext)
		rows, err = db.Query(*sqltext)
	}
	if err != nil {
		log.Panic(fmt.Sprintf("%v received error during database query using SQL: '%v' %v", name, *sqltext, err))
	}
	if rows == nil {
		log.Debug(name, " found zero rows using SQL: ", *sqltext)
		close(outputChan)
		log.Info(name, " complete")
		return
	}
	// Column types drive the Scan target slice.
	log.Debug(name, " fetching column types...")
	colTypes, err := rows.ColumnTypes()
	if err != nil {
		log.Panic(name, " unable to fetch column types: ", err)
	}
	for _, v := range colTypes {
		log.Debug(name, " column scan type = ", v.ScanType())
	}
	scanVals := make([]interface{}, len(colTypes))
	scanPtrs := make([]interface{}, len(colTypes))
	for idx := range scanVals {
		scanPtrs[idx] = &scanVals[idx]
	}
	log.Debug(name, " looping over result set...")
	var controlAction ControlAction
	for rows.Next() {
		if err := rows.Scan(scanPtrs...); err != nil {
			log.Panic(name, " unable to scan row: ", err)
			break
		}
		row := stream.NewRecord()
		for idx := range scanVals {
			row.SetData(colTypes[idx].Name(), scanVals[idx])
		}
		log.Trace(name, " producing row onto outputChan: ", row)
		if rowSentOK := safeSend(row, outputChan, controlChan, sendNilControlResponse); !rowSentOK {
			log.Info(name, " shutdown")
			return
		}
		atomic.AddInt64(&rowCount, 1)
		select {
		case controlAction = <-controlChan: // shutdown requested.
			var errResponse error
			if err := rows.Close(); err != nil { // don't create more panics mid shutdown.
				errResponse = fmt.Errorf("%v error closing SQL result set: %v", name, err)
			}
			controlAction.ResponseChan <- errResponse
			log.Info(name, " shutdown")
			return
		default:
		}
	}
	if err := rows.Close(); err != nil {
		log.Panic(fmt.Sprintf(" error closing SQL result set in %v", name))
	}
	close(outputChan) // tell downstream components that we're done.
	log.Info(name, " complete")
}
