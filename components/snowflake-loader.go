package components

import (
	"context"
	"fmt"
	"path"
	"sync/atomic"
	"time"

	c "github.com/martpipe/martpipe/constants"
	"github.com/martpipe/martpipe/logger"
	"github.com/martpipe/martpipe/rdbms"
	"github.com/martpipe/martpipe/rdbms/shared"
	"github.com/martpipe/martpipe/stats"
	"github.com/martpipe/martpipe/stream"
)

// SnowflakeSqlBuilderFunc should return a slice of SQL statements for NewSnowflakeLoader to execute.
type SnowflakeSqlBuilderFunc func(tableName rdbms.SchemaTable, stageName string, fileName string, force bool) []string

type SnowflakeLoaderConfig struct {
	Log                     logger.Logger
	Name                    string
	InputChan               chan stream.Record
	Db                      shared.Connector        // connection to target snowflake database abstracted via interface.
	InputChanField4FileName string                  // the field name found on InputChan that contains the file name to load.
	StageName               string                  // the external stage that can access the files to load.
	TargetSchemaTableName   rdbms.SchemaTable       // the [schema.]table to load into.
	DeleteAll               bool                    // set to true to SQL DELETE all table rows before loading begins; the delete commits with the loads so a reload is safe.
	FnGetSnowflakeSqlSlice  SnowflakeSqlBuilderFunc // func that will be used by NewSnowflakeLoader to fetch a slice of SQL statements to execute per input row.
	CommitSequenceKeyName   string                  // the field name added by this component to the outputChan record, incremented when a batch is committed; used by downstream components like ManifestWriter.
	StepWatcher             *stats.StepWatcher
	WaitCounter             ComponentWaiter
	PanicHandlerFn          PanicHandlerFunc
}

// NewSnowflakeLoader generates and executes Snowflake COPY INTO statements,
// one per record on InputChan, where each record carries a data file name
// reachable via the configured external stage on S3. AUTOCOMMIT is turned off
// and a single commit is issued once InputChan is closed, so with DeleteAll
// set a reload is all-or-nothing. InputChan records are copied to outputChan.
func NewSnowflakeLoader(i interface{}) (outputChan chan stream.Record, controlChan chan ControlAction) {
	cfg := i.(*SnowflakeLoaderConfig)
	outputChan = make(chan stream.Record, int(c.ChanSize))
	controlChan = make(chan ControlAction, 1)
	var rollbackRequired bool
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
		tx, err := cfg.Db.Begin()
		if err != nil {
			cfg.Log.Panic(cfg.Name, " received error starting Snowflake transaction: ", err)
		}
		rollbackRequired = true
		defer snowflakeRollback(cfg.Log, cfg.Name, tx, &rollbackRequired)
		query := "alter session set autocommit = false"
		res, err, shutdown := safeSnowflakeExec(tx, controlChan, query)
		if shutdown {
			cfg.Log.Info(cfg.Name, " shutdown")
			return
		}
		assertExec(cfg.Log, &cfg.Name, tx, &rollbackRequired, &query, res, err)
		cfg.Log.Debug(cfg.Name, " set autocommit false")
		var controlAction ControlAction
		var force bool
		if cfg.DeleteAll { // reloading; delete all rows up front.
			query = fmt.Sprintf("delete from %v", cfg.TargetSchemaTableName.SchemaTable)
			res, err, shutdown := safeSnowflakeExec(tx, controlChan, query)
			if shutdown {
				cfg.Log.Info(cfg.Name, " shutdown")
				return
			}
			assertExec(cfg.Log, &cfg.Name, tx, &rollbackRequired, &query, res, err)
			force = true // force load due to the DML DELETE above.
		}
		// COPY INTO per S3 file found on the input channel.
		for {
			select {
			case rec, ok := <-cfg.InputChan:
				if !ok { // no more input; disable all cases so we fall out of the loop.
					cfg.InputChan = nil
					controlChan = nil
					break
				}
				fileName := rec.GetDataAsStringPreserveTimeZone(cfg.Log, cfg.InputChanField4FileName)
				cfg.Log.Info(cfg.Name, " loading into table '", cfg.TargetSchemaTableName.SchemaTable, "' from stage '", cfg.StageName, "' file name '", fileName, "'")
				queries := cfg.FnGetSnowflakeSqlSlice(cfg.TargetSchemaTableName, cfg.StageName, fileName, force)
				rollbackRequired = true
				for _, stmt := range queries {
					cfg.Log.Debug(cfg.Name, " executing query: ", stmt)
					res, err, shutdown := safeSnowflakeExec(tx, controlChan, stmt)
					if shutdown {
						cfg.Log.Info(cfg.Name, " shutdown")
						return
					}
					assertExec(cfg.Log, &cfg.Name, tx, &rollbackRequired, &stmt, res, err)
				}
				if recSentOK := safeSend(rec, outputChan, controlChan, sendNilControlResponse); !recSentOK {
					cfg.Log.Info(cfg.Name, " shutdown")
					return
				}
				atomic.AddInt64(&rowCount, 1)
			case controlAction = <-controlChan:
				if controlAction.Action == Shutdown {
					// The deferred func does the rollback.
					controlAction.ResponseChan <- nil
					cfg.Log.Info(cfg.Name, " shutdown")
					return
				}
			}
			if cfg.InputChan == nil {
				cfg.Log.Debug(cfg.Name, " breaking out of loop")
				break
			}
		}
		// Commit; if we don't get here the deferred func rolls back instead.
		commitStartTime := time.Now()
		if err = tx.Commit(); err != nil {
			cfg.Log.Panic(cfg.Name, " received error while executing commit: ", err)
		}
		if cfg.StepWatcher != nil {
			cfg.StepWatcher.RecordCommitLatency(time.Since(commitStartTime))
		}
		rollbackRequired = false
		cfg.Log.Debug(cfg.Name, " commit complete")
		close(outputChan)
		cfg.Log.Info(cfg.Name, " complete")
	}()
	return outputChan, controlChan
}

// assertExec logs the rows affected by res and panics after rolling back when
// err is set.
func assertExec(log logger.Logger, name *string, tx shared.Transacter, rollbackRequired *bool, query *string, res shared.Result, err error) {
	if res != nil {
		if i, e := res.RowsAffected(); e == nil {
			log.Info(*name, " rows affected: ", i)
		} // a rows-affected error is fine here; DDL reports 0, even COPY INTO is DDL.
	}
	if err != nil {
		snowflakeRollback(log, *name, tx, rollbackRequired)
		// TODO: understand why the deferred snowflakeRollback() isn't doing the above rollback for us when we panic on the line below?
		log.Panic(*name, " error received while executing SQL: '", *query, "': ", err)
	}
}

// safeSnowflakeExec runs the query in a goroutine so a shutdown request on
// controlChan can cancel it mid flight. Rollback is deferred in the caller.
func safeSnowflakeExec(tx shared.Transacter, controlChan chan ControlAction, query string) (res shared.Result, err error, shutdown bool) {
	doneChan := make(chan struct{}, 1)
	ctx, cancelFunc := context.WithCancel(context.Background())
	defer cancelFunc()
	go func() {
		res, err = tx.ExecContext(ctx, query)
		doneChan <- struct{}{}
	}()
	select {
	case controlAction := <-controlChan:
		cancelFunc() // cancel the query above.
		controlAction.ResponseChan <- nil
		return nil, err, true
	case <-doneChan:
	}
	return res, err, false
}

func snowflakeRollback(log logger.Logger, stepName string, tx shared.Transacter, rollbackRequired *bool) {
	log.Debug(stepName, " deferred rollback: required = ", *rollbackRequired)
	if !*rollbackRequired {
		return
	}
	err := tx.Rollback()
	*rollbackRequired = false
	if err != nil {
		log.Panic(stepName, " received error while executing rollback: ", err)
	}
	log.Info(stepName, " rollback complete")
}

// GetSqlSliceSnowflakeCopyInto generates SQL to copy data from the supplied Snowflake STAGE/fileName into
// the given tableName.
func GetSqlSliceSnowflakeCopyInto(schemaTableName rdbms.SchemaTable, stageName string, fileName string, force bool) []string {
	stagedFile := path.Join(stageName, fileName)
	forceSql := ""
	if force {
		forceSql = " force=true"
	}
	return []string{fmt.Sprintf("copy into %v from '@%v'%v", schemaTableName.SchemaTable, stagedFile, forceSql)}
}
