package components

import (
	"sync/atomic"
	"time"

	c "github.com/martpipe/martpipe/constants"
	"github.com/martpipe/martpipe/logger"
	"github.com/martpipe/martpipe/rdbms/shared"
	s "github.com/martpipe/martpipe/stats"
	"github.com/martpipe/martpipe/stream"
)

type TableInsertConfig struct {
	Log                                logger.Logger
	Name                               string
	InputChan                          chan stream.Record // input rows to write to database table.
	OutputDb                           shared.Connector   // target database connection for writes.
	CommitBatchSize                    int                // commit interval in num rows
	TxtBatchNumRows                    int                // number of rows in a single SQL statement.
	CommitSequenceKeyName              string             // the field name added by this component to the outputChan record, incremented when a batch is committed.
	shared.SqlStatementGeneratorConfig                    // config for target database table
	StepWatcher                        *s.StepWatcher
	WaitCounter                        ComponentWaiter
	PanicHandlerFn                     PanicHandlerFunc
}

type tableInsertCfg struct {
	log                   logger.Logger
	name                  string
	inputChan             chan stream.Record
	outputDb              shared.Connector
	commitBatchSize       int
	txtBatchNumRows       int
	commitSequenceKeyName string
	shared.SqlStatementGeneratorConfig
	sqlInsertGenerator shared.SqlStmtGenerator
	stepWatcher        *s.StepWatcher
	waitCounter        ComponentWaiter
	panicHandlerFn     PanicHandlerFunc
}

// NewTableInsert writes input records to a target database table using batched
// multi-row INSERT statements. Rows are accumulated into SQL text batches
// of TxtBatchNumRows and committed every CommitBatchSize rows.
// The TableInsert component adds a zero-based integer field to the output stream that increments per commit.
// This helps consumers because the component releases rows as they are processed instead of after each commit.
// It moves the problem of whether a batch has been committed downstream though.
func NewTableInsert(i interface{}) (outputChan chan stream.Record, controlChan chan ControlAction) {
	cfg := i.(*TableInsertConfig)
	if cfg.CommitBatchSize == 0 {
		cfg.CommitBatchSize = c.TableInsertBatchSizeDefault
	}
	if cfg.TxtBatchNumRows == 0 {
		cfg.TxtBatchNumRows = c.TableInsertTxtBatchNumRowsDefault
	}
	if cfg.TxtBatchNumRows > cfg.CommitBatchSize {
		cfg.Log.Panic("Error, the number of rows in the SQL text batch cannot be larger than the commit batch size")
	}
	if cfg.OutputDb == nil {
		cfg.Log.Panic("Error, missing db connection in call to NewTableInsert.")
	}
	if cfg.InputChan == nil {
		cfg.Log.Panic("Error, missing chan input in call to NewTableInsert.")
	}
	if cfg.CommitSequenceKeyName == "" { // if the commit sequence key name is not set...
		// Use default value.
		cfg.CommitSequenceKeyName = c.TableInsertDefaultCommitSequenceKeyName
	}
	dml := cfg.OutputDb.GetDmlGenerator()
	t := &tableInsertCfg{
		log:                         cfg.Log,
		name:                        cfg.Name,
		inputChan:                   cfg.InputChan,
		outputDb:                    cfg.OutputDb,
		commitBatchSize:             cfg.CommitBatchSize,
		txtBatchNumRows:             cfg.TxtBatchNumRows,
		commitSequenceKeyName:       cfg.CommitSequenceKeyName,
		SqlStatementGeneratorConfig: cfg.SqlStatementGeneratorConfig,
		sqlInsertGenerator:          dml.NewInsertGenerator(&cfg.SqlStatementGeneratorConfig),
		stepWatcher:                 cfg.StepWatcher,
		waitCounter:                 cfg.WaitCounter,
		panicHandlerFn:              cfg.PanicHandlerFn}
	cfg.Log.Debug("Creating TableInsert of type ", cfg.OutputDb.GetType(), "...")
	return startTableInsertSqlTextBatch(t)
}

// startTableInsertSqlTextBatch accumulates input rows into multi-row INSERT statements
// and executes them inside transactions committed every commitBatchSize rows.
func startTableInsertSqlTextBatch(cfg *tableInsertCfg) (outputChan chan stream.Record, controlChan chan ControlAction) {
	outputChan = make(chan stream.Record, c.ChanSize)
	controlChan = make(chan ControlAction, 1)
	// Cast the interface to enable text batch mode.
	sqlInsertGenerator, ok := cfg.sqlInsertGenerator.(shared.SqlStmtTxtBatcher)
	if !ok {
		cfg.log.Panic(cfg.name, ", SQL text batch inserts are not supported")
	}
	needNewBatchInsert := true
	needNewTx := true
	needExecInsert := false
	// Make a slice to hold values per record.
	values := make([]interface{}, cfg.TargetKeyCols.Len()+cfg.TargetOtherCols.Len())
	types := make([]stream.FieldType, cfg.TargetKeyCols.Len()+cfg.TargetOtherCols.Len())
	var tx shared.Transacter // transaction for DML.
	var err error
	var listIdx int
	go func() {
		if cfg.panicHandlerFn != nil {
			defer cfg.panicHandlerFn()
		}
		cfg.log.Info(cfg.name, " is running")
		if cfg.waitCounter != nil {
			cfg.waitCounter.Add()
			defer cfg.waitCounter.Done()
		}
		rowCount := int64(0)
		numRowsInTx := 0
		if cfg.stepWatcher != nil { // if we have been given a stepWatcher struct that can watch our rowCount and output channel length...
			cfg.stepWatcher.StartWatching(&rowCount, &outputChan)
			defer cfg.stepWatcher.StopWatching()
		}
		commitSequence := 0
		// Read input channel, add to batch and exec batch when full.
		for {
			select {
			case rec, ok := <-cfg.inputChan: // for each row of input...
				if !ok { // if the inputChan is closed...
					cfg.log.Debug("Disabling inputChan")
					cfg.inputChan = nil // disable this case (receive on a nil chan blocks forever; select won't choose a blocking operation).
				} else {
					atomic.AddInt64(&rowCount, 1) // increment the row count bearing in mind someone else is reporting on its values.
					if needNewTx {                // if we have not started a transaction...
						tx, err = cfg.outputDb.Begin() // new transaction
						if err != nil {
							cfg.log.Panic(cfg.name, " - unable to start new transaction!")
						}
						needNewTx = false
					}
					if needNewBatchInsert { // if we need to start a new batch...
						cfg.log.Debug(cfg.name, " - new INSERT batch required.")
						sqlInsertGenerator.InitBatch(cfg.txtBatchNumRows)
						needNewBatchInsert = false
					}
					// Save values from all fields into a list of values.
					listIdx = 0 // reset the list index to get the record to overwrite the list.
					rec.GetDataAndFieldTypesByKeys(cfg.log, cfg.TargetKeyCols, &values, &types, &listIdx)
					rec.GetDataAndFieldTypesByKeys(cfg.log, cfg.TargetOtherCols, &values, &types, &listIdx)
					cfg.log.Debug(cfg.name, " - values for INSERT: ", values)
					txtBatchIsFull, err := sqlInsertGenerator.AddValuesToBatch(values)
					if err != nil {
						cfg.log.Panic(err)
					}
					needExecInsert = true
					if txtBatchIsFull { // if the batch is full...
						// Get the SQL and bind values from the generator.
						mustExecSqlTransaction(cfg.log, tx, sqlInsertGenerator.GetStatement(), sqlInsertGenerator.GetValues()...)
						needNewBatchInsert = true // request new batch on next iteration.
						needExecInsert = false    // set this false so that we can test if a final exec is required.
						cfg.log.Debug(cfg.name, " - exec for INSERT.")
					}
					numRowsInTx++
					if numRowsInTx >= cfg.commitBatchSize {
						if needExecInsert { // flush a partially filled batch before committing so no rows are lost.
							mustExecSqlTransaction(cfg.log, tx, sqlInsertGenerator.GetStatement(), sqlInsertGenerator.GetValues()...)
							needNewBatchInsert = true // request new batch on next iteration.
						}
						mustCommitSqlTransaction(cfg.log, tx, &commitSequence, cfg.stepWatcher)
						needNewTx = true
						numRowsInTx = 0
						needExecInsert = false // set this false so that we can test if a final exec is required.
					}
					// Output the row.
					rec.SetData(cfg.commitSequenceKeyName, commitSequence)
					if recSendOK := safeSend(rec, outputChan, controlChan, sendNilControlResponse); !recSendOK {
						cfg.log.Info(cfg.name, " shutdown")
						return
					}
				}
			case controlAction := <-controlChan:
				controlAction.ResponseChan <- nil // send a nil error.
				cfg.log.Info(cfg.name, " shutdown")
				return
			}
			if cfg.inputChan == nil { // if the input channel was closed (all rows were processed)...
				break
			}
		}
		// Commit pending transactions.
		if numRowsInTx > 0 {
			if needExecInsert {
				mustExecSqlTransaction(cfg.log, tx, sqlInsertGenerator.GetStatement(), sqlInsertGenerator.GetValues()...)
			}
			mustCommitSqlTransaction(cfg.log, tx, &commitSequence, cfg.stepWatcher)
			cfg.log.Debug(cfg.name, " - final exec + commit complete")
		}
		close(outputChan) // we're done so close the channel we created.
		cfg.log.Info(cfg.name, " complete")
	}()
	return
}

// ---------------------------------------------------------------------------------------------------------------------
// -- LOCAL HELPERS
// ---------------------------------------------------------------------------------------------------------------------

func mustExecSqlTransaction(log logger.Logger, tx shared.Transacter, sqltext string, values ...interface{}) {
	log.Debug("Exec trying...")
	_, err := tx.Exec(sqltext, values...)
	if err != nil {
		log.Panic("Error during exec of SQL (", sqltext, ") ", err)
	}
	log.Debug("Exec complete")
	return
}

func mustCommitSqlTransaction(log logger.Logger, tx shared.Transacter, commitCounter *int, stepWatcher *s.StepWatcher) {
	startTime := time.Now()
	err := tx.Commit()
	if err != nil {
		log.Panic("Error committing transaction: ", err)
	}
	if stepWatcher != nil { // if someone is capturing commit latencies...
		stepWatcher.RecordCommitLatency(time.Since(startTime))
	}
	if commitCounter != nil {
		*commitCounter++ // increment counter which is added to the TableInsert output record.
	}
}
