package components

import (
	"regexp"
	"testing"
	"time"

	"github.com/cevaris/ordered_map"
	c "github.com/martpipe/martpipe/constants"
	"github.com/martpipe/martpipe/rdbms/shared"
	"github.com/martpipe/martpipe/stream"
	"github.com/sirupsen/logrus"
)

func TestTableInsertTextBatch(t *testing.T) {
	log := logrus.New()
	log.SetLevel(logrus.DebugLevel)
	db, resultChan := shared.NewMockConnectionWithMockTx(log, "mock")
	inputChan := make(chan stream.Record, c.ChanSize)
	// Add dummy rows to the channel...
	r1 := stream.NewRecord()
	r1.SetData("key1", "1")
	r1.SetData("key2", "2")
	r1.SetData("col1", "val1")
	r1.SetData("col2", "val2")
	r2 := stream.NewRecord()
	r2.SetData("key1", 3)
	r2.SetData("key2", 4)
	r2.SetData("col1", "val3")
	r2.SetData("col2", "val4")
	r3 := stream.NewRecord()
	r3.SetData("key1", "5")
	r3.SetData("key2", "6")
	r3.SetData("col1", "valx")
	r3.SetData("col2", "valy")
	sendRows := func(c chan stream.Record) {
		log.Debug("Sending rows to inputChan...")
		c <- r1
		c <- r2
		c <- r3
	}
	sendRows(inputChan)
	omKeys := ordered_map.NewOrderedMap()
	omKeys.Set("key1", "key1")
	omKeys.Set("key2", "key2")
	omCols := ordered_map.NewOrderedMap()
	omCols.Set("col1", "col1")
	omCols.Set("col2", "col2")

	// Test 1: TableInsert writes correct rows.
	log.Info("Test 1 - confirm TableInsert writes correct rows")
	sqlConfig := &shared.SqlStatementGeneratorConfig{
		Log:             log,
		OutputSchema:    "",
		SchemaSeparator: ".",
		OutputTable:     "t2",
		TargetKeyCols:   omKeys,
		TargetOtherCols: omCols}
	cfg := &TableInsertConfig{
		Log:                         log,
		Name:                        "Test TableInsert",
		InputChan:                   inputChan,
		OutputDb:                    db,
		CommitBatchSize:             1000,
		SqlStatementGeneratorConfig: *sqlConfig}
	chanOutput, _ := NewTableInsert(cfg)
	idx := 0
	resultList := make([]string, 0, 2)
	close(inputChan)
	log.Debug("inputChan is now closed.")
	for rec := range chanOutput { // for each row written by TableInsert...
		idx++
		log.Debug("output from TableInsert() row = ", idx, " data = ", rec)
		if rec.GetData(c.TableInsertDefaultCommitSequenceKeyName) == nil {
			t.Fatal("expected a commit sequence field on TableInsert output records")
		}
	}
	if idx != 3 {
		t.Fatal("expected 3 rows on the TableInsert output channel; got: ", idx)
	}
	db.Close() // close resultChan.
	for str := range resultChan {
		log.Debug("saving string from resultChan: ", str)
		resultList = append(resultList, str)
	}
	re := regexp.MustCompile("[\t\r\n\f]")
	resultList[0] = re.ReplaceAllString(resultList[0], " ")
	log.Debug("Asserting INSERT...")
	assertStr(t, `insert into t2 (key1,key2,col1,col2) values ( ?,?,?,? ),( ?,?,?,? ),( ?,?,?,? )`, resultList[0])
	assertStr(t, "1 2 val1 val2 3 4 val3 val4 5 6 valx valy", resultList[1])

	// Test 2: confirm shutdown channel works.
	log.Info("Test 2 - confirm shutdown channel works with TableInsert")
	db2, _ := shared.NewMockConnectionWithMockTx(log, "mock")
	inputChan2 := make(chan stream.Record, c.ChanSize)
	cfg.InputChan = inputChan2
	cfg.OutputDb = db2
	responseChan := make(chan error, 1)
	sendRows(inputChan2) // don't close the inputChan2 so the table insert keeps waiting for input.
	// Start the table insert.
	_, controlChan := NewTableInsert(cfg)
	// Send shutdown request.
	controlChan <- ControlAction{ResponseChan: responseChan, Action: Shutdown} // send shutdown.
	// Wait for a response from TableInsert to say it has shutdown.
	select {
	case <-time.After(3 * time.Second):
		t.Fatal("timeout waiting for TableInsert to shutdown")
	case <-responseChan: // if we get a shutdown response...
		// continue OK
	}
	// End OK.

	// Test 3: TableInsert doesn't allow commitBatch smaller than txt batch size.
	log.Info("Test 3 - TableInsert doesn't allow commitBatch smaller than its txt batch size...")
	recovered := false
	func() {
		defer func() {
			if r := recover(); r != nil {
				log.Info("Test 3, recovered panic")
				recovered = true
			}
		}()
		cfg.CommitBatchSize = 10
		cfg.TxtBatchNumRows = 100 // deliberately larger txt batch than commit batch size.
		NewTableInsert(cfg)       // launch failing table insert.
	}()
	if !recovered {
		t.Fatal("expected panic from NewTableInsert due to TxtBatchNumRows larger than CommitBatchSize")
	}
	log.Info("Test 3 complete")

	// Test 4: SQL is executed when each txt batch is full.
	log.Info("Test 4 - TableInsert will exec SQL when txt batch is full...")
	db4, resultChan4 := shared.NewMockConnectionWithMockTx(log, "mock")
	inputChan4 := make(chan stream.Record, c.ChanSize)
	cfg.InputChan = inputChan4
	cfg.OutputDb = db4
	cfg.TxtBatchNumRows = 1
	cfg.CommitBatchSize = 10
	sendRows(inputChan4)
	close(inputChan4)
	chanOutput4, _ := NewTableInsert(cfg)
	for rec := range chanOutput4 {
		log.Debug("output from TableInsert() data = ", rec)
	}
	db4.Close()
	resultList4 := make([]string, 0, 6)
	for str := range resultChan4 {
		resultList4 = append(resultList4, str)
	}
	// Expect one single-row INSERT per input record.
	if len(resultList4) != 6 {
		t.Fatal("expected 6 strings on the mock result channel (3 statements with args); got: ", len(resultList4))
	}
	assertStr(t, `insert into t2 (key1,key2,col1,col2) values ( ?,?,?,? )`, resultList4[0])
	assertStr(t, "1 2 val1 val2", resultList4[1])
	assertStr(t, `insert into t2 (key1,key2,col1,col2) values ( ?,?,?,? )`, resultList4[2])
	assertStr(t, "3 4 val3 val4", resultList4[3])
}

// TestTableInsertPartialBatchCommit covers a CommitBatchSize that is not a
// multiple of TxtBatchNumRows. The commit that fires while a text batch is
// partially filled must exec those pending rows first, otherwise they are
// silently dropped when the input stream ends on the commit boundary.
func TestTableInsertPartialBatchCommit(t *testing.T) {
	log := logrus.New()
	log.SetLevel(logrus.DebugLevel)
	db, resultChan := shared.NewMockConnectionWithMockTx(log, "mock")
	inputChan := make(chan stream.Record, c.ChanSize)
	r1 := stream.NewRecord()
	r1.SetData("key1", "1")
	r1.SetData("key2", "2")
	r1.SetData("col1", "val1")
	r1.SetData("col2", "val2")
	r2 := stream.NewRecord()
	r2.SetData("key1", 3)
	r2.SetData("key2", 4)
	r2.SetData("col1", "val3")
	r2.SetData("col2", "val4")
	r3 := stream.NewRecord()
	r3.SetData("key1", "5")
	r3.SetData("key2", "6")
	r3.SetData("col1", "valx")
	r3.SetData("col2", "valy")
	inputChan <- r1
	inputChan <- r2
	inputChan <- r3
	close(inputChan)
	omKeys := ordered_map.NewOrderedMap()
	omKeys.Set("key1", "key1")
	omKeys.Set("key2", "key2")
	omCols := ordered_map.NewOrderedMap()
	omCols.Set("col1", "col1")
	omCols.Set("col2", "col2")
	cfg := &TableInsertConfig{
		Log:             log,
		Name:            "Test TableInsert partial batch",
		InputChan:       inputChan,
		OutputDb:        db,
		CommitBatchSize: 3,
		TxtBatchNumRows: 2, // the 3rd row commits with a half filled batch.
		SqlStatementGeneratorConfig: shared.SqlStatementGeneratorConfig{
			Log:             log,
			OutputSchema:    "",
			SchemaSeparator: ".",
			OutputTable:     "t2",
			TargetKeyCols:   omKeys,
			TargetOtherCols: omCols}}
	chanOutput, _ := NewTableInsert(cfg)
	numRows := 0
	for rec := range chanOutput {
		numRows++
		log.Debug("output from TableInsert() data = ", rec)
	}
	if numRows != 3 {
		t.Fatal("expected 3 rows on the TableInsert output channel; got: ", numRows)
	}
	db.Close() // close resultChan.
	resultList := make([]string, 0, 4)
	for str := range resultChan {
		resultList = append(resultList, str)
	}
	// Expect a full 2-row INSERT followed by a 1-row INSERT for the final row.
	if len(resultList) != 4 {
		t.Fatal("expected 2 INSERT statements with args on the mock result channel; got: ", len(resultList))
	}
	re := regexp.MustCompile("[\t\r\n\f]")
	assertStr(t, `insert into t2 (key1,key2,col1,col2) values ( ?,?,?,? ),( ?,?,?,? )`, re.ReplaceAllString(resultList[0], " "))
	assertStr(t, "1 2 val1 val2 3 4 val3 val4", resultList[1])
	assertStr(t, `insert into t2 (key1,key2,col1,col2) values ( ?,?,?,? )`, re.ReplaceAllString(resultList[2], " "))
	assertStr(t, "5 6 valx valy", resultList[3])
}
