package components

import (
	"strconv"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/martpipe/martpipe/logger"
	"github.com/martpipe/martpipe/stream"
)

const filterTestTimeoutSec = 10

// waitForRows consumes dataChan until waitForNumRows records arrive or the
// timeout passes, returning an error on timeout.
func waitForRows(t *testing.T, dataChan chan stream.Record, waitForNumRows int, timeoutSec int) error {
	gotEnough := make(chan struct{}, 1)
	go func() {
		seen := 0
		for range dataChan {
			seen++
			if seen >= waitForNumRows { // if we counted enough rows...
				gotEnough <- struct{}{}
				break
			}
		}
	}()
	select {
	case <-gotEnough:
		return nil
	case <-time.After(time.Duration(timeoutSec) * time.Second):
		return errors.New("timeout waiting for expected number of rows")
	}
}

func TestNewFilterRows(t *testing.T) {
	log := logger.NewLogger("martpipe", "info", true)
	maxFieldValue := 100

	// Test 1 - the component responds to shutdown requests.
	log.Info("Test 1, FilterRows component shuts down...")
	inputChan1 := make(chan stream.Record, 10)
	cfg := &FilterRowsConfig{
		Log:            log,
		Name:           "test-filter-max",
		InputChan:      inputChan1,
		FilterType:     filterRowsGetMax,
		FilterMetadata: "myField",
	}
	_, controlChan1 := NewFilterRows(cfg)
	responseChan := make(chan error, 1)
	controlChan1 <- ControlAction{ResponseChan: responseChan, Action: Shutdown}
	select {
	case <-responseChan: // shutdown acknowledged.
	case <-time.After(time.Duration(filterTestTimeoutSec) * time.Second):
		t.Fatal("Test 1, timeout waiting for shutdown")
	}
	log.Info("Test 1, complete")

	// Test 2 - GetMax stays quiet while its input channel remains open.
	log.Info("Test 2, FilterRows->", filterRowsGetMax, " holds its output until the stream ends...")
	rec1 := stream.NewRecord()
	rec1.SetData("myField", 1)
	rec2 := stream.NewRecord()
	rec2.SetData("myField", maxFieldValue)
	inputChan1 <- rec1
	inputChan1 <- rec2
	outputChan2, _ := NewFilterRows(cfg)
	if err := waitForRows(t, outputChan2, 1, 2); err == nil { // if rows arrived before the input closed...
		t.Fatal("Test 2, unexpected output from FilterRows->", filterRowsGetMax, " while the input channel was still open")
	}
	log.Info("Test 2, complete")

	// Test 3 - closing the input releases exactly one max record.
	log.Info("Test 3, FilterRows->", filterRowsGetMax, " emits after the input channel closes...")
	inputChan3 := make(chan stream.Record, 10)
	cfg.InputChan = inputChan3
	inputChan3 <- rec1
	inputChan3 <- rec2
	close(inputChan3)
	outputChan3, _ := NewFilterRows(cfg)
	if err := waitForRows(t, outputChan3, 1, filterTestTimeoutSec); err != nil {
		t.Fatal("Test 3, FilterRows->", filterRowsGetMax, " ", err)
	}
	log.Info("Test 3, complete")

	// Test 4 - the emitted record carries the maximum field value.
	log.Info("Test 4, FilterRows->", filterRowsGetMax, " returns the record with max value...")
	inputChan4 := make(chan stream.Record, 10)
	cfg.InputChan = inputChan4
	inputChan4 <- rec1
	inputChan4 <- rec2
	close(inputChan4)
	outputChan4, _ := NewFilterRows(cfg)
	var maxValue string
	gotRow := make(chan struct{}, 1)
	go func() {
		for rec := range outputChan4 {
			maxValue = rec.GetDataAsStringUseUtcTime(log, "myField")
			gotRow <- struct{}{}
			break
		}
	}()
	select {
	case <-gotRow:
	case <-time.After(time.Duration(filterTestTimeoutSec) * time.Second):
		t.Fatal("Test 4, timeout waiting for row with max value")
	}
	if expected := strconv.Itoa(maxFieldValue); maxValue != expected {
		t.Fatalf("Test 4, unexpected max value returned by FilterRows->%v expected %v; got %v", filterRowsGetMax, expected, maxValue)
	}
	log.Info("Test 4, complete")

	// TODO: FilterRows test N:
	//  Test N - assert that the final max record doesn't contain leaked fields from previous max records if the final
	//  records comprises of less fields.  This is unlikely given the way we use input components.
}

func TestFilterRowsLastRowInStream(t *testing.T) {
	log := logger.NewLogger("martpipe", "info", true)

	log.Info("Test 1, LastRow holds records then emits the final one...")
	fnLastRec, err := setupLastRowInStream(log, "")
	if err != nil {
		t.Fatal(err)
	}
	got, _ := fnLastRec(stream.NewRecord())
	if !got.RecordIsNil() {
		t.Fatal("expected no output while the stream is still flowing; got: ", got)
	}
	got, _ = fnLastRec(stream.NewNilRecord())
	if got.RecordIsNil() {
		t.Fatal("expected the remembered record at end of stream; got nil")
	}
	log.Info("Test 1, complete")
}

func TestFilterRowsJsonLogic(t *testing.T) {
	log := logger.NewLogger("martpipe", "debug", true)

	// Test 1 - field equality on strings passes the record through unchanged.
	log.Info("Test 1, FilterRows->JsonLogic, apply JsonLogic")
	fnJsonLogic, err := setupJsonLogicFilter(log, `{ "==" : [ { "var" : "from" }, { "var" : "to" } ] }`)
	if err != nil {
		t.Fatalf("Test 1 failed: %v", err)
	}
	rec := stream.NewRecord()
	expected := "8"
	rec.SetData("from", expected)
	rec.SetData("to", expected)
	filteredRec, _ := fnJsonLogic(rec)
	if filteredRec.RecordIsNil() { // if the record failed the filter...
		t.Fatalf("Test 1, FilterRows->JsonLogic did not return a record as expected: %v did not pass", rec)
	}
	if _, ok := filteredRec.GetData("from").(string); !ok { // if the field type changed in transit...
		t.Fatalf("Test 1, FilterRows->JsonLogic did not return a string type for expected %v", expected)
	}
	if filteredRec.GetDataAsStringUseUtcTime(log, "from") != expected ||
		filteredRec.GetDataAsStringUseUtcTime(log, "to") != expected {
		t.Fatalf("Test 1, FilterRows->JsonLogic did not return the supplied input record intact")
	}
	log.Info("Test 1 complete")

	// Test 2 - two equal Times compare equal through the JSON marshalling.
	log.Info("Test 2, FilterRows->JsonLogic, supply Times for equality check")
	fnJsonLogic, err = setupJsonLogicFilter(log, `{ "==" : [ { "var" : "dateFrom" }, { "var" : "dateTo" } ] }`)
	if err != nil {
		t.Fatalf("Test 2 failed: %v", err)
	}
	rec2 := stream.NewRecord()
	expectedTime := time.Date(1900, 1, 1, 12, 0, 0, 1, time.Local)
	rec2.SetData("dateFrom", expectedTime)
	rec2.SetData("dateTo", expectedTime)
	if filteredRec2, _ := fnJsonLogic(rec2); filteredRec2.RecordIsNil() {
		t.Fatalf("Test 2, FilterRows->JsonLogic did not return a record as expected: %v did not pass", rec2)
	}
	log.Info("Test 2 complete")

	// Test 3 - a Time compares against an RFC3339 literal in the rule.
	log.Info("Test 3, FilterRows->JsonLogic, supply Times for explicit comparison")
	fnJsonLogic, err = setupJsonLogicFilter(log, `{ "==" : [ { "var" : "dateFrom" }, "1900-01-01T12:00:00.000000001Z" ] }`)
	if err != nil {
		t.Fatalf("Test 3 failed: %v", err)
	}
	rec3 := stream.NewRecord()
	rec3.SetData("dateFrom", time.Date(1900, 1, 1, 12, 0, 0, 1, time.Local))
	if filteredRec3, _ := fnJsonLogic(rec3); filteredRec3.RecordIsNil() {
		t.Fatalf("Test 3, FilterRows->JsonLogic did not return a record as expected: %v did not pass", rec3)
	}
	log.Info("Test 3 complete")

	// Test 4 - an unparsable rule errors at setup time, not per record.
	log.Info("Test 4, FilterRows->JsonLogic, supply junk rule to generate an error")
	if _, err = setupJsonLogicFilter(log, `junkRuleToCauseError`); err == nil {
		t.Fatal("Test 4 failed, error expected but not returned")
	}
	log.Info("Test 4 complete")
}

func TestFilterRowsAbortAfter(t *testing.T) {
	log := logger.NewLogger("martpipe", "debug", true)

	log.Info("Test 1, FilterRows->AbortAfter setup")
	fnFilter, err := setupAbortAfterFilter(log, "1")
	if err != nil {
		t.Fatalf("Test 1 failed: expected no error; got: %v", err)
	}

	log.Info("Test 2, FilterRows->AbortAfter passes records through")
	rec := stream.NewRecord()
	expected := "testValue"
	rec.SetData("testKey", expected)
	filteredRec, err := fnFilter(rec)
	if err != nil {
		t.Fatalf("Test 2 failed: unexpected error: %v", err)
	}
	if filteredRec.RecordIsNil() { // if the record was swallowed...
		t.Fatalf("Test 2 failed: FilterRows->AbortAfter did not return the input record: %v", rec)
	}
	if got := filteredRec.GetDataAsStringPreserveTimeZone(log, "testKey"); got != expected {
		t.Fatalf("Test 2 failed: expected = %v; got = %v", expected, got)
	}

	log.Info("Test 3, FilterRows->AbortAfter errors beyond the record limit")
	if _, err = fnFilter(rec); err == nil {
		t.Fatal("Test 3 failed: expected error but none received")
	} else if !errors.Is(err, errFilterAbortAfterExceededCount) {
		t.Fatalf("Test 3 failed: expected error errFilterAbortAfterExceededCount; got: %v", err)
	}

	log.Info("Test 4, FilterRows->AbortAfter is disabled when the limit is 0")
	fnFilter, err = setupAbortAfterFilter(log, "0")
	if err != nil {
		t.Fatalf("Test 4 failed: expected no error; got: %v", err)
	}
	if _, err = fnFilter(rec); err != nil {
		t.Fatalf("Test 4 failed: unexpected error: %v", err)
	}
}
