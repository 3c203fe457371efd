package components

import (
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	c "github.com/martpipe/martpipe/constants"
	"github.com/martpipe/martpipe/logger"
	"github.com/martpipe/martpipe/stream"
)

func TestNewSqlCheck(t *testing.T) {
	log := logger.NewLogger("sql check test", "info", true)
	sqlNotNull := "select count(*) from clean.album where album_id is null"
	// Test 1 - a zero violation count emits a passed result record.
	log.Info("Test 1 - a zero violation count emits a passed result record...")
	db, mock := newSqlmockConnector(t)
	mock.ExpectQuery(regexp.QuoteMeta(sqlNotNull)).
		WillReturnRows(sqlmock.NewRows([]string{"violations"}).AddRow(0))
	cfg := &SqlCheckConfig{
		Log:        log,
		Name:       "Test SqlCheck",
		Db:         db,
		CheckName:  "not_null",
		TableName:  "clean.album",
		ColumnName: "album_id",
		Sqltext:    sqlNotNull,
		Severity:   c.CheckSeverityError,
	}
	outputChan, _ := NewSqlCheck(cfg)
	results := make([]stream.Record, 0)
	for rec := range outputChan {
		results = append(results, rec)
	}
	if len(results) != 1 {
		t.Fatal("expected 1 check result record; got: ", len(results))
	}
	if got := results[0].GetData(c.CheckResultFieldName4Status); got != c.CheckStatusPassed {
		t.Fatal("expected check status passed; got: ", got)
	}
	if got := results[0].GetData(c.CheckResultFieldName4Violations); got != int64(0) {
		t.Fatal("expected 0 violations on the result record; got: ", got)
	}
	if got := results[0].GetData(c.CheckResultFieldName4Check); got != "not_null" {
		t.Fatal("expected the check name on the result record; got: ", got)
	}

	// Test 2 - warn severity logs and emits a warned result without stopping the run.
	log.Info("Test 2 - warn severity emits a warned result without stopping the run...")
	db2, mock2 := newSqlmockConnector(t)
	mock2.ExpectQuery(regexp.QuoteMeta(sqlNotNull)).
		WillReturnRows(sqlmock.NewRows([]string{"violations"}).AddRow(3))
	cfg.Db = db2
	cfg.Severity = c.CheckSeverityWarn
	outputChan2, _ := NewSqlCheck(cfg)
	results2 := make([]stream.Record, 0)
	for rec := range outputChan2 {
		results2 = append(results2, rec)
	}
	if len(results2) != 1 {
		t.Fatal("expected 1 check result record; got: ", len(results2))
	}
	if got := results2[0].GetData(c.CheckResultFieldName4Status); got != c.CheckStatusWarned {
		t.Fatal("expected check status warned; got: ", got)
	}
	if got := results2[0].GetData(c.CheckResultFieldName4Violations); got != int64(3) {
		t.Fatal("expected 3 violations on the result record; got: ", got)
	}

	// Test 3 - error severity panics when violations are found.
	log.Info("Test 3 - error severity panics when violations are found...")
	db3, mock3 := newSqlmockConnector(t)
	mock3.ExpectQuery(regexp.QuoteMeta(sqlNotNull)).
		WillReturnRows(sqlmock.NewRows([]string{"violations"}).AddRow(5))
	panicChan := make(chan interface{}, 1)
	cfg.Db = db3
	cfg.Severity = c.CheckSeverityError
	cfg.PanicHandlerFn = func() {
		if r := recover(); r != nil {
			panicChan <- r
		}
	}
	_, _ = NewSqlCheck(cfg)
	select {
	case <-time.After(3 * time.Second):
		t.Fatal("timeout waiting for SqlCheck to panic on error severity")
	case <-panicChan:
		// continue
	}
	cfg.PanicHandlerFn = nil

	// Test 4 - the check runs once per record on the trigger channel.
	log.Info("Test 4 - the check runs once per record on the trigger channel...")
	db4, mock4 := newSqlmockConnector(t)
	mock4.ExpectQuery(regexp.QuoteMeta(sqlNotNull)).
		WillReturnRows(sqlmock.NewRows([]string{"violations"}).AddRow(0))
	mock4.ExpectQuery(regexp.QuoteMeta(sqlNotNull)).
		WillReturnRows(sqlmock.NewRows([]string{"violations"}).AddRow(0))
	in := make(chan stream.Record, 2)
	in <- stream.NewRecord()
	in <- stream.NewRecord()
	close(in)
	cfg.Db = db4
	cfg.InputChan = in
	outputChan4, _ := NewSqlCheck(cfg)
	count4 := 0
	for range outputChan4 {
		count4++
	}
	if count4 != 2 {
		t.Fatal("expected 2 check result records; got: ", count4)
	}
	if err := mock4.ExpectationsWereMet(); err != nil {
		t.Fatal("sqlmock expectations were not met: ", err)
	}

	// Test 5 - SqlCheck handles shutdown requests.
	log.Info("Test 5 - SqlCheck handles shutdown requests...")
	in5 := make(chan stream.Record, 1)
	cfg.InputChan = in5
	_, controlChan := NewSqlCheck(cfg)
	responseChan := make(chan error, 1)
	controlChan <- ControlAction{Action: Shutdown, ResponseChan: responseChan}
	select {
	case <-time.After(3 * time.Second):
		t.Fatal("timeout waiting for SqlCheck to shutdown")
	case <-responseChan:
		// continue
	}

	// Test 6 - unsupported severity panics during setup.
	log.Info("Test 6 - unsupported severity panics during setup...")
	func() {
		defer func() {
			if r := recover(); r == nil {
				t.Fatal("expected a panic for unsupported severity")
			}
		}()
		_, _ = NewSqlCheck(&SqlCheckConfig{
			Log:      log,
			Name:     "Test SqlCheck bad severity",
			Db:       db4,
			Sqltext:  "select 1",
			Severity: "fatal",
		})
	}()
}
