package components

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/martpipe/martpipe/logger"
	"github.com/martpipe/martpipe/rdbms/shared"
)

// newSqlmockConnector wraps a sqlmock database in a Connector so components can
// run queries against canned rows without a real database.
func newSqlmockConnector(t *testing.T) (shared.Connector, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal("error creating sqlmock database: ", err)
	}
	conn := &shared.MpConnection{
		DbSql:  db,
		Dml:    &shared.DmlGeneratorTxtBatch{},
		DbType: "mock",
	}
	return conn, mock
}

func TestNewSqlQueryWithArgs(t *testing.T) {
	log := logger.NewLogger("martpipe", "info", true)
	log.Info("Running test TestNewSqlQueryWithArgs...")
	db, mock := newSqlmockConnector(t)
	mock.ExpectQuery("select album_id, title from album").
		WillReturnRows(sqlmock.NewRows([]string{"album_id", "title"}).
			AddRow(1, "For Those About To Rock We Salute You").
			AddRow(2, "Balls to the Wall"))
	cfg := &SqlQueryWithArgsConfig{
		Log:         log,
		Name:        "Test SqlQueryWithArgs",
		Db:          db,
		Sqltext:     "select album_id, title from album",
		Args:        nil,
		StepWatcher: nil,
	}
	resultsChan, controlChan := NewSqlQueryWithArgs(cfg)
	// Test 1 - confirm SqlQueryWithArgs emits each row with fields keyed by column name.
	rowCount := 0
	for rec := range resultsChan {
		rowCount++
		if rec.GetData("album_id") == nil {
			t.Fatal("expected album_id field on output record")
		}
		if rec.GetData("title") == nil {
			t.Fatal("expected title field on output record")
		}
	}
	if rowCount != 2 {
		t.Fatal("expected 2 rows from SqlQueryWithArgs; got: ", rowCount)
	}
	// Test 2 - confirm SqlQueryWithArgs returns a controlChan.
	if controlChan == nil {
		t.Fatal("SqlQueryWithArgs returned a nil controlChan")
	}
}

func TestNewSqlQueryWithReplace(t *testing.T) {
	log := logger.NewLogger("martpipe", "info", true)
	log.Info("Running test TestNewSqlQueryWithReplace...")
	db, mock := newSqlmockConnector(t)
	mock.ExpectQuery(`select count\(\*\) as num_violations from clean.students where gender is null`).
		WillReturnRows(sqlmock.NewRows([]string{"num_violations"}).AddRow(0))
	cfg := &SqlQueryWithReplace{
		Log:     log,
		Name:    "Test SqlQueryWithReplace",
		Db:      db,
		Sqltext: "select count(*) as num_violations from ${schema}.students where gender is null",
		Replacements: map[string]string{
			"${schema}": "clean",
		},
		StepWatcher: nil,
	}
	resultsChan, _ := NewSqlQueryWithReplace(cfg)
	rowCount := 0
	for rec := range resultsChan {
		rowCount++
		if rec.GetData("num_violations") == nil {
			t.Fatal("expected num_violations field on output record")
		}
	}
	if rowCount != 1 {
		t.Fatal("expected 1 row from SqlQueryWithReplace; got: ", rowCount)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal("sqlmock expectations were not met: ", err)
	}
}

func TestNewSqlQueryWithArgsShutdown(t *testing.T) {
	log := logger.NewLogger("martpipe", "info", true)
	log.Info("Running test TestNewSqlQueryWithArgsShutdown...")
	db, mock := newSqlmockConnector(t)
	// Supply more rows than the output channel can buffer so the component
	// cannot complete without a consumer and must hit the shutdown path.
	rows := sqlmock.NewRows([]string{"n"})
	for i := 0; i < 25000; i++ {
		rows.AddRow(i)
	}
	mock.ExpectQuery("select n from t1").WillReturnRows(rows)
	cfg := &SqlQueryWithArgsConfig{
		Log:     log,
		Name:    "Test SqlQueryWithArgs shutdown",
		Db:      db,
		Sqltext: "select n from t1",
	}
	_, controlChan := NewSqlQueryWithArgs(cfg)
	// Send shutdown request.
	responseChan := make(chan error, 1)
	controlChan <- ControlAction{Action: Shutdown, ResponseChan: responseChan}
	// Wait for a response to say the component has shutdown.
	select {
	case <-time.After(3 * time.Second):
		t.Fatal("timeout waiting for SqlQueryWithArgs to shutdown")
	case <-responseChan: // if we get a shutdown response...
		// continue OK
	}
}
