package actions

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/martpipe/martpipe/helper"
	"github.com/martpipe/martpipe/logger"
	"github.com/martpipe/martpipe/rdbms"
)

type QueryConfig struct {
	Connections      ConnectionLoader
	SourceString     ConnectionObject
	Query            string
	PrintHeader      bool
	DryRun           bool
	LogLevel         string
	StackDumpOnPanic bool
}

// sqlHandler writes query rows to STDOUT as CSV.
type sqlHandler struct {
	printHeader bool
}

func (s *sqlHandler) HandleHeader(i []interface{}) error {
	if !s.printHeader {
		return nil
	}
	if err := s.writeCsvRow(i); err != nil {
		return fmt.Errorf("error outputting SQL header: %v", err)
	}
	return nil
}

func (s *sqlHandler) HandleRow(i []interface{}) error {
	if err := s.writeCsvRow(i); err != nil {
		return fmt.Errorf("error outputting SQL row: %v", err)
	}
	return nil
}

func (s *sqlHandler) writeCsvRow(i []interface{}) error {
	w := csv.NewWriter(os.Stdout)
	if err := w.Write(helper.InterfaceToString(i)); err != nil {
		return err
	}
	w.Flush()
	return nil
}

// RunQuery executes cfg.Query against the named source connection, writing
// rows to STDOUT. Ctrl+C cancels the running statement.
func RunQuery(cfg *QueryConfig) error {
	var err error
	if cfg.DryRun {
		fmt.Println(cfg.Query)
		return nil
	}
	log := logger.NewLogger("martpipe", cfg.LogLevel, cfg.StackDumpOnPanic)
	conn, err := cfg.Connections.LoadConnection(cfg.SourceString.GetConnectionName())
	if err != nil {
		return err
	}
	db, err := rdbms.OpenDbConnection(log, conn)
	if err != nil {
		return err
	}
	defer db.Close()
	ctx, cancelFn := context.WithCancel(context.Background())
	h := sqlHandler{printHeader: cfg.PrintHeader}
	chanQuit := make(chan os.Signal, 2)
	chanSql := make(chan struct{}, 1)
	signal.Notify(chanQuit, os.Interrupt, syscall.SIGTERM)
	go func() {
		err = rdbms.SqlQuery(ctx, log, db, cfg.Query, &h)
		chanSql <- struct{}{}
	}()
	select {
	case <-chanQuit:
		fmt.Println("\nUser abort. Stopping SQL execution...")
		cancelFn()
		select {
		case <-time.After(5 * time.Second):
			fmt.Println("Timeout waiting for SQL to end - aborted")
		case <-chanSql: // sql ended.
		}
		return nil
	case <-chanSql: // SQL ended.
	}
	// SQL Server ODBC drivers report bad column types as a literal error.
	// The bad column type is not yet known - we need to narrow this down:
	// See columns in test table TEST_DATA_TYPES.
	errUnwrap := errors.Unwrap(err)
	if errUnwrap != nil && strings.HasPrefix(errUnwrap.Error(), "unsupported column type") {
		err = fmt.Errorf("driver %v", err) // prefix "driver " for more context.
	}
	return err
}
