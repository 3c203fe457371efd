package shared

import (
	"context"
	"fmt"
	"strings"

	"github.com/martpipe/martpipe/constants"
	"github.com/martpipe/martpipe/logger"
	"github.com/pkg/errors"
)

// NewMockConnectionWithMockTx returns a Connector that records executed SQL on the
// returned channel so tests can validate statements without a real database.
// Each Exec produces two channel records: the SQL text, then its args as a string.
func NewMockConnectionWithMockTx(log logger.Logger, dbType string) (Connector, chan string) {
	log.Debug("New mock connection...")
	outputChan := make(chan string, constants.ChanSize) // output channel so caller can validate input SQL queries.
	return &MockConnectionWithMockTx{OutputChan: outputChan, Dml: &DmlGeneratorTxtBatch{}, DbType: dbType}, outputChan
}

type MockConnectionWithMockTx struct {
	OutputChan      chan string
	Dml             DmlGenerator
	DbType          string
	DbHasBeenClosed bool
}

func (c *MockConnectionWithMockTx) Begin() (Transacter, error) {
	return &mockTx{outputChan: c.OutputChan}, nil
}

func (c *MockConnectionWithMockTx) Exec(query string, args ...interface{}) (Result, error) {
	return c.ExecContext(context.Background(), query, args...)
}

func (c *MockConnectionWithMockTx) ExecContext(ctx context.Context, query string, args ...interface{}) (Result, error) {
	c.OutputChan <- query
	c.OutputChan <- argsToString(args)
	return &mockResult{}, nil
}

func (c *MockConnectionWithMockTx) Query(query string, args ...interface{}) (*MpRows, error) {
	return c.QueryContext(context.Background(), query, args...)
}

func (c *MockConnectionWithMockTx) QueryContext(ctx context.Context, query string, args ...interface{}) (*MpRows, error) {
	return nil, errors.New("queries are not supported by the mock connection")
}

// Close marks the connection closed and closes OutputChan so test readers can range over it.
func (c *MockConnectionWithMockTx) Close() {
	c.DbHasBeenClosed = true
	close(c.OutputChan)
}

func (c *MockConnectionWithMockTx) GetDmlGenerator() DmlGenerator {
	return c.Dml
}

func (c *MockConnectionWithMockTx) GetType() string {
	return c.DbType
}

type mockTx struct {
	outputChan chan string
}

func (t *mockTx) Prepare(query string) (Statement, error) {
	return t.PrepareContext(context.Background(), query)
}

func (t *mockTx) PrepareContext(ctx context.Context, query string) (Statement, error) {
	return &mockStmt{outputChan: t.outputChan, query: query}, nil
}

func (t *mockTx) Exec(query string, args ...interface{}) (Result, error) {
	return t.ExecContext(context.Background(), query, args...)
}

func (t *mockTx) ExecContext(ctx context.Context, query string, args ...interface{}) (Result, error) {
	t.outputChan <- query
	t.outputChan <- argsToString(args)
	return &mockResult{}, nil
}

func (t *mockTx) Commit() error {
	return nil
}

func (t *mockTx) Rollback() error {
	return nil
}

type mockStmt struct {
	outputChan chan string
	query      string
}

func (s *mockStmt) Close() error {
	return nil
}

func (s *mockStmt) Exec(args ...interface{}) (Result, error) {
	return s.ExecContext(context.Background(), args...)
}

func (s *mockStmt) ExecContext(ctx context.Context, args ...interface{}) (Result, error) {
	s.outputChan <- s.query
	s.outputChan <- argsToString(args)
	return &mockResult{}, nil
}

type mockResult struct{}

func (r *mockResult) LastInsertId() (int64, error) {
	return 0, nil
}

func (r *mockResult) RowsAffected() (int64, error) {
	return 0, nil
}

// argsToString renders exec args space separated so tests can assert them as one string.
func argsToString(args []interface{}) string {
	return strings.TrimSpace(fmt.Sprintln(args...))
}
