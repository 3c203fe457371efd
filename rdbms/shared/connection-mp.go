package shared

import (
	"context"
	"database/sql"
	"errors"
	"reflect"
)

// MpConnection is a wrapper around Go native sql.DB.
// It also adds the DmlGenerator interface for use in components that output records to a database,
// since placeholder style and batch INSERT shape vary per database type.
type MpConnection struct {
	DbSql  *sql.DB
	Dml    DmlGenerator
	DbType string
}

// Connector:

func (c *MpConnection) Begin() (Transacter, error) {
	if c.DbSql == nil {
		return nil, errors.New("MpConnection was not configured correctly: DbSql is missing")
	}
	tx, err := c.DbSql.Begin()
	return &MpTx{txSql: tx}, err
}

func (c *MpConnection) Exec(query string, args ...interface{}) (Result, error) {
	return c.ExecContext(context.Background(), query, args...)
}

func (c *MpConnection) ExecContext(ctx context.Context, query string, args ...interface{}) (Result, error) {
	return c.DbSql.ExecContext(ctx, query, args...)
}

func (c *MpConnection) Query(query string, args ...interface{}) (*MpRows, error) {
	return c.QueryContext(context.Background(), query, args...)
}

func (c *MpConnection) QueryContext(ctx context.Context, query string, args ...interface{}) (*MpRows, error) {
	r, err := c.DbSql.QueryContext(ctx, query, args...)
	return &MpRows{rowsSql: r}, err
}

func (c *MpConnection) Close() {
	_ = c.DbSql.Close()
}

func (c *MpConnection) GetDmlGenerator() DmlGenerator {
	return c.Dml
}

func (c *MpConnection) GetType() string {
	return c.DbType
}

// Transacter:

type MpTx struct {
	txSql *sql.Tx
}

func (t *MpTx) Prepare(query string) (Statement, error) {
	return t.PrepareContext(context.Background(), query)
}

func (t *MpTx) PrepareContext(ctx context.Context, query string) (Statement, error) {
	s, err := t.txSql.PrepareContext(ctx, query)
	return &MpStmt{stmtSql: s}, err
}

func (t *MpTx) Exec(query string, args ...interface{}) (Result, error) {
	return t.ExecContext(context.Background(), query, args...)
}

func (t *MpTx) ExecContext(ctx context.Context, query string, args ...interface{}) (Result, error) {
	return t.txSql.ExecContext(ctx, query, args...)
}

func (t *MpTx) Commit() error {
	return t.txSql.Commit()
}

func (t *MpTx) Rollback() error {
	return t.txSql.Rollback()
}

// Statement:

type MpStmt struct {
	stmtSql *sql.Stmt
}

func (s *MpStmt) Close() error {
	return s.stmtSql.Close()
}

func (s *MpStmt) Exec(args ...interface{}) (Result, error) {
	return s.ExecContext(context.Background(), args...)
}

func (s *MpStmt) ExecContext(ctx context.Context, args ...interface{}) (Result, error) {
	return s.stmtSql.ExecContext(ctx, args...)
}

// Rows:

type MpRows struct {
	rowsSql *sql.Rows
}

func (r *MpRows) Close() error {
	return r.rowsSql.Close()
}

func (r *MpRows) Columns() ([]string, error) {
	return r.rowsSql.Columns()
}

func (r *MpRows) ColumnTypes() ([]*MpColumnType, error) {
	c, err := r.rowsSql.ColumnTypes()          // get the specific column types.
	x := make([]*MpColumnType, len(c), len(c)) // make a generic slice of *MpColumnType.
	for i, v := range c {                      // for each specific column type...
		x[i] = &MpColumnType{colTypeSql: v}
	}
	return x, err
}

func (r *MpRows) Err() error {
	return r.rowsSql.Err()
}

func (r *MpRows) Next() bool {
	return r.rowsSql.Next()
}

func (r *MpRows) NextResultSet() bool {
	return r.rowsSql.NextResultSet()
}

func (r *MpRows) Scan(dest ...interface{}) error {
	return r.rowsSql.Scan(dest...)
}

// ColumnType:

type MpColumnType struct {
	colTypeSql *sql.ColumnType
}

func (c *MpColumnType) DatabaseTypeName() string {
	return c.colTypeSql.DatabaseTypeName()
}

func (c *MpColumnType) DecimalSize() (precision, scale int64, ok bool) {
	return c.colTypeSql.DecimalSize()
}

func (c *MpColumnType) Length() (length int64, ok bool) {
	return c.colTypeSql.Length()
}

func (c *MpColumnType) Name() string {
	return c.colTypeSql.Name()
}

func (c *MpColumnType) Nullable() (nullable, ok bool) {
	return c.colTypeSql.Nullable()
}

func (c *MpColumnType) ScanType() reflect.Type {
	return c.colTypeSql.ScanType()
}
