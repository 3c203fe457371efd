package rdbms

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/martpipe/martpipe/constants"
	"github.com/martpipe/martpipe/logger"
	"github.com/martpipe/martpipe/rdbms/shared"
	sf "github.com/snowflakedb/gosnowflake"
)

const snowflakeDsnPrefix = "snowflake://"

var DefaultSnowflakeConnectionKeyNames = struct {
	AccountName  string
	DatabaseName string
	Warehouse    string
	SchemaName   string
	UserName     string
	Password     string
	RoleName     string
}{
	AccountName:  "accountName",
	DatabaseName: "databaseName",
	Warehouse:    "warehouse",
	SchemaName:   "schemaName",
	UserName:     "userName",
	Password:     "password",
	RoleName:     "roleName",
}

type SnowflakeConnectionDetails struct {
	Account        string `errorTxt:"Snowflake account" mandatory:"yes"`
	DBName         string `errorTxt:"Snowflake db name" mandatory:"yes"`
	Schema         string `errorTxt:"Snowflake schema" mandatory:"yes"`
	User           string `errorTxt:"Snowflake username" mandatory:"yes"`
	Password       string `errorTxt:"Snowflake password" mandatory:"yes"`
	Warehouse      string `errorTxt:"Snowflake warehouse"`
	RoleName       string `errorTxt:"Snowflake role name"`
	Dsn            string
	OriginalScheme string
}

// String renders the connection details with the password masked.
func (d SnowflakeConnectionDetails) String() string {
	return fmt.Sprintf("%v:%v@%v/%v?schema=%v&warehouse=%v&role=%v",
		d.User,
		"xxxxxxx",
		d.Account,
		d.DBName,
		d.Schema,
		d.Warehouse,
		d.RoleName,
	)
}

func (d SnowflakeConnectionDetails) Parse() error {
	_, err := SnowflakeParseDSN(d.Dsn)
	return err
}

func (d SnowflakeConnectionDetails) GetScheme() (string, error) {
	return constants.ConnectionTypeSnowflake, nil
}

func (d SnowflakeConnectionDetails) GetMap(m map[string]string) map[string]string {
	if m == nil {
		m = make(map[string]string)
	}
	m[shared.DefaultDsnConnectionKeyNames.Dsn] = d.Dsn
	return m
}

// newSnowflakeConnection opens and pings the Snowflake database specified in d.
func newSnowflakeConnection(log logger.Logger, d *shared.DsnConnectionDetails) (shared.Connector, error) {
	dsn := strings.TrimPrefix(d.Dsn, snowflakeDsnPrefix)
	conn := &shared.MpConnection{
		Dml:    &shared.DmlGeneratorTxtBatch{BindStyle: shared.BindStyleQuestion},
		DbType: constants.ConnectionTypeSnowflake,
	}
	var err error
	if conn.DbSql, err = sql.Open("snowflake", dsn); err != nil {
		return nil, err
	}
	if err = conn.DbSql.Ping(); err != nil {
		log.Panic(err)
	}
	log.Info("Successful database connection to Snowflake.")
	return conn, nil
}

// SnowflakeDDLExec runs the supplied DDL on a fresh connection. The statement
// cannot be cancelled once submitted.
func SnowflakeDDLExec(log logger.Logger, connDetails *shared.DsnConnectionDetails, sql string) error {
	conn, err := newSnowflakeConnection(log, connDetails)
	if err != nil {
		return err
	}
	defer conn.Close()
	rows, err := conn.Query(sql)
	if err != nil {
		return fmt.Errorf("failed to run query: '%v', error: %v", sql, err)
	}
	defer rows.Close()
	return nil
}

// SnowflakeGetDSN constructs a DSN from SnowflakeConnectionDetails, with the
// 'snowflake://' prefix added.
func SnowflakeGetDSN(c *SnowflakeConnectionDetails) (string, error) {
	dsn, err := sf.DSN(&sf.Config{
		Account:   c.Account,
		Database:  c.DBName,
		Schema:    c.Schema,
		User:      c.User,
		Password:  c.Password,
		Warehouse: c.Warehouse,
		Role:      c.RoleName,
	})
	if err != nil {
		return "", err
	}
	if !strings.HasPrefix(dsn, snowflakeDsnPrefix) {
		dsn = snowflakeDsnPrefix + dsn
	}
	return dsn, err
}

// SnowflakeParseDSN converts a Snowflake DSN into native connection details.
// The DSN must carry the 'snowflake://' prefix, which is stripped before
// parsing.
func SnowflakeParseDSN(d string) (*SnowflakeConnectionDetails, error) {
	if !strings.HasPrefix(d, snowflakeDsnPrefix) {
		return nil, errors.New("unsupported Snowflake DSN format")
	}
	cfg, err := sf.ParseDSN(strings.TrimPrefix(d, snowflakeDsnPrefix))
	if err != nil {
		return nil, err
	}
	retval := &SnowflakeConnectionDetails{
		User:      cfg.User,
		Password:  cfg.Password,
		Schema:    cfg.Schema,
		DBName:    cfg.Database,
		Account:   cfg.Account,
		RoleName:  cfg.Role,
		Warehouse: cfg.Warehouse,
	}
	if cfg.Region != "" { // carry the region in the account setting.
		retval.Account = fmt.Sprintf("%v.%v", retval.Account, cfg.Region)
	}
	return retval, nil
}
