//go:build integration
// +build integration

package cmd

import (
	"fmt"
	"os"
	"testing"

	"github.com/martpipe/martpipe/actions"
	"github.com/martpipe/martpipe/constants"
)

// Tests require:
// 1. postgres on localhost:5432 with the Chinook sample schema, saved as connection 'chinook'
// 2. clickhouse on localhost:9000 with raw/clean/mart schemas, saved as connection 'wh'
// 3. a CSV connection 'oulad' pointing at a directory holding the OULAD sample files
// 4. AWS credentials able to reach a test S3 bucket for the staging tests

// TODO: validate raw layer row counts against the source after the snap tests.

type testActionFuncCfg struct {
	setupFunc func()
	testFunc  func(name string, t *testing.T)
}

var testActionFuncs = map[string]map[string]map[string]testActionFuncCfg{
	constants.ActionFuncsCommandLoad: {
		constants.ActionFuncsSubCommandSnapshot: {
			"sqlserver-clickhouse":      testActionFuncCfg{nilSetupActionTest, nilTestAction},
			"sqlserver-postgres":        testActionFuncCfg{nilSetupActionTest, nilTestAction},
			"sqlserver-mysql":           testActionFuncCfg{nilSetupActionTest, nilTestAction},
			"sqlserver-sqlserver":       testActionFuncCfg{nilSetupActionTest, nilTestAction},
			"odbc+sqlserver-clickhouse": testActionFuncCfg{nilSetupActionTest, nilTestAction},
			"odbc+sqlserver-postgres":   testActionFuncCfg{nilSetupActionTest, nilTestAction},
			"netezza-clickhouse":        testActionFuncCfg{nilSetupActionTest, nilTestAction},
			"netezza-postgres":          testActionFuncCfg{nilSetupActionTest, nilTestAction},
			"postgres-clickhouse":       testActionFuncCfg{nilSetupActionTest, testLoadSnapPostgresClickhouse},
			"postgres-postgres":         testActionFuncCfg{nilSetupActionTest, nilTestAction},
			"mysql-clickhouse":          testActionFuncCfg{nilSetupActionTest, nilTestAction},
			"mysql-postgres":            testActionFuncCfg{nilSetupActionTest, nilTestAction},
			"clickhouse-clickhouse":     testActionFuncCfg{nilSetupActionTest, nilTestAction},
			"csv-clickhouse":            testActionFuncCfg{nilSetupActionTest, testLoadSnapCsvClickhouse},
			"csv-postgres":              testActionFuncCfg{nilSetupActionTest, nilTestAction},
			"csv-mysql":                 testActionFuncCfg{nilSetupActionTest, nilTestAction},
			"csv-sqlserver":             testActionFuncCfg{nilSetupActionTest, nilTestAction},
			"sqlserver-snowflake":       testActionFuncCfg{nilSetupActionTest, nilTestAction},
			"odbc+sqlserver-snowflake":  testActionFuncCfg{nilSetupActionTest, nilTestAction},
			"netezza-snowflake":         testActionFuncCfg{nilSetupActionTest, nilTestAction},
			"postgres-snowflake":        testActionFuncCfg{nilSetupActionTest, nilTestAction},
			"mysql-snowflake":           testActionFuncCfg{nilSetupActionTest, nilTestAction},
			"s3-snowflake":              testActionFuncCfg{nilSetupActionTest, nilTestAction},
			"sqlserver-s3":              testActionFuncCfg{nilSetupActionTest, nilTestAction},
			"odbc+sqlserver-s3":         testActionFuncCfg{nilSetupActionTest, nilTestAction},
			"netezza-s3":                testActionFuncCfg{nilSetupActionTest, nilTestAction},
			"postgres-s3":               testActionFuncCfg{nilSetupActionTest, testLoadSnapPostgresS3},
			"mysql-s3":                  testActionFuncCfg{nilSetupActionTest, nilTestAction},
			"clickhouse-s3":             testActionFuncCfg{nilSetupActionTest, nilTestAction},
			"s3-stdout":                 testActionFuncCfg{nilSetupActionTest, nilTestAction},
			"sqlserver-stdout":          testActionFuncCfg{nilSetupActionTest, nilTestAction},
			"postgres-stdout":           testActionFuncCfg{nilSetupActionTest, nilTestAction},
			"mysql-stdout":              testActionFuncCfg{nilSetupActionTest, nilTestAction},
			"clickhouse-stdout":         testActionFuncCfg{nilSetupActionTest, nilTestAction},
		},
		constants.ActionFuncsSubCommandAppend: {
			"sqlserver-clickhouse":      testActionFuncCfg{nilSetupActionTest, nilTestAction},
			"sqlserver-postgres":        testActionFuncCfg{nilSetupActionTest, nilTestAction},
			"sqlserver-mysql":           testActionFuncCfg{nilSetupActionTest, nilTestAction},
			"sqlserver-sqlserver":       testActionFuncCfg{nilSetupActionTest, nilTestAction},
			"odbc+sqlserver-clickhouse": testActionFuncCfg{nilSetupActionTest, nilTestAction},
			"odbc+sqlserver-postgres":   testActionFuncCfg{nilSetupActionTest, nilTestAction},
			"netezza-clickhouse":        testActionFuncCfg{nilSetupActionTest, nilTestAction},
			"netezza-postgres":          testActionFuncCfg{nilSetupActionTest, nilTestAction},
			"postgres-clickhouse":       testActionFuncCfg{nilSetupActionTest, testLoadAppendPostgresClickhouse},
			"postgres-postgres":         testActionFuncCfg{nilSetupActionTest, nilTestAction},
			"mysql-clickhouse":          testActionFuncCfg{nilSetupActionTest, nilTestAction},
			"mysql-postgres":            testActionFuncCfg{nilSetupActionTest, nilTestAction},
			"clickhouse-clickhouse":     testActionFuncCfg{nilSetupActionTest, nilTestAction},
			"csv-clickhouse":            testActionFuncCfg{nilSetupActionTest, nilTestAction},
			"csv-postgres":              testActionFuncCfg{nilSetupActionTest, nilTestAction},
			"csv-mysql":                 testActionFuncCfg{nilSetupActionTest, nilTestAction},
			"csv-sqlserver":             testActionFuncCfg{nilSetupActionTest, nilTestAction},
			"sqlserver-snowflake":       testActionFuncCfg{nilSetupActionTest, nilTestAction},
			"odbc+sqlserver-snowflake":  testActionFuncCfg{nilSetupActionTest, nilTestAction},
			"netezza-snowflake":         testActionFuncCfg{nilSetupActionTest, nilTestAction},
			"postgres-snowflake":        testActionFuncCfg{nilSetupActionTest, nilTestAction},
			"mysql-snowflake":           testActionFuncCfg{nilSetupActionTest, nilTestAction},
			"s3-snowflake":              testActionFuncCfg{nilSetupActionTest, nilTestAction},
			"sqlserver-s3":              testActionFuncCfg{nilSetupActionTest, nilTestAction},
			"odbc+sqlserver-s3":         testActionFuncCfg{nilSetupActionTest, nilTestAction},
			"netezza-s3":                testActionFuncCfg{nilSetupActionTest, nilTestAction},
			"postgres-s3":               testActionFuncCfg{nilSetupActionTest, nilTestAction},
			"mysql-s3":                  testActionFuncCfg{nilSetupActionTest, nilTestAction},
			"clickhouse-s3":             testActionFuncCfg{nilSetupActionTest, nilTestAction},
		},
		constants.ActionFuncsSubCommandMeta: {
			"sqlserver-clickhouse":      testActionFuncCfg{nilSetupActionTest, nilTestAction},
			"odbc+sqlserver-clickhouse": testActionFuncCfg{nilSetupActionTest, nilTestAction},
			"netezza-clickhouse":        testActionFuncCfg{nilSetupActionTest, nilTestAction},
			"postgres-clickhouse":       testActionFuncCfg{nilSetupActionTest, testLoadMetaPostgresClickhouse},
			"mysql-clickhouse":          testActionFuncCfg{nilSetupActionTest, nilTestAction},
			"csv-clickhouse":            testActionFuncCfg{nilSetupActionTest, nilTestAction},
			"sqlserver-postgres":        testActionFuncCfg{nilSetupActionTest, nilTestAction},
			"mysql-postgres":            testActionFuncCfg{nilSetupActionTest, nilTestAction},
			"csv-postgres":              testActionFuncCfg{nilSetupActionTest, nilTestAction},
			"sqlserver-snowflake":       testActionFuncCfg{nilSetupActionTest, nilTestAction},
			"odbc+sqlserver-snowflake":  testActionFuncCfg{nilSetupActionTest, nilTestAction},
			"netezza-snowflake":         testActionFuncCfg{nilSetupActionTest, nilTestAction},
			"postgres-snowflake":        testActionFuncCfg{nilSetupActionTest, nilTestAction},
			"mysql-snowflake":           testActionFuncCfg{nilSetupActionTest, nilTestAction},
		},
	},
}

var testCommands = map[string]map[string]testActionFuncCfg{
	"query": {
		"postgres": testActionFuncCfg{nilSetupActionTest, testQueryPostgres},
	},
	"build": {
		"chinook-check": testActionFuncCfg{nilSetupActionTest, testBuildCheckChinook},
	},
}

func nilSetupActionTest() {
	return
}

func nilTestAction(name string, t *testing.T) {
	t.Log("skipping", name)
}

// TestActions will test each action in actions.ActionFuncs by finding the corresponding test configured in
// testActionFuncs. If an action is not configured it will fail.
func TestActions(t *testing.T) {
	t.Log("Running integration tests for mp actions...")
	for cmdKey, cmdVal := range actions.ActionFuncs {
		for subCmdKey := range cmdVal {
			a := actions.ActionFuncs[cmdKey][subCmdKey]
			for k := range a { // for each configured action key...
				// Check there is a corresponding test.
				cfg, ok := testActionFuncs[cmdKey][subCmdKey][k]
				if !ok {
					t.Fatalf("missing test for action: %v %v %v", cmdKey, subCmdKey, k)
				}
				cfg.setupFunc()
				cfg.testFunc(fmt.Sprintf("%v %v %v", cmdKey, subCmdKey, k), t)
			}
		}
	}
	for cmdKey, cmd := range testCommands {
		for k, cfg := range cmd {
			cfg.setupFunc()
			cfg.testFunc(fmt.Sprintf("%v %v", cmdKey, k), t)
		}
	}
}

// POSTGRES -> CLICKHOUSE:

func testLoadSnapPostgresClickhouse(name string, t *testing.T) {
	t.Log(name)
	_ = os.Unsetenv(envVarTwelveFactorMode)
	setupTwelveFactorMode()
	dropAndCreateRawArtistTable(t)
	// Run the load snap test.
	loadSnapCfg.Connections = getConnectionHandler()
	loadSnapCfg.SourceString = actions.ConnectionObject{ConnectionObject: "chinook.public.artist"}
	loadSnapCfg.TargetString = actions.ConnectionObject{ConnectionObject: "wh.raw.artist"}
	loadSnapCfg.LogLevel = "error"
	if err := runLoadSnap(); err != nil {
		t.Fatal("Failed to run test load snap from Postgres to ClickHouse:", err)
	}
	// Snap again to prove the truncate makes it idempotent.
	if err := runLoadSnap(); err != nil {
		t.Fatal("Failed to re-run test load snap from Postgres to ClickHouse:", err)
	}
	dropRawArtistTable(t)
}

func testLoadAppendPostgresClickhouse(name string, t *testing.T) {
	t.Log(name)
	_ = os.Unsetenv(envVarTwelveFactorMode)
	setupTwelveFactorMode()
	dropAndCreateRawArtistTable(t)
	// Run the load append test.
	loadAppendCfg.Connections = getConnectionHandler()
	loadAppendCfg.SourceString = actions.ConnectionObject{ConnectionObject: "chinook.public.artist"}
	loadAppendCfg.TargetString = actions.ConnectionObject{ConnectionObject: "wh.raw.artist"}
	loadAppendCfg.LogLevel = "error"
	loadAppendCfg.AppendTarget = true
	if err := runLoadAppend(); err != nil {
		t.Fatal("Failed to run test load append from Postgres to ClickHouse:", err)
	}
	dropRawArtistTable(t)
}

// CSV -> CLICKHOUSE:

func testLoadSnapCsvClickhouse(name string, t *testing.T) {
	t.Log(name)
	_ = os.Unsetenv(envVarTwelveFactorMode)
	setupTwelveFactorMode()
	// Run the load snap test against the OULAD sample files.
	loadSnapCfg.Connections = getConnectionHandler()
	loadSnapCfg.SourceString = actions.ConnectionObject{ConnectionObject: "oulad.courses"}
	loadSnapCfg.TargetString = actions.ConnectionObject{ConnectionObject: "wh.raw.courses"}
	loadSnapCfg.LogLevel = "error"
	if err := runLoadSnap(); err != nil {
		t.Fatal("Failed to run test load snap from CSV to ClickHouse:", err)
	}
}

// POSTGRES -> S3:

func testLoadSnapPostgresS3(name string, t *testing.T) {
	t.Log(name)
	_ = os.Unsetenv(envVarTwelveFactorMode)
	setupTwelveFactorMode()
	loadSnapCfg.Connections = getConnectionHandler()
	loadSnapCfg.SourceString = actions.ConnectionObject{ConnectionObject: "chinook.public.artist"}
	loadSnapCfg.TargetString = actions.ConnectionObject{ConnectionObject: "s3.artist"}
	loadSnapCfg.LogLevel = "error"
	if err := runLoadSnap(); err != nil {
		t.Fatal("Failed to run test load snap from Postgres to S3:", err)
	}
}

// META:

func testLoadMetaPostgresClickhouse(name string, t *testing.T) {
	t.Log(name)
	_ = os.Unsetenv(envVarTwelveFactorMode)
	setupTwelveFactorMode()
	dropRawArtistTable(t)
	// Generate and execute the DDL.
	loadMetaCfg.Connections = getConnectionHandler()
	loadMetaCfg.SourceString = actions.ConnectionObject{ConnectionObject: "chinook.public.artist"}
	loadMetaCfg.TargetString = actions.ConnectionObject{ConnectionObject: "wh.raw.artist"}
	loadMetaCfg.ExecuteDDL = true
	if err := runLoadMeta(); err != nil {
		t.Fatal("Failed to run test load meta from Postgres to ClickHouse:", err)
	}
	dropRawArtistTable(t)
}

// ----------------------------------------------------------------------------
// QUERY
// ----------------------------------------------------------------------------

func testQueryPostgres(name string, t *testing.T) {
	t.Log(name)
	// Expect connection 'chinook' to exist and execute a benign query against it.
	_ = os.Unsetenv(envVarTwelveFactorMode)
	setupTwelveFactorMode() // unset 12factor mode
	c := "chinook"
	q := actions.QueryConfig{
		Connections:      getConnectionLoader(),
		SourceString:     actions.ConnectionObject{ConnectionObject: c},
		Query:            "select 1",
		PrintHeader:      false,
		DryRun:           false,
		LogLevel:         "error",
		StackDumpOnPanic: false,
	}
	err := actions.RunQuery(&q)
	if err != nil {
		t.Fatalf("Test failed: could not execute query against connection '%v': %v", c, err)
	}
}

// ----------------------------------------------------------------------------
// BUILD
// ----------------------------------------------------------------------------

func testBuildCheckChinook(name string, t *testing.T) {
	t.Log(name)
	// Expect the raw chinook tables to exist on the 'wh' connection after the snap tests.
	_ = os.Unsetenv(envVarTwelveFactorMode)
	setupTwelveFactorMode()
	buildCheckCfg.Connections = getConnectionHandler()
	buildCheckCfg.PackName = "chinook"
	buildCheckCfg.TargetConnection = "wh"
	buildCheckCfg.ChecksOnly = true
	buildCheckCfg.LogLevel = "error"
	if err := actions.RunBuild(&buildCheckCfg); err != nil {
		t.Fatal("Failed to run test build check for the chinook pack:", err)
	}
}

// ----------------------------------------------------------------------------
// HELPERS:
// ----------------------------------------------------------------------------

func dropRawArtistTable(t *testing.T) {
	// Drop the target ClickHouse table.
	queryCfg.Connections = getConnectionLoader()
	queryCfg.SourceString = actions.ConnectionObject{ConnectionObject: "wh"}
	queryCfg.Query = "drop table raw.artist"
	if err := actions.RunQuery(&queryCfg); err != nil {
		t.Log("Ignorable failure to drop table:", err)
	}
}

func dropAndCreateRawArtistTable(t *testing.T) {
	// Recreate the target ClickHouse table.
	dropRawArtistTable(t)
	loadMetaCfg.Connections = getConnectionHandler()
	loadMetaCfg.SourceString = actions.ConnectionObject{ConnectionObject: "chinook.public.artist"}
	loadMetaCfg.TargetString = actions.ConnectionObject{ConnectionObject: "wh.raw.artist"}
	loadMetaCfg.ExecuteDDL = true
	if err := runLoadMeta(); err != nil {
		t.Fatal("Failed to create table for load meta test:", err)
	}
}
