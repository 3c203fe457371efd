package components_test

import (
	"path"
	"testing"

	"github.com/martpipe/martpipe/components"
	c "github.com/martpipe/martpipe/constants"
	"github.com/martpipe/martpipe/logger"
	"github.com/martpipe/martpipe/rdbms"
	"github.com/martpipe/martpipe/rdbms/shared"
	"github.com/martpipe/martpipe/stream"
)

const (
	snowflakeTestFile  = "test-file-1.csv"
	snowflakeTestStage = "stg_test_s3_reeslloyd_com"
)

// newSnowflakeLoaderInput puts one record carrying the test file name onto a
// closed channel ready for a loader run.
func newSnowflakeLoaderInput() chan stream.Record {
	inputChan := make(chan stream.Record, int(c.ChanSize))
	rec := stream.NewRecord()
	rec.SetData(components.Defaults.ChanField4FileName, snowflakeTestFile)
	inputChan <- rec
	close(inputChan)
	return inputChan
}

// drainSnowflakeLoaderOutput asserts the loader passes input records through
// to its output unchanged.
func drainSnowflakeLoaderOutput(t *testing.T, outputChan chan stream.Record) {
	t.Helper()
	for rec := range outputChan {
		if rec.GetData(components.Defaults.ChanField4FileName) != snowflakeTestFile {
			t.Fatal("Unexpected fileName found on NewSnowflakeLoader outputChan. Expected: ", snowflakeTestFile,
				". Found: ", rec.GetData(components.Defaults.ChanField4FileName))
		}
	}
}

// collectMockSql closes the mock result channel then returns its contents,
// which alternate between SQL text and args.
func collectMockSql(log logger.Logger, resultChan chan string) []string {
	close(resultChan)
	res := make([]string, 0)
	for s := range resultChan {
		log.Debug("mock SQL captured: ", s)
		res = append(res, s)
	}
	return res
}

// TODO: test ability to shutdown the SnowflakeLoader component.
func TestSnowflakeLoaderIncremental(t *testing.T) {
	log := logger.NewLogger("martpipe", "info", true)
	tableName := rdbms.SchemaTable{SchemaTable: "TEST_B"}
	db, resultChan := shared.NewMockConnectionWithMockTx(log, "snowflake")
	outputChan, _ := components.NewSnowflakeLoader(&components.SnowflakeLoaderConfig{
		Log:                     log,
		Name:                    "Test SnowflakeLoader incremental",
		InputChan:               newSnowflakeLoaderInput(),
		InputChanField4FileName: components.Defaults.ChanField4FileName,
		DeleteAll:               false,
		FnGetSnowflakeSqlSlice:  components.GetSqlSliceSnowflakeCopyInto,
		Db:                      db,
		StageName:               snowflakeTestStage,
		TargetSchemaTableName:   tableName})
	drainSnowflakeLoaderOutput(t, outputChan)

	res := collectMockSql(log, resultChan)
	expectedAlter := "alter session set autocommit = false"
	expectedCopy := "copy into " + tableName.String() + " from '@" + path.Join(snowflakeTestStage, snowflakeTestFile) + "'"
	if res[0] != expectedAlter {
		t.Fatal("unexpected SQL string produced for ALTER SESSION statement. Expected: ", expectedAlter, ". Got: ", res[0])
	}
	if res[2] != expectedCopy {
		t.Fatal("unexpected SQL string produced for COPY statement. Expected: ", expectedCopy, ". Got: ", res[2])
	}
}

func TestSnowflakeLoaderSnapshot(t *testing.T) {
	log := logger.NewLogger("martpipe", "info", true)
	tableName := rdbms.SchemaTable{SchemaTable: "TEST_B"}
	db, resultChan := shared.NewMockConnectionWithMockTx(log, "snowflake")
	// DeleteAll gives a snapshot load: delete plus forced COPY in one tx.
	outputChan, _ := components.NewSnowflakeLoader(&components.SnowflakeLoaderConfig{
		Log:                     log,
		Name:                    "Test SnowflakeLoader snapshot",
		InputChan:               newSnowflakeLoaderInput(),
		InputChanField4FileName: components.Defaults.ChanField4FileName,
		DeleteAll:               true,
		FnGetSnowflakeSqlSlice:  components.GetSqlSliceSnowflakeCopyInto,
		Db:                      db,
		StageName:               snowflakeTestStage,
		TargetSchemaTableName:   tableName})
	drainSnowflakeLoaderOutput(t, outputChan)

	res := collectMockSql(log, resultChan)
	expectedAlter := "alter session set autocommit = false"
	expectedDelete := "delete from TEST_B"
	expectedCopy := "copy into " + tableName.String() + " from '@" + path.Join(snowflakeTestStage, snowflakeTestFile) + "' force=true"
	if res[0] != expectedAlter {
		t.Fatal("unexpected SQL string produced for ALTER SESSION statement. Expected: ", expectedAlter, ". Found: ", res[0])
	}
	if res[2] != expectedDelete {
		t.Fatal("unexpected SQL string produced for DELETE statement. Expected: ", expectedDelete, ". Found: ", res[2])
	}
	if res[4] != expectedCopy {
		t.Fatal("unexpected SQL string produced for COPY statement. Expected: ", expectedCopy, ". Found: ", res[4])
	}
}
