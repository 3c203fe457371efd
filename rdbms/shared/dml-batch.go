package shared

import (
	"strconv"
	"strings"

	om "github.com/cevaris/ordered_map"
	"github.com/martpipe/martpipe/logger"
)

// Bind placeholder styles used by the drivers we load through.
const (
	BindStyleQuestion = "?"  // mysql, clickhouse, snowflake, odbc
	BindStyleDollar   = "$"  // postgres, netezza
	BindStyleAtP      = "@p" // sqlserver
)

// DmlGeneratorTxtBatch builds multi-row INSERT statements as SQL text using
// the bind placeholder style of the target driver, so batch loads run on the
// plain database/sql Exec path for every supported database type.
type DmlGeneratorTxtBatch struct {
	BindStyle string // one of the BindStyle* constants; empty means BindStyleQuestion.
}

type SqlStatementGeneratorConfig struct {
	Log             logger.Logger
	OutputSchema    string
	SchemaSeparator string
	OutputTable     string
	TargetKeyCols   *om.OrderedMap // ordered map of: key = chan field name; value = target table column name
	TargetOtherCols *om.OrderedMap // ordered map of: key = chan field name; value = target table column name
}

type sqlCoreCfg struct {
	sqlStmt                string
	sqlStmtTemplate        string
	sqlValues              []interface{} // slice to hold data values for all rows in batch
	batchSize              int
	rowsInBatch            int
	previousNumRowsInBatch int
}

// writeBindVar appends the placeholder for the 1-based value index idx.
func writeBindVar(b *strings.Builder, style string, idx int) {
	switch style {
	case BindStyleDollar:
		b.WriteString("$")
		b.WriteString(strconv.Itoa(idx))
	case BindStyleAtP:
		b.WriteString("@p")
		b.WriteString(strconv.Itoa(idx))
	default:
		b.WriteString("?")
	}
}
