package shared

import (
	"strings"

	h "github.com/martpipe/martpipe/helper"

	"github.com/pkg/errors"
)

// SqlInsertTxtBatch implements interface SqlStmtTxtBatcher, generating INSERT
// statements for batches of rows.
type SqlInsertTxtBatch struct {
	SqlStatementGeneratorConfig // mandatory to be populated.
	sqlCoreCfg
	ColList   []string // target table columns extracted from SqlStatementGeneratorConfig.
	bindStyle string
}

// NewInsertGenerator creates a SqlStmtGenerator that implements interface
// SqlStmtTxtBatcher. Configure defaults in SqlStatementGeneratorConfig.
func (g *DmlGeneratorTxtBatch) NewInsertGenerator(cfg *SqlStatementGeneratorConfig) SqlStmtGenerator {
	FixSqlStatementGeneratorConfig(cfg)
	cfg.Log.Debug("Creating NewInsertGenerator")
	o := &SqlInsertTxtBatch{SqlStatementGeneratorConfig: *cfg, bindStyle: g.BindStyle}
	o.setupSqlStatement()
	return o
}

// buildTargetColList returns the target table's "key" columns followed by its
// "other" columns.
func (o *SqlInsertTxtBatch) buildTargetColList() []string {
	colList := make([]string, o.TargetKeyCols.Len()+o.TargetOtherCols.Len())
	idx := 0
	h.OrderedMapValuesToStringSlice(o.Log, o.TargetKeyCols, &colList, &idx)
	h.OrderedMapValuesToStringSlice(o.Log, o.TargetOtherCols, &colList, &idx)
	return colList
}

func (o *SqlInsertTxtBatch) setupSqlStatement() {
	colList := o.buildTargetColList()
	o.sqlStmtTemplate = `insert into <SCHEMA><SEPARATOR><TABLE> (<TGT-COLS>) values <VALUES>`
	o.sqlStmtTemplate = strings.Replace(o.sqlStmtTemplate, "<SCHEMA>", o.OutputSchema, 1)
	o.sqlStmtTemplate = strings.Replace(o.sqlStmtTemplate, "<SEPARATOR>", o.SchemaSeparator, 1)
	o.sqlStmtTemplate = strings.Replace(o.sqlStmtTemplate, "<TABLE>", o.OutputTable, 1)
	o.sqlStmtTemplate = strings.Replace(o.sqlStmtTemplate, "<TGT-COLS>", strings.Join(colList, ","), 1)
	o.Log.Debug("setup INSERT generator with SQL (VALUES pending): ", o.sqlStmtTemplate)
}

func (o *SqlInsertTxtBatch) InitBatch(batchSize int) {
	o.Log.Debug("initBatch() for INSERT...")
	o.batchSize = batchSize
	if o.previousNumRowsInBatch != o.batchSize { // new batch size needs new SQL.
		o.sqlStmt = o.sqlStmtTemplate // reset the sqlStmt from our template.
	}
	o.rowsInBatch = 0
	if len(o.ColList) == 0 {
		o.ColList = o.buildTargetColList()
	}
	// Fresh buffer for all values (args) to exec, many values per row.
	o.sqlValues = make([]interface{}, 0, o.batchSize*len(o.ColList))
	o.Log.Debug("rowsInBatch = ", o.rowsInBatch)
	o.Log.Debug("batchSize = ", o.batchSize)
	o.Log.Debug("colList = ", o.ColList)
}

func (o *SqlInsertTxtBatch) AddValuesToBatch(values []interface{}) (batchIsFull bool, err error) {
	o.Log.Debug("SqlInsertTxtBatch.AddValuesToBatch()...")
	if o.rowsInBatch >= o.batchSize {
		return true, errors.New("no more rows allowed in INSERT batch")
	}
	if len(values) != len(o.ColList) {
		return false, errors.New("the number of values supplied does not match the number of table columns")
	}
	o.sqlValues = append(o.sqlValues, values...)
	o.rowsInBatch++
	// When the batch limit is reached the caller should exec the SQL.
	return o.rowsInBatch >= o.batchSize, nil
}

func (o *SqlInsertTxtBatch) GetValues() []interface{} {
	return o.sqlValues
}

func (o *SqlInsertTxtBatch) GetStatement() string {
	if o.previousNumRowsInBatch != o.batchSize { // new batch size needs new SQL, else reuse the cached statement.
		allRows := strings.Builder{}
		valIdx := 1
		for rowIdx := 1; rowIdx <= o.rowsInBatch; rowIdx++ {
			// Build this row's bind variables in the driver's placeholder style.
			row := strings.Builder{}
			for idy := 0; idy < len(o.ColList); idy++ {
				row.WriteString(",")
				writeBindVar(&row, o.bindStyle, valIdx)
				valIdx++
			}
			// Append as ',( $1,$2,$n )' with the leading comma trimmed later.
			allRows.WriteString(",( ")
			allRows.WriteString(strings.TrimLeft(row.String(), ","))
			allRows.WriteString(" )")
		}
		// Rows render as:
		// ( $1,$2,$nx )
		// ,( $nx+1,$nx+2,$ny )
		o.sqlStmt = strings.Replace(o.sqlStmt, "<VALUES>", strings.TrimLeft(allRows.String(), ","), 1)
		o.previousNumRowsInBatch = o.batchSize
	}
	o.Log.Debug("SQL batch INSERT generated statement: ", o.sqlStmt)
	return o.sqlStmt
}
