package rdbms

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	reQuotedWholeName = regexp.MustCompile(`".+\..+"`)   // "random.table"
	reQuotedPair      = regexp.MustCompile(`".+"\.".+"`) // "schema"."table"
	reQuoted          = regexp.MustCompile(`".+"`)
)

// SchemaTable holds an optionally schema-qualified object name, where either
// part may be double quoted.
type SchemaTable struct {
	SchemaTable string `errorTxt:"[<schema>.]<object>" mandatory:"yes"`
}

func NewSchemaTable(schema string, table string) SchemaTable {
	if schema == "" {
		return SchemaTable{table}
	}
	return SchemaTable{schema + "." + table}
}

// isQuotedName reports whether the whole value is a single quoted name
// containing a dot, e.g. "random.table", as opposed to "schema"."table".
func (st *SchemaTable) isQuotedName() bool {
	return reQuotedWholeName.MatchString(st.SchemaTable) && !reQuotedPair.MatchString(st.SchemaTable)
}

func (st *SchemaTable) GetTable() string {
	if st.isQuotedName() {
		return st.SchemaTable
	}
	i := strings.Index(st.SchemaTable, ".")
	if i < 0 { // no schema part.
		return st.SchemaTable
	}
	return st.SchemaTable[i+1:]
}

func (st *SchemaTable) GetSchema() string {
	if st.isQuotedName() {
		return ""
	}
	i := strings.Index(st.SchemaTable, ".")
	if i < 0 { // no schema part.
		return ""
	}
	return st.SchemaTable[:i]
}

// AppendSuffix adds suffix to the table part, keeping the suffix inside the
// closing quote when the table is quoted.
func (st *SchemaTable) AppendSuffix(suffix string) string {
	schema := st.GetSchema()
	table := st.GetTable()
	sep := "."
	if schema == "" {
		sep = ""
	}
	closeQuote := ""
	if reQuoted.MatchString(table) {
		closeQuote = `"`
		table = strings.TrimRight(table, `"`)
	}
	return fmt.Sprintf("%v%v%v%v%v", schema, sep, table, suffix, closeQuote)
}

// String uses a value receiver so the result of NewSchemaTable can be
// rendered without assigning it first.
func (st SchemaTable) String() string {
	return st.SchemaTable
}
