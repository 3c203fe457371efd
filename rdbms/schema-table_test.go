package rdbms

import (
	"testing"
)

func TestSchemaTableSplit(t *testing.T) {
	tests := []struct {
		input          string
		expectedSchema string
		expectedTable  string
	}{
		{"schema.table", "schema", "table"},
		{`schema."table"`, "schema", `"table"`},
		{`"random.table"`, "", `"random.table"`}, // a quoted name containing a dot is all table.
		{`"schema"."table"`, `"schema"`, `"table"`},
		{`"schema".table`, `"schema"`, "table"},
		{"table", "", "table"},
	}
	for _, tt := range tests {
		st := SchemaTable{SchemaTable: tt.input}
		if got := st.GetSchema(); got != tt.expectedSchema {
			t.Fatalf("input %v: expected schema = %q; got %q", tt.input, tt.expectedSchema, got)
		}
		if got := st.GetTable(); got != tt.expectedTable {
			t.Fatalf("input %v: expected table = %q; got %q", tt.input, tt.expectedTable, got)
		}
		if got := st.String(); got != tt.input {
			t.Fatalf("input %v: String() returned %q", tt.input, got)
		}
	}
}

func TestSchemaTableAppendSuffix(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{`"schema".table`, `"schema".table_tmp`},    // unquoted table.
		{`"schema"."table"`, `"schema"."table_tmp"`}, // suffix lands inside the quotes.
		{"table", "table_tmp"},                      // no schema part.
	}
	for _, tt := range tests {
		st := SchemaTable{SchemaTable: tt.input}
		if got := st.AppendSuffix("_tmp"); got != tt.expected {
			t.Fatalf("input %v: expected %v; got %v", tt.input, tt.expected, got)
		}
	}
}

func TestNewSchemaTable(t *testing.T) {
	if got := NewSchemaTable("schema", "table").String(); got != "schema.table" {
		t.Fatalf("expected schema.table; got %v", got)
	}
	if got := NewSchemaTable("", "table").String(); got != "table" {
		t.Fatalf("expected table; got %v", got)
	}
}
