package tabledefinition

import (
	"testing"
)

func TestDataTypeMapperMap(t *testing.T) {
	m := NewSqlServerDataTypeMapper()
	tests := []struct {
		sourceType string
		expected   string
	}{
		{"bigint", "bigint"},
		{"bit", "boolean"},
		{"date", "date"},
		{"datetime2", "timestamp"},
		{"float", "double"},
		{"int", "integer"},
		{"money", "decimal"},
		{"NVARCHAR", "varchar"}, // Map() must be case-insensitive.
		{"uniqueidentifier", "varchar"},
	}
	for _, tt := range tests {
		got := m.Map(tt.sourceType)
		if got != tt.expected {
			t.Fatalf("expected source type %q to map to %q; got: %q", tt.sourceType, tt.expected, got)
		}
	}
}

func TestDataTypeMapperSanitise(t *testing.T) {
	m := NewSqlServerDataTypeMapper()
	tests := []struct {
		sourceType string
		dataLen    int
		precision  int
		scale      int
		expected   string
	}{
		{"decimal", 0, 10, 2, "(10,2)"},
		{"decimal", 0, 10, 0, "(10,0)"}, // scale defaults to 0 when a precision exists.
		{"decimal", 0, 0, 0, ""},        // no precision means no detail at all.
		{"varchar", 50, 0, 0, "(50)"},
		{"varchar", -1, 0, 0, ""}, // varchar(max) reports length -1.
		{"datetime", 0, 0, 0, ""},
	}
	for _, tt := range tests {
		got := m.Sanitise(tt.sourceType, tt.dataLen, tt.precision, tt.scale)
		if got != tt.expected {
			t.Fatalf("expected DDL detail %q for source type %q (len=%v precision=%v scale=%v); got: %q",
				tt.expected, tt.sourceType, tt.dataLen, tt.precision, tt.scale, got)
		}
	}
}

// TestDataTypeMappingsArePortable asserts that every registered source type lands on a
// portable type that the target DDL renderers in targetDDLConfig know how to emit.
func TestDataTypeMappingsArePortable(t *testing.T) {
	portable := map[string]struct{}{
		"integer":   {},
		"bigint":    {},
		"double":    {},
		"decimal":   {},
		"varchar":   {},
		"date":      {},
		"timestamp": {},
		"boolean":   {},
	}
	mappings := map[string][]dataTypeLink{
		"mock":       MockDataTypeMapping,
		"sqlserver":  SqlServerDataTypeMapping,
		"netezza":    NetezzaDataTypeMapping,
		"postgres":   PostgresDataTypeMapping,
		"mysql":      MysqlDataTypeMapping,
		"clickhouse": ClickhouseDataTypeMapping,
		"csv":        CsvDataTypeMapping,
	}
	for name, mapping := range mappings {
		for _, link := range mapping {
			if _, ok := portable[link.PortableDataType]; !ok {
				t.Fatalf("mapping %v: source type %q maps to %q which is not a portable type",
					name, link.SourceDataType, link.PortableDataType)
			}
			if link.SanitiserFunc == nil {
				t.Fatalf("mapping %v: source type %q has a nil sanitiser", name, link.SourceDataType)
			}
		}
	}
}
