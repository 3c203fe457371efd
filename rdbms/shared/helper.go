package shared

// FixSqlStatementGeneratorConfig validates cfg and picks the schema separator.
// A missing output table is fatal; a missing schema blanks the separator so
// generated SQL never starts with a lone dot.
func FixSqlStatementGeneratorConfig(cfg *SqlStatementGeneratorConfig) {
	if cfg.OutputTable == "" {
		cfg.Log.Fatal("Error, missing output table name.")
	}
	cfg.SchemaSeparator = "."
	if cfg.OutputSchema == "" {
		cfg.Log.Debug("No output schema supplied; setting a blank separator.")
		cfg.SchemaSeparator = ""
	}
}
