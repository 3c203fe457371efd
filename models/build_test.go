package models

import (
	"strings"
	"testing"

	c "github.com/martpipe/martpipe/constants"
	"github.com/martpipe/martpipe/rdbms/shared"
	"github.com/martpipe/martpipe/transform"
)

func clickhouseTarget() shared.ConnectionDetails {
	return shared.ConnectionDetails{
		Type:        c.ConnectionTypeClickhouse,
		LogicalName: "warehouse",
		Data:        map[string]string{"dsn": "clickhouse://localhost:9000/default"},
	}
}

func TestCompileChinook(t *testing.T) {
	p, err := GetPack("chinook")
	if err != nil {
		t.Fatal("unexpected error loading chinook pack: ", err)
	}
	defn, err := Compile(&BuildConfig{Pack: p, TargetConnection: clickhouseTarget()})
	if err != nil {
		t.Fatal("unexpected error compiling chinook pack: ", err)
	}

	// Test 1 - the definition launches once with one group per model, clean before mart.
	if defn.Type != transform.TransformOnce {
		t.Fatal("expected a run-once transform; got: ", defn.Type)
	}
	if len(defn.Sequence) != 16 || len(defn.StepGroups) != 16 {
		t.Fatal("expected 16 step groups; got: ", len(defn.Sequence), " and ", len(defn.StepGroups))
	}
	if defn.Sequence[0] != "clean.artist" {
		t.Fatal("expected the first group to be clean.artist; got: ", defn.Sequence[0])
	}
	if defn.Sequence[15] != "mart.fact_invoice_line" {
		t.Fatal("expected the last group to be mart.fact_invoice_line; got: ", defn.Sequence[15])
	}
	if _, ok := defn.Connections[ConnectionNameTarget]; !ok {
		t.Fatal("expected the target connection to be set on the definition")
	}

	// Test 2 - a table model compiles to chained drop, create and check steps.
	sg, ok := defn.StepGroups["clean.artist"]
	if !ok {
		t.Fatal("expected a step group for clean.artist")
	}
	if sg.Type != transform.StepGroupSequential {
		t.Fatal("expected a sequential step group; got: ", sg.Type)
	}
	assertSequence(t, sg, []string{"drop", "create", "check01", "check02"})
	assertStepData(t, sg, "drop", "sqlText", "drop table if exists clean.artist")
	assertStepData(t, sg, "create", "sqlText",
		"create table clean.artist engine = MergeTree() order by tuple() as select artist_id, name as artist_name from raw.artist")
	assertStepData(t, sg, "create", "readDataFromStep", "drop")
	assertStepData(t, sg, "check01", "readDataFromStep", "create")
	assertStepData(t, sg, "check01", "checkName", "not_null_artist_artist_id")
	assertStepData(t, sg, "check01", "sqlText", "select count(*) from clean.artist where artist_id is null")
	assertStepData(t, sg, "check02", "readDataFromStep", "check01")
	assertStepData(t, sg, "check02", "checkName", "unique_artist_artist_id")
	if sg.Steps["check01"].Type != "SqlCheck" {
		t.Fatal("expected check steps of type SqlCheck; got: ", sg.Steps["check01"].Type)
	}

	// Test 3 - dimensions carry the natural key, so clean artist 1 becomes artist_key 1.
	dimArtist := defn.StepGroups["mart.dim_artist"]
	createSql := dimArtist.Steps["create"].Data["sqlText"]
	if !strings.Contains(createSql, "select artist_id as artist_key, artist_name from clean.artist") {
		t.Fatal("expected dim_artist to select the natural key from the clean layer; got: ", createSql)
	}

	// Test 4 - the fact group checks referential completeness against every dimension.
	fact := defn.StepGroups["mart.fact_invoice_line"]
	joined := strings.Builder{}
	for _, stepName := range fact.Sequence {
		joined.WriteString(fact.Steps[stepName].Data["sqlText"])
		joined.WriteString("\n")
	}
	joinedSql := joined.String()
	if !strings.Contains(joinedSql, "select date_key from mart.dim_date") {
		t.Fatal("expected a relationships check against mart.dim_date")
	}
	for _, dim := range []string{"dim_track", "dim_genre", "dim_album", "dim_artist", "dim_customer", "dim_employee"} {
		if !strings.Contains(joinedSql, "mart."+dim) {
			t.Fatal("expected a relationships check against mart.", dim)
		}
	}

	// Test 5 - the date spine compiles to a generator pipeline feeding a batch insert.
	spine, ok := defn.StepGroups["mart.dim_date"]
	if !ok {
		t.Fatal("expected a step group for mart.dim_date")
	}
	assertSequence(t, spine, []string{"seed", "drop", "create", "spine", "attributes", "insert", "lastRow", "check01", "check02"})
	assertStepData(t, spine, "seed", "numRows", "1")
	assertStepData(t, spine, "seed", "fieldNamesValuesCSV", "#spineFrom:2009-01-01,#spineTo:2014-01-01")
	assertStepData(t, spine, "drop", "readDataFromStep", "seed")
	assertStepData(t, spine, "create", "readDataFromStep", "drop")
	if !strings.Contains(spine.Steps["create"].Data["sqlText"], "engine = MergeTree() order by date_key") {
		t.Fatal("expected ClickHouse spine DDL; got: ", spine.Steps["create"].Data["sqlText"])
	}
	assertStepData(t, spine, "spine", "readDataFromStep", "create")
	assertStepData(t, spine, "spine", "intervalSeconds", "86400")
	assertStepData(t, spine, "spine", "inputFieldName4FromDate", "#spineFrom")
	assertStepData(t, spine, "spine", "outputFieldName4LowDate", "date")
	if spine.Steps["attributes"].ComponentSteps[0].Type != "DateAttributes" {
		t.Fatal("expected a DateAttributes mapper on the spine; got: ", spine.Steps["attributes"].ComponentSteps[0].Type)
	}
	if spine.Steps["attributes"].ComponentSteps[0].Data["fieldName"] != "date" {
		t.Fatal("expected the DateAttributes mapper to read the date field")
	}
	assertStepData(t, spine, "insert", "outputSchemaName", "mart")
	assertStepData(t, spine, "insert", "outputTable", "dim_date")
	assertStepData(t, spine, "insert", "keyCols", "date_key:date_key")
	assertStepData(t, spine, "insert", "commitBatchSize", "1000")
	assertStepData(t, spine, "lastRow", "filterType", "LastRow")
	assertStepData(t, spine, "check01", "readDataFromStep", "lastRow")
}

func TestCompileOulad(t *testing.T) {
	p, err := GetPack("oulad")
	if err != nil {
		t.Fatal("unexpected error loading oulad pack: ", err)
	}
	defn, err := Compile(&BuildConfig{Pack: p, TargetConnection: clickhouseTarget()})
	if err != nil {
		t.Fatal("unexpected error compiling oulad pack: ", err)
	}
	if len(defn.Sequence) != 12 {
		t.Fatal("expected 12 step groups; got: ", len(defn.Sequence))
	}

	// The accepted values rules from the course land in generated check SQL.
	si := defn.StepGroups["clean.student_info"]
	joined := strings.Builder{}
	for _, stepName := range si.Sequence {
		joined.WriteString(si.Steps[stepName].Data["sqlText"])
		joined.WriteString("\n")
	}
	for _, inList := range []string{"('M', 'F', 'Unknown')", "('Y', 'N')", "('Pass', 'Fail', 'Withdrawn', 'Distinction')"} {
		if !strings.Contains(joined.String(), inList) {
			t.Fatal("expected an accepted values check using ", inList)
		}
	}

	// Fact date keys resolve through the presentation start date and warn on misses.
	fact := defn.StepGroups["mart.fact_assessment"]
	if !strings.Contains(fact.Steps["create"].Data["sqlText"], "toYYYYMMDD(addDays(") {
		t.Fatal("expected the fact date_key to be derived from the presentation start date")
	}
	foundWarn := false
	for _, stepName := range fact.Sequence {
		step := fact.Steps[stepName]
		if step.Type == "SqlCheck" && step.Data["columnName"] == "date_key" && step.Data["severity"] == c.CheckSeverityWarn {
			foundWarn = true
		}
	}
	if !foundWarn {
		t.Fatal("expected the fact_assessment date_key relationships check to warn rather than abort")
	}
}

func TestCompileChecksOnly(t *testing.T) {
	p, err := GetPack("chinook")
	if err != nil {
		t.Fatal("unexpected error loading chinook pack: ", err)
	}
	defn, err := Compile(&BuildConfig{Pack: p, TargetConnection: clickhouseTarget(), ChecksOnly: true})
	if err != nil {
		t.Fatal("unexpected error compiling checks: ", err)
	}
	sg := defn.StepGroups["clean.artist"]
	assertSequence(t, sg, []string{"check01", "check02"})
	// The first check has nothing to trigger off, so it runs as soon as the group starts.
	if _, ok := sg.Steps["check01"].Data["readDataFromStep"]; ok {
		t.Fatal("expected the first check to have no trigger step in checks-only mode")
	}
	assertStepData(t, sg, "check02", "readDataFromStep", "check01")
	for _, groupName := range defn.Sequence {
		for stepName, step := range defn.StepGroups[groupName].Steps {
			if step.Type != "SqlCheck" {
				t.Fatalf("expected only SqlCheck steps in checks-only mode; got %v in %v.%v", step.Type, groupName, stepName)
			}
		}
	}
}

func TestCompileViewsAndOtherDialects(t *testing.T) {
	p := &Pack{
		Name:    "views",
		Schemas: Schemas{Raw: "raw", Clean: "clean", Mart: "mart"},
		Models: []Model{
			{Name: "album_names", Layer: c.LayerClean, Materialized: MaterializedView,
				Sql: "select album_id, title from ${raw}.album"},
			{Name: "album_copy", Layer: c.LayerClean,
				Sql: "select album_id, title from ${raw}.album"},
		},
	}
	target := shared.ConnectionDetails{Type: c.ConnectionTypePostgres, LogicalName: "pg"}
	defn, err := Compile(&BuildConfig{Pack: p, TargetConnection: target})
	if err != nil {
		t.Fatal("unexpected error compiling views pack: ", err)
	}
	view := defn.StepGroups["clean.album_names"]
	assertStepData(t, view, "drop", "sqlText", "drop view if exists clean.album_names")
	assertStepData(t, view, "create", "sqlText", "create view clean.album_names as select album_id, title from raw.album")
	// Non ClickHouse targets take a plain CREATE TABLE AS.
	table := defn.StepGroups["clean.album_copy"]
	assertStepData(t, table, "create", "sqlText", "create table clean.album_copy as select album_id, title from raw.album")
}

func TestCompileErrors(t *testing.T) {
	if _, err := Compile(nil); err == nil {
		t.Fatal("expected an error for a nil config")
	}
	if _, err := Compile(&BuildConfig{}); err == nil {
		t.Fatal("expected an error for a missing pack")
	}
	p := &Pack{
		Name:    "test",
		Schemas: Schemas{Raw: "raw", Clean: "clean", Mart: "mart"},
		Models: []Model{
			{Name: "a", Layer: c.LayerClean, Sql: "select 1"},
		},
	}
	if _, err := Compile(&BuildConfig{Pack: p}); err == nil {
		t.Fatal("expected an error for missing target connection details")
	}
	// A checks-only compile of a pack with no checks at all compiles to nothing.
	if _, err := Compile(&BuildConfig{Pack: p, TargetConnection: clickhouseTarget(), ChecksOnly: true}); err == nil {
		t.Fatal("expected an error when a pack compiles to no steps")
	}
}

func assertSequence(t *testing.T, sg transform.StepGroup, expected []string) {
	t.Helper()
	if len(sg.Sequence) != len(expected) {
		t.Fatalf("expected step sequence %v; got %v", expected, sg.Sequence)
	}
	for idx := range expected {
		if sg.Sequence[idx] != expected[idx] {
			t.Fatalf("expected step sequence %v; got %v", expected, sg.Sequence)
		}
	}
	for _, stepName := range expected {
		if _, ok := sg.Steps[stepName]; !ok {
			t.Fatalf("step %v is in the sequence but not in the steps map", stepName)
		}
	}
}

func assertStepData(t *testing.T, sg transform.StepGroup, stepName, key, expected string) {
	t.Helper()
	step, ok := sg.Steps[stepName]
	if !ok {
		t.Fatalf("no step named %v in the group", stepName)
	}
	if got := step.Data[key]; got != expected {
		t.Fatalf("step %v key %v: expected = '%v'; got = '%v'", stepName, key, expected, got)
	}
}
