package models

import (
	"strings"
	"testing"

	c "github.com/martpipe/martpipe/constants"
)

var yamlTestPack = `
name: test
schemas:
  raw: raw
  clean: clean
  mart: mart
models:
  - name: album
    layer: clean
    sql: select album_id from ${raw}.album
    columns:
      - name: album_id
        checks:
          - type: not_null
  - name: dim_date
    layer: mart
    materialized: date_spine
    spine:
      from: "2009-01-01"
      to: "2010-01-01"
`

func packYamlWithModels(models string) string {
	return "name: test\nschemas:\n  raw: raw\n  clean: clean\n  mart: mart\nmodels:\n" + models
}

func TestParsePack(t *testing.T) {
	p, err := ParsePack([]byte(yamlTestPack))
	if err != nil {
		t.Fatal("unexpected error parsing pack: ", err)
	}
	if p.Name != "test" {
		t.Fatal("expected pack name test; got: ", p.Name)
	}
	if len(p.Models) != 2 {
		t.Fatal("expected 2 models; got: ", len(p.Models))
	}
	// Defaults are applied during validation.
	if p.Models[0].Materialized != MaterializedTable {
		t.Fatal("expected materialization to default to table; got: ", p.Models[0].Materialized)
	}
	if p.Models[1].Spine.IntervalSeconds != DateSpineIntervalSecondsDefault {
		t.Fatal("expected spine interval to default to one day; got: ", p.Models[1].Spine.IntervalSeconds)
	}
}

func TestParsePackValidation(t *testing.T) {
	tests := []struct {
		name   string
		yaml   string
		errTxt string
	}{
		{"missing schemas",
			"name: test\nmodels:\n  - name: a\n    layer: clean\n    sql: select 1\n",
			"please supply values for"},
		{"no models",
			packYamlWithModels(""),
			"contains no models"},
		{"missing model name",
			packYamlWithModels("  - layer: clean\n    sql: select 1\n"),
			"model found without a name"},
		{"bad layer",
			packYamlWithModels("  - name: a\n    layer: gold\n    sql: select 1\n"),
			"unsupported layer"},
		{"missing sql",
			packYamlWithModels("  - name: a\n    layer: clean\n"),
			"missing sql"},
		{"bad materialization",
			packYamlWithModels("  - name: a\n    layer: clean\n    materialized: incremental\n    sql: select 1\n"),
			"unsupported materialization"},
		{"duplicate model names",
			packYamlWithModels("  - name: a\n    layer: clean\n    sql: select 1\n  - name: a\n    layer: clean\n    sql: select 2\n"),
			"duplicate model name"},
		{"clean model reading mart",
			packYamlWithModels("  - name: a\n    layer: clean\n    sql: select 1 from ${mart}.x\n"),
			"clean layer models may only read"},
		{"mart model reading raw",
			packYamlWithModels("  - name: a\n    layer: mart\n    sql: select 1 from ${raw}.x\n"),
			"mart layer models may only read"},
		{"spine missing dates",
			packYamlWithModels("  - name: a\n    layer: mart\n    materialized: date_spine\n"),
			"require spine from and to"},
		{"spine from after to",
			packYamlWithModels("  - name: a\n    layer: mart\n    materialized: date_spine\n    spine:\n      from: \"2010-01-01\"\n      to: \"2009-01-01\"\n"),
			"must be before"},
		{"spine bad date format",
			packYamlWithModels("  - name: a\n    layer: mart\n    materialized: date_spine\n    spine:\n      from: \"01/01/2009\"\n      to: \"2010-01-01\"\n"),
			"unable to parse spine from date"},
		{"column missing name",
			packYamlWithModels("  - name: a\n    layer: clean\n    sql: select 1\n    columns:\n      - checks:\n          - type: not_null\n"),
			"column found without a name"},
		{"bad check type",
			packYamlWithModels("  - name: a\n    layer: clean\n    sql: select 1\n    columns:\n      - name: x\n        checks:\n          - type: bogus\n"),
			"unsupported check type"},
		{"accepted values without values",
			packYamlWithModels("  - name: a\n    layer: clean\n    sql: select 1\n    columns:\n      - name: x\n        checks:\n          - type: accepted_values\n"),
			"require a list of values"},
		{"relationships without field",
			packYamlWithModels("  - name: a\n    layer: clean\n    sql: select 1\n    columns:\n      - name: x\n        checks:\n          - type: relationships\n            to: ${clean}.y\n"),
			"require to and field"},
		{"expression without sql",
			packYamlWithModels("  - name: a\n    layer: clean\n    sql: select 1\n    columns:\n      - name: x\n        checks:\n          - type: expression\n"),
			"require sql"},
		{"bad severity",
			packYamlWithModels("  - name: a\n    layer: clean\n    sql: select 1\n    columns:\n      - name: x\n        checks:\n          - type: not_null\n            severity: fatal\n"),
			"unsupported check severity"},
	}
	for _, tt := range tests {
		_, err := ParsePack([]byte(tt.yaml))
		if err == nil {
			t.Fatalf("%v: expected an error containing '%v'; got nil", tt.name, tt.errTxt)
		}
		if !strings.Contains(err.Error(), tt.errTxt) {
			t.Fatalf("%v: expected error containing '%v'; got: %v", tt.name, tt.errTxt, err)
		}
	}
}

func TestReplaceTokens(t *testing.T) {
	p := &Pack{Schemas: Schemas{Raw: "landing", Clean: "staging", Mart: "warehouse"}}
	got := p.ReplaceTokens("select * from ${raw}.a join ${clean}.b join ${mart}.c")
	expected := "select * from landing.a join staging.b join warehouse.c"
	if got != expected {
		t.Fatalf("expected = '%v'; got = '%v'", expected, got)
	}
}

func TestBuiltinPacks(t *testing.T) {
	names := BuiltinPackNames()
	if len(names) != 2 || names[0] != "chinook" || names[1] != "oulad" {
		t.Fatal("unexpected builtin pack names: ", names)
	}

	// Test 1 - the chinook pack parses with the documented model set.
	chinook, err := GetPack("chinook")
	if err != nil {
		t.Fatal("unexpected error loading chinook pack: ", err)
	}
	assertLayerCounts(t, chinook, 8, 8)
	ordered := chinook.OrderedModels()
	if ordered[0].Name != "artist" || ordered[0].Layer != c.LayerClean {
		t.Fatal("expected the first chinook model to be clean artist; got: ", ordered[0].Layer, ".", ordered[0].Name)
	}
	if last := ordered[len(ordered)-1]; last.Name != "fact_invoice_line" || last.Layer != c.LayerMart {
		t.Fatal("expected the last chinook model to be mart fact_invoice_line; got: ", last.Layer, ".", last.Name)
	}
	assertRelationshipTargetsDeclaredFirst(t, chinook)

	// Test 2 - the oulad pack parses with the documented model set and rules.
	oulad, err := GetPack("oulad")
	if err != nil {
		t.Fatal("unexpected error loading oulad pack: ", err)
	}
	assertLayerCounts(t, oulad, 6, 6)
	assertRelationshipTargetsDeclaredFirst(t, oulad)
	gender := findCheck(t, oulad, "student_info", "gender", CheckAcceptedValues)
	if len(gender.Values) != 3 || gender.Values[0] != "M" || gender.Values[1] != "F" || gender.Values[2] != "Unknown" {
		t.Fatal("unexpected accepted values for student_info gender: ", gender.Values)
	}
	disability := findCheck(t, oulad, "student_info", "disability", CheckAcceptedValues)
	if len(disability.Values) != 2 || disability.Values[0] != "Y" || disability.Values[1] != "N" {
		t.Fatal("unexpected accepted values for student_info disability: ", disability.Values)
	}
	finalResult := findCheck(t, oulad, "student_info", "final_result", CheckAcceptedValues)
	if len(finalResult.Values) != 4 || finalResult.Values[3] != "Distinction" {
		t.Fatal("unexpected accepted values for student_info final_result: ", finalResult.Values)
	}

	// Test 3 - unknown names fall through to file loading and fail cleanly.
	if _, err := GetPack("no-such-pack.yaml"); err == nil {
		t.Fatal("expected an error for a pack file that does not exist")
	}
}

func assertLayerCounts(t *testing.T, p *Pack, expectedClean, expectedMart int) {
	t.Helper()
	gotClean, gotMart := 0, 0
	for idx := range p.Models {
		switch p.Models[idx].Layer {
		case c.LayerClean:
			gotClean++
		case c.LayerMart:
			gotMart++
		}
	}
	if gotClean != expectedClean || gotMart != expectedMart {
		t.Fatalf("pack %v: expected %v clean and %v mart models; got %v and %v",
			p.Name, expectedClean, expectedMart, gotClean, gotMart)
	}
}

// assertRelationshipTargetsDeclaredFirst walks the pack in build order and fails when a
// relationships check references a relation that has not been built yet.
func assertRelationshipTargetsDeclaredFirst(t *testing.T, p *Pack) {
	t.Helper()
	declared := make(map[string]bool)
	for _, m := range p.OrderedModels() {
		for _, col := range m.Columns {
			for _, ch := range col.Checks {
				if ch.Type != CheckRelationships {
					continue
				}
				refTable := ch.To[strings.LastIndex(ch.To, ".")+1:]
				if !declared[refTable] {
					t.Fatalf("pack %v: model %v references %v before it is built", p.Name, m.Name, ch.To)
				}
			}
		}
		declared[m.Name] = true
	}
}

func findCheck(t *testing.T, p *Pack, modelName, columnName, checkType string) *Check {
	t.Helper()
	for idx := range p.Models {
		m := &p.Models[idx]
		if m.Name != modelName {
			continue
		}
		for idy := range m.Columns {
			col := &m.Columns[idy]
			if col.Name != columnName {
				continue
			}
			for idz := range col.Checks {
				if col.Checks[idz].Type == checkType {
					return &col.Checks[idz]
				}
			}
		}
	}
	t.Fatalf("pack %v: no %v check found on %v.%v", p.Name, checkType, modelName, columnName)
	return nil
}
