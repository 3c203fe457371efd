package components

import (
	"strings"
	"testing"
	"time"

	"github.com/martpipe/martpipe/logger"
	"github.com/martpipe/martpipe/stream"
)

// TestFieldMapperSetupValidation asserts each setup func rejects config with
// missing or bad values.
func TestFieldMapperSetupValidation(t *testing.T) {
	log := logger.NewLogger("martpipe", "info", true)
	tests := []struct {
		name        string
		setupFn     fieldMapperSetupFunc
		cfg         map[string]string
		errContains string
	}{
		{"RegexpReplace empty config", setupRegexpReplace, map[string]string{}, "missing"},
		{"RegexpReplace missing fieldName", setupRegexpReplace,
			map[string]string{"regexpMatch": ".+(1234).+", "regexpReplace": "$1", "resultField": "outputA"}, "fieldName"},
		{"RegexpReplace missing regexpMatch", setupRegexpReplace,
			map[string]string{"fieldName": "fieldA", "regexpReplace": "$1", "resultField": "outputA"}, "regexpMatch"},
		{"RegexpReplace missing regexpReplace", setupRegexpReplace,
			map[string]string{"fieldName": "fieldA", "regexpMatch": ".+(1234).+", "resultField": "outputA"}, "regexpReplace"},
		{"RegexpReplace missing resultField", setupRegexpReplace,
			map[string]string{"fieldName": "fieldA", "regexpMatch": ".+(1234).+", "regexpReplace": "$1"}, "resultField"},
		{"RegexpReplace bad regexp", setupRegexpReplace, // closing bracket deliberately removed.
			map[string]string{"fieldName": "fieldA", "regexpMatch": ".+(1234.+", "regexpReplace": "$1", "resultField": "outputA"}, "invalid regular expression"},
		{"AddConstants unsupported fieldType", setupAddConstants,
			map[string]string{"fieldType": "junk", "fieldName": "fieldA", "fieldValue": "valueA"}, "unsupported"},
		{"AddConstants missing fieldName", setupAddConstants,
			map[string]string{"fieldType": "integer", "fieldValue": "valueA"}, "fieldName"},
		{"AddConstants bad integer conversion", setupAddConstants,
			map[string]string{"fieldType": "integer", "fieldName": "fieldA", "fieldValue": "valueA"}, ""},
		{"AddConstants missing fieldValue", setupAddConstants,
			map[string]string{"fieldType": "integer", "fieldName": "fieldA"}, "fieldValue"},
		{"ConcatenateAB missing fieldNameA", setupConcatenateAB,
			map[string]string{"fieldNameB": "B", "resultField": "AB"}, "fieldNameA"},
		{"ConcatenateAB missing fieldNameB", setupConcatenateAB,
			map[string]string{"fieldNameA": "A", "resultField": "AB"}, "fieldNameB"},
		{"ConcatenateAB missing resultField", setupConcatenateAB,
			map[string]string{"fieldNameA": "A", "fieldNameB": "B"}, "resultField"},
		{"DateAttributes missing fieldName", setupDateAttributes, map[string]string{}, "fieldName"},
		{"JsonLogic missing rule", setupJsonLogicMapper, map[string]string{"resultField": "out"}, "rule"},
		{"JsonLogic invalid rule", setupJsonLogicMapper, map[string]string{"rule": "{junk", "resultField": "out"}, "invalid"},
	}
	for _, tc := range tests {
		_, err := tc.setupFn(log, tc.cfg)
		if err == nil {
			t.Fatalf("%v: expected an error", tc.name)
		}
		if tc.errContains != "" && !strings.Contains(err.Error(), tc.errContains) {
			t.Fatalf("%v: expected error mentioning %q; got: %v", tc.name, tc.errContains, err)
		}
	}
}

func TestFieldMapperShutdown(t *testing.T) {
	log := logger.NewLogger("martpipe", "info", true)
	inputChan := make(chan stream.Record, 5)
	_, controlChan := NewFieldMapper(&FieldMapperConfig{
		Log:       log,
		Name:      "testFieldMapperShutdown",
		InputChan: inputChan,
		Steps: []ComponentStep{{Type: fieldMapperRegexpReplace, Data: map[string]string{
			"fieldName":     "fieldA",
			"regexpMatch":   ".+(1234_abc_abc).+",
			"regexpReplace": "$1",
			"resultField":   "outputA",
		}}},
	})
	responseChan := make(chan error, 1)
	controlChan <- ControlAction{ResponseChan: responseChan, Action: Shutdown}
	select {
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for FieldMapper shutdown")
	case <-responseChan: // continue OK.
	}
}

// TestFieldMapperRegexpReplaceChain checks that a second RegexpReplace step
// sees the field created by the first one, and that non-matching input yields
// an empty result field.
func TestFieldMapperRegexpReplaceChain(t *testing.T) {
	log := logger.NewLogger("martpipe", "info", true)
	inputChan := make(chan stream.Record, 5)
	rec1 := stream.NewRecord()
	rec1.SetData("fieldA", "matchingValue_1234_abc_abc_")
	rec2 := stream.NewRecord()
	rec2.SetData("fieldA", "valueThatDoesNotMatch")
	inputChan <- rec1
	inputChan <- rec2
	close(inputChan) // cause the component to finish.
	outputChan, _ := NewFieldMapper(&FieldMapperConfig{
		Log:       log,
		Name:      "testRegexpReplaceChain",
		InputChan: inputChan,
		Steps: []ComponentStep{
			{Type: fieldMapperRegexpReplace, Data: map[string]string{
				"fieldName":     "fieldA",
				"regexpMatch":   ".+(1234_abc_abc).+",
				"regexpReplace": "$1",
				"resultField":   "outputA",
			}},
			{Type: fieldMapperRegexpReplace, Data: map[string]string{ // reads outputA from the step above.
				"fieldName":     "outputA",
				"regexpMatch":   "abc",
				"regexpReplace": "xyz",
				"resultField":   "outputB",
			}},
		},
	})
	var outputA, outputB []string
	done := make(chan struct{}, 1)
	go func() {
		for rec := range outputChan {
			outputA = append(outputA, rec.GetDataAsStringUseUtcTime(log, "outputA"))
			outputB = append(outputB, rec.GetDataAsStringUseUtcTime(log, "outputB"))
			if len(outputA) >= 2 {
				done <- struct{}{}
				break
			}
		}
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for mapped rows")
	}
	if outputA[0] != "1234_abc_abc" {
		t.Fatalf("unexpected regexpReplace in outputA: expected 1234_abc_abc; got %v", outputA[0])
	}
	if outputA[1] != "" { // no match so the result field should be empty.
		t.Fatalf("unexpected regexpReplace in outputA: expected empty string; got %v", outputA[1])
	}
	if outputB[0] != "1234_xyz_xyz" {
		t.Fatalf("unexpected regexpReplace in outputB: expected 1234_xyz_xyz; got %v", outputB[0])
	}
}

// TestFieldMapperRegexpReplaceInPlace checks that resultField may equal the
// match field, and that propagateInput preserves its value on a mismatch.
func TestFieldMapperRegexpReplaceInPlace(t *testing.T) {
	log := logger.NewLogger("martpipe", "info", true)
	runOneRecord := func(stepData map[string]string) stream.Record {
		inputChan := make(chan stream.Record, 1)
		rec := stream.NewRecord()
		rec.SetData("matchField", "myValue")
		inputChan <- rec
		close(inputChan)
		outputChan, _ := NewFieldMapper(&FieldMapperConfig{
			Log:       log,
			Name:      "testRegexpReplaceInPlace",
			InputChan: inputChan,
			Steps:     []ComponentStep{{Type: fieldMapperRegexpReplace, Data: stepData}},
		})
		return <-outputChan
	}
	// Overwrite the match field on a match.
	rec := runOneRecord(map[string]string{
		"fieldName":     "matchField",
		"regexpMatch":   "myValue",
		"regexpReplace": "newValue",
		"resultField":   "matchField",
	})
	if got := rec.GetDataAsStringUseUtcTime(log, "matchField"); got != "newValue" {
		t.Fatalf("expected matchField to be overwritten with newValue; got %v", got)
	}
	// Keep the match field on a mismatch when propagateInput is set.
	rec = runOneRecord(map[string]string{
		"fieldName":      "matchField",
		"regexpMatch":    "deliberateMismatch",
		"regexpReplace":  "newValue",
		"resultField":    "matchField",
		"propagateInput": "true",
	})
	if got := rec.GetDataAsStringUseUtcTime(log, "matchField"); got != "myValue" {
		t.Fatalf("expected matchField to keep myValue on mismatch; got %v", got)
	}
}

func TestFieldMapperAddConstants(t *testing.T) {
	log := logger.NewLogger("martpipe", "info", true)
	// Integer constant.
	fn, err := setupAddConstants(log, map[string]string{
		"fieldType":  "integer",
		"fieldName":  "fieldA",
		"fieldValue": "123",
	})
	if err != nil {
		t.Fatal("unexpected error during conversion to integer: ", err)
	}
	rec := fn(stream.NewRecord())
	fieldA, ok := rec.GetData("fieldA").(int)
	if !ok {
		t.Fatalf("expected fieldA to hold an int; got %T", rec.GetData("fieldA"))
	}
	if fieldA != 123 {
		t.Fatalf("expected fieldA = 123; got %v", fieldA)
	}
	// RFC3339 date constant.
	fn, err = setupAddConstants(log, map[string]string{
		"fieldType":  "date",
		"fieldName":  "fieldA",
		"fieldValue": "2018-10-28T02:01:01+01:00",
	})
	if err != nil {
		t.Fatal("unexpected error during conversion to date: ", err)
	}
	rec = fn(stream.NewRecord())
	if _, ok := rec.GetData("fieldA").(time.Time); !ok {
		t.Fatalf("expected fieldA to hold a time.Time; got %T", rec.GetData("fieldA"))
	}
}

func TestFieldMapperConcatenateAB(t *testing.T) {
	log := logger.NewLogger("martpipe", "info", true)
	fn, err := setupConcatenateAB(log, map[string]string{
		"fieldNameA":  "A",
		"fieldNameB":  "B",
		"resultField": "AB",
	})
	if err != nil {
		t.Fatal("unexpected error during concatenation setup: ", err)
	}
	rec := stream.NewRecord()
	rec.SetData("A", "abc")
	rec.SetData("B", "xyz")
	rec = fn(rec)
	if got := rec.GetData("AB").(string); got != "abcxyz" {
		t.Fatalf("unexpected concatenation: expected abcxyz; got %v", got)
	}
}

func TestFieldMapperJsonLogic(t *testing.T) {
	log := logger.NewLogger("martpipe", "info", true)
	fn, err := setupJsonLogicMapper(log, map[string]string{
		"resultField": "jsonLogicField",
		"rule":        `{ "var" : ["A"] }`,
	})
	if err != nil {
		t.Fatalf("failed to setup json logic mapper: %v", err)
	}
	rec := stream.NewRecord()
	rec.SetData("A", "abc")
	rec = fn(rec)
	if got := rec.GetDataAsStringUseUtcTime(log, "jsonLogicField"); got != "abc" {
		t.Fatal("json logic failed to create new field: got: ", got)
	}
}

func TestFieldMapperDateAttributes(t *testing.T) {
	log := logger.NewLogger("martpipe", "info", true)
	fn, err := setupDateAttributes(log, map[string]string{"fieldName": "calendarDate"})
	if err != nil {
		t.Fatal("failed to setup DateAttributes mapper: ", err)
	}
	// Calendar fields derived from a time.Time (a Friday).
	rec := stream.NewRecord()
	rec.SetData("calendarDate", time.Date(2009, 1, 2, 0, 0, 0, 0, time.UTC))
	rec = fn(rec)
	expected := map[string]interface{}{
		"date_key":    20090102,
		"year":        2009,
		"quarter":     1,
		"month":       1,
		"month_name":  "January",
		"day":         2,
		"day_name":    "Friday",
		"day_of_week": 5,
	}
	for field, want := range expected {
		if got := rec.GetData(field); got != want {
			t.Fatalf("unexpected %v: expected %v; got %v", field, want, got)
		}
	}
	// Quarter follows ((month-1)/3)+1 for all months.
	expectedQuarters := []int{1, 1, 1, 2, 2, 2, 3, 3, 3, 4, 4, 4}
	for month := 1; month <= 12; month++ {
		rec := stream.NewRecord()
		rec.SetData("calendarDate", time.Date(2014, time.Month(month), 15, 0, 0, 0, 0, time.UTC))
		rec = fn(rec)
		if got := rec.GetData("quarter"); got != expectedQuarters[month-1] {
			t.Fatal("unexpected quarter for month ", month, ": ", got)
		}
	}
	// Calendar date strings parse and the result field prefix is honoured.
	fn, err = setupDateAttributes(log, map[string]string{"fieldName": "calendarDate", "resultFieldPrefix": "dim_"})
	if err != nil {
		t.Fatal("failed to setup prefixed DateAttributes mapper: ", err)
	}
	rec = stream.NewRecord()
	rec.SetData("calendarDate", "2014-02-23") // a Sunday.
	rec = fn(rec)
	if got := rec.GetData("dim_date_key"); got != 20140223 {
		t.Fatal("unexpected dim_date_key: ", got)
	}
	if got := rec.GetData("dim_day_of_week"); got != 7 {
		t.Fatal("unexpected dim_day_of_week for a Sunday: ", got)
	}
	if got, exists := rec.GetDataMap()["date_key"]; exists {
		t.Fatal("expected no unprefixed date_key field; got: ", got)
	}
}
