package components

import (
	"testing"
	"time"

	"github.com/martpipe/martpipe/logger"
	"github.com/martpipe/martpipe/stream"
)

// newDateRangeTestConfig returns a config producing hourly ranges from the
// FromDate input field up to "now", plus the two times the assertions need.
func newDateRangeTestConfig(log logger.Logger) (cfg *DateRangeGeneratorConfig, startTime, now time.Time) {
	now = time.Now().Truncate(time.Second)
	startTime = now.Add(time.Hour * time.Duration(-12))
	cfg = &DateRangeGeneratorConfig{
		Log:                         log,
		Name:                        "Test DateRangeGenerator",
		InputChanFieldName4FromDate: "FromDate",
		ToDateRFC3339orNow:          "now",
		UseUTC:                      true,
		IntervalSizeSeconds:         3600,
		OutputChanFieldName4LowDate: "LowDate",
		OutputChanFieldName4HiDate:  "HighDate",
	}
	return
}

// feedDateRangeInput wires cfg.InputChan to a closed channel carrying one
// record with the given fields.
func feedDateRangeInput(cfg *DateRangeGeneratorConfig, fields map[string]interface{}) {
	rec := stream.NewRecord()
	for k, v := range fields {
		rec.SetData(k, v)
	}
	in := make(chan stream.Record, 1)
	in <- rec
	close(in)
	cfg.InputChan = in
}

// collectDateRanges runs the generator and gathers the low/high dates it emits.
func collectDateRanges(cfg *DateRangeGeneratorConfig) (lowDates []time.Time, highDates []time.Time) {
	o, _ := NewDateRangeGenerator(cfg)
	for rec := range o {
		lowDate, _ := getTimeFromInterface(rec.GetData("LowDate"))
		highDate, _ := getTimeFromInterface(rec.GetData("HighDate"))
		lowDates = append(lowDates, lowDate)
		highDates = append(highDates, highDate)
	}
	return
}

func assertHourlyRanges(t *testing.T, lowDates, highDates []time.Time, startTime, now time.Time) {
	t.Helper()
	if lowDates[0] != startTime { // assumes the test runs within the same second.
		t.Fatal("Expected low date to be \"now\" -12h to the nearest second (assumes tests will run within a second)!")
	}
	if len(lowDates) != 12 {
		t.Fatal("Expected 12 hours worth of dates.")
	}
	if highDates[len(highDates)-1] != now {
		t.Fatal("Expected highest date to be now to the nearest second (assumes tests will run within a second)!")
	}
}

func assertDateRangePanic(t *testing.T, failMsg string, cfg *DateRangeGeneratorConfig) {
	t.Helper()
	defer func() {
		if r := recover(); r == nil {
			t.Fatal(failMsg)
		}
	}()
	_, _ = NewDateRangeGenerator(cfg)
}

func TestDateRangeGeneratorToNow(t *testing.T) {
	log := logger.NewLogger("date range generator test", "info", true)
	cfg, startTime, now := newDateRangeTestConfig(log)
	feedDateRangeInput(cfg, map[string]interface{}{"FromDate": startTime})
	lowDates, highDates := collectDateRanges(cfg)
	assertHourlyRanges(t, lowDates, highDates, startTime, now)
}

func TestDateRangeGeneratorToRFC3339String(t *testing.T) {
	log := logger.NewLogger("date range generator test", "info", true)
	cfg, startTime, now := newDateRangeTestConfig(log)
	cfg.ToDateRFC3339orNow = time.Now().Format(time.RFC3339)
	log.Debug("Sending ToDateRFC3339orNow = ", cfg.ToDateRFC3339orNow)
	feedDateRangeInput(cfg, map[string]interface{}{"FromDate": startTime})
	lowDates, highDates := collectDateRanges(cfg)
	assertHourlyRanges(t, lowDates, highDates, startTime, now)
}

func TestDateRangeGeneratorShutdown(t *testing.T) {
	log := logger.NewLogger("date range generator test", "info", true)
	cfg, _, _ := newDateRangeTestConfig(log)
	cfg.InputChan = make(chan stream.Record, 1)
	_, controlChan := NewDateRangeGenerator(cfg)
	responseChan := make(chan error, 1)
	controlChan <- ControlAction{Action: Shutdown, ResponseChan: responseChan}
	select {
	case <-time.After(3 * time.Second):
		t.Fatal("timeout waiting for DateRangeGenerator to shutdown")
	case <-responseChan:
	}
}

// TestDateRangeGeneratorToDateField supplies the upper bound via an input
// field instead of ToDateRFC3339orNow.
func TestDateRangeGeneratorToDateField(t *testing.T) {
	log := logger.NewLogger("date range generator test", "info", true)
	cfg, startTime, now := newDateRangeTestConfig(log)
	cfg.ToDateRFC3339orNow = ""
	cfg.InputChanFieldName4ToDate = "ToDate"
	feedDateRangeInput(cfg, map[string]interface{}{"FromDate": startTime, "ToDate": now})
	lowDates, highDates := collectDateRanges(cfg)
	assertHourlyRanges(t, lowDates, highDates, startTime, now)
}

// A zero interval would loop forever so construction must panic.
func TestDateRangeGeneratorZeroIntervalPanics(t *testing.T) {
	log := logger.NewLogger("date range generator test", "info", true)
	assertDateRangePanic(t, "expected a panic for interval size 0", &DateRangeGeneratorConfig{
		Log:                         log,
		Name:                        "Test DateRangeGenerator zero interval",
		InputChanFieldName4FromDate: "FromDate",
		ToDateRFC3339orNow:          "now",
		IntervalSizeSeconds:         0,
	})
}

func TestDateRangeGeneratorMissingToDatePanics(t *testing.T) {
	log := logger.NewLogger("date range generator test", "info", true)
	assertDateRangePanic(t, "expected a panic for missing ToDate configuration", &DateRangeGeneratorConfig{
		Log:                         log,
		Name:                        "Test DateRangeGenerator missing to date",
		InputChanFieldName4FromDate: "FromDate",
		IntervalSizeSeconds:         3600,
	})
}

func TestDateRangeGeneratorPassesInputFields(t *testing.T) {
	log := logger.NewLogger("date range generator test", "info", true)
	cfg, startTime, now := newDateRangeTestConfig(log)
	cfg.ToDateRFC3339orNow = ""
	cfg.InputChanFieldName4ToDate = "ToDate"
	cfg.PassInputFieldsToOutput = true
	feedDateRangeInput(cfg, map[string]interface{}{
		"FromDate":    startTime,
		"ToDate":      now,
		"sourceTable": "invoice",
	})
	o, _ := NewDateRangeGenerator(cfg)
	count := 0
	for rec := range o {
		if rec.GetData("sourceTable") != "invoice" {
			t.Fatal("expected input field sourceTable to be passed to the output row")
		}
		count++
	}
	if count != 12 {
		t.Fatal("Expected 12 hours worth of dates.")
	}
}

func TestGetTimeFromInterface(t *testing.T) {
	// Assert that time.Time values pass through and date strings are parsed.
	want := time.Date(2009, 1, 1, 0, 0, 0, 0, time.UTC)
	got, err := getTimeFromInterface(want)
	if err != nil || !got.Equal(want) {
		t.Fatal("expected a time.Time to pass through unchanged; got: ", got, err)
	}
	got, err = getTimeFromInterface("2009-01-01")
	if err != nil || !got.Equal(want) {
		t.Fatal("expected a plain date string to parse; got: ", got, err)
	}
	got, err = getTimeFromInterface("2009-01-01T00:00:00Z")
	if err != nil || !got.Equal(want) {
		t.Fatal("expected an RFC3339 string to parse; got: ", got, err)
	}
	if _, err = getTimeFromInterface(123); err == nil {
		t.Fatal("expected an error for a non-date value")
	}
}

func assertStr(t *testing.T, expected, got string) {
	t.Helper()
	if expected != got {
		t.Fatalf("Strings don't match: expected = '%v'; got = '%v'", expected, got)
	}
}
