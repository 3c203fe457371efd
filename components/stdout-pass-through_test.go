package components

import (
	"bytes"
	"os"
	"testing"
	"time"

	"github.com/martpipe/martpipe/logger"
	"github.com/martpipe/martpipe/stream"
)

// TODO: implement tests for all components' panic handlers, wait counters and step watchers!

func newPassThroughInput() chan stream.Record {
	chanData := make(chan stream.Record, 10)
	row := stream.NewRecord()
	row.SetData("key1", 1)
	row.SetData("key2", "value2")
	chanData <- row
	return chanData
}

func TestStdOutPassThroughPropagatesRecords(t *testing.T) {
	log := logger.NewLogger("martpipe", "info", true)
	cfg := &StdOutPassThroughConfig{
		Log:       log,
		Name:      "test pass-through propagation",
		InputChan: newPassThroughInput(),
		Writer:    os.Stdout,
	}
	outputChan, _ := NewStdOutPassThrough(cfg)
	close(cfg.InputChan)
	results := make([]stream.Record, 0)
	for rec := range outputChan {
		results = append(results, rec)
	}
	if got := results[0].GetDataAsStringPreserveTimeZone(log, "key1"); got != "1" {
		t.Fatalf("expected = 1; got = %v", got)
	}
	if got := results[0].GetDataAsStringPreserveTimeZone(log, "key2"); got != "value2" {
		t.Fatalf("expected = value2; got = %v", got)
	}
}

func TestStdOutPassThroughWritesToWriter(t *testing.T) {
	log := logger.NewLogger("martpipe", "info", true)
	buf := bytes.Buffer{}
	cfg := &StdOutPassThroughConfig{
		Log:       log,
		Name:      "test pass-through writer",
		InputChan: newPassThroughInput(),
		Writer:    &buf,
	}
	outputChan, _ := NewStdOutPassThrough(cfg)
	close(cfg.InputChan)
	for range outputChan { // drain so the component completes.
	}
	expected := "{\"key1\": \"1\", \"key2\": \"value2\"}\n" // includes trailing new line.
	if got := buf.String(); got != expected {
		t.Fatalf("expected = %v; got = %v", expected, got)
	}
}

func TestStdOutPassThroughShutdown(t *testing.T) {
	log := logger.NewLogger("martpipe", "info", true)
	cfg := &StdOutPassThroughConfig{
		Log:       log,
		Name:      "test pass-through shutdown",
		InputChan: newPassThroughInput(),
		Writer:    os.Stdout,
	}
	_, controlChan := NewStdOutPassThrough(cfg)
	responseChan := make(chan error, 1)
	controlChan <- ControlAction{Action: Shutdown, ResponseChan: responseChan}
	select {
	case <-time.After(10 * time.Second):
		t.Fatal("timeout waiting for NewStdOutPassThrough to shutdown")
	case <-responseChan: // continue.
	}
}

func TestStdOutPassThroughAbortAfterCount(t *testing.T) {
	log := logger.NewLogger("martpipe", "info", true)
	inputChan := newPassThroughInput()
	row2 := stream.NewRecord()
	row2.SetData("key1", 1)
	row2.SetData("key2", "value2")
	inputChan <- row2 // two rows on the input so the abort threshold of 1 trips.
	recovered := make(chan bool, 1)
	buf := bytes.Buffer{}
	cfg := &StdOutPassThroughConfig{
		Log:             log,
		Name:            "test pass-through abort",
		InputChan:       inputChan,
		Writer:          &buf,
		AbortAfterCount: 1,
		PanicHandlerFn: func() {
			if r := recover(); r != nil {
				log.Info("abort test recovery")
				recovered <- true
			}
		},
	}
	NewStdOutPassThrough(cfg)
	close(cfg.InputChan)
	select {
	case <-time.After(time.Second * 3):
		t.Fatal("timeout waiting for pass through to abort after N rows")
	case <-recovered: // OK.
	}
}
