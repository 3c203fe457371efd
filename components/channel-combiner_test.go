package components

import (
	"strconv"
	"testing"
	"time"

	"github.com/martpipe/martpipe/logger"
	"github.com/martpipe/martpipe/stream"
)

func TestChannelCombinerMergesInputs(t *testing.T) {
	log := logger.NewLogger("channel combiner test", "info", true)
	c1 := make(chan stream.Record, 1)
	c2 := make(chan stream.Record, 1)
	r1 := stream.NewRecord()
	r2 := stream.NewRecord()
	r1.SetData("fred", "1")
	r2.SetData("fred", "2")
	c1 <- r1
	c2 <- r2
	close(c1)
	close(c2)

	outputChan, _ := NewChannelCombiner(&ChannelCombinerConfig{
		Log:   log,
		Name:  "Test ChannelCombiner merge",
		Chan1: c1,
		Chan2: c2,
	})
	// Summing the field values proves both input rows arrived exactly once,
	// regardless of order.
	sum := 0
	for rec := range outputChan {
		x, err := strconv.Atoi(rec.GetDataAsStringPreserveTimeZone(log, "fred"))
		if err != nil {
			t.Fatal(err)
		}
		sum += x
	}
	if expected := 3; sum != expected {
		t.Fatalf("ChannelCombiner received unexpected records: expected %v; got %v", expected, sum)
	}
}

func TestChannelCombinerShutdown(t *testing.T) {
	log := logger.NewLogger("channel combiner test", "info", true)
	_, controlChan := NewChannelCombiner(&ChannelCombinerConfig{
		Log:   log,
		Name:  "Test ChannelCombiner shutdown",
		Chan1: make(chan stream.Record, 1),
		Chan2: make(chan stream.Record, 1),
	})
	responseChan := make(chan error, 1)
	controlChan <- ControlAction{Action: Shutdown, ResponseChan: responseChan}
	select {
	case <-time.After(3 * time.Second):
		t.Fatal("timeout waiting for ChannelCombiner to shutdown.")
	case <-responseChan: // continue.
	}
}
