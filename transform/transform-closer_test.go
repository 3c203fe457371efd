package transform

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestCloseChanStatusAndShutdown(t *testing.T) {
	chanStatus := make(chan TransformStatus, 1)
	chanShutdown := make(chan error, 1)
	chanResult := make(chan string, 2)
	tc := TransformCloser{chanStatus: chanStatus, chanShutdown: chanShutdown}

	// Test 1 - both channels really close.
	tc.CloseChannels(nil)
	// Sending on a closed channel panics, so a recovered send proves closure.
	recoverFunc := func(message string) {
		if r := recover(); r != nil { // if the send panicked...
			chanResult <- message
		}
	}
	expectedMessages := [...]string{"chanStatus", "chanShutdown"}
	go func() {
		defer recoverFunc(expectedMessages[0])
		chanStatus <- TransformStatus{}
	}()
	go func() {
		defer recoverFunc(expectedMessages[1])
		chanShutdown <- nil
	}()
	results := make([]string, 0)
	timeout := time.After(3 * time.Second)
capture:
	for {
		select {
		case <-timeout: // if the recovery responses never arrived...
			break capture
		case result := <-chanResult:
			results = append(results, result)
			if len(results) >= len(expectedMessages) {
				break capture
			}
		}
	}
	if len(results) != len(expectedMessages) {
		t.Fatalf("expected %v channels to be closed, but got responses from %v", len(expectedMessages), len(results))
	}
	for _, val := range results { // for each recovered send...
		if val != expectedMessages[0] && val != expectedMessages[1] {
			t.Fatalf("exepcted channels to be closed with values in %v, but got values in %v", expectedMessages, results)
		}
	}

	// Test 2 - the closer reports the channels as closed.
	if tc.ChannelsAreOpen() {
		t.Fatal("channels are expected to be closed, but they were found to be open")
	}

	// Test 3 - the internal flag agrees.
	if atomic.LoadInt32(&tc.closed) == 0 {
		t.Fatal("channels are closed but the flag is still 0")
	}
}
