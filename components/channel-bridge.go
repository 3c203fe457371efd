package components

import (
	"sync/atomic"

	c "github.com/martpipe/martpipe/constants"
	"github.com/martpipe/martpipe/logger"
	"github.com/martpipe/martpipe/stats"
	"github.com/martpipe/martpipe/stream"
)

type ChannelBridgeConfig struct {
	Log            logger.Logger
	Name           string
	StepWatcher    *stats.StepWatcher
	WaitCounter    ComponentWaiter
	PanicHandlerFn PanicHandlerFunc
}

// NewChannelBridge returns an input channel of data channels. Each data
// channel received has its rows forwarded to outputChan; once a data channel
// drains the bridge waits for the next one, keeping outputChan open while the
// upstream changes over time.
// The use case: write a manifest file when the first data chan closes, yet
// stay open to write another manifest when the next data chan closes.
// Close inputChan to end the goroutine.
func NewChannelBridge(i interface{}) (inputChan chan chan stream.Record, outputChan chan stream.Record) {
	cfg := i.(*ChannelBridgeConfig)
	inputChan = make(chan chan stream.Record, c.ChanSize)
	outputChan = make(chan stream.Record, c.ChanSize)
	var dataChan chan stream.Record
	go func() {
		if cfg.PanicHandlerFn != nil {
			defer cfg.PanicHandlerFn()
		}
		cfg.Log.Info(cfg.Name, " is running")
		defer cfg.Log.Info(cfg.Name, " complete")
		if cfg.WaitCounter != nil {
			cfg.WaitCounter.Add()
			defer cfg.WaitCounter.Done()
		}
		rowCount := int64(0)
		if cfg.StepWatcher != nil {
			cfg.StepWatcher.StartWatching(&rowCount, &outputChan)
			defer cfg.StepWatcher.StopWatching()
		}
		for {
			select {
			case ch, ok := <-inputChan: // receive the next data channel.
				if !ok { // inputChan was closed; drain the current data chan then finish.
					inputChan = nil
					break
				}
				dataChan = ch
			case rec, ok := <-dataChan:
				if !ok { // nil cases are never selected, so dataChan was once open.
					dataChan = nil
					cfg.Log.Debug(cfg.Name, " data channel was closed.")
					break
				}
				// The row count is incremented atomically as the StepWatcher reads it concurrently.
				atomic.AddInt64(&rowCount, 1)
				cfg.Log.Debug(cfg.Name, " passing row to output: ", rec.GetDataMap())
				outputChan <- rec
			}
			if dataChan == nil && inputChan == nil {
				break
			}
		}
		close(outputChan)
	}()
	return
}
