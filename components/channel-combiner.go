package components

import (
	"sync/atomic"

	"github.com/martpipe/martpipe/constants"
	"github.com/martpipe/martpipe/logger"
	s "github.com/martpipe/martpipe/stats"
	"github.com/martpipe/martpipe/stream"
)

type ChannelCombinerConfig struct {
	Log            logger.Logger
	Name           string
	Chan1          chan stream.Record
	Chan2          chan stream.Record
	StepWatcher    *s.StepWatcher
	WaitCounter    ComponentWaiter
	PanicHandlerFn PanicHandlerFunc
}

// NewChannelCombiner collects all rows from its 2 input channels onto
// outputChan, in whatever order they arrive.
// TODO: consider using reflect.SelectCase to allow N channels as input (it would be slower).
func NewChannelCombiner(i interface{}) (outputChan chan stream.Record, controlChan chan ControlAction) {
	cfg := i.(*ChannelCombinerConfig)
	outputChan = make(chan stream.Record, constants.ChanSize) // TODO: do we need a big buffered channel here?
	controlChan = make(chan ControlAction, 1)
	go func() {
		if cfg.PanicHandlerFn != nil {
			defer cfg.PanicHandlerFn()
		}
		cfg.Log.Info(cfg.Name, " is running")
		if cfg.WaitCounter != nil {
			cfg.WaitCounter.Add()
			defer cfg.WaitCounter.Done()
		}
		rowCount := int64(0)
		if cfg.StepWatcher != nil {
			cfg.StepWatcher.StartWatching(&rowCount, &outputChan)
			defer cfg.StepWatcher.StopWatching()
		}
		forward := func(rec stream.Record) bool {
			if recSentOK := safeSend(rec, outputChan, controlChan, sendNilControlResponse); !recSentOK {
				cfg.Log.Info(cfg.Name, " shutdown")
				return false
			}
			return true
		}
		for { // until both input channels are closed...
			select { // whichever channel has records available...
			case rec, ok := <-cfg.Chan1:
				if !ok { // closed; nil the channel so this case is skipped from now on.
					cfg.Chan1 = nil
				} else if !forward(rec) {
					return
				}
			case rec, ok := <-cfg.Chan2:
				if !ok {
					cfg.Chan2 = nil
				} else if !forward(rec) {
					return
				}
			case controlAction := <-controlChan:
				controlAction.ResponseChan <- nil // a nil error signals a clean shutdown.
				cfg.Log.Info(cfg.Name, " shutdown")
				return
			}
			if cfg.Chan1 == nil && cfg.Chan2 == nil {
				break
			}
			// The row count is incremented atomically as the StepWatcher reads it concurrently.
			atomic.AddInt64(&rowCount, 1)
		}
		close(outputChan)
		cfg.Log.Info(cfg.Name, " complete")
	}()
	return
}
