package components

import (
	"fmt"
	"io"
	"sync/atomic"

	c "github.com/martpipe/martpipe/constants"
	"github.com/martpipe/martpipe/logger"
	"github.com/martpipe/martpipe/stats"
	"github.com/martpipe/martpipe/stream"
)

type StdOutPassThroughConfig struct {
	Log             logger.Logger
	Name            string
	InputChan       chan stream.Record
	Writer          io.Writer // where records are written, usually STDOUT.
	OutputFields    []string  // fields to write to the Writer (empty means all fields).
	AbortAfterCount int64     // when non-zero, panic after this many records have been sent.
	StepWatcher     *stats.StepWatcher
	WaitCounter     ComponentWaiter
	PanicHandlerFn  PanicHandlerFunc
}

// NewStdOutPassThrough writes each input record to the configured io.Writer
// (the default launcher func supplies STDOUT) and passes the record through
// to outputChan unchanged.
// When OutputFields is empty all fields on the first input record are used;
// otherwise the named fields must exist on the input stream.
// AbortAfterCount causes a deliberate panic once that many records have been
// passed through, which is useful for failing pipes that detect differences.
func NewStdOutPassThrough(i interface{}) (outputChan chan stream.Record, controlChan chan ControlAction) {
	cfg := i.(*StdOutPassThroughConfig)
	outputChan = make(chan stream.Record, c.ChanSize)
	controlChan = make(chan ControlAction, 1)
	go func() {
		if cfg.Writer == nil {
			cfg.Log.Panic(cfg.Name, " bad config supplied: missing io.Writer")
		}
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
		firstTime := true
		for {
			select {
			case rec, ok := <-cfg.InputChan:
				if !ok { // all input consumed; disable both cases and exit the loop.
					cfg.InputChan = nil
					controlChan = nil
					break
				}
				if firstTime {
					firstTime = false
					if len(cfg.OutputFields) == 0 {
						cfg.Log.Debug(cfg.Name, " defaulting to output all fields")
						cfg.OutputFields = rec.GetSortedDataMapKeys()
					}
				}
				if _, err := fmt.Fprintf(cfg.Writer, "%v\n", rec.GetJson(cfg.Log, cfg.OutputFields)); err != nil {
					cfg.Log.Panic(cfg.Name, " failed to output record: ", err)
				}
				if recSentOK := safeSend(rec, outputChan, controlChan, sendNilControlResponse); !recSentOK {
					cfg.Log.Info(cfg.Name, " shutdown")
					return
				}
				if count := atomic.AddInt64(&rowCount, 1); cfg.AbortAfterCount != 0 && count >= cfg.AbortAfterCount {
					cfg.Log.Panic(cfg.Name, " record diff count exceeded")
				}
			case controlAction := <-controlChan:
				if controlAction.Action == Shutdown {
					controlAction.ResponseChan <- nil // shutdown completed without error.
					cfg.Log.Info(cfg.Name, " shutdown")
					return
				}
			}
			if cfg.InputChan == nil {
				cfg.Log.Debug(cfg.Name, " breaking out of loop")
				break
			}
		}
		close(outputChan)
		cfg.Log.Info(cfg.Name, " complete")
	}()
	return outputChan, controlChan
}
