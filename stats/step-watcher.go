package stats

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
	c "github.com/martpipe/martpipe/constants"
	h "github.com/martpipe/martpipe/helper"
	"github.com/martpipe/martpipe/logger"
	"github.com/martpipe/martpipe/stream"
)

// StepWatcher captures stats for one transform step between calls to
// StartWatching() and StopWatching().
type StepWatcher struct {
	log             logger.Logger
	stepName        string
	rowCountPtr     *int64 // row counter owned by the step being watched. // TODO: use chan directly instead of ptr to chan.
	chanPtr         *chan stream.Record
	chanLen         int64
	startTime       time.Time
	rowsPerSecDelta int64
	rowsPerSecAvg   int64
	totalRows       int64
	priorRowCount   int64     // last reading, for delta rows per sec between ticks.
	priorTime       time.Time // last reading time, ditto.
	ticker          *time.Ticker
	tickerDone      chan struct{}
	isRunning       h.AtomBool
	latencyMu       sync.Mutex              // guards commitLatency which is not safe for concurrent use.
	commitLatency   *hdrhistogram.Histogram // commit round-trip times in ms, populated by steps that commit transactions.
}

type Stats struct {
	StepName           string `json:"stepName"`
	StatusText         string `json:"statusText"`
	StatusEmoji        string `json:"statusEmoji"`
	ElapsedTimeSec     int    `json:"elapsedTimeSec"`
	TotalRowsProcessed int    `json:"totalRowsProcessed"`
	RowsPerSecondAvg   int    `json:"rowsPerSecondAvg"`
	RowsPerSecondDelta int    `json:"rowsPerSecondDelta"`
	OutputBufferLen    int    `json:"outputBufferLen"`
	CommitCount        int    `json:"commitCount,omitempty"`
	CommitP50Ms        int    `json:"commitP50Ms,omitempty"`
	CommitP95Ms        int    `json:"commitP95Ms,omitempty"`
	CommitP99Ms        int    `json:"commitP99Ms,omitempty"`
}

func NewStepWatcher(log logger.Logger, stepName string) *StepWatcher {
	return &StepWatcher{
		log:           log,
		stepName:      stepName,
		tickerDone:    make(chan struct{}),
		commitLatency: hdrhistogram.New(1, 60000, 3), // track 1ms to 60s at 3 significant figures.
	}
}

// StartWatching begins periodic stats capture against the step's row counter
// and output channel, both supplied by reference so live values can be read.
func (n *StepWatcher) StartWatching(rowCountPtr *int64, chanPtr *chan stream.Record) {
	n.rowCountPtr = rowCountPtr
	n.chanPtr = chanPtr // kept so we can read len() on the step's output channel.
	n.startTime = time.Now()
	n.priorTime = n.startTime
	n.isRunning.Set(true)
	n.totalRows = 0 // reset in case a step calls this repeatedly.
	n.latencyMu.Lock()
	n.commitLatency.Reset()
	n.latencyMu.Unlock()
	n.CalculateStats() // capture an initial reading immediately.
	n.ticker = time.NewTicker(time.Second * c.StatsCaptureFrequencySeconds)
	go func() {
		for {
			select {
			case <-n.ticker.C:
				n.CalculateStats()
			case <-n.tickerDone:
				return
			}
		}
	}()
}

func (n *StepWatcher) StopWatching() {
	n.ticker.Stop()
	n.tickerDone <- struct{}{} // stop the capture goroutine.
	n.CalculateStats()         // force a final reading.
	n.isRunning.Set(false)
	atomic.StoreInt64(&n.chanLen, 0)
}

func (n *StepWatcher) CalculateStats() {
	deltaTime := int64(time.Since(n.priorTime).Seconds())
	if deltaTime < 1 {
		deltaTime = 1 // avoid divide by zero below.
	}
	rowCount := atomic.LoadInt64(n.rowCountPtr)
	deltaRowCount := rowCount - n.priorRowCount
	atomic.StoreInt64(&n.rowsPerSecDelta, deltaRowCount/deltaTime)
	// This may read a chan that was closed and has disappeared.
	// TODO: do we need to store chan length explicitly or can we do this on the fly??? perhaps transStats should do this?
	atomic.StoreInt64(&n.chanLen, int64(len(*n.chanPtr)))
	n.log.Debug("STATS: ", n.stepName, " processing ", n.rowsPerSecDelta, " rows per sec. Output channel length ", atomic.LoadInt64(&n.chanLen))
	atomic.StoreInt64(&n.priorRowCount, rowCount)
	n.priorTime = time.Now()
	// Accumulate the delta rather than storing rowCount since transform steps may repeat themselves.
	atomic.AddInt64(&n.totalRows, deltaRowCount)
	atomic.StoreInt64(&n.rowsPerSecAvg,
		atomic.LoadInt64(&n.totalRows)/getNumSecondsSinceTimeOrOne(n.startTime))
}

// RecordCommitLatency adds a commit round-trip time to the latency histogram.
// Durations outside the trackable range are dropped.
func (n *StepWatcher) RecordCommitLatency(d time.Duration) {
	n.latencyMu.Lock()
	_ = n.commitLatency.RecordValue(d.Milliseconds())
	n.latencyMu.Unlock()
}

// RenderStats returns a point-in-time snapshot of the step's stats.
func (n *StepWatcher) RenderStats() Stats {
	statusText := "complete"
	statusEmoji := "\U00002705" // green tick
	if n.isRunning.Get() {
		statusText = "running"
		statusEmoji = "\U0000231B" // hour glass
	}
	retval := Stats{
		StepName:           n.stepName,
		StatusText:         statusText,
		StatusEmoji:        statusEmoji,
		ElapsedTimeSec:     int(time.Since(n.startTime).Seconds()),
		TotalRowsProcessed: int(atomic.LoadInt64(&n.totalRows)),
		RowsPerSecondAvg:   int(atomic.LoadInt64(&n.rowsPerSecAvg)),
		RowsPerSecondDelta: int(atomic.LoadInt64(&n.rowsPerSecDelta)),
		OutputBufferLen:    int(atomic.LoadInt64(&n.chanLen)),
	}
	n.latencyMu.Lock()
	if n.commitLatency.TotalCount() > 0 { // only steps that commit transactions populate these.
		retval.CommitCount = int(n.commitLatency.TotalCount())
		retval.CommitP50Ms = int(n.commitLatency.ValueAtQuantile(50))
		retval.CommitP95Ms = int(n.commitLatency.ValueAtQuantile(95))
		retval.CommitP99Ms = int(n.commitLatency.ValueAtQuantile(99))
	}
	n.latencyMu.Unlock()
	return retval
}

// String formats the stats for general logging.
func (s Stats) String() string {
	retval := fmt.Sprintf(
		"Stats for %v %v %v "+
			"elapsedTimeSec=%v "+
			"totalRowsProcessed=%v "+
			"rowsPerSecondAvg=%v "+
			"rowsPerSecondDelta=%v "+
			"outputBufferLen=%v",
		s.StepName, s.StatusText, s.StatusEmoji,
		s.ElapsedTimeSec,
		s.TotalRowsProcessed,
		s.RowsPerSecondAvg,
		s.RowsPerSecondDelta,
		s.OutputBufferLen,
	)
	if s.CommitCount > 0 {
		retval += fmt.Sprintf(" commitCount=%v commitP50Ms=%v commitP95Ms=%v commitP99Ms=%v",
			s.CommitCount,
			s.CommitP50Ms,
			s.CommitP95Ms,
			s.CommitP99Ms,
		)
	}
	return retval
}

func getNumSecondsSinceTimeOrOne(t time.Time) (seconds int64) {
	seconds = int64(time.Since(t).Seconds())
	if seconds < 1 {
		seconds = 1
	}
	return
}
