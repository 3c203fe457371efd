package stats

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/martpipe/martpipe/logger"

	"github.com/cevaris/ordered_map"
)

type StatsFetcher interface {
	GetStats() []Stats
}

// DefaultStatsDumpFrequencySeconds may be overridden by the
// SetStatsDumpFrequency() constructor option.
var DefaultStatsDumpFrequencySeconds = 5

// TransformStatsManager implements the StatsManager interface, collecting the
// StepWatcher of each transform step registered via AddStepWatcher.
type TransformStatsManager struct {
	ticker              *time.Ticker
	tickerDone          chan struct{}
	tickerIsRunningFlag int32
	tickerFrequency     int
	mu                  sync.Mutex
	log                 logger.Logger
	mapStepStats        *ordered_map.OrderedMap // step name to *StepWatcher, in registration order.
}

// SetStatsDumpFrequency is an option for NewTransformStats().
func SetStatsDumpFrequency(seconds int) func(t *TransformStatsManager) {
	return func(t *TransformStatsManager) {
		t.tickerFrequency = seconds
		DefaultStatsDumpFrequencySeconds = seconds
	}
}

// NewTransformStats creates a TransformStatsManager.
// Supply SetStatsDumpFrequency() to override the default dump frequency.
func NewTransformStats(log logger.Logger, options ...func(t *TransformStatsManager)) *TransformStatsManager {
	t := &TransformStatsManager{log: log, tickerFrequency: DefaultStatsDumpFrequencySeconds}
	for _, option := range options {
		option(t)
	}
	t.tickerDone = make(chan struct{})
	t.mapStepStats = ordered_map.NewOrderedMap()
	return t
}

// AddStepWatcher creates a StepWatcher for the named step and registers it
// with this manager. Call once per transform step created.
// TODO: make this return an interface and update all components to use the new interface instead.
func (t *TransformStatsManager) AddStepWatcher(stepName string) *StepWatcher {
	sw := NewStepWatcher(t.log, stepName)
	t.mapStepStats.Set(stepName, sw)
	return sw
}

// StartDumping launches the periodic stats dumper, unless it is already
// running or the dump frequency is zero.
func (t *TransformStatsManager) StartDumping() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if atomic.LoadInt32(&t.tickerIsRunningFlag) != 0 {
		t.log.Debug("stats dumper ticker already running")
		return
	}
	if t.tickerFrequency <= 0 {
		t.log.Debug("stats dumper disabled")
		return
	}
	t.ticker = time.NewTicker(time.Second * time.Duration(t.tickerFrequency))
	atomic.StoreInt32(&t.tickerIsRunningFlag, 1)
	go func() {
		t.log.Debug("stats dumper ticker started")
		for {
			select {
			case <-t.tickerDone:
				t.log.Debug("stats dumper ticker stopped")
				return
			case <-t.ticker.C:
				t.logStats()
			}
		}
	}()
}

// StopDumping stops the ticker and dumps the current stats, but only if the
// ticker was running from an earlier StartDumping().
func (t *TransformStatsManager) StopDumping() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if atomic.LoadInt32(&t.tickerIsRunningFlag) == 0 {
		return
	}
	atomic.StoreInt32(&t.tickerIsRunningFlag, 0)
	t.ticker.Stop()
	t.tickerDone <- struct{}{} // stop the dumper goroutine (we can't close ticker.C).
	iter := t.mapStepStats.IterFunc()
	for kv, ok := iter(); ok; kv, ok = iter() {
		kv.Value.(*StepWatcher).CalculateStats() // final reading per step.
	}
	t.logStats()
}

func (t *TransformStatsManager) logStats() {
	iter := t.mapStepStats.IterFunc()
	for kv, ok := iter(); ok; kv, ok = iter() {
		t.log.Warn(kv.Value.(*StepWatcher).RenderStats().String())
	}
}

// GetStats implements interface StatsFetcher{}.
func (t *TransformStatsManager) GetStats() []Stats {
	iter := t.mapStepStats.IterFunc()
	statsList := make([]Stats, 0)
	for kv, ok := iter(); ok; kv, ok = iter() {
		statsList = append(statsList, kv.Value.(*StepWatcher).RenderStats())
	}
	return statsList
}
