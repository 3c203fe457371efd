package transform

import (
	"sync"
)

// TODO: combine StepStatus and Status (at the transform level) if possible.
type StepStatus uint32

const (
	StepStatusStarting StepStatus = iota + 1
	StepStatusRunning
	StepStatusDone
)

// groupWaiter wraps a sync.WaitGroup with a per-step status map so shutdown
// logic can skip steps that already completed. Named steps should go through
// a stepWaiter so their status gets tracked.
type groupWaiter struct {
	wg       sync.WaitGroup
	statuses map[string]StepStatus
	mu       sync.RWMutex
}

// newStepComponentWaiter returns a stepWaiter bound to stepName, marking the
// step as starting.
func (gw *groupWaiter) newStepComponentWaiter(stepName string) *stepWaiter {
	gw.StoreStatus(stepName, StepStatusStarting)
	return &stepWaiter{stepName: stepName, gw: gw}
}

func (gw *groupWaiter) StoreStatus(stepName string, status StepStatus) {
	gw.mu.Lock()
	gw.statuses[stepName] = status
	gw.mu.Unlock()
}

func (gw *groupWaiter) LoadStatus(stepName string) (retval StepStatus, ok bool) {
	gw.mu.RLock()
	retval, ok = gw.statuses[stepName]
	gw.mu.RUnlock()
	return
}

// Add and Done act on the bare wait group without touching step status, for
// goroutines that have no step name such as the unused-output consumers.
func (gw *groupWaiter) Add() {
	gw.wg.Add(1)
}

func (gw *groupWaiter) Done() {
	gw.wg.Done()
}

func (gw *groupWaiter) Wait() {
	gw.wg.Wait()
}

// stepWaiter satisfies the ComponentWaiter interface for one named step,
// recording running/done status against the parent groupWaiter as the
// component starts and stops.
type stepWaiter struct {
	gw       *groupWaiter
	stepName string
}

func (s *stepWaiter) Add() {
	s.gw.wg.Add(1)
	s.gw.StoreStatus(s.stepName, StepStatusRunning)
}

func (s *stepWaiter) Done() {
	s.gw.wg.Done()
	s.gw.StoreStatus(s.stepName, StepStatusDone)
}
