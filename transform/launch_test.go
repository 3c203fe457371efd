package transform

import (
	"testing"
	"time"

	"github.com/martpipe/martpipe/components"
	"github.com/martpipe/martpipe/logger"
	"github.com/martpipe/martpipe/stats"
	"github.com/martpipe/martpipe/stream"
	"github.com/rs/xid"
	"golang.org/x/net/context"
)

// Worker mocks, one per component registration type. Each sends on c so the
// tests can count launches.

func getTestWorkerT1Func(c chan struct{}) func(cfg interface{}) (outputChan chan stream.Record) {
	return func(cfg interface{}) (outputChan chan stream.Record) {
		c <- struct{}{}
		return make(chan stream.Record, 1)
	}
}

func getTestWorkerT2Func(c chan struct{}) func(cfg interface{}) (outputChan chan stream.Record, controlChan chan components.ControlAction) {
	return func(cfg interface{}) (outputChan chan stream.Record, controlChan chan components.ControlAction) {
		c <- struct{}{}
		return make(chan stream.Record, 1), make(chan components.ControlAction, 1)
	}
}

func getTestWorkerT3Func(c chan struct{}) func(cfg interface{}) (inputChan chan chan stream.Record, outputChan chan stream.Record) {
	return func(cfg interface{}) (inputChan chan chan stream.Record, outputChan chan stream.Record) {
		c <- struct{}{}
		return make(chan chan stream.Record, 1), make(chan stream.Record, 1)
	}
}

// Launcher mocks matching the three registration types.

func getStartWorkerT1(c chan struct{}) func(
	log logger.Logger,
	stepName string,
	stepCanonicalName string,
	sg *StepGroup,
	sgm StepGroupManager,
	stats StatsManager,
	panicHandlerFn components.PanicHandlerFunc,
	componentFunc func(cfg interface{}) (outputChan chan stream.Record)) {
	return func(
		log logger.Logger,
		stepName string,
		stepCanonicalName string,
		sg *StepGroup,
		sgm StepGroupManager,
		stats StatsManager,
		panicHandlerFn components.PanicHandlerFunc,
		componentFunc func(cfg interface{}) (outputChan chan stream.Record)) {
		c <- struct{}{}
	}
}

func getStartWorkerT2(c chan struct{}) func(
	log logger.Logger,
	stepName string,
	stepCanonicalName string,
	sg *StepGroup,
	sgm StepGroupManager,
	stats StatsManager,
	panicHandlerFn components.PanicHandlerFunc,
	componentFunc func(cfg interface{}) (outputChan chan stream.Record, controlChan chan components.ControlAction)) {
	return func(
		log logger.Logger,
		stepName string,
		stepCanonicalName string,
		sg *StepGroup,
		sgm StepGroupManager,
		stats StatsManager,
		panicHandlerFn components.PanicHandlerFunc,
		componentFunc func(cfg interface{}) (outputChan chan stream.Record, controlChan chan components.ControlAction)) {
		c <- struct{}{}
	}
}

func getStartWorkerT3(c chan struct{}) func(
	log logger.Logger,
	stepName string,
	stepCanonicalName string,
	sg *StepGroup,
	sgm StepGroupManager,
	stats StatsManager,
	panicHandlerFn components.PanicHandlerFunc,
	componentFunc func(cfg interface{}) (inputChan chan chan stream.Record, outputChan chan stream.Record)) {
	return func(
		log logger.Logger,
		stepName string,
		stepCanonicalName string,
		sg *StepGroup,
		sgm StepGroupManager,
		stats StatsManager,
		panicHandlerFn components.PanicHandlerFunc,
		componentFunc func(cfg interface{}) (inputChan chan chan stream.Record, outputChan chan stream.Record)) {
		c <- struct{}{}
	}
}

func mockPanicHandler() {}

func getDummyStepGroupLauncherFn(c chan struct{}) stepGroupLaunchFunc {
	return func(log logger.Logger,
		sg *StepGroup,
		sgm StepGroupManager,
		stats StatsManager,
		funcs MapComponentFuncs,
		panicHandlerFn components.PanicHandlerFunc) {
		c <- struct{}{} // one send per launch.
	}
}

// newDummyTransform returns a minimal TransformDefinition with a single
// sequential GenerateRows step and no database connections.
func newDummyTransform() *TransformDefinition {
	return &TransformDefinition{
		SchemaVersion: 1,
		Sequence:      []string{"stepGroup1"},
		Description:   "dummy description",
		StepGroups: map[string]StepGroup{
			"stepGroup1": {
				Type:     StepGroupSequential,
				Sequence: []string{"step1"},
				Steps: map[string]Step{
					"step1": {
						Type: "GenerateRows",
						Data: map[string]string{
							"numRows":             "2",
							"sequenceFieldName":   "seq",
							"fieldNamesValuesCSV": "keyA:a, keyB:b",
						},
					},
				},
			},
		},
	}
}

// TestStartStepGroup asserts that a component of each registration type can
// be launched, and that consumeUnusedOutputs() runs once all steps are up.
func TestStartStepGroup(t *testing.T) {
	chanWorkerCounter := make(chan struct{}, 3)
	chanMockStepGroupMgr := make(chan string, 10)
	log := logger.NewLogger("test", "info", true)
	testComponentFuncs := MapComponentFuncs{
		"T1": ComponentRegistration{"1", ComponentRegistrationType1{getTestWorkerT1Func(chanWorkerCounter), getStartWorkerT1(chanWorkerCounter)}},
		"T2": ComponentRegistration{"2", ComponentRegistrationType2{getTestWorkerT2Func(chanWorkerCounter), getStartWorkerT2(chanWorkerCounter)}},
		"T3": ComponentRegistration{"3", ComponentRegistrationType3{getTestWorkerT3Func(chanWorkerCounter), getStartWorkerT3(chanWorkerCounter)}},
	}
	sg := &StepGroup{
		Type: "single",
		Steps: map[string]Step{
			"name1": {Type: "T1", Data: map[string]string{"fred": "fred"}},
			"name2": {Type: "T2", Data: map[string]string{"fred": "fred"}},
			"name3": {Type: "T3", Data: map[string]string{"fred": "fred"}},
		},
		Sequence: []string{"name1", "name2", "name3"}}
	StartStepGroup(log, sg, newMockStepGroupManager(chanMockStepGroupMgr), stats.NewMockStatsManager(), testComponentFuncs, mockPanicHandler)
	close(chanWorkerCounter)
	close(chanMockStepGroupMgr)
	got := 0
	for range chanWorkerCounter {
		got++
	}
	if expected := 3; got != expected { // if NOT all launcher functions were called...
		t.Fatalf("component workers to be called: expected %v; got %v", expected, got)
	}
	log.Info("StartStepGroup was successful")
	calls := make(map[string]bool)
	for str := range chanMockStepGroupMgr {
		calls[str] = true
	}
	if !calls["consumeUnusedOutputs"] {
		t.Fatal("consumeUnusedOutputs was not called by StartStepGroup()")
	}
	log.Info("consumeUnusedOutputs was called OK")
}

func TestGetSleepDuration(t *testing.T) {
	log := logger.NewLogger("test", "info", true)
	numSecondsToSleep := 10
	toleranceSeconds := 1

	// Test 1 - an immediate call returns the whole interval.
	log.Info("Test 1, sleep duration matches numSecondsToSleep if we go now")
	lastStartTime := time.Now()
	expected := time.Duration(numSecondsToSleep-toleranceSeconds) * time.Second
	got := getSleepDuration(log, lastStartTime, numSecondsToSleep).Truncate(time.Second)
	if got != expected {
		t.Fatalf("Time duration out of range: expected %v; got %v.", expected, got)
	}
	log.Info("Test 1 complete")

	// Test 2 - a delayed call returns the remainder of the interval.
	log.Info("Test 2, sleep duration matches remainder of numSecondsToSleep if we delay")
	lastStartTime = time.Now()
	delay := 2
	<-time.After(time.Second * time.Duration(delay))
	got = getSleepDuration(log, lastStartTime, numSecondsToSleep).Truncate(time.Second)
	expected = time.Duration(numSecondsToSleep-delay-toleranceSeconds) * time.Second
	if got != expected {
		t.Fatalf("Time duration out of range: expected %v; got %v.", expected, got)
	}
	log.Info("Test 2 complete")

	// Test 3 - an overdue interval returns zero.
	log.Info("Test 3, overdue timeout returns 0 sec")
	if got = getSleepDuration(log, lastStartTime, 0); got != 0 {
		t.Fatalf("Overdue timeout duration failure: expected 0; got %v.", got)
	}
	log.Info("Test 3, complete")
}

func TestLaunchTransform(t *testing.T) {
	log := logger.NewLogger("test", "info", true)
	trans := newDummyTransform()
	s := stats.NewMockStatsManager()
	cleanupHandlerFn := CleanupHandlerDefault
	panicHandlerFn := func() {}

	// Test 1 - a run-once transform calls the step group launcher exactly once.
	c := make(chan struct{}, 2) // counts launcher calls.
	launcherFn := getDummyStepGroupLauncherFn(c)
	guid := xid.New().String()
	LaunchTransform(log, trans, guid, launcherFn, s, cleanupHandlerFn, panicHandlerFn)
	close(c)
	got := 0
	for range c {
		got++
	}
	if expected := 1; got != expected {
		t.Fatalf("stepGroupLauncherFn was not called the expected number of times: expected %v; got %v", expected, got)
	}
	log.Info("successfully launched dummy/test transform (repeat = once)")

	// Test 2 - a repeating step group launches more than once.
	m := trans.StepGroups["stepGroup1"]
	m.Type = StepGroupRepeating // turn on repeating/looping.
	trans.StepGroups["stepGroup1"] = m
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*50)
	defer cancel()
	c = make(chan struct{}, 2) // remade since the old channel is closed.
	quit := make(chan struct{}, 1)
	launcherFn = getDummyStepGroupLauncherFn(c)
	go LaunchTransform(log, trans, guid, launcherFn, s, cleanupHandlerFn, panicHandlerFn)
	go func() { // count launches until we've seen a repeat.
		got := 0
		for range c {
			got++
			if got >= 2 { // if the step group ran more than once...
				quit <- struct{}{}
				break
			}
		}
	}()
	select {
	case <-quit:
		log.Info("LaunchTransform executed the repeating step group OK.")
	case <-ctx.Done():
		t.Fatal("Timeout while waiting for test/dummy transform to repeat itself.")
	}
}

func TestLaunchTransformWithControlChannels(t *testing.T) {
	log := logger.NewLogger("test", "info", true)
	trans := newDummyTransform()
	s := stats.NewMockStatsManager()
	chanStatus := make(chan TransformStatus, 2)
	chanShutdown := make(chan error, 1)
	tc := NewTransformCloser(chanStatus, chanShutdown)
	guid := xid.New().String()
	cleanupHandlerFn := GetCleanupHandlerWithChannelsFunc(log, guid, tc)
	panicHandlerFn := func() {}
	chanTest := make(chan string, 1)
	launcherFn := func(log logger.Logger,
		transformDefn *TransformDefinition,
		transformGuid string,
		stepGroupLaunchFn stepGroupLaunchFunc,
		stats StatsManager,
		cleanupHandlerFn CleanupHandlerFunc,
		panicHandlerFn components.PanicHandlerFunc,
	) {
		chanTest <- "test"
	}
	LaunchTransformWithControlChannels(log, trans, guid, s, tc, cleanupHandlerFn, panicHandlerFn, launcherFn)

	// StatusRunning should arrive first on chanStatus.
	var resp TransformStatus
	select {
	case resp = <-chanStatus:
	case <-time.After(3 * time.Second):
	}
	if resp.Status != StatusRunning {
		t.Fatalf("expected status running (%v) on chanStatus, but got %v", StatusRunning, resp.Status)
	}

	// The injected launcherFn should have run.
	var x string
	select {
	case x = <-chanTest:
	case <-time.After(3 * time.Second):
	}
	if x != "test" {
		t.Fatalf("expected launcherFn to be called, but we timed out")
	}

	// chanStatus should carry StatusComplete and then close.
	closed := false
drain:
	for {
		select {
		case resp, ok := <-chanStatus:
			if !ok { // if the channel was closed...
				closed = true
				break drain
			}
			if resp.Status != StatusComplete {
				t.Fatalf("expected status complete (%v) on chanStatus, but got %v", StatusComplete, resp.Status)
			}
		case <-time.After(3 * time.Second):
			break drain
		}
	}
	if !closed {
		t.Fatal("expected chanStatus to be closed but we timed out instead.")
	}

	// chanShutdown should be closed too.
	select {
	case <-time.After(3 * time.Second):
	case _, ok := <-chanShutdown:
		if ok {
			t.Fatal("expected chanShutdown to be closed but it was not")
		}
	}
}
