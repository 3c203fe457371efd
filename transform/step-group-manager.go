package transform

import (
	"time"

	"github.com/martpipe/martpipe/components"
	"github.com/martpipe/martpipe/logger"
	"github.com/martpipe/martpipe/stream"
)

const stepShutdownTimeoutSec = 3

// stepGroup tracks the steps launched for one transform group: their output
// and control channels, who consumes whom, and which steps block forever and
// need closing by hand. It satisfies the StepGroupManager interface.
type stepGroup struct {
	log            logger.Logger
	parent         TransformManager
	groupName      string
	outputChans    map[string]chan stream.Record            // per-step output channels.
	controlChans   map[string]chan components.ControlAction // per-step control channels.
	autoChans      map[string]chan components.ControlAction // control channels of auto-created consumers, see consumeUnusedOutputs().
	consumerCounts map[string]int                           // per-step count of local consumers.
	blockingSteps  []string                                 // steps that never close of their own accord.
	blockingInputs map[string]chan chan stream.Record       // input channels used to close blocking steps manually.
	waiter         groupWaiter                              // status-aware wait group for this group's steps.
}

// NewStepGroupManager constructs the stepGroup for one transform group under
// the given parent manager.
// TODO: return the concrete type instead!
func NewStepGroupManager(log logger.Logger, g TransformManager, transformGroupName string) *stepGroup {
	return &stepGroup{
		log:            log,
		parent:         g,
		groupName:      transformGroupName,
		outputChans:    make(map[string]chan stream.Record),
		controlChans:   make(map[string]chan components.ControlAction),
		autoChans:      make(map[string]chan components.ControlAction),
		consumerCounts: make(map[string]int),
		blockingSteps:  make([]string, 0),
		blockingInputs: make(map[string]chan chan stream.Record),
		waiter:         groupWaiter{statuses: make(map[string]StepStatus)},
	}
}

// requestChanInput registers that requestingStepName wants the output channel
// of requestOutputFromStepName delivered on cb. If that output channel exists
// already it is sent immediately; either way the registration is stored so
// sendOutputChanToRequesters can deliver it when the producer launches.
func (sg *stepGroup) requestChanInput(requestingStepName string, requestOutputFromStepName string, cb chan chan stream.Record) {
	cu := make(consumer)
	cu[requestingStepName] = &consumerData{callbackChan: cb}
	if out := sg.outputChans[requestOutputFromStepName]; out != nil { // if the producer has already been created...
		sg.log.Debug("requestChanInput() sending output channel for step ", requestOutputFromStepName, " to step ", requestingStepName)
		cb <- out
		cu[requestingStepName].lastSentChan = out
	}
	sg.parent.addConsumer(requestOutputFromStepName, cu)
}

// getStepOutputChan returns the output channel of the named step, or logs a
// fatal error when the step has not registered one yet.
func (sg *stepGroup) getStepOutputChan(name string) chan stream.Record {
	retval, ok := sg.outputChans[name]
	if !ok {
		sg.log.Fatal("error using output channel of step \"", name, "\", please check the step sequence")
	}
	return retval
}

// setStepOutputChan records the freshly created output channel of a step and
// forwards it to any steps waiting on it.
func (sg *stepGroup) setStepOutputChan(stepName string, c chan stream.Record) {
	sg.consumerCounts[stepName] = 0 // a new output channel starts with no consumers.
	sg.outputChans[stepName] = c
	sg.parent.sendOutputChanToRequesters(stepName, c)
}

func (sg *stepGroup) setStepControlChan(stepName string, c chan components.ControlAction) {
	sg.controlChans[stepName] = c
}

// consumeStep bumps the consumer count so consumeUnusedOutputs knows this
// step's output is spoken for.
func (sg *stepGroup) consumeStep(stepName string) {
	sg.consumerCounts[stepName]++
}

func (sg *stepGroup) getGlobalTransformManager() TransformManager {
	return sg.parent
}

func (sg *stepGroup) getStepCanonicalName(stepName string) string {
	return sg.parent.getStepCanonicalName(sg.groupName, stepName)
}

func (sg *stepGroup) getComponentWaiter(stepName string) components.ComponentWaiter {
	return sg.waiter.newStepComponentWaiter(stepName)
}

func (sg *stepGroup) getStepGroupName() string {
	return sg.groupName
}

// addBlockingStep saves the name of a step like a ChannelBridge that will not
// close of its own accord, plus the channel used to close it manually. These
// are acted on from waitForCompletion() at the transform level.
func (sg *stepGroup) addBlockingStep(name string, cb chan chan stream.Record) {
	sg.blockingSteps = append(sg.blockingSteps, name)
	sg.blockingInputs[name] = cb
}

func (sg *stepGroup) getBlockingStepNames() *[]string {
	return &sg.blockingSteps // TODO: or should we return the actual map blockingInputs instead, or build a slice dynamically?
}

func (sg *stepGroup) isBlockingGroup() bool {
	return len(sg.blockingSteps) > 0
}

func (sg *stepGroup) closeBlockingStep(name string) {
	close(sg.blockingInputs[name])
}

// consumeUnusedOutputs launches a discarding goroutine for every step output
// that has no local or global consumer, so producers never block.
// Transform step groups must launch in the correct order before this is
// called: a ChannelBridge requests its input at launch, and launching it late
// would leave us racing it with an unnecessary auto-consumer.
func (sg *stepGroup) consumeUnusedOutputs() {
	discardFn := func(stepNameToConsume string, c chan stream.Record, controlChan chan components.ControlAction, waiter components.ComponentWaiter) {
		sg.log.Debug("Discarding unused output of step ", stepNameToConsume, " until completion")
		defer waiter.Done()
		for {
			select {
			case _, ok := <-c:
				if !ok { // if there were no more rows...
					sg.log.Debug("Auto consumer of unused output for step ", stepNameToConsume, " completed")
					return
				}
			case controlAction := <-controlChan:
				controlAction.ResponseChan <- nil // respond that we're done with a nil error.
				sg.log.Debug("Auto consumer of unused output for step ", stepNameToConsume, " was shutdown")
				return
			}
		}
	}
	for stepName, numConsumers := range sg.consumerCounts {
		if numConsumers >= 1 || sg.parent.stepHasConsumer(stepName) { // if someone is already reading this output...
			sg.log.Debug(sg.getStepCanonicalName(stepName), " should already have a consumer.")
			continue
		}
		stepNameToConsume := sg.getStepCanonicalName(stepName)
		stepNameAuto := stepNameToConsume + " consumer"
		// Track the auto-consumer like any other step so shutdown() can see
		// its status, and join the group waiter so final outputs drain fully.
		stepWaiter := sg.waiter.newStepComponentWaiter(stepNameAuto)
		stepWaiter.Add()
		controlChan := make(chan components.ControlAction, 1)
		sg.autoChans[stepNameAuto] = controlChan
		go discardFn(stepNameToConsume, sg.outputChans[stepName], controlChan, stepWaiter)
	}
}

// waitForCompletion blocks until every step in this group reports done, then
// deregisters the group from the parent manager.
// TODO: we need to figure out what if any scenarios can exist where multiple repeating steps exist and they pop up and disappear concurrently - how would they sync their input/output steps if indeed they were connected?!
func (sg *stepGroup) waitForCompletion() {
	sg.log.Info("Waiting for transform step group ", sg.groupName, " to complete...")
	sg.waiter.Wait()
	sg.log.Info("Transform step group ", sg.groupName, " complete")
	sg.parent.deleteStepGroupManager(sg.groupName)
}

// shutdownChannelsInMap sends a Shutdown action to every step in m that has
// not already completed and waits briefly for each acknowledgement.
func (sg *stepGroup) shutdownChannelsInMap(m map[string]chan components.ControlAction) {
	for k, c := range m { // for each step that has registered its control channel...
		s, ok := sg.waiter.LoadStatus(k)
		if !ok {
			sg.log.Panic("Unable to load status of step ", k, ". Ensure all launcher functions for components use the same name to get/set their ComponentWaiter and control channel.")
		}
		if s == StepStatusDone {
			sg.log.Debug("Shutdown skipped for complete step ", sg.getStepCanonicalName(k))
			continue
		}
		sg.log.Debug("Shutting down ", sg.getStepCanonicalName(k))
		a := components.ControlAction{Action: components.Shutdown, ResponseChan: make(chan error, 1)}
		c <- a // the control channel is buffered so this won't block.
		select {
		case <-a.ResponseChan: // discard the shutdown error for now.
		case <-time.After(time.Duration(stepShutdownTimeoutSec) * time.Second):
			sg.log.Panic("component ", k, " failed to shutdown in a timely manner")
			// TODO: track component status running/ended so a busy component isn't fatal here.
		}
	}
}

func (sg *stepGroup) shutdown() {
	sg.shutdownChannelsInMap(sg.controlChans) // shutdown all steps.
	sg.shutdownChannelsInMap(sg.autoChans)    // shutdown all auto-created consumers of unused outputs.
}
