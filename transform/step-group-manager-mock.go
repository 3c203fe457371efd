package transform

import (
	"github.com/martpipe/martpipe/components"
	"github.com/martpipe/martpipe/stream"
)

// MockStepGroupManager records which of its methods were called by sending
// their names on responseChan.
type MockStepGroupManager struct {
	responseChan chan string
}

func newMockStepGroupManager(responseChan chan string) *MockStepGroupManager {
	return &MockStepGroupManager{responseChan: responseChan}
}

// nopComponentWaiter satisfies components.ComponentWaiter for steps launched by the mock manager.
type nopComponentWaiter struct{}

func (cw *nopComponentWaiter) Add() {}

func (cw *nopComponentWaiter) Done() {}

func (s *MockStepGroupManager) getGlobalTransformManager() TransformManager {
	return &MockTransformManager{}
}

func (s *MockStepGroupManager) getStepGroupName() string {
	return "stepGroupName"
}

func (s *MockStepGroupManager) getStepCanonicalName(stepName string) string {
	return stepName
}

func (s *MockStepGroupManager) getComponentWaiter(stepName string) components.ComponentWaiter {
	return &nopComponentWaiter{}
}

func (s *MockStepGroupManager) getStepOutputChan(name string) chan stream.Record {
	return make(chan stream.Record)
}

func (s *MockStepGroupManager) setStepOutputChan(stepName string, c chan stream.Record) {}

func (s *MockStepGroupManager) setStepControlChan(stepName string, c chan components.ControlAction) {}

func (s *MockStepGroupManager) consumeStep(stepName string) {}

func (s *MockStepGroupManager) requestChanInput(requestingStepName string, requestOutputFromStepName string, cb chan chan stream.Record) {
}

func (s *MockStepGroupManager) addBlockingStep(name string, cb chan chan stream.Record) {}

func (s *MockStepGroupManager) getBlockingStepNames() *[]string {
	return &[]string{}
}

func (s *MockStepGroupManager) isBlockingGroup() bool {
	return true
}

func (s *MockStepGroupManager) closeBlockingStep(name string) {}

func (s *MockStepGroupManager) consumeUnusedOutputs() {
	s.responseChan <- "consumeUnusedOutputs"
}

func (s *MockStepGroupManager) waitForCompletion() {}

func (s *MockStepGroupManager) shutdown() {}
