package transform

import (
	"github.com/martpipe/martpipe/logger"
	"github.com/martpipe/martpipe/rdbms/shared"
	"github.com/martpipe/martpipe/stream"
)

// MockTransformManager satisfies TransformManager for component launch tests
// without touching real databases or step groups.
type MockTransformManager struct {
	log logger.Logger
	db  shared.Connector
	c   chan string
}

func (tm *MockTransformManager) getTransformGuid() string {
	return "mockTransformGuid-123456789"
}

func (tm *MockTransformManager) newStepGroupManager(transformGroupName string) StepGroupManager {
	return &MockStepGroupManager{}
}

func (tm *MockTransformManager) deleteStepGroupManager(stepGroupName string) {}

func (tm *MockTransformManager) getDBConnectionDetails(name string) shared.ConnectionDetails {
	return shared.ConnectionDetails{}
}

func (tm *MockTransformManager) getDBConnector(name string) shared.Connector {
	tm.db, tm.c = shared.NewMockConnectionWithMockTx(tm.log, "mockDbType")
	return tm.db
}

func (tm *MockTransformManager) getTransformStepGroup(name string) StepGroup {
	return StepGroup{}
}

func (tm *MockTransformManager) getStepCanonicalName(transformGroupName string, stepName string) string {
	return "canonical step name"
}

func (tm *MockTransformManager) addConsumer(sourceStepName string, c consumer) {}

func (tm *MockTransformManager) stepHasConsumer(stepName string) bool {
	return stepName != ""
}

func (tm *MockTransformManager) sendOutputChanToRequesters(fromStepName string, c chan stream.Record) {
}

func (tm *MockTransformManager) transformGroupIsMdiTarget(transformGroupName string) bool {
	return transformGroupName != ""
}

func (tm *MockTransformManager) shutdown() {}
