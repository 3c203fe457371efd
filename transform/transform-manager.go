package transform

import (
	"fmt"
	"sync"

	"github.com/martpipe/martpipe/logger"
	"github.com/martpipe/martpipe/rdbms"
	"github.com/martpipe/martpipe/rdbms/shared"
	"github.com/martpipe/martpipe/stream"
)

// Transform is the top-level manager for one TransformDefinition. It hands
// out StepGroupManagers for each step group, caches database connectors by
// name, and routes output channels between steps across group boundaries.
type Transform struct {
	log             logger.Logger
	transGuid       string
	trans           *TransformDefinition
	mapDBConnectors map[string]shared.Connector
	mdiTargets      map[string]string // step group names targeted by metadata injection, keyed to the originating step.
	mapConsumers    consumers         // requested step name first, requesting step names second.
	mapStepGroups   stepGroups        // child step group managers spawned via newStepGroupManager().
}

// stepGroups wraps map[string]StepGroupManager with locking.
type stepGroups struct {
	sync.RWMutex
	internal map[string]StepGroupManager
}

func (t *stepGroups) Load(key string) (retval StepGroupManager, ok bool) {
	t.RLock()
	retval = t.internal[key]
	t.RUnlock()
	return
}

func (t *stepGroups) Store(key string, value StepGroupManager) {
	t.Lock()
	t.internal[key] = value
	t.Unlock()
}

func (t *stepGroups) Delete(key string) {
	t.Lock()
	delete(t.internal, key)
	t.Unlock()
}

// NewTransformManager sets up the manager for a parsed transform. Metadata
// injection targets are registered up front, before any step group launches,
// so transformGroupIsMdiTarget works during the launch sequence.
func NewTransformManager(log logger.Logger, t *TransformDefinition, transformGuid string) *Transform {
	gt := &Transform{
		log:       log,
		trans:     t,
		transGuid: transformGuid,
		// TODO: make mapDBConnectors thread-safe, but, for now, DB connections are requested in series - tech debt!
		mapDBConnectors: make(map[string]shared.Connector),
		mapConsumers:    consumers{internal: make(map[string]consumer)},
		mapStepGroups:   stepGroups{internal: make(map[string]StepGroupManager)},
		mdiTargets:      make(map[string]string),
	}
	for _, tg := range gt.trans.StepGroups { // for each step group...
		for stepName, step := range tg.Steps { // for each step in the group...
			if step.Type == "MetadataInjection" { // if the step drives another group via metadata injection...
				gt.mdiTargets[step.Data["executeTransformName"]] = stepName
			}
		}
	}
	return gt
}

func (tm *Transform) getTransformGuid() string {
	return tm.transGuid
}

// newStepGroupManager creates and registers a child StepGroupManager.
// Storing a new manager under an existing key makes the old one obsolete.
func (tm *Transform) newStepGroupManager(stepGroupName string) StepGroupManager {
	sg := NewStepGroupManager(tm.log, tm, stepGroupName)
	tm.mapStepGroups.Store(stepGroupName, sg)
	return sg
}

func (tm *Transform) deleteStepGroupManager(stepGroupName string) {
	tm.mapStepGroups.Delete(stepGroupName)
}

func (tm *Transform) getDBConnectionDetails(name string) shared.ConnectionDetails {
	return tm.trans.Connections[name]
}

// getDBConnector returns the named database connector, opening and caching it
// on first use.
func (tm *Transform) getDBConnector(name string) shared.Connector {
	db := tm.mapDBConnectors[name]
	if db == nil { // if the connection hasn't been opened before...
		var err error
		db, err = rdbms.OpenDbConnection(tm.log, tm.trans.Connections[name])
		if err != nil {
			tm.log.Panic(err)
		}
		tm.mapDBConnectors[name] = db
	}
	return db
}

func (tm *Transform) getTransformStepGroup(name string) StepGroup {
	return tm.trans.StepGroups[name]
}

// getStepCanonicalName formats "<group>.<step> (<type>)" for logging.
func (tm *Transform) getStepCanonicalName(transformGroupName string, stepName string) string {
	return fmt.Sprintf("%v.%v (%v)",
		transformGroupName,
		stepName,
		tm.trans.StepGroups[transformGroupName].Steps[stepName].Type,
	)
}

func (tm *Transform) addConsumer(sourceStepName string, c consumer) {
	tm.mapConsumers.Store(sourceStepName, c)
}

func (tm *Transform) stepHasConsumer(stepName string) bool {
	return tm.mapConsumers.Load(stepName) != nil
}

// sendOutputChanToRequesters delivers channel c to every step registered via
// requestChanInput as wanting the output of stepName.
func (tm *Transform) sendOutputChanToRequesters(stepName string, c chan stream.Record) {
	for k, v := range tm.mapConsumers.Load(stepName) { // for each registered consumer of stepName...
		tm.log.Debug("sendOutputChanToRequesters sending output channel of step ", stepName, " to step ", k)
		v.callbackChan <- c
		v.lastSentChan = c
	}
}

// transformGroupIsMdiTarget reports whether the named step group is driven by
// a MetadataInjection step. Only meaningful once all step groups have been
// registered, which NewTransformManager does on construction.
func (tm *Transform) transformGroupIsMdiTarget(transformGroupName string) bool {
	return tm.mdiTargets[transformGroupName] != ""
}

// waitForCompletion waits for the whole transform in three phases:
// first the step groups with no blocking steps, then blocking steps are told
// to close, then the groups that contained them.
func (tm *Transform) waitForCompletion() {
	var wg sync.WaitGroup
	blockers := make([]StepGroupManager, 0)
	waitForStepGroup := func(s StepGroupManager) {
		defer wg.Done()
		s.waitForCompletion()
	}
	tm.mapStepGroups.RLock()
	for _, t := range tm.mapStepGroups.internal { // for each child step group...
		if t.isBlockingGroup() { // if the group holds steps needing manual closure...
			blockers = append(blockers, t)
			continue
		}
		tm.log.Debug("Waiting for non-blocking transform step group ", t.getStepGroupName())
		wg.Add(1)
		go waitForStepGroup(t)
	}
	tm.mapStepGroups.RUnlock()
	wg.Wait() // the non-blockers are done; unblock the rest.
	for _, sg := range blockers {
		for _, s := range *sg.getBlockingStepNames() { // for each blocking step in the group...
			tm.log.Debug("sending shutdown request to step ", sg.getStepCanonicalName(s))
			sg.closeBlockingStep(s)
		}
	}
	for _, t := range blockers {
		tm.log.Debug("Waiting for blocking transform step group ", t.getStepGroupName())
		wg.Add(1)
		go waitForStepGroup(t)
	}
	wg.Wait()
}

func (tm *Transform) shutdown() {
	tm.mapStepGroups.Lock() // stop anyone else adding new step groups.
	for _, sg := range tm.mapStepGroups.internal {
		sg.shutdown()
	}
	tm.mapStepGroups.Unlock()
}
