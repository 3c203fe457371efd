package transform

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/martpipe/martpipe/components"
	"github.com/martpipe/martpipe/helper"
	"github.com/martpipe/martpipe/logger"
	"github.com/martpipe/martpipe/stats"
	"github.com/rs/xid"
	"golang.org/x/net/context"
)

// getComponentFuncsWithMetadataInjection returns the registered component
// functions plus an entry for MetadataInjection added dynamically, which
// avoids a circular reference between this package and the registry.
func getComponentFuncsWithMetadataInjection() MapComponentFuncs {
	f := componentFuncs
	f["MetadataInjection"] = ComponentRegistration{"2", ComponentRegistrationType2{NewMetadataInjection, startMetaDataInjection}}
	return f
}

// LaunchTransformJson unmarshals transformJson and launches it.
func LaunchTransformJson(log logger.Logger, ti *SafeMapTransformInfo, transformJson string, blockUntilComplete bool, statsDumpFrequencySeconds int,
) (guid string, err error) {
	t := &TransformDefinition{}
	if err = json.Unmarshal([]byte(transformJson), t); err != nil {
		return
	}
	return LaunchTransformDefinition(log, ti, t, blockUntilComplete, statsDumpFrequencySeconds)
}

// LaunchTransformDefinition validates the supplied TransformDefinition and
// launches it, storing runtime info against a new GUID in ti and returning
// that GUID. When blockUntilComplete is false the transform runs in a
// goroutine and this returns immediately.
func LaunchTransformDefinition(log logger.Logger, ti *SafeMapTransformInfo, t *TransformDefinition, blockUntilComplete bool, statsDumpFrequencySeconds int) (guid string, err error) {
	if err = helper.ValidateStructIsPopulated(t); err != nil { // if mandatory fields are missing...
		return
	}
	s := stats.NewTransformStats(log, stats.SetStatsDumpFrequency(statsDumpFrequencySeconds))
	chanStatus := make(chan TransformStatus, 1) // status messages back from the transform.
	chanShutdown := make(chan error, 1)         // used to stop the transform.
	tc := NewTransformCloser(chanStatus, chanShutdown)
	guid = xid.New().String()
	ti.Store(guid, TransformInfo{
		ChanStop:  chanShutdown,
		Stats:     s,
		Transform: *t,
		Status:    TransformStatus{Status: StatusStarting, StartTime: time.Now()},
	})
	go ti.ConsumeTransformStatusChanges(guid, chanStatus) // apply status updates to our TransformInfo entry.
	log.Info("Launching transform ", guid)
	// The cleanup handler is what causes exit(1) if there's a signal on chanShutdown!
	cleanupHandler := GetCleanupHandlerWithChannelsFunc(log, guid, tc)
	panicHandler := GetPanicHandlerWithChannelsFunc(tc)
	if blockUntilComplete {
		LaunchTransformWithControlChannels(log, t, guid, s, tc, cleanupHandler, panicHandler, LaunchTransform)
	} else {
		go LaunchTransformWithControlChannels(log, t, guid, s, tc, cleanupHandler, panicHandler, LaunchTransform)
	}
	return
}

// LaunchTransformWithControlChannels runs a transform that reports running
// and complete statuses through the closer's channels and can be stopped via
// the closer's shutdown channel.
func LaunchTransformWithControlChannels(log logger.Logger,
	transformDefn *TransformDefinition,
	transformGuid string,
	s StatsManager,
	tc *TransformCloser,
	cleanupHandlerFn CleanupHandlerFunc,
	panicHandlerFn components.PanicHandlerFunc,
	launcherFn LaunchTransformFunc,
) {
	defer panicHandlerFn()
	tc.chanStatus <- TransformStatus{Status: StatusRunning}
	// TODO: fix the way transform failures propagate back up the stack to be output by the caller!
	launcherFn(log, transformDefn, transformGuid, StartStepGroup, s, cleanupHandlerFn, panicHandlerFn) // blocks until the step goroutines complete.
	tc.CloseChannels(&TransformStatus{Status: StatusComplete})
}

// LaunchTransform starts all step groups found in the TransformDefinition,
// once or repeatedly per the transform type, and blocks until they complete.
func LaunchTransform(log logger.Logger,
	transformDefn *TransformDefinition,
	transformGuid string,
	stepGroupLaunchFn stepGroupLaunchFunc,
	stats StatsManager,
	cleanupHandlerFn CleanupHandlerFunc,
	panicHandlerFn components.PanicHandlerFunc,
) {
	defer panicHandlerFn()
	tm := NewTransformManager(log, transformDefn, transformGuid)
	var wg sync.WaitGroup
	ctx, cancelFunc := context.WithCancel(context.Background())
	go cleanupHandlerFn(log, tm, stats, cancelFunc) // listen for quit signals.
	runTransform := func() {
		stats.StartDumping()
		// Background groups first so channel bridges exist before senders,
		// then repeating, then the sequential groups which block in turn.
		startStepGroupsOfType(ctx, log, StepGroupBackground, transformDefn, tm, &wg, stepGroupLaunchFn, stats, panicHandlerFn)
		startStepGroupsOfType(ctx, log, StepGroupRepeating, transformDefn, tm, &wg, stepGroupLaunchFn, stats, panicHandlerFn)
		startStepGroupsOfType(ctx, log, StepGroupSequential, transformDefn, tm, &wg, stepGroupLaunchFn, stats, panicHandlerFn)
		wg.Wait()              // repeating groups only return when cancelled.
		tm.waitForCompletion() // waits for non-blocking groups first, then closes blocking steps.
		stats.StopDumping()
	}
	if transformDefn.Type != TransformRepeating { // if this is a run-once transform...
		runTransform()
		return
	}
	for idx := 1; ; idx++ { // loop until cancelled...
		log.Info("Repeat launching transform ", transformGuid)
		lastStartTime := time.Now()
		runTransform()
		log.Info("Repeating transform ", transformGuid, " completed ", idx, " iteration(s)")
		select {
		case <-ctx.Done():
			return
		case <-time.After(getSleepDuration(log, lastStartTime, transformDefn.RepeatMeta.SleepSeconds)): // pause until the next interval.
		}
	}
}

// startStepGroupsOfType launches the step groups in the transform sequence
// whose type matches stepGroupType. Metadata injection targets are skipped
// here since their originating step launches them dynamically.
func startStepGroupsOfType(
	ctx context.Context,
	log logger.Logger,
	stepGroupType string,
	transformDefn *TransformDefinition,
	tm *Transform,
	wg *sync.WaitGroup,
	stepGroupLaunchFn stepGroupLaunchFunc,
	stats StatsManager,
	panicHandlerFn components.PanicHandlerFunc,
) {
	for _, stepGroupName := range transformDefn.Sequence { // for each step group in the sequence...
		if tm.transformGroupIsMdiTarget(stepGroupName) { // if the group is driven by metadata injection...
			log.Info("Launching of transform step group ", stepGroupName, " skipped as it's the target of metadata injection")
			continue
		}
		sg := transformDefn.StepGroups[stepGroupName] // copy the step group.
		if sg.Type != StepGroupSequential &&
			sg.Type != StepGroupBackground &&
			sg.Type != StepGroupRepeating {
			log.Panic(fmt.Sprintf("unsupported transform step group type %q in step group %q", sg.Type, stepGroupName))
		}
		if sg.Type != stepGroupType { // if the group isn't due in this phase...
			continue
		}
		switch sg.Type {
		case StepGroupRepeating:
			// Re-run the step group on an interval until the context ends.
			wg.Add(1)
			go func(stepGroupName string, sg StepGroup) {
				defer wg.Done()
				for idx := 1; ; idx++ {
					log.Info("Repeat launching transform step group ", stepGroupName)
					repeatSgMgr := tm.newStepGroupManager(stepGroupName)
					lastStartTime := time.Now()
					stepGroupLaunchFn(log, &sg, repeatSgMgr, stats, getComponentFuncsWithMetadataInjection(), panicHandlerFn)
					repeatSgMgr.waitForCompletion()
					log.Info("Repeating step group ", stepGroupName, " completed ", idx, " iteration(s)")
					select {
					case <-time.After(getSleepDuration(log, lastStartTime, sg.RepeatMeta.SleepSeconds)): // pause until the next interval.
					case <-ctx.Done():
						return
					}
				}
			}(stepGroupName, sg)
		case StepGroupSequential:
			log.Info("Launching transform step group ", stepGroupName)
			sgMgr := tm.newStepGroupManager(stepGroupName)
			stepGroupLaunchFn(log, &sg, sgMgr, stats, getComponentFuncsWithMetadataInjection(), panicHandlerFn)
			sgMgr.waitForCompletion() // block until this sequential group succeeds.
		case StepGroupBackground:
			// Channel bridges must launch before other steps send to them.
			log.Info("Launching transform step group ", stepGroupName, " in the background")
			sgMgr := tm.newStepGroupManager(stepGroupName)
			go stepGroupLaunchFn(log, &sg, sgMgr, stats, getComponentFuncsWithMetadataInjection(), panicHandlerFn)
		}
	}
}

// getSleepDuration returns how long to sleep so iterations start sleepSeconds
// apart, measured from lastStartTime. Overdue intervals return zero.
func getSleepDuration(log logger.Logger, lastStartTime time.Time, sleepSeconds int) time.Duration {
	curTime := time.Now()
	nextStartTime := lastStartTime.Add(time.Second * time.Duration(sleepSeconds))
	if curTime.After(nextStartTime) { // if we are overdue...
		diff := curTime.Sub(nextStartTime).Truncate(time.Second)
		log.Info("Sleep interval set to ", sleepSeconds, " seconds. Next interval overdue by ", diff)
		return 0
	}
	timeout := nextStartTime.Sub(curTime).Truncate(time.Second)
	log.Info("Sleep interval set to ", sleepSeconds, " seconds. ", timeout, " seconds remaining.")
	return timeout
}

// StartStepGroup launches every step in sg in its configured sequence by
// looking up the registered launcher for each step's type, then sets up
// consumers for any outputs nothing reads.
// TODO: figure out if DB connections are thread safe or whether each component needs to open its own connection.
func StartStepGroup(
	log logger.Logger,
	sg *StepGroup,
	sgm StepGroupManager,
	stats StatsManager,
	funcs MapComponentFuncs,
	panicHandlerFn components.PanicHandlerFunc) {
	for _, stepName := range sg.Sequence { // for each step name in the configured sequence...
		stepType := sg.Steps[stepName].Type // must match a registered component name.
		if stepType == "" {
			log.Panic(fmt.Sprintf("Undefined or missing step %q. Check the step sequence contains valid step names.", stepName))
		}
		stepCanonicalName := sgm.getStepCanonicalName(stepName)
		componentMetadata, ok := funcs[stepType]
		if !ok { // if no component is registered under this step type...
			log.Panic(fmt.Sprintf("Unsupported transformation component %q used by step %q", stepType, stepName))
		}
		log.Info("Executing step ", stepCanonicalName)
		switch componentMetadata.funcType {
		case "1":
			fd := componentMetadata.funcData.(ComponentRegistrationType1)
			fd.launcherFunc(log, stepName, stepCanonicalName, sg, sgm, stats, panicHandlerFn, fd.workerFunc)
		case "2":
			fd := componentMetadata.funcData.(ComponentRegistrationType2)
			fd.launcherFunc(log, stepName, stepCanonicalName, sg, sgm, stats, panicHandlerFn, fd.workerFunc)
		case "3":
			fd := componentMetadata.funcData.(ComponentRegistrationType3)
			fd.launcherFunc(log, stepName, stepCanonicalName, sg, sgm, stats, panicHandlerFn, fd.workerFunc)
		default:
			log.Panic(fmt.Sprintf("Unsupported transformation component function type %q", sg.Steps[stepName].Type))
		}
	}
	sgm.consumeUnusedOutputs()
}
