package transform

import (
	"context"

	"github.com/martpipe/martpipe/components"
	"github.com/martpipe/martpipe/logger"
	"github.com/martpipe/martpipe/rdbms/shared"
	"github.com/martpipe/martpipe/stream"
)

const (
	TransformOnce       = "once"
	TransformRepeating  = "repeating"
	StepGroupSequential = "sequential"
	StepGroupRepeating  = "repeating"
	StepGroupBackground = "background"
)

// TransformDefinition is the top level pipe document: named step groups plus
// the sequence they run in and the connections they use.
type TransformDefinition struct {
	SchemaVersion int                  `json:"schemaVersion" errorTxt:"schema version" mandatory:"no"`
	Description   string               `json:"description" errorTxt:"description" mandatory:"no"`
	Connections   shared.DBConnections `json:"connections" errorTxt:"database connection" mandatory:"yes"`
	Type          string               `json:"type" errorTxt:"transform type (once|repeating)" mandatory:"yes"` // TransformOnce or TransformRepeating.
	RepeatMeta    RepeatMetadata       `json:"repeatMetadata"`                                                  // sleep interval between repeats.
	StepGroups    map[string]StepGroup `json:"transformGroups" errorTxt:"step groups" mandatory:"yes"`
	Sequence      []string             `json:"sequence" errorTxt:"sequence" mandatory:"yes"`
}

type StepGroup struct {
	Type       string          `json:"type" errorTxt:"step group type (sequential|repeating|background)" mandatory:"yes"` // StepGroupSequential, StepGroupRepeating or StepGroupBackground.
	RepeatMeta RepeatMetadata  `json:"repeatMetadata"`                                                                    // sleep interval between repeats.
	Steps      map[string]Step `json:"steps" errorTxt:"step group steps" mandatory:"yes"`
	Sequence   []string        `json:"sequence" errorTxt:"step group sequence" mandatory:"yes"`
}

type Step struct {
	Type           string                     `json:"type" errorTxt:"step type" mandatory:"yes"`
	Data           map[string]string          `json:"data" errorTxt:"step data" mandatory:"yes"`
	ComponentSteps []components.ComponentStep `json:"steps" errorTxt:"extra steps" mandatory:"no"`
}

type RepeatMetadata struct {
	SleepSeconds int `json:"sleepSeconds"`
}

type stepGroupLaunchFunc func(
	log logger.Logger,
	sg *StepGroup,
	sgm StepGroupManager,
	stats StatsManager,
	funcs MapComponentFuncs,
	panicHandlerFn components.PanicHandlerFunc)

type CleanupHandlerFunc = func(log logger.Logger, g TransformManager, s StatsManager, cancelFunc context.CancelFunc)

type LaunchTransformFunc = func(log logger.Logger,
	transformDefn *TransformDefinition,
	transformGuid string,
	stepGroupLaunchFn stepGroupLaunchFunc,
	stats StatsManager,
	cleanupHandlerFn CleanupHandlerFunc,
	panicHandlerFn components.PanicHandlerFunc,
)

// MapComponentFuncs registers component worker and launcher funcs by step
// type name. Three registration shapes exist to cover the component
// signatures in use.
type MapComponentFuncs map[string]ComponentRegistration

type ComponentRegistration struct {
	funcType string
	funcData interface{}
}

// ComponentRegistrationType1 covers components with an output channel only.
type ComponentRegistrationType1 struct {
	workerFunc   func(cfg interface{}) (outputChan chan stream.Record)
	launcherFunc func(
		log logger.Logger,
		stepName string,
		stepCanonicalName string,
		sg *StepGroup,
		sgm StepGroupManager,
		stats StatsManager,
		panicHandlerFn components.PanicHandlerFunc,
		componentFunc func(cfg interface{}) (outputChan chan stream.Record))
}

// ComponentRegistrationType2 covers components with output and control
// channels, which is the common shape.
type ComponentRegistrationType2 struct {
	workerFunc   func(cfg interface{}) (outputChan chan stream.Record, controlChan chan components.ControlAction)
	launcherFunc func(
		log logger.Logger,
		stepName string,
		stepCanonicalName string,
		sg *StepGroup,
		sgm StepGroupManager,
		stats StatsManager,
		panicHandlerFn components.PanicHandlerFunc,
		componentFunc func(cfg interface{}) (outputChan chan stream.Record, controlChan chan components.ControlAction))
}

// ComponentRegistrationType3 covers components fed a channel of channels,
// such as the channel combiner.
type ComponentRegistrationType3 struct {
	workerFunc   func(cfg interface{}) (inputChan chan chan stream.Record, outputChan chan stream.Record)
	launcherFunc func(
		log logger.Logger,
		stepName string,
		stepCanonicalName string,
		sg *StepGroup,
		sgm StepGroupManager,
		stats StatsManager,
		panicHandlerFn components.PanicHandlerFunc,
		componentFunc func(cfg interface{}) (inputChan chan chan stream.Record, outputChan chan stream.Record))
}
