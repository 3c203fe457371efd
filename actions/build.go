package actions

import (
	"fmt"
	"strconv"

	"github.com/pkg/errors"

	"github.com/martpipe/martpipe/constants"
	"github.com/martpipe/martpipe/helper"
	"github.com/martpipe/martpipe/logger"
	"github.com/martpipe/martpipe/models"
	"github.com/martpipe/martpipe/transform"
)

type BuildRunConfig struct {
	PackName                  string `errorTxt:"model pack name or file" mandatory:"yes"`
	TargetConnection          string `errorTxt:"target <connection>" mandatory:"yes"`
	Connections               ConnectionHandler
	ChecksOnly                bool
	CommitBatchSize           string
	ExportConfigType          string
	ExportIncludeConnections  bool
	LogLevel                  string `errorTxt:"log level" mandatory:"yes"`
	StackDumpOnPanic          bool
	StatsDumpFrequencySeconds int
}

// RunBuild compiles a model pack against a target warehouse connection and
// launches the resulting transform, or exports it when an output format is set.
// Model packs are looked up by builtin name first and treated as a YAML file
// name when no builtin matches.
func RunBuild(cfg *BuildRunConfig) error {
	// Setup logging.
	if cfg.ExportConfigType != "" { // if the user wants the transform on STDOUT...
		cfg.LogLevel = "error"
	}
	log := logger.NewLogger("martpipe", cfg.LogLevel, cfg.StackDumpOnPanic)
	// Validate switches.
	if err := helper.ValidateStructIsPopulated(cfg); err != nil {
		return err
	}
	// Fetch the pack and the real target connection details.
	pack, err := models.GetPack(cfg.PackName)
	if err != nil {
		return err
	}
	tgtConnDetails, err := cfg.Connections.GetConnectionDetails(cfg.TargetConnection)
	if err != nil {
		return err
	}
	batchSize := constants.TableInsertBatchSizeDefault
	if cfg.CommitBatchSize != "" {
		batchSize, err = strconv.Atoi(cfg.CommitBatchSize)
		if err != nil {
			return errors.Wrap(err, "unable to convert commit batch size to an integer")
		}
	}
	// Compile the pack into a transform.
	t, err := models.Compile(&models.BuildConfig{
		Pack:             pack,
		TargetConnection: *tgtConnDetails,
		ChecksOnly:       cfg.ChecksOnly,
		BatchSize:        batchSize,
	})
	if err != nil {
		return errors.Wrap(err, fmt.Sprintf("unable to compile model pack %q", cfg.PackName))
	}
	// Execute or export the transform.
	if cfg.ExportConfigType == "" { // if we should execute the transform...
		ti := transform.NewSafeMapTransformInfo()
		_, err := transform.LaunchTransformDefinition(log, ti, t, true, cfg.StatsDumpFrequencySeconds)
		if err != nil {
			return errors.Wrap(err, fmt.Sprintf("unable to launch the build of model pack %q", cfg.PackName))
		}
	} else { // else we should write the transform to STDOUT...
		return outputTransformDefinition(log, t, cfg.ExportConfigType, cfg.ExportIncludeConnections)
	}
	return nil
}
