package cmd

import (
	"fmt"

	"github.com/martpipe/martpipe/actions"
	"github.com/martpipe/martpipe/constants"
	"github.com/spf13/cobra"
)

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: `Load snapshots, appends or metadata from source objects into the raw layer`,
	Long: `Load data from source-connection.schema.object to target-connection.schema.object:

- Extract a full snapshot into a truncated raw table
- Append new extracts while preserving rows already loaded
- Fetch and execute DDL required to make the target object look like the source object
- Automatically determine the fastest path based on connection types
- Optionally refresh data without a scheduler, loop with a timer
`,
}

func init() {
	rootCmd.AddCommand(loadCmd)
	initLoadSnapshot()
	initLoadAppend()
	initLoadMeta()
}

func initLoadSnapshot() {
	loadCmd.AddCommand(loadSnapCmd)
	loadSnapCmd.Flags().SortFlags = false
	addFlagsLoadCoreRequired(loadSnapCmd, &loadSnapCfg)
	addFlagsLoadCoreOther(loadSnapCmd, &loadSnapCfg)
}

func initLoadAppend() {
	loadCmd.AddCommand(loadAppendCmd)
	loadAppendCmd.Flags().SortFlags = false
	addFlagsLoadCoreRequired(loadAppendCmd, &loadAppendCfg)
	addFlagsLoadCoreOther(loadAppendCmd, &loadAppendCfg)
}

// SNAPSHOT SETUP

var loadSnapCfg = actions.LoadConfig{}
var loadSnapCmd = &cobra.Command{
	Use:   "snap " + argsDefinitionTxt,
	Short: "Load a snapshot of source-connection.schema.object into target-connection.schema.object (optionally loop)",
	Long: fmt.Sprintf(`Martpipe extract a snapshot of a source object and load into the raw layer of a chosen target:

- Target tables are created from source metadata when they are missing
- Existing rows are deleted first and new data loaded in their place
- Mandatory flags differ depending on the target database type
- Supported <source-connection>-<target-connection> combinations are:

%v
`, actions.GetSupportedLoadSnapConnectionTypes()),
	Args: getConnectionsArgsFunc(&loadSnapCfg.SourceString, &loadSnapCfg.TargetString, ""),
	RunE: func(cmd *cobra.Command, args []string) error {
		return func() error {
			err := runLoadSnap() // may disable usage based on output to STDOUT.
			if silenceUsage {
				cmd.SilenceUsage = true
			}
			return err
		}()
	},
}

func runLoadSnap() error {
	loadSnapCfg.Connections = getConnectionHandler()
	loadSnapCfg.StackDumpOnPanic = stackDumpOnPanic
	// Get connection types.
	sourceType, err := loadSnapCfg.Connections.GetConnectionType(loadSnapCfg.SourceString.GetConnectionName())
	if err != nil {
		return err
	}
	targetType, err := loadSnapCfg.Connections.GetConnectionType(loadSnapCfg.TargetString.GetConnectionName())
	if err != nil {
		return err
	}
	if targetType == constants.ConnectionTypeStdout { // if there will be output to STDOUT...
		silenceUsage = true // disable usage via global variable so 12Factor mode can continue to work.
	}
	return actions.ActionLauncher(&loadSnapCfg, actions.GetLoadSnapAction, sourceType, targetType)
}

// APPEND SETUP

var loadAppendCfg = actions.LoadConfig{}
var loadAppendCmd = &cobra.Command{
	Use:   "append " + argsDefinitionTxt,
	Short: "Load a snapshot of source-connection.schema.object onto the end of target-connection.schema.object (optionally loop)",
	Long: fmt.Sprintf(`Martpipe extract a snapshot of a source object and append into the raw layer of a chosen target:

- Target tables are created from source metadata when they are missing
- Rows already loaded are preserved and new data is added after them
- Mandatory flags differ depending on the target database type
- Supported <source-connection>-<target-connection> combinations are:

%v
`, actions.GetSupportedLoadAppendConnectionTypes()),
	Args: getConnectionsArgsFunc(&loadAppendCfg.SourceString, &loadAppendCfg.TargetString, ""),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runLoadAppend()
	},
}

func runLoadAppend() error {
	loadAppendCfg.Connections = getConnectionHandler()
	loadAppendCfg.StackDumpOnPanic = stackDumpOnPanic
	loadAppendCfg.AppendTarget = true
	// Get connection types.
	sourceType, err := loadAppendCfg.Connections.GetConnectionType(loadAppendCfg.SourceString.GetConnectionName())
	if err != nil {
		return err
	}
	targetType, err := loadAppendCfg.Connections.GetConnectionType(loadAppendCfg.TargetString.GetConnectionName())
	if err != nil {
		return err
	}
	return actions.ActionLauncher(&loadAppendCfg, actions.GetLoadAppendAction, sourceType, targetType)
}

// ALL LOAD FLAGS

func addFlagsLoadCoreRequired(c *cobra.Command, cfg *actions.LoadConfig) {
	switches.addFlag(c, &cfg.SnowStageName, "stage", "", false, "")
	switches.addFlag(c, &cfg.BucketName, "s3-bucket", "", false, "")
}

func addFlagsLoadCoreOther(c *cobra.Command, cfg *actions.LoadConfig) {
	switches.addFlag(c, &cfg.BucketPrefix, "s3-prefix", "", false, "")
	switches.addFlag(c, &cfg.BucketRegion, "s3-region", "eu-west-1", false, "")
	switches.addFlag(c, &cfg.CsvFileNamePrefix, "csv-prefix", "", false, "")
	switches.addFlag(c, &cfg.CsvMaxFileBytes, "csv-bytes", "104857600", false, "")
	switches.addFlag(c, &cfg.CsvMaxFileRows, "csv-rows", "0", false, "")
	switches.addFlag(c, &cfg.CsvHeaderFields, "csv-header", "", false, "")
	switches.addFlag(c, &cfg.CsvRegexp, "csv-regexp", `.+\.csv.*`, false, "")
	switches.addFlag(c, &cfg.CommitBatchSize, "commit-batch-size", "10000", false, "")
	switches.addFlag(c, &cfg.AbortAfterNumRows, "abort-after", "0", false, "")
	// General
	switches.addFlag(c, &cfg.RepeatInterval, "repeat", "0", false, "")
	switches.addFlag(c, &cfg.LogLevel, "log-level", "warn", false, "")
	switches.addFlag(c, &cfg.ExportConfigType, "output", "", false, "")
	switches.addFlag(c, &cfg.ExportIncludeConnections, "include-connections", "", false, "")
	switches.addFlag(c, &cfg.StatsDumpFrequencySeconds, "stats", "5", false, "")
}

// META CONFIG

var loadMetaCfg = actions.LoadConfig{}
var loadMetaCmd = &cobra.Command{
	Use:   "meta " + argsDefinitionTxt,
	Short: "Generate DDL commands by converting source database metadata to the target database equivalent",
	Long: fmt.Sprintf(`Generate target table DDL from database objects where the source connection is of type:

%v

Notes:

- Fields are converted using the type mapper registered for the source database.
`, actions.GetSupportedLoadMetaConnectionTypes(),
	),
	Args: getConnectionsArgsFunc(&loadMetaCfg.SourceString, &loadMetaCfg.TargetString, ""),
	RunE: func(cmd *cobra.Command, args []string) error { return runLoadMeta() },
}

func runLoadMeta() error {
	loadMetaCfg.Connections = getConnectionHandler()
	loadMetaCfg.StackDumpOnPanic = stackDumpOnPanic
	// Get connection types.
	sourceType, err := loadMetaCfg.Connections.GetConnectionType(loadMetaCfg.SourceString.GetConnectionName())
	if err != nil {
		return err
	}
	targetType, err := loadMetaCfg.Connections.GetConnectionType(loadMetaCfg.TargetString.GetConnectionName())
	if err != nil {
		return err
	}
	return actions.ActionLauncher(&loadMetaCfg, actions.GetLoadMetaAction, sourceType, targetType)
}

func initLoadMeta() {
	loadCmd.AddCommand(loadMetaCmd)
	loadMetaCmd.Flags().SortFlags = false
	switches.addFlag(loadMetaCmd, &loadMetaCfg.ExecuteDDL, "execute-ddl", "", false, "")
	switches.addFlag(loadMetaCmd, &loadMetaCfg.LogLevel, "log-level", "error", false, "")
}
