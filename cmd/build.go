package cmd

import (
	"fmt"
	"strings"

	"github.com/martpipe/martpipe/actions"
	"github.com/martpipe/martpipe/models"
	"github.com/spf13/cobra"
)

const buildArgsDefinitionTxt = "<pack-name-or-file> <target-connection>"

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: `Build clean and mart models on top of raw data already loaded`,
	Long: fmt.Sprintf(`Build the clean and mart layers of a warehouse from a model pack:

- Compile a model pack into an ordered transform and run it against the target
- Models are dropped and recreated from their SELECT statements in dependency order
- Run data quality checks against the finished models
- Builtin model packs are: %v (or supply a YAML file name)
`, strings.Join(models.BuiltinPackNames(), ", ")),
}

func init() {
	rootCmd.AddCommand(buildCmd)
	initBuildRun()
	initBuildCheck()
}

func initBuildRun() {
	buildCmd.AddCommand(buildRunCmd)
	buildRunCmd.Flags().SortFlags = false
	switches.addFlag(buildRunCmd, &buildRunCfg.CommitBatchSize, "commit-batch-size", "10000", false, "")
	switches.addFlag(buildRunCmd, &buildRunCfg.LogLevel, "log-level", "warn", false, "")
	switches.addFlag(buildRunCmd, &buildRunCfg.ExportConfigType, "output", "", false, "")
	switches.addFlag(buildRunCmd, &buildRunCfg.ExportIncludeConnections, "include-connections", "", false, "")
	switches.addFlag(buildRunCmd, &buildRunCfg.StatsDumpFrequencySeconds, "stats", "5", false, "")
}

func initBuildCheck() {
	buildCmd.AddCommand(buildCheckCmd)
	buildCheckCmd.Flags().SortFlags = false
	switches.addFlag(buildCheckCmd, &buildCheckCfg.LogLevel, "log-level", "warn", false, "")
	switches.addFlag(buildCheckCmd, &buildCheckCfg.ExportConfigType, "output", "", false, "")
	switches.addFlag(buildCheckCmd, &buildCheckCfg.ExportIncludeConnections, "include-connections", "", false, "")
	switches.addFlag(buildCheckCmd, &buildCheckCfg.StatsDumpFrequencySeconds, "stats", "5", false, "")
}

// RUN SETUP

var buildRunCfg = actions.BuildRunConfig{}
var buildRunCmd = &cobra.Command{
	Use:   "run " + buildArgsDefinitionTxt,
	Short: "Compile a model pack and build its models against a target connection",
	Long: `Compile a model pack and build each of its models against the target:

- Models run in dependency order inside sequential step groups
- Each relation is dropped and recreated so a rebuild is always clean
- Data quality checks declared by the pack run after the models they cover
`,
	Args: getPackArgsFunc(&buildRunCfg.PackName, &buildRunCfg.TargetConnection, ""),
	RunE: func(cmd *cobra.Command, args []string) error {
		return func() error {
			err := runBuildRun()
			if silenceUsage {
				cmd.SilenceUsage = true
			}
			return err
		}()
	},
}

func runBuildRun() error {
	buildRunCfg.Connections = getConnectionHandler()
	buildRunCfg.StackDumpOnPanic = stackDumpOnPanic
	if buildRunCfg.ExportConfigType != "" { // if the transform will be written to STDOUT...
		silenceUsage = true
	}
	return actions.RunBuild(&buildRunCfg)
}

// CHECK SETUP

var buildCheckCfg = actions.BuildRunConfig{}
var buildCheckCmd = &cobra.Command{
	Use:   "check " + buildArgsDefinitionTxt,
	Short: "Run the data quality checks declared by a model pack without rebuilding its models",
	Long: `Run the data quality checks declared by a model pack against the target:

- Not-null, unique, accepted-values, relationship and expression checks run as queries only
- No models are rebuilt and no target data is changed
- The first failing check aborts with a non-zero exit status
`,
	Args: getPackArgsFunc(&buildCheckCfg.PackName, &buildCheckCfg.TargetConnection, ""),
	RunE: func(cmd *cobra.Command, args []string) error {
		return func() error {
			err := runBuildCheck()
			if silenceUsage {
				cmd.SilenceUsage = true
			}
			return err
		}()
	},
}

func runBuildCheck() error {
	buildCheckCfg.Connections = getConnectionHandler()
	buildCheckCfg.StackDumpOnPanic = stackDumpOnPanic
	buildCheckCfg.ChecksOnly = true
	if buildCheckCfg.ExportConfigType != "" { // if the transform will be written to STDOUT...
		silenceUsage = true
	}
	return actions.RunBuild(&buildCheckCfg)
}
