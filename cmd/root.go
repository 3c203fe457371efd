package cmd

import (
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/spf13/cobra"
)

var (
	// Default values may be set at compile time.
	version          = "0.1.0"
	buildDate        = "2020-01-02T03:04+0500"
	osArch           = "darwin"
	stackDumpOnPanic bool
	silenceUsage     bool
)

var rootCmd = &cobra.Command{
	Use: "mp",
	Long: `
   _____                 __          __________.__
  /     \ _____ ________/  |_        \______   \__|_____   ____
 /  \ /  \\__  \\_  __ \   __\  ______ |     ___/  \____ \_/ __ \
/    Y    \/ __ \|  | \/|  |  /_____/ |    |   |  |  |_> >  ___/
\____|__  (____  /__|   |__|          |____|   |__|   __/ \___  >
        \/     \/                                |__|        \/

Martpipe is a DataOps utility for loading and modelling warehouse data. It's designed to be
light-weight and easy to use. Use command-line switches to snapshot source objects into a raw
layer and build clean and mart models on top, or write your own pipes in YAML or JSON.
Start an HTTP server to expose functionality via a RESTful API.
Martpipe is not yet cluster-aware but it scales out. Start multiple instances of this tool and
off you go. Happy warehousing! 😄`,
}

func init() {
	// General setup.
	cobra.EnableCommandSorting = false
	// Global flags.
	rootCmd.PersistentFlags().BoolVar(&stackDumpOnPanic, "print-stack", false, "Print a stack dump if there is a panic")
	_ = rootCmd.PersistentFlags().MarkHidden("print-stack")
}

// Execute runs the root command, or dispatches on environment variables when
// twelve factor mode is enabled. Called once by main.main().
func Execute() {
	switch {
	case twelveFactorMode && lambdaMode:
		lambda.Start(func() error { return execute12FactorMode(twelveFactorActions) })
	case twelveFactorMode:
		if err := execute12FactorMode(twelveFactorActions); err != nil {
			os.Exit(1) // execute12FactorMode prints the error.
		}
	default: // CLI args and flags via Cobra.
		if err := rootCmd.Execute(); err != nil {
			os.Exit(1) // Execute() prints the error.
		}
	}
}
