package cmd

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"

	"github.com/martpipe/martpipe/actions"
	"github.com/martpipe/martpipe/config"
	"github.com/martpipe/martpipe/constants"
	"github.com/martpipe/martpipe/helper"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const (
	argsDefinitionTxt = "<source-connection>.[<schema>.]<object> <target-connection>.[<schema>.]<object>"
)

// cliFlag holds the registration details for one CLI flag: its long name,
// default value, single character shorthand and the long description.
type cliFlag struct {
	name      string
	val       string
	shortHand string
	desc      string
}

type cliFlags map[string]cliFlag

var switches = cliFlags{
	"mock": cliFlag{name: "mock", shortHand: "m", desc: "mock switch for testing"},
	"stage": cliFlag{name: "stage", shortHand: "s",
		desc: "Name of the external Snowflake stage to load data from\n" +
			"(only required for Snowflake targets)"},
	"s3-bucket": cliFlag{name: "s3-bucket", shortHand: "b",
		desc: "AWS S3 bucket used to stage CSV files, required for Snowflake targets\n" +
			"(grant access via the AWS environment variables)"},
	"s3-prefix": cliFlag{name: "s3-prefix", shortHand: "P",
		desc: "AWS S3 bucket prefix"},
	"s3-region": cliFlag{name: "s3-region", shortHand: "R",
		desc: "AWS S3 bucket region"},
	"s3-url": cliFlag{name: "s3-url", shortHand: "u",
		desc: "S3 URL for a new STAGE object, in the form: s3://<bucket>[/<prefix>/]"},
	"s3-key": cliFlag{name: "s3-key", shortHand: "K",
		desc: "AWS IAM access key with rights on the bucket (or set AWS_ACCESS_KEY_ID)"},
	"s3-secret": cliFlag{name: "s3-secret", shortHand: "S",
		desc: "AWS IAM secret for the above key (or set AWS_SECRET_ACCESS_KEY)"},
	"csv-header": cliFlag{name: "csv-header", shortHand: "f",
		desc: "The <CSV of fields> (case sensitive) written to CSV files and the target\n" +
			"Snowflake table. Leave blank to take every source table field, or supply\n" +
			"a list matching the target Snowflake column order when it differs"},
	"csv-prefix": cliFlag{name: "csv-prefix", shortHand: "c",
		desc: "Name prefix for CSV files generated and staged in the S3 bucket when the\n" +
			"target is S3 or Snowflake. For S3 sources this is instead the object name\n" +
			"prefix (not bucket prefix) used to filter objects.\n" +
			"Leave blank to use the value of source [<schema>.]<object>."},
	"csv-regexp": cliFlag{name: "csv-regexp", shortHand: "X",
		desc: "Regular expression that filters files found in S3 or a CSV directory during\n" +
			"'load snap' actions. Try target connection-type 'stdout' to see what matches"},
	"csv-bytes": cliFlag{name: "csv-bytes", shortHand: "y",
		desc: "Bytes to write to a CSV file before rolling over to a new one\n" +
			"(0 for unlimited)"},
	"csv-rows": cliFlag{name: "csv-rows", shortHand: "r",
		desc: "Rows to write to a single CSV file before rolling over (0 for unlimited)"},
	"repeat": cliFlag{name: "repeat", shortHand: "i",
		desc: "Optional: seconds to sleep between repeats of the extract action, keeping \n" +
			"targets up-to-date in near real-time without a scheduler. Use 0 to run once"},
	"output": cliFlag{name: "output", shortHand: "o",
		desc: "Print the pipe definition as \"yaml\" or \"json\" instead of running it. Redirect \n" +
			"to a file for the \"pipe\" action or as input to k8s yaml generation"},
	"log-level": cliFlag{name: "log-level", shortHand: "l",
		desc: "Log level: \"error | warn | info | debug\" where \"warn\" limits output \n" +
			"to step stats only"},
	"dry-run": cliFlag{name: "dry-run", shortHand: "d",
		desc: "Print the SQL query without executing it"},
	"connection-name": cliFlag{name: "connection-name", shortHand: "c",
		desc: "Name that pipes and actions use to refer to this connection"},
	"dsn": cliFlag{name: "dsn", shortHand: "d",
		desc: "Database connect string to parse"},
	"dir": cliFlag{name: "dir", shortHand: "d",
		desc: "Directory containing CSV files"},
	"s3-dsn": cliFlag{name: "dsn", shortHand: "d",
		desc: "DSN of the form s3://<bucket name>/<prefix> (overrides the individual bucket flags)"},
	"force-connection": cliFlag{name: "force", shortHand: "f",
		desc: "Overwrite the connection if one of the same name exists"},
	"execute-ddl": cliFlag{name: "execute-ddl", shortHand: "e",
		desc: "Run the generated DDL against the target connection instead of printing it"},
	"commit-batch-size": cliFlag{name: "commit-batch-size", shortHand: "B",
		desc: "Rows per transaction before a commit is issued \n" +
			"(Snowflake targets ignore this and load in a single transaction)"},
	"include-connections": cliFlag{name: "include-connections", shortHand: "I",
		desc: "Include connection details in the definition emitted by the 'output' flag"},
	"print-header": cliFlag{name: "print-header", shortHand: "x",
		desc: "Print a header row above SQL query results"},
	"file": cliFlag{name: "file", shortHand: "f",
		desc: "File containing the pipe definition (.yaml or .json)"},
	"web-service": cliFlag{name: "web-service", shortHand: "w",
		desc: "Launch a web service so the pipe can be monitored"},
	"port": cliFlag{name: "port", shortHand: "p",
		desc: "Port to listen on"},
	"stats": cliFlag{name: "stats", shortHand: "L",
		desc: "Seconds between dumps of step statistics (use 0 to disable)"},
	"abort-after": cliFlag{name: "abort-after", shortHand: "n",
		desc: "Rows to extract before aborting (use 0 to process all rows)"},
}

// addFlag registers the named flag on cobra.Command c, binding it to targetVar
// which must be a pointer to string, bool or int. The flag's details come from
// the cliFlags map.
// In twelveFactorMode the flag is not registered at all; targetVar is filled
// from the matching environment variable, falling back to defaultValue.
// Outside twelveFactorMode the default comes from config if present, else
// defaultValue, and required flags are marked as such with Cobra.
// Supply desc2 to append extra text to the registered description.
// The global twelveFactorMode drives the mode of operation here; an injected
// interface would complicate the call sites given this runs from init() funcs.
func (f *cliFlags) addFlag(c *cobra.Command, targetVar interface{}, name string, defaultValue string, required bool, desc2 string) {
	if reflect.ValueOf(targetVar).Kind() != reflect.Ptr {
		fmt.Println("error adding flag: targetVar must be a pointer")
		os.Exit(1)
	}
	sw := f.getCliFlag(name, defaultValue, config.Main.Get)
	desc := sw.desc + desc2
	switch p := targetVar.(type) {
	case *string:
		if twelveFactorMode {
			*p = sw.val
			break
		}
		c.Flags().StringVarP(p, sw.name, sw.shortHand, sw.val, desc)
		if sw.val != "" { // signal that the flag was set so defaults take effect.
			mustSetFlag(c.Flags(), sw.name, sw.val)
		}
	case *bool:
		if twelveFactorMode {
			*p = sw.val != "" // any non-empty value means true.
			break
		}
		// TODO: test that boolean config values stored in Main work for True as well as true.
		defaultBool := strings.ToLower(sw.val) == "true"
		c.Flags().BoolVarP(p, sw.name, sw.shortHand, defaultBool, desc)
		mustSetFlag(c.Flags(), sw.name, strconv.FormatBool(defaultBool))
	case *int:
		defaultInt, err := strconv.Atoi(sw.val)
		if err != nil {
			fmt.Printf("the value for flag %q must be an integer: %v\n", sw.name, err)
			os.Exit(1)
		}
		if twelveFactorMode {
			*p = defaultInt
			break
		}
		c.Flags().IntVarP(p, sw.name, sw.shortHand, defaultInt, desc)
		if sw.val != "" {
			mustSetFlag(c.Flags(), sw.name, sw.val)
		}
	default:
		panic("Error: unhandled CLI flag target value type")
	}
	if required && !twelveFactorMode {
		_ = c.MarkFlagRequired(sw.name)
	}
}

// getCliFlag looks up the named flag and resolves its value: from the
// environment in twelveFactorMode, else from the Main config file, with
// defaultValue applied when neither yields anything.
// TODO: bind getCliFlag() to cliFlags once we're done migrating old commands.
// TODO: allow default values for net.IP type.
// TODO: add tests scenario that uses config file and defaults when twelveFactorMode is not set.
func (f *cliFlags) getCliFlag(name string, defaultValue string, fnGetConfig func(key string, out interface{}) error) cliFlag {
	s, ok := switches[name]
	if !ok {
		panic(fmt.Sprintf("unregistered CLI flag, %q", name))
	}
	if twelveFactorMode {
		if err := helper.ReadValueFromEnv(flagNameToEnvVar(name), &s.val); err != nil {
			s.val = defaultValue
		}
		return s
	}
	err := fnGetConfig(s.name, &s.val)
	if errors.As(err, &config.KeyNotFoundError{}) || s.val == "" {
		s.val = defaultValue
	}
	return s
}

// flagNameToEnvVar forms a sanitised environment variable name using constants.EnvVarPrefix.
func flagNameToEnvVar(name string) string {
	return constants.EnvVarPrefix + "_" + strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
}

func mustSetFlag(f *pflag.FlagSet, name string, val string) {
	if err := f.Set(name, val); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// getConnectionsArgsFunc returns a cobra args validator requiring exactly two
// args, saved as the source and target connection objects.
func getConnectionsArgsFunc(src *actions.ConnectionObject, tgt *actions.ConnectionObject, customErrMsg string) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) != 2 {
			if customErrMsg != "" {
				return errors.New(customErrMsg)
			}
			return errors.New("requires source and target <connection>.[<schema>.]<object>")
		}
		*src = actions.ConnectionObject{ConnectionObject: args[0]}
		*tgt = actions.ConnectionObject{ConnectionObject: args[1]}
		return nil
	}
}

// getConnectionArgsFunc returns a cobra args validator requiring exactly one
// arg, saved as the source connection object.
func getConnectionArgsFunc(src *actions.ConnectionObject, customErrMsg string) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) != 1 {
			if customErrMsg != "" {
				return errors.New(customErrMsg)
			}
			return errors.New("requires source <connection>")
		}
		*src = actions.ConnectionObject{ConnectionObject: args[0]}
		return nil
	}
}

// getQueryFromArgsFunc returns a cobra args validator that saves args[0] as
// the source connection and joins the remaining args into the SQL query.
func getQueryFromArgsFunc(src *actions.ConnectionObject, query *string, customErrMsg string) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) < 2 {
			if customErrMsg != "" {
				return errors.New(customErrMsg)
			}
			return errors.New("please supply a connection and a SQL query")
		}
		*src = actions.ConnectionObject{ConnectionObject: args[0]}
		*query = strings.Join(args[1:], " ")
		return nil
	}
}

// getPackArgsFunc returns a cobra args validator requiring exactly two args,
// saved as the model pack name and the target connection.
func getPackArgsFunc(pack *string, tgt *string, customErrMsg string) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) != 2 {
			if customErrMsg != "" {
				return errors.New(customErrMsg)
			}
			return errors.New("requires a model pack and a target <connection>")
		}
		*pack = args[0]
		*tgt = args[1]
		return nil
	}
}
