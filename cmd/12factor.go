package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/martpipe/martpipe/actions"
	"github.com/martpipe/martpipe/aws/s3"
	"github.com/martpipe/martpipe/config"
	c "github.com/martpipe/martpipe/constants"
	"github.com/martpipe/martpipe/helper"
	"github.com/martpipe/martpipe/logger"
	"github.com/martpipe/martpipe/rdbms"
	"github.com/martpipe/martpipe/rdbms/shared"
	"github.com/xo/dburl"
)

// This init runs before the Cobra init functions thanks to the lexical file
// ordering, so twelveFactorMode is decided before any flags are registered.
func init() {
	setupTwelveFactorMode()
}

// setupTwelveFactorMode enables or disables 12 factor mode from the
// environment. A .env file in the working directory is applied first so
// containerised jobs can supply their configuration as a file; real
// environment variables win over .env values.
func setupTwelveFactorMode() {
	_ = godotenv.Load()
	mode := os.Getenv(envVarTwelveFactorMode)
	if mode == "" {
		twelveFactorMode = false // tests may have turned it on while others require it off.
		return
	}
	twelveFactorMode = true
	if strings.ToLower(mode) == "lambda" {
		lambdaMode = true
	}
}

const (
	envVarTwelveFactorMode      = c.EnvVarPrefix + "_" + "12FACTOR_MODE"
	envVarCommand               = c.EnvVarPrefix + "_" + "COMMAND"
	envVarSubcommand            = c.EnvVarPrefix + "_" + "SUBCOMMAND"
	envVarSourceObject          = c.EnvVarPrefix + "_" + "SOURCE_OBJECT" // <connection-name>.[<schema>.]<table>
	envVarTargetObject          = c.EnvVarPrefix + "_" + "TARGET_OBJECT" // <connection-name>.[<schema>.]<table>
	envVarSourceType            = c.EnvVarPrefix + "_" + "SOURCE_TYPE"   // postgres|snowflake|etc
	envVarSourceS3Region        = c.EnvVarPrefix + "_" + "SOURCE_S3_REGION"
	envVarTargetType            = c.EnvVarPrefix + "_" + "TARGET_TYPE" // clickhouse|snowflake|etc
	envVarTargetS3Region        = c.EnvVarPrefix + "_" + "TARGET_S3_REGION"
	envVarLogLevel              = c.EnvVarPrefix + "_" + "LOG_LEVEL"
	envVarStackDump             = c.EnvVarPrefix + "_" + "STACK_DUMP"
	defaultConnectionNameSource = "SOURCE"
	defaultConnectionNameTarget = "TARGET"
)

var (
	twelveFactorMode bool // set when envVarTwelveFactorMode is present.
	lambdaMode       bool // set when envVarTwelveFactorMode holds "lambda".
	twelveFactorVars = map[string]string{
		envVarCommand:    "",
		envVarSubcommand: "",
		// Source
		envVarSourceType: "",
		helper.GetDsnEnvVarName(defaultConnectionNameSource): "",
		envVarSourceObject:   "",
		envVarSourceS3Region: "",
		// Target
		envVarTargetType: "",
		helper.GetDsnEnvVarName(defaultConnectionNameTarget): "",
		envVarTargetObject:   "",
		envVarTargetS3Region: "",
		// Misc
		envVarLogLevel:  "",
		envVarStackDump: "",
	}
	// Variables whose values must never be logged in the clear.
	twelveFactorVarsSensitive = map[string]string{
		helper.GetDsnEnvVarName(defaultConnectionNameSource): "",
		helper.GetDsnEnvVarName(defaultConnectionNameTarget): "",
	}
)

type twelveFactorAction struct {
	setupFunc  func(src string, tgt string)
	runnerFunc func() error
}

var twelveFactorActions = map[string]twelveFactorAction{
	"load-snap": {
		setupFunc: func(src string, tgt string) {
			loadSnapCfg.SrcAndTgtConnections.SourceString.ConnectionObject = src
			loadSnapCfg.SrcAndTgtConnections.TargetString.ConnectionObject = tgt
		},
		runnerFunc: runLoadSnap,
	},
	"load-append": {
		setupFunc: func(src string, tgt string) {
			loadAppendCfg.SrcAndTgtConnections.SourceString.ConnectionObject = src
			loadAppendCfg.SrcAndTgtConnections.TargetString.ConnectionObject = tgt
		},
		runnerFunc: runLoadAppend,
	},
}

func getConnectionHandler() actions.ConnectionHandler {
	if twelveFactorMode {
		return &TwelveFactorConnections{}
	}
	return config.Connections
}

func getConnectionLoader() actions.ConnectionLoader {
	if twelveFactorMode {
		return &TwelveFactorConnections{}
	}
	return config.Connections
}

func getConnectionGetterSetter() actions.ConnectionGetterSetter {
	if twelveFactorMode {
		fmt.Printf("Error: connections cannot be configured when %v is set (supply them using %v and %v instead)",
			envVarTwelveFactorMode,
			helper.GetDsnEnvVarName("<source-connection-name>"),
			helper.GetDsnEnvVarName("<target-connection-name>"))
		os.Exit(1)
	}
	return config.Connections
}

func execute12FactorMode(acts map[string]twelveFactorAction) (err error) {
	// logLevel is not a persistent flag since logging defaults differ per cobra action, so fetch it here.
	logLevel := helper.ReadValueFromEnvWithDefault(envVarLogLevel, "warn")
	log := logger.NewLogger("martpipe", logLevel, stackDumpOnPanic)
	log.Info("Martpipe is running in 12 Factor mode...")
	// TODO: add validation of supplied env variables - perhaps using a map[string]MyStructWithValidationData.
	for k := range twelveFactorVars {
		twelveFactorVars[k] = os.Getenv(k)
		if _, sensitive := twelveFactorVarsSensitive[k]; sensitive {
			log.Debug(k, "=", "<obfuscated>")
		} else {
			log.Debug(k, "=", twelveFactorVars[k])
		}
	}
	// Command plus subcommand selects the action.
	action := fmt.Sprintf("%v-%v", twelveFactorVars[envVarCommand], twelveFactorVars[envVarSubcommand])
	a, ok := acts[action]
	if !ok {
		err = fmt.Errorf("invalid combination of command (%v) and subcommand (%v)", twelveFactorVars[envVarCommand], twelveFactorVars[envVarSubcommand])
		log.Error(err.Error())
		return
	}
	// Build the connection strings with the object appended, as Cobra would have from CLI args.
	a.setupFunc(
		fmt.Sprintf("%v.%v", defaultConnectionNameSource, twelveFactorVars[envVarSourceObject]), // e.g. SOURCE.public.customers
		fmt.Sprintf("%v.%v", defaultConnectionNameTarget, twelveFactorVars[envVarTargetObject]), // e.g. TARGET.raw.customers
	)
	err = a.runnerFunc()
	if err != nil {
		log.Error("Error: ", err)
	}
	return err
}

// TwelveFactorConnections serves connection details from environment
// variables instead of the connections config file. It implements the
// connection interfaces in package actions.
type TwelveFactorConnections struct{}

// GetConnectionType returns the value of envVarSourceType or envVarTargetType
// based on connectionName, which must be one of defaultConnectionNameSource or
// defaultConnectionNameTarget. Values come from the global twelveFactorVars
// map populated by execute12FactorMode.
func (t *TwelveFactorConnections) GetConnectionType(connectionName string) (connectionType string, err error) {
	var ok bool
	switch connectionName {
	case defaultConnectionNameSource:
		if connectionType, ok = twelveFactorVars[envVarSourceType]; !ok {
			err = fmt.Errorf("missing value for %v", envVarSourceType)
		}
	case defaultConnectionNameTarget:
		if connectionType, ok = twelveFactorVars[envVarTargetType]; !ok {
			err = fmt.Errorf("missing value for %v", envVarTargetType)
		}
	default:
		err = fmt.Errorf("unexpected connectionName %v while running in twelveFactorMode", connectionName)
	}
	return
}

// bucketRegionFromEnv fetches the S3 region for the named connection, warning
// when the variable is absent since s3.ParseDSN can fall back to its default.
func bucketRegionFromEnv(connectionName string) string {
	var vRegion string
	kRegion := helper.GetRegionEnvVarName(connectionName)
	if err := helper.ReadValueFromEnv(kRegion, &vRegion); err != nil {
		// TODO: log this correctly instead of fmt.
		fmt.Printf("bucket region not found in environment variable %v\n", kRegion)
	}
	return vRegion
}

// GetConnectionDetails builds shared.ConnectionDetails for the named
// connection from environment variables: the DSN from the variable named by
// helper.GetDsnEnvVarName and the type from envVarSourceType or
// envVarTargetType. The DSN is validated against the connection type before
// its details are returned.
// TODO: add tests for GetConnectionDetails
func (t *TwelveFactorConnections) GetConnectionDetails(connectionName string) (*shared.ConnectionDetails, error) {
	connectionDetails := shared.ConnectionDetails{
		LogicalName: connectionName,
		Data:        make(map[string]string),
	}
	kDsn := helper.GetDsnEnvVarName(connectionName)
	var vDsn string
	if err := helper.ReadValueFromEnv(kDsn, &vDsn); err != nil {
		return nil, fmt.Errorf("unable to find value for %v in the environment: %w", kDsn, err)
	}
	vType, err := t.GetConnectionType(connectionName)
	if err != nil {
		return nil, err
	}
	connectionDetails.Type = vType
	switch vType {
	case c.ConnectionTypeSnowflake:
		if _, err := rdbms.SnowflakeParseDSN(vDsn); err != nil {
			return nil, err
		}
		connectionDetails.Data = shared.DsnConnectionDetailsToMap(connectionDetails.Data, &shared.DsnConnectionDetails{Dsn: vDsn})
	case c.ConnectionTypeS3:
		cn, err := s3.ParseDSN(vDsn, bucketRegionFromEnv(connectionName))
		if err != nil {
			return nil, err
		}
		connectionDetails.Data = s3.AwsBucketToMap(connectionDetails.Data, cn)
	default: // fallback to the DSN connection types.
		if !actions.IsSupportedConnectionType(vType) {
			return nil, fmt.Errorf("unsupported connection type %q for DSN %q", vType, vDsn)
		}
		if _, err := dburl.Parse(vDsn); err != nil {
			return nil, err
		}
		connectionDetails.Data = shared.DsnConnectionDetailsToMap(connectionDetails.Data, &shared.DsnConnectionDetails{Dsn: vDsn})
	}
	return &connectionDetails, nil
}

// LoadConnection reads a connection DSN from the environment, parses it based
// on the type also set in the environment and returns the
// shared.ConnectionDetails. It mirrors loading connection details from the
// config file for the pipe action, since full connection details may not be
// saved out to the pipe config file.
// TODO: add test for LoadConnection
func (t *TwelveFactorConnections) LoadConnection(connectionName string) (shared.ConnectionDetails, error) {
	kDsn := helper.GetDsnEnvVarName(connectionName)
	var vDsn, vType string
	if err := helper.ReadValueFromEnv(kDsn, &vDsn); err != nil {
		return shared.ConnectionDetails{}, err
	}
	kType := envVarSourceType
	if connectionName == defaultConnectionNameTarget {
		kType = envVarTargetType
	}
	if err := helper.ReadValueFromEnv(kType, &vType); err != nil {
		return shared.ConnectionDetails{}, err
	}
	vType = strings.TrimSpace(strings.ToLower(vType))
	m := make(map[string]string)
	switch vType {
	case c.ConnectionTypeSnowflake:
		cn, err := rdbms.SnowflakeParseDSN(vDsn)
		if err != nil {
			return shared.ConnectionDetails{}, err
		}
		// Rebuild the DSN so it carries the parser's defaults.
		dsn, err := rdbms.SnowflakeGetDSN(cn)
		if err != nil {
			return shared.ConnectionDetails{}, err
		}
		shared.DsnConnectionDetailsToMap(m, &shared.DsnConnectionDetails{Dsn: dsn})
	case c.ConnectionTypeS3:
		cn, err := s3.ParseDSN(vDsn, bucketRegionFromEnv(connectionName))
		if err != nil {
			return shared.ConnectionDetails{}, err
		}
		m["name"] = cn.Name
		m["prefix"] = cn.Prefix
		m["region"] = cn.Region
	default:
		if !actions.IsSupportedConnectionType(vType) {
			return shared.ConnectionDetails{}, fmt.Errorf("unsupported connection type %q for DSN %q", vType, vDsn)
		}
		if _, err := dburl.Parse(vDsn); err != nil {
			return shared.ConnectionDetails{}, err
		}
		shared.DsnConnectionDetailsToMap(m, &shared.DsnConnectionDetails{Dsn: vDsn})
	}
	return shared.ConnectionDetails{
		Type:        vType,
		LogicalName: connectionName,
		Data:        m,
	}, nil
}
