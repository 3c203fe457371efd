package actions

import (
	"fmt"
	"strings"

	"github.com/martpipe/martpipe/constants"
	"github.com/martpipe/martpipe/helper"
	"github.com/martpipe/martpipe/logger"
	"github.com/martpipe/martpipe/rdbms"
	"github.com/martpipe/martpipe/rdbms/shared"
)

type SchemasSetupConfig struct {
	// Connections
	Connections    ConnectionHandler
	TargetString   ConnectionObject
	TgtConnDetails *shared.ConnectionDetails
	// Generic
	LogLevel         string `errorTxt:"log level" mandatory:"yes"`
	ExecuteDDL       bool
	StackDumpOnPanic bool
	// Schemas
	RawSchema   string `errorTxt:"raw schema name" mandatory:"yes"`
	CleanSchema string `errorTxt:"clean schema name" mandatory:"yes"`
	MartSchema  string `errorTxt:"mart schema name" mandatory:"yes"`
}

// RunSchemasSetup prints or executes the statements that create the raw, clean and mart
// schemas on the target warehouse connection.
func RunSchemasSetup(cfg *SchemasSetupConfig) error {
	// Setup logging.
	if cfg.LogLevel == "" {
		cfg.LogLevel = "error"
	}
	log := logger.NewLogger("martpipe", cfg.LogLevel, cfg.StackDumpOnPanic)
	// Get real connection details.
	var err error
	if cfg.TgtConnDetails, err = cfg.Connections.GetConnectionDetails(cfg.TargetString.GetConnectionName()); err != nil {
		return err
	}
	if err = helper.ValidateStructIsPopulated(cfg); err != nil {
		return err
	}
	ddl, err := getCreateSchemasDDL(cfg.TgtConnDetails.Type, []string{cfg.RawSchema, cfg.CleanSchema, cfg.MartSchema}, !cfg.ExecuteDDL)
	if err != nil {
		return err
	}
	printLogFn := getPrintLogFunc(log, !cfg.ExecuteDDL) // use logger if we're executing DDL.
	for _, stmt := range ddl {
		printLogFn(stmt)
		if cfg.ExecuteDDL {
			fn := func() error {
				if cfg.TgtConnDetails.Type == constants.ConnectionTypeSnowflake { // if the target is Snowflake...
					return rdbms.SnowflakeDDLExec(log, shared.GetDsnConnectionDetails(cfg.TgtConnDetails), stmt)
				}
				return rdbms.DDLExec(log, *cfg.TgtConnDetails, stmt)
			}
			mustExecFn(log, printLogFn, fn)
		}
	}
	return nil
}

// getCreateSchemasDDL renders one create statement per schema name for the target database type.
// ClickHouse and MySQL address schemas as databases.
func getCreateSchemasDDL(targetType string, schemas []string, addTerminator bool) ([]string, error) {
	terminator := ""
	if addTerminator {
		terminator = ";"
	}
	s := make([]string, 0, len(schemas))
	for _, schema := range schemas {
		switch strings.TrimPrefix(targetType, "odbc+") {
		case constants.ConnectionTypeClickhouse, constants.ConnectionTypeMysql:
			s = append(s, fmt.Sprintf("create database if not exists %v%v", schema, terminator))
		case constants.ConnectionTypePostgres, constants.ConnectionTypeSnowflake:
			s = append(s, fmt.Sprintf("create schema if not exists %v%v", schema, terminator))
		case constants.ConnectionTypeSqlServer:
			s = append(s, fmt.Sprintf("if schema_id('%v') is null exec('create schema %v')%v", schema, schema, terminator))
		default:
			return nil, fmt.Errorf("unsupported target database type %q for schema creation", targetType)
		}
	}
	return s, nil
}
