package actions

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"
	"github.com/martpipe/martpipe/aws/s3"
	"github.com/martpipe/martpipe/config"
	"github.com/martpipe/martpipe/constants"
	"github.com/martpipe/martpipe/helper"
	"github.com/martpipe/martpipe/logger"
	"github.com/martpipe/martpipe/rdbms"
	"github.com/martpipe/martpipe/rdbms/shared"
	"github.com/xo/dburl"
)

type ConnectionConfig struct {
	ConfigFile        ConnectionGetterSetter
	LogicalName       string
	Type              string
	ConnDetails       ConnectionValidator // type in (DsnConnectionDetails, CsvConnectionDetails, NetezzaConnectionDetails, AwsS3Bucket)
	Force             bool
	MustUseOdbcScheme bool
}

func RunConnectionAdd(cfg *ConnectionConfig) error {
	// Setup the basics ready to be persisted below.
	connection := shared.ConnectionDetails{
		LogicalName: cfg.LogicalName,
		Type:        cfg.Type,
		Data:        make(map[string]string),
	}
	if err := helper.ValidateStructIsPopulated(connection); err != nil { // if the basics were not supplied...
		return err
	}
	// Validate connection name.
	if strings.Index(cfg.LogicalName, ".") > 0 {
		return fmt.Errorf("connection name cannot contain period characters '.' as they're used to split data sources e.g. <connection>[[.<schema>].<object>]")
	}
	// Validate DSN and metadata based on connection type.
	var err error
	if err := cfg.ConnDetails.Parse(); err != nil {
		return errors.Wrap(err, "unable to create connection")
	}
	connection.Type, err = cfg.ConnDetails.GetScheme() // save the full connection type e.g. odbc+sqlserver, since pure sqlserver will be using the Go native module.
	if err != nil {
		return err
	}
	// Check that DSN is valid for the given database type.
	// 1) For type=odbc, the original scheme must match those types listed for 'connection add odbc' subcommand.
	// 2) For non-ODBC, this must match any of those types listed in ActionFuncs.
	switch cfg.Type { // switch on the database type...
	case constants.ConnectionTypeOdbc: // type == "odbc" is set by the caller and is overridden below!
		m := getSupportedConnectionTypesMap("", constants.ConnectionTypeOdbc)
		_, ok := m[connection.Type]
		if !ok { // if the ODBC connection type is NOT supported by any of the ActionFunc entries...
			// Return an error.
			return fmt.Errorf("%v is an unsupported ODBC connection type, please use one of these: %v", connection.Type, GetSupportedOdbcConnectionTypes())
		}
	}
	cfg.ConnDetails.GetMap(connection.Data)
	// Check for an existing saved connection.
	tmpConn := &shared.ConnectionDetails{}
	err = cfg.ConfigFile.Get(cfg.LogicalName, tmpConn)
	if err != nil { // if there is an error finding the connection...
		if errors.Is(err, config.FileNotFoundError{}) { // if the error is real...
			return err
		}
	} else if tmpConn.LogicalName != "" && !cfg.Force { // else if the connection exists, but we are not allowed to overwrite it...
		return fmt.Errorf("connection exists, use force to update the connection or remove it first")
	}
	// Set config (creates the file if missing).
	err = cfg.ConfigFile.Set(cfg.LogicalName, &connection)
	if err != nil {
		return fmt.Errorf("error writing connections config file after adding: %v", err)
	}
	fmt.Printf("Connection %q added\n", cfg.LogicalName)
	return nil
}

func RunConnectionRemove(cfg *ConnectionConfig) error {
	if err := helper.ValidateStructIsPopulated(cfg); err != nil { // if the basics were not supplied...
		return err
	}
	err := cfg.ConfigFile.Delete(cfg.LogicalName)
	if err != nil {
		return fmt.Errorf("unable to delete connection %q from config: %v", cfg.LogicalName, err)
	}
	fmt.Printf("Connection %q removed\n", cfg.LogicalName)
	return nil
}

type ConnectionListConfig struct {
	ConfigFile ConnectionLister
	Writer     io.Writer // optional override for testing; defaults to os.Stdout.
}

// RunConnectionList renders the connections found in the config store as a table
// on STDOUT, with DSN passwords redacted.
func RunConnectionList(cfg *ConnectionListConfig) error {
	keys, err := cfg.ConfigFile.GetAllKeys()
	if err != nil {
		return err
	}
	sort.Strings(keys)
	w := cfg.Writer
	if w == nil {
		w = os.Stdout
	}
	t := tablewriter.NewWriter(w)
	t.SetHeader([]string{"Connection", "Type", "Details"})
	t.SetBorder(false)
	t.SetAutoWrapText(false)
	t.SetAlignment(tablewriter.ALIGN_LEFT)
	for _, k := range keys { // for each connection name...
		conn := shared.ConnectionDetails{}
		if err := cfg.ConfigFile.Get(k, &conn); err != nil {
			return fmt.Errorf("unable to read connection %q from config: %v", k, err)
		}
		t.Append([]string{k, conn.Type, getRedactedConnectionData(&conn)})
	}
	t.Render()
	return nil
}

// getRedactedConnectionData returns a one-line rendition of the connection data.
// Connections that hold a DSN have their password redacted.
func getRedactedConnectionData(c *shared.ConnectionDetails) string {
	if v, ok := c.Data[shared.DefaultDsnConnectionKeyNames.Dsn]; ok { // if there's a DSN...
		switch c.Type {
		case constants.ConnectionTypeNetezza: // the format of Netezza DSNs isn't compatible with dburl...
			n := shared.NetezzaConnectionDetails{Dsn: v, OriginalScheme: constants.ConnectionTypeNetezza}
			return n.String()
		default:
			u, err := dburl.Parse(v)
			if err != nil { // if the DSN won't parse, show it unredacted rather than nothing...
				return v
			}
			return u.Redacted()
		}
	}
	// No DSN (could be a CSV or S3 connection).
	keys := make([]string, 0, len(c.Data))
	for k := range c.Data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	x := make([]string, 0, len(keys))
	for _, k := range keys {
		v := c.Data[k]
		if k == "password" {
			v = "xxxxx"
		}
		x = append(x, fmt.Sprintf("%v=%v", k, v))
	}
	return strings.Join(x, " ")
}

type ConnectionTestConfig struct {
	Connections      ConnectionHandler
	ConnectionName   string `errorTxt:"connection name" mandatory:"yes"`
	LogLevel         string `errorTxt:"log level" mandatory:"yes"`
	StackDumpOnPanic bool
}

// RunConnectionTest confirms that the named connection is usable.
// Database types are opened and pinged; CSV directories are checked for existence;
// S3 buckets are listed.
func RunConnectionTest(cfg *ConnectionTestConfig) error {
	if err := helper.ValidateStructIsPopulated(cfg); err != nil {
		return err
	}
	log := logger.NewLogger("martpipe", cfg.LogLevel, cfg.StackDumpOnPanic)
	conn, err := cfg.Connections.GetConnectionDetails(cfg.ConnectionName)
	if err != nil {
		return err
	}
	switch conn.Type {
	case constants.ConnectionTypeCsv:
		c := shared.GetCsvConnectionDetails(conn)
		fi, err := os.Stat(c.Dir)
		if err != nil {
			return fmt.Errorf("unable to read CSV directory %q: %v", c.Dir, err)
		}
		if !fi.IsDir() {
			return fmt.Errorf("CSV connection path %q is not a directory", c.Dir)
		}
	case constants.ConnectionTypeS3:
		b := s3.NewAwsBucket(conn)
		if err := b.Parse(); err != nil {
			return err
		}
		if _, err := s3.NewBasicClient(b.Name, b.Region, b.Prefix).List(""); err != nil {
			return fmt.Errorf("unable to list S3 bucket %q: %v", b.Name, err)
		}
	case constants.ConnectionTypeStdout:
		return fmt.Errorf("connection type %q does not require a test", conn.Type)
	default: // database types...
		db, err := rdbms.OpenDbConnection(log, *conn)
		if err != nil {
			return errors.Wrapf(err, "unable to open connection %q", cfg.ConnectionName)
		}
		db.Close()
	}
	fmt.Printf("Connection %q OK\n", cfg.ConnectionName)
	return nil
}
