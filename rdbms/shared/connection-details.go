package shared

import (
	"fmt"
	"strings"

	"github.com/martpipe/martpipe/constants"
	"github.com/xo/dburl"
)

// ConnectionDetails holds credentials for a logical database connection.
type ConnectionDetails struct {
	Type        string            `json:"type" errorTxt:"database type" mandatory:"yes" yaml:"type"`
	LogicalName string            `json:"logicalName" errorTxt:"database logical name" mandatory:"yes" yaml:"logicalName"`
	Data        map[string]string `json:"data" yaml:"data"`
}

// String pretty-prints the connection with passwords redacted.
// TODO: add tests for "dsn" redaction of passwords.
func (c ConnectionDetails) String() string {
	x := make([]string, 0, len(c.Data))
	x = append(x, fmt.Sprintf("  type = %v", c.Type))
	v, ok := c.Data["dsn"]
	if !ok { // no DSN (could be an S3 connection); print the raw key-values.
		for k, v := range c.Data {
			if k == "password" {
				v = "xxxxx"
			}
			x = append(x, fmt.Sprintf("  %v = %v", k, v))
		}
		return strings.Join(x, "\n")
	}
	// Redact the DSN. Netezza needs explicit parsing since its DSN format
	// isn't compatible with dburl.
	switch c.Type {
	case constants.ConnectionTypeNetezza:
		n := NetezzaConnectionDetails{Dsn: v, OriginalScheme: constants.ConnectionTypeNetezza}
		v = n.String()
	default:
		u, err := dburl.Parse(v)
		if err != nil {
			panic(fmt.Sprintf("unexpected error while parsing DSN: %v", err))
		}
		v = u.Redacted()
	}
	x = append(x, fmt.Sprintf("  dsn = %v", v))
	return strings.Join(x, "\n")
}

// MustGetDateFilterSql returns a database-specific SQL snippet for use in a
// date-time filter predicate. The ${date} marker in the template is replaced
// with ${dateVarName}, which the caller substitutes later.
func (c ConnectionDetails) MustGetDateFilterSql(dateVarName string) string {
	var t string
	switch c.Type {
	case constants.ConnectionTypeSqlServer, constants.ConnectionTypeOdbcSqlServer:
		t = `convert(datetime, stuff(stuff(stuff(stuff('${date}', 5, 0, '-'), 8, 0, '-'), 14, 0, ':'), 17, 0, ':'))`
	case constants.ConnectionTypeSnowflake, constants.ConnectionTypePostgres, constants.ConnectionTypeNetezza, constants.ConnectionTypeMock:
		t = `to_timestamp('${date}','YYYYMMDD"T"HH24MISS')`
	case constants.ConnectionTypeMysql:
		t = `str_to_date('${date}','%Y%m%dT%H%i%s')`
	case constants.ConnectionTypeClickhouse:
		t = `parseDateTimeBestEffort('${date}')`
	}
	if t == "" {
		panic(fmt.Sprintf("unsupported database type %q in call to get SQL date/time conversion template", c.Type))
	}
	return strings.Replace(t, "${date}", fmt.Sprintf("${%v}", dateVarName), 1)
}

func (c ConnectionDetails) MustGetSysDateSql() string {
	switch c.Type {
	case constants.ConnectionTypeSqlServer, constants.ConnectionTypeOdbcSqlServer:
		return "sysdatetime()"
	case constants.ConnectionTypeMysql, constants.ConnectionTypeClickhouse:
		return "now()"
	case constants.ConnectionTypeSnowflake, constants.ConnectionTypePostgres, constants.ConnectionTypeNetezza, constants.ConnectionTypeMock:
		return "current_timestamp"
	default:
		panic(fmt.Sprintf("unsupported database type %q in call to get SQL for current date", c.Type))
	}
}

// DBConnections is used by transform code and JSON pipeline definitions.
type DBConnections map[string]ConnectionDetails

// LoadConnection replaces (*c)[connectionName] with the version loaded via
// the supplied getter. Loading keys on the connection's logical name, not
// connectionName.
func (c *DBConnections) LoadConnection(i ConnectionGetter, connectionName string) error {
	conn := (*c)[connectionName]
	d, err := i.LoadConnection(conn.LogicalName)
	if err != nil {
		return err
	}
	(*c)[connectionName] = d
	return nil
}
