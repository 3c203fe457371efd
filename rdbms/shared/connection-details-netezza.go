package shared

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/martpipe/martpipe/constants"
	"github.com/martpipe/martpipe/helper"
)

var (
	reNetezzaDsn      = regexp.MustCompile(`^netezza://.+?/.+?@//.+:[0-9]+/.+$`)
	reNetezzaDsnCreds = regexp.MustCompile(`^(netezza://.+?)/.+?@`)
)

type NetezzaConnectionDetails struct {
	Dsn            string `errorTxt:"data source name i.e. connect string" mandatory:"yes"`
	OriginalScheme string
}

// String returns the DSN with the password redacted.
func (d NetezzaConnectionDetails) String() string {
	return reNetezzaDsnCreds.ReplaceAllString(d.Dsn, "$1/xxxxx@")
}

func (d NetezzaConnectionDetails) Parse() error {
	if !reNetezzaDsn.MatchString(d.Dsn) {
		return errors.New("unsupported Netezza DSN format")
	}
	return nil
}

func (d NetezzaConnectionDetails) GetScheme() (string, error) {
	return constants.ConnectionTypeNetezza, nil
}

func (d NetezzaConnectionDetails) GetMap(m map[string]string) map[string]string {
	if m == nil {
		m = make(map[string]string)
	}
	m[DefaultDsnConnectionKeyNames.Dsn] = d.Dsn
	return m
}

// GetNzgoConnectionString converts the URL style DSN into the space separated
// key=value form that the nzgo library expects.
// https://pkg.go.dev/github.com/IBM/nzgo
func (d NetezzaConnectionDetails) GetNzgoConnectionString() (string, error) {
	if !reNetezzaDsn.MatchString(d.Dsn) {
		return "", errors.New("unsupported Netezza DSN format")
	}
	dsn := strings.TrimPrefix(d.Dsn, constants.ConnectionTypeNetezza+"://")
	userPwd, theRest := helper.SplitRight(dsn, `@`) // TODO: allow netezza and Snowflake passwords to be single quoted!
	user, pass := helper.SplitRight(userPwd, `/`)
	hostPort, dbNameParams := helper.SplitRight(theRest, `/`)
	host, port := helper.SplitRight(hostPort, `:`)
	host = strings.TrimLeft(host, "/")
	dbName, params := helper.SplitRight(dbNameParams, `?`)
	params = strings.ReplaceAll(params, "&", " ") // nzgo separates params with spaces.
	// TODO: find and apply default netezza connection parameters
	return strings.TrimSpace(fmt.Sprintf(
		"user=%s password='%s' host=%s port=%s dbname=%s logLevel=Off %s",
		user, pass, host, port, dbName, params)), nil
}
