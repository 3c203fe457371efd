package constants

import (
	"regexp"
	"strings"
	"testing"
)

func TestTimeFormat(t *testing.T) {
	// Check that a time zone component exists in the global time format.
	re := regexp.MustCompile("^.*0700$")
	if !re.MatchString(TimeFormatYearSecondsTZ) {
		t.Fatal("Unexpected time format - missing time zone component.")
	}
	// Check that the global regexp can match constant TimeFormatYearSeconds.
	re = regexp.MustCompile(TimeFormatYearSecondsRegex)
	if !re.MatchString(TimeFormatYearSeconds) {
		t.Fatal("Mismatch between TimeFormatYearSeconds and regexp in constant TimeFormatYearSecondsRegex.")
	}
}

func TestConnectionTypesAreLowerCase(t *testing.T) {
	// Connection types read from the environment are lower-cased before comparison
	// so the constants themselves must be lower case.
	types := []string{
		ConnectionTypeStdout, ConnectionTypeMock, ConnectionTypeSnowflake,
		ConnectionTypeNetezza, ConnectionTypeOdbc, ConnectionTypeOdbcSqlServer,
		ConnectionTypeSqlServer, ConnectionTypePostgres, ConnectionTypeMysql,
		ConnectionTypeClickhouse, ConnectionTypeCsv, ConnectionTypeS3,
	}
	for _, v := range types {
		if v != strings.ToLower(v) {
			t.Fatal("Connection type constant is not lower case: ", v)
		}
	}
}

func TestLayerNames(t *testing.T) {
	if LayerRaw == LayerClean || LayerClean == LayerMart || LayerRaw == LayerMart {
		t.Fatal("Layer names must be distinct.")
	}
}
