package shared

import (
	"github.com/pkg/errors"
	"github.com/martpipe/martpipe/constants"
)

var DefaultCsvConnectionKeyNames = struct {
	Dir string
}{
	Dir: "dir",
}

// CsvConnectionDetails points at a directory of CSV files.
// Individual files are addressed as <connection>.<file name> on the command line.
type CsvConnectionDetails struct {
	Dir string `errorTxt:"directory containing CSV files" mandatory:"yes"`
}

func (d CsvConnectionDetails) String() string {
	return d.Dir
}

func (d CsvConnectionDetails) Parse() error {
	if d.Dir == "" { // if the directory is invalid...
		return errors.New("directory not found")
	}
	return nil
}

func (d CsvConnectionDetails) GetScheme() (string, error) {
	return constants.ConnectionTypeCsv, nil
}

func (d CsvConnectionDetails) GetMap(m map[string]string) map[string]string {
	if m == nil {
		m = make(map[string]string)
	}
	m[DefaultCsvConnectionKeyNames.Dir] = d.Dir
	return m
}

// GetCsvConnectionDetails converts generic ConnectionDetails to CsvConnectionDetails
// and returns a pointer to the new struct.
func GetCsvConnectionDetails(c *ConnectionDetails) *CsvConnectionDetails {
	return &CsvConnectionDetails{
		Dir: c.Data[DefaultCsvConnectionKeyNames.Dir],
	}
}
