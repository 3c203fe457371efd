package file

import (
	"compress/gzip"
	"encoding/csv"
	"io"
	"os"
	"regexp"

	"github.com/martpipe/martpipe/logger"
)

var gzipExtensionRegexp = regexp.MustCompile(`(?i)\.(gzip|gz)$`)

// CSVFileInput is a Reader that yields records from a single CSV file.
// Files whose name ends ".gz" or ".gzip" are decompressed transparently.
type CSVFileInput struct {
	log           logger.Logger
	fileName      string
	file          *os.File
	gzReader      *gzip.Reader
	csvReader     *csv.Reader
	useGzip       bool
	totalRowCount int
}

// NewCSVFileInput opens fileName for reading. Use MustReadRecord to fetch rows and
// defer Cleanup to close the OS file.
func NewCSVFileInput(log logger.Logger, fileName string) CSVFileInput {
	f := CSVFileInput{}
	f.log = log
	f.fileName = fileName
	var err error
	f.file, err = os.Open(fileName)
	if err != nil {
		log.Panic("unable to open CSV file: ", fileName, "; ", err)
	}
	f.useGzip = gzipExtensionRegexp.MatchString(fileName)
	if f.useGzip { // if the file is compressed...
		f.gzReader, err = gzip.NewReader(f.file)
		if err != nil {
			log.Panic("unable to open gzip CSV file: ", fileName, "; ", err)
		}
		f.csvReader = csv.NewReader(f.gzReader)
	} else { // else read the file directly...
		f.csvReader = csv.NewReader(f.file)
	}
	log.Debug("CSVFileInput file=", f.fileName, "; useGzip=", f.useGzip)
	return f
}

// MustReadRecord returns the next CSV record, with ok false at end of file.
func (f *CSVFileInput) MustReadRecord() (record []string, ok bool) {
	record, err := f.csvReader.Read()
	if err == io.EOF { // if we ran out of rows...
		return nil, false
	}
	if err != nil {
		f.log.Panic("unable to read from CSV file: ", f.fileName, "; ", err)
	}
	f.totalRowCount++
	return record, true
}

// TotalRowCount returns the number of records read so far, including any header row.
func (f *CSVFileInput) TotalRowCount() int {
	return f.totalRowCount
}

// Cleanup can be deferred by the caller to close the OS file.
func (f *CSVFileInput) Cleanup() {
	if f.useGzip { // if we should close the gzip reader first...
		if err := f.gzReader.Close(); err != nil { // if the gzip didn't close OK...
			f.log.Panic(err)
		}
	}
	if err := f.file.Close(); err != nil { // if the file didn't close OK...
		f.log.Panic("unable to close OS file: ", f.fileName, "; ", err)
	}
}
