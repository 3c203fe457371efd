package file

import (
	"bufio"
	"compress/gzip"
	"encoding/csv"
	"fmt"
	"io/ioutil"
	"os"
	"path"
	"regexp"

	"github.com/martpipe/martpipe/logger"
)

// reGzipExtension strips leading dots and any trailing gz/gzip so we can
// normalise user supplied extensions to end ".gz".
var reGzipExtension = regexp.MustCompile(`^(.*?)(\.*)(?i)(gzip|gz){0,}$`)

// CSVFileOutput writes CSV rows to a sequence of rotating files, optionally
// gzip compressed. Rotation happens when either the row or byte limit for the
// current file is reached; each new file repeats the header row.
type CSVFileOutput struct {
	log               logger.Logger
	directory         string // empty at construction time means a generated temp directory.
	prefix            string
	extension         string
	headerRecord      []string
	csvWriter         *csv.Writer
	file              *os.File
	gzWriter          *gzip.Writer
	fWriter           *bufio.Writer
	useGzip           bool
	currentSuffixID   int
	currentName       string
	maxFileRows       int
	maxFileBytes      int
	currentRowCount   int
	currentBytesCount int
	totalRowCount     int
	needNewCSVFile    bool
	needFileCleanup   bool
	needCSVCleanup    bool
	needHeaderRow     bool
	ListOfOutputFiles []string // every file name created over the life of this writer.
}

// NewCSVFileOutput returns a rotating CSV file writer.
// An empty outputDirectory selects a fresh ioutil.TempDir.
// maxFileRows and maxFileBytes of 0 disable the respective rotation limit; the
// byte limit is only checked per row written and forces a flush per row, which
// is slow. useGzip compresses each file and forces the extension to ".gz".
func NewCSVFileOutput(log logger.Logger, outputDirectory string, fileNamePrefix string, fileNameExtension string, maxFileRows int, maxFileBytes int, useGzip bool) CSVFileOutput {
	w := CSVFileOutput{
		log:            log,
		prefix:         fileNamePrefix,
		extension:      fileNameExtension,
		maxFileRows:    maxFileRows,
		maxFileBytes:   maxFileBytes,
		useGzip:        useGzip,
		needNewCSVFile: true,
		needHeaderRow:  true,
	}
	if outputDirectory == "" { // if the caller wants temp space...
		var err error
		w.directory, err = ioutil.TempDir("", "csv-output-")
		if err != nil {
			log.Panic("Error creating temp directory for CSV files.")
		}
	} else {
		w.directory = outputDirectory
	}
	if useGzip {
		w.extension = reGzipExtension.ReplaceAllString(w.extension, "$1.gz")
	}
	log.Debug("CSVFileOutput file prefix=", w.prefix, "; current suffix=", w.currentSuffixID,
		"; extension=", w.extension, "; maxFileRows=", w.maxFileRows, "; maxFileBytes=", w.maxFileBytes,
		"; useGzip=", w.useGzip)
	return w
}

// SetHeader stores the header row repeated at the top of every file created.
func (w *CSVFileOutput) SetHeader(record []string) {
	w.headerRecord = record
}

// Write satisfies io.Writer so the csv.Writer can write through us while we
// count bytes. When a byte limit is set, hitting it flags a file rotation.
func (w *CSVFileOutput) Write(p []byte) (n int, err error) {
	if w.useGzip { // if the bytes route through the gzip writer...
		n, err = w.fWriter.Write(p)
	} else {
		n, err = w.file.Write(p)
	}
	w.currentBytesCount += n
	w.log.Trace("currentBytesCount = ", w.currentBytesCount)
	if limitReached(w.maxFileBytes, w.currentBytesCount) {
		w.needNewCSVFile = true
	}
	return n, err
}

// MustWriteToCSV appends record to the current CSV file, opening the next file
// in the sequence first if a rotation is due. It returns the new file's name
// when one was created, else the empty string.
func (w *CSVFileOutput) MustWriteToCSV(record []string) (fileName string) {
	w.log.Trace("Writing record...", record)
	if w.needNewCSVFile {
		w.closeCSVFileAndReset()
		w.openNextFile()
		fileName = w.file.Name()
		if w.needHeaderRow && w.headerRecord != nil { // if a header should lead the new file...
			w.log.Trace("Writing file header: ", w.headerRecord)
			if err := w.csvWriter.Write(w.headerRecord); err != nil {
				w.log.Panic("Unable to write header to CSV file.")
			}
		}
	}
	if err := w.csvWriter.Write(record); err != nil {
		w.log.Panic("Unable to write to CSV file.")
	}
	if w.maxFileBytes > 0 { // if we are policing a byte limit...
		// Flush per row so the count in Write() stays honest. Expensive!
		w.csvWriter.Flush()
	}
	w.currentRowCount++
	w.totalRowCount++
	if limitReached(w.maxFileRows, w.currentRowCount) { // if this file is full...
		w.needNewCSVFile = true
	}
	return
}

// Cleanup flushes and closes the current file. Defer it after construction.
func (w *CSVFileOutput) Cleanup() {
	w.closeCSVFileAndReset()
}

func limitReached(max int, current int) bool {
	return max > 0 && current >= max
}

// closeCSVFileAndReset flushes and closes whatever is open, then primes the
// struct so the next write starts a fresh file.
func (w *CSVFileOutput) closeCSVFileAndReset() {
	if w.needCSVCleanup {
		w.flushAll()
		w.needCSVCleanup = false
	}
	if w.needFileCleanup {
		w.closeAll()
		w.needFileCleanup = false
	}
	w.needNewCSVFile = true
	w.currentRowCount = 0
	w.currentBytesCount = 0
}

func (w *CSVFileOutput) flushAll() {
	w.csvWriter.Flush()
	if w.useGzip { // if the buffered and gzip layers need flushing too...
		if err := w.fWriter.Flush(); err != nil {
			w.log.Panic(err)
		}
		if err := w.gzWriter.Flush(); err != nil {
			w.log.Panic(err)
		}
	}
}

func (w *CSVFileOutput) closeAll() {
	if w.useGzip { // the gzip writer must close before the file underneath it.
		if err := w.gzWriter.Close(); err != nil {
			w.log.Panic(err)
		}
	}
	if err := w.file.Close(); err != nil {
		w.log.Panic("unable to close OS file: ", w.currentName, "; ", err)
	}
}

// openNextFile creates the next file in the sequence and wires the CSV writer
// to it, via gzip when compression is on.
func (w *CSVFileOutput) openNextFile() {
	w.currentSuffixID++
	w.currentName = path.Join(w.directory, fmt.Sprintf("%v_%06d.%v", w.prefix, w.currentSuffixID, w.extension))
	w.ListOfOutputFiles = append(w.ListOfOutputFiles, w.currentName)
	w.log.Info("Creating new CSV file '", w.currentName, "'")
	var err error
	w.file, err = os.Create(w.currentName)
	if err != nil {
		w.log.Panic("Unable to create OS file with name: ", w.currentName)
	}
	if w.useGzip { // if writes should route through gzip...
		w.gzWriter = gzip.NewWriter(w.file)
		w.fWriter = bufio.NewWriter(w.gzWriter)
	}
	w.csvWriter = csv.NewWriter(w)
	w.needFileCleanup = true
	w.needCSVCleanup = true
	w.needHeaderRow = true
	w.needNewCSVFile = false
}
