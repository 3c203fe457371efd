package file

import (
	"compress/gzip"
	"encoding/csv"
	"os"
	"strings"
	"testing"

	"github.com/martpipe/martpipe/logger"
)

var testHeader = []string{"artist_id", "artist_name"}

var testRows = [][]string{
	{"1", "AC/DC"},
	{"2", "Accept"},
	{"3", "Aerosmith"},
	{"4", "Alanis Morissette"}}

func mustReadCsvFile(t *testing.T, fileName string, gzipped bool) [][]string {
	t.Helper()
	f, err := os.Open(fileName)
	if err != nil {
		t.Fatal("unable to open CSV file ", fileName, ": ", err)
	}
	defer f.Close()
	var rows [][]string
	if gzipped {
		gz, err := gzip.NewReader(f)
		if err != nil {
			t.Fatal("unable to open gzip stream in ", fileName, ": ", err)
		}
		rows, err = csv.NewReader(gz).ReadAll()
		if err != nil {
			t.Fatal("unable to read gzipped CSV ", fileName, ": ", err)
		}
	} else {
		rows, err = csv.NewReader(f).ReadAll()
		if err != nil {
			t.Fatal("unable to read CSV ", fileName, ": ", err)
		}
	}
	return rows
}

func assertCsvRow(t *testing.T, got []string, expected []string) {
	t.Helper()
	if len(got) != len(expected) {
		t.Fatalf("expected row %v; got %v", expected, got)
	}
	for idx := range expected {
		if got[idx] != expected[idx] {
			t.Fatalf("expected row %v; got %v", expected, got)
		}
	}
}

func TestNewCsvFileGenerator(t *testing.T) {
	log := logger.NewLogger("csv test", "debug", true)

	// Test 1 - rotation after maxFileRows, header repeated per file.
	log.Debug("Test 1 - rotation by row count...")
	w := NewCSVFileOutput(log, "", "test", "csv", 3, 0, false)
	w.SetHeader(testHeader)
	fileNames := make([]string, 0)
	for _, row := range testRows {
		if fileName := w.MustWriteToCSV(row); fileName != "" { // if a new file was opened...
			fileNames = append(fileNames, fileName)
		}
	}
	w.Cleanup()
	if len(fileNames) != 2 {
		t.Fatal("expected 4 rows with maxFileRows 3 to produce 2 files; got: ", fileNames)
	}
	if len(w.ListOfOutputFiles) != 2 {
		t.Fatal("expected ListOfOutputFiles to record both files; got: ", w.ListOfOutputFiles)
	}
	file1 := mustReadCsvFile(t, fileNames[0], false)
	if len(file1) != 4 { // header plus three rows.
		t.Fatal("expected 4 lines in the first file; got: ", len(file1))
	}
	assertCsvRow(t, file1[0], testHeader)
	assertCsvRow(t, file1[1], testRows[0])
	assertCsvRow(t, file1[2], testRows[1])
	assertCsvRow(t, file1[3], testRows[2])
	file2 := mustReadCsvFile(t, fileNames[1], false)
	if len(file2) != 2 { // header plus the overflow row.
		t.Fatal("expected 2 lines in the second file; got: ", len(file2))
	}
	assertCsvRow(t, file2[0], testHeader)
	assertCsvRow(t, file2[1], testRows[3])

	// Test 2 - gzip output normalises the extension and compresses the stream.
	log.Debug("Test 2 - gzip output...")
	wz := NewCSVFileOutput(log, "", "test", "csv", 4, 0, true)
	wz.SetHeader(testHeader)
	fileNames = fileNames[:0]
	for _, row := range testRows {
		if fileName := wz.MustWriteToCSV(row); fileName != "" {
			if !strings.HasSuffix(fileName, ".gz") {
				t.Fatal("csv file is missing .gz extension: ", fileName)
			}
			fileNames = append(fileNames, fileName)
		}
	}
	wz.Cleanup()
	if len(fileNames) != 1 {
		t.Fatal("expected 4 rows with maxFileRows 4 to produce 1 file; got: ", fileNames)
	}
	gzRows := mustReadCsvFile(t, fileNames[0], true)
	if len(gzRows) != 5 {
		t.Fatal("expected 5 lines in the gzipped file; got: ", len(gzRows))
	}
	assertCsvRow(t, gzRows[0], testHeader)
	assertCsvRow(t, gzRows[4], testRows[3])
}
