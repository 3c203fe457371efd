package components

import (
	"compress/gzip"
	"io/ioutil"
	"os"
	"path"
	"testing"
	"time"

	"github.com/martpipe/martpipe/logger"
	"github.com/martpipe/martpipe/stream"
)

func TestNewCsvFileInput(t *testing.T) {
	log := logger.NewLogger("csv file input test", "info", true)
	// Tmp input dir and fixture files.
	dir, err := ioutil.TempDir("", "test-csv-file-input-")
	if err != nil {
		t.Fatal("Unable to create tmp dir: ", err)
	}
	defer func() {
		if err := os.RemoveAll(dir); err != nil {
			log.Panic("unable to remove tmp dir")
		}
	}()
	file1 := path.Join(dir, "album.csv")
	if err := ioutil.WriteFile(file1, []byte("album_id,title\n1,For Those About To Rock We Salute You\n2,Balls to the Wall\n"), 0644); err != nil {
		t.Fatal("unable to write CSV fixture: ", err)
	}
	file2 := path.Join(dir, "genre.csv")
	if err := ioutil.WriteFile(file2, []byte("genre_id,name\n1,Rock\n"), 0644); err != nil {
		t.Fatal("unable to write CSV fixture: ", err)
	}

	// Test 1 - field names come from the file header.
	log.Info("Test 1 - field names come from the file header...")
	cfg := &CsvFileInputConfig{
		Log:      log,
		Name:     "Test CsvFileInput",
		FileName: file1,
	}
	outputChan, _ := NewCsvFileInput(cfg)
	recs := make([]stream.Record, 0)
	for rec := range outputChan {
		recs = append(recs, rec)
	}
	if len(recs) != 2 {
		t.Fatal("expected 2 records from the CSV file; got: ", len(recs))
	}
	if got := recs[0].GetData("album_id"); got != "1" {
		t.Fatal("expected album_id field value '1'; got: ", got)
	}
	if got := recs[1].GetData("title"); got != "Balls to the Wall" {
		t.Fatal("expected title field value 'Balls to the Wall'; got: ", got)
	}

	// Test 2 - explicit header fields override the file header.
	log.Info("Test 2 - explicit header fields override the file header...")
	cfg2 := &CsvFileInputConfig{
		Log:              log,
		Name:             "Test CsvFileInput",
		FileName:         file1,
		HeaderFields:     []string{"id", "name"},
		FileHasHeaderRow: true,
	}
	outputChan2, _ := NewCsvFileInput(cfg2)
	recs2 := make([]stream.Record, 0)
	for rec := range outputChan2 {
		recs2 = append(recs2, rec)
	}
	if len(recs2) != 2 {
		t.Fatal("expected 2 records from the CSV file; got: ", len(recs2))
	}
	if got := recs2[0].GetData("id"); got != "1" {
		t.Fatal("expected id field value '1'; got: ", got)
	}
	if got := recs2[0].GetData("album_id"); got != nil {
		t.Fatal("expected the file header name to be replaced; got album_id = ", got)
	}

	// Test 3 - file names are read from the input channel and stamped on output rows.
	log.Info("Test 3 - file names are read from the input channel and stamped on output rows...")
	in := make(chan stream.Record, 2)
	r1 := stream.NewRecord()
	r1.SetData("#filePath", file1)
	r2 := stream.NewRecord()
	r2.SetData("#filePath", file2)
	in <- r1
	in <- r2
	close(in)
	cfg3 := &CsvFileInputConfig{
		Log:                      log,
		Name:                     "Test CsvFileInput",
		InputChan:                in,
		InputChanField4FilePath:  "#filePath",
		OutputChanField4FileName: "#sourceFile",
	}
	outputChan3, _ := NewCsvFileInput(cfg3)
	recs3 := make([]stream.Record, 0)
	for rec := range outputChan3 {
		recs3 = append(recs3, rec)
	}
	if len(recs3) != 3 { // 2 album rows + 1 genre row.
		t.Fatal("expected 3 records from 2 CSV files; got: ", len(recs3))
	}
	if got := recs3[2].GetData("#sourceFile"); got != file2 {
		t.Fatal("expected the source file to be stamped on the output record; got: ", got)
	}

	// Test 4 - gzip compressed files are decompressed transparently.
	log.Info("Test 4 - gzip compressed files are decompressed transparently...")
	file3 := path.Join(dir, "track.csv.gz")
	fp, err := os.Create(file3)
	if err != nil {
		t.Fatal("unable to create gzip CSV fixture: ", err)
	}
	gz := gzip.NewWriter(fp)
	if _, err := gz.Write([]byte("track_id,name\n1,Breaking The Rules\n")); err != nil {
		t.Fatal("unable to write gzip CSV fixture: ", err)
	}
	if err := gz.Close(); err != nil {
		t.Fatal("unable to close gzip writer: ", err)
	}
	if err := fp.Close(); err != nil {
		t.Fatal("unable to close gzip CSV fixture: ", err)
	}
	cfg4 := &CsvFileInputConfig{
		Log:      log,
		Name:     "Test CsvFileInput",
		FileName: file3,
	}
	outputChan4, _ := NewCsvFileInput(cfg4)
	count4 := 0
	for rec := range outputChan4 {
		if got := rec.GetData("track_id"); got != "1" {
			t.Fatal("expected track_id field value '1'; got: ", got)
		}
		count4++
	}
	if count4 != 1 {
		t.Fatal("expected 1 record from the gzip CSV file; got: ", count4)
	}

	// Test 5 - CsvFileInput handles shutdown requests.
	log.Info("Test 5 - CsvFileInput handles shutdown requests...")
	in5 := make(chan stream.Record, 1)
	cfg5 := &CsvFileInputConfig{
		Log:       log,
		Name:      "Test CsvFileInput",
		InputChan: in5,
	}
	_, controlChan := NewCsvFileInput(cfg5)
	responseChan := make(chan error, 1)
	controlChan <- ControlAction{Action: Shutdown, ResponseChan: responseChan}
	select {
	case <-time.After(3 * time.Second):
		t.Fatal("timeout waiting for CsvFileInput to shutdown")
	case <-responseChan:
		// continue
	}
}
