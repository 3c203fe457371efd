package components

import (
	"encoding/csv"
	"fmt"
	"io/ioutil"
	"os"
	"path"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/martpipe/martpipe/constants"
	"github.com/martpipe/martpipe/logger"
	"github.com/martpipe/martpipe/stream"
)

const (
	manifestTestDirField      = "manifestDirField"
	manifestTestFileNameField = "manifestFileNameField"
	manifestTestFullPathField = "manifestFullPathField"
)

// newManifestTestInput supplies two data file names on a closed channel.
func newManifestTestInput() chan stream.Record {
	inputChan := make(chan stream.Record, 2)
	rec1 := stream.NewRecord()
	rec1.SetData("fileName", "test.txt")
	rec2 := stream.NewRecord()
	rec2.SetData("fileName", "test2.txt")
	inputChan <- rec1
	inputChan <- rec2
	close(inputChan)
	return inputChan
}

func newManifestTestConfig(log logger.Logger, inputChan chan stream.Record, dir string, appendStamp bool) *ManifestWriterConfig {
	return &ManifestWriterConfig{
		Log:                     log,
		Name:                    "Test ManifestWriter",
		InputChan:               inputChan,
		InputChanField4FilePath: "fileName",
		OutputDir:               dir,
		ManifestFileNamePrefix:  "test_b",
		ManifestFileNameSuffixAppendCreationStamp: appendStamp,
		ManifestFileNameSuffixDateFormat:          "", // default constants.TimeFormatYearSeconds  // TODO: add test for other time formats.
		ManifestFileNameExtension:                 "man",
		OutputChanField4ManifestDir:               manifestTestDirField,
		OutputChanField4ManifestName:              manifestTestFileNameField,
		OutputChanField4ManifestFullPath:          manifestTestFullPathField,
	}
}

// newManifestTestDir creates a temp dir with a trailing slash to match the
// dir produced by path.Split in the writer.
func newManifestTestDir(t *testing.T) string {
	dir, err := ioutil.TempDir("", "manifest-output-")
	if err != nil {
		t.Fatal("unable to create tmp dir: ", err)
	}
	return strings.TrimRight(dir, "/") + "/"
}

// assertManifestOutputRow validates the dir/name/path fields of the writer's
// output record against the expected regexps and returns the full path.
func assertManifestOutputRow(t *testing.T, log logger.Logger, r stream.Record, dir string, fileNameRegexp string, fullPathRegexp string) string {
	fdir := r.GetDataAsStringPreserveTimeZone(log, manifestTestDirField)
	fname := r.GetDataAsStringPreserveTimeZone(log, manifestTestFileNameField)
	fpath := r.GetDataAsStringPreserveTimeZone(log, manifestTestFullPathField)
	log.Debug("Testing manifest file dir = ", fdir, "; name = ", fname, "; path = ", fpath)
	if fdir != dir {
		t.Fatal("unexpected manifest directory - expected: '", dir, "' got: '", fdir, "'")
	}
	if !regexp.MustCompile(fileNameRegexp).MatchString(fname) {
		t.Fatal("unexpected manifest file name - expected: '", fileNameRegexp, "' got: '", fname, "'")
	}
	if !regexp.MustCompile(fullPathRegexp).MatchString(fpath) {
		t.Fatal("unexpected manifest file path - expected: '", fullPathRegexp, "' got: '", fpath, "'")
	}
	return fpath
}

// TestManifestWriterContents writes a manifest with a timestamped name and
// asserts the header plus one row per input file name.
func TestManifestWriterContents(t *testing.T) {
	log := logger.NewLogger("martpipe", "info", true)
	dir := newManifestTestDir(t)
	defer func() {
		if err := os.Remove(dir); err != nil {
			t.Fatal("unable to remove tmp dir: ", err)
		}
	}()
	sprintPattern := "%v-%v_000001.%v" // pad to match CSV writer.  // TODO: configure padding width in constants.
	fileNameRegexp := fmt.Sprintf(sprintPattern, "test_b", constants.TimeFormatYearSecondsRegex, "man")
	fullPathRegexp := path.Join(dir, fileNameRegexp)
	o, _ := NewManifestWriter(newManifestTestConfig(log, newManifestTestInput(), dir, true))
	for r := range o {
		fpath := assertManifestOutputRow(t, log, r, dir, fileNameRegexp, fullPathRegexp)
		manFile, _ := os.Open(fpath)
		manFileData, _ := csv.NewReader(manFile).ReadAll()
		if manFileData[0][0] != constants.ManifestHeaderColumnName {
			t.Fatal("read bad header record ", manFileData[0][0])
		}
		if manFileData[1][0] != "test.txt" {
			t.Fatal("read bad record ", manFileData[1][0])
		}
		if manFileData[2][0] != "test2.txt" {
			t.Fatal("read bad record ", manFileData[2][0])
		}
		if err := manFile.Close(); err != nil {
			t.Fatal("unable to close file ", fpath, ": ", err)
		}
		if err := os.Remove(fpath); err != nil {
			t.Fatal("unable to remove file ", fpath, ": ", err)
		}
	}
}

// TestManifestWriterNoTimestamp ensures the manifest file name excludes a
// timestamp when the creation stamp suffix is disabled.
func TestManifestWriterNoTimestamp(t *testing.T) {
	log := logger.NewLogger("martpipe", "info", true)
	dir := newManifestTestDir(t)
	defer func() {
		if err := os.Remove(dir); err != nil {
			t.Fatal("unable to remove tmp dir: ", err)
		}
	}()
	fileNameRegexp := "test_b_000001.man" // pad to match CSV writer.
	fullPathRegexp := path.Join(dir, fileNameRegexp)
	o, _ := NewManifestWriter(newManifestTestConfig(log, newManifestTestInput(), dir, false))
	for r := range o {
		fpath := assertManifestOutputRow(t, log, r, dir, fileNameRegexp, fullPathRegexp)
		if err := os.Remove(fpath); err != nil {
			t.Fatal("unable to remove file ", fpath, ": ", err)
		}
	}
}

func TestManifestWriterShutdown(t *testing.T) {
	log := logger.NewLogger("martpipe", "info", true)
	cfg := newManifestTestConfig(log, make(chan stream.Record), os.TempDir(), false)
	_, controlChan := NewManifestWriter(cfg)
	responseChan := make(chan error, 1)
	controlChan <- ControlAction{Action: Shutdown, ResponseChan: responseChan}
	select {
	case <-time.After(3 * time.Second):
		t.Fatal("timeout waiting for ManifestWriter to shutdown.")
	case <-responseChan: // continue.
	}
}
