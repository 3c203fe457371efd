package components_test

import (
	"os"
	"path"
	"testing"

	"github.com/martpipe/martpipe/aws/s3"
	"github.com/martpipe/martpipe/components"
	"github.com/martpipe/martpipe/logger"
)

// TestS3BucketListInput uploads a test file to S3 then proves NewS3BucketList
// produces a record for it carrying the expected name and bucket fields.
// TODO: find a way to mock S3 and supply that mock to the NewCopyFilesToS3 code!
func TestS3BucketListInput(t *testing.T) {
	log := logger.NewLogger("martpipe", "info", true)
	bucket := "test.martpipe.io"
	region := "eu-west-2"
	prefix := "my-test-prefix"
	s := s3.NewBasicClient(bucket, region, prefix) // client to set up and tear down the bucket contents.
	sourceFile := "testdata/test-file-1.csv"
	outputField4FileName := "filename"
	outputField4FileNameWithoutPrefix := "filenameWithoutPrefix"

	// Put the testdata file onto S3 and clean it up afterwards.
	_, fileName := path.Split(sourceFile)
	f, err := os.Open(sourceFile) // File implements io.ReadSeeker for BufferPut.
	if err != nil {
		log.Panic("Unable to open file, ", fileName)
	}
	defer func() {
		_ = f.Close()
	}()
	if err = s.BufferPut(fileName, f); err != nil {
		log.Panic(err)
	}
	defer func() {
		if err := s.Delete(fileName); err != nil {
			log.Panic(err)
		}
	}()

	log.Info("Test 1 - confirm we can list the bucket...")
	outputChan, controlChan := components.NewS3BucketList(&components.S3BucketListerConfig{
		Log:                               log,
		Name:                              "Test S3BucketLister",
		BucketName:                        bucket,
		BucketPrefix:                      prefix,
		Region:                            region,
		ObjectNamePrefix:                  fileName,
		OutputField4FileName:              outputField4FileName,
		OutputField4FileNameWithoutPrefix: outputField4FileNameWithoutPrefix,
	})
	for rec := range outputChan { // for each object found on S3...
		log.Debug("Test 1 - found S3 file: '", rec.GetData(outputField4FileName), "'")
		expectedFile := prefix + "/" + fileName
		if rec.GetData(outputField4FileName) != expectedFile {
			t.Fatal("Incorrect file path found on S3. Found: '", rec.GetData(outputField4FileName), "' expected '", expectedFile, "'")
		}
		if rec.GetData(outputField4FileNameWithoutPrefix) != fileName {
			t.Fatal("Incorrect file name found on S3. Found: '", rec.GetData(outputField4FileNameWithoutPrefix), "' expected '", fileName, "'")
		}
		if rec.GetData(components.Defaults.ChanField4BucketName) != bucket {
			t.Fatal("Unexpected bucket name")
		}
		if rec.GetData(components.Defaults.ChanField4BucketPrefix) != prefix {
			t.Fatal("Unexpected bucket prefix")
		}
		if rec.GetData(components.Defaults.ChanField4BucketRegion) != region {
			t.Fatal("Unexpected region name")
		}
	}

	log.Info("Test 2 - confirm S3BucketList returns a control channel...")
	// TODO: add mock S3 client to S3BucketList component to test that it respects shutdown requests.
	if controlChan == nil {
		t.Fatal("S3BucketList returned nil controlChan")
	}
}
