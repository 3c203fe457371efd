package components

import (
	"log"
	"os"
	"path"
	"strings"
	"sync/atomic"

	"github.com/martpipe/martpipe/aws/s3"
	c "github.com/martpipe/martpipe/constants"
	"github.com/martpipe/martpipe/logger"
	"github.com/martpipe/martpipe/stats"
	"github.com/martpipe/martpipe/stream"
)

type CopyFilesToS3Config struct {
	Log               logger.Logger
	Name              string
	InputChan         chan stream.Record // records carrying full paths of files to copy/move to S3.
	FileNameChanField string             // field in InputChan that contains the file path.
	BucketName        string             // target bucket.
	BucketPrefix      string
	Region            string
	RemoveInputFiles  bool // delete the local file after a successful copy to S3.
	StepWatcher       *stats.StepWatcher
	WaitCounter       ComponentWaiter
	PanicHandlerFn    PanicHandlerFunc
}

// NewCopyFilesToS3 copies OS files to S3, one per input record, passing the
// input records through to outputChan. It does not currently add details of
// the S3 bucket to the output row.
func NewCopyFilesToS3(i interface{}) (outputChan chan stream.Record, controlChan chan ControlAction) {
	cfg := i.(*CopyFilesToS3Config)
	if cfg.PanicHandlerFn != nil {
		defer cfg.PanicHandlerFn()
	}
	if cfg.InputChan == nil {
		cfg.Log.Panic(cfg.Name, " error - missing chan input in call to NewCopyFilesToS3.")
	}
	if cfg.FileNameChanField == "" {
		cfg.Log.Panic(cfg.Name, " error - missing the field name used to find files on the input channel.")
	}
	if cfg.BucketName == "" {
		cfg.Log.Panic(cfg.Name, " error - missing target bucket name.")
	}
	cfg.BucketName = strings.TrimPrefix(cfg.BucketName, "s3://")
	if cfg.Region == "" {
		cfg.Log.Panic(cfg.Name, " error - missing AWS region.")
	}
	cfg.Log.Debug(cfg.Name, ": RemoveInputFiles = ", cfg.RemoveInputFiles)
	outputChan = make(chan stream.Record, c.ChanSize)
	controlChan = make(chan ControlAction, 1)
	go func() {
		if cfg.PanicHandlerFn != nil {
			defer cfg.PanicHandlerFn()
		}
		cfg.Log.Info(cfg.Name, " is running")
		if cfg.WaitCounter != nil {
			cfg.WaitCounter.Add()
			defer cfg.WaitCounter.Done()
		}
		rowCount := int64(0)
		if cfg.StepWatcher != nil {
			cfg.StepWatcher.StartWatching(&rowCount, &outputChan)
			defer cfg.StepWatcher.StopWatching()
		}
		s := s3.NewBasicClient(cfg.BucketName, cfg.Region, cfg.BucketPrefix)
		for {
			select {
			case rec, ok := <-cfg.InputChan:
				if !ok { // all input rows consumed; disable this case.
					cfg.InputChan = nil
					break
				}
				atomic.AddInt64(&rowCount, 1)
				fileFullPathName := rec.GetDataAsStringPreserveTimeZone(cfg.Log, cfg.FileNameChanField)
				if fileFullPathName == "" {
					cfg.Log.Debug(cfg.Name, " no file found in input channel - skipping.")
					break
				}
				_, fileName := path.Split(fileFullPathName)
				f, err := os.Open(fileFullPathName) // File implements io.ReadSeeker for BufferPut.
				if err != nil {
					log.Panic(cfg.Name, " error - unable to open file, ", fileName)
				}
				action := "copying"
				if cfg.RemoveInputFiles {
					action = "moving"
				}
				cfg.Log.Info(cfg.Name, " ", action, " file '", fileFullPathName, "' to S3 bucket '", path.Join(cfg.BucketName, cfg.BucketPrefix), "'")
				if err = s.BufferPut(fileName, f); err != nil {
					cfg.Log.Panic(err)
				}
				if err = f.Close(); err != nil {
					log.Panic(cfg.Name, " unable to close file", fileName)
				}
				if cfg.RemoveInputFiles {
					if err := os.Remove(fileFullPathName); err != nil {
						cfg.Log.Panic(cfg.Name, " unable to remove OS file, ", fileFullPathName)
					}
					cfg.Log.Debug(cfg.Name, " removed file '", fileFullPathName, "'")
				}
				// TODO: do we want to add the S3 details to the output channel?
				cfg.Log.Debug(cfg.Name, " producing filename as a row onto the output channel: ", rec)
				if recSentOK := safeSend(rec, outputChan, controlChan, sendNilControlResponse); !recSentOK {
					cfg.Log.Info(cfg.Name, " shutdown")
					return
				}
			case controlAction := <-controlChan:
				controlAction.ResponseChan <- nil
				cfg.Log.Info(cfg.Name, " shutdown")
				return
			}
			if cfg.InputChan == nil {
				break
			}
		}
		close(outputChan)
		cfg.Log.Info(cfg.Name, " complete")
	}()
	return
}
