package components

import (
	"bytes"
	"encoding/csv"
	"strings"
	"sync/atomic"

	"github.com/martpipe/martpipe/aws/s3"
	c "github.com/martpipe/martpipe/constants"
	"github.com/martpipe/martpipe/helper"
	"github.com/martpipe/martpipe/logger"
	"github.com/martpipe/martpipe/stats"
	"github.com/martpipe/martpipe/stream"
)

type S3ManifestReaderConfig struct {
	Log                          logger.Logger
	Name                         string
	InputChan                    chan stream.Record // records naming the manifest files to fetch.
	InputChanField4ManifestName  string             // field holding the manifest object name.
	BucketName                   string             // bucket containing manifest files.
	BucketPrefix                 string
	Region                       string
	OutputChanField4DataFileName string // outputChan field to produce data file names onto.
	StepWatcher                  *stats.StepWatcher
	WaitCounter                  ComponentWaiter
	PanicHandlerFn               PanicHandlerFunc
}

// NewS3ManifestReader fetches each manifest named on InputChan from the
// configured S3 bucket and emits one output record per data file listed in
// it. Input record fields are copied onto each output record, so one input
// row fans out to N output rows.
func NewS3ManifestReader(i interface{}) (outputChan chan stream.Record, controlChan chan ControlAction) {
	cfg := i.(*S3ManifestReaderConfig)
	if cfg.PanicHandlerFn != nil {
		defer cfg.PanicHandlerFn()
	}
	if cfg.InputChan == nil {
		cfg.Log.Panic(cfg.Name, " error - missing chan input in call to NewManifestReader.")
	}
	if cfg.BucketName == "" {
		cfg.Log.Panic(cfg.Name, " error - missing target bucket name.")
	}
	cfg.BucketName = strings.TrimPrefix(cfg.BucketName, "s3://")
	if cfg.Region == "" {
		cfg.Log.Panic(cfg.Name, " error - missing AWS region.")
	}
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
				if !ok { // all manifests processed; disable this case.
					cfg.InputChan = nil
					break
				}
				cfg.Log.Debug(cfg.Name, " input record: ", rec)
				atomic.AddInt64(&rowCount, 1)
				cfg.Log.Info(cfg.Name, " processing manifest ", rec.GetData(cfg.InputChanField4ManifestName))
				b, err := s.Get(helper.GetStringFromInterfacePreserveTimeZone(cfg.Log, rec.GetData(cfg.InputChanField4ManifestName)))
				if err != nil {
					cfg.Log.Panic(err)
				}
				records, err := csv.NewReader(bytes.NewBuffer(b)).ReadAll()
				if err != nil {
					cfg.Log.Panic(cfg.Name, " unable to parse manifest CSV: ", err)
				}
				if len(records) == 0 {
					break
				}
				cfg.Log.Debug(cfg.Name, " read manifest header: ", records[0][0])
				for _, row := range records[1:] {
					cfg.Log.Debug(cfg.Name, " read manifest entry: ", row[0])
					// A fresh record per entry, else downstream would see the same map mutated each iteration.
					outRec := stream.NewRecord()
					rec.CopyTo(outRec)
					outRec.SetData(cfg.OutputChanField4DataFileName, row[0])
					if outRecSentOK := safeSend(outRec, outputChan, controlChan, sendNilControlResponse); !outRecSentOK {
						cfg.Log.Info(cfg.Name, " shutdown")
						return
					}
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
