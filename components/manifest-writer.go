package components

import (
	"fmt"
	"path"
	"sync/atomic"
	"time"

	c "github.com/martpipe/martpipe/constants"
	"github.com/martpipe/martpipe/file"
	"github.com/martpipe/martpipe/logger"
	s "github.com/martpipe/martpipe/stats"
	"github.com/martpipe/martpipe/stream"
)

type ManifestWriterConfig struct {
	Log                                       logger.Logger
	Name                                      string
	InputChan                                 chan stream.Record // records carrying the data file paths to list in the manifest.
	InputChanField4FilePath                   string
	OutputDir                                 string // empty means a system generated sub directory in OS temp space.
	ManifestFileNamePrefix                    string
	ManifestFileNameSuffixAppendCreationStamp bool
	ManifestFileNameSuffixDateFormat          string // golang Time format appended to the prefix; defaults to constants.TimeFormatYearSeconds.
	ManifestFileNameExtension                 string
	OutputChanField4ManifestDir               string
	OutputChanField4ManifestName              string
	OutputChanField4ManifestFullPath          string
	StepWatcher                               *s.StepWatcher
	WaitCounter                               ComponentWaiter
	PanicHandlerFn                            PanicHandlerFunc
}

// NewManifestWriter collects the file names arriving on InputChan (one per
// record, in the field named by InputChanField4FilePath) into a single
// manifest CSV file in OutputDir. It is expected to run after CSV file
// generation. Once InputChan closes, one record carrying the manifest dir,
// name and full path is produced on outputChan; a manifest interrupted by
// shutdown is never announced downstream.
func NewManifestWriter(i interface{}) (outputChan chan stream.Record, controlChan chan ControlAction) {
	cfg := i.(*ManifestWriterConfig)
	if cfg.PanicHandlerFn != nil {
		defer cfg.PanicHandlerFn()
	}
	if cfg.InputChan == nil {
		cfg.Log.Panic(cfg.Name, " error - missing chan input in call to NewManifestFile.")
	}
	if cfg.InputChanField4FilePath == "" {
		cfg.Log.Panic(cfg.Name, " missing input chan field name for the file path")
	}
	if cfg.ManifestFileNamePrefix == "" {
		cfg.Log.Panic(cfg.Name, " missing file name prefix")
	}
	if cfg.ManifestFileNameExtension == "" {
		cfg.Log.Panic(cfg.Name, " missing file name extension")
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
		filePrefix := cfg.ManifestFileNamePrefix
		if cfg.ManifestFileNameSuffixAppendCreationStamp {
			if cfg.ManifestFileNameSuffixDateFormat == "" {
				cfg.ManifestFileNameSuffixDateFormat = c.TimeFormatYearSeconds
			}
			filePrefix = fmt.Sprintf("%v-%v", cfg.ManifestFileNamePrefix, time.Now().Format(cfg.ManifestFileNameSuffixDateFormat))
		}
		cfg.Log.Debug(cfg.Name, " starting NewCSVFileOutput with config: outputDir=", cfg.OutputDir, "; filePrefix=", filePrefix, "; extension=", cfg.ManifestFileNameExtension)
		f := file.NewCSVFileOutput(cfg.Log, cfg.OutputDir, filePrefix, cfg.ManifestFileNameExtension, 0, 0, false) // lazy file creation.
		var manifestFileFullPath string
		headerPending := true
		for {
			select {
			case rec, ok := <-cfg.InputChan:
				if !ok { // all rows processed; disable this case.
					cfg.InputChan = nil
					break
				}
				// Only the base file name goes into the manifest.
				data := []string{path.Base(rec.GetDataAsStringPreserveTimeZone(cfg.Log, cfg.InputChanField4FilePath))}
				if headerPending {
					headerPending = false
					f.SetHeader([]string{c.ManifestHeaderColumnName})
					manifestFileFullPath = f.MustWriteToCSV(data)
					cfg.Log.Debug(cfg.Name, " started manifest file '", manifestFileFullPath, "'")
				} else {
					f.MustWriteToCSV(data)
				}
				cfg.Log.Debug(cfg.Name, " added file '", data, "' to the manifest")
				atomic.AddInt64(&rowCount, 1)
			case controlAction := <-controlChan:
				f.Cleanup() // the manifest may be incomplete so don't send a row to the output stream.
				controlAction.ResponseChan <- nil
				cfg.Log.Info(cfg.Name, " shutdown")
				return
			}
			if cfg.InputChan == nil {
				break
			}
		}
		f.Cleanup() // close the output file.
		if manifestFileFullPath != "" {
			dir, manFile := path.Split(manifestFileFullPath)
			// TODO: ManifestWriter - add test to check that splitting full path to get dir and file is the same as cfg.OutputDir + file.
			row := stream.NewRecord()
			row.SetData(cfg.OutputChanField4ManifestDir, dir)
			row.SetData(cfg.OutputChanField4ManifestName, manFile)
			row.SetData(cfg.OutputChanField4ManifestFullPath, manifestFileFullPath)
			if rowSentOK := safeSend(row, outputChan, controlChan, sendNilControlResponse); !rowSentOK {
				cfg.Log.Info(cfg.Name, " shutdown")
				return
			}
			cfg.Log.Debug(cfg.Name, " produced manifest file as a row on the output channel: ", row)
		}
		close(outputChan)
		cfg.Log.Info(cfg.Name, " complete")
	}()
	return
}
