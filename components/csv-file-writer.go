package components

import (
	"fmt"
	"sync/atomic"
	"time"

	c "github.com/martpipe/martpipe/constants"
	f "github.com/martpipe/martpipe/file"
	"github.com/martpipe/martpipe/logger"
	s "github.com/martpipe/martpipe/stats"
	"github.com/martpipe/martpipe/stream"
)

type CsvFileWriterConfig struct {
	Log                               logger.Logger
	Name                              string
	InputChan                         chan stream.Record // rows to write to an output CSV file.
	OutputDir                         string             // empty means a system generated sub directory in OS temp space.
	FileNamePrefix                    string
	FileNameSuffixAppendCreationStamp bool
	FileNameSuffixDateFormat          string
	FileNameExtension                 string
	UseGzip                           bool
	MaxFileRows                       int
	MaxFileBytes                      int
	HeaderFields                      []string // key names found in InputChan records, in CSV header order.
	OutputChanField4FilePath          string   // the field on outputChan that will contain the file name.
	StepWatcher                       *s.StepWatcher
	WaitCounter                       ComponentWaiter
	PanicHandlerFn                    PanicHandlerFunc
}

// NewCsvFileWriter writes InputChan records to CSV files, rolling to a new
// file when MaxFileRows or MaxFileBytes is reached. HeaderFields must be
// supplied so map keys are pulled from each record in a fixed column order.
// outputChan carries one record per completed CSV file, holding its path
// (input records are not passed to the output yet).
func NewCsvFileWriter(i interface{}) (outputChan chan stream.Record, controlChan chan ControlAction) {
	cfg := i.(*CsvFileWriterConfig)
	if cfg.PanicHandlerFn != nil {
		defer cfg.PanicHandlerFn()
	}
	if cfg.InputChan == nil {
		cfg.Log.Panic(cfg.Name, " error - missing input channel.")
	}
	if cfg.OutputChanField4FilePath == "" {
		cfg.OutputChanField4FilePath = Defaults.ChanField4CSVFileName
	}
	outputChan = make(chan stream.Record, c.ChanSize)
	controlChan = make(chan ControlAction, 1)
	go func() {
		if cfg.PanicHandlerFn != nil {
			defer cfg.PanicHandlerFn()
		}
		if cfg.WaitCounter != nil {
			cfg.WaitCounter.Add()
			defer cfg.WaitCounter.Done()
		}
		cfg.Log.Info(cfg.Name, " is running")
		filePrefix := cfg.FileNamePrefix
		if cfg.FileNameSuffixAppendCreationStamp {
			if cfg.FileNameSuffixDateFormat == "" {
				cfg.FileNameSuffixDateFormat = c.TimeFormatYearSeconds
			}
			filePrefix = fmt.Sprintf("%v-%v", cfg.FileNamePrefix, time.Now().Format(cfg.FileNameSuffixDateFormat))
		}
		cfg.Log.Debug(cfg.Name, " starting NewCSVFileOutput with config: outputDir=", cfg.OutputDir, "; filePrefix=", filePrefix, "; extension=", cfg.FileNameExtension, "; maxFileRows=", cfg.MaxFileRows, "; maxFileBytes=", cfg.MaxFileBytes)
		fi := f.NewCSVFileOutput(cfg.Log, cfg.OutputDir, filePrefix, cfg.FileNameExtension, cfg.MaxFileRows, cfg.MaxFileBytes, cfg.UseGzip) // lazy file creation.
		defer fi.Cleanup()
		rowCount := int64(0)
		if cfg.StepWatcher != nil {
			cfg.StepWatcher.StartWatching(&rowCount, &outputChan)
			defer cfg.StepWatcher.StopWatching()
		}
		sendFileName := func(fileName string, doCleanup bool) (rowSentOK bool) {
			if doCleanup {
				fi.Cleanup() // force closure of the last CSV file.
			}
			row := stream.NewRecord()
			row.SetData(cfg.OutputChanField4FilePath, fileName)
			cfg.Log.Debug(cfg.Name, " producing filename as a row onto the output channel: ", row)
			return safeSend(row, outputChan, controlChan, sendNilControlResponse)
		}
		var prevFileName, curFileName string
		headerPending := true
		var controlAction ControlAction
		for {
			select {
			case rec, ok := <-cfg.InputChan:
				if !ok { // input exhausted; disable this case.
					cfg.InputChan = nil
					break
				}
				if headerPending {
					fi.SetHeader(cfg.HeaderFields)
					headerPending = false
				}
				atomic.AddInt64(&rowCount, 1)
				// TODO: build a new CSV writer that doesn't require a new copy of values in our map[string]interface{}.  We should get this to use pointers to increase performance.
				fileName := fi.MustWriteToCSV(rec.GetDataKeysAsSlice(cfg.Log, cfg.HeaderFields))
				if fileName == "" { // still writing to the current file.
					break
				}
				// The writer rolled to a new file; the previous one is closed
				// so its name can go downstream.
				prevFileName = curFileName
				curFileName = fileName
				if prevFileName != "" {
					if rowSentOK := sendFileName(prevFileName, false); !rowSentOK {
						cfg.Log.Info(cfg.Name, " shutdown")
						return
					}
				}
			case controlAction = <-controlChan:
				controlChan = nil
			}
			if controlChan == nil || cfg.InputChan == nil {
				break
			}
		}
		if controlAction.Action == Shutdown {
			controlAction.ResponseChan <- nil
			cfg.Log.Info(cfg.Name, " shutdown")
			return
		}
		if curFileName != "" { // produce the final file name downstream.
			if rowSentOK := sendFileName(curFileName, true); !rowSentOK {
				cfg.Log.Info(cfg.Name, " shutdown")
				return
			}
		}
		close(outputChan)
		cfg.Log.Info(cfg.Name, " complete")
	}()
	return
}
