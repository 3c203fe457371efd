package components

import (
	"sync/atomic"

	c "github.com/martpipe/martpipe/constants"
	f "github.com/martpipe/martpipe/file"
	"github.com/martpipe/martpipe/logger"
	s "github.com/martpipe/martpipe/stats"
	"github.com/martpipe/martpipe/stream"
)

type CsvFileInputConfig struct {
	Log                      logger.Logger
	Name                     string
	InputChan                chan stream.Record // optional channel of file names to read; when nil, FileName is read once.
	InputChanField4FilePath  string             // the field on InputChan records holding the file path.
	FileName                 string             // single file to read when InputChan is nil.
	HeaderFields             []string           // explicit output field names; when empty the file's first row supplies them.
	FileHasHeaderRow         bool               // discard the file's first row when HeaderFields is supplied.
	OutputChanField4FileName string             // optional field added to output records holding the source file name.
	StepWatcher              *s.StepWatcher
	WaitCounter              ComponentWaiter
	PanicHandlerFn           PanicHandlerFunc
}

// NewCsvFileInput reads CSV files and emits one record per data row, with fields named
// by the CSV header (or cfg.HeaderFields when supplied). File names come either from
// cfg.FileName or one per record on cfg.InputChan so the reader can be chained after a
// component that produces file names.
func NewCsvFileInput(i interface{}) (outputChan chan stream.Record, controlChan chan ControlAction) {
	cfg := i.(*CsvFileInputConfig)
	if cfg.InputChan == nil && cfg.FileName == "" {
		cfg.Log.Panic(cfg.Name, " error - supply one of FileName or an input channel of file names.")
	}
	if cfg.InputChan != nil && cfg.InputChanField4FilePath == "" {
		cfg.InputChanField4FilePath = Defaults.ChanField4CSVFileName
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
		if cfg.StepWatcher != nil { // if we have been given a StepWatcher struct that can watch our rowCount and output channel length...
			cfg.StepWatcher.StartWatching(&rowCount, &outputChan)
			defer cfg.StepWatcher.StopWatching()
		}
		// Read one CSV file and emit a record per data row.
		readFile := func(fileName string) (rowSentOK bool) {
			cfg.Log.Info(cfg.Name, " reading CSV file: ", fileName)
			fi := f.NewCSVFileInput(cfg.Log, fileName)
			defer fi.Cleanup()
			header := cfg.HeaderFields
			if len(header) == 0 { // if we should take field names from the file...
				rec, ok := fi.MustReadRecord()
				if !ok { // if the file is empty...
					cfg.Log.Warn(cfg.Name, " found empty CSV file: ", fileName)
					return true
				}
				header = rec
			} else if cfg.FileHasHeaderRow { // if we should discard the file's own header...
				if _, ok := fi.MustReadRecord(); !ok {
					cfg.Log.Warn(cfg.Name, " found empty CSV file: ", fileName)
					return true
				}
			}
			for { // for each data row in the file...
				values, ok := fi.MustReadRecord()
				if !ok {
					break
				}
				if len(values) != len(header) {
					cfg.Log.Panic(cfg.Name, " CSV row has ", len(values), " fields but the header has ", len(header), " in file: ", fileName)
				}
				row := stream.NewRecord()
				for idx := range header {
					row.SetData(header[idx], values[idx])
				}
				if cfg.OutputChanField4FileName != "" { // if we should record the source file on each row...
					row.SetData(cfg.OutputChanField4FileName, fileName)
				}
				if rowSentOK = safeSend(row, outputChan, controlChan, sendNilControlResponse); !rowSentOK {
					return
				}
				atomic.AddInt64(&rowCount, 1) // increment the row count bearing in mind someone else is reporting on its values.
			}
			return true
		}
		if cfg.InputChan == nil { // if we are reading a fixed file...
			if rowSentOK := readFile(cfg.FileName); !rowSentOK {
				cfg.Log.Info(cfg.Name, " shutdown")
				return
			}
		} else {
			var controlAction ControlAction
			for { // for each file name on the input channel...
				select {
				case rec, ok := <-cfg.InputChan:
					if !ok { // if the input channel was closed...
						cfg.InputChan = nil // disable this case.
					} else {
						fileName := rec.GetDataAsStringPreserveTimeZone(cfg.Log, cfg.InputChanField4FilePath)
						if rowSentOK := readFile(fileName); !rowSentOK {
							cfg.Log.Info(cfg.Name, " shutdown")
							return
						}
					}
				case controlAction = <-controlChan: // if we have been asked to shutdown...
				}
				if cfg.InputChan == nil || controlAction.Action == Shutdown {
					break
				}
			}
			if controlAction.Action == Shutdown { // if we were asked to shutdown...
				controlAction.ResponseChan <- nil // respond that we're done with a nil error.
				cfg.Log.Info(cfg.Name, " shutdown")
				return
			}
		}
		close(outputChan) // we're done so close the channel we created.
		cfg.Log.Info(cfg.Name, " complete")
	}()
	return
}
