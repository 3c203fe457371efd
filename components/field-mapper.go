package components

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/diegoholiveira/jsonlogic"
	"github.com/pkg/errors"
	c "github.com/martpipe/martpipe/constants"
	"github.com/martpipe/martpipe/logger"
	"github.com/martpipe/martpipe/stats"
	"github.com/martpipe/martpipe/stream"
)

// A fieldMapperFunc mutates one record. Setup funcs validate the per-step
// config once and return the mapper to run per record.
type fieldMapperFunc func(data stream.Record) stream.Record
type fieldMapperSetupFunc func(log logger.Logger, cfg map[string]string) (fieldMapperFunc, error)

const (
	fieldMapperAddConstants   = "AddConstants"
	fieldMapperRegexpReplace  = "RegexpReplace"
	fieldMapperConcatenateAB  = "ConcatenateFieldsAB"
	fieldMapperJsonLogic      = "JsonLogic"
	fieldMapperDateAttributes = "DateAttributes"
)

var fieldMappers = map[string]fieldMapperSetupFunc{
	fieldMapperAddConstants:   setupAddConstants,
	fieldMapperRegexpReplace:  setupRegexpReplace,
	fieldMapperConcatenateAB:  setupConcatenateAB,
	fieldMapperJsonLogic:      setupJsonLogicMapper,
	fieldMapperDateAttributes: setupDateAttributes,
}

// requireMapperKeys returns an error naming every key in names that is absent
// from cfg, or nil when all are present.
func requireMapperKeys(mapperName string, cfg map[string]string, names ...string) error {
	missing := make([]string, 0, len(names))
	for _, n := range names {
		if _, ok := cfg[n]; !ok {
			missing = append(missing, n)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing field mapper configuration; please supply %v with: %v", mapperName, strings.Join(missing, ", "))
	}
	return nil
}

type FieldMapperConfig struct {
	Log            logger.Logger
	Name           string
	InputChan      chan stream.Record
	Steps          []ComponentStep
	StepWatcher    *stats.StepWatcher
	WaitCounter    ComponentWaiter
	PanicHandlerFn PanicHandlerFunc
}

// NewFieldMapper applies a chain of map step actions to each record read from
// InputChan. Each entry in cfg.Steps names a mapper in fieldMappers via its
// Type and carries that mapper's config in Data. Mappers run in slice order
// and each sees the record as left by the previous one.
func NewFieldMapper(i interface{}) (outputChan chan stream.Record, controlChan chan ControlAction) {
	cfg := i.(*FieldMapperConfig)
	mappers := make([]fieldMapperFunc, len(cfg.Steps))
	for idx, s := range cfg.Steps {
		setupFn, ok := fieldMappers[s.Type]
		if !ok {
			cfg.Log.Panic("unable to find field mapper using name ", s.Type)
		}
		fn, err := setupFn(cfg.Log, s.Data)
		if err != nil {
			cfg.Log.Panic(err)
		}
		mappers[idx] = fn
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
		rowCount := int64(0)
		if cfg.StepWatcher != nil {
			cfg.StepWatcher.StartWatching(&rowCount, &outputChan)
			defer cfg.StepWatcher.StopWatching()
		}
		cfg.Log.Info(cfg.Name, " is running")
		var controlAction ControlAction
		for {
			select {
			case rec, ok := <-cfg.InputChan:
				if !ok { // input exhausted; disable this case.
					cfg.InputChan = nil
					break
				}
				for _, fn := range mappers {
					rec = fn(rec)
				}
				safeSend(rec, outputChan, controlChan, sendNilControlResponse)
				atomic.AddInt64(&rowCount, 1)
			case controlAction = <-controlChan:
			}
			if cfg.InputChan == nil || controlAction.Action == Shutdown {
				break
			}
		}
		if controlAction.Action == Shutdown {
			controlAction.ResponseChan <- nil
			cfg.Log.Info(cfg.Name, " shutdown")
			return
		}
		close(outputChan)
		cfg.Log.Info(cfg.Name, " complete")
	}()
	return
}

// setupRegexpReplace builds a mapper that regexp-replaces cfg fieldName into
// cfg resultField. When the regexp does not match, resultField gets the input
// value if propagateInput is "true", else the empty string.
func setupRegexpReplace(log logger.Logger, cfg map[string]string) (fieldMapperFunc, error) {
	errMsg := ""
	if err := requireMapperKeys(fieldMapperRegexpReplace, cfg, "fieldName", "regexpMatch", "regexpReplace", "resultField"); err != nil {
		errMsg = err.Error()
	}
	fieldName := cfg["fieldName"]
	regexpReplace := cfg["regexpReplace"]
	resultField := cfg["resultField"]
	propagateInput := strings.EqualFold(cfg["propagateInput"], "true")
	// Go's RE2 compile, not POSIX; see https://golang.org/pkg/regexp/#CompilePOSIX
	r, err := regexp.Compile(cfg["regexpMatch"])
	if err != nil {
		errMsg = fmt.Sprintf("invalid regular expression '%v'. %v. %v", cfg["regexpMatch"], err, errMsg)
	}
	if errMsg != "" {
		return nil, errors.New(errMsg)
	}
	return func(data stream.Record) stream.Record {
		fieldVal := data.GetDataAsStringPreserveTimeZone(log, fieldName)
		if r.MatchString(fieldVal) {
			data.SetData(resultField, r.ReplaceAllString(fieldVal, regexpReplace))
		} else if propagateInput {
			data.SetData(resultField, fieldVal)
		} else {
			data.SetData(resultField, "")
		}
		return data
	}, nil
}

// setupAddConstants builds a mapper that sets cfg fieldName to the constant
// cfg fieldValue, converted per cfg fieldType (string, integer or RFC3339 date).
func setupAddConstants(log logger.Logger, cfg map[string]string) (fieldMapperFunc, error) {
	if err := requireMapperKeys(fieldMapperAddConstants, cfg, "fieldType", "fieldName", "fieldValue"); err != nil {
		return nil, err
	}
	fieldName := cfg["fieldName"]
	var fieldValue interface{}
	var err error
	switch cfg["fieldType"] {
	case "integer":
		fieldValue, err = strconv.Atoi(cfg["fieldValue"])
	case "string":
		fieldValue = cfg["fieldValue"]
	case "date":
		fieldValue, err = time.Parse(time.RFC3339, cfg["fieldValue"]) // e.g. "2018-10-28T02:01:01+01:00"
	default:
		return nil, fmt.Errorf("unsupported fieldType supplied to %v, %v. supported types are 'string', 'integer', 'date' (use RFC3339)", fieldMapperAddConstants, cfg["fieldType"])
	}
	if err != nil {
		return nil, err
	}
	return func(data stream.Record) stream.Record {
		data.SetData(fieldName, fieldValue)
		return data
	}, nil
}

// setupConcatenateAB builds a mapper that writes the string concatenation of
// cfg fieldNameA and fieldNameB into cfg resultField.
func setupConcatenateAB(log logger.Logger, cfg map[string]string) (fieldMapperFunc, error) {
	if err := requireMapperKeys(fieldMapperConcatenateAB, cfg, "fieldNameA", "fieldNameB", "resultField"); err != nil {
		return nil, err
	}
	fieldNameA := cfg["fieldNameA"]
	fieldNameB := cfg["fieldNameB"]
	resultField := cfg["resultField"]
	return func(data stream.Record) stream.Record {
		data.SetData(resultField, data.GetDataAsStringPreserveTimeZone(log, fieldNameA)+data.GetDataAsStringPreserveTimeZone(log, fieldNameB))
		return data
	}, nil
}

// setupDateAttributes builds a mapper that derives calendar attributes from a
// date field, for building the date dimension. The input field may hold a
// time.Time or a string in RFC3339 or calendar date format.
// Derived fields (optionally prefixed with cfg resultFieldPrefix): date_key
// (yyyymmdd), year, quarter, month, month_name, day, day_name and day_of_week
// (Monday=1, Sunday=7).
func setupDateAttributes(log logger.Logger, cfg map[string]string) (fieldMapperFunc, error) {
	if err := requireMapperKeys(fieldMapperDateAttributes, cfg, "fieldName"); err != nil {
		return nil, err
	}
	fieldName := cfg["fieldName"]
	prefix := cfg["resultFieldPrefix"] // optional prefix for the derived field names.
	return func(data stream.Record) stream.Record {
		var t time.Time
		switch v := data.GetData(fieldName).(type) {
		case time.Time:
			t = v
		case string:
			var err error
			t, err = time.Parse(time.RFC3339, v)
			if err != nil { // not a full date-time; try a plain calendar date.
				t, err = time.Parse(c.TimeFormatDate, v)
				if err != nil {
					log.Panic(fieldMapperDateAttributes, " unable to parse date in field ", fieldName, ": ", v)
				}
			}
		default:
			log.Panic(fieldMapperDateAttributes, " expected a time.Time or string in field ", fieldName, "; got: ", v)
		}
		year, month, day := t.Date()
		monthNum := int(month)
		dayOfWeek := int(t.Weekday())
		if dayOfWeek == 0 { // Go numbers Sunday as 0; emit Monday=1, Sunday=7.
			dayOfWeek = 7
		}
		data.SetData(prefix+"date_key", year*10000+monthNum*100+day)
		data.SetData(prefix+"year", year)
		data.SetData(prefix+"quarter", ((monthNum-1)/3)+1)
		data.SetData(prefix+"month", monthNum)
		data.SetData(prefix+"month_name", month.String())
		data.SetData(prefix+"day", day)
		data.SetData(prefix+"day_name", t.Weekday().String())
		data.SetData(prefix+"day_of_week", dayOfWeek)
		return data
	}, nil
}

// setupJsonLogicMapper builds a mapper that evaluates a JSON Logic rule against
// each record (marshalled to JSON) and writes the result string into cfg
// resultField. Nil records pass through as nil.
func setupJsonLogicMapper(log logger.Logger, cfg map[string]string) (fieldMapperFunc, error) {
	if err := requireMapperKeys(fieldMapperJsonLogic, cfg, "rule", "resultField"); err != nil {
		return nil, err
	}
	rule := cfg["rule"]
	resultField := cfg["resultField"]
	if !jsonlogic.IsValid(strings.NewReader(rule)) {
		return nil, fmt.Errorf("invalid %v rule: %v", fieldMapperJsonLogic, rule)
	}
	result := bytes.Buffer{}
	return func(data stream.Record) stream.Record {
		if data.RecordIsNil() {
			return stream.NewNilRecord()
		}
		result.Reset()
		if err := applyJsonLogic(data, rule, &result); err != nil {
			log.Panic(err)
		}
		// Trim "\n" and enclosing quotes before saving the result.
		data.SetData(resultField, strings.Trim(strings.TrimSpace(result.String()), `"`))
		return data
	}, nil
}

// applyJsonLogic marshals the record's data map to JSON and applies the rule,
// writing the outcome to result. The rule must be validated by the caller.
func applyJsonLogic(data stream.Record, rule string, result *bytes.Buffer) error {
	jsonData, err := json.Marshal(data.GetDataMap())
	if err != nil {
		return fmt.Errorf("error marshalling data before applying JSON logic: %v", err)
	}
	err = jsonlogic.Apply(strings.NewReader(rule), strings.NewReader(string(jsonData)), result)
	if err != nil {
		return fmt.Errorf("error applying JSON logic: %v", err)
	}
	return nil
}
