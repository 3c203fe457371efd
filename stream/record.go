package stream

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	om "github.com/cevaris/ordered_map"
	h "github.com/martpipe/martpipe/helper"
	"github.com/martpipe/martpipe/logger"
)

// Record carries data between components. Null database values are held as
// nil interface values in the underlying map.
type Record struct {
	data map[string]interface{}
}

// FieldType holds metadata about a field in a Record.
type FieldType struct {
	DatabaseType string

	HasNullable       bool
	HasLength         bool
	HasPrecisionScale bool

	Nullable  bool
	Length    int64
	Precision int64
	Scale     int64
}

// NewRecord creates a Record and returns it by value since records travel
// over channels by value. Passing pointers over a channel is reportedly
// slower, though the map inside is a pointer anyway:
// https://stackoverflow.com/questions/41178729/why-passing-pointers-to-channel-is-slower
func NewRecord() Record {
	return Record{
		data: make(map[string]interface{}),
	}
}

func NewNilRecord() Record {
	return Record{}
}

func (sr Record) RecordIsNil() bool {
	return sr.data == nil
}

func (sr Record) SetData(name string, value interface{}) {
	sr.data[name] = value
}

func (sr Record) GetData(name string) interface{} {
	val, ok := sr.data[name]
	if !ok {
		panic(fmt.Sprintf("Invalid key name %q supplied while trying to fetch value from record: %v", name, sr.data))
	}
	return val
}

func (sr Record) GetDataMap() map[string]interface{} {
	return sr.data
}

func (sr Record) GetDataLen() int {
	return len(sr.data)
}

// GetDataAsStringUseUtcTime converts the named value to a string suitable for
// gt/lt comparison. Times are converted to UTC first.
func (sr Record) GetDataAsStringUseUtcTime(log logger.Logger, name string) (retval string) {
	return sr.getStringFromInterface(log, name, true)
}

// GetDataAsStringPreserveTimeZone converts the named value to a string,
// keeping times in local time.
func (sr Record) GetDataAsStringPreserveTimeZone(log logger.Logger, name string) (retval string) {
	return sr.getStringFromInterface(log, name, false)
}

func (sr Record) getStringFromInterface(log logger.Logger, name string, useUTC bool) (retval string) {
	v, ok := sr.data[name]
	if !ok {
		panic(fmt.Sprintf("unexpected field %q does not exist in the input stream (bad pipe definition?)", name))
	}
	return h.GetStringFromInterface(log, v, useUTC)
}

// GetDataKeysAsSlice returns the string values held against each of the
// supplied keys, in key order.
func (sr Record) GetDataKeysAsSlice(log logger.Logger, keys []string) []string {
	retval := make([]string, 0) // unbounded so callers can reuse keys multiple times.
	for _, k := range keys {
		retval = append(retval, sr.GetDataAsStringPreserveTimeZone(log, k))
	}
	return retval
}

// GetSortedDataMapKeys returns the record's field names sorted alphabetically.
// TODO: get the record to be an ordered map or use multiple slices manually to preserve record order by default.
func (sr Record) GetSortedDataMapKeys() []string {
	retval := make([]string, 0, len(sr.data))
	for k := range sr.data {
		retval = append(retval, k)
	}
	sort.Strings(retval)
	return retval
}

func (sr Record) CopyTo(t Record) {
	for k, v := range sr.data {
		t.SetData(k, v)
	}
}

// GetDataAndFieldTypesByKeys fetches data values from sr for each key in
// 'keys' (a map of stream field names to database field names), writing them
// into slice 'l' by reference starting at *idx, and leaving *idx one past the
// last populated element.
func (sr Record) GetDataAndFieldTypesByKeys(log logger.Logger, keys *om.OrderedMap, l *[]interface{}, t *[]FieldType, idx *int) {
	iter := keys.IterFunc()
	if iter == nil {
		log.Panic("GetDataAndFieldTypesByKeys() failed to get iterFunc.")
	}
	for kv, ok := iter(); ok; kv, ok = iter() {
		key := kv.Value.(string)
		(*l)[*idx] = sr.GetData(key)
		*idx++
	}
}

// GetJson renders the record as a JSON object containing only the supplied keys.
func (sr Record) GetJson(log logger.Logger, keys []string) string {
	out := make([]string, len(keys))
	for idx, key := range keys {
		jsonValue, err := json.Marshal(sr.GetDataAsStringPreserveTimeZone(log, key))
		if err != nil {
			log.Panic("Error marshalling the value of key '", key, "' to JSON")
		}
		out[idx] = fmt.Sprintf("%q: %s", key, string(jsonValue))
	}
	return fmt.Sprintf("{%v}", strings.Join(out, ", "))
}
