package helper

import (
	"encoding/csv"
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"time"

	om "github.com/cevaris/ordered_map"
	"github.com/martpipe/martpipe/constants"
	"github.com/martpipe/martpipe/logger"
)

var reTrue = regexp.MustCompile("(?i)true")

// Split breaks s around the first occurrence of sep.
// When sep is absent it returns s and an empty string.
func Split(s string, sep string) (string, string) {
	i := strings.Index(s, sep)
	if i < 0 {
		return s, ""
	}
	return s[:i], s[i+len(sep):]
}

// SplitRight breaks s around the last occurrence of sep.
// When sep is absent it returns s and an empty string.
func SplitRight(s string, sep string) (string, string) {
	i := strings.LastIndex(s, sep)
	if i < 0 {
		return s, ""
	}
	return s[:i], s[i+len(sep):]
}

// GetTrueFalseStringAsBool reports whether s contains "true" in any case,
// ignoring surrounding spaces. Anything else is false.
func GetTrueFalseStringAsBool(s string) bool {
	return reTrue.MatchString(strings.TrimSpace(s))
}

// StringsToCsv joins the strings with commas.
// TODO: handle comma in a column name as this stuff is often turned into a CSV!
func StringsToCsv(s []string) string {
	return strings.Join(s, ",")
}

// EscapeQuotesInString backslash-escapes double quotes so s can be embedded in
// a JSON pipe template.
func EscapeQuotesInString(s string) string {
	return strings.Replace(s, `"`, `\"`, -1)
}

// CsvToStringSliceTrimSpaces splits a plain 'f1, f2, f3' string on commas and
// trims spaces from each field.
func CsvToStringSliceTrimSpaces(s string) []string {
	fields := strings.Split(s, ",")
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}
	return fields
}

// CsvToStringSliceTrimSpaces2 is the CSV-aware variant: fields may be quoted
// and are parsed with encoding/csv before trimming.
func CsvToStringSliceTrimSpaces2(s string) (fields []string) {
	lines, _ := csv.NewReader(strings.NewReader(s)).ReadAll()
	for _, line := range lines { // for each line in the CSV...
		for _, val := range line {
			fields = append(fields, strings.TrimSpace(val))
		}
	}
	return
}

// CsvToStringSliceTrimSpacesRemoveQuotes splits on commas, trims spaces and
// strips one pair of surrounding double quotes per field.
// TODO: use proper CSV library to unwrap fields.
func CsvToStringSliceTrimSpacesRemoveQuotes(s string) []string {
	fields := strings.Split(s, ",")
	for i := range fields {
		fields[i] = strings.Trim(strings.TrimSpace(fields[i]), "\"")
	}
	return fields
}

// TokensToOrderedMap parses 'k1:v1,k2:v2' into an ordered map, preserving the
// order the pairs were supplied in. Entries without a colon are skipped.
func TokensToOrderedMap(s string) *om.OrderedMap {
	o := om.NewOrderedMap()
	for _, pair := range strings.Split(s, ",") { // for each key pair...
		kv := strings.Split(pair, ":")
		if len(kv) >= 2 { // if there is a key:value...
			o.Set(kv[0], kv[1])
		}
	}
	return o
}

// OrderedMapToTokens renders an ordered map of strings back to 'k1:v1,k2:v2' form,
// optionally trimming double quotes from the keys and values.
func OrderedMapToTokens(m *om.OrderedMap, trimQuotes bool) (string, error) {
	iter := m.IterFunc()
	if iter == nil {
		return "", fmt.Errorf("failed to get iterFunc in OrderedMapToTokens()")
	}
	b := strings.Builder{}
	for kv, ok := iter(); ok; kv, ok = iter() {
		k, v := kv.Key.(string), kv.Value.(string)
		if trimQuotes {
			k, v = strings.Trim(k, "\""), strings.Trim(v, "\"")
		}
		b.WriteString(fmt.Sprintf(",%v:%v", k, v))
	}
	return strings.TrimLeft(b.String(), ","), nil
}

// StringSliceToOrderedMap stores each value in s as both key and value of an
// ordered map, preserving slice order.
func StringSliceToOrderedMap(s []string) *om.OrderedMap {
	o := om.NewOrderedMap()
	for _, v := range s {
		o.Set(v, v)
	}
	return o
}

// OrderedMapValuesToStringSlice copies the values of ordered map m into slice l
// starting at position idx, advancing idx as it goes. The caller owns the slice
// sizing so keys can be appended across multiple maps.
func OrderedMapValuesToStringSlice(log logger.Logger, m *om.OrderedMap, l *[]string, idx *int) {
	iter := m.IterFunc()
	if iter == nil {
		log.Panic("Failed to get iterFunc in OrderedMapValuesToStringSlice()")
	}
	for kv, ok := iter(); ok; kv, ok = iter() {
		(*l)[*idx] = kv.Value.(string)
		*idx++
	}
}

// CsvStringOfTokensToMap parses a CSV of 'key:value' tokens into a map,
// e.g. `fieldA:valA, "fieldB:val with, comma"`. Quoted tokens may carry commas.
// The last value seen for a key wins.
func CsvStringOfTokensToMap(log logger.Logger, s string) (map[string]string, error) {
	lines, err := csv.NewReader(strings.NewReader(s)).ReadAll()
	if err != nil {
		return nil, err
	}
	m := make(map[string]string)
	for _, line := range lines { // for each CSV line...
		for _, v := range line { // for each token on the line...
			kv := strings.Split(v, ":") // key to the left of the colon, value to the right.
			m[strings.TrimSpace(kv[0])] = strings.TrimSpace(kv[1])
		}
	}
	log.Debug("CsvStringOfTokensToMap() returning: ", m)
	return m, nil
}

// GetStringFromInterfaceUseUtcTime converts a value to a string for gt/lt
// comparison. Times are converted to UTC first.
func GetStringFromInterfaceUseUtcTime(log logger.Logger, input interface{}) string {
	return GetStringFromInterface(log, input, true)
}

// GetStringFromInterfacePreserveTimeZone converts a value to a string, leaving
// times in their local zone.
func GetStringFromInterfacePreserveTimeZone(log logger.Logger, input interface{}) string {
	return GetStringFromInterface(log, input, false)
}

// GetStringFromInterface converts the scan types our database drivers produce
// to strings. Floats keep all their decimal places rather than flipping to
// exponent form, and nil database values become empty strings.
func GetStringFromInterface(log logger.Logger, input interface{}, useUTC bool) (retval string) {
	switch v := input.(type) {
	case string:
		retval = v
	case int, int8, int16, int32, int64, uint8:
		retval = fmt.Sprintf("%d", v)
	case float32:
		retval = strconv.FormatFloat(float64(v), 'f', -1, 32)
	case float64:
		retval = strconv.FormatFloat(v, 'f', -1, 64)
	case time.Time:
		if useUTC { // if the caller wants zone-independent output...
			retval = v.UTC().Format(constants.TimeFormatYearSecondsTZ)
		} else {
			retval = v.Format(constants.TimeFormatYearSecondsTZ)
		}
	case []uint8:
		retval = string(v)
	case bool:
		retval = fmt.Sprintf("%v", v)
	case nil:
		retval = ""
	default:
		log.Panic("unhandled type while fetching string from interface: type = ", reflect.TypeOf(input), "; value = ", input)
	}
	return
}

// InterfaceToString converts a row of driver values to strings.
// Whole floats print as integers and ODBC []uint8 values print as raw bytes.
func InterfaceToString(src []interface{}) []string {
	out := make([]string, len(src))
	for i, v := range src {
		switch x := v.(type) {
		case float64:
			if t := float64(int(x)); x == t { // if the value is a whole number...
				out[i] = fmt.Sprint(int(x))
			} else {
				out[i] = strconv.FormatFloat(x, 'g', -1, 64)
			}
		case []uint8: // the odbc driver returns bytes rather than strings.
			out[i] = string(x)
		default:
			out[i] = fmt.Sprint(v)
		}
	}
	return out
}
