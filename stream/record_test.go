package stream

import (
	"reflect"
	"testing"

	"github.com/martpipe/martpipe/logger"
)

func TestRecordIsNil(t *testing.T) {
	if r := NewRecord(); r.RecordIsNil() {
		t.Fatal("expected a new record to not be nil")
	}
	if r := (Record{}); !r.RecordIsNil() {
		t.Fatal("expected a zero struct to be a nil record")
	}
}

// TestRecordGetJson covers quote escaping in both keys and values.
func TestRecordGetJson(t *testing.T) {
	log := logger.NewLogger("martpipe", "info", true)
	r := NewRecord()
	r.SetData("key", "value")
	r.SetData("key2", "value2")
	r.SetData("key3", "\"textWithQuote\"")
	r.SetData("keyWith\"Quote", "\"textWithQuote\"")
	expected := "{\"key\": \"value\", \"key2\": \"value2\", \"key3\": \"\\\"textWithQuote\\\"\", \"keyWith\\\"Quote\": \"\\\"textWithQuote\\\"\"}"
	if got := r.GetJson(log, []string{"key", "key2", "key3", "keyWith\"Quote"}); got != expected {
		t.Fatalf("unexpected value from GetJSON(): expected = %v; got = %v", expected, got)
	}
}

func TestRecordGetSortedDataMapKeys(t *testing.T) {
	r := NewRecord()
	for _, k := range []string{"keyA", "keyC", "keyB"} { // set out of order.
		r.SetData(k, "value"+k[3:])
	}
	expected := []string{"keyA", "keyB", "keyC"}
	if got := r.GetSortedDataMapKeys(); !reflect.DeepEqual(got, expected) {
		t.Fatalf("expected sorted keys = %v; got = %v", expected, got)
	}
}
