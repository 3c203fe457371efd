package helper

import (
	"testing"

	"github.com/martpipe/martpipe/logger"
)

func TestCsvStringOfTokensToMap(t *testing.T) {
	log := logger.NewLogger("martpipe", "info", true)
	tests := []struct {
		input    string
		key      string
		expected string
	}{
		{"fieldA:valA", "fieldA", "valA"},
		// A quoted token may hold a value containing spaces.
		{"\"#sqlText:truncate table myTable\"", "#sqlText", "truncate table myTable"},
	}
	for _, tt := range tests {
		m, err := CsvStringOfTokensToMap(log, tt.input)
		if err != nil {
			t.Fatal(err)
		}
		if got := m[tt.key]; got != tt.expected {
			t.Fatalf("input %q: expected %q; got %q", tt.input, tt.expected, got)
		}
	}
}

func TestTokensToOrderedMap(t *testing.T) {
	log := logger.NewLogger("martpipe", "info", true)
	log.Info("Test 1, confirm empty string produces empty ordered map")
	if om := TokensToOrderedMap(""); om.Len() != 0 {
		t.Fatal("expected empty ordered map but got something")
	}
}
