package stats

import (
	"strings"
	"testing"
	"time"

	"github.com/martpipe/martpipe/logger"
	"github.com/martpipe/martpipe/stream"
)

func TestCommitLatencyPercentiles(t *testing.T) {
	log := logger.NewLogger("martpipe", "error", false)
	w := NewStepWatcher(log, "testStep")
	rowCount := int64(0)
	ch := make(chan stream.Record, 1)
	w.StartWatching(&rowCount, &ch)
	// Record a spread of commit latencies.
	for i := 1; i <= 100; i++ {
		w.RecordCommitLatency(time.Duration(i) * time.Millisecond)
	}
	w.StopWatching()
	s := w.RenderStats()
	if s.CommitCount != 100 {
		t.Fatalf("expected commitCount 100; got %v", s.CommitCount)
	}
	if s.CommitP50Ms < 49 || s.CommitP50Ms > 51 {
		t.Fatalf("expected commitP50Ms near 50; got %v", s.CommitP50Ms)
	}
	if s.CommitP99Ms < 98 || s.CommitP99Ms > 100 {
		t.Fatalf("expected commitP99Ms near 99; got %v", s.CommitP99Ms)
	}
	if !strings.Contains(s.String(), "commitP95Ms=") {
		t.Fatal("expected commit latencies in stats output: ", s.String())
	}
}

func TestStatsStringWithoutCommits(t *testing.T) {
	// Steps that never commit must not report commit latencies.
	s := Stats{StepName: "testStep", StatusText: "complete"}
	if strings.Contains(s.String(), "commitCount") {
		t.Fatal("expected no commit latencies in stats output: ", s.String())
	}
}
