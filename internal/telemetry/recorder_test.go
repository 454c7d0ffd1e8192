package telemetry

import (
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func openTemp(t *testing.T) *Recorder {
	t.Helper()
	r, err := Open(filepath.Join(t.TempDir(), "telemetry", "input.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { r.Close() })
	return r
}

func TestRecordAndSummarize(t *testing.T) {
	r := openTemp(t)

	now := time.Now()
	r.Record(Sample{Time: now, Device: "keyboard", Count: 3})
	r.Record(Sample{Time: now, Device: "keyboard", Count: 8, Dropped: 4})
	r.Record(Sample{Device: "mouse", Count: 8, Dropped: 20})
	r.Record(Sample{Device: "mouse", Count: 0})

	if err := r.Flush(); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}
	sums, err := r.Summaries()
	if err != nil {
		t.Fatalf("Summaries failed: %v", err)
	}
	if len(sums) != 2 {
		t.Fatalf("Expected 2 devices, got %d", len(sums))
	}

	kb := sums[0]
	if kb.Device != "keyboard" || kb.Polls != 2 || kb.Events != 11 || kb.Dropped != 4 || kb.Overflows != 1 {
		t.Errorf("Unexpected keyboard summary: %+v", kb)
	}
	mouse := sums[1]
	if mouse.Device != "mouse" || mouse.Polls != 2 || mouse.Dropped != 20 || mouse.Overflows != 1 {
		t.Errorf("Unexpected mouse summary: %+v", mouse)
	}
}

func TestCloseWritesPending(t *testing.T) {
	path := filepath.Join(t.TempDir(), "input.db")
	r, err := OpenWithConfig(Config{DBPath: path, BatchSize: 1000, BatchTimeout: time.Hour})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	for i := 0; i < 5; i++ {
		r.Record(Sample{Device: "keyboard", Count: 1})
	}
	if err := r.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := r.Close(); err != nil {
		t.Errorf("Expected second close to succeed, got %v", err)
	}
	if err := r.Flush(); !errors.Is(err, ErrClosed) {
		t.Errorf("Expected ErrClosed, got %v", err)
	}
	r.Record(Sample{Device: "keyboard"})

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("Reopen failed: %v", err)
	}
	defer reopened.Close()
	sums, err := reopened.Summaries()
	if err != nil {
		t.Fatalf("Summaries failed: %v", err)
	}
	if len(sums) != 1 || sums[0].Polls != 5 {
		t.Errorf("Expected 5 persisted polls, got %+v", sums)
	}
}

func TestRecordCountsLostWhenQueueFull(t *testing.T) {
	// No writer drains this queue.
	r := &Recorder{queue: make(chan Sample, 2)}
	for i := 0; i < 5; i++ {
		r.Record(Sample{Device: "mouse", Count: 8})
	}
	if r.Lost() != 3 {
		t.Errorf("Expected 3 lost samples, got %d", r.Lost())
	}
	if len(r.queue) != 2 {
		t.Errorf("Expected 2 queued samples, got %d", len(r.queue))
	}

	r.closed.Store(true)
	r.Record(Sample{Device: "mouse"})
	if r.Lost() != 3 {
		t.Errorf("Expected records after close not to count as lost, got %d", r.Lost())
	}
}

func TestEverySampleWrittenOrLost(t *testing.T) {
	path := filepath.Join(t.TempDir(), "input.db")
	r, err := OpenWithConfig(Config{DBPath: path, QueueSize: 4})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer r.Close()

	const total = 500
	for i := 0; i < total; i++ {
		r.Record(Sample{Device: "keyboard", Count: 1})
	}
	if err := r.Flush(); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}
	sums, err := r.Summaries()
	if err != nil {
		t.Fatalf("Summaries failed: %v", err)
	}
	var written int64
	if len(sums) == 1 {
		written = sums[0].Polls
	}
	if written+r.Lost() != total {
		t.Errorf("Expected %d samples written or lost, got %d written and %d lost", total, written, r.Lost())
	}
}
