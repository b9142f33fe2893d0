package stats

import (
	"testing"
	"time"
)

func TestClassifyThresholds(t *testing.T) {
	cases := []struct {
		rate float64
		want Status
	}{
		{0, StatusIdle},
		{0.05, StatusIdle},
		{5, StatusSlow},
		{15, StatusAverage},
		{30, StatusGood},
		{60, StatusExcellent},
	}
	for _, c := range cases {
		if got := Classify(c.rate); got != c.want {
			t.Errorf("Classify(%v) = %v, want %v", c.rate, got, c.want)
		}
	}
}

func TestFinishScanFreezesDiscoveryRate(t *testing.T) {
	c := New(nil)
	c.StartScan()
	c.snap.scanStart = time.Now().Add(-1 * time.Second)

	for i := 0; i < 10; i++ {
		c.RecordDiscovered()
	}
	c.FinishScan()

	before := c.Snapshot().DiscoveryRateFilesPerSec
	if before <= 0 {
		t.Fatalf("expected a positive frozen discovery rate, got %v", before)
	}

	time.Sleep(5 * time.Millisecond)
	after := c.Snapshot().DiscoveryRateFilesPerSec
	if after != before {
		t.Errorf("expected discovery rate to stay frozen at %v, got %v", before, after)
	}
}

func TestFinishProcessingFreezesCommitRate(t *testing.T) {
	c := New(nil)
	c.StartScan()
	c.snap.scanStart = time.Now().Add(-1 * time.Second)

	c.RecordCommitted(5, 1024*1024)
	c.FinishProcessing()

	snap := c.Snapshot()
	if snap.CommitRateFilesPerSec <= 0 {
		t.Fatalf("expected a positive frozen commit rate, got %v", snap.CommitRateFilesPerSec)
	}
	if snap.ThroughputMBps <= 0 {
		t.Fatalf("expected a positive frozen throughput, got %v", snap.ThroughputMBps)
	}
}

func TestResetZeroesCounters(t *testing.T) {
	c := New(nil)
	c.RecordDiscovered()
	c.RecordCommitted(1, 100)
	c.Reset()

	snap := c.Snapshot()
	if snap.FilesDiscovered != 0 || snap.FilesCommitted != 0 || snap.BytesCommitted != 0 {
		t.Errorf("expected all counters zeroed after Reset, got %+v", snap)
	}
}
