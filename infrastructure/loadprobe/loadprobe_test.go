package loadprobe

import (
	"context"
	"testing"
	"time"
)

func TestSampleReturnsBoundedRatios(t *testing.T) {
	p := &Prober{SampleWindow: 50 * time.Millisecond}
	snap, err := p.Sample(context.Background())
	if err != nil {
		t.Fatalf("Sample() error = %v", err)
	}
	if snap.CPU < 0 || snap.CPU > 1 {
		t.Errorf("CPU = %v, want in [0,1]", snap.CPU)
	}
	if snap.Memory < 0 || snap.Memory > 1 {
		t.Errorf("Memory = %v, want in [0,1]", snap.Memory)
	}
}

func TestSnapshotExceeds(t *testing.T) {
	cases := []struct {
		snap      Snapshot
		threshold float64
		want      bool
	}{
		{Snapshot{CPU: 0.9, Memory: 0.1}, 0.8, true},
		{Snapshot{CPU: 0.1, Memory: 0.9}, 0.8, true},
		{Snapshot{CPU: 0.5, Memory: 0.5}, 0.8, false},
	}
	for _, c := range cases {
		if got := c.snap.Exceeds(c.threshold); got != c.want {
			t.Errorf("Exceeds(%v) on %+v = %v, want %v", c.threshold, c.snap, got, c.want)
		}
	}
}
