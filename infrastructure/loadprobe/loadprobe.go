// Package loadprobe samples host CPU and memory load for the orchestrator's
// admission check (spec §5 "Concurrency & Resource Model": mine_parallel is
// rejected with SystemOverloaded when load exceeds the configured
// threshold). Backed by github.com/shirou/gopsutil/v3, already part of the
// ambient stack's process-introspection dependency but unused by any
// surviving teacher module before this package.
package loadprobe

import (
	"context"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// Snapshot is one point-in-time load reading, each value in [0, 1].
type Snapshot struct {
	CPU    float64
	Memory float64
}

// Prober samples host load. The zero value is ready to use.
type Prober struct {
	// SampleWindow is how long cpu.PercentWithContext observes before
	// returning a percentage; 0 uses a non-blocking instantaneous sample.
	SampleWindow time.Duration
}

// New returns a Prober with a short blocking sample window, trading a small
// fixed latency per admission check for a less noisy CPU reading.
func New() *Prober {
	return &Prober{SampleWindow: 200 * time.Millisecond}
}

// Sample returns the current CPU and memory load ratios.
func (p *Prober) Sample(ctx context.Context) (Snapshot, error) {
	percents, err := cpu.PercentWithContext(ctx, p.SampleWindow, false)
	if err != nil {
		return Snapshot{}, err
	}
	var cpuRatio float64
	if len(percents) > 0 {
		cpuRatio = percents[0] / 100.0
	}

	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return Snapshot{}, err
	}

	return Snapshot{CPU: cpuRatio, Memory: vm.UsedPercent / 100.0}, nil
}

// Exceeds reports whether either CPU or memory load exceeds threshold.
func (s Snapshot) Exceeds(threshold float64) bool {
	return s.CPU > threshold || s.Memory > threshold
}
