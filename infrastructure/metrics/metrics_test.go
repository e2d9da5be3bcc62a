package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func TestRecordMiningRun(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewWithRegistry("test-service", reg)

	m.RecordMiningRun("test-service", "success", 2*time.Second)
	m.RecordMiningRun("test-service", "failed", 500*time.Millisecond)
}

func TestRecordFactorsDiscovered(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewWithRegistry("test-service", reg)

	m.RecordFactorsDiscovered("test-service", "genetic", 3)
	m.RecordFactorsDiscovered("test-service", "sentiment", 0)
}

func TestRecordMinerFailure(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewWithRegistry("test-service", reg)

	m.RecordMinerFailure("test-service", "network")
}

func TestSetMinerAverageFitness(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewWithRegistry("test-service", reg)

	m.SetMinerAverageFitness("test-service", "genetic", 0.42)
}

func TestSetOrchestratorLoad(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewWithRegistry("test-service", reg)

	m.SetOrchestratorLoad("test-service", "cpu", 0.55)
	m.SetOrchestratorLoad("test-service", "memory", 0.33)
}

func TestRecordArenaEvaluation(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewWithRegistry("test-service", reg)

	m.RecordArenaEvaluation("test-service", "GOLD", 0.8515)
	m.RecordArenaLayerScore("test-service", "layer1", 0.9)
}

func TestRecordError(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewWithRegistry("test-service", reg)

	m.RecordError("test-service", "validation", "mine_parallel")
	m.RecordError("test-service", "timeout", "evaluate_strategy")
}

func TestUpdateUptime(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewWithRegistry("test-service", reg)
	startTime := time.Now().Add(-1 * time.Hour)

	m.UpdateUptime(startTime)
}

func TestNewWithRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewWithRegistry("test-service", reg)

	if m == nil {
		t.Fatal("Expected metrics instance, got nil")
	}

	metricFamilies, err := reg.Gather()
	if err != nil {
		t.Fatalf("Failed to gather metrics: %v", err)
	}

	if len(metricFamilies) == 0 {
		t.Error("Expected metrics to be registered")
	}
}
