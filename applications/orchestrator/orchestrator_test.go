package orchestrator

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/r3e-network/factor-arena/domain/mining"
	"github.com/r3e-network/factor-arena/infrastructure/auditlog"
	"github.com/r3e-network/factor-arena/infrastructure/config"
	"github.com/r3e-network/factor-arena/infrastructure/logging"
)

// fakeMiner is a configurable mining.Miner stand-in: it can succeed, fail,
// or panic, and records how many times MineFactors was invoked.
type fakeMiner struct {
	kind    mining.MinerKind
	calls   int
	panics  bool
	fail    bool
	factors []mining.FactorMetadata

	mu   sync.Mutex
	meta mining.MinerMetadata
}

func (f *fakeMiner) Kind() mining.MinerKind { return f.kind }

func (f *fakeMiner) IsHealthy() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.meta.ErrorCount < 5
}

func (f *fakeMiner) Metadata() mining.MinerMetadata {
	f.mu.Lock()
	defer f.mu.Unlock()
	meta := f.meta
	meta.Kind = f.kind
	meta.Healthy = meta.ErrorCount < 5
	return meta
}

func (f *fakeMiner) RecordFailure(at time.Time, reason string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.meta.RecordFailure(at, reason)
}

func (f *fakeMiner) MineFactors(ctx context.Context, data mining.PriceSeries, returns mining.Returns, opts mining.MineOptions) ([]mining.FactorMetadata, error) {
	f.calls++
	if f.panics {
		panic("simulated miner panic")
	}
	if f.fail {
		return nil, errMiningFailed
	}
	return f.factors, nil
}

var errMiningFailed = errors.New("simulated miner failure")

func newTestOrchestrator(t *testing.T) *Orchestrator {
	t.Helper()
	log := logging.New("test", "error", "text")
	cfg := config.OrchestratorConfig{WorkerPoolSize: 4, LoadThreshold: 1.0}
	return New(cfg, log, nil, auditlog.NewNop())
}

func TestMineParallelIsolatesPanickingMiner(t *testing.T) {
	o := newTestOrchestrator(t)

	good := &fakeMiner{kind: mining.KindGenetic, factors: []mining.FactorMetadata{
		{ID: "f1", MinerKind: mining.KindGenetic, Fitness: 0.5},
	}}
	bad := &fakeMiner{kind: mining.KindAIEnhanced, panics: true}

	require.NoError(t, o.Miners.Register(good))
	require.NoError(t, o.Miners.Register(bad))

	results, err := o.MineParallel(context.Background(), nil, nil, mining.MineOptions{}, mining.KindGenetic, mining.KindAIEnhanced)
	require.NoError(t, err)
	require.Len(t, results, 2)

	var goodResult, badResult mining.MiningResult
	for _, r := range results {
		if r.MinerKind == mining.KindGenetic {
			goodResult = r
		} else {
			badResult = r
		}
	}

	assert.True(t, goodResult.Success)
	assert.Len(t, goodResult.Factors, 1)

	assert.False(t, badResult.Success)
	assert.NotEmpty(t, badResult.Error)
}

func TestMineParallelIsolatesFailingMiner(t *testing.T) {
	o := newTestOrchestrator(t)

	good := &fakeMiner{kind: mining.KindGenetic, factors: []mining.FactorMetadata{{ID: "f1", MinerKind: mining.KindGenetic}}}
	bad := &fakeMiner{kind: mining.KindNetwork, fail: true}
	require.NoError(t, o.Miners.Register(good))
	require.NoError(t, o.Miners.Register(bad))

	results, err := o.MineParallel(context.Background(), nil, nil, mining.MineOptions{}, mining.KindGenetic, mining.KindNetwork)
	require.NoError(t, err)
	require.Len(t, results, 2)

	for _, r := range results {
		if r.MinerKind == mining.KindNetwork {
			assert.False(t, r.Success)
		}
		if r.MinerKind == mining.KindGenetic {
			assert.True(t, r.Success)
		}
	}
}

func TestMinerHealthFlipsAfterFiveFailures(t *testing.T) {
	o := newTestOrchestrator(t)
	bad := &fakeMiner{kind: mining.KindNetwork, fail: true}
	require.NoError(t, o.Miners.Register(bad))

	for i := 0; i < 4; i++ {
		_, err := o.MineParallel(context.Background(), nil, nil, mining.MineOptions{}, mining.KindNetwork)
		require.NoError(t, err)
		assert.True(t, o.Miners.Snapshot()[mining.KindNetwork].Healthy, "should stay healthy before the 5th failure")
	}

	_, err := o.MineParallel(context.Background(), nil, nil, mining.MineOptions{}, mining.KindNetwork)
	require.NoError(t, err)

	snap := o.Miners.Snapshot()[mining.KindNetwork]
	assert.Equal(t, 5, snap.ErrorCount)
	assert.False(t, snap.Healthy, "health flag should flip false at 5 errors")
}

func TestMinerHealthFlipsAfterRepeatedPanics(t *testing.T) {
	o := newTestOrchestrator(t)
	bad := &fakeMiner{kind: mining.KindAIEnhanced, panics: true}
	require.NoError(t, o.Miners.Register(bad))

	for i := 0; i < 5; i++ {
		_, err := o.MineParallel(context.Background(), nil, nil, mining.MineOptions{}, mining.KindAIEnhanced)
		require.NoError(t, err)
	}

	snap := o.Miners.Snapshot()[mining.KindAIEnhanced]
	assert.Equal(t, 5, snap.ErrorCount)
	assert.False(t, snap.Healthy)
}

func TestMineParallelRejectsWhenOverloaded(t *testing.T) {
	log := logging.New("test", "error", "text")
	cfg := config.OrchestratorConfig{WorkerPoolSize: 2, LoadThreshold: -1}
	o := New(cfg, log, nil, auditlog.NewNop())

	good := &fakeMiner{kind: mining.KindGenetic}
	require.NoError(t, o.Miners.Register(good))

	_, err := o.MineParallel(context.Background(), nil, nil, mining.MineOptions{}, mining.KindGenetic)
	assert.Error(t, err)
	assert.Zero(t, good.calls)
}

func TestShutdownRejectsFurtherRuns(t *testing.T) {
	o := newTestOrchestrator(t)
	good := &fakeMiner{kind: mining.KindGenetic}
	require.NoError(t, o.Miners.Register(good))

	o.Shutdown()
	o.Shutdown() // idempotent

	_, err := o.MineParallel(context.Background(), nil, nil, mining.MineOptions{}, mining.KindGenetic)
	assert.Error(t, err)
}

type recordingObserver struct {
	results []mining.MiningResult
}

func (r *recordingObserver) RecordMiningResult(result mining.MiningResult) {
	r.results = append(r.results, result)
}

func TestObserversNotifiedOnlyOnSuccess(t *testing.T) {
	o := newTestOrchestrator(t)
	obs := &recordingObserver{}
	o.AddObserver(obs)

	good := &fakeMiner{kind: mining.KindGenetic, factors: []mining.FactorMetadata{{ID: "f1", MinerKind: mining.KindGenetic}}}
	bad := &fakeMiner{kind: mining.KindNetwork, fail: true}
	require.NoError(t, o.Miners.Register(good))
	require.NoError(t, o.Miners.Register(bad))

	_, err := o.MineParallel(context.Background(), nil, nil, mining.MineOptions{}, mining.KindGenetic, mining.KindNetwork)
	require.NoError(t, err)

	require.Len(t, obs.results, 1)
	assert.Equal(t, mining.KindGenetic, obs.results[0].MinerKind)
}

func TestFactorRegistryRejectsDuplicateFactorID(t *testing.T) {
	o := newTestOrchestrator(t)
	miner := &fakeMiner{kind: mining.KindGenetic, factors: []mining.FactorMetadata{
		{ID: "dup", MinerKind: mining.KindGenetic},
	}}
	require.NoError(t, o.Miners.Register(miner))

	results, err := o.MineParallel(context.Background(), nil, nil, mining.MineOptions{}, mining.KindGenetic)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.True(t, results[0].Success)
	assert.Equal(t, 1, o.Factors.Count())

	// Second run re-discovers the same factor ID; the orchestrator logs and
	// skips the duplicate rather than failing the miner run.
	results2, err := o.MineParallel(context.Background(), nil, nil, mining.MineOptions{}, mining.KindGenetic)
	require.NoError(t, err)
	assert.True(t, results2[0].Success)
	assert.Equal(t, 1, o.Factors.Count())
}
