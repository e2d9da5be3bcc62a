package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/r3e-network/factor-arena/domain/mining"
	"github.com/r3e-network/factor-arena/infrastructure/auditlog"
	"github.com/r3e-network/factor-arena/infrastructure/config"
	apperrors "github.com/r3e-network/factor-arena/infrastructure/errors"
	"github.com/r3e-network/factor-arena/infrastructure/loadprobe"
	"github.com/r3e-network/factor-arena/infrastructure/logging"
	"github.com/r3e-network/factor-arena/infrastructure/metrics"
	"github.com/r3e-network/factor-arena/infrastructure/ratelimit"
	"github.com/r3e-network/factor-arena/infrastructure/resilience"
)

// ResultObserver is notified of every successful MiningResult, used by the
// meta-miner to accumulate performance samples without the orchestrator
// depending on the meta-miner's concrete type.
type ResultObserver interface {
	RecordMiningResult(result mining.MiningResult)
}

// Orchestrator owns the miner registry, the factor registry, and
// mine_parallel's dispatch loop.
type Orchestrator struct {
	Miners  *MinerRegistry
	Factors *FactorRegistry

	cfg     config.OrchestratorConfig
	log     *logging.Logger
	metrics *metrics.Metrics
	audit   *auditlog.Logger
	prober  *loadprobe.Prober
	limiter *ratelimit.RateLimiter

	observersMu sync.RWMutex
	observers   []ResultObserver

	breakersMu sync.Mutex
	breakers   map[mining.MinerKind]*resilience.CircuitBreaker

	shutdownMu sync.RWMutex
	shutdown   bool
}

// New builds an orchestrator with its own miner/factor registries.
func New(cfg config.OrchestratorConfig, log *logging.Logger, m *metrics.Metrics, audit *auditlog.Logger) *Orchestrator {
	if cfg.WorkerPoolSize <= 0 {
		cfg.WorkerPoolSize = len(mining.AllKinds)
	}
	return &Orchestrator{
		Miners:  NewMinerRegistry(),
		Factors: NewFactorRegistry(),
		cfg:     cfg,
		log:     log,
		metrics: m,
		audit:   audit,
		prober:  loadprobe.New(),
		limiter: ratelimit.New(ratelimit.RateLimitConfig{
			RequestsPerSecond: cfg.MineRunsPerSecond,
			Burst:             cfg.MineRunsBurst,
		}),
		breakers: make(map[mining.MinerKind]*resilience.CircuitBreaker),
	}
}

// AddObserver registers an observer to be notified after every successful
// miner run (used to feed the meta-miner's performance history).
func (o *Orchestrator) AddObserver(obs ResultObserver) {
	o.observersMu.Lock()
	defer o.observersMu.Unlock()
	o.observers = append(o.observers, obs)
}

func (o *Orchestrator) breakerFor(kind mining.MinerKind) *resilience.CircuitBreaker {
	o.breakersMu.Lock()
	defer o.breakersMu.Unlock()
	if cb, ok := o.breakers[kind]; ok {
		return cb
	}
	cb := resilience.New(resilience.DefaultConfig())
	o.breakers[kind] = cb
	return cb
}

// MineParallel runs every registered miner (or only those in kinds, if
// non-empty) against data/returns concurrently, bounded by the configured
// worker pool size, with per-miner fault isolation (panics and errors never
// abort sibling miners) and a load-based admission check. Results are
// index-aligned with the dispatched kinds (the kinds argument, or
// o.Miners.Kinds() when it is empty); successful results are registered
// into Factors and forwarded to every ResultObserver.
func (o *Orchestrator) MineParallel(ctx context.Context, data mining.PriceSeries, returns mining.Returns, opts mining.MineOptions, kinds ...mining.MinerKind) ([]mining.MiningResult, error) {
	if o.isShutdown() {
		return nil, apperrors.OrchestratorShutdown()
	}

	if err := o.admissionCheck(ctx); err != nil {
		return nil, err
	}

	targets := kinds
	if len(targets) == 0 {
		targets = o.Miners.Kinds()
	}

	started := time.Now()
	results := make([]mining.MiningResult, len(targets))

	sem := make(chan struct{}, o.cfg.WorkerPoolSize)
	var wg sync.WaitGroup

	for i, kind := range targets {
		miner, ok := o.Miners.Get(kind)
		if !ok {
			results[i] = mining.MiningResult{MinerKind: kind, Success: false, Error: "miner not registered"}
			continue
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(i int, kind mining.MinerKind, m mining.Miner) {
			defer wg.Done()
			defer func() { <-sem }()
			results[i] = o.runMiner(ctx, m, data, returns, opts)
		}(i, kind, miner)
	}

	wg.Wait()

	successCount := 0
	for _, r := range results {
		if r.Success {
			successCount++
		}
	}
	status := "success"
	if successCount == 0 && len(targets) > 0 {
		status = "all_failed"
	} else if successCount < len(targets) {
		status = "partial"
	}
	if o.metrics != nil {
		o.metrics.RecordMiningRun("factor-arena", status, time.Since(started))
	}

	return results, nil
}

// runMiner executes one miner's MineFactors call behind a per-kind circuit
// breaker, recovering panics into a failed MiningResult (fault isolation:
// one miner's crash never propagates to mine_parallel's caller or to
// sibling miners). Every failure caught here, panic or execErr, is also
// folded into the miner's own error count via RecordFailure so monitor_health
// reflects it.
func (o *Orchestrator) runMiner(ctx context.Context, m mining.Miner, data mining.PriceSeries, returns mining.Returns, opts mining.MineOptions) (result mining.MiningResult) {
	kind := m.Kind()
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("panic: %v", r)
			result = mining.MiningResult{
				MinerKind:     kind,
				Success:       false,
				Error:         apperrors.MinerFailure(string(kind), err).Error(),
				ExecutionTime: time.Since(start),
			}
			m.RecordFailure(time.Now(), err.Error())
			if o.log != nil {
				o.log.WithFields(map[string]interface{}{
					"miner_kind": string(kind),
					"panic":      r,
				}).Error("miner panicked, recovered")
			}
			if o.metrics != nil {
				o.metrics.RecordMinerFailure("factor-arena", string(kind))
			}
		}
	}()

	cb := o.breakerFor(kind)
	var factors []mining.FactorMetadata
	execErr := cb.Execute(ctx, func() error {
		var err error
		factors, err = m.MineFactors(ctx, data, returns, opts)
		return err
	})

	execTime := time.Since(start)

	if execErr != nil {
		m.RecordFailure(time.Now(), execErr.Error())
		if o.log != nil {
			o.log.WithError(execErr).WithField("miner_kind", string(kind)).Warn("miner run failed")
		}
		if o.metrics != nil {
			o.metrics.RecordMinerFailure("factor-arena", string(kind))
		}
		return mining.MiningResult{
			MinerKind:     kind,
			Success:       false,
			Error:         apperrors.MinerFailure(string(kind), execErr).Error(),
			ExecutionTime: execTime,
		}
	}

	registered := make([]mining.FactorMetadata, 0, len(factors))
	for _, f := range factors {
		if err := o.Factors.Register(f); err != nil {
			if o.log != nil {
				o.log.WithError(err).WithField("factor_id", f.ID).Warn("duplicate factor id skipped")
			}
			continue
		}
		registered = append(registered, f)
		if o.audit != nil {
			o.audit.Record(auditlog.ActionFactorRegistered, f.ID, map[string]interface{}{
				"miner_kind": string(f.MinerKind),
				"fitness":    f.Fitness,
			})
		}
	}

	if o.metrics != nil {
		o.metrics.RecordFactorsDiscovered("factor-arena", string(kind), len(registered))
		if meta := m.Metadata(); true {
			o.metrics.SetMinerAverageFitness("factor-arena", string(kind), meta.AverageFitness)
		}
	}

	result = mining.MiningResult{
		MinerKind:     kind,
		Factors:       registered,
		Success:       true,
		ExecutionTime: execTime,
	}

	o.observersMu.RLock()
	observers := append([]ResultObserver(nil), o.observers...)
	o.observersMu.RUnlock()
	for _, obs := range observers {
		obs.RecordMiningResult(result)
	}

	return result
}

// admissionCheck rejects mine_parallel with SystemOverloaded when the caller
// is dispatching runs faster than the configured rate, or when the host's
// observed CPU or memory load exceeds the configured threshold.
func (o *Orchestrator) admissionCheck(ctx context.Context) error {
	if o.limiter != nil && !o.limiter.Allow() {
		return apperrors.SystemOverloaded(0, 0, o.cfg.LoadThreshold)
	}

	snap, err := o.prober.Sample(ctx)
	if err != nil {
		// Load sampling itself failing is not grounds to reject work; the
		// orchestrator admits by default and logs the probe failure.
		if o.log != nil {
			o.log.WithError(err).Warn("load probe failed, admitting by default")
		}
		return nil
	}
	if o.metrics != nil {
		o.metrics.SetOrchestratorLoad("factor-arena", "cpu", snap.CPU)
		o.metrics.SetOrchestratorLoad("factor-arena", "memory", snap.Memory)
	}
	if snap.Exceeds(o.cfg.LoadThreshold) {
		return apperrors.SystemOverloaded(snap.CPU, snap.Memory, o.cfg.LoadThreshold)
	}
	return nil
}

// MonitorHealth returns a snapshot of every registered miner's health and
// the orchestrator's current load reading.
func (o *Orchestrator) MonitorHealth(ctx context.Context) (map[mining.MinerKind]mining.MinerMetadata, loadprobe.Snapshot) {
	snap, err := o.prober.Sample(ctx)
	if err != nil {
		snap = loadprobe.Snapshot{}
	}
	return o.Miners.Snapshot(), snap
}

// Shutdown marks the orchestrator closed; subsequent MineParallel calls
// return OrchestratorShutdown. Idempotent.
func (o *Orchestrator) Shutdown() {
	o.shutdownMu.Lock()
	defer o.shutdownMu.Unlock()
	o.shutdown = true
}

func (o *Orchestrator) isShutdown() bool {
	o.shutdownMu.RLock()
	defer o.shutdownMu.RUnlock()
	return o.shutdown
}
