// Package metaminer implements the adaptive controller that watches every
// other miner's outcomes, classifies the current market regime, and
// recommends which miner kinds to prioritize next. It itself implements
// the miner contract under mining.KindUnified, so the orchestrator can
// register and dispatch it exactly like any other miner.
package metaminer

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/r3e-network/factor-arena/domain/mining"
	"github.com/r3e-network/factor-arena/infrastructure/config"
	"github.com/r3e-network/factor-arena/infrastructure/logging"
)

// PerformanceStats summarizes a miner kind's recent history, nil when the
// sample count is below MinSamples.
type PerformanceStats struct {
	Kind            mining.MinerKind
	MeanSuccessRate float64
	MeanFitness     float64
	MeanIC          float64
	MeanIR          float64
	MeanExecTime    time.Duration
	TotalFactors    int
	Trend           float64 // recent_mean_fitness - overall_mean_fitness
	SampleCount     int
}

// Recommendation is recommend_miners's output: the top-k scored kinds for
// the current regime.
type Recommendation struct {
	Regime     Regime
	Kinds      []mining.MinerKind
	Scores     map[mining.MinerKind]float64
	Rationale  string
	Confidence float64
}

// MetaMiner holds the bounded performance and regime history and exposes
// both its extra analysis API and the plain miner contract.
type MetaMiner struct {
	cfg config.MetaMinerConfig
	log *logging.Logger

	mu       sync.Mutex
	history  map[mining.MinerKind][]mining.MinerPerformanceSample
	regimes  []regimeObservation
	meta     mining.MinerMetadata
}

type regimeObservation struct {
	at     time.Time
	regime Regime
}

// New builds an empty meta-miner.
func New(cfg config.MetaMinerConfig, log *logging.Logger) *MetaMiner {
	return &MetaMiner{
		cfg:     cfg,
		log:     log,
		history: make(map[mining.MinerKind][]mining.MinerPerformanceSample),
		meta: mining.MinerMetadata{
			Kind:    mining.KindUnified,
			Name:    string(mining.KindUnified),
			Status:  mining.MinerIdle,
			Healthy: true,
		},
	}
}

// RecordMiningResult implements orchestrator.ResultObserver: failed results
// are ignored; successful ones are folded into a per-result average
// (fitness, IC, IR over the contained factors; 0 when empty) and appended,
// then stale samples older than the optimization window are evicted.
func (m *MetaMiner) RecordMiningResult(result mining.MiningResult) {
	if !result.Success {
		return
	}
	m.record(result, result.ExecutionTime, time.Now())
}

func (m *MetaMiner) record(result mining.MiningResult, execTime time.Duration, now time.Time) {
	var sumFitness, sumIC, sumIR float64
	n := len(result.Factors)
	for _, f := range result.Factors {
		sumFitness += f.Fitness
		sumIC += f.IC
		sumIR += f.IR
	}
	avgFitness, avgIC, avgIR := 0.0, 0.0, 0.0
	if n > 0 {
		avgFitness = sumFitness / float64(n)
		avgIC = sumIC / float64(n)
		avgIR = sumIR / float64(n)
	}

	sample := mining.MinerPerformanceSample{
		MinerKind:   result.MinerKind,
		SuccessRate: 1,
		AvgFitness:  avgFitness,
		AvgIC:       avgIC,
		AvgIR:       avgIR,
		ExecTime:    execTime,
		FactorCount: n,
		Timestamp:   now,
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.history[result.MinerKind] = append(m.history[result.MinerKind], sample)
	m.evictStale(result.MinerKind, now)
}

func (m *MetaMiner) evictStale(kind mining.MinerKind, now time.Time) {
	window := time.Duration(m.windowDays()) * 24 * time.Hour
	samples := m.history[kind]
	cutoff := now.Add(-window)
	kept := samples[:0]
	for _, s := range samples {
		if s.Timestamp.After(cutoff) {
			kept = append(kept, s)
		}
	}
	m.history[kind] = kept
}

func (m *MetaMiner) windowDays() int {
	if m.cfg.OptimizationWindowDays <= 0 {
		return 30
	}
	return m.cfg.OptimizationWindowDays
}

func (m *MetaMiner) minSamples() int {
	if m.cfg.MinSamples <= 0 {
		return 10
	}
	return m.cfg.MinSamples
}

func (m *MetaMiner) topK() int {
	if m.cfg.TopK <= 0 {
		return 5
	}
	return m.cfg.TopK
}

// DetectMarketRegime delegates to the package-level classifier.
func (m *MetaMiner) DetectMarketRegime(returns mining.Returns) Regime {
	regime := DetectMarketRegime(returns)
	m.mu.Lock()
	m.regimes = append(m.regimes, regimeObservation{at: time.Now(), regime: regime})
	m.evictStaleRegimes(time.Now())
	m.mu.Unlock()
	return regime
}

func (m *MetaMiner) evictStaleRegimes(now time.Time) {
	window := time.Duration(m.windowDays()) * 24 * time.Hour
	cutoff := now.Add(-window)
	kept := m.regimes[:0]
	for _, r := range m.regimes {
		if r.at.After(cutoff) {
			kept = append(kept, r)
		}
	}
	m.regimes = kept
}

// AnalyzeMinerPerformance aggregates a kind's history, returning
// (nil, false) if fewer than MinSamples samples are present.
func (m *MetaMiner) AnalyzeMinerPerformance(kind mining.MinerKind) (*PerformanceStats, bool) {
	m.mu.Lock()
	samples := append([]mining.MinerPerformanceSample(nil), m.history[kind]...)
	m.mu.Unlock()

	if len(samples) < m.minSamples() {
		return nil, false
	}

	var sumSuccess, sumFitness, sumIC, sumIR float64
	var sumExec time.Duration
	var totalFactors int
	for _, s := range samples {
		sumSuccess += s.SuccessRate
		sumFitness += s.AvgFitness
		sumIC += s.AvgIC
		sumIR += s.AvgIR
		sumExec += s.ExecTime
		totalFactors += s.FactorCount
	}
	n := float64(len(samples))
	overallMeanFitness := sumFitness / n

	recentN := 5
	if recentN > len(samples) {
		recentN = len(samples)
	}
	recent := samples[len(samples)-recentN:]
	var recentFitness float64
	for _, s := range recent {
		recentFitness += s.AvgFitness
	}
	recentMeanFitness := recentFitness / float64(len(recent))

	return &PerformanceStats{
		Kind:            kind,
		MeanSuccessRate: sumSuccess / n,
		MeanFitness:     overallMeanFitness,
		MeanIC:          sumIC / n,
		MeanIR:          sumIR / n,
		MeanExecTime:    time.Duration(float64(sumExec) / n),
		TotalFactors:    totalFactors,
		Trend:           recentMeanFitness - overallMeanFitness,
		SampleCount:     len(samples),
	}, true
}

// RecommendMiners scores every kind with history under the current regime
// and returns the top-k.
func (m *MetaMiner) RecommendMiners(regime Regime, topK int) Recommendation {
	if topK <= 0 {
		topK = m.topK()
	}

	m.mu.Lock()
	kinds := make([]mining.MinerKind, 0, len(m.history))
	for k := range m.history {
		kinds = append(kinds, k)
	}
	m.mu.Unlock()
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })

	scores := make(map[mining.MinerKind]float64, len(kinds))
	totalSamples := 0
	for _, kind := range kinds {
		stats, ok := m.AnalyzeMinerPerformance(kind)
		if !ok {
			continue
		}
		totalSamples += stats.SampleCount

		base := (0.4*stats.MeanFitness + 0.3*abs(stats.MeanIC) + 0.3*abs(stats.MeanIR)) * stats.MeanSuccessRate
		trendBonus := 0.2 * maxFloat(0, stats.Trend)
		efficiencyBonus := 0.0
		if stats.MeanExecTime < 10*time.Second {
			efficiencyBonus = 0.1
		}
		affinity := regimeAffinity(kind, regime)

		scores[kind] = base + trendBonus + efficiencyBonus + affinity
	}

	ranked := make([]mining.MinerKind, 0, len(scores))
	for k := range scores {
		ranked = append(ranked, k)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if scores[ranked[i]] != scores[ranked[j]] {
			return scores[ranked[i]] > scores[ranked[j]]
		}
		return ranked[i] < ranked[j]
	})
	if len(ranked) > topK {
		ranked = ranked[:topK]
	}

	var top1, top2 float64
	if len(ranked) > 0 {
		top1 = scores[ranked[0]]
	}
	if len(ranked) > 1 {
		top2 = scores[ranked[1]]
	}
	gapConfidence := clamp((top1-top2)/0.5, 0, 1)
	sampleConfidence := clamp(float64(totalSamples)/float64(topK*m.minSamples()), 0, 1)
	confidence := 0.6*gapConfidence + 0.4*sampleConfidence

	rationale := fmt.Sprintf("regime=%s: ranked %d miner kinds by fitness/IC/IR history with regime affinity bonuses", regime, len(ranked))

	return Recommendation{
		Regime:     regime,
		Kinds:      ranked,
		Scores:     scores,
		Rationale:  rationale,
		Confidence: confidence,
	}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// --- mining.Miner contract ---

func (m *MetaMiner) Kind() mining.MinerKind { return mining.KindUnified }

func (m *MetaMiner) IsHealthy() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.meta.Healthy
}

func (m *MetaMiner) Metadata() mining.MinerMetadata {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.meta
}

// RecordFailure folds a failure caught at the orchestrator's task boundary
// into the meta-miner's own error count and health flag.
func (m *MetaMiner) RecordFailure(at time.Time, reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.meta.RecordFailure(at, reason)
}

// MineFactors computes the regime from returns, recommends the top-5
// kinds, and emits one recommendation factor per recommended kind.
func (m *MetaMiner) MineFactors(ctx context.Context, data mining.PriceSeries, returns mining.Returns, opts mining.MineOptions) ([]mining.FactorMetadata, error) {
	now := time.Now()
	regime := m.DetectMarketRegime(returns)
	rec := m.RecommendMiners(regime, m.topK())

	factors := make([]mining.FactorMetadata, 0, len(rec.Kinds))
	for _, kind := range rec.Kinds {
		score := rec.Scores[kind]
		factors = append(factors, mining.FactorMetadata{
			ID:           fmt.Sprintf("meta_recommendation_%s_%d", kind, now.UnixNano()),
			Name:         fmt.Sprintf("recommend_%s", kind),
			MinerKind:    mining.KindUnified,
			DataSource:   "meta",
			DiscoveredAt: now,
			Discoverer:   string(mining.KindUnified),
			Expression:   rec.Rationale,
			Fitness:      score,
			IC:           score * 0.8,
			IR:           score * 0.7,
			Sharpe:       score * 0.6,
			Status:       mining.StatusDiscovered,
		})
	}

	m.mu.Lock()
	m.meta.RecordDiscovery(factors, now)
	m.mu.Unlock()

	return factors, nil
}
