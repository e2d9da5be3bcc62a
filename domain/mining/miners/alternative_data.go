package miners

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/r3e-network/factor-arena/domain/mining"
	"github.com/r3e-network/factor-arena/infrastructure/fallback"
	"github.com/r3e-network/factor-arena/infrastructure/logging"
)

// SourceReliability tracks one alternative-data source's health, per
// spec §4.1 "Degradation and fallback".
type SourceReliability struct {
	QualityScore            float64
	ExpectedFrequencyHours  float64
	LastUpdateTime          time.Time
	ConsecutiveFailures     int
	Available               bool
	FallbackTriggered       bool
}

// ShouldTriggerFallback implements the universal fallback predicate (P3):
// quality < 0.5 OR hours_since(last_update) > 2 * expected_frequency.
func (r SourceReliability) ShouldTriggerFallback(now time.Time) bool {
	delayHours := now.Sub(r.LastUpdateTime).Hours()
	return r.QualityScore < 0.5 || delayHours > 2*r.ExpectedFrequencyHours
}

// ReliabilityStatus is the reliability report's per-source status field.
type ReliabilityStatus string

const (
	ReliabilityAvailable   ReliabilityStatus = "available"
	ReliabilityDegraded    ReliabilityStatus = "degraded"
	ReliabilityUnavailable ReliabilityStatus = "unavailable"
)

// ReliabilityReportEntry is one row of AlternativeDataMiner.ReliabilityReport.
type ReliabilityReportEntry struct {
	Status              ReliabilityStatus
	QualityScore        float64
	ExpectedFrequencyH  float64
	LastUpdateISO       string
	ConsecutiveFailures int
	UpdateDelayed       bool
	FallbackTriggered   bool
}

// AlternativeDataOperator is a named operator paired with its substitute:
// Primary reads a source tagged Source from AuxiliaryData's alt-data map;
// Substitute is the deterministic OHLCV-derived fallback used when the
// source's reliability record demands it.
type AlternativeDataOperator struct {
	Name       string
	Source     mining.AltSourceTag
	Primary    func(alt mining.AltSeries, data mining.PriceSeries) (mining.Returns, error)
	Substitute func(data mining.PriceSeries) (mining.Returns, error)
}

// AlternativeDataMiner implements the alt-data miner kinds (basic and
// extended share this implementation, differing only in their operator
// set and DataSource tag). Each tracked source has an independent
// reliability record; fallback activation is recorded there and surfaced
// through ReliabilityReport.
type AlternativeDataMiner struct {
	kind       mining.MinerKind
	operators  []AlternativeDataOperator
	freq       int
	log        *logging.Logger
	fallbackFn *fallback.Handler

	mu           sync.Mutex
	meta         mining.MinerMetadata
	reliability  map[mining.AltSourceTag]SourceReliability
}

// NewAlternativeDataMiner builds an alt-data miner. initialReliability
// seeds the per-source reliability records; sources absent from it default
// to {quality: 1.0, available: true}.
func NewAlternativeDataMiner(kind mining.MinerKind, operators []AlternativeDataOperator, freq int, log *logging.Logger, initialReliability map[mining.AltSourceTag]SourceReliability) *AlternativeDataMiner {
	if freq <= 0 {
		freq = 252
	}
	rel := make(map[mining.AltSourceTag]SourceReliability, len(initialReliability))
	for k, v := range initialReliability {
		rel[k] = v
	}
	return &AlternativeDataMiner{
		kind:       kind,
		operators:  operators,
		freq:       freq,
		log:        log,
		fallbackFn: fallback.NewHandler(fallback.DefaultConfig()),
		meta: mining.MinerMetadata{
			Kind:    kind,
			Name:    string(kind),
			Status:  mining.MinerIdle,
			Healthy: true,
		},
		reliability: rel,
	}
}

func (m *AlternativeDataMiner) Kind() mining.MinerKind { return m.kind }

func (m *AlternativeDataMiner) IsHealthy() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.meta.Healthy
}

func (m *AlternativeDataMiner) Metadata() mining.MinerMetadata {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.meta
}

// MineFactors runs each operator against its source, substituting the
// deterministic fallback whenever the source's reliability record demands
// it, and producing one FactorMetadata per operator invoked (P1).
func (m *AlternativeDataMiner) MineFactors(ctx context.Context, data mining.PriceSeries, returns mining.Returns, opts mining.MineOptions) ([]mining.FactorMetadata, error) {
	now := time.Now()
	var factors []mining.FactorMetadata

	for _, op := range m.operators {
		select {
		case <-ctx.Done():
			m.RecordFailure(now, "cancelled")
			return nil, ctx.Err()
		default:
		}

		series, err := m.runOperator(op, data, opts.AltData)
		if err != nil {
			if m.log != nil {
				m.log.WithField("miner_kind", string(m.kind)).WithField("operator", op.Name).WithError(err).Warn("operator skipped")
			}
			continue
		}

		ic, ir, sharpe := mining.EvaluateFactor(series, returns, m.freq)
		if isNaN(ic) || isNaN(ir) || isNaN(sharpe) {
			continue
		}
		fitness := mining.Fitness(ic, ir, sharpe)

		factors = append(factors, mining.FactorMetadata{
			ID:           fmt.Sprintf("%s_%s_%d_%s", m.kind, op.Name, now.UnixNano(), uuid.NewString()[:8]),
			Name:         op.Name,
			MinerKind:    m.kind,
			DataSource:   string(op.Source),
			DiscoveredAt: now,
			Discoverer:   string(m.kind),
			Expression:   op.Name,
			Fitness:      fitness,
			IC:           ic,
			IR:           ir,
			Sharpe:       sharpe,
			Status:       mining.StatusDiscovered,
		})
	}

	m.mu.Lock()
	m.meta.RecordDiscovery(factors, now)
	m.mu.Unlock()

	return factors, nil
}

// runOperator resolves whether op's source demands fallback per its
// reliability record (quality < 0.5 or staleness > 2x expected
// frequency); when it does not, the primary reading is still attempted
// through fallback.Handler.Execute so a primary-side error degrades to
// the substitute rather than failing the operator outright.
func (m *AlternativeDataMiner) runOperator(op AlternativeDataOperator, data mining.PriceSeries, altData mining.AltData) (mining.Returns, error) {
	now := time.Now()

	m.mu.Lock()
	rel, ok := m.reliability[op.Source]
	if !ok {
		rel = SourceReliability{QualityScore: 1.0, ExpectedFrequencyHours: 24, LastUpdateTime: now, Available: true}
	}
	needsFallback := rel.ShouldTriggerFallback(now)
	m.mu.Unlock()

	substituteFn := fallback.Func(func(ctx context.Context) (interface{}, error) {
		return op.Substitute(data)
	})

	altSeries := altData[op.Source]

	var result *fallback.Result
	if needsFallback {
		result = &fallback.Result{Source: "fallback"}
		value, err := op.Substitute(data)
		result.Value, result.Err = value, err
	} else {
		primaryFn := fallback.Func(func(ctx context.Context) (interface{}, error) {
			return op.Primary(altSeries, data)
		})
		result = m.fallbackFn.Execute(context.Background(), primaryFn, substituteFn)
	}

	m.mu.Lock()
	if cur, ok := m.reliability[op.Source]; ok {
		rel = cur
	}
	if result.Source == "fallback" {
		rel.FallbackTriggered = true
	}
	if result.Err != nil {
		rel.ConsecutiveFailures++
	}
	m.reliability[op.Source] = rel
	m.mu.Unlock()

	if result.Err != nil {
		return nil, result.Err
	}
	series, _ := result.Value.(mining.Returns)
	return series, nil
}

// RecordFailure folds a failure into the miner's error count and health
// flag, whether caught internally (ctx cancellation) or by the orchestrator
// at the task boundary (panic, MineFactors error).
func (m *AlternativeDataMiner) RecordFailure(at time.Time, reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.meta.RecordFailure(at, reason)
}

// ReliabilityReport returns the per-source reliability view named in
// external interfaces §6.
func (m *AlternativeDataMiner) ReliabilityReport() map[mining.AltSourceTag]ReliabilityReportEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	out := make(map[mining.AltSourceTag]ReliabilityReportEntry, len(m.reliability))
	for tag, rel := range m.reliability {
		status := ReliabilityAvailable
		delayed := rel.ShouldTriggerFallback(now)
		switch {
		case !rel.Available:
			status = ReliabilityUnavailable
		case delayed:
			status = ReliabilityDegraded
		}
		out[tag] = ReliabilityReportEntry{
			Status:              status,
			QualityScore:        rel.QualityScore,
			ExpectedFrequencyH:  rel.ExpectedFrequencyHours,
			LastUpdateISO:       rel.LastUpdateTime.Format(time.RFC3339),
			ConsecutiveFailures: rel.ConsecutiveFailures,
			UpdateDelayed:       delayed,
			FallbackTriggered:   rel.FallbackTriggered,
		}
	}
	return out
}

// SetReliability updates (or seeds) one source's reliability record,
// used by tests and by an ingestion pipeline reporting fresh source health.
func (m *AlternativeDataMiner) SetReliability(tag mining.AltSourceTag, rel SourceReliability) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reliability[tag] = rel
}
