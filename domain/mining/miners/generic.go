// Package miners provides the concrete Miner implementations registered
// under the orchestrator's sixteen kind tags. Per-operator numerical
// formulas are deliberately out of scope (spec §1): GenericMiner hosts any
// kind whose operator table is a pluggable set of pure functions with no
// further orchestrator-visible behavior, while AlternativeDataMiner adds
// the degradation/fallback contract the spec calls out by name.
package miners

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/r3e-network/factor-arena/domain/mining"
	"github.com/r3e-network/factor-arena/infrastructure/logging"
)

// GenericMiner hosts an operator table for one of the miner kinds whose
// per-operator formulas are pluggable (genetic, AI-enhanced, network,
// high-frequency, sentiment, ML-feature, time-series-DL, ESG,
// price-volume, macro, event-driven, style-rotation, factor-combination).
type GenericMiner struct {
	kind      mining.MinerKind
	operators mining.OperatorTable
	freq      int
	log       *logging.Logger

	mu   sync.Mutex
	meta mining.MinerMetadata
}

// NewGenericMiner builds a miner for kind with the given operator table.
// freq is the annualization factor used when scoring each operator's
// factor-weighted Sharpe (default 252 trading days).
func NewGenericMiner(kind mining.MinerKind, operators mining.OperatorTable, freq int, log *logging.Logger) *GenericMiner {
	if freq <= 0 {
		freq = 252
	}
	return &GenericMiner{
		kind:      kind,
		operators: operators,
		freq:      freq,
		log:       log,
		meta: mining.MinerMetadata{
			Kind:    kind,
			Name:    string(kind),
			Status:  mining.MinerIdle,
			Healthy: true,
		},
	}
}

func (m *GenericMiner) Kind() mining.MinerKind { return m.kind }

func (m *GenericMiner) IsHealthy() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.meta.Healthy
}

func (m *GenericMiner) Metadata() mining.MinerMetadata {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.meta
}

// MineFactors invokes every operator in the table, skipping any that
// return an error or exceed the per-operator soft budget, and produces one
// FactorMetadata per operator that succeeded.
func (m *GenericMiner) MineFactors(ctx context.Context, data mining.PriceSeries, returns mining.Returns, opts mining.MineOptions) ([]mining.FactorMetadata, error) {
	now := time.Now()
	var factors []mining.FactorMetadata

	for name, op := range m.operators {
		select {
		case <-ctx.Done():
			m.RecordFailure(now, "cancelled")
			return nil, ctx.Err()
		default:
		}

		series, err := m.runOperatorWithBudget(ctx, op, data, opts.Aux, opts.Symbols, opts)
		if err != nil {
			if m.log != nil {
				m.log.WithFields(logrus.Fields(loggerFields(m.kind, name))).WithError(err).Warn("operator skipped")
			}
			continue
		}

		ic, ir, sharpe := mining.EvaluateFactor(series, returns, m.freq)
		if isNaN(ic) || isNaN(ir) || isNaN(sharpe) {
			continue
		}
		fitness := mining.Fitness(ic, ir, sharpe)

		factors = append(factors, mining.FactorMetadata{
			ID:           fmt.Sprintf("%s_%s_%d_%s", m.kind, name, now.UnixNano(), uuid.NewString()[:8]),
			Name:         name,
			MinerKind:    m.kind,
			DataSource:   "price_volume",
			DiscoveredAt: now,
			Discoverer:   string(m.kind),
			Expression:   name,
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

// runOperatorWithBudget invokes op, recovering a panic into an error and
// enforcing opts.PerOperatorBudget as a soft deadline: an operator that
// overruns is treated as a skipped operator, not a failed miner.
func (m *GenericMiner) runOperatorWithBudget(ctx context.Context, op mining.OperatorFunc, data mining.PriceSeries, aux mining.AuxiliaryData, symbols mining.Symbols, opts mining.MineOptions) (series mining.Returns, err error) {
	type result struct {
		series mining.Returns
		err    error
	}
	done := make(chan result, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- result{nil, fmt.Errorf("operator panic: %v", r)}
			}
		}()
		s, e := op(data, aux, symbols)
		done <- result{s, e}
	}()

	budget := opts.PerOperatorBudget
	if budget <= 0 {
		select {
		case r := <-done:
			return r.series, r.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	select {
	case r := <-done:
		return r.series, r.err
	case <-time.After(time.Duration(budget)):
		return nil, fmt.Errorf("operator exceeded soft budget")
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// RecordFailure folds a failure into the miner's error count and health
// flag, whether caught internally (ctx cancellation) or by the orchestrator
// at the task boundary (panic, MineFactors error).
func (m *GenericMiner) RecordFailure(at time.Time, reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.meta.RecordFailure(at, reason)
}

func isNaN(v float64) bool { return v != v }

func loggerFields(kind mining.MinerKind, operator string) map[string]interface{} {
	return map[string]interface{}{
		"miner_kind": string(kind),
		"operator":   operator,
	}
}
