package arena

import (
	"fmt"

	"github.com/r3e-network/factor-arena/domain/mining"
)

// bound is one metric's {min, excellent} threshold pair.
type bound struct {
	min       float64
	excellent float64
	// higherIsBetter is false for metrics where passing means staying
	// below the bound (max drawdown).
	higherIsBetter bool
}

// thresholdSet is one market type's full bound table, keyed by metric name.
type thresholdSet map[string]bound

// thresholds holds the three market-typed bound tables named in §4.3;
// values follow the conventional equity/futures/crypto risk profiles
// (crypto tolerates deeper drawdowns and lower Sharpe for the same grade,
// futures sits between the two).
var thresholds = map[MarketType]thresholdSet{
	MarketAStock: {
		"sharpe":       {min: 1.0, excellent: 2.0, higherIsBetter: true},
		"sortino":      {min: 1.2, excellent: 2.5, higherIsBetter: true},
		"max_drawdown": {min: 0.25, excellent: 0.10, higherIsBetter: false},
		"calmar":       {min: 1.0, excellent: 3.0, higherIsBetter: true},
	},
	MarketFutures: {
		"sharpe":       {min: 0.8, excellent: 1.8, higherIsBetter: true},
		"sortino":      {min: 1.0, excellent: 2.2, higherIsBetter: true},
		"max_drawdown": {min: 0.30, excellent: 0.15, higherIsBetter: false},
		"calmar":       {min: 0.8, excellent: 2.5, higherIsBetter: true},
	},
	MarketCrypto: {
		"sharpe":       {min: 0.6, excellent: 1.5, higherIsBetter: true},
		"sortino":      {min: 0.8, excellent: 1.8, higherIsBetter: true},
		"max_drawdown": {min: 0.50, excellent: 0.25, higherIsBetter: false},
		"calmar":       {min: 0.5, excellent: 1.5, higherIsBetter: true},
	},
}

func resolveThresholds(mt MarketType) thresholdSet {
	if t, ok := thresholds[mt]; ok {
		return t
	}
	return thresholds[MarketAStock]
}

// gradeMetrics applies a market-typed threshold set: EXCELLENT iff at
// least 80% of applicable metrics meet their excellent bar and none fail
// the minimum; QUALIFIED iff all meet minimums; else UNQUALIFIED.
func gradeMetrics(m InvestmentMetrics, mt MarketType) (Grade, map[string]float64) {
	ts := resolveThresholds(mt)
	values := map[string]float64{
		"sharpe":       m.Sharpe,
		"sortino":      m.Sortino,
		"max_drawdown": -m.MaxDrawdown, // MaxDrawdown <= 0; store as a positive magnitude
		"calmar":       m.Calmar,
	}

	allMinPass := true
	excellentCount := 0
	applicable := 0

	for name, b := range ts {
		applicable++
		v := values[name]
		var meetsMin, meetsExcellent bool
		if b.higherIsBetter {
			meetsMin = v >= b.min
			meetsExcellent = v >= b.excellent
		} else {
			// v is already the positive drawdown magnitude; compare
			// directly against the positive bound.
			magnitude := v
			meetsMin = magnitude <= b.min
			meetsExcellent = magnitude <= b.excellent
		}
		if !meetsMin {
			allMinPass = false
		}
		if meetsExcellent {
			excellentCount++
		}
	}

	if allMinPass && applicable > 0 && float64(excellentCount)/float64(applicable) >= 0.8 {
		return GradeExcellent, values
	}
	if allMinPass {
		return GradeQualified, values
	}
	return GradeUnqualified, values
}

// RunLayer1 computes investment-grade metrics and grades them against the
// market-typed threshold set. Score is 1.0 / 0.8 / 0.5 for
// EXCELLENT/QUALIFIED/UNQUALIFIED; passes iff that score clears minPass
// (config.ArenaConfig.Layer1MinPass, default 0.80 — EXCELLENT or QUALIFIED).
func RunLayer1(returns mining.Returns, trades []float64, mt MarketType, freq int, minPass float64) LayerResult {
	if len(returns) == 0 {
		return LayerResult{Layer: "L1", Passed: false, FailureReason: "empty return series"}
	}

	m := EvaluateMetrics(returns, trades, freq)
	grade, values := gradeMetrics(m, mt)

	var score float64
	switch grade {
	case GradeExcellent:
		score = 1.0
	case GradeQualified:
		score = 0.8
	default:
		score = 0.5
	}
	passed := score >= minPass

	detail := map[string]interface{}{
		"grade":              string(grade),
		"annualized_return":  m.AnnualizedReturn,
		"max_drawdown_days":  m.MaxDrawdownDays,
		"cvar_5":             m.CVaR5,
		"has_trade_metrics":  m.HasTradeMetrics,
	}
	if m.HasTradeMetrics {
		detail["win_rate"] = m.WinRate
		detail["payoff_ratio"] = m.PayoffRatio
		detail["expectancy"] = m.Expectancy
		detail["max_consecutive_losses"] = m.MaxConsecutiveLosses
		detail["largest_loss"] = m.LargestLoss
	}

	reason := ""
	if !passed {
		reason = fmt.Sprintf("grade %s below minimum investment-grade bar for %s", grade, mt)
	}

	return LayerResult{
		Layer:         "L1",
		Passed:        passed,
		Score:         score,
		FailureReason: reason,
		Metrics:       values,
		Detail:        detail,
	}
}
