package arena

import (
	"fmt"

	"github.com/r3e-network/factor-arena/domain/mining"
)

// SplitMode selects Layer 3's in-sample/out-of-sample sliding strategy.
type SplitMode string

const (
	SplitAnchored SplitMode = "anchored"
	SplitRolling  SplitMode = "rolling"
)

// OptimizeFunc is the external optimizer function contract consumed by
// Layer 3: fn(in_sample_data) -> opaque params, passed unchanged to
// BacktestFunc.
type OptimizeFunc func(isReturns mining.Returns) (params interface{}, err error)

// BacktestFunc is the external backtest function contract consumed by
// Layer 3 (Layer 2 does not call it): fn(data_window, params) ->
// equity-aligned return series.
// The default backtest (used when the caller supplies none) treats the
// window's own realized returns as the strategy's equity-generating
// process, since constructing strategies from factors is out of scope.
type BacktestFunc func(window mining.Returns, params interface{}) (mining.Returns, error)

// IdentityBacktest is the default BacktestFunc: the window's own returns.
func IdentityBacktest(window mining.Returns, _ interface{}) (mining.Returns, error) {
	return window, nil
}

// IdentityOptimizer is the default OptimizeFunc: no tunable params.
func IdentityOptimizer(_ mining.Returns) (interface{}, error) {
	return nil, nil
}

type walkForwardPeriod struct {
	isReturns, oosReturns mining.Returns
	isMetrics, oosMetrics InvestmentMetrics
}

func walkForwardPeriods(returns mining.Returns, isRatio float64, mode SplitMode) [][2][2]int {
	n := len(returns)
	if isRatio <= 0 || isRatio >= 1 {
		isRatio = 0.7
	}
	oosLen := int(float64(n) * (1 - isRatio))
	if oosLen <= 0 {
		return nil
	}

	var periods [][2][2]int
	switch mode {
	case SplitRolling:
		isLen := n - oosLen
		if isLen <= 0 {
			return nil
		}
		for isStart := 0; isStart+isLen+oosLen <= n; isStart += oosLen {
			isEnd := isStart + isLen
			periods = append(periods, [2][2]int{{isStart, isEnd}, {isEnd, isEnd + oosLen}})
		}
	default: // anchored
		isEnd := n - oosLen
		for isEnd > 0 && isEnd+oosLen <= n {
			periods = append(periods, [2][2]int{{0, isEnd}, {isEnd, isEnd + oosLen}})
			isEnd -= oosLen
		}
		// restore ascending chronological order
		for i, j := 0, len(periods)-1; i < j; i, j = i+1, j-1 {
			periods[i], periods[j] = periods[j], periods[i]
		}
	}
	return periods
}

// RunLayer3 splits the history into in-sample/out-of-sample periods,
// optimizes and backtests each, stitches the OOS equity curves, and
// measures overfitting via efficiency, degradation, consistency, and
// failure ratios. Passes iff the overfitting criteria hold AND the
// composite score clears minPass (config.ArenaConfig.Layer3MinPass,
// default 0.60).
func RunLayer3(returns mining.Returns, freq int, isRatio float64, mode SplitMode, optimize OptimizeFunc, backtest BacktestFunc, minPass float64) LayerResult {
	if optimize == nil {
		optimize = IdentityOptimizer
	}
	if backtest == nil {
		backtest = IdentityBacktest
	}

	ranges := walkForwardPeriods(returns, isRatio, mode)
	if len(ranges) == 0 {
		return LayerResult{Layer: "L3", Passed: false, FailureReason: "insufficient history for walk-forward split"}
	}

	periods := make([]walkForwardPeriod, 0, len(ranges))
	var oosStitched mining.Returns
	carry := 1.0

	for _, rng := range ranges {
		isReturns := returns[rng[0][0]:rng[0][1]]
		oosReturns := returns[rng[1][0]:rng[1][1]]

		params, err := optimize(isReturns)
		if err != nil {
			continue
		}
		isBacktest, err := backtest(isReturns, params)
		if err != nil {
			continue
		}
		oosBacktest, err := backtest(oosReturns, params)
		if err != nil {
			continue
		}

		periods = append(periods, walkForwardPeriod{
			isReturns:  isBacktest,
			oosReturns: oosBacktest,
			isMetrics:  EvaluateMetrics(isBacktest, nil, freq),
			oosMetrics: EvaluateMetrics(oosBacktest, nil, freq),
		})

		// Stitch: renormalize each OOS segment so its first equity point
		// equals the previous segment's last value, preserving
		// continuity across the discontinuous OOS windows.
		segEquity := equityCurve(oosBacktest)
		for i, v := range segEquity {
			oosStitched = append(oosStitched, v*carry/segEquityBase(segEquity, i))
		}
		if len(segEquity) > 0 {
			carry = oosStitched[len(oosStitched)-1]
		}
	}

	if len(periods) == 0 {
		return LayerResult{Layer: "L3", Passed: false, FailureReason: "optimizer/backtest failed on every walk-forward period"}
	}

	var sumISSharpe, sumOOSSharpe, sumISReturn, sumOOSReturn float64
	consistent, failed := 0, 0
	for _, p := range periods {
		sumISSharpe += p.isMetrics.Sharpe
		sumOOSSharpe += p.oosMetrics.Sharpe
		sumISReturn += p.isMetrics.AnnualizedReturn
		sumOOSReturn += p.oosMetrics.AnnualizedReturn
		if p.isMetrics.AnnualizedReturn > 0 && p.oosMetrics.AnnualizedReturn > 0 {
			consistent++
		}
		if p.oosMetrics.AnnualizedReturn < 0 {
			failed++
		}
	}
	n := float64(len(periods))
	meanISSharpe := sumISSharpe / n
	meanOOSSharpe := sumOOSSharpe / n
	meanISReturn := sumISReturn / n
	meanOOSReturn := sumOOSReturn / n

	efficiency := 0.0
	if meanISSharpe > 0 {
		efficiency = clampArena(meanOOSSharpe/meanISSharpe, 0, 1)
	}
	degradation := meanISSharpe - meanOOSSharpe
	returnDegradation := meanISReturn - meanOOSReturn
	consistency := float64(consistent) / n
	failureRatio := float64(failed) / n

	isOverfitted := degradation > 0.5 || returnDegradation > 0.10 || consistency < 0.6 || failureRatio > 0.30

	criteriaPassed := efficiency >= 0.5 && consistency >= 0.60 && degradation <= 0.5 && failureRatio <= 0.30
	score := clampArena(efficiency, 0, 1)*0.35 + clampArena(consistency, 0, 1)*0.35 +
		clampArena(1-degradation, 0, 1)*0.15 + clampArena(1-failureRatio, 0, 1)*0.15
	passed := criteriaPassed && score >= minPass

	reason := ""
	if !passed {
		reason = fmt.Sprintf("walk-forward overfitting detected: efficiency=%.2f consistency=%.2f degradation=%.2f failure_ratio=%.2f", efficiency, consistency, degradation, failureRatio)
	}

	return LayerResult{
		Layer:         "L3",
		Passed:        passed,
		Score:         score,
		FailureReason: reason,
		Metrics: map[string]float64{
			"efficiency_ratio":   efficiency,
			"sharpe_degradation": degradation,
			"consistency_ratio":  consistency,
			"failure_ratio":      failureRatio,
		},
		Detail: map[string]interface{}{
			"period_count":        len(periods),
			"is_overfitted":       isOverfitted,
			"return_degradation":  returnDegradation,
			"oos_stitched_length": len(oosStitched),
		},
	}
}

// segEquityBase normalizes segEquity[i] by its own first point so the
// caller can rescale the whole segment by the prior segment's carry value.
func segEquityBase(segEquity []float64, i int) float64 {
	if len(segEquity) == 0 || segEquity[0] == 0 {
		return 1
	}
	return segEquity[0]
}
