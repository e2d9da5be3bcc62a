package arena

import (
	"fmt"
	"math"

	"github.com/r3e-network/factor-arena/domain/mining"
)

// WindowMode selects Layer 2's sliding strategy.
type WindowMode string

const (
	WindowFixed     WindowMode = "fixed"
	WindowExpanding WindowMode = "expanding"
)

type windowResult struct {
	start, end int
	metrics    InvestmentMetrics
}

// rollingWindows partitions [0, n) per WindowMode: fixed windows of size w
// sliding by step s, or expanding windows anchored at 0 growing by s from
// minWindow.
func rollingWindows(n, w, step, minWindow int, mode WindowMode) [][2]int {
	var windows [][2]int
	switch mode {
	case WindowExpanding:
		for end := minWindow; end <= n; end += step {
			windows = append(windows, [2]int{0, end})
		}
	default:
		for start := 0; start+w <= n; start += step {
			windows = append(windows, [2]int{start, start + w})
		}
	}
	return windows
}

// RunLayer2 slides a fixed or expanding window across returns, evaluates
// each window via Layer 1's metric suite, and aggregates stability
// statistics. Each window's own realized returns stand in for its equity:
// RunLayer2 takes no BacktestFunc, so a backtest supplied to the Validator
// is not applied in this layer. Passes iff the
// rolling-stability criteria hold AND the composite score clears minPass
// (config.ArenaConfig.Layer2MinPass, default 0.70).
func RunLayer2(returns mining.Returns, mt MarketType, freq int, mode WindowMode, w, step, minWindow int, minPass float64) LayerResult {
	n := len(returns)
	if w <= 0 {
		w = 252
	}
	if step <= 0 {
		step = 63
	}
	if minWindow <= 0 {
		minWindow = 126
	}

	windows := rollingWindows(n, w, step, minWindow, mode)
	if len(windows) == 0 {
		return LayerResult{Layer: "L2", Passed: false, FailureReason: "insufficient history for any rolling window"}
	}

	results := make([]windowResult, 0, len(windows))
	for _, rng := range windows {
		sub := returns[rng[0]:rng[1]]
		results = append(results, windowResult{start: rng[0], end: rng[1], metrics: EvaluateMetrics(sub, nil, freq)})
	}

	var annualReturns, sharpes []float64
	positiveCount := 0
	worstReturn := results[0].metrics.AnnualizedReturn
	worstRange := [2]int{results[0].start, results[0].end}

	for _, r := range results {
		annualReturns = append(annualReturns, r.metrics.AnnualizedReturn)
		sharpes = append(sharpes, r.metrics.Sharpe)
		if r.metrics.AnnualizedReturn > 0 {
			positiveCount++
		}
		if r.metrics.AnnualizedReturn < worstReturn {
			worstReturn = r.metrics.AnnualizedReturn
			worstRange = [2]int{r.start, r.end}
		}
	}

	positiveRatio := float64(positiveCount) / float64(len(results))
	returnCV := coefficientOfVariation(annualReturns)
	sharpeCV := coefficientOfVariation(sharpes)

	criteriaPassed := positiveRatio >= 0.70 && returnCV <= 1.0 && sharpeCV <= 0.5 && worstReturn > -0.10

	cvComponent := 0.0
	if !math.IsInf(returnCV, 1) && !math.IsInf(sharpeCV, 1) {
		cvComponent = clampArena(1-(returnCV/2+sharpeCV), 0, 1)
	}
	score := clampArena(math.Min(1, positiveRatio/0.7), 0, 1)*0.7 + cvComponent*0.3
	passed := criteriaPassed && score >= minPass

	reason := ""
	if !passed {
		reason = fmt.Sprintf("rolling stability below bar: positive_ratio=%.2f return_cv=%.2f sharpe_cv=%.2f worst_return=%.3f", positiveRatio, returnCV, sharpeCV, worstReturn)
	}

	return LayerResult{
		Layer:         "L2",
		Passed:        passed,
		Score:         score,
		FailureReason: reason,
		Metrics: map[string]float64{
			"positive_window_ratio": positiveRatio,
			"return_cv":             returnCV,
			"sharpe_cv":             sharpeCV,
			"worst_window_return":   worstReturn,
		},
		Detail: map[string]interface{}{
			"window_count":       len(results),
			"worst_window_start": worstRange[0],
			"worst_window_end":   worstRange[1],
		},
	}
}

func clampArena(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
