package metaminer

import (
	"math"

	"github.com/r3e-network/factor-arena/domain/mining"
)

// Regime is a coarse classification of current market conditions.
type Regime string

const (
	RegimeBull     Regime = "bull"
	RegimeBear     Regime = "bear"
	RegimeVolatile Regime = "volatile"
	RegimeStable   Regime = "stable"
	RegimeCrisis   Regime = "crisis"
	RegimeUnknown  Regime = "unknown"
)

// DetectMarketRegime classifies returns into one of the six regimes using
// trend (MA20 - MA60), 20-day volatility relative to its 60-day mean, and
// the max drawdown of the last 20 days' cumulative return. Rules are
// evaluated in priority order; the first that matches wins.
func DetectMarketRegime(returns mining.Returns) Regime {
	if len(returns) == 0 {
		return RegimeUnknown
	}

	maxDD := maxDrawdown(lastN(returns, 20))
	if maxDD < -0.15 {
		return RegimeCrisis
	}

	vol20 := rollingStd(returns, 20)
	vol60Mean := rollingStdMean(returns, 60)
	if vol60Mean > 0 && vol20 > 2*vol60Mean {
		return RegimeVolatile
	}

	trend := movingAverage(returns, 20) - movingAverage(returns, 60)
	switch {
	case trend > 0.01:
		return RegimeBull
	case trend < -0.01:
		return RegimeBear
	default:
		return RegimeStable
	}
}

func lastN(v mining.Returns, n int) mining.Returns {
	if len(v) <= n {
		return v
	}
	return v[len(v)-n:]
}

// maxDrawdown computes the maximum peak-to-trough decline of the
// cumulative sum of v, expressed as a negative fraction (or 0 if v never
// declines from its running peak).
func maxDrawdown(v mining.Returns) float64 {
	if len(v) == 0 {
		return 0
	}
	cum := 0.0
	peak := 0.0
	worst := 0.0
	for _, r := range v {
		cum += r
		if cum > peak {
			peak = cum
		}
		if dd := cum - peak; dd < worst {
			worst = dd
		}
	}
	return worst
}

func movingAverage(v mining.Returns, window int) float64 {
	w := lastN(v, window)
	if len(w) == 0 {
		return 0
	}
	var sum float64
	for _, x := range w {
		sum += x
	}
	return sum / float64(len(w))
}

// rollingStd is the population std of the last `window` observations.
func rollingStd(v mining.Returns, window int) float64 {
	w := lastN(v, window)
	return stddev(w)
}

// rollingStdMean is the mean of the rolling `shortWindow`-day std computed
// over the last `window` days, used to compare current volatility to its
// own recent average.
func rollingStdMean(v mining.Returns, window int) float64 {
	w := lastN(v, window)
	const shortWindow = 20
	if len(w) < shortWindow {
		return stddev(w)
	}
	var stds []float64
	for start := 0; start+shortWindow <= len(w); start++ {
		stds = append(stds, stddev(w[start:start+shortWindow]))
	}
	if len(stds) == 0 {
		return 0
	}
	var sum float64
	for _, s := range stds {
		sum += s
	}
	return sum / float64(len(stds))
}

func stddev(v []float64) float64 {
	n := len(v)
	if n == 0 {
		return 0
	}
	var mean float64
	for _, x := range v {
		mean += x
	}
	mean /= float64(n)
	var sumSq float64
	for _, x := range v {
		d := x - mean
		sumSq += d * d
	}
	if n < 2 {
		return 0
	}
	return math.Sqrt(sumSq / float64(n))
}

// regimeAffinity returns the bonus regime_affinity(kind, regime) from the
// recommendation scoring table; unknown kind/regime pairs score 0.
func regimeAffinity(kind mining.MinerKind, regime Regime) float64 {
	table := map[Regime]map[mining.MinerKind]float64{
		RegimeBull: {
			mining.KindSentiment:     0.3,
			mining.KindPriceVolume:   0.3,
			mining.KindAIEnhanced:    0.2,
			mining.KindHighFrequency: 0.2,
		},
		RegimeBear: {
			mining.KindPriceVolume:     0.3,
			mining.KindAlternativeData: 0.2,
			mining.KindESG:             0.2,
			mining.KindNetwork:         0.2,
		},
		RegimeVolatile: {
			mining.KindHighFrequency: 0.3,
			mining.KindEventDriven:   0.3,
			mining.KindNetwork:       0.2,
			mining.KindStyleRotation: 0.2,
		},
		RegimeStable: {
			mining.KindMLFeature:         0.3,
			mining.KindTimeSeriesDL:      0.3,
			mining.KindFactorCombination: 0.2,
			mining.KindMacro:             0.2,
		},
		RegimeCrisis: {
			mining.KindNetwork:         0.4,
			mining.KindEventDriven:     0.3,
			mining.KindAlternativeData: 0.2,
			mining.KindESG:             0.1,
		},
	}
	byKind, ok := table[regime]
	if !ok {
		return 0
	}
	return byKind[kind]
}
