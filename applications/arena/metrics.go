package arena

import (
	"math"
	"sort"

	"github.com/r3e-network/factor-arena/domain/mining"
)

// equityCurve builds cumprod(1+r) over returns, the shared basis for every
// drawdown/return-based metric in this package.
func equityCurve(returns mining.Returns) []float64 {
	equity := make([]float64, len(returns))
	cum := 1.0
	for i, r := range returns {
		cum *= 1 + r
		equity[i] = cum
	}
	return equity
}

func cummax(equity []float64) []float64 {
	out := make([]float64, len(equity))
	max := math.Inf(-1)
	for i, v := range equity {
		if v > max {
			max = v
		}
		out[i] = max
	}
	return out
}

// maxDrawdownAndDuration returns the worst peak-to-trough fractional
// decline of equity and the longest run of consecutive points below their
// running peak.
func maxDrawdownAndDuration(equity []float64) (mdd float64, duration int) {
	if len(equity) == 0 {
		return 0, 0
	}
	peaks := cummax(equity)
	run := 0
	for i, v := range equity {
		dd := v/peaks[i] - 1
		if dd < mdd {
			mdd = dd
		}
		if v < peaks[i] {
			run++
			if run > duration {
				duration = run
			}
		} else {
			run = 0
		}
	}
	return mdd, duration
}

// annualizedReturn compounds the full-period return to an annualized rate
// using freq periods per year.
func annualizedReturn(returns mining.Returns, freq int) float64 {
	n := len(returns)
	if n == 0 {
		return 0
	}
	equity := equityCurve(returns)
	total := equity[n-1]
	if total <= 0 {
		return -1
	}
	years := float64(n) / float64(freq)
	if years <= 0 {
		return 0
	}
	return math.Pow(total, 1/years) - 1
}

func sharpeRatio(returns mining.Returns, freq int) float64 {
	mean, std := meanStd(returns)
	if std == 0 {
		return 0
	}
	return math.Sqrt(float64(freq)) * mean / std
}

// sortinoRatio is Sharpe with the denominator restricted to downside
// deviation (negative excess returns only).
func sortinoRatio(returns mining.Returns, freq int) float64 {
	mean, _ := meanStd(returns)
	var downside []float64
	for _, r := range returns {
		if r < 0 {
			downside = append(downside, r)
		}
	}
	if len(downside) == 0 {
		return 0
	}
	_, downsideStd := meanStd(downside)
	if downsideStd == 0 {
		return 0
	}
	return math.Sqrt(float64(freq)) * mean / downsideStd
}

func calmarRatio(annualReturn, maxDD float64) float64 {
	if maxDD == 0 {
		return math.NaN()
	}
	return annualReturn / math.Abs(maxDD)
}

// cvar5 is the mean of returns at or below the 5th percentile.
func cvar5(returns mining.Returns) float64 {
	n := len(returns)
	if n == 0 {
		return 0
	}
	sorted := append([]float64(nil), returns...)
	sort.Float64s(sorted)
	cut := int(math.Ceil(0.05 * float64(n)))
	if cut < 1 {
		cut = 1
	}
	if cut > n {
		cut = n
	}
	var sum float64
	for _, v := range sorted[:cut] {
		sum += v
	}
	return sum / float64(cut)
}

func meanStd(v []float64) (mean, std float64) {
	n := len(v)
	if n == 0 {
		return 0, 0
	}
	for _, x := range v {
		mean += x
	}
	mean /= float64(n)
	if n < 2 {
		return mean, 0
	}
	var sumSq float64
	for _, x := range v {
		d := x - mean
		sumSq += d * d
	}
	return mean, math.Sqrt(sumSq / float64(n-1))
}

// tradeMetrics computes the optional per-trade P&L metrics when trades is
// non-empty.
func tradeMetrics(trades []float64) (winRate, payoffRatio, expectancy float64, maxConsecutiveLosses int, largestLoss float64) {
	if len(trades) == 0 {
		return 0, 0, 0, 0, 0
	}
	var wins, losses []float64
	run := 0
	for _, t := range trades {
		if t > 0 {
			wins = append(wins, t)
			run = 0
		} else if t < 0 {
			losses = append(losses, t)
			run++
			if run > maxConsecutiveLosses {
				maxConsecutiveLosses = run
			}
			if t < largestLoss {
				largestLoss = t
			}
		} else {
			run = 0
		}
	}
	winRate = float64(len(wins)) / float64(len(trades))

	meanWin := 0.0
	for _, w := range wins {
		meanWin += w
	}
	if len(wins) > 0 {
		meanWin /= float64(len(wins))
	}
	meanLoss := 0.0
	for _, l := range losses {
		meanLoss += l
	}
	if len(losses) > 0 {
		meanLoss /= float64(len(losses))
	}
	if meanLoss != 0 {
		payoffRatio = meanWin / math.Abs(meanLoss)
	}

	var sum float64
	for _, t := range trades {
		sum += t
	}
	expectancy = sum / float64(len(trades))

	return winRate, payoffRatio, expectancy, maxConsecutiveLosses, largestLoss
}

// EvaluateMetrics computes the full Layer-1 metric suite for one return
// series, optionally folding in trade-level metrics.
func EvaluateMetrics(returns mining.Returns, trades []float64, freq int) InvestmentMetrics {
	if freq <= 0 {
		freq = 252
	}
	equity := equityCurve(returns)
	mdd, duration := maxDrawdownAndDuration(equity)
	annual := annualizedReturn(returns, freq)

	m := InvestmentMetrics{
		AnnualizedReturn: annual,
		Sharpe:           sharpeRatio(returns, freq),
		Sortino:          sortinoRatio(returns, freq),
		MaxDrawdown:      mdd,
		MaxDrawdownDays:  duration,
		Calmar:           calmarRatio(annual, mdd),
		CVaR5:            cvar5(returns),
	}

	if len(trades) > 0 {
		m.HasTradeMetrics = true
		m.WinRate, m.PayoffRatio, m.Expectancy, m.MaxConsecutiveLosses, m.LargestLoss = tradeMetrics(trades)
	}

	return m
}

func coefficientOfVariation(v []float64) float64 {
	mean, std := meanStd(v)
	if mean == 0 {
		return math.Inf(1)
	}
	return std / math.Abs(mean)
}
