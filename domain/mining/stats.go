package mining

import "math"

// EvaluateFactor computes IC (rank correlation of factor values against
// forward returns), IR (rolling-IC mean over rolling-IC std), and the
// annualized Sharpe ratio of a factor-weighted return series, per the
// orchestrator's per-operator evaluation rule in §4.1.
func EvaluateFactor(factorValues Returns, forwardReturns Returns, freq int) (ic, ir, sharpe float64) {
	n := minLen(factorValues, forwardReturns)
	if n < 2 {
		return 0, 0, 0
	}
	fv := factorValues[:n]
	fr := forwardReturns[:n]

	ic = spearman(fv, fr)

	const window = 20
	ir = rollingICRatio(fv, fr, window)

	sharpe = factorWeightedSharpe(fv, fr, freq)
	return ic, ir, sharpe
}

func minLen(a, b Returns) int {
	if len(a) < len(b) {
		return len(a)
	}
	return len(b)
}

// spearman computes the Spearman rank correlation between two equal-length
// series, returning 0 when either series has zero variance in rank.
func spearman(a, b Returns) float64 {
	n := len(a)
	if n < 2 {
		return 0
	}
	ra := rank(a)
	rb := rank(b)
	return pearson(ra, rb)
}

func rank(v Returns) []float64 {
	n := len(v)
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	// simple O(n^2) stable rank is adequate: factor windows in this
	// domain are bounded (daily bars, not tick data).
	ranks := make([]float64, n)
	for i := 0; i < n; i++ {
		less := 0
		equal := 0
		for j := 0; j < n; j++ {
			if v[j] < v[i] {
				less++
			} else if v[j] == v[i] {
				equal++
			}
		}
		ranks[i] = float64(less) + float64(equal+1)/2.0
	}
	return ranks
}

func pearson(a, b []float64) float64 {
	n := len(a)
	if n == 0 || n != len(b) {
		return 0
	}
	var meanA, meanB float64
	for i := range a {
		meanA += a[i]
		meanB += b[i]
	}
	meanA /= float64(n)
	meanB /= float64(n)

	var cov, varA, varB float64
	for i := range a {
		da := a[i] - meanA
		db := b[i] - meanB
		cov += da * db
		varA += da * da
		varB += db * db
	}
	if varA <= 0 || varB <= 0 {
		return 0
	}
	return cov / math.Sqrt(varA*varB)
}

// rollingICRatio computes the mean of rolling-window rank correlations
// divided by their standard deviation, i.e. IR = mean(rolling IC) /
// std(rolling IC), 0 when fewer than two windows fit or std is zero.
func rollingICRatio(fv, fr Returns, window int) float64 {
	n := len(fv)
	if n < window+1 {
		return 0
	}
	var ics []float64
	for start := 0; start+window <= n; start++ {
		ics = append(ics, spearman(fv[start:start+window], fr[start:start+window]))
	}
	if len(ics) < 2 {
		return 0
	}
	mean, std := meanStd(ics)
	if std == 0 {
		return 0
	}
	return mean / std
}

// factorWeightedSharpe builds a portfolio return as factor-value-sign
// weighted realized return and annualizes its Sharpe ratio.
func factorWeightedSharpe(fv, fr Returns, freq int) float64 {
	n := minLen(fv, fr)
	if n < 2 {
		return 0
	}
	portfolio := make([]float64, n)
	for i := 0; i < n; i++ {
		weight := sign(fv[i])
		portfolio[i] = weight * fr[i]
	}
	mean, std := meanStd(portfolio)
	if std == 0 {
		return 0
	}
	return math.Sqrt(float64(freq)) * mean / std
}

func sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
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
	std = math.Sqrt(sumSq / float64(n-1))
	return mean, std
}
