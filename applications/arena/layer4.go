package arena

import (
	"fmt"
	"math"

	"github.com/r3e-network/factor-arena/domain/mining"
)

// Layer 4 reimplements the original's Monte-Carlo stress scenarios as
// deterministic functions of the actual historical data (see DESIGN.md,
// Open Questions, "Layer 4 determinism vs. P4"): every scenario's "simulated"/"synthetic"
// step is replaced with a fixed, named constant in place of a random draw,
// so identical inputs always yield identical ScenarioResults (P4).

const (
	crashSingleDayBar  = -0.05
	crash3DayBar       = -0.10
	crashSurvivalBar   = 0.80
	bearWindowDays     = 60
	bearCumReturnBar   = -0.20
	bearMaxDrawdownBar = 0.20

	liquidityVolumeDropBar  = -0.5
	liquidityRejectionRate  = 0.30 // every 1-in-~3 trade is deterministically rejected
	liquiditySlippage       = 0.025
	liquiditySurvivalBar    = 0.70

	blackSwanShock          = -0.125 // midpoint of the -10%..-15% synthetic shock range
	blackSwanVolatilityMult = 1.5
	blackSwanObservationDays = 30
	blackSwanRecoveryBar     = 30

	correlationWindow         = 20
	correlationDeviationBar   = 0.5
	correlationAdaptationBar  = 0.60
)

// RunLayer4 runs the five stress scenarios and aggregates the weighted
// pass/fail per §4.3: at least 4-of-5 scenarios pass AND the weighted
// score clears minPass (config.ArenaConfig.Layer4MinPass, default 0.70).
func RunLayer4(returns, marketReturns mining.Returns, volume []float64, minPass float64) LayerResult {
	if len(returns) == 0 {
		return LayerResult{Layer: "L4", Passed: false, FailureReason: "empty return series"}
	}

	crash := crashScenario(returns)
	bear := bearScenario(returns)
	liquidity := liquidityScenario(returns, volume)
	blackSwan := blackSwanScenario(returns)
	correlation := correlationScenario(returns, marketReturns)

	scenarios := []ScenarioResult{crash, bear, liquidity, blackSwan, correlation}
	passCount := 0
	for _, s := range scenarios {
		if s.Passed {
			passCount++
		}
	}

	weighted := crash.Score*0.25 + bear.Score*0.20 + liquidity.Score*0.20 + blackSwan.Score*0.20 + correlation.Score*0.15
	passed := passCount >= 4 && weighted >= minPass

	reason := ""
	if !passed {
		reason = fmt.Sprintf("stress scenarios below bar: %d/5 passed, weighted=%.3f", passCount, weighted)
	}

	detail := map[string]interface{}{}
	for _, s := range scenarios {
		detail[s.Name] = s
	}

	return LayerResult{
		Layer:         "L4",
		Passed:        passed,
		Score:         weighted,
		FailureReason: reason,
		Metrics: map[string]float64{
			"scenarios_passed": float64(passCount),
			"weighted_score":   weighted,
		},
		Detail: detail,
	}
}

// crashWindows identifies and coalesces market-crash days: a single-day
// drop below crashSingleDayBar, or any 3-day cumulative drop below
// crash3DayBar.
func crashWindows(returns mining.Returns) [][2]int {
	flagged := make([]bool, len(returns))
	for i, r := range returns {
		if r < crashSingleDayBar {
			flagged[i] = true
		}
	}
	for i := 0; i+3 <= len(returns); i++ {
		cum := returns[i] + returns[i+1] + returns[i+2]
		if cum < crash3DayBar {
			flagged[i] = true
			flagged[i+1] = true
			flagged[i+2] = true
		}
	}
	return coalesce(flagged)
}

func coalesce(flagged []bool) [][2]int {
	var windows [][2]int
	inWindow := false
	start := 0
	for i, f := range flagged {
		if f && !inWindow {
			inWindow = true
			start = i
		}
		if !f && inWindow {
			inWindow = false
			windows = append(windows, [2]int{start, i})
		}
	}
	if inWindow {
		windows = append(windows, [2]int{start, len(flagged)})
	}
	return windows
}

// crashScenario simulates exposure to the identified crash windows only
// and measures the survival rate of portfolio value across them.
func crashScenario(returns mining.Returns) ScenarioResult {
	windows := crashWindows(returns)
	if len(windows) == 0 {
		return ScenarioResult{Name: "crash", Passed: true, Score: 1.0, Detail: map[string]float64{"windows": 0}}
	}

	value := 1.0
	minValue := 1.0
	for _, w := range windows {
		for _, r := range returns[w[0]:w[1]] {
			value *= 1 + r
			if value < minValue {
				minValue = value
			}
		}
		value = 1.0 // exposure resets between disjoint crash windows
	}

	survivalRate := minValue
	maxLoss := 1 - minValue
	score := crashScore(survivalRate, maxLoss)

	return ScenarioResult{
		Name:   "crash",
		Passed: survivalRate >= crashSurvivalBar,
		Score:  score,
		Detail: map[string]float64{
			"survival_rate": survivalRate,
			"max_loss":      maxLoss,
			"windows":       float64(len(windows)),
		},
	}
}

// crashScore is the crash scenario's standalone scoring formula:
// survival_rate*0.7 + max(0, 1-max_loss/0.5)*0.3.
func crashScore(survivalRate, maxLoss float64) float64 {
	return survivalRate*0.7 + clampArena(1-maxLoss/0.5, 0, 1)*0.3
}

// bearScenario finds rolling 60-day windows whose cumulative return drops
// below the bear-market bar and measures the worst drawdown among them.
func bearScenario(returns mining.Returns) ScenarioResult {
	n := len(returns)
	if n < bearWindowDays {
		return ScenarioResult{Name: "bear_market", Passed: true, Score: 1.0, Detail: map[string]float64{"windows": 0}}
	}

	worstDD := 0.0
	windowCount := 0
	for start := 0; start+bearWindowDays <= n; start++ {
		window := returns[start : start+bearWindowDays]
		cum := 1.0
		for _, r := range window {
			cum *= 1 + r
		}
		if cum-1 < bearCumReturnBar {
			windowCount++
			dd, _ := maxDrawdownAndDuration(equityCurve(window))
			if dd < worstDD {
				worstDD = dd
			}
		}
	}

	if windowCount == 0 {
		return ScenarioResult{Name: "bear_market", Passed: true, Score: 1.0, Detail: map[string]float64{"windows": 0}}
	}

	magnitude := math.Abs(worstDD)
	score := clampArena(1-magnitude/bearMaxDrawdownBar, 0, 1)

	return ScenarioResult{
		Name:   "bear_market",
		Passed: magnitude <= bearMaxDrawdownBar,
		Score:  score,
		Detail: map[string]float64{
			"max_drawdown": magnitude,
			"windows":      float64(windowCount),
		},
	}
}

// liquidityScenario flags volume days whose 20-day-relative drop exceeds
// the bar (or synthesizes a flag from realized-return volatility spikes
// when volume is absent) and simulates survival under a fixed rejection
// rate and slippage instead of a random draw.
func liquidityScenario(returns mining.Returns, volume []float64) ScenarioResult {
	var flagged []bool
	if len(volume) == len(returns) && len(volume) > 20 {
		flagged = make([]bool, len(returns))
		for i := 20; i < len(volume); i++ {
			mean20 := meanOf(volume[i-20 : i])
			if mean20 > 0 && (volume[i]-mean20)/mean20 < liquidityVolumeDropBar {
				flagged[i] = true
			}
		}
	} else {
		flagged = make([]bool, len(returns))
		for i := 20; i < len(returns); i++ {
			_, std20 := meanStd(returns[i-20 : i])
			if std20 > 0 && math.Abs(returns[i]) > 2*std20 {
				flagged[i] = true
			}
		}
	}

	value := 1.0
	minValue := 1.0
	tradeIdx := 0
	rejectEvery := int(math.Round(1 / liquidityRejectionRate))
	if rejectEvery < 1 {
		rejectEvery = 1
	}
	for i, f := range flagged {
		if !f {
			continue
		}
		tradeIdx++
		if tradeIdx%rejectEvery == 0 {
			continue // deterministically rejected trade: no exposure this day
		}
		value *= (1 + returns[i]) * (1 - liquiditySlippage)
		if value < minValue {
			minValue = value
		}
	}

	if tradeIdx == 0 {
		return ScenarioResult{Name: "liquidity_crisis", Passed: true, Score: 1.0, Detail: map[string]float64{"flagged_days": 0}}
	}

	survivalRate := minValue
	score := clampArena(survivalRate/liquiditySurvivalBar, 0, 1)

	return ScenarioResult{
		Name:   "liquidity_crisis",
		Passed: survivalRate >= liquiditySurvivalBar,
		Score:  score,
		Detail: map[string]float64{
			"survival_rate": survivalRate,
			"flagged_days":  float64(tradeIdx),
		},
	}
}

// blackSwanScenario applies the fixed synthetic shock to a starting equity
// of 1.0, then replays the first blackSwanObservationDays realized returns
// of the series scaled by blackSwanVolatilityMult (deterministic: no random
// path is drawn) to measure days until equity recovers to 1.0.
func blackSwanScenario(returns mining.Returns) ScenarioResult {
	obs := blackSwanObservationDays
	if obs > len(returns) {
		obs = len(returns)
	}

	equity := 1 + blackSwanShock
	daysToRecover := -1
	for i := 0; i < obs; i++ {
		r := returns[i] * blackSwanVolatilityMult
		equity *= 1 + r
		if equity >= 1.0 && daysToRecover == -1 {
			daysToRecover = i + 1
		}
	}

	passed := daysToRecover != -1 && daysToRecover <= blackSwanRecoveryBar
	recoveryDays := daysToRecover
	if recoveryDays == -1 {
		recoveryDays = obs + 1 // never recovered within the observation window
	}
	score := clampArena(1-float64(recoveryDays)/float64(blackSwanRecoveryBar*2), 0, 1)

	return ScenarioResult{
		Name:   "black_swan",
		Passed: passed,
		Score:  score,
		Detail: map[string]float64{
			"days_to_recover": float64(recoveryDays),
		},
	}
}

// correlationScenario finds rolling 20-day correlation windows between the
// strategy and market returns that deviate from their historical mean
// correlation by more than the bar, and scores adaptation as the mean of
// 1/(1+recent_volatility) across those windows.
func correlationScenario(returns, marketReturns mining.Returns) ScenarioResult {
	n := minLenArena(returns, marketReturns)
	if n < correlationWindow+1 {
		return ScenarioResult{Name: "correlation_breakdown", Passed: true, Score: 1.0, Detail: map[string]float64{"windows": 0}}
	}

	var correlations []float64
	for start := 0; start+correlationWindow <= n; start++ {
		correlations = append(correlations, pearsonArena(returns[start:start+correlationWindow], marketReturns[start:start+correlationWindow]))
	}
	histMean, _ := meanStd(correlations)

	var adaptationScores []float64
	affected := 0
	for start := 0; start+correlationWindow <= n; start++ {
		corr := pearsonArena(returns[start:start+correlationWindow], marketReturns[start:start+correlationWindow])
		if histMean != 0 && math.Abs((corr-histMean)/histMean) > correlationDeviationBar {
			affected++
			_, vol := meanStd(returns[start : start+correlationWindow])
			adaptationScores = append(adaptationScores, 1/(1+vol))
		}
	}

	if affected == 0 {
		return ScenarioResult{Name: "correlation_breakdown", Passed: true, Score: 1.0, Detail: map[string]float64{"windows": 0}}
	}

	adaptation, _ := meanStd(adaptationScores)
	return ScenarioResult{
		Name:   "correlation_breakdown",
		Passed: adaptation >= correlationAdaptationBar,
		Score:  clampArena(adaptation/correlationAdaptationBar, 0, 1),
		Detail: map[string]float64{
			"adaptation_score": adaptation,
			"affected_windows": float64(affected),
		},
	}
}

func meanOf(v []float64) float64 {
	mean, _ := meanStd(v)
	return mean
}

func minLenArena(a, b mining.Returns) int {
	if len(a) < len(b) {
		return len(a)
	}
	return len(b)
}

func pearsonArena(a, b []float64) float64 {
	n := len(a)
	if n == 0 || n != len(b) {
		return 0
	}
	meanA, _ := meanStd(a)
	meanB, _ := meanStd(b)
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
