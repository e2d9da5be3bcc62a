package arena

// Certify derives a CertificationLevel from the Arena's own pass/fail
// verdict and a paper-trading simulation's criteria ratio (a simulation
// "passes" once at least simMinRatio of its criteria, default 8-of-10,
// are met). Certify is a pure function of its inputs (P4): identical
// (arena, simPassed, overallScore) always yields the identical level, and
// the level is monotone non-decreasing in overallScore when both the
// Arena and the simulation pass (P5).
func Certify(result ArenaTestResult, simPassed bool, cfg CertificationThresholds) CertificationLevel {
	if !result.Passed || !simPassed {
		return CertRejected
	}
	switch {
	case result.OverallScore >= cfg.PlatinumScore:
		return CertPlatinum
	case result.OverallScore >= cfg.GoldScore:
		return CertGold
	case result.OverallScore >= cfg.SilverScore:
		return CertSilver
	default:
		return CertRejected
	}
}

// CertificationThresholds surfaces the score bars named in §4.3 as
// calibratable constants.
type CertificationThresholds struct {
	PlatinumScore float64
	GoldScore     float64
	SilverScore   float64
}

// SimulationPassed applies the paper-trading simulation's own pass rule
// ahead of Certify: at least ratio of its criteria must be met (§4.3's
// "≥ 8-of-10 paper-trading criteria" default, config.ArenaConfig's
// SimulationMinCriteriaRatio). totalCriteria <= 0 never passes.
func SimulationPassed(criteriaMet, totalCriteria int, ratio float64) bool {
	if totalCriteria <= 0 {
		return false
	}
	return float64(criteriaMet)/float64(totalCriteria) >= ratio
}

// FactorQuickScore is the standalone per-factor screening formula (not
// part of the four-layer gauntlet): a FactorMetadata passes the quick
// screen once its IC, Sharpe, and alt-data quality together clear 70/100.
// Applied identically to alt-data and traditional factors alike.
func FactorQuickScore(ic, sharpe, quality float64) (score float64, passed bool) {
	icScore := clampArena(absArena(ic)/0.05, 0, 1) * 40
	sharpeScore := clampArena(maxArena(sharpe, 0)/1.5, 0, 1) * 40
	qualityScore := quality * 20
	total := icScore + sharpeScore + qualityScore
	return total, total >= 70
}

func absArena(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func maxArena(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
