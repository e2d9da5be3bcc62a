package arena

import (
	"time"

	"github.com/r3e-network/factor-arena/infrastructure/config"
)

// Validator runs the four Arena layers sequentially, short-circuiting
// after a Layer-1 failure, and derives the overall score and pass flag.
// It does not set Certification; Certify assigns a level separately.
type Validator struct {
	cfg      config.ArenaConfig
	optimize OptimizeFunc
	backtest BacktestFunc
}

// New builds a Validator. optimize/backtest may be nil to fall back to
// the identity implementations (the concrete backtest engine is an
// external collaborator per §6).
func New(cfg config.ArenaConfig, optimize OptimizeFunc, backtest BacktestFunc) *Validator {
	if optimize == nil {
		optimize = IdentityOptimizer
	}
	if backtest == nil {
		backtest = IdentityBacktest
	}
	return &Validator{cfg: cfg, optimize: optimize, backtest: backtest}
}

// Evaluate runs L1 through L4 in order against in, short-circuiting after
// an L1 failure (the returned result then carries only the L1 LayerResult
// with FailedLayer set and overall score computed from what ran).
func (v *Validator) Evaluate(in Input) ArenaTestResult {
	freq := in.Freq
	if freq <= 0 {
		freq = v.cfg.Freq
	}

	result := ArenaTestResult{
		Strategy:    in.Strategy,
		MarketType:  in.MarketType,
		EvaluatedAt: time.Now(),
	}

	l1 := RunLayer1(in.Returns, in.Trades, in.MarketType, freq, v.cfg.Layer1MinPass)
	result.Layers = append(result.Layers, l1)
	if !l1.Passed {
		result.FailedLayer = "L1"
		result.FailedLayers = []string{"L1"}
		result.OverallScore = l1.Score * v.cfg.Layer1Weight
		result.Passed = false
		return result
	}

	l2 := RunLayer2(in.Returns, in.MarketType, freq, WindowFixed, 252, 63, 126, v.cfg.Layer2MinPass)
	result.Layers = append(result.Layers, l2)

	l3 := RunLayer3(in.Returns, freq, 0.7, SplitAnchored, v.optimize, v.backtest, v.cfg.Layer3MinPass)
	result.Layers = append(result.Layers, l3)

	l4 := RunLayer4(in.Returns, in.MarketReturns, in.Volume, v.cfg.Layer4MinPass)
	result.Layers = append(result.Layers, l4)

	overall := l1.Score*v.cfg.Layer1Weight + l2.Score*v.cfg.Layer2Weight +
		l3.Score*v.cfg.Layer3Weight + l4.Score*v.cfg.Layer4Weight
	result.OverallScore = overall

	var failed []string
	for _, l := range []LayerResult{l1, l2, l3, l4} {
		if !l.Passed {
			failed = append(failed, l.Layer)
		}
	}
	result.FailedLayers = failed

	// P6: arena.passed iff all four layers pass AND overall >= threshold.
	result.Passed = len(failed) == 0 && overall >= v.cfg.OverallMinPass

	return result
}

// CertificationThresholdsFromConfig adapts config.ArenaConfig's score bars
// into the Certifier's own threshold struct.
func CertificationThresholdsFromConfig(cfg config.ArenaConfig) CertificationThresholds {
	return CertificationThresholds{
		PlatinumScore: cfg.CertificationPlatinumScore,
		GoldScore:     cfg.CertificationGoldScore,
		SilverScore:   cfg.CertificationSilverScore,
	}
}
