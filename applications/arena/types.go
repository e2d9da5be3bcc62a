// Package arena implements the Spartan Arena Validator: a four-layer
// sequential gauntlet (investment-grade metrics, rolling-window stability,
// walk-forward overfitting, extreme stress) that scores a candidate
// strategy's return series and assigns a certification level.
package arena

import (
	"time"

	"github.com/r3e-network/factor-arena/domain/mining"
)

// MarketType selects which threshold set Layer 1 grades against.
type MarketType string

const (
	MarketAStock MarketType = "a_stock"
	MarketFutures MarketType = "futures"
	MarketCrypto MarketType = "crypto"
)

// Grade is Layer 1's investment-grade classification.
type Grade string

const (
	GradeExcellent  Grade = "EXCELLENT"
	GradeQualified  Grade = "QUALIFIED"
	GradeUnqualified Grade = "UNQUALIFIED"
)

// CertificationLevel is the Arena's final output, ordered
// REJECTED < SILVER < GOLD < PLATINUM.
type CertificationLevel string

const (
	CertRejected CertificationLevel = "REJECTED"
	CertSilver   CertificationLevel = "SILVER"
	CertGold     CertificationLevel = "GOLD"
	CertPlatinum CertificationLevel = "PLATINUM"
)

// Rank gives CertificationLevel a total order for monotonicity checks.
func (c CertificationLevel) Rank() int {
	switch c {
	case CertPlatinum:
		return 3
	case CertGold:
		return 2
	case CertSilver:
		return 1
	default:
		return 0
	}
}

// LayerResult is one layer's score, pass/fail verdict, and supporting
// detail, uniform across all four layers.
type LayerResult struct {
	Layer          string
	Passed         bool
	Score          float64
	FailureReason  string
	Metrics        map[string]float64
	Detail         map[string]interface{}
}

// ArenaTestResult is the Arena's full output for one strategy evaluation.
type ArenaTestResult struct {
	Strategy      string
	MarketType    MarketType
	EvaluatedAt   time.Time
	Layers        []LayerResult
	FailedLayer   string
	FailedLayers  []string
	OverallScore  float64
	Passed        bool
	Certification CertificationLevel
}

// Input bundles everything the four layers need: the strategy's own return
// series, the market's parallel return/volume series used by Layer 4's
// correlation and liquidity scenarios, optional per-trade P&L, and the
// opaque optimizer params blob a caller may attach for reporting.
type Input struct {
	Strategy       string
	MarketType     MarketType
	Returns        mining.Returns
	MarketReturns  mining.Returns
	Volume         []float64
	Trades         []float64
	OptimizerSeed  interface{}
	Freq           int
}

// InvestmentMetrics is Layer 1's full metric suite, reused by Layers 2 and
// 3 to evaluate each rolling/walk-forward window.
type InvestmentMetrics struct {
	AnnualizedReturn  float64
	Sharpe            float64
	Sortino           float64
	MaxDrawdown       float64
	MaxDrawdownDays   int
	Calmar            float64
	CVaR5             float64

	HasTradeMetrics      bool
	WinRate              float64
	PayoffRatio          float64
	Expectancy           float64
	MaxConsecutiveLosses int
	LargestLoss          float64
}

// ScenarioResult is one Layer 4 stress scenario's outcome.
type ScenarioResult struct {
	Name    string
	Passed  bool
	Score   float64
	Detail  map[string]float64
}
