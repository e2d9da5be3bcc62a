package arena

import (
	"fmt"
	"strings"

	"github.com/r3e-network/factor-arena/infrastructure/configdoc"
)

// Report renders a human-readable, section-structured-by-layer summary of
// an ArenaTestResult, per §6's "Detailed human-readable report string,
// section-structured by layer" data-out contract. optimizerParams is the
// opaque blob Layer 3 passed to the backtest, if the caller wants its
// tuned hyperparameters listed.
func Report(result ArenaTestResult, optimizerParams interface{}) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Spartan Arena report: %s (%s)\n", result.Strategy, result.MarketType)
	fmt.Fprintf(&b, "Evaluated: %s\n", result.EvaluatedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "Overall score: %.4f  Certification: %s  Passed: %v\n\n", result.OverallScore, result.Certification, result.Passed)

	for _, layer := range result.Layers {
		fmt.Fprintf(&b, "[%s] passed=%v score=%.4f\n", layer.Layer, layer.Passed, layer.Score)
		if layer.FailureReason != "" {
			fmt.Fprintf(&b, "  reason: %s\n", layer.FailureReason)
		}
		for name, v := range layer.Metrics {
			fmt.Fprintf(&b, "  %s = %.4f\n", name, v)
		}
		b.WriteString("\n")
	}

	if len(result.FailedLayers) > 0 {
		fmt.Fprintf(&b, "Failed layers: %s\n", strings.Join(result.FailedLayers, ", "))
	}

	if optimizerParams != nil {
		if doc, err := configdoc.New(optimizerParams); err == nil {
			keys := doc.Keys()
			if len(keys) > 0 {
				fmt.Fprintf(&b, "Tuned hyperparameters: %s\n", strings.Join(keys, ", "))
			}
		}
	}

	return b.String()
}
