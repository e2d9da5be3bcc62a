package miners

import (
	"math"

	"github.com/r3e-network/factor-arena/domain/mining"
)

// The functions below are generic, deterministic operator building blocks
// shared across the pluggable miner kinds. Per spec §1 the sixteen miners'
// per-operator numerical formulas are explicitly out of scope and treated
// as pluggable; these implementations give every kind a concrete,
// side-effect-free operator table to exercise rather than leaving the
// contract unimplemented.

// momentum computes a simple lookback return: close[t]/close[t-window]-1.
func momentum(window int) mining.OperatorFunc {
	return func(data mining.PriceSeries, aux mining.AuxiliaryData, symbols mining.Symbols) (mining.Returns, error) {
		closes := data.Closes()
		out := make(mining.Returns, len(closes))
		for i := range closes {
			if i < window || closes[i-window] == 0 {
				out[i] = 0
				continue
			}
			out[i] = closes[i]/closes[i-window] - 1
		}
		return out, nil
	}
}

// meanReversion computes the negative deviation from a trailing mean.
func meanReversion(window int) mining.OperatorFunc {
	return func(data mining.PriceSeries, aux mining.AuxiliaryData, symbols mining.Symbols) (mining.Returns, error) {
		closes := data.Closes()
		out := make(mining.Returns, len(closes))
		for i := range closes {
			if i < window {
				continue
			}
			var sum float64
			for j := i - window; j < i; j++ {
				sum += closes[j]
			}
			mean := sum / float64(window)
			if mean == 0 {
				continue
			}
			out[i] = -(closes[i]/mean - 1)
		}
		return out, nil
	}
}

// volumeMomentum computes volume.pct_change(window), the deterministic
// substitute used throughout the alt-data fallback chain (§9 open
// question: "parking_occupancy" uses MA7/MA30-1; here the shared
// OHLCV-only surrogate is a pct_change momentum rather than an MA ratio,
// since no baseline window is specified for non-alt-data kinds).
func volumeMomentum(window int) mining.OperatorFunc {
	return func(data mining.PriceSeries, aux mining.AuxiliaryData, symbols mining.Symbols) (mining.Returns, error) {
		volumes := data.Volumes()
		out := make(mining.Returns, len(volumes))
		for i := range volumes {
			if i < window || volumes[i-window] == 0 {
				continue
			}
			out[i] = volumes[i]/volumes[i-window] - 1
		}
		return out, nil
	}
}

// volatility computes a trailing rolling standard deviation of returns.
func volatility(window int) mining.OperatorFunc {
	return func(data mining.PriceSeries, aux mining.AuxiliaryData, symbols mining.Symbols) (mining.Returns, error) {
		closes := data.Closes()
		rets := make([]float64, len(closes))
		for i := 1; i < len(closes); i++ {
			if closes[i-1] != 0 {
				rets[i] = closes[i]/closes[i-1] - 1
			}
		}
		out := make(mining.Returns, len(closes))
		for i := range closes {
			if i < window {
				continue
			}
			w := rets[i-window+1 : i+1]
			var mean float64
			for _, r := range w {
				mean += r
			}
			mean /= float64(len(w))
			var sumSq float64
			for _, r := range w {
				d := r - mean
				sumSq += d * d
			}
			out[i] = math.Sqrt(sumSq / float64(len(w)))
		}
		return out, nil
	}
}

// rangeBreakout computes (high-low)/close as a microstructure-style
// intraday range signal.
func rangeBreakout() mining.OperatorFunc {
	return func(data mining.PriceSeries, aux mining.AuxiliaryData, symbols mining.Symbols) (mining.Returns, error) {
		out := make(mining.Returns, len(data))
		for i, bar := range data {
			if bar.Close == 0 {
				continue
			}
			out[i] = (bar.High - bar.Low) / bar.Close
		}
		return out, nil
	}
}

// fundamentalTilt turns a per-bar fundamental column into a factor series
// via the supplied selector, used by ESG/macro-style kinds whose inputs
// are fundamental rather than price-derived.
func fundamentalTilt(selector func(bar mining.PriceBar) float64) mining.OperatorFunc {
	return func(data mining.PriceSeries, aux mining.AuxiliaryData, symbols mining.Symbols) (mining.Returns, error) {
		out := make(mining.Returns, len(data))
		for i, bar := range data {
			out[i] = selector(bar)
		}
		return out, nil
	}
}
