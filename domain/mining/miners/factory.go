package miners

import (
	"github.com/r3e-network/factor-arena/domain/mining"
	"github.com/r3e-network/factor-arena/infrastructure/logging"
)

// satelliteSubstitute is the deterministic OHLCV-derived substitute for a
// satellite-imagery parking-occupancy style reading: volume momentum over
// a 5-period window, per §9's open question (momentum baseline treated as
// configurable; 5 periods chosen as the shortest stable window).
func satelliteSubstitute(data mining.PriceSeries) (mining.Returns, error) {
	fn := volumeMomentum(5)
	return fn(data, nil, nil)
}

func newsSubstitute(data mining.PriceSeries) (mining.Returns, error) {
	fn := rangeBreakout()
	return fn(data, nil, nil)
}

// BuildStandardMiners constructs the fifteen non-meta miner kinds with a
// concrete (pluggable, deterministic) operator table apiece. The
// meta-miner (KindUnified) is built separately by applications/metaminer
// since it carries regime detection and recommendation state beyond the
// plain miner contract.
func BuildStandardMiners(log *logging.Logger) map[mining.MinerKind]mining.Miner {
	out := make(map[mining.MinerKind]mining.Miner, len(mining.AllKinds)-1)

	generic := map[mining.MinerKind]mining.OperatorTable{
		mining.KindGenetic: {
			"momentum_10":      momentum(10),
			"mean_reversion_20": meanReversion(20),
		},
		mining.KindAIEnhanced: {
			"momentum_5":        momentum(5),
			"volatility_20":     volatility(20),
		},
		mining.KindNetwork: {
			"volume_momentum_10": volumeMomentum(10),
		},
		mining.KindHighFrequency: {
			"range_breakout":    rangeBreakout(),
			"momentum_3":        momentum(3),
		},
		mining.KindSentiment: {
			"volume_momentum_3": volumeMomentum(3),
		},
		mining.KindMLFeature: {
			"momentum_20":       momentum(20),
			"volatility_10":     volatility(10),
		},
		mining.KindTimeSeriesDL: {
			// Seq2Seq/DeepAR/Transformer operators are stubbed as
			// moving-average surrogates per §9's open question.
			"ma_surrogate_10": momentum(10),
			"ma_surrogate_30": momentum(30),
		},
		mining.KindESG: {
			"roe_tilt":       fundamentalTilt(func(b mining.PriceBar) float64 { return b.ROE }),
			"debt_tilt":      fundamentalTilt(func(b mining.PriceBar) float64 { return -b.DebtRatio }),
		},
		mining.KindPriceVolume: {
			"momentum_10":        momentum(10),
			"volume_momentum_10": volumeMomentum(10),
		},
		mining.KindMacro: {
			"dividend_tilt": fundamentalTilt(func(b mining.PriceBar) float64 { return b.DividendYield }),
		},
		mining.KindEventDriven: {
			"range_breakout": rangeBreakout(),
		},
		mining.KindStyleRotation: {
			"pb_tilt":     fundamentalTilt(func(b mining.PriceBar) float64 { return -b.PBRatio }),
			"growth_tilt": fundamentalTilt(func(b mining.PriceBar) float64 { return b.RevenueGrowth }),
		},
		mining.KindFactorCombination: {
			"momentum_10":       momentum(10),
			"mean_reversion_10": meanReversion(10),
		},
	}

	for kind, table := range generic {
		out[kind] = NewGenericMiner(kind, table, 252, log)
	}

	altOps := []AlternativeDataOperator{
		{
			Name:   "satellite_parking_momentum",
			Source: mining.AltSatellite,
			Primary: func(alt mining.AltSeries, data mining.PriceSeries) (mining.Returns, error) {
				return satelliteMA(alt)
			},
			Substitute: satelliteSubstitute,
		},
		{
			Name:   "news_sentiment_proxy",
			Source: mining.AltNews,
			Primary: func(alt mining.AltSeries, data mining.PriceSeries) (mining.Returns, error) {
				return newsMA(alt)
			},
			Substitute: newsSubstitute,
		},
	}
	defaultReliability := map[mining.AltSourceTag]SourceReliability{}
	out[mining.KindAlternativeData] = NewAlternativeDataMiner(mining.KindAlternativeData, altOps, 252, log, defaultReliability)

	extOps := []AlternativeDataOperator{
		{
			Name:   "web_traffic_momentum",
			Source: mining.AltWebTraffic,
			Primary: func(alt mining.AltSeries, data mining.PriceSeries) (mining.Returns, error) {
				return satelliteMA(alt)
			},
			Substitute: satelliteSubstitute,
		},
		{
			Name:   "supply_chain_proxy",
			Source: mining.AltSupplyChain,
			Primary: func(alt mining.AltSeries, data mining.PriceSeries) (mining.Returns, error) {
				return satelliteMA(alt)
			},
			Substitute: satelliteSubstitute,
		},
	}
	out[mining.KindAlternativeDataExt] = NewAlternativeDataMiner(mining.KindAlternativeDataExt, extOps, 252, log, defaultReliability)

	return out
}

// satelliteMA is the "primary" reading for a satellite-style source: a
// 7-over-30 period moving-average ratio, the source's own shape before
// any reliability-driven fallback decision is applied.
func satelliteMA(alt mining.AltSeries) (mining.Returns, error) {
	return maRatio(alt.Values, 7, 30), nil
}

func newsMA(alt mining.AltSeries) (mining.Returns, error) {
	return maRatio(alt.Values, 3, 10), nil
}

func maRatio(values []float64, short, long int) mining.Returns {
	out := make(mining.Returns, len(values))
	for i := range values {
		if i < long {
			continue
		}
		var shortSum, longSum float64
		for j := i - short + 1; j <= i; j++ {
			shortSum += values[j]
		}
		for j := i - long + 1; j <= i; j++ {
			longSum += values[j]
		}
		shortMA := shortSum / float64(short)
		longMA := longSum / float64(long)
		if longMA == 0 {
			continue
		}
		out[i] = shortMA/longMA - 1
	}
	return out
}
