package mining

import "time"

// PriceBar is one row of the caller-supplied price_data series: an ordered
// time series with columns at least {close, volume}, optionally enriched
// with the remaining columns named in the external-interfaces contract.
type PriceBar struct {
	Timestamp     time.Time
	Open          float64
	High          float64
	Low           float64
	Close         float64
	Volume        float64
	MarketCap     float64
	Sector        string
	ROE           float64
	DebtRatio     float64
	DividendYield float64
	PBRatio       float64
	RevenueGrowth float64
	FactorExp     float64
}

// PriceSeries is a strictly-increasing-timestamp, non-empty ordered view of
// PriceBar rows. Operators receive it read-only; miners must not mutate it.
type PriceSeries []PriceBar

// Closes extracts the close column.
func (s PriceSeries) Closes() []float64 {
	out := make([]float64, len(s))
	for i, b := range s {
		out[i] = b.Close
	}
	return out
}

// Volumes extracts the volume column.
func (s PriceSeries) Volumes() []float64 {
	out := make([]float64, len(s))
	for i, b := range s {
		out[i] = b.Volume
	}
	return out
}

// Returns is a float series aligned index-for-index with a PriceSeries,
// typically close.pct_change().
type Returns []float64

// AltSourceTag is one of the fixed alternative-data source tags.
type AltSourceTag string

const (
	AltSatellite    AltSourceTag = "satellite"
	AltSocialMedia  AltSourceTag = "social_media"
	AltWebTraffic   AltSourceTag = "web_traffic"
	AltSupplyChain  AltSourceTag = "supply_chain"
	AltGeolocation  AltSourceTag = "geolocation"
	AltNews         AltSourceTag = "news"
	AltSearchTrends AltSourceTag = "search_trends"
	AltShipping     AltSourceTag = "shipping"
)

// AltSeries is one alternative-data source's own time-indexed numeric
// column, aligned by timestamp to the primary price series where relevant.
type AltSeries struct {
	Timestamps []time.Time
	Values     []float64
}

// AltData maps a source tag to its series; callers provide only the sources
// relevant to the miners being invoked.
type AltData map[AltSourceTag]AltSeries

// Symbols is the universe of instrument identifiers a factor is computed
// over; operators receive it read-only alongside data and auxiliary data.
type Symbols []string

// AuxiliaryData is an open bag of miner-specific side inputs (ai_data,
// network_data, order_books+trades, esg_data, ...), passed through
// unchanged by the orchestrator to the miner that declared it needs them.
type AuxiliaryData map[string]interface{}

// OperatorFunc is the pure function contract between a miner and each of
// its named operators: fn(data, auxiliary, symbols) -> factor series
// aligned to data's index. Must not mutate data or symbols; may return an
// error, in which case the operator is skipped without aborting the miner.
type OperatorFunc func(data PriceSeries, aux AuxiliaryData, symbols Symbols) (Returns, error)

// OperatorTable is a miner's named mapping of operator-name -> OperatorFunc.
type OperatorTable map[string]OperatorFunc
