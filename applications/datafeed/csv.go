// Package datafeed loads the caller-supplied price_data series from disk.
// The external-interfaces contract leaves the storage format to the
// embedding application; cmd/factorarenad reads a plain CSV since none of
// the corpus's domain dependencies (SQL drivers, object storage clients)
// have an obvious home for a single historical OHLCV file, and
// encoding/csv is the standard-library tool for exactly this shape of
// input. See DESIGN.md for why this one component stays on stdlib.
package datafeed

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/r3e-network/factor-arena/domain/mining"
)

// LoadPriceSeries reads a CSV file with a header row containing at least
// timestamp and close, and optionally open, high, low, volume, market_cap,
// sector, roe, debt_ratio, dividend_yield, pb_ratio, revenue_growth,
// factor_exposure. Unknown columns are ignored; missing optional columns
// default to zero.
func LoadPriceSeries(path string) (mining.PriceSeries, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read header of %s: %w", path, err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.ToLower(strings.TrimSpace(name))] = i
	}
	if _, ok := col["timestamp"]; !ok {
		return nil, fmt.Errorf("%s: missing required column %q", path, "timestamp")
	}
	if _, ok := col["close"]; !ok {
		return nil, fmt.Errorf("%s: missing required column %q", path, "close")
	}

	var out mining.PriceSeries
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row of %s: %w", path, err)
		}

		bar := mining.PriceBar{
			Timestamp:     parseTimestamp(field(row, col, "timestamp")),
			Open:          parseFloat(field(row, col, "open")),
			High:          parseFloat(field(row, col, "high")),
			Low:           parseFloat(field(row, col, "low")),
			Close:         parseFloat(field(row, col, "close")),
			Volume:        parseFloat(field(row, col, "volume")),
			MarketCap:     parseFloat(field(row, col, "market_cap")),
			Sector:        field(row, col, "sector"),
			ROE:           parseFloat(field(row, col, "roe")),
			DebtRatio:     parseFloat(field(row, col, "debt_ratio")),
			DividendYield: parseFloat(field(row, col, "dividend_yield")),
			PBRatio:       parseFloat(field(row, col, "pb_ratio")),
			RevenueGrowth: parseFloat(field(row, col, "revenue_growth")),
			FactorExp:     parseFloat(field(row, col, "factor_exposure")),
		}
		out = append(out, bar)
	}
	return out, nil
}

// DeriveReturns computes close-to-close percentage returns aligned with
// data, one element shorter (returns[i] corresponds to data[i+1]).
func DeriveReturns(data mining.PriceSeries) mining.Returns {
	if len(data) < 2 {
		return nil
	}
	out := make(mining.Returns, len(data)-1)
	for i := 1; i < len(data); i++ {
		prev := data[i-1].Close
		if prev == 0 {
			out[i-1] = 0
			continue
		}
		out[i-1] = (data[i].Close - prev) / prev
	}
	return out
}

func field(row []string, col map[string]int, name string) string {
	i, ok := col[name]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func parseFloat(s string) float64 {
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

func parseTimestamp(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
