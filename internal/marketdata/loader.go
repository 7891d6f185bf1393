package marketdata

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pbt/portfolio-backtester/internal/domain"
)

// pricePoint is one entry of a per-ticker series in the price-history file.
type pricePoint struct {
	Date     string          `json:"date"`
	AdjClose decimal.Decimal `json:"adjClose"`
}

// LoadJSON loads monthly adjusted-close histories for the given tickers from
// a JSON file shaped as {"TICKER": [{"date": "YYYY-MM-DD", "adjClose": n}]}.
//
// The requested series are inner-joined on calendar month (only months
// present in every series participate) and returned sorted ascending. Dates
// are normalized to the first of the month; the price series has no
// day-of-month resolution. When a file carries more than one point for the
// same month, the latest dated point wins.
func LoadJSON(path string, tickers ...string) ([]domain.PriceRow, error) {
	if len(tickers) == 0 {
		return nil, fmt.Errorf("no tickers requested")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read price history %s: %w", path, err)
	}

	var raw map[string][]pricePoint
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse price history %s: %w", path, err)
	}

	type monthPrice struct {
		day   int
		price decimal.Decimal
	}
	series := make([]map[time.Time]monthPrice, len(tickers))
	for i, ticker := range tickers {
		points, ok := raw[ticker]
		if !ok || len(points) == 0 {
			return nil, fmt.Errorf("price history %s has no series for %s", path, ticker)
		}

		byMonth := make(map[time.Time]monthPrice, len(points))
		for _, p := range points {
			date, err := time.Parse("2006-01-02", p.Date)
			if err != nil {
				return nil, fmt.Errorf("bad date %q in %s series: %w", p.Date, ticker, err)
			}
			if !p.AdjClose.IsPositive() {
				return nil, fmt.Errorf("non-positive price %s for %s on %s", p.AdjClose.String(), ticker, p.Date)
			}
			month := time.Date(date.Year(), date.Month(), 1, 0, 0, 0, 0, time.UTC)
			if existing, dup := byMonth[month]; !dup || date.Day() > existing.day {
				byMonth[month] = monthPrice{day: date.Day(), price: p.AdjClose}
			}
		}
		series[i] = byMonth
	}

	// Inner join on month across all requested series.
	var months []time.Time
	for month := range series[0] {
		inAll := true
		for _, s := range series[1:] {
			if _, ok := s[month]; !ok {
				inAll = false
				break
			}
		}
		if inAll {
			months = append(months, month)
		}
	}
	if len(months) == 0 {
		return nil, fmt.Errorf("price history %s has no months common to %v", path, tickers)
	}
	sort.Slice(months, func(i, j int) bool { return months[i].Before(months[j]) })

	rows := make([]domain.PriceRow, len(months))
	for i, month := range months {
		prices := make(domain.PriceMap, len(tickers))
		for j, ticker := range tickers {
			prices[ticker] = series[j][month].price
		}
		rows[i] = domain.PriceRow{Date: month, Prices: prices}
	}
	return rows, nil
}
