// Command genprices emits a synthetic monthly price-history JSON usable as
// backtester input, alternating flat and rising months. Handy for demos and
// manual testing without real market data.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"
)

type pricePoint struct {
	Date     string  `json:"date"`
	AdjClose float64 `json:"adjClose"`
}

func main() {
	growth := flag.String("growth", "QQQ", "growth asset ticker")
	leveraged := flag.String("leveraged", "QLD", "leveraged asset ticker")
	months := flag.Int("months", 24, "number of months to generate")
	start := flag.String("start", "2020-01-31", "first month's date (YYYY-MM-DD)")
	out := flag.String("out", "", "output path (default stdout)")
	flag.Parse()

	startDate, err := time.Parse("2006-01-02", *start)
	if err != nil {
		fmt.Fprintln(os.Stderr, "bad start date:", err)
		os.Exit(1)
	}

	history := map[string][]pricePoint{
		*growth:    series(startDate, *months, 100, 0.02),
		*leveraged: series(startDate, *months, 50, 0.04),
	}

	data, err := json.MarshalIndent(history, "", "  ")
	if err != nil {
		fmt.Fprintln(os.Stderr, "marshal:", err)
		os.Exit(1)
	}

	if *out == "" {
		fmt.Println(string(data))
		return
	}
	if err := os.WriteFile(*out, data, 0644); err != nil {
		fmt.Fprintln(os.Stderr, "write:", err)
		os.Exit(1)
	}
}

// series alternates a flat month with a month rising by the given step
// fraction, starting from base. Dates are pinned to the first of the month
// so adding months never rolls over a short month.
func series(start time.Time, months int, base, step float64) []pricePoint {
	first := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, time.UTC)
	points := make([]pricePoint, months)
	price := base
	for i := 0; i < months; i++ {
		if i%2 == 1 {
			price *= 1 + step
		}
		points[i] = pricePoint{
			Date:     first.AddDate(0, i, 0).Format("2006-01-02"),
			AdjClose: price,
		}
	}
	return points
}
