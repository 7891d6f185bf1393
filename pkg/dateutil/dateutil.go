package dateutil

import (
	"time"
)

// MonthsBetween returns the number of whole calendar months from start to
// end. Day-of-month is ignored; the price series has monthly resolution.
func MonthsBetween(start, end time.Time) int {
	return (end.Year()-start.Year())*12 + int(end.Month()) - int(start.Month())
}

// YearsBetween returns the span between two dates in years at monthly
// resolution (whole months / 12). This is the time scale of the cash-flow
// timeline and of growth-rate computations, so twelve monthly steps are
// exactly one year.
func YearsBetween(start, end time.Time) float64 {
	return float64(MonthsBetween(start, end)) / 12
}

// SameMonth reports whether two dates fall in the same calendar month.
func SameMonth(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month()
}
