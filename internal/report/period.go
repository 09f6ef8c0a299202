package report

import (
	"time"

	"github.com/shopspring/decimal"
)

// StartOfWeek truncates t to midnight on the Monday of its week.
func StartOfWeek(t time.Time) time.Time {
	day := midnight(t)
	offset := int(day.Weekday()) - int(time.Monday)
	if offset < 0 {
		offset += 7
	}
	return day.AddDate(0, 0, -offset)
}

// StartOfMonth truncates t to midnight on the first day of its month.
func StartOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// PercentChange reports current vs. previous as a percentage. A zero
// previous period maps to +100 when current is positive and 0 otherwise,
// so a fresh account never divides by zero.
func PercentChange(current, previous decimal.Decimal) float64 {
	if previous.IsZero() {
		if current.Sign() > 0 {
			return 100
		}
		return 0
	}
	change, _ := current.Sub(previous).
		Div(previous).
		Mul(decimal.NewFromInt(100)).
		Float64()
	return change
}
