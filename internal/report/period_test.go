package report

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestStartOfWeek(t *testing.T) {
	cases := []struct {
		name string
		in   time.Time
		want time.Time
	}{
		{"wednesday maps to its monday", time.Date(2025, time.June, 18, 15, 30, 0, 0, time.UTC), date(2025, time.June, 16)},
		{"monday is its own start", time.Date(2025, time.June, 16, 9, 0, 0, 0, time.UTC), date(2025, time.June, 16)},
		{"sunday belongs to the prior monday", time.Date(2025, time.June, 22, 23, 59, 0, 0, time.UTC), date(2025, time.June, 16)},
		{"week crossing a month boundary", time.Date(2025, time.July, 1, 12, 0, 0, 0, time.UTC), date(2025, time.June, 30)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := StartOfWeek(tc.in); !got.Equal(tc.want) {
				t.Fatalf("StartOfWeek(%s) = %s, want %s", tc.in, got, tc.want)
			}
		})
	}
}

func TestStartOfMonth(t *testing.T) {
	in := time.Date(2025, time.June, 18, 15, 30, 0, 0, time.UTC)
	want := date(2025, time.June, 1)
	if got := StartOfMonth(in); !got.Equal(want) {
		t.Fatalf("StartOfMonth(%s) = %s, want %s", in, got, want)
	}
}

func TestPercentChange(t *testing.T) {
	cases := []struct {
		name     string
		current  int64
		previous int64
		want     float64
	}{
		{"zero prior with revenue counts as full growth", 500, 0, 100},
		{"both zero is flat", 0, 0, 0},
		{"growth", 300, 200, 50},
		{"decline", 100, 200, -50},
		{"revenue dropping to zero", 0, 200, -100},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := PercentChange(decimal.NewFromInt(tc.current), decimal.NewFromInt(tc.previous))
			if got != tc.want {
				t.Fatalf("PercentChange(%d, %d) = %v, want %v", tc.current, tc.previous, got, tc.want)
			}
		})
	}
}
