package fees

import (
	"errors"
	"testing"
	"time"

	"github.com/example/campground/internal/interval"
)

func sampleRates() Rates {
	return Rates{
		Year:                   2021,
		DailyRate:              4000,
		WeeklyRate:             22000,
		MonthlyRate:            75000,
		SeasonalRate:           250000,
		NightlyCancellationFee: 1000,
		WeeklyCancellationFee:  2500,
		MonthlyCancellationFee: 5000,
		EarlyCheckInFeePerHour: 500,
		LateStayFeePerHour:     700,
		NightlyVisitorFee:      800,
		DailyVisitorFee:        300,
		ElectricalRatePerKWh:   13,
	}
}

func nightsFrom(start time.Time, nights int) interval.Interval {
	return interval.Interval{Start: start, End: start.AddDate(0, 0, nights)}
}

var june1 = time.Date(2021, time.June, 1, 0, 0, 0, 0, time.UTC)

func TestClassifyStay(t *testing.T) {
	t.Parallel()

	cases := map[int]StayClass{1: ClassDaily, 6: ClassDaily, 7: ClassWeekly, 29: ClassWeekly, 30: ClassMonthly, 89: ClassMonthly, 90: ClassSeasonal}
	for nights, want := range cases {
		if got := ClassifyStay(nights); got != want {
			t.Fatalf("expected %d nights to be %s, got %s", nights, want, got)
		}
	}
}

func TestStayCharge(t *testing.T) {
	t.Parallel()

	rates := sampleRates()
	cases := []struct {
		name   string
		nights int
		sites  int
		want   int64
	}{
		{name: "daily", nights: 2, sites: 1, want: 8000},
		{name: "daily two sites", nights: 2, sites: 2, want: 16000},
		{name: "weekly with leftover days", nights: 10, sites: 1, want: 34000},
		{name: "monthly with leftover weeks and days", nights: 45, sites: 1, want: 123000},
		{name: "seasonal flat", nights: 120, sites: 1, want: 250000},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := StayCharge(rates, nightsFrom(june1, tc.nights), tc.sites)
			if err != nil {
				t.Fatalf("expected charge, got %v", err)
			}
			if got != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, got)
			}
		})
	}

	t.Run("missing weekly rate is explicit", func(t *testing.T) {
		t.Parallel()
		r := sampleRates()
		r.WeeklyRate = 0
		if _, err := StayCharge(r, nightsFrom(june1, 10), 1); !errors.Is(err, ErrMissingRate) {
			t.Fatalf("expected ErrMissingRate, got %v", err)
		}
	})

	t.Run("rejects invalid inputs", func(t *testing.T) {
		t.Parallel()
		if _, err := StayCharge(rates, interval.Interval{Start: june1, End: june1}, 1); !errors.Is(err, interval.ErrInvalid) {
			t.Fatalf("expected interval.ErrInvalid, got %v", err)
		}
		if _, err := StayCharge(rates, nightsFrom(june1, 2), 0); !errors.Is(err, ErrInvalidSites) {
			t.Fatalf("expected ErrInvalidSites, got %v", err)
		}
	})
}

func TestDeposit(t *testing.T) {
	t.Parallel()

	rates := sampleRates()
	got, err := Deposit(rates, nightsFrom(june1, 2), 2)
	if err != nil || got != 8000 {
		t.Fatalf("expected 8000, got %d (%v)", got, err)
	}
	got, err = Deposit(rates, nightsFrom(june1, 120), 1)
	if err != nil || got != 62500 {
		t.Fatalf("expected seasonal deposit 62500, got %d (%v)", got, err)
	}
}

func TestCancellationFee(t *testing.T) {
	t.Parallel()

	rates := sampleRates()
	stay := nightsFrom(june1, 2)

	before, err := CancellationFee(rates, stay, 1, 4000, june1.Add(-48*time.Hour))
	if err != nil || before != 1000 {
		t.Fatalf("expected 1000 before arrival, got %d (%v)", before, err)
	}
	after, err := CancellationFee(rates, stay, 1, 4000, june1.Add(time.Hour))
	if err != nil || after != 4000 {
		t.Fatalf("expected forfeited deposit 4000 after arrival, got %d (%v)", after, err)
	}
	weekly, err := CancellationFee(rates, nightsFrom(june1, 8), 2, 0, june1.Add(-time.Hour))
	if err != nil || weekly != 5000 {
		t.Fatalf("expected weekly fee 5000, got %d (%v)", weekly, err)
	}
}

func TestHourlyFees(t *testing.T) {
	t.Parallel()

	rates := sampleRates()
	stay, err := interval.ForStay(june1, june1.AddDate(0, 0, 2), time.UTC)
	if err != nil {
		t.Fatalf("expected stay, got %v", err)
	}

	if got := EarlyCheckInFee(rates, stay, stay.Start.Add(-150*time.Minute)); got != 1500 {
		t.Fatalf("expected 3 started hours (1500), got %d", got)
	}
	if got := EarlyCheckInFee(rates, stay, stay.Start.Add(time.Hour)); got != 0 {
		t.Fatalf("expected no early fee, got %d", got)
	}
	if got := LateStayFee(rates, stay, stay.End.Add(time.Hour)); got != 700 {
		t.Fatalf("expected 700, got %d", got)
	}
}

func TestQuoteStay(t *testing.T) {
	t.Parallel()

	q, err := QuoteStay(sampleRates(), nightsFrom(june1, 10), 1, -1, june1.AddDate(0, 0, -30))
	if err != nil {
		t.Fatalf("expected quote, got %v", err)
	}
	if q.StayCharge != 34000 || q.Deposit != 22000 || q.BalanceDue != 12000 {
		t.Fatalf("unexpected quote: %+v", q)
	}
	if q.CancellationFee != 2500 {
		t.Fatalf("expected weekly cancellation fee, got %d", q.CancellationFee)
	}
	if len(q.Lines) < 2 {
		t.Fatalf("expected itemised lines, got %+v", q.Lines)
	}
}

func TestMiscFees(t *testing.T) {
	t.Parallel()

	rates := sampleRates()
	if got := VisitorFee(rates, 3, true); got != 2400 {
		t.Fatalf("expected 2400, got %d", got)
	}
	if got := ElectricalCharge(rates, 100); got != 1300 {
		t.Fatalf("expected 1300, got %d", got)
	}
}
