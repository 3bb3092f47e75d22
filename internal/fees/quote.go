package fees

import (
	"fmt"
	"time"

	"github.com/example/campground/internal/interval"
)

// Line is one itemised note on a quote.
type Line struct {
	Label string
	Cents int64
}

// Quote summarises the charges for a reservation at a point in time.
type Quote struct {
	Year            int
	Class           StayClass
	Nights          int
	Sites           int
	StayCharge      int64
	Deposit         int64
	CancellationFee int64
	BalanceDue      int64
	Lines           []Line
}

// QuoteStay assembles a quote for sites booked over stay. deposit is the amount
// already collected; when negative the policy deposit is used instead.
func QuoteStay(r Rates, stay interval.Interval, sites int, deposit int64, now time.Time) (Quote, error) {
	charge, err := StayCharge(r, stay, sites)
	if err != nil {
		return Quote{}, err
	}
	if deposit < 0 {
		deposit, err = Deposit(r, stay, sites)
		if err != nil {
			return Quote{}, err
		}
	}
	cancel, err := CancellationFee(r, stay, sites, deposit, now)
	if err != nil {
		return Quote{}, err
	}

	nights := stay.Nights()
	class := ClassifyStay(nights)
	balance := charge - deposit
	if balance < 0 {
		balance = 0
	}

	q := Quote{
		Year:            r.Year,
		Class:           class,
		Nights:          nights,
		Sites:           sites,
		StayCharge:      charge,
		Deposit:         deposit,
		CancellationFee: cancel,
		BalanceDue:      balance,
	}
	q.Lines = append(q.Lines,
		Line{Label: fmt.Sprintf("%s stay, %d night(s) x %d site(s)", class, nights, sites), Cents: charge},
		Line{Label: "deposit", Cents: -deposit},
	)
	if !InSeason(r, stay) {
		q.Lines = append(q.Lines, Line{Label: "stay falls outside the operating season"})
	}
	return q, nil
}
