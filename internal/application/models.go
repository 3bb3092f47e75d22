package application

import (
	"fmt"
	"strings"
	"time"

	"github.com/example/campground/internal/fees"
	"github.com/example/campground/internal/interval"
)

// SiteType is the stay-length class a campsite is rented for.
type SiteType string

const (
	SiteTypeDaily    SiteType = "daily"
	SiteTypeWeekly   SiteType = "weekly"
	SiteTypeMonthly  SiteType = "monthly"
	SiteTypeSeasonal SiteType = "seasonal"
)

// SiteTypes lists the valid site types in ascending stay length.
var SiteTypes = []SiteType{SiteTypeDaily, SiteTypeWeekly, SiteTypeMonthly, SiteTypeSeasonal}

// ParseSiteType parses a site type case-insensitively.
func ParseSiteType(value string) (SiteType, error) {
	candidate := SiteType(strings.ToLower(strings.TrimSpace(value)))
	for _, t := range SiteTypes {
		if candidate == t {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown site type %q", value)
}

// Serves reports whether a site of this type may be rented for the given number of nights.
func (t SiteType) Serves(nights int) bool {
	switch t {
	case SiteTypeDaily:
		return nights >= 1 && nights < fees.WeekNights
	case SiteTypeWeekly:
		return nights >= fees.WeekNights && nights < fees.MonthNights
	case SiteTypeMonthly:
		return nights >= fees.MonthNights && nights < fees.SeasonNights
	case SiteTypeSeasonal:
		return nights >= fees.SeasonNights
	}
	return false
}

// SiteTypeForNights returns the type that serves a stay of the given length.
func SiteTypeForNights(nights int) SiteType {
	for _, t := range SiteTypes {
		if t.Serves(nights) {
			return t
		}
	}
	return SiteTypeDaily
}

// Campsite is a rentable site in the catalog.
type Campsite struct {
	ID              string
	Name            string
	Section         string
	Number          int
	MaxLengthFeet   int
	WidthFeet       int
	AcceptsSlideOut bool
	PullThrough     bool
	Type            SiteType
	Notes           string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Reservation is a customer's request for a number of sites over a stay.
type Reservation struct {
	ID             string
	CustomerID     string
	Stay           interval.Interval
	SitesRequested int
	SitesAssigned  int
	DepositCents   int64
	Notes          string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Fulfilled reports whether every requested site has been assigned.
func (r Reservation) Fulfilled() bool {
	return r.SitesAssigned >= r.SitesRequested
}

// Nights returns the number of nights in the stay.
func (r Reservation) Nights() int {
	return r.Stay.Nights()
}

// AssignedSite binds one campsite to one reservation over a stay.
type AssignedSite struct {
	ID            string
	ReservationID string
	CustomerID    string
	CampsiteID    string
	Stay          interval.Interval
	Locked        bool
	DepositCents  int64
	CheckedIn     bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// WaitingListEntry is an unfulfilled request kept for later promotion.
type WaitingListEntry struct {
	ID          string
	CustomerID  string
	Nights      int
	Sites       int
	RequestedOn time.Time
	Stay        interval.Interval
	Priority    bool
	Notes       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// YearlyRates is the rate row for one calendar year.
type YearlyRates struct {
	fees.Rates
	UpdatedAt time.Time
}

// CampsiteInput captures caller provided campsite fields.
type CampsiteInput struct {
	Name            string
	Section         string
	Number          int
	MaxLengthFeet   int
	WidthFeet       int
	AcceptsSlideOut bool
	PullThrough     bool
	Type            string
	Notes           string
}

// CampsiteFilter narrows catalog listings. Zero values match everything.
type CampsiteFilter struct {
	Type    SiteType
	Section string
	Number  int
}

// ReservationInput captures caller provided reservation fields. A nil
// DepositCents asks the service to derive the deposit from the yearly rates.
type ReservationInput struct {
	CustomerID     string
	Stay           interval.Interval
	SitesRequested int
	DepositCents   *int64
	Notes          string
}

// AssignParams describes a binding request.
type AssignParams struct {
	ReservationID string
	CampsiteID    string
	// CustomerID defaults to the reservation's customer.
	CustomerID   string
	Stay         interval.Interval
	Lock         bool
	DepositCents int64
}

// ReassignParams describes moving an existing binding.
type ReassignParams struct {
	AssignedSiteID string
	CampsiteID     string
	Stay           interval.Interval
	// Lock pins or unpins the binding. Nil keeps its current state.
	Lock *bool
}

// ReassignOutcome is the result of one item of a batch reassignment.
type ReassignOutcome struct {
	AssignedSiteID string
	Site           AssignedSite
	Err            error
}

// ReassignReport tallies a batch reassignment.
type ReassignReport struct {
	ReservationID string
	Outcomes      []ReassignOutcome
	Succeeded     int
	Failed        int
	SitesAssigned int
}

// WaitingListInput captures caller provided waiting list fields.
type WaitingListInput struct {
	CustomerID  string
	Sites       int
	Stay        interval.Interval
	RequestedOn time.Time
	Priority    bool
	Notes       string
}

// PromotionReport records the outcome of a promotion sweep.
type PromotionReport struct {
	Promoted      []string
	Reservations  []string
	Unsatisfiable []string
	Conflicted    []string
}

// AvailabilityParams describes an availability query.
type AvailabilityParams struct {
	Stay interval.Interval
	// Type restricts results to one site type when set.
	Type *SiteType
	// ServingStayOnly restricts results to types that serve the stay's length.
	ServingStayOnly bool
}
