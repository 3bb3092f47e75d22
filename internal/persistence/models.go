package persistence

import "time"

// Campsite is a physical site in the campground catalog.
type Campsite struct {
	ID              string
	Name            string
	Section         string
	Number          int
	MaxLengthFeet   int
	WidthFeet       int
	AcceptsSlideOut bool
	PullThrough     bool
	SiteType        string
	Notes           *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// AssignedSite binds one campsite to one reservation for a stay.
type AssignedSite struct {
	ID            string
	ReservationID string
	CustomerID    string
	CampsiteID    string
	ArrivalAt     time.Time
	DepartureAt   time.Time
	Locked        bool
	DepositCents  int64
	CheckedIn     bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Reservation is a customer's request for one or more sites over a stay.
type Reservation struct {
	ID             string
	CustomerID     string
	ArrivalAt      time.Time
	DepartureAt    time.Time
	SitesRequested int
	SitesAssigned  int
	DepositCents   int64
	Notes          *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// WaitingListEntry is a request that could not be fulfilled when made.
type WaitingListEntry struct {
	ID          string
	CustomerID  string
	Nights      int
	Sites       int
	RequestedOn time.Time
	ArrivalAt   time.Time
	DepartureAt time.Time
	Priority    bool
	Notes       *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// YearlyRates is the rate row for one calendar year. Amounts are cents.
type YearlyRates struct {
	Year                   int
	DailyRate              int64
	WeeklyRate             int64
	MonthlyRate            int64
	SeasonalRate           int64
	NightlyCancellationFee int64
	WeeklyCancellationFee  int64
	MonthlyCancellationFee int64
	EarlyCheckInFeePerHour int64
	LateStayFeePerHour     int64
	NightlyVisitorFee      int64
	DailyVisitorFee        int64
	SeasonalVisitorPass    int64
	ElectricalRatePerKWh   int64
	OpeningDate            *time.Time
	ClosingDate            *time.Time
	UpdatedAt              time.Time
}
