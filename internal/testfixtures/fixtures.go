package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/campground/internal/application"
	"github.com/example/campground/internal/fees"
	"github.com/example/campground/internal/interval"
	"github.com/example/campground/internal/persistence"
)

var (
	campsiteCounter    uint64
	reservationCounter uint64
	assignedCounter    uint64
	waitingCounter     uint64
)

var referenceTime = time.Date(2021, time.March, 1, 8, 0, 0, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// Stay returns the stay from check-in on March arrivalDay, 2021 to check-out
// on March departureDay. Days past the end of the month roll over.
func Stay(arrivalDay, departureDay int) interval.Interval {
	stay, err := interval.ForStay(
		time.Date(2021, time.March, arrivalDay, 0, 0, 0, 0, time.UTC),
		time.Date(2021, time.March, departureDay, 0, 0, 0, 0, time.UTC),
		time.UTC,
	)
	if err != nil {
		panic(fmt.Sprintf("testfixtures: invalid stay %d..%d: %v", arrivalDay, departureDay, err))
	}
	return stay
}

func optional(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

// --------------------------- Campsite fixtures ---------------------------

// CampsiteFixture is a deterministic campsite.
type CampsiteFixture struct {
	ID              string
	Name            string
	Section         string
	Number          int
	MaxLengthFeet   int
	WidthFeet       int
	AcceptsSlideOut bool
	PullThrough     bool
	Type            application.SiteType
	Notes           string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// CampsiteOption configures the generated campsite fixture.
type CampsiteOption func(*CampsiteFixture)

// NewCampsiteFixture returns a daily campsite with generated id and name.
func NewCampsiteFixture(opts ...CampsiteOption) CampsiteFixture {
	idx := atomic.AddUint64(&campsiteCounter, 1)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	fixture := CampsiteFixture{
		ID:            fmt.Sprintf("site-%03d", idx),
		Name:          fmt.Sprintf("A-%03d", idx),
		Section:       "A",
		Number:        int(idx),
		MaxLengthFeet: 40,
		WidthFeet:     12,
		Type:          application.SiteTypeDaily,
		CreatedAt:     created,
		UpdatedAt:     created,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithCampsiteID overrides the generated campsite ID.
func WithCampsiteID(id string) CampsiteOption {
	return func(f *CampsiteFixture) { f.ID = id }
}

// WithCampsiteName overrides the generated name.
func WithCampsiteName(name string) CampsiteOption {
	return func(f *CampsiteFixture) { f.Name = name }
}

// WithCampsiteType sets the site type.
func WithCampsiteType(siteType application.SiteType) CampsiteOption {
	return func(f *CampsiteFixture) { f.Type = siteType }
}

// WithCampsiteSection sets section and number.
func WithCampsiteSection(section string, number int) CampsiteOption {
	return func(f *CampsiteFixture) {
		f.Section = section
		f.Number = number
	}
}

// WithCampsiteNotes sets the notes.
func WithCampsiteNotes(notes string) CampsiteOption {
	return func(f *CampsiteFixture) { f.Notes = notes }
}

// Application converts the fixture to the application model.
func (f CampsiteFixture) Application() application.Campsite {
	return application.Campsite{
		ID:              f.ID,
		Name:            f.Name,
		Section:         f.Section,
		Number:          f.Number,
		MaxLengthFeet:   f.MaxLengthFeet,
		WidthFeet:       f.WidthFeet,
		AcceptsSlideOut: f.AcceptsSlideOut,
		PullThrough:     f.PullThrough,
		Type:            f.Type,
		Notes:           f.Notes,
		CreatedAt:       f.CreatedAt,
		UpdatedAt:       f.UpdatedAt,
	}
}

// Persistence converts the fixture to the persistence record.
func (f CampsiteFixture) Persistence() persistence.Campsite {
	return persistence.Campsite{
		ID:              f.ID,
		Name:            f.Name,
		Section:         f.Section,
		Number:          f.Number,
		MaxLengthFeet:   f.MaxLengthFeet,
		WidthFeet:       f.WidthFeet,
		AcceptsSlideOut: f.AcceptsSlideOut,
		PullThrough:     f.PullThrough,
		SiteType:        string(f.Type),
		Notes:           optional(f.Notes),
		CreatedAt:       f.CreatedAt,
		UpdatedAt:       f.UpdatedAt,
	}
}

// Input converts the fixture to service input.
func (f CampsiteFixture) Input() application.CampsiteInput {
	return application.CampsiteInput{
		Name:            f.Name,
		Section:         f.Section,
		Number:          f.Number,
		MaxLengthFeet:   f.MaxLengthFeet,
		WidthFeet:       f.WidthFeet,
		AcceptsSlideOut: f.AcceptsSlideOut,
		PullThrough:     f.PullThrough,
		Type:            string(f.Type),
		Notes:           f.Notes,
	}
}

// -------------------------- Reservation fixtures -------------------------

// ReservationFixture is a deterministic reservation.
type ReservationFixture struct {
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

// ReservationOption configures the generated reservation fixture.
type ReservationOption func(*ReservationFixture)

// NewReservationFixture returns a one-site reservation for 5..7 March 2021.
func NewReservationFixture(opts ...ReservationOption) ReservationFixture {
	idx := atomic.AddUint64(&reservationCounter, 1)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	fixture := ReservationFixture{
		ID:             fmt.Sprintf("res-%03d", idx),
		CustomerID:     fmt.Sprintf("cust-%03d", idx),
		Stay:           Stay(5, 7),
		SitesRequested: 1,
		CreatedAt:      created,
		UpdatedAt:      created,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithReservationID overrides the generated ID.
func WithReservationID(id string) ReservationOption {
	return func(f *ReservationFixture) { f.ID = id }
}

// WithReservationCustomer overrides the customer.
func WithReservationCustomer(customerID string) ReservationOption {
	return func(f *ReservationFixture) { f.CustomerID = customerID }
}

// WithReservationStay overrides the stay.
func WithReservationStay(stay interval.Interval) ReservationOption {
	return func(f *ReservationFixture) { f.Stay = stay }
}

// WithReservationSites sets requested and assigned counts.
func WithReservationSites(requested, assigned int) ReservationOption {
	return func(f *ReservationFixture) {
		f.SitesRequested = requested
		f.SitesAssigned = assigned
	}
}

// WithReservationDeposit sets the deposit in cents.
func WithReservationDeposit(cents int64) ReservationOption {
	return func(f *ReservationFixture) { f.DepositCents = cents }
}

// Application converts the fixture to the application model.
func (f ReservationFixture) Application() application.Reservation {
	return application.Reservation{
		ID:             f.ID,
		CustomerID:     f.CustomerID,
		Stay:           f.Stay,
		SitesRequested: f.SitesRequested,
		SitesAssigned:  f.SitesAssigned,
		DepositCents:   f.DepositCents,
		Notes:          f.Notes,
		CreatedAt:      f.CreatedAt,
		UpdatedAt:      f.UpdatedAt,
	}
}

// Persistence converts the fixture to the persistence record.
func (f ReservationFixture) Persistence() persistence.Reservation {
	return persistence.Reservation{
		ID:             f.ID,
		CustomerID:     f.CustomerID,
		ArrivalAt:      f.Stay.Start,
		DepartureAt:    f.Stay.End,
		SitesRequested: f.SitesRequested,
		SitesAssigned:  f.SitesAssigned,
		DepositCents:   f.DepositCents,
		Notes:          optional(f.Notes),
		CreatedAt:      f.CreatedAt,
		UpdatedAt:      f.UpdatedAt,
	}
}

// Input converts the fixture to service input with an explicit deposit.
func (f ReservationFixture) Input() application.ReservationInput {
	deposit := f.DepositCents
	return application.ReservationInput{
		CustomerID:     f.CustomerID,
		Stay:           f.Stay,
		SitesRequested: f.SitesRequested,
		DepositCents:   &deposit,
		Notes:          f.Notes,
	}
}

// ------------------------- Assigned site fixtures ------------------------

// AssignedSiteFixture is a deterministic campsite binding.
type AssignedSiteFixture struct {
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

// AssignedSiteOption configures the generated binding fixture.
type AssignedSiteOption func(*AssignedSiteFixture)

// NewAssignedSiteFixture returns a binding of campsiteID to reservationID for 5..7 March 2021.
func NewAssignedSiteFixture(reservationID, campsiteID string, opts ...AssignedSiteOption) AssignedSiteFixture {
	idx := atomic.AddUint64(&assignedCounter, 1)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	fixture := AssignedSiteFixture{
		ID:            fmt.Sprintf("as-%03d", idx),
		ReservationID: reservationID,
		CustomerID:    "cust-" + reservationID,
		CampsiteID:    campsiteID,
		Stay:          Stay(5, 7),
		CreatedAt:     created,
		UpdatedAt:     created,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithAssignedSiteID overrides the generated ID.
func WithAssignedSiteID(id string) AssignedSiteOption {
	return func(f *AssignedSiteFixture) { f.ID = id }
}

// WithAssignedSiteStay overrides the stay.
func WithAssignedSiteStay(stay interval.Interval) AssignedSiteOption {
	return func(f *AssignedSiteFixture) { f.Stay = stay }
}

// WithAssignedSiteLocked pins the binding to its campsite.
func WithAssignedSiteLocked(locked bool) AssignedSiteOption {
	return func(f *AssignedSiteFixture) { f.Locked = locked }
}

// Application converts the fixture to the application model.
func (f AssignedSiteFixture) Application() application.AssignedSite {
	return application.AssignedSite{
		ID:            f.ID,
		ReservationID: f.ReservationID,
		CustomerID:    f.CustomerID,
		CampsiteID:    f.CampsiteID,
		Stay:          f.Stay,
		Locked:        f.Locked,
		DepositCents:  f.DepositCents,
		CheckedIn:     f.CheckedIn,
		CreatedAt:     f.CreatedAt,
		UpdatedAt:     f.UpdatedAt,
	}
}

// Persistence converts the fixture to the persistence record.
func (f AssignedSiteFixture) Persistence() persistence.AssignedSite {
	return persistence.AssignedSite{
		ID:            f.ID,
		ReservationID: f.ReservationID,
		CustomerID:    f.CustomerID,
		CampsiteID:    f.CampsiteID,
		ArrivalAt:     f.Stay.Start,
		DepartureAt:   f.Stay.End,
		Locked:        f.Locked,
		DepositCents:  f.DepositCents,
		CheckedIn:     f.CheckedIn,
		CreatedAt:     f.CreatedAt,
		UpdatedAt:     f.UpdatedAt,
	}
}

// ------------------------- Waiting list fixtures -------------------------

// WaitingEntryFixture is a deterministic waiting list entry.
type WaitingEntryFixture struct {
	ID          string
	CustomerID  string
	Sites       int
	RequestedOn time.Time
	Stay        interval.Interval
	Priority    bool
	Notes       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// WaitingEntryOption configures the generated entry fixture.
type WaitingEntryOption func(*WaitingEntryFixture)

// NewWaitingEntryFixture returns a one-site entry for 5..7 March 2021.
func NewWaitingEntryFixture(opts ...WaitingEntryOption) WaitingEntryFixture {
	idx := atomic.AddUint64(&waitingCounter, 1)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	fixture := WaitingEntryFixture{
		ID:          fmt.Sprintf("wl-%03d", idx),
		CustomerID:  fmt.Sprintf("wait-cust-%03d", idx),
		Sites:       1,
		RequestedOn: created,
		Stay:        Stay(5, 7),
		CreatedAt:   created,
		UpdatedAt:   created,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithWaitingEntryID overrides the generated ID.
func WithWaitingEntryID(id string) WaitingEntryOption {
	return func(f *WaitingEntryFixture) { f.ID = id }
}

// WithWaitingEntryCustomer overrides the customer.
func WithWaitingEntryCustomer(customerID string) WaitingEntryOption {
	return func(f *WaitingEntryFixture) { f.CustomerID = customerID }
}

// WithWaitingEntrySites sets the number of sites wanted.
func WithWaitingEntrySites(sites int) WaitingEntryOption {
	return func(f *WaitingEntryFixture) { f.Sites = sites }
}

// WithWaitingEntryStay overrides the stay.
func WithWaitingEntryStay(stay interval.Interval) WaitingEntryOption {
	return func(f *WaitingEntryFixture) { f.Stay = stay }
}

// WithWaitingEntryPriority marks the entry as priority.
func WithWaitingEntryPriority(priority bool) WaitingEntryOption {
	return func(f *WaitingEntryFixture) { f.Priority = priority }
}

// WithWaitingEntryRequestedOn overrides the request date.
func WithWaitingEntryRequestedOn(t time.Time) WaitingEntryOption {
	return func(f *WaitingEntryFixture) { f.RequestedOn = t }
}

// Application converts the fixture to the application model.
func (f WaitingEntryFixture) Application() application.WaitingListEntry {
	return application.WaitingListEntry{
		ID:          f.ID,
		CustomerID:  f.CustomerID,
		Nights:      f.Stay.Nights(),
		Sites:       f.Sites,
		RequestedOn: f.RequestedOn,
		Stay:        f.Stay,
		Priority:    f.Priority,
		Notes:       f.Notes,
		CreatedAt:   f.CreatedAt,
		UpdatedAt:   f.UpdatedAt,
	}
}

// Persistence converts the fixture to the persistence record.
func (f WaitingEntryFixture) Persistence() persistence.WaitingListEntry {
	return persistence.WaitingListEntry{
		ID:          f.ID,
		CustomerID:  f.CustomerID,
		Nights:      f.Stay.Nights(),
		Sites:       f.Sites,
		RequestedOn: f.RequestedOn,
		ArrivalAt:   f.Stay.Start,
		DepartureAt: f.Stay.End,
		Priority:    f.Priority,
		Notes:       optional(f.Notes),
		CreatedAt:   f.CreatedAt,
		UpdatedAt:   f.UpdatedAt,
	}
}

// Input converts the fixture to service input.
func (f WaitingEntryFixture) Input() application.WaitingListInput {
	return application.WaitingListInput{
		CustomerID:  f.CustomerID,
		Sites:       f.Sites,
		Stay:        f.Stay,
		RequestedOn: f.RequestedOn,
		Priority:    f.Priority,
		Notes:       f.Notes,
	}
}

// ------------------------------ Rate fixtures ----------------------------

// NewRates returns a complete rate row for year.
func NewRates(year int) fees.Rates {
	return fees.Rates{
		Year:                   year,
		DailyRate:              3500,
		WeeklyRate:             21000,
		MonthlyRate:            70000,
		SeasonalRate:           240000,
		NightlyCancellationFee: 1000,
		WeeklyCancellationFee:  2500,
		MonthlyCancellationFee: 5000,
		EarlyCheckInFeePerHour: 500,
		LateStayFeePerHour:     500,
		NightlyVisitorFee:      800,
		DailyVisitorFee:        300,
		SeasonalVisitorPass:    4000,
		ElectricalRatePerKWh:   15,
		OpeningDate:            time.Date(year, time.April, 15, 0, 0, 0, 0, time.UTC),
		ClosingDate:            time.Date(year, time.October, 15, 0, 0, 0, 0, time.UTC),
	}
}

// PersistenceRates converts a rate row to the persistence record.
func PersistenceRates(r fees.Rates, updated time.Time) persistence.YearlyRates {
	opening, closing := r.OpeningDate, r.ClosingDate
	return persistence.YearlyRates{
		Year:                   r.Year,
		DailyRate:              r.DailyRate,
		WeeklyRate:             r.WeeklyRate,
		MonthlyRate:            r.MonthlyRate,
		SeasonalRate:           r.SeasonalRate,
		NightlyCancellationFee: r.NightlyCancellationFee,
		WeeklyCancellationFee:  r.WeeklyCancellationFee,
		MonthlyCancellationFee: r.MonthlyCancellationFee,
		EarlyCheckInFeePerHour: r.EarlyCheckInFeePerHour,
		LateStayFeePerHour:     r.LateStayFeePerHour,
		NightlyVisitorFee:      r.NightlyVisitorFee,
		DailyVisitorFee:        r.DailyVisitorFee,
		SeasonalVisitorPass:    r.SeasonalVisitorPass,
		ElectricalRatePerKWh:   r.ElectricalRatePerKWh,
		OpeningDate:            &opening,
		ClosingDate:            &closing,
		UpdatedAt:              updated,
	}
}
