package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/example/campground/internal/interval"
	"github.com/example/campground/internal/persistence"
)

// view implements every repository against a state reached through read and
// write, which decide the locking discipline.
type view struct {
	read  func(fn func(st *state) error) error
	write func(fn func(st *state) error) error
}

// --- CampsiteRepository implementation ---

// CreateCampsite stores a new campsite. Names are unique, case-insensitively.
func (v view) CreateCampsite(ctx context.Context, campsite persistence.Campsite) error {
	return v.write(func(st *state) error {
		if campsite.ID == "" || strings.TrimSpace(campsite.Name) == "" {
			return persistence.ErrConstraintViolation
		}
		if _, ok := st.campsites[campsite.ID]; ok {
			return persistence.ErrDuplicate
		}
		if nameTaken(st, campsite.ID, campsite.Name) {
			return persistence.ErrDuplicate
		}
		st.campsites[campsite.ID] = cloneCampsite(campsite)
		return nil
	})
}

// UpdateCampsite replaces an existing campsite, preserving CreatedAt.
func (v view) UpdateCampsite(ctx context.Context, campsite persistence.Campsite) error {
	return v.write(func(st *state) error {
		existing, ok := st.campsites[campsite.ID]
		if !ok {
			return persistence.ErrNotFound
		}
		if strings.TrimSpace(campsite.Name) == "" {
			return persistence.ErrConstraintViolation
		}
		if nameTaken(st, campsite.ID, campsite.Name) {
			return persistence.ErrDuplicate
		}
		campsite.CreatedAt = existing.CreatedAt
		st.campsites[campsite.ID] = cloneCampsite(campsite)
		return nil
	})
}

// GetCampsite retrieves a campsite by ID.
func (v view) GetCampsite(ctx context.Context, id string) (campsite persistence.Campsite, err error) {
	err = v.read(func(st *state) error {
		found, ok := st.campsites[id]
		if !ok {
			return persistence.ErrNotFound
		}
		campsite = cloneCampsite(found)
		return nil
	})
	return
}

// GetCampsiteByName retrieves a campsite by its unique name.
func (v view) GetCampsiteByName(ctx context.Context, name string) (campsite persistence.Campsite, err error) {
	err = v.read(func(st *state) error {
		for _, c := range st.campsites {
			if strings.EqualFold(c.Name, name) {
				campsite = cloneCampsite(c)
				return nil
			}
		}
		return persistence.ErrNotFound
	})
	return
}

// ListCampsites returns all campsites ordered by name then ID.
func (v view) ListCampsites(ctx context.Context) (campsites []persistence.Campsite, err error) {
	err = v.read(func(st *state) error {
		campsites = collectCampsites(st, func(persistence.Campsite) bool { return true })
		return nil
	})
	return
}

// ListCampsitesByType returns the campsites of one site type.
func (v view) ListCampsitesByType(ctx context.Context, siteType string) (campsites []persistence.Campsite, err error) {
	err = v.read(func(st *state) error {
		campsites = collectCampsites(st, func(c persistence.Campsite) bool { return strings.EqualFold(c.SiteType, siteType) })
		return nil
	})
	return
}

// DeleteCampsite removes a campsite that no assignment references.
func (v view) DeleteCampsite(ctx context.Context, id string) error {
	return v.write(func(st *state) error {
		if _, ok := st.campsites[id]; !ok {
			return persistence.ErrNotFound
		}
		for _, a := range st.assigned {
			if a.CampsiteID == id {
				return persistence.ErrForeignKeyViolation
			}
		}
		delete(st.campsites, id)
		return nil
	})
}

func nameTaken(st *state, id, name string) bool {
	for _, c := range st.campsites {
		if c.ID != id && strings.EqualFold(c.Name, name) {
			return true
		}
	}
	return false
}

func collectCampsites(st *state, keep func(persistence.Campsite) bool) []persistence.Campsite {
	campsites := make([]persistence.Campsite, 0, len(st.campsites))
	for _, c := range st.campsites {
		if keep(c) {
			campsites = append(campsites, cloneCampsite(c))
		}
	}
	sort.Slice(campsites, func(i, j int) bool {
		if campsites[i].Name == campsites[j].Name {
			return campsites[i].ID < campsites[j].ID
		}
		return campsites[i].Name < campsites[j].Name
	})
	return campsites
}

// --- AssignedSiteRepository implementation ---

// CreateAssignedSite stores a new binding. The campsite and reservation must exist.
func (v view) CreateAssignedSite(ctx context.Context, site persistence.AssignedSite) error {
	return v.write(func(st *state) error {
		if err := checkAssigned(st, site); err != nil {
			return err
		}
		if _, ok := st.assigned[site.ID]; ok {
			return persistence.ErrDuplicate
		}
		st.assigned[site.ID] = site
		return nil
	})
}

// UpdateAssignedSite replaces an existing binding, preserving CreatedAt.
func (v view) UpdateAssignedSite(ctx context.Context, site persistence.AssignedSite) error {
	return v.write(func(st *state) error {
		existing, ok := st.assigned[site.ID]
		if !ok {
			return persistence.ErrNotFound
		}
		if err := checkAssigned(st, site); err != nil {
			return err
		}
		site.CreatedAt = existing.CreatedAt
		st.assigned[site.ID] = site
		return nil
	})
}

// GetAssignedSite retrieves a binding by ID.
func (v view) GetAssignedSite(ctx context.Context, id string) (site persistence.AssignedSite, err error) {
	err = v.read(func(st *state) error {
		found, ok := st.assigned[id]
		if !ok {
			return persistence.ErrNotFound
		}
		site = found
		return nil
	})
	return
}

// ListAssignedSites returns every binding ordered by arrival then ID.
func (v view) ListAssignedSites(ctx context.Context) (sites []persistence.AssignedSite, err error) {
	err = v.read(func(st *state) error {
		sites = collectAssigned(st, func(persistence.AssignedSite) bool { return true })
		return nil
	})
	return
}

// ListAssignedSitesByReservation returns the bindings of one reservation.
func (v view) ListAssignedSitesByReservation(ctx context.Context, reservationID string) (sites []persistence.AssignedSite, err error) {
	err = v.read(func(st *state) error {
		sites = collectAssigned(st, func(a persistence.AssignedSite) bool { return a.ReservationID == reservationID })
		return nil
	})
	return
}

// ListAssignedSitesByCampsite returns the bindings of one campsite.
func (v view) ListAssignedSitesByCampsite(ctx context.Context, campsiteID string) (sites []persistence.AssignedSite, err error) {
	err = v.read(func(st *state) error {
		sites = collectAssigned(st, func(a persistence.AssignedSite) bool { return a.CampsiteID == campsiteID })
		return nil
	})
	return
}

// DeleteAssignedSite removes a binding by ID.
func (v view) DeleteAssignedSite(ctx context.Context, id string) error {
	return v.write(func(st *state) error {
		if _, ok := st.assigned[id]; !ok {
			return persistence.ErrNotFound
		}
		delete(st.assigned, id)
		return nil
	})
}

func checkAssigned(st *state, site persistence.AssignedSite) error {
	if site.ID == "" || !site.ArrivalAt.Before(site.DepartureAt) || site.DepositCents < 0 {
		return persistence.ErrConstraintViolation
	}
	if _, ok := st.campsites[site.CampsiteID]; !ok {
		return persistence.ErrForeignKeyViolation
	}
	if _, ok := st.reservations[site.ReservationID]; !ok {
		return persistence.ErrForeignKeyViolation
	}
	return nil
}

func collectAssigned(st *state, keep func(persistence.AssignedSite) bool) []persistence.AssignedSite {
	sites := make([]persistence.AssignedSite, 0)
	for _, a := range st.assigned {
		if keep(a) {
			sites = append(sites, a)
		}
	}
	sort.Slice(sites, func(i, j int) bool {
		if sites[i].ArrivalAt.Equal(sites[j].ArrivalAt) {
			return sites[i].ID < sites[j].ID
		}
		return sites[i].ArrivalAt.Before(sites[j].ArrivalAt)
	})
	return sites
}

// --- ReservationRepository implementation ---

// CreateReservation stores a new reservation.
func (v view) CreateReservation(ctx context.Context, reservation persistence.Reservation) error {
	return v.write(func(st *state) error {
		if err := checkReservation(reservation); err != nil {
			return err
		}
		if _, ok := st.reservations[reservation.ID]; ok {
			return persistence.ErrDuplicate
		}
		st.reservations[reservation.ID] = cloneReservation(reservation)
		return nil
	})
}

// UpdateReservation replaces an existing reservation, preserving CreatedAt.
func (v view) UpdateReservation(ctx context.Context, reservation persistence.Reservation) error {
	return v.write(func(st *state) error {
		existing, ok := st.reservations[reservation.ID]
		if !ok {
			return persistence.ErrNotFound
		}
		if err := checkReservation(reservation); err != nil {
			return err
		}
		reservation.CreatedAt = existing.CreatedAt
		st.reservations[reservation.ID] = cloneReservation(reservation)
		return nil
	})
}

// GetReservation retrieves a reservation by ID.
func (v view) GetReservation(ctx context.Context, id string) (reservation persistence.Reservation, err error) {
	err = v.read(func(st *state) error {
		found, ok := st.reservations[id]
		if !ok {
			return persistence.ErrNotFound
		}
		reservation = cloneReservation(found)
		return nil
	})
	return
}

// ListReservationsByCustomer returns a customer's reservations ordered by arrival.
func (v view) ListReservationsByCustomer(ctx context.Context, customerID string) (reservations []persistence.Reservation, err error) {
	err = v.read(func(st *state) error {
		reservations = collectReservations(st, func(r persistence.Reservation) bool { return r.CustomerID == customerID })
		return nil
	})
	return
}

// ListReservationsInRange returns reservations whose stay overlaps [start, end).
func (v view) ListReservationsInRange(ctx context.Context, start, end time.Time) (reservations []persistence.Reservation, err error) {
	window := interval.Interval{Start: start, End: end}
	err = v.read(func(st *state) error {
		reservations = collectReservations(st, func(r persistence.Reservation) bool {
			return interval.Overlaps(interval.Interval{Start: r.ArrivalAt, End: r.DepartureAt}, window)
		})
		return nil
	})
	return
}

// DeleteReservation removes a reservation that has no bindings left.
func (v view) DeleteReservation(ctx context.Context, id string) error {
	return v.write(func(st *state) error {
		if _, ok := st.reservations[id]; !ok {
			return persistence.ErrNotFound
		}
		for _, a := range st.assigned {
			if a.ReservationID == id {
				return persistence.ErrForeignKeyViolation
			}
		}
		delete(st.reservations, id)
		return nil
	})
}

func checkReservation(r persistence.Reservation) error {
	switch {
	case r.ID == "", r.CustomerID == "":
		return persistence.ErrConstraintViolation
	case !r.ArrivalAt.Before(r.DepartureAt):
		return persistence.ErrConstraintViolation
	case r.SitesRequested < 1, r.SitesAssigned < 0, r.SitesAssigned > r.SitesRequested:
		return persistence.ErrConstraintViolation
	case r.DepositCents < 0:
		return persistence.ErrConstraintViolation
	}
	return nil
}

func collectReservations(st *state, keep func(persistence.Reservation) bool) []persistence.Reservation {
	reservations := make([]persistence.Reservation, 0)
	for _, r := range st.reservations {
		if keep(r) {
			reservations = append(reservations, cloneReservation(r))
		}
	}
	sort.Slice(reservations, func(i, j int) bool {
		if reservations[i].ArrivalAt.Equal(reservations[j].ArrivalAt) {
			return reservations[i].ID < reservations[j].ID
		}
		return reservations[i].ArrivalAt.Before(reservations[j].ArrivalAt)
	})
	return reservations
}

// --- WaitingListRepository implementation ---

// CreateWaitingListEntry stores a new entry.
func (v view) CreateWaitingListEntry(ctx context.Context, entry persistence.WaitingListEntry) error {
	return v.write(func(st *state) error {
		if err := checkEntry(entry); err != nil {
			return err
		}
		if _, ok := st.waiting[entry.ID]; ok {
			return persistence.ErrDuplicate
		}
		st.waiting[entry.ID] = cloneEntry(entry)
		return nil
	})
}

// UpdateWaitingListEntry replaces an existing entry, preserving CreatedAt.
func (v view) UpdateWaitingListEntry(ctx context.Context, entry persistence.WaitingListEntry) error {
	return v.write(func(st *state) error {
		existing, ok := st.waiting[entry.ID]
		if !ok {
			return persistence.ErrNotFound
		}
		if err := checkEntry(entry); err != nil {
			return err
		}
		entry.CreatedAt = existing.CreatedAt
		st.waiting[entry.ID] = cloneEntry(entry)
		return nil
	})
}

// GetWaitingListEntry retrieves an entry by ID.
func (v view) GetWaitingListEntry(ctx context.Context, id string) (entry persistence.WaitingListEntry, err error) {
	err = v.read(func(st *state) error {
		found, ok := st.waiting[id]
		if !ok {
			return persistence.ErrNotFound
		}
		entry = cloneEntry(found)
		return nil
	})
	return
}

// ListWaitingListEntries returns every entry ordered by CreatedAt then ID.
func (v view) ListWaitingListEntries(ctx context.Context) (entries []persistence.WaitingListEntry, err error) {
	err = v.read(func(st *state) error {
		entries = collectEntries(st, func(persistence.WaitingListEntry) bool { return true })
		return nil
	})
	return
}

// ListWaitingListEntriesByCustomer returns one customer's entries in the
// same order as ListWaitingListEntries.
func (v view) ListWaitingListEntriesByCustomer(ctx context.Context, customerID string) (entries []persistence.WaitingListEntry, err error) {
	err = v.read(func(st *state) error {
		entries = collectEntries(st, func(w persistence.WaitingListEntry) bool { return w.CustomerID == customerID })
		return nil
	})
	return
}

// DeleteWaitingListEntry removes an entry by ID.
func (v view) DeleteWaitingListEntry(ctx context.Context, id string) error {
	return v.write(func(st *state) error {
		if _, ok := st.waiting[id]; !ok {
			return persistence.ErrNotFound
		}
		delete(st.waiting, id)
		return nil
	})
}

func collectEntries(st *state, keep func(persistence.WaitingListEntry) bool) []persistence.WaitingListEntry {
	entries := make([]persistence.WaitingListEntry, 0)
	for _, w := range st.waiting {
		if keep(w) {
			entries = append(entries, cloneEntry(w))
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].CreatedAt.Equal(entries[j].CreatedAt) {
			return entries[i].ID < entries[j].ID
		}
		return entries[i].CreatedAt.Before(entries[j].CreatedAt)
	})
	return entries
}

func checkEntry(w persistence.WaitingListEntry) error {
	if w.ID == "" || w.CustomerID == "" || w.Sites < 1 || w.Nights < 1 || !w.ArrivalAt.Before(w.DepartureAt) {
		return persistence.ErrConstraintViolation
	}
	return nil
}

// --- YearlyRatesRepository implementation ---

// UpsertYearlyRates inserts or replaces the row for rates.Year.
func (v view) UpsertYearlyRates(ctx context.Context, rates persistence.YearlyRates) error {
	return v.write(func(st *state) error {
		if rates.Year <= 0 {
			return persistence.ErrConstraintViolation
		}
		st.rates[rates.Year] = cloneRates(rates)
		return nil
	})
}

// GetYearlyRates retrieves the row for year.
func (v view) GetYearlyRates(ctx context.Context, year int) (rates persistence.YearlyRates, err error) {
	err = v.read(func(st *state) error {
		found, ok := st.rates[year]
		if !ok {
			return persistence.ErrNotFound
		}
		rates = cloneRates(found)
		return nil
	})
	return
}

// ListYearlyRates returns every row ordered by year.
func (v view) ListYearlyRates(ctx context.Context) (rows []persistence.YearlyRates, err error) {
	err = v.read(func(st *state) error {
		rows = make([]persistence.YearlyRates, 0, len(st.rates))
		for _, r := range st.rates {
			rows = append(rows, cloneRates(r))
		}
		sort.Slice(rows, func(i, j int) bool { return rows[i].Year < rows[j].Year })
		return nil
	})
	return
}

// DeleteYearlyRates removes the row for year.
func (v view) DeleteYearlyRates(ctx context.Context, year int) error {
	return v.write(func(st *state) error {
		if _, ok := st.rates[year]; !ok {
			return persistence.ErrNotFound
		}
		delete(st.rates, year)
		return nil
	})
}
