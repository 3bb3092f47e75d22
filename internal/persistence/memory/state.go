package memory

import (
	"time"

	"github.com/example/campground/internal/persistence"
)

type state struct {
	campsites    map[string]persistence.Campsite
	assigned     map[string]persistence.AssignedSite
	reservations map[string]persistence.Reservation
	waiting      map[string]persistence.WaitingListEntry
	rates        map[int]persistence.YearlyRates
}

func newState() *state {
	return &state{
		campsites:    make(map[string]persistence.Campsite),
		assigned:     make(map[string]persistence.AssignedSite),
		reservations: make(map[string]persistence.Reservation),
		waiting:      make(map[string]persistence.WaitingListEntry),
		rates:        make(map[int]persistence.YearlyRates),
	}
}

func (st *state) clone() *state {
	out := newState()
	for id, c := range st.campsites {
		out.campsites[id] = cloneCampsite(c)
	}
	for id, a := range st.assigned {
		out.assigned[id] = a
	}
	for id, r := range st.reservations {
		out.reservations[id] = cloneReservation(r)
	}
	for id, w := range st.waiting {
		out.waiting[id] = cloneEntry(w)
	}
	for year, r := range st.rates {
		out.rates[year] = cloneRates(r)
	}
	return out
}

func cloneString(value *string) *string {
	if value == nil {
		return nil
	}
	copied := *value
	return &copied
}

func cloneTime(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	copied := *value
	return &copied
}

func cloneCampsite(c persistence.Campsite) persistence.Campsite {
	c.Notes = cloneString(c.Notes)
	return c
}

func cloneReservation(r persistence.Reservation) persistence.Reservation {
	r.Notes = cloneString(r.Notes)
	return r
}

func cloneEntry(w persistence.WaitingListEntry) persistence.WaitingListEntry {
	w.Notes = cloneString(w.Notes)
	return w
}

func cloneRates(r persistence.YearlyRates) persistence.YearlyRates {
	r.OpeningDate = cloneTime(r.OpeningDate)
	r.ClosingDate = cloneTime(r.ClosingDate)
	return r
}
