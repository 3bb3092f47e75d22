package scheduler

import (
	"sort"

	"github.com/example/campground/internal/interval"
)

// Occupancy is one campsite binding considered during conflict detection.
type Occupancy struct {
	ID         string
	CampsiteID string
	Stay       interval.Interval
}

// Conflict details an existing occupancy that overlaps a candidate on the same campsite.
type Conflict struct {
	WithID     string
	CampsiteID string
	Stay       interval.Interval
}

// DetectConflicts returns every existing occupancy on the candidate's campsite
// whose stay overlaps the candidate. An occupancy never conflicts with itself,
// so callers may pass the record being edited in existing.
func DetectConflicts(existing []Occupancy, candidate Occupancy) []Conflict {
	var conflicts []Conflict
	for _, occ := range existing {
		if occ.CampsiteID != candidate.CampsiteID {
			continue
		}
		if candidate.ID != "" && occ.ID == candidate.ID {
			continue
		}
		if !interval.Overlaps(occ.Stay, candidate.Stay) {
			continue
		}
		conflicts = append(conflicts, Conflict{WithID: occ.ID, CampsiteID: occ.CampsiteID, Stay: occ.Stay})
	}
	sort.Slice(conflicts, func(i, j int) bool {
		if conflicts[i].Stay.Start.Equal(conflicts[j].Stay.Start) {
			return conflicts[i].WithID < conflicts[j].WithID
		}
		return conflicts[i].Stay.Start.Before(conflicts[j].Stay.Start)
	})
	return conflicts
}

// FreeCampsites returns the ids from campsiteIDs with no occupancy overlapping
// window, sorted ascending.
func FreeCampsites(campsiteIDs []string, occupied []Occupancy, window interval.Interval) []string {
	busy := make(map[string]struct{})
	for _, occ := range occupied {
		if interval.Overlaps(occ.Stay, window) {
			busy[occ.CampsiteID] = struct{}{}
		}
	}

	free := make([]string, 0, len(campsiteIDs))
	seen := make(map[string]struct{}, len(campsiteIDs))
	for _, id := range campsiteIDs {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if _, taken := busy[id]; taken {
			continue
		}
		free = append(free, id)
	}
	sort.Strings(free)
	return free
}

// HasOverlaps reports whether any two occupancies on the same campsite overlap.
func HasOverlaps(occupied []Occupancy) bool {
	byCampsite := make(map[string][]Occupancy)
	for _, occ := range occupied {
		byCampsite[occ.CampsiteID] = append(byCampsite[occ.CampsiteID], occ)
	}
	for _, group := range byCampsite {
		sort.Slice(group, func(i, j int) bool { return group[i].Stay.Start.Before(group[j].Stay.Start) })
		for i := 1; i < len(group); i++ {
			if interval.Overlaps(group[i-1].Stay, group[i].Stay) {
				return true
			}
		}
	}
	return false
}
