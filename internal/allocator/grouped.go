package allocator

import (
	"fmt"
	"sort"

	"github.com/retreathq/roomalloc/internal/agecalc"
	"github.com/retreathq/roomalloc/internal/model"
)

// ReasonNoCompatibleRoom is the failure reason for an age band that found no
// room able to take any of its members.
const ReasonNoCompatibleRoom = "no age-compatible room available"

// PlanGrouped runs the deterministic age-grouped strategy for a single
// gender. Candidates are bucketed into fixed-width age bands; bands are
// processed youngest-first so younger participants get first pick of rooms.
// Within a band, suitable rooms are ranked empty-first, then by descending
// available capacity, and filled with band members youngest-first.
//
// The room snapshots are mutated as members are placed, so bands processed
// later see the occupancy produced by earlier bands.
func PlanGrouped(gender model.Gender, candidates []Candidate, rooms []*Room, ageRangeYears, maxAgeGap int) *Plan {
	type bucket struct {
		lo, hi  int
		members []Candidate
	}

	byLo := make(map[int]*bucket)
	var lows []int
	for _, c := range candidates {
		if c.Gender != gender {
			continue
		}
		lo := (c.Age / ageRangeYears) * ageRangeYears
		b, ok := byLo[lo]
		if !ok {
			b = &bucket{lo: lo, hi: lo + ageRangeYears - 1}
			byLo[lo] = b
			lows = append(lows, lo)
		}
		b.members = append(b.members, c)
	}
	sort.Ints(lows)

	plan := &Plan{}
	for _, lo := range lows {
		b := byLo[lo]

		// Youngest first; stable so equal ages keep input order.
		sort.SliceStable(b.members, func(i, j int) bool {
			return b.members[i].Age < b.members[j].Age
		})

		suitable := suitableRooms(rooms, gender, b.lo, b.hi, maxAgeGap)

		group := Group{Result: model.GroupResult{
			Gender:     gender,
			AgeMin:     b.lo,
			AgeMax:     b.hi,
			Candidates: len(b.members),
		}}

		placed := 0
		for _, r := range suitable {
			for r.Available() > 0 && placed < len(b.members) {
				m := b.members[placed]
				group.Assignments = append(group.Assignments, Assignment{
					RegistrantID: m.RegistrantID,
					RoomID:       r.ID,
				})
				r.OccupantAges = append(r.OccupantAges, m.Age)
				placed++
			}
			if placed == len(b.members) {
				break
			}
		}

		group.Result.Allocated = placed
		group.Result.Remaining = len(b.members) - placed
		switch {
		case group.Result.Remaining == 0:
			group.Result.Status = model.StatusSuccess
		case placed > 0:
			group.Result.Status = model.StatusPartial
			group.Result.Reason = ReasonNoCompatibleRoom
		default:
			group.Result.Status = model.StatusFailed
			group.Result.Reason = ReasonNoCompatibleRoom
		}
		plan.Groups = append(plan.Groups, group)
	}
	return plan
}

// suitableRooms selects and ranks the rooms a band [lo, hi] may be placed
// into. Empty rooms are always suitable; occupied rooms only when their age
// span combined with the band's span stays within maxAgeGap. Ranking puts
// empty rooms first, then larger remaining capacity; ties keep the store's
// iteration order.
func suitableRooms(rooms []*Room, gender model.Gender, lo, hi, maxAgeGap int) []*Room {
	var suitable []*Room
	for _, r := range rooms {
		if r.Gender != gender || r.Available() <= 0 {
			continue
		}
		if len(r.OccupantAges) == 0 {
			suitable = append(suitable, r)
			continue
		}
		omin, omax := agecalc.Span(r.OccupantAges)
		if omin > lo {
			omin = lo
		}
		if omax < hi {
			omax = hi
		}
		if omax-omin <= maxAgeGap {
			suitable = append(suitable, r)
		}
	}
	sort.SliceStable(suitable, func(i, j int) bool {
		ei, ej := len(suitable[i].OccupantAges) == 0, len(suitable[j].OccupantAges) == 0
		if ei != ej {
			return ei
		}
		return suitable[i].Available() > suitable[j].Available()
	})
	return suitable
}

// BandLabel formats an age band for report reasons and logs.
func BandLabel(lo, hi int) string {
	return fmt.Sprintf("%d-%d", lo, hi)
}
