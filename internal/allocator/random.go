package allocator

import (
	"math/rand/v2"

	"github.com/retreathq/roomalloc/internal/model"
)

// ReasonNoAvailableBeds is the failure reason when a gender has candidates
// but no open beds at all.
const ReasonNoAvailableBeds = "no available beds"

// PlanRandom runs the randomized strategy for a single gender. Each unit of
// available capacity becomes one slot; both the candidate list and the slot
// list are shuffled uniformly, then candidate i takes slot i mod n, scanning
// forward to the next open slot when that one is already taken.
//
// This strategy checks capacity and gender only; it deliberately does not
// evaluate age compatibility.
func PlanRandom(gender model.Gender, candidates []Candidate, rooms []*Room, rng *rand.Rand) *Plan {
	var pool []Candidate
	for _, c := range candidates {
		if c.Gender == gender {
			pool = append(pool, c)
		}
	}

	plan := &Plan{}
	if len(pool) == 0 {
		return plan
	}

	var slots []*Room
	for _, r := range rooms {
		if r.Gender != gender {
			continue
		}
		for i := r.Available(); i > 0; i-- {
			slots = append(slots, r)
		}
	}

	group := Group{Result: model.GroupResult{
		Gender:     gender,
		Candidates: len(pool),
	}}

	if len(slots) == 0 {
		group.Result.Remaining = len(pool)
		group.Result.Status = model.StatusFailed
		group.Result.Reason = ReasonNoAvailableBeds
		plan.Groups = append(plan.Groups, group)
		return plan
	}

	rng.Shuffle(len(pool), func(i, j int) {
		pool[i], pool[j] = pool[j], pool[i]
	})
	rng.Shuffle(len(slots), func(i, j int) {
		slots[i], slots[j] = slots[j], slots[i]
	})

	taken := make([]bool, len(slots))
	placed := 0
	for i, c := range pool {
		if placed == len(slots) {
			break
		}
		idx := i % len(slots)
		for taken[idx] {
			idx = (idx + 1) % len(slots)
		}
		room := slots[idx]
		group.Assignments = append(group.Assignments, Assignment{
			RegistrantID: c.RegistrantID,
			RoomID:       room.ID,
		})
		room.OccupantAges = append(room.OccupantAges, c.Age)
		taken[idx] = true
		placed++
	}

	group.Result.Allocated = placed
	group.Result.Remaining = len(pool) - placed
	if group.Result.Remaining == 0 {
		group.Result.Status = model.StatusSuccess
	} else {
		group.Result.Status = model.StatusPartial
		group.Result.Reason = ReasonNoAvailableBeds
	}
	plan.Groups = append(plan.Groups, group)
	return plan
}
