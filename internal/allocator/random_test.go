package allocator

import (
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retreathq/roomalloc/internal/model"
)

func seeded(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed))
}

func TestRandomMoreCandidatesThanSlots(t *testing.T) {
	// 3 candidates, 2 open beds: exactly 2 placed, 1 remaining, partial.
	rooms := []*Room{room("r1", model.GenderMale, 2)}
	candidates := []Candidate{
		cand("a", model.GenderMale, 20),
		cand("b", model.GenderMale, 30),
		cand("c", model.GenderMale, 40),
	}

	plan := PlanRandom(model.GenderMale, candidates, rooms, seeded(1))

	require.Len(t, plan.Groups, 1)
	result := plan.Groups[0].Result
	assert.Equal(t, 3, result.Candidates)
	assert.Equal(t, 2, result.Allocated)
	assert.Equal(t, 1, result.Remaining)
	assert.Equal(t, model.StatusPartial, result.Status)
}

func TestRandomAllPlacedWhenSlotsSuffice(t *testing.T) {
	rooms := []*Room{
		room("r1", model.GenderFemale, 2),
		room("r2", model.GenderFemale, 3, 25),
	}
	candidates := []Candidate{
		cand("a", model.GenderFemale, 20),
		cand("b", model.GenderFemale, 50),
		cand("c", model.GenderFemale, 80),
	}

	plan := PlanRandom(model.GenderFemale, candidates, rooms, seeded(7))

	require.Len(t, plan.Groups, 1)
	result := plan.Groups[0].Result
	assert.Equal(t, model.StatusSuccess, result.Status)
	assert.Equal(t, 3, result.Allocated)
	assert.Equal(t, 0, result.Remaining)
}

func TestRandomNoSlotsFails(t *testing.T) {
	rooms := []*Room{room("full", model.GenderMale, 1, 20)}
	candidates := []Candidate{cand("a", model.GenderMale, 20)}

	plan := PlanRandom(model.GenderMale, candidates, RoomsFromStates(nil), seeded(3))
	require.Len(t, plan.Groups, 1)
	assert.Equal(t, model.StatusFailed, plan.Groups[0].Result.Status)
	assert.Equal(t, ReasonNoAvailableBeds, plan.Groups[0].Result.Reason)

	// A single full room is equivalent to no rooms.
	plan = PlanRandom(model.GenderMale, candidates, rooms, seeded(3))
	require.Len(t, plan.Groups, 1)
	assert.Equal(t, model.StatusFailed, plan.Groups[0].Result.Status)
}

func TestRandomNoCandidatesNoGroups(t *testing.T) {
	plan := PlanRandom(model.GenderMale, nil, []*Room{room("r1", model.GenderMale, 2)}, seeded(3))
	assert.Empty(t, plan.Groups)
}

func TestRandomIgnoresOtherGender(t *testing.T) {
	rooms := []*Room{
		room("m", model.GenderMale, 2),
		room("f", model.GenderFemale, 2),
	}
	candidates := []Candidate{
		cand("boy", model.GenderMale, 20),
		cand("girl", model.GenderFemale, 20),
	}

	plan := PlanRandom(model.GenderMale, candidates, rooms, seeded(9))

	require.Len(t, plan.Assignments(), 1)
	assert.Equal(t, "boy", plan.Assignments()[0].RegistrantID)
	assert.Equal(t, "m", plan.Assignments()[0].RoomID)
}

func TestRandomSameSeedSamePlan(t *testing.T) {
	build := func() ([]Candidate, []*Room) {
		var candidates []Candidate
		for i := 0; i < 15; i++ {
			candidates = append(candidates, cand(fmt.Sprintf("c%d", i), model.GenderMale, 18+i))
		}
		return candidates, []*Room{
			room("r1", model.GenderMale, 4),
			room("r2", model.GenderMale, 5),
			room("r3", model.GenderMale, 3, 30),
		}
	}

	c1, r1 := build()
	c2, r2 := build()
	plan1 := PlanRandom(model.GenderMale, c1, r1, seeded(42))
	plan2 := PlanRandom(model.GenderMale, c2, r2, seeded(42))

	assert.Equal(t, plan1.Assignments(), plan2.Assignments())
}

func TestRandomNeverExceedsCapacityForAnySeed(t *testing.T) {
	for seed := uint64(0); seed < 50; seed++ {
		rooms := []*Room{
			room("r1", model.GenderMale, 2),
			room("r2", model.GenderMale, 3, 40),
			room("r3", model.GenderMale, 1),
		}
		capacities := map[string]int{"r1": 2, "r2": 3, "r3": 1}
		occupied := map[string]int{"r2": 1}

		var candidates []Candidate
		for i := 0; i < 12; i++ {
			candidates = append(candidates, cand(fmt.Sprintf("c%d", i), model.GenderMale, 15+i*3))
		}

		plan := PlanRandom(model.GenderMale, candidates, rooms, seeded(seed))

		seen := make(map[string]bool)
		perRoom := map[string]int{}
		for k, v := range occupied {
			perRoom[k] = v
		}
		for _, a := range plan.Assignments() {
			assert.False(t, seen[a.RegistrantID], "registrant %s assigned twice (seed %d)", a.RegistrantID, seed)
			seen[a.RegistrantID] = true
			perRoom[a.RoomID]++
		}
		for id, count := range perRoom {
			assert.LessOrEqual(t, count, capacities[id], "room %s overfilled (seed %d)", id, seed)
		}
		// 5 open beds for 12 candidates: every bed gets used.
		require.Len(t, plan.Groups, 1)
		assert.Equal(t, 5, plan.Groups[0].Result.Allocated, "seed %d", seed)
	}
}
