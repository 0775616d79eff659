// Package allocator implements the two batch planning strategies. Both are
// pure computations over in-memory snapshots: they read a candidate pool and
// a room state view, and produce proposed (registrant, room) pairs plus a
// per-group report. Persistence and write-time re-validation belong to the
// allocation store.
package allocator

import "github.com/retreathq/roomalloc/internal/model"

// Candidate is an eligible registrant with the age computed at snapshot time.
type Candidate struct {
	RegistrantID string
	Gender       model.Gender
	Age          int
}

// Room is a mutable planning snapshot of one room. OccupantAges grows as the
// planner places candidates, so placements made for one group are visible to
// every later group in the same run.
type Room struct {
	ID           string
	Gender       model.Gender
	Capacity     int
	OccupantAges []int
}

// Available returns the number of unused beds in the snapshot.
func (r *Room) Available() int {
	return r.Capacity - len(r.OccupantAges)
}

// Assignment is one proposed registrant → room pair.
type Assignment struct {
	RegistrantID string
	RoomID       string
}

// Group is a planned allocation group: its report entry plus the assignments
// that produced it, so commit failures can be attributed back to the group.
type Group struct {
	Result      model.GroupResult
	Assignments []Assignment
}

// Plan is the outcome of one strategy run for one gender partition.
type Plan struct {
	Groups []Group
}

// Assignments returns every proposed pair across all groups, in group order.
func (p *Plan) Assignments() []Assignment {
	var all []Assignment
	for _, g := range p.Groups {
		all = append(all, g.Assignments...)
	}
	return all
}

// RoomsFromStates converts store snapshots into planning rooms, skipping
// full rooms since they can accept nobody.
func RoomsFromStates(states []model.RoomState) []*Room {
	rooms := make([]*Room, 0, len(states))
	for i := range states {
		s := &states[i]
		if s.Available() <= 0 {
			continue
		}
		rooms = append(rooms, &Room{
			ID:           s.ID,
			Gender:       s.Gender,
			Capacity:     s.Capacity,
			OccupantAges: s.OccupantAges(),
		})
	}
	return rooms
}
