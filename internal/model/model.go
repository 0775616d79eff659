// Package model defines the core domain types for the accommodation
// allocation service.
package model

import "time"

// Gender is one of the two supported accommodation categories. Rooms are
// single-gender and registrants are only ever assigned to a matching room.
type Gender string

const (
	GenderFemale Gender = "female"
	GenderMale   Gender = "male"
)

// Genders lists the supported categories in canonical (ascending) order.
// The grouped allocator processes genders in this order.
var Genders = []Gender{GenderFemale, GenderMale}

// Valid reports whether g is a supported category.
func (g Gender) Valid() bool {
	return g == GenderFemale || g == GenderMale
}

// DefaultMaxAgeGap applies when no max_age_gap setting has been stored.
const DefaultMaxAgeGap = 5

// Registrant represents a person registered for the event. Only verified
// registrants are eligible for room allocation. Age is always derived from
// BirthDate, never stored.
type Registrant struct {
	ID        string    `json:"id"`
	FullName  string    `json:"full_name"`
	Gender    Gender    `json:"gender"`
	BirthDate time.Time `json:"birth_date"`
	Verified  bool      `json:"verified"`
	CreatedAt time.Time `json:"created_at"`
}

// Room is a named accommodation unit. Only active rooms of the matching
// gender are eligible allocation targets. Capacity is always >= 1.
type Room struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Gender    Gender    `json:"gender"`
	Capacity  int       `json:"capacity"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// Occupant is a registrant currently allocated to a room, with the age
// computed at snapshot time.
type Occupant struct {
	RegistrantID string `json:"registrant_id"`
	Age          int    `json:"age"`
}

// RoomState is a read-model snapshot of a room with its current occupants.
type RoomState struct {
	Room
	Occupants []Occupant `json:"occupants"`
}

// Available returns the number of unused beds.
func (s *RoomState) Available() int {
	return s.Capacity - len(s.Occupants)
}

// IsFull returns true when no beds remain.
func (s *RoomState) IsFull() bool {
	return len(s.Occupants) >= s.Capacity
}

// OccupantAges returns the ages of the current occupants.
func (s *RoomState) OccupantAges() []int {
	ages := make([]int, len(s.Occupants))
	for i, o := range s.Occupants {
		ages[i] = o.Age
	}
	return ages
}

// Allocation binds exactly one registrant to exactly one room. Allocations
// are never mutated; reassignment is delete + create.
type Allocation struct {
	ID           string    `json:"id"`
	RegistrantID string    `json:"registrant_id"`
	RoomID       string    `json:"room_id"`
	CreatedBy    string    `json:"created_by"`
	CreatedAt    time.Time `json:"created_at"`
}

// GroupStatus summarises how much of an allocation group was placed.
type GroupStatus string

const (
	StatusSuccess GroupStatus = "success"
	StatusPartial GroupStatus = "partial"
	StatusFailed  GroupStatus = "failed"
)

// GroupResult reports the outcome for one gender/age-band group of the
// grouped strategy, or one gender group of the random strategy (AgeMin and
// AgeMax are zero there).
type GroupResult struct {
	Gender     Gender      `json:"gender"`
	AgeMin     int         `json:"age_min,omitempty"`
	AgeMax     int         `json:"age_max,omitempty"`
	Candidates int         `json:"candidates"`
	Allocated  int         `json:"allocated"`
	Remaining  int         `json:"remaining"`
	Status     GroupStatus `json:"status"`
	Reason     string      `json:"reason,omitempty"`
}

// BatchReport is the structured result of a batch allocation run. Partial
// and failed groups are reported here, never as errors.
type BatchReport struct {
	Strategy        string        `json:"strategy"`
	Groups          []GroupResult `json:"groups"`
	TotalCandidates int           `json:"total_candidates"`
	TotalAllocated  int           `json:"total_allocated"`
	TotalRemaining  int           `json:"total_remaining"`
}

// Totals recomputes the overall counters from the per-group results.
func (r *BatchReport) Totals() {
	r.TotalCandidates, r.TotalAllocated, r.TotalRemaining = 0, 0, 0
	for _, g := range r.Groups {
		r.TotalCandidates += g.Candidates
		r.TotalAllocated += g.Allocated
		r.TotalRemaining += g.Remaining
	}
}

// GroupedAllocateRequest is the payload for the age-grouped batch strategy.
type GroupedAllocateRequest struct {
	AgeRangeYears int `json:"age_range_years"`
}

// ManualAllocateRequest is the payload for a single operator-driven
// assignment.
type ManualAllocateRequest struct {
	RegistrantID string `json:"registrant_id"`
	RoomID       string `json:"room_id"`
}

// UnassignResponse confirms removal of an allocation.
type UnassignResponse struct {
	RegistrantID string `json:"registrant_id"`
	Removed      bool   `json:"removed"`
}

// ErrorResponse is a standard JSON error envelope. Code is machine-checkable;
// the age-gap detail fields are populated only for age_gap_exceeded.
type ErrorResponse struct {
	Error  string `json:"error"`
	Code   string `json:"code,omitempty"`
	AgeMin int    `json:"age_min,omitempty"`
	AgeMax int    `json:"age_max,omitempty"`
	AgeGap int    `json:"age_gap,omitempty"`
	Limit  int    `json:"limit,omitempty"`
}
