// Package memory provides a mutex-guarded in-memory implementation of the
// store interfaces. It backs the service and handler tests and is handy for
// local development without a database; the pgx implementation in
// internal/repository is the production path.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/retreathq/roomalloc/internal/agecalc"
	"github.com/retreathq/roomalloc/internal/model"
	"github.com/retreathq/roomalloc/internal/store"
)

// Store implements store.RegistrantStore, store.RoomStore,
// store.AllocationStore and store.SettingsStore over in-process maps.
// The single mutex makes Assign's check-and-insert atomic, mirroring the
// per-room row lock of the Postgres implementation.
type Store struct {
	mu          sync.Mutex
	registrants map[string]model.Registrant
	rooms       map[string]model.Room
	allocations map[string]model.Allocation // keyed by registrant id
	roomOrder   []string
	maxAgeGap   int
	now         func() time.Time
}

// New returns an empty store with the default max age gap.
func New() *Store {
	return &Store{
		registrants: make(map[string]model.Registrant),
		rooms:       make(map[string]model.Room),
		allocations: make(map[string]model.Allocation),
		maxAgeGap:   model.DefaultMaxAgeGap,
		now:         time.Now,
	}
}

// SetClock fixes the time source, so tests get stable ages.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// SetMaxAgeGap overrides the configured limit.
func (s *Store) SetMaxAgeGap(gap int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.maxAgeGap = gap
}

// AddRegistrant stores a registrant, generating an id when absent.
func (s *Store) AddRegistrant(r model.Registrant) model.Registrant {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = s.now()
	}
	s.registrants[r.ID] = r
	return r
}

// AddRoom stores a room, generating an id when absent.
func (s *Store) AddRoom(r model.Room) model.Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = s.now()
	}
	if _, exists := s.rooms[r.ID]; !exists {
		s.roomOrder = append(s.roomOrder, r.ID)
	}
	s.rooms[r.ID] = r
	return r
}

// GetByID implements store.RegistrantStore.
func (s *Store) GetByID(_ context.Context, id string) (*model.Registrant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.registrants[id]
	if !ok {
		return nil, store.ErrRegistrantNotFound
	}
	return &r, nil
}

// ListUnallocatedVerified implements store.RegistrantStore.
func (s *Store) ListUnallocatedVerified(_ context.Context) ([]model.Registrant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Registrant
	for _, r := range s.registrants {
		if !r.Verified || !r.Gender.Valid() {
			continue
		}
		if _, allocated := s.allocations[r.ID]; allocated {
			continue
		}
		out = append(out, r)
	}
	// Age ascending: latest birth date first. Id as tie-break keeps the
	// ordering deterministic across map iteration.
	sort.Slice(out, func(i, j int) bool {
		if !out[i].BirthDate.Equal(out[j].BirthDate) {
			return out[i].BirthDate.After(out[j].BirthDate)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// ListActiveStates implements store.RoomStore.
func (s *Store) ListActiveStates(_ context.Context, gender model.Gender) ([]model.RoomState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	asOf := s.now()
	var out []model.RoomState
	for _, id := range s.roomOrder {
		room := s.rooms[id]
		if !room.Active || room.Gender != gender {
			continue
		}
		out = append(out, model.RoomState{
			Room:      room,
			Occupants: s.occupantsLocked(room.ID, asOf),
		})
	}
	return out, nil
}

func (s *Store) occupantsLocked(roomID string, asOf time.Time) []model.Occupant {
	var occ []model.Occupant
	for _, a := range s.allocations {
		if a.RoomID != roomID {
			continue
		}
		reg := s.registrants[a.RegistrantID]
		occ = append(occ, model.Occupant{
			RegistrantID: a.RegistrantID,
			Age:          agecalc.Age(reg.BirthDate, asOf),
		})
	}
	sort.Slice(occ, func(i, j int) bool { return occ[i].RegistrantID < occ[j].RegistrantID })
	return occ
}

// Assign implements store.AllocationStore. The precondition ladder matches
// the Postgres implementation: registrant exists, verified, unallocated;
// room exists, active, has capacity; genders match; age gap within limit.
func (s *Store) Assign(_ context.Context, p store.AssignParams) (*model.Allocation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	reg, ok := s.registrants[p.RegistrantID]
	if !ok {
		return nil, store.ErrRegistrantNotFound
	}
	if !reg.Verified {
		return nil, store.ErrNotVerified
	}
	if _, allocated := s.allocations[reg.ID]; allocated {
		return nil, store.ErrAlreadyAllocated
	}

	room, ok := s.rooms[p.RoomID]
	if !ok {
		return nil, store.ErrRoomNotFound
	}
	if !room.Active {
		return nil, store.ErrRoomInactive
	}
	asOf := s.now()
	occupants := s.occupantsLocked(room.ID, asOf)
	if len(occupants) >= room.Capacity {
		return nil, store.ErrRoomFull
	}
	if reg.Gender != room.Gender {
		return nil, store.ErrGenderMismatch
	}
	if !p.SkipAgeCheck && len(occupants) > 0 {
		ages := make([]int, len(occupants))
		for i, o := range occupants {
			ages[i] = o.Age
		}
		age := agecalc.Age(reg.BirthDate, asOf)
		if !agecalc.Compatible(ages, age, p.MaxAgeGap) {
			min, max := agecalc.SpanWith(ages, age)
			return nil, &store.AgeGapError{AgeMin: min, AgeMax: max, Limit: p.MaxAgeGap}
		}
	}

	alloc := model.Allocation{
		ID:           uuid.New().String(),
		RegistrantID: reg.ID,
		RoomID:       room.ID,
		CreatedBy:    p.CreatedBy,
		CreatedAt:    asOf,
	}
	s.allocations[reg.ID] = alloc
	return &alloc, nil
}

// Unassign implements store.AllocationStore.
func (s *Store) Unassign(_ context.Context, registrantID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.allocations[registrantID]; !ok {
		return store.ErrAllocationNotFound
	}
	delete(s.allocations, registrantID)
	return nil
}

// GetByRegistrant implements store.AllocationStore.
func (s *Store) GetByRegistrant(_ context.Context, registrantID string) (*model.Allocation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.allocations[registrantID]
	if !ok {
		return nil, store.ErrAllocationNotFound
	}
	return &a, nil
}

// ListByRoom implements store.AllocationStore.
func (s *Store) ListByRoom(_ context.Context, roomID string) ([]model.Allocation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Allocation
	for _, a := range s.allocations {
		if a.RoomID == roomID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// MaxAgeGap implements store.SettingsStore.
func (s *Store) MaxAgeGap(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.maxAgeGap, nil
}
