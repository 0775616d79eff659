// Package store defines the persistence interfaces the allocation engine
// consumes, and the domain errors every implementation returns. The pgx
// implementation lives in internal/repository; an in-memory implementation
// for tests and local development lives in internal/store/memory.
package store

import (
	"context"

	"github.com/retreathq/roomalloc/internal/model"
)

// RegistrantStore is the read boundary for registrant records. Registrants
// are created and verified by the surrounding application; the engine only
// reads them.
type RegistrantStore interface {
	// GetByID returns a registrant or ErrRegistrantNotFound.
	GetByID(ctx context.Context, id string) (*model.Registrant, error)

	// ListUnallocatedVerified returns the candidate pool: verified
	// registrants of a supported gender with no current allocation,
	// ordered by age ascending (youngest first).
	ListUnallocatedVerified(ctx context.Context) ([]model.Registrant, error)
}

// RoomStore is the read boundary for room records and their occupancy.
type RoomStore interface {
	// ListActiveStates returns snapshots of all active rooms of the given
	// gender with their current occupants, in stable creation order.
	ListActiveStates(ctx context.Context, gender model.Gender) ([]model.RoomState, error)
}

// AssignParams carries one assignment through the write boundary.
type AssignParams struct {
	RegistrantID string
	RoomID       string
	CreatedBy    string

	// MaxAgeGap is the configured limit re-checked at commit time.
	MaxAgeGap int

	// SkipAgeCheck disables the age-gap re-check. Only the random
	// strategy sets it; capacity and gender are always enforced.
	SkipAgeCheck bool
}

// AllocationStore is the single write boundary for allocation records.
// Assign must re-validate every precondition against current persisted state
// and perform the check-and-insert atomically per room, so concurrent
// batch and manual requests can never jointly overfill a room.
type AllocationStore interface {
	Assign(ctx context.Context, p AssignParams) (*model.Allocation, error)

	// Unassign deletes the allocation for a registrant, returning
	// ErrAllocationNotFound when none exists.
	Unassign(ctx context.Context, registrantID string) error

	// GetByRegistrant returns a registrant's allocation or
	// ErrAllocationNotFound.
	GetByRegistrant(ctx context.Context, registrantID string) (*model.Allocation, error)

	// ListByRoom returns a room's allocations in creation order.
	ListByRoom(ctx context.Context, roomID string) ([]model.Allocation, error)
}

// SettingsStore reads configuration owned by the surrounding application.
type SettingsStore interface {
	// MaxAgeGap returns the configured maximum age gap, or
	// model.DefaultMaxAgeGap when unset.
	MaxAgeGap(ctx context.Context) (int, error)
}
