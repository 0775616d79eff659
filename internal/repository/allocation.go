package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/retreathq/roomalloc/internal/agecalc"
	"github.com/retreathq/roomalloc/internal/model"
	"github.com/retreathq/roomalloc/internal/store"
)

// AllocationRepository is the write boundary for allocation records.
type AllocationRepository struct {
	db  *pgxpool.Pool
	now func() time.Time
}

// NewAllocationRepository constructs an AllocationRepository.
func NewAllocationRepository(db *pgxpool.Pool) *AllocationRepository {
	return &AllocationRepository{db: db, now: time.Now}
}

// Assign performs a concurrency-safe assignment inside a transaction.
//
// The planner works on a snapshot that may be stale by the time the commit
// happens, so every precondition is re-checked here against current state.
// SELECT … FOR UPDATE on the room row serialises concurrent assignments into
// the same room: any other Assign touching that room blocks until this
// transaction commits or rolls back, which closes the window where two
// writers both see free capacity (or a compatible age span) and jointly
// violate an invariant.
func (r *AllocationRepository) Assign(ctx context.Context, p store.AssignParams) (*model.Allocation, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	// Registrant preconditions: exists, verified, not already allocated.
	var regGender model.Gender
	var regBirth time.Time
	var verified bool
	err = tx.QueryRow(ctx,
		`SELECT gender, birth_date, verified FROM registrants WHERE id = $1`,
		p.RegistrantID,
	).Scan(&regGender, &regBirth, &verified)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = store.ErrRegistrantNotFound
			return nil, err
		}
		return nil, fmt.Errorf("get registrant: %w", err)
	}
	if !verified {
		err = store.ErrNotVerified
		return nil, err
	}

	var allocated bool
	err = tx.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM allocations WHERE registrant_id = $1)`,
		p.RegistrantID,
	).Scan(&allocated)
	if err != nil {
		return nil, fmt.Errorf("check existing allocation: %w", err)
	}
	if allocated {
		err = store.ErrAlreadyAllocated
		return nil, err
	}

	// Lock the room row. Occupancy can only grow under this lock, so the
	// capacity and age checks below are authoritative until commit.
	var roomGender model.Gender
	var capacity int
	var active bool
	err = tx.QueryRow(ctx,
		`SELECT gender, capacity, active FROM rooms WHERE id = $1 FOR UPDATE`,
		p.RoomID,
	).Scan(&roomGender, &capacity, &active)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = store.ErrRoomNotFound
			return nil, err
		}
		return nil, fmt.Errorf("lock room row: %w", err)
	}
	if !active {
		err = store.ErrRoomInactive
		return nil, err
	}

	occRows, err := tx.Query(ctx,
		`SELECT reg.birth_date
		 FROM allocations a
		 JOIN registrants reg ON reg.id = a.registrant_id
		 WHERE a.room_id = $1`,
		p.RoomID,
	)
	if err != nil {
		return nil, fmt.Errorf("list occupants: %w", err)
	}
	var births []time.Time
	for occRows.Next() {
		var b time.Time
		if err = occRows.Scan(&b); err != nil {
			occRows.Close()
			return nil, fmt.Errorf("scan occupant: %w", err)
		}
		births = append(births, b)
	}
	occRows.Close()
	if err = occRows.Err(); err != nil {
		return nil, fmt.Errorf("read occupants: %w", err)
	}

	if len(births) >= capacity {
		err = store.ErrRoomFull
		return nil, err
	}
	if regGender != roomGender {
		err = store.ErrGenderMismatch
		return nil, err
	}

	asOf := r.now()
	if !p.SkipAgeCheck && len(births) > 0 {
		ages := make([]int, len(births))
		for i, b := range births {
			ages[i] = agecalc.Age(b, asOf)
		}
		age := agecalc.Age(regBirth, asOf)
		if !agecalc.Compatible(ages, age, p.MaxAgeGap) {
			min, max := agecalc.SpanWith(ages, age)
			err = &store.AgeGapError{AgeMin: min, AgeMax: max, Limit: p.MaxAgeGap}
			return nil, err
		}
	}

	alloc := &model.Allocation{
		ID:           uuid.New().String(),
		RegistrantID: p.RegistrantID,
		RoomID:       p.RoomID,
		CreatedBy:    p.CreatedBy,
		CreatedAt:    asOf.UTC(),
	}
	_, err = tx.Exec(ctx,
		`INSERT INTO allocations (id, registrant_id, room_id, created_by, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		alloc.ID, alloc.RegistrantID, alloc.RoomID, alloc.CreatedBy, alloc.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert allocation: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return alloc, nil
}

// Unassign deletes a registrant's allocation.
func (r *AllocationRepository) Unassign(ctx context.Context, registrantID string) error {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM allocations WHERE registrant_id = $1`,
		registrantID,
	)
	if err != nil {
		return fmt.Errorf("delete allocation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrAllocationNotFound
	}
	return nil
}

// GetByRegistrant returns a registrant's allocation or store.ErrAllocationNotFound.
func (r *AllocationRepository) GetByRegistrant(ctx context.Context, registrantID string) (*model.Allocation, error) {
	var a model.Allocation
	err := r.db.QueryRow(ctx,
		`SELECT id, registrant_id, room_id, created_by, created_at
		 FROM allocations WHERE registrant_id = $1`,
		registrantID,
	).Scan(&a.ID, &a.RegistrantID, &a.RoomID, &a.CreatedBy, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrAllocationNotFound
		}
		return nil, fmt.Errorf("get allocation: %w", err)
	}
	return &a, nil
}

// ListByRoom returns a room's allocations in creation order.
func (r *AllocationRepository) ListByRoom(ctx context.Context, roomID string) ([]model.Allocation, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, registrant_id, room_id, created_by, created_at
		 FROM allocations
		 WHERE room_id = $1
		 ORDER BY created_at, id`,
		roomID,
	)
	if err != nil {
		return nil, fmt.Errorf("list allocations: %w", err)
	}
	defer rows.Close()

	var allocs []model.Allocation
	for rows.Next() {
		var a model.Allocation
		if err := rows.Scan(&a.ID, &a.RegistrantID, &a.RoomID, &a.CreatedBy, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan allocation: %w", err)
		}
		allocs = append(allocs, a)
	}
	return allocs, rows.Err()
}
