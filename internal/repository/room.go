package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/retreathq/roomalloc/internal/agecalc"
	"github.com/retreathq/roomalloc/internal/model"
)

// RoomRepository reads room records and their current occupancy.
type RoomRepository struct {
	db  *pgxpool.Pool
	now func() time.Time
}

// NewRoomRepository constructs a RoomRepository.
func NewRoomRepository(db *pgxpool.Pool) *RoomRepository {
	return &RoomRepository{db: db, now: time.Now}
}

// ListActiveStates returns all active rooms of the gender with their
// occupants and ages as of now, in stable creation order.
func (r *RoomRepository) ListActiveStates(ctx context.Context, gender model.Gender) ([]model.RoomState, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, name, gender, capacity, active, created_at
		 FROM rooms
		 WHERE active AND gender = $1
		 ORDER BY created_at, id`,
		gender,
	)
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	defer rows.Close()

	var states []model.RoomState
	index := make(map[string]int)
	for rows.Next() {
		var s model.RoomState
		if err := rows.Scan(&s.ID, &s.Name, &s.Gender, &s.Capacity, &s.Active, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan room: %w", err)
		}
		index[s.ID] = len(states)
		states = append(states, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	occRows, err := r.db.Query(ctx,
		`SELECT a.room_id, a.registrant_id, reg.birth_date
		 FROM allocations a
		 JOIN registrants reg ON reg.id = a.registrant_id
		 JOIN rooms rm ON rm.id = a.room_id
		 WHERE rm.active AND rm.gender = $1
		 ORDER BY a.created_at, a.id`,
		gender,
	)
	if err != nil {
		return nil, fmt.Errorf("list occupants: %w", err)
	}
	defer occRows.Close()

	asOf := r.now()
	for occRows.Next() {
		var roomID, registrantID string
		var birth time.Time
		if err := occRows.Scan(&roomID, &registrantID, &birth); err != nil {
			return nil, fmt.Errorf("scan occupant: %w", err)
		}
		if i, ok := index[roomID]; ok {
			states[i].Occupants = append(states[i].Occupants, model.Occupant{
				RegistrantID: registrantID,
				Age:          agecalc.Age(birth, asOf),
			})
		}
	}
	return states, occRows.Err()
}
