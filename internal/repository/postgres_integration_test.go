package repository

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retreathq/roomalloc/internal/database"
	"github.com/retreathq/roomalloc/internal/model"
	"github.com/retreathq/roomalloc/internal/store"
)

// setupTestDB connects to the database named by TEST_DATABASE_URL, applies
// the schema and empties the tables. Tests are skipped when the variable is
// unset, so the unit suite stays runnable without Postgres.
func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set; skipping Postgres integration test")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, url)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, database.Migrate(ctx, pool))
	_, err = pool.Exec(ctx, `TRUNCATE allocations, registrants, rooms, settings`)
	require.NoError(t, err)
	return pool
}

func insertRegistrant(t *testing.T, pool *pgxpool.Pool, id string, gender model.Gender, birth time.Time, verified bool) {
	t.Helper()
	_, err := pool.Exec(context.Background(),
		`INSERT INTO registrants (id, full_name, gender, birth_date, verified) VALUES ($1, $2, $3, $4, $5)`,
		id, id, gender, birth, verified)
	require.NoError(t, err)
}

func insertRoom(t *testing.T, pool *pgxpool.Pool, id string, gender model.Gender, capacity int, active bool) {
	t.Helper()
	_, err := pool.Exec(context.Background(),
		`INSERT INTO rooms (id, name, gender, capacity, active) VALUES ($1, $2, $3, $4, $5)`,
		id, id, gender, capacity, active)
	require.NoError(t, err)
}

func TestIntegrationAssignLifecycle(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	repo := NewAllocationRepository(pool)

	birth := time.Date(2004, time.March, 2, 0, 0, 0, 0, time.UTC)
	insertRegistrant(t, pool, "reg", model.GenderMale, birth, true)
	insertRoom(t, pool, "room", model.GenderMale, 2, true)

	alloc, err := repo.Assign(ctx, store.AssignParams{
		RegistrantID: "reg", RoomID: "room", CreatedBy: "itest", MaxAgeGap: 5,
	})
	require.NoError(t, err)
	assert.Equal(t, "itest", alloc.CreatedBy)

	_, err = repo.Assign(ctx, store.AssignParams{
		RegistrantID: "reg", RoomID: "room", CreatedBy: "itest", MaxAgeGap: 5,
	})
	assert.ErrorIs(t, err, store.ErrAlreadyAllocated)

	got, err := repo.GetByRegistrant(ctx, "reg")
	require.NoError(t, err)
	assert.Equal(t, alloc.ID, got.ID)

	require.NoError(t, repo.Unassign(ctx, "reg"))
	assert.ErrorIs(t, repo.Unassign(ctx, "reg"), store.ErrAllocationNotFound)
}

func TestIntegrationConcurrentAssignsNeverOverfill(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	repo := NewAllocationRepository(pool)

	const capacity = 3
	const contenders = 12
	insertRoom(t, pool, "room", model.GenderFemale, capacity, true)
	birth := time.Date(2000, time.July, 9, 0, 0, 0, 0, time.UTC)
	for i := 0; i < contenders; i++ {
		insertRegistrant(t, pool, fmt.Sprintf("reg%d", i), model.GenderFemale, birth, true)
	}

	var wg sync.WaitGroup
	errs := make([]error, contenders)
	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = repo.Assign(ctx, store.AssignParams{
				RegistrantID: fmt.Sprintf("reg%d", i), RoomID: "room", CreatedBy: "race", MaxAgeGap: 5,
			})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, store.ErrRoomFull)
		}
	}
	assert.Equal(t, capacity, succeeded, "row lock must serialise concurrent assigns")

	allocs, err := repo.ListByRoom(ctx, "room")
	require.NoError(t, err)
	assert.Len(t, allocs, capacity)
}

func TestIntegrationRoomStateAndSettings(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()

	rooms := NewRoomRepository(pool)
	settings := NewSettingsRepository(pool)
	allocs := NewAllocationRepository(pool)

	insertRoom(t, pool, "active", model.GenderMale, 4, true)
	insertRoom(t, pool, "inactive", model.GenderMale, 4, false)
	birth := time.Date(2006, time.December, 24, 0, 0, 0, 0, time.UTC)
	insertRegistrant(t, pool, "reg", model.GenderMale, birth, true)

	_, err := allocs.Assign(ctx, store.AssignParams{
		RegistrantID: "reg", RoomID: "active", CreatedBy: "itest", MaxAgeGap: 5,
	})
	require.NoError(t, err)

	states, err := rooms.ListActiveStates(ctx, model.GenderMale)
	require.NoError(t, err)
	require.Len(t, states, 1)
	assert.Equal(t, "active", states[0].ID)
	assert.Equal(t, 3, states[0].Available())
	require.Len(t, states[0].Occupants, 1)

	gap, err := settings.MaxAgeGap(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.DefaultMaxAgeGap, gap)

	_, err = pool.Exec(ctx, `INSERT INTO settings (key, value) VALUES ('max_age_gap', '8')`)
	require.NoError(t, err)
	gap, err = settings.MaxAgeGap(ctx)
	require.NoError(t, err)
	assert.Equal(t, 8, gap)
}
