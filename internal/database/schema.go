package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schema is the idempotent DDL applied at startup. The registrants, rooms
// and settings tables are normally created and populated by the surrounding
// registration application; they are included here so the service can run
// against an empty database in development.
//
// allocations.registrant_id UNIQUE enforces the one-allocation-per-registrant
// invariant at the schema level; capacity and age-gap are enforced by the
// Assign transaction.
const schema = `
CREATE TABLE IF NOT EXISTS registrants (
	id         TEXT PRIMARY KEY,
	full_name  TEXT NOT NULL,
	gender     TEXT NOT NULL,
	birth_date DATE NOT NULL,
	verified   BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS rooms (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	gender     TEXT NOT NULL,
	capacity   INTEGER NOT NULL CHECK (capacity >= 1),
	active     BOOLEAN NOT NULL DEFAULT TRUE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS allocations (
	id            TEXT PRIMARY KEY,
	registrant_id TEXT NOT NULL UNIQUE REFERENCES registrants(id),
	room_id       TEXT NOT NULL REFERENCES rooms(id),
	created_by    TEXT NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_allocations_room ON allocations(room_id);

CREATE TABLE IF NOT EXISTS settings (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`

// Migrate applies the schema. Safe to run on every startup.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
