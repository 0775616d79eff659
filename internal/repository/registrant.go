// Package repository implements the store interfaces over PostgreSQL using
// pgx directly (no ORM). Registrant and room tables are owned by the
// surrounding registration application; this package only reads them. The
// allocations table is owned here, and AllocationRepository.Assign is the
// single serialization point for writes to it.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/retreathq/roomalloc/internal/model"
	"github.com/retreathq/roomalloc/internal/store"
)

// RegistrantRepository reads registrant records.
type RegistrantRepository struct {
	db *pgxpool.Pool
}

// NewRegistrantRepository constructs a RegistrantRepository.
func NewRegistrantRepository(db *pgxpool.Pool) *RegistrantRepository {
	return &RegistrantRepository{db: db}
}

// GetByID returns a single registrant or store.ErrRegistrantNotFound.
func (r *RegistrantRepository) GetByID(ctx context.Context, id string) (*model.Registrant, error) {
	var reg model.Registrant
	err := r.db.QueryRow(ctx,
		`SELECT id, full_name, gender, birth_date, verified, created_at
		 FROM registrants WHERE id = $1`,
		id,
	).Scan(&reg.ID, &reg.FullName, &reg.Gender, &reg.BirthDate, &reg.Verified, &reg.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrRegistrantNotFound
		}
		return nil, fmt.Errorf("get registrant: %w", err)
	}
	return &reg, nil
}

// ListUnallocatedVerified returns the candidate pool ordered youngest first.
func (r *RegistrantRepository) ListUnallocatedVerified(ctx context.Context) ([]model.Registrant, error) {
	rows, err := r.db.Query(ctx,
		`SELECT r.id, r.full_name, r.gender, r.birth_date, r.verified, r.created_at
		 FROM registrants r
		 WHERE r.verified
		   AND r.gender IN ($1, $2)
		   AND NOT EXISTS (
		       SELECT 1 FROM allocations a WHERE a.registrant_id = r.id
		   )
		 ORDER BY r.birth_date DESC, r.id`,
		model.GenderFemale, model.GenderMale,
	)
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}
	defer rows.Close()

	var regs []model.Registrant
	for rows.Next() {
		var reg model.Registrant
		if err := rows.Scan(&reg.ID, &reg.FullName, &reg.Gender, &reg.BirthDate, &reg.Verified, &reg.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan registrant: %w", err)
		}
		regs = append(regs, reg)
	}
	return regs, rows.Err()
}
