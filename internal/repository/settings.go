package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/retreathq/roomalloc/internal/model"
)

// maxAgeGapKey is the settings row the allocation engine reads. The settings
// table itself is owned by the surrounding application.
const maxAgeGapKey = "max_age_gap"

// SettingsRepository reads configuration values.
type SettingsRepository struct {
	db *pgxpool.Pool
}

// NewSettingsRepository constructs a SettingsRepository.
func NewSettingsRepository(db *pgxpool.Pool) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// MaxAgeGap returns the configured maximum age gap, falling back to the
// default when the setting is absent.
func (r *SettingsRepository) MaxAgeGap(ctx context.Context) (int, error) {
	var raw string
	err := r.db.QueryRow(ctx,
		`SELECT value FROM settings WHERE key = $1`,
		maxAgeGapKey,
	).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.DefaultMaxAgeGap, nil
		}
		return 0, fmt.Errorf("read %s: %w", maxAgeGapKey, err)
	}
	gap, err := strconv.Atoi(raw)
	if err != nil || gap <= 0 {
		return 0, fmt.Errorf("invalid %s value %q", maxAgeGapKey, raw)
	}
	return gap, nil
}
