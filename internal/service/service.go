// Package service implements the allocation engine's orchestration: it
// validates requests, reads candidate and room snapshots, runs a planning
// strategy, and commits the proposals through the allocation store.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/retreathq/roomalloc/internal/agecalc"
	"github.com/retreathq/roomalloc/internal/allocator"
	"github.com/retreathq/roomalloc/internal/metrics"
	"github.com/retreathq/roomalloc/internal/model"
	"github.com/retreathq/roomalloc/internal/store"
)

// Strategy names recorded in batch reports and used as the default
// created_by identity for batch runs.
const (
	StrategyGrouped = "grouped"
	StrategyRandom  = "random"
)

// AllocationService orchestrates the three allocation paths.
type AllocationService struct {
	registrants store.RegistrantStore
	rooms       store.RoomStore
	allocations store.AllocationStore
	settings    store.SettingsStore
	log         *slog.Logger
	metrics     *metrics.Metrics
	now         func() time.Time
	newRand     func() *rand.Rand
}

// NewAllocationService constructs an AllocationService with its dependencies.
func NewAllocationService(
	registrants store.RegistrantStore,
	rooms store.RoomStore,
	allocations store.AllocationStore,
	settings store.SettingsStore,
	log *slog.Logger,
	m *metrics.Metrics,
) *AllocationService {
	return &AllocationService{
		registrants: registrants,
		rooms:       rooms,
		allocations: allocations,
		settings:    settings,
		log:         log,
		metrics:     m,
		now:         time.Now,
		newRand: func() *rand.Rand {
			return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
		},
	}
}

// SetClock fixes the time source, so tests get stable ages.
func (s *AllocationService) SetClock(now func() time.Time) {
	s.now = now
}

// SetRand fixes the random source factory, so tests can seed the shuffle.
func (s *AllocationService) SetRand(newRand func() *rand.Rand) {
	s.newRand = newRand
}

// AllocateGrouped runs the deterministic age-grouped strategy across both
// genders and commits the proposals. Partially or fully unplaceable groups
// are reported, not errored.
func (s *AllocationService) AllocateGrouped(ctx context.Context, ageRangeYears int, actor string) (*model.BatchReport, error) {
	if ageRangeYears <= 0 {
		return nil, fmt.Errorf("age_range_years must be a positive integer")
	}
	maxGap, err := s.settings.MaxAgeGap(ctx)
	if err != nil {
		return nil, fmt.Errorf("load max age gap: %w", err)
	}

	candidates, err := s.candidatePool(ctx)
	if err != nil {
		return nil, err
	}

	plans, err := s.planPerGender(ctx, func(gender model.Gender, rooms []*allocator.Room) *allocator.Plan {
		return allocator.PlanGrouped(gender, candidates, rooms, ageRangeYears, maxGap)
	})
	if err != nil {
		return nil, err
	}

	report := &model.BatchReport{Strategy: StrategyGrouped}
	for _, plan := range plans {
		for i := range plan.Groups {
			result := s.commitGroup(ctx, &plan.Groups[i], store.AssignParams{
				CreatedBy: actor,
				MaxAgeGap: maxGap,
			})
			report.Groups = append(report.Groups, result)
		}
	}
	report.Totals()
	s.log.Info("grouped allocation finished",
		"age_range_years", ageRangeYears,
		"max_age_gap", maxGap,
		"candidates", report.TotalCandidates,
		"allocated", report.TotalAllocated,
		"remaining", report.TotalRemaining,
	)
	return report, nil
}

// AllocateRandom runs the randomized strategy across both genders. It
// enforces capacity and gender only; age compatibility is deliberately not
// evaluated on this path.
func (s *AllocationService) AllocateRandom(ctx context.Context, actor string) (*model.BatchReport, error) {
	candidates, err := s.candidatePool(ctx)
	if err != nil {
		return nil, err
	}

	plans, err := s.planPerGender(ctx, func(gender model.Gender, rooms []*allocator.Room) *allocator.Plan {
		return allocator.PlanRandom(gender, candidates, rooms, s.newRand())
	})
	if err != nil {
		return nil, err
	}

	report := &model.BatchReport{Strategy: StrategyRandom}
	for _, plan := range plans {
		for i := range plan.Groups {
			result := s.commitGroup(ctx, &plan.Groups[i], store.AssignParams{
				CreatedBy:    actor,
				SkipAgeCheck: true,
			})
			report.Groups = append(report.Groups, result)
		}
	}
	report.Totals()
	s.log.Info("random allocation finished",
		"candidates", report.TotalCandidates,
		"allocated", report.TotalAllocated,
		"remaining", report.TotalRemaining,
	)
	return report, nil
}

// ManualAllocate assigns one registrant to one room, enforcing every
// precondition synchronously at the write boundary.
func (s *AllocationService) ManualAllocate(ctx context.Context, registrantID, roomID, actor string) (*model.Allocation, error) {
	if registrantID == "" {
		return nil, fmt.Errorf("registrant_id is required")
	}
	if roomID == "" {
		return nil, fmt.Errorf("room_id is required")
	}
	maxGap, err := s.settings.MaxAgeGap(ctx)
	if err != nil {
		return nil, fmt.Errorf("load max age gap: %w", err)
	}

	alloc, err := s.allocations.Assign(ctx, store.AssignParams{
		RegistrantID: registrantID,
		RoomID:       roomID,
		CreatedBy:    actor,
		MaxAgeGap:    maxGap,
	})
	if err != nil {
		if code := store.Code(err); code != "" {
			s.metrics.Reject(code)
			return nil, err
		}
		return nil, fmt.Errorf("manual allocate: %w", err)
	}
	s.metrics.AllocationsCreated.Inc()
	s.log.Info("manual allocation created",
		"registrant_id", registrantID, "room_id", roomID, "by", actor)
	return alloc, nil
}

// Unassign removes a registrant's allocation.
func (s *AllocationService) Unassign(ctx context.Context, registrantID string) (*model.UnassignResponse, error) {
	if registrantID == "" {
		return nil, fmt.Errorf("registrant_id is required")
	}
	if err := s.allocations.Unassign(ctx, registrantID); err != nil {
		if errors.Is(err, store.ErrAllocationNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("unassign: %w", err)
	}
	s.metrics.AllocationsRemoved.Inc()
	s.log.Info("allocation removed", "registrant_id", registrantID)
	return &model.UnassignResponse{RegistrantID: registrantID, Removed: true}, nil
}

// GetAllocation returns a registrant's allocation.
func (s *AllocationService) GetAllocation(ctx context.Context, registrantID string) (*model.Allocation, error) {
	if registrantID == "" {
		return nil, fmt.Errorf("registrant_id is required")
	}
	return s.allocations.GetByRegistrant(ctx, registrantID)
}

// RoomOccupancy returns the room state view for a gender.
func (s *AllocationService) RoomOccupancy(ctx context.Context, gender model.Gender) ([]model.RoomState, error) {
	if !gender.Valid() {
		return nil, fmt.Errorf("gender must be one of %v", model.Genders)
	}
	return s.rooms.ListActiveStates(ctx, gender)
}

// RoomAllocations returns the allocations currently bound to a room.
func (s *AllocationService) RoomAllocations(ctx context.Context, roomID string) ([]model.Allocation, error) {
	if roomID == "" {
		return nil, fmt.Errorf("room id is required")
	}
	return s.allocations.ListByRoom(ctx, roomID)
}

// candidatePool loads the unallocated verified registrants and computes
// their ages as of now.
func (s *AllocationService) candidatePool(ctx context.Context) ([]allocator.Candidate, error) {
	regs, err := s.registrants.ListUnallocatedVerified(ctx)
	if err != nil {
		return nil, fmt.Errorf("load candidate pool: %w", err)
	}
	asOf := s.now()
	candidates := make([]allocator.Candidate, 0, len(regs))
	for _, r := range regs {
		candidates = append(candidates, allocator.Candidate{
			RegistrantID: r.ID,
			Gender:       r.Gender,
			Age:          agecalc.Age(r.BirthDate, asOf),
		})
	}
	return candidates, nil
}

// planPerGender fetches each gender's room snapshot and computes its plan
// concurrently. Plans are pure and operate on independent snapshots; the
// commit step afterwards serialises per room at the write boundary.
func (s *AllocationService) planPerGender(ctx context.Context, plan func(model.Gender, []*allocator.Room) *allocator.Plan) ([]*allocator.Plan, error) {
	plans := make([]*allocator.Plan, len(model.Genders))
	g, ctx := errgroup.WithContext(ctx)
	for i, gender := range model.Genders {
		g.Go(func() error {
			states, err := s.rooms.ListActiveStates(ctx, gender)
			if err != nil {
				return fmt.Errorf("load %s rooms: %w", gender, err)
			}
			plans[i] = plan(gender, allocator.RoomsFromStates(states))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return plans, nil
}

// commitGroup writes one planned group's assignments. Room state may have
// moved since the snapshot, so individual pairs can still be rejected at the
// write boundary; those pairs count as remaining and degrade the group's
// status rather than failing the batch.
func (s *AllocationService) commitGroup(ctx context.Context, group *allocator.Group, base store.AssignParams) model.GroupResult {
	result := group.Result
	committed := 0
	var firstErr error
	for _, a := range group.Assignments {
		p := base
		p.RegistrantID = a.RegistrantID
		p.RoomID = a.RoomID
		if _, err := s.allocations.Assign(ctx, p); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			if code := store.Code(err); code != "" {
				s.metrics.Reject(code)
			}
			s.log.Warn("assignment rejected at commit",
				"registrant_id", a.RegistrantID, "room_id", a.RoomID, "error", err)
			continue
		}
		s.metrics.AllocationsCreated.Inc()
		committed++
	}

	result.Allocated = committed
	result.Remaining = result.Candidates - committed
	switch {
	case result.Remaining == 0:
		result.Status = model.StatusSuccess
		result.Reason = ""
	case committed > 0:
		result.Status = model.StatusPartial
	default:
		result.Status = model.StatusFailed
	}
	if firstErr != nil && result.Remaining > 0 {
		if result.Reason != "" {
			result.Reason += "; "
		}
		result.Reason += fmt.Sprintf("commit: %v", firstErr)
	}
	return result
}
