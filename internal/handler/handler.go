// Package handler contains chi HTTP handlers that translate HTTP
// requests/responses to and from the allocation service.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/retreathq/roomalloc/internal/model"
	"github.com/retreathq/roomalloc/internal/service"
	"github.com/retreathq/roomalloc/internal/store"
)

// AllocationHandler holds all HTTP handlers for the allocation API.
type AllocationHandler struct {
	svc *service.AllocationService
}

// NewAllocationHandler constructs an AllocationHandler.
func NewAllocationHandler(svc *service.AllocationService) *AllocationHandler {
	return &AllocationHandler{svc: svc}
}

// Routes mounts the allocation API on a chi router.
func (h *AllocationHandler) Routes(r chi.Router) {
	r.Route("/allocations", func(r chi.Router) {
		r.Post("/grouped", h.AllocateGrouped)
		r.Post("/random", h.AllocateRandom)
		r.Post("/", h.ManualAllocate)
		r.Get("/{registrantID}", h.GetAllocation)
		r.Delete("/{registrantID}", h.Unassign)
	})
	r.Route("/rooms", func(r chi.Router) {
		r.Get("/occupancy", h.RoomOccupancy)
		r.Get("/{roomID}/allocations", h.RoomAllocations)
	})
}

// ─── Helper utilities ─────────────────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, model.ErrorResponse{Error: msg})
}

func decodeJSON(r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(nil, r.Body, 1<<20) // 1 MB limit
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// operator resolves the identity recorded on created allocations. Auth is
// handled upstream; the gateway forwards the operator name in a header.
func operator(r *http.Request, fallback string) string {
	if op := r.Header.Get("X-Operator"); op != "" {
		return op
	}
	return fallback
}

// writeDomainError maps allocation precondition failures to HTTP statuses
// and machine-checkable codes. Age-gap rejections carry the computed range
// and the configured limit.
func writeDomainError(w http.ResponseWriter, err error) bool {
	code := store.Code(err)
	if code == "" {
		return false
	}
	resp := model.ErrorResponse{Error: err.Error(), Code: code}
	status := http.StatusConflict
	if code == "not_found" {
		status = http.StatusNotFound
	}
	var gapErr *store.AgeGapError
	if errors.As(err, &gapErr) {
		resp.AgeMin = gapErr.AgeMin
		resp.AgeMax = gapErr.AgeMax
		resp.AgeGap = gapErr.Gap()
		resp.Limit = gapErr.Limit
	}
	writeJSON(w, status, resp)
	return true
}

// ─── Batch allocation ─────────────────────────────────────────────────────────

// AllocateGrouped handles POST /allocations/grouped
// Runs the deterministic age-grouped strategy and returns the batch report.
func (h *AllocationHandler) AllocateGrouped(w http.ResponseWriter, r *http.Request) {
	var req model.GroupedAllocateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	report, err := h.svc.AllocateGrouped(r.Context(), req.AgeRangeYears, operator(r, service.StrategyGrouped))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// AllocateRandom handles POST /allocations/random
// Runs the randomized strategy and returns the per-gender report.
func (h *AllocationHandler) AllocateRandom(w http.ResponseWriter, r *http.Request) {
	report, err := h.svc.AllocateRandom(r.Context(), operator(r, service.StrategyRandom))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "random allocation failed")
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// ─── Manual allocation ────────────────────────────────────────────────────────

// ManualAllocate handles POST /allocations
// Assigns a single registrant to a single room.
func (h *AllocationHandler) ManualAllocate(w http.ResponseWriter, r *http.Request) {
	var req model.ManualAllocateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	alloc, err := h.svc.ManualAllocate(r.Context(), req.RegistrantID, req.RoomID, operator(r, "system"))
	if err != nil {
		if writeDomainError(w, err) {
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, alloc)
}

// Unassign handles DELETE /allocations/{registrantID}
func (h *AllocationHandler) Unassign(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "registrantID")

	resp, err := h.svc.Unassign(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrAllocationNotFound) {
			writeError(w, http.StatusNotFound, "allocation not found")
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetAllocation handles GET /allocations/{registrantID}
func (h *AllocationHandler) GetAllocation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "registrantID")

	alloc, err := h.svc.GetAllocation(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrAllocationNotFound) {
			writeError(w, http.StatusNotFound, "allocation not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to get allocation")
		return
	}
	writeJSON(w, http.StatusOK, alloc)
}

// ─── Read models ──────────────────────────────────────────────────────────────

// RoomOccupancy handles GET /rooms/occupancy?gender=
// Returns the room state view for one gender.
func (h *AllocationHandler) RoomOccupancy(w http.ResponseWriter, r *http.Request) {
	gender := model.Gender(r.URL.Query().Get("gender"))

	states, err := h.svc.RoomOccupancy(r.Context(), gender)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if states == nil {
		states = []model.RoomState{}
	}
	writeJSON(w, http.StatusOK, states)
}

// RoomAllocations handles GET /rooms/{roomID}/allocations
func (h *AllocationHandler) RoomAllocations(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "roomID")

	allocs, err := h.svc.RoomAllocations(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list allocations")
		return
	}
	if allocs == nil {
		allocs = []model.Allocation{}
	}
	writeJSON(w, http.StatusOK, allocs)
}

// ─── Health check ─────────────────────────────────────────────────────────────

// HealthCheck handles GET /health
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
