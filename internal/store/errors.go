package store

import (
	"errors"
	"fmt"
)

// ErrRegistrantNotFound is returned when the requested registrant does not exist.
var ErrRegistrantNotFound = errors.New("registrant not found")

// ErrRoomNotFound is returned when the requested room does not exist.
var ErrRoomNotFound = errors.New("room not found")

// ErrAllocationNotFound is returned when a registrant has no allocation.
var ErrAllocationNotFound = errors.New("allocation not found")

// ErrNotVerified is returned when the registrant has not completed verification.
var ErrNotVerified = errors.New("registrant is not verified")

// ErrAlreadyAllocated is returned when the registrant already has a room.
var ErrAlreadyAllocated = errors.New("registrant is already allocated")

// ErrRoomInactive is returned when the target room is not active.
var ErrRoomInactive = errors.New("room is inactive")

// ErrRoomFull is returned when the target room has no remaining capacity.
var ErrRoomFull = errors.New("room is full")

// ErrGenderMismatch is returned when registrant and room genders differ.
var ErrGenderMismatch = errors.New("registrant gender does not match room gender")

// ErrAgeGapExceeded is the sentinel for age-gap rejections; the concrete
// error is always an *AgeGapError carrying the computed range.
var ErrAgeGapExceeded = errors.New("age gap exceeded")

// AgeGapError reports the age range that admitting the candidate would
// produce, against the configured limit.
type AgeGapError struct {
	AgeMin int
	AgeMax int
	Limit  int
}

func (e *AgeGapError) Error() string {
	return fmt.Sprintf("age gap exceeded: resulting range %d-%d spans %d years, limit is %d",
		e.AgeMin, e.AgeMax, e.Gap(), e.Limit)
}

// Gap returns the span of the resulting age range.
func (e *AgeGapError) Gap() int {
	return e.AgeMax - e.AgeMin
}

// Unwrap lets errors.Is(err, ErrAgeGapExceeded) match.
func (e *AgeGapError) Unwrap() error {
	return ErrAgeGapExceeded
}

// Code returns the machine-checkable rejection code for a domain error, or
// "" for errors that are not allocation preconditions.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrRegistrantNotFound),
		errors.Is(err, ErrRoomNotFound),
		errors.Is(err, ErrAllocationNotFound):
		return "not_found"
	case errors.Is(err, ErrNotVerified):
		return "not_verified"
	case errors.Is(err, ErrAlreadyAllocated):
		return "already_allocated"
	case errors.Is(err, ErrRoomInactive):
		return "room_inactive"
	case errors.Is(err, ErrRoomFull):
		return "room_full"
	case errors.Is(err, ErrGenderMismatch):
		return "gender_mismatch"
	case errors.Is(err, ErrAgeGapExceeded):
		return "age_gap_exceeded"
	default:
		return ""
	}
}
