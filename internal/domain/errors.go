package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidRequest    = errors.New("invalid request")
	ErrLimitExceeded     = fmt.Errorf("a hold must cover between 1 and %d seats", MaxSeatsPerBooking)
	ErrShowingNotFound   = errors.New("showing not found")
	ErrShowingExists     = errors.New("showing already registered")
	ErrSeatNotFound      = errors.New("seat not found")
	ErrHoldNotFound      = errors.New("hold not found")
	ErrHoldNotActive     = errors.New("hold is no longer active")
	ErrHoldExpired       = errors.New("hold has expired")
	ErrRequesterMismatch = errors.New("hold belongs to a different requester")
	ErrBookingNotFound   = errors.New("booking not found")
	ErrBookingExists     = errors.New("booking already exists")
)

// SeatsUnavailableError is the definitive rejection of a hold request: one or
// more of the requested seats is not AVAILABLE. It names the conflicting
// seats so the caller can retry with a different selection.
type SeatsUnavailableError struct {
	ConflictingSeatIDs []string
}

func (e *SeatsUnavailableError) Error() string {
	return fmt.Sprintf("seats unavailable: %s", strings.Join(e.ConflictingSeatIDs, ", "))
}
