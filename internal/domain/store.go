package domain

import "context"

// SeatStateStore is the authoritative record of per-showing seat state. Every
// group mutation is atomic across the whole requested seat set: either all
// seats transition, or none do. Implementations must make each mutating
// operation linearizable with respect to every other mutating operation that
// touches an overlapping seat set of the same showing.
//
// Only the hold manager calls the mutating operations; everything else reads
// snapshots through SeatStates.
type SeatStateStore interface {
	// AddShowing registers the seat set of a newly created showing, with
	// every seat AVAILABLE.
	AddShowing(ctx context.Context, showingID string, seatIDs []string) error

	// TrySetSeatsHeld atomically checks that every requested seat is
	// AVAILABLE and, if so, transitions all of them to HELD owned by holdID.
	// If any seat is not AVAILABLE no seat is mutated and a
	// *SeatsUnavailableError naming the conflicting seats is returned.
	TrySetSeatsHeld(ctx context.Context, showingID string, seatIDs []string, holdID string) error

	// SetSeatsBooked transitions seats from HELD (owned by holdID) to BOOKED.
	// The caller guarantees the precondition; a violation is an internal
	// error, not a business outcome.
	SetSeatsBooked(ctx context.Context, showingID string, seatIDs []string, holdID, bookingID string) error

	// ReleaseSeats transitions seats held by holdID back to AVAILABLE.
	// Seats no longer held by holdID are skipped: releasing an already
	// released seat is a no-op, which guards against double-expiry races.
	ReleaseSeats(ctx context.Context, showingID string, seatIDs []string, holdID string) error

	// SeatStates returns a consistent snapshot of every seat's state for the
	// showing, keyed by seat id.
	SeatStates(ctx context.Context, showingID string) (map[string]SeatStatus, error)
}
