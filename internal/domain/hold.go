package domain

import "time"

type HoldState string

const (
	HoldActive    HoldState = "ACTIVE"
	HoldCommitted HoldState = "COMMITTED"
	HoldReleased  HoldState = "RELEASED"
	HoldExpired   HoldState = "EXPIRED"
)

// Hold is a time-bounded lease on a set of seats within one showing. ACTIVE
// is the only initial state; COMMITTED, RELEASED and EXPIRED are terminal.
// Holds are owned exclusively by the hold manager: nothing else transitions
// their state, and seats reference their holding hold only through the
// SeatStateStore.
type Hold struct {
	ID          string
	ShowingID   string
	RequesterID string
	SeatIDs     []string
	CreatedAt   time.Time
	ExpiresAt   time.Time
	State       HoldState
}

// LapsedAt reports whether the hold's TTL has passed at the given instant.
// A lapsed hold may still be ACTIVE until the sweeper, or a lazy check on the
// commit/renew path, transitions it to EXPIRED.
func (h *Hold) LapsedAt(now time.Time) bool {
	return !now.Before(h.ExpiresAt)
}
