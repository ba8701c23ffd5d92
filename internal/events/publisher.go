package events

import (
	"context"
	"time"
)

// BookingCommitted is published after a hold has been finalized into a
// booking. Downstream consumers (ticket delivery, notifications) react to it;
// this core only guarantees the event is emitted best-effort after commit.
type BookingCommitted struct {
	BookingID   string    `json:"booking_id"`
	ShowingID   string    `json:"showing_id"`
	SeatIDs     []string  `json:"seat_ids"`
	TotalAmount string    `json:"total_amount"`
	CommittedAt time.Time `json:"committed_at"`
}

type Publisher interface {
	PublishBookingCommitted(ctx context.Context, event BookingCommitted) error
}

// NoopPublisher is used when no broker is configured.
type NoopPublisher struct{}

func (NoopPublisher) PublishBookingCommitted(ctx context.Context, event BookingCommitted) error {
	return nil
}
