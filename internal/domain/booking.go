package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Booking is the permanent record created by committing a hold. It is
// immutable after creation and is the only thing that transitions seats to
// BOOKED.
type Booking struct {
	ID          string
	ShowingID   string
	RequesterID string
	SeatIDs     []string
	TotalAmount decimal.Decimal
	CommittedAt time.Time
}

type BookingRepository interface {
	Create(ctx context.Context, booking Booking) error
	GetByID(ctx context.Context, id string) (*Booking, error)
}
