package repository

import (
	"context"
	"fmt"
	"sync"

	"github.com/cinexhq/seat-hold-service/internal/domain"
)

// MemoryBookingRepository keeps committed bookings in process memory. It is
// the default archive when no database is configured (local development,
// tests).
type MemoryBookingRepository struct {
	mu       sync.RWMutex
	bookings map[string]domain.Booking
}

func NewMemoryBookingRepository() *MemoryBookingRepository {
	return &MemoryBookingRepository{
		bookings: make(map[string]domain.Booking),
	}
}

func (r *MemoryBookingRepository) Create(ctx context.Context, booking domain.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.bookings[booking.ID]; ok {
		return fmt.Errorf("%w: %s", domain.ErrBookingExists, booking.ID)
	}

	r.bookings[booking.ID] = booking

	return nil
}

func (r *MemoryBookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	booking, ok := r.bookings[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrBookingNotFound, id)
	}

	return &booking, nil
}
